package chat

const (
	MetadataGitURL        = "gitUrl"
	MetadataGitBranch     = "gitBranch"
	MetadataNetlifySiteID = "netlifySiteId"
)

// Metadata is the open key/value bag attached to a chat.
type Metadata map[string]any

func (m Metadata) String(key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func (m Metadata) GitURL() string    { return m.String(MetadataGitURL) }
func (m Metadata) GitBranch() string { return m.String(MetadataGitBranch) }

// Merge returns a copy of m with patch's top-level keys laid over it.
func (m Metadata) Merge(patch Metadata) Metadata {
	out := make(Metadata, len(m)+len(patch))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	return Metadata{}.Merge(m)
}
