package chat

import "encoding/json"

type FileKind string

const (
	FileKindFile   FileKind = "file"
	FileKindFolder FileKind = "folder"
)

type FileEntry struct {
	Type     FileKind
	Content  string
	IsBinary bool
}

func (f FileEntry) MarshalJSON() ([]byte, error) {
	if f.Type == FileKindFolder {
		return json.Marshal(struct {
			Type FileKind `json:"type"`
		}{Type: f.Type})
	}
	return json.Marshal(struct {
		Type     FileKind `json:"type"`
		Content  string   `json:"content"`
		IsBinary bool     `json:"isBinary"`
	}{Type: f.Type, Content: f.Content, IsBinary: f.IsBinary})
}

func (f *FileEntry) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type     FileKind `json:"type"`
		Content  string   `json:"content"`
		IsBinary bool     `json:"isBinary"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*f = FileEntry{Type: raw.Type, Content: raw.Content, IsBinary: raw.IsBinary}
	return nil
}

// FileMap is keyed by absolute workbench path. Nil entries are allowed and skipped.
type FileMap map[string]*FileEntry

// Snapshot captures project files as of the message ChatIndex names.
type Snapshot struct {
	ChatIndex string  `json:"chatIndex"`
	Files     FileMap `json:"files"`
	Summary   string  `json:"summary,omitempty"`
}
