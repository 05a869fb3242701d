package chathistory

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultWorkdir is the in-browser sandbox's project root.
const DefaultWorkdir = "/home/project"

// FSSandbox materializes snapshot files under a local directory.
type FSSandbox struct {
	root    string
	workdir string
}

func NewFSSandbox(root, workdir string) (*FSSandbox, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("sandbox root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if workdir == "" {
		workdir = DefaultWorkdir
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &FSSandbox{root: abs, workdir: workdir}, nil
}

func (s *FSSandbox) Root() string    { return s.root }
func (s *FSSandbox) Workdir() string { return s.workdir }

// resolve keeps every write inside root.
func (s *FSSandbox) resolve(p string) (string, error) {
	clean := filepath.Clean(filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(p, "/"))))
	if clean != s.root && !strings.HasPrefix(clean, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("path %q escapes sandbox", p)
	}
	return clean, nil
}

func (s *FSSandbox) MkdirAll(ctx context.Context, p string) error {
	full, err := s.resolve(p)
	if err != nil {
		return err
	}
	return os.MkdirAll(full, 0o755)
}

// WriteFile stores binary content base64-decoded when it decodes cleanly.
func (s *FSSandbox) WriteFile(ctx context.Context, p, content string, binary bool) error {
	full, err := s.resolve(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	data := []byte(content)
	if binary {
		if decoded, err := base64.StdEncoding.DecodeString(content); err == nil {
			data = decoded
		}
	}
	return os.WriteFile(full, data, 0o644)
}
