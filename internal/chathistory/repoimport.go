package chathistory

import (
	"bytes"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	types "github.com/sixtyoneeightyjake/mojocodefinal/internal/domain"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/domain/chat"
)

const (
	maxImportFileSize  = 100 * 1024
	maxImportTotalSize = 500 * 1024
)

// Top-level directories never imported.
var ignoredDirs = []string{
	"node_modules", ".git", ".github", ".vscode", "dist",
	"build", ".next", "coverage", ".cache", ".idea",
}

// Basename patterns ignored at any depth. Lock files other than yaml are
// kept so npm install stays fast.
var ignoredNames = []string{
	"*.log", ".DS_Store", "npm-debug.log*", "yarn-debug.log*", "yarn-error.log*", "*lock.yaml",
}

var textExtension = regexp.MustCompile(`(?i)\.(txt|md|astro|mjs|js|jsx|ts|tsx|json|html|css|scss|less|yml|yaml|xml|svg|vue|svelte)$`)

// RepoImport is what importing a cloned working tree produces.
type RepoImport struct {
	Description string
	Messages    []types.ChatMessage
	Metadata    types.ChatMetadata
	Files       []ProjectFile
	Skipped     []string
}

func ignoredPath(rel string) bool {
	first, _, _ := strings.Cut(rel, "/")
	for _, d := range ignoredDirs {
		if first == d {
			return true
		}
	}
	base := path.Base(rel)
	for _, pat := range ignoredNames {
		if ok, _ := path.Match(pat, base); ok {
			return true
		}
	}
	return false
}

func looksBinary(b []byte) bool {
	return bytes.IndexByte(b, 0) >= 0 || !utf8.Valid(b)
}

// BuildRepoImport reads the cloned tree at dir and renders it as an
// importable chat. Paths are recorded relative to dir.
func BuildRepoImport(dir, repoURL, branch string) (*RepoImport, error) {
	var rels []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == dir {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if ignoredPath(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && !ignoredPath(rel) {
			rels = append(rels, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}

	out := &RepoImport{}
	total := 0
	for _, rel := range rels {
		raw, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			out.Skipped = append(out.Skipped, fmt.Sprintf("%s (error: %v)", rel, err))
			continue
		}
		if looksBinary(raw) && !textExtension.MatchString(rel) {
			out.Skipped = append(out.Skipped, rel)
			continue
		}
		if len(raw) == 0 {
			continue
		}
		size := len(raw)
		if size > maxImportFileSize {
			out.Skipped = append(out.Skipped, fmt.Sprintf("%s (too large: %dKB)", rel, int(math.Round(float64(size)/1024))))
			continue
		}
		if total+size > maxImportTotalSize {
			out.Skipped = append(out.Skipped, rel+" (would exceed total size limit)")
			continue
		}
		total += size
		out.Files = append(out.Files, ProjectFile{Path: rel, Content: string(raw)})
	}

	out.Messages = []types.ChatMessage{newMessage(types.ChatMessage{
		Role:    chat.RoleAssistant,
		Content: clonedFilesContent(repoURL, out.Files, out.Skipped),
	})}
	if cmds, ok := CommandsMessage(DetectProjectCommands(out.Files)); ok {
		out.Messages = append(out.Messages, cmds)
	}

	segments := strings.Split(repoURL, "/")
	out.Description = "Git Project:" + segments[len(segments)-1]
	out.Metadata = types.ChatMetadata{chat.MetadataGitURL: repoURL}
	if branch != "" {
		out.Metadata[chat.MetadataGitBranch] = branch
	}
	return out, nil
}

func clonedFilesContent(repoURL string, files []ProjectFile, skipped []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cloning the repo %s into %s\n", repoURL, DefaultWorkdir)
	if len(skipped) > 0 {
		fmt.Fprintf(&b, "\nSkipped files (%d):\n", len(skipped))
		for i, s := range skipped {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString("- " + s)
		}
	}
	b.WriteString("\n\n<boltArtifact id=\"imported-files\" title=\"Git Cloned Files\" type=\"bundled\">\n")
	for i, f := range files {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "<boltAction type=\"file\" filePath=\"%s\">\n%s\n</boltAction>", f.Path, EscapeArtifactTags(f.Content))
	}
	b.WriteString("\n</boltArtifact>")
	return b.String()
}
