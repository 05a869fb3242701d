package chathistory

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	types "github.com/sixtyoneeightyjake/mojocodefinal/internal/domain"
)

// ProjectFile is a path and its text content.
type ProjectFile struct {
	Path    string
	Content string
}

// ProjectCommands is how a restored or imported project gets set up and run.
type ProjectCommands struct {
	Type            string
	SetupCommand    string
	StartCommand    string
	FollowupMessage string
}

var preferredScripts = []string{"dev", "start", "preview"}

func findFile(files []ProjectFile, name string) (ProjectFile, bool) {
	for _, f := range files {
		if strings.HasSuffix(f.Path, name) {
			return f, true
		}
	}
	return ProjectFile{}, false
}

// DetectProjectCommands inspects package.json scripts, falling back to a
// static server when only index.html is present.
func DetectProjectCommands(files []ProjectFile) ProjectCommands {
	if pkg, ok := findFile(files, "package.json"); ok {
		var manifest struct {
			Scripts map[string]any `json:"scripts"`
		}
		if err := json.Unmarshal([]byte(pkg.Content), &manifest); err != nil {
			return ProjectCommands{}
		}
		for _, name := range preferredScripts {
			if v, ok := manifest.Scripts[name]; ok && v != nil && v != "" {
				return ProjectCommands{
					Type:            "Node.js",
					SetupCommand:    "npm install",
					StartCommand:    "npm run " + name,
					FollowupMessage: fmt.Sprintf(`Found "%s" script in package.json. Running "npm run %s" after installation.`, name, name),
				}
			}
		}
		return ProjectCommands{
			Type:            "Node.js",
			SetupCommand:    "npm install",
			FollowupMessage: "Would you like me to inspect package.json to determine the available scripts for running this project?",
		}
	}
	if _, ok := findFile(files, "index.html"); ok {
		return ProjectCommands{Type: "Static", StartCommand: "npx --yes serve"}
	}
	return ProjectCommands{}
}

func (pc ProjectCommands) empty() bool {
	return pc.SetupCommand == "" && pc.StartCommand == ""
}

// CommandActions renders the shell and start actions for the workbench.
func CommandActions(pc ProjectCommands) string {
	var b strings.Builder
	if pc.SetupCommand != "" {
		fmt.Fprintf(&b, "\n<boltAction type=\"shell\">%s</boltAction>", pc.SetupCommand)
	}
	if pc.StartCommand != "" {
		fmt.Fprintf(&b, "\n<boltAction type=\"start\">%s</boltAction>\n", pc.StartCommand)
	}
	return b.String()
}

// CommandsMessage wraps the actions in a project-setup artifact. It reports
// false when there is nothing to run.
func CommandsMessage(pc ProjectCommands) (types.ChatMessage, bool) {
	if pc.empty() {
		return types.ChatMessage{}, false
	}
	content := "\n<boltArtifact id=\"project-setup\" title=\"Project Setup\">\n" + CommandActions(pc) + "\n</boltArtifact>"
	if pc.FollowupMessage != "" {
		content += "\n\n" + pc.FollowupMessage
	}
	return newMessage(types.ChatMessage{Role: "assistant", Content: content}), true
}

var artifactTag = regexp.MustCompile(`</?bolt(?:Artifact|Action)[^>]*>`)

// EscapeArtifactTags keeps file contents from opening or closing workbench
// artifacts when embedded in a message.
func EscapeArtifactTags(s string) string {
	return artifactTag.ReplaceAllStringFunc(s, func(tag string) string {
		return "&lt;" + tag[1:len(tag)-1] + "&gt;"
	})
}

// newMessage assigns an id and a createdAt to m.
func newMessage(m types.ChatMessage) types.ChatMessage {
	if m.ID == "" {
		m.ID = newMessageID()
	}
	created, _ := json.Marshal(now().UTC().Format(time.RFC3339Nano))
	if m.Extra == nil {
		m.Extra = map[string]json.RawMessage{}
	}
	m.Extra["createdAt"] = created
	return m
}
