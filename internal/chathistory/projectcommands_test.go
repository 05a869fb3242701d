package chathistory

import (
	"strings"
	"testing"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/domain/chat"
)

func TestDetectProjectCommands(t *testing.T) {
	tests := []struct {
		name  string
		files []ProjectFile
		want  ProjectCommands
	}{
		{
			name:  "dev wins over start",
			files: []ProjectFile{{Path: "package.json", Content: `{"scripts":{"start":"node .","dev":"vite"}}`}},
			want: ProjectCommands{Type: "Node.js", SetupCommand: "npm install", StartCommand: "npm run dev",
				FollowupMessage: `Found "dev" script in package.json. Running "npm run dev" after installation.`},
		},
		{
			name:  "preview only",
			files: []ProjectFile{{Path: "/home/project/package.json", Content: `{"scripts":{"preview":"vite preview"}}`}},
			want: ProjectCommands{Type: "Node.js", SetupCommand: "npm install", StartCommand: "npm run preview",
				FollowupMessage: `Found "preview" script in package.json. Running "npm run preview" after installation.`},
		},
		{
			name:  "no runnable script",
			files: []ProjectFile{{Path: "package.json", Content: `{"scripts":{"lint":"eslint ."}}`}},
			want: ProjectCommands{Type: "Node.js", SetupCommand: "npm install",
				FollowupMessage: "Would you like me to inspect package.json to determine the available scripts for running this project?"},
		},
		{name: "broken manifest", files: []ProjectFile{{Path: "package.json", Content: "{"}}},
		{name: "static site", files: []ProjectFile{{Path: "index.html", Content: "<html>"}}, want: ProjectCommands{Type: "Static", StartCommand: "npx --yes serve"}},
		{name: "nothing to run", files: []ProjectFile{{Path: "README.md", Content: "hi"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectProjectCommands(tc.files); got != tc.want {
				t.Fatalf("commands: want=%+v got=%+v", tc.want, got)
			}
		})
	}
}

func TestCommandsMessage(t *testing.T) {
	if _, ok := CommandsMessage(ProjectCommands{}); ok {
		t.Fatalf("empty commands should produce no message")
	}
	msg, ok := CommandsMessage(ProjectCommands{SetupCommand: "npm install", StartCommand: "npm run dev", FollowupMessage: "Running."})
	if !ok {
		t.Fatalf("CommandsMessage: want ok")
	}
	if msg.Role != chat.RoleAssistant || msg.ID == "" || msg.Extra["createdAt"] == nil {
		t.Fatalf("message: got=%+v", msg)
	}
	want := "\n<boltArtifact id=\"project-setup\" title=\"Project Setup\">\n" +
		"\n<boltAction type=\"shell\">npm install</boltAction>" +
		"\n<boltAction type=\"start\">npm run dev</boltAction>\n" +
		"\n</boltArtifact>\n\nRunning."
	if msg.Content != want {
		t.Fatalf("content:\nwant=%q\ngot= %q", want, msg.Content)
	}
}

func TestEscapeArtifactTags(t *testing.T) {
	in := `const s = "<boltArtifact id=\"x\">"; // </boltAction> <div>`
	got := EscapeArtifactTags(in)
	if strings.Contains(got, "<bolt") || strings.Contains(got, "</bolt") {
		t.Fatalf("tags survived: %s", got)
	}
	if !strings.Contains(got, `&lt;boltArtifact id=\"x\"&gt;`) || !strings.Contains(got, "&lt;/boltAction&gt;") || !strings.Contains(got, "<div>") {
		t.Fatalf("escaped: got=%s", got)
	}
}
