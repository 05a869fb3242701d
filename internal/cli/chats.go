package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/chathistory"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/domain/chat"
)

func newChatsCommand(rt *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "List, export, import and restore chats",
	}
	cmd.AddCommand(
		chatsListCommand(rt),
		chatsShowCommand(rt),
		chatsExportCommand(rt),
		chatsImportCommand(rt),
		chatsImportRepoCommand(rt),
		chatsDuplicateCommand(rt),
		chatsForkCommand(rt),
		chatsRenameCommand(rt),
		chatsDeleteCommand(rt),
		chatsRestoreCommand(rt),
	)
	return cmd
}

func (rt *env) session(sb chathistory.Sandbox) (*chathistory.Session, *console) {
	con := &console{out: rt.opts.Out, errOut: rt.opts.ErrOut}
	return chathistory.NewSession(chathistory.SessionConfig{
		Store:     rt.client,
		Sandbox:   sb,
		Navigator: con,
		Notifier:  con,
		Log:       rt.log,
		Now:       rt.opts.Now,
	}), con
}

func chatsListCommand(rt *env) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List chats, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chats, err := rt.client.ListChats(cmd.Context(), "")
			if err != nil {
				return err
			}
			chats = chathistory.FilterChats(chats, search)
			if len(chats) == 0 {
				rt.printf("No chats found\n")
				return nil
			}
			rt.printf("%-14s %-17s %s\n", "URL ID", "UPDATED", "DESCRIPTION")
			for _, c := range chats {
				rt.printf("%-14s %-17s %s\n", c.URLID, c.UpdatedAt.Local().Format("2006-01-02 15:04"), c.Description)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "only chats whose description contains this text")
	return cmd
}

func chatsShowCommand(rt *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a chat's messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := rt.client.FetchChat(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rt.printf("Chat:     %s\n", item.URLID)
			rt.printf("Title:    %s\n", item.Description)
			rt.printf("Updated:  %s\n", item.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
			if u := item.Metadata.GitURL(); u != "" {
				rt.printf("Repo:     %s\n", u)
			}
			if item.Snapshot != nil {
				rt.printf("Snapshot: %s (%d files)\n", item.Snapshot.ChatIndex, len(item.Snapshot.Files))
			}
			rt.printf("Messages: %d\n\n", len(item.Messages))
			for _, m := range item.Messages {
				rt.printf("[%s] %s\n", m.Role, truncate(m.Content, 200))
			}
			return nil
		},
	}
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func chatsExportCommand(rt *env) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a chat as a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _ := rt.session(nil)
			doc, err := s.Export(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			raw, err := doc.Encode()
			if err != nil {
				return err
			}
			if out == "-" {
				_, err := rt.opts.Out.Write(append(raw, '\n'))
				return err
			}
			path := out
			if path == "" {
				path = chathistory.ExportFileName(rt.opts.Now())
			}
			if err := os.WriteFile(path, raw, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			rt.printf("Exported %d messages to %s\n", len(doc.Messages), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, - for stdout (default chat-<timestamp>.json)")
	return cmd
}

func chatsImportCommand(rt *env) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Create a chat from an exported document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			doc, err := chathistory.ParseImportDocument(f)
			if err != nil {
				return err
			}
			s, _ := rt.session(nil)
			_, err = s.Import(cmd.Context(), doc.Description, doc.Messages, nil)
			return err
		},
	}
}

func chatsImportRepoCommand(rt *env) *cobra.Command {
	var repoURL, branch string
	cmd := &cobra.Command{
		Use:   "import-repo <dir>",
		Short: "Create a chat from a cloned repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if repoURL == "" {
				return errors.New("--url is required")
			}
			imp, err := chathistory.BuildRepoImport(args[0], repoURL, branch)
			if err != nil {
				return err
			}
			if len(imp.Skipped) > 0 {
				fmt.Fprintf(rt.opts.ErrOut, "Skipped %d files\n", len(imp.Skipped))
			}
			s, _ := rt.session(nil)
			_, err = s.Import(cmd.Context(), imp.Description, imp.Messages, imp.Metadata)
			return err
		},
	}
	cmd.Flags().StringVar(&repoURL, "url", "", "repository URL recorded on the chat")
	cmd.Flags().StringVar(&branch, "branch", "", "branch recorded on the chat")
	return cmd
}

func chatsDuplicateCommand(rt *env) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <id>",
		Short: "Copy a chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _ := rt.session(nil)
			_, err := s.Duplicate(cmd.Context(), args[0])
			return err
		},
	}
}

func chatsForkCommand(rt *env) *cobra.Command {
	return &cobra.Command{
		Use:   "fork <id> <messageId>",
		Short: "Start a new chat from the history up to a message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			urlID, err := rt.client.ForkChat(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			rt.printf("Opened /chat/%s\n", urlID)
			return nil
		},
	}
}

func chatsRenameCommand(rt *env) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <urlId> <description>",
		Short: "Change a chat's description",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.client.UpdateDescription(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			rt.printf("Description updated\n")
			return nil
		},
	}
}

func chatsDeleteCommand(rt *env) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete chats one at a time",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				n, err := rt.client.DeleteAllChats(cmd.Context())
				rt.printf("%d chats deleted\n", n)
				return err
			}
			if len(args) == 0 {
				return errors.New("pass at least one chat id or --all")
			}
			report := chathistory.BulkDelete(cmd.Context(), rt.log, rt.client, args)
			if !report.OK() {
				return errors.New(report.Message())
			}
			rt.printf("%s\n", report.Message())
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "delete every chat")
	return cmd
}

func chatsRestoreCommand(rt *env) *cobra.Command {
	var rewindTo, dir string
	cmd := &cobra.Command{
		Use:   "restore <id>",
		Short: "Write a chat's snapshot files to a local directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = args[0]
			}
			sb, err := chathistory.NewFSSandbox(dir, rt.cfg.Workdir)
			if err != nil {
				return err
			}
			s, _ := rt.session(sb)
			defer s.Close()
			if err := s.Load(cmd.Context(), args[0], rewindTo); err != nil {
				return err
			}
			active := len(s.InitialMessages())
			archived := len(s.ArchivedMessages())
			task := s.Restore()
			if task == nil {
				rt.printf("Loaded %d messages. No snapshot to restore.\n", active)
				return nil
			}
			if err := task.Wait(); err != nil {
				return fmt.Errorf("restore snapshot: %w", err)
			}
			files := 0
			for _, f := range s.Snapshot().Files {
				if f != nil && f.Type == chat.FileKindFile {
					files++
				}
			}
			abs, _ := filepath.Abs(dir)
			rt.printf("Restored %d files into %s (%d archived, %d active messages)\n", files, abs, archived, active)
			return nil
		},
	}
	cmd.Flags().StringVar(&rewindTo, "rewind-to", "", "message id to rewind the history to")
	cmd.Flags().StringVar(&dir, "dir", "", "target directory (default ./<id>)")
	return cmd
}
