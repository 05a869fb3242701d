package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/chathistory"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
)

// Options carries the process-level dependencies of the command tree.
type Options struct {
	Out        io.Writer
	ErrOut     io.Writer
	HTTPClient *http.Client
	Now        func() time.Time
}

type env struct {
	opts       Options
	configPath string
	baseURL    string
	token      string
	verbose    bool

	cfg    Config
	log    *logger.Logger
	client *chathistory.Client
}

// NewRootCommand builds mojoctl. Subcommands share the resolved config and
// chat history client.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ErrOut == nil {
		opts.ErrOut = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	rt := &env{opts: opts}

	root := &cobra.Command{
		Use:           "mojoctl",
		Short:         "Manage Mojo chat history from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.setup()
		},
	}
	root.SetOut(opts.Out)
	root.SetErr(opts.ErrOut)

	pf := root.PersistentFlags()
	pf.StringVar(&rt.configPath, "config", DefaultConfigPath(), "config file")
	pf.StringVar(&rt.baseURL, "base-url", "", "Mojo server URL (env MOJO_BASE_URL)")
	pf.StringVar(&rt.token, "token", "", "session token (env MOJO_SESSION_TOKEN)")
	pf.BoolVarP(&rt.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(newChatsCommand(rt), newTokenCommand(rt), newLoginCommand(rt))
	return root
}

func (rt *env) setup() error {
	file, err := LoadConfig(rt.configPath)
	if err != nil {
		return err
	}
	rt.cfg = file.resolve(rt.baseURL, rt.token)

	rt.log = logger.Nop()
	if rt.verbose {
		if rt.log, err = logger.New("development"); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}

	rt.client, err = chathistory.NewClient(rt.log, chathistory.ClientConfig{
		BaseURL:      rt.cfg.BaseURL,
		SessionToken: rt.cfg.SessionToken,
		HTTPClient:   rt.opts.HTTPClient,
	})
	return err
}

func (rt *env) printf(format string, args ...any) {
	fmt.Fprintf(rt.opts.Out, format, args...)
}

// Execute runs mojoctl with the process arguments and returns the exit code.
func Execute(ctx context.Context) int {
	root := NewRootCommand(Options{})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func newLoginCommand(rt *env) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Save --base-url and --token to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rt.cfg.SessionToken == "" {
				return fmt.Errorf("--token is required")
			}
			if err := SaveConfig(rt.configPath, rt.cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			rt.printf("Saved %s\n", rt.configPath)
			return nil
		},
	}
}
