package cli

import (
	"bufio"
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

func newTokenCommand(rt *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the GitHub token stored for your account",
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Print the stored GitHub token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, tokenType, found, err := rt.client.GetGitHubToken(cmd.Context())
			if err != nil {
				return err
			}
			if !found {
				rt.printf("No GitHub token stored\n")
				return nil
			}
			rt.printf("%s (%s)\n", token, tokenType)
			return nil
		},
	}

	var tokenType string
	set := &cobra.Command{
		Use:   "set [token]",
		Short: "Store a GitHub token, read from stdin when omitted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("token is required")
				}
				token = line
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return errors.New("token is required")
			}
			if err := rt.client.SetGitHubToken(cmd.Context(), token, tokenType); err != nil {
				return err
			}
			rt.printf("GitHub token saved\n")
			return nil
		},
	}
	set.Flags().StringVar(&tokenType, "type", "", "classic or fine-grained (default classic)")

	del := &cobra.Command{
		Use:   "delete",
		Short: "Remove the stored GitHub token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.client.DeleteGitHubToken(cmd.Context()); err != nil {
				return err
			}
			rt.printf("GitHub token removed\n")
			return nil
		},
	}

	cmd.AddCommand(get, set, del)
	return cmd
}
