package main

import (
	"fmt"

	"video-rag-chat-be/internal/bootstrap"
	"video-rag-chat-be/pkg/store"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var flagRole string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the snippets the session has stored, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagRole != "" && flagRole != store.RoleUser && flagRole != store.RoleAssistant {
			return fmt.Errorf("--role must be %q or %q", store.RoleUser, store.RoleAssistant)
		}
		return withContainer(func(c *bootstrap.Container) error {
			res, err := c.ChatService.Snippets(cmd.Context(), flagSession, flagRole)
			if err != nil {
				return err
			}

			color.New(color.FgCyan, color.Bold).Printf("Session %s (%d snippets)\n", res.Session, len(res.Snippets))
			for _, s := range res.Snippets {
				fmt.Printf("  %s %s\n", roleLabel(s.Role), s.Text)
				if s.Source != "" {
					color.New(color.Faint).Printf("    source: %s\n", s.Source)
				}
			}
			return nil
		})
	},
}

func init() {
	historyCmd.Flags().StringVar(&flagRole, "role", "", "Only list snippets of this role (user or assistant)")
}

func roleLabel(role string) string {
	if role == store.RoleUser {
		return color.GreenString("[user]")
	}
	return color.YellowString("[%s]", role)
}
