package main

import (
	"fmt"

	"video-rag-chat-be/internal/bootstrap"
	"video-rag-chat-be/internal/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <video-url-or-id>",
	Short: "Fetch a transcript, summarize it and store the summary in the session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(func(c *bootstrap.Container) error {
			color.New(color.Faint).Println("  ↳ summarizing...")

			res, err := c.ChatService.Summarize(cmd.Context(), &dto.SummarizeRequest{
				YtLink:  args[0],
				Session: flagSession,
			})
			if err != nil {
				return err
			}

			color.New(color.FgCyan, color.Bold).Println("Summary")
			fmt.Println(res.Summary)
			return nil
		})
	},
}
