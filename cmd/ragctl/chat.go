package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"video-rag-chat-be/internal/bootstrap"
	"video-rag-chat-be/internal/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var exitCommands = map[string]bool{
	"exit":  true,
	"quit":  true,
	"/exit": true,
	"/quit": true,
}

var chatInteractive bool

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Ask a question about what the session has seen so far",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !chatInteractive && len(args) == 0 {
			return fmt.Errorf("pass a question or use --interactive")
		}

		return withContainer(func(c *bootstrap.Container) error {
			if len(args) == 1 {
				if err := ask(cmd.Context(), c, args[0]); err != nil {
					return err
				}
			}
			if chatInteractive {
				return repl(cmd.Context(), c)
			}
			return nil
		})
	},
}

func init() {
	chatCmd.Flags().BoolVarP(&chatInteractive, "interactive", "i", false, "Keep reading questions from stdin")
}

func ask(ctx context.Context, c *bootstrap.Container, question string) error {
	res, err := c.ChatService.Chat(ctx, &dto.ChatRequest{
		UserQuery: question,
		Session:   flagSession,
	})
	if err != nil {
		return err
	}
	color.New(color.FgGreen, color.Bold).Print("Assistant: ")
	fmt.Println(res.Answer)
	return nil
}

func repl(ctx context.Context, c *bootstrap.Container) error {
	fmt.Println("Interactive mode (type 'exit' or Ctrl+D to quit)")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		color.New(color.FgYellow).Print("You: ")
		if !scanner.Scan() {
			fmt.Println("\nGoodbye!")
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if exitCommands[strings.ToLower(line)] {
			fmt.Println("Goodbye!")
			return nil
		}

		// a failed turn leaves the session untouched, so keep going
		if err := ask(ctx, c, line); err != nil {
			color.Red("Error: %v", err)
		}
	}
}
