// Command ragctl runs the summarize/chat pipeline in-process, without the
// HTTP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"video-rag-chat-be/internal/bootstrap"
	"video-rag-chat-be/internal/config"
	"video-rag-chat-be/internal/pkg/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	flagSession string
	flagLogs    bool
)

var rootCmd = &cobra.Command{
	Use:           "ragctl",
	Short:         "Summarize videos and chat about them from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagSession, "session", "s", "cli", "Session ID")
	rootCmd.PersistentFlags().BoolVar(&flagLogs, "logs", false, "Show runtime logs")

	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(eventsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) logger.ILogger {
	if flagLogs {
		return logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	}
	return logger.NewNopLogger()
}

// withContainer builds the pipeline, runs fn and tears everything down.
func withContainer(fn func(c *bootstrap.Container) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	container, err := bootstrap.NewContainer(cfg, newLogger(cfg))
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer container.Close()

	return fn(container)
}
