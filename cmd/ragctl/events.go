package main

import (
	"context"
	"fmt"
	"time"

	"video-rag-chat-be/internal/config"
	"video-rag-chat-be/pkg/events"
	pktNats "video-rag-chat-be/pkg/nats"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	eventsSubject string
	eventsDurable string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Tail domain events from NATS",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.App.NatsURL == "" {
			return fmt.Errorf("NATS_URL is not set")
		}

		sub, err := pktNats.NewSubscriber(cfg.App.NatsURL, newLogger(cfg))
		if err != nil {
			return err
		}
		defer sub.Close()

		ctx := cmd.Context()
		err = sub.Subscribe(ctx, eventsSubject, eventsDurable, func(_ context.Context, e events.Event) error {
			color.New(color.FgCyan).Printf("%s ", e.Timestamp().Format(time.RFC3339))
			color.New(color.Bold).Printf("%s", e.EventType())
			fmt.Printf(" %v\n", e.Payload())
			return nil
		})
		if err != nil {
			return err
		}

		<-ctx.Done()
		return nil
	},
}

func init() {
	eventsCmd.Flags().StringVar(&eventsSubject, "subject", pktNats.SubjectPrefix+">", "Subject filter")
	eventsCmd.Flags().StringVar(&eventsDurable, "durable", "", "Durable consumer name (empty for ephemeral)")
}
