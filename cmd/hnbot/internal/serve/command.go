// Package serve implements the hnbot serve command.
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/wisehuang/daily-hacker-news-line-chatbot/cmd/hnbot/internal"
	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/webhook"
)

func NewServeCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Start the webhook gateway",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return serveCmd(debug)
		},
	}

	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	return cmd
}

func serveCmd(debug bool) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	log := internal.NewLogger(debug)
	pipeline := internal.BuildPipeline(cfg, log)
	server := webhook.NewServer(cfg.Addr(), pipeline, log)

	if err := server.Start(); err != nil {
		return fmt.Errorf("error starting server: %w", err)
	}
	fmt.Printf("Gateway started on %s\n", cfg.Addr())
	fmt.Println("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	<-sigChan

	fmt.Println("\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		return err
	}
	fmt.Println("Gateway stopped")
	return nil
}
