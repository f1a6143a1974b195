// Package broadcast implements the hnbot broadcast command.
package broadcast

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wisehuang/daily-hacker-news-line-chatbot/cmd/hnbot/internal"
)

func NewBroadcastCommand() *cobra.Command {
	var digest bool
	var debug bool

	cmd := &cobra.Command{
		Use:   "broadcast",
		Short: "Broadcast today's stories to all users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return broadcastCmd(cmd.Context(), digest, debug)
		},
	}

	cmd.Flags().BoolVar(&digest, "digest", false, "Send a single digest summary instead of the story carousel")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	return cmd
}

func broadcastCmd(ctx context.Context, digest, debug bool) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	pipeline := internal.BuildPipeline(cfg, internal.NewLogger(debug))
	if digest {
		return pipeline.BroadcastDailyDigest(ctx)
	}
	return pipeline.BroadcastTodayStories(ctx)
}
