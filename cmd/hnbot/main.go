// hnbot relays daily Hacker News stories to LINE users, with AI-driven
// command handling and summarization.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wisehuang/daily-hacker-news-line-chatbot/cmd/hnbot/internal/broadcast"
	"github.com/wisehuang/daily-hacker-news-line-chatbot/cmd/hnbot/internal/serve"
)

func NewHnbotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "hnbot",
		Short:   "Daily Hacker News LINE chatbot",
		Example: "hnbot serve",
	}

	cmd.AddCommand(
		serve.NewServeCommand(),
		broadcast.NewBroadcastCommand(),
	)

	return cmd
}

func main() {
	cmd := NewHnbotCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
