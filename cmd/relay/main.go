package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	servecmder "github.com/chatterlyco/relay/cmd/relay/serve"
)

func main() {
	root := &cobra.Command{
		Use:           "relay",
		Short:         "AI-powered WhatsApp auto-responder",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(servecmder.NewServeCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
