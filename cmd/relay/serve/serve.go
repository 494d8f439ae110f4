package servecmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chatterlyco/relay/pkg/compose"
	"github.com/chatterlyco/relay/pkg/genai"
	"github.com/chatterlyco/relay/pkg/history"
	"github.com/chatterlyco/relay/pkg/logger"
	"github.com/chatterlyco/relay/pkg/notify"
	"github.com/chatterlyco/relay/server"
)

const serveLongDesc string = `Run the relay server.

Receives WhatsApp webhook deliveries, composes an AI reply from the sender's
recent conversation history, sends the reply back through the messaging
provider, and persists the exchange.

Configuration comes from a TOML file, a .env file, and environment
variables, in that order. Required: TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN,
GEMINI_API_KEY.

Examples:
  relay serve
  relay serve --config relay.toml --listen :8000
  relay serve --db /var/lib/relay/relay.db --debug`

const serveShortDesc string = "Run the relay server"

type serveCommander struct {
	configPath string
	listenAddr string
	dbPath     string
	debug      bool
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to TOML config file")
	cmd.Flags().StringVarP(&cmder.listenAddr, "listen", "l", "", "Address to listen on (overrides config)")
	cmd.Flags().StringVar(&cmder.dbPath, "db", "", "Path to SQLite database (overrides config; default in-memory)")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	cfg, err := server.LoadConfig(c.configPath)
	if err != nil {
		return err
	}

	// Flags win over file and environment.
	if c.listenAddr != "" {
		cfg.ListenAddr = c.listenAddr
	}
	if c.dbPath != "" {
		cfg.DBPath = c.dbPath
	}
	if c.debug {
		cfg.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	log, atom := logger.NewLogger(cfg.LogLevel, cfg.Debug)
	defer log.Sync()

	var store history.Store
	if cfg.DBPath != "" {
		store, err = history.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("could not open history store %s: %w", cfg.DBPath, err)
		}
		log.Info("using SQLite history store", zap.String("path", cfg.DBPath))
	} else {
		store = history.NewMemoryStore()
		log.Info("using in-memory history store")
	}
	defer store.Close()

	gen, err := genai.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return err
	}

	messenger, err := notify.NewClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppNumber, log)
	if err != nil {
		return err
	}

	composer := compose.New(gen, log)

	srv := server.New(cfg, store, composer, gen, messenger, log)

	if c.configPath != "" {
		stop, err := server.WatchConfig(c.configPath, atom, log)
		if err != nil {
			log.Warn("config watch unavailable", zap.Error(err))
		} else {
			defer stop()
		}
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := srv.Shutdown(); err != nil {
			log.Error("shutdown failed", zap.Error(err))
		}
	}()

	return srv.Run()
}
