// Package server wires the webhook transport to the composer, history store,
// and outbound messenger, and exposes the operational endpoints.
package server

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chatterlyco/relay/pkg/compose"
	"github.com/chatterlyco/relay/pkg/history"
	"github.com/chatterlyco/relay/pkg/notify"
)

const (
	serviceName    = "WhatsApp AI Relay"
	serviceVersion = "1.0.0"
	aiProviderName = "Google Gemini"

	// historyLimit bounds the window of recent exchanges fetched per message.
	historyLimit = 5

	// persistTimeout bounds the background write of an exchange.
	persistTimeout = 10 * time.Second
)

// Prober checks generator connectivity for the diagnostics endpoint.
type Prober interface {
	Probe(ctx context.Context) (bool, error)
	Model() string
}

// Server is the relay HTTP server. All collaborators are injected at
// construction; the server holds no process-level singletons.
type Server struct {
	config    Config
	store     history.Store
	composer  *compose.Composer
	prober    Prober
	messenger notify.Messenger
	logger    *zap.Logger
	app       *fiber.App
}

// New assembles the server and registers its routes.
func New(config Config, store history.Store, composer *compose.Composer, prober Prober, messenger notify.Messenger, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		// Anything that escapes a handler surfaces as a generic internal
		// error with no detail leaked.
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			logger.Error("unhandled handler error", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(statusResponse{
				Status:   "error",
				Message:  "internal server error",
				Provider: compose.ProviderError,
			})
		},
	})
	app.Use(recover.New())

	s := &Server{
		config:    config,
		store:     store,
		composer:  composer,
		prober:    prober,
		messenger: messenger,
		logger:    logger,
		app:       app,
	}

	app.Get("/", s.handleIndex)

	api := app.Group("/api/v1")
	api.Post("/webhook/whatsapp", s.handleInbound)
	api.Get("/webhook/whatsapp", s.handleVerify)
	api.Get("/health", s.handleHealth)
	api.Get("/test-gemini", s.handleProbe)
	api.Get("/stats", s.handleStats)
	api.Delete("/conversations", s.handleClearAll)

	return s
}

// Run starts the server on the configured listen address.
func (s *Server) Run() error {
	s.logger.Info("starting relay server",
		zap.String("listen", s.config.ListenAddr),
		zap.String("model", s.prober.Model()),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully stops the HTTP server. Collaborators are owned and
// closed by the caller that constructed them.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// statusResponse is the JSON shape returned to the webhook caller.
type statusResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Provider string `json:"provider,omitempty"`
}

// handleInbound processes one inbound message: fetch history, compose the
// reply, deliver it, then persist the exchange off the request path.
func (s *Server) handleInbound(c *fiber.Ctx) error {
	// Form values alias the fasthttp request buffer, which is recycled as
	// soon as this handler returns. Anything that outlives the request —
	// the persistence goroutine in particular — needs its own copy.
	body := utils.CopyString(c.FormValue("Body"))
	from := utils.CopyString(c.FormValue("From"))
	to := c.FormValue("To")
	messageSID := utils.CopyString(c.FormValue("MessageSid"))

	if body == "" || from == "" || to == "" {
		return c.Status(fiber.StatusBadRequest).JSON(statusResponse{
			Status:  "error",
			Message: "Body, From, and To are required",
		})
	}

	sender := strings.TrimPrefix(from, "whatsapp:")

	s.logger.Info("received message",
		zap.String("from", sender),
		zap.String("message_sid", messageSID),
	)

	// A store failure must not cost the user a reply; compose without context.
	window, err := s.store.FetchRecent(c.Context(), sender, historyLimit)
	if err != nil {
		s.logger.Error("history fetch failed", zap.Error(err))
		window = nil
	}

	name := displayName(sender)

	result := s.composer.Compose(c.Context(), body, window, name)

	s.logger.Info("reply composed",
		zap.String("provider", result.Provider),
		zap.Int64("latency_ms", result.LatencyMS),
	)

	if !s.messenger.Send(c.Context(), from, result.Reply) {
		s.logger.Error("reply delivery failed", zap.String("to", sender))
		// Still 200: a non-2xx would make the provider re-deliver the
		// webhook and duplicate the exchange. The body says what happened.
		return c.JSON(statusResponse{
			Status:   "delivery_failed",
			Message:  "reply generated but could not be delivered",
			Provider: result.Provider,
		})
	}

	if messageSID == "" {
		messageSID = uuid.NewString()
	}

	// The user already has the reply; persistence is best-effort and must
	// not hold up the webhook response.
	go s.persistExchange(&history.Exchange{
		CorrelationID: messageSID,
		SenderID:      sender,
		InboundText:   body,
		OutboundText:  result.Reply,
		LatencyMS:     result.LatencyMS,
		Kind:          history.KindText,
	})

	s.logger.Info("response sent", zap.String("to", sender))

	return c.JSON(statusResponse{
		Status:   "success",
		Message:  "Message processed",
		Provider: result.Provider,
	})
}

// persistExchange writes the exchange under its own context, detached from
// the already-answered request. At-most-once; loss on crash is accepted.
func (s *Server) persistExchange(ex *history.Exchange) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.store.Append(ctx, ex); err != nil {
		s.logger.Error("background save failed",
			zap.String("sender", ex.SenderID),
			zap.Error(err),
		)
		return
	}

	s.logger.Debug("exchange saved",
		zap.Int64("id", ex.ID),
		zap.String("correlation_id", ex.CorrelationID),
	)
}

// displayName resolves a friendly display name for the sender. There is no
// contact directory, so every sender gets the generic "there".
func displayName(string) string {
	return "there"
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": serviceName + " is running",
		"status":  "active",
		"version": serviceVersion,
		"endpoints": fiber.Map{
			"webhook": "/api/v1/webhook/whatsapp",
			"health":  "/api/v1/health",
			"stats":   "/api/v1/stats",
		},
	})
}

func (s *Server) handleVerify(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "webhook_verified",
		"message": "WhatsApp webhook is active",
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":      "healthy",
		"service":     serviceName,
		"version":     serviceVersion,
		"ai_provider": aiProviderName,
	})
}

// handleProbe invokes the generator with a fixed prompt and reports
// working, failed, or error.
func (s *Server) handleProbe(c *fiber.Ctx) error {
	working, err := s.prober.Probe(c.Context())

	switch {
	case err != nil:
		return c.JSON(fiber.Map{
			"gemini_status": "error",
			"message":       err.Error(),
			"model":         s.prober.Model(),
		})
	case working:
		return c.JSON(fiber.Map{
			"gemini_status": "working",
			"message":       "Gemini API is working",
			"model":         s.prober.Model(),
		})
	default:
		return c.JSON(fiber.Map{
			"gemini_status": "failed",
			"message":       "Gemini API connection failed",
			"model":         s.prober.Model(),
		})
	}
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	database := "connected"
	if err := s.store.Ping(c.Context()); err != nil {
		s.logger.Warn("store ping failed", zap.Error(err))
		database = "disconnected"
	}

	return c.JSON(fiber.Map{
		"status":      "active",
		"database":    database,
		"ai_provider": aiProviderName,
	})
}

// handleClearAll removes every stored exchange. Destructive, so it requires
// the configured admin bearer token; with no token configured it refuses
// every request rather than running open.
func (s *Server) handleClearAll(c *fiber.Ctx) error {
	if !s.authorized(c.Get(fiber.HeaderAuthorization)) {
		return c.Status(fiber.StatusForbidden).JSON(statusResponse{
			Status:  "error",
			Message: "admin token required",
		})
	}

	deleted, err := s.store.ClearAll(c.Context())
	if err != nil {
		s.logger.Error("clearing conversations failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(statusResponse{
			Status:  "error",
			Message: "failed to clear conversations",
		})
	}

	s.logger.Info("conversations cleared", zap.Int64("deleted", deleted))

	return c.JSON(fiber.Map{
		"deleted_count": deleted,
		"message":       "All conversations cleared",
	})
}

func (s *Server) authorized(header string) bool {
	if s.config.AdminToken == "" {
		return false
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.config.AdminToken)) == 1
}
