// Package compose turns an inbound message plus a window of recent history
// into a reply, deciding the personalization mode and degrading to a
// deterministic responder when generation fails.
package compose

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chatterlyco/relay/pkg/genai"
	"github.com/chatterlyco/relay/pkg/history"
)

// Provenance tags reported alongside every reply.
const (
	ProviderGemini   = "gemini"
	ProviderFallback = "intelligent_fallback"
	ProviderError    = "error"
)

const (
	// generateTimeout is the hard ceiling on a single generation call.
	generateTimeout = 8 * time.Second

	// stalenessThreshold is how old the newest exchange may be before the
	// sender counts as starting a fresh conversation again.
	stalenessThreshold = 6 * time.Hour
)

// greetingTokens spans English and transliterated South-Asian greetings.
var greetingTokens = []string{
	"salam", "assalam", "aoa", "assalamu alaikum",
	"hello", "hi", "hey",
	"good morning", "good afternoon", "good evening",
	"namaste", "adab",
}

// rolePrefixes are generation artifacts stripped from the start of replies.
var rolePrefixes = []string{"You:", "Assistant:", "Response:", "Your response:"}

// Result is the outcome of a single composition. The composer always returns
// a well-formed result; failures are only visible through the Provider tag.
type Result struct {
	Reply     string
	Provider  string
	LatencyMS int64
}

// Composer decides the personalization mode for each inbound message and
// produces the reply. It is stateless per call: everything it needs is
// derived from the history window passed in.
type Composer struct {
	gen    genai.Generator
	logger *zap.Logger

	// now is swappable for staleness tests.
	now func() time.Time
}

// New creates a Composer over the given generator.
func New(gen genai.Generator, logger *zap.Logger) *Composer {
	return &Composer{gen: gen, logger: logger, now: time.Now}
}

// Compose produces a reply for the inbound text. The window is newest-first,
// as returned by the history store; name is the sender's display name, empty
// when unknown. Compose never fails: any generation error degrades to the
// rule-based fallback.
func (c *Composer) Compose(ctx context.Context, inbound string, window []*history.Exchange, name string) Result {
	start := c.now()

	first := c.firstInteraction(window)
	greeting := greetingDetected(inbound)
	personalize := first && greeting && name != ""

	c.logger.Debug("composing reply",
		zap.Bool("first_interaction", first),
		zap.Bool("greeting", greeting),
		zap.Bool("personalize", personalize),
		zap.Int("window_size", len(window)),
	)

	reply, err := c.generate(ctx, inbound, window, personalize, name)
	elapsed := c.now().Sub(start).Milliseconds()

	if err == nil && reply != "" {
		return Result{Reply: reply, Provider: ProviderGemini, LatencyMS: elapsed}
	}

	if err != nil {
		c.logger.Warn("generation failed, using fallback", zap.Error(err))
	}

	reply = Fallback(inbound, personalize, name)
	return Result{Reply: reply, Provider: ProviderFallback, LatencyMS: c.now().Sub(start).Milliseconds()}
}

// firstInteraction reports whether the sender counts as starting fresh:
// no history at all, or the newest exchange is at least the staleness
// threshold old. A newest exchange whose stored timestamp could not be
// parsed (zero CreatedAt) counts as a continuing conversation; empty
// history and unknown age deliberately resolve in opposite directions.
func (c *Composer) firstInteraction(window []*history.Exchange) bool {
	if len(window) == 0 {
		return true
	}

	newest := window[0]
	if newest.CreatedAt.IsZero() {
		return false
	}

	return c.now().Sub(newest.CreatedAt) >= stalenessThreshold
}

// greetingDetected reports whether the trimmed, lower-cased text contains
// any known greeting token.
func greetingDetected(text string) bool {
	msg := strings.ToLower(strings.TrimSpace(text))
	for _, token := range greetingTokens {
		if strings.Contains(msg, token) {
			return true
		}
	}
	return false
}

// generate calls the generator under the hard timeout and cleans the output.
func (c *Composer) generate(ctx context.Context, inbound string, window []*history.Exchange, personalize bool, name string) (string, error) {
	prompt := buildPrompt(inbound, window, personalize, name)

	gctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	reply, err := c.gen.Generate(gctx, prompt)
	if err != nil {
		return "", err
	}

	reply = strings.TrimSpace(reply)
	for _, prefix := range rolePrefixes {
		if strings.HasPrefix(reply, prefix) {
			reply = strings.TrimSpace(strings.TrimPrefix(reply, prefix))
		}
	}
	return reply, nil
}
