// Package notify delivers replies back to the sender over the Twilio
// WhatsApp messaging API.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.twilio.com"

// addressPrefix is the transport scheme Twilio expects on WhatsApp addresses.
const addressPrefix = "whatsapp:"

// Messenger delivers a text reply to a recipient address. Implemented by
// Client; the server depends on this interface so tests can substitute a fake.
type Messenger interface {
	// Send reports delivery success. Transport errors are logged by the
	// implementation and reported as false, never raised.
	Send(ctx context.Context, to, body string) bool
}

// Client sends WhatsApp messages through the Twilio REST API.
type Client struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client sending from the given service address.
func NewClient(accountSID, authToken, from string, logger *zap.Logger, opts ...Option) (*Client, error) {
	if strings.TrimSpace(accountSID) == "" {
		return nil, errors.New("notify: account sid must not be empty")
	}
	if strings.TrimSpace(authToken) == "" {
		return nil, errors.New("notify: auth token must not be empty")
	}
	if strings.TrimSpace(from) == "" {
		return nil, errors.New("notify: from address must not be empty")
	}

	c := &Client{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NormalizeAddress converts a raw recipient into the transport's address
// scheme: any existing prefix is stripped, a leading + is ensured on the
// number, and the whatsapp: prefix is applied.
func NormalizeAddress(raw string) string {
	number := strings.TrimPrefix(strings.TrimSpace(raw), addressPrefix)
	if !strings.HasPrefix(number, "+") {
		number = "+" + number
	}
	return addressPrefix + number
}

// Send delivers body to the recipient. All failures are logged and reported
// as false.
func (c *Client) Send(ctx context.Context, to, body string) bool {
	recipient := NormalizeAddress(to)

	form := url.Values{}
	form.Set("From", c.from)
	form.Set("To", recipient)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		c.logger.Error("building send request failed", zap.Error(err))
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	c.logger.Info("sending message",
		zap.String("to", recipient),
		zap.String("from", c.from),
	)

	res, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("message send failed", zap.Error(err))
		return false
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		c.logger.Error("message provider rejected send",
			zap.Int("status", res.StatusCode),
			zap.String("body", string(buf)),
		)
		return false
	}

	c.logger.Info("message sent", zap.String("to", recipient))
	return true
}
