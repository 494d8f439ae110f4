// Package history persists conversation exchanges and serves bounded,
// newest-first windows of a sender's recent turns.
package history

import "time"

// KindText is the default exchange classification.
const KindText = "text"

// Exchange is one persisted inbound/outbound message pair.
// Exchanges are immutable once stored: there is no update operation,
// only insert, bulk-read-by-sender, and bulk-delete-all.
type Exchange struct {
	// ID is assigned by the store on insert.
	ID int64 `json:"id"`

	// CorrelationID ties the exchange back to the inbound webhook request
	// (provider message SID, or a generated UUID when the provider sent none).
	CorrelationID string `json:"correlation_id"`

	// SenderID is the stable identifier of the conversing party,
	// a phone-number-shaped string without any transport prefix.
	SenderID string `json:"sender_id"`

	InboundText  string `json:"inbound_text"`
	OutboundText string `json:"outbound_text"`

	// CreatedAt is assigned at persistence time. A zero value on a row read
	// back from storage means the stored timestamp could not be parsed.
	CreatedAt time.Time `json:"created_at"`

	// LatencyMS is the measured generation time, when known.
	LatencyMS int64 `json:"latency_ms,omitempty"`

	// Kind classifies the exchange, default "text".
	Kind string `json:"kind"`
}
