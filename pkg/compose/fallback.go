package compose

import (
	"fmt"
	"strings"
)

var (
	islamicGreetings = []string{"salam", "aoa", "assalam"}
	westernGreetings = []string{"hello", "hi", "hey"}
	thanksTokens     = []string{"thanks", "thank you", "shukriya"}
	farewellTokens   = []string{"bye", "goodbye", "alvida"}
	helpTokens       = []string{"help", "madad", "sahayata"}
)

// Fallback is the deterministic rule-based responder used when generation
// fails. Same input, same reply: categories are matched in a fixed order
// (greeting, thanks, farewell, well-being, help, generic) against the
// lower-cased message.
func Fallback(inbound string, personalize bool, name string) string {
	msg := strings.ToLower(strings.TrimSpace(inbound))

	switch {
	case containsAny(msg, islamicGreetings):
		if personalize && name != "" {
			return fmt.Sprintf("Walaikum Assalam %s! How can I help you today?", name)
		}
		return "Walaikum Assalam! How can I help you?"

	case containsAny(msg, westernGreetings):
		if personalize && name != "" {
			return fmt.Sprintf("Hello %s! How can I assist you today?", name)
		}
		return "Hello! How can I assist you today?"

	case containsAny(msg, thanksTokens):
		return "You're welcome! Is there anything else I can help you with?"

	case containsAny(msg, farewellTokens):
		if personalize && name != "" {
			return fmt.Sprintf("Goodbye %s! Feel free to reach out anytime you need help.", name)
		}
		return "Goodbye! Feel free to reach out anytime you need help."

	case strings.Contains(msg, "how are you") || strings.Contains(msg, "kya haal"):
		return "I'm doing well, thank you! How can I help you today?"

	case containsAny(msg, helpTokens):
		return "I'm here to help! What do you need assistance with?"

	default:
		return "I'm here to assist you! Could you please tell me what you'd like to know or discuss?"
	}
}

func containsAny(msg string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(msg, token) {
			return true
		}
	}
	return false
}
