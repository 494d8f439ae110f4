package compose

import (
	"fmt"
	"strings"

	"github.com/chatterlyco/relay/pkg/history"
)

// contextTurns is how many recent exchanges are quoted into the prompt.
const contextTurns = 3

const personalizedPromptFormat = `You are a helpful, intelligent AI assistant. This is your first interaction with the user.

CRITICAL RULES:
- The user's name appears to be %s, so you can greet them personally this ONE time
- If they say an Islamic greeting (Salam, AOA, Assalam), respond with "Walaikum Assalam %s!"
- If they say other greetings, respond naturally with their name once
- Be warm, friendly, and professional
- Ask how you can help them today
- Keep your response under 100 words
- After this greeting, NEVER use their name again unless they specifically ask
- NEVER mention WhatsApp, messaging apps, or customer support unless specifically asked`

const continuingPrompt = `You are an intelligent AI assistant continuing a conversation.

CRITICAL RULES:
- Be helpful, smart, and conversational
- NEVER use the user's name (you already greeted them before)
- Answer any question on any topic - technology, education, life, science, etc.
- Be concise but informative (under 150 words)
- Handle multiple languages: English, Urdu, Roman Urdu, Hindi
- If you don't know something, say so honestly
- Be natural and engaging
- NEVER mention WhatsApp, messaging apps, or customer support unless specifically asked`

const coldStartPrompt = `You are an intelligent AI assistant.

CRITICAL RULES:
- Be helpful, smart, and conversational
- Answer any question on any topic
- Handle multiple languages: English, Urdu, Roman Urdu, Hindi
- Be concise but informative (under 150 words)
- Be natural, friendly, and engaging
- If you don't know something, admit it honestly
- NEVER mention WhatsApp, messaging apps, or customer support unless specifically asked`

// buildPrompt selects the prompt mode and assembles the full generation
// prompt: instructions, up to the last few history turns as role-tagged
// context, and the current message.
func buildPrompt(inbound string, window []*history.Exchange, personalize bool, name string) string {
	var b strings.Builder

	switch {
	case personalize:
		fmt.Fprintf(&b, personalizedPromptFormat, name, name)
	case len(window) > 0:
		b.WriteString(continuingPrompt)
	default:
		b.WriteString(coldStartPrompt)
	}
	b.WriteString("\n\n")

	if len(window) > 0 {
		b.WriteString("Recent conversation context:\n")
		// The window is newest-first; quote the most recent turns in
		// chronological order so the model reads them top to bottom.
		recent := window
		if len(recent) > contextTurns {
			recent = recent[:contextTurns]
		}
		for i := len(recent) - 1; i >= 0; i-- {
			fmt.Fprintf(&b, "User: %s\n", recent[i].InboundText)
			fmt.Fprintf(&b, "You: %s\n", recent[i].OutboundText)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Current user message: %s\n", inbound)
	b.WriteString("Your response:")

	return b.String()
}
