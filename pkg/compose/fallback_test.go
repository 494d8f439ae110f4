package compose_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chatterlyco/relay/pkg/compose"
)

var _ = Describe("Fallback", func() {
	It("is deterministic for identical inputs", func() {
		for i := 0; i < 5; i++ {
			Expect(compose.Fallback("Hi", true, "Ali")).
				To(Equal(compose.Fallback("Hi", true, "Ali")))
		}
	})

	DescribeTable("canned replies",
		func(inbound string, personalize bool, name, want string) {
			Expect(compose.Fallback(inbound, personalize, name)).To(Equal(want))
		},

		Entry("personalized western greeting with generic name",
			"Hi", true, "there", "Hello there! How can I assist you today?"),
		Entry("personalized islamic greeting",
			"Salam", true, "Ali", "Walaikum Assalam Ali! How can I help you today?"),
		Entry("islamic greeting without a name",
			"Salam", false, "", "Walaikum Assalam! How can I help you?"),
		Entry("western greeting without personalization",
			"hello", false, "Ali", "Hello! How can I assist you today?"),
		Entry("thanks",
			"thanks", false, "", "You're welcome! Is there anything else I can help you with?"),
		Entry("thanks in roman urdu",
			"shukriya", true, "Ali", "You're welcome! Is there anything else I can help you with?"),
		Entry("farewell",
			"bye", false, "", "Goodbye! Feel free to reach out anytime you need help."),
		Entry("personalized farewell",
			"alvida", true, "Ali", "Goodbye Ali! Feel free to reach out anytime you need help."),
		Entry("well-being check",
			"how are you?", false, "", "I'm doing well, thank you! How can I help you today?"),
		Entry("well-being check in roman urdu",
			"kya haal hai", false, "", "I'm doing well, thank you! How can I help you today?"),
		Entry("help request",
			"I need help", false, "", "I'm here to help! What do you need assistance with?"),
		Entry("anything else gets the generic prompt",
			"quantum entanglement", false, "",
			"I'm here to assist you! Could you please tell me what you'd like to know or discuss?"),
	)

	It("matches case-insensitively with surrounding whitespace", func() {
		Expect(compose.Fallback("  THANKS  ", false, "")).
			To(Equal("You're welcome! Is there anything else I can help you with?"))
	})

	It("ignores the name when personalize is false", func() {
		Expect(compose.Fallback("Salam", false, "Ali")).
			To(Equal("Walaikum Assalam! How can I help you?"))
	})
})
