package history_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chatterlyco/relay/pkg/history"
)

// Both implementations must satisfy the same contract, so the suite runs
// once per store.
var _ = Describe("Store", func() {
	stores := map[string]func() history.Store{
		"SQLiteStore": func() history.Store {
			s, err := history.NewSQLiteStore(":memory:")
			Expect(err).NotTo(HaveOccurred())
			return s
		},
		"MemoryStore": func() history.Store {
			return history.NewMemoryStore()
		},
	}

	for name, newStore := range stores {
		name, newStore := name, newStore

		Describe(name, func() {
			var (
				store history.Store
				ctx   context.Context
			)

			BeforeEach(func() {
				store = newStore()
				ctx = context.Background()
			})

			AfterEach(func() {
				store.Close()
			})

			Describe("Append", func() {
				It("assigns an id and a creation timestamp", func() {
					ex := &history.Exchange{
						SenderID:     "+1234567890",
						InboundText:  "Hello, I need help",
						OutboundText: "Hi! How can I help you?",
					}

					Expect(store.Append(ctx, ex)).To(Succeed())
					Expect(ex.ID).NotTo(BeZero())
					Expect(ex.CreatedAt.IsZero()).To(BeFalse())
				})

				It("defaults the kind to text", func() {
					ex := &history.Exchange{
						SenderID:     "+1234567890",
						InboundText:  "in",
						OutboundText: "out",
					}

					Expect(store.Append(ctx, ex)).To(Succeed())
					Expect(ex.Kind).To(Equal(history.KindText))
				})

				It("rejects exchanges with missing required fields", func() {
					for _, ex := range []*history.Exchange{
						{InboundText: "in", OutboundText: "out"},
						{SenderID: "+1", OutboundText: "out"},
						{SenderID: "+1", InboundText: "in"},
					} {
						err := store.Append(ctx, ex)
						Expect(err).To(MatchError(history.ErrInvalidExchange))
					}
				})
			})

			Describe("FetchRecent", func() {
				It("round-trips an appended exchange", func() {
					ex := &history.Exchange{
						CorrelationID: "SM123",
						SenderID:      "+1234567890",
						InboundText:   "what's the weather?",
						OutboundText:  "I can't check live weather.",
						LatencyMS:     420,
					}
					Expect(store.Append(ctx, ex)).To(Succeed())

					got, err := store.FetchRecent(ctx, "+1234567890", 1)
					Expect(err).NotTo(HaveOccurred())
					Expect(got).To(HaveLen(1))
					Expect(got[0].InboundText).To(Equal(ex.InboundText))
					Expect(got[0].OutboundText).To(Equal(ex.OutboundText))
					Expect(got[0].CorrelationID).To(Equal("SM123"))
					Expect(got[0].LatencyMS).To(Equal(int64(420)))
				})

				It("returns at most limit rows, newest first", func() {
					for i := 0; i < 8; i++ {
						Expect(store.Append(ctx, &history.Exchange{
							SenderID:     "+1234567890",
							InboundText:  fmt.Sprintf("message %d", i),
							OutboundText: fmt.Sprintf("reply %d", i),
						})).To(Succeed())
					}

					got, err := store.FetchRecent(ctx, "+1234567890", 5)
					Expect(err).NotTo(HaveOccurred())
					Expect(got).To(HaveLen(5))
					Expect(got[0].InboundText).To(Equal("message 7"))
					Expect(got[4].InboundText).To(Equal("message 3"))
					for i := 1; i < len(got); i++ {
						Expect(got[i].ID).To(BeNumerically("<", got[i-1].ID))
					}
				})

				It("scopes reads to the requested sender", func() {
					Expect(store.Append(ctx, &history.Exchange{
						SenderID: "+111", InboundText: "a", OutboundText: "b",
					})).To(Succeed())
					Expect(store.Append(ctx, &history.Exchange{
						SenderID: "+222", InboundText: "c", OutboundText: "d",
					})).To(Succeed())

					got, err := store.FetchRecent(ctx, "+111", 5)
					Expect(err).NotTo(HaveOccurred())
					Expect(got).To(HaveLen(1))
					Expect(got[0].SenderID).To(Equal("+111"))
				})

				It("returns empty for an unknown sender", func() {
					got, err := store.FetchRecent(ctx, "+999", 5)
					Expect(err).NotTo(HaveOccurred())
					Expect(got).To(BeEmpty())
				})
			})

			Describe("ClearAll", func() {
				It("returns the removed count and leaves the store empty", func() {
					for i := 0; i < 3; i++ {
						Expect(store.Append(ctx, &history.Exchange{
							SenderID:     fmt.Sprintf("+%d", i),
							InboundText:  "in",
							OutboundText: "out",
						})).To(Succeed())
					}

					n, err := store.ClearAll(ctx)
					Expect(err).NotTo(HaveOccurred())
					Expect(n).To(Equal(int64(3)))

					for i := 0; i < 3; i++ {
						got, err := store.FetchRecent(ctx, fmt.Sprintf("+%d", i), 5)
						Expect(err).NotTo(HaveOccurred())
						Expect(got).To(BeEmpty())
					}
				})

				It("returns zero on an empty store", func() {
					n, err := store.ClearAll(ctx)
					Expect(err).NotTo(HaveOccurred())
					Expect(n).To(BeZero())
				})
			})

			Describe("Ping", func() {
				It("succeeds while the store is open", func() {
					Expect(store.Ping(ctx)).To(Succeed())
				})
			})
		})
	}
})

var _ = Describe("SQLiteStore files", func() {
	It("creates the database file on disk", func() {
		tmpDir := GinkgoT().TempDir()
		dbPath := filepath.Join(tmpDir, "relay.db")

		s, err := history.NewSQLiteStore(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()

		_, err = os.Stat(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})
})
