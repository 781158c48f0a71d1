package match

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"receipt-recon/internal/settings"
)

var _ = Describe("EANSimilarity", func() {
	var cfg settings.Settings

	BeforeEach(func() {
		cfg = settings.Default()
	})

	It("should score an exact match 100", func() {
		Expect(EANSimilarity("8718452044801", "8718452044801", cfg)).To(Equal(100))
	})

	It("should score 0 when either side is empty", func() {
		Expect(EANSimilarity("", "8718452044801", cfg)).To(Equal(0))
		Expect(EANSimilarity("8718452044801", "", cfg)).To(Equal(0))
	})

	It("should ignore non-digit characters", func() {
		Expect(EANSimilarity("8718-452-044801", "8718452044801", cfg)).To(Equal(100))
	})

	It("should score a single leading zero pad 95", func() {
		Expect(EANSimilarity("718452044801", "0718452044801", cfg)).To(Equal(95))
		Expect(EANSimilarity("0718452044801", "718452044801", cfg)).To(Equal(95))
	})

	DescribeTable("mapping matching prefixes through the tier table",
		func(a, b string, expected int) {
			Expect(EANSimilarity(a, b, cfg)).To(Equal(expected))
		},
		Entry("12-digit prefix", "8718452044801", "8718452044809", 95),
		Entry("11-digit prefix", "8718452044801", "8718452044899", 92),
		Entry("10-digit prefix", "8718452044801", "8718452044999", 90),
		Entry("8-digit prefix", "8718452044801", "8718452099999", 70),
		Entry("6-digit prefix", "8718459999999", "8718452044801", 50),
		Entry("4-digit prefix", "8718999999999", "8718452044801", 30),
		Entry("3-digit prefix keeps the floor", "8719999999999", "8718452044801", 10),
		Entry("no shared prefix keeps the floor", "4006381333931", "8718452044801", 10),
	)

	It("should honor configured tier overrides", func() {
		cfg.EANScore4Plus = 42
		Expect(EANSimilarity("8718999999999", "8718452044801", cfg)).To(Equal(42))
	})
})
