package match

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"receipt-recon/internal/catalog"
	"receipt-recon/internal/settings"
)

func product(title string, priceCents int) catalog.Product {
	return catalog.Product{
		Title: title,
		Price: catalog.Price{Price: priceCents},
	}
}

var _ = Describe("Confidence", func() {
	var cfg settings.Settings

	BeforeEach(func() {
		cfg = settings.Default()
	})

	Describe("price sub-score", func() {
		BeforeEach(func() {
			// Isolate the price component.
			cfg.UseWeightMatching = false
			cfg.UseNameMatching = false
		})

		DescribeTable("stepping down by percentage difference against a 500 cent receipt",
			func(candidateCents int, expected int) {
				Expect(Confidence("KAAS", 500, product("Onions", candidateCents), cfg)).To(Equal(expected))
			},
			Entry("exact price", 500, 40),
			Entry("5 percent difference", 525, 32),
			Entry("10 percent difference", 550, 25),
			Entry("20 percent difference", 600, 15),
			Entry("30 percent difference", 650, 10),
			Entry("50 percent difference", 750, 5),
			Entry("over 50 percent difference", 760, 0),
		)

		It("should use the promo price when it is closer", func() {
			promo := 500
			p := product("Onions", 900)
			p.Price.PromoPrice = &promo
			Expect(Confidence("KAAS", 500, p, cfg)).To(Equal(40))
		})

		It("should award nothing for a non-positive receipt price", func() {
			Expect(Confidence("KAAS", 0, product("Onions", 500), cfg)).To(Equal(0))
		})

		It("should award nothing when the toggle is off", func() {
			cfg.UsePriceMatching = false
			Expect(Confidence("KAAS", 500, product("Onions", 500), cfg)).To(Equal(0))
		})
	})

	Describe("size sub-score", func() {
		BeforeEach(func() {
			cfg.UsePriceMatching = false
			cfg.UseNameMatching = false
		})

		It("should award the full weight for matching sizes", func() {
			Expect(Confidence("COLA 1,5L", 0, product("Frisdrank fles 1.5 l", 0), cfg)).To(Equal(30))
		})

		It("should award two-thirds for a near match", func() {
			Expect(Confidence("SAP 950ML", 0, product("Sap pak 1 l", 0), cfg)).To(Equal(20))
		})

		It("should award one-third for a rough match", func() {
			Expect(Confidence("SAP 750ML", 0, product("Sap pak 1 l", 0), cfg)).To(Equal(10))
		})

		It("should award nothing for a big mismatch", func() {
			Expect(Confidence("SAP 330ML", 0, product("Sap pak 1 l", 0), cfg)).To(Equal(0))
		})

		It("should stay neutral when neither side mentions a size", func() {
			Expect(Confidence("KAAS", 0, product("Kaas jong belegen", 0), cfg)).To(Equal(15))
		})

		It("should penalize one-sided size evidence", func() {
			Expect(Confidence("COLA 1,5L", 0, product("Cola fles", 0), cfg)).To(Equal(0))
		})

		It("should award nothing when the toggle is off", func() {
			cfg.UseWeightMatching = false
			Expect(Confidence("COLA 1,5L", 0, product("Cola 1.5 l", 0), cfg)).To(Equal(0))
		})
	})

	Describe("name sub-score", func() {
		BeforeEach(func() {
			cfg.UsePriceMatching = false
			cfg.UseWeightMatching = false
		})

		It("should award the full weight for complete overlap", func() {
			Expect(Confidence("HALFVOLLE MELK", 0, product("Halfvolle melk literpak", 0), cfg)).To(Equal(30))
		})

		It("should weigh overlap relative to the receipt vocabulary", func() {
			// One of two receipt tokens matches.
			Expect(Confidence("HALFVOLLE MELK", 0, product("Volle melk", 0), cfg)).To(Equal(15))
		})

		It("should score zero for disjoint token sets regardless of the weight", func() {
			cfg.NameMatchWeight = 100
			Expect(Confidence("KIPFILET", 0, product("Roomboter croissant", 0), cfg)).To(Equal(0))
		})

		It("should ignore stop words on both sides", func() {
			Expect(Confidence("MELK", 0, product("Jumbo de Melk van het huis", 0), cfg)).To(BeNumerically(">", 0))
		})
	})

	It("should sum the sub-scores and clamp to 100", func() {
		cfg.PriceMatchWeight = 80
		cfg.WeightMatchWeight = 80
		cfg.NameMatchWeight = 80
		p := product("Halfvolle melk 1 l", 189)
		Expect(Confidence("HALFVOLLE MELK 1L", 189, p, cfg)).To(Equal(100))
	})
})
