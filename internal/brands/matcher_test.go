package brands

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Matcher", func() {
	var (
		matcher *Matcher
		store   string
		match   Match
	)

	BeforeEach(func() {
		matcher = NewMatcher(nil, 0)
	})

	JustBeforeEach(func() {
		match = matcher.Match(store)
	})

	When("the store is a garbled 7-Eleven header", func() {
		BeforeEach(func() {
			store = "¢-ELEWEM BRANCH 123"
		})

		It("should correct it to the canonical brand", func() {
			Expect(match.Brand).To(Equal("7-ELEVEN"))
		})

		It("should report the brand category", func() {
			Expect(match.Category).To(Equal(CategoryFood))
		})

		It("should report full confidence", func() {
			Expect(match.Score).To(Equal(1.0))
		})
	})

	When("the store is a legal name alias", func() {
		BeforeEach(func() {
			store = "Golden Arches Development Corp."
		})

		It("should resolve the alias", func() {
			Expect(match.Brand).To(Equal("MCDONALD'S"))
			Expect(match.Category).To(Equal(CategoryFood))
			Expect(match.Score).To(Equal(1.0))
		})
	})

	When("the store contains a brand name", func() {
		BeforeEach(func() {
			store = "MERCURY DRUG CORPORATION - QUIAPO"
		})

		It("should match by containment", func() {
			Expect(match.Brand).To(Equal("MERCURY DRUG"))
			Expect(match.Category).To(Equal(CategoryHealth))
		})
	})

	When("the store has a one-letter OCR error", func() {
		BeforeEach(func() {
			store = "JOLIBEE"
		})

		It("should fuzzy-match above the threshold", func() {
			Expect(match.Brand).To(Equal("JOLLIBEE"))
			Expect(match.Score).To(BeNumerically(">=", DefaultThreshold))
			Expect(match.Score).To(BeNumerically("<", 1.0))
		})
	})

	When("the store has digit homoglyphs", func() {
		BeforeEach(func() {
			store = "PUR3G0LD"
		})

		It("should match after homoglyph folding", func() {
			Expect(match.Brand).To(Equal("PUREGOLD"))
			Expect(match.Category).To(Equal(CategoryGroceries))
		})
	})

	When("the store is unknown", func() {
		BeforeEach(func() {
			store = "ZZYZX HARDWARE"
		})

		It("should not correct it", func() {
			Expect(match.Matched()).To(BeFalse())
			Expect(match.Brand).To(BeEmpty())
			Expect(match.Category).To(BeEmpty())
		})

		It("should still report the best score", func() {
			Expect(match.Score).To(BeNumerically(">", 0))
			Expect(match.Score).To(BeNumerically("<", DefaultThreshold))
		})
	})

	When("the store is too short to fuzzy-match", func() {
		BeforeEach(func() {
			store = "SM"
		})

		It("should not snap it to a longer brand", func() {
			Expect(match.Matched()).To(BeFalse())
			Expect(match.Brand).NotTo(Equal("SMART"))
		})
	})

	When("the store is empty", func() {
		BeforeEach(func() {
			store = "   "
		})

		It("should return an empty match", func() {
			Expect(match).To(Equal(Match{}))
		})
	})

	When("the threshold is raised", func() {
		BeforeEach(func() {
			matcher = NewMatcher(nil, 0.99)
			store = "JOLIBEE"
		})

		It("should reject the fuzzy match", func() {
			Expect(match.Matched()).To(BeFalse())
		})
	})
})

var _ = Describe("Similarity", func() {
	It("should score identical names as 1", func() {
		Expect(Similarity("JOLLIBEE", "jollibee")).To(Equal(1.0))
	})

	It("should score empty input as 0", func() {
		Expect(Similarity("", "JOLLIBEE")).To(Equal(0.0))
		Expect(Similarity("---", "JOLLIBEE")).To(Equal(0.0))
	})

	It("should stay within [0,1]", func() {
		pairs := [][2]string{
			{"STARBUCKS", "STAR"},
			{"CHOWKING", "CHOWK1NG EXPRESS"},
			{"GRAB", "GRABFOOD"},
			{"MAÑILA WATER", "MANILA WATER"},
		}
		for _, p := range pairs {
			s := Similarity(p[0], p[1])
			Expect(s).To(BeNumerically(">=", 0))
			Expect(s).To(BeNumerically("<=", 1))
		}
	})

	It("should ignore diacritics", func() {
		Expect(Similarity("MAÑILA WATER", "MANILA WATER")).To(Equal(1.0))
	})
})
