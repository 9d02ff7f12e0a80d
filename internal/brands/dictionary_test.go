package brands

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Dictionary", func() {
	Describe("DefaultDictionary", func() {
		It("should contain every built-in brand", func() {
			Expect(DefaultDictionary().Entries()).To(HaveLen(len(defaultEntries)))
		})

		It("should order brands by category priority", func() {
			entries := DefaultDictionary().Entries()
			Expect(entries[0].Category).To(Equal(CategoryUtilities))
			Expect(entries[len(entries)-1].Category).To(Equal(CategoryFood))
		})

		It("should look brands up case-insensitively", func() {
			e, ok := DefaultDictionary().Lookup("puregold")
			Expect(ok).To(BeTrue())
			Expect(e.Category).To(Equal(CategoryGroceries))
		})

		It("should not leak internal state through Entries", func() {
			entries := DefaultDictionary().Entries()
			entries[0].Name = "CHANGED"
			_, ok := DefaultDictionary().Lookup("CHANGED")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("LoadDictionary", func() {
		var (
			input string
			dict  *Dictionary
			err   error
		)

		JustBeforeEach(func() {
			dict, err = LoadDictionary(strings.NewReader(input))
		})

		When("the extension is valid", func() {
			BeforeEach(func() {
				input = `{
					"brands": {"Food": ["ANGEL'S BURGER"]},
					"aliases": {"ANGELS BURGER INC": "ANGEL'S BURGER"},
					"keywords": {"Food": ["siomai"]}
				}`
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should add the brand", func() {
				e, ok := dict.Lookup("ANGEL'S BURGER")
				Expect(ok).To(BeTrue())
				Expect(e.Category).To(Equal(CategoryFood))
			})

			It("should resolve the alias", func() {
				m := NewMatcher(dict, 0).Match("Angels Burger Inc. Branch 5")
				Expect(m.Brand).To(Equal("ANGEL'S BURGER"))
			})

			It("should add the keyword", func() {
				Expect(dict.Keywords(CategoryFood)).To(ContainElement("siomai"))
			})

			It("should leave the default dictionary untouched", func() {
				_, ok := DefaultDictionary().Lookup("ANGEL'S BURGER")
				Expect(ok).To(BeFalse())
			})
		})

		When("an alias names an unknown brand", func() {
			BeforeEach(func() {
				input = `{"aliases": {"UNIQLO.COM": "UNIQLO"}}`
			})

			It("should return an error", func() {
				Expect(err).To(MatchError(ContainSubstring("unknown brand")))
			})
		})

		When("a brand has an unknown category", func() {
			BeforeEach(func() {
				input = `{"brands": {"Clothing": ["UNIQLO"]}}`
			})

			It("should return an error", func() {
				Expect(err).To(MatchError(ContainSubstring("unknown category")))
			})
		})

		When("the JSON is malformed", func() {
			BeforeEach(func() {
				input = `{"brands": `
			})

			It("should return an error", func() {
				Expect(err).To(HaveOccurred())
			})
		})
	})
})
