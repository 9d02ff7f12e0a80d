package fields

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Store", func() {
	DescribeTable("picking the merchant line",
		func(text, want string) {
			Expect(Store(text)).To(Equal(want))
		},
		Entry("first line", "JOLLIBEE\nSM NORTH EDSA\nTOTAL 99.00", "JOLLIBEE"),
		Entry("boilerplate skipped", "OFFICIAL RECEIPT\nTIN 000-111\nMERCURY DRUG\nTOTAL 1.00", "MERCURY DRUG"),
		Entry("edge punctuation trimmed", "| JOLLIBEE |", "JOLLIBEE"),
		Entry("numeric lines skipped", "--\n12345\nMERALCO", "MERALCO"),
		Entry("glyph fixups", "0/UICK  MART", "QUICK MART"),
		Entry("garbled header kept raw", "¢-ELEWEM\nTIN 123", "¢-ELEWEM"),
		Entry("only boilerplate", "SALES INVOICE\nVAT REG TIN", ""),
		Entry("empty", "", ""),
	)

	It("should only scan the header", func() {
		header := strings.Repeat("12345\n", 12)
		Expect(Store(header + "LATE STORE")).To(BeEmpty())
	})
})
