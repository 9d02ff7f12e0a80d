package receipt

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = DescribeTable("contentTypeFor",
	func(header, filename string, data []byte, want string) {
		Expect(contentTypeFor(header, filename, data)).To(Equal(want))
	},
	Entry("part header wins", "Image/JPEG", "r.png", []byte("\x89PNG\r\n\x1a\n"), "image/jpeg"),
	Entry("sniffed PNG", "application/octet-stream", "upload", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), "image/png"),
	Entry("sniffed PDF", "", "scan", []byte("%PDF-1.7\n"), "application/pdf"),
	Entry("extension fallback", "", "IMG_0001.HEIC", []byte{0x00, 0x13, 0x37, 0x00, 0x42}, "image/heic"),
	Entry("text bytes keep the extension", "application/octet-stream", "7-eleven.png", []byte("\x89PNG small"), "image/png"),
	Entry("unknown", "", "blob", []byte{0x00, 0x13, 0x37, 0x00, 0x42}, "application/octet-stream"),
)
