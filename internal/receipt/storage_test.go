package receipt

import (
	"io/fs"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage *LocalStorage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(filepath.Join(tmpDir, "receipts"))
		Expect(err).NotTo(HaveOccurred())
	})

	It("should create the directory", func() {
		Expect(filepath.Join(tmpDir, "receipts")).To(BeADirectory())
	})

	Describe("Save", func() {
		It("should write the file under the base directory", func() {
			name, err := storage.Save("r1_receipt.jpg", []byte("jpeg"))
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("r1_receipt.jpg"))

			data, err := os.ReadFile(filepath.Join(tmpDir, "receipts", "r1_receipt.jpg"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("jpeg"))
		})

		DescribeTable("rejecting names outside the directory",
			func(name string) {
				_, err := storage.Save(name, []byte("x"))
				Expect(err).To(MatchError(ContainSubstring("invalid file name")))
			},
			Entry("parent", "../escape.jpg"),
			Entry("nested", "sub/file.jpg"),
			Entry("hidden", ".env"),
			Entry("empty", ""),
		)
	})

	Describe("Get", func() {
		BeforeEach(func() {
			_, err := storage.Save("r1_receipt.png", []byte("png"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return the stored bytes", func() {
			data, err := storage.Get("r1_receipt.png")
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("png"))
		})

		It("should wrap missing files", func() {
			_, err := storage.Get("missing.png")
			Expect(err).To(MatchError(fs.ErrNotExist))
			Expect(err.Error()).To(ContainSubstring("reading file"))
		})
	})

	Describe("Delete", func() {
		BeforeEach(func() {
			_, err := storage.Save("r1_receipt.pdf", []byte("%PDF"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should remove the file", func() {
			Expect(storage.Delete("r1_receipt.pdf")).To(Succeed())
			Expect(filepath.Join(tmpDir, "receipts", "r1_receipt.pdf")).NotTo(BeAnExistingFile())
		})

		It("returns an error for missing files", func() {
			err := storage.Delete("missing.pdf")
			Expect(err).To(MatchError(ContainSubstring("deleting file")))
		})
	})
})
