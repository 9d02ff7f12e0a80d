package receipt

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/KenCariquitan/Receipt-Spendle/internal/scanning"
)

var _ = Describe("BoltDB", func() {
	var (
		dbPath string
		db     *BoltDB
		base   time.Time
	)

	BeforeEach(func() {
		dbPath = filepath.Join(GinkgoT().TempDir(), "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
		base = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	newReceipt := func(id string, created time.Time) *Receipt {
		total := decimal.RequireFromString("250.00")
		return &Receipt{
			ID:              id,
			Store:           "JOLLIBEE",
			StoreNormalized: "JOLLIBEE",
			Total:           &total,
			Date:            "2024-03-15",
			SourceTag:       "consensus",
			Category:        "Food",
			OCRConfidence:   scanning.Confidence(81.5),
			Sources: []SourceReport{
				{Name: scanning.SourceTesseract, OK: true, DurationMS: 1200, Total: &total},
				{Name: scanning.SourceGemini, Error: "quota exceeded"},
			},
			Filename:    id + "_receipt.jpg",
			ContentType: "image/jpeg",
			CreatedAt:   created,
			UpdatedAt:   created,
		}
	}

	Describe("SaveReceipt and GetReceipt", func() {
		It("should round-trip every field", func() {
			want := newReceipt("r1", base)
			Expect(db.SaveReceipt(want)).To(Succeed())

			got, err := db.GetReceipt("r1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Store).To(Equal("JOLLIBEE"))
			Expect(got.Total.Equal(*want.Total)).To(BeTrue())
			Expect(got.Date).To(Equal("2024-03-15"))
			Expect(*got.OCRConfidence).To(Equal(81.5))
			Expect(got.Sources).To(HaveLen(2))
			Expect(got.Sources[1].Error).To(Equal("quota exceeded"))
			Expect(got.CreatedAt.Equal(base)).To(BeTrue())
		})

		It("should replace an existing receipt", func() {
			r := newReceipt("r1", base)
			Expect(db.SaveReceipt(r)).To(Succeed())
			r.Store = "MCDONALD'S"
			Expect(db.SaveReceipt(r)).To(Succeed())

			got, err := db.GetReceipt("r1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Store).To(Equal("MCDONALD'S"))
		})

		It("should keep a missing total missing", func() {
			r := newReceipt("r1", base)
			r.Total = nil
			Expect(db.SaveReceipt(r)).To(Succeed())

			got, err := db.GetReceipt("r1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Total).To(BeNil())
		})

		It("returns ErrNotFound for unknown IDs", func() {
			_, err := db.GetReceipt("nonexistent")
			Expect(err).To(MatchError(ErrNotFound))
			Expect(err.Error()).To(ContainSubstring("nonexistent"))
		})
	})

	Describe("ListReceipts", func() {
		It("should return an empty list", func() {
			receipts, err := db.ListReceipts()
			Expect(err).NotTo(HaveOccurred())
			Expect(receipts).NotTo(BeNil())
			Expect(receipts).To(BeEmpty())
		})

		It("should order newest first", func() {
			Expect(db.SaveReceipt(newReceipt("a", base))).To(Succeed())
			Expect(db.SaveReceipt(newReceipt("b", base.Add(2*time.Hour)))).To(Succeed())
			Expect(db.SaveReceipt(newReceipt("c", base.Add(time.Hour)))).To(Succeed())

			receipts, err := db.ListReceipts()
			Expect(err).NotTo(HaveOccurred())
			Expect(receipts).To(HaveLen(3))
			Expect([]string{receipts[0].ID, receipts[1].ID, receipts[2].ID}).To(Equal([]string{"b", "c", "a"}))
		})
	})

	Describe("DeleteReceipt", func() {
		It("should remove the receipt", func() {
			Expect(db.SaveReceipt(newReceipt("r1", base))).To(Succeed())
			Expect(db.DeleteReceipt("r1")).To(Succeed())

			_, err := db.GetReceipt("r1")
			Expect(err).To(MatchError(ErrNotFound))
		})

		It("returns ErrNotFound for unknown IDs", func() {
			Expect(db.DeleteReceipt("nonexistent")).To(MatchError(ErrNotFound))
		})
	})

	Describe("SaveCorrections and ListCorrections", func() {
		correction := func(receiptID, field string) Correction {
			return Correction{ReceiptID: receiptID, Field: field, Old: "a", New: "b", Type: CorrectionOCR, LoggedAt: base}
		}

		It("should assign sequential IDs", func() {
			batch := []Correction{correction("r1", "store"), correction("r1", "total")}
			Expect(db.SaveCorrections(batch)).To(Succeed())
			Expect(batch[0].ID).To(Equal("1"))
			Expect(batch[1].ID).To(Equal("2"))
		})

		It("should list newest first, filtered and limited", func() {
			Expect(db.SaveCorrections([]Correction{correction("r1", "store")})).To(Succeed())
			Expect(db.SaveCorrections([]Correction{correction("r2", "date")})).To(Succeed())
			Expect(db.SaveCorrections([]Correction{correction("r1", "category")})).To(Succeed())

			all, err := db.ListCorrections("", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(3))
			Expect(all[0].Field).To(Equal("category"))
			Expect(all[2].Field).To(Equal("store"))

			r1, err := db.ListCorrections("r1", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(r1).To(HaveLen(2))
			Expect(r1[0].ID).To(Equal("3"))

			limited, err := db.ListCorrections("", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(limited).To(HaveLen(1))
		})

		It("should keep the log across reopen", func() {
			Expect(db.SaveCorrections([]Correction{correction("r1", "store")})).To(Succeed())
			Expect(db.Close()).To(Succeed())

			var err error
			db, err = NewBoltDB(dbPath)
			Expect(err).NotTo(HaveOccurred())
			got, err := db.ListCorrections("r1", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[0].LoggedAt.Equal(base)).To(BeTrue())
		})
	})

	It("should persist across reopen", func() {
		Expect(db.SaveReceipt(newReceipt("r1", base))).To(Succeed())
		Expect(db.Close()).To(Succeed())

		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
		got, err := db.GetReceipt("r1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.ID).To(Equal("r1"))
	})
})
