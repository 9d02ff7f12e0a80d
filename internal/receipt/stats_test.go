package receipt

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/KenCariquitan/Receipt-Spendle/internal/brands"
)

var _ = Describe("Stats", func() {
	var (
		db      *mockDB
		service *Service
	)

	add := func(id, store, category, date, total string) {
		r := &Receipt{ID: id, Store: store, StoreNormalized: brands.Normalize(store), Category: category, Date: date}
		if total != "" {
			t := decimal.RequireFromString(total)
			r.Total = &t
		}
		db.receipts[id] = r
	}

	money := func(s string) decimal.Decimal {
		return decimal.RequireFromString(s)
	}

	BeforeEach(func() {
		db = newMockDB()
		add("a", "JOLLIBEE", brands.CategoryFood, "2024-03-02", "250.00")
		add("b", "JOLLIBEE", brands.CategoryFood, "2024-03-10", "100.50")
		add("c", "PUREGOLD", brands.CategoryGroceries, "2024-03-05", "1200.00")
		add("d", "MERALCO", brands.CategoryUtilities, "2024-02-20", "2000.00")
		add("e", "", "", "", "")
		service = NewServiceWithDeps(db, newMockStorage(), Options{}, &mockIDGenerator{id: "x"},
			&mockTimeSource{now: time.Date(2024, 3, 16, 9, 0, 0, 0, time.UTC)})
	})

	Describe("Summary", func() {
		It("should total everything, this month and the top category", func() {
			sum, err := service.Summary()
			Expect(err).NotTo(HaveOccurred())
			Expect(sum.TotalReceipts).To(Equal(5))
			Expect(sum.TotalSpend.Equal(money("3550.50"))).To(BeTrue())
			Expect(sum.MonthToDateSpend.Equal(money("1550.50"))).To(BeTrue())
			Expect(sum.TopCategory).To(Equal(brands.CategoryUtilities))
			Expect(sum.TopCategoryTotal.Equal(money("2000"))).To(BeTrue())
		})

		It("should return the database error", func() {
			db.listErr = errors.New("db error")
			_, err := service.Summary()
			Expect(err).To(MatchError(db.listErr))
		})
	})

	Describe("SpendByCategory", func() {
		It("should group by category, biggest first", func() {
			stats, err := service.SpendByCategory()
			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(HaveLen(4))
			Expect(stats[0].Category).To(Equal(brands.CategoryUtilities))
			Expect(stats[1].Category).To(Equal(brands.CategoryGroceries))
			Expect(stats[2].Category).To(Equal(brands.CategoryFood))
			Expect(stats[2].Count).To(Equal(2))
			Expect(stats[2].Total.Equal(money("350.50"))).To(BeTrue())
			Expect(stats[3].Category).To(Equal("Unknown"))
			Expect(stats[3].Count).To(Equal(1))
			Expect(stats[3].Total.IsZero()).To(BeTrue())
		})
	})

	Describe("SpendByMonth", func() {
		It("should group the year's receipts by month", func() {
			stats, err := service.SpendByMonth(2024)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(HaveLen(2))
			Expect(stats[0].Month).To(Equal("2024-02"))
			Expect(stats[1].Month).To(Equal("2024-03"))
			Expect(stats[1].Count).To(Equal(3))
			Expect(stats[1].Total.Equal(money("1550.50"))).To(BeTrue())
		})

		It("should be empty for other years", func() {
			stats, err := service.SpendByMonth(2023)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(BeEmpty())
		})
	})

	Describe("TopMerchants", func() {
		It("should rank this month's stores by spend", func() {
			merchants, err := service.TopMerchants(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(merchants).To(HaveLen(2))
			Expect(merchants[0].Store).To(Equal("PUREGOLD"))
			Expect(merchants[1]).To(SatisfyAll(
				HaveField("Store", "JOLLIBEE"),
				HaveField("ReceiptCount", 2),
			))
		})

		It("should apply the limit", func() {
			merchants, err := service.TopMerchants(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(merchants).To(HaveLen(1))
		})
	})

	Describe("SpendByWeekday", func() {
		It("should group dated receipts by weekday, Sunday first", func() {
			stats, err := service.SpendByWeekday()
			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(HaveLen(3))
			Expect(stats[0].Weekday).To(Equal(int(time.Sunday)))
			Expect(stats[1].Weekday).To(Equal(int(time.Tuesday)))
			Expect(stats[1].ReceiptCount).To(Equal(2))
			Expect(stats[1].TotalSpend.Equal(money("3200"))).To(BeTrue())
			Expect(stats[2].Weekday).To(Equal(int(time.Saturday)))
		})
	})

	Describe("RollingSpend", func() {
		It("should total the last 30 days per day, oldest first", func() {
			add("old", "PUREGOLD", brands.CategoryGroceries, "2024-02-15", "99.00")
			add("edge", "PUREGOLD", brands.CategoryGroceries, "2024-02-16", "1.00")

			stats, err := service.RollingSpend()
			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(HaveLen(5))
			Expect(stats[0].Date).To(Equal("2024-02-16"))
			Expect(stats[4].Date).To(Equal("2024-03-10"))
			Expect(stats[4].TotalSpend.Equal(money("100.50"))).To(BeTrue())
		})
	})
})
