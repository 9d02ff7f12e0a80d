package receipt

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	uncategorized = "Unknown"

	defaultTopMerchants = 5
	maxTopMerchants     = 25

	rollingDays = 30
)

// Summary is the spending overview across all receipts
type Summary struct {
	TotalSpend       decimal.Decimal `json:"total_spend"`
	TotalReceipts    int             `json:"total_receipts"`
	MonthToDateSpend decimal.Decimal `json:"month_to_date_spend"`
	TopCategory      string          `json:"top_category,omitempty"`
	TopCategoryTotal decimal.Decimal `json:"top_category_total"`
}

// CategorySpend totals the receipts of one category
type CategorySpend struct {
	Category string          `json:"category"`
	Count    int             `json:"count"`
	Total    decimal.Decimal `json:"total"`
}

// MonthSpend totals the receipts dated in one month
type MonthSpend struct {
	Month string          `json:"month"` // YYYY-MM
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// MerchantSpend totals the receipts of one store
type MerchantSpend struct {
	Store        string          `json:"store"`
	ReceiptCount int             `json:"receipt_count"`
	TotalSpend   decimal.Decimal `json:"total_spend"`
}

func totalOf(r *Receipt) decimal.Decimal {
	if r.Total == nil {
		return decimal.Zero
	}
	return *r.Total
}

// monthStart is the first day of the current month as YYYY-MM-DD, which
// compares correctly against receipt dates as strings
func (s *Service) monthStart() string {
	return s.timeSource.Now().Format("2006-01") + "-01"
}

// Summary totals all receipts, the current month and the biggest category
func (s *Service) Summary() (Summary, error) {
	receipts, err := s.ListReceipts()
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{TotalReceipts: len(receipts)}
	first := s.monthStart()
	for _, r := range receipts {
		sum.TotalSpend = sum.TotalSpend.Add(totalOf(r))
		if r.Date != "" && r.Date >= first {
			sum.MonthToDateSpend = sum.MonthToDateSpend.Add(totalOf(r))
		}
	}

	if byCategory := spendByCategory(receipts); len(byCategory) > 0 {
		sum.TopCategory = byCategory[0].Category
		sum.TopCategoryTotal = byCategory[0].Total
	}
	return sum, nil
}

// SpendByCategory totals receipts per category, biggest first. Receipts
// without a category are grouped as "Unknown".
func (s *Service) SpendByCategory() ([]CategorySpend, error) {
	receipts, err := s.ListReceipts()
	if err != nil {
		return nil, err
	}
	return spendByCategory(receipts), nil
}

func spendByCategory(receipts []*Receipt) []CategorySpend {
	index := make(map[string]int)
	out := make([]CategorySpend, 0)
	for _, r := range receipts {
		category := cmp.Or(r.Category, uncategorized)
		i, ok := index[category]
		if !ok {
			i = len(out)
			index[category] = i
			out = append(out, CategorySpend{Category: category})
		}
		out[i].Count++
		out[i].Total = out[i].Total.Add(totalOf(r))
	}
	slices.SortFunc(out, func(a, b CategorySpend) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return strings.Compare(a.Category, b.Category)
	})
	return out
}

// SpendByMonth totals the receipts dated in year per month, in calendar order
func (s *Service) SpendByMonth(year int) ([]MonthSpend, error) {
	receipts, err := s.ListReceipts()
	if err != nil {
		return nil, err
	}

	prefix := fmt.Sprintf("%04d-", year)
	index := make(map[string]int)
	out := make([]MonthSpend, 0)
	for _, r := range receipts {
		if len(r.Date) < len("2006-01") || !strings.HasPrefix(r.Date, prefix) {
			continue
		}
		month := r.Date[:len("2006-01")]
		i, ok := index[month]
		if !ok {
			i = len(out)
			index[month] = i
			out = append(out, MonthSpend{Month: month})
		}
		out[i].Count++
		out[i].Total = out[i].Total.Add(totalOf(r))
	}
	slices.SortFunc(out, func(a, b MonthSpend) int {
		return strings.Compare(a.Month, b.Month)
	})
	return out, nil
}

// TopMerchants returns the stores with the most spend this month. limit is
// clamped to 1-25 and defaults to 5.
func (s *Service) TopMerchants(limit int) ([]MerchantSpend, error) {
	if limit <= 0 {
		limit = defaultTopMerchants
	}
	limit = min(limit, maxTopMerchants)

	receipts, err := s.ListReceipts()
	if err != nil {
		return nil, err
	}

	first := s.monthStart()
	index := make(map[string]int)
	out := make([]MerchantSpend, 0)
	for _, r := range receipts {
		store := cmp.Or(r.StoreNormalized, r.Store)
		if store == "" || r.Date == "" || r.Date < first {
			continue
		}
		i, ok := index[store]
		if !ok {
			i = len(out)
			index[store] = i
			out = append(out, MerchantSpend{Store: store})
		}
		out[i].ReceiptCount++
		out[i].TotalSpend = out[i].TotalSpend.Add(totalOf(r))
	}
	slices.SortFunc(out, func(a, b MerchantSpend) int {
		if c := b.TotalSpend.Cmp(a.TotalSpend); c != 0 {
			return c
		}
		if c := cmp.Compare(b.ReceiptCount, a.ReceiptCount); c != 0 {
			return c
		}
		return strings.Compare(a.Store, b.Store)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// WeekdaySpend totals dated receipts per day of week, 0 being Sunday
type WeekdaySpend struct {
	Weekday      int             `json:"weekday"`
	ReceiptCount int             `json:"receipt_count"`
	TotalSpend   decimal.Decimal `json:"total_spend"`
}

// DaySpend totals the receipts dated on one day
type DaySpend struct {
	Date         string          `json:"date"`
	ReceiptCount int             `json:"receipt_count"`
	TotalSpend   decimal.Decimal `json:"total_spend"`
}

// SpendByWeekday totals receipts per weekday. Only weekdays with receipts are
// returned, Sunday first.
func (s *Service) SpendByWeekday() ([]WeekdaySpend, error) {
	receipts, err := s.ListReceipts()
	if err != nil {
		return nil, err
	}

	var days [7]*WeekdaySpend
	for _, r := range receipts {
		t, err := time.Parse(time.DateOnly, r.Date)
		if err != nil {
			continue
		}
		wd := int(t.Weekday())
		if days[wd] == nil {
			days[wd] = &WeekdaySpend{Weekday: wd}
		}
		days[wd].ReceiptCount++
		days[wd].TotalSpend = days[wd].TotalSpend.Add(totalOf(r))
	}

	out := make([]WeekdaySpend, 0, len(days))
	for _, d := range days {
		if d != nil {
			out = append(out, *d)
		}
	}
	return out, nil
}

// RollingSpend totals receipts per day over the last 30 days, today included,
// oldest first
func (s *Service) RollingSpend() ([]DaySpend, error) {
	receipts, err := s.ListReceipts()
	if err != nil {
		return nil, err
	}

	first := s.timeSource.Now().AddDate(0, 0, -(rollingDays - 1)).Format(time.DateOnly)
	index := make(map[string]int)
	out := make([]DaySpend, 0)
	for _, r := range receipts {
		if len(r.Date) != len(time.DateOnly) || r.Date < first {
			continue
		}
		i, ok := index[r.Date]
		if !ok {
			i = len(out)
			index[r.Date] = i
			out = append(out, DaySpend{Date: r.Date})
		}
		out[i].ReceiptCount++
		out[i].TotalSpend = out[i].TotalSpend.Add(totalOf(r))
	}
	slices.SortFunc(out, func(a, b DaySpend) int {
		return strings.Compare(a.Date, b.Date)
	})
	return out, nil
}
