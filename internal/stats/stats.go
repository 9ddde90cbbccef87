/**
 * @description
 * Pure, read-only derivation of statistics from the transaction log: totals
 * by kind, per-category breakdown with percentage-of-total, per-period trend
 * series, and budget progress. Nothing here mutates the store or needs an
 * atomic scope; a stale-but-consistent snapshot of transactions is fine.
 *
 * @dependencies
 * - github.com/shopspring/decimal: Exact percentage arithmetic.
 */

package stats

import (
	"bytes"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coinkeeper/ledger-service/internal/domain"
)

// Bucket selects the granularity of the trend series.
type Bucket string

const (
	BucketDaily   Bucket = "daily"
	BucketMonthly Bucket = "monthly"
)

// Totals sums the log by kind. All values are in cents.
type Totals struct {
	Income  int64 `json:"income"`
	Expense int64 `json:"expense"`
	Net     int64 `json:"net"`
}

// CategoryShare is one category's slice of total spending.
type CategoryShare struct {
	CategoryID uuid.UUID `json:"category_id"`
	Amount     int64     `json:"amount"`
	Percent    float64   `json:"percent"`
}

// TrendPoint is one period of the trend series.
type TrendPoint struct {
	Period  string `json:"period"` // "2006-01-02" daily, "2006-01" monthly
	Income  int64  `json:"income"`
	Expense int64  `json:"expense"`
	Net     int64  `json:"net"`
}

// BudgetStatus reports spending against one budget row.
type BudgetStatus struct {
	Budget    domain.Budget `json:"budget"`
	Spent     int64         `json:"spent"`
	Remaining int64         `json:"remaining"`
}

// Statistics is the full aggregate served to the reporting layer.
type Statistics struct {
	Totals     Totals          `json:"totals"`
	Categories []CategoryShare `json:"categories"`
	Trend      []TrendPoint    `json:"trend"`
}

// Compute derives the full aggregate from a snapshot of transactions.
func Compute(txs []domain.Transaction, bucket Bucket) Statistics {
	return Statistics{
		Totals:     ComputeTotals(txs),
		Categories: CategoryBreakdown(txs),
		Trend:      TrendSeries(txs, bucket),
	}
}

// ComputeTotals sums incomes and expenses over the snapshot.
func ComputeTotals(txs []domain.Transaction) Totals {
	var totals Totals
	for i := range txs {
		switch txs[i].Kind {
		case domain.KindIncome:
			totals.Income += txs[i].Amount
		case domain.KindExpense:
			totals.Expense += txs[i].Amount
		}
	}
	totals.Net = totals.Income - totals.Expense
	return totals
}

// CategoryBreakdown groups expense amounts by category and reports each
// category's percentage of the total. Transfer legs are internal money
// movement, not spending, and are skipped. A zero total yields 0% for every
// category rather than a division fault. Ordering: amount descending, ties
// broken by category id ascending so the ranking is stable.
func CategoryBreakdown(txs []domain.Transaction) []CategoryShare {
	amounts := make(map[uuid.UUID]int64)
	var total int64
	for i := range txs {
		if txs[i].Kind != domain.KindExpense || txs[i].CategoryID == domain.TransferCategoryID {
			continue
		}
		amounts[txs[i].CategoryID] += txs[i].Amount
		total += txs[i].Amount
	}

	shares := make([]CategoryShare, 0, len(amounts))
	hundred := decimal.NewFromInt(100)
	for categoryID, amount := range amounts {
		share := CategoryShare{CategoryID: categoryID, Amount: amount}
		if total > 0 {
			percent := decimal.NewFromInt(amount).
				Div(decimal.NewFromInt(total)).
				Mul(hundred).
				Round(2)
			share.Percent, _ = percent.Float64()
		}
		shares = append(shares, share)
	}

	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Amount != shares[j].Amount {
			return shares[i].Amount > shares[j].Amount
		}
		return bytes.Compare(shares[i].CategoryID[:], shares[j].CategoryID[:]) < 0
	})
	return shares
}

// TrendSeries buckets the snapshot by period and returns per-period totals
// ordered by period ascending.
func TrendSeries(txs []domain.Transaction, bucket Bucket) []TrendPoint {
	layout := "2006-01"
	if bucket == BucketDaily {
		layout = "2006-01-02"
	}

	points := make(map[string]*TrendPoint)
	for i := range txs {
		key := txs[i].Date.UTC().Format(layout)
		point, ok := points[key]
		if !ok {
			point = &TrendPoint{Period: key}
			points[key] = point
		}
		switch txs[i].Kind {
		case domain.KindIncome:
			point.Income += txs[i].Amount
		case domain.KindExpense:
			point.Expense += txs[i].Amount
		}
	}

	series := make([]TrendPoint, 0, len(points))
	for _, point := range points {
		point.Net = point.Income - point.Expense
		series = append(series, *point)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Period < series[j].Period })
	return series
}

// BudgetProgress reports spending against each budget row. A budget with a
// nil category tracks overall spending. Budgets are consumed read-only.
func BudgetProgress(budgets []domain.Budget, txs []domain.Transaction) []BudgetStatus {
	statuses := make([]BudgetStatus, 0, len(budgets))
	for _, budget := range budgets {
		var spent int64
		for i := range txs {
			if txs[i].Kind != domain.KindExpense || txs[i].CategoryID == domain.TransferCategoryID {
				continue
			}
			if !inPeriod(txs[i].Date, budget.PeriodStart, budget.PeriodEnd) {
				continue
			}
			if budget.CategoryID != nil && txs[i].CategoryID != *budget.CategoryID {
				continue
			}
			spent += txs[i].Amount
		}
		statuses = append(statuses, BudgetStatus{
			Budget:    budget,
			Spent:     spent,
			Remaining: budget.Amount - spent,
		})
	}
	return statuses
}

func inPeriod(ts, from, to time.Time) bool {
	if !from.IsZero() && ts.Before(from) {
		return false
	}
	if !to.IsZero() && !ts.Before(to) {
		return false
	}
	return true
}
