package stats

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/coinkeeper/ledger-service/internal/domain"
)

func tx(kind domain.TransactionKind, amount int64, categoryID uuid.UUID, date time.Time) domain.Transaction {
	return domain.Transaction{
		ID:         uuid.New(),
		AccountID:  uuid.New(),
		CategoryID: categoryID,
		Kind:       kind,
		Amount:     amount,
		Date:       date,
	}
}

func TestComputeTotals(t *testing.T) {
	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		tx(domain.KindIncome, 10000, uuid.New(), day),
		tx(domain.KindIncome, 2500, uuid.New(), day),
		tx(domain.KindExpense, 4000, uuid.New(), day),
	}

	totals := ComputeTotals(txs)
	if totals.Income != 12500 {
		t.Fatalf("expected income=12500, got %d", totals.Income)
	}
	if totals.Expense != 4000 {
		t.Fatalf("expected expense=4000, got %d", totals.Expense)
	}
	if totals.Net != 8500 {
		t.Fatalf("expected net=8500, got %d", totals.Net)
	}
}

func TestCategoryBreakdown_PercentagesAndOrdering(t *testing.T) {
	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	groceries := uuid.New()
	rent := uuid.New()
	txs := []domain.Transaction{
		tx(domain.KindExpense, 2500, groceries, day),
		tx(domain.KindExpense, 7500, rent, day),
		// Income must not count toward spending shares.
		tx(domain.KindIncome, 100000, uuid.New(), day),
	}

	shares := CategoryBreakdown(txs)
	if len(shares) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(shares))
	}
	if shares[0].CategoryID != rent || shares[0].Amount != 7500 || shares[0].Percent != 75 {
		t.Fatalf("expected rent first with 75%%, got %+v", shares[0])
	}
	if shares[1].CategoryID != groceries || shares[1].Percent != 25 {
		t.Fatalf("expected groceries with 25%%, got %+v", shares[1])
	}
}

func TestCategoryBreakdown_TieBrokenByCategoryID(t *testing.T) {
	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	txs := []domain.Transaction{
		tx(domain.KindExpense, 5000, b, day),
		tx(domain.KindExpense, 5000, a, day),
	}

	shares := CategoryBreakdown(txs)
	if len(shares) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(shares))
	}
	if shares[0].CategoryID != a || shares[1].CategoryID != b {
		t.Fatalf("expected stable ascending tie-break, got %s then %s", shares[0].CategoryID, shares[1].CategoryID)
	}
}

// A snapshot whose expense total is zero reports 0% for every category
// instead of dividing by zero.
func TestCategoryBreakdown_ZeroTotalYieldsZeroPercent(t *testing.T) {
	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("no expenses at all", func(t *testing.T) {
		shares := CategoryBreakdown([]domain.Transaction{
			tx(domain.KindIncome, 1000, uuid.New(), day),
		})
		if len(shares) != 0 {
			t.Fatalf("expected no shares, got %d", len(shares))
		}
	})

	t.Run("only transfer legs", func(t *testing.T) {
		shares := CategoryBreakdown([]domain.Transaction{
			tx(domain.KindExpense, 1000, domain.TransferCategoryID, day),
		})
		if len(shares) != 0 {
			t.Fatalf("expected transfer legs excluded, got %d shares", len(shares))
		}
	})
}

func TestTrendSeries_OrderedAscending(t *testing.T) {
	txs := []domain.Transaction{
		tx(domain.KindExpense, 300, uuid.New(), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
		tx(domain.KindIncome, 900, uuid.New(), time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)),
		tx(domain.KindExpense, 100, uuid.New(), time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)),
		tx(domain.KindIncome, 500, uuid.New(), time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)),
	}

	series := TrendSeries(txs, BucketMonthly)
	want := []TrendPoint{
		{Period: "2026-01", Income: 900, Expense: 100, Net: 800},
		{Period: "2026-02", Income: 500, Expense: 0, Net: 500},
		{Period: "2026-03", Income: 0, Expense: 300, Net: -300},
	}
	if len(series) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(series))
	}
	for i := range want {
		if series[i] != want[i] {
			t.Fatalf("point %d: expected %+v, got %+v", i, want[i], series[i])
		}
	}
}

func TestTrendSeries_DailyBuckets(t *testing.T) {
	day := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		tx(domain.KindExpense, 100, uuid.New(), day),
		tx(domain.KindExpense, 200, uuid.New(), day.Add(4*time.Hour)),
		tx(domain.KindExpense, 50, uuid.New(), day.AddDate(0, 0, 1)),
	}

	series := TrendSeries(txs, BucketDaily)
	if len(series) != 2 {
		t.Fatalf("expected 2 points, got %d", len(series))
	}
	if series[0].Period != "2026-03-10" || series[0].Expense != 300 {
		t.Fatalf("expected 300 on 2026-03-10, got %+v", series[0])
	}
	if series[1].Period != "2026-03-11" || series[1].Expense != 50 {
		t.Fatalf("expected 50 on 2026-03-11, got %+v", series[1])
	}
}

func TestBudgetProgress(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	groceries := uuid.New()

	budgets := []domain.Budget{
		{ID: uuid.New(), CategoryID: &groceries, Amount: 5000, PeriodStart: from, PeriodEnd: to},
		{ID: uuid.New(), CategoryID: nil, Amount: 20000, PeriodStart: from, PeriodEnd: to},
	}
	txs := []domain.Transaction{
		tx(domain.KindExpense, 3000, groceries, from.AddDate(0, 0, 3)),
		tx(domain.KindExpense, 4000, uuid.New(), from.AddDate(0, 0, 5)),
		// Outside the period, must not count.
		tx(domain.KindExpense, 9999, groceries, from.AddDate(0, -1, 0)),
		// Income never counts toward spending.
		tx(domain.KindIncome, 100000, groceries, from.AddDate(0, 0, 4)),
	}

	statuses := BudgetProgress(budgets, txs)
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if statuses[0].Spent != 3000 || statuses[0].Remaining != 2000 {
		t.Fatalf("expected groceries spent=3000 remaining=2000, got %+v", statuses[0])
	}
	if statuses[1].Spent != 7000 || statuses[1].Remaining != 13000 {
		t.Fatalf("expected overall spent=7000 remaining=13000, got %+v", statuses[1])
	}
}
