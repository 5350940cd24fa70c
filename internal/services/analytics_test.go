package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"voicebank/internal/models"
	"voicebank/internal/store"
)

var testNow = time.Date(2024, 12, 5, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeReader struct {
	categories []models.CategorySpend
	trends     []models.DailySpend
	anomalies  []models.Transaction
	merchants  []models.MerchantSpend
	byMonth    map[time.Month]models.PeriodTotal
	count      int64

	spendingSince time.Time
	trendSince    time.Time
	err           error
	trendErr      error
}

func (f *fakeReader) SpendingByCategory(_ context.Context, since time.Time) ([]models.CategorySpend, error) {
	f.spendingSince = since
	return f.categories, f.err
}

func (f *fakeReader) DailyTrend(_ context.Context, since time.Time) ([]models.DailySpend, error) {
	f.trendSince = since
	if f.trendErr != nil {
		return nil, f.trendErr
	}
	return f.trends, f.err
}

func (f *fakeReader) Anomalies(context.Context, int64, int) ([]models.Transaction, error) {
	return f.anomalies, f.err
}

func (f *fakeReader) TopMerchants(context.Context, int) ([]models.MerchantSpend, error) {
	return f.merchants, f.err
}

func (f *fakeReader) CategorySpentBetween(_ context.Context, _ string, from, _ time.Time) (models.PeriodTotal, error) {
	return f.byMonth[from.Month()], f.err
}

func (f *fakeReader) Count(context.Context) (int64, error) {
	return f.count, f.err
}

func (f *fakeReader) Ping(context.Context) error {
	return f.err
}

func days(totals ...int64) []models.DailySpend {
	out := make([]models.DailySpend, len(totals))
	for i, t := range totals {
		out[i] = models.DailySpend{Day: testNow.AddDate(0, 0, i-len(totals)+1).Format("2006-01-02"), Total: t, Count: 1}
	}
	return out
}

func TestGenerateInsights(t *testing.T) {
	fake := &fakeReader{
		categories: []models.CategorySpend{{Category: "Food", Count: 3, Total: 1200}},
		trends:     days(100, 100, 100, 200, 200, 200),
		anomalies:  []models.Transaction{{ID: 2, Amount: 4200}, {ID: 1, Amount: 3500}},
		merchants:  []models.MerchantSpend{},
	}
	a := NewAnalytics(fake, fixedNow, discardLogger())

	got := a.GenerateInsights(context.Background())

	want := []models.Insight{
		{Type: models.InsightSpending, Priority: models.PriorityHigh, Message: "Your highest spending is in Food with ₹1200 across 3 transactions."},
		{Type: models.InsightAnomaly, Priority: models.PriorityMedium, Message: "Detected 2 unusual transactions that are higher than your typical spending."},
		{Type: models.InsightTrend, Priority: models.PriorityMedium, Message: "Your spending has increased by 100% in the last 3 days."},
	}
	if diff := cmp.Diff(want, got.Insights); diff != "" {
		t.Errorf("insights mismatch (-want +got):\n%s", diff)
	}
	if len(got.Trends) != 6 || len(got.Anomalies) != 2 {
		t.Errorf("bundle did not carry query results: %+v", got)
	}
	if want := testNow.Add(-30 * 24 * time.Hour); !fake.spendingSince.Equal(want) {
		t.Errorf("spending window since = %v, want %v", fake.spendingSince, want)
	}
	if want := testNow.AddDate(0, 0, -7); !fake.trendSince.Equal(want) {
		t.Errorf("trend window since = %v, want %v", fake.trendSince, want)
	}
}

func TestGenerateInsights_TrendRules(t *testing.T) {
	tests := []struct {
		name   string
		trends []models.DailySpend
		want   bool
	}{
		{"single day", days(500), false},
		{"no prior period", days(100, 500), false},
		{"prior period zero", days(0, 0, 0, 100, 100, 100), false},
		{"increase under twenty percent", days(100, 100, 100, 110, 110, 110), false},
		{"short prior window", days(100, 300, 300, 300), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeReader{trends: tt.trends}
			got := NewAnalytics(fake, fixedNow, discardLogger()).GenerateInsights(context.Background())

			hasTrend := false
			for _, in := range got.Insights {
				if in.Type == models.InsightTrend {
					hasTrend = true
				}
			}
			if hasTrend != tt.want {
				t.Errorf("trend insight = %v, want %v (%+v)", hasTrend, tt.want, got.Insights)
			}
		})
	}
}

func TestGenerateInsights_FailureYieldsEmptyBundle(t *testing.T) {
	fake := &fakeReader{
		categories: []models.CategorySpend{{Category: "Food", Count: 1, Total: 100}},
		trendErr:   errors.New("database is locked"),
	}

	got := NewAnalytics(fake, fixedNow, discardLogger()).GenerateInsights(context.Background())

	if diff := cmp.Diff(models.EmptyInsightsBundle(), got); diff != "" {
		t.Errorf("bundle mismatch (-want +got):\n%s", diff)
	}
	if got.Insights == nil || got.Analytics == nil || got.TopMerchants == nil {
		t.Error("empty bundle slices must be non-nil")
	}
}

func TestBudgetAnalysis(t *testing.T) {
	tests := []struct {
		spent   int64
		budget  int64
		pct     string
		status  models.BudgetStatus
		remains int64
	}{
		{9500, 10000, "95.0", models.BudgetCritical, 500},
		{8000, 10000, "80.0", models.BudgetWarning, 2000},
		{7000, 10000, "70.0", models.BudgetGood, 3000},
		{12000, 10000, "120.0", models.BudgetCritical, -2000},
		{0, 5000, "0.0", models.BudgetGood, 5000},
	}

	for _, tt := range tests {
		fake := &fakeReader{byMonth: map[time.Month]models.PeriodTotal{time.December: {Total: tt.spent, Count: 2}}}
		got, err := NewAnalytics(fake, fixedNow, discardLogger()).BudgetAnalysis(context.Background(), "Food", tt.budget)
		if err != nil {
			t.Fatalf("BudgetAnalysis() error = %v", err)
		}
		if got.Percentage != tt.pct || got.Status != tt.status || got.Remaining != tt.remains {
			t.Errorf("spent %d of %d: got %+v", tt.spent, tt.budget, got)
		}
	}
}

func TestBudgetAnalysis_RejectsNonPositiveBudget(t *testing.T) {
	a := NewAnalytics(&fakeReader{}, fixedNow, discardLogger())
	for _, budget := range []int64{0, -100} {
		if _, err := a.BudgetAnalysis(context.Background(), "Food", budget); !errors.Is(err, ErrInvalidBudget) {
			t.Errorf("BudgetAnalysis(budget=%d) error = %v, want ErrInvalidBudget", budget, err)
		}
	}
}

func TestComparativeAnalysis(t *testing.T) {
	tests := []struct {
		name    string
		this    int64
		last    int64
		change  int64
		percent string
		trend   string
	}{
		{"up", 1500, 1000, 500, "50.0", "up"},
		{"down", 500, 1000, -500, "-50.0", "down"},
		{"stable", 800, 800, 0, "0.0", "stable"},
		{"no previous month", 800, 0, 800, "0", "up"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeReader{byMonth: map[time.Month]models.PeriodTotal{
				time.December: {Total: tt.this, Count: 1},
				time.November: {Total: tt.last, Count: 1},
			}}
			got, err := NewAnalytics(fake, fixedNow, discardLogger()).ComparativeAnalysis(context.Background(), "Food")
			if err != nil {
				t.Fatalf("ComparativeAnalysis() error = %v", err)
			}
			if got.Change != tt.change || got.PercentChange != tt.percent || got.Trend != tt.trend {
				t.Errorf("got %+v", got)
			}
			if got.ThisMonth.Period != "This Month" || got.LastMonth.Period != "Last Month" {
				t.Errorf("periods = %q, %q", got.ThisMonth.Period, got.LastMonth.Period)
			}
		})
	}
}

func newSeededStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "bank.db"), discardLogger())
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if _, err := s.Seed(context.Background()); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	return s
}

func TestDetectAnomalies_Store(t *testing.T) {
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "bank.db"), discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	for i, amount := range []int64{500, 3500, 4200, 100} {
		_, err := s.Insert(context.Background(), models.Transaction{
			Date: testNow.AddDate(0, 0, i-4), Beneficiary: "M", Amount: amount, Category: "Shopping", Method: "Card",
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	got, err := NewAnalytics(s, fixedNow, discardLogger()).DetectAnomalies(context.Background())
	if err != nil {
		t.Fatalf("DetectAnomalies() error = %v", err)
	}
	if len(got) != 2 || got[0].Amount != 4200 || got[1].Amount != 3500 {
		t.Errorf("DetectAnomalies() = %+v, want [4200 3500]", got)
	}
}

func TestGenerateInsights_Idempotent(t *testing.T) {
	s := newSeededStore(t)
	a := NewAnalytics(s, fixedNow, discardLogger())

	first := a.GenerateInsights(context.Background())
	second := a.GenerateInsights(context.Background())

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("insights changed between calls (-first +second):\n%s", diff)
	}
	if len(first.Analytics) != 5 {
		t.Errorf("Analytics has %d categories, want 5", len(first.Analytics))
	}
	if len(first.Anomalies) != 1 || first.Anomalies[0].Beneficiary != "Rahul Kumar" {
		t.Errorf("Anomalies = %+v", first.Anomalies)
	}
}

func TestStats(t *testing.T) {
	a := NewAnalytics(&fakeReader{count: 42}, fixedNow, discardLogger())
	stats, err := a.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats["record_count"] != int64(42) {
		t.Errorf("record_count = %v", stats["record_count"])
	}
}

func TestPing(t *testing.T) {
	if err := NewAnalytics(&fakeReader{}, fixedNow, discardLogger()).Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}

	down := errors.New("database is closed")
	if err := NewAnalytics(&fakeReader{err: down}, fixedNow, discardLogger()).Ping(context.Background()); !errors.Is(err, down) {
		t.Errorf("Ping() error = %v, want %v", err, down)
	}
}
