package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"voicebank/internal/models"
)

const (
	// AnomalyThreshold is a fixed cutoff, not a statistical test.
	AnomalyThreshold int64 = 3000
	anomalyLimit           = 10

	spendingWindow   = 30 * 24 * time.Hour
	insightTrendDays = 7
	insightMerchants = 5

	DefaultTrendDays     = 30
	DefaultMerchantLimit = 10
	DefaultBudget        = 10000
)

var ErrInvalidBudget = errors.New("budget must be positive")

// TransactionReader is the read side of the transaction store used by
// Analytics.
type TransactionReader interface {
	SpendingByCategory(ctx context.Context, since time.Time) ([]models.CategorySpend, error)
	DailyTrend(ctx context.Context, since time.Time) ([]models.DailySpend, error)
	Anomalies(ctx context.Context, threshold int64, limit int) ([]models.Transaction, error)
	TopMerchants(ctx context.Context, limit int) ([]models.MerchantSpend, error)
	CategorySpentBetween(ctx context.Context, category string, from, to time.Time) (models.PeriodTotal, error)
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// Analytics computes dashboard aggregates straight from the store on every
// call. Nothing is cached.
type Analytics struct {
	store  TransactionReader
	now    func() time.Time
	logger *slog.Logger
}

func NewAnalytics(store TransactionReader, now func() time.Time, logger *slog.Logger) *Analytics {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{store: store, now: now, logger: logger}
}

// Ping reports whether the store can still serve reads.
func (a *Analytics) Ping(ctx context.Context) error {
	return a.store.Ping(ctx)
}

func (a *Analytics) SpendingByCategory(ctx context.Context) ([]models.CategorySpend, error) {
	return a.store.SpendingByCategory(ctx, a.now().Add(-spendingWindow))
}

func (a *Analytics) DailyTrend(ctx context.Context, days int) ([]models.DailySpend, error) {
	if days <= 0 {
		days = DefaultTrendDays
	}
	return a.store.DailyTrend(ctx, a.now().AddDate(0, 0, -days))
}

// DetectAnomalies returns up to ten transactions above AnomalyThreshold,
// newest first.
func (a *Analytics) DetectAnomalies(ctx context.Context) ([]models.Transaction, error) {
	return a.store.Anomalies(ctx, AnomalyThreshold, anomalyLimit)
}

func (a *Analytics) TopMerchants(ctx context.Context, limit int) ([]models.MerchantSpend, error) {
	if limit <= 0 {
		limit = DefaultMerchantLimit
	}
	return a.store.TopMerchants(ctx, limit)
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// BudgetAnalysis compares this month's spend in category against budget.
func (a *Analytics) BudgetAnalysis(ctx context.Context, category string, budget int64) (models.BudgetReport, error) {
	if budget <= 0 {
		return models.BudgetReport{}, ErrInvalidBudget
	}

	start := monthStart(a.now())
	period, err := a.store.CategorySpentBetween(ctx, category, start, start.AddDate(0, 1, 0))
	if err != nil {
		return models.BudgetReport{}, err
	}

	pct := float64(period.Total) / float64(budget) * 100
	status := models.BudgetGood
	switch {
	case pct > 90:
		status = models.BudgetCritical
	case pct > 70:
		status = models.BudgetWarning
	}

	return models.BudgetReport{
		Category:     category,
		Budget:       budget,
		Spent:        period.Total,
		Remaining:    budget - period.Total,
		Percentage:   fmt.Sprintf("%.1f", pct),
		Transactions: period.Count,
		Status:       status,
	}, nil
}

// ComparativeAnalysis compares this calendar month with the previous one.
func (a *Analytics) ComparativeAnalysis(ctx context.Context, category string) (models.Comparison, error) {
	start := monthStart(a.now())
	prev := start.AddDate(0, -1, 0)

	var thisMonth, lastMonth models.PeriodTotal
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		thisMonth, err = a.store.CategorySpentBetween(gctx, category, start, start.AddDate(0, 1, 0))
		return err
	})
	g.Go(func() (err error) {
		lastMonth, err = a.store.CategorySpentBetween(gctx, category, prev, start)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.Comparison{}, err
	}
	thisMonth.Period = "This Month"
	lastMonth.Period = "Last Month"

	change := thisMonth.Total - lastMonth.Total
	percent := "0"
	if lastMonth.Total > 0 {
		percent = fmt.Sprintf("%.1f", float64(change)/float64(lastMonth.Total)*100)
	}

	trend := "stable"
	switch {
	case change > 0:
		trend = "up"
	case change < 0:
		trend = "down"
	}

	return models.Comparison{
		Category:      category,
		ThisMonth:     thisMonth,
		LastMonth:     lastMonth,
		Change:        change,
		PercentChange: percent,
		Trend:         trend,
	}, nil
}

// GenerateInsights runs the four dashboard queries concurrently and derives
// up to three insights. It never fails: any query error yields the empty
// bundle.
func (a *Analytics) GenerateInsights(ctx context.Context) models.InsightsBundle {
	bundle := models.EmptyInsightsBundle()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		bundle.Analytics, err = a.SpendingByCategory(gctx)
		return err
	})
	g.Go(func() (err error) {
		bundle.Trends, err = a.DailyTrend(gctx, insightTrendDays)
		return err
	})
	g.Go(func() (err error) {
		bundle.Anomalies, err = a.DetectAnomalies(gctx)
		return err
	})
	g.Go(func() (err error) {
		bundle.TopMerchants, err = a.TopMerchants(gctx, insightMerchants)
		return err
	})

	if err := g.Wait(); err != nil {
		a.logger.Warn("insights unavailable", "error", err)
		return models.EmptyInsightsBundle()
	}

	bundle.Analytics = nonNil(bundle.Analytics)
	bundle.Trends = nonNil(bundle.Trends)
	bundle.Anomalies = nonNil(bundle.Anomalies)
	bundle.TopMerchants = nonNil(bundle.TopMerchants)
	bundle.Insights = deriveInsights(bundle)
	return bundle
}

func deriveInsights(b models.InsightsBundle) []models.Insight {
	insights := []models.Insight{}

	if len(b.Analytics) > 0 {
		top := b.Analytics[0]
		insights = append(insights, models.Insight{
			Type:     models.InsightSpending,
			Priority: models.PriorityHigh,
			Message:  fmt.Sprintf("Your highest spending is in %s with ₹%d across %d transactions.", top.Category, top.Total, top.Count),
		})
	}

	if len(b.Anomalies) > 0 {
		insights = append(insights, models.Insight{
			Type:     models.InsightAnomaly,
			Priority: models.PriorityMedium,
			Message:  fmt.Sprintf("Detected %d unusual transactions that are higher than your typical spending.", len(b.Anomalies)),
		})
	}

	if n := len(b.Trends); n >= 2 {
		recent := sumDays(b.Trends[max(0, n-3):])
		previous := sumDays(b.Trends[max(0, n-6):max(0, n-3)])
		if previous > 0 && float64(recent) > float64(previous)*1.2 {
			pct := math.Round(float64(recent-previous) / float64(previous) * 100)
			insights = append(insights, models.Insight{
				Type:     models.InsightTrend,
				Priority: models.PriorityMedium,
				Message:  fmt.Sprintf("Your spending has increased by %d%% in the last 3 days.", int64(pct)),
			})
		}
	}

	return insights
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func sumDays(days []models.DailySpend) int64 {
	var total int64
	for _, d := range days {
		total += d.Total
	}
	return total
}

// Stats reports store size for the admin endpoint.
func (a *Analytics) Stats(ctx context.Context) (map[string]any, error) {
	count, err := a.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"record_count":      count,
		"anomaly_threshold": AnomalyThreshold,
		"computed_at":       a.now(),
	}, nil
}
