package store

import (
	"context"
	"fmt"
	"time"

	"voicebank/internal/models"
)

func (s *Store) SpendingByCategory(ctx context.Context, since time.Time) ([]models.CategorySpend, error) {
	rows, err := s.reader.QueryContext(ctx, `
		SELECT category, COUNT(*), SUM(amount), AVG(amount), MIN(amount), MAX(amount)
		FROM transactions
		WHERE date >= ?
		GROUP BY category
		ORDER BY SUM(amount) DESC, category`, storedDate(since))
	if err != nil {
		return nil, fmt.Errorf("spending by category: %w", err)
	}
	defer rows.Close()

	result := []models.CategorySpend{}
	for rows.Next() {
		var c models.CategorySpend
		if err := rows.Scan(&c.Category, &c.Count, &c.Total, &c.Average, &c.Min, &c.Max); err != nil {
			return nil, fmt.Errorf("scan category spend: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) DailyTrend(ctx context.Context, since time.Time) ([]models.DailySpend, error) {
	rows, err := s.reader.QueryContext(ctx, `
		SELECT substr(date, 1, 10) AS day, SUM(amount), COUNT(*)
		FROM transactions
		WHERE date >= ?
		GROUP BY day
		ORDER BY day`, storedDate(since))
	if err != nil {
		return nil, fmt.Errorf("daily trend: %w", err)
	}
	defer rows.Close()

	result := []models.DailySpend{}
	for rows.Next() {
		var d models.DailySpend
		if err := rows.Scan(&d.Day, &d.Total, &d.Count); err != nil {
			return nil, fmt.Errorf("scan daily spend: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// Anomalies returns transactions strictly above threshold, newest first.
func (s *Store) Anomalies(ctx context.Context, threshold int64, limit int) ([]models.Transaction, error) {
	rows, err := s.reader.QueryContext(ctx, `
		SELECT id, date, beneficiary, amount, category, method
		FROM transactions
		WHERE amount > ?
		ORDER BY date DESC, id DESC
		LIMIT ?`, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("anomalies: %w", err)
	}
	defer rows.Close()

	result := []models.Transaction{}
	for rows.Next() {
		var (
			t    models.Transaction
			date string
		)
		if err := rows.Scan(&t.ID, &date, &t.Beneficiary, &t.Amount, &t.Category, &t.Method); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Date, err = time.Parse(models.DateLayout, date); err != nil {
			return nil, fmt.Errorf("parse date %q: %w", date, err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (s *Store) TopMerchants(ctx context.Context, limit int) ([]models.MerchantSpend, error) {
	rows, err := s.reader.QueryContext(ctx, `
		SELECT beneficiary, COUNT(*), SUM(amount), AVG(amount), MAX(date)
		FROM transactions
		GROUP BY beneficiary
		ORDER BY SUM(amount) DESC, beneficiary
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("top merchants: %w", err)
	}
	defer rows.Close()

	result := []models.MerchantSpend{}
	for rows.Next() {
		var m models.MerchantSpend
		if err := rows.Scan(&m.Beneficiary, &m.TransactionCount, &m.TotalSpent, &m.AvgAmount, &m.LastTransaction); err != nil {
			return nil, fmt.Errorf("scan merchant spend: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// CategorySpentBetween sums one category over [from, to).
func (s *Store) CategorySpentBetween(ctx context.Context, category string, from, to time.Time) (models.PeriodTotal, error) {
	var p models.PeriodTotal
	err := s.reader.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0), COUNT(*)
		FROM transactions
		WHERE category = ? AND date >= ? AND date < ?`,
		category, storedDate(from), storedDate(to),
	).Scan(&p.Total, &p.Count)
	if err != nil {
		return p, fmt.Errorf("category spend %s: %w", category, err)
	}
	p.Period = from.UTC().Format("2006-01")
	return p, nil
}
