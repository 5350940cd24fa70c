package query

import (
	"context"
	"fmt"

	"voicebank/internal/intent"
	"voicebank/internal/models"
)

const allColumns = "SELECT id, date, beneficiary, amount, category, method FROM transactions"
const newestFirst = " ORDER BY date DESC, id DESC"

// RuleCompiler maps each intent kind to a fixed statement. It never calls
// out and never fails for a known kind.
type RuleCompiler struct{}

func NewRuleCompiler() *RuleCompiler {
	return &RuleCompiler{}
}

// limits holds the row cap per channel; 0 means uncapped.
type limits struct {
	text  int
	voice int
}

func (l limits) For(ch Channel) int {
	if ch == ChannelVoice {
		return l.voice
	}
	return l.text
}

func withLimit(sql string, n int) string {
	if n <= 0 {
		return sql
	}
	return fmt.Sprintf("%s LIMIT %d", sql, n)
}

func (c *RuleCompiler) Compile(_ context.Context, req Request) (models.Query, error) {
	in := req.Intent

	switch in.Kind {
	case intent.AllTransactions:
		return models.Query{SQL: withLimit(allColumns+newestFirst, 20)}, nil

	case intent.Food:
		return categoryQuery(models.CategoryFood, req.Channel), nil

	case intent.Category:
		return categoryQuery(in.Category, req.Channel), nil

	case intent.Recent:
		return models.Query{SQL: withLimit(allColumns+newestFirst, limits{10, 5}.For(req.Channel))}, nil

	case intent.AboveThreshold:
		return models.Query{
			SQL:  withLimit(allColumns+" WHERE amount > ?"+newestFirst, limits{0, 10}.For(req.Channel)),
			Args: []any{in.Threshold},
		}, nil

	case intent.UPIOnly:
		return models.Query{SQL: allColumns + " WHERE method = ?" + newestFirst, Args: []any{models.MethodUPI}}, nil

	case intent.ByCategory:
		return models.Query{SQL: "SELECT category, SUM(amount) AS total, COUNT(*) AS count FROM transactions GROUP BY category ORDER BY total DESC, category"}, nil

	case intent.TopExpenses:
		return models.Query{SQL: "SELECT beneficiary, SUM(amount) AS total, COUNT(*) AS count FROM transactions GROUP BY beneficiary ORDER BY total DESC, beneficiary LIMIT 5"}, nil

	case intent.Total:
		return models.Query{SQL: "SELECT COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count FROM transactions"}, nil

	case intent.HighestCategory:
		return models.Query{SQL: "SELECT category, SUM(amount) AS total FROM transactions GROUP BY category ORDER BY total DESC, category LIMIT 1"}, nil

	case intent.Default:
		return models.Query{SQL: withLimit(allColumns+newestFirst, 10)}, nil

	default:
		return models.Query{}, fmt.Errorf("no rule for intent %q", in.Kind)
	}
}

func categoryQuery(category string, ch Channel) models.Query {
	return models.Query{
		SQL:  withLimit(allColumns+" WHERE category = ?"+newestFirst, limits{0, 10}.For(ch)),
		Args: []any{category},
	}
}
