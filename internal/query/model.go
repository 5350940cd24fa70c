package query

import (
	"context"
	"fmt"

	"voicebank/internal/llm"
	"voicebank/internal/models"
)

const sqlPrompt = `You are a Banking SQL Expert.
Schema: transactions(id INTEGER, date TEXT, beneficiary TEXT, amount INTEGER, category TEXT, method TEXT)

Rules:
- Convert natural language to SQL
- "20k" means 20000, "5k" means 5000
- "last week" means last 7 days
- "today" means current date
- Return ONLY the raw SQL SELECT query, no explanations, no markdown, no code blocks
- Use SQLite syntax

User query: %q

SQL:`

// ModelCompiler asks a language model to write the statement. The reply is
// untrusted and is only returned once it passes EnsureReadOnly.
type ModelCompiler struct {
	gen llm.Generator
}

func NewModelCompiler(gen llm.Generator) *ModelCompiler {
	return &ModelCompiler{gen: gen}
}

// Compile returns the generated statement even on a read-only violation so
// the caller can report the offending text.
func (c *ModelCompiler) Compile(ctx context.Context, req Request) (models.Query, error) {
	reply, err := c.gen.Generate(ctx, fmt.Sprintf(sqlPrompt, req.Text))
	if err != nil {
		return models.Query{}, fmt.Errorf("generate sql: %w", err)
	}

	q := models.Query{SQL: StripFences(reply)}
	if err := EnsureReadOnly(q.SQL); err != nil {
		return q, err
	}
	return q, nil
}
