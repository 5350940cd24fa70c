package models

import "strings"

// Query is one parameterized, read-only statement against the transaction
// store.
type Query struct {
	SQL  string
	Args []any
}

func (q Query) String() string {
	return q.SQL
}

// Row is one result row keyed by column name. Integer columns hold int64,
// text columns hold string and NULL columns are absent.
type Row map[string]any

// QueryResult is the ordered row set of one executed Query.
type QueryResult []Row

func (r Row) Has(col string) bool {
	v, ok := r[col]
	return ok && v != nil
}

// Int reads an integer column, accepting float values produced by
// aggregates such as AVG.
func (r Row) Int(col string) int64 {
	switch v := r[col].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

// Truthy mirrors how the narrator treats optional aggregate columns: a
// missing, NULL or zero value counts as absent.
func (r Row) Truthy(col string) bool {
	switch v := r[col].(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	default:
		return r.Int(col) != 0
	}
}
