// Package intent maps a free-text banking question to one of a fixed set of
// query intents.
package intent

import (
	"regexp"
	"strconv"
	"strings"
)

type Kind string

const (
	AllTransactions Kind = "all-transactions"
	Food            Kind = "food"
	Recent          Kind = "recent"
	AboveThreshold  Kind = "above-threshold"
	UPIOnly         Kind = "upi-only"
	ByCategory      Kind = "by-category"
	TopExpenses     Kind = "top-expenses"
	Category        Kind = "category"
	Total           Kind = "total"
	HighestCategory Kind = "highest-category"
	Default         Kind = "default"
)

// DefaultThreshold applies when an above-threshold question carries no number.
const DefaultThreshold int64 = 1000

// Intent is a tagged union keyed by Kind. Threshold is set only for
// AboveThreshold and Category only for the Category kind.
type Intent struct {
	Kind      Kind   `json:"kind"`
	Threshold int64  `json:"threshold,omitempty"`
	Category  string `json:"category,omitempty"`
}

func (i Intent) String() string {
	switch i.Kind {
	case AboveThreshold:
		return string(i.Kind) + ":" + strconv.FormatInt(i.Threshold, 10)
	case Category:
		return string(i.Kind) + ":" + i.Category
	default:
		return string(i.Kind)
	}
}

type rule struct {
	match func(lower string) bool
	build func(lower string) Intent
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func fixed(k Kind) func(string) Intent {
	return func(string) Intent { return Intent{Kind: k} }
}

// Named categories, checked in this order.
var categoryWords = []struct {
	word     string
	category string
}{
	{"shopping", "Shopping"},
	{"transport", "Transport"},
	{"entertainment", "Entertainment"},
}

// rules are evaluated top to bottom and the first match wins. Food and
// recent sit above the numeric threshold check so that a stray "1000" does
// not take over an unrelated question.
var rules = []rule{
	{
		match: func(s string) bool { return strings.Contains(s, "all") && strings.Contains(s, "transaction") },
		build: fixed(AllTransactions),
	},
	{
		match: func(s string) bool { return strings.Contains(s, "food") },
		build: fixed(Food),
	},
	{
		match: func(s string) bool { return containsAny(s, "recent", "latest") },
		build: fixed(Recent),
	},
	{
		match: func(s string) bool { return containsAny(s, "above", "over", "1000") },
		build: func(s string) Intent { return Intent{Kind: AboveThreshold, Threshold: ExtractThreshold(s)} },
	},
	{
		match: func(s string) bool { return strings.Contains(s, "upi") },
		build: fixed(UPIOnly),
	},
	{
		match: func(s string) bool { return containsAny(s, "category", "categories") },
		build: fixed(ByCategory),
	},
	{
		match: func(s string) bool { return strings.Contains(s, "top") && containsAny(s, "expense", "spending") },
		build: fixed(TopExpenses),
	},
	{
		match: func(s string) bool { return namedCategory(s) != "" },
		build: func(s string) Intent { return Intent{Kind: Category, Category: namedCategory(s)} },
	},
	{
		match: func(s string) bool { return containsAny(s, "total", "sum") },
		build: fixed(Total),
	},
	{
		match: func(s string) bool { return containsAny(s, "most", "highest") },
		build: fixed(HighestCategory),
	},
}

func namedCategory(s string) string {
	for _, c := range categoryWords {
		if strings.Contains(s, c.word) {
			return c.category
		}
	}
	return ""
}

// Classify returns the intent of text. It never fails; anything unmatched
// is Default.
func Classify(text string) Intent {
	lower := strings.ToLower(text)
	for _, r := range rules {
		if r.match(lower) {
			return r.build(lower)
		}
	}
	return Intent{Kind: Default}
}

var digits = regexp.MustCompile(`\d+`)

// ExtractThreshold returns the first run of digits in text, or
// DefaultThreshold when there is none or it does not fit in an int64.
func ExtractThreshold(text string) int64 {
	m := digits.FindString(text)
	if m == "" {
		return DefaultThreshold
	}
	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return DefaultThreshold
	}
	return n
}
