package query

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrNotReadOnly = errors.New("statement is not a single read-only query")

var (
	leadingKeyword = regexp.MustCompile(`(?i)^(SELECT|WITH)\b`)
	forbidden      = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|DROP|ALTER|CREATE|REPLACE|ATTACH|DETACH|PRAGMA|VACUUM|REINDEX|TRUNCATE|GRANT)\b`)
	codeFence      = regexp.MustCompile("(?i)```(sql)?")
)

// EnsureReadOnly accepts exactly one SELECT or WITH statement with an
// optional trailing semicolon and no mutating or administrative keyword
// anywhere in its text.
func EnsureReadOnly(sql string) error {
	stmt := strings.TrimSpace(sql)
	stmt = strings.TrimSpace(strings.TrimSuffix(stmt, ";"))

	if stmt == "" {
		return fmt.Errorf("%w: empty statement", ErrNotReadOnly)
	}
	if strings.Contains(stmt, ";") {
		return fmt.Errorf("%w: multiple statements", ErrNotReadOnly)
	}
	if !leadingKeyword.MatchString(stmt) {
		return fmt.Errorf("%w: must start with SELECT or WITH", ErrNotReadOnly)
	}
	if kw := forbidden.FindString(stmt); kw != "" {
		return fmt.Errorf("%w: contains %s", ErrNotReadOnly, strings.ToUpper(kw))
	}
	return nil
}

// StripFences removes markdown code fences a model may wrap its answer in.
func StripFences(s string) string {
	return strings.TrimSpace(codeFence.ReplaceAllString(s, ""))
}
