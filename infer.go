package main

import (
	"regexp"
	"strconv"
	"strings"
)

// Column type inference for prepare. The result is advisory: it seeds the
// generated job config and is never consulted during a sync.

const inferSampleSize = 1000

var dateValuePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
	regexp.MustCompile(`^\d{4}/\d{2}/\d{2}$`),
	regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`),
	regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`),
}

var datetimeValuePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`),
	regexp.MustCompile(`^\d{2}/\d{2}/\d{4}\s+\d{2}:\d{2}:\d{2}`),
}

// inferColumnType guesses a column type from sample values. Types are tried
// narrowest first: integer, float, date, datetime, then varchar for short
// values and text for everything else. A column is nullable when the sample
// contains an empty value.
func inferColumnType(values []string) (dataType string, nullable bool) {
	sample := values
	if len(sample) > inferSampleSize {
		sample = sample[:inferSampleSize]
	}

	nonEmpty := make([]string, 0, len(sample))
	for _, v := range sample {
		if strings.TrimSpace(v) == "" {
			nullable = true
			continue
		}
		nonEmpty = append(nonEmpty, v)
	}
	if len(nonEmpty) == 0 {
		return "text", nullable
	}

	if allValues(nonEmpty, isIntegerValue) {
		return "integer", nullable
	}
	if allValues(nonEmpty, isFloatValue) {
		return "float", nullable
	}
	if allValues(nonEmpty, func(v string) bool { return matchesAny(v, dateValuePatterns) }) {
		return "date", nullable
	}
	if allValues(nonEmpty, func(v string) bool { return matchesAny(v, datetimeValuePatterns) }) {
		return "datetime", nullable
	}

	maxLen := 0
	for _, v := range nonEmpty {
		if len(v) > maxLen {
			maxLen = len(v)
		}
	}
	if maxLen <= 255 {
		return "varchar(" + strconv.Itoa(maxLen) + ")", nullable
	}
	return "text", nullable
}

func allValues(values []string, pred func(string) bool) bool {
	for _, v := range values {
		if !pred(v) {
			return false
		}
	}
	return true
}

func matchesAny(v string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(v) {
			return true
		}
	}
	return false
}

func isIntegerValue(v string) bool {
	_, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	return err == nil
}

func isFloatValue(v string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return err == nil
}

// defaultIDColumnMatchers is used when the config declares none.
var defaultIDColumnMatchers = []string{"id", "uuid", "key", "code"}

// suggestIDColumn picks the most likely identifier column: an exact
// (case-insensitive) matcher hit first, then any column ending in _id, then
// the first column.
func suggestIDColumn(headers []string, matchers []string) string {
	if len(matchers) == 0 {
		matchers = defaultIDColumnMatchers
	}
	for _, h := range headers {
		lower := strings.ToLower(h)
		for _, m := range matchers {
			if lower == strings.ToLower(m) {
				return h
			}
		}
	}
	for _, h := range headers {
		if strings.HasSuffix(strings.ToLower(h), "_id") {
			return h
		}
	}
	if len(headers) > 0 {
		return headers[0]
	}
	return "id"
}

// suggestIndexes proposes indexes for temporal and foreign-key-looking
// columns. Temporal columns get a descending index since recent rows are
// queried most.
func suggestIndexes(columns []string, types map[string]string, idColumn string) []Index {
	var indexes []Index
	for _, col := range columns {
		if col == idColumn {
			continue
		}
		lower := strings.ToLower(col)
		switch {
		case types[col] == "date" || types[col] == "datetime":
			indexes = append(indexes, Index{
				Name:    "idx_" + lower,
				Columns: []IndexColumn{{Column: col, Order: "DESC"}},
			})
		case strings.HasSuffix(lower, "_id") || strings.HasSuffix(lower, "_key"):
			indexes = append(indexes, Index{
				Name:    "idx_" + lower,
				Columns: []IndexColumn{{Column: col, Order: "ASC"}},
			})
		}
	}
	return indexes
}
