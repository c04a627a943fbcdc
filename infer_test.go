package main

import (
	"reflect"
	"strings"
	"testing"
)

func TestInferColumnType(t *testing.T) {
	tests := []struct {
		name     string
		values   []string
		wantType string
		wantNull bool
	}{
		{"integers", []string{"1", "42", "-7"}, "integer", false},
		{"integers with blank", []string{"1", "", "3"}, "integer", true},
		{"integers with whitespace blank", []string{"1", "  ", "3"}, "integer", true},
		{"floats", []string{"1.5", "2.25"}, "float", false},
		{"mixed int and float", []string{"1", "2.5"}, "float", false},
		{"scientific notation", []string{"1e3", "-2.5E-4"}, "float", false},
		{"iso dates", []string{"2024-01-02", "2023-12-31"}, "date", false},
		{"slash dates", []string{"2024/01/02"}, "date", false},
		{"us dates", []string{"01/02/2024", "12-31-2023"}, "date", false},
		{"datetimes", []string{"2024-01-02 10:00:00", "2024-01-02T10:00:00"}, "datetime", false},
		{"datetime with fraction", []string{"2024-01-02 10:00:00.123"}, "datetime", false},
		{"short strings", []string{"alpha", "beta"}, "varchar(5)", false},
		{"long string", []string{strings.Repeat("x", 256)}, "text", false},
		{"all empty", []string{"", ""}, "text", true},
		{"no values", nil, "text", false},
		{"date mixed with text", []string{"2024-01-02", "yesterday"}, "varchar(10)", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotNull := inferColumnType(tt.values)
			if gotType != tt.wantType || gotNull != tt.wantNull {
				t.Errorf("inferColumnType(%v) = (%q, %t), want (%q, %t)",
					tt.values, gotType, gotNull, tt.wantType, tt.wantNull)
			}
		})
	}
}

func TestInferColumnTypeSampleCap(t *testing.T) {
	// Value 1001 would demote the column to varchar, but only the first
	// 1000 are sampled.
	values := make([]string, inferSampleSize+1)
	for i := range values {
		values[i] = "7"
	}
	values[inferSampleSize] = "not a number"

	gotType, _ := inferColumnType(values)
	if gotType != "integer" {
		t.Errorf("inferColumnType(capped sample) = %q, want %q", gotType, "integer")
	}
}

func TestSuggestIDColumn(t *testing.T) {
	tests := []struct {
		name     string
		headers  []string
		matchers []string
		want     string
	}{
		{"exact match", []string{"name", "id", "value"}, nil, "id"},
		{"case insensitive match", []string{"Name", "UUID"}, nil, "UUID"},
		{"custom matcher", []string{"name", "serial"}, []string{"serial"}, "serial"},
		{"custom matcher beats suffix", []string{"user_id", "serial"}, []string{"serial"}, "serial"},
		{"id suffix fallback", []string{"name", "user_id"}, nil, "user_id"},
		{"first column fallback", []string{"alpha", "beta"}, nil, "alpha"},
		{"no headers", nil, nil, "id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := suggestIDColumn(tt.headers, tt.matchers); got != tt.want {
				t.Errorf("suggestIDColumn(%v, %v) = %q, want %q", tt.headers, tt.matchers, got, tt.want)
			}
		})
	}
}

func TestSuggestIndexes(t *testing.T) {
	columns := []string{"id", "created", "user_id", "api_key", "note"}
	types := map[string]string{
		"id":      "integer",
		"created": "datetime",
		"user_id": "integer",
		"api_key": "varchar(32)",
		"note":    "text",
	}

	got := suggestIndexes(columns, types, "id")
	want := []Index{
		{Name: "idx_created", Columns: []IndexColumn{{Column: "created", Order: "DESC"}}},
		{Name: "idx_user_id", Columns: []IndexColumn{{Column: "user_id", Order: "ASC"}}},
		{Name: "idx_api_key", Columns: []IndexColumn{{Column: "api_key", Order: "ASC"}}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("suggestIndexes() = %+v, want %+v", got, want)
	}
}

func TestSuggestIndexesSkipsIDColumn(t *testing.T) {
	types := map[string]string{"order_id": "integer"}
	if got := suggestIndexes([]string{"order_id"}, types, "order_id"); len(got) != 0 {
		t.Errorf("suggestIndexes() = %+v, want none", got)
	}
}
