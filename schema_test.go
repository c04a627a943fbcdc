package main

import "testing"

func TestPgIdent(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"user", `"user"`},
		{"order", `"order"`},
		{"table", `"table"`},
		{"users", "users"},
		{"match_id", "match_id"},
		{"chat_id-ended_at", `"chat_id-ended_at"`},
		{"has space", `"has space"`},
		{"Upper", `"Upper"`},
		{"0start", `"0start"`},
		{"col$1", "col$1"},
	}
	for _, tt := range tests {
		got := pgIdent(tt.in)
		if got != tt.want {
			t.Errorf("pgIdent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSqliteIdent(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"events", `"events"`},
		{"order", `"order"`},
		{`odd"name`, `"odd""name"`},
	}
	for _, tt := range tests {
		got := sqliteIdent(tt.in)
		if got != tt.want {
			t.Errorf("sqliteIdent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMysqlIdent(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"events", "`events`"},
		{"odd`name", "`odd``name`"},
	}
	for _, tt := range tests {
		got := mysqlIdent(tt.in)
		if got != tt.want {
			t.Errorf("mysqlIdent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
