package main

import (
	"os"
	"strings"
	"testing"
)

func TestLoadSourceTable(t *testing.T) {
	t.Run("csv", func(t *testing.T) {
		path := writeSourceFile(t, "plain.csv", []byte("a,b\n1,2\n"))
		table, name, cleanup, err := loadSourceTable(path, testLogger())
		if err != nil {
			t.Fatalf("loadSourceTable() error: %v", err)
		}
		if cleanup != nil {
			t.Error("cleanup should be nil for a csv source")
		}
		if name != path {
			t.Errorf("source name = %q, want %q", name, path)
		}
		if len(table.Header) != 2 || len(table.Rows) != 1 {
			t.Errorf("table = %dx%d, want 1x2", len(table.Rows), len(table.Header))
		}
	})

	t.Run("cdf", func(t *testing.T) {
		table, name, cleanup, err := loadSourceTable(buildSampleCDF(t), testLogger())
		if cleanup != nil {
			defer cleanup()
		}
		if err != nil {
			t.Fatalf("loadSourceTable() error: %v", err)
		}
		if cleanup == nil {
			t.Fatal("cleanup should remove the extraction directory")
		}
		// The largest merged table wins: the 4-record field plus epoch.
		if len(table.Header) != 4 || len(table.Rows) != 4 {
			t.Errorf("table = %dx%d, want 4x4", len(table.Rows), len(table.Header))
		}
		if !strings.HasSuffix(name, "sample.csv") {
			t.Errorf("source name = %q, want the merged csv", name)
		}

		cleanup()
		if _, err := os.Stat(name); !os.IsNotExist(err) {
			t.Errorf("extraction directory survived cleanup: %v", err)
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, _, _, err := loadSourceTable("notes.txt", testLogger())
		if err == nil || !strings.Contains(err.Error(), "unsupported file extension") {
			t.Errorf("loadSourceTable() error = %v, want unsupported extension", err)
		}
	})
}
