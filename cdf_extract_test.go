package main

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtractAutomerge(t *testing.T) {
	dir := t.TempDir()
	results, err := extractCDF(buildSampleCDF(t), extractOptions{OutputDir: dir, Automerge: true}, testLogger())
	if err != nil {
		t.Fatalf("extractCDF() error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("extractCDF() produced %d files, want 2", len(results))
	}

	// The 4-record variables merge into one table named after the source
	// file; the 2-record quality flag gets its own. Label_B has a single
	// record and is dropped.
	merged := results[0]
	if got := filepath.Base(merged.OutputFile); got != "sample.csv" {
		t.Errorf("merged file = %q, want %q", got, "sample.csv")
	}
	if want := []string{"B_GSE", "Epoch"}; !reflect.DeepEqual(merged.Variables, want) {
		t.Errorf("merged variables = %v, want %v", merged.Variables, want)
	}
	wantCols := []string{"B_GSE_Bx", "B_GSE_By", "B_GSE_Bz", "Epoch"}
	if !reflect.DeepEqual(merged.ColumnNames, wantCols) {
		t.Errorf("merged columns = %v, want %v", merged.ColumnNames, wantCols)
	}
	if merged.Rows != 4 || merged.Columns != 4 {
		t.Errorf("merged size = %dx%d, want 4x4", merged.Rows, merged.Columns)
	}
	if merged.FileSize <= 0 {
		t.Errorf("merged FileSize = %d, want > 0", merged.FileSize)
	}

	quality := results[1]
	if got := filepath.Base(quality.OutputFile); got != "sample_Quality.csv" {
		t.Errorf("quality file = %q, want %q", got, "sample_Quality.csv")
	}
	if quality.Rows != 2 || quality.Columns != 1 {
		t.Errorf("quality size = %dx%d, want 2x1", quality.Rows, quality.Columns)
	}

	table, err := readCSVFile(merged.OutputFile)
	if err != nil {
		t.Fatalf("readCSVFile() error: %v", err)
	}
	if !reflect.DeepEqual(table.Header, wantCols) {
		t.Errorf("csv header = %v, want %v", table.Header, wantCols)
	}
	if len(table.Rows) != 4 || !reflect.DeepEqual(table.Rows[0], []string{"1.5", "-2", "3", "1000"}) {
		t.Errorf("csv rows = %v", table.Rows)
	}
}

func TestExtractNoAutomerge(t *testing.T) {
	dir := t.TempDir()
	results, err := extractCDF(buildSampleCDF(t), extractOptions{OutputDir: dir}, testLogger())
	if err != nil {
		t.Fatalf("extractCDF() error: %v", err)
	}

	// One file per variable, in most-records-first order.
	var names []string
	for _, r := range results {
		names = append(names, filepath.Base(r.OutputFile))
	}
	want := []string{"sample_Epoch.csv", "sample_B_GSE.csv", "sample_Quality.csv"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("output files = %v, want %v", names, want)
	}
	if results[1].Columns != 3 {
		t.Errorf("B_GSE columns = %d, want 3", results[1].Columns)
	}
}

func TestExtractVariableSelection(t *testing.T) {
	path := buildSampleCDF(t)

	results, err := extractCDF(path, extractOptions{
		OutputDir: t.TempDir(),
		Variables: []string{"Quality"},
	}, testLogger())
	if err != nil {
		t.Fatalf("extractCDF() error: %v", err)
	}
	if len(results) != 1 || !reflect.DeepEqual(results[0].Variables, []string{"Quality"}) {
		t.Errorf("results = %+v, want only Quality", results)
	}

	_, err = extractCDF(path, extractOptions{
		OutputDir: t.TempDir(),
		Variables: []string{"Epoch", "ZZZ", "AAA"},
	}, testLogger())
	if err == nil {
		t.Fatal("extractCDF() expected error for unknown variables")
	}
	if want := "variables not found in cdf file: AAA, ZZZ"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
}

func TestExtractMaxRecords(t *testing.T) {
	path := buildSampleCDF(t)

	// Truncating to 2 records pulls every variable into one merged group.
	results, err := extractCDF(path, extractOptions{
		OutputDir:  t.TempDir(),
		Automerge:  true,
		MaxRecords: 2,
	}, testLogger())
	if err != nil {
		t.Fatalf("extractCDF() error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("extractCDF() produced %d files, want 1", len(results))
	}
	r := results[0]
	if want := []string{"B_GSE", "Epoch", "Quality"}; !reflect.DeepEqual(r.Variables, want) {
		t.Errorf("variables = %v, want %v", r.Variables, want)
	}
	if r.Rows != 2 || r.Columns != 5 {
		t.Errorf("size = %dx%d, want 2x5", r.Rows, r.Columns)
	}

	// A single record is not a time series, so nothing survives.
	results, err = extractCDF(path, extractOptions{
		OutputDir:  t.TempDir(),
		Automerge:  true,
		MaxRecords: 1,
	}, testLogger())
	if err != nil {
		t.Fatalf("extractCDF() error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("extractCDF() produced %d files, want 0", len(results))
	}
}

func TestExtractExistingFileConflict(t *testing.T) {
	path := buildSampleCDF(t)
	dir := t.TempDir()
	opts := extractOptions{OutputDir: dir, Automerge: true}

	if _, err := extractCDF(path, opts, testLogger()); err != nil {
		t.Fatalf("first extractCDF() error: %v", err)
	}
	_, err := extractCDF(path, opts, testLogger())
	var conflict *FileConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("second extractCDF() error = %v, want FileConflictError", err)
	}
	if !strings.Contains(err.Error(), "--append") {
		t.Errorf("error = %q, want an --append hint", err)
	}
}

func TestExtractAppend(t *testing.T) {
	path := buildSampleCDF(t)
	dir := t.TempDir()

	if _, err := extractCDF(path, extractOptions{OutputDir: dir, Automerge: true}, testLogger()); err != nil {
		t.Fatalf("first extractCDF() error: %v", err)
	}
	results, err := extractCDF(path, extractOptions{OutputDir: dir, Automerge: true, Append: true}, testLogger())
	if err != nil {
		t.Fatalf("append extractCDF() error: %v", err)
	}

	table, err := readCSVFile(results[0].OutputFile)
	if err != nil {
		t.Fatalf("readCSVFile() error: %v", err)
	}
	// Appending writes no second header row.
	if len(table.Rows) != 8 {
		t.Errorf("appended file has %d data rows, want 8", len(table.Rows))
	}
}

func TestExtractAppendColumnMismatch(t *testing.T) {
	path := buildSampleCDF(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "sample.csv")
	if err := os.WriteFile(target, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := extractCDF(path, extractOptions{OutputDir: dir, Automerge: true, Append: true}, testLogger())
	var conflict *FileConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("extractCDF() error = %v, want FileConflictError", err)
	}
	if !strings.Contains(err.Error(), "do not match") {
		t.Errorf("error = %q, want a column mismatch message", err)
	}
}

func TestExtractFilenameTemplate(t *testing.T) {
	dir := t.TempDir()
	results, err := extractCDF(buildSampleCDF(t), extractOptions{
		OutputDir:        dir,
		FilenameTemplate: "out_[VARIABLE_NAME].csv",
		Automerge:        true,
	}, testLogger())
	if err != nil {
		t.Fatalf("extractCDF() error: %v", err)
	}

	var names []string
	for _, r := range results {
		names = append(names, filepath.Base(r.OutputFile))
	}
	if want := []string{"out.csv", "out_Quality.csv"}; !reflect.DeepEqual(names, want) {
		t.Errorf("output files = %v, want %v", names, want)
	}
}

func TestExtractNameClashCounter(t *testing.T) {
	dir := t.TempDir()
	results, err := extractCDF(buildSampleCDF(t), extractOptions{
		OutputDir:        dir,
		FilenameTemplate: "data.csv",
		Automerge:        true,
	}, testLogger())
	if err != nil {
		t.Fatalf("extractCDF() error: %v", err)
	}

	var names []string
	for _, r := range results {
		names = append(names, filepath.Base(r.OutputFile))
	}
	if want := []string{"data.csv", "data_1.csv"}; !reflect.DeepEqual(names, want) {
		t.Errorf("output files = %v, want %v", names, want)
	}
}

func TestColumnNamesFor(t *testing.T) {
	b := newCDFBuilder(cdfEncodingNetwork)
	b.addVariable("flow_rtn", cdfReal4, 1, []int32{3}, nil, false)
	b.addVariable("pos_xyz", cdfReal4, 1, []int32{3}, nil, false)
	b.addVariable("mag_quad", cdfReal4, 1, []int32{4}, nil, false)
	b.addVariable("misc", cdfReal4, 1, []int32{2}, nil, false)
	b.addVariable("DIGITS", cdfReal4, 1, []int32{3}, nil, false)
	b.addVariable("LABL_DIGITS", cdfChar, 2, []int32{3}, [][]byte{[]byte("1 2 3 ")}, false)

	f, err := openCDF(b.write(t, "names.cdf"))
	if err != nil {
		t.Fatalf("openCDF() error: %v", err)
	}

	tests := []struct {
		variable string
		want     []string
	}{
		{"flow_rtn", []string{"flow_rtn_r", "flow_rtn_t", "flow_rtn_n"}},
		{"pos_xyz", []string{"pos_xyz_x", "pos_xyz_y", "pos_xyz_z"}},
		{"mag_quad", []string{"mag_quad_x", "mag_quad_y", "mag_quad_z", "mag_quad_w"}},
		{"misc", []string{"misc_0", "misc_1"}},
		// Label values that are bare digits are no better than indexes.
		{"DIGITS", []string{"DIGITS_0", "DIGITS_1", "DIGITS_2"}},
	}
	for _, tt := range tests {
		t.Run(tt.variable, func(t *testing.T) {
			v, ok := f.Variable(tt.variable)
			if !ok {
				t.Fatalf("variable %q not found", tt.variable)
			}
			if got := columnNamesFor(f, v); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("columnNamesFor(%s) = %v, want %v", tt.variable, got, tt.want)
			}
		})
	}
}

func TestDedupeColumns(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		want  []string
	}{
		{"no duplicates", []string{"a", "b", "c"}, []string{"a", "b", "c"}},
		{"simple duplicate", []string{"time", "time"}, []string{"time", "time_1"}},
		{"counter collision", []string{"a", "a", "a_1", "b"}, []string{"a", "a_1", "a_1_1", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dedupeColumns(tt.names); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("dedupeColumns(%v) = %v, want %v", tt.names, got, tt.want)
			}
		})
	}
}

func TestBuildOutputName(t *testing.T) {
	tests := []struct {
		name     string
		template string
		stem     string
		variable string
		want     string
	}{
		{"single variable", "[SOURCE_FILE]_[VARIABLE_NAME].csv", "wind", "Np", "wind_Np.csv"},
		{"merged drops placeholder", "[SOURCE_FILE]_[VARIABLE_NAME].csv", "wind", "", "wind.csv"},
		{"merged drops dash separator", "x-[VARIABLE_NAME].csv", "wind", "", "x.csv"},
		{"no placeholders", "fixed.csv", "wind", "Np", "fixed.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildOutputName(tt.template, tt.stem, tt.variable); got != tt.want {
				t.Errorf("buildOutputName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAvoidNameClash(t *testing.T) {
	used := make(map[string]bool)
	if got := avoidNameClash("a.csv", used); got != "a.csv" {
		t.Errorf("first = %q, want a.csv", got)
	}
	if got := avoidNameClash("a.csv", used); got != "a_1.csv" {
		t.Errorf("second = %q, want a_1.csv", got)
	}
	if got := avoidNameClash("a.csv", used); got != "a_2.csv" {
		t.Errorf("third = %q, want a_2.csv", got)
	}
	if got := avoidNameClash("b.csv", used); got != "b.csv" {
		t.Errorf("other = %q, want b.csv", got)
	}
}
