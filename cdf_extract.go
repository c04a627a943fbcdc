package main

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"
)

const defaultExtractTemplate = "[SOURCE_FILE]_[VARIABLE_NAME].csv"

type extractOptions struct {
	OutputDir        string
	FilenameTemplate string
	Automerge        bool
	Append           bool
	Variables        []string
	MaxRecords       int
}

// ExtractionResult describes one CSV file produced from a CDF file.
type ExtractionResult struct {
	OutputFile  string
	Variables   []string
	ColumnNames []string
	Rows        int
	Columns     int
	FileSize    int64
}

// extractCDF converts CDF variables to CSV tables. With automerge,
// variables sharing a record count are merged side by side into one table;
// otherwise each variable gets its own file. Variables with fewer than two
// records carry no time series and are dropped.
func extractCDF(path string, opts extractOptions, log *slog.Logger) ([]ExtractionResult, error) {
	f, err := openCDF(path)
	if err != nil {
		return nil, err
	}

	selected, err := selectVariables(f, opts.Variables)
	if err != nil {
		return nil, err
	}

	type varData struct {
		v       *cdfVariable
		records [][]string
	}
	var loaded []varData
	for _, v := range selected {
		if v.RecordCount() < 2 {
			log.Debug("skipping variable with too few records", "variable", v.Name, "records", v.RecordCount())
			continue
		}
		records, err := v.ReadRecords()
		if err != nil {
			log.Warn("skipping unreadable variable", "variable", v.Name, "error", err)
			continue
		}
		if opts.MaxRecords > 0 && len(records) > opts.MaxRecords {
			records = records[:opts.MaxRecords]
		}
		if len(records) < 2 {
			continue
		}
		loaded = append(loaded, varData{v: v, records: records})
	}
	if len(loaded) == 0 {
		return []ExtractionResult{}, nil
	}

	// Group for output. Merged groups keep the largest tables first;
	// variables inside a group are ordered by name.
	var groups [][]varData
	if opts.Automerge {
		byCount := make(map[int][]varData)
		var counts []int
		for _, vd := range loaded {
			n := len(vd.records)
			if _, ok := byCount[n]; !ok {
				counts = append(counts, n)
			}
			byCount[n] = append(byCount[n], vd)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(counts)))
		for _, n := range counts {
			group := byCount[n]
			sort.Slice(group, func(i, j int) bool { return group[i].v.Name < group[j].v.Name })
			groups = append(groups, group)
		}
	} else {
		for _, vd := range loaded {
			groups = append(groups, []varData{vd})
		}
	}

	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	template := opts.FilenameTemplate
	if template == "" {
		template = defaultExtractTemplate
	}
	sourceStem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var results []ExtractionResult
	usedNames := make(map[string]bool)
	for _, group := range groups {
		var columns []string
		var varNames []string
		for _, vd := range group {
			columns = append(columns, columnNamesFor(f, vd.v)...)
			varNames = append(varNames, vd.v.Name)
		}
		columns = dedupeColumns(columns)

		rowCount := len(group[0].records)
		rows := make([][]string, rowCount)
		for i := range rows {
			row := make([]string, 0, len(columns))
			for _, vd := range group {
				row = append(row, vd.records[i]...)
			}
			rows[i] = row
		}

		groupVar := ""
		if len(group) == 1 {
			groupVar = group[0].v.Name
		}
		name := buildOutputName(template, sourceStem, groupVar)
		name = avoidNameClash(name, usedNames)
		outPath := filepath.Join(opts.OutputDir, name)

		written, err := writeExtractCSV(outPath, columns, rows, opts.Append)
		if err != nil {
			return nil, err
		}

		info, err := os.Stat(outPath)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", outPath, err)
		}
		log.Info("wrote extracted table",
			"file", outPath,
			"variables", len(group),
			"rows", written,
			"columns", len(columns))

		results = append(results, ExtractionResult{
			OutputFile:  outPath,
			Variables:   varNames,
			ColumnNames: columns,
			Rows:        written,
			Columns:     len(columns),
			FileSize:    info.Size(),
		})
	}
	return results, nil
}

// selectVariables resolves an explicit variable list, or returns every
// variable (most records first) when none is given.
func selectVariables(f *cdfFile, names []string) ([]*cdfVariable, error) {
	if len(names) == 0 {
		return f.Variables(), nil
	}
	var selected []*cdfVariable
	var missing []string
	for _, name := range names {
		v, ok := f.Variable(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		selected = append(selected, v)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, sourceDataErrorf("variables not found in cdf file: %s", strings.Join(missing, ", "))
	}
	return selected, nil
}

var allDigits = regexp.MustCompile(`^\d+$`)

// columnNamesFor names the CSV columns of one variable. Multi-component
// variables are labeled from the file's own label metadata when available,
// then from naming conventions, then by component index.
func columnNamesFor(f *cdfFile, v *cdfVariable) []string {
	width := v.Width()
	if width == 1 {
		return []string{v.Name}
	}

	if labels, ok := componentLabels(f, v, width); ok {
		names := make([]string, width)
		for i, label := range labels {
			names[i] = v.Name + "_" + label
		}
		return names
	}

	lower := strings.ToLower(v.Name)
	isVector := strings.Contains(lower, "vector") || strings.Contains(lower, "vec") ||
		strings.Contains(lower, "mag") || strings.Contains(lower, "field")
	var suffixes []string
	switch {
	case width == 3 && strings.Contains(lower, "rtn"):
		suffixes = []string{"r", "t", "n"}
	case width == 3 && (strings.Contains(lower, "xyz") || isVector):
		suffixes = []string{"x", "y", "z"}
	case width == 4 && isVector:
		suffixes = []string{"x", "y", "z", "w"}
	}
	names := make([]string, width)
	for i := range names {
		if suffixes != nil {
			names[i] = v.Name + "_" + suffixes[i]
		} else {
			names[i] = fmt.Sprintf("%s_%d", v.Name, i)
		}
	}
	return names
}

// componentLabels finds per-component labels: the LABL_PTR_1 pointer first,
// then conventional label variable names. Labels that are mostly bare
// numbers are discarded.
func componentLabels(f *cdfFile, v *cdfVariable, width int) ([]string, bool) {
	var candidates []string
	if ptr, ok := f.VariableAttribute("LABL_PTR_1", v.Num); ok && ptr != "" {
		candidates = append(candidates, ptr)
	}
	candidates = append(candidates,
		"LBL1_"+v.Name,
		"LABL_"+v.Name,
		v.Name+"_LABEL",
		v.Name+"_label",
		"REP1_"+v.Name,
		v.Name+"_rep",
	)

	for _, name := range candidates {
		labelVar, ok := f.Variable(name)
		if !ok {
			continue
		}
		records, err := labelVar.ReadRecords()
		if err != nil {
			continue
		}
		var flat []string
		for _, rec := range records {
			for _, val := range rec {
				flat = append(flat, strings.TrimSpace(val))
			}
		}
		if len(flat) < width {
			continue
		}
		flat = flat[:width]

		useful := 0
		for _, label := range flat {
			if len(label) > 1 && !allDigits.MatchString(label) {
				useful++
			}
		}
		if useful*2 >= width {
			return flat, true
		}
	}
	return nil, false
}

func dedupeColumns(names []string) []string {
	seen := make(map[string]int, len(names))
	out := make([]string, len(names))
	for i, name := range names {
		if _, dup := seen[name]; !dup {
			seen[name] = 0
			out[i] = name
			continue
		}
		n := seen[name]
		for {
			n++
			candidate := fmt.Sprintf("%s_%d", name, n)
			if _, taken := seen[candidate]; !taken {
				seen[name] = n
				seen[candidate] = 0
				out[i] = candidate
				break
			}
		}
	}
	return out
}

// buildOutputName fills the filename template. Merged tables have no single
// variable name, so the placeholder is removed along with a joining
// separator.
func buildOutputName(template, sourceStem, varName string) string {
	name := template
	if varName == "" {
		name = strings.ReplaceAll(name, "_[VARIABLE_NAME]", "")
		name = strings.ReplaceAll(name, "-[VARIABLE_NAME]", "")
		name = strings.ReplaceAll(name, "[VARIABLE_NAME]", "")
	} else {
		name = strings.ReplaceAll(name, "[VARIABLE_NAME]", varName)
	}
	return strings.ReplaceAll(name, "[SOURCE_FILE]", sourceStem)
}

// avoidNameClash appends a counter before the extension when this run has
// already claimed the name.
func avoidNameClash(name string, used map[string]bool) string {
	if !used[name] {
		used[name] = true
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if !used[candidate] {
			used[candidate] = true
			return candidate
		}
	}
}

// writeExtractCSV writes or appends one extracted table and returns the
// number of data rows written.
func writeExtractCSV(path string, columns []string, rows [][]string, appendMode bool) (int, error) {
	_, statErr := os.Stat(path)
	exists := statErr == nil

	if exists && !appendMode {
		return 0, &FileConflictError{
			Path: path,
			Msg:  fmt.Sprintf("output file already exists: %s. use --append to add rows or choose another filename template", path),
		}
	}

	if exists {
		existing, err := readCSVFile(path)
		if err != nil {
			return 0, fmt.Errorf("read append target: %w", err)
		}
		if !slices.Equal(existing.Header, columns) {
			return 0, &FileConflictError{
				Path: path,
				Msg: fmt.Sprintf("cannot append to %s: existing columns (%s) do not match (%s)",
					path, strings.Join(existing.Header, ", "), strings.Join(columns, ", ")),
			}
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if exists {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	out, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if !exists {
		if err := w.Write(columns); err != nil {
			return 0, fmt.Errorf("write %s: %w", path, err)
		}
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return 0, fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	return len(rows), nil
}
