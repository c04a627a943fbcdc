package main

import (
	"path/filepath"
	"regexp"
)

// templatePlaceholder matches a [name] placeholder after the template has
// been regexp-escaped, so it sees the escaped form.
var templatePlaceholder = regexp.MustCompile(`\\\[(\w+)\\\]`)

// FilenameToColumn extracts named values from a source file's name, either
// through a template with [name] placeholders or a raw regex with named
// groups. Exactly one of Template/Regex is set.
type FilenameToColumn struct {
	Template string
	Regex    string
	Columns  []FilenameColumn

	pattern *regexp.Regexp
}

// templateToRegex converts a filename template like "data_[date].csv" into
// a regex where each placeholder becomes a non-greedy named capture group.
func templateToRegex(template string) (*regexp.Regexp, error) {
	escaped := regexp.QuoteMeta(template)
	pattern := templatePlaceholder.ReplaceAllString(escaped, `(?P<$1>.+?)`)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, configErrorf("invalid filename template %q: %v", template, err)
	}
	return re, nil
}

// compile builds the matcher and validates that every declared column has a
// corresponding named group.
func (f *FilenameToColumn) compile() error {
	switch {
	case f.Template != "" && f.Regex != "":
		return configErrorf("filename_to_column cannot have both template and regex")
	case f.Template == "" && f.Regex == "":
		return configErrorf("filename_to_column must have either template or regex")
	}

	var err error
	if f.Template != "" {
		f.pattern, err = templateToRegex(f.Template)
	} else {
		f.pattern, err = regexp.Compile(f.Regex)
		if err != nil {
			err = configErrorf("invalid filename regex %q: %v", f.Regex, err)
		}
	}
	if err != nil {
		return err
	}

	groups := make(map[string]bool)
	for _, name := range f.pattern.SubexpNames() {
		if name != "" {
			groups[name] = true
		}
	}
	for _, col := range f.Columns {
		if !groups[col.Name] {
			return configErrorf("filename_to_column column %q has no matching capture group", col.Name)
		}
	}
	return nil
}

// Pattern returns the compiled matcher's source, for diagnostics.
func (f *FilenameToColumn) Pattern() string {
	if f.pattern == nil {
		return ""
	}
	return f.pattern.String()
}

// Values matches the file's base name and returns the extracted values keyed
// by destination column. The second result is false when the name does not
// match; that is not an error at this layer.
func (f *FilenameToColumn) Values(path string) (map[string]string, bool) {
	base := filepath.Base(path)
	match := f.pattern.FindStringSubmatch(base)
	if match == nil {
		return nil, false
	}

	byGroup := make(map[string]string)
	for i, name := range f.pattern.SubexpNames() {
		if name != "" && i < len(match) {
			byGroup[name] = match[i]
		}
	}

	values := make(map[string]string, len(f.Columns))
	for _, col := range f.Columns {
		values[col.DBColumn] = byGroup[col.Name]
	}
	return values, true
}

// DeleteKeyColumns returns the destination columns flagged
// use_to_delete_old_rows, in declaration order.
func (f *FilenameToColumn) DeleteKeyColumns() []string {
	var cols []string
	for _, c := range f.Columns {
		if c.UseToDeleteOldRows {
			cols = append(cols, c.DBColumn)
		}
	}
	return cols
}

// columnDefs returns the destination column definitions contributed by the
// filename, in declaration order. Filename columns never carry an explicit
// nullability.
func (f *FilenameToColumn) columnDefs() []columnDef {
	defs := make([]columnDef, len(f.Columns))
	for i, c := range f.Columns {
		defs[i] = columnDef{Name: c.DBColumn, DataType: c.DataType}
	}
	return defs
}

// describeNoMatch builds the error text for a filename that should have
// matched but did not.
func (f *FilenameToColumn) describeNoMatch(path string) error {
	source := f.Template
	if source == "" {
		source = f.Regex
	}
	return sourceDataErrorf("filename %q does not match configured pattern %q", filepath.Base(path), source)
}
