package main

// ColumnMapping maps one source column (or one computed value) to a
// destination column. A mapping with a Transform never reads a single source
// column; its value is computed from the whole row.
type ColumnMapping struct {
	SourceColumn string            // CSV header name (map key in the config)
	DBColumn     string            // destination column name
	DataType     string            // logical type, e.g. "integer", "varchar(64)"; empty = untyped
	Nullable     *bool             // nil = unspecified (no NULL/NOT NULL in DDL)
	Lookup       map[string]string // raw value -> substituted value; misses pass through
	Transform    string            // registered transform name; empty = plain column read
	simple       bool              // parsed from the bare-string form; kept for round-trip saves
}

// IdentityMapping is the ordered set of mappings forming the destination
// table's primary key. Order drives CREATE TABLE and display; key semantics
// are set-based.
type IdentityMapping []ColumnMapping

// DBColumns returns the destination column names in declaration order.
func (m IdentityMapping) DBColumns() []string {
	cols := make([]string, len(m))
	for i, c := range m {
		cols[i] = c.DBColumn
	}
	return cols
}

// IndexColumn is one column of a secondary index.
type IndexColumn struct {
	Column string
	Order  string // "ASC" or "DESC"
}

// Index is a declarative secondary index on the destination table.
type Index struct {
	Name    string
	Columns []IndexColumn
}

// FilenameColumn maps one named capture from the source filename to a
// destination column.
type FilenameColumn struct {
	Name               string // capture group name
	DBColumn           string // defaults to Name
	DataType           string
	UseToDeleteOldRows bool
}

// SyncJob is one declarative sync configuration: where rows go, which
// columns form the identity, which non-key columns to carry, and how the
// filename contributes metadata.
type SyncJob struct {
	Name             string
	TargetTable      string
	IDMapping        IdentityMapping
	Columns          []ColumnMapping // empty = mirror all unclaimed source columns
	FilenameToColumn *FilenameToColumn
	Indexes          []Index
	SamplePercentage *float64 // 0-100; nil = sync everything
	PostSync         []string // SQL script paths run after a successful sync
}

// ColumnChange is one column a sync would add to an existing table.
type ColumnChange struct {
	Name    string
	SQLType string // physical type, including any NULL/NOT NULL suffix
}

// DryRunSummary reports what a sync would do without doing it.
type DryRunSummary struct {
	TableName       string
	TableExists     bool
	RowsToSync      int
	RowsToDelete    int64
	ColumnsToAdd    []ColumnChange // only populated when the table exists
	IndexesToCreate []string       // only populated when the table exists
}

// SyncResult reports what a completed sync did.
type SyncResult struct {
	RowsSynced  int
	RowsDeleted int64
}
