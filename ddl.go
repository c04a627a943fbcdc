package main

import (
	"fmt"
	"strings"
)

// sqlDialect captures what differs between the supported databases when
// statements are generated: identifier quoting, type names, and parameter
// placeholders.
type sqlDialect interface {
	QuoteIdent(name string) string
	MapType(dataType string) string
	Placeholder(n int) string
}

func quoteAll(d sqlDialect, names []string) []string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.QuoteIdent(n)
	}
	return quoted
}

func placeholders(d sqlDialect, from, count int) []string {
	ps := make([]string, count)
	for i := range ps {
		ps[i] = d.Placeholder(from + i)
	}
	return ps
}

// buildCreateTable produces a CREATE TABLE statement with an inline primary
// key constraint.
func buildCreateTable(d sqlDialect, table string, cols []columnDef, primaryKey []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", d.QuoteIdent(table))

	for i, col := range cols {
		fmt.Fprintf(&b, "  %s %s", d.QuoteIdent(col.Name), d.MapType(col.DataType))
		b.WriteString(nullSuffix(col.Nullable))
		if i < len(cols)-1 || len(primaryKey) > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	if len(primaryKey) > 0 {
		fmt.Fprintf(&b, "  PRIMARY KEY (%s)\n", strings.Join(quoteAll(d, primaryKey), ", "))
	}
	b.WriteString(")")
	return b.String()
}

func nullSuffix(nullable *bool) string {
	switch {
	case nullable == nil:
		return ""
	case *nullable:
		return " NULL"
	default:
		return " NOT NULL"
	}
}

// buildAddColumn produces the ALTER TABLE statement for one new column.
// Added columns are always nullable: existing rows hold no value for them.
func buildAddColumn(d sqlDialect, table string, col columnDef) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
		d.QuoteIdent(table), d.QuoteIdent(col.Name), d.MapType(col.DataType))
}

func buildCreateIndex(d sqlDialect, table string, idx Index) string {
	parts := make([]string, len(idx.Columns))
	for i, col := range idx.Columns {
		parts[i] = d.QuoteIdent(col.Column) + " " + col.Order
	}
	return fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
		d.QuoteIdent(idx.Name), d.QuoteIdent(table), strings.Join(parts, ", "))
}

// buildUpsert produces INSERT ... ON CONFLICT for PostgreSQL and SQLite.
// When every column is part of the key there is nothing to update and the
// conflict action degrades to DO NOTHING.
func buildUpsert(d sqlDialect, table string, cols, keys []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(table),
		strings.Join(quoteAll(d, cols), ", "),
		strings.Join(placeholders(d, 1, len(cols)), ", "))
	fmt.Fprintf(&b, " ON CONFLICT (%s)", strings.Join(quoteAll(d, keys), ", "))

	updates := upsertUpdateColumns(cols, keys)
	if len(updates) == 0 {
		b.WriteString(" DO NOTHING")
		return b.String()
	}
	b.WriteString(" DO UPDATE SET ")
	for i, col := range updates {
		if i > 0 {
			b.WriteString(", ")
		}
		q := d.QuoteIdent(col)
		fmt.Fprintf(&b, "%s = EXCLUDED.%s", q, q)
	}
	return b.String()
}

// buildUpsertMySQL produces the MySQL equivalent, INSERT ... ON DUPLICATE
// KEY UPDATE, or INSERT IGNORE when every column is part of the key.
func buildUpsertMySQL(d sqlDialect, table string, cols, keys []string) string {
	updates := upsertUpdateColumns(cols, keys)

	var b strings.Builder
	b.WriteString("INSERT ")
	if len(updates) == 0 {
		b.WriteString("IGNORE ")
	}
	fmt.Fprintf(&b, "INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(table),
		strings.Join(quoteAll(d, cols), ", "),
		strings.Join(placeholders(d, 1, len(cols)), ", "))
	if len(updates) == 0 {
		return b.String()
	}
	b.WriteString(" ON DUPLICATE KEY UPDATE ")
	for i, col := range updates {
		if i > 0 {
			b.WriteString(", ")
		}
		q := d.QuoteIdent(col)
		fmt.Fprintf(&b, "%s = VALUES(%s)", q, q)
	}
	return b.String()
}

func upsertUpdateColumns(cols, keys []string) []string {
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}
	var updates []string
	for _, c := range cols {
		if !isKey[c] {
			updates = append(updates, c)
		}
	}
	return updates
}

// buildDeleteStale removes rows in the scope that are absent from the
// current file. tupleCount is the number of id tuples bound after the scope
// value. valuesKeyword selects SQLite's NOT IN (VALUES ...) spelling for
// compound keys.
func buildDeleteStale(d sqlDialect, table, scopeCol string, idCols []string, tupleCount int, valuesKeyword bool) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s",
		d.QuoteIdent(table), staleWhere(d, scopeCol, idCols, tupleCount, valuesKeyword))
}

// buildCountStale counts the rows buildDeleteStale would remove.
func buildCountStale(d sqlDialect, table, scopeCol string, idCols []string, tupleCount int, valuesKeyword bool) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s",
		d.QuoteIdent(table), staleWhere(d, scopeCol, idCols, tupleCount, valuesKeyword))
}

// staleWhere builds: scope = p1 AND <ids> NOT IN <tuples>. The scope value
// is always the first parameter.
func staleWhere(d sqlDialect, scopeCol string, idCols []string, tupleCount int, valuesKeyword bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s = %s AND ", d.QuoteIdent(scopeCol), d.Placeholder(1))

	if len(idCols) == 1 {
		fmt.Fprintf(&b, "%s NOT IN (%s)",
			d.QuoteIdent(idCols[0]),
			strings.Join(placeholders(d, 2, tupleCount), ", "))
		return b.String()
	}

	fmt.Fprintf(&b, "(%s) NOT IN (", strings.Join(quoteAll(d, idCols), ", "))
	if valuesKeyword {
		b.WriteString("VALUES ")
	}
	n := 2
	for i := 0; i < tupleCount; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "(%s)", strings.Join(placeholders(d, n, len(idCols)), ", "))
		n += len(idCols)
	}
	b.WriteString(")")
	return b.String()
}
