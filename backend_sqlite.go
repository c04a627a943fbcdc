package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

type sqliteBackend struct {
	path string
	db   *sql.DB
}

type sqliteDialect struct{}

func (sqliteDialect) QuoteIdent(name string) string { return sqliteIdent(name) }

func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) MapType(dataType string) string {
	switch normalizeTypeName(dataType) {
	case "integer", "int", "bigint":
		return "INTEGER"
	case "float", "double", "real":
		return "REAL"
	default:
		return "TEXT"
	}
}

// openSQLite prepares a backend without touching the file. Opening is
// deferred until the first statement so a dry run against a missing
// database file does not create it.
func openSQLite(path string) *sqliteBackend {
	return &sqliteBackend{path: path}
}

func (b *sqliteBackend) conn() (*sql.DB, error) {
	if b.db != nil {
		return b.db, nil
	}
	db, err := sql.Open("sqlite", b.path)
	if err != nil {
		return nil, backendErrf(err, "open sqlite database %s", b.path)
	}
	db.SetMaxOpenConns(1)
	b.db = db
	return db, nil
}

// fileMissing reports whether the database file does not exist yet. Reads
// against a missing file answer from that fact instead of opening it.
func (b *sqliteBackend) fileMissing() bool {
	if b.db != nil || b.path == ":memory:" {
		return false
	}
	_, err := os.Stat(b.path)
	return os.IsNotExist(err)
}

func (b *sqliteBackend) Name() string { return "sqlite" }

func (b *sqliteBackend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *sqliteBackend) TableExists(ctx context.Context, table string) (bool, error) {
	if b.fileMissing() {
		return false, nil
	}
	db, err := b.conn()
	if err != nil {
		return false, err
	}
	var name string
	err = db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, backendErrf(err, "check table %s", table)
	}
	return true, nil
}

func (b *sqliteBackend) CreateTable(ctx context.Context, table string, cols []columnDef, primaryKey []string) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, buildCreateTable(sqliteDialect{}, table, cols, primaryKey))
	return backendErrf(err, "create table %s", table)
}

func (b *sqliteBackend) ListColumns(ctx context.Context, table string) (map[string]bool, error) {
	cols := make(map[string]bool)
	if b.fileMissing() {
		return cols, nil
	}
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+sqliteIdent(table)+")")
	if err != nil {
		return nil, backendErrf(err, "list columns of %s", table)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, backendErrf(err, "list columns of %s", table)
		}
		cols[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, backendErrf(err, "list columns of %s", table)
	}
	return cols, nil
}

func (b *sqliteBackend) AddColumn(ctx context.Context, table string, col columnDef) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, buildAddColumn(sqliteDialect{}, table, col))
	return backendErrf(err, "add column %s to %s", col.Name, table)
}

func (b *sqliteBackend) ListIndexes(ctx context.Context, table string) (map[string]bool, error) {
	indexes := make(map[string]bool)
	if b.fileMissing() {
		return indexes, nil
	}
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	var names []string
	err = collectStringRows(db,
		"SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ?", table, &names)
	if err != nil {
		return nil, backendErrf(err, "list indexes of %s", table)
	}
	for _, name := range names {
		indexes[strings.ToLower(name)] = true
	}
	return indexes, nil
}

func (b *sqliteBackend) CreateIndex(ctx context.Context, table string, idx Index) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, buildCreateIndex(sqliteDialect{}, table, idx))
	return backendErrf(err, "create index %s on %s", idx.Name, table)
}

func (b *sqliteBackend) Upsert(ctx context.Context, table string, cols, keys []string, values []any) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, buildUpsert(sqliteDialect{}, table, cols, keys), values...)
	return backendErrf(err, "upsert into %s", table)
}

func (b *sqliteBackend) DeleteStale(ctx context.Context, table, scopeCol string, scopeVal any, idCols []string, currentIDs [][]any) (int64, error) {
	if len(currentIDs) == 0 {
		return 0, nil
	}
	db, err := b.conn()
	if err != nil {
		return 0, err
	}
	stmt := buildDeleteStale(sqliteDialect{}, table, scopeCol, idCols, len(currentIDs), true)
	res, err := db.ExecContext(ctx, stmt, flattenStaleArgs(scopeVal, currentIDs)...)
	if err != nil {
		return 0, backendErrf(err, "delete stale rows from %s", table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, backendErrf(err, "delete stale rows from %s", table)
	}
	return n, nil
}

func (b *sqliteBackend) CountStale(ctx context.Context, table, scopeCol string, scopeVal any, idCols []string, currentIDs [][]any) (int64, error) {
	if len(currentIDs) == 0 {
		return 0, nil
	}
	if b.fileMissing() {
		return 0, nil
	}
	db, err := b.conn()
	if err != nil {
		return 0, err
	}
	stmt := buildCountStale(sqliteDialect{}, table, scopeCol, idCols, len(currentIDs), true)
	var count int64
	err = db.QueryRowContext(ctx, stmt, flattenStaleArgs(scopeVal, currentIDs)...).Scan(&count)
	if err != nil {
		return 0, backendErrf(err, "count stale rows in %s", table)
	}
	return count, nil
}

func (b *sqliteBackend) MapType(dataType string) string {
	return sqliteDialect{}.MapType(dataType)
}

func (b *sqliteBackend) ConvertValue(raw, dataType string, nullable *bool) (any, error) {
	return convertText(raw, dataType, nullable)
}

func (b *sqliteBackend) Exec(ctx context.Context, stmt string) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, stmt)
	return backendErrf(err, "execute statement")
}
