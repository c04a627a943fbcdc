package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

type mysqlBackend struct {
	db *sql.DB
}

type mysqlDialect struct{}

func (mysqlDialect) QuoteIdent(name string) string { return mysqlIdent(name) }

func (mysqlDialect) Placeholder(int) string { return "?" }

func (mysqlDialect) MapType(dataType string) string {
	switch normalizeTypeName(dataType) {
	case "":
		// MySQL cannot index TEXT without a prefix length, and untyped
		// columns may end up in the primary key.
		return "VARCHAR(255)"
	case "integer", "int":
		return "INT"
	case "bigint":
		return "BIGINT"
	case "float", "double", "real":
		return "DOUBLE"
	case "date":
		return "DATE"
	case "datetime", "timestamp":
		return "DATETIME"
	case "varchar":
		return fmt.Sprintf("VARCHAR(%d)", varcharLength(dataType))
	default:
		return "TEXT"
	}
}

// mysqlURLToDSN converts a mysql:// URL to a driver DSN with the options
// every connection needs: time parsing, client-side interpolation, UTC.
func mysqlURLToDSN(dbURL string) (string, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "", configErrorf("invalid mysql url: %v", err)
	}
	cfg := mysql.NewConfig()
	if u.User != nil {
		cfg.User = u.User.Username()
		if pass, ok := u.User.Password(); ok {
			cfg.Passwd = pass
		}
	}
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = u.Host + ":3306"
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.ParseTime = true
	cfg.InterpolateParams = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

func openMySQL(ctx context.Context, dbURL string) (*mysqlBackend, error) {
	dsn, err := mysqlURLToDSN(dbURL)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, backendErrf(err, "connect to mysql")
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, backendErrf(err, "connect to mysql")
	}
	return &mysqlBackend{db: db}, nil
}

func (b *mysqlBackend) Name() string { return "mysql" }

func (b *mysqlBackend) Close() error { return b.db.Close() }

func (b *mysqlBackend) TableExists(ctx context.Context, table string) (bool, error) {
	var name string
	err := b.db.QueryRowContext(ctx,
		"SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?",
		table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, backendErrf(err, "check table %s", table)
	}
	return true, nil
}

func (b *mysqlBackend) CreateTable(ctx context.Context, table string, cols []columnDef, primaryKey []string) error {
	_, err := b.db.ExecContext(ctx, buildCreateTable(mysqlDialect{}, table, cols, primaryKey))
	return backendErrf(err, "create table %s", table)
}

func (b *mysqlBackend) ListColumns(ctx context.Context, table string) (map[string]bool, error) {
	var names []string
	err := collectStringRows(b.db,
		"SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?",
		table, &names)
	if err != nil {
		return nil, backendErrf(err, "list columns of %s", table)
	}
	cols := make(map[string]bool, len(names))
	for _, name := range names {
		cols[strings.ToLower(name)] = true
	}
	return cols, nil
}

func (b *mysqlBackend) AddColumn(ctx context.Context, table string, col columnDef) error {
	_, err := b.db.ExecContext(ctx, buildAddColumn(mysqlDialect{}, table, col))
	return backendErrf(err, "add column %s to %s", col.Name, table)
}

func (b *mysqlBackend) ListIndexes(ctx context.Context, table string) (map[string]bool, error) {
	var names []string
	err := collectStringRows(b.db,
		"SELECT DISTINCT INDEX_NAME FROM INFORMATION_SCHEMA.STATISTICS WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?",
		table, &names)
	if err != nil {
		return nil, backendErrf(err, "list indexes of %s", table)
	}
	indexes := make(map[string]bool, len(names))
	for _, name := range names {
		indexes[strings.ToLower(name)] = true
	}
	return indexes, nil
}

func (b *mysqlBackend) CreateIndex(ctx context.Context, table string, idx Index) error {
	_, err := b.db.ExecContext(ctx, buildCreateIndex(mysqlDialect{}, table, idx))
	return backendErrf(err, "create index %s on %s", idx.Name, table)
}

func (b *mysqlBackend) Upsert(ctx context.Context, table string, cols, keys []string, values []any) error {
	_, err := b.db.ExecContext(ctx, buildUpsertMySQL(mysqlDialect{}, table, cols, keys), values...)
	return backendErrf(err, "upsert into %s", table)
}

func (b *mysqlBackend) DeleteStale(ctx context.Context, table, scopeCol string, scopeVal any, idCols []string, currentIDs [][]any) (int64, error) {
	if len(currentIDs) == 0 {
		return 0, nil
	}
	stmt := buildDeleteStale(mysqlDialect{}, table, scopeCol, idCols, len(currentIDs), false)
	res, err := b.db.ExecContext(ctx, stmt, flattenStaleArgs(scopeVal, currentIDs)...)
	if err != nil {
		return 0, backendErrf(err, "delete stale rows from %s", table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, backendErrf(err, "delete stale rows from %s", table)
	}
	return n, nil
}

func (b *mysqlBackend) CountStale(ctx context.Context, table, scopeCol string, scopeVal any, idCols []string, currentIDs [][]any) (int64, error) {
	if len(currentIDs) == 0 {
		return 0, nil
	}
	stmt := buildCountStale(mysqlDialect{}, table, scopeCol, idCols, len(currentIDs), false)
	var count int64
	err := b.db.QueryRowContext(ctx, stmt, flattenStaleArgs(scopeVal, currentIDs)...).Scan(&count)
	if err != nil {
		return 0, backendErrf(err, "count stale rows in %s", table)
	}
	return count, nil
}

func (b *mysqlBackend) MapType(dataType string) string {
	return mysqlDialect{}.MapType(dataType)
}

func (b *mysqlBackend) ConvertValue(raw, dataType string, nullable *bool) (any, error) {
	return convertTyped(raw, dataType, nullable)
}

func (b *mysqlBackend) Exec(ctx context.Context, stmt string) error {
	_, err := b.db.ExecContext(ctx, stmt)
	return backendErrf(err, "execute statement")
}
