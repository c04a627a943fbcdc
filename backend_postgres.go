package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgExecutor is the part of pgxpool.Pool the backend uses; tests substitute
// a recording fake.
type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresBackend struct {
	pool *pgxpool.Pool
	db   pgExecutor
}

type pgDialect struct{}

func (pgDialect) QuoteIdent(name string) string { return pgIdent(name) }

func (pgDialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (pgDialect) MapType(dataType string) string {
	switch normalizeTypeName(dataType) {
	case "", "text", "string":
		return "TEXT"
	case "integer", "int":
		return "INTEGER"
	case "bigint":
		return "BIGINT"
	case "float", "double", "real":
		return "DOUBLE PRECISION"
	case "date":
		return "DATE"
	case "datetime", "timestamp":
		return "TIMESTAMP"
	case "varchar":
		return fmt.Sprintf("VARCHAR(%d)", varcharLength(dataType))
	default:
		return "TEXT"
	}
}

func openPostgres(ctx context.Context, dbURL string) (*postgresBackend, error) {
	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, configErrorf("invalid postgres url: %v", err)
	}
	// One sync, one connection.
	cfg.MaxConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, backendErrf(err, "connect to postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, backendErrf(err, "connect to postgres")
	}
	return &postgresBackend{pool: pool, db: pool}, nil
}

func (b *postgresBackend) Name() string { return "postgres" }

func (b *postgresBackend) Close() error {
	if b.pool != nil {
		b.pool.Close()
	}
	return nil
}

func (b *postgresBackend) TableExists(ctx context.Context, table string) (bool, error) {
	var exists bool
	err := b.db.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", table).Scan(&exists)
	if err != nil {
		return false, backendErrf(err, "check table %s", table)
	}
	return exists, nil
}

func (b *postgresBackend) CreateTable(ctx context.Context, table string, cols []columnDef, primaryKey []string) error {
	_, err := b.db.Exec(ctx, buildCreateTable(pgDialect{}, table, cols, primaryKey))
	return backendErrf(err, "create table %s", table)
}

func (b *postgresBackend) ListColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := b.db.Query(ctx,
		"SELECT column_name FROM information_schema.columns WHERE table_name = $1", table)
	if err != nil {
		return nil, backendErrf(err, "list columns of %s", table)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, backendErrf(err, "list columns of %s", table)
		}
		cols[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, backendErrf(err, "list columns of %s", table)
	}
	return cols, nil
}

func (b *postgresBackend) AddColumn(ctx context.Context, table string, col columnDef) error {
	_, err := b.db.Exec(ctx, buildAddColumn(pgDialect{}, table, col))
	return backendErrf(err, "add column %s to %s", col.Name, table)
}

func (b *postgresBackend) ListIndexes(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := b.db.Query(ctx,
		"SELECT indexname FROM pg_indexes WHERE tablename = $1", table)
	if err != nil {
		return nil, backendErrf(err, "list indexes of %s", table)
	}
	defer rows.Close()

	indexes := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, backendErrf(err, "list indexes of %s", table)
		}
		indexes[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, backendErrf(err, "list indexes of %s", table)
	}
	return indexes, nil
}

func (b *postgresBackend) CreateIndex(ctx context.Context, table string, idx Index) error {
	_, err := b.db.Exec(ctx, buildCreateIndex(pgDialect{}, table, idx))
	return backendErrf(err, "create index %s on %s", idx.Name, table)
}

func (b *postgresBackend) Upsert(ctx context.Context, table string, cols, keys []string, values []any) error {
	_, err := b.db.Exec(ctx, buildUpsert(pgDialect{}, table, cols, keys), values...)
	return backendErrf(err, "upsert into %s", table)
}

func (b *postgresBackend) DeleteStale(ctx context.Context, table, scopeCol string, scopeVal any, idCols []string, currentIDs [][]any) (int64, error) {
	if len(currentIDs) == 0 {
		return 0, nil
	}
	stmt := buildDeleteStale(pgDialect{}, table, scopeCol, idCols, len(currentIDs), false)
	tag, err := b.db.Exec(ctx, stmt, flattenStaleArgs(scopeVal, currentIDs)...)
	if err != nil {
		return 0, backendErrf(err, "delete stale rows from %s", table)
	}
	return tag.RowsAffected(), nil
}

func (b *postgresBackend) CountStale(ctx context.Context, table, scopeCol string, scopeVal any, idCols []string, currentIDs [][]any) (int64, error) {
	if len(currentIDs) == 0 {
		return 0, nil
	}
	stmt := buildCountStale(pgDialect{}, table, scopeCol, idCols, len(currentIDs), false)
	var count int64
	err := b.db.QueryRow(ctx, stmt, flattenStaleArgs(scopeVal, currentIDs)...).Scan(&count)
	if err != nil {
		return 0, backendErrf(err, "count stale rows in %s", table)
	}
	return count, nil
}

func (b *postgresBackend) MapType(dataType string) string {
	return pgDialect{}.MapType(dataType)
}

func (b *postgresBackend) ConvertValue(raw, dataType string, nullable *bool) (any, error) {
	return convertTyped(raw, dataType, nullable)
}

func (b *postgresBackend) Exec(ctx context.Context, stmt string) error {
	_, err := b.db.Exec(ctx, stmt)
	return backendErrf(err, "execute statement")
}

// flattenStaleArgs binds the scope value first, then every id tuple in row
// order, matching the placeholder layout of the stale-row statements.
func flattenStaleArgs(scopeVal any, currentIDs [][]any) []any {
	args := make([]any, 0, 1+len(currentIDs))
	args = append(args, scopeVal)
	for _, tuple := range currentIDs {
		args = append(args, tuple...)
	}
	return args
}
