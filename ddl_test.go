package main

import "testing"

func boolPtr(v bool) *bool { return &v }

func TestBuildCreateTable(t *testing.T) {
	cols := []columnDef{
		{Name: "id", DataType: "integer"},
		{Name: "order", DataType: "", Nullable: boolPtr(false)},
		{Name: "note", DataType: "text", Nullable: boolPtr(true)},
	}
	got := buildCreateTable(pgDialect{}, "events", cols, []string{"id"})
	want := `CREATE TABLE events (
  id INTEGER,
  "order" TEXT NOT NULL,
  note TEXT NULL,
  PRIMARY KEY (id)
)`
	if got != want {
		t.Errorf("buildCreateTable() = %q, want %q", got, want)
	}
}

func TestBuildCreateTableNoPrimaryKey(t *testing.T) {
	cols := []columnDef{{Name: "a"}, {Name: "b"}}
	got := buildCreateTable(pgDialect{}, "t", cols, nil)
	want := `CREATE TABLE t (
  a TEXT,
  b TEXT
)`
	if got != want {
		t.Errorf("buildCreateTable() = %q, want %q", got, want)
	}
}

func TestBuildCreateTableCompoundKey(t *testing.T) {
	cols := []columnDef{
		{Name: "epoch", DataType: "datetime"},
		{Name: "node", DataType: "varchar(8)"},
		{Name: "flux", DataType: "float"},
	}
	got := buildCreateTable(pgDialect{}, "flux", cols, []string{"epoch", "node"})
	want := `CREATE TABLE flux (
  epoch TIMESTAMP,
  node VARCHAR(8),
  flux DOUBLE PRECISION,
  PRIMARY KEY (epoch, node)
)`
	if got != want {
		t.Errorf("buildCreateTable() = %q, want %q", got, want)
	}
}

func TestBuildAddColumn(t *testing.T) {
	got := buildAddColumn(pgDialect{}, "events", columnDef{Name: "flux", DataType: "float", Nullable: boolPtr(false)})
	// Added columns never carry NOT NULL: existing rows hold no value.
	want := "ALTER TABLE events ADD COLUMN flux DOUBLE PRECISION"
	if got != want {
		t.Errorf("buildAddColumn() = %q, want %q", got, want)
	}
}

func TestBuildCreateIndex(t *testing.T) {
	idx := Index{Name: "idx_epoch", Columns: []IndexColumn{
		{Column: "epoch", Order: "DESC"},
		{Column: "node", Order: "ASC"},
	}}
	got := buildCreateIndex(pgDialect{}, "events", idx)
	want := "CREATE INDEX idx_epoch ON events (epoch DESC, node ASC)"
	if got != want {
		t.Errorf("buildCreateIndex() = %q, want %q", got, want)
	}
}

func TestBuildUpsert(t *testing.T) {
	got := buildUpsert(pgDialect{}, "events", []string{"id", "name", "flux"}, []string{"id"})
	want := "INSERT INTO events (id, name, flux) VALUES ($1, $2, $3)" +
		" ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, flux = EXCLUDED.flux"
	if got != want {
		t.Errorf("buildUpsert() = %q, want %q", got, want)
	}
}

func TestBuildUpsertAllKeyColumns(t *testing.T) {
	got := buildUpsert(pgDialect{}, "pairs", []string{"a", "b"}, []string{"a", "b"})
	want := "INSERT INTO pairs (a, b) VALUES ($1, $2) ON CONFLICT (a, b) DO NOTHING"
	if got != want {
		t.Errorf("buildUpsert() = %q, want %q", got, want)
	}
}

func TestBuildUpsertSQLitePlaceholders(t *testing.T) {
	got := buildUpsert(sqliteDialect{}, "events", []string{"id", "name"}, []string{"id"})
	want := `INSERT INTO "events" ("id", "name") VALUES (?, ?)` +
		` ON CONFLICT ("id") DO UPDATE SET "name" = EXCLUDED."name"`
	if got != want {
		t.Errorf("buildUpsert() = %q, want %q", got, want)
	}
}

func TestBuildUpsertMySQL(t *testing.T) {
	got := buildUpsertMySQL(mysqlDialect{}, "events", []string{"id", "name"}, []string{"id"})
	want := "INSERT INTO `events` (`id`, `name`) VALUES (?, ?)" +
		" ON DUPLICATE KEY UPDATE `name` = VALUES(`name`)"
	if got != want {
		t.Errorf("buildUpsertMySQL() = %q, want %q", got, want)
	}

	got = buildUpsertMySQL(mysqlDialect{}, "pairs", []string{"a", "b"}, []string{"a", "b"})
	want = "INSERT IGNORE INTO `pairs` (`a`, `b`) VALUES (?, ?)"
	if got != want {
		t.Errorf("buildUpsertMySQL(all keys) = %q, want %q", got, want)
	}
}

func TestBuildDeleteStale(t *testing.T) {
	got := buildDeleteStale(pgDialect{}, "events", "sync_date", []string{"id"}, 3, false)
	want := "DELETE FROM events WHERE sync_date = $1 AND id NOT IN ($2, $3, $4)"
	if got != want {
		t.Errorf("buildDeleteStale() = %q, want %q", got, want)
	}
}

func TestBuildDeleteStaleCompoundKey(t *testing.T) {
	got := buildDeleteStale(pgDialect{}, "events", "sync_date", []string{"epoch", "node"}, 2, false)
	want := "DELETE FROM events WHERE sync_date = $1 AND (epoch, node) NOT IN (($2, $3), ($4, $5))"
	if got != want {
		t.Errorf("buildDeleteStale() = %q, want %q", got, want)
	}
}

func TestBuildDeleteStaleCompoundKeySQLite(t *testing.T) {
	// SQLite needs the VALUES keyword for a list of row values.
	got := buildDeleteStale(sqliteDialect{}, "events", "sync_date", []string{"epoch", "node"}, 2, true)
	want := `DELETE FROM "events" WHERE "sync_date" = ? AND ("epoch", "node") NOT IN (VALUES (?, ?), (?, ?))`
	if got != want {
		t.Errorf("buildDeleteStale() = %q, want %q", got, want)
	}
}

func TestBuildCountStale(t *testing.T) {
	got := buildCountStale(pgDialect{}, "events", "sync_date", []string{"id"}, 2, false)
	want := "SELECT COUNT(*) FROM events WHERE sync_date = $1 AND id NOT IN ($2, $3)"
	if got != want {
		t.Errorf("buildCountStale() = %q, want %q", got, want)
	}
}

func TestNullSuffix(t *testing.T) {
	if got := nullSuffix(nil); got != "" {
		t.Errorf("nullSuffix(nil) = %q, want %q", got, "")
	}
	if got := nullSuffix(boolPtr(true)); got != " NULL" {
		t.Errorf("nullSuffix(true) = %q, want %q", got, " NULL")
	}
	if got := nullSuffix(boolPtr(false)); got != " NOT NULL" {
		t.Errorf("nullSuffix(false) = %q, want %q", got, " NOT NULL")
	}
}
