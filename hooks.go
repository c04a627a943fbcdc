package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// runPostSyncScripts reads each post_sync SQL file, expands {{table}}, and
// executes every statement against the backend. Script paths are resolved
// relative to the config file.
func runPostSyncScripts(ctx context.Context, backend DatabaseBackend, cfg *Config, job *SyncJob, log *slog.Logger) error {
	if len(job.PostSync) == 0 {
		return nil
	}
	log.Info("running post_sync scripts", "job", job.Name, "scripts", len(job.PostSync))

	for _, f := range job.PostSync {
		path := cfg.resolvePath(f)
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("post_sync: read %s: %w", f, err)
		}

		script := strings.ReplaceAll(string(data), "{{table}}", job.TargetTable)
		stmts := splitStatements(script)

		log.Debug("executing script", "script", f, "statements", len(stmts))
		for i, stmt := range stmts {
			if err := backend.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("post_sync: %s: statement %d: %w", f, i+1, err)
			}
		}
	}
	return nil
}

// splitStatements splits SQL text on semicolons, ignoring empty entries
// and content inside single-quoted strings.
func splitStatements(sql string) []string {
	var stmts []string
	var current strings.Builder
	inQuote := false

	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case c == '\'' && !inQuote:
			inQuote = true
			current.WriteByte(c)
		case c == '\'' && inQuote:
			// Handle escaped quotes ('')
			if i+1 < len(sql) && sql[i+1] == '\'' {
				current.WriteByte(c)
				current.WriteByte(c)
				i++
			} else {
				inQuote = false
				current.WriteByte(c)
			}
		case c == ';' && !inQuote:
			s := strings.TrimSpace(current.String())
			if s != "" {
				stmts = append(stmts, s)
			}
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}

	// Trailing statement without semicolon
	if s := strings.TrimSpace(current.String()); s != "" {
		stmts = append(stmts, s)
	}

	return stmts
}
