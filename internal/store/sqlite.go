// Package store provides the SQLite structured storage engine.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	apperr "github.com/tknelms/carkeeper/backend/internal/errors"
	"github.com/tknelms/carkeeper/backend/internal/logging"
)

// sqlBackend is the structured engine: one table per collection holding
// the record JSON plus one column per secondary index.
type sqlBackend struct {
	db *sqlx.DB
}

// openSQL opens (or creates) the SQLite database at path, enables WAL
// mode and idempotently creates every collection table and index.
func openSQL(path string) (*sqlBackend, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrEngineUnavailable, "opening sqlite db", err)
	}

	// SQLite allows a single writer; funnel everything through one
	// connection so concurrent callers queue instead of failing with
	// SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, apperr.Wrap(apperr.ErrEngineUnavailable, "enabling WAL mode", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, apperr.Wrap(apperr.ErrEngineUnavailable, "enabling foreign keys", err)
	}

	b := &sqlBackend{db: db}
	if err := b.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

// createSchema creates all collection tables and their secondary
// indexes. Safe to run on every open: existing tables and indexes are
// left alone.
func (b *sqlBackend) createSchema() error {
	for _, spec := range collections {
		cols := []string{"id TEXT PRIMARY KEY", "data TEXT NOT NULL"}
		for _, idx := range spec.Indexes {
			cols = append(cols, idx.Column+" TEXT")
		}
		create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", spec.Table, strings.Join(cols, ", "))
		if _, err := b.db.Exec(create); err != nil {
			return apperr.Wrap(apperr.ErrEngineUnavailable,
				fmt.Sprintf("creating table for collection %q", spec.Name), err)
		}
		for _, idx := range spec.Indexes {
			stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s)",
				spec.Table, idx.Column, spec.Table, idx.Column)
			if _, err := b.db.Exec(stmt); err != nil {
				return apperr.Wrap(apperr.ErrEngineUnavailable,
					fmt.Sprintf("creating index %q on collection %q", idx.Name, spec.Name), err)
			}
		}
	}
	return nil
}

func (b *sqlBackend) GetAll(ctx context.Context, collection string) ([]json.RawMessage, error) {
	spec, err := lookupSpec(collection)
	if err != nil {
		return nil, err
	}
	return b.queryRecords(ctx, spec, "SELECT data FROM "+spec.Table)
}

func (b *sqlBackend) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	spec, err := lookupSpec(collection)
	if err != nil {
		return nil, err
	}
	var data string
	err = b.db.GetContext(ctx, &data, "SELECT data FROM "+spec.Table+" WHERE id = ?", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, b.storageError("get", spec.Name, id, err)
	}
	return json.RawMessage(data), nil
}

func (b *sqlBackend) GetByIndex(ctx context.Context, collection, index string, value any) ([]json.RawMessage, error) {
	spec, err := lookupSpec(collection)
	if err != nil {
		return nil, err
	}
	idx, err := spec.lookupIndex(index)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT data FROM %s WHERE %s = ?", spec.Table, idx.Column)
	return b.queryRecords(ctx, spec, query, indexValue(value))
}

func (b *sqlBackend) queryRecords(ctx context.Context, spec CollectionSpec, query string, args ...any) ([]json.RawMessage, error) {
	var rows []string
	if err := b.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, b.storageError("query", spec.Name, "", err)
	}
	records := make([]json.RawMessage, 0, len(rows))
	for _, data := range rows {
		records = append(records, json.RawMessage(data))
	}
	return records, nil
}

func (b *sqlBackend) Put(ctx context.Context, collection string, record json.RawMessage) (string, error) {
	spec, err := lookupSpec(collection)
	if err != nil {
		return "", err
	}
	id, fields, err := decodeRecord(spec, record)
	if err != nil {
		return "", err
	}

	cols := []string{"id", "data"}
	args := []any{id, string(record)}
	sets := []string{"data = excluded.data"}
	for _, idx := range spec.Indexes {
		cols = append(cols, idx.Column)
		// Absent or null fields store NULL so equality lookups only
		// match records that actually carry the value.
		if v, ok := fields[idx.Name]; ok && v != nil {
			args = append(args, indexValue(v))
		} else {
			args = append(args, nil)
		}
		sets = append(sets, idx.Column+" = excluded."+idx.Column)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		spec.Table,
		strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
		strings.Join(sets, ", "))
	if _, err := b.db.ExecContext(ctx, query, args...); err != nil {
		return "", b.storageError("put", spec.Name, id, err)
	}
	return id, nil
}

func (b *sqlBackend) Delete(ctx context.Context, collection, id string) error {
	spec, err := lookupSpec(collection)
	if err != nil {
		return err
	}
	if _, err := b.db.ExecContext(ctx, "DELETE FROM "+spec.Table+" WHERE id = ?", id); err != nil {
		return b.storageError("delete", spec.Name, id, err)
	}
	return nil
}

func (b *sqlBackend) Clear(ctx context.Context, collection string) error {
	spec, err := lookupSpec(collection)
	if err != nil {
		return err
	}
	if _, err := b.db.ExecContext(ctx, "DELETE FROM "+spec.Table); err != nil {
		return b.storageError("clear", spec.Name, "", err)
	}
	return nil
}

func (b *sqlBackend) Degraded() bool {
	return false
}

func (b *sqlBackend) Close() error {
	return b.db.Close()
}

// storageError logs an engine failure with enough context to diagnose
// and wraps it for the caller. Write-path errors are never swallowed.
func (b *sqlBackend) storageError(op, collection, id string, err error) error {
	ctx := map[string]any{"collection": collection, "operation": op}
	if id != "" {
		ctx["id"] = id
	}
	logging.Error("storage engine failure", err, ctx)
	return apperr.Wrap(apperr.ErrDatabase,
		fmt.Sprintf("%s on collection %q", op, collection), err)
}
