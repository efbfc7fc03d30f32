// Package storage provides the durable snapshot stores behind the ledger:
// a key-value layout keyed by collection name, each value the serialized
// array of that collection, overwritten wholesale on every save.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"saldo/internal/core"

	_ "modernc.org/sqlite"
)

type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the snapshot database at dbPath and runs
// the embedded migrations.
func NewSQLite(dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save overwrites all three collections in one transaction so a crash
// mid-save never leaves the snapshot torn across collections.
func (s *SQLite) Save(ctx context.Context, snap core.Snapshot) error {
	payloads, err := marshalSnapshot(snap)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	const upsert = `INSERT INTO snapshots (collection, payload, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(collection) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	for collection, payload := range payloads {
		if _, err := tx.ExecContext(ctx, upsert, collection, payload); err != nil {
			return fmt.Errorf("save collection %s: %w", collection, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}

	slog.DebugContext(ctx, "Snapshot saved",
		"transactions", len(snap.Transactions),
		"accounts", len(snap.Accounts),
		"categories", len(snap.Categories))
	return nil
}

// Load reads all three collections. Missing collections load as empty,
// so a fresh database yields an empty ledger.
func (s *SQLite) Load(ctx context.Context) (core.Snapshot, error) {
	var snap core.Snapshot
	read := func(collection string, out any) error {
		var payload []byte
		err := s.db.QueryRowContext(ctx,
			`SELECT payload FROM snapshots WHERE collection = ?`, collection).Scan(&payload)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load collection %s: %w", collection, err)
		}
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("decode collection %s: %w", collection, err)
		}
		return nil
	}

	if err := read(core.CollectionTransactions, &snap.Transactions); err != nil {
		return core.Snapshot{}, err
	}
	if err := read(core.CollectionAccounts, &snap.Accounts); err != nil {
		return core.Snapshot{}, err
	}
	if err := read(core.CollectionCategories, &snap.Categories); err != nil {
		return core.Snapshot{}, err
	}
	return snap, nil
}

func marshalSnapshot(snap core.Snapshot) (map[string][]byte, error) {
	out := make(map[string][]byte, 3)
	for collection, v := range map[string]any{
		core.CollectionTransactions: snap.Transactions,
		core.CollectionAccounts:     snap.Accounts,
		core.CollectionCategories:   snap.Categories,
	} {
		payload, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode collection %s: %w", collection, err)
		}
		out[collection] = payload
	}
	return out, nil
}
