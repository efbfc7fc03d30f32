package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"saldo/internal/core"
)

// Postgres persists snapshots to a shared PostgreSQL instance using the
// same collection/payload layout as the SQLite store.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the given URL and ensures the snapshot table
// exists.
func NewPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS snapshots (
		collection TEXT PRIMARY KEY,
		payload    JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure snapshot table: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) Save(ctx context.Context, snap core.Snapshot) error {
	payloads, err := marshalSnapshot(snap)
	if err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback(ctx)

	const upsert = `INSERT INTO snapshots (collection, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (collection) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
	for collection, payload := range payloads {
		if _, err := tx.Exec(ctx, upsert, collection, payload); err != nil {
			return fmt.Errorf("save collection %s: %w", collection, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}

	slog.DebugContext(ctx, "Snapshot saved to postgres",
		"transactions", len(snap.Transactions),
		"accounts", len(snap.Accounts),
		"categories", len(snap.Categories))
	return nil
}

func (p *Postgres) Load(ctx context.Context) (core.Snapshot, error) {
	var snap core.Snapshot
	read := func(collection string, out any) error {
		var payload []byte
		err := p.pool.QueryRow(ctx,
			`SELECT payload FROM snapshots WHERE collection = $1`, collection).Scan(&payload)
		if errors.Is(err, pgx.ErrNoRows) {
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
