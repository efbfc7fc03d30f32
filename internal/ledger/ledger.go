// Package ledger implements the ledger consistency engine: the in-memory
// collections of transactions, accounts and categories, the mutation
// operations that keep account balances consistent with the transaction
// log, and the pure aggregations derived from the current snapshot.
//
// All mutations run under a single writer lock, so every operation sees
// the latest state and publishes a complete new state before the next one
// is considered. Durable persistence is a fire-and-forget side effect:
// the in-memory state is updated synchronously and a background persister
// writes the latest snapshot through the snapshot store.
package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"saldo/internal/core"
)

// SnapshotStore is the durable key-value store the ledger persists to.
// Implementations live in internal/storage.
type SnapshotStore interface {
	Save(ctx context.Context, snap core.Snapshot) error
	Load(ctx context.Context) (core.Snapshot, error)
}

// EventPublisher receives a notification after every successful
// transaction mutation. Publish failures are logged, never propagated:
// the ledger is already committed when events go out.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, op string, id string) error
}

// Event operation names.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

const persistTimeout = 10 * time.Second

type Ledger struct {
	mu           sync.RWMutex
	transactions map[string]core.Transaction
	accounts     map[string]core.Account
	categories   map[string]core.Category

	store  SnapshotStore
	events EventPublisher

	// Latest snapshot awaiting persistence. The persister always writes
	// the newest pending snapshot; intermediate ones may be skipped.
	pendingMu sync.Mutex
	pending   *core.Snapshot

	notify    chan struct{}
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates an empty ledger backed by the given snapshot store.
// events may be nil. The background persister starts immediately.
func New(store SnapshotStore, events EventPublisher) *Ledger {
	l := &Ledger{
		transactions: make(map[string]core.Transaction),
		accounts:     make(map[string]core.Account),
		categories:   make(map[string]core.Category),
		store:        store,
		events:       events,
		notify:       make(chan struct{}, 1),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	go l.persistLoop()
	return l
}

// Load rehydrates the ledger from the snapshot store. Called once at
// startup, before the ledger is handed to any caller.
func (l *Ledger) Load(ctx context.Context) error {
	snap, err := l.store.Load(ctx)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.transactions = make(map[string]core.Transaction, len(snap.Transactions))
	for _, t := range snap.Transactions {
		l.transactions[t.ID] = t
	}
	l.accounts = make(map[string]core.Account, len(snap.Accounts))
	for _, a := range snap.Accounts {
		l.accounts[a.ID] = a
	}
	l.categories = make(map[string]core.Category, len(snap.Categories))
	for _, c := range snap.Categories {
		l.categories[c.ID] = c
	}

	slog.InfoContext(ctx, "Ledger rehydrated",
		"transactions", len(l.transactions),
		"accounts", len(l.accounts),
		"categories", len(l.categories))
	return nil
}

// Close stops the persister and flushes the last snapshot synchronously.
func (l *Ledger) Close() error {
	l.closeOnce.Do(func() {
		close(l.stop)
		<-l.done
	})
	return l.Flush(context.Background())
}

// Flush writes the current snapshot through the store, bypassing the
// asynchronous persister. Used on shutdown and by tests.
func (l *Ledger) Flush(ctx context.Context) error {
	l.mu.RLock()
	snap := l.snapshotLocked()
	l.mu.RUnlock()
	return l.store.Save(ctx, snap)
}

// Empty reports whether the ledger holds no entities at all.
func (l *Ledger) Empty() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.transactions) == 0 && len(l.accounts) == 0 && len(l.categories) == 0
}

// snapshotLocked copies the collections into a Snapshot. Callers hold l.mu.
func (l *Ledger) snapshotLocked() core.Snapshot {
	snap := core.Snapshot{
		Transactions: make([]core.Transaction, 0, len(l.transactions)),
		Accounts:     make([]core.Account, 0, len(l.accounts)),
		Categories:   make([]core.Category, 0, len(l.categories)),
	}
	for _, t := range l.transactions {
		snap.Transactions = append(snap.Transactions, t)
	}
	for _, a := range l.accounts {
		snap.Accounts = append(snap.Accounts, a)
	}
	for _, c := range l.categories {
		snap.Categories = append(snap.Categories, c)
	}
	return snap
}

// commitLocked records the post-mutation snapshot for asynchronous
// persistence. Callers hold l.mu; in-memory state is already final.
func (l *Ledger) commitLocked() {
	snap := l.snapshotLocked()

	l.pendingMu.Lock()
	l.pending = &snap
	l.pendingMu.Unlock()

	select {
	case l.notify <- struct{}{}:
	default:
	}
}

func (l *Ledger) persistLoop() {
	defer close(l.done)
	for {
		select {
		case <-l.stop:
			return
		case <-l.notify:
			l.persistPending()
		}
	}
}

func (l *Ledger) persistPending() {
	l.pendingMu.Lock()
	snap := l.pending
	l.pending = nil
	l.pendingMu.Unlock()
	if snap == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := l.store.Save(ctx, *snap); err != nil {
		// The in-memory ledger stays authoritative; the next mutation
		// retries with a newer snapshot.
		slog.Error("Snapshot persistence failed", "error", err,
			"transactions", len(snap.Transactions),
			"accounts", len(snap.Accounts),
			"categories", len(snap.Categories))
	}
}

func (l *Ledger) publish(ctx context.Context, op, id string) {
	if l.events == nil {
		return
	}
	if err := l.events.PublishLedgerEvent(ctx, op, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"error", err, "op", op, "transaction_id", id)
	}
}
