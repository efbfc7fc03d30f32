package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/storage"
)

type fakeMirror struct {
	mu       sync.Mutex
	rewrites []core.Snapshot
	err      error
}

func (m *fakeMirror) Rewrite(_ context.Context, snap core.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rewrites = append(m.rewrites, snap)
	return nil
}

func (m *fakeMirror) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rewrites)
}

func seededStore(t *testing.T) *storage.Memory {
	t.Helper()
	store := storage.NewMemory()
	snap := core.Snapshot{
		Transactions: []core.Transaction{
			{
				ID:          "t1",
				Type:        core.Expense,
				Amount:      decimal.NewFromInt(20),
				Date:        core.NewDate(2025, 2, 2),
				CategoryID:  "c1",
				AccountID:   "a1",
				Description: "bus ticket",
			},
		},
		Accounts:   []core.Account{{ID: "a1", Name: "Cash", Type: core.Cash}},
		Categories: []core.Category{{ID: "c1", Name: "Transport", Type: core.Expense}},
	}
	if err := store.Save(context.Background(), snap); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store
}

func TestHandleEventMirrorsSnapshot(t *testing.T) {
	store := seededStore(t)
	mirror := &fakeMirror{}
	w := NewMirrorWorker(store, mirror, time.Minute)

	msg := amqp.NewLedgerEventMessage("created", "t1")
	if err := w.HandleEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	if len(mirror.rewrites) != 1 {
		t.Fatalf("rewrites = %d, want 1", len(mirror.rewrites))
	}
	if len(mirror.rewrites[0].Transactions) != 1 {
		t.Errorf("mirrored transactions = %d, want 1", len(mirror.rewrites[0].Transactions))
	}
}

func TestHandleEventPropagatesMirrorError(t *testing.T) {
	store := seededStore(t)
	mirror := &fakeMirror{err: errors.New("quota exceeded")}
	w := NewMirrorWorker(store, mirror, time.Minute)

	msg := amqp.NewLedgerEventMessage("updated", "t1")
	if err := w.HandleEvent(context.Background(), msg); err == nil {
		t.Fatal("HandleEvent() should propagate mirror failures for requeue")
	}
}

func TestRunDoesInitialPassAndStopsOnCancel(t *testing.T) {
	store := seededStore(t)
	mirror := &fakeMirror{}
	w := NewMirrorWorker(store, mirror, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// The initial pass happens before the ticker loop.
	deadline := time.After(2 * time.Second)
	for mirror.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("initial mirror pass never happened")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}
