package storage

import (
	"context"
	"sync"

	"saldo/internal/core"
)

// Memory is an in-process snapshot store. It backs the default dev
// configuration and the test suites.
type Memory struct {
	mu    sync.RWMutex
	snap  core.Snapshot
	saves int
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Save(_ context.Context, snap core.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = copySnapshot(snap)
	m.saves++
	return nil
}

func (m *Memory) Load(_ context.Context) (core.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySnapshot(m.snap), nil
}

// Saves reports how many times Save has been called. Test helper.
func (m *Memory) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

func (m *Memory) Close() error { return nil }

func copySnapshot(snap core.Snapshot) core.Snapshot {
	out := core.Snapshot{
		Transactions: make([]core.Transaction, len(snap.Transactions)),
		Accounts:     make([]core.Account, len(snap.Accounts)),
		Categories:   make([]core.Category, len(snap.Categories)),
	}
	copy(out.Transactions, snap.Transactions)
	copy(out.Accounts, snap.Accounts)
	copy(out.Categories, snap.Categories)
	return out
}
