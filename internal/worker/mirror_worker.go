// Package worker drives the sheets mirror: it reacts to ledger events
// from AMQP and runs a periodic catch-up pass so the mirror converges
// even when events are lost.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/ledger"
)

// Mirror receives full-snapshot rewrites. Implemented by sheets.Client.
type Mirror interface {
	Rewrite(ctx context.Context, snap core.Snapshot) error
}

// MirrorWorker reads the latest snapshot from the store and pushes it to
// the mirror. Every event triggers a full rewrite; the snapshot is the
// source of truth, the event only says "something changed".
type MirrorWorker struct {
	store    ledger.SnapshotStore
	mirror   Mirror
	interval time.Duration
}

func NewMirrorWorker(store ledger.SnapshotStore, mirror Mirror, interval time.Duration) *MirrorWorker {
	return &MirrorWorker{
		store:    store,
		mirror:   mirror,
		interval: interval,
	}
}

// HandleEvent processes a single ledger event from AMQP.
func (w *MirrorWorker) HandleEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"op", msg.Op,
		"transaction_id", msg.TransactionID)

	if err := w.mirrorOnce(ctx); err != nil {
		return fmt.Errorf("mirror after event: %w", err)
	}
	return nil
}

// Run performs an initial catch-up pass and then re-mirrors on every
// tick until the context is cancelled. Event-driven rewrites happen
// through HandleEvent independently of this loop.
func (w *MirrorWorker) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Mirror worker starting", "interval", w.interval)

	if err := w.mirrorOnce(ctx); err != nil {
		slog.ErrorContext(ctx, "Initial mirror pass failed", "error", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Mirror worker stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := w.mirrorOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "Catch-up mirror pass failed", "error", err)
			}
		}
	}
}

func (w *MirrorWorker) mirrorOnce(ctx context.Context) error {
	snap, err := w.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	if err := w.mirror.Rewrite(ctx, snap); err != nil {
		return fmt.Errorf("rewrite mirror: %w", err)
	}

	slog.InfoContext(ctx, "Mirror pass completed",
		"transactions", len(snap.Transactions),
		"accounts", len(snap.Accounts),
		"categories", len(snap.Categories))

	return nil
}
