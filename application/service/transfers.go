package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/helixml/fileserve/domain/transfer"
)

// Ledger listing bounds.
const (
	DefaultTransferLimit = 50
	MaxTransferLimit     = 1000
)

// Transfers records served transfers and lists them back.
// A Transfers with a nil store is disabled: recording is a no-op and
// listing returns ErrLedgerDisabled.
type Transfers struct {
	store     transfer.Store
	retention int
	logger    *slog.Logger
}

// NewTransfers creates a new Transfers service. retention bounds how many
// transfers are kept; zero keeps everything.
func NewTransfers(store transfer.Store, retention int, logger *slog.Logger) *Transfers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transfers{
		store:     store,
		retention: retention,
		logger:    logger,
	}
}

// Enabled reports whether transfers are persisted.
func (s *Transfers) Enabled() bool {
	return s != nil && s.store != nil
}

// Record persists t and then prunes the ledger down to the retention
// bound. It runs detached from ctx cancellation so transfers interrupted
// by a client disconnect are still recorded.
func (s *Transfers) Record(ctx context.Context, t transfer.Transfer) (transfer.Transfer, error) {
	if !s.Enabled() {
		return t, nil
	}
	ctx = context.WithoutCancel(ctx)

	saved, err := s.store.Save(ctx, t)
	if err != nil {
		return t, fmt.Errorf("record transfer: %w", err)
	}

	if s.retention > 0 {
		removed, err := s.store.Prune(ctx, s.retention)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to prune transfer ledger", slog.Any("error", err))
		} else if removed > 0 {
			s.logger.DebugContext(ctx, "pruned transfer ledger", slog.Int64("removed", removed))
		}
	}
	return saved, nil
}

// Get returns the transfer with id.
func (s *Transfers) Get(ctx context.Context, id int64) (transfer.Transfer, error) {
	if !s.Enabled() {
		return transfer.Transfer{}, ErrLedgerDisabled
	}
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return transfer.Transfer{}, fmt.Errorf("get transfer: %w", err)
	}
	return t, nil
}

// Recent returns up to limit transfers matching filter, newest first, after
// skipping offset of them. Non-positive limits use DefaultTransferLimit;
// limits above MaxTransferLimit are capped.
func (s *Transfers) Recent(ctx context.Context, filter transfer.Filter, limit, offset int) ([]transfer.Transfer, error) {
	if !s.Enabled() {
		return nil, ErrLedgerDisabled
	}
	if limit <= 0 {
		limit = DefaultTransferLimit
	}
	limit = min(limit, MaxTransferLimit)
	offset = max(offset, 0)

	transfers, err := s.store.Recent(ctx, filter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	return transfers, nil
}

// Count returns the number of recorded transfers matching filter.
func (s *Transfers) Count(ctx context.Context, filter transfer.Filter) (int64, error) {
	if !s.Enabled() {
		return 0, ErrLedgerDisabled
	}
	n, err := s.store.Count(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count transfers: %w", err)
	}
	return n, nil
}
