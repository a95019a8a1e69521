package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/helixml/fileserve/domain/transfer"
	"github.com/helixml/fileserve/internal/database"
)

// TransferModel is the ledger row for one served transfer.
type TransferModel struct {
	ID         int64      `gorm:"column:id;primaryKey;autoIncrement"`
	Path       string     `gorm:"column:path;index"`
	Kind       string     `gorm:"column:kind;size:16"`
	Status     int        `gorm:"column:status"`
	Start      int64      `gorm:"column:range_start"`
	End        int64      `gorm:"column:range_end"`
	Length     int64      `gorm:"column:length"`
	BytesSent  int64      `gorm:"column:bytes_sent"`
	ClientAddr string     `gorm:"column:client_addr"`
	RequestID  string     `gorm:"column:request_id"`
	StartedAt  time.Time  `gorm:"column:started_at;index"`
	FinishedAt *time.Time `gorm:"column:finished_at"`
}

// TableName returns the table name.
func (TransferModel) TableName() string { return "transfers" }

// TransferMapper maps between transfer.Transfer and TransferModel.
type TransferMapper struct{}

// ToDomain converts a TransferModel to a domain Transfer.
func (TransferMapper) ToDomain(m TransferModel) transfer.Transfer {
	var finished time.Time
	if m.FinishedAt != nil {
		finished = *m.FinishedAt
	}
	return transfer.Reconstruct(
		m.ID,
		m.Path,
		transfer.Kind(m.Kind),
		m.Status,
		m.Start, m.End, m.Length, m.BytesSent,
		m.ClientAddr, m.RequestID,
		m.StartedAt, finished,
	)
}

// ToModel converts a domain Transfer to a TransferModel.
func (TransferMapper) ToModel(t transfer.Transfer) TransferModel {
	var finished *time.Time
	if !t.FinishedAt().IsZero() {
		f := t.FinishedAt()
		finished = &f
	}
	return TransferModel{
		ID:         t.ID(),
		Path:       t.Path(),
		Kind:       string(t.Kind()),
		Status:     t.Status(),
		Start:      t.Start(),
		End:        t.End(),
		Length:     t.Length(),
		BytesSent:  t.BytesSent(),
		ClientAddr: t.ClientAddr(),
		RequestID:  t.RequestID(),
		StartedAt:  t.StartedAt().UTC(),
		FinishedAt: finished,
	}
}

// TransferStore implements transfer.Store using GORM.
type TransferStore struct {
	database.Repository[transfer.Transfer, TransferModel]
}

// NewTransferStore creates a new TransferStore.
func NewTransferStore(db database.Database) TransferStore {
	return TransferStore{
		Repository: database.NewRepository[transfer.Transfer, TransferModel](db, TransferMapper{}, "transfer"),
	}
}

// Save inserts a transfer and returns it with its assigned ID.
func (s TransferStore) Save(ctx context.Context, t transfer.Transfer) (transfer.Transfer, error) {
	return s.Create(ctx, t)
}

// Get returns the transfer with id.
func (s TransferStore) Get(ctx context.Context, id int64) (transfer.Transfer, error) {
	t, err := s.FindOne(ctx, database.NewQuery().Equal("id", id))
	if errors.Is(err, database.ErrNotFound) {
		return transfer.Transfer{}, fmt.Errorf("%w: %d", transfer.ErrNotFound, id)
	}
	return t, err
}

// Recent returns the most recent matching transfers, newest first.
func (s TransferStore) Recent(ctx context.Context, filter transfer.Filter, limit, offset int) ([]transfer.Transfer, error) {
	q := filterQuery(filter).OrderDesc("started_at").OrderDesc("id").Limit(limit).Offset(offset)
	return s.Find(ctx, q)
}

// Count returns the number of matching transfers.
func (s TransferStore) Count(ctx context.Context, filter transfer.Filter) (int64, error) {
	return s.Repository.Count(ctx, filterQuery(filter))
}

// Prune deletes all but the keep most recent transfers and returns the
// number of rows removed. IDs only grow, so rows inserted while pruning
// are newer than the cutoff and survive.
func (s TransferStore) Prune(ctx context.Context, keep int) (int64, error) {
	q := database.NewQuery().OrderDesc("id").Limit(1)
	if keep > 0 {
		q = q.Offset(keep - 1)
	}
	edge, err := s.Find(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("find prune cutoff: %w", err)
	}
	if len(edge) == 0 {
		return 0, nil
	}

	cutoff := edge[0].ID()
	if keep <= 0 {
		cutoff++
	}
	removed, err := s.DeleteBy(ctx, database.NewQuery().LessThan("id", cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune transfers: %w", err)
	}
	return removed, nil
}

func filterQuery(f transfer.Filter) database.Query {
	q := database.NewQuery()
	if f.Path() != "" {
		q = q.Equal("path", f.Path())
	}
	if kinds := f.Kinds(); len(kinds) > 0 {
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = string(k)
		}
		q = q.In("kind", names)
	}
	if !f.Since().IsZero() {
		// Start times are stored in UTC; SQLite compares them as text.
		q = q.GreaterThanOrEqual("started_at", f.Since().UTC())
	}
	return q
}
