package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/helixml/fileserve/domain/transfer"
	"github.com/helixml/fileserve/infrastructure/persistence"
	"github.com/helixml/fileserve/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveN(t *testing.T, store persistence.TransferStore, n int) []transfer.Transfer {
	t.Helper()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	saved := make([]transfer.Transfer, 0, n)
	for i := range n {
		tr := transfer.Reconstruct(0, "clip.mp4", transfer.KindStream, 206,
			int64(i), int64(i+9), 10, 10, "127.0.0.1:5000", "req",
			base.Add(time.Duration(i)*time.Second), base.Add(time.Duration(i)*time.Second+time.Millisecond))
		got, err := store.Save(context.Background(), tr)
		require.NoError(t, err)
		saved = append(saved, got)
	}
	return saved
}

func TestValidateSchema(t *testing.T) {
	assert.NoError(t, persistence.ValidateSchema(testdb.New(t)))
}

func TestTransferStore_SaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewTransferStore(testdb.New(t))

	tr := transfer.New("videos/clip.mp4", transfer.KindDownload, 200, 0, 99, 100).
		WithClient("10.0.0.1:1234", "host/abc-000001").
		Finish(40)

	saved, err := store.Save(ctx, tr)
	require.NoError(t, err)
	assert.NotZero(t, saved.ID())

	recent, err := store.Recent(ctx, transfer.NewFilter(), 10, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)

	got := recent[0]
	assert.Equal(t, saved.ID(), got.ID())
	assert.Equal(t, "videos/clip.mp4", got.Path())
	assert.Equal(t, transfer.KindDownload, got.Kind())
	assert.Equal(t, 200, got.Status())
	assert.Equal(t, int64(0), got.Start())
	assert.Equal(t, int64(99), got.End())
	assert.Equal(t, int64(100), got.Length())
	assert.Equal(t, int64(40), got.BytesSent())
	assert.False(t, got.Complete())
	assert.Equal(t, "10.0.0.1:1234", got.ClientAddr())
	assert.Equal(t, "host/abc-000001", got.RequestID())
	assert.WithinDuration(t, tr.StartedAt(), got.StartedAt(), time.Second)
	assert.WithinDuration(t, tr.FinishedAt(), got.FinishedAt(), time.Second)
}

func TestTransferStore_UnfinishedHasZeroFinishTime(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewTransferStore(testdb.New(t))

	_, err := store.Save(ctx, transfer.New("a", transfer.KindStream, 206, 0, 0, 1))
	require.NoError(t, err)

	recent, err := store.Recent(ctx, transfer.NewFilter(), 1, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.True(t, recent[0].FinishedAt().IsZero())
}

func TestTransferStore_RecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewTransferStore(testdb.New(t))
	saved := saveN(t, store, 5)

	recent, err := store.Recent(ctx, transfer.NewFilter(), 2, 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, saved[4].ID(), recent[0].ID())
	assert.Equal(t, saved[3].ID(), recent[1].ID())

	page, err := store.Recent(ctx, transfer.NewFilter(), 2, 3)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, saved[1].ID(), page[0].ID())
	assert.Equal(t, saved[0].ID(), page[1].ID())

	count, err := store.Count(ctx, transfer.NewFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestTransferStore_Prune(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewTransferStore(testdb.New(t))
	saved := saveN(t, store, 5)

	removed, err := store.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	left, err := store.Recent(ctx, transfer.NewFilter(), 10, 0)
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.Equal(t, saved[4].ID(), left[0].ID())
	assert.Equal(t, saved[3].ID(), left[1].ID())

	removed, err = store.Prune(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestTransferStore_PruneAll(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewTransferStore(testdb.New(t))
	saveN(t, store, 3)

	removed, err := store.Prune(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	count, err := store.Count(ctx, transfer.NewFilter())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTransferStore_Get(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewTransferStore(testdb.New(t))
	saved := saveN(t, store, 2)

	got, err := store.Get(ctx, saved[1].ID())
	require.NoError(t, err)
	assert.Equal(t, saved[1].ID(), got.ID())
	assert.Equal(t, int64(1), got.Start())

	_, err = store.Get(ctx, 999)
	assert.ErrorIs(t, err, transfer.ErrNotFound)
}

func TestTransferStore_Filter(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewTransferStore(testdb.New(t))
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	rows := []struct {
		path string
		kind transfer.Kind
		at   time.Time
	}{
		{"clip.mp4", transfer.KindStream, base},
		{"clip.mp4", transfer.KindDownload, base.Add(time.Minute)},
		{"notes.txt", transfer.KindMCP, base.Add(2 * time.Minute)},
		{"clip.mp4", transfer.KindMCP, base.Add(3 * time.Minute)},
	}
	for _, r := range rows {
		tr := transfer.Reconstruct(0, r.path, r.kind, 200, 0, 0, 1, 1, "", "", r.at, r.at)
		_, err := store.Save(ctx, tr)
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		filter transfer.Filter
		want   int64
	}{
		{"all", transfer.NewFilter(), 4},
		{"path", transfer.NewFilter().WithPath("clip.mp4"), 3},
		{"kinds", transfer.NewFilter().WithKinds(transfer.KindStream, transfer.KindDownload), 2},
		{"since", transfer.NewFilter().WithSince(base.Add(2 * time.Minute)), 2},
		{"combined", transfer.NewFilter().WithPath("clip.mp4").WithKinds(transfer.KindMCP), 1},
		{"none", transfer.NewFilter().WithPath("missing"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, err := store.Count(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, count)

			recent, err := store.Recent(ctx, tt.filter, 10, 0)
			require.NoError(t, err)
			assert.Len(t, recent, int(tt.want))
		})
	}
}
