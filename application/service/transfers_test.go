package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/helixml/fileserve/domain/transfer"
	"github.com/helixml/fileserve/infrastructure/persistence"
	"github.com/helixml/fileserve/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransferStore struct {
	mu        sync.Mutex
	saved     []transfer.Transfer
	prunes    []int
	saveErr   error
	lastLimit int
	lastOff   int
	lastKinds []transfer.Kind
	ctxErr    error
}

func (f *fakeTransferStore) Save(ctx context.Context, t transfer.Transfer) (transfer.Transfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctxErr = ctx.Err()
	if f.saveErr != nil {
		return transfer.Transfer{}, f.saveErr
	}
	saved := transfer.Reconstruct(int64(len(f.saved)+1), t.Path(), t.Kind(), t.Status(),
		t.Start(), t.End(), t.Length(), t.BytesSent(), t.ClientAddr(), t.RequestID(),
		t.StartedAt(), t.FinishedAt())
	f.saved = append(f.saved, saved)
	return saved, nil
}

func (f *fakeTransferStore) Get(_ context.Context, id int64) (transfer.Transfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id < 1 || int(id) > len(f.saved) {
		return transfer.Transfer{}, transfer.ErrNotFound
	}
	return f.saved[id-1], nil
}

func (f *fakeTransferStore) Recent(_ context.Context, filter transfer.Filter, limit, offset int) ([]transfer.Transfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	f.lastOff = offset
	f.lastKinds = filter.Kinds()
	out := make([]transfer.Transfer, 0, limit)
	for i := len(f.saved) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.saved[i])
	}
	return out, nil
}

func (f *fakeTransferStore) Count(_ context.Context, _ transfer.Filter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.saved)), nil
}

func (f *fakeTransferStore) Prune(_ context.Context, keep int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prunes = append(f.prunes, keep)
	return 0, nil
}

func TestTransfers_Disabled(t *testing.T) {
	svc := NewTransfers(nil, 0, nil)
	assert.False(t, svc.Enabled())

	tr := transfer.New("a", transfer.KindDownload, 200, 0, 0, 1)
	got, err := svc.Record(context.Background(), tr)
	require.NoError(t, err)
	assert.Equal(t, tr, got)

	_, err = svc.Recent(context.Background(), transfer.NewFilter(), 10, 0)
	assert.True(t, errors.Is(err, ErrLedgerDisabled))

	_, err = svc.Count(context.Background(), transfer.NewFilter())
	assert.True(t, errors.Is(err, ErrLedgerDisabled))

	_, err = svc.Get(context.Background(), 1)
	assert.True(t, errors.Is(err, ErrLedgerDisabled))
}

func TestTransfers_RecordSurvivesCancelledContext(t *testing.T) {
	store := &fakeTransferStore{}
	svc := NewTransfers(store, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	saved, err := svc.Record(ctx, transfer.New("a", transfer.KindStream, 206, 0, 9, 10).Finish(4))
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.ID())
	assert.NoError(t, store.ctxErr)
}

func TestTransfers_RecordError(t *testing.T) {
	store := &fakeTransferStore{saveErr: errors.New("disk full")}
	svc := NewTransfers(store, 0, nil)

	_, err := svc.Record(context.Background(), transfer.New("a", transfer.KindStream, 206, 0, 9, 10))
	assert.ErrorContains(t, err, "disk full")
}

func TestTransfers_RecentLimits(t *testing.T) {
	store := &fakeTransferStore{}
	svc := NewTransfers(store, 0, nil)

	_, err := svc.Recent(context.Background(), transfer.NewFilter(), 0, -5)
	require.NoError(t, err)
	assert.Equal(t, DefaultTransferLimit, store.lastLimit)
	assert.Zero(t, store.lastOff)

	_, err = svc.Recent(context.Background(), transfer.NewFilter(), MaxTransferLimit+1, 0)
	require.NoError(t, err)
	assert.Equal(t, MaxTransferLimit, store.lastLimit)

	_, err = svc.Recent(context.Background(), transfer.NewFilter().WithKinds(transfer.KindMCP), 3, 6)
	require.NoError(t, err)
	assert.Equal(t, 3, store.lastLimit)
	assert.Equal(t, 6, store.lastOff)
	assert.Equal(t, []transfer.Kind{transfer.KindMCP}, store.lastKinds)
}

func TestTransfers_PrunesAfterEveryRecord(t *testing.T) {
	store := &fakeTransferStore{}
	svc := NewTransfers(store, 10, nil)

	for range 3 {
		_, err := svc.Record(context.Background(), transfer.New("a", transfer.KindDownload, 200, 0, 0, 1))
		require.NoError(t, err)
	}
	assert.Equal(t, []int{10, 10, 10}, store.prunes)
}

func TestTransfers_NoPruneWithoutRetention(t *testing.T) {
	store := &fakeTransferStore{}
	svc := NewTransfers(store, 0, nil)

	_, err := svc.Record(context.Background(), transfer.New("a", transfer.KindDownload, 200, 0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, store.prunes)
}

func TestTransfers_RetentionBoundsLedger(t *testing.T) {
	ctx := context.Background()
	svc := NewTransfers(persistence.NewTransferStore(testdb.New(t)), 2, nil)

	var last transfer.Transfer
	for i := range 5 {
		saved, err := svc.Record(ctx, transfer.New("clip.mp4", transfer.KindStream, 206, int64(i), int64(i), 1).Finish(1))
		require.NoError(t, err)
		last = saved

		count, err := svc.Count(ctx, transfer.NewFilter())
		require.NoError(t, err)
		assert.LessOrEqual(t, count, int64(2), "after %d records", i+1)
	}

	recent, err := svc.Recent(ctx, transfer.NewFilter(), 10, 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, last.ID(), recent[0].ID())
	assert.Equal(t, int64(4), recent[0].Start())
	assert.Equal(t, int64(3), recent[1].Start())
}

func TestTransfers_Get(t *testing.T) {
	store := &fakeTransferStore{}
	svc := NewTransfers(store, 0, nil)

	saved, err := svc.Record(context.Background(), transfer.New("a", transfer.KindStream, 206, 2, 5, 4))
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), saved.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Start())

	_, err = svc.Get(context.Background(), 42)
	assert.ErrorIs(t, err, transfer.ErrNotFound)
}
