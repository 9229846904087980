package store_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/energyd/internal/aggregate"
	"codeberg.org/mutker/energyd/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) (store.Repository, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "energy.db")
	repo, err := store.NewRepository(store.Config{DBPath: dbPath})
	require.NoError(t, err)

	return repo, dbPath
}

func queryRows(t *testing.T, dbPath string) map[int64][2]int64 {
	t.Helper()

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query("SELECT epoch, dt_ms, pulse_count FROM energy ORDER BY epoch")
	require.NoError(t, err)
	defer rows.Close()

	got := make(map[int64][2]int64)
	for rows.Next() {
		var epoch, dtMs, count int64
		require.NoError(t, rows.Scan(&epoch, &dtMs, &count))
		got[epoch] = [2]int64{dtMs, count}
	}
	require.NoError(t, rows.Err())

	return got
}

func TestStoreBatch(t *testing.T) {
	repo, dbPath := newTestRepository(t)

	err := repo.Store(context.Background(), []aggregate.Record{
		{Epoch: 100, ElapsedMillis: 140, PulseCount: 2},
		{Epoch: 107, ElapsedMillis: 90, PulseCount: 1},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	got := queryRows(t, dbPath)
	assert.Len(t, got, 2)
	assert.Equal(t, [2]int64{140, 2}, got[100])
	assert.Equal(t, [2]int64{90, 1}, got[107])
}

func TestStoreUpsertReplacesByEpoch(t *testing.T) {
	repo, dbPath := newTestRepository(t)

	err := repo.Store(context.Background(), []aggregate.Record{
		{Epoch: 100, ElapsedMillis: 50, PulseCount: 1},
	})
	require.NoError(t, err)

	// Same epoch, different payload: exactly one stored row remains,
	// matching the later write.
	err = repo.Store(context.Background(), []aggregate.Record{
		{Epoch: 100, ElapsedMillis: 140, PulseCount: 2},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	got := queryRows(t, dbPath)
	require.Len(t, got, 1)
	assert.Equal(t, [2]int64{140, 2}, got[100])
}

func TestStoreBatchIsAtomic(t *testing.T) {
	repo, dbPath := newTestRepository(t)

	// Reject one specific epoch at the engine level so the batch fails
	// after its first row already executed.
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TRIGGER energy_reject BEFORE INSERT ON energy
		WHEN NEW.epoch = 666 BEGIN SELECT RAISE(ABORT, 'rejected'); END`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	err = repo.Store(context.Background(), []aggregate.Record{
		{Epoch: 100, ElapsedMillis: 140, PulseCount: 2},
		{Epoch: 666, ElapsedMillis: 90, PulseCount: 1},
		{Epoch: 700, ElapsedMillis: 60, PulseCount: 1},
	})
	require.Error(t, err, "A rejected row fails the whole batch")
	require.NoError(t, repo.Close())

	assert.Empty(t, queryRows(t, dbPath), "A failed batch must leave no partial rows")
}

func TestStoreEmptyBatchIsNoop(t *testing.T) {
	repo, dbPath := newTestRepository(t)

	require.NoError(t, repo.Store(context.Background(), nil))
	require.NoError(t, repo.Close())

	assert.Empty(t, queryRows(t, dbPath))
}

func TestReopenPreservesData(t *testing.T) {
	repo, dbPath := newTestRepository(t)

	err := repo.Store(context.Background(), []aggregate.Record{
		{Epoch: 100, ElapsedMillis: 140, PulseCount: 2},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	// A matching schema version must not wipe existing records.
	repo, err = store.NewRepository(store.Config{DBPath: dbPath})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	got := queryRows(t, dbPath)
	require.Len(t, got, 1)
	assert.Equal(t, [2]int64{140, 2}, got[100])
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, store.Config{}.Validate())
	assert.NoError(t, store.Config{DBPath: "/tmp/energy.db"}.Validate())
	assert.Equal(t, "/var/lib/energyd/energy.db", store.DefaultConfig().DBPath)
}
