package history

import (
	"context"
	"database/sql"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id, err := store.Record(ctx, Entry{Expression: "2 + 3", Result: 5, Reply: "5", Source: SourceCLI})
	require.NoError(t, err)
	assert.Positive(t, id)

	entry, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2 + 3", entry.Expression)
	assert.Equal(t, 5.0, entry.Result)
	assert.Equal(t, "5", entry.Reply)
	assert.Equal(t, SourceCLI, entry.Source)
	assert.True(t, entry.Succeeded())
	assert.WithinDuration(t, time.Now(), entry.CreatedAt, time.Minute)
}

func TestGetMissing(t *testing.T) {
	store := openTestStore(t)
	_, err := store.Get(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordFailure(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id, err := store.Record(ctx, Entry{
		Expression: "2 + 3 +",
		Reply:      "Missed operand.",
		ErrorType:  "missed_operand",
		Source:     SourceREPL,
	})
	require.NoError(t, err)

	entry, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, entry.Succeeded())
	assert.Equal(t, "missed_operand", entry.ErrorType)
	assert.Zero(t, entry.Result)
}

func TestRecordNonFiniteResults(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	nanID, err := store.Record(ctx, Entry{Expression: "0 / 0", Result: math.NaN(), Reply: "NaN", Source: SourceHTTP})
	require.NoError(t, err)
	infID, err := store.Record(ctx, Entry{Expression: "1 / 0", Result: math.Inf(1), Reply: "+Inf", Source: SourceHTTP})
	require.NoError(t, err)

	nan, err := store.Get(ctx, nanID)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(nan.Result))

	inf, err := store.Get(ctx, infID)
	require.NoError(t, err)
	assert.True(t, math.IsInf(inf.Result, 1))
}

func TestRecentNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, expr := range []string{"1", "2", "3", "4"} {
		_, err := store.Record(ctx, Entry{
			Expression: expr,
			Result:     float64(i + 1),
			Reply:      expr,
			Source:     SourceWS,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	entries, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "4", entries[0].Expression)
	assert.Equal(t, "3", entries[1].Expression)
	assert.Equal(t, "2", entries[2].Expression)

	all, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestStatsAndClear(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	records := []Entry{
		{Expression: "1 + 1", Result: 2, Reply: "2", Source: SourceCLI},
		{Expression: "2 * 2", Result: 4, Reply: "4", Source: SourceCLI},
		{Expression: "x", Reply: "Input is not a mathematical expression.", ErrorType: "not_math_expr", Source: SourceCLI},
		{Expression: "1 +", Reply: "Missed operand.", ErrorType: "missed_operand", Source: SourceCLI},
		{Expression: "+", Reply: "Missed operand.", ErrorType: "missed_operand", Source: SourceCLI},
	}
	for _, r := range records {
		_, err := store.Record(ctx, r)
		require.NoError(t, err)
	}

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 2, stats.Succeeded)
	assert.Equal(t, 3, stats.Failed)
	assert.Equal(t, map[string]int{"not_math_expr": 1, "missed_operand": 2}, stats.ByError)

	removed, err := store.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), removed)

	stats, err = store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
}

func TestReopenKeepsEntriesAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	// a database created before the reply column existed
	legacy, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = legacy.Exec(`
		CREATE TABLE evaluations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			expression TEXT NOT NULL,
			result REAL,
			error_type TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		INSERT INTO evaluations (expression, result, source) VALUES ('6 * 7', 42, 'cli');
	`)
	require.NoError(t, err)
	require.NoError(t, legacy.Close())

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, path, store.Path())

	entries, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "6 * 7", entries[0].Expression)
	assert.Equal(t, 42.0, entries[0].Result)
	assert.Equal(t, "", entries[0].Reply)
}

func TestInMemory(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Record(context.Background(), Entry{Expression: "1", Result: 1, Reply: "1", Source: SourceCLI})
	require.NoError(t, err)

	entries, err := store.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
