package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	database, err := Open(context.Background(), Config{File: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	qry := New(openTestDB(t))

	_, err := qry.GetSnapshot(ctx, "23951A0501")
	require.ErrorIs(t, err, sql.ErrNoRows)

	err = qry.UpsertSnapshot(ctx, UpsertSnapshotParams{
		Username:      "23951A0501",
		AcademicJson:  `[{"sno":"1"}]`,
		BiometricJson: `{"totalDays":1}`,
		FetchedAt:     100,
	})
	require.NoError(t, err)

	err = qry.UpsertSnapshot(ctx, UpsertSnapshotParams{
		Username:      "23951A0501",
		AcademicJson:  `[{"sno":"2"}]`,
		BiometricJson: `{"totalDays":2}`,
		FetchedAt:     200,
	})
	require.NoError(t, err)

	snapshot, err := qry.GetSnapshot(ctx, "23951A0501")
	require.NoError(t, err)
	require.Equal(t, Snapshot{
		Username:      "23951A0501",
		AcademicJson:  `[{"sno":"2"}]`,
		BiometricJson: `{"totalDays":2}`,
		FetchedAt:     200,
	}, snapshot)
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	qry := New(openTestDB(t))

	accounts, err := qry.GetAllAccounts(ctx)
	require.NoError(t, err)
	require.Empty(t, accounts)

	require.NoError(t, qry.UpsertAccount(ctx, UpsertAccountParams{Username: "b", Password: "1"}))
	require.NoError(t, qry.UpsertAccount(ctx, UpsertAccountParams{Username: "a", Password: "2"}))
	require.NoError(t, qry.UpsertAccount(ctx, UpsertAccountParams{Username: "b", Password: "3"}))

	accounts, err = qry.GetAllAccounts(ctx)
	require.NoError(t, err)
	require.Equal(t, []Account{
		{Username: "a", Password: "2"},
		{Username: "b", Password: "3"},
	}, accounts)

	require.NoError(t, qry.DeleteAccount(ctx, "a"))
	_, err = qry.GetAccount(ctx, "a")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestVisits(t *testing.T) {
	ctx := context.Background()
	qry := New(openTestDB(t))

	for _, at := range []int64{10, 20, 30, 40} {
		require.NoError(t, qry.AddVisit(ctx, AddVisitParams{Username: "u", VisitedAt: at}))
	}

	count, err := qry.CountVisitsSince(ctx, 20)
	require.NoError(t, err)
	require.Equal(t, int64(3), count)

	count, err = qry.CountVisitsSince(ctx, 41)
	require.NoError(t, err)
	require.Equal(t, int64(0), count)
}

func TestMakeTx(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	makeTx := NewMakeTx(database)

	tx, discard, commit, err := makeTx()
	require.NoError(t, err)
	require.NoError(t, tx.AddVisit(ctx, AddVisitParams{Username: "u", VisitedAt: 1}))
	require.NoError(t, discard())

	count, err := New(database).CountVisitsSince(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, int64(0), count)

	tx, discard, commit, err = makeTx()
	require.NoError(t, err)
	defer discard()
	require.NoError(t, tx.AddVisit(ctx, AddVisitParams{Username: "u", VisitedAt: 1}))
	require.NoError(t, commit())

	count, err = New(database).CountVisitsSince(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "attendtrack.db")

	database, err := Open(context.Background(), Config{File: path})
	require.NoError(t, err)
	require.NoError(t, New(database).AddVisit(context.Background(), AddVisitParams{Username: "u", VisitedAt: 1}))
	require.NoError(t, database.Close())

	// reopening keeps the data and does not fail on the existing schema
	database, err = Open(context.Background(), Config{File: path})
	require.NoError(t, err)
	defer database.Close()
	count, err := New(database).CountVisitsSince(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	_, err = Open(context.Background(), Config{})
	require.Error(t, err)
}
