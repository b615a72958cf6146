package sqlx_test

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	libsqlx "github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	storage "fitcompkit/adapters/sqlx"
	"fitcompkit/core"
)

func newMockStore(t *testing.T) (*storage.Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	xdb := storage.NewWithDB(libsqlx.NewDb(db, "postgres"), storage.DriverPostgres)
	cleanup := func() {
		_ = db.Close()
	}
	return xdb, mock, cleanup
}

func TestSQLMock_UserHistory(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT day, weight, body_fat, muscle_mass, bmr FROM daily_stats`).
		WithArgs(core.UserID("u1")).
		WillReturnRows(sqlmock.NewRows([]string{"day", "weight", "body_fat", "muscle_mass", "bmr"}).
			AddRow("2025-06-01", 200.0, 25.0, 150.0, 1800.0).
			AddRow("2025-06-03", 198.0, 24.5, 151.0, 1810.0))

	h, err := store.UserHistory(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, h, 2)
	require.Equal(t, 24.5, h["2025-06-03"].BodyFat)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_PutUserHistory_ReplacesRows(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM daily_stats`).
		WithArgs(core.UserID("u1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Rows are inserted in ascending date order.
	mock.ExpectExec(`INSERT INTO daily_stats`).
		WithArgs(core.UserID("u1"), "2025-06-01", 200.0, 25.0, 150.0, 1800.0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO daily_stats`).
		WithArgs(core.UserID("u1"), "2025-06-02", 199.0, 24.8, 150.0, 1805.0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	h := core.History{
		"2025-06-02": {Weight: 199, BodyFat: 24.8, MuscleMass: 150, BMR: 1805},
		"2025-06-01": {Weight: 200, BodyFat: 25, MuscleMass: 150, BMR: 1800},
	}
	require.NoError(t, store.PutUserHistory(context.Background(), "u1", h))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_Competition_NotFound(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT name, start_date, end_date, creator FROM competitions`).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Competition(context.Background(), "nope")
	require.ErrorIs(t, err, core.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_Competition_WithParticipants(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT name, start_date, end_date, creator FROM competitions`).
		WithArgs("shred").
		WillReturnRows(sqlmock.NewRows([]string{"name", "start_date", "end_date", "creator"}).
			AddRow("shred", "2025-06-01", "2025-06-30", "alice"))
	mock.ExpectQuery(`SELECT user_id, weight, body_fat, muscle_mass, bmr, joined_at FROM competition_participants`).
		WithArgs("shred").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "weight", "body_fat", "muscle_mass", "bmr", "joined_at"}).
			AddRow("alice", 200.0, 25.0, 150.0, 1800.0, "2025-06-01").
			AddRow("bob", 180.0, 20.0, 140.0, 1700.0, "2025-06-04"))

	comp, err := store.Competition(context.Background(), "shred")
	require.NoError(t, err)
	require.Equal(t, core.Date("2025-06-01"), comp.StartDate)
	require.Len(t, comp.Participants, 2)
	require.Equal(t, core.UserID("bob"), comp.Participants[1].UserID)
	require.Equal(t, 20.0, comp.Participants[1].Baseline.BodyFat)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_PutCompetition(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM competitions`).
		WithArgs("shred").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM competition_participants`).
		WithArgs("shred").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO competitions`).
		WithArgs("shred", "2025-06-01", "2025-06-30", core.UserID("alice")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO competition_participants`).
		WithArgs("shred", 0, core.UserID("alice"), 200.0, 25.0, 150.0, 1800.0, "2025-06-01").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	comp := core.Competition{
		Name:      "shred",
		StartDate: "2025-06-01",
		EndDate:   "2025-06-30",
		Creator:   "alice",
		Participants: []core.Participant{
			{UserID: "alice", Baseline: core.Measurement{Weight: 200, BodyFat: 25, MuscleMass: 150, BMR: 1800}, JoinedAt: "2025-06-01"},
		},
	}
	require.NoError(t, store.PutCompetition(context.Background(), comp))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_CompetitionNames(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT name FROM competitions ORDER BY name`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("alpha").AddRow("beta"))

	names, err := store.CompetitionNames(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "beta"}, names)
	require.NoError(t, mock.ExpectationsWereMet())
}
