package storage_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/tripmate/internal/storage"
	"github.com/neexbeast/tripmate/internal/trip"
)

var columns = []string{"id", "share_id", "session_id", "from_location", "to_location", "duration", "data", "created_at"}

const tripID = "3f2a9c1e-8b7d-4e6f-a5c4-1d2e3f4a5b6c"

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func samplePlan() trip.Plan {
	return trip.Plan{
		From:     "Auckland",
		To:       "Queenstown",
		Duration: "5 days",
		Hotels:   []trip.Hotel{{Name: "The Rees"}},
	}
}

func planJSON(t *testing.T, p trip.Plan) []byte {
	t.Helper()
	b, err := json.Marshal(p)
	require.NoError(t, err)
	return b
}

// fixedIDs returns an id source yielding ids in order.
func fixedIDs(ids ...string) func() uuid.UUID {
	i := 0
	return func() uuid.UUID {
		id := uuid.MustParse(ids[i])
		i++
		return id
	}
}

// ---- SaveTrip ----

func TestSaveTrip_Success(t *testing.T) {
	mock := newMock(t)
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO saved_trips").
		WithArgs(tripID, "3f2a9c1e", "sess-1", "Auckland", "Queenstown", "5 days", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))

	repo := storage.NewRepositoryWithIDs(mock, fixedIDs(tripID))
	st, err := repo.SaveTrip(context.Background(), "sess-1", samplePlan())

	require.NoError(t, err)
	assert.Equal(t, tripID, st.ID)
	assert.Equal(t, "3f2a9c1e", st.ShareID)
	assert.Equal(t, "/shared/3f2a9c1e", st.ShareURL())
	assert.Equal(t, now, st.CreatedAt)
	assert.Equal(t, samplePlan(), st.Plan)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveTrip_RetriesShareIDCollision(t *testing.T) {
	mock := newMock(t)
	const second = "a1b2c3d4-0000-4000-8000-000000000001"

	mock.ExpectQuery("INSERT INTO saved_trips").
		WithArgs(tripID, "3f2a9c1e", "", "Auckland", "Queenstown", "5 days", pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectQuery("INSERT INTO saved_trips").
		WithArgs(second, "a1b2c3d4", "", "Auckland", "Queenstown", "5 days", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	repo := storage.NewRepositoryWithIDs(mock, fixedIDs(tripID, second))
	st, err := repo.SaveTrip(context.Background(), "", samplePlan())

	require.NoError(t, err)
	assert.Equal(t, "a1b2c3d4", st.ShareID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveTrip_DBError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("INSERT INTO saved_trips").WillReturnError(fmt.Errorf("connection reset"))

	repo := storage.NewRepositoryWithQuerier(mock)
	_, err := repo.SaveTrip(context.Background(), "sess-1", samplePlan())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "inserting saved trip")
}

// ---- GetTrip ----

func TestGetTrip_Found(t *testing.T) {
	mock := newMock(t)
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT (.+) FROM saved_trips WHERE id = \$1`).
		WithArgs(tripID).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(tripID, "3f2a9c1e", "sess-1", "Auckland", "Queenstown", "5 days", planJSON(t, samplePlan()), now))

	repo := storage.NewRepositoryWithQuerier(mock)
	st, err := repo.GetTrip(context.Background(), tripID)

	require.NoError(t, err)
	assert.Equal(t, "Queenstown", st.To)
	assert.Equal(t, "sess-1", st.SessionID)
	assert.Equal(t, trip.Text("The Rees"), st.Plan.Hotels[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTrip_NotFound(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT (.+) FROM saved_trips WHERE id = \$1`).
		WithArgs(tripID).
		WillReturnRows(pgxmock.NewRows(columns))

	repo := storage.NewRepositoryWithQuerier(mock)
	_, err := repo.GetTrip(context.Background(), tripID)

	assert.ErrorIs(t, err, storage.ErrTripNotFound)
}

func TestGetTrip_MalformedIDIsNotFound(t *testing.T) {
	mock := newMock(t)

	repo := storage.NewRepositoryWithQuerier(mock)
	_, err := repo.GetTrip(context.Background(), "not-a-uuid")

	assert.ErrorIs(t, err, storage.ErrTripNotFound)
	require.NoError(t, mock.ExpectationsWereMet(), "no query should be issued")
}

func TestGetTrip_BadJSON(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT (.+) FROM saved_trips WHERE id = \$1`).
		WithArgs(tripID).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(tripID, "3f2a9c1e", "", "", "", "", []byte("not-json"), time.Now()))

	repo := storage.NewRepositoryWithQuerier(mock)
	_, err := repo.GetTrip(context.Background(), tripID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshaling")
}

// ---- GetTripByShareID ----

func TestGetTripByShareID_Found(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT (.+) FROM saved_trips WHERE share_id = \$1`).
		WithArgs("3f2a9c1e").
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(tripID, "3f2a9c1e", "", "Auckland", "Queenstown", "5 days", planJSON(t, samplePlan()), time.Now()))

	repo := storage.NewRepositoryWithQuerier(mock)
	st, err := repo.GetTripByShareID(context.Background(), "3f2a9c1e")

	require.NoError(t, err)
	assert.Equal(t, tripID, st.ID)
}

func TestGetTripByShareID_DBError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT (.+) FROM saved_trips WHERE share_id = \$1`).
		WithArgs("3f2a9c1e").
		WillReturnError(fmt.Errorf("timeout"))

	repo := storage.NewRepositoryWithQuerier(mock)
	_, err := repo.GetTripByShareID(context.Background(), "3f2a9c1e")

	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrTripNotFound)
	assert.Contains(t, err.Error(), "querying shared trip")
}

// ---- ListTrips / ListTripsBySession ----

func TestListTrips_NewestFirstWithLimit(t *testing.T) {
	mock := newMock(t)
	const other = "a1b2c3d4-0000-4000-8000-000000000001"
	newer := time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-24 * time.Hour)

	mock.ExpectQuery(`SELECT (.+) FROM saved_trips ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(other, "a1b2c3d4", "", "Wellington", "Napier", "2 days", planJSON(t, trip.Plan{To: "Napier"}), newer).
			AddRow(tripID, "3f2a9c1e", "", "Auckland", "Queenstown", "5 days", planJSON(t, samplePlan()), older))

	repo := storage.NewRepositoryWithQuerier(mock)
	trips, err := repo.ListTrips(context.Background(), 10)

	require.NoError(t, err)
	require.Len(t, trips, 2)
	assert.Equal(t, "Napier", trips[0].To)
	assert.Equal(t, "Queenstown", trips[1].To)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListTrips_Empty(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT (.+) FROM saved_trips`).
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows(columns))

	repo := storage.NewRepositoryWithQuerier(mock)
	trips, err := repo.ListTrips(context.Background(), 10)

	require.NoError(t, err)
	assert.NotNil(t, trips)
	assert.Empty(t, trips)
}

func TestListTrips_QueryError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT (.+) FROM saved_trips`).WillReturnError(fmt.Errorf("query failed"))

	repo := storage.NewRepositoryWithQuerier(mock)
	_, err := repo.ListTrips(context.Background(), 10)

	require.Error(t, err)
}

func TestListTripsBySession(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT (.+) FROM saved_trips WHERE session_id = \$1`).
		WithArgs("sess-1").
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(tripID, "3f2a9c1e", "sess-1", "Auckland", "Queenstown", "5 days", planJSON(t, samplePlan()), time.Now()))

	repo := storage.NewRepositoryWithQuerier(mock)
	trips, err := repo.ListTripsBySession(context.Background(), "sess-1")

	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, "sess-1", trips[0].SessionID)
}

func TestListTripsBySession_BadRowJSON(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT (.+) FROM saved_trips WHERE session_id = \$1`).
		WithArgs("sess-1").
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(tripID, "3f2a9c1e", "sess-1", "", "", "", []byte("{"), time.Now()))

	repo := storage.NewRepositoryWithQuerier(mock)
	_, err := repo.ListTripsBySession(context.Background(), "sess-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "scanning saved trip row")
}

// ---- DeleteTrip ----

func TestDeleteTrip_Success(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`DELETE FROM saved_trips WHERE id = \$1`).
		WithArgs(tripID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	repo := storage.NewRepositoryWithQuerier(mock)
	require.NoError(t, repo.DeleteTrip(context.Background(), tripID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTrip_NotFound(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`DELETE FROM saved_trips`).
		WithArgs(tripID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := storage.NewRepositoryWithQuerier(mock)
	err := repo.DeleteTrip(context.Background(), tripID)

	assert.ErrorIs(t, err, storage.ErrTripNotFound)
}

func TestDeleteTrip_DBError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`DELETE FROM saved_trips`).
		WithArgs(tripID).
		WillReturnError(fmt.Errorf("db error"))

	repo := storage.NewRepositoryWithQuerier(mock)
	err := repo.DeleteTrip(context.Background(), tripID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "deleting saved trip")
}

// ---- NewRepository ----

func TestNewRepository_NotNil(t *testing.T) {
	assert.NotNil(t, storage.NewRepository(nil))
}
