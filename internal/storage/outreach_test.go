package storage_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/tripmate/internal/storage"
	"github.com/neexbeast/tripmate/internal/trip"
)

const outreachID = "9d8c7b6a-5f4e-4d3c-8b2a-1f0e9d8c7b6a"

// captureArg matches any []byte argument and keeps a copy of it.
type captureArg struct{ dst *[]byte }

func (c captureArg) Match(v any) bool {
	b, ok := v.([]byte)
	if ok {
		*c.dst = append([]byte(nil), b...)
	}
	return ok
}

func capture(dst *[]byte) captureArg { return captureArg{dst: dst} }

// ---- QueueTripEmail ----

func TestQueueTripEmail_Success(t *testing.T) {
	mock := newMock(t)
	now := time.Date(2026, 10, 2, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO email_queue").
		WithArgs(outreachID, "sess-1", "kiri@example.nz", "Auckland", "Queenstown", pgxmock.AnyArg(), "queued").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))

	repo := storage.NewRepositoryWithIDs(mock, fixedIDs(outreachID))
	e, err := repo.QueueTripEmail(context.Background(), "sess-1", "kiri@example.nz", samplePlan())

	require.NoError(t, err)
	assert.Equal(t, outreachID, e.ID)
	assert.Equal(t, storage.EmailQueued, e.Status)
	assert.Equal(t, "Queenstown", e.TripTo)
	assert.Equal(t, now, e.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueTripEmail_StoresFullPlan(t *testing.T) {
	mock := newMock(t)

	var stored []byte
	mock.ExpectQuery("INSERT INTO email_queue").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), capture(&stored), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	repo := storage.NewRepositoryWithIDs(mock, fixedIDs(outreachID))
	_, err := repo.QueueTripEmail(context.Background(), "sess-1", "kiri@example.nz", samplePlan())
	require.NoError(t, err)

	var got trip.Plan
	require.NoError(t, json.Unmarshal(stored, &got))
	assert.Equal(t, samplePlan(), got)
}

func TestQueueTripEmail_DBError(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery("INSERT INTO email_queue").
		WillReturnError(fmt.Errorf("connection reset"))

	repo := storage.NewRepositoryWithIDs(mock, fixedIDs(outreachID))
	_, err := repo.QueueTripEmail(context.Background(), "sess-1", "kiri@example.nz", samplePlan())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "inserting queued email")
}

// ---- SaveContact ----

func TestSaveContact_Success(t *testing.T) {
	mock := newMock(t)
	now := time.Date(2026, 10, 2, 8, 5, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO contact_submissions").
		WithArgs(outreachID, "Aroha", "aroha@example.nz", "021 555 0101", "Can you help with ferries?", "phone",
			"sess-1", "Auckland", "Queenstown", "5 days", "new").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))

	repo := storage.NewRepositoryWithIDs(mock, fixedIDs(outreachID))
	c, err := repo.SaveContact(context.Background(), storage.ContactSubmission{
		Name:             "Aroha",
		Email:            "aroha@example.nz",
		Phone:            "021 555 0101",
		Message:          "Can you help with ferries?",
		PreferredContact: storage.ContactByPhone,
		SessionID:        "sess-1",
		TripFrom:         "Auckland",
		TripTo:           "Queenstown",
		TripDuration:     "5 days",
	})

	require.NoError(t, err)
	assert.Equal(t, outreachID, c.ID)
	assert.Equal(t, storage.ContactNew, c.Status)
	assert.Equal(t, now, c.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveContact_DefaultsToEmail(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery("INSERT INTO contact_submissions").
		WithArgs(outreachID, "Aroha", "aroha@example.nz", "", "", "email", "", "", "", "", "new").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	repo := storage.NewRepositoryWithIDs(mock, fixedIDs(outreachID))
	c, err := repo.SaveContact(context.Background(), storage.ContactSubmission{Name: "Aroha", Email: "aroha@example.nz"})

	require.NoError(t, err)
	assert.Equal(t, storage.ContactByEmail, c.PreferredContact)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveContact_DBError(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery("INSERT INTO contact_submissions").
		WillReturnError(fmt.Errorf("db down"))

	repo := storage.NewRepositoryWithIDs(mock, fixedIDs(outreachID))
	_, err := repo.SaveContact(context.Background(), storage.ContactSubmission{Name: "Aroha", Email: "aroha@example.nz"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "inserting contact submission")
}
