package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/tripmate/internal/trip"
)

// ErrTripNotFound is returned when no saved trip matches.
var ErrTripNotFound = errors.New("trip not found")

const (
	shareIDLen = 8

	// saveAttempts bounds retries when a generated share id collides.
	saveAttempts = 3

	uniqueViolation = "23505"
)

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// SavedTrip is a trip plan persisted for later viewing or sharing.
type SavedTrip struct {
	ID        string    `json:"id"`
	ShareID   string    `json:"share_id"`
	SessionID string    `json:"session_id,omitempty"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Duration  string    `json:"duration"`
	Plan      trip.Plan `json:"trip"`
	CreatedAt time.Time `json:"created_at"`
}

// ShareURL is the public path for the trip.
func (s *SavedTrip) ShareURL() string {
	return "/shared/" + s.ShareID
}

// Repository provides database access for saved trips.
type Repository struct {
	q     Querier
	newID func() uuid.UUID
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool, newID: uuid.New}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q, newID: uuid.New}
}

// NewRepositoryWithIDs is NewRepositoryWithQuerier with a fixed id source (for tests).
func NewRepositoryWithIDs(q Querier, newID func() uuid.UUID) *Repository {
	return &Repository{q: q, newID: newID}
}

const selectColumns = `id::text, share_id, session_id, from_location, to_location, duration, data, created_at`

// SaveTrip stores plan under a fresh id and share id. The share id is the
// first eight hex characters of the id.
func (r *Repository) SaveTrip(ctx context.Context, sessionID string, plan trip.Plan) (*SavedTrip, error) {
	dataJSON, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("marshaling trip plan: %w", err)
	}

	const q = `
		INSERT INTO saved_trips (id, share_id, session_id, from_location, to_location, duration, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	for attempt := 1; ; attempt++ {
		id := r.newID().String()
		st := &SavedTrip{
			ID:        id,
			ShareID:   id[:shareIDLen],
			SessionID: sessionID,
			From:      string(plan.From),
			To:        string(plan.To),
			Duration:  string(plan.Duration),
			Plan:      plan,
		}

		err := r.q.QueryRow(ctx, q, st.ID, st.ShareID, st.SessionID, st.From, st.To, st.Duration, dataJSON).
			Scan(&st.CreatedAt)
		if err == nil {
			return st, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && attempt < saveAttempts {
			continue
		}
		return nil, fmt.Errorf("inserting saved trip: %w", err)
	}
}

// GetTrip returns the saved trip with the given id, or ErrTripNotFound.
func (r *Repository) GetTrip(ctx context.Context, id string) (*SavedTrip, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrTripNotFound
	}

	q := `SELECT ` + selectColumns + ` FROM saved_trips WHERE id = $1`
	st, err := scanTrip(r.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, fmt.Errorf("querying saved trip %s: %w", id, err)
	}
	return st, nil
}

// GetTripByShareID returns the trip published under shareID, or ErrTripNotFound.
func (r *Repository) GetTripByShareID(ctx context.Context, shareID string) (*SavedTrip, error) {
	q := `SELECT ` + selectColumns + ` FROM saved_trips WHERE share_id = $1`
	st, err := scanTrip(r.q.QueryRow(ctx, q, shareID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, fmt.Errorf("querying shared trip %s: %w", shareID, err)
	}
	return st, nil
}

// ListTrips returns up to limit saved trips, newest first.
func (r *Repository) ListTrips(ctx context.Context, limit int) ([]*SavedTrip, error) {
	q := `SELECT ` + selectColumns + ` FROM saved_trips ORDER BY created_at DESC LIMIT $1`
	return r.list(ctx, q, limit)
}

// ListTripsBySession returns the trips saved from a session, newest first.
func (r *Repository) ListTripsBySession(ctx context.Context, sessionID string) ([]*SavedTrip, error) {
	q := `SELECT ` + selectColumns + ` FROM saved_trips WHERE session_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, q, sessionID)
}

// DeleteTrip removes a saved trip. It returns ErrTripNotFound when nothing
// was deleted.
func (r *Repository) DeleteTrip(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrTripNotFound
	}

	tag, err := r.q.Exec(ctx, `DELETE FROM saved_trips WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting saved trip %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTripNotFound
	}
	return nil
}

func (r *Repository) list(ctx context.Context, q string, arg any) ([]*SavedTrip, error) {
	rows, err := r.q.Query(ctx, q, arg)
	if err != nil {
		return nil, fmt.Errorf("querying saved trips: %w", err)
	}
	defer rows.Close()

	results := []*SavedTrip{}
	for rows.Next() {
		st, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning saved trip row: %w", err)
		}
		results = append(results, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating saved trip rows: %w", err)
	}
	return results, nil
}

func scanTrip(row pgx.Row) (*SavedTrip, error) {
	var st SavedTrip
	var dataJSON []byte

	if err := row.Scan(
		&st.ID,
		&st.ShareID,
		&st.SessionID,
		&st.From,
		&st.To,
		&st.Duration,
		&dataJSON,
		&st.CreatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(dataJSON, &st.Plan); err != nil {
		return nil, fmt.Errorf("unmarshaling trip data for %s: %w", st.ID, err)
	}
	return &st, nil
}
