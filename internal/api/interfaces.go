package api

import (
	"context"

	"github.com/neexbeast/tripmate/internal/planner"
	"github.com/neexbeast/tripmate/internal/session"
	"github.com/neexbeast/tripmate/internal/storage"
	"github.com/neexbeast/tripmate/internal/trip"
)

// Planner defines the conversation operations needed by handlers.
type Planner interface {
	NewSession(ctx context.Context) (*session.State, error)
	Session(ctx context.Context, id string) (*session.State, error)
	DeleteSession(ctx context.Context, id string) error
	CurrentTrip(ctx context.Context, id string) (*trip.Plan, error)
	Send(ctx context.Context, id, message string) (*planner.Reply, error)
	Back(ctx context.Context, id string) (*planner.View, error)
	Forward(ctx context.Context, id string) (*planner.View, error)
}

// TripRepo defines the saved-trip storage operations needed by handlers.
type TripRepo interface {
	SaveTrip(ctx context.Context, sessionID string, plan trip.Plan) (*storage.SavedTrip, error)
	GetTrip(ctx context.Context, id string) (*storage.SavedTrip, error)
	GetTripByShareID(ctx context.Context, shareID string) (*storage.SavedTrip, error)
	ListTrips(ctx context.Context, limit int) ([]*storage.SavedTrip, error)
	ListTripsBySession(ctx context.Context, sessionID string) ([]*storage.SavedTrip, error)
	DeleteTrip(ctx context.Context, id string) error
	QueueTripEmail(ctx context.Context, sessionID, recipient string, plan trip.Plan) (*storage.QueuedEmail, error)
	SaveContact(ctx context.Context, c storage.ContactSubmission) (*storage.ContactSubmission, error)
}

// TripCache defines the shared-trip cache operations needed by handlers.
type TripCache interface {
	Get(ctx context.Context, shareID string) (*storage.SavedTrip, error)
	Set(ctx context.Context, st *storage.SavedTrip) error
	Delete(ctx context.Context, shareID string) error
}
