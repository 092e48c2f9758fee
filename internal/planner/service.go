// Package planner drives a trip-planning conversation: it relays messages to
// the chat backend, recovers trip plans from the replies and keeps each
// session's trip history.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/neexbeast/tripmate/internal/session"
	"github.com/neexbeast/tripmate/internal/trip"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionBusy          = errors.New("session is waiting for a reply")
	ErrEmptyMessage         = errors.New("message is empty")
	ErrAssistantUnavailable = errors.New("assistant unavailable")
	ErrNoTrip               = errors.New("session has no trip")
)

// defaultBusyTimeout bounds how long a session stays busy if a send never
// releases it.
const defaultBusyTimeout = 90 * time.Second

// Assistant answers chat messages.
type Assistant interface {
	Chat(ctx context.Context, sessionID, message string) (string, error)
}

// SessionStore persists session state and the per-session busy flag.
type SessionStore interface {
	Get(ctx context.Context, id string) (*session.State, error)
	Save(ctx context.Context, st *session.State) error
	Delete(ctx context.Context, id string) error
	Lock(ctx context.Context, id, token string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, id, token string) error
}

// HistoryPosition locates the displayed trip within the session history.
type HistoryPosition struct {
	Index  int `json:"index"`
	Length int `json:"length"`
}

// Reply is the outcome of one Send.
type Reply struct {
	SessionID string          `json:"session_id"`
	Message   string          `json:"message"`
	Trip      *trip.Plan      `json:"trip"`
	IsNewTrip bool            `json:"is_new_trip"`
	Strategy  trip.Strategy   `json:"strategy"`
	History   HistoryPosition `json:"history"`
}

// View is the displayed trip after a history move.
type View struct {
	SessionID string          `json:"session_id"`
	Trip      *trip.Plan      `json:"trip"`
	Moved     bool            `json:"moved"`
	History   HistoryPosition `json:"history"`
}

// Service owns session state. It is safe for concurrent use; sends to the
// same session are serialised by the store's busy flag.
type Service struct {
	assistant   Assistant
	store       SessionStore
	extractor   *trip.Extractor
	metrics     *Metrics
	log         *slog.Logger
	busyTimeout time.Duration
	now         func() time.Time
}

// NewService constructs a Service. busyTimeout should exceed the assistant
// timeout; a non-positive value uses 90 seconds.
func NewService(a Assistant, store SessionStore, metrics *Metrics, log *slog.Logger, busyTimeout time.Duration) *Service {
	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}
	return &Service{
		assistant:   a,
		store:       store,
		extractor:   trip.NewExtractor(log),
		metrics:     metrics,
		log:         log,
		busyTimeout: busyTimeout,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// NewSession creates and stores an empty session.
func (s *Service) NewSession(ctx context.Context) (*session.State, error) {
	st := session.New(uuid.NewString(), s.now())
	if err := s.store.Save(ctx, st); err != nil {
		return nil, fmt.Errorf("saving new session: %w", err)
	}
	s.log.Info("session created", "session_id", st.ID)
	return st, nil
}

// Session returns the state for id or ErrSessionNotFound.
func (s *Service) Session(ctx context.Context, id string) (*session.State, error) {
	st, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}
	if st == nil {
		return nil, ErrSessionNotFound
	}
	return st, nil
}

// DeleteSession discards the state for id.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	s.log.Info("session deleted", "session_id", id)
	return nil
}

// CurrentTrip returns the trip on display for id, or ErrNoTrip.
func (s *Service) CurrentTrip(ctx context.Context, id string) (*trip.Plan, error) {
	st, err := s.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	p := st.CurrentTrip()
	if p == nil {
		return nil, ErrNoTrip
	}
	return p, nil
}

// Send relays message to the assistant and folds any trip plan in the reply
// into the session. An unknown id starts a new session under that id. While
// a send is in flight for a session, further sends fail with ErrSessionBusy.
// An assistant failure leaves the stored session unchanged.
func (s *Service) Send(ctx context.Context, id, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	token := uuid.NewString()
	ok, err := s.store.Lock(ctx, id, token, s.busyTimeout)
	if err != nil {
		return nil, fmt.Errorf("marking session %s busy: %w", id, err)
	}
	if !ok {
		return nil, ErrSessionBusy
	}
	defer func() {
		if err := s.store.Unlock(context.WithoutCancel(ctx), id, token); err != nil {
			s.log.Warn("failed to clear session busy flag", "session_id", id, "err", err)
		}
	}()

	st, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}
	if st == nil {
		st = session.New(id, s.now())
	}

	start := time.Now()
	raw, err := s.assistant.Chat(ctx, id, message)
	s.metrics.observeAssistant(time.Since(start), err)
	if err != nil {
		s.log.Error("assistant request failed", "session_id", id, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrAssistantUnavailable, err)
	}

	now := s.now()
	st.Append(session.RoleUser, message, false, now)

	res := s.extractor.Extract(raw)
	s.metrics.observeExtraction(res.Strategy)

	var isNew bool
	if res.Plan != nil {
		_, isNew = st.History.Apply(*res.Plan)
		s.metrics.observeMerge(isNew)
		s.log.Info("trip applied", "session_id", id, "new_trip", isNew, "history_len", st.History.Len())
	}
	st.Append(session.RoleAssistant, res.DisplayMessage, res.Plan != nil, now)

	if err := s.store.Save(ctx, st); err != nil {
		return nil, fmt.Errorf("saving session %s: %w", id, err)
	}

	return &Reply{
		SessionID: id,
		Message:   res.DisplayMessage,
		Trip:      st.CurrentTrip(),
		IsNewTrip: isNew,
		Strategy:  res.Strategy,
		History:   position(st),
	}, nil
}

// Back shows the previous trip in the session's history.
func (s *Service) Back(ctx context.Context, id string) (*View, error) {
	return s.navigate(ctx, id, (*trip.History).Back)
}

// Forward shows the next trip in the session's history.
func (s *Service) Forward(ctx context.Context, id string) (*View, error) {
	return s.navigate(ctx, id, (*trip.History).Forward)
}

func (s *Service) navigate(ctx context.Context, id string, move func(*trip.History) bool) (*View, error) {
	st, err := s.Session(ctx, id)
	if err != nil {
		return nil, err
	}

	moved := move(&st.History)
	if moved {
		st.UpdatedAt = s.now()
		if err := s.store.Save(ctx, st); err != nil {
			return nil, fmt.Errorf("saving session %s: %w", id, err)
		}
	}

	return &View{
		SessionID: id,
		Trip:      st.CurrentTrip(),
		Moved:     moved,
		History:   position(st),
	}, nil
}

func position(st *session.State) HistoryPosition {
	if st.History.Len() == 0 {
		return HistoryPosition{}
	}
	return HistoryPosition{Index: st.History.Cursor, Length: st.History.Len()}
}
