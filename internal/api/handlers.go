package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/tripmate/internal/maps"
	"github.com/neexbeast/tripmate/internal/planner"
	"github.com/neexbeast/tripmate/internal/session"
	"github.com/neexbeast/tripmate/internal/storage"
	"github.com/neexbeast/tripmate/internal/trip"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100

	maxBodyBytes = 64 << 10
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	planner Planner
	repo    TripRepo
	cache   TripCache
	log     *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(p Planner, repo TripRepo, cache TripCache, log *slog.Logger) *Handlers {
	return &Handlers{
		planner: p,
		repo:    repo,
		cache:   cache,
		log:     log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---- sessions ----

// CreateSession handles POST /api/v1/sessions.
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.planner.NewSession(r.Context())
	if err != nil {
		h.log.Error("create session failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

type sessionResponse struct {
	Session    *session.State       `json:"session"`
	SavedTrips []*storage.SavedTrip `json:"saved_trips"`
}

// GetSession handles GET /api/v1/sessions/{id}.
// Loads the session and the trips saved from it concurrently.
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var resp sessionResponse
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		st, err := h.planner.Session(ctx, id)
		resp.Session = st
		return err
	})
	g.Go(func() error {
		trips, err := h.repo.ListTripsBySession(ctx, id)
		resp.SavedTrips = trips
		return err
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, planner.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		h.log.Error("get session failed", "session_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if resp.SavedTrips == nil {
		resp.SavedTrips = []*storage.SavedTrip{}
	}

	writeJSON(w, http.StatusOK, resp)
}

// DeleteSession handles DELETE /api/v1/sessions/{id}.
func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.planner.DeleteSession(r.Context(), id); err != nil {
		h.log.Error("delete session failed", "session_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type messageRequest struct {
	Message string `json:"message"`
}

// SendMessage handles POST /api/v1/sessions/{id}/messages.
func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req messageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start := time.Now()
	reply, err := h.planner.Send(r.Context(), id, req.Message)
	switch {
	case err == nil:
	case errors.Is(err, planner.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "message must not be empty")
		return
	case errors.Is(err, planner.ErrSessionBusy):
		writeError(w, http.StatusConflict, "still waiting for the previous reply")
		return
	case errors.Is(err, planner.ErrAssistantUnavailable):
		writeError(w, http.StatusBadGateway, "the trip assistant is unavailable right now, please try again")
		return
	default:
		h.log.Error("send message failed", "session_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.log.Info("message handled",
		"session_id", id,
		"strategy", reply.Strategy,
		"new_trip", reply.IsNewTrip,
		"took", time.Since(start),
	)
	writeJSON(w, http.StatusOK, reply)
}

// HistoryBack handles POST /api/v1/sessions/{id}/history/back.
func (h *Handlers) HistoryBack(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, h.planner.Back)
}

// HistoryForward handles POST /api/v1/sessions/{id}/history/forward.
func (h *Handlers) HistoryForward(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, h.planner.Forward)
}

func (h *Handlers) navigate(w http.ResponseWriter, r *http.Request, move func(context.Context, string) (*planner.View, error)) {
	id := chi.URLParam(r, "id")

	view, err := move(r.Context(), id)
	if err != nil {
		if errors.Is(err, planner.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		h.log.Error("history navigation failed", "session_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type mapsResponse struct {
	SearchURL string           `json:"search_url"`
	EmbedURL  string           `json:"embed_url"`
	Routes    []maps.RouteLink `json:"routes"`
}

// TripMaps handles GET /api/v1/sessions/{id}/trip/maps.
func (h *Handlers) TripMaps(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, ok := h.currentTrip(w, r, id)
	if !ok {
		return
	}

	to := string(p.To)
	resp := mapsResponse{Routes: maps.RouteLinks(*p)}
	if to != "" {
		resp.SearchURL = maps.SearchURL(to)
		resp.EmbedURL = maps.EmbedURL(to)
	}
	writeJSON(w, http.StatusOK, resp)
}

type saveTripResponse struct {
	TripID   string `json:"trip_id"`
	ShareID  string `json:"share_id"`
	ShareURL string `json:"share_url"`
}

// SaveSessionTrip handles POST /api/v1/sessions/{id}/trips.
// Saves the trip currently on display and returns its share link.
func (h *Handlers) SaveSessionTrip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, ok := h.currentTrip(w, r, id)
	if !ok {
		return
	}

	st, err := h.repo.SaveTrip(r.Context(), id, *p)
	if err != nil {
		h.log.Error("save trip failed", "session_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to save trip")
		return
	}

	h.log.Info("trip saved", "session_id", id, "trip_id", st.ID, "share_id", st.ShareID)
	writeJSON(w, http.StatusCreated, saveTripResponse{TripID: st.ID, ShareID: st.ShareID, ShareURL: st.ShareURL()})
}

// currentTrip writes the error response itself when it returns false.
func (h *Handlers) currentTrip(w http.ResponseWriter, r *http.Request, id string) (*trip.Plan, bool) {
	p, err := h.planner.CurrentTrip(r.Context(), id)
	switch {
	case err == nil:
		return p, true
	case errors.Is(err, planner.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, planner.ErrNoTrip):
		writeError(w, http.StatusNotFound, "no trip planned in this session yet")
	default:
		h.log.Error("load current trip failed", "session_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
	return nil, false
}

// ---- saved trips ----

// ListTrips handles GET /api/v1/trips?limit=N.
func (h *Handlers) ListTrips(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	trips, err := h.repo.ListTrips(r.Context(), limit)
	if err != nil {
		h.log.Error("list trips failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, trips)
}

// GetTrip handles GET /api/v1/trips/{tripID}.
func (h *Handlers) GetTrip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "tripID")

	st, err := h.repo.GetTrip(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrTripNotFound) {
			writeError(w, http.StatusNotFound, "trip not found")
			return
		}
		h.log.Error("get trip failed", "trip_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// DeleteTrip handles DELETE /api/v1/trips/{tripID}.
// The shared copy is evicted from cache as well.
func (h *Handlers) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "tripID")

	st, err := h.repo.GetTrip(r.Context(), id)
	if err == nil {
		err = h.repo.DeleteTrip(r.Context(), id)
	}
	if err != nil {
		if errors.Is(err, storage.ErrTripNotFound) {
			writeError(w, http.StatusNotFound, "trip not found")
			return
		}
		h.log.Error("delete trip failed", "trip_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.cache.Delete(r.Context(), st.ShareID); err != nil {
		h.log.Warn("cache delete failed", "share_id", st.ShareID, "err", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSharedTrip handles GET /api/v1/shared/{shareID}.
// Cache hit → return. DB hit → cache + return. Neither → 404.
func (h *Handlers) GetSharedTrip(w http.ResponseWriter, r *http.Request) {
	// Share ids are lowercase hex; links are matched case-insensitively.
	shareID := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "shareID")))

	cached, err := h.cache.Get(r.Context(), shareID)
	if err != nil {
		h.log.Error("cache get failed", "share_id", shareID, "err", err)
	}
	if cached != nil {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	st, err := h.repo.GetTripByShareID(r.Context(), shareID)
	if err != nil {
		if errors.Is(err, storage.ErrTripNotFound) {
			writeError(w, http.StatusNotFound, "trip not found")
			return
		}
		h.log.Error("db get shared trip failed", "share_id", shareID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.cache.Set(r.Context(), st); err != nil {
		h.log.Warn("cache set failed after db hit", "share_id", shareID, "err", err)
	}

	writeJSON(w, http.StatusOK, st)
}

// ---- outreach ----

type emailTripRequest struct {
	RecipientEmail string `json:"recipient_email" validate:"required,email,max=255"`
}

type outreachResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// EmailTrip handles POST /api/v1/sessions/{id}/trip/email.
// Queues the trip on display for mailing; delivery happens elsewhere.
func (h *Handlers) EmailTrip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req emailTripRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.RecipientEmail = strings.TrimSpace(req.RecipientEmail)
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	p, ok := h.currentTrip(w, r, id)
	if !ok {
		return
	}

	e, err := h.repo.QueueTripEmail(r.Context(), id, req.RecipientEmail, *p)
	if err != nil {
		h.log.Error("queue trip email failed", "session_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to queue email")
		return
	}

	h.log.Info("trip email queued", "session_id", id, "email_id", e.ID, "from", e.TripFrom, "to", e.TripTo)
	writeJSON(w, http.StatusCreated, outreachResponse{
		ID:      e.ID,
		Status:  e.Status,
		Message: "Trip details will be sent to " + e.Recipient,
	})
}

type contactRequest struct {
	Name             string `json:"name" validate:"required,max=100"`
	Email            string `json:"email" validate:"required,email,max=255"`
	Phone            string `json:"phone" validate:"required_if=PreferredContact phone,max=50"`
	Message          string `json:"message" validate:"max=5000"`
	PreferredContact string `json:"preferred_contact" validate:"omitempty,oneof=email phone"`
	SessionID        string `json:"session_id" validate:"max=100"`
}

// SubmitContact handles POST /api/v1/contact.
// When session_id names a session with a trip, the trip's from, to and
// duration are stored with the message.
func (h *Handlers) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Message = strings.TrimSpace(req.Message)
	req.PreferredContact = strings.ToLower(strings.TrimSpace(req.PreferredContact))
	req.SessionID = strings.TrimSpace(req.SessionID)
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	c := storage.ContactSubmission{
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		Message:          req.Message,
		PreferredContact: req.PreferredContact,
		SessionID:        req.SessionID,
	}
	if req.SessionID != "" {
		// A lost session must not lose the message.
		p, err := h.planner.CurrentTrip(r.Context(), req.SessionID)
		switch {
		case err == nil:
			c.TripFrom, c.TripTo, c.TripDuration = string(p.From), string(p.To), string(p.Duration)
		case errors.Is(err, planner.ErrSessionNotFound), errors.Is(err, planner.ErrNoTrip):
		default:
			h.log.Warn("contact: loading trip failed", "session_id", req.SessionID, "err", err)
		}
	}

	saved, err := h.repo.SaveContact(r.Context(), c)
	if err != nil {
		h.log.Error("save contact failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to submit contact form")
		return
	}

	h.log.Info("contact form received", "contact_id", saved.ID, "session_id", saved.SessionID, "preferred_contact", saved.PreferredContact)
	writeJSON(w, http.StatusCreated, outreachResponse{
		ID:      saved.ID,
		Status:  saved.Status,
		Message: "Your message has been sent! Our travel expert will contact you soon.",
	})
}

// ---- health ----

type dbPinger interface {
	Ping(ctx context.Context) error
}

type redisPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlerFunc returns an http.HandlerFunc that checks db and redis connectivity.
// Responds 200 if both answer, 503 otherwise.
func HealthHandlerFunc(db dbPinger, redis redisPinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status, overall := http.StatusOK, "ok"
		dbStatus, redisStatus := "ok", "ok"

		if err := db.Ping(ctx); err != nil {
			log.Error("health check: db ping failed", "err", err)
			dbStatus = "error"
		}
		if err := redis.Ping(ctx); err != nil {
			log.Error("health check: redis ping failed", "err", err)
			redisStatus = "error"
		}
		if dbStatus != "ok" || redisStatus != "ok" {
			status, overall = http.StatusServiceUnavailable, "degraded"
		}

		writeJSON(w, status, map[string]string{
			"status": overall,
			"db":     dbStatus,
			"redis":  redisStatus,
		})
	}
}
