package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/cors"
)

// RouterConfig carries the HTTP-level settings for NewRouter.
type RouterConfig struct {
	Token              string
	AllowedOrigins     []string
	RateLimitPerMinute int
}

// NewRouter builds and returns the Chi router with all routes configured.
// Health, metrics and shared trips are public; everything else requires bearer auth.
// Rate limiting is applied globally per IP.
func NewRouter(handlers *Handlers, cfg RouterConfig, db dbPinger, redisClient redisPinger, metrics http.Handler, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler)
	r.Use(httprate.LimitByIP(cfg.RateLimitPerMinute, time.Minute))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", HealthHandlerFunc(db, redisClient, log))
		r.Handle("/metrics", metrics)
		r.Get("/shared/{shareID}", handlers.GetSharedTrip)

		r.Group(func(r chi.Router) {
			r.Use(BearerAuth(cfg.Token))

			r.Post("/sessions", handlers.CreateSession)
			r.Get("/sessions/{id}", handlers.GetSession)
			r.Delete("/sessions/{id}", handlers.DeleteSession)
			r.Post("/sessions/{id}/messages", handlers.SendMessage)
			r.Post("/sessions/{id}/history/back", handlers.HistoryBack)
			r.Post("/sessions/{id}/history/forward", handlers.HistoryForward)
			r.Get("/sessions/{id}/trip/maps", handlers.TripMaps)
			r.Post("/sessions/{id}/trips", handlers.SaveSessionTrip)
			r.Post("/sessions/{id}/trip/email", handlers.EmailTrip)
			r.Post("/contact", handlers.SubmitContact)

			r.Get("/trips", handlers.ListTrips)
			r.Get("/trips/{tripID}", handlers.GetTrip)
			r.Delete("/trips/{tripID}", handlers.DeleteTrip)
		})
	})

	return r
}
