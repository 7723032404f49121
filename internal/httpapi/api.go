package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"crewbase.org/internal/comment"
	"crewbase.org/internal/identity"
	"crewbase.org/internal/obs"
	"crewbase.org/internal/team"
)

// ReadyProbe reports whether the backing store answers.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Config bounds the HTTP surface.
type Config struct {
	Version        string
	RateBurst      int
	RatePerSecond  int
	MaxBodyBytes   int64
	AllowedOrigins []string
}

func (c *Config) applyDefaults() {
	if c.RateBurst <= 0 {
		c.RateBurst = 50
	}
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = 25
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 1 << 20
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
}

// API is the HTTP layer.
type API struct {
	router     chi.Router
	identity   *identity.Service
	teams      *team.Service
	comments   *comment.Service
	readyProbe ReadyProbe
	cfg        Config
}

func New(idSvc *identity.Service, teamSvc *team.Service, commentSvc *comment.Service, rp ReadyProbe, cfg Config) *API {
	cfg.applyDefaults()
	a := &API{
		router:     chi.NewRouter(),
		identity:   idSvc,
		teams:      teamSvc,
		comments:   commentSvc,
		readyProbe: rp,
		cfg:        cfg,
	}
	a.routes()
	return a
}

func (a *API) routes() {
	r := a.router

	r.Use(RequestID)
	r.Use(LoggingJSON)
	r.Use(SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           600,
	}))
	r.Use(func(next http.Handler) http.Handler {
		return RateLimit(next, a.cfg.RateBurst, a.cfg.RatePerSecond)
	})
	r.Use(func(next http.Handler) http.Handler {
		return MaxBodyBytes(next, a.cfg.MaxBodyBytes)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", a.healthz)
	r.Get("/readyz", a.ready)
	r.Handle("/metrics", obs.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/info", a.info)

		// Token endpoints authenticate with their own credential (password or
		// refresh token), never with a bearer access token.
		r.Post("/users/register", a.handleRegister)
		r.Post("/users/login", a.handleLogin)
		r.Post("/users/refresh", a.handleRefresh)
		r.Post("/users/logout", a.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(a.withAuth)

			r.Get("/users/me", a.handleMe)

			r.Route("/teams", func(r chi.Router) {
				r.Post("/", a.handleTeamCreate)
				r.Get("/", a.handleTeamList)

				r.Route("/{teamID}", func(r chi.Router) {
					r.Put("/", a.handleTeamRename)
					r.Delete("/", a.handleTeamDelete)

					r.Route("/members", func(r chi.Router) {
						r.Post("/", a.handleMemberAdd)
						r.Get("/", a.handleMemberList)
						r.Put("/{memberID}", a.handleMemberRoleUpdate)
						r.Delete("/{memberID}", a.handleMemberRemove)
					})

					r.Route("/threads/{threadID}/comments", func(r chi.Router) {
						r.Post("/", a.handleCommentCreate)
						r.Get("/", a.handleCommentList)
						r.Delete("/", a.handleThreadDelete)
					})
				})
			})

			r.Route("/comments/{commentID}", func(r chi.Router) {
				r.Put("/", a.handleCommentUpdate)
				r.Delete("/", a.handleCommentDelete)
			})
		})
	})
}

// Handler returns the instrumented root handler.
func (a *API) Handler() http.Handler {
	return obs.Instrument(a.router)
}

func (a *API) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "crewbase-api",
		"version": a.cfg.Version,
	})
}

func (a *API) ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "crewbase-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.cfg.Version,
	})
}
