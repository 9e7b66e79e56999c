package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/syncora/internal/auth"
	"github.com/joseph-ayodele/syncora/internal/common"
	"github.com/joseph-ayodele/syncora/internal/entity"
	processor "github.com/joseph-ayodele/syncora/internal/pipeline"
	"github.com/joseph-ayodele/syncora/internal/repository"
)

// Pipeline is the upload orchestrator as seen by handlers.
type Pipeline interface {
	CreateFromUpload(ctx context.Context, ownerID uuid.UUID, req processor.UploadRequest) (*entity.Assignment, error)
	ExtractText(ctx context.Context, data []byte, mimeType string) (string, error)
	Estimate(ctx context.Context, text, instructions string) (string, error)
	EstimateUpload(ctx context.Context, data []byte, mimeType, instructions string) (string, error)
}

type Login interface {
	BeginLogin(ctx context.Context) (string, error)
	CompleteLogin(ctx context.Context, state, code string) (*auth.Session, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

type Exporter interface {
	ExportXLSX(ctx context.Context, ownerID uuid.UUID, from, to *time.Time) ([]byte, error)
}

type HealthChecker interface {
	HealthCheck(ctx context.Context, timeout time.Duration) error
}

type Options struct {
	FrontendDir       string
	MaxUploadBytes    int64
	AllowedOrigins    []string
	HandlerTimeout    time.Duration
	PostLoginRedirect string
}

// Handler serves the HTTP API. Every dependency is shared across requests.
type Handler struct {
	pipeline    Pipeline
	login       Login
	tokens      *auth.TokenIssuer
	users       UserReader
	assignments repository.AssignmentRepository
	events      repository.EventRepository
	exporter    Exporter
	health      HealthChecker
	opts        Options
	logger      *slog.Logger
}

type Deps struct {
	Pipeline    Pipeline
	Login       Login
	Tokens      *auth.TokenIssuer
	Users       UserReader
	Assignments repository.AssignmentRepository
	Events      repository.EventRepository
	Exporter    Exporter
	Health      HealthChecker
}

func NewHandler(d Deps, opts Options, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	if opts.HandlerTimeout <= 0 {
		opts.HandlerTimeout = 2 * time.Minute
	}
	if opts.PostLoginRedirect == "" {
		opts.PostLoginRedirect = "/frontend/index.html"
	}
	return &Handler{
		pipeline:    d.Pipeline,
		login:       d.Login,
		tokens:      d.Tokens,
		users:       d.Users,
		assignments: d.Assignments,
		events:      d.Events,
		exporter:    d.Exporter,
		health:      d.Health,
		opts:        opts,
		logger:      logger,
	}
}

// Router builds the chi router with middleware and every route.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(h.opts.HandlerTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/frontend/index.html", http.StatusTemporaryRedirect)
	})
	if h.opts.FrontendDir != "" {
		r.Handle("/frontend/*", http.StripPrefix("/frontend/", http.FileServer(http.Dir(h.opts.FrontendDir))))
	}
	r.Get("/healthz", h.Healthz)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", h.GoogleLogin)
		r.Get("/google/callback", h.GoogleCallback)
		r.With(auth.RequireUser(h.tokens, h.logger)).Get("/me", h.Me)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(h.tokens, h.logger))

		r.Post("/OCR", h.OCR)
		r.Post("/LLM", h.LLM)
		r.Post("/EstimateTime", h.EstimateTime)

		r.Route("/assignments", func(r chi.Router) {
			r.Get("/", h.ListAssignments)
			r.Post("/", h.CreateAssignment)
			r.Post("/upload", h.UploadAssignment)
			r.Get("/export", h.ExportAssignments)
			r.Get("/{id}", h.GetAssignment)
			r.Patch("/{id}", h.UpdateAssignment)
			r.Delete("/{id}", h.DeleteAssignment)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.ListEvents)
			r.Post("/", h.CreateEvent)
			r.Get("/{id}", h.GetEvent)
			r.Patch("/{id}", h.UpdateEvent)
			r.Put("/{id}", h.UpdateEvent)
			r.Delete("/{id}", h.DeleteEvent)
		})

		r.Post("/schedule/generate", h.GenerateSchedule)
	})
	return r
}

// accessLog emits one slog record per request and seeds the request-scoped logger.
func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := middleware.GetReqID(r.Context())
		ctx := common.WithRequestID(r.Context(), reqID)
		ctx = common.WithLogger(ctx, h.logger.With("req_id", reqID))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		h.logger.Info("http.request",
			"req_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.HealthCheck(r.Context(), 3*time.Second); err != nil {
			h.logger.Warn("healthz.db.failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotImplemented, errorBody{Error: errorDetail{
		Code:    "NOT_IMPLEMENTED",
		Message: "schedule generation is not available yet",
	}})
}

// ownerID is set by auth.RequireUser; its absence means the route was wired without it.
func ownerID(r *http.Request) (uuid.UUID, error) {
	id, ok := common.UserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, common.UnauthorizedError("authentication required")
	}
	return id, nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, common.InvalidArgumentError("id must be a UUID")
	}
	return id, nil
}
