// Package httpapi exposes the account and note operations as a JSON API
// over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/services"
)

type AuthService interface {
	Register(ctx context.Context, reg *models.Registration) (*models.User, *services.TokenPair, error)
	Login(ctx context.Context, email, password string) (*models.User, *services.TokenPair, error)
	Logout(ctx context.Context, userID, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (string, error)
	ResolveIdentity(ctx context.Context, accessToken string) (*models.User, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, upd *models.ProfileUpdate) (*models.User, error)
}

type NoteService interface {
	Create(ctx context.Context, ownerID string, in *models.NoteInput) (*models.Note, error)
	Get(ctx context.Context, ownerID, noteID string) (*models.Note, error)
	List(ctx context.Context, ownerID string, filter models.NoteFilter) ([]*models.Note, error)
	Update(ctx context.Context, ownerID, noteID string, upd *models.NoteUpdate) (*models.Note, error)
	ToggleFavorite(ctx context.Context, ownerID, noteID string) (*models.Note, string, error)
	Delete(ctx context.Context, ownerID, noteID string) error
	ListFavorites(ctx context.Context, ownerID string) ([]*models.Note, int, error)
}

type ExportService interface {
	Download(ctx context.Context, ownerID, noteID, format string) (*services.RenderedNote, error)
	Export(ctx context.Context, ownerID, noteID, format string) (*services.ExportResult, error)
	ListExports(ctx context.Context, ownerID, noteID string) ([]*services.ExportResult, error)
}

// Handler serves the JSON API.
type Handler struct {
	auth    AuthService
	notes   NoteService
	exports ExportService
	logger  logging.Logger
}

func NewHandler(a AuthService, n NoteService, e ExportService, l logging.Logger) *Handler {
	return &Handler{
		auth:    a,
		notes:   n,
		exports: e,
		logger:  l.With("module", "http_api"),
	}
}

// Routes builds the router. Everything under /notes and the account
// endpoints except register, login and refresh require a bearer access token.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.renderErrorMessage(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.renderErrorMessage(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/ping", h.ping)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Post("/token/refresh", h.refresh)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)
			r.Post("/logout", h.logout)
			r.Get("/profile", h.profile)
			r.Put("/profile", h.updateProfile)
			r.Patch("/profile", h.updateProfile)
		})
	})

	r.Route("/notes", func(r chi.Router) {
		r.Use(h.authenticate)
		r.Get("/", h.listNotes)
		r.Post("/", h.createNote)
		r.Get("/favorites", h.favoriteNotes)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getNote)
			r.Put("/", h.updateNote)
			r.Patch("/", h.updateNote)
			r.Delete("/", h.deleteNote)
			r.Patch("/toggle-favorite", h.toggleFavorite)
			r.Get("/download", h.downloadNote)
			r.Post("/export", h.exportNote)
			r.Get("/exports", h.listExports)
		})
	})

	return r
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "OK"})
}
