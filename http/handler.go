package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	sessions "github.com/youwol/cdn-sessions-storage"
)

// SessionsPrefix is the path under which session routes are served.
const SessionsPrefix = "/applications"

type Service interface {
	Get(ctx context.Context, id sessions.Identity, key sessions.SessionKey) ([]byte, error)
	Put(ctx context.Context, id sessions.Identity, key sessions.SessionKey, data []byte) error
	Delete(ctx context.Context, id sessions.Identity, key sessions.SessionKey) error
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled" yaml:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins" yaml:"allowed_origins,omitempty"`
	AllowedMethods   []string `mapstructure:"allowed_methods" yaml:"allowed_methods,omitempty"`
	AllowedHeaders   []string `mapstructure:"allowed_headers" yaml:"allowed_headers,omitempty"`
	ExposedHeaders   []string `mapstructure:"exposed_headers" yaml:"exposed_headers,omitempty"`
	AllowCredentials bool     `mapstructure:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" yaml:"max_age"`
}

type HandlerConfig struct {
	// RootPath is an additional prefix under which every route is served,
	// for deployments behind a proxy that does not strip it.
	RootPath string
	Chain    Chain
	CORS     CORSConfig
}

// Handler provides the HTTP routes of the sessions service.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:  *config,
		service: service,
	}
}

// Router returns an http.Handler serving every route through the chain.
// Routes are served from "/" and, when set, from RootPath as well.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}
	r.Use(h.config.Chain.Handler)
	fallbacks(r)

	h.routes(r)

	// a root path equal to the sessions prefix is already served
	if root := strings.TrimSuffix(h.config.RootPath, "/"); root != "" && root != SessionsPrefix {
		sub := chi.NewRouter()
		fallbacks(sub)
		h.routes(sub)
		r.Mount(root, sub)
	}

	return r
}

func (h *Handler) routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Get("/openapi-docs", h.handleDocs)

	r.Route(SessionsPrefix, func(r chi.Router) {
		r.Get("/healthz", h.handleHealth)

		r.Get("/{package}/{name}", h.handleGet)
		r.Post("/{package}/{name}", h.handlePost)
		r.Delete("/{package}/{name}", h.handleDelete)

		r.Get("/{namespace}/{package}/{name}", h.handleGet)
		r.Post("/{namespace}/{package}/{name}", h.handlePost)
		r.Delete("/{namespace}/{package}/{name}", h.handleDelete)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "cdn-sessions-storage ok"})
}

func (h *Handler) handleDocs(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, openAPIDocument)
}

func sessionKey(r *http.Request) sessions.SessionKey {
	pkg := chi.URLParam(r, "package")
	if ns := chi.URLParam(r, "namespace"); ns != "" {
		pkg = ns + "/" + pkg
	}
	return sessions.SessionKey{Package: pkg, Name: chi.URLParam(r, "name")}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := sessions.IdentityFromContext(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	data, err := h.service.Get(r.Context(), id, sessionKey(r))
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			_ = WriteJSON(w, http.StatusOK, struct{}{})
			return
		}
		HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	id, err := sessions.IdentityFromContext(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, sessions.MaxSessionBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, ReasonTooLarge, "Session document too large")
			return
		}
		WriteError(w, http.StatusBadRequest, ReasonInvalidInput, "Could not read request body")
		return
	}

	if err := h.service.Put(r.Context(), id, sessionKey(r), data); err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, struct{}{})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := sessions.IdentityFromContext(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id, sessionKey(r)); err != nil && !errors.Is(err, sessions.ErrNotFound) {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, struct{}{})
}
