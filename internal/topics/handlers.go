package topics

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/devicehub-lab/databridge/internal/bus"
	"github.com/devicehub-lab/databridge/internal/httputil"
	"github.com/devicehub-lab/databridge/internal/middleware"
	"github.com/devicehub-lab/databridge/internal/store"
)

// Handlers exposes the topic registry over HTTP. All routes are tenant-scoped
// through the auth middleware.
type Handlers struct {
	registry *Registry
}

func NewHandlers(registry *Registry) *Handlers {
	return &Handlers{registry: registry}
}

// RegisterRoutes wires the topic endpoints.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/topic/{subject}", h.GetOrCreateTopic).Methods(http.MethodGet)
	r.HandleFunc("/topic/{subject}/profile", h.GetProfile).Methods(http.MethodGet)
	r.HandleFunc("/topic/{subject}/profile", h.SetProfile).Methods(http.MethodPost)
}

// GetOrCreateTopic handles GET /topic/{subject}. It returns the tenant's
// topic name for the subject, creating it on first request.
func (h *Handlers) GetOrCreateTopic(w http.ResponseWriter, r *http.Request) {
	tenant, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "missing tenant context")
		return
	}
	subject := mux.Vars(r)["subject"]

	topic, err := h.registry.GetOrCreate(r.Context(), tenant, subject)
	switch {
	case errors.Is(err, ErrInvalidArgument):
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrStoreUnavailable):
		httputil.WriteError(w, http.StatusServiceUnavailable, "coordination store unavailable")
	case errors.Is(err, bus.ErrTopicCreationFailed):
		// The name is valid even though the bus refused creation; return it
		// so the caller can retry provisioning without losing the name.
		httputil.WriteJSON(w, http.StatusBadGateway, map[string]string{
			"topic": topic,
			"error": "bus topic creation failed",
		})
	case err != nil:
		httputil.WriteError(w, http.StatusInternalServerError, "failed to process topic")
	default:
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"topic": topic})
	}
}

// GetProfile handles GET /topic/{subject}/profile.
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	tenant, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "missing tenant context")
		return
	}
	subject := mux.Vars(r)["subject"]

	profile, err := h.registry.GetProfile(r.Context(), tenant, subject)
	switch {
	case errors.Is(err, ErrProfileNotFound):
		httputil.WriteError(w, http.StatusNotFound, "no profile set for subject")
	case errors.Is(err, ErrInvalidArgument):
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrStoreUnavailable):
		httputil.WriteError(w, http.StatusServiceUnavailable, "coordination store unavailable")
	case err != nil:
		httputil.WriteError(w, http.StatusInternalServerError, "failed to read profile")
	default:
		httputil.WriteJSON(w, http.StatusOK, profile)
	}
}

// SetProfile handles POST /topic/{subject}/profile.
func (h *Handlers) SetProfile(w http.ResponseWriter, r *http.Request) {
	tenant, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "missing tenant context")
		return
	}
	subject := mux.Vars(r)["subject"]

	var profile Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid profile payload")
		return
	}

	err := h.registry.SetProfile(r.Context(), tenant, subject, profile)
	switch {
	case errors.Is(err, ErrInvalidArgument):
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrStoreUnavailable):
		httputil.WriteError(w, http.StatusServiceUnavailable, "coordination store unavailable")
	case err != nil:
		httputil.WriteError(w, http.StatusInternalServerError, "failed to store profile")
	default:
		httputil.WriteJSON(w, http.StatusOK, profile)
	}
}
