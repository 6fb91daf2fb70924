package tokens

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/devicehub-lab/databridge/internal/httputil"
	"github.com/devicehub-lab/databridge/internal/middleware"
	"github.com/devicehub-lab/databridge/internal/store"
)

// Handlers exposes token issuance over HTTP.
type Handlers struct {
	broker *Broker
}

func NewHandlers(broker *Broker) *Handlers {
	return &Handlers{broker: broker}
}

// RegisterRoutes wires the token endpoint.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/socketio", h.IssueToken).Methods(http.MethodGet)
}

// IssueToken handles GET /socketio: it returns a fresh single-use connection
// token for the authenticated tenant. The token must be presented on the
// websocket handshake within its TTL.
func (h *Handlers) IssueToken(w http.ResponseWriter, r *http.Request) {
	tenant, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "missing tenant context")
		return
	}

	token, err := h.broker.Issue(r.Context(), tenant)
	switch {
	case errors.Is(err, ErrInvalidTenant):
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrStoreUnavailable):
		httputil.WriteError(w, http.StatusServiceUnavailable, "coordination store unavailable")
	case err != nil:
		httputil.WriteError(w, http.StatusInternalServerError, "failed to issue token")
	default:
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}
