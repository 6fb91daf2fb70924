package health

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/devicehub-lab/databridge/internal/httputil"
)

// Handlers exposes the health report over HTTP. The endpoint is unauthenticated
// so orchestrators can probe it.
type Handlers struct {
	checker *Checker
}

func NewHandlers(checker *Checker) *Handlers {
	return &Handlers{checker: checker}
}

// RegisterRoutes wires the healthcheck endpoint.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthcheck", h.Healthcheck).Methods(http.MethodGet)
}

// Healthcheck handles GET /healthcheck. A failing dependency yields 503 so
// load balancers take the instance out of rotation.
func (h *Handlers) Healthcheck(w http.ResponseWriter, r *http.Request) {
	report := h.checker.Run(r.Context())

	status := http.StatusOK
	if report.Status == StatusFail {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, report)
}
