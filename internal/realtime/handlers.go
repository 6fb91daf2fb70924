package realtime

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/devicehub-lab/databridge/internal/tokens"
)

// redeemTimeout bounds the store round-trip made during admission so a
// stalled store cannot hold handshakes open.
const redeemTimeout = 2 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     CheckOrigin,
}

// TokenRedeemer is the slice of the token broker the handler needs.
type TokenRedeemer interface {
	Redeem(ctx context.Context, token string) (string, error)
}

// WSHandler admits websocket connections into tenant rooms. Admission is
// gated solely by redeeming the single-use token presented on the handshake.
type WSHandler struct {
	hub    *Hub
	broker TokenRedeemer
}

func NewWSHandler(hub *Hub, broker TokenRedeemer) *WSHandler {
	return &WSHandler{hub: hub, broker: broker}
}

// RegisterRoutes wires the websocket endpoint.
func (h *WSHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ws", h.ServeWS).Methods(http.MethodGet)
}

// ServeWS upgrades a GET /ws request into an admitted room connection. The
// `token` query parameter must carry an unredeemed connection token; a
// missing, unknown, reused, or expired token rejects the connection
// immediately, with no retry window.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "authentication error: missing token", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), redeemTimeout)
	defer cancel()

	tenant, err := h.broker.Redeem(ctx, token)
	if err != nil {
		// A failed redemption is a rejection regardless of cause: the token
		// is either consumed, unknown, or the store could not confirm it.
		if !errors.Is(err, tokens.ErrUnauthenticated) {
			log.Printf("realtime: token redemption failed: %v", err)
		}
		http.Error(w, "authentication error: unknown token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader already wrote the error response.
		return
	}

	client := NewClient(h.hub, conn, tenant)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
