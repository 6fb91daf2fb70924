package tokens

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/devicehub-lab/databridge/internal/store"
)

// ErrUnauthenticated is returned when a token was never issued, was already
// redeemed, or expired. The three cases are indistinguishable on purpose.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrInvalidTenant is returned when Issue is called without a tenant.
var ErrInvalidTenant = errors.New("a valid tenant must be supplied")

// DefaultTTL bounds how long an unredeemed token stays valid.
const DefaultTTL = 60 * time.Second

// Broker issues and redeems the single-use tokens that gate realtime
// connections. A token maps to exactly one tenant and admits exactly one
// connection: redemption removes it from the store atomically, and anything
// unredeemed expires on its own.
type Broker struct {
	store store.Store
	ttl   time.Duration
}

// NewBroker builds a Broker on the given store. ttl <= 0 picks DefaultTTL.
func NewBroker(st store.Store, ttl time.Duration) *Broker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Broker{store: st, ttl: ttl}
}

func sessionKey(token string) string { return "session:" + token }

// Issue creates a fresh opaque token bound to tenant. Tokens are cheap;
// there is no per-tenant issuance cap.
func (b *Broker) Issue(ctx context.Context, tenant string) (string, error) {
	if tenant == "" {
		return "", ErrInvalidTenant
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := b.store.SetTTL(ctx, sessionKey(token), tenant, b.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Redeem consumes the token and returns its tenant. A successful redemption
// makes the token permanently unusable; this is the sole admission gate for
// realtime connections.
func (b *Broker) Redeem(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}

	tenant, err := b.store.GetDelete(ctx, sessionKey(token))
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrUnauthenticated
	}
	if err != nil {
		return "", err
	}
	return tenant, nil
}
