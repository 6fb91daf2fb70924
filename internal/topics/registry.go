package topics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/devicehub-lab/databridge/internal/store"
)

// ErrInvalidArgument is returned for empty tenants/subjects and malformed
// profiles. The caller's fault; never retried.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrProfileNotFound is returned by GetProfile when the tenant never stored a
// profile for the subject.
var ErrProfileNotFound = errors.New("profile not found")

// Profile holds the bus-side settings applied when a topic is created.
type Profile struct {
	PartitionCount    int `json:"partition_count"`
	ReplicationFactor int `json:"replication_factor"`
}

// TopicCreator is the slice of the bus gateway the registry needs.
type TopicCreator interface {
	CreateTopic(ctx context.Context, name string, partitions, replication int) error
}

// Registry names topics per (tenant, subject) pair. A topic name is created
// exactly once: concurrent provisioning requests are collapsed by the store's
// atomic create, and only the winner asks the bus to create the topic.
type Registry struct {
	store    store.Store
	creator  TopicCreator
	defaults Profile
}

func NewRegistry(st store.Store, creator TopicCreator, defaults Profile) *Registry {
	return &Registry{store: st, creator: creator, defaults: defaults}
}

func topicKey(tenant, subject string) string   { return "topic:" + tenant + ":" + subject }
func profileKey(tenant, subject string) string { return "profile:" + tenant + ":" + subject }

// GetOrCreate returns the topic name for (tenant, subject), creating it if
// this is the first request. All racing callers observe the same name. Losing
// a race is not an error. When bus-side creation fails the returned name is
// still valid; the error is handed back alongside it so the caller can decide
// whether to retry provisioning.
func (r *Registry) GetOrCreate(ctx context.Context, tenant, subject string) (string, error) {
	if tenant == "" {
		return "", fmt.Errorf("%w: a valid tenant must be supplied", ErrInvalidArgument)
	}
	if subject == "" {
		return "", fmt.Errorf("%w: a valid subject must be supplied", ErrInvalidArgument)
	}

	candidate := "t-" + uuid.New().String()
	name, err := r.store.CreateOrGet(ctx, topicKey(tenant, subject), candidate)
	if err != nil {
		return "", err
	}
	if name != candidate {
		// A prior writer won; its name is authoritative and the bus topic
		// request was (or is being) issued by the winner.
		return name, nil
	}

	profile := r.defaults
	stored, err := r.GetProfile(ctx, tenant, subject)
	switch {
	case err == nil:
		profile = stored
	case errors.Is(err, ErrProfileNotFound):
		// Defaults apply.
	default:
		log.Printf("topics: profile lookup failed for %s/%s, using defaults: %v", tenant, subject, err)
	}

	if err := r.creator.CreateTopic(ctx, name, profile.PartitionCount, profile.ReplicationFactor); err != nil {
		// The record stands even when the bus refuses: the name is stable
		// and a later provisioning attempt can reuse it.
		return name, err
	}
	return name, nil
}

// SetProfile overwrites the profile for (tenant, subject). Last write wins.
func (r *Registry) SetProfile(ctx context.Context, tenant, subject string, profile Profile) error {
	if tenant == "" || subject == "" {
		return fmt.Errorf("%w: tenant and subject must be supplied", ErrInvalidArgument)
	}
	if profile.PartitionCount < 1 {
		return fmt.Errorf("%w: partition_count must be >= 1", ErrInvalidArgument)
	}
	if profile.ReplicationFactor < 1 {
		return fmt.Errorf("%w: replication_factor must be >= 1", ErrInvalidArgument)
	}

	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	return r.store.Set(ctx, profileKey(tenant, subject), string(payload))
}

// GetProfile returns the stored profile for (tenant, subject), or
// ErrProfileNotFound when none was ever set.
func (r *Registry) GetProfile(ctx context.Context, tenant, subject string) (Profile, error) {
	if tenant == "" || subject == "" {
		return Profile{}, fmt.Errorf("%w: tenant and subject must be supplied", ErrInvalidArgument)
	}

	raw, err := r.store.Get(ctx, profileKey(tenant, subject))
	if errors.Is(err, store.ErrNotFound) {
		return Profile{}, ErrProfileNotFound
	}
	if err != nil {
		return Profile{}, err
	}

	var profile Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return Profile{}, fmt.Errorf("unmarshal profile: %w", err)
	}
	return profile, nil
}
