package topics

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/devicehub-lab/databridge/internal/bus"
	"github.com/devicehub-lab/databridge/internal/middleware"
	"github.com/devicehub-lab/databridge/internal/store"
)

func newTestHandlers(creator *fakeCreator) *Handlers {
	registry := NewRegistry(store.NewMemoryStore(), creator, Profile{PartitionCount: 1, ReplicationFactor: 1})
	return NewHandlers(registry)
}

func doRequest(h *Handlers, method, path, tenant string, body []byte) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if tenant != "" {
		req = req.WithContext(middleware.ContextWithTenant(req.Context(), tenant))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGetOrCreateTopic_ReturnsTopic(t *testing.T) {
	h := newTestHandlers(&fakeCreator{})

	rec := doRequest(h, http.MethodGet, "/topic/device-data", "acme", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if body["topic"] == "" {
		t.Fatal("expected a topic name")
	}

	// Same subject again returns the identical name.
	rec = doRequest(h, http.MethodGet, "/topic/device-data", "acme", nil)
	var second map[string]string
	json.NewDecoder(rec.Body).Decode(&second)
	if second["topic"] != body["topic"] {
		t.Errorf("expected stable topic, got %q then %q", body["topic"], second["topic"])
	}
}

func TestGetOrCreateTopic_RequiresTenant(t *testing.T) {
	h := newTestHandlers(&fakeCreator{})

	rec := doRequest(h, http.MethodGet, "/topic/device-data", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without tenant context, got %d", rec.Code)
	}
}

func TestGetOrCreateTopic_BusFailureStillReturnsName(t *testing.T) {
	h := newTestHandlers(&fakeCreator{failWith: bus.ErrTopicCreationFailed})

	rec := doRequest(h, http.MethodGet, "/topic/device-data", "acme", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}

	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["topic"] == "" {
		t.Fatal("response must still carry the valid topic name")
	}
}

func TestProfileEndpoints_RoundTrip(t *testing.T) {
	h := newTestHandlers(&fakeCreator{})

	rec := doRequest(h, http.MethodGet, "/topic/device-data/profile", "acme", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before a profile is set, got %d", rec.Code)
	}

	payload := []byte(`{"partition_count":3,"replication_factor":2}`)
	rec = doRequest(h, http.MethodPost, "/topic/device-data/profile", "acme", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(h, http.MethodGet, "/topic/device-data/profile", "acme", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got Profile
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if got.PartitionCount != 3 || got.ReplicationFactor != 2 {
		t.Errorf("expected 3/2, got %+v", got)
	}
}

func TestSetProfile_RejectsInvalidPayloads(t *testing.T) {
	h := newTestHandlers(&fakeCreator{})

	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `{{{`},
		{"zero partitions", `{"partition_count":0,"replication_factor":1}`},
		{"missing fields", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(h, http.MethodPost, "/topic/device-data/profile", "acme", []byte(tt.payload))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestProfileIsolation_AcrossTenants(t *testing.T) {
	h := newTestHandlers(&fakeCreator{})

	doRequest(h, http.MethodPost, "/topic/device-data/profile", "acme", []byte(`{"partition_count":3,"replication_factor":2}`))

	rec := doRequest(h, http.MethodGet, "/topic/device-data/profile", "umbrella", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("one tenant's profile must not be visible to another, got %d", rec.Code)
	}
}
