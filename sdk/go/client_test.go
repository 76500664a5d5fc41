package plantlinesdk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEventsDecodePayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v0/events" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"ts":"2026-08-15T10:00:00Z","type":"workorder.created","entity_kind":"workorder","entity_id":"abc","actor_id":"tester","payload_json":"{\"wo_number\":\"WO-2026-08-0001\"}"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	evts, err := c.Events(context.Background(), 10)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(evts) != 1 {
		t.Fatalf("events length: got %d", len(evts))
	}
	if evts[0].Payload != `{"wo_number":"WO-2026-08-0001"}` {
		t.Fatalf("payload: got %q", evts[0].Payload)
	}
}

func TestErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":{"code":"invalid_transition","message":"cannot move from open to closed"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.SetWorkOrderStatus(context.Background(), "abc", "closed", "")
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T (%v)", err, err)
	}
	if apiErr.StatusCode != http.StatusConflict || apiErr.Code != "invalid_transition" {
		t.Fatalf("api error: %+v", apiErr)
	}
}
