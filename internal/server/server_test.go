package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"plantline/internal/config"
	"plantline/internal/db"
	"plantline/internal/domain"
	"plantline/internal/engine"
	"plantline/internal/migrate"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

var actorHeader = map[string]string{"X-Actor-Id": "tester"}

func newTestServer(t *testing.T) (*testServer, string) {
	t.Helper()
	workspace := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, config.Default("plant-1"))
	e.Now = func() time.Time { return time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC) }
	handler, err := New(Config{
		Engine:   e,
		BasePath: "/v0",
		Auth:     AuthConfig{AllowLegacyActorHeader: true},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	t.Cleanup(testSrv.Close)

	m, err := e.CreateMachine(context.Background(), engine.MachineCreateOptions{Code: "CNC-01", Name: "CNC Mill", ActorID: "tester"})
	if err != nil {
		t.Fatalf("create machine: %v", err)
	}
	return testSrv, m.ID
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

type errEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeErr(t *testing.T, data []byte) errEnvelope {
	t.Helper()
	var env errEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal error envelope: %v (%s)", err, string(data))
	}
	return env
}

func TestWorkOrderLifecycleOverHTTP(t *testing.T) {
	srv, machineID := newTestServer(t)
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/workorders", map[string]any{
		"machine_id":  machineID,
		"type":        "breakdown",
		"priority":    "emergency",
		"description": "coolant leak",
	}, actorHeader)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d: %s", res.StatusCode, string(data))
	}
	var created domain.WorkOrder
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal work order: %v", err)
	}
	if created.Status != "open" || created.WONumber == "" {
		t.Fatalf("created: %+v", created)
	}

	// skip is rejected with the invalid_transition envelope
	res, data = doJSON(t, client, http.MethodPut, srv.URL+"/v0/workorders/"+created.ID+"/status", map[string]any{
		"status": "closed",
	}, actorHeader)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("skip status %d: %s", res.StatusCode, string(data))
	}
	env := decodeErr(t, data)
	if env.Error.Code != "invalid_transition" {
		t.Fatalf("skip code: %s", env.Error.Code)
	}
	if env.Error.Details["from"] != "open" || env.Error.Details["to"] != "closed" {
		t.Fatalf("skip details: %+v", env.Error.Details)
	}

	for _, next := range []string{"in_progress", "completed", "closed"} {
		res, data = doJSON(t, client, http.MethodPut, srv.URL+"/v0/workorders/"+created.ID+"/status", map[string]any{
			"status": next,
			"note":   "step",
		}, actorHeader)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("to %s: status %d: %s", next, res.StatusCode, string(data))
		}
	}

	var closed domain.WorkOrder
	if err := json.Unmarshal(data, &closed); err != nil {
		t.Fatal(err)
	}
	if closed.Status != "closed" || len(closed.History) != 4 {
		t.Fatalf("closed: status=%s history=%d", closed.Status, len(closed.History))
	}

	// archive, then verify partitions via the two listings
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/workorders/"+created.ID+"/archive", nil, actorHeader)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("archive status %d: %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/workorders", nil, actorHeader)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list status %d", res.StatusCode)
	}
	var live []domain.WorkOrder
	if err := json.Unmarshal(data, &live); err != nil {
		t.Fatal(err)
	}
	if len(live) != 0 {
		t.Fatalf("live after archive: %d", len(live))
	}
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/workorders/archive", nil, actorHeader)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("archive list status %d", res.StatusCode)
	}
	var arch []domain.WorkOrder
	if err := json.Unmarshal(data, &arch); err != nil {
		t.Fatal(err)
	}
	if len(arch) != 1 || arch[0].ID != created.ID {
		t.Fatalf("archive list: %+v", arch)
	}

	// restore keeps the order closed
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/workorders/archive/"+created.ID+"/restore", nil, actorHeader)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("restore status %d: %s", res.StatusCode, string(data))
	}
	var restored domain.WorkOrder
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatal(err)
	}
	if restored.Status != "closed" {
		t.Fatalf("restored status: %s", restored.Status)
	}
}

func TestCreateWorkOrderUnknownMachineHTTP(t *testing.T) {
	srv, _ := newTestServer(t)
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/workorders", map[string]any{
		"machine_id": "ghost",
		"type":       "corrective",
		"priority":   "low",
	}, actorHeader)
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status %d: %s", res.StatusCode, string(data))
	}
	if env := decodeErr(t, data); env.Error.Code != "machine_not_found" {
		t.Fatalf("code: %s", env.Error.Code)
	}
}

func TestClaimConflictHTTP(t *testing.T) {
	srv, machineID := newTestServer(t)
	client := srv.Client()
	_, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/workorders", map[string]any{
		"machine_id": machineID, "type": "corrective", "priority": "medium",
	}, actorHeader)
	var wo domain.WorkOrder
	if err := json.Unmarshal(data, &wo); err != nil {
		t.Fatal(err)
	}
	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/workorders/"+wo.ID+"/claim", map[string]any{"note": "mine"}, actorHeader)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("claim status %d: %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/workorders/"+wo.ID+"/claim", nil,
		map[string]string{"X-Actor-Id": "second"})
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("second claim status %d: %s", res.StatusCode, string(data))
	}
	if env := decodeErr(t, data); env.Error.Code != "not_open" {
		t.Fatalf("code: %s", env.Error.Code)
	}
}

func TestSchedulesHTTP(t *testing.T) {
	srv, machineID := newTestServer(t)
	client := srv.Client()
	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/schedules", map[string]any{
		"machine_id":     machineID,
		"task":           "lube check",
		"frequency_days": 30,
		"last_done":      "2026-07-01",
	}, actorHeader)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create schedule status %d: %s", res.StatusCode, string(data))
	}
	var s domain.ScheduleWithDue
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatal(err)
	}
	if s.NextDue != "2026-07-31" || s.Due != "overdue" {
		t.Fatalf("schedule: %+v", s)
	}
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/schedules?due=overdue", nil, actorHeader)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list status %d: %s", res.StatusCode, string(data))
	}
	var list []domain.ScheduleWithDue
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != s.ID {
		t.Fatalf("list: %+v", list)
	}
	res, data = doJSON(t, client, http.MethodPut, srv.URL+"/v0/schedules/"+s.ID, map[string]any{
		"frequency_days": 60,
	}, actorHeader)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("update status %d: %s", res.StatusCode, string(data))
	}
	var updated domain.ScheduleWithDue
	if err := json.Unmarshal(data, &updated); err != nil {
		t.Fatal(err)
	}
	if updated.ID != s.ID || updated.FrequencyDays != 60 {
		t.Fatalf("updated schedule: %+v", updated)
	}
}

func TestUnauthorizedWithoutCredentials(t *testing.T) {
	srv, _ := newTestServer(t)
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/workorders", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d: %s", res.StatusCode, string(data))
	}
	if env := decodeErr(t, data); env.Error.Code != "unauthorized" {
		t.Fatalf("code: %s", env.Error.Code)
	}
}

func TestHealthNeedsNoAuth(t *testing.T) {
	srv, _ := newTestServer(t)
	res, _ := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d", res.StatusCode)
	}
}
