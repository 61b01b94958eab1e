package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/garnizeh/crewboard/api"
	"github.com/garnizeh/crewboard/internal/audit"
	"github.com/garnizeh/crewboard/internal/db"
	"github.com/garnizeh/crewboard/internal/engine"
	"github.com/garnizeh/crewboard/internal/models"
	"github.com/garnizeh/crewboard/internal/registry"
	sqlite "github.com/garnizeh/crewboard/internal/repository/sqlite"
)

// setupServer wires the full handler stack over an in-memory database,
// without the JWT middleware so tests hit the routes directly.
func setupServer(t *testing.T) (*httptest.Server, *sqlite.SQLiteRepo, func()) {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	d, err := db.New(ctx, dsn)
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	if err := db.EnsureSchema(ctx, d); err != nil {
		d.Close()
		t.Fatalf("setup schema: %v", err)
	}

	repo := sqlite.New(d, nil)
	queue := audit.NewQueue(repo, nil)
	eng := engine.New(repo, repo, nil, queue)
	workerReg := registry.NewWorkerRegistry(repo, nil, queue)
	jobReg := registry.NewJobRegistry(repo, nil, queue)

	wh := api.NewWorkersHandler(workerReg, eng)
	jh := api.NewJobsHandler(jobReg, eng)
	audh := api.NewAuditHandler(queue)

	r := mux.NewRouter()
	r.HandleFunc("/v1/workers", wh.Register).Methods("POST")
	r.HandleFunc("/v1/workers", wh.List).Methods("GET")
	r.HandleFunc("/v1/workers/{id}", wh.Get).Methods("GET")
	r.HandleFunc("/v1/workers/{id}", wh.Update).Methods("PUT")
	r.HandleFunc("/v1/workers/{id}", wh.Delete).Methods("DELETE")
	r.HandleFunc("/v1/jobs", jh.Create).Methods("POST")
	r.HandleFunc("/v1/jobs", jh.List).Methods("GET")
	r.HandleFunc("/v1/jobs/{id}", jh.Get).Methods("GET")
	r.HandleFunc("/v1/jobs/{id}", jh.Update).Methods("PUT")
	r.HandleFunc("/v1/jobs/{id}", jh.Delete).Methods("DELETE")
	r.HandleFunc("/v1/jobs/{id}/assign", jh.Assign).Methods("PATCH")
	r.HandleFunc("/v1/jobs/{id}/release", jh.Release).Methods("PATCH")
	r.HandleFunc("/v1/jobs/{id}/status", jh.SetStatus).Methods("PATCH")
	r.HandleFunc("/v1/audit", audh.ListRecent).Methods("GET")

	srv := httptest.NewServer(r)
	return srv, repo, func() { srv.Close(); d.Close() }
}

func doJSON(t *testing.T, method, url string, payload any) (*http.Response, []byte) {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	defer res.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(res.Body); err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return res, buf.Bytes()
}

func registerWorker(t *testing.T, srv *httptest.Server, name, phone, skill string) models.Worker {
	t.Helper()
	payload := map[string]string{
		"name": name, "phone": phone, "skill": skill,
		"location": "Lisbon", "language": "en",
	}
	res, body := doJSON(t, http.MethodPost, srv.URL+"/v1/workers", payload)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("register worker: expected 201 got %d: %s", res.StatusCode, body)
	}
	var w models.Worker
	if err := json.Unmarshal(body, &w); err != nil {
		t.Fatalf("decode worker: %v", err)
	}
	return w
}

func createJob(t *testing.T, srv *httptest.Server, title, skill string) models.Job {
	t.Helper()
	payload := map[string]string{
		"title": title, "description": "needs doing", "skill_required": skill,
		"location": "Lisbon", "date": "2026-09-15", "time": "09:00",
		"contact_number": "+15550009999",
	}
	res, body := doJSON(t, http.MethodPost, srv.URL+"/v1/jobs", payload)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create job: expected 201 got %d: %s", res.StatusCode, body)
	}
	var j models.Job
	if err := json.Unmarshal(body, &j); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	return j
}

func TestRegisterAndGetWorker(t *testing.T) {
	srv, _, cleanup := setupServer(t)
	defer cleanup()

	w := registerWorker(t, srv, "Alice", "+15550001111", "plumber")
	if w.ID == "" {
		t.Fatalf("expected a generated id")
	}
	if !w.Available {
		t.Fatalf("expected a new worker to be available")
	}

	res, body := doJSON(t, http.MethodGet, srv.URL+"/v1/workers/"+w.ID, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.StatusCode)
	}
	var got models.Worker
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode worker: %v", err)
	}
	if got.Phone != "+15550001111" {
		t.Fatalf("unexpected worker: %#v", got)
	}

	res, body = doJSON(t, http.MethodGet, srv.URL+"/v1/workers", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.StatusCode)
	}
	var list []models.Worker
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 worker got %d", len(list))
	}
}

func TestRegisterWorkerRejectsBadPayloads(t *testing.T) {
	srv, _, cleanup := setupServer(t)
	defer cleanup()

	cases := []struct {
		name    string
		payload map[string]any
	}{
		{"MissingName", map[string]any{"phone": "+15550001111", "skill": "plumber", "location": "Lisbon", "language": "en"}},
		{"BadPhone", map[string]any{"name": "Alice", "phone": "0123", "skill": "plumber", "location": "Lisbon", "language": "en"}},
		{"EmptySkill", map[string]any{"name": "Alice", "phone": "+15550001111", "skill": "", "location": "Lisbon", "language": "en"}},
		{"UnknownField", map[string]any{"name": "Alice", "phone": "+15550001111", "skill": "plumber", "location": "Lisbon", "language": "en", "available": false}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res, body := doJSON(t, http.MethodPost, srv.URL+"/v1/workers", c.payload)
			if res.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d: %s", res.StatusCode, body)
			}
		})
	}
}

func TestRegisterWorkerDuplicatePhone(t *testing.T) {
	srv, _, cleanup := setupServer(t)
	defer cleanup()

	registerWorker(t, srv, "Alice", "+15550001111", "plumber")

	payload := map[string]string{
		"name": "Impostor", "phone": "+15550001111", "skill": "mason",
		"location": "Porto", "language": "pt",
	}
	res, body := doJSON(t, http.MethodPost, srv.URL+"/v1/workers", payload)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 got %d: %s", res.StatusCode, body)
	}
}

func TestUpdateWorker(t *testing.T) {
	srv, _, cleanup := setupServer(t)
	defer cleanup()

	w := registerWorker(t, srv, "Alice", "+15550001111", "plumber")

	res, body := doJSON(t, http.MethodPut, srv.URL+"/v1/workers/"+w.ID, map[string]any{"name": "Alice Silva"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", res.StatusCode, body)
	}
	var updated models.Worker
	if err := json.Unmarshal(body, &updated); err != nil {
		t.Fatalf("decode worker: %v", err)
	}
	if updated.Name != "Alice Silva" || updated.Skill != "plumber" {
		t.Fatalf("patch merged wrong: %#v", updated)
	}

	// availability is engine-owned
	res, body = doJSON(t, http.MethodPut, srv.URL+"/v1/workers/"+w.ID, map[string]any{"available": false})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", res.StatusCode, body)
	}
	if !strings.Contains(string(body), "assignment engine") {
		t.Fatalf("expected engine-ownership message got: %s", body)
	}
}

func TestGetWorkerNotFound(t *testing.T) {
	srv, _, cleanup := setupServer(t)
	defer cleanup()

	res, _ := doJSON(t, http.MethodGet, srv.URL+"/v1/workers/missing", nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", res.StatusCode)
	}
}

func TestDeleteWorkerBlockedByAssignment(t *testing.T) {
	srv, _, cleanup := setupServer(t)
	defer cleanup()

	w := registerWorker(t, srv, "Alice", "+15550001111", "plumber")
	j := createJob(t, srv, "Fix leak", "plumber")

	res, body := doJSON(t, http.MethodPatch, srv.URL+"/v1/jobs/"+j.ID+"/assign", map[string]any{"phone_numbers": []string{w.Phone}})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("assign: expected 200 got %d: %s", res.StatusCode, body)
	}

	// held by an active job: refused, and the conflict names the job
	res, body = doJSON(t, http.MethodDelete, srv.URL+"/v1/workers/"+w.ID, nil)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 got %d: %s", res.StatusCode, body)
	}
	if !strings.Contains(string(body), j.ID) {
		t.Fatalf("expected conflict to name job %s got: %s", j.ID, body)
	}

	// a terminal job no longer blocks deletion
	res, body = doJSON(t, http.MethodPatch, srv.URL+"/v1/jobs/"+j.ID+"/status", map[string]any{"status": models.JobStatusCompleted})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("complete: expected 200 got %d: %s", res.StatusCode, body)
	}

	res, body = doJSON(t, http.MethodDelete, srv.URL+"/v1/workers/"+w.ID, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", res.StatusCode, body)
	}

	res, _ = doJSON(t, http.MethodGet, srv.URL+"/v1/workers/"+w.ID, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete got %d", res.StatusCode)
	}
}

func TestListWorkersBySkill(t *testing.T) {
	srv, _, cleanup := setupServer(t)
	defer cleanup()

	registerWorker(t, srv, "Alice", "+15550001111", "plumber")
	registerWorker(t, srv, "Bob", "+15550002222", "mason")

	res, body := doJSON(t, http.MethodGet, srv.URL+"/v1/workers?skill=mason", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.StatusCode)
	}
	var list []models.Worker
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].Skill != "mason" {
		t.Fatalf("unexpected filtered list: %#v", list)
	}

	// unknown skill yields an empty array, not null
	res, body = doJSON(t, http.MethodGet, srv.URL+"/v1/workers?skill=electrician", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.StatusCode)
	}
	if strings.TrimSpace(string(body)) != "[]" {
		t.Fatalf("expected empty array got: %s", body)
	}
}
