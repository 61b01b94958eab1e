package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/garnizeh/crewboard/internal/engine"
	"github.com/garnizeh/crewboard/internal/models"
	"github.com/garnizeh/crewboard/internal/registry"
)

type JobsHandler struct {
	registry *registry.JobRegistry
	engine   *engine.Engine
}

func NewJobsHandler(r *registry.JobRegistry, e *engine.Engine) *JobsHandler {
	return &JobsHandler{registry: r, engine: e}
}

func (h *JobsHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := validateShape(r.Context(), jobCreateSchema, body); err != nil {
		writeJSON(w, errorResponse{Error: err.Error()}, http.StatusBadRequest)
		return
	}

	var in registry.JobInput
	if err := json.Unmarshal(body, &in); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	job, err := h.registry.CreateJob(r.Context(), in)
	if err != nil {
		writeFault(w, err)
		return
	}

	writeJSON(w, job, http.StatusCreated)
}

func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.registry.ListJobs(r.Context(), r.URL.Query().Get("skill"))
	if err != nil {
		writeFault(w, err)
		return
	}
	if jobs == nil {
		jobs = []models.Job{}
	}

	writeJSON(w, jobs, http.StatusOK)
}

func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	job, err := h.registry.GetJob(r.Context(), id)
	if err != nil {
		writeFault(w, err)
		return
	}

	writeJSON(w, job, http.StatusOK)
}

func (h *JobsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var patch registry.JobPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	job, err := h.registry.UpdateJob(r.Context(), id, patch)
	if err != nil {
		writeFault(w, err)
		return
	}

	writeJSON(w, job, http.StatusOK)
}

// Delete goes through the engine so every assigned worker is released
// before the record disappears.
func (h *JobsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.engine.DeleteJob(r.Context(), id); err != nil {
		writeFault(w, err)
		return
	}

	writeJSON(w, map[string]string{"message": "job deleted"}, http.StatusOK)
}

type assignRequest struct {
	PhoneNumbers []string `json:"phone_numbers"`
}

// Assign commits the valid subset of the requested phones and reports the
// rest, so a partially successful call is still a 200 with per-phone
// reasons in the body.
func (h *JobsHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := validateShape(r.Context(), assignmentSchema, body); err != nil {
		writeJSON(w, errorResponse{Error: err.Error()}, http.StatusBadRequest)
		return
	}

	var req assignRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	result, err := h.engine.AssignWorkers(r.Context(), id, req.PhoneNumbers)
	if err != nil {
		writeFault(w, err)
		return
	}

	writeJSON(w, result, http.StatusOK)
}

type releaseRequest struct {
	Phone string `json:"phone"`
}

// Release removes one phone from the job's assigned set. Releasing a phone
// the job does not hold is a no-op, so the call is safe to retry.
func (h *JobsHandler) Release(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req releaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := h.engine.ReleaseWorker(r.Context(), id, req.Phone); err != nil {
		writeFault(w, err)
		return
	}

	job, err := h.registry.GetJob(r.Context(), id)
	if err != nil {
		writeFault(w, err)
		return
	}

	writeJSON(w, job, http.StatusOK)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *JobsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := h.engine.SetJobStatus(r.Context(), id, req.Status); err != nil {
		writeFault(w, err)
		return
	}

	job, err := h.registry.GetJob(r.Context(), id)
	if err != nil {
		writeFault(w, err)
		return
	}

	writeJSON(w, job, http.StatusOK)
}
