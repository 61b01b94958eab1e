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

type WorkersHandler struct {
	registry *registry.WorkerRegistry
	engine   *engine.Engine
}

func NewWorkersHandler(r *registry.WorkerRegistry, e *engine.Engine) *WorkersHandler {
	return &WorkersHandler{registry: r, engine: e}
}

func (h *WorkersHandler) Register(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := validateShape(r.Context(), workerCreateSchema, body); err != nil {
		writeJSON(w, errorResponse{Error: err.Error()}, http.StatusBadRequest)
		return
	}

	var in registry.WorkerInput
	if err := json.Unmarshal(body, &in); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	worker, err := h.registry.RegisterWorker(r.Context(), in)
	if err != nil {
		writeFault(w, err)
		return
	}

	writeJSON(w, worker, http.StatusCreated)
}

func (h *WorkersHandler) List(w http.ResponseWriter, r *http.Request) {
	workers, err := h.registry.ListWorkers(r.Context(), r.URL.Query().Get("skill"))
	if err != nil {
		writeFault(w, err)
		return
	}
	if workers == nil {
		workers = []models.Worker{}
	}

	writeJSON(w, workers, http.StatusOK)
}

func (h *WorkersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	worker, err := h.registry.GetWorker(r.Context(), id)
	if err != nil {
		writeFault(w, err)
		return
	}

	writeJSON(w, worker, http.StatusOK)
}

func (h *WorkersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var patch registry.WorkerPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	worker, err := h.registry.UpdateWorker(r.Context(), id, patch)
	if err != nil {
		writeFault(w, err)
		return
	}

	writeJSON(w, worker, http.StatusOK)
}

// Delete goes through the engine: a worker held by a non-terminal job is
// refused with a conflict naming the blocking jobs.
func (h *WorkersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.engine.DeleteWorker(r.Context(), id); err != nil {
		writeFault(w, err)
		return
	}

	writeJSON(w, map[string]string{"message": "worker deleted"}, http.StatusOK)
}
