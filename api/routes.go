package api

import (
	"github.com/gorilla/mux"

	"github.com/garnizeh/crewboard/internal/audit"
	"github.com/garnizeh/crewboard/internal/config"
	"github.com/garnizeh/crewboard/internal/db"
	"github.com/garnizeh/crewboard/internal/engine"
	"github.com/garnizeh/crewboard/internal/registry"
	"github.com/garnizeh/crewboard/internal/repository/sqlite"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, conn *db.DB) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Repository and domain components
	repo := sqlite.New(conn, logger)
	queue := audit.NewQueue(repo, logger)
	eng := engine.New(repo, repo, logger, queue)
	workerReg := registry.NewWorkerRegistry(repo, logger, queue)
	jobReg := registry.NewJobRegistry(repo, logger, queue)

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(repo, cfg.JWTSecret, cfg.TokenDuration)
	workersHandler := NewWorkersHandler(workerReg, eng)
	jobsHandler := NewJobsHandler(jobReg, eng)
	auditHandler := NewAuditHandler(queue)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	// Auth endpoints
	authV1 := apiV1.PathPrefix("/auth").Subrouter()
	authV1.HandleFunc("/signout", authHandler.Signout).Methods("POST")

	// Worker endpoints
	apiV1.HandleFunc("/workers", workersHandler.Register).Methods("POST")
	apiV1.HandleFunc("/workers", workersHandler.List).Methods("GET")
	apiV1.HandleFunc("/workers/{id}", workersHandler.Get).Methods("GET")
	apiV1.HandleFunc("/workers/{id}", workersHandler.Update).Methods("PUT")
	apiV1.HandleFunc("/workers/{id}", workersHandler.Delete).Methods("DELETE")

	// Job endpoints
	apiV1.HandleFunc("/jobs", jobsHandler.Create).Methods("POST")
	apiV1.HandleFunc("/jobs", jobsHandler.List).Methods("GET")
	apiV1.HandleFunc("/jobs/{id}", jobsHandler.Get).Methods("GET")
	apiV1.HandleFunc("/jobs/{id}", jobsHandler.Update).Methods("PUT")
	apiV1.HandleFunc("/jobs/{id}", jobsHandler.Delete).Methods("DELETE")
	apiV1.HandleFunc("/jobs/{id}/assign", jobsHandler.Assign).Methods("PATCH")
	apiV1.HandleFunc("/jobs/{id}/release", jobsHandler.Release).Methods("PATCH")
	apiV1.HandleFunc("/jobs/{id}/status", jobsHandler.SetStatus).Methods("PATCH")

	// Activity feed
	apiV1.HandleFunc("/audit", auditHandler.ListRecent).Methods("GET")

	return r
}
