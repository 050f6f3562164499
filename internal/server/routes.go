package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check and info.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/info", s.handleInfo)

	// Users.
	mux.HandleFunc("POST /v1/login", s.handleLogin)
	mux.HandleFunc("GET /v1/users", s.handleListUsers)
	mux.HandleFunc("GET /v1/users/{id}", s.handleGetUser)

	// Tasks collection.
	mux.HandleFunc("POST /v1/tasks", s.handleCreateTask)
	mux.HandleFunc("GET /v1/tasks", s.handleListTasks)
	mux.HandleFunc("POST /v1/tasks/batch", s.handleBatchCreate)

	// Single task.
	mux.HandleFunc("GET /v1/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("PATCH /v1/tasks/{id}", s.handleUpdateTask)

	// Workflow transitions.
	mux.HandleFunc("POST /v1/tasks/{id}/complete", s.handleComplete)
	mux.HandleFunc("POST /v1/tasks/{id}/verify", s.handleVerify)
	mux.HandleFunc("POST /v1/tasks/{id}/reject", s.handleReject)

	// Images.
	mux.HandleFunc("POST /v1/tasks/{id}/images", s.handleUploadImage)
	mux.HandleFunc("GET /v1/blobs/{key...}", s.handleGetBlob)

	// Views.
	mux.HandleFunc("GET /v1/board", s.handleBoard)
	mux.HandleFunc("GET /v1/stats", s.handleStats)

	return s.withRequestLogging(s.withAuth(mux))
}
