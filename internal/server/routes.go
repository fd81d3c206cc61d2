package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check and info.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/info", s.handleInfo)

	// Tasks collection.
	mux.HandleFunc("POST /v1/tasks", s.handleCreateTask)
	mux.HandleFunc("GET /v1/tasks", s.handleListTasks)

	// Single task.
	mux.HandleFunc("GET /v1/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("PATCH /v1/tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /v1/tasks/{id}", s.handleDeleteTask)

	// Workflow commands.
	mux.HandleFunc("POST /v1/tasks/{id}/accept", s.handleCommand("accept"))
	mux.HandleFunc("POST /v1/tasks/{id}/complete", s.handleCommand("complete"))
	mux.HandleFunc("POST /v1/tasks/{id}/approve", s.handleCommand("approve"))
	mux.HandleFunc("POST /v1/tasks/{id}/reject", s.handleCommand("reject"))
	mux.HandleFunc("POST /v1/tasks/{id}/decline", s.handleCommand("decline"))
	mux.HandleFunc("POST /v1/tasks/{id}/restart", s.handleCommand("restart"))
	mux.HandleFunc("POST /v1/tasks/{id}/force-complete", s.handleCommand("force-complete"))
	mux.HandleFunc("POST /v1/tasks/{id}/recalculate", s.handleCommand("recalculate"))

	// Assignee and verifier sets.
	mux.HandleFunc("POST /v1/tasks/{id}/{role}", s.handleAddRole)
	mux.HandleFunc("DELETE /v1/tasks/{id}/{role}", s.handleRemoveRole)

	// External sync.
	mux.HandleFunc("POST /v1/tasks/{id}/link", s.handleLink)
	mux.HandleFunc("POST /v1/tasks/{id}/unlink", s.handleUnlink)
	mux.HandleFunc("POST /v1/tasks/{id}/create-issue", s.handleCreateIssue)
	mux.HandleFunc("POST /v1/tasks/{id}/sync", s.handleSyncTask)
	mux.HandleFunc("POST /v1/tasks/{id}/resolve-conflict", s.handleResolveConflict)
	mux.HandleFunc("GET /v1/tasks/{id}/sync-log", s.handleSyncLog)

	// Scope-wide sync.
	mux.HandleFunc("POST /v1/sync/import", s.handleImportAll)
	mux.HandleFunc("POST /v1/sync/export", s.handleExportAll)
	mux.HandleFunc("PUT /v1/sync/scopes", s.handlePutScopeCredential)
	mux.HandleFunc("PUT /v1/sync/users", s.handlePutUserMapping)

	// Inbound webhooks.
	mux.HandleFunc("POST /v1/webhooks/github", s.handleGithubWebhook)

	// Board directory.
	mux.HandleFunc("POST /v1/members", s.handleCreateMember)
	mux.HandleFunc("GET /v1/members/{id}", s.handleGetMember)
	mux.HandleFunc("POST /v1/columns", s.handleCreateColumn)
	mux.HandleFunc("GET /v1/columns", s.handleListColumns)

	return mux
}
