package server

import (
	"errors"
	"fmt"
	"net/http"

	"teamboard/internal/api"
	"teamboard/internal/githubsync"
	"teamboard/internal/models"
)

const syncLogDefaultLimit = 100

func (s *Server) requireSync(w http.ResponseWriter, r *http.Request) bool {
	if s.syncEngine != nil {
		return true
	}
	s.writeErrorReq(w, r, http.StatusConflict,
		conflictCode(fmt.Errorf("github sync is not configured"), ErrCodeNoCredentials))
	return false
}

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	if !s.requireSync(w, r) {
		return
	}
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}

	var req api.LinkRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	scope, err := requireScope(req.Scope)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}
	if req.IssueNumber <= 0 {
		s.writeErrorReq(w, r, http.StatusBadRequest,
			badRequestCode(fmt.Errorf("issue_number must be positive"), ErrCodeInvalidArgument))
		return
	}

	if _, err := s.syncEngine.Link(r.Context(), id, scope, req.IssueNumber); err != nil {
		s.writeServiceError(w, r, mapDomainError(err))
		return
	}

	resp, err := s.service.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUnlink(w http.ResponseWriter, r *http.Request) {
	if !s.requireSync(w, r) {
		return
	}
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}

	if err := s.syncEngine.Unlink(r.Context(), id); err != nil {
		s.writeServiceError(w, r, mapDomainError(err))
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) handleCreateIssue(w http.ResponseWriter, r *http.Request) {
	if !s.requireSync(w, r) {
		return
	}
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}

	var req api.CreateIssueRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	scope, err := requireScope(req.Scope)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	if _, err := s.syncEngine.CreateFromTask(r.Context(), id, scope, models.TriggerManual); err != nil {
		s.writeServiceError(w, r, mapDomainError(err))
		return
	}

	resp, err := s.service.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleSyncTask(w http.ResponseWriter, r *http.Request) {
	if !s.requireSync(w, r) {
		return
	}
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}

	if err := s.syncEngine.Push(r.Context(), id, models.TriggerManual); err != nil {
		s.writeServiceError(w, r, mapDomainError(err))
		return
	}

	resp, err := s.service.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResolveConflict(w http.ResponseWriter, r *http.Request) {
	if !s.requireSync(w, r) {
		return
	}
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}

	var req api.ResolveConflictRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	var keepLocal bool
	switch req.Resolution {
	case "keep_local":
		keepLocal = true
	case "keep_external":
		keepLocal = false
	default:
		s.writeErrorReq(w, r, http.StatusBadRequest,
			badRequestCode(fmt.Errorf("resolution must be keep_local or keep_external"), ErrCodeInvalidArgument))
		return
	}

	if err := s.syncEngine.ResolveConflict(r.Context(), id, keepLocal); err != nil {
		s.writeServiceError(w, r, mapDomainError(err))
		return
	}

	resp, err := s.service.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSyncLog(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}
	if limit == 0 {
		limit = syncLogDefaultLimit
	}

	entries, err := s.store.ListSyncLog(r.Context(), id, limit)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if entries == nil {
		entries = []models.SyncLogEntry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleImportAll(w http.ResponseWriter, r *http.Request) {
	s.handleBulkSync(w, r, "import", func(scope string) (*githubsync.BulkResult, error) {
		return s.syncEngine.ImportAll(r.Context(), scope)
	})
}

func (s *Server) handleExportAll(w http.ResponseWriter, r *http.Request) {
	s.handleBulkSync(w, r, "export", func(scope string) (*githubsync.BulkResult, error) {
		return s.syncEngine.ExportAll(r.Context(), scope)
	})
}

func (s *Server) handleBulkSync(w http.ResponseWriter, r *http.Request, name string, run func(scope string) (*githubsync.BulkResult, error)) {
	if !s.requireSync(w, r) {
		return
	}
	if !s.acquireLimiter(s.bulkLimiter, w, r, name) {
		return
	}
	defer s.releaseLimiter(s.bulkLimiter)

	var req api.BulkSyncRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	scope, err := requireScope(req.Scope)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	result, err := run(scope)
	if err != nil {
		s.writeServiceError(w, r, mapDomainError(err))
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePutScopeCredential(w http.ResponseWriter, r *http.Request) {
	if !s.requireSync(w, r) {
		return
	}

	var req api.ScopeCredentialRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	scope, err := requireScope(req.Scope)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	err = s.syncEngine.StoreCredential(r.Context(), githubsync.CredentialUpdate{
		Scope:         scope,
		TeamID:        req.TeamID,
		Token:         req.Token,
		WebhookSecret: req.WebhookSecret,
		SyncEnabled:   req.SyncEnabled,
	})
	if err != nil {
		s.writeServiceError(w, r, mapDomainError(err))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"scope": scope})
}

func (s *Server) handlePutUserMapping(w http.ResponseWriter, r *http.Request) {
	var req api.UserMappingRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	memberID, err := requireMemberID(req.MemberID)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}
	if req.GithubLogin == "" {
		s.writeErrorReq(w, r, http.StatusBadRequest,
			badRequestCode(errors.New("github_login is required"), ErrCodeMissingRequired))
		return
	}

	member, err := s.store.GetMember(r.Context(), memberID)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if member == nil {
		s.writeErrorReq(w, r, http.StatusNotFound,
			notFoundCode(fmt.Errorf("member not found: %s", memberID), ErrCodeMemberNotFound))
		return
	}

	if err := s.store.UpsertUserMapping(r.Context(), memberID, req.GithubLogin); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, models.UserMapping{MemberID: memberID, GithubLogin: req.GithubLogin})
}
