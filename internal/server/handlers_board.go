package server

import (
	"fmt"
	"net/http"
	"strings"

	"teamboard/internal/api"
	"teamboard/internal/models"
	"teamboard/internal/store"
)

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var req api.MemberCreateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	teamID := strings.TrimSpace(req.TeamID)
	name := strings.TrimSpace(req.DisplayName)
	if teamID == "" || name == "" {
		s.writeErrorReq(w, r, http.StatusBadRequest,
			badRequestCode(fmt.Errorf("team_id and display_name are required"), ErrCodeMissingRequired))
		return
	}

	ctx := r.Context()
	member := &models.Member{
		TeamID:      teamID,
		DisplayName: name,
		IsLeader:    req.IsLeader,
		CreatedAt:   s.service.now().UTC(),
	}
	id, err := store.GenerateID("mb", func(candidate string) (bool, error) {
		existing, err := s.store.GetMember(ctx, candidate)
		return existing != nil, err
	})
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	member.ID = id

	if err := s.store.CreateMember(ctx, member); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, member)
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if !validateMemberID(id) {
		s.writeErrorReq(w, r, http.StatusBadRequest,
			badRequestCode(fmt.Errorf("invalid id"), ErrCodeInvalidID))
		return
	}

	member, err := s.store.GetMember(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if member == nil {
		s.writeErrorReq(w, r, http.StatusNotFound,
			notFoundCode(fmt.Errorf("member not found: %s", id), ErrCodeMemberNotFound))
		return
	}
	s.writeJSON(w, http.StatusOK, member)
}

func (s *Server) handleCreateColumn(w http.ResponseWriter, r *http.Request) {
	var req api.ColumnCreateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	teamID := strings.TrimSpace(req.TeamID)
	name := strings.TrimSpace(req.Name)
	if teamID == "" || name == "" {
		s.writeErrorReq(w, r, http.StatusBadRequest,
			badRequestCode(fmt.Errorf("team_id and name are required"), ErrCodeMissingRequired))
		return
	}

	ctx := r.Context()
	column := &models.Column{
		TeamID:    teamID,
		Name:      name,
		IsDefault: req.IsDefault,
		Position:  req.Position,
		CreatedAt: s.service.now().UTC(),
	}
	id, err := store.GenerateColumnID(func(candidate string) (bool, error) {
		existing, err := s.store.GetColumn(ctx, candidate)
		return existing != nil, err
	})
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	column.ID = id

	if err := s.store.CreateColumn(ctx, column); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, column)
}

func (s *Server) handleListColumns(w http.ResponseWriter, r *http.Request) {
	teamID := strings.TrimSpace(r.URL.Query().Get("team_id"))
	if teamID == "" {
		s.writeErrorReq(w, r, http.StatusBadRequest,
			badRequestCode(fmt.Errorf("team_id is required"), ErrCodeMissingRequired))
		return
	}

	columns, err := s.store.ListColumns(r.Context(), teamID)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if columns == nil {
		columns = []models.Column{}
	}
	s.writeJSON(w, http.StatusOK, columns)
}
