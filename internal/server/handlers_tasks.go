package server

import (
	"net/http"

	"teamboard/internal/api"
	"teamboard/internal/store"
)

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req api.TaskCreateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	resp, err := s.service.Create(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}

	resp, err := s.service.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}

	var req api.TaskUpdateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	resp, err := s.service.Update(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}

	if err := s.service.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	filter := store.ListFilter{
		TeamID:   r.URL.Query().Get("team_id"),
		ColumnID: r.URL.Query().Get("column_id"),
	}
	for _, raw := range splitCSV(r.URL.Query().Get("status")) {
		status, err := normalizeStatus(raw)
		if err != nil {
			s.writeErrorReq(w, r, http.StatusBadRequest, err)
			return
		}
		filter.Statuses = append(filter.Statuses, string(status))
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}
	filter.Limit = limit
	filter.Offset = offset

	responses, err := s.service.List(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, responses)
}

// handleCommand serves every workflow command route; the command name is
// baked into the pattern and passed through.
func (s *Server) handleCommand(command string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathIDOrBadRequest(w, r)
		if !ok {
			return
		}

		var req api.CommandRequest
		if r.ContentLength != 0 {
			if !s.decodeJSONReq(w, r, &req) {
				return
			}
		}

		resp, err := s.service.Command(r.Context(), id, command, req)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}

		s.writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleAddRole(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}

	var req api.RoleRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	resp, err := s.service.AddRole(r.Context(), id, r.PathValue("role"), req.MemberID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRemoveRole(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}

	var req api.RoleRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	resp, err := s.service.RemoveRole(r.Context(), id, r.PathValue("role"), req.MemberID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}
