package server

import (
	"fmt"
	"regexp"
	"strings"

	"teamboard/internal/models"
)

var (
	taskIDRegex   = regexp.MustCompile(`^tk-[0-9a-z]{6}$`)
	memberIDRegex = regexp.MustCompile(`^[a-z]{2}-[0-9a-z]{6}$`)
	scopeRegex    = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)
)

func validateTaskID(id string) bool {
	return taskIDRegex.MatchString(id)
}

func validateMemberID(id string) bool {
	return memberIDRegex.MatchString(id)
}

func validateScope(scope string) bool {
	return scopeRegex.MatchString(scope)
}

func requireMemberID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", badRequestCode(fmt.Errorf("member_id is required"), ErrCodeMissingRequired)
	}
	if !validateMemberID(id) {
		return "", badRequestCode(fmt.Errorf("invalid member id: %s", id), ErrCodeInvalidID)
	}
	return id, nil
}

func requireScope(scope string) (string, error) {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return "", badRequestCode(fmt.Errorf("scope is required"), ErrCodeMissingRequired)
	}
	if !validateScope(scope) {
		return "", badRequestCode(fmt.Errorf("scope must be owner/repo"), ErrCodeInvalidScope)
	}
	return scope, nil
}

func normalizeStatus(value string) (models.WorkflowStatus, error) {
	status, err := models.ParseWorkflowStatus(value)
	if err != nil {
		return "", badRequestCode(err, ErrCodeInvalidStatus)
	}
	return status, nil
}

func normalizePriority(value string) (models.Priority, error) {
	priority, err := models.ParsePriority(value)
	if err != nil {
		return "", badRequestCode(err, ErrCodeInvalidPriority)
	}
	return priority, nil
}
