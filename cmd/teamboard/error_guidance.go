package main

import (
	"context"
	"errors"
	"net"

	"teamboard/internal/api"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.IsAuth():
			lines = append(lines, "hint: verify TEAMBOARD_API_TOKEN configuration.")
		case apiErr.IsThrottled():
			lines = append(lines, "hint: retry shortly or reduce concurrent import/export requests.")
		case apiErr.IsConflict():
			lines = append(lines, "hint: the task is not in a state that allows this command; try 'teamboard show <id>'.")
		}
		if apiErr.Code == "" {
			lines = append(lines, "hint: verify TEAMBOARD_API_URL points to a teamboard server.")
		}
		if apiErr.Status >= 500 {
			lines = append(lines, "hint: server returned an internal error; check server logs for details.")
		}
		return uniqueLines(lines)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: request timed out; check server health or increase TEAMBOARD_HTTP_TIMEOUT.")
		return uniqueLines(lines)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		lines = append(lines,
			"hint: ensure a teamboard server is running at TEAMBOARD_API_URL.",
			"hint: start the local server manually with: teamboard srv",
		)
		return uniqueLines(lines)
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
