package main

import (
	"context"
	"errors"
	"net"

	"novatask/internal/api"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case "unauthorized":
			lines = append(lines, "hint: verify NOVATASK_API_TOKEN matches the server token.")
		case "permission_denied":
			lines = append(lines, "hint: only executors may complete a task and only its verifier may verify or reject it; check --as or "+actorEnvKey+".")
		case "invalid_transition":
			lines = append(lines, "hint: tasks move pending -> completed -> verified; run novatask show <id> to see the current status.")
		}
		if apiErr.Code == "" {
			lines = append(lines, "hint: verify NOVATASK_API_URL points to a novatask server.")
		}
		if apiErr.Status >= 500 {
			lines = append(lines, "hint: server returned an internal error; check server logs for details.")
		}
		return uniqueLines(lines)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: request timed out; check server health or increase NOVATASK_HTTP_TIMEOUT.")
		return uniqueLines(lines)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		lines = append(lines,
			"hint: ensure a novatask server is running at NOVATASK_API_URL.",
			"hint: start local server manually with: novatask srv",
			"hint: you can increase NOVATASK_HTTP_TIMEOUT for slower environments.",
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
