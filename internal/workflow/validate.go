package workflow

import (
	"fmt"
	"strings"
)

// Projects is the fixed set of project names tasks may belong to.
type Projects []string

// Contains reports whether name is a configured project.
func (p Projects) Contains(name string) bool {
	for _, project := range p {
		if project == name {
			return true
		}
	}
	return false
}

// ValidateTitle trims a title and rejects empty values.
func ValidateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", ErrValidation)
	}
	return title, nil
}

// ValidateProject checks project membership.
func ValidateProject(projects Projects, raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("%w: project_name is required", ErrValidation)
	}
	if !projects.Contains(name) {
		return "", fmt.Errorf("%w: unknown project: %s", ErrValidation, name)
	}
	return name, nil
}

// NormalizeUserIDs trims ids, drops blanks and duplicates, and keeps first-seen order.
func NormalizeUserIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
