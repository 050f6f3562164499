package main

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var listItemRegex = regexp.MustCompile(`^\s*[-*]\s+(.*)$`)

func parseMarkdown(input string) (map[string]any, []string, error) {
	frontMatter := map[string]any{}
	content := input

	lines := strings.Split(input, "\n")
	if len(lines) >= 3 && strings.TrimSpace(lines[0]) == "---" {
		end := -1
		for i := 1; i < len(lines); i++ {
			if strings.TrimSpace(lines[i]) == "---" {
				end = i
				break
			}
		}
		if end == -1 {
			return nil, nil, fmt.Errorf("front matter not closed")
		}
		frontText := strings.Join(lines[1:end], "\n")
		if err := yaml.Unmarshal([]byte(frontText), &frontMatter); err != nil {
			return nil, nil, err
		}
		content = strings.Join(lines[end+1:], "\n")
	}

	items := []string{}
	for _, line := range strings.Split(content, "\n") {
		match := listItemRegex.FindStringSubmatch(line)
		if len(match) == 2 {
			item := strings.TrimSpace(match[1])
			if item != "" {
				items = append(items, item)
			}
		}
	}

	return frontMatter, items, nil
}

// frontMatterToDraft reads the batch defaults: project, priority,
// description, due_date, verifier and executors.
func frontMatterToDraft(frontMatter map[string]any) taskDraft {
	draft := taskDraft{}

	if value, ok := frontMatter["project"].(string); ok {
		draft.req.ProjectName = value
	}
	if value, ok := frontMatter["priority"].(string); ok {
		draft.req.Priority = value
	}
	if value, ok := frontMatter["description"].(string); ok {
		draft.req.Description = value
	}
	switch v := frontMatter["due_date"].(type) {
	case string:
		draft.req.DueDate = v
	case time.Time:
		// Explicit !!timestamp values decode as time.Time.
		draft.req.DueDate = v.UTC().Format(time.RFC3339)
	}
	if value, ok := frontMatter["verifier"].(string); ok {
		draft.verifier = &value
	}
	if value, ok := frontMatter["executors"]; ok {
		draft.executors = toStringSlice(value)
	}

	return draft
}

func toStringSlice(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return splitCommaList(v)
	}
	return nil
}
