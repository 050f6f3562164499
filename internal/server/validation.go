package server

import (
	"fmt"
	"regexp"
	"strings"

	"novatask/internal/api"
	"novatask/internal/models"
)

var idRegex = regexp.MustCompile(`^[a-z0-9_]+-[0-9a-z]{6}$`)

func validateID(id string) bool {
	return idRegex.MatchString(id)
}

func normalizeStatus(value string) (string, error) {
	status, err := models.ParseTaskStatus(value)
	if err != nil {
		return "", badRequestCode(err, ErrCodeInvalidStatus)
	}
	return string(status), nil
}

// normalizePriority parses value, falling back to the default priority when blank.
func normalizePriority(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return string(models.DefaultPriority), nil
	}
	priority, err := models.ParseTaskPriority(value)
	if err != nil {
		return "", badRequestCode(err, ErrCodeInvalidPriority)
	}
	return string(priority), nil
}

func normalizeStatuses(values []string) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, value := range values {
		status, err := normalizeStatus(value)
		if err != nil {
			return nil, err
		}
		out = append(out, status)
	}
	return out, nil
}

func normalizeImageRefs(refs []string) ([]string, error) {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			return nil, badRequest(fmt.Errorf("image reference cannot be empty"))
		}
		out = append(out, ref)
	}
	return out, nil
}

// updateForbiddenFields are task fields that only workflow transitions may change.
var updateForbiddenFields = []string{"id", "status", "created_at", "updated_at", "completed_at", "verified_at"}

func checkUpdateFields(raw map[string]any) error {
	for _, field := range updateForbiddenFields {
		if _, ok := raw[field]; ok {
			return badRequestCode(fmt.Errorf("%s cannot be set by update", field), ErrCodeImmutableField)
		}
	}
	return nil
}

// updateRequiredFields cannot be cleared with an explicit null.
var updateRequiredFields = []string{"title", "project_name", "priority"}

// applyUpdateNulls turns explicit JSON nulls into clears, which the pointer
// fields of api.TaskUpdateRequest cannot express on their own.
func applyUpdateNulls(raw map[string]any, req *api.TaskUpdateRequest) error {
	isNull := func(field string) bool {
		value, ok := raw[field]
		return ok && value == nil
	}
	for _, field := range updateRequiredFields {
		if isNull(field) {
			return badRequestCode(fmt.Errorf("%s cannot be null", field), ErrCodeMissingRequired)
		}
	}
	empty := ""
	if isNull("description") {
		req.Description = &empty
	}
	if isNull("due_date") {
		req.DueDate = &empty
	}
	if isNull("responsible_id") {
		req.ResponsibleID = &empty
	}
	if isNull("executor_ids") {
		req.ExecutorIDs = &[]string{}
	}
	if isNull("images") {
		req.Images = &[]string{}
	}
	return nil
}
