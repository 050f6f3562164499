// Package workflow holds the task status state machine and field validation.
//
// Transitions mutate the task passed in only when they succeed, so callers can
// follow a read-compute-replace cycle without partial writes.
package workflow

import (
	"fmt"
	"strings"
	"time"

	"novatask/internal/models"
)

// Complete moves a pending task to completed on behalf of one of its executors.
func Complete(task *models.Task, actorID string, now time.Time) error {
	if err := requireStatus(task, models.StatusPending, "complete"); err != nil {
		return err
	}
	if !task.HasExecutor(actorID) {
		return fmt.Errorf("%w: %s is not an executor of %s", ErrPermissionDenied, actorLabel(actorID), task.ID)
	}
	at := now.UTC()
	task.Status = string(models.StatusCompleted)
	task.CompletedAt = &at
	task.UpdatedAt = at
	return nil
}

// Verify accepts a completed task on behalf of its responsible verifier.
func Verify(task *models.Task, actorID string, now time.Time) error {
	if err := requireVerifier(task, actorID, "verify"); err != nil {
		return err
	}
	at := now.UTC()
	task.Status = string(models.StatusVerified)
	task.VerifiedAt = &at
	task.UpdatedAt = at
	return nil
}

// Reject sends a completed task back to pending and clears its completion time.
func Reject(task *models.Task, actorID string, now time.Time) error {
	if err := requireVerifier(task, actorID, "reject"); err != nil {
		return err
	}
	task.Status = string(models.StatusPending)
	task.CompletedAt = nil
	task.UpdatedAt = now.UTC()
	return nil
}

// CheckTimestamps reports whether completion and verification times agree with status.
func CheckTimestamps(task models.Task) error {
	status := models.TaskStatus(task.Status)
	wantCompleted := status == models.StatusCompleted || status == models.StatusVerified
	if (task.CompletedAt != nil) != wantCompleted {
		return fmt.Errorf("completed_at inconsistent with status %s", task.Status)
	}
	if (task.VerifiedAt != nil) != (status == models.StatusVerified) {
		return fmt.Errorf("verified_at inconsistent with status %s", task.Status)
	}
	return nil
}

func requireVerifier(task *models.Task, actorID, op string) error {
	if err := requireStatus(task, models.StatusCompleted, op); err != nil {
		return err
	}
	if actorID == "" || task.ResponsibleID != actorID {
		return fmt.Errorf("%w: %s is not the verifier of %s", ErrPermissionDenied, actorLabel(actorID), task.ID)
	}
	return nil
}

func requireStatus(task *models.Task, want models.TaskStatus, op string) error {
	if task == nil {
		return fmt.Errorf("task is required")
	}
	if task.Status != string(want) {
		return fmt.Errorf("%w: cannot %s task in status %s", ErrInvalidTransition, op, task.Status)
	}
	return nil
}

func actorLabel(actorID string) string {
	if strings.TrimSpace(actorID) == "" {
		return "anonymous actor"
	}
	return actorID
}
