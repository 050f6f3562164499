package models

import (
	"strings"
	"testing"
)

func TestParseTaskStatus(t *testing.T) {
	got, err := ParseTaskStatus(" PENDING ")
	if err != nil {
		t.Fatalf("parse status: %v", err)
	}
	if got != StatusPending {
		t.Fatalf("expected %q, got %q", StatusPending, got)
	}

	if _, err := ParseTaskStatus("closed"); err == nil || !strings.Contains(err.Error(), "pending, completed, verified") {
		t.Fatalf("expected invalid status error listing statuses, got %v", err)
	}
	if _, err := ParseTaskStatus(""); err == nil {
		t.Fatal("expected required status error")
	}
}

func TestParseTaskPriority(t *testing.T) {
	got, err := ParseTaskPriority(" High ")
	if err != nil {
		t.Fatalf("parse priority: %v", err)
	}
	if got != PriorityHigh {
		t.Fatalf("expected %q, got %q", PriorityHigh, got)
	}

	if _, err := ParseTaskPriority("urgent"); err == nil {
		t.Fatal("expected invalid priority error")
	}
}

func TestRanks(t *testing.T) {
	if !(PriorityRank("high") > PriorityRank("medium") && PriorityRank("medium") > PriorityRank("low")) {
		t.Fatal("expected high > medium > low")
	}
	if PriorityRank("bogus") != 0 {
		t.Fatalf("expected unknown priority rank 0, got %d", PriorityRank("bogus"))
	}
	if !(StatusRank("pending") > StatusRank("completed") && StatusRank("completed") > StatusRank("verified")) {
		t.Fatal("expected pending > completed > verified")
	}
}

func TestTaskInvolves(t *testing.T) {
	task := Task{ResponsibleID: "u-b", ExecutorIDs: []string{"u-a"}}
	if !task.HasExecutor("u-a") || task.HasExecutor("u-b") {
		t.Fatal("unexpected executor membership")
	}
	if !task.Involves("u-a") || !task.Involves("u-b") {
		t.Fatal("expected executor and verifier to be involved")
	}
	if task.Involves("u-c") || task.Involves("") {
		t.Fatal("expected unrelated and empty ids to be excluded")
	}
}

func TestUnknownUser(t *testing.T) {
	u := UnknownUser("u-gone")
	if !u.IsUnknown() || u.ID != "u-gone" || u.Name != UnknownUserName {
		t.Fatalf("unexpected sentinel: %+v", u)
	}
}
