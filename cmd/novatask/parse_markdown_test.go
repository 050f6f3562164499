package main

import (
	"os"
	"reflect"
	"testing"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestParseMarkdown(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantItems []string
		wantKeys  []string
		wantErr   bool
	}{
		{name: "items only", input: "- one\n- two\n", wantItems: []string{"one", "two"}},
		{name: "front matter", input: "---\nproject: alpha\n---\n- one\n", wantItems: []string{"one"}, wantKeys: []string{"project"}},
		{name: "skips blank items", input: "-   \n* kept\n", wantItems: []string{"kept"}},
		{name: "unclosed front matter", input: "---\nproject: alpha\n- one\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			front, items, err := parseMarkdown(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if !reflect.DeepEqual(items, tt.wantItems) {
				t.Fatalf("expected items %v, got %v", tt.wantItems, items)
			}
			for _, key := range tt.wantKeys {
				if _, ok := front[key]; !ok {
					t.Fatalf("missing front matter key %s", key)
				}
			}
		})
	}
}

func TestFrontMatterToDraft(t *testing.T) {
	front, _, err := parseMarkdown("---\nproject: alpha\npriority: high\ndue_date: \"2026-11-01\"\nverifier: bob\nexecutors: alice, carol\n---\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	draft := frontMatterToDraft(front)
	if draft.req.ProjectName != "alpha" || draft.req.Priority != "high" || draft.req.DueDate != "2026-11-01" {
		t.Fatalf("unexpected request defaults: %+v", draft.req)
	}
	if draft.verifier == nil || *draft.verifier != "bob" {
		t.Fatalf("expected verifier bob, got %v", draft.verifier)
	}
	if !reflect.DeepEqual(draft.executors, []string{"alice", "carol"}) {
		t.Fatalf("unexpected executors: %v", draft.executors)
	}
}

func TestActorName(t *testing.T) {
	t.Setenv(actorEnvKey, "env-user")
	if name, _ := actorName("  flag-user "); name != "flag-user" {
		t.Fatalf("expected flag precedence, got %q", name)
	}
	if name, _ := actorName(""); name != "env-user" {
		t.Fatalf("expected env fallback, got %q", name)
	}
	t.Setenv(actorEnvKey, "")
	if _, err := actorName(""); err == nil {
		t.Fatal("expected error without an acting user")
	}
}
