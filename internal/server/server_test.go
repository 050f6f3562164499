package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"novatask/internal/api"
	"novatask/internal/auth"
	"novatask/internal/blobstore"
	"novatask/internal/config"
	"novatask/internal/models"
	"novatask/internal/store"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func newTestServer(t *testing.T, opts Options) (*Server, http.Handler) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	blobs, err := blobstore.NewLocalCAS(filepath.Join(dir, "blobs"), 1024)
	if err != nil {
		t.Fatalf("open blobstore: %v", err)
	}

	if len(opts.Projects) == 0 {
		opts.Projects = []string{"alpha", "beta"}
	}
	if len(opts.AllowedMediaTypes) == 0 {
		opts.AllowedMediaTypes = config.DefaultImageMediaTypes
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New("127.0.0.1:0", st, blobs, opts, logger)
	return srv, srv.routes()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func login(t *testing.T, h http.Handler, name string) string {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/v1/login", api.LoginRequest{Name: name})
	if w.Code != http.StatusOK && w.Code != http.StatusCreated {
		t.Fatalf("login %s: status %d body %s", name, w.Code, w.Body.String())
	}
	return decodeBody[api.LoginResponse](t, w).User.ID
}

func createTask(t *testing.T, h http.Handler, req api.TaskCreateRequest) api.TaskResponse {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/v1/tasks", req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create task: status %d body %s", w.Code, w.Body.String())
	}
	return decodeBody[api.TaskResponse](t, w)
}

func strPtr(s string) *string { return &s }

func TestListenAddrRemoteGuard(t *testing.T) {
	t.Run("allows loopback", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "")
		addr, err := ListenAddr("http://127.0.0.1:7433")
		if err != nil {
			t.Fatalf("expected loopback to be allowed, got error: %v", err)
		}
		if addr != "127.0.0.1:7433" {
			t.Fatalf("unexpected addr: %s", addr)
		}
	})

	t.Run("blocks non-loopback by default", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "")
		if _, err := ListenAddr("http://0.0.0.0:7433"); err == nil {
			t.Fatal("expected error for non-loopback listen host")
		}
	})

	t.Run("allows non-loopback when explicitly enabled", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "true")
		addr, err := ListenAddr("http://0.0.0.0:7433")
		if err != nil {
			t.Fatalf("expected allow-remote to permit host, got error: %v", err)
		}
		if addr != "0.0.0.0:7433" {
			t.Fatalf("unexpected addr: %s", addr)
		}
	})
}

func TestWithAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		tokens *auth.TokenVerifier
		path   string
		header string
		want   int
	}{
		{name: "no token configured", tokens: nil, path: "/v1/tasks", want: http.StatusNoContent},
		{name: "missing auth", tokens: auth.NewTokenVerifier("token-0123456789abcdef", ""), path: "/v1/tasks", want: http.StatusUnauthorized},
		{name: "wrong token", tokens: auth.NewTokenVerifier("token-0123456789abcdef", ""), path: "/v1/tasks", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "valid token", tokens: auth.NewTokenVerifier("token-0123456789abcdef", ""), path: "/v1/tasks", header: "Bearer token-0123456789abcdef", want: http.StatusNoContent},
		{name: "health is open", tokens: auth.NewTokenVerifier("token-0123456789abcdef", ""), path: "/health", want: http.StatusNoContent},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := &Server{tokens: tc.tokens}
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			srv.withAuth(next).ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
			if tc.want == http.StatusUnauthorized {
				errResp := decodeBody[api.ErrorResponse](t, w)
				if errResp.ErrorCode != ErrCodeUnauthorized {
					t.Fatalf("expected error_code %d, got %d", ErrCodeUnauthorized, errResp.ErrorCode)
				}
			}
		})
	}
}

func TestWorkflowScenario(t *testing.T) {
	_, h := newTestServer(t, Options{})
	alice := login(t, h, "alice")
	bob := login(t, h, "bob")

	task := createTask(t, h, api.TaskCreateRequest{
		Title:         "  Write report ",
		ProjectName:   "alpha",
		ResponsibleID: strPtr(bob),
		ExecutorIDs:   []string{alice, alice},
	})
	if task.Title != "Write report" {
		t.Fatalf("expected trimmed title, got %q", task.Title)
	}
	if task.Status != "pending" || task.Priority != "medium" {
		t.Fatalf("unexpected defaults: status=%s priority=%s", task.Status, task.Priority)
	}
	if len(task.ExecutorIDs) != 1 {
		t.Fatalf("expected de-duplicated executors, got %v", task.ExecutorIDs)
	}
	if task.Responsible == nil || task.Responsible.Name != "bob" {
		t.Fatalf("expected resolved verifier bob, got %+v", task.Responsible)
	}

	base := "/v1/tasks/" + task.ID
	w := doJSON(t, h, http.MethodPost, base+"/complete", api.TransitionRequest{ActorID: alice})
	if w.Code != http.StatusOK {
		t.Fatalf("complete: %d %s", w.Code, w.Body.String())
	}
	completed := decodeBody[api.TaskResponse](t, w)
	if completed.Status != "completed" || completed.CompletedAt == nil {
		t.Fatalf("unexpected completed task: %+v", completed.Task)
	}

	w = doJSON(t, h, http.MethodPost, base+"/reject", api.TransitionRequest{ActorID: bob})
	if w.Code != http.StatusOK {
		t.Fatalf("reject: %d %s", w.Code, w.Body.String())
	}
	rejected := decodeBody[api.TaskResponse](t, w)
	if rejected.Status != "pending" || rejected.CompletedAt != nil {
		t.Fatalf("reject should reset to pending: %+v", rejected.Task)
	}

	doJSON(t, h, http.MethodPost, base+"/complete", api.TransitionRequest{ActorID: alice})
	w = doJSON(t, h, http.MethodPost, base+"/verify", api.TransitionRequest{ActorID: bob})
	if w.Code != http.StatusOK {
		t.Fatalf("verify: %d %s", w.Code, w.Body.String())
	}
	verified := decodeBody[api.TaskResponse](t, w)
	if verified.Status != "verified" || verified.VerifiedAt == nil || verified.CompletedAt == nil {
		t.Fatalf("unexpected verified task: %+v", verified.Task)
	}

	w = doJSON(t, h, http.MethodPost, base+"/verify", api.TransitionRequest{ActorID: bob})
	if w.Code != http.StatusConflict {
		t.Fatalf("verify twice: expected 409, got %d", w.Code)
	}
	if errResp := decodeBody[api.ErrorResponse](t, w); errResp.Code != "invalid_transition" || errResp.ErrorCode != ErrCodeInvalidTransition {
		t.Fatalf("unexpected error: %+v", errResp)
	}
}

func TestTransitionErrors(t *testing.T) {
	_, h := newTestServer(t, Options{})
	alice := login(t, h, "alice")
	bob := login(t, h, "bob")
	carol := login(t, h, "carol")

	tests := []struct {
		name     string
		setup    []string // transitions applied first; complete runs as the executor, others as the verifier
		action   string
		actor    string
		want     int
		wantCode string
	}{
		{name: "non-executor cannot complete", action: "complete", actor: carol, want: http.StatusForbidden, wantCode: "permission_denied"},
		{name: "verifier cannot complete", action: "complete", actor: bob, want: http.StatusForbidden, wantCode: "permission_denied"},
		{name: "verify requires completed", action: "verify", actor: bob, want: http.StatusConflict, wantCode: "invalid_transition"},
		{name: "reject requires completed", action: "reject", actor: bob, want: http.StatusConflict, wantCode: "invalid_transition"},
		{name: "executor cannot verify", setup: []string{"complete"}, action: "verify", actor: alice, want: http.StatusForbidden, wantCode: "permission_denied"},
		{name: "outsider cannot reject", setup: []string{"complete"}, action: "reject", actor: carol, want: http.StatusForbidden, wantCode: "permission_denied"},
		{name: "complete twice", setup: []string{"complete"}, action: "complete", actor: alice, want: http.StatusConflict, wantCode: "invalid_transition"},
		{name: "status checked before permission", setup: []string{"complete", "verify"}, action: "verify", actor: carol, want: http.StatusConflict, wantCode: "invalid_transition"},
		{name: "blank actor", action: "complete", actor: "  ", want: http.StatusBadRequest, wantCode: "invalid_argument"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			task := createTask(t, h, api.TaskCreateRequest{
				Title:         tc.name,
				ProjectName:   "beta",
				ResponsibleID: strPtr(bob),
				ExecutorIDs:   []string{alice},
			})
			base := "/v1/tasks/" + task.ID
			for _, step := range tc.setup {
				actor := alice
				if step != "complete" {
					actor = bob
				}
				if w := doJSON(t, h, http.MethodPost, base+"/"+step, api.TransitionRequest{ActorID: actor}); w.Code != http.StatusOK {
					t.Fatalf("setup %s: %d %s", step, w.Code, w.Body.String())
				}
			}
			before := decodeBody[api.TaskResponse](t, doJSON(t, h, http.MethodGet, base, nil))

			w := doJSON(t, h, http.MethodPost, base+"/"+tc.action, api.TransitionRequest{ActorID: tc.actor})
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
			if errResp := decodeBody[api.ErrorResponse](t, w); errResp.Code != tc.wantCode {
				t.Fatalf("expected code %s, got %s", tc.wantCode, errResp.Code)
			}

			after := decodeBody[api.TaskResponse](t, doJSON(t, h, http.MethodGet, base, nil))
			if after.Status != before.Status || !after.UpdatedAt.Equal(before.UpdatedAt) {
				t.Fatalf("failed transition changed the task: before=%+v after=%+v", before.Task, after.Task)
			}
		})
	}
}

func TestTransitionNotFound(t *testing.T) {
	_, h := newTestServer(t, Options{})
	w := doJSON(t, h, http.MethodPost, "/v1/tasks/nt-zzzzzz/complete", api.TransitionRequest{ActorID: "someone"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	w = doJSON(t, h, http.MethodGet, "/v1/tasks/nt-zzzzzz", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if errResp := decodeBody[api.ErrorResponse](t, w); errResp.ErrorCode != ErrCodeTaskNotFound {
		t.Fatalf("expected error_code %d, got %d", ErrCodeTaskNotFound, errResp.ErrorCode)
	}
	w = doJSON(t, h, http.MethodGet, "/v1/tasks/not_an_id", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", w.Code)
	}
}

func TestMutationKeepsTimestampsConsistent(t *testing.T) {
	srv, h := newTestServer(t, Options{})
	alice := login(t, h, "alice")
	task := createTask(t, h, api.TaskCreateRequest{Title: "legacy", ProjectName: "alpha", ResponsibleID: strPtr(alice)})

	// A row written out of band: completed without a completion time.
	_, err := srv.store.MutateTask(context.Background(), task.ID, func(task *models.Task) error {
		task.Status = string(models.StatusCompleted)
		return nil
	})
	if err != nil {
		t.Fatalf("corrupt row: %v", err)
	}

	w := doJSON(t, h, http.MethodPost, "/v1/tasks/"+task.ID+"/verify", api.TransitionRequest{ActorID: alice})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for inconsistent timestamps, got %d %s", w.Code, w.Body.String())
	}
	got := decodeBody[api.TaskResponse](t, doJSON(t, h, http.MethodGet, "/v1/tasks/"+task.ID, nil))
	if got.Status != string(models.StatusCompleted) || got.VerifiedAt != nil {
		t.Fatalf("failed verify must not be stored: %+v", got.Task)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	_, h := newTestServer(t, Options{})

	tests := []struct {
		name string
		req  api.TaskCreateRequest
		code int
	}{
		{name: "blank title", req: api.TaskCreateRequest{Title: "   ", ProjectName: "alpha"}, code: ErrCodeMissingRequired},
		{name: "unknown project", req: api.TaskCreateRequest{Title: "x", ProjectName: "gamma"}, code: ErrCodeInvalidProject},
		{name: "bad priority", req: api.TaskCreateRequest{Title: "x", ProjectName: "alpha", Priority: "urgent"}, code: ErrCodeInvalidPriority},
		{name: "bad due date", req: api.TaskCreateRequest{Title: "x", ProjectName: "alpha", DueDate: "tomorrow"}, code: ErrCodeInvalidTime},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, h, http.MethodPost, "/v1/tasks", tc.req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
			if errResp := decodeBody[api.ErrorResponse](t, w); errResp.ErrorCode != tc.code {
				t.Fatalf("expected error_code %d, got %d", tc.code, errResp.ErrorCode)
			}
		})
	}
}

func TestBatchCreateIsAllOrNothing(t *testing.T) {
	_, h := newTestServer(t, Options{})

	w := doJSON(t, h, http.MethodPost, "/v1/tasks/batch", []api.TaskCreateRequest{
		{Title: "one", ProjectName: "alpha"},
		{Title: "two", ProjectName: "nowhere"},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if tasks := decodeBody[[]api.TaskResponse](t, doJSON(t, h, http.MethodGet, "/v1/tasks", nil)); len(tasks) != 0 {
		t.Fatalf("expected no tasks after failed batch, got %d", len(tasks))
	}

	w = doJSON(t, h, http.MethodPost, "/v1/tasks/batch", []api.TaskCreateRequest{
		{Title: "one", ProjectName: "alpha"},
		{Title: "two", ProjectName: "beta"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decodeBody[[]api.TaskResponse](t, w)
	if len(created) != 2 || created[0].ID == created[1].ID {
		t.Fatalf("unexpected batch result: %+v", created)
	}
}

func TestDefaultVerifier(t *testing.T) {
	_, h := newTestServer(t, Options{DefaultVerifier: "mila"})

	first := createTask(t, h, api.TaskCreateRequest{Title: "before login", ProjectName: "alpha"})
	if first.ResponsibleID != "" {
		t.Fatalf("expected no verifier before the default user exists, got %q", first.ResponsibleID)
	}

	mila := login(t, h, "mila")
	second := createTask(t, h, api.TaskCreateRequest{Title: "after login", ProjectName: "alpha"})
	if second.ResponsibleID != mila {
		t.Fatalf("expected default verifier %s, got %q", mila, second.ResponsibleID)
	}

	explicit := createTask(t, h, api.TaskCreateRequest{Title: "none", ProjectName: "alpha", ResponsibleID: strPtr("")})
	if explicit.ResponsibleID != "" {
		t.Fatalf("explicit empty verifier should stay empty, got %q", explicit.ResponsibleID)
	}
}

func TestUpdateTask(t *testing.T) {
	_, h := newTestServer(t, Options{})
	alice := login(t, h, "alice")
	task := createTask(t, h, api.TaskCreateRequest{Title: "draft", ProjectName: "alpha", DueDate: "2026-11-01", ResponsibleID: strPtr(alice)})
	path := "/v1/tasks/" + task.ID

	t.Run("edits fields", func(t *testing.T) {
		w := doJSON(t, h, http.MethodPatch, path, map[string]any{
			"title":          "final",
			"priority":       "HIGH",
			"project_name":   "beta",
			"due_date":       "",
			"responsible_id": "",
			"executor_ids":   []string{alice},
		})
		if w.Code != http.StatusOK {
			t.Fatalf("update: %d %s", w.Code, w.Body.String())
		}
		got := decodeBody[api.TaskResponse](t, w)
		if got.Title != "final" || got.Priority != "high" || got.ProjectName != "beta" {
			t.Fatalf("unexpected update result: %+v", got.Task)
		}
		if got.DueDate != nil || got.ResponsibleID != "" {
			t.Fatalf("expected cleared due date and verifier: %+v", got.Task)
		}
		if got.Status != "pending" {
			t.Fatalf("update must not change status, got %s", got.Status)
		}
	})

	for _, field := range []string{"status", "completed_at", "verified_at", "created_at"} {
		t.Run("rejects "+field, func(t *testing.T) {
			w := doJSON(t, h, http.MethodPatch, path, map[string]any{field: "verified"})
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if errResp := decodeBody[api.ErrorResponse](t, w); errResp.ErrorCode != ErrCodeImmutableField {
				t.Fatalf("expected error_code %d, got %d", ErrCodeImmutableField, errResp.ErrorCode)
			}
		})
	}

	t.Run("null clears optional fields", func(t *testing.T) {
		other := createTask(t, h, api.TaskCreateRequest{
			Title: "nullable", ProjectName: "alpha", Description: "notes", DueDate: "2026-11-01",
			ResponsibleID: strPtr(alice), ExecutorIDs: []string{alice},
		})
		w := doJSON(t, h, http.MethodPatch, "/v1/tasks/"+other.ID, map[string]any{
			"responsible_id": nil,
			"due_date":       nil,
			"description":    nil,
			"executor_ids":   nil,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("update: %d %s", w.Code, w.Body.String())
		}
		got := decodeBody[api.TaskResponse](t, w)
		if got.ResponsibleID != "" || got.DueDate != nil || got.Description != "" || len(got.ExecutorIDs) != 0 {
			t.Fatalf("expected null to clear fields: %+v", got.Task)
		}
	})

	for _, field := range []string{"title", "project_name", "priority"} {
		t.Run("rejects null "+field, func(t *testing.T) {
			w := doJSON(t, h, http.MethodPatch, path, map[string]any{field: nil})
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if errResp := decodeBody[api.ErrorResponse](t, w); errResp.ErrorCode != ErrCodeMissingRequired {
				t.Fatalf("expected error_code %d, got %d", ErrCodeMissingRequired, errResp.ErrorCode)
			}
		})
	}

	t.Run("rejects empty update", func(t *testing.T) {
		if w := doJSON(t, h, http.MethodPatch, path, map[string]any{}); w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("missing task", func(t *testing.T) {
		if w := doJSON(t, h, http.MethodPatch, "/v1/tasks/nt-000000", map[string]any{"title": "x"}); w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})
}

func TestListTasksOrderAndFilters(t *testing.T) {
	_, h := newTestServer(t, Options{})
	bob := login(t, h, "bob")
	first := createTask(t, h, api.TaskCreateRequest{Title: "first", ProjectName: "alpha"})
	second := createTask(t, h, api.TaskCreateRequest{Title: "second", ProjectName: "beta", ResponsibleID: strPtr(bob)})

	tasks := decodeBody[[]api.TaskResponse](t, doJSON(t, h, http.MethodGet, "/v1/tasks", nil))
	if len(tasks) != 2 || tasks[0].ID != second.ID || tasks[1].ID != first.ID {
		t.Fatalf("expected most recent first, got %+v", tasks)
	}

	tests := []struct {
		query string
		want  []string
	}{
		{query: "project=alpha", want: []string{first.ID}},
		{query: "responsible=" + bob, want: []string{second.ID}},
		{query: "status=PENDING", want: []string{second.ID, first.ID}},
		{query: "status=verified", want: nil},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			got := decodeBody[[]api.TaskResponse](t, doJSON(t, h, http.MethodGet, "/v1/tasks?"+tc.query, nil))
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d tasks, got %d", len(tc.want), len(got))
			}
			for i := range got {
				if got[i].ID != tc.want[i] {
					t.Fatalf("position %d: expected %s, got %s", i, tc.want[i], got[i].ID)
				}
			}
		})
	}

	if w := doJSON(t, h, http.MethodGet, "/v1/tasks?status=done", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", w.Code)
	}
	if w := doJSON(t, h, http.MethodGet, "/v1/tasks?limit=-1", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative limit, got %d", w.Code)
	}
}

func TestBoardAndStats(t *testing.T) {
	_, h := newTestServer(t, Options{})
	alice := login(t, h, "alice")
	bob := login(t, h, "bob")

	low := createTask(t, h, api.TaskCreateRequest{Title: "low", ProjectName: "alpha", Priority: "low", ExecutorIDs: []string{alice}, ResponsibleID: strPtr(bob)})
	high := createTask(t, h, api.TaskCreateRequest{Title: "high", ProjectName: "beta", Priority: "high", ExecutorIDs: []string{bob}})
	done := createTask(t, h, api.TaskCreateRequest{Title: "done", ProjectName: "alpha", ExecutorIDs: []string{alice}, ResponsibleID: strPtr(bob)})
	doJSON(t, h, http.MethodPost, "/v1/tasks/"+done.ID+"/complete", api.TransitionRequest{ActorID: alice})
	doJSON(t, h, http.MethodPost, "/v1/tasks/"+done.ID+"/verify", api.TransitionRequest{ActorID: bob})

	ids := func(tasks []api.TaskResponse) []string {
		out := make([]string, 0, len(tasks))
		for _, task := range tasks {
			out = append(out, task.ID)
		}
		return out
	}

	tests := []struct {
		query      string
		wantActive []string
		wantDone   []string
	}{
		{query: "", wantActive: []string{high.ID, low.ID}, wantDone: []string{done.ID}},
		{query: "tab=dashboard&user=" + alice, wantActive: []string{low.ID}, wantDone: []string{done.ID}},
		{query: "tab=dashboard&project=beta", wantActive: []string{high.ID, low.ID}, wantDone: []string{done.ID}},
		{query: "tab=projects&project=alpha", wantActive: []string{low.ID}, wantDone: []string{done.ID}},
		{query: "tab=projects&project=All", wantActive: []string{high.ID, low.ID}, wantDone: []string{done.ID}},
		{query: "tab=completed", wantActive: nil, wantDone: []string{done.ID}},
		{query: "tab=completed&project=beta", wantActive: nil, wantDone: nil},
	}
	for _, tc := range tests {
		t.Run("board?"+tc.query, func(t *testing.T) {
			w := doJSON(t, h, http.MethodGet, "/v1/board?"+tc.query, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("board: %d %s", w.Code, w.Body.String())
			}
			resp := decodeBody[api.BoardResponse](t, w)
			if got := ids(resp.Active); strings.Join(got, ",") != strings.Join(tc.wantActive, ",") {
				t.Fatalf("active: expected %v, got %v", tc.wantActive, got)
			}
			if got := ids(resp.Done); strings.Join(got, ",") != strings.Join(tc.wantDone, ",") {
				t.Fatalf("done: expected %v, got %v", tc.wantDone, got)
			}
		})
	}

	if w := doJSON(t, h, http.MethodGet, "/v1/board?tab=archive", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown tab, got %d", w.Code)
	}

	stats := decodeBody[api.StatsResponse](t, doJSON(t, h, http.MethodGet, "/v1/stats", nil))
	want := api.StatsResponse{Total: 3, Pending: 2, Reviewing: 0, Verified: 1, Projects: 2}
	if stats != want {
		t.Fatalf("expected stats %+v, got %+v", want, stats)
	}
}

func TestLoginAndUsers(t *testing.T) {
	srv, h := newTestServer(t, Options{})

	w := doJSON(t, h, http.MethodPost, "/v1/login", api.LoginRequest{Name: " Dana "})
	if w.Code != http.StatusCreated {
		t.Fatalf("first login: expected 201, got %d", w.Code)
	}
	first := decodeBody[api.LoginResponse](t, w)
	if !first.Created || first.User.Name != "Dana" || !strings.Contains(first.User.Avatar, "seed=Dana") {
		t.Fatalf("unexpected login response: %+v", first)
	}

	w = doJSON(t, h, http.MethodPost, "/v1/login", api.LoginRequest{Name: "Dana"})
	if w.Code != http.StatusOK {
		t.Fatalf("second login: expected 200, got %d", w.Code)
	}
	if again := decodeBody[api.LoginResponse](t, w); again.Created || again.User.ID != first.User.ID {
		t.Fatalf("expected the existing user, got %+v", again)
	}

	if w := doJSON(t, h, http.MethodPost, "/v1/login", api.LoginRequest{Name: "   "}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank name, got %d", w.Code)
	}

	if err := srv.Seed(context.Background(), []config.UserSeed{{Name: "Alex", Role: "Designer"}, {Name: "Dana"}}, nil); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := srv.Seed(context.Background(), []config.UserSeed{{Name: "Alex", Role: "Designer"}}, nil); err != nil {
		t.Fatalf("seed again: %v", err)
	}

	users := decodeBody[[]api.UserResponse](t, doJSON(t, h, http.MethodGet, "/v1/users", nil))
	if len(users) != 2 || users[0].Name != "Alex" || users[0].Role != "Designer" || users[1].Name != "Dana" {
		t.Fatalf("unexpected users: %+v", users)
	}

	if w := doJSON(t, h, http.MethodGet, "/v1/users/"+first.User.ID, nil); w.Code != http.StatusOK {
		t.Fatalf("get user: expected 200, got %d", w.Code)
	}
	w = doJSON(t, h, http.MethodGet, "/v1/users/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if errResp := decodeBody[api.ErrorResponse](t, w); errResp.ErrorCode != ErrCodeUserNotFound {
		t.Fatalf("expected error_code %d, got %d", ErrCodeUserNotFound, errResp.ErrorCode)
	}
}

func TestSeedTasks(t *testing.T) {
	srv, h := newTestServer(t, Options{})
	ctx := context.Background()
	users := []config.UserSeed{{Name: "Alex", Role: "Designer"}, {Name: "Dana"}}
	tasks := []config.TaskSeed{
		{Title: "Draft homepage", Project: "alpha", Priority: "high", Verifier: "Dana", Executors: []string{"Alex"}},
		{Title: "Fix login bug", Project: "beta"},
	}

	if err := srv.Seed(ctx, users, tasks); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := srv.Seed(ctx, users, tasks); err != nil {
		t.Fatalf("seed again: %v", err)
	}

	list := decodeBody[[]api.TaskResponse](t, doJSON(t, h, http.MethodGet, "/v1/tasks", nil))
	if len(list) != 2 {
		t.Fatalf("expected 2 seeded tasks once, got %d", len(list))
	}
	byTitle := map[string]api.TaskResponse{}
	for _, task := range list {
		byTitle[task.Title] = task
	}
	draft := byTitle["Draft homepage"]
	if draft.Priority != "high" || draft.Status != "pending" {
		t.Fatalf("unexpected seeded task: %+v", draft.Task)
	}
	if draft.Responsible == nil || draft.Responsible.Name != "Dana" {
		t.Fatalf("expected Dana as verifier, got %+v", draft.Responsible)
	}
	if len(draft.Executors) != 1 || draft.Executors[0].Name != "Alex" {
		t.Fatalf("expected Alex as executor, got %+v", draft.Executors)
	}

	t.Run("unknown user name", func(t *testing.T) {
		fresh, _ := newTestServer(t, Options{})
		err := fresh.Seed(ctx, nil, []config.TaskSeed{{Title: "x", Project: "alpha", Verifier: "nobody"}})
		if err == nil || !strings.Contains(err.Error(), "nobody") {
			t.Fatalf("expected unknown user error, got %v", err)
		}
	})
}

func TestDanglingUserRendersUnknown(t *testing.T) {
	_, h := newTestServer(t, Options{})
	task := createTask(t, h, api.TaskCreateRequest{
		Title:         "orphan",
		ProjectName:   "alpha",
		ResponsibleID: strPtr("ghost"),
		ExecutorIDs:   []string{"ghost-2"},
	})
	if task.Responsible == nil || task.Responsible.Name != "unknown" || task.Responsible.ID != "ghost" {
		t.Fatalf("expected unknown verifier, got %+v", task.Responsible)
	}
	if len(task.Executors) != 1 || task.Executors[0].Name != "unknown" {
		t.Fatalf("expected unknown executor, got %+v", task.Executors)
	}
}

func TestImageUpload(t *testing.T) {
	_, h := newTestServer(t, Options{})
	task := createTask(t, h, api.TaskCreateRequest{Title: "screenshot", ProjectName: "alpha"})
	path := "/v1/tasks/" + task.ID + "/images"

	upload := func(body []byte, contentType string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	w := upload(pngHeader, "image/png")
	if w.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", w.Code, w.Body.String())
	}
	resp := decodeBody[api.ImageUploadResponse](t, w)
	if resp.MediaType != "image/png" || !strings.HasPrefix(resp.Key, "sha256/") {
		t.Fatalf("unexpected upload response: %+v", resp)
	}
	if len(resp.Task.Images) != 1 || resp.Task.Images[0] != resp.Key {
		t.Fatalf("expected image reference on task, got %v", resp.Task.Images)
	}

	again := decodeBody[api.ImageUploadResponse](t, upload(pngHeader, "image/png"))
	if len(again.Task.Images) != 1 {
		t.Fatalf("same bytes should not duplicate the reference, got %v", again.Task.Images)
	}

	blob := doJSON(t, h, http.MethodGet, "/v1/blobs/"+resp.Key, nil)
	if blob.Code != http.StatusOK {
		t.Fatalf("get blob: %d", blob.Code)
	}
	if !bytes.Equal(blob.Body.Bytes(), pngHeader) {
		t.Fatal("blob body does not match upload")
	}
	if ct := blob.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %s", ct)
	}

	if w := upload([]byte("just some text"), "application/octet-stream"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for text body, got %d", w.Code)
	}
	if w := upload(pngHeader, "text/plain"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-image content type, got %d", w.Code)
	}
	if w := upload(bytes.Repeat(pngHeader, 100), "image/png"); w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for oversized body, got %d", w.Code)
	}

	missing := "sha256/00/00/" + strings.Repeat("0", 64)
	if w := doJSON(t, h, http.MethodGet, "/v1/blobs/"+missing, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing blob, got %d", w.Code)
	}
	if w := doJSON(t, h, http.MethodPost, "/v1/tasks/nt-000000/images", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing task, got %d", w.Code)
	}
}

func TestInfoAndHealth(t *testing.T) {
	_, h := newTestServer(t, Options{IDPrefix: "ops"})
	createTask(t, h, api.TaskCreateRequest{Title: "one", ProjectName: "alpha"})

	if w := doJSON(t, h, http.MethodGet, "/health", nil); w.Code != http.StatusOK {
		t.Fatalf("health: %d", w.Code)
	}
	info := decodeBody[api.InfoResponse](t, doJSON(t, h, http.MethodGet, "/v1/info", nil))
	if info.IDPrefix != "ops" || info.TotalTasks != 1 || info.TaskCounts["pending"] != 1 {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.SchemaVersion < 1 || len(info.Projects) != 2 {
		t.Fatalf("unexpected info: %+v", info)
	}
}
