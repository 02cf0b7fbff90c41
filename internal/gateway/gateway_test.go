package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sandeepkv93/todotui/internal/apiclient"
	"github.com/sandeepkv93/todotui/internal/model"
)

func envelope(w http.ResponseWriter, status int, message any, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":     status < 300,
		"status_code": status,
		"message":     message,
		"data":        data,
	})
}

func newClient(t *testing.T, mux *http.ServeMux) *apiclient.Client {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return apiclient.New(server.URL)
}

func TestTasksCRUD(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tasks/", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusOK, "Tasks fetched successfully", []map[string]any{
			{"id": 1, "title": "Buy milk", "created_by": 3, "created_by_username": "ana"},
		})
	})
	mux.HandleFunc("POST /tasks/", func(w http.ResponseWriter, r *http.Request) {
		var draft model.TaskDraft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			t.Errorf("decode draft: %v", err)
		}
		envelope(w, http.StatusCreated, "Task created successfully", map[string]any{"id": 2, "title": draft.Title})
	})
	mux.HandleFunc("PATCH /tasks/2/", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if string(raw) != `{"is_completed":true}` {
			t.Errorf("unexpected patch body %s", raw)
		}
		envelope(w, http.StatusOK, "Task updated successfully", map[string]any{"id": 2, "title": "Call mom", "is_completed": true})
	})
	mux.HandleFunc("DELETE /tasks/2/", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusOK, "Task deleted successfully", map[string]any{})
	})
	g := NewTasks(newClient(t, mux))
	ctx := t.Context()

	list, err := g.List(ctx)
	if err != nil || len(list) != 1 || list[0].CreatedByUsername != "ana" {
		t.Fatalf("list: %+v err=%v", list, err)
	}
	created, err := g.Create(ctx, model.TaskDraft{Title: "Call mom"})
	if err != nil || created.ID != 2 || created.Title != "Call mom" {
		t.Fatalf("create: %+v err=%v", created, err)
	}
	updated, err := g.Update(ctx, 2, model.CompletionPatch(true))
	if err != nil || !updated.IsCompleted {
		t.Fatalf("update: %+v err=%v", updated, err)
	}
	if err := g.Delete(ctx, 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestTasksListEmptyIsNotNil(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tasks/", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusOK, "ok", nil)
	})
	list, err := NewTasks(newClient(t, mux)).List(t.Context())
	if err != nil || list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v err=%v", list, err)
	}
}

func TestTasksFailuresPropagateUnchanged(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /tasks/", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusBadRequest, map[string]any{"title": []string{"This field may not be blank."}}, map[string]any{})
	})
	_, err := NewTasks(newClient(t, mux)).Create(t.Context(), model.TaskDraft{})
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("expected *apiclient.Error with status 400, got %v", err)
	}
	if got := apiclient.Message(err, ""); got != "title: This field may not be blank." {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestAuthLoginRegisterLogout(t *testing.T) {
	result := map[string]any{
		"user":   map[string]any{"id": 3, "username": "ana", "email": "ana@example.com"},
		"tokens": map[string]string{"access": "a", "refresh": "r"},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token/", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusOK, "Login successful", result)
	})
	mux.HandleFunc("POST /register/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password2"] == "" {
			t.Error("expected password confirmation in registration body")
		}
		envelope(w, http.StatusCreated, "User registered successfully", result)
	})
	mux.HandleFunc("POST /logout/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["refresh"] != "r" {
			t.Errorf("unexpected logout body %v", body)
		}
		envelope(w, http.StatusResetContent, "Logout successful, token blacklisted.", map[string]any{})
	})
	g := NewAuth(newClient(t, mux))
	ctx := t.Context()

	got, err := g.Login(ctx, model.Credentials{Username: "ana", Password: "pw"})
	if err != nil || got.User.ID != 3 || !got.Tokens.Complete() {
		t.Fatalf("login: %+v err=%v", got, err)
	}
	got, err = g.Register(ctx, model.RegistrationData{Username: "ana", Password: "12345678", Password2: "12345678"})
	if err != nil || got.User.Username != "ana" {
		t.Fatalf("register: %+v err=%v", got, err)
	}
	if err := g.Logout(ctx, "r"); err != nil {
		t.Fatalf("logout: %v", err)
	}
}
