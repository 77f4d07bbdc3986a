package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-task-rbac/internal/application"
	"github.com/oksasatya/go-task-rbac/internal/domain/entity"
	"github.com/oksasatya/go-task-rbac/internal/interface/middleware"
	"github.com/oksasatya/go-task-rbac/internal/testutil"
	"github.com/oksasatya/go-task-rbac/pkg/helpers"
	"github.com/oksasatya/go-task-rbac/pkg/validation"
)

type apiFixture struct {
	engine   *gin.Engine
	idp      *testutil.FakeIdentityProvider
	tasks    *testutil.FakeTaskRepo
	profiles *testutil.FakeProfileRepo
	uploads  *testutil.FakeUploader
}

func newAPI(t *testing.T) apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	f := apiFixture{
		idp:      testutil.NewFakeIdentityProvider(),
		tasks:    testutil.NewFakeTaskRepo(),
		profiles: testutil.NewFakeProfileRepo(),
		uploads:  testutil.NewFakeUploader(),
	}
	f.idp.AddUser("alice-token", "alice", "alice@example.com", nil)
	f.idp.AddUser("bob-token", "bob", "bob@example.com", entity.ClaimSet{"role": "user"})
	f.idp.AddUser("admin-token", "root", "root@example.com", entity.ClaimSet{"role": "admin"})
	f.idp.AddUser("u123-token", "u123", "u123@example.com", nil)

	logger := helpers.NewDiscardLogger()
	tasks := application.NewTaskService(f.tasks, testutil.NewFakeIndex(), f.uploads, logger)
	roles := application.NewRoleService(f.idp, f.profiles, &testutil.FakeAudit{}, logger)

	f.engine = gin.New()
	f.engine.Use(middleware.RequestIDMiddleware())
	reg := NewRegistry(f.engine)
	Mount(reg, Deps{Verifier: f.idp, Tasks: tasks, Roles: roles, Logger: logger, DebugMetrics: true})
	reg.RegisterAll()
	return f
}

func (f apiFixture) call(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d: %s", w.Code, want, w.Body.String())
	}
}

func TestHealth(t *testing.T) {
	f := newAPI(t)
	w := f.call(t, http.MethodGet, "/health", "", nil)
	expectStatus(t, w, http.StatusOK)
	if decode[map[string]string](t, w)["status"] != "ok" {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	f := newAPI(t)
	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/tasks"},
		{http.MethodPost, "/api/tasks"},
		{http.MethodPut, "/api/tasks/x"},
		{http.MethodDelete, "/api/tasks/x"},
		{http.MethodGet, "/api/tasks/search?q=x"},
		{http.MethodPost, "/api/tasks/export"},
		{http.MethodGet, "/api/users/me"},
		{http.MethodPost, "/api/users/assign-role"},
	}
	for _, r := range routes {
		w := f.call(t, r.method, r.path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d", r.method, r.path, w.Code)
		}
		w = f.call(t, r.method, r.path, "forged", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s with bad token: status = %d", r.method, r.path, w.Code)
		}
	}
}

func TestTaskLifecycle(t *testing.T) {
	f := newAPI(t)

	w := f.call(t, http.MethodPost, "/api/tasks", "alice-token", map[string]string{"title": "Buy milk"})
	expectStatus(t, w, http.StatusCreated)
	created := decode[entity.Task](t, w)
	if created.Title != "Buy milk" || created.OwnerUID != "alice" || created.Completed {
		t.Fatalf("unexpected task: %+v", created)
	}

	w = f.call(t, http.MethodGet, "/api/tasks", "alice-token", nil)
	expectStatus(t, w, http.StatusOK)
	if list := decode[[]entity.Task](t, w); len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("unexpected list: %+v", list)
	}

	// Bob can neither see nor update Alice's task.
	w = f.call(t, http.MethodGet, "/api/tasks", "bob-token", nil)
	if list := decode[[]entity.Task](t, w); len(list) != 0 {
		t.Fatalf("bob sees %d tasks", len(list))
	}
	w = f.call(t, http.MethodPut, "/api/tasks/"+created.ID, "bob-token", map[string]bool{"completed": true})
	expectStatus(t, w, http.StatusNotFound)
	if decode[map[string]string](t, w)["error"] != "Task not found" {
		t.Fatalf("body = %s", w.Body.String())
	}

	w = f.call(t, http.MethodPut, "/api/tasks/"+created.ID, "alice-token", map[string]bool{"completed": true})
	expectStatus(t, w, http.StatusOK)
	if !decode[entity.Task](t, w).Completed {
		t.Fatal("task not completed")
	}

	w = f.call(t, http.MethodPut, "/api/tasks/"+created.ID, "alice-token", map[string]string{"ownerUid": "bob"})
	expectStatus(t, w, http.StatusBadRequest)

	w = f.call(t, http.MethodDelete, "/api/tasks/"+created.ID, "alice-token", nil)
	expectStatus(t, w, http.StatusForbidden)

	w = f.call(t, http.MethodDelete, "/api/tasks/"+created.ID, "admin-token", nil)
	expectStatus(t, w, http.StatusNoContent)
	w = f.call(t, http.MethodDelete, "/api/tasks/"+created.ID, "admin-token", nil)
	expectStatus(t, w, http.StatusNotFound)
}

func TestCreateValidation(t *testing.T) {
	f := newAPI(t)

	w := f.call(t, http.MethodPost, "/api/tasks", "alice-token", map[string]string{"title": "   "})
	expectStatus(t, w, http.StatusBadRequest)

	w = f.call(t, http.MethodPost, "/api/tasks", "alice-token", `{"title":`)
	expectStatus(t, w, http.StatusBadRequest)
	body := decode[map[string]any](t, w)
	if body["details"] == nil {
		t.Fatalf("expected details for malformed json: %s", w.Body.String())
	}

	w = f.call(t, http.MethodPost, "/api/tasks", "alice-token", nil)
	expectStatus(t, w, http.StatusBadRequest)

	if f.tasks.Len() != 0 {
		t.Fatalf("%d tasks persisted", f.tasks.Len())
	}
}

func TestSearchAndExport(t *testing.T) {
	f := newAPI(t)
	for _, tok := range []string{"alice-token", "bob-token"} {
		w := f.call(t, http.MethodPost, "/api/tasks", tok, map[string]string{"title": "Buy milk", "description": "2 litres"})
		expectStatus(t, w, http.StatusCreated)
	}

	w := f.call(t, http.MethodGet, "/api/tasks/search?q=milk", "alice-token", nil)
	expectStatus(t, w, http.StatusOK)
	if hits := decode[[]entity.Task](t, w); len(hits) != 1 || hits[0].OwnerUID != "alice" {
		t.Fatalf("unexpected hits: %+v", hits)
	}

	w = f.call(t, http.MethodPost, "/api/tasks/export", "alice-token", nil)
	expectStatus(t, w, http.StatusForbidden)

	w = f.call(t, http.MethodPost, "/api/tasks/export", "admin-token", nil)
	expectStatus(t, w, http.StatusOK)
	res := decode[application.ExportResult](t, w)
	if res.Count != 2 || res.URL == "" || len(f.uploads.Objects) != 1 {
		t.Fatalf("unexpected export: %+v", res)
	}
}

func TestAssignRoleFlow(t *testing.T) {
	f := newAPI(t)
	w := f.call(t, http.MethodPost, "/api/tasks", "alice-token", map[string]string{"title": "alice's"})
	expectStatus(t, w, http.StatusCreated)

	w = f.call(t, http.MethodPost, "/api/users/assign-role", "alice-token", map[string]string{"uid": "u123", "role": "admin"})
	expectStatus(t, w, http.StatusForbidden)

	w = f.call(t, http.MethodPost, "/api/users/assign-role", "admin-token", map[string]string{"uid": "u123", "role": "superuser"})
	expectStatus(t, w, http.StatusBadRequest)
	if decode[map[string]string](t, w)["error"] != "Invalid role" {
		t.Fatalf("body = %s", w.Body.String())
	}
	if f.idp.SetCalls != 0 || f.profiles.Upserts != 0 {
		t.Fatal("invalid role caused writes")
	}

	w = f.call(t, http.MethodPost, "/api/users/assign-role", "admin-token", map[string]string{"role": "admin"})
	expectStatus(t, w, http.StatusBadRequest)

	w = f.call(t, http.MethodGet, "/api/users/me", "u123-token", nil)
	expectStatus(t, w, http.StatusOK)
	if !bytes.Contains(w.Body.Bytes(), []byte(`"app":null`)) {
		t.Fatalf("expected null profile before assignment: %s", w.Body.String())
	}

	w = f.call(t, http.MethodPost, "/api/users/assign-role", "admin-token", map[string]string{"uid": "u123", "role": "admin"})
	expectStatus(t, w, http.StatusOK)
	assigned := decode[struct {
		Message string             `json:"message"`
		User    entity.UserProfile `json:"user"`
	}](t, w)
	if assigned.Message != "Role assigned" || assigned.User.UID != "u123" || assigned.User.Role != entity.RoleAdmin {
		t.Fatalf("unexpected body: %+v", assigned)
	}

	w = f.call(t, http.MethodGet, "/api/tasks", "u123-token", nil)
	expectStatus(t, w, http.StatusOK)
	if list := decode[[]entity.Task](t, w); len(list) != 1 || list[0].OwnerUID != "alice" {
		t.Fatalf("u123 should now see every owner's tasks: %+v", list)
	}

	w = f.call(t, http.MethodGet, "/api/users/me", "u123-token", nil)
	me := decode[struct {
		Firebase entity.Identity     `json:"firebase"`
		App      *entity.UserProfile `json:"app"`
	}](t, w)
	if me.Firebase.Role != entity.RoleAdmin || me.App == nil || me.App.Role != entity.RoleAdmin {
		t.Fatalf("unexpected me: %+v", me)
	}
}

func TestRequestIDHeader(t *testing.T) {
	f := newAPI(t)
	w := f.call(t, http.MethodGet, "/health", "", nil)
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Fatal("missing X-Request-ID")
	}
}

func TestDebugVars(t *testing.T) {
	f := newAPI(t)
	w := f.call(t, http.MethodGet, "/api/debug/vars", "", nil)
	expectStatus(t, w, http.StatusOK)
	if !bytes.Contains(w.Body.Bytes(), []byte("memstats")) {
		t.Fatalf("unexpected expvar body: %.80s", w.Body.String())
	}
}
