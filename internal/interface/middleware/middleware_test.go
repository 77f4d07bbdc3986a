package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-task-rbac/internal/domain/entity"
	"github.com/oksasatya/go-task-rbac/internal/testutil"
)

func init() { gin.SetMode(gin.TestMode) }

func newAuthEngine(idp *testutil.FakeIdentityProvider, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{Auth(idp, nil)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := IdentityFrom(c)
		c.JSON(http.StatusOK, gin.H{"uid": id.UID, "role": id.Role, "userID": c.GetString(CtxUserIDKey)})
	})
	r.GET("/x", handlers...)
	return r
}

func do(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return body.Error
}

func TestAuth(t *testing.T) {
	idp := testutil.NewFakeIdentityProvider()
	idp.AddUser("good", "u1", "u1@example.com", entity.ClaimSet{"role": "admin"})
	r := newAuthEngine(idp)

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing header", "", http.StatusUnauthorized, "Missing Bearer token"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, "Missing Bearer token"},
		{"empty token", "Bearer   ", http.StatusUnauthorized, "Missing Bearer token"},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, "Invalid or expired token"},
		{"valid token", "Bearer good", http.StatusOK, ""},
		{"case-insensitive scheme", "bearer good", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.header)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
			if tt.message != "" && errorOf(t, w) != tt.message {
				t.Fatalf("error = %q, want %q", errorOf(t, w), tt.message)
			}
		})
	}

	w := do(r, "Bearer good")
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["uid"] != "u1" || body["role"] != "admin" || body["userID"] != "u1" {
		t.Fatalf("unexpected identity: %v", body)
	}
}

func TestRequireRole(t *testing.T) {
	idp := testutil.NewFakeIdentityProvider()
	idp.AddUser("admin", "a1", "", entity.ClaimSet{"role": "admin"})
	idp.AddUser("user", "u1", "", nil)
	r := newAuthEngine(idp, RequireRole(entity.RoleAdmin))

	if w := do(r, "Bearer admin"); w.Code != http.StatusOK {
		t.Fatalf("admin status = %d", w.Code)
	}
	w := do(r, "Bearer user")
	if w.Code != http.StatusForbidden || errorOf(t, w) != "Forbidden" {
		t.Fatalf("user got %d %s", w.Code, w.Body.String())
	}
}

func TestRequireRoleWithoutAuth(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequireRole(entity.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	if w := do(r, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := do(r, "")
	id := w.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil || w.Body.String() != id {
		t.Fatalf("request id header %q, body %q", id, w.Body.String())
	}

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, incoming)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get(RequestIDHeader) != incoming {
		t.Fatalf("incoming id not kept: %q", w.Header().Get(RequestIDHeader))
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid\r\n")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get(RequestIDHeader) == "not-a-uuid\r\n" {
		t.Fatal("malformed id was echoed")
	}
}

func TestRealIP(t *testing.T) {
	r := gin.New()
	r.Use(RealIP())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("real_ip")) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "203.0.113.7" {
		t.Fatalf("real ip = %q", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("CF-Connecting-IP", "198.51.100.2")
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "198.51.100.2" {
		t.Fatalf("cloudflare ip = %q", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Real-IP", "not-an-ip")
	req.Header.Set("X-Forwarded-For", "2001:db8::1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "2001:db8::1" {
		t.Fatalf("ipv6 forwarded ip = %q", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "192.0.2.9:5555"
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "192.0.2.9" {
		t.Fatalf("fallback ip = %q", w.Body.String())
	}
}

func TestRateLimitDisabledWithoutRedis(t *testing.T) {
	r := gin.New()
	r.GET("/x", RateLimit(nil, 1, time.Minute, KeyByIPAndPath(), nil), func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 3; i++ {
		if w := do(r, ""); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, w.Code)
		}
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer func() { _ = rdb.Close() }()

	r := gin.New()
	r.GET("/x", RateLimit(rdb, 1, time.Minute, KeyByUserID(), nil), func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 2; i++ {
		if w := do(r, ""); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, w.Code)
		}
	}
}

func TestAllowPrivateIP(t *testing.T) {
	allow := AllowPrivateIP()
	for ip, want := range map[string]bool{"127.0.0.1": true, "10.1.2.3": true, "192.168.0.9": true, "8.8.8.8": false} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
		c.Set("real_ip", ip)
		if got := allow(c); got != want {
			t.Errorf("allow(%s) = %v, want %v", ip, got, want)
		}
	}
}

func TestRemaining(t *testing.T) {
	if remaining(10, 3) != 7 || remaining(10, 10) != 0 || remaining(10, 15) != 0 {
		t.Fatal("remaining miscounted")
	}
}
