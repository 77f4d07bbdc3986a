package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/oksasatya/go-task-rbac/internal/domain/entity"
)

type recorded struct {
	method string
	path   string
	body   string
}

func newFakeES(t *testing.T, status int, reply string) (*TaskIndex, *[]recorded) {
	t.Helper()
	var reqs []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		reqs = append(reqs, recorded{method: r.Method, path: r.URL.Path, body: string(b)})
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	if err != nil {
		t.Fatalf("es client: %v", err)
	}
	return NewTaskIndex(es, "tasks"), &reqs
}

func TestSearchScopesToOwner(t *testing.T) {
	reply := `{"hits":{"hits":[{"_id":"t1","_source":{"id":"t1","title":"Buy milk","ownerUid":"u1","createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z"}}]}}`
	idx, reqs := newFakeES(t, http.StatusOK, reply)

	got, err := idx.Search(context.Background(), "milk", "u1", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != "t1" || got[0].OwnerUID != "u1" {
		t.Fatalf("unexpected hits: %+v", got)
	}

	if len(*reqs) != 1 || !strings.HasSuffix((*reqs)[0].path, "/tasks/_search") {
		t.Fatalf("unexpected requests: %+v", *reqs)
	}
	var q map[string]any
	if err := json.Unmarshal([]byte((*reqs)[0].body), &q); err != nil {
		t.Fatalf("decode query: %v", err)
	}
	if q["size"].(float64) != 5 {
		t.Fatalf("size = %v", q["size"])
	}
	if !strings.Contains((*reqs)[0].body, `"term":{"ownerUid":"u1"}`) {
		t.Fatalf("query missing owner filter: %s", (*reqs)[0].body)
	}
}

func TestSearchUnscopedForEmptyOwner(t *testing.T) {
	idx, reqs := newFakeES(t, http.StatusOK, `{"hits":{"hits":[]}}`)

	got, err := idx.Search(context.Background(), "milk", "", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no hits, got %d", len(got))
	}
	if strings.Contains((*reqs)[0].body, "ownerUid") {
		t.Fatalf("admin query should not filter by owner: %s", (*reqs)[0].body)
	}
}

func TestSearchErrorStatus(t *testing.T) {
	idx, _ := newFakeES(t, http.StatusInternalServerError, `{"error":"boom"}`)
	if _, err := idx.Search(context.Background(), "milk", "", 10); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestIndexPutsDocument(t *testing.T) {
	idx, reqs := newFakeES(t, http.StatusCreated, `{"result":"created"}`)
	task := &entity.Task{ID: "t9", Title: "Write report", OwnerUID: "u2", CreatedAt: time.Now(), UpdatedAt: time.Now()}

	if err := idx.Index(context.Background(), task); err != nil {
		t.Fatalf("index: %v", err)
	}
	r := (*reqs)[0]
	if r.method != http.MethodPut || !strings.HasSuffix(r.path, "/tasks/_doc/t9") {
		t.Fatalf("unexpected request %s %s", r.method, r.path)
	}
	if !strings.Contains(r.body, `"title":"Write report"`) {
		t.Fatalf("document body missing title: %s", r.body)
	}
}

func TestRemoveIgnoresMissingDocument(t *testing.T) {
	idx, _ := newFakeES(t, http.StatusNotFound, `{"result":"not_found"}`)
	if err := idx.Remove(context.Background(), "gone"); err != nil {
		t.Fatalf("remove: %v", err)
	}
}
