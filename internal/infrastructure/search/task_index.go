package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/go-task-rbac/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

const taskMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "keyword"},
      "title":       {"type": "text"},
      "description": {"type": "text"},
      "completed":   {"type": "boolean"},
      "ownerUid":    {"type": "keyword"},
      "createdAt":   {"type": "date"},
      "updatedAt":   {"type": "date"}
    }
  }
}`

// TaskIndex keeps tasks searchable in Elasticsearch.
type TaskIndex struct {
	ES        *elasticsearch.Client
	IndexName string
}

func NewTaskIndex(es *elasticsearch.Client, index string) *TaskIndex {
	return &TaskIndex{ES: es, IndexName: index}
}

// EnsureIndex creates the index with an explicit mapping when it is missing.
func (x *TaskIndex) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := x.ES.Indices.Exists([]string{x.IndexName}, x.ES.Indices.Exists.WithContext(c))
	if err != nil {
		return err
	}
	_ = res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = x.ES.Indices.Create(x.IndexName,
		x.ES.Indices.Create.WithContext(c),
		x.ES.Indices.Create.WithBody(strings.NewReader(taskMapping)),
	)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", x.IndexName, res.Status())
	}
	return nil
}

func (x *TaskIndex) Index(ctx context.Context, t *entity.Task) error {
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.IndexName, DocumentID: t.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index task %s: %s", t.ID, res.Status())
	}
	return nil
}

// Remove deletes the task document. A document that is already gone is not an error.
func (x *TaskIndex) Remove(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{Index: x.IndexName, DocumentID: id}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("remove task %s: %s", id, res.Status())
	}
	return nil
}

// Search runs a multi_match over title and description. A non-empty ownerUID
// restricts hits to that owner.
func (x *TaskIndex) Search(ctx context.Context, q, ownerUID string, size int) ([]*entity.Task, error) {
	must := map[string]any{
		"multi_match": map[string]any{
			"query":  q,
			"fields": []string{"title^2", "description"},
		},
	}
	boolQuery := map[string]any{"must": must}
	if ownerUID != "" {
		boolQuery["filter"] = []any{
			map[string]any{"term": map[string]any{"ownerUid": ownerUID}},
		}
	}
	query := map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"size":  size,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := x.ES.Search(x.ES.Search.WithContext(c), x.ES.Search.WithIndex(x.IndexName), x.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("search tasks: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string      `json:"_id"`
				Source entity.Task `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]*entity.Task, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		t := h.Source
		if t.ID == "" {
			t.ID = h.ID
		}
		out = append(out, &t)
	}
	return out, nil
}
