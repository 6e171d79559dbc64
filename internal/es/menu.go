package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/resto_admin/pkg/domain"
)

const menuMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "keyword"},
      "name":        {"type": "text"},
      "description": {"type": "text"},
      "category":    {"type": "keyword"},
      "price":       {"type": "long"},
      "available":   {"type": "boolean"},
      "is_popular":  {"type": "boolean"}
    }
  }
}`

// MenuIndex keeps menu items searchable.
type MenuIndex struct {
	ES    *elasticsearch.Client
	Index string
}

func (m *MenuIndex) EnsureIndex(ctx context.Context) error {
	res, err := m.ES.Indices.Exists([]string{m.Index}, m.ES.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("es: index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = m.ES.Indices.Create(m.Index,
		m.ES.Indices.Create.WithContext(ctx),
		m.ES.Indices.Create.WithBody(bytes.NewReader([]byte(menuMapping))),
	)
	if err != nil {
		return fmt.Errorf("es: create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res.Status(), res.Body)
	}
	return nil
}

func (m *MenuIndex) IndexMenuItem(ctx context.Context, item domain.MenuItem) error {
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("es: marshal: %w", err)
	}

	res, err := m.ES.Index(m.Index, bytes.NewReader(body),
		m.ES.Index.WithContext(ctx),
		m.ES.Index.WithDocumentID(item.ID),
		m.ES.Index.WithRefresh("wait_for"),
	)
	if err != nil {
		return fmt.Errorf("es: index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index", res.Status(), res.Body)
	}
	return nil
}

func (m *MenuIndex) DeleteMenuItem(ctx context.Context, id string) error {
	res, err := m.ES.Delete(m.Index, id, m.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("es: delete: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete", res.Status(), res.Body)
	}
	return nil
}

func (m *MenuIndex) SearchMenu(ctx context.Context, q string, from, size int) (int64, []domain.MenuItem, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(MenuQuery(q, from, size)); err != nil {
		return 0, nil, fmt.Errorf("es: encode query: %w", err)
	}

	res, err := m.ES.Search(
		m.ES.Search.WithContext(ctx),
		m.ES.Search.WithIndex(m.Index),
		m.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("es: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, responseError("search", res.Status(), res.Body)
	}
	return DecodeHits(res.Body)
}

// MenuQuery matches name (boosted) and description with fuzziness.
func MenuQuery(q string, from, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"name^2", "description", "category"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}
}

func DecodeHits(r io.Reader) (int64, []domain.MenuItem, error) {
	var resp struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source domain.MenuItem `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return 0, nil, fmt.Errorf("es: decode: %w", err)
	}

	items := make([]domain.MenuItem, len(resp.Hits.Hits))
	for i, h := range resp.Hits.Hits {
		items[i] = h.Source
	}
	return resp.Hits.Total.Value, items, nil
}

func responseError(op, status string, body io.Reader) error {
	b, _ := io.ReadAll(io.LimitReader(body, 4<<10))
	return fmt.Errorf("es: %s: %s: %s", op, status, bytes.TrimSpace(b))
}
