// Package search runs the event full-text queries and keeps the index in
// step with catalog mutations. Indexing is best-effort: the catalog is the
// source of truth, the index is a projection.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/festiva/festiva/internal/models"
)

type Index struct {
	ES   *elasticsearch.Client
	Name string
}

func (ix *Index) IndexEvent(ctx context.Context, event *models.Event) error {
	doc, err := json.Marshal(event)
	if err != nil {
		return err
	}
	res, err := ix.ES.Index(
		ix.Name,
		bytes.NewReader(doc),
		ix.ES.Index.WithDocumentID(strconv.FormatUint(uint64(event.ID), 10)),
		ix.ES.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index event: %s", res.Status())
	}
	return nil
}

func (ix *Index) DeleteEvent(ctx context.Context, eventID uint) error {
	res, err := ix.ES.Delete(
		ix.Name,
		strconv.FormatUint(uint64(eventID), 10),
		ix.ES.Delete.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete event: %s", res.Status())
	}
	return nil
}

func (ix *Index) Search(ctx context.Context, query string, from, size int) (int64, []models.Event, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"title^2", "description", "category", "location"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := ix.ES.Search(
		ix.ES.Search.WithContext(ctx),
		ix.ES.Search.WithIndex(ix.Name),
		ix.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Event `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	events := make([]models.Event, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		events[i] = hit.Source
	}
	return r.Hits.Total.Value, events, nil
}

func Paginate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 10
	}
	return (page - 1) * size, size
}
