package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
)

// Doc is the searchable projection of an item. Claim state is never
// indexed; search results must not leak who took what.
type Doc struct {
	ID      uint    `json:"id"`
	OwnerID uint    `json:"owner_id"`
	Name    string  `json:"name"`
	URL     string  `json:"url"`
	Price   float64 `json:"price"`
}

// Indexer keeps the search index in step with the items table.
type Indexer struct {
	ES    *elasticsearch.Client
	Index string
}

func (ix *Indexer) Add(ctx context.Context, d Doc) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("index item: %w", err)
	}

	res, err := ix.ES.Index(
		ix.Index,
		bytes.NewReader(data),
		ix.ES.Index.WithDocumentID(strconv.FormatUint(uint64(d.ID), 10)),
		ix.ES.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index item: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index item: %s", res.Status())
	}
	return nil
}

func (ix *Indexer) Remove(ctx context.Context, id uint) error {
	res, err := ix.ES.Delete(
		ix.Index,
		strconv.FormatUint(uint64(id), 10),
		ix.ES.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("deindex item: %w", err)
	}
	defer res.Body.Close()

	// A missing document is fine, the item may predate the index.
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("deindex item: %s", res.Status())
	}
	return nil
}

func Search(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []Doc, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^2", "url"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search query: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				Source Doc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	docs := make([]Doc, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		docs[i] = hit.Source
	}
	return r.Hits.Total.Value, docs, nil
}
