package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/weiawesome/wes-io-live/discovery-service/internal/domain"
)

const defaultESSize = 20

type esSearchRepository struct {
	client      *elasticsearch.Client
	indexPrefix string
	size        int
}

// NewESSearchRepository creates a Searcher that queries one index per
// category, named indexPrefix + category.
func NewESSearchRepository(client *elasticsearch.Client, indexPrefix string) Searcher {
	return &esSearchRepository{
		client:      client,
		indexPrefix: indexPrefix,
		size:        defaultESSize,
	}
}

func (r *esSearchRepository) buildQuery(q domain.SearchQuery) map[string]interface{} {
	names := make([]string, 0, len(q.Filters))
	for name, value := range q.Filters {
		if value != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	filters := make([]interface{}, 0, len(names))
	for _, name := range names {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{name + ".keyword": q.Filters[name]},
		})
	}

	return map[string]interface{}{
		"size": r.size,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{
						"multi_match": map[string]interface{}{
							"query":  q.Query,
							"fields": []string{"*"},
						},
					},
				},
				"filter": filters,
			},
		},
	}
}

func (r *esSearchRepository) Search(ctx context.Context, q domain.SearchQuery) ([]domain.ResultItem, error) {
	data, err := json.Marshal(r.buildQuery(q))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.indexPrefix+string(q.Category)),
		r.client.Search.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", q.Category, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var result esResponse
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	items := make([]domain.ResultItem, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		if len(hit.Source) == 0 {
			continue
		}
		items = append(items, domain.ResultItem(hit.Source))
	}
	return items, nil
}

// esResponse is the subset of the Elasticsearch search response we read.
type esResponse struct {
	Hits struct {
		Hits []struct {
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}
