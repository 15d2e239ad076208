package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/weiawesome/wes-io-live/discovery-service/internal/domain"
)

func newESServer(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return client
}

func TestESSearchRepository(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	client := newESServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":2},"hits":[{"_source":{"title":"ICU Nurse"}},{"_source":{"title":"ER Nurse"}}]}}`))
	})

	repo := NewESSearchRepository(client, "discovery-")
	items, err := repo.Search(context.Background(), domain.SearchQuery{
		Category: domain.CategoryJobs,
		Query:    "nurse",
		Filters:  domain.Filters{"city": "Austin", "type": ""},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != 2 || string(items[0]) != `{"title":"ICU Nurse"}` {
		t.Fatalf("unexpected items %s", items)
	}
	if gotPath != "/discovery-jobs/_search" {
		t.Errorf("unexpected path %q", gotPath)
	}

	boolQuery := gotBody["query"].(map[string]any)["bool"].(map[string]any)
	filters := boolQuery["filter"].([]any)
	if len(filters) != 1 {
		t.Fatalf("expected one term filter, got %v", filters)
	}
	term := filters[0].(map[string]any)["term"].(map[string]any)
	if term["city.keyword"] != "Austin" {
		t.Errorf("unexpected term filter %v", term)
	}
}

func TestESSearchRepositoryError(t *testing.T) {
	client := newESServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"index_not_found_exception"},"status":404}`))
	})

	_, err := NewESSearchRepository(client, "discovery-").Search(context.Background(), domain.SearchQuery{Category: "events", Query: "x"})
	if err == nil {
		t.Fatal("expected an error for a missing index")
	}
}
