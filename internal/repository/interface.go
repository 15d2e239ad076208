package repository

import (
	"context"

	"github.com/weiawesome/wes-io-live/discovery-service/internal/domain"
)

// Searcher runs one search against the backing search collaborator.
type Searcher interface {
	Search(ctx context.Context, q domain.SearchQuery) ([]domain.ResultItem, error)
}
