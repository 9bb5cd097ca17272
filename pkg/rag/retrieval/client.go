package retrieval

import (
	"context"
	"fmt"

	"careconnect/internal/pkg/logger"
	"careconnect/pkg/warehouse"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	// CategoryAll disables the category filter.
	CategoryAll = "ALL"

	DefaultLimit = 3

	ColumnChunk        = "chunk"
	ColumnRelativePath = "relative_path"
	ColumnCategory     = "category"
)

var columns = []string{ColumnChunk, ColumnRelativePath, ColumnCategory}

// SearchResult is one retrieved fragment. It is produced per query and never stored.
type SearchResult struct {
	Chunk        string `json:"chunk"`
	RelativePath string `json:"relative_path"`
	Category     string `json:"category"`
}

// Searcher is the remote search service; *warehouse.SearchService implements it.
type Searcher interface {
	Search(ctx context.Context, req warehouse.SearchRequest) (*warehouse.SearchResponse, error)
}

// RetrievalError means the remote search failed. Callers degrade to an empty
// context instead of aborting the turn.
type RetrievalError struct {
	Query    string
	Category string
	Err      error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed (category %s): %v", e.Category, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// Client is the Retrieval Client.
type Client struct {
	searcher Searcher
	limit    int
	logger   logger.ILogger
}

func NewClient(searcher Searcher, limit int, log logger.ILogger) *Client {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Client{searcher: searcher, limit: limit, logger: log}
}

func (c *Client) Limit() int {
	return c.limit
}

// Search returns up to Limit fragments ranked by the remote service. "ALL"
// sends no filter; any other category is pushed down as an equality filter.
// On failure it returns an empty slice together with a *RetrievalError.
func (c *Client) Search(ctx context.Context, query, category string) ([]SearchResult, error) {
	ctx, span := otel.Tracer("careconnect/rag").Start(ctx, "retrieval.Search")
	defer span.End()
	span.SetAttributes(attribute.String("search.category", category), attribute.Int("search.limit", c.limit))

	req := warehouse.SearchRequest{
		Query:   query,
		Columns: columns,
		Limit:   c.limit,
	}
	if category != "" && category != CategoryAll {
		req.Filter = warehouse.Eq(ColumnCategory, category)
	}

	resp, err := c.searcher.Search(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		c.logger.Error("SEARCH", "Similarity search failed", map[string]interface{}{
			"error":    err.Error(),
			"category": category,
		})
		return []SearchResult{}, &RetrievalError{Query: query, Category: category, Err: err}
	}

	results := make([]SearchResult, 0, len(resp.Results))
	for _, row := range resp.Results {
		if len(results) == c.limit {
			break
		}
		results = append(results, SearchResult{
			Chunk:        stringColumn(row, ColumnChunk),
			RelativePath: stringColumn(row, ColumnRelativePath),
			Category:     stringColumn(row, ColumnCategory),
		})
	}

	c.logger.Debug("SEARCH", "Similarity search done", map[string]interface{}{
		"category": category,
		"results":  len(results),
	})
	span.SetAttributes(attribute.Int("search.results", len(results)))
	return results, nil
}

func stringColumn(row map[string]any, key string) string {
	v, ok := row[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
