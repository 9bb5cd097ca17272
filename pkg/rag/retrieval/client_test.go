package retrieval

import (
	"context"
	"errors"
	"testing"

	"careconnect/internal/pkg/logger"
	"careconnect/pkg/warehouse"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	got  []warehouse.SearchRequest
	resp *warehouse.SearchResponse
	err  error
}

func (f *fakeSearcher) Search(ctx context.Context, req warehouse.SearchRequest) (*warehouse.SearchResponse, error) {
	f.got = append(f.got, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func rows(n int) []map[string]any {
	out := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, map[string]any{
			ColumnChunk:        "chunk",
			ColumnRelativePath: "manuals/premium_bike.pdf",
			ColumnCategory:     "Bike",
		})
	}
	return out
}

func TestClientSearchFilter(t *testing.T) {
	tests := []struct {
		name       string
		category   string
		wantFilter warehouse.Filter
	}{
		{name: "all sends no filter", category: CategoryAll, wantFilter: nil},
		{name: "empty sends no filter", category: "", wantFilter: nil},
		{name: "category filter", category: "Bike", wantFilter: warehouse.Eq("category", "Bike")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeSearcher{resp: &warehouse.SearchResponse{Results: rows(1)}}
			c := NewClient(fs, 0, logger.NewNopLogger())

			_, err := c.Search(context.Background(), "lubricant", tt.category)
			require.NoError(t, err)

			require.Len(t, fs.got, 1)
			req := fs.got[0]
			assert.Equal(t, "lubricant", req.Query)
			assert.Equal(t, []string{"chunk", "relative_path", "category"}, req.Columns)
			assert.Equal(t, DefaultLimit, req.Limit)
			assert.Equal(t, tt.wantFilter, req.Filter)
		})
	}
}

func TestClientSearchCapsResults(t *testing.T) {
	fs := &fakeSearcher{resp: &warehouse.SearchResponse{Results: rows(5)}}
	c := NewClient(fs, 3, logger.NewNopLogger())

	results, err := c.Search(context.Background(), "q", CategoryAll)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, SearchResult{Chunk: "chunk", RelativePath: "manuals/premium_bike.pdf", Category: "Bike"}, results[0])
}

func TestClientSearchMissingColumns(t *testing.T) {
	fs := &fakeSearcher{resp: &warehouse.SearchResponse{Results: []map[string]any{
		{ColumnChunk: "only chunk", ColumnCategory: nil},
	}}}
	c := NewClient(fs, 3, logger.NewNopLogger())

	results, err := c.Search(context.Background(), "q", CategoryAll)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "only chunk", results[0].Chunk)
	assert.Empty(t, results[0].RelativePath)
	assert.Empty(t, results[0].Category)
}

func TestClientSearchFailure(t *testing.T) {
	cause := errors.New("service CC_SEARCH_SERVICE_CS does not exist")
	fs := &fakeSearcher{err: cause}
	c := NewClient(fs, 3, logger.NewNopLogger())

	results, err := c.Search(context.Background(), "q", "Bike")

	assert.Empty(t, results)
	assert.NotNil(t, results)
	var rerr *RetrievalError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "Bike", rerr.Category)
	assert.ErrorIs(t, err, cause)
}
