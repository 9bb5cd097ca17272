package warehouse

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Querier is the subset of *sql.DB the warehouse callers need.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// queryOne scans the first row of query into dest. It returns sql.ErrNoRows
// when the result is empty.
func queryOne(ctx context.Context, q Querier, query string, dest []any, args ...any) error {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return sql.ErrNoRows
	}
	return rows.Scan(dest...)
}

// Root resolves Cortex Search services by database, schema and name.
type Root struct {
	q Querier
}

func NewRoot(q Querier) *Root {
	return &Root{q: q}
}

// Querier exposes the handle the registry was built on.
func (r *Root) Querier() Querier {
	return r.q
}

// Service returns a handle to database.schema.name. Nothing is sent to the
// warehouse until Search is called.
func (r *Root) Service(database, schema, name string) (*SearchService, error) {
	for _, id := range []string{database, schema, name} {
		if !ValidIdentifier(id) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
		}
	}
	return &SearchService{
		q:        r.q,
		database: database,
		schema:   schema,
		name:     name,
	}, nil
}

// Filter is a Cortex Search filter expression, e.g. {"@eq": {"category": "X"}}.
type Filter map[string]any

// Eq builds an equality filter on one column.
func Eq(column, value string) Filter {
	return Filter{"@eq": map[string]string{column: value}}
}

type SearchRequest struct {
	Query   string   `json:"query"`
	Columns []string `json:"columns"`
	Filter  Filter   `json:"filter,omitempty"`
	Limit   int      `json:"limit"`
}

// SearchResponse holds result rows keyed by the requested column names.
type SearchResponse struct {
	Results   []map[string]any `json:"results"`
	RequestID string           `json:"request_id,omitempty"`
}

type SearchService struct {
	q        Querier
	database string
	schema   string
	name     string
}

func (s *SearchService) QualifiedName() string {
	return s.database + "." + s.schema + "." + s.name
}

// Search runs SEARCH_PREVIEW. The function only takes constant arguments, so
// both are rendered as escaped string literals instead of bind parameters.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	query := fmt.Sprintf("SELECT SNOWFLAKE.CORTEX.SEARCH_PREVIEW(%s, %s) AS RESULTS",
		QuoteLiteral(s.QualifiedName()), QuoteLiteral(string(payload)))

	var raw sql.NullString
	if err := queryOne(ctx, s.q, query, []any{&raw}); err != nil {
		return nil, fmt.Errorf("search %s: %w", s.QualifiedName(), err)
	}
	if !raw.Valid {
		return &SearchResponse{}, nil
	}

	var resp SearchResponse
	if err := json.Unmarshal([]byte(raw.String), &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &resp, nil
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// ValidIdentifier accepts unquoted Snowflake identifiers only.
func ValidIdentifier(s string) bool {
	return identifierRe.MatchString(s)
}

// QuoteLiteral renders s as a single-quoted Snowflake string literal.
func QuoteLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `''`)
	return "'" + s + "'"
}
