package cortex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"careconnect/pkg/llm"
	"careconnect/pkg/warehouse"
)

const completeSQL = "SELECT SNOWFLAKE.CORTEX.COMPLETE(?, ?) AS RESPONSE"

// Provider runs completions inside the warehouse with CORTEX.COMPLETE.
type Provider struct {
	q            warehouse.Querier
	defaultModel string
}

// Ensure Provider implements LLMProvider
var _ llm.LLMProvider = &Provider{}

func NewProvider(q warehouse.Querier, defaultModel string) *Provider {
	return &Provider{q: q, defaultModel: defaultModel}
}

// Generate returns the RESPONSE column of the first row. Zero rows yields
// llm.ErrEmptyResponse so the caller can substitute its fallback text.
func (p *Provider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	options := llm.Apply(llm.Options{Model: p.defaultModel}, opts...)
	if options.Model == "" {
		return "", errors.New("cortex: no model selected")
	}

	rows, err := p.q.QueryContext(ctx, completeSQL, options.Model, prompt)
	if err != nil {
		return "", fmt.Errorf("cortex complete (%s): %w", options.Model, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return "", fmt.Errorf("cortex complete (%s): %w", options.Model, err)
		}
		return "", llm.ErrEmptyResponse
	}

	var response sql.NullString
	if err := rows.Scan(&response); err != nil {
		return "", fmt.Errorf("scan cortex response: %w", err)
	}
	return response.String, nil
}
