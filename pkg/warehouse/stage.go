package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// StageFile is one row of LIST @stage.
type StageFile struct {
	Name         string `json:"name"`
	Size         string `json:"size,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
}

// ValidStage accepts a stage name with optional database/schema qualifiers.
func ValidStage(stage string) bool {
	parts := strings.Split(stage, ".")
	if len(parts) > 3 {
		return false
	}
	for _, p := range parts {
		if !ValidIdentifier(p) {
			return false
		}
	}
	return true
}

// ListStage lists the files staged in @stage.
func ListStage(ctx context.Context, q Querier, stage string) ([]StageFile, error) {
	if !ValidStage(stage) {
		return nil, fmt.Errorf("%w: stage %q", ErrInvalidIdentifier, stage)
	}

	rows, err := q.QueryContext(ctx, "LIST @"+stage)
	if err != nil {
		return nil, fmt.Errorf("list stage %s: %w", stage, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var files []StageFile
	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan stage row: %w", err)
		}

		var f StageFile
		for i, col := range cols {
			switch strings.ToLower(col) {
			case "name":
				f.Name = values[i].String
			case "size":
				f.Size = values[i].String
			case "last_modified":
				f.LastModified = values[i].String
			}
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// DistinctValues returns the distinct non-null values of column in table.
func DistinctValues(ctx context.Context, q Querier, table, column string) ([]string, error) {
	if !ValidStage(table) || !ValidIdentifier(column) {
		return nil, fmt.Errorf("%w: %s.%s", ErrInvalidIdentifier, table, column)
	}

	query := fmt.Sprintf("SELECT %s FROM %s GROUP BY %s", column, table, column)
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		if v.Valid {
			values = append(values, v.String)
		}
	}
	return values, rows.Err()
}

// PresignedURL asks the stage for a download link valid for ttlSeconds.
func PresignedURL(ctx context.Context, q Querier, stage, path string, ttlSeconds int) (string, error) {
	if !ValidStage(stage) {
		return "", fmt.Errorf("%w: stage %q", ErrInvalidIdentifier, stage)
	}

	query := fmt.Sprintf("SELECT GET_PRESIGNED_URL(@%s, ?, ?) AS URL_LINK", stage)
	var url sql.NullString
	if err := queryOne(ctx, q, query, []any{&url}, path, ttlSeconds); err != nil {
		return "", fmt.Errorf("presign %s: %w", path, err)
	}
	return url.String, nil
}
