// Package repository holds the hand-written SQL behind the store boundary.
// Every repository runs its statements through a DBTX, so the same code
// serves both direct *sql.DB access and a transaction via WithTx.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func marshalParams(params map[string]float64) (string, error) {
	if params == nil {
		params = map[string]float64{}
	}
	b, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to marshal rule params: %w", err)
	}
	return string(b), nil
}

func unmarshalParams(raw string) (map[string]float64, error) {
	if raw == "" {
		return map[string]float64{}, nil
	}
	var params map[string]float64
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rule params: %w", err)
	}
	if params == nil {
		params = map[string]float64{}
	}
	return params, nil
}

// placeholders builds "?, ?, ?" for an IN clause over ids.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
