// Package storage persists the result set and the last error category between runs
package storage

import (
	"context"

	"sjsage522/fundgrubenotifier/internal/delta"
)

// ResultStore persists the merged result set
type ResultStore = delta.Store

// ErrorStore keeps the category of the most recent run error
type ErrorStore interface {
	// LoadErrorCategory returns the stored category, "" when none is stored
	LoadErrorCategory(ctx context.Context) (string, error)
	SaveErrorCategory(ctx context.Context, category string) error
	ClearErrorCategory(ctx context.Context) error
}

// Storage is the interface for all persistence operations
type Storage interface {
	ResultStore
	ErrorStore
	Close() error
}
