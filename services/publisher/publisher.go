// Package publisher forwards newly found records to other consumers
package publisher

import (
	"context"
	"encoding/json"
	"strings"

	"sjsage522/fundgrubenotifier/internal/delta"
	apperrors "sjsage522/fundgrubenotifier/pkg/errors"
)

// Publisher represents a service for publishing messages
type Publisher interface {
	// Publish publishes a message to a stream
	Publish(ctx context.Context, key string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}

// RecordKey returns the message key of a record: the retailer its store
// label starts with
func RecordKey(r delta.Record) string {
	retailer, _, found := strings.Cut(r.Store, " - ")
	if !found {
		return "unknown"
	}
	return retailer
}

// PublishRecords publishes each record as JSON under its retailer key and
// trims the streams afterwards
func PublishRecords(ctx context.Context, p Publisher, records []delta.Record) error {
	if len(records) == 0 {
		return nil
	}

	for _, r := range records {
		key := RecordKey(r)
		data, err := json.Marshal(r)
		if err != nil {
			return apperrors.NewPublisher(key, "failed to marshal record", err)
		}
		if err := p.Publish(ctx, key, data); err != nil {
			return apperrors.NewPublisher(key, "failed to publish record", err)
		}
	}

	if err := p.TrimStreams(ctx); err != nil {
		return apperrors.NewPublisher("", "failed to trim streams", err)
	}
	return nil
}
