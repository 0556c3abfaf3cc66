package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/fundgrubenotifier/internal/crawler"
	"sjsage522/fundgrubenotifier/internal/delta"
	apperrors "sjsage522/fundgrubenotifier/pkg/errors"
)

type message struct {
	key  string
	data []byte
}

type mockPublisher struct {
	messages []message
	trims    int
	err      error
}

func (m *mockPublisher) Publish(_ context.Context, key string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, message{key: key, data: data})
	return nil
}

func (m *mockPublisher) TrimStreams(context.Context) error {
	m.trims++
	return nil
}

func (m *mockPublisher) Close() error { return nil }

var seen = time.Date(2026, 10, 19, 13, 0, 0, 0, time.UTC)

func TestPublishRecords(t *testing.T) {
	p := &mockPublisher{}
	records := []delta.Record{
		{Product: crawler.Product{Name: "Apple iPhone", Price: "12,34€", Store: "Saturn - Berlin", Image: "1.jpg"}, Time: seen},
		{Product: crawler.Product{Name: "Sony PS5", Price: "399,00€", Store: "MM - Köln - Mitte", Image: "2.jpg"}, Time: seen},
	}

	require.NoError(t, PublishRecords(context.Background(), p, records))

	require.Len(t, p.messages, 2)
	assert.Equal(t, "Saturn", p.messages[0].key)
	assert.Equal(t, "MM", p.messages[1].key)
	assert.Equal(t, 1, p.trims)

	assert.JSONEq(t,
		`{"name":"Apple iPhone","price":"12,34€","store":"Saturn - Berlin","image":"1.jpg","time":"2026-10-19T13:00:00Z"}`,
		string(p.messages[0].data))

	var decoded delta.Record
	require.NoError(t, json.Unmarshal(p.messages[1].data, &decoded))
	assert.Equal(t, records[1].Product, decoded.Product)
}

func TestPublishRecordsNothingNew(t *testing.T) {
	p := &mockPublisher{}
	require.NoError(t, PublishRecords(context.Background(), p, nil))
	assert.Zero(t, p.trims)
}

func TestPublishRecordsError(t *testing.T) {
	p := &mockPublisher{err: errors.New("connection refused")}
	records := []delta.Record{{Product: crawler.Product{Name: "x", Store: "MM - Köln"}, Time: seen}}

	err := PublishRecords(context.Background(), p, records)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypePublisher))
	assert.ErrorContains(t, err, "connection refused")
}

func TestRecordKey(t *testing.T) {
	assert.Equal(t, "Saturn", RecordKey(delta.Record{Product: crawler.Product{Store: "Saturn - Berlin"}}))
	assert.Equal(t, "unknown", RecordKey(delta.Record{Product: crawler.Product{Store: "Berlin"}}))
}
