package delta

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/fundgrubenotifier/internal/crawler"
)

var (
	monday  = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	tuesday = monday.Add(24 * time.Hour)

	iphone = crawler.Product{Name: "Apple iPhone 64GB Black", Price: "12,34€", Store: "Saturn - Berlin", Image: "https://img.example/1.jpg"}
	sony   = crawler.Product{Name: "Sony WH-1000XM4", Price: "99,00€", Store: "MM - Hamburg", Image: "https://img.example/2.jpg"}
	ps5    = crawler.Product{Name: "Sony PS5", Price: "399,00€", Store: "Saturn - Berlin", Image: "https://img.example/3.jpg"}
)

type memoryStore struct {
	records []Record
	saves   int
	loadErr error
}

func (m *memoryStore) LoadResults(ctx context.Context) ([]Record, error) {
	return m.records, m.loadErr
}

func (m *memoryStore) SaveResults(ctx context.Context, records []Record) error {
	m.records = append([]Record(nil), records...)
	m.saves++
	return nil
}

func TestMergeFirstRun(t *testing.T) {
	newCount, merged := Merge([]crawler.Product{iphone, sony}, nil, monday)

	assert.Equal(t, 2, newCount)
	want := []Record{
		{Product: iphone, Time: monday}, // "Saturn - Berlin" sorts above "MM - Hamburg"
		{Product: sony, Time: monday},
	}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	_, first := Merge([]crawler.Product{iphone, sony}, nil, monday)

	newCount, second := Merge([]crawler.Product{iphone, sony}, first, tuesday)

	assert.Equal(t, 0, newCount)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second Merge() changed the set (-first +second):\n%s", diff)
	}
}

func TestMergeKeepsFirstSeenTime(t *testing.T) {
	previous := []Record{{Product: iphone, Time: monday}}

	newCount, merged := Merge([]crawler.Product{ps5, iphone}, previous, tuesday)

	assert.Equal(t, 1, newCount)
	want := []Record{
		{Product: ps5, Time: tuesday},
		{Product: iphone, Time: monday},
	}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeRetainsDisappearedRecords(t *testing.T) {
	previous := []Record{{Product: sony, Time: monday}}

	newCount, merged := Merge([]crawler.Product{iphone}, previous, tuesday)
	assert.Equal(t, 1, newCount)
	assert.Equal(t, []Record{{Product: iphone, Time: tuesday}, {Product: sony, Time: monday}}, merged)

	// the listing comes back: still not new
	newCount, merged = Merge([]crawler.Product{iphone, sony}, merged, tuesday.Add(time.Hour))
	assert.Equal(t, 0, newCount)
	assert.Equal(t, monday, merged[1].Time)
}

func TestMergePriceChangeIsNewListing(t *testing.T) {
	cheaper := iphone
	cheaper.Price = "9,99€"
	previous := []Record{{Product: iphone, Time: monday}}

	newCount, merged := Merge([]crawler.Product{cheaper}, previous, tuesday)
	assert.Equal(t, 1, newCount)
	assert.Len(t, merged, 2)
	assert.Equal(t, cheaper, merged[0].Product)
}

func TestMergeDropsRepeats(t *testing.T) {
	previous := []Record{{Product: iphone, Time: monday}, {Product: iphone, Time: tuesday}}

	newCount, merged := Merge([]crawler.Product{sony, sony}, previous, tuesday)
	assert.Equal(t, 1, newCount)
	assert.Equal(t, []Record{{Product: sony, Time: tuesday}, {Product: iphone, Time: monday}}, merged)
}

func TestSortBreaksTiesByStoreThenName(t *testing.T) {
	a := crawler.Product{Name: "A", Store: "Saturn - Berlin"}
	b := crawler.Product{Name: "B", Store: "Saturn - Berlin"}
	c := crawler.Product{Name: "C", Store: "MM - Köln"}
	records := []Record{
		{Product: c, Time: monday},
		{Product: a, Time: monday},
		{Product: b, Time: monday},
		{Product: a, Time: tuesday},
	}

	Sort(records)

	var got []string
	for _, r := range records {
		got = append(got, r.Name+"@"+r.Time.Weekday().String())
	}
	assert.Equal(t, []string{"A@Tuesday", "B@Monday", "A@Monday", "C@Monday"}, got)
}

func TestTrackerUpdate(t *testing.T) {
	store := &memoryStore{}
	tracker := NewTracker(store)
	tracker.now = func() time.Time { return monday }

	newCount, merged, err := tracker.Update(context.Background(), []crawler.Product{iphone, sony})
	require.NoError(t, err)
	assert.Equal(t, 2, newCount)
	assert.Equal(t, merged, store.records)

	tracker.now = func() time.Time { return tuesday }
	newCount, merged, err = tracker.Update(context.Background(), []crawler.Product{iphone, sony})
	require.NoError(t, err)
	assert.Equal(t, 0, newCount)
	assert.Equal(t, monday, merged[0].Time)
	assert.Equal(t, 2, store.saves)
}

func TestTrackerUpdateLoadError(t *testing.T) {
	store := &memoryStore{loadErr: errors.New("disk on fire")}

	_, _, err := NewTracker(store).Update(context.Background(), []crawler.Product{iphone})
	assert.ErrorContains(t, err, "disk on fire")
	assert.Equal(t, 0, store.saves, "nothing is written when the snapshot cannot be read")
}
