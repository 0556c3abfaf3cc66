// Package delta merges the products found in a run into the persisted
// result set and works out which of them are new
package delta

import (
	"context"
	"fmt"
	"sort"
	"time"

	"sjsage522/fundgrubenotifier/internal/crawler"
)

// Record is a product together with the time it was first seen
type Record struct {
	crawler.Product
	Time time.Time `json:"time"`
}

// Store persists the result set between runs
type Store interface {
	// LoadResults returns the previous snapshot; empty when there is none
	LoadResults(ctx context.Context) ([]Record, error)
	// SaveResults replaces the snapshot
	SaveResults(ctx context.Context, records []Record) error
}

// Merge joins current onto previous by natural key. Current products
// without a previous record are new and get now as their first-seen time;
// previous records keep their time whether or not they are still listed.
// The result holds every key once, newest first, ties broken by store and
// then name, both descending
func Merge(current []crawler.Product, previous []Record, now time.Time) (int, []Record) {
	firstSeen := make(map[crawler.Product]time.Time, len(previous))
	for _, r := range previous {
		if _, ok := firstSeen[r.Product]; !ok {
			firstSeen[r.Product] = r.Time
		}
	}

	merged := make([]Record, 0, len(current)+len(previous))
	included := make(map[crawler.Product]struct{}, len(current)+len(previous))
	newCount := 0

	for _, p := range current {
		if _, ok := included[p]; ok {
			continue
		}
		included[p] = struct{}{}

		seen, ok := firstSeen[p]
		if !ok {
			seen = now
			newCount++
		}
		merged = append(merged, Record{Product: p, Time: seen})
	}

	for _, r := range previous {
		if _, ok := included[r.Product]; ok {
			continue
		}
		included[r.Product] = struct{}{}
		merged = append(merged, r)
	}

	Sort(merged)
	return newCount, merged
}

// Sort orders records by time, store and name, all descending
func Sort(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.Time.Equal(b.Time) {
			return a.Time.After(b.Time)
		}
		if a.Store != b.Store {
			return a.Store > b.Store
		}
		return a.Name > b.Name
	})
}

// Tracker runs Merge against a Store. It is the only writer of the result set
type Tracker struct {
	store Store
	now   func() time.Time
}

// NewTracker creates a tracker persisting to store
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// Update merges current into the stored snapshot, saves the merged set and
// returns it together with the number of new records, which come first
func (t *Tracker) Update(ctx context.Context, current []crawler.Product) (int, []Record, error) {
	previous, err := t.store.LoadResults(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("load previous results: %w", err)
	}

	newCount, merged := Merge(current, previous, t.now().UTC().Round(0))

	if err := t.store.SaveResults(ctx, merged); err != nil {
		return 0, nil, fmt.Errorf("save results: %w", err)
	}
	return newCount, merged, nil
}
