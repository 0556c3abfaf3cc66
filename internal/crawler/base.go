package crawler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"sjsage522/fundgrubenotifier/helpers"
	"sjsage522/fundgrubenotifier/logger"
	apperrors "sjsage522/fundgrubenotifier/pkg/errors"
	"sjsage522/fundgrubenotifier/services/cache"

	"github.com/PuerkitoBio/goquery"
)

// BaseCrawler provides common functionality for all crawlers
type BaseCrawler struct {
	URL      string
	Provider string
	CacheKey string
	CacheSvc cache.CacheService
	CacheTTL time.Duration
}

// fetchWithCache returns the page body, served from the cache when a fresh
// copy exists. Without a cache service every call goes to the network
func (c *BaseCrawler) fetchWithCache(ctx context.Context) (io.Reader, error) {
	log := logger.ForCrawler(c.Provider)

	if c.CacheSvc != nil && c.CacheKey != "" {
		cached, err := c.CacheSvc.Get(c.CacheKey)
		if err == nil {
			log.Debug().Str("key", c.CacheKey).Msg("Loaded page from cache")
			return bytes.NewReader(cached), nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn().Err(err).Msg("Failed to read page cache")
		}
	}

	log.Info().Str("url", c.URL).Msg("Requesting page")
	body, err := helpers.FetchWithRetry(ctx, c.URL)
	if err != nil {
		return nil, apperrors.NewNetwork(c.Provider, "failed to fetch page", err)
	}

	if c.CacheSvc == nil || c.CacheKey == "" {
		return body, nil
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, apperrors.NewNetwork(c.Provider, "failed to read page", err)
	}
	if err := c.CacheSvc.Set(c.CacheKey, data, c.CacheTTL); err != nil {
		log.Warn().Err(err).Msg("Failed to refresh page cache")
	}
	return bytes.NewReader(data), nil
}

// createDocument creates a goquery document from a reader
func (c *BaseCrawler) createDocument(reader io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, apperrors.NewParsing(c.Provider, "HTML parsing failed", err)
	}
	return doc, nil
}

// GetProvider returns the retailer name
func (c *BaseCrawler) GetProvider() string {
	return c.Provider
}
