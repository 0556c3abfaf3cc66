package crawler

import (
	"fmt"

	"sjsage522/fundgrubenotifier/config"
	"sjsage522/fundgrubenotifier/logger"
	"sjsage522/fundgrubenotifier/services/cache"
)

// Retailers returns the configured retailer pages in processing order
func Retailers(cfg *config.Config) []Retailer {
	return []Retailer{
		{Name: "Saturn", URL: cfg.SaturnURL},
		{Name: "MM", URL: cfg.MMURL},
	}
}

// CreateCrawlers creates one crawler per retailer. cacheSvc may be nil,
// in which case every run fetches the pages from the network
func CreateCrawlers(cfg *config.Config, cacheSvc cache.CacheService) ([]Crawler, error) {
	location, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load feed time zone: %w", err)
	}

	var crawlers []Crawler
	for _, retailer := range Retailers(cfg) {
		c := NewFundgrubeCrawler(CrawlerConfig{
			Retailer: retailer,
			CacheKey: retailer.Name,
			CacheTTL: PageCacheTTL,
			MaxAge:   DefaultMaxAge,
			Location: location,
		}, cacheSvc)

		logger.ForCrawler(retailer.Name).Debug().
			Str("url", c.URL).
			Bool("cached", cacheSvc != nil).
			Msg("Created crawler")
		crawlers = append(crawlers, c)
	}

	return crawlers, nil
}
