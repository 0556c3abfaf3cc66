package crawler

import (
	"context"
	"time"
)

// Product represents one clearance listing scraped from a retailer page.
// All four fields together form the natural key of a listing
type Product struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Store string `json:"store"`
	Image string `json:"image"`
}

// Retailer is a source page listing clearance items across its stores
type Retailer struct {
	Name string
	URL  string
}

// Crawler interface defines the contract for all crawler implementations
type Crawler interface {
	// FetchProducts retrieves all listings currently on the retailer page
	FetchProducts(ctx context.Context) ([]Product, error)

	// GetName returns the crawler's name for logging and identification
	GetName() string

	// GetProvider returns the retailer name used to prefix store labels
	GetProvider() string
}

// Selectors contains the CSS selectors the extractor starts from
type Selectors struct {
	// Header holds the "Letzter Abruf" timestamp
	Header string
	// Listing matches the listing links
	Listing string
}

// CrawlerConfig contains configuration for a crawler
type CrawlerConfig struct {
	Retailer  Retailer
	CacheKey  string
	CacheTTL  time.Duration
	MaxAge    time.Duration
	Location  *time.Location
	Selectors Selectors
}
