package crawler

import (
	"context"
	"regexp"
	"strings"
	"time"

	"sjsage522/fundgrubenotifier/logger"
	apperrors "sjsage522/fundgrubenotifier/pkg/errors"
	"sjsage522/fundgrubenotifier/services/cache"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// The retailer pages are generated snapshots with this layout:
//
//	<body>
//	  <div>Letzter Abruf: 19.10.2026, 10:30 Uhr</div>
//	  <div><h3>Store label</h3></div>
//	  <div><table>
//	    <tr><td>12,34€</td><td><a href="image-url">Product name</a></td></tr>
//	  </table></div>
//	  ...
//
// The price is the first content of the cell before the link's cell and
// the store is the first content of the element before the div enclosing
// the link. Layout changes only need to touch this file
const (
	// DefaultMaxAge is how old the page's last update may be before the feed is stale
	DefaultMaxAge = 2*time.Hour + 30*time.Minute
	// PageCacheTTL is how long a fetched page is reused in development mode
	PageCacheTTL = 50 * time.Minute

	lastUpdateLayout = "2.1.2006 15:04"
)

var (
	defaultSelectors = Selectors{
		Header:  "body > div",
		Listing: "body a[href]",
	}

	lastUpdatePattern = regexp.MustCompile(`Letzter Abruf:\s*(\d{1,2}\.\d{1,2}\.\d{4}),\s*(\d{1,2}:\d{2})\s*Uhr`)
)

// FundgrubeCrawler extracts clearance listings from a retailer page
type FundgrubeCrawler struct {
	BaseCrawler
	Selectors Selectors
	MaxAge    time.Duration
	Location  *time.Location

	now func() time.Time
}

// NewFundgrubeCrawler creates a new crawler for one retailer page
func NewFundgrubeCrawler(config CrawlerConfig, cacheSvc cache.CacheService) *FundgrubeCrawler {
	selectors := config.Selectors
	if selectors.Header == "" {
		selectors.Header = defaultSelectors.Header
	}
	if selectors.Listing == "" {
		selectors.Listing = defaultSelectors.Listing
	}
	maxAge := config.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	location := config.Location
	if location == nil {
		location = time.Local
	}
	cacheTTL := config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = PageCacheTTL
	}

	return &FundgrubeCrawler{
		BaseCrawler: BaseCrawler{
			URL:      config.Retailer.URL,
			Provider: config.Retailer.Name,
			CacheKey: config.CacheKey,
			CacheSvc: cacheSvc,
			CacheTTL: cacheTTL,
		},
		Selectors: selectors,
		MaxAge:    maxAge,
		Location:  location,
		now:       time.Now,
	}
}

// GetName returns the crawler name
func (c *FundgrubeCrawler) GetName() string {
	return c.Provider + "Crawler"
}

// FetchProducts fetches the page, checks that it is up to date and extracts all listings
func (c *FundgrubeCrawler) FetchProducts(ctx context.Context) ([]Product, error) {
	body, err := c.fetchWithCache(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := c.createDocument(body)
	if err != nil {
		return nil, err
	}

	if err := c.checkFreshness(doc); err != nil {
		return nil, err
	}

	products := c.ExtractProducts(doc)
	logger.ForCrawler(c.Provider).Debug().Int("count", len(products)).Msg("Extracted listings")
	return products, nil
}

// checkFreshness fails with a stale data error when the page was last
// refreshed more than MaxAge ago
func (c *FundgrubeCrawler) checkFreshness(doc *goquery.Document) error {
	lastUpdate, err := c.LastUpdate(doc)
	if err != nil {
		return err
	}

	now := c.now()
	logger.ForCrawler(c.Provider).Debug().Time("last_update", lastUpdate).Msg("Page timestamp")
	if now.Sub(lastUpdate) > c.MaxAge {
		return apperrors.NewStaleData(c.Provider, lastUpdate, now)
	}
	return nil
}

// LastUpdate reads the "Letzter Abruf" timestamp from the page header
func (c *FundgrubeCrawler) LastUpdate(doc *goquery.Document) (time.Time, error) {
	header := doc.Find(c.Selectors.Header).First()
	if header.Length() == 0 {
		return time.Time{}, apperrors.NewParsing(c.Provider, "page header not found", nil)
	}

	match := lastUpdatePattern.FindStringSubmatch(header.Text())
	if match == nil {
		return time.Time{}, apperrors.NewParsing(c.Provider, "last update timestamp not found in header", nil)
	}

	lastUpdate, err := time.ParseInLocation(lastUpdateLayout, match[1]+" "+match[2], c.Location)
	if err != nil {
		return time.Time{}, apperrors.NewParsing(c.Provider, "invalid last update timestamp", err)
	}
	return lastUpdate, nil
}

// ExtractProducts returns every listing link whose price and store can be
// resolved. Anything else on the page is skipped
func (c *FundgrubeCrawler) ExtractProducts(doc *goquery.Document) []Product {
	log := logger.ForCrawler(c.Provider)
	products := []Product{}

	doc.Find(c.Selectors.Listing).Each(func(i int, a *goquery.Selection) {
		name := strings.TrimSpace(a.Text())
		image, _ := a.Attr("href")
		image = strings.TrimSpace(image)
		if name == "" || image == "" {
			return
		}

		price := firstContent(a.Parent().Prev())
		store := firstContent(a.Closest("div").Prev())
		if price == "" || store == "" {
			log.Debug().Str("name", name).Msg("Skipping link outside listing structure")
			return
		}

		products = append(products, Product{
			Name:  name,
			Price: price,
			Store: store,
			Image: image,
		})
	})

	return products
}

// firstContent returns the trimmed text of the first non-blank child node of s
func firstContent(s *goquery.Selection) string {
	var text string
	s.First().Contents().EachWithBreak(func(i int, child *goquery.Selection) bool {
		node := child.Get(0)
		switch node.Type {
		case html.TextNode:
			text = strings.TrimSpace(node.Data)
		case html.ElementNode:
			text = strings.TrimSpace(child.Text())
		}
		return text == ""
	})
	return text
}
