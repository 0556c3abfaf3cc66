package filter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"sjsage522/fundgrubenotifier/internal/crawler"
)

// MatchName reports whether every include term matches name
func (r Rule) MatchName(name string) bool {
	name = strings.ToLower(name)
	for _, term := range r.Include {
		if !term.matches(name) {
			return false
		}
	}
	return true
}

// Excludes reports whether any exclude term occurs in name
func (r Rule) Excludes(name string) bool {
	name = strings.ToLower(name)
	for _, term := range r.Exclude {
		if strings.Contains(name, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

// AllowsStore reports whether store contains one of the allowed store terms
func (r Rule) AllowsStore(store string) bool {
	if len(r.Store) == 0 {
		return true
	}
	store = strings.ToLower(store)
	for _, term := range r.Store {
		if strings.Contains(store, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

// AllowsPrice reports whether the raw price text is within the rule's maximum.
// Prices that cannot be read never pass a price limit
func (r Rule) AllowsPrice(raw string) bool {
	if r.Price == nil {
		return true
	}
	cents, err := ParsePrice(raw)
	if err != nil {
		return false
	}
	return cents <= int64(math.Round(*r.Price*100))
}

// Apply returns the products the rule selects, in page order
func Apply(products []crawler.Product, rule Rule) []crawler.Product {
	var matched []crawler.Product
	for _, p := range products {
		if !rule.MatchName(p.Name) {
			continue
		}
		if !rule.AllowsPrice(p.Price) {
			continue
		}
		if rule.Excludes(p.Name) {
			continue
		}
		if !rule.AllowsStore(p.Store) {
			continue
		}
		matched = append(matched, p)
	}
	return matched
}

// ApplyAll runs every rule over one retailer's products and labels the
// matches with the retailer name. Matches of overlapping rules are
// returned once
func ApplyAll(retailer string, products []crawler.Product, rules []Rule) []crawler.Product {
	var matched []crawler.Product
	for _, rule := range rules {
		for _, p := range Apply(products, rule) {
			matched = append(matched, PrefixStore(retailer, p))
		}
	}
	return Dedupe(matched)
}

// PrefixStore labels the product's store with the retailer name
func PrefixStore(retailer string, p crawler.Product) crawler.Product {
	p.Store = retailer + " - " + p.Store
	return p
}

// Dedupe drops repeated products, keeping the first occurrence of each natural key
func Dedupe(products []crawler.Product) []crawler.Product {
	seen := make(map[crawler.Product]struct{}, len(products))
	unique := make([]crawler.Product, 0, len(products))
	for _, p := range products {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}
	return unique
}

// ParsePrice converts retailer price text such as "1.299,00 €" or "12,34€"
// to cents. Dots are thousands separators and the comma separates cents
func ParsePrice(raw string) (int64, error) {
	s := strings.TrimFunc(raw, func(r rune) bool {
		return !unicode.IsDigit(r)
	})
	s = strings.NewReplacer(".", "", " ", "", "\u00a0", "", "\u202f", "").Replace(s)
	if s == "" {
		return 0, fmt.Errorf("no price in %q", raw)
	}

	euros, cents, hasCents := strings.Cut(s, ",")
	if hasCents && strings.Contains(cents, ",") {
		return 0, fmt.Errorf("invalid price %q", raw)
	}

	major, err := strconv.ParseInt(euros, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", raw, err)
	}

	var minor int64
	switch len(cents) {
	case 0:
	case 1, 2:
		minor, err = strconv.ParseInt(cents, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid price %q: %w", raw, err)
		}
		if len(cents) == 1 {
			minor *= 10
		}
	default:
		return 0, fmt.Errorf("invalid price %q: too many decimals", raw)
	}

	return major*100 + minor, nil
}
