// Package source re-checks marketplace listings that are already in the
// catalog: is the listing still up, and at what price. It deliberately
// knows nothing about scoring or lifecycle policy; it reports what the
// page says and lets callers decide.
package source

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Checker is implemented by listing re-checkers.
type Checker interface {
	Check(ctx context.Context, sourceURL string) (*CheckResult, error)
}

// CheckResult is the outcome of one listing re-fetch. A transport or
// timeout failure is returned as an error instead; callers must treat
// those as transient, never as a deletion signal.
type CheckResult struct {
	// Gone reports a definitive deletion marker: HTTP 404/410 or a
	// removal phrase on an otherwise healthy page.
	Gone bool

	// Price is the currently advertised price when one was found.
	Price    float64
	HasPrice bool
}

// goneMarkers are phrases marketplaces render on deleted listings.
// Matching is case-insensitive against the page heading and body text.
var goneMarkers = []string{
	"no longer available",
	"listing has been deleted",
	"listing not found",
	"anzeige wurde gelöscht",
	"anzeige ist nicht mehr verfügbar",
	"advertentie is verwijderd",
}

// priceSelectors is the extraction ladder, most specific first. The
// first selector yielding a parseable number wins.
var priceSelectors = []string{
	"[itemprop='price']",
	"meta[property='product:price:amount']",
	"[data-testid='price']",
	".price-block__price",
	".listing-price",
	".price",
}

var jsonLDPriceRe = regexp.MustCompile(`"price"\s*:\s*"?([0-9][0-9.,]*)"?`)

// HTTPChecker fetches listings over plain HTTP.
type HTTPChecker struct {
	client    *http.Client
	userAgent string
}

// NewHTTPChecker creates a checker with the given per-request timeout.
func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	return &HTTPChecker{
		client:    &http.Client{Timeout: timeout},
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	}
}

// Check re-fetches the listing page and reports its state.
func (h *HTTPChecker) Check(ctx context.Context, sourceURL string) (*CheckResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", sourceURL, err)
	}
	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", sourceURL, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusGone:
		return &CheckResult{Gone: true}, nil
	case http.StatusOK:
	default:
		// 5xx, 429 and friends are transient server moods, not deletion
		// evidence.
		return nil, fmt.Errorf("fetch %s: status code %d", sourceURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", sourceURL, err)
	}

	if hasGoneMarker(doc) {
		return &CheckResult{Gone: true}, nil
	}

	res := &CheckResult{}
	if price, ok := extractPrice(doc); ok {
		res.Price = price
		res.HasPrice = true
	}
	return res, nil
}

var _ Checker = (*HTTPChecker)(nil)

func hasGoneMarker(doc *goquery.Document) bool {
	text := strings.ToLower(doc.Find("h1, h2, .error, .notice, [class*='expired']").Text())
	if text == "" {
		text = strings.ToLower(doc.Find("body").Text())
	}
	for _, marker := range goneMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// extractPrice walks the selector ladder, preferring content attributes
// over element text, then falls back to JSON-LD script blocks.
func extractPrice(doc *goquery.Document) (float64, bool) {
	for _, selector := range priceSelectors {
		var priceText string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := s.AttrOr("content", "")
			if text == "" {
				text = strings.TrimSpace(s.Text())
			}
			if text != "" {
				priceText = text
				return false
			}
			return true
		})
		if price, err := parsePrice(priceText); err == nil {
			return price, true
		}
	}

	var price float64
	var found bool
	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		matches := jsonLDPriceRe.FindStringSubmatch(s.Text())
		if len(matches) > 1 {
			if p, err := parsePrice(matches[1]); err == nil {
				price = p
				found = true
				return false
			}
		}
		return true
	})
	return price, found
}

var nonNumericRe = regexp.MustCompile(`[^0-9.,]`)

// parsePrice normalizes marketplace price text. Both "1.250,50" and
// "1,250.50" styles occur in the wild; whichever separator comes last is
// taken as the decimal point.
func parsePrice(text string) (float64, error) {
	cleaned := nonNumericRe.ReplaceAllString(text, "")
	if cleaned == "" {
		return 0, fmt.Errorf("no digits in price text %q", text)
	}

	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")
	switch {
	case lastComma > lastDot:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		idx := strings.LastIndex(cleaned, ",")
		cleaned = strings.ReplaceAll(cleaned[:idx], ",", "") + "." + cleaned[idx+1:]
	case lastDot > lastComma:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", text, err)
	}
	return price, nil
}
