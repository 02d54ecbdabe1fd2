package ebay

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/dmfarley/bidwatch/internal/metrics"
	domain "github.com/dmfarley/bidwatch/pkg/types"
)

// Item page markers. eBay reshuffles these periodically; the selectors
// below match the current desktop item page and degrade to nil fields
// rather than errors when absent.
const (
	selTitle         = "h1.x-item-title__mainTitle"
	selPrice         = ".x-price-primary .ux-textspans"
	selBidCount      = "[data-testid=x-bid-count]"
	selBidAction     = "[data-testid=x-bid-action]"
	selBINAction     = "[data-testid=x-bin-action]"
	selBINPrice      = "[data-testid=x-bin-price] .ux-textspans"
	selEndTimestamp  = "span[data-endtime]"
	selCountdown     = ".ux-timer[data-msec-remaining]"
	selCountdownText = ".ux-timer__text"
)

var (
	bidsTextPattern     = regexp.MustCompile(`(\d+)\s+bids?\b`)
	watchersTextPattern = regexp.MustCompile(`(\d+)\s+watchers?\b`)
	viewsTextPattern    = regexp.MustCompile(`(\d+)\s+(?:viewed|views)\b`)
	remainingPattern    = regexp.MustCompile(`(\d+)\s*([dhms])`)
)

// ScrapeSource implements Source by fetching and parsing the public item
// page. It needs no credentials and serves as the fallback strategy.
type ScrapeSource struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	nowFunc   func() time.Time
}

// ScrapeOption configures the ScrapeSource.
type ScrapeOption func(*ScrapeSource)

// WithScrapeHTTPClient overrides the default HTTP client.
func WithScrapeHTTPClient(c *http.Client) ScrapeOption {
	return func(s *ScrapeSource) {
		s.client = c
	}
}

// WithScrapeRateLimit sets the outbound request rate.
func WithScrapeRateLimit(perSecond float64, burst int) ScrapeOption {
	return func(s *ScrapeSource) {
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithScrapeNowFunc overrides the time function for testing.
func WithScrapeNowFunc(f func() time.Time) ScrapeOption {
	return func(s *ScrapeSource) {
		s.nowFunc = f
	}
}

// NewScrapeSource creates a page-scrape backed data source.
func NewScrapeSource(opts ...ScrapeOption) *ScrapeSource {
	s := &ScrapeSource{
		client:    &http.Client{Timeout: 30 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(2), 4),
		userAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
		nowFunc:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch implements Source by scraping the canonical item page.
func (s *ScrapeSource) Fetch(ctx context.Context, rawURL string) (*domain.Snapshot, error) {
	snap, err := s.fetch(ctx, rawURL)
	if err != nil {
		metrics.SourceFetchesTotal.WithLabelValues(string(domain.SourceScrape), "error").Inc()
		return nil, &FetchError{Strategy: domain.SourceScrape, URL: rawURL, Err: err}
	}
	metrics.SourceFetchesTotal.WithLabelValues(string(domain.SourceScrape), "ok").Inc()
	return snap, nil
}

func (s *ScrapeSource) fetch(ctx context.Context, rawURL string) (*domain.Snapshot, error) {
	canonical, _, err := Canonicalize(rawURL)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, canonical, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating page request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing page request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page request failed (status %d)", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing page HTML: %w", err)
	}

	return s.parse(doc), nil
}

func (s *ScrapeSource) parse(doc *goquery.Document) *domain.Snapshot {
	bodyText := doc.Find("body").Text()

	snap := &domain.Snapshot{
		Title:        firstText(doc, selTitle),
		CurrentPrice: firstText(doc, selPrice),
		ImageURL:     metaAttr(doc, "meta[property='og:image']"),
		Status:       domain.StatusActive,
		Source:       domain.SourceScrape,
	}

	if snap.Title == "" {
		snap.Title = metaAttr(doc, "meta[property='og:title']")
	}
	snap.Description = truncate(metaAttr(doc, "meta[name='description']"), maxDescriptionLen)

	snap.BidCount = parseBidCount(doc, bodyText)
	snap.Watchers = firstInt(watchersTextPattern, bodyText)
	snap.Views = firstInt(viewsTextPattern, bodyText)

	snap.EndTime = s.parseEndTime(doc)

	if isEnded(bodyText) {
		snap.Status = domain.StatusEnded
	}

	hasBids := snap.BidCount > 0 || doc.Find(selBidAction).Length() > 0
	hasBIN := doc.Find(selBINAction).Length() > 0
	snap.ListingType = classify(hasBids, hasBIN)

	if snap.ListingType == domain.ListingAuctionWithBIN {
		snap.BuyItNowPrice = firstText(doc, selBINPrice)
	}

	return snap
}

// parseEndTime walks the deadline fallback chain: embedded epoch
// timestamp, then countdown attribute, then relative display text.
// The first method to yield a value wins; a nil result means the
// deadline is unknown.
func (s *ScrapeSource) parseEndTime(doc *goquery.Document) *int64 {
	if raw, ok := doc.Find(selEndTimestamp).Attr("data-endtime"); ok {
		if ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil && ms > 0 {
			return &ms
		}
	}

	if raw, ok := doc.Find(selCountdown).Attr("data-msec-remaining"); ok {
		if remaining, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil && remaining > 0 {
			ms := s.nowFunc().UnixMilli() + remaining
			return &ms
		}
	}

	if text := firstText(doc, selCountdownText); text != "" {
		if d, ok := parseRemaining(text); ok {
			ms := s.nowFunc().Add(d).UnixMilli()
			return &ms
		}
	}

	return nil
}

// parseRemaining converts relative display text like "Ends in 1d 5h 3m"
// to a duration.
func parseRemaining(text string) (time.Duration, bool) {
	matches := remainingPattern.FindAllStringSubmatch(strings.ToLower(text), -1)
	if len(matches) == 0 {
		return 0, false
	}

	var d time.Duration
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		switch m[2] {
		case "d":
			d += time.Duration(n) * 24 * time.Hour
		case "h":
			d += time.Duration(n) * time.Hour
		case "m":
			d += time.Duration(n) * time.Minute
		case "s":
			d += time.Duration(n) * time.Second
		}
	}
	return d, d > 0
}

func parseBidCount(doc *goquery.Document, bodyText string) int {
	if text := firstText(doc, selBidCount); text != "" {
		if n := firstInt(bidsTextPattern, text); n > 0 {
			return n
		}
		if n, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
			return n
		}
	}
	return firstInt(bidsTextPattern, bodyText)
}

func isEnded(bodyText string) bool {
	return strings.Contains(bodyText, "This listing has ended") ||
		strings.Contains(bodyText, "This listing sold") ||
		strings.Contains(bodyText, "Bidding ended on")
}

func firstText(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

func metaAttr(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

func firstInt(re *regexp.Regexp, text string) int {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
