package ebay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmfarley/bidwatch/internal/metrics"
	domain "github.com/dmfarley/bidwatch/pkg/types"
)

const (
	defaultItemURL     = "https://api.ebay.com/buy/browse/v1/item"
	defaultMarketplace = "EBAY_US"
)

// APISource implements Source using the eBay Browse API's legacy-ID item
// lookup. It is the preferred strategy when credentials are configured.
type APISource struct {
	tokens      TokenProvider
	itemURL     string
	marketplace string
	client      *http.Client
	limiter     *rate.Limiter
	nowFunc     func() time.Time
}

// APIOption configures the APISource.
type APIOption func(*APISource)

// WithItemURL overrides the default Browse API item endpoint.
func WithItemURL(u string) APIOption {
	return func(s *APISource) {
		s.itemURL = u
	}
}

// WithMarketplace overrides the default marketplace.
func WithMarketplace(m string) APIOption {
	return func(s *APISource) {
		s.marketplace = m
	}
}

// WithAPIHTTPClient overrides the default HTTP client.
func WithAPIHTTPClient(c *http.Client) APIOption {
	return func(s *APISource) {
		s.client = c
	}
}

// WithAPIRateLimit sets the outbound request rate.
func WithAPIRateLimit(perSecond float64, burst int) APIOption {
	return func(s *APISource) {
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithAPINowFunc overrides the time function for testing.
func WithAPINowFunc(f func() time.Time) APIOption {
	return func(s *APISource) {
		s.nowFunc = f
	}
}

// NewAPISource creates a Browse API backed data source.
func NewAPISource(tokens TokenProvider, opts ...APIOption) *APISource {
	s := &APISource{
		tokens:      tokens,
		itemURL:     defaultItemURL,
		marketplace: defaultMarketplace,
		client:      &http.Client{Timeout: 30 * time.Second},
		limiter:     rate.NewLimiter(rate.Limit(2), 4),
		nowFunc:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// browseItem is the subset of the Browse getItem response we consume.
type browseItem struct {
	Title           string      `json:"title"`
	Price           *browseCost `json:"price"`
	CurrentBidPrice *browseCost `json:"currentBidPrice"`
	BidCount        int         `json:"bidCount"`
	ItemEndDate     string      `json:"itemEndDate"`
	Image           *struct {
		ImageURL string `json:"imageUrl"`
	} `json:"image"`
	ShortDescription string   `json:"shortDescription"`
	WatchCount       int      `json:"watchCount"`
	BuyingOptions    []string `json:"buyingOptions"`
}

type browseCost struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// Fetch implements Source via the Browse API.
func (s *APISource) Fetch(ctx context.Context, rawURL string) (*domain.Snapshot, error) {
	snap, err := s.fetch(ctx, rawURL)
	if err != nil {
		metrics.SourceFetchesTotal.WithLabelValues(string(domain.SourceAPI), "error").Inc()
		return nil, &FetchError{Strategy: domain.SourceAPI, URL: rawURL, Err: err}
	}
	metrics.SourceFetchesTotal.WithLabelValues(string(domain.SourceAPI), "ok").Inc()
	return snap, nil
}

func (s *APISource) fetch(ctx context.Context, rawURL string) (*domain.Snapshot, error) {
	_, itemID, err := Canonicalize(rawURL)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting auth token: %w", err)
	}

	u := s.itemURL + "/get_item_by_legacy_id?legacy_item_id=" + url.QueryEscape(itemID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-EBAY-C-MARKETPLACE-ID", s.marketplace)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing item request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading item response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("item request failed (status %d): %s", resp.StatusCode, body)
	}

	var item browseItem
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("parsing item response: %w", err)
	}

	return s.toSnapshot(&item), nil
}

func (s *APISource) toSnapshot(item *browseItem) *domain.Snapshot {
	hasBids := false
	hasBIN := false
	for _, opt := range item.BuyingOptions {
		switch opt {
		case "AUCTION":
			hasBids = true
		case "FIXED_PRICE", "BEST_OFFER":
			hasBIN = true
		}
	}

	snap := &domain.Snapshot{
		Title:       item.Title,
		BidCount:    item.BidCount,
		Description: truncate(item.ShortDescription, maxDescriptionLen),
		Watchers:    item.WatchCount,
		Status:      domain.StatusActive,
		Source:      domain.SourceAPI,
		ListingType: classify(hasBids, hasBIN),
	}

	// A running auction reports the current bid; everything else the
	// asking price. Both stay opaque display strings.
	if item.CurrentBidPrice != nil {
		snap.CurrentPrice = displayPrice(item.CurrentBidPrice)
	} else if item.Price != nil {
		snap.CurrentPrice = displayPrice(item.Price)
	}

	if snap.ListingType == domain.ListingAuctionWithBIN && item.Price != nil {
		snap.BuyItNowPrice = displayPrice(item.Price)
	}

	if item.Image != nil {
		snap.ImageURL = item.Image.ImageURL
	}

	if item.ItemEndDate != "" {
		if end, err := time.Parse(time.RFC3339, item.ItemEndDate); err == nil {
			ms := end.UnixMilli()
			snap.EndTime = &ms
			if end.Before(s.nowFunc()) {
				snap.Status = domain.StatusEnded
			}
		}
	}

	return snap
}

func displayPrice(c *browseCost) string {
	if c.Currency == "USD" {
		return "$" + c.Value
	}
	return c.Value + " " + c.Currency
}
