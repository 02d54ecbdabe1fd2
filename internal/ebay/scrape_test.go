package ebay

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/dmfarley/bidwatch/pkg/types"
)

func pageServer(t *testing.T, html string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, html)
	}))
}

// scrapeFrom fetches through a local page server, rewriting the item URL
// host via a redirecting transport.
func scrapeFrom(t *testing.T, html string, now time.Time) *domain.Snapshot {
	t.Helper()

	srv := pageServer(t, html)
	t.Cleanup(srv.Close)

	client := srv.Client()
	client.Transport = rewriteHost(srv.URL)

	src := NewScrapeSource(
		WithScrapeHTTPClient(client),
		WithScrapeNowFunc(func() time.Time { return now }),
	)

	snap, err := src.Fetch(context.Background(), listingURL)
	require.NoError(t, err)
	return snap
}

type rewriteHost string

func (rw rewriteHost) RoundTrip(req *http.Request) (*http.Response, error) {
	redirected := string(rw) + req.URL.Path
	clone := req.Clone(req.Context())
	u, err := clone.URL.Parse(redirected)
	if err != nil {
		return nil, err
	}
	clone.URL = u
	clone.Host = u.Host
	return http.DefaultTransport.RoundTrip(clone)
}

const auctionPage = `<html><head>
<meta property="og:image" content="https://i.ebayimg.com/images/g/xyz/s-l1600.jpg">
<meta name="description" content="A lovely old rangefinder.">
</head><body>
<h1 class="x-item-title__mainTitle">Leica M3 Rangefinder</h1>
<div class="x-price-primary"><span class="ux-textspans">US $412.00</span></div>
<span data-testid="x-bid-count">9 bids</span>
<a data-testid="x-bid-action">Place bid</a>
<span data-endtime="1772452800000"></span>
<div>23 watchers · 310 viewed in the last 24 hours</div>
</body></html>`

func TestScrapeSource_Auction(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := scrapeFrom(t, auctionPage, now)

	assert.Equal(t, "Leica M3 Rangefinder", snap.Title)
	assert.Equal(t, "US $412.00", snap.CurrentPrice)
	assert.Equal(t, 9, snap.BidCount)
	assert.Equal(t, 23, snap.Watchers)
	assert.Equal(t, 310, snap.Views)
	assert.Equal(t, domain.SourceScrape, snap.Source)
	assert.Equal(t, domain.StatusActive, snap.Status)
	assert.Equal(t, domain.ListingAuction, snap.ListingType)
	assert.Equal(t, "https://i.ebayimg.com/images/g/xyz/s-l1600.jpg", snap.ImageURL)
	assert.Equal(t, "A lovely old rangefinder.", snap.Description)

	require.NotNil(t, snap.EndTime)
	assert.Equal(t, int64(1772452800000), *snap.EndTime)
}

func TestScrapeSource_DeadlineChain(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		html    string
		want    func() *int64
		wantNil bool
	}{
		{
			name: "embedded timestamp wins over countdown",
			html: `<body><span data-endtime="1700000000000"></span>
				<div class="ux-timer" data-msec-remaining="60000"></div></body>`,
			want: func() *int64 { ms := int64(1700000000000); return &ms },
		},
		{
			name: "countdown attribute",
			html: `<body><div class="ux-timer" data-msec-remaining="90000"></div></body>`,
			want: func() *int64 { ms := now.UnixMilli() + 90000; return &ms },
		},
		{
			name: "relative display text",
			html: `<body><span class="ux-timer__text">Ends in 1d 5h</span></body>`,
			want: func() *int64 { ms := now.Add(29 * time.Hour).UnixMilli(); return &ms },
		},
		{
			name:    "nothing yields nil",
			html:    `<body><h1 class="x-item-title__mainTitle">No Timer</h1></body>`,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			snap := scrapeFrom(t, "<html>"+tt.html+"</html>", now)
			if tt.wantNil {
				assert.Nil(t, snap.EndTime)
				return
			}
			require.NotNil(t, snap.EndTime)
			assert.Equal(t, *tt.want(), *snap.EndTime)
		})
	}
}

func TestScrapeSource_EndedListing(t *testing.T) {
	t.Parallel()

	html := `<html><body>
	<h1 class="x-item-title__mainTitle">Old Auction</h1>
	<div class="x-price-primary"><span class="ux-textspans">US $55.00</span></div>
	<div>This listing has ended.</div>
	<span data-testid="x-bid-count">14 bids</span>
	</body></html>`

	snap := scrapeFrom(t, html, time.Now())
	assert.Equal(t, domain.StatusEnded, snap.Status)
	assert.Equal(t, 14, snap.BidCount)
}

func TestScrapeSource_AuctionWithBINClassification(t *testing.T) {
	t.Parallel()

	html := `<html><body>
	<h1 class="x-item-title__mainTitle">Dual Format</h1>
	<div class="x-price-primary"><span class="ux-textspans">US $20.00</span></div>
	<a data-testid="x-bid-action">Place bid</a>
	<a data-testid="x-bin-action">Buy It Now</a>
	<div data-testid="x-bin-price"><span class="ux-textspans">US $80.00</span></div>
	</body></html>`

	snap := scrapeFrom(t, html, time.Now())
	assert.Equal(t, domain.ListingAuctionWithBIN, snap.ListingType)
	assert.Equal(t, "US $80.00", snap.BuyItNowPrice)
}

func TestScrapeSource_FixedPriceClassification(t *testing.T) {
	t.Parallel()

	html := `<html><body>
	<h1 class="x-item-title__mainTitle">Plain BIN</h1>
	<div class="x-price-primary"><span class="ux-textspans">US $15.00</span></div>
	</body></html>`

	snap := scrapeFrom(t, html, time.Now())
	assert.Equal(t, domain.ListingBuyItNow, snap.ListingType)
	assert.Zero(t, snap.BidCount)
}

func TestScrapeSource_TitleFallsBackToOGMeta(t *testing.T) {
	t.Parallel()

	html := `<html><head><meta property="og:title" content="Meta Title Camera"></head>
	<body><div class="x-price-primary"><span class="ux-textspans">US $5.00</span></div></body></html>`

	snap := scrapeFrom(t, html, time.Now())
	assert.Equal(t, "Meta Title Camera", snap.Title)
}

func TestScrapeSource_Non200(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := srv.Client()
	client.Transport = rewriteHost(srv.URL)

	src := NewScrapeSource(WithScrapeHTTPClient(client))

	_, err := src.Fetch(context.Background(), listingURL)
	require.Error(t, err)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, domain.SourceScrape, fe.Strategy)
	assert.Contains(t, fe.Error(), "status 404")
}

func TestParseRemaining(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   time.Duration
		wantOK bool
	}{
		{"Ends in 1d 5h", 29 * time.Hour, true},
		{"2h 30m", 2*time.Hour + 30*time.Minute, true},
		{"45s", 45 * time.Second, true},
		{"3d", 72 * time.Hour, true},
		{"ended", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, ok := parseRemaining(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDescription_Truncated(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 2*maxDescriptionLen)
	html := fmt.Sprintf(`<html><head><meta name="description" content=%q></head><body></body></html>`, long)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	snap := NewScrapeSource().parse(doc)
	assert.Len(t, snap.Description, maxDescriptionLen)
}
