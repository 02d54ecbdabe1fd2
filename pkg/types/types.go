// Package domain defines the core business types for bidwatch.
package domain

import "time"

// Status represents a tracked listing's lifecycle state.
type Status string

// Status constants. Active and ended are produced by the update engine;
// sold, shipped, and closed are only ever set by manual actions.
const (
	StatusActive  Status = "active"
	StatusEnded   Status = "ended"
	StatusSold    Status = "sold"
	StatusShipped Status = "shipped"
	StatusClosed  Status = "closed"
)

// Terminal reports whether the status permanently excludes a listing from
// automatic polling. Ended is semi-terminal and handled separately: an
// ended listing has already received its single final automatic update.
func (s Status) Terminal() bool {
	return s == StatusSold || s == StatusShipped || s == StatusClosed
}

// ListingType represents the eBay listing format.
type ListingType string

// Listing type constants.
const (
	ListingAuction        ListingType = "auction"
	ListingBuyItNow       ListingType = "buy_it_now"
	ListingAuctionWithBIN ListingType = "auction_with_bin"
)

// SnapshotSource identifies which data source strategy produced a snapshot.
type SnapshotSource string

// Snapshot source constants.
const (
	SourceAPI    SnapshotSource = "api"
	SourceScrape SnapshotSource = "scrape"
)

// Snapshot is the normalized set of listing attributes returned by a
// single data source fetch. Prices are opaque display strings; equality
// on the raw string is what drives change detection.
type Snapshot struct {
	Title         string
	CurrentPrice  string
	BidCount      int
	EndTime       *int64 // epoch ms; nil when the deadline is unknown
	ImageURL      string
	Description   string
	Views         int
	Watchers      int
	Status        Status // active or ended only
	Source        SnapshotSource
	ListingType   ListingType
	BuyItNowPrice string // empty unless the listing type includes BIN
}

// ListingRecord is one tracked auction or BIN item, keyed in the store by
// the Discord channel it reports into.
type ListingRecord struct {
	URL     string `json:"url"`
	OwnerID string `json:"owner_id"`

	Title         string      `json:"title"`
	CurrentPrice  string      `json:"current_price"`
	BidCount      int         `json:"bid_count"`
	EndTime       *int64      `json:"end_time,omitempty"`
	ImageURL      string      `json:"image_url,omitempty"`
	Description   string      `json:"description,omitempty"`
	Views         int         `json:"views"`
	Watchers      int         `json:"watchers"`
	ListingType   ListingType `json:"listing_type"`
	BuyItNowPrice string      `json:"buy_it_now_price,omitempty"`

	Status Status         `json:"status"`
	Source SnapshotSource `json:"source"`

	// MessageID references the persistent embed message the engine keeps
	// refreshed in the channel. Set by the intake flow at creation.
	MessageID string `json:"message_id,omitempty"`

	LastChecked int64 `json:"last_checked"` // epoch ms of last successful fetch
	CreatedAt   int64 `json:"created_at"`   // epoch ms, immutable
}

// EndsAt returns the listing deadline as a time.Time, or the zero time
// when the deadline is unknown.
func (r *ListingRecord) EndsAt() (time.Time, bool) {
	if r.EndTime == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*r.EndTime), true
}

// Clone returns a deep copy of the record. Useful for diffing pre-merge
// against post-merge values without aliasing the stored record.
func (r *ListingRecord) Clone() *ListingRecord {
	if r == nil {
		return nil
	}
	cp := *r
	if r.EndTime != nil {
		end := *r.EndTime
		cp.EndTime = &end
	}
	return &cp
}

// EpochMs converts a time to the epoch-millisecond representation used
// throughout the store document.
func EpochMs(t time.Time) int64 {
	return t.UnixMilli()
}
