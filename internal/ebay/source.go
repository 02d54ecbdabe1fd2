// Package ebay provides the listing data source: normalized snapshot
// fetching via the Browse API with a page-scrape fallback, abstracted
// behind interfaces for testability.
package ebay

import (
	"context"
	"fmt"

	domain "github.com/dmfarley/bidwatch/pkg/types"
)

// maxDescriptionLen bounds the description carried in a snapshot.
const maxDescriptionLen = 500

// Source defines the listing data source. Implementations normalize
// whatever the upstream returns into the shared snapshot schema.
type Source interface {
	Fetch(ctx context.Context, url string) (*domain.Snapshot, error)
}

// TokenProvider defines the interface for obtaining OAuth2 tokens.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// FetchError is returned when a snapshot could not be produced. Strategy
// names the strategy that failed last; Err carries the underlying cause.
type FetchError struct {
	Strategy domain.SnapshotSource
	URL      string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s via %s: %v", e.URL, e.Strategy, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// classify derives the listing type from the two purchase affordances a
// listing can expose. Best-effort: a stale page can misreport either,
// and callers must tolerate the type changing between fetches.
func classify(hasBids, hasBIN bool) domain.ListingType {
	switch {
	case hasBids && hasBIN:
		return domain.ListingAuctionWithBIN
	case hasBids:
		return domain.ListingAuction
	default:
		return domain.ListingBuyItNow
	}
}

// truncate bounds s to max runes.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
