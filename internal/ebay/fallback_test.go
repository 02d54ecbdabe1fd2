package ebay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/dmfarley/bidwatch/pkg/types"
)

type stubSource struct {
	snap  *domain.Snapshot
	err   error
	calls int
}

func (s *stubSource) Fetch(context.Context, string) (*domain.Snapshot, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.snap, nil
}

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFallbackSource_APISucceeds(t *testing.T) {
	t.Parallel()

	api := &stubSource{snap: &domain.Snapshot{Title: "via api", Source: domain.SourceAPI}}
	scrape := &stubSource{snap: &domain.Snapshot{Title: "via scrape", Source: domain.SourceScrape}}

	src := NewFallbackSource(api, scrape, quietLog())

	snap, err := src.Fetch(context.Background(), listingURL)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceAPI, snap.Source)
	assert.Equal(t, 1, api.calls)
	assert.Zero(t, scrape.calls)
}

func TestFallbackSource_APIFailureFallsBackToScrape(t *testing.T) {
	t.Parallel()

	api := &stubSource{err: errors.New("401 invalid token")}
	scrape := &stubSource{snap: &domain.Snapshot{Title: "via scrape", Source: domain.SourceScrape}}

	src := NewFallbackSource(api, scrape, quietLog())

	snap, err := src.Fetch(context.Background(), listingURL)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceScrape, snap.Source)
	assert.Equal(t, 1, api.calls)
	assert.Equal(t, 1, scrape.calls)
}

func TestFallbackSource_BothFailSurfacesLastCause(t *testing.T) {
	t.Parallel()

	api := &stubSource{err: errors.New("api down")}
	scrapeErr := &FetchError{Strategy: domain.SourceScrape, URL: listingURL, Err: errors.New("page 500")}
	scrape := &stubSource{err: scrapeErr}

	src := NewFallbackSource(api, scrape, quietLog())

	_, err := src.Fetch(context.Background(), listingURL)
	require.Error(t, err)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, domain.SourceScrape, fe.Strategy)
	assert.Contains(t, fe.Error(), "page 500")
}

func TestFallbackSource_NoAPIGoesStraightToScrape(t *testing.T) {
	t.Parallel()

	scrape := &stubSource{snap: &domain.Snapshot{Source: domain.SourceScrape}}

	src := NewFallbackSource(nil, scrape, quietLog())

	snap, err := src.Fetch(context.Background(), listingURL)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceScrape, snap.Source)
	assert.Equal(t, 1, scrape.calls)
}

func TestClassify(t *testing.T) {
	t.Parallel()

	assert.Equal(t, domain.ListingAuctionWithBIN, classify(true, true))
	assert.Equal(t, domain.ListingAuction, classify(true, false))
	assert.Equal(t, domain.ListingBuyItNow, classify(false, true))
	assert.Equal(t, domain.ListingBuyItNow, classify(false, false))
}
