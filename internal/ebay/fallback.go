package ebay

import (
	"context"
	"log/slog"

	"github.com/dmfarley/bidwatch/internal/metrics"
	domain "github.com/dmfarley/bidwatch/pkg/types"
)

// FallbackSource chains the API strategy with the scrape strategy:
// the API is tried first when present, and any API failure transparently
// retries via scrape. Only when the last strategy fails does the fetch
// surface an error, carrying that strategy's cause.
type FallbackSource struct {
	api    Source // nil when credentials are not configured
	scrape Source
	log    *slog.Logger
}

// NewFallbackSource creates the composed data source. api may be nil.
func NewFallbackSource(api, scrape Source, log *slog.Logger) *FallbackSource {
	if log == nil {
		log = slog.Default()
	}
	return &FallbackSource{api: api, scrape: scrape, log: log}
}

// Fetch implements Source with the API-then-scrape fallback chain.
func (f *FallbackSource) Fetch(ctx context.Context, url string) (*domain.Snapshot, error) {
	if f.api != nil {
		snap, err := f.api.Fetch(ctx, url)
		if err == nil {
			return snap, nil
		}

		f.log.Warn("api strategy failed, falling back to scrape",
			"url", url,
			"error", err,
		)
		metrics.SourceFallbacksTotal.Inc()
	}

	return f.scrape.Fetch(ctx, url)
}
