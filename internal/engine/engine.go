// Package engine implements the listing update loop: deciding which tracked
// listings are due for a check, fetching fresh snapshots, merging them into
// stored records, and driving the Discord-visible side effects.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dmfarley/bidwatch/internal/ebay"
	"github.com/dmfarley/bidwatch/internal/gateway"
	"github.com/dmfarley/bidwatch/internal/metrics"
	"github.com/dmfarley/bidwatch/internal/store"
	domain "github.com/dmfarley/bidwatch/pkg/types"
)

// Engine orchestrates the periodic scan over all tracked listings and the
// manual lifecycle actions. It is safe to drive from a single scheduler
// goroutine plus concurrent manual actions; record mutations are serialized
// by the store's UpdateRecord.
type Engine struct {
	store   store.Store
	source  ebay.Source
	gateway gateway.Gateway
	log     *slog.Logger

	nowFunc           func() time.Time
	shippedCategoryID string
	archiveCategoryID string
}

// NewEngine creates a new Engine with injected dependencies.
func NewEngine(s store.Store, src ebay.Source, gw gateway.Gateway, opts ...Option) *Engine {
	eng := &Engine{
		store:   s,
		source:  src,
		gateway: gw,
		log:     slog.Default(),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithNow sets the clock used for due checks and lastChecked stamps.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		e.nowFunc = now
	}
}

// WithShippedCategory sets the category channels are moved to when a
// listing is marked shipped.
func WithShippedCategory(id string) Option {
	return func(e *Engine) {
		e.shippedCategoryID = id
	}
}

// WithArchiveCategory sets the category channels are moved to when a
// listing is closed.
func WithArchiveCategory(id string) Option {
	return func(e *Engine) {
		e.archiveCategoryID = id
	}
}

// RunTick executes one scan over all tracked listings. Per-record failures
// are logged and do not stop the scan; the returned error covers only
// store-level failures and context cancellation.
func (eng *Engine) RunTick(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.TickDuration.Observe(time.Since(start).Seconds())
	}()

	doc, err := eng.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading listings: %w", err)
	}

	// Deterministic order keeps logs and tests stable.
	ids := make([]string, 0, len(doc))
	for id := range doc {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rec := doc[id]
		if rec.Status.Terminal() || rec.Status == domain.StatusEnded {
			continue
		}

		now := eng.nowFunc()
		interval, pending := NextInterval(rec.EndTime, now)

		if !pending {
			// Deadline passed: the final check. Once it succeeds the
			// record moves to ended and drops out of the scan.
			if err := eng.checkListing(ctx, id, rec, true); err != nil {
				eng.log.Error("final listing check failed",
					"channel_id", id,
					"url", rec.URL,
					"error", err,
				)
			}
			continue
		}

		if now.UnixMilli()-rec.LastChecked < interval.Milliseconds() {
			continue
		}

		if err := eng.checkListing(ctx, id, rec, false); err != nil {
			eng.log.Error("listing check failed",
				"channel_id", id,
				"url", rec.URL,
				"error", err,
			)
		}
	}

	eng.updateGauges(ctx)
	return nil
}

// checkListing fetches a fresh snapshot for one record and applies it.
// When forceEnded is set the record transitions to ended after the merge;
// the listing is past its deadline and this is its final update. A fetch
// failure leaves the record untouched either way, so a past-deadline
// listing keeps its final check pending until a fetch succeeds.
func (eng *Engine) checkListing(
	ctx context.Context,
	channelID string,
	rec *domain.ListingRecord,
	forceEnded bool,
) error {
	snap, err := eng.source.Fetch(ctx, rec.URL)
	if err != nil {
		metrics.CheckErrorsTotal.Inc()
		return err
	}
	metrics.ChecksTotal.Inc()

	return eng.applySnapshot(ctx, channelID, snap, forceEnded)
}

// applySnapshot merges a fetched snapshot into the stored record and runs
// the resulting side effects.
func (eng *Engine) applySnapshot(
	ctx context.Context,
	channelID string,
	snap *domain.Snapshot,
	forceEnded bool,
) error {
	now := eng.nowFunc()

	var before, after *domain.ListingRecord
	err := eng.store.UpdateRecord(ctx, channelID, func(r *domain.ListingRecord) error {
		before = r.Clone()
		merge(r, snap, now, forceEnded)
		after = r.Clone()
		return nil
	})
	if err != nil {
		return fmt.Errorf("updating record: %w", err)
	}

	if before.ListingType != "" && before.ListingType != after.ListingType {
		eng.log.Debug("listing type changed between checks",
			"channel_id", channelID,
			"old", before.ListingType,
			"new", after.ListingType,
		)
	}

	ch := diff(before, after)
	if ch.justEnded {
		metrics.EndedTransitionsTotal.Inc()
	}

	eng.applySideEffects(ctx, channelID, after, ch)
	return nil
}

// merge applies a snapshot to a record as a full replacement. The engine
// owns url, ownerId, createdAt, messageId, and status; a snapshot can only
// move status from active to ended.
func merge(r *domain.ListingRecord, snap *domain.Snapshot, now time.Time, forceEnded bool) {
	r.Title = snap.Title
	r.CurrentPrice = snap.CurrentPrice
	r.BidCount = snap.BidCount
	r.EndTime = snap.EndTime
	r.ImageURL = snap.ImageURL
	r.Description = snap.Description
	r.Views = snap.Views
	r.Watchers = snap.Watchers
	r.ListingType = snap.ListingType
	r.BuyItNowPrice = snap.BuyItNowPrice
	r.Source = snap.Source

	if r.Status == domain.StatusActive && (forceEnded || snap.Status == domain.StatusEnded) {
		r.Status = domain.StatusEnded
	}

	r.LastChecked = domain.EpochMs(now)
}

// changeSet captures what a completed check changed, for notification
// purposes. Price comparison is exact string inequality; any formatting
// difference counts.
type changeSet struct {
	priceChanged    bool
	bidCountChanged bool
	justEnded       bool

	oldPrice string
	newPrice string
	oldBids  int
	newBids  int
}

func (c changeSet) notable() bool {
	return c.priceChanged || c.bidCountChanged || c.justEnded
}

func diff(before, after *domain.ListingRecord) changeSet {
	return changeSet{
		priceChanged:    before.CurrentPrice != after.CurrentPrice,
		bidCountChanged: before.BidCount != after.BidCount,
		justEnded:       before.Status == domain.StatusActive && after.Status == domain.StatusEnded,
		oldPrice:        before.CurrentPrice,
		newPrice:        after.CurrentPrice,
		oldBids:         before.BidCount,
		newBids:         after.BidCount,
	}
}

// applySideEffects refreshes the persistent embed, posts a notification
// when something notable changed, and flips the channel's visual marker on
// the ended transition. Gateway failures never roll back the stored record.
func (eng *Engine) applySideEffects(
	ctx context.Context,
	channelID string,
	rec *domain.ListingRecord,
	ch changeSet,
) {
	eng.refreshEmbed(ctx, channelID, rec)

	if ch.notable() {
		if err := eng.gateway.PostMessage(ctx, channelID, notificationText(rec, ch)); err != nil {
			eng.log.Error("notification post failed",
				"channel_id", channelID,
				"error", err,
			)
		} else {
			metrics.NotificationsTotal.Inc()
		}
	}

	if ch.justEnded {
		// Cosmetic; a failed rename must not abort the transition.
		if err := eng.gateway.RenameChannel(ctx, channelID, endedChannelName(rec)); err != nil {
			eng.log.Warn("channel rename failed",
				"channel_id", channelID,
				"error", err,
			)
		}
	}
}

// refreshEmbed updates the listing's persistent embed message, creating it
// when the record has none yet.
func (eng *Engine) refreshEmbed(ctx context.Context, channelID string, rec *domain.ListingRecord) {
	embed := gateway.ListingEmbed(rec)

	if rec.MessageID != "" {
		if err := eng.gateway.EditEmbed(ctx, channelID, rec.MessageID, embed); err != nil {
			eng.log.Error("embed refresh failed",
				"channel_id", channelID,
				"message_id", rec.MessageID,
				"error", err,
			)
		}
		return
	}

	msgID, err := eng.gateway.PostEmbed(ctx, channelID, embed)
	if err != nil {
		eng.log.Error("embed post failed", "channel_id", channelID, "error", err)
		return
	}
	if msgID == "" {
		return
	}

	if err := eng.store.UpdateRecord(ctx, channelID, func(r *domain.ListingRecord) error {
		r.MessageID = msgID
		return nil
	}); err != nil {
		eng.log.Error("storing message id failed", "channel_id", channelID, "error", err)
	}
}

func notificationText(rec *domain.ListingRecord, ch changeSet) string {
	if ch.justEnded {
		price := rec.CurrentPrice
		if price == "" {
			price = "unknown"
		}
		return fmt.Sprintf("Auction ended: final price %s with %d bids.", price, rec.BidCount)
	}

	var parts []string
	if ch.priceChanged {
		parts = append(parts, fmt.Sprintf("price %s → %s", ch.oldPrice, ch.newPrice))
	}
	if ch.bidCountChanged {
		parts = append(parts, fmt.Sprintf("bids %d → %d", ch.oldBids, ch.newBids))
	}
	return "Listing updated: " + strings.Join(parts, ", ")
}

func endedChannelName(rec *domain.ListingRecord) string {
	slug := channelSlug(rec.Title)
	if slug == "" {
		slug = "listing"
	}
	return "🔴-" + slug
}

// channelSlug reduces a title to a Discord-safe channel name fragment.
func channelSlug(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > 80 {
		slug = strings.Trim(slug[:80], "-")
	}
	return slug
}

func (eng *Engine) updateGauges(ctx context.Context) {
	doc, err := eng.store.Load(ctx)
	if err != nil {
		return
	}

	counts := make(map[domain.Status]int, 5)
	for _, rec := range doc {
		counts[rec.Status]++
	}
	for _, status := range []domain.Status{
		domain.StatusActive,
		domain.StatusEnded,
		domain.StatusSold,
		domain.StatusShipped,
		domain.StatusClosed,
	} {
		metrics.TrackedListings.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}
