package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmfarley/bidwatch/internal/store"
	domain "github.com/dmfarley/bidwatch/pkg/types"
)

// ErrInvalidTransition is returned when a manual action is not allowed
// from the listing's current status.
var ErrInvalidTransition = errors.New("invalid status transition")

// Refresh performs a synchronous check of one listing, with the same merge
// and side effects as an automatic check. A fetch failure is returned to
// the caller and leaves the stored record untouched. Records in a terminal
// status are never re-fetched, so refreshing one is an invalid transition.
func (eng *Engine) Refresh(ctx context.Context, channelID string) error {
	doc, err := eng.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading listings: %w", err)
	}
	rec, ok := doc[channelID]
	if !ok {
		return fmt.Errorf("listing %s: %w", channelID, store.ErrNotFound)
	}
	if rec.Status.Terminal() {
		return fmt.Errorf("%w: refresh of %s listing", ErrInvalidTransition, rec.Status)
	}

	return eng.checkListing(ctx, channelID, rec, false)
}

// MarkSold transitions a listing to sold. Allowed from active or ended.
func (eng *Engine) MarkSold(ctx context.Context, channelID string) error {
	var after *domain.ListingRecord
	err := eng.store.UpdateRecord(ctx, channelID, func(r *domain.ListingRecord) error {
		if r.Status != domain.StatusActive && r.Status != domain.StatusEnded {
			return fmt.Errorf("%w: %s to sold", ErrInvalidTransition, r.Status)
		}
		r.Status = domain.StatusSold
		after = r.Clone()
		return nil
	})
	if err != nil {
		return err
	}

	eng.refreshEmbed(ctx, channelID, after)
	if err := eng.gateway.PostMessage(ctx, channelID, "Listing marked as sold."); err != nil {
		eng.log.Error("sold notification failed", "channel_id", channelID, "error", err)
	}
	return nil
}

// MarkShipped transitions a listing to shipped and moves its channel to
// the shipped category. Allowed from any status except closed; a sold step
// is usual but not required.
func (eng *Engine) MarkShipped(ctx context.Context, channelID string) error {
	var after *domain.ListingRecord
	err := eng.store.UpdateRecord(ctx, channelID, func(r *domain.ListingRecord) error {
		if r.Status == domain.StatusClosed {
			return fmt.Errorf("%w: closed to shipped", ErrInvalidTransition)
		}
		r.Status = domain.StatusShipped
		after = r.Clone()
		return nil
	})
	if err != nil {
		return err
	}

	eng.refreshEmbed(ctx, channelID, after)
	eng.moveChannel(ctx, channelID, eng.shippedCategoryID)
	return nil
}

// Close transitions a listing to closed, unconditionally, and moves its
// channel to the archive category. The record stays in the store; closure
// is a status change, not removal.
func (eng *Engine) Close(ctx context.Context, channelID string) error {
	var after *domain.ListingRecord
	err := eng.store.UpdateRecord(ctx, channelID, func(r *domain.ListingRecord) error {
		r.Status = domain.StatusClosed
		after = r.Clone()
		return nil
	})
	if err != nil {
		return err
	}

	eng.refreshEmbed(ctx, channelID, after)
	eng.moveChannel(ctx, channelID, eng.archiveCategoryID)
	return nil
}

// moveChannel is a best-effort category move; an empty category ID or a
// gateway failure only logs.
func (eng *Engine) moveChannel(ctx context.Context, channelID, categoryID string) {
	if categoryID == "" {
		return
	}
	if err := eng.gateway.MoveChannel(ctx, channelID, categoryID); err != nil {
		eng.log.Warn("channel move failed",
			"channel_id", channelID,
			"category_id", categoryID,
			"error", err,
		)
	}
}
