// Package store defines the listing store abstraction. All business logic
// depends on the Store interface, never on concrete implementations; the
// document is persisted and replaced whole, which is the unit of atomicity
// every backend provides.
package store

import (
	"context"
	"errors"

	domain "github.com/dmfarley/bidwatch/pkg/types"
)

// ErrNotFound is returned when a channel has no tracked listing.
var ErrNotFound = errors.New("listing not found")

// Document is the full tracked-listing state, keyed by channel ID.
type Document map[string]*domain.ListingRecord

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	cp := make(Document, len(d))
	for id, rec := range d {
		cp[id] = rec.Clone()
	}
	return cp
}

// Store defines whole-document access to tracked listings.
//
// Load never fails on an absent or corrupt document; it returns an empty
// one so a bad byte on disk cannot take the bot down. UpdateRecord is the
// read-modify-write path: it loads the document, applies mutate to the
// named record, and saves the document back, serialized against other
// UpdateRecord calls on the same Store instance.
type Store interface {
	Load(ctx context.Context) (Document, error)
	Save(ctx context.Context, doc Document) error
	UpdateRecord(ctx context.Context, channelID string, mutate func(*domain.ListingRecord) error) error
	CreateRecord(ctx context.Context, channelID string, rec *domain.ListingRecord) error
	Ping(ctx context.Context) error
	Close() error
}

// applyMutation runs mutate against the record in doc, returning
// ErrNotFound when the channel has no record.
func applyMutation(doc Document, channelID string, mutate func(*domain.ListingRecord) error) error {
	rec, ok := doc[channelID]
	if !ok {
		return ErrNotFound
	}
	return mutate(rec)
}
