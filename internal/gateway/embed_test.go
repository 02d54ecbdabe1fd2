package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/dmfarley/bidwatch/pkg/types"
)

func fieldValue(t *testing.T, e *Embed, name string) string {
	t.Helper()
	for _, f := range e.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	t.Fatalf("embed has no field %q", name)
	return ""
}

func hasField(e *Embed, name string) bool {
	for _, f := range e.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func TestListingEmbed_ActiveAuction(t *testing.T) {
	t.Parallel()

	end := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC).UnixMilli()
	rec := &domain.ListingRecord{
		URL:          "https://www.ebay.com/itm/123456789012",
		Title:        "ThinkPad X1 Carbon Gen 9",
		CurrentPrice: "$214.50",
		BidCount:     7,
		EndTime:      &end,
		ImageURL:     "https://i.ebayimg.com/images/g/abc/s-l500.jpg",
		Watchers:     23,
		ListingType:  domain.ListingAuction,
		Status:       domain.StatusActive,
		LastChecked:  time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC).UnixMilli(),
	}

	embed := ListingEmbed(rec)

	assert.Equal(t, rec.Title, embed.Title)
	assert.Equal(t, rec.URL, embed.URL)
	assert.Equal(t, colorGreen, embed.Color)
	assert.Equal(t, "$214.50", fieldValue(t, embed, "Price"))
	assert.Equal(t, "7", fieldValue(t, embed, "Bids"))
	assert.Equal(t, "active", fieldValue(t, embed, "Status"))
	assert.Equal(t, "Mar 14, 2026 18:30 UTC", fieldValue(t, embed, "Ends"))
	assert.Equal(t, "Auction", fieldValue(t, embed, "Type"))
	assert.Equal(t, "23", fieldValue(t, embed, "Watchers"))
	assert.Equal(t, rec.ImageURL, embed.ThumbnailURL)
	assert.Contains(t, embed.Footer, "Last checked")
}

func TestListingEmbed_SparseRecord(t *testing.T) {
	t.Parallel()

	rec := &domain.ListingRecord{
		URL:    "https://www.ebay.com/itm/123456789012",
		Title:  "Mystery lot",
		Status: domain.StatusActive,
	}

	embed := ListingEmbed(rec)

	assert.Equal(t, "n/a", fieldValue(t, embed, "Price"))
	assert.False(t, hasField(embed, "Ends"))
	assert.False(t, hasField(embed, "Type"))
	assert.False(t, hasField(embed, "Watchers"))
	assert.False(t, hasField(embed, "Buy It Now"))
	assert.Empty(t, embed.ThumbnailURL)
	assert.Empty(t, embed.Footer)
}

func TestListingEmbed_BuyItNowField(t *testing.T) {
	t.Parallel()

	rec := &domain.ListingRecord{
		Title:         "GPU",
		CurrentPrice:  "$120.00",
		ListingType:   domain.ListingAuctionWithBIN,
		BuyItNowPrice: "$250.00",
		Status:        domain.StatusActive,
	}

	embed := ListingEmbed(rec)
	assert.Equal(t, "$250.00", fieldValue(t, embed, "Buy It Now"))
	assert.Equal(t, "Auction + BIN", fieldValue(t, embed, "Type"))

	// BIN price only shows for the mixed listing type.
	rec.ListingType = domain.ListingBuyItNow
	embed = ListingEmbed(rec)
	assert.False(t, hasField(embed, "Buy It Now"))
}

func TestListingEmbed_StatusColors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status domain.Status
		color  int
	}{
		{domain.StatusActive, colorGreen},
		{domain.StatusEnded, colorYellow},
		{domain.StatusSold, colorBlue},
		{domain.StatusShipped, colorPurple},
		{domain.StatusClosed, colorGray},
	}

	for _, tc := range cases {
		embed := ListingEmbed(&domain.ListingRecord{Status: tc.status})
		assert.Equalf(t, tc.color, embed.Color, "status %s", tc.status)
	}
}

func TestToMessageEmbed(t *testing.T) {
	t.Parallel()

	src := &Embed{
		Title:        "Title",
		URL:          "https://example.com",
		Color:        colorBlue,
		Description:  "desc",
		Fields:       []EmbedField{{Name: "Price", Value: "$5.00", Inline: true}},
		ThumbnailURL: "https://example.com/img.jpg",
		Footer:       "footer",
	}

	msg := toMessageEmbed(src)

	assert.Equal(t, src.Title, msg.Title)
	assert.Equal(t, src.URL, msg.URL)
	assert.Equal(t, src.Color, msg.Color)
	require.Len(t, msg.Fields, 1)
	assert.Equal(t, "Price", msg.Fields[0].Name)
	assert.True(t, msg.Fields[0].Inline)
	require.NotNil(t, msg.Thumbnail)
	assert.Equal(t, src.ThumbnailURL, msg.Thumbnail.URL)
	require.NotNil(t, msg.Footer)
	assert.Equal(t, "footer", msg.Footer.Text)
}
