package gateway

import (
	"fmt"
	"time"

	domain "github.com/dmfarley/bidwatch/pkg/types"
)

const (
	colorGreen  = 0x2ECC71 // active
	colorYellow = 0xF1C40F // ended, awaiting outcome
	colorBlue   = 0x3498DB // sold
	colorPurple = 0x9B59B6 // shipped
	colorGray   = 0x95A5A6 // closed
)

// ListingEmbed renders a listing record as the embed shown in its channel.
func ListingEmbed(rec *domain.ListingRecord) *Embed {
	embed := &Embed{
		Title: rec.Title,
		URL:   rec.URL,
		Color: statusColor(rec.Status),
		Fields: []EmbedField{
			{Name: "Price", Value: orDash(rec.CurrentPrice), Inline: true},
			{Name: "Bids", Value: fmt.Sprintf("%d", rec.BidCount), Inline: true},
			{Name: "Status", Value: string(rec.Status), Inline: true},
		},
	}

	if ends, ok := rec.EndsAt(); ok {
		embed.Fields = append(embed.Fields, EmbedField{
			Name:   "Ends",
			Value:  ends.UTC().Format("Jan 2, 2006 15:04 MST"),
			Inline: true,
		})
	}

	if rec.ListingType != "" {
		embed.Fields = append(embed.Fields, EmbedField{
			Name:   "Type",
			Value:  listingTypeLabel(rec.ListingType),
			Inline: true,
		})
	}

	if rec.BuyItNowPrice != "" && rec.ListingType == domain.ListingAuctionWithBIN {
		embed.Fields = append(embed.Fields, EmbedField{
			Name:   "Buy It Now",
			Value:  rec.BuyItNowPrice,
			Inline: true,
		})
	}

	if rec.Watchers > 0 {
		embed.Fields = append(embed.Fields, EmbedField{
			Name:   "Watchers",
			Value:  fmt.Sprintf("%d", rec.Watchers),
			Inline: true,
		})
	}

	if rec.ImageURL != "" {
		embed.ThumbnailURL = rec.ImageURL
	}

	if rec.LastChecked > 0 {
		checked := time.UnixMilli(rec.LastChecked).UTC()
		embed.Footer = "Last checked " + checked.Format("Jan 2 15:04 MST")
	}

	return embed
}

func statusColor(s domain.Status) int {
	switch s {
	case domain.StatusActive:
		return colorGreen
	case domain.StatusEnded:
		return colorYellow
	case domain.StatusSold:
		return colorBlue
	case domain.StatusShipped:
		return colorPurple
	default:
		return colorGray
	}
}

func listingTypeLabel(t domain.ListingType) string {
	switch t {
	case domain.ListingAuction:
		return "Auction"
	case domain.ListingBuyItNow:
		return "Buy It Now"
	case domain.ListingAuctionWithBIN:
		return "Auction + BIN"
	default:
		return string(t)
	}
}

func orDash(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
