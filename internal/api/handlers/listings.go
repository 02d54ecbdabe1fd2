package handlers

import (
	"context"
	"net/http"
	"sort"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dmfarley/bidwatch/internal/store"
	domain "github.com/dmfarley/bidwatch/pkg/types"
)

// ListingsHandler handles listing query endpoints.
type ListingsHandler struct {
	store store.Store
}

// NewListingsHandler creates a new ListingsHandler.
func NewListingsHandler(s store.Store) *ListingsHandler {
	return &ListingsHandler{store: s}
}

// --- Input/Output types ---

// Listing is a tracked listing together with the channel it reports into.
type Listing struct {
	ChannelID string `json:"channel_id"`
	domain.ListingRecord
}

// ListListingsInput is the input for listing tracked listings.
type ListListingsInput struct {
	Status string `query:"status" doc:"Filter by lifecycle status" enum:"active,ended,sold,shipped,closed,"`
}

// ListListingsOutput is the response for listing tracked listings.
type ListListingsOutput struct {
	Body struct {
		Listings []Listing `json:"listings"`
		Total    int       `json:"total"`
	}
}

// GetListingInput is the input for getting a single listing.
type GetListingInput struct {
	ChannelID string `path:"channel_id" doc:"Discord channel ID the listing reports into"`
}

// GetListingOutput is the response for getting a single listing.
type GetListingOutput struct {
	Body Listing
}

// --- Handlers ---

// ListListings returns all tracked listings, optionally filtered by status,
// ordered by channel ID.
func (h *ListingsHandler) ListListings(
	ctx context.Context,
	input *ListListingsInput,
) (*ListListingsOutput, error) {
	doc, err := h.store.Load(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("loading listings: " + err.Error())
	}

	listings := make([]Listing, 0, len(doc))
	for channelID, rec := range doc {
		if input.Status != "" && rec.Status != domain.Status(input.Status) {
			continue
		}
		listings = append(listings, Listing{ChannelID: channelID, ListingRecord: *rec})
	}
	sort.Slice(listings, func(i, j int) bool {
		return listings[i].ChannelID < listings[j].ChannelID
	})

	resp := &ListListingsOutput{}
	resp.Body.Listings = listings
	resp.Body.Total = len(listings)

	return resp, nil
}

// GetListing returns a single tracked listing by its channel ID.
func (h *ListingsHandler) GetListing(
	ctx context.Context,
	input *GetListingInput,
) (*GetListingOutput, error) {
	doc, err := h.store.Load(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("loading listings: " + err.Error())
	}

	rec, ok := doc[input.ChannelID]
	if !ok {
		return nil, huma.Error404NotFound("listing not found")
	}

	return &GetListingOutput{
		Body: Listing{ChannelID: input.ChannelID, ListingRecord: *rec},
	}, nil
}

// RegisterListingRoutes registers listing endpoints with the Huma API.
func RegisterListingRoutes(api huma.API, h *ListingsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-listings",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings",
		Summary:     "List tracked listings",
		Description: "Returns all tracked listings, optionally filtered by lifecycle status.",
		Tags:        []string{"listings"},
	}, h.ListListings)

	huma.Register(api, huma.Operation{
		OperationID: "get-listing",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings/{channel_id}",
		Summary:     "Get a tracked listing",
		Description: "Returns a single tracked listing by its channel ID.",
		Tags:        []string{"listings"},
		Errors:      []int{http.StatusNotFound},
	}, h.GetListing)
}
