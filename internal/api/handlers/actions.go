package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dmfarley/bidwatch/internal/ebay"
	"github.com/dmfarley/bidwatch/internal/engine"
	"github.com/dmfarley/bidwatch/internal/store"
)

// LifecycleActions defines the engine operations the action endpoints drive.
type LifecycleActions interface {
	Refresh(ctx context.Context, channelID string) error
	MarkSold(ctx context.Context, channelID string) error
	MarkShipped(ctx context.Context, channelID string) error
	Close(ctx context.Context, channelID string) error
	RunTick(ctx context.Context) error
}

// ActionsHandler handles manual lifecycle action endpoints.
type ActionsHandler struct {
	engine LifecycleActions
}

// NewActionsHandler creates a new ActionsHandler.
func NewActionsHandler(eng LifecycleActions) *ActionsHandler {
	return &ActionsHandler{engine: eng}
}

// ActionInput identifies the listing an action applies to.
type ActionInput struct {
	ChannelID string `path:"channel_id" doc:"Discord channel ID the listing reports into"`
}

// ActionOutput is the response body for lifecycle action endpoints.
type ActionOutput struct {
	Body struct {
		Status string `json:"status" example:"refreshed" doc:"Action result"`
	}
}

func actionResult(status string) *ActionOutput {
	resp := &ActionOutput{}
	resp.Body.Status = status
	return resp
}

// actionError maps engine errors onto HTTP status codes.
func actionError(err error) error {
	var fetchErr *ebay.FetchError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return huma.Error404NotFound("listing not found")
	case errors.Is(err, engine.ErrInvalidTransition):
		return huma.Error409Conflict(err.Error())
	case errors.As(err, &fetchErr):
		return huma.Error502BadGateway(err.Error())
	default:
		return huma.Error500InternalServerError(err.Error())
	}
}

// Refresh performs a synchronous check of one listing.
func (h *ActionsHandler) Refresh(ctx context.Context, input *ActionInput) (*ActionOutput, error) {
	if err := h.engine.Refresh(ctx, input.ChannelID); err != nil {
		return nil, actionError(err)
	}
	return actionResult("refreshed"), nil
}

// MarkSold transitions a listing to sold.
func (h *ActionsHandler) MarkSold(ctx context.Context, input *ActionInput) (*ActionOutput, error) {
	if err := h.engine.MarkSold(ctx, input.ChannelID); err != nil {
		return nil, actionError(err)
	}
	return actionResult("sold"), nil
}

// MarkShipped transitions a listing to shipped.
func (h *ActionsHandler) MarkShipped(ctx context.Context, input *ActionInput) (*ActionOutput, error) {
	if err := h.engine.MarkShipped(ctx, input.ChannelID); err != nil {
		return nil, actionError(err)
	}
	return actionResult("shipped"), nil
}

// Close transitions a listing to closed.
func (h *ActionsHandler) Close(ctx context.Context, input *ActionInput) (*ActionOutput, error) {
	if err := h.engine.Close(ctx, input.ChannelID); err != nil {
		return nil, actionError(err)
	}
	return actionResult("closed"), nil
}

// Tick runs one update engine scan over all tracked listings.
func (h *ActionsHandler) Tick(ctx context.Context, _ *struct{}) (*ActionOutput, error) {
	if err := h.engine.RunTick(ctx); err != nil {
		return nil, huma.Error500InternalServerError("tick failed: " + err.Error())
	}
	return actionResult("tick completed"), nil
}

// RegisterActionRoutes registers lifecycle action endpoints with the Huma API.
func RegisterActionRoutes(api huma.API, h *ActionsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "refresh-listing",
		Method:      http.MethodPost,
		Path:        "/api/v1/listings/{channel_id}/refresh",
		Summary:     "Refresh a listing now",
		Description: "Fetches a fresh snapshot and applies the usual merge and side effects.",
		Tags:        []string{"actions"},
		Errors:      []int{http.StatusNotFound, http.StatusBadGateway},
	}, h.Refresh)

	huma.Register(api, huma.Operation{
		OperationID: "mark-listing-sold",
		Method:      http.MethodPost,
		Path:        "/api/v1/listings/{channel_id}/sold",
		Summary:     "Mark a listing sold",
		Tags:        []string{"actions"},
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, h.MarkSold)

	huma.Register(api, huma.Operation{
		OperationID: "mark-listing-shipped",
		Method:      http.MethodPost,
		Path:        "/api/v1/listings/{channel_id}/shipped",
		Summary:     "Mark a listing shipped",
		Tags:        []string{"actions"},
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, h.MarkShipped)

	huma.Register(api, huma.Operation{
		OperationID: "close-listing",
		Method:      http.MethodPost,
		Path:        "/api/v1/listings/{channel_id}/close",
		Summary:     "Close a listing",
		Description: "Archives the listing. The record stays in the store with status closed.",
		Tags:        []string{"actions"},
		Errors:      []int{http.StatusNotFound},
	}, h.Close)

	huma.Register(api, huma.Operation{
		OperationID: "trigger-tick",
		Method:      http.MethodPost,
		Path:        "/api/v1/tick",
		Summary:     "Run an update tick now",
		Description: "Runs one scan over all tracked listings outside the fixed schedule.",
		Tags:        []string{"actions"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.Tick)
}
