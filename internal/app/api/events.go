package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/okian/labsync/internal/domain/apierr"
	"github.com/okian/labsync/internal/domain/model"
)

// Events lists every event.
func (c *Client) Events(ctx context.Context) ([]model.Event, error) {
	return decodeList(c.get(ctx, "/api/events", "", nil), model.DecodeEvent)
}

// WeekEvents lists this week's events.
func (c *Client) WeekEvents(ctx context.Context) ([]model.Event, error) {
	return decodeList(c.get(ctx, "/api/events/week", "", nil), model.DecodeEvent)
}

// FutureEvents lists upcoming events, including hidden ones when asked.
func (c *Client) FutureEvents(ctx context.Context, includeHidden bool) ([]model.Event, error) {
	var q url.Values
	if includeHidden {
		q = url.Values{"hidden": []string{"true"}}
	}
	return decodeList(c.get(ctx, "/api/events/future", "", q), model.DecodeEvent)
}

// PublicWeekEvents lists this week's events without authentication.
func (c *Client) PublicWeekEvents(ctx context.Context) ([]model.Event, error) {
	return decodeList(c.get(ctx, "/api/events/public/week", "", nil), model.DecodeEvent)
}

// CreateEvent creates e. An event that already has an id fails with
// already-created before anything is sent.
func (c *Client) CreateEvent(ctx context.Context, e model.Event) (model.Event, error) {
	if e.ID != "" {
		return model.Event{}, apierr.New(apierr.KindAlreadyCreated, "create event "+e.ID)
	}
	return decodeOne(c.send(ctx, http.MethodPost, "/api/events", "", e.Payload()), model.DecodeEvent)
}

// CheckIn checks the signed-in member in to the running event.
func (c *Client) CheckIn(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/api/events/checkin", "", map[string]any{}).Classified()
}

// EnableCheckin opens check-in for an event.
func (c *Client) EnableCheckin(ctx context.Context, eventID string) error {
	path := "/api/events/" + escape(eventID) + "/checkin"
	return c.send(ctx, http.MethodPost, path, "/api/events/{id}/checkin", map[string]any{}).Classified()
}

// EventCheckins lists who checked in to an event.
func (c *Client) EventCheckins(ctx context.Context, eventID string) ([]model.Checkin, error) {
	path := "/api/events/" + escape(eventID) + "/checkin"
	return decodeList(c.get(ctx, path, "/api/events/{id}/checkin", nil), model.DecodeCheckin)
}
