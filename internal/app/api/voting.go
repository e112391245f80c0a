package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/okian/labsync/internal/domain/apierr"
	"github.com/okian/labsync/internal/domain/model"
)

func publicVoting(id string) string { return "/api/voting/public/" + escape(id) }

func adminVoting(id string) string { return "/api/voting/admin/" + escape(id) }

// PublicVotingEvents lists the open voting events.
func (c *Client) PublicVotingEvents(ctx context.Context) ([]model.Event, error) {
	return decodeList(c.get(ctx, "/api/voting/public", "", nil), model.DecodeEvent)
}

// CurrentVotingEvent returns the voting event running now.
func (c *Client) CurrentVotingEvent(ctx context.Context) (model.Event, error) {
	return decodeOne(c.get(ctx, "/api/voting/public/current", "", nil), model.DecodeEvent)
}

// PublicVotingEvent returns a voting event with its options.
func (c *Client) PublicVotingEvent(ctx context.Context, id string) (model.Event, error) {
	return decodeOne(c.get(ctx, publicVoting(id), "/api/voting/public/{id}", nil), model.DecodeEvent)
}

// SubmitVote sends the selected options in vote order.
func (c *Client) SubmitVote(ctx context.Context, id string, options []model.VotingOption) error {
	return c.send(ctx, http.MethodPost, publicVoting(id), "/api/voting/public/{id}", model.Ballot(options)).Classified()
}

// HasVoted reports whether the signed-in member already voted.
func (c *Client) HasVoted(ctx context.Context, id string) (bool, error) {
	return decodeBool(c.get(ctx, publicVoting(id)+"/hasVoted", "/api/voting/public/{id}/hasVoted", nil), "hasVoted")
}

// PublicResults returns released results.
func (c *Client) PublicResults(ctx context.Context, id string) ([]model.VotingOption, error) {
	return decodeList(c.get(ctx, publicVoting(id)+"/results", "/api/voting/public/{id}/results", nil), model.DecodeVotingOption)
}

// AdminVotingEvents lists every voting event.
func (c *Client) AdminVotingEvents(ctx context.Context) ([]model.Event, error) {
	return decodeList(c.get(ctx, "/api/voting/admin", "", nil), model.DecodeEvent)
}

// CreateVotingEvent creates e. An event that already has an id fails with
// already-created before anything is sent.
func (c *Client) CreateVotingEvent(ctx context.Context, e model.Event) (model.Event, error) {
	if e.ID != "" {
		return model.Event{}, apierr.New(apierr.KindAlreadyCreated, "create voting event "+e.ID)
	}
	return decodeOne(c.send(ctx, http.MethodPost, "/api/voting/admin", "", e.Payload()), model.DecodeEvent)
}

// AdminVotingEvent returns a voting event with admin-only fields.
func (c *Client) AdminVotingEvent(ctx context.Context, id string) (model.Event, error) {
	return decodeOne(c.get(ctx, adminVoting(id), "/api/voting/admin/{id}", nil), model.DecodeEvent)
}

// UpdateVotingEvent saves e.
func (c *Client) UpdateVotingEvent(ctx context.Context, e model.Event) (model.Event, error) {
	return decodeOne(c.send(ctx, http.MethodPost, adminVoting(e.ID), "/api/voting/admin/{id}", e.Payload()), model.DecodeEvent)
}

// EnableVoting opens a voting event.
func (c *Client) EnableVoting(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodPost, adminVoting(id)+"/enable", "/api/voting/admin/{id}/enable", map[string]any{}).Classified()
}

// AdminResults returns results with points.
func (c *Client) AdminResults(ctx context.Context, id string) ([]model.VotingOption, error) {
	return decodeList(c.get(ctx, adminVoting(id)+"/results", "/api/voting/admin/{id}/results", nil), model.DecodeVotingOption)
}

// AddVotingOption adds an option to a voting event.
func (c *Client) AddVotingOption(ctx context.Context, id string, o model.VotingOption) (model.VotingOption, error) {
	resp := c.send(ctx, http.MethodPost, adminVoting(id)+"/options", "/api/voting/admin/{id}/options", o.Payload())
	return decodeOne(resp, model.DecodeVotingOption)
}

// RemoveVotingOption deletes an option from a voting event.
func (c *Client) RemoveVotingOption(ctx context.Context, id, optionID string) error {
	return c.del(ctx, adminVoting(id)+"/options", "/api/voting/admin/{id}/options", url.Values{"id": []string{optionID}}).Classified()
}
