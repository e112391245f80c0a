package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/okian/labsync/internal/adapters/transport"
	"github.com/okian/labsync/internal/domain/apierr"
	"github.com/okian/labsync/internal/domain/model"
	"github.com/okian/labsync/pkg/logger"
)

// SignIn authenticates with email and password and stores the returned token
// and member together. Concurrent sign-ins run one at a time.
func (c *Client) SignIn(ctx context.Context, email, password string) (model.Member, error) {
	return c.signIn(ctx, func() *transport.Response {
		return c.send(ctx, http.MethodPost, "/api/signin", "", map[string]any{"email": email, "password": password})
	})
}

// GoogleCallback completes an OAuth sign-in with the authorization code.
func (c *Client) GoogleCallback(ctx context.Context, code string) (model.Member, error) {
	return c.signIn(ctx, func() *transport.Response {
		return c.get(ctx, "/api/auth/google/callback", "", url.Values{"code": []string{code}})
	})
}

// SignOut forgets the token and member.
func (c *Client) SignOut(ctx context.Context) error {
	return c.creds.SignOut(ctx)
}

// CurrentMember returns the signed-in member, or nil.
func (c *Client) CurrentMember(ctx context.Context) (*model.Member, error) {
	return c.creds.CurrentMember(ctx)
}

func (c *Client) signIn(ctx context.Context, request func() *transport.Response) (model.Member, error) {
	var member model.Member
	err := c.creds.SerializeSignIn(func() error {
		resp := request()
		v, err := resp.Value()
		if err != nil {
			return err
		}
		p, ok := model.AsPayload(v)
		if !ok {
			return apierr.New(apierr.KindUnexpectedResponse, resp.Op)
		}
		token, ok := p.String("token")
		if !ok || token == "" {
			return apierr.New(apierr.KindUnexpectedResponse, resp.Op)
		}
		m, ok := model.DecodeOne(p["member"], model.DecodeMember)
		if !ok {
			return apierr.New(apierr.KindUnexpectedResponse, resp.Op)
		}
		if err := c.creds.SetCredentials(ctx, token, &m); err != nil {
			return err
		}
		member = m
		return nil
	})
	if err != nil {
		return model.Member{}, err
	}
	c.logger.Info(ctx, "signed in", logger.String("member", member.ID))
	return member, nil
}
