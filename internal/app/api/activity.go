package api

import (
	"context"
	"net/http"

	"github.com/okian/labsync/internal/domain/model"
)

// FoodOrders lists the shared food list.
func (c *Client) FoodOrders(ctx context.Context) ([]model.FoodOrder, error) {
	return decodeList(c.get(ctx, "/api/food", "", nil), model.DecodeFoodOrder)
}

// OrderFood adds an entry to the food list.
func (c *Client) OrderFood(ctx context.Context, name string) (model.FoodOrder, error) {
	return decodeOne(c.send(ctx, http.MethodPost, "/api/food", "", map[string]any{"name": name}), model.DecodeFoodOrder)
}

// LightGroup returns the state of one light group.
func (c *Client) LightGroup(ctx context.Context, group string) (model.LightGroup, error) {
	return decodeOne(c.get(ctx, "/api/lights/"+escape(group), "/api/lights/{group}", nil), model.DecodeLightGroup)
}

// SetLightGroup applies g and returns the resulting state.
func (c *Client) SetLightGroup(ctx context.Context, g model.LightGroup) (model.LightGroup, error) {
	resp := c.send(ctx, http.MethodPost, "/api/lights/"+escape(g.Name), "/api/lights/{group}", g.Payload())
	return decodeOne(resp, model.DecodeLightGroup)
}

// LightScenes lists the available scenes.
func (c *Client) LightScenes(ctx context.Context) ([]model.LightScene, error) {
	return decodeList(c.get(ctx, "/api/lights/scenes", "", nil), model.DecodeLightScene)
}

// ActivateScene switches the lights to a scene.
func (c *Client) ActivateScene(ctx context.Context, sceneID string) error {
	return c.send(ctx, http.MethodPost, "/api/lights/scenes", "", map[string]any{"id": sceneID}).Classified()
}

// TimLocation returns where Tim was last seen.
func (c *Client) TimLocation(ctx context.Context) (model.Location, error) {
	return decodeOne(c.get(ctx, "/api/location/tim", "", nil), model.DecodeLocation)
}

// SetTimLocation reports Tim's location.
func (c *Client) SetTimLocation(ctx context.Context, location string) error {
	return c.send(ctx, http.MethodPost, "/api/location/tim", "", map[string]any{"location": location}).Classified()
}

// SharedLocations lists the locations members share.
func (c *Client) SharedLocations(ctx context.Context) ([]model.Location, error) {
	return decodeList(c.get(ctx, "/api/location/shared", "", nil), model.DecodeLocation)
}

// ShareLocation publishes the signed-in member's location.
func (c *Client) ShareLocation(ctx context.Context, location string) error {
	return c.send(ctx, http.MethodPost, "/api/location/shared", "", map[string]any{"location": location}).Classified()
}

// SharingPreference reports whether the member shares their location.
func (c *Client) SharingPreference(ctx context.Context) (bool, error) {
	return decodeBool(c.get(ctx, "/api/location/shared/updatePreference", "", nil), "shared")
}

// UpdateSharingPreference turns location sharing on or off.
func (c *Client) UpdateSharingPreference(ctx context.Context, shared bool) error {
	return c.send(ctx, http.MethodPost, "/api/location/shared/updatePreference", "", map[string]any{"shared": shared}).Classified()
}

// Photos lists the photo feed.
func (c *Client) Photos(ctx context.Context) ([]model.Photo, error) {
	return decodeList(c.get(ctx, "/api/photos", "", nil), model.DecodePhoto)
}

// Notification is a push message sent to lab members.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Notify sends a push notification.
func (c *Client) Notify(ctx context.Context, n Notification) error {
	return c.send(ctx, http.MethodPost, "/api/notify", "", n).Classified()
}
