package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/labsync/internal/domain/apierr"
	"github.com/okian/labsync/internal/domain/model"
	"github.com/okian/labsync/pkg/logger"
)

func equipmentPath(id string) string { return "/api/equipment/" + escape(id) }

// EquipmentList lists every equipment item.
func (c *Client) EquipmentList(ctx context.Context) ([]model.Equipment, error) {
	return decodeList(c.get(ctx, "/api/equipment", "", nil), model.DecodeEquipment)
}

// Equipment returns one item.
func (c *Client) Equipment(ctx context.Context, id string) (model.Equipment, error) {
	return decodeOne(c.get(ctx, equipmentPath(id), "/api/equipment/{id}", nil), model.DecodeEquipment)
}

// CreateEquipment creates e. An item that already has an id fails with
// already-created before anything is sent.
func (c *Client) CreateEquipment(ctx context.Context, e model.Equipment) (model.Equipment, error) {
	if e.ID != "" {
		return model.Equipment{}, apierr.New(apierr.KindAlreadyCreated, "create equipment "+e.ID)
	}
	return decodeOne(c.send(ctx, http.MethodPost, "/api/equipment", "", e.Payload()), model.DecodeEquipment)
}

// UpdateEquipment saves e.
func (c *Client) UpdateEquipment(ctx context.Context, e model.Equipment) (model.Equipment, error) {
	return decodeOne(c.send(ctx, http.MethodPut, "/api/equipment", "", e.Payload()), model.DecodeEquipment)
}

// CheckOutHistory lists the past checkouts of an item.
func (c *Client) CheckOutHistory(ctx context.Context, id string) ([]model.CheckOutRecord, error) {
	return decodeList(c.get(ctx, equipmentPath(id)+"/checkout", "/api/equipment/{id}/checkout", nil), model.DecodeCheckOutRecord)
}

// CheckOut borrows one unit of e.
//
// Equipment with no unit left fails with already-checked-out without a
// request. The server does not always report a lost race with a usable body,
// so an ambiguous failure re-fetches the item and reports already-checked-out
// when it is now fully borrowed; otherwise the original error is returned.
func (c *Client) CheckOut(ctx context.Context, e model.Equipment, expectedReturn *time.Time) error {
	op := "check out " + e.ID
	if e.IsCheckedOut() {
		return apierr.New(apierr.KindAlreadyCheckedOut, op)
	}
	body := model.Payload{}
	if expectedReturn != nil {
		body["expectedReturnDate"] = model.FormatDate(*expectedReturn)
	}
	err := c.send(ctx, http.MethodPost, equipmentPath(e.ID)+"/checkout", "/api/equipment/{id}/checkout", body).Classified()
	if err == nil || !ambiguous(err) {
		return err
	}
	return c.revalidate(ctx, e.ID, op, err, model.Equipment.IsCheckedOut)
}

// Return gives back a unit of e.
//
// Equipment with nothing out fails with already-checked-out without a
// request, and an ambiguous failure is re-validated like CheckOut.
func (c *Client) Return(ctx context.Context, e model.Equipment) error {
	op := "return " + e.ID
	nothingOut := func(e model.Equipment) bool { return !e.HasActiveCheckOut() }
	if nothingOut(e) {
		return apierr.New(apierr.KindAlreadyCheckedOut, op)
	}
	err := c.send(ctx, http.MethodPost, equipmentPath(e.ID)+"/return", "/api/equipment/{id}/return", map[string]any{}).Classified()
	if err == nil || !ambiguous(err) {
		return err
	}
	return c.revalidate(ctx, e.ID, op, err, nothingOut)
}

// revalidate re-fetches an item after an ambiguous failure and maps the
// failure to already-checked-out when conflict holds for the fresh state.
func (c *Client) revalidate(ctx context.Context, id, op string, cause error, conflict func(model.Equipment) bool) error {
	fresh, err := c.Equipment(ctx, id)
	if err != nil {
		c.logger.Debug(ctx, "re-fetch after failed checkout", logger.String("equipment", id), logger.Error(err))
		return cause
	}
	if conflict(fresh) {
		return apierr.Wrap(apierr.KindAlreadyCheckedOut, op, cause)
	}
	return cause
}

// ambiguous reports whether err leaves the server state unknown to us.
func ambiguous(err error) bool {
	switch apierr.KindOf(err) {
	case apierr.KindUnprocessable, apierr.KindBadRequest, apierr.KindUnknown,
		apierr.KindUnexpectedResponse, apierr.KindInvalidJSON:
		return true
	default:
		return false
	}
}
