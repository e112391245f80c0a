package realtime

import "github.com/okian/labsync/internal/domain/model"

// Server namespaces, one connection each.
const (
	NamespaceEvents    = "/eventsReloads"
	NamespaceLocation  = "/location"
	NamespaceLights    = "/lights"
	NamespaceFood      = "/food"
	NamespaceEquipment = "/equipment"
	NamespaceVoting    = "/voting"
	NamespaceCheckins  = "/listCheckins"
)

// Topic identifies one connection: a namespace, optionally joined to an
// entity by id.
type Topic struct {
	Namespace string
	ID        string
}

func (t Topic) String() string {
	if t.ID == "" {
		return t.Namespace
	}
	return t.Namespace + "/" + t.ID
}

// Subscription describes what a listener receives: frames named Event on
// Topic, decoded with Decode.
type Subscription[T any] struct {
	Topic  Topic
	Event  string
	Decode func(raw any) (T, bool)
}

// ListOf decodes a JSON array, skipping items decode rejects. Anything other
// than an array fails.
func ListOf[T any](decode func(model.Payload) (T, bool)) func(any) ([]T, bool) {
	return func(raw any) ([]T, bool) {
		if _, ok := raw.([]any); !ok {
			return nil, false
		}
		return model.DecodeList(raw, decode), true
	}
}

// One decodes a single JSON object.
func One[T any](decode func(model.Payload) (T, bool)) func(any) (T, bool) {
	return func(raw any) (T, bool) {
		return model.DecodeOne(raw, decode)
	}
}

// Events streams the event list whenever the server reloads it.
func Events() Subscription[[]model.Event] {
	return Subscription[[]model.Event]{Topic: Topic{Namespace: NamespaceEvents}, Event: "events", Decode: ListOf(model.DecodeEvent)}
}

// SharedLocations streams the locations members are sharing.
func SharedLocations() Subscription[[]model.Location] {
	return Subscription[[]model.Location]{Topic: Topic{Namespace: NamespaceLocation}, Event: "locations", Decode: ListOf(model.DecodeLocation)}
}

// Lights streams every light group.
func Lights() Subscription[[]model.LightGroup] {
	return Subscription[[]model.LightGroup]{Topic: Topic{Namespace: NamespaceLights}, Event: "lights", Decode: ListOf(model.DecodeLightGroup)}
}

// Food streams the current food orders.
func Food() Subscription[[]model.FoodOrder] {
	return Subscription[[]model.FoodOrder]{Topic: Topic{Namespace: NamespaceFood}, Event: "food", Decode: ListOf(model.DecodeFoodOrder)}
}

// Equipment streams the equipment list.
func Equipment() Subscription[[]model.Equipment] {
	return Subscription[[]model.Equipment]{Topic: Topic{Namespace: NamespaceEquipment}, Event: "equipment", Decode: ListOf(model.DecodeEquipment)}
}

// EquipmentItem streams one equipment item.
func EquipmentItem(id string) Subscription[model.Equipment] {
	return Subscription[model.Equipment]{Topic: Topic{Namespace: NamespaceEquipment, ID: id}, Event: "equipmentItem", Decode: One(model.DecodeEquipment)}
}

// VotingEvents streams the voting events list.
func VotingEvents() Subscription[[]model.Event] {
	return Subscription[[]model.Event]{Topic: Topic{Namespace: NamespaceVoting}, Event: "votingEvents", Decode: ListOf(model.DecodeEvent)}
}

// VotingEvent streams one voting event.
func VotingEvent(id string) Subscription[model.Event] {
	return Subscription[model.Event]{Topic: Topic{Namespace: NamespaceVoting, ID: id}, Event: "votingEvent", Decode: One(model.DecodeEvent)}
}

// Checkins streams the check-ins of one event.
func Checkins(eventID string) Subscription[[]model.Checkin] {
	return Subscription[[]model.Checkin]{Topic: Topic{Namespace: NamespaceCheckins, ID: eventID}, Event: "checkins", Decode: ListOf(model.DecodeCheckin)}
}
