package model

import "time"

// FoodOrder is one entry of the shared food list.
type FoodOrder struct {
	ID        string
	Name      string
	OrderedBy *Member
	CreatedAt *time.Time
}

// DecodeFoodOrder requires id and name.
func DecodeFoodOrder(p Payload) (FoodOrder, bool) {
	id, ok1 := p.String("id")
	name, ok2 := p.String("name")
	if !ok1 || !ok2 {
		return FoodOrder{}, false
	}
	f := FoodOrder{ID: id, Name: name}
	if mp, ok := p.Object("member"); ok {
		if m, ok := DecodeMember(mp); ok {
			f.OrderedBy = &m
		}
	}
	var ok bool
	if f.CreatedAt, ok = p.optionalDate("createdAt"); !ok {
		return FoodOrder{}, false
	}
	return f, true
}

// Checkin records a member checking in to an event.
type Checkin struct {
	Member  Member
	EventID string
	Date    time.Time
}

// DecodeCheckin requires member and date.
func DecodeCheckin(p Payload) (Checkin, bool) {
	mp, ok := p.Object("member")
	if !ok {
		return Checkin{}, false
	}
	m, ok := DecodeMember(mp)
	if !ok {
		return Checkin{}, false
	}
	date, ok := p.Date("date")
	if !ok {
		return Checkin{}, false
	}
	c := Checkin{Member: m, Date: date}
	c.EventID, _ = p.String("eventId")
	return c, true
}

// Location is a reported whereabouts, optionally attributed to a member.
type Location struct {
	Name   string
	Member *Member
	Date   *time.Time
}

// DecodeLocation requires location.
func DecodeLocation(p Payload) (Location, bool) {
	name, ok := p.String("location")
	if !ok {
		return Location{}, false
	}
	l := Location{Name: name}
	if mp, ok := p.Object("member"); ok {
		if m, ok := DecodeMember(mp); ok {
			l.Member = &m
		}
	}
	if l.Date, ok = p.optionalDate("date"); !ok {
		return Location{}, false
	}
	return l, true
}

// Photo is an entry of the lab photo feed.
type Photo struct {
	ID      string
	URL     string
	Caption string
	TakenAt *time.Time
}

// DecodePhoto requires id and url.
func DecodePhoto(p Payload) (Photo, bool) {
	id, ok1 := p.String("id")
	url, ok2 := p.String("url")
	if !ok1 || !ok2 {
		return Photo{}, false
	}
	ph := Photo{ID: id, URL: url}
	ph.Caption, _ = p.String("caption")
	var ok bool
	if ph.TakenAt, ok = p.optionalDate("takenAt"); !ok {
		return Photo{}, false
	}
	return ph, true
}
