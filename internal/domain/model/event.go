package model

import "time"

// EventKind discriminates the Event variants.
type EventKind int

const (
	// EventKindStandard is a plain calendar event.
	EventKindStandard EventKind = iota
	// EventKindVoting is an event that carries a VotingConfig.
	EventKindVoting
)

func (k EventKind) String() string {
	if k == EventKindVoting {
		return "voting"
	}
	return "standard"
}

// Event is a lab event occupying [Start, End).
type Event struct {
	ID    string
	Name  string
	Start time.Time
	End   time.Time

	Location    string
	Description string
	// CalendarID is set when the event is mirrored from an external calendar.
	CalendarID string

	Kind   EventKind
	Voting *VotingConfig // non-nil iff Kind == EventKindVoting
}

// VotingConfig is the voting part of an event.
type VotingConfig struct {
	MaxVotes       int
	ReleaseResults bool
	Options        []VotingOption
}

// Editable reports whether the event is owned by labsync rather than an
// external calendar.
func (e Event) Editable() bool { return e.CalendarID == "" }

// Contains reports whether t falls within [Start, End).
func (e Event) Contains(t time.Time) bool {
	return !t.Before(e.Start) && t.Before(e.End)
}

// DecodeEvent requires id, name, startDate and endDate. When the same payload
// also carries a voting configuration the event is upgraded to EventKindVoting.
func DecodeEvent(p Payload) (Event, bool) {
	id, ok1 := p.String("id")
	name, ok2 := p.String("name")
	start, ok3 := p.Date("startDate")
	end, ok4 := p.Date("endDate")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Event{}, false
	}
	e := Event{ID: id, Name: name, Start: start, End: end}
	e.Location, _ = p.String("location")
	e.Description, _ = p.String("description")
	e.CalendarID, _ = p.String("calendarId")

	if cfg, ok := decodeVotingConfig(p); ok {
		e.Kind = EventKindVoting
		e.Voting = &cfg
	}
	return e, true
}

func decodeVotingConfig(p Payload) (VotingConfig, bool) {
	maxVotes, ok := p.Int("maxVotes")
	if !ok {
		return VotingConfig{}, false
	}
	cfg := VotingConfig{MaxVotes: maxVotes}
	cfg.ReleaseResults, _ = p.Bool("releaseResults")
	if raw, ok := p.List("options"); ok {
		cfg.Options = DecodeList(raw, DecodeVotingOption)
	}
	return cfg, true
}

// Payload encodes e for create and update requests. The id is omitted when empty.
func (e Event) Payload() Payload {
	p := Payload{
		"name":      e.Name,
		"startDate": FormatDate(e.Start),
		"endDate":   FormatDate(e.End),
	}
	setString(p, "id", e.ID)
	setString(p, "location", e.Location)
	setString(p, "description", e.Description)
	setString(p, "calendarId", e.CalendarID)
	if e.Kind == EventKindVoting && e.Voting != nil {
		p["maxVotes"] = e.Voting.MaxVotes
		p["releaseResults"] = e.Voting.ReleaseResults
		opts := make([]any, 0, len(e.Voting.Options))
		for _, o := range e.Voting.Options {
			opts = append(opts, map[string]any(o.Payload()))
		}
		p["options"] = opts
	}
	return p
}
