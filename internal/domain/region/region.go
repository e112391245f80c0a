// Package region tracks occupancy of the fixed set of beacon regions and
// emits typed transitions when the device enters or leaves one.
package region

import (
	"sort"

	"github.com/google/uuid"
)

// Region is a named, beacon-identified area. Priorities are unique; higher wins
// when summarizing the current location.
type Region struct {
	Name     string
	UUID     uuid.UUID
	Priority int
}

// Known regions.
var (
	Office       = Region{Name: "office", UUID: uuid.MustParse("5f2dd896-b886-4549-ae01-e41acd7a354a"), Priority: 1}
	Lab          = Region{Name: "lab", UUID: uuid.MustParse("a33bbd8e-7a6a-4a0c-9d4c-6f5a3f0f8c11"), Priority: 2}
	VotingEvent  = Region{Name: "voting-event", UUID: uuid.MustParse("0c9bd2a6-6f73-4d3a-8a45-3c1a84a6e0f2"), Priority: 3}
	CheckInEvent = Region{Name: "check-in-event", UUID: uuid.MustParse("e6f4b0b2-0b8d-4d3f-9f3a-8b6f1a2c7d45"), Priority: 4}
)

// All returns every known region in declaration order.
func All() []Region {
	return []Region{Office, Lab, VotingEvent, CheckInEvent}
}

// Lookup finds a known region by name.
func Lookup(name string) (Region, bool) {
	for _, r := range All() {
		if r.Name == name {
			return r, true
		}
	}
	return Region{}, false
}

// LookupUUID finds a known region by beacon UUID.
func LookupUUID(id uuid.UUID) (Region, bool) {
	for _, r := range All() {
		if r.UUID == id {
			return r, true
		}
	}
	return Region{}, false
}

func (r Region) String() string { return r.Name }

// HighestPriority returns the region with the largest priority. Ties keep the
// earliest element.
func HighestPriority(regions []Region) (Region, bool) {
	if len(regions) == 0 {
		return Region{}, false
	}
	sorted := make([]Region, len(regions))
	copy(sorted, regions)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority > sorted[j].Priority })
	return sorted[0], true
}

// State is the occupancy of one region.
type State int

const (
	StateUnknown State = iota
	StateOutside
	StateInside
)

func (s State) String() string {
	switch s {
	case StateInside:
		return "inside"
	case StateOutside:
		return "outside"
	default:
		return "unknown"
	}
}

// ParseState parses the String form of a State.
func ParseState(s string) (State, bool) {
	switch s {
	case "inside":
		return StateInside, true
	case "outside":
		return StateOutside, true
	case "unknown":
		return StateUnknown, true
	default:
		return StateUnknown, false
	}
}

// Change is the edge between two states.
type Change int

const (
	ChangeNone Change = iota
	ChangeEntering
	ChangeExiting
)

func (c Change) String() string {
	switch c {
	case ChangeEntering:
		return "entering"
	case ChangeExiting:
		return "exiting"
	default:
		return "none"
	}
}

// Transition is one emitted change.
type Transition struct {
	Region Region
	Change Change
	State  State // state after the change
}
