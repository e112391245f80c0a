package region

import (
	"context"
	"fmt"
	"strings"
)

// SignalKind is the kind of raw input from the location provider.
type SignalKind int

const (
	SignalEntered SignalKind = iota + 1
	SignalExited
	SignalDetermined
)

func (k SignalKind) String() string {
	switch k {
	case SignalEntered:
		return "enter"
	case SignalExited:
		return "exit"
	case SignalDetermined:
		return "state"
	default:
		return "invalid"
	}
}

// Signal is one raw observation from the location provider.
type Signal struct {
	Kind   SignalKind
	Region Region
	State  State // only for SignalDetermined
}

// Apply feeds s into the tracker and returns the resulting change.
func (t *Tracker) Apply(_ context.Context, s Signal) (Change, error) {
	switch s.Kind {
	case SignalEntered:
		return t.Entered(s.Region), nil
	case SignalExited:
		return t.Exited(s.Region), nil
	case SignalDetermined:
		return t.Determined(s.Region, s.State), nil
	default:
		return ChangeNone, fmt.Errorf("%w: %d", ErrInvalidSignal, s.Kind)
	}
}

// ParseSignal parses the textual form "enter <region>", "exit <region>" or
// "state <region> <inside|outside|unknown>".
func ParseSignal(line string) (Signal, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Signal{}, fmt.Errorf("%w: %q", ErrInvalidSignal, line)
	}
	r, ok := Lookup(fields[1])
	if !ok {
		return Signal{}, fmt.Errorf("%w: %q", ErrUnknownRegion, fields[1])
	}

	switch strings.ToLower(fields[0]) {
	case "enter", "entered":
		if len(fields) != 2 {
			break
		}
		return Signal{Kind: SignalEntered, Region: r}, nil
	case "exit", "exited":
		if len(fields) != 2 {
			break
		}
		return Signal{Kind: SignalExited, Region: r}, nil
	case "state", "determined":
		if len(fields) != 3 {
			break
		}
		s, ok := ParseState(fields[2])
		if !ok {
			return Signal{}, fmt.Errorf("%w: state %q", ErrInvalidSignal, fields[2])
		}
		return Signal{Kind: SignalDetermined, Region: r, State: s}, nil
	}
	return Signal{}, fmt.Errorf("%w: %q", ErrInvalidSignal, line)
}
