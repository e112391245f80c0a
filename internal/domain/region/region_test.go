package region

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type recorder struct {
	mu  sync.Mutex
	got []Transition
}

func (r *recorder) listen(t Transition) {
	r.mu.Lock()
	r.got = append(r.got, t)
	r.mu.Unlock()
}

func (r *recorder) changes() []Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Change, 0, len(r.got))
	for _, t := range r.got {
		out = append(out, t.Change)
	}
	return out
}

func TestHighestPriority(t *testing.T) {
	Convey("Given region sets", t, func() {
		a := Region{Name: "a", Priority: 2}
		b := Region{Name: "b", Priority: 4}

		Convey("When the set holds A(2) and B(4)", func() {
			got, ok := HighestPriority([]Region{a, b})

			Convey("Then B wins", func() {
				So(ok, ShouldBeTrue)
				So(got, ShouldResemble, b)
			})
		})

		Convey("When the set is empty", func() {
			_, ok := HighestPriority(nil)

			Convey("Then there is no region", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When two regions tie", func() {
			c := Region{Name: "c", Priority: 4}
			got, _ := HighestPriority([]Region{b, c})
			again, _ := HighestPriority([]Region{b, c})

			Convey("Then the first wins deterministically", func() {
				So(got.Name, ShouldEqual, "b")
				So(again.Name, ShouldEqual, "b")
			})
		})

		Convey("When checking the known regions", func() {
			seen := map[int]bool{}
			for _, r := range All() {
				seen[r.Priority] = true
			}

			Convey("Then priorities are unique and lookups work", func() {
				So(len(seen), ShouldEqual, len(All()))
				r, ok := Lookup("check-in-event")
				So(ok, ShouldBeTrue)
				So(r, ShouldResemble, CheckInEvent)
				r, ok = LookupUUID(Lab.UUID)
				So(ok, ShouldBeTrue)
				So(r.Name, ShouldEqual, "lab")
				_, ok = Lookup("kitchen")
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestSet(t *testing.T) {
	Convey("Given an empty inside-set", t, func() {
		s := NewSet()

		Convey("When adding the same region twice", func() {
			first := s.Add(Lab)
			second := s.Add(Lab)

			Convey("Then only the first insertion changes the set", func() {
				So(first, ShouldBeTrue)
				So(second, ShouldBeFalse)
				So(s.Size(), ShouldEqual, 1)
				So(s.Contains(Lab), ShouldBeTrue)
			})

			Convey("And removal is idempotent too", func() {
				So(s.Remove(Lab), ShouldBeTrue)
				So(s.Remove(Lab), ShouldBeFalse)
				So(s.Size(), ShouldEqual, 0)
			})
		})

		Convey("When adding several regions", func() {
			s.Add(Office)
			s.Add(Lab)
			s.Add(VotingEvent)
			s.Remove(Lab)

			Convey("Then members keep insertion order", func() {
				So(s.Members(), ShouldResemble, []Region{Office, VotingEvent})
			})
		})
	})
}

func TestTracker(t *testing.T) {
	Convey("Given a tracker and a lab listener", t, func() {
		tr := NewTracker()
		rec := &recorder{}
		tr.Listen(Lab, rec.listen)

		Convey("When lab is entered, exited and then determined unknown", func() {
			tr.Entered(Lab)
			tr.Exited(Lab)
			tr.Determined(Lab, StateUnknown)

			Convey("Then exactly entering and exiting are emitted", func() {
				So(rec.changes(), ShouldResemble, []Change{ChangeEntering, ChangeExiting})
				So(rec.got[0].State, ShouldEqual, StateInside)
				So(rec.got[1].State, ShouldEqual, StateOutside)
				So(tr.State(Lab), ShouldEqual, StateOutside)
			})
		})

		Convey("When the region starts unknown", func() {
			Convey("Then exit and determined outside are no-ops", func() {
				So(tr.Exited(Lab), ShouldEqual, ChangeNone)
				So(tr.Determined(Lab, StateOutside), ShouldEqual, ChangeNone)
				So(tr.State(Lab), ShouldEqual, StateUnknown)
				So(rec.changes(), ShouldBeEmpty)
			})

			Convey("And determined inside counts as entering", func() {
				So(tr.Determined(Lab, StateInside), ShouldEqual, ChangeEntering)
				So(tr.Determined(Lab, StateInside), ShouldEqual, ChangeNone)
				So(tr.Determined(Lab, StateOutside), ShouldEqual, ChangeExiting)
			})
		})

		Convey("When feeding a random enter/exit sequence", func() {
			rng := rand.New(rand.NewSource(7))
			for i := 0; i < 500; i++ {
				switch rng.Intn(3) {
				case 0:
					tr.Entered(Lab)
				case 1:
					tr.Exited(Lab)
				default:
					tr.Determined(Lab, State(rng.Intn(3)))
				}
			}

			Convey("Then entering and exiting strictly alternate", func() {
				changes := rec.changes()
				So(changes, ShouldNotBeEmpty)
				for i, c := range changes {
					if i%2 == 0 {
						So(c, ShouldEqual, ChangeEntering)
					} else {
						So(c, ShouldEqual, ChangeExiting)
					}
				}
			})
		})

		Convey("When several regions are entered", func() {
			all := &recorder{}
			var names []string
			tr.ListenAll(all.listen)
			tr.ListenNamed("office", func(name string, _ Transition) { names = append(names, name) })

			tr.Entered(Office)
			tr.Entered(Lab)
			tr.Entered(CheckInEvent)

			Convey("Then every path sees its transitions", func() {
				So(len(all.changes()), ShouldEqual, 3)
				So(len(rec.changes()), ShouldEqual, 1)
				So(names, ShouldResemble, []string{"office"})
			})

			Convey("Then the current location is the highest priority region", func() {
				loc, ok := tr.CurrentLocation()
				So(ok, ShouldBeTrue)
				So(loc, ShouldResemble, CheckInEvent)
				tr.Exited(CheckInEvent)
				loc, _ = tr.CurrentLocation()
				So(loc, ShouldResemble, Lab)
			})
		})

		Convey("When a listener is removed", func() {
			other := &recorder{}
			cancel := tr.Listen(Lab, other.listen)
			tr.Entered(Lab)
			cancel()
			tr.Exited(Lab)

			Convey("Then it stops receiving", func() {
				So(other.changes(), ShouldResemble, []Change{ChangeEntering})
				So(rec.changes(), ShouldResemble, []Change{ChangeEntering, ChangeExiting})
			})
		})

		Convey("When a listener reads tracker state during emission", func() {
			var seen State
			tr.Listen(Office, func(Transition) { seen = tr.State(Office) })
			tr.Entered(Office)

			Convey("Then it observes the new state", func() {
				So(seen, ShouldEqual, StateInside)
			})
		})
	})
}

func TestSignals(t *testing.T) {
	Convey("Given textual signals", t, func() {
		Convey("When they are well formed", func() {
			enter, err1 := ParseSignal("enter lab")
			exit, err2 := ParseSignal("exit lab")
			state, err3 := ParseSignal("state office inside")

			Convey("Then they parse", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(err3, ShouldBeNil)
				So(enter, ShouldResemble, Signal{Kind: SignalEntered, Region: Lab})
				So(exit.Kind, ShouldEqual, SignalExited)
				So(state, ShouldResemble, Signal{Kind: SignalDetermined, Region: Office, State: StateInside})
			})

			Convey("And applying them drives the tracker", func() {
				tr := NewTracker()
				c, err := tr.Apply(context.Background(), enter)
				So(err, ShouldBeNil)
				So(c, ShouldEqual, ChangeEntering)
				c, _ = tr.Apply(context.Background(), exit)
				So(c, ShouldEqual, ChangeExiting)
			})
		})

		Convey("When they are malformed", func() {
			_, err1 := ParseSignal("enter")
			_, err2 := ParseSignal("enter kitchen")
			_, err3 := ParseSignal("state lab sideways")
			_, err4 := ParseSignal("jump lab")
			_, err5 := NewTracker().Apply(context.Background(), Signal{})

			Convey("Then they fail with sentinel errors", func() {
				So(errors.Is(err1, ErrInvalidSignal), ShouldBeTrue)
				So(errors.Is(err2, ErrUnknownRegion), ShouldBeTrue)
				So(errors.Is(err3, ErrInvalidSignal), ShouldBeTrue)
				So(errors.Is(err4, ErrInvalidSignal), ShouldBeTrue)
				So(errors.Is(err5, ErrInvalidSignal), ShouldBeTrue)
			})
		})
	})
}
