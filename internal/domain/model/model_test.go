package model_test

import (
	"encoding/json"
	"testing"
	"time"

	model "github.com/okian/labsync/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func decodeJSON(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return v
}

func memberPayload() model.Payload {
	return model.Payload{"id": "m1", "name": "Ada", "email": "ada@lab.test"}
}

func TestParseDate(t *testing.T) {
	convey.Convey("Given wire timestamps", t, func() {
		convey.Convey("When the layout matches exactly", func() {
			got, err := model.ParseDate("2024-03-01T10:15:30.250+02:00")

			convey.Convey("Then it is normalized to UTC", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.Location(), convey.ShouldEqual, time.UTC)
				convey.So(got.Equal(time.Date(2024, 3, 1, 8, 15, 30, 250_000_000, time.UTC)), convey.ShouldBeTrue)
				convey.So(model.FormatDate(got), convey.ShouldEqual, "2024-03-01T08:15:30.250+00:00")
			})
		})

		convey.Convey("When the layout deviates", func() {
			bad := []string{
				"2024-03-01T10:15:30Z",
				"2024-03-01T10:15:30.250Z",
				"2024-03-01T10:15:30+02:00",
				"2024-03-01T10:15:30.25+02:00",
				"2024-03-01T10:15:30.2500+02:00",
				"2024-03-01 10:15:30.250+02:00",
				"2024-03-01T10:15:30.250+0200",
				"",
			}

			convey.Convey("Then parsing fails", func() {
				for _, s := range bad {
					_, err := model.ParseDate(s)
					convey.So(err, convey.ShouldNotBeNil)
				}
			})
		})
	})
}

func TestDecodeMember(t *testing.T) {
	convey.Convey("Given a member payload", t, func() {
		convey.Convey("When every required field is present", func() {
			m, ok := model.DecodeMember(memberPayload())

			convey.Convey("Then the fields round-trip", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(m.ID, convey.ShouldEqual, "m1")
				convey.So(m.Name, convey.ShouldEqual, "Ada")
				convey.So(m.Email, convey.ShouldEqual, "ada@lab.test")
				convey.So(m.IsAdmin, convey.ShouldBeFalse)

				again, ok := model.DecodeMember(m.Payload())
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(again, convey.ShouldResemble, m)
			})
		})

		convey.Convey("When any required field is missing or null", func() {
			convey.Convey("Then decoding fails", func() {
				for _, key := range []string{"id", "name", "email"} {
					p := memberPayload()
					delete(p, key)
					_, ok := model.DecodeMember(p)
					convey.So(ok, convey.ShouldBeFalse)

					p = memberPayload()
					p[key] = nil
					_, ok = model.DecodeMember(p)
					convey.So(ok, convey.ShouldBeFalse)
				}
			})
		})
	})
}

func TestDecodeEvent(t *testing.T) {
	convey.Convey("Given an event payload", t, func() {
		base := func() model.Payload {
			return model.Payload{
				"id":        "e1",
				"name":      "Demo day",
				"startDate": "2024-05-01T09:00:00.000+00:00",
				"endDate":   "2024-05-01T17:00:00.000+00:00",
			}
		}

		convey.Convey("When it is a plain event", func() {
			e, ok := model.DecodeEvent(base())

			convey.Convey("Then it decodes as standard and editable", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(e.Kind, convey.ShouldEqual, model.EventKindStandard)
				convey.So(e.Voting, convey.ShouldBeNil)
				convey.So(e.Editable(), convey.ShouldBeTrue)
				convey.So(e.Contains(e.Start), convey.ShouldBeTrue)
				convey.So(e.Contains(e.End), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When it carries a calendar id", func() {
			p := base()
			p["calendarId"] = "google-123"
			e, ok := model.DecodeEvent(p)

			convey.Convey("Then it is not editable", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(e.Editable(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the same payload carries a voting config", func() {
			p := base()
			p["maxVotes"] = float64(3)
			p["releaseResults"] = true
			p["options"] = []any{
				map[string]any{"id": "o1", "name": "Robot", "points": float64(5), "awards": []any{"best"}},
				map[string]any{"name": "no id"},
			}
			e, ok := model.DecodeEvent(p)

			convey.Convey("Then it is upgraded to the voting variant", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(e.Kind, convey.ShouldEqual, model.EventKindVoting)
				convey.So(e.Voting, convey.ShouldNotBeNil)
				convey.So(e.Voting.MaxVotes, convey.ShouldEqual, 3)
				convey.So(e.Voting.ReleaseResults, convey.ShouldBeTrue)
				convey.So(len(e.Voting.Options), convey.ShouldEqual, 1)
				convey.So(*e.Voting.Options[0].Points, convey.ShouldEqual, 5)
				convey.So(e.Voting.Options[0].Awards, convey.ShouldResemble, []string{"best"})
			})
		})

		convey.Convey("When a date is malformed", func() {
			p := base()
			p["endDate"] = "2024-05-01T17:00:00Z"
			_, ok := model.DecodeEvent(p)

			convey.Convey("Then the required field fails the event", func() {
				convey.So(ok, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When encoded without an id", func() {
			e, _ := model.DecodeEvent(base())
			e.ID = ""
			p := e.Payload()

			convey.Convey("Then the id is omitted", func() {
				convey.So(p.Has("id"), convey.ShouldBeFalse)
				convey.So(p["startDate"], convey.ShouldEqual, "2024-05-01T09:00:00.000+00:00")
			})
		})
	})
}

func TestDecodeEquipmentList(t *testing.T) {
	convey.Convey("Given a raw list of two equipment items", t, func() {
		raw := decodeJSON(t, `[
			{"id": "eq1", "name": "Oscilloscope",
			 "lastCheckOut": {"member": {"id": "m1", "name": "Ada", "email": "ada@lab.test"},
			                  "startDate": "2024-05-01T09:00:00.000+00:00", "endDate": null}},
			{"id": "eq2", "name": "Soldering iron"}
		]`)

		convey.Convey("When decoded as a list", func() {
			items := model.DecodeList(raw, model.DecodeEquipment)

			convey.Convey("Then both decode with the expected state", func() {
				convey.So(len(items), convey.ShouldEqual, 2)
				convey.So(items[0].IsCheckedOut(), convey.ShouldBeTrue)
				convey.So(items[0].LastCheckOut.Member.Name, convey.ShouldEqual, "Ada")
				convey.So(items[1].TotalStock, convey.ShouldEqual, 1)
				convey.So(items[1].Type, convey.ShouldEqual, model.EquipmentSingle)
				convey.So(items[1].IsCheckedOut(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the list contains broken items", func() {
			raw := decodeJSON(t, `[
				{"id": "a", "name": "ok"},
				{"name": "missing id"},
				{"id": "b", "name": "bad type", "type": "bundle"},
				{"id": "c", "name": "bad stock", "totalStock": 0},
				"not an object",
				{"id": "d", "name": "bad checkout", "lastCheckOut": {"startDate": "2024-05-01T09:00:00.000+00:00"}}
			]`)
			items := model.DecodeList(raw, model.DecodeEquipment)

			convey.Convey("Then only the valid item survives", func() {
				convey.So(len(items), convey.ShouldEqual, 1)
				convey.So(items[0].ID, convey.ShouldEqual, "a")
			})
		})
	})
}

func TestEquipmentCheckoutState(t *testing.T) {
	convey.Convey("Given a collection with two units", t, func() {
		borrower, _ := model.DecodeMember(memberPayload())
		e := model.Equipment{ID: "c", Name: "Breadboards", Type: model.EquipmentCollection, TotalStock: 2}

		convey.Convey("When one unit is out", func() {
			e.CheckingOut = []model.Member{borrower}

			convey.Convey("Then it is still available", func() {
				convey.So(e.IsCheckedOut(), convey.ShouldBeFalse)
				convey.So(e.HasActiveCheckOut(), convey.ShouldBeTrue)
				convey.So(e.Available(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When every unit is out", func() {
			e.CheckingOut = []model.Member{borrower, borrower}

			convey.Convey("Then it is checked out", func() {
				convey.So(e.IsCheckedOut(), convey.ShouldBeTrue)
				convey.So(e.Available(), convey.ShouldEqual, 0)
			})
		})
	})

	convey.Convey("Given a single item whose last checkout was returned", t, func() {
		end := time.Now()
		e := model.Equipment{ID: "s", Name: "Drill", Type: model.EquipmentSingle, TotalStock: 1,
			LastCheckOut: &model.CheckOutRecord{End: &end}}

		convey.Convey("Then it is available", func() {
			convey.So(e.IsCheckedOut(), convey.ShouldBeFalse)
			convey.So(e.HasActiveCheckOut(), convey.ShouldBeFalse)
			convey.So(e.Available(), convey.ShouldEqual, 1)
		})
	})
}

func TestBallot(t *testing.T) {
	convey.Convey("Given options with a local selection", t, func() {
		opts := []model.VotingOption{
			{ID: "a", IsVotedFor: true, VoteOrder: 2},
			{ID: "b"},
			{ID: "c", IsVotedFor: true, VoteOrder: 1},
		}

		convey.Convey("Then the ballot lists selected ids in vote order", func() {
			convey.So(model.Ballot(opts)["votes"], convey.ShouldResemble, []any{"c", "a"})
		})
	})
}

func TestDecodeSmallEntities(t *testing.T) {
	convey.Convey("Given payloads for the smaller entities", t, func() {
		convey.Convey("Then required fields gate each decoder", func() {
			g, ok := model.DecodeLightGroup(model.Payload{"name": "desk", "on": true, "brightness": float64(80)})
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(*g.Brightness, convey.ShouldEqual, 80)
			convey.So(g.Hue, convey.ShouldBeNil)
			_, ok = model.DecodeLightGroup(model.Payload{"name": "desk"})
			convey.So(ok, convey.ShouldBeFalse)

			_, ok = model.DecodeLightScene(model.Payload{"id": "s1", "name": "Focus"})
			convey.So(ok, convey.ShouldBeTrue)

			f, ok := model.DecodeFoodOrder(model.Payload{"id": "f1", "name": "Pizza", "member": map[string]any(memberPayload())})
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(f.OrderedBy.ID, convey.ShouldEqual, "m1")

			c, ok := model.DecodeCheckin(model.Payload{"member": map[string]any(memberPayload()), "date": "2024-05-01T09:00:00.000+00:00"})
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(c.Member.Name, convey.ShouldEqual, "Ada")
			_, ok = model.DecodeCheckin(model.Payload{"member": map[string]any(memberPayload())})
			convey.So(ok, convey.ShouldBeFalse)

			l, ok := model.DecodeLocation(model.Payload{"location": "lab"})
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(l.Name, convey.ShouldEqual, "lab")
			convey.So(l.Member, convey.ShouldBeNil)

			_, ok = model.DecodePhoto(model.Payload{"id": "p1", "url": "https://x/p1.jpg", "takenAt": "yesterday"})
			convey.So(ok, convey.ShouldBeFalse)
		})
	})
}
