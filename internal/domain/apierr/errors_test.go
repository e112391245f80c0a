package apierr

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/smartystreets/goconvey/convey"
)

func TestFromStatus(t *testing.T) {
	convey.Convey("Given HTTP statuses", t, func() {
		cases := map[int]Kind{
			http.StatusUnauthorized:        KindUnauthorized,
			http.StatusForbidden:           KindForbidden,
			http.StatusUnprocessableEntity: KindUnprocessable,
			http.StatusBadRequest:          KindBadRequest,
			http.StatusNotFound:            KindNotFound,
			http.StatusInternalServerError: KindUnknown,
			http.StatusCreated:             KindUnknown,
		}

		convey.Convey("When classified", func() {
			convey.Convey("Then each maps to its kind", func() {
				for status, want := range cases {
					e := FromStatus("GET /api/events", status, nil)
					convey.So(e, convey.ShouldNotBeNil)
					convey.So(e.Kind, convey.ShouldEqual, want)
					convey.So(e.Status, convey.ShouldEqual, status)
				}
			})

			convey.Convey("And 200 is not an error", func() {
				convey.So(FromStatus("GET /api/events", http.StatusOK, nil), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the body is not valid UTF-8", func() {
			e := FromStatus("op", http.StatusTeapot, []byte{'o', 'k', 0xff})

			convey.Convey("Then the body text is decoded best effort", func() {
				convey.So(e.Body, convey.ShouldEqual, "ok�")
			})
		})
	})
}

func TestErrorMatching(t *testing.T) {
	convey.Convey("Given a wrapped error", t, func() {
		inner := Wrap(KindNetwork, "GET /api/food", io.ErrUnexpectedEOF)
		err := fmt.Errorf("load food: %w", inner)

		convey.Convey("Then errors.Is works for the kind and the cause", func() {
			convey.So(errors.Is(err, ErrNetwork), convey.ShouldBeTrue)
			convey.So(errors.Is(err, io.ErrUnexpectedEOF), convey.ShouldBeTrue)
			convey.So(errors.Is(err, ErrNotFound), convey.ShouldBeFalse)
		})

		convey.Convey("Then KindOf and Summary see through the wrapping", func() {
			convey.So(KindOf(err), convey.ShouldEqual, KindNetwork)
			convey.So(Summary(err), convey.ShouldEqual, "Could not reach the server")
			convey.So(KindOf(errors.New("plain")), convey.ShouldEqual, KindUnknown)
			convey.So(KindOf(nil), convey.ShouldEqual, Kind(""))
		})

		convey.Convey("Then the message names op, kind and cause", func() {
			convey.So(inner.Error(), convey.ShouldEqual, "GET /api/food: network: unexpected EOF")
		})
	})
}

func TestFatal(t *testing.T) {
	convey.Convey("Given every kind", t, func() {
		convey.Convey("Then only forbidden and not-configured are fatal", func() {
			for kind := range sentinels {
				e := New(kind, "op")
				want := kind == KindForbidden || kind == KindNotConfigured
				convey.So(e.Fatal(), convey.ShouldEqual, want)
				convey.So(IsFatal(e), convey.ShouldEqual, want)
				convey.So(e.Summary(), convey.ShouldNotBeEmpty)
			}
		})
	})
}

func TestErrorBodyTruncation(t *testing.T) {
	convey.Convey("Given a long body with a multi-byte rune on the cut", t, func() {
		body := strings.Repeat("a", maxBodyInMessage-1) + "é" + strings.Repeat("b", 10)
		msg := (&Error{Kind: KindUnknown, Status: 500, Body: body}).Error()

		convey.Convey("Then the message stays valid UTF-8 and drops the whole rune", func() {
			convey.So(utf8.ValidString(msg), convey.ShouldBeTrue)
			convey.So(msg, convey.ShouldEndWith, strings.Repeat("a", maxBodyInMessage-1)+"...")
		})
	})

	convey.Convey("Given a short body", t, func() {
		msg := (&Error{Kind: KindUnknown, Status: 500, Body: "héllo"}).Error()

		convey.Convey("Then it is kept whole", func() {
			convey.So(msg, convey.ShouldEndWith, ": héllo")
		})
	})
}
