package realtime

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/okian/labsync/internal/domain/model"
	"github.com/okian/labsync/internal/session"
	. "github.com/smartystreets/goconvey/convey"
)

func lightsServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != NamespaceLights {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var auth struct {
			Event string            `json:"event"`
			Data  map[string]string `json:"data"`
		}
		if err := conn.ReadJSON(&auth); err != nil {
			return
		}
		if auth.Event != EventAuthenticate || auth.Data["token"] != token {
			_ = conn.WriteJSON(map[string]any{"event": EventUnauthorized})
			return
		}
		_ = conn.WriteJSON(map[string]any{"event": EventAuthenticated})
		_ = conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		_ = conn.WriteJSON(map[string]any{
			"event": "lights",
			"data":  []map[string]any{{"name": "Main", "on": true, "brightness": 80}},
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func TestWebsocketRoundTrip(t *testing.T) {
	Convey("Given a websocket server speaking the topic protocol", t, func() {
		srv := lightsServer(t, "tok")
		defer srv.Close()

		ep := &staticEndpoint{ep: session.Endpoint{ServerURL: srv.URL, Token: "tok"}}
		m := New(ep, WithPingPeriod(20*time.Millisecond))
		defer m.Close()

		updates, fn := collect[[]model.LightGroup]()
		h, err := Observe(m, Lights(), fn)
		So(err, ShouldBeNil)
		defer h.Stop()

		Convey("Then the first valid frame after authentication is delivered", func() {
			u, ok := receive(updates)
			So(ok, ShouldBeTrue)
			So(u.Err, ShouldBeNil)
			So(len(u.Value), ShouldEqual, 1)
			So(u.Value[0].Name, ShouldEqual, "Main")
			So(*u.Value[0].Brightness, ShouldEqual, 80)
			So(m.State(Lights().Topic), ShouldEqual, StateOpen)
		})
	})

	Convey("Given a websocket server expecting another token", t, func() {
		srv := lightsServer(t, "other")
		defer srv.Close()

		ep := &staticEndpoint{ep: session.Endpoint{ServerURL: srv.URL, Token: "tok"}}
		m := New(ep)
		defer m.Close()

		updates, fn := collect[[]model.LightGroup]()
		h, err := Observe(m, Lights(), fn)
		So(err, ShouldBeNil)
		defer h.Stop()

		Convey("Then the subscription reports the rejection", func() {
			u, ok := receive(updates)
			So(ok, ShouldBeTrue)
			So(u.Disconnected, ShouldBeTrue)
			So(u.Err, ShouldNotBeNil)
		})
	})
}
