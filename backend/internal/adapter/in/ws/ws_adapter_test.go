package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"

	"x-katamari/backend/internal/core/domain/entity"
	"x-katamari/backend/internal/core/port/in/session"
	"x-katamari/backend/internal/steering"
)

type fakeSession struct {
	mu     sync.Mutex
	inputs []steering.Input
	snap   session.Snapshot
	scene  session.SceneView
}

func (f *fakeSession) SetInput(in steering.Input) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
}

func (f *fakeSession) Snapshot() session.Snapshot { return f.snap }
func (f *fakeSession) Scene() session.SceneView   { return f.scene }

func (f *fakeSession) lastInput() (steering.Input, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inputs) == 0 {
		return steering.Input{}, 0
	}
	return f.inputs[len(f.inputs)-1], len(f.inputs)
}

func newFakeSession() *fakeSession {
	snap := session.Snapshot{
		Tick:      7,
		Ball:      session.BallState{Position: mgl64.Vec3{0, 0.5, 0}, Orientation: mgl64.QuatIdent(), VirtualRadius: 0.5, Mass: 3},
		HUD:       "Ball Size: 1.0m / 0.5m³",
		Remaining: 1,
	}
	return &fakeSession{
		snap: snap,
		scene: session.SceneView{
			Snapshot: snap,
			Uncollected: []session.UncollectedView{{
				Metadata: entity.NewBoxMetadata("crate", entity.Dimensions{Width: 0.3, Height: 0.3, Depth: 0.3}, mgl64.QuatIdent(), "#ff0000"),
				Pose:     entity.NewPose(mgl64.Vec3{1, 0.15, 0}, mgl64.QuatIdent()),
			}},
		},
	}
}

type testServer struct {
	session *fakeSession
	hub     *Hub
	server  *httptest.Server
}

func startServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{session: newFakeSession(), hub: NewHub(16, nil)}
	adapter := NewWSAdapter(ts.session, ts.hub, Config{WriteTimeout: time.Second}, nil)
	ts.server = httptest.NewServer(adapter.Handler())
	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("не удалось подключиться: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readTyped(t *testing.T, conn *websocket.Conn) interface{} {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ошибка чтения: %v", err)
	}
	msg, err := ParseMessage(data)
	if err != nil {
		t.Fatalf("ошибка разбора %s: %v", data, err)
	}
	return msg
}

// handshake читает приветствие и сцену
func handshake(t *testing.T, conn *websocket.Conn) *SceneMessage {
	t.Helper()
	if _, ok := readTyped(t, conn).(*InfoMessage); !ok {
		t.Fatal("первым должно прийти приветствие")
	}
	scene, ok := readTyped(t, conn).(*SceneMessage)
	if !ok {
		t.Fatal("вторым должна прийти сцена")
	}
	return scene
}

func eventually(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("не дождались: %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWSAdapter_SceneOnConnect(t *testing.T) {
	ts := startServer(t)
	conn := ts.dial(t)

	scene := handshake(t, conn)
	if len(scene.Objects) != 1 || scene.Objects[0].ID != "crate" {
		t.Fatalf("объекты %+v", scene.Objects)
	}
	obj := scene.Objects[0]
	if obj.Box == nil || obj.Box.Color != "#ff0000" || obj.Position.X != 1 {
		t.Errorf("объект %+v", obj)
	}
	if scene.State.Tick != 7 || scene.State.Ball.VirtualRadius != 0.5 {
		t.Errorf("состояние %+v", scene.State)
	}
	if len(scene.Records) != 0 {
		t.Errorf("записей быть не должно: %+v", scene.Records)
	}
}

func TestWSAdapter_InputAndPing(t *testing.T) {
	ts := startServer(t)
	conn := ts.dial(t)
	handshake(t, conn)

	if err := conn.WriteJSON(NewInputMessage(steering.Input{Forward: true})); err != nil {
		t.Fatal(err)
	}
	eventually(t, func() bool {
		in, n := ts.session.lastInput()
		return n > 0 && in.Forward
	}, "ввод дошел до сессии")

	if err := conn.WriteJSON(&PingMessage{Type: MessageTypePing, ClientTime: 12.5}); err != nil {
		t.Fatal(err)
	}
	pong, ok := readTyped(t, conn).(*PongMessage)
	if !ok || pong.ClientTime != 12.5 || pong.ServerTime == 0 {
		t.Errorf("pong %+v", pong)
	}
}

func TestWSAdapter_BroadcastsEvents(t *testing.T) {
	ts := startServer(t)
	conn := ts.dial(t)
	handshake(t, conn)

	rec := entity.AccretionRecord{
		ID:               "crate",
		Kind:             entity.KindBox,
		LocalPosition:    mgl64.Vec3{0.5, 0, 0},
		LocalOrientation: mgl64.QuatIdent(),
		Dimensions:       entity.Dimensions{Width: 0.3, Height: 0.3, Depth: 0.3},
		Binding:          entity.Binding{Mode: entity.BindingFused},
	}
	ts.hub.Collected(rec, entity.Ball{VirtualRadius: 0.5043, Mass: 3.078})

	acc, ok := readTyped(t, conn).(*AccretedMessage)
	if !ok {
		t.Fatal("ожидали accreted")
	}
	if acc.Record.ID != "crate" || acc.Record.Local.X != 0.5 || acc.HUD != "Ball Size: 1.0m / 0.5m³" {
		t.Errorf("accreted %+v", acc)
	}

	ts.hub.Rejected("wall", entity.Ball{VirtualRadius: 0.5043})
	if rej, ok := readTyped(t, conn).(*RejectedMessage); !ok || rej.ID != "wall" {
		t.Errorf("rejected %+v", rej)
	}

	ts.hub.BroadcastState(ts.session.Snapshot())
	if st, ok := readTyped(t, conn).(*StateMessage); !ok || st.Tick != 7 {
		t.Errorf("state %+v", st)
	}
}

func TestWSAdapter_DisconnectReleasesInput(t *testing.T) {
	ts := startServer(t)
	conn := ts.dial(t)
	handshake(t, conn)

	if ts.hub.Len() != 1 {
		t.Fatalf("клиентов %d", ts.hub.Len())
	}
	if err := conn.WriteJSON(NewInputMessage(steering.Input{Forward: true})); err != nil {
		t.Fatal(err)
	}
	eventually(t, func() bool { _, n := ts.session.lastInput(); return n == 1 }, "ввод")

	conn.Close()
	eventually(t, func() bool { return ts.hub.Len() == 0 }, "клиент удален из хаба")
	eventually(t, func() bool {
		in, n := ts.session.lastInput()
		return n == 2 && in.Idle()
	}, "ввод сброшен")
}

func TestWSAdapter_StateEndpoint(t *testing.T) {
	ts := startServer(t)

	resp, err := http.Get(ts.server.URL + "/api/state")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var st StateMessage
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.Type != MessageTypeState || st.HUD != "Ball Size: 1.0m / 0.5m³" {
		t.Errorf("состояние %+v", st)
	}
}

func TestHub_DropsWhenQueueFull(t *testing.T) {
	h := NewHub(1, nil)
	c := h.register(nil)

	h.Rejected("a", entity.Ball{})
	h.Rejected("b", entity.Ball{})

	if h.Dropped() != 1 {
		t.Errorf("потеряно %d, ожидали 1", h.Dropped())
	}
	h.unregister(c)
	h.unregister(c)
	if h.Len() != 0 {
		t.Error("повторная отписка должна быть безопасной")
	}
}
