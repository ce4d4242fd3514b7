package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/smagents/landing/internal/conversation"
)

func dialChat(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat?session_id=" + testSession
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) serverFrame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	var frame serverFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("decode frame %q: %v", data, err)
	}
	return frame
}

func sendFrame(t *testing.T, conn *websocket.Conn, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
}

func newSocketServer(t *testing.T, f *fixture, sm *SessionManager) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle("/ws/chat", withTestIdentity(NewWebSocketHandler(f.svc, sm, nil, "*", true)))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestWebSocketConversation(t *testing.T) {
	f := newFixture(t, &fakeSubmitter{})
	srv := newSocketServer(t, f, NewSessionManager())
	conn := dialChat(t, srv)

	initial := readFrame(t, conn)
	if initial.Type != frameState || initial.State == nil || initial.State.StepIndex != 0 {
		t.Fatalf("expected initial state frame, got %+v", initial)
	}

	var last serverFrame
	for _, a := range olenaAnswers {
		sendFrame(t, conn, clientFrame{Type: frameAnswer, Text: a})
		last = readFrame(t, conn)
		if last.Type != frameState || !last.Accepted {
			t.Fatalf("expected accepted state frame, got %+v", last)
		}
	}
	if last.State.Phase != conversation.PhaseComplete {
		t.Fatalf("expected completion, got %s", last.State.Phase)
	}
	if len(f.sub.calls()) != 1 {
		t.Fatalf("expected one submission, got %d", len(f.sub.calls()))
	}

	sendFrame(t, conn, clientFrame{Type: frameAnswer, Text: "late"})
	if frame := readFrame(t, conn); frame.Accepted {
		t.Fatalf("expected late input to be ignored, got %+v", frame)
	}
}

func TestWebSocketPingAndErrors(t *testing.T) {
	f := newFixture(t, &fakeSubmitter{})
	srv := newSocketServer(t, f, NewSessionManager())
	conn := dialChat(t, srv)
	readFrame(t, conn)

	sendFrame(t, conn, clientFrame{Type: framePing})
	if frame := readFrame(t, conn); frame.Type != framePong {
		t.Fatalf("expected pong, got %+v", frame)
	}

	sendFrame(t, conn, clientFrame{Type: "dance"})
	if frame := readFrame(t, conn); frame.Type != frameError || frame.Error != "unknown_message_type" {
		t.Fatalf("expected unknown type error, got %+v", frame)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, []byte("{broken")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if frame := readFrame(t, conn); frame.Type != frameError || frame.Error != "invalid_message" {
		t.Fatalf("expected invalid message error, got %+v", frame)
	}
}

func TestWebSocketNewerSocketReplacesOlder(t *testing.T) {
	f := newFixture(t, &fakeSubmitter{})
	sm := NewSessionManager()
	srv := newSocketServer(t, f, sm)

	first := dialChat(t, srv)
	readFrame(t, first)
	second := dialChat(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, _, err := first.Read(ctx); err == nil {
		t.Fatal("expected the older socket to be closed")
	}
	readFrame(t, second)

	sendFrame(t, second, clientFrame{Type: framePing})
	if frame := readFrame(t, second); frame.Type != framePong {
		t.Fatalf("expected newer socket to stay usable, got %+v", frame)
	}
}

func TestSessionManagerPushesHTTPChanges(t *testing.T) {
	f := newFixture(t, &fakeSubmitter{})
	sm := NewSessionManager()
	srv := newSocketServer(t, f, sm)
	conn := dialChat(t, srv)
	readFrame(t, conn)

	h := NewHandler(f.svc, nil)
	h.SetNotifier(sm)
	router := newTestRouter(h)
	doJSON(t, router, http.MethodPost, "/api/chat/messages", messageBody("Olena"))

	frame := readFrame(t, conn)
	if frame.Type != frameState || frame.State == nil || frame.State.StepIndex != 1 {
		t.Fatalf("expected pushed state at step 1, got %+v", frame)
	}
}
