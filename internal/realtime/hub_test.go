package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubOrderingAndReconnect(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	channel := UserChannel("user_a")

	clientA := hub.NewSSEClient("user_a")
	hub.AddChannel(clientA, channel)

	hub.Broadcast(NewChatMessage("user_a", SSEEventChatSaved, ChatEvent{URLID: "u1"}))
	hub.Broadcast(NewChatMessage("user_a", SSEEventChatDeleted, ChatEvent{ChatID: "c1"}))

	first := recvMessage(t, clientA.Outbound, time.Second)
	second := recvMessage(t, clientA.Outbound, time.Second)
	if first.Event != SSEEventChatSaved || first.Data.URLID != "u1" {
		t.Fatalf("first event: want=%s got=%s", SSEEventChatSaved, first.Event)
	}
	if second.Event != SSEEventChatDeleted {
		t.Fatalf("second event: want=%s got=%s", SSEEventChatDeleted, second.Event)
	}

	hub.CloseClient(clientA)
	hub.CloseClient(clientA)
	if _, ok := <-clientA.Outbound; ok {
		t.Fatalf("clientA outbound should be closed after disconnect")
	}
	if n := hub.Subscribers(channel); n != 0 {
		t.Fatalf("subscribers after close: want=0 got=%d", n)
	}

	clientB := hub.NewSSEClient("user_a")
	hub.AddChannel(clientB, channel)
	hub.Broadcast(NewChatMessage("user_a", SSEEventChatCreated, ChatEvent{URLID: "u2"}))
	if got := recvMessage(t, clientB.Outbound, time.Second); got.Event != SSEEventChatCreated {
		t.Fatalf("reconnect event: want=%s got=%s", SSEEventChatCreated, got.Event)
	}
}

func TestSSEHubIsolatesUsers(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	a := hub.NewSSEClient("user_a")
	b := hub.NewSSEClient("user_b")
	hub.AddChannel(a, UserChannel("user_a"))
	hub.AddChannel(b, UserChannel("user_b"))

	hub.Broadcast(NewChatMessage("user_b", SSEEventChatSaved, ChatEvent{URLID: "secret"}))
	recvMessage(t, b.Outbound, time.Second)
	select {
	case msg := <-a.Outbound:
		t.Fatalf("user_a received user_b's event: %+v", msg)
	default:
	}
}

func TestSSEHubDropsWhenBufferFull(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	slow := hub.NewSSEClient("user_a")
	hub.AddChannel(slow, UserChannel("user_a"))

	for i := 0; i < outboundBuffer+5; i++ {
		hub.Broadcast(NewChatMessage("user_a", SSEEventChatSaved, ChatEvent{}))
	}
	if got := len(slow.Outbound); got != outboundBuffer {
		t.Fatalf("buffered: want=%d got=%d", outboundBuffer, got)
	}
}

func TestSSEHubServeHTTPStreamsEvents(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	hub.SetHeartbeat(time.Hour)
	client := hub.NewSSEClient("user_a")
	hub.AddChannel(client, UserChannel("user_a"))

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/chat-history/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		hub.ServeHTTP(rec, req, client)
		close(done)
	}()

	hub.Broadcast(NewChatMessage("user_a", SSEEventChatUpdated, ChatEvent{URLID: "u1", Description: "Renamed"}))
	deadline := time.After(time.Second)
	for len(client.Outbound) > 0 {
		select {
		case <-deadline:
			t.Fatalf("message never drained")
		case <-time.After(5 * time.Millisecond):
		}
	}
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type: got=%q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "event: ChatUpdated\n") || !strings.Contains(body, `"description":"Renamed"`) {
		t.Fatalf("stream body: got=%q", body)
	}
}
