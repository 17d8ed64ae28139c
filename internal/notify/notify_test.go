package notify

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func receive(t *testing.T, sub *Subscriber) Event {
	t.Helper()
	select {
	case ev := <-sub.Events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHub_PublishIsKeyedBySlug(t *testing.T) {
	hub := NewHub(testLogger())

	a, err := hub.Subscribe("alpha")
	require.NoError(t, err)
	b, err := hub.Subscribe("beta")
	require.NoError(t, err)

	hub.Publish(context.Background(), GenerationStarted("alpha", "task-1", "slide-1"))

	ev := receive(t, a)
	assert.Equal(t, EventGenerationStarted, ev.Type)
	assert.Equal(t, TaskData{TaskID: "task-1", SID: "slide-1"}, ev.Data)

	select {
	case ev := <-b.Events:
		t.Fatalf("beta got %s", ev.Type)
	default:
	}

	assert.Equal(t, 1, hub.ListenerCount("alpha"))
	hub.Unsubscribe(a)
	hub.Unsubscribe(a)
	assert.Equal(t, 0, hub.ListenerCount("alpha"))
}

func TestHub_SlowListenerDropsEvents(t *testing.T) {
	hub := NewHub(testLogger())
	sub, err := hub.Subscribe("alpha")
	require.NoError(t, err)

	for i := 0; i < subscriberBuffer+10; i++ {
		hub.Deliver(ImageDeleted("alpha", "slide-1", "h"))
	}
	assert.Len(t, sub.Events, subscriberBuffer)
}

func TestHub_TaskRegistry(t *testing.T) {
	hub := NewHub(testLogger())

	hub.AddTask("alpha", "slide-2", "t2")
	hub.AddTask("alpha", "slide-1", "t1")
	assert.Equal(t, []string{"slide-1", "slide-2"}, hub.GeneratingSIDs("alpha"))
	assert.Empty(t, hub.GeneratingSIDs("beta"))

	sub, err := hub.Subscribe("alpha")
	require.NoError(t, err)
	ev := receive(t, sub)
	assert.Equal(t, EventSyncGenerating, ev.Type)
	assert.Equal(t, SyncData{SIDs: []string{"slide-1", "slide-2"}}, ev.Data)

	// A stale task id does not clear a newer task for the same slide.
	hub.AddTask("alpha", "slide-1", "t3")
	hub.RemoveTask("alpha", "slide-1", "t1")
	assert.Equal(t, []string{"slide-1", "slide-2"}, hub.GeneratingSIDs("alpha"))

	hub.RemoveTask("alpha", "slide-1", "t3")
	hub.RemoveTask("alpha", "slide-2", "t2")
	assert.Empty(t, hub.GeneratingSIDs("alpha"))

	quiet, err := hub.Subscribe("alpha")
	require.NoError(t, err)
	assert.Empty(t, quiet.Events)
}

func TestHub_Shutdown(t *testing.T) {
	hub := NewHub(testLogger())
	sub, err := hub.Subscribe("alpha")
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))

	_, ok := <-sub.Done
	assert.False(t, ok)
	hub.Unsubscribe(sub)
	hub.Publish(context.Background(), Pong())

	_, err = hub.Subscribe("alpha")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestEvent_WireFormat(t *testing.T) {
	data, err := json.Marshal(GenerationCompleted("alpha", "t1", "slide-1", ImageRef{Hash: "h", URL: "/u", ThumbnailURL: "/t"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"generation_completed","data":{"task_id":"t1","sid":"slide-1","image":{"hash":"h","url":"/u","thumbnail_url":"/t"}}}`, string(data))

	data, err = json.Marshal(Pong())
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"pong"}`, string(data))
}

func TestRedisBridge(t *testing.T) {
	mr := miniredis.RunT(t)

	hubA := NewHub(testLogger())
	hubB := NewHub(testLogger())

	bridgeA, err := NewRedisBridge("redis://"+mr.Addr(), hubA, testLogger())
	require.NoError(t, err)
	bridgeB, err := NewRedisBridge("redis://"+mr.Addr(), hubB, testLogger())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, bridgeA.Start(ctx))
	require.NoError(t, bridgeB.Start(ctx))
	t.Cleanup(func() {
		_ = bridgeA.Shutdown(ctx)
		_ = bridgeB.Shutdown(ctx)
	})
	hubA.SetRelay(bridgeA)
	hubB.SetRelay(bridgeB)

	subA, err := hubA.Subscribe("alpha")
	require.NoError(t, err)
	subB, err := hubB.Subscribe("alpha")
	require.NoError(t, err)

	hubA.Publish(ctx, ImageDeleted("alpha", "slide-1", "abc"))

	local := receive(t, subA)
	assert.Equal(t, EventImageDeleted, local.Type)

	remote := receive(t, subB)
	assert.Equal(t, EventImageDeleted, remote.Type)
	assert.Equal(t, "alpha", remote.Slug)
	raw, err := json.Marshal(remote)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"image_deleted","data":{"sid":"slide-1","hash":"abc"}}`, string(raw))

	// The publisher does not receive its own event a second time.
	select {
	case ev := <-subA.Events:
		t.Fatalf("unexpected echo %s", ev.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNewRedisBridge_BadURL(t *testing.T) {
	_, err := NewRedisBridge("not-a-url", NewHub(testLogger()), testLogger())
	assert.Error(t, err)
}

func TestSSEHandler(t *testing.T) {
	hub := NewHub(testLogger())
	hub.AddTask("alpha", "slide-1", "t1")
	h := NewSSEHandler(hub, testLogger())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Serve(w, r, "alpha")
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		var name, data string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event: "):
				name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			case line == "":
				return name, data
			}
		}
	}

	name, data := readEvent()
	assert.Equal(t, "sync_generating_tasks", name)
	assert.JSONEq(t, `{"type":"sync_generating_tasks","data":{"sids":["slide-1"]}}`, data)

	hub.Publish(ctx, GenerationFailed("alpha", "t1", "slide-1", "boom"))
	name, data = readEvent()
	assert.Equal(t, "generation_failed", name)
	assert.JSONEq(t, `{"type":"generation_failed","data":{"task_id":"t1","sid":"slide-1","error":"boom"}}`, data)
}

func TestWebSocketHandler(t *testing.T) {
	hub := NewHub(testLogger())
	h := NewWebSocketHandler(hub, testLogger())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Serve(w, r, "alpha")
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/slides/alpha"
	conn, err := websocket.Dial(wsURL, "", srv.URL)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	require.NoError(t, websocket.JSON.Send(conn, map[string]string{"type": "ping"}))
	var msg map[string]any
	require.NoError(t, websocket.JSON.Receive(conn, &msg))
	assert.Equal(t, "pong", msg["type"])

	require.Eventually(t, func() bool { return hub.ListenerCount("alpha") == 1 }, 2*time.Second, 10*time.Millisecond)
	hub.Publish(context.Background(), GenerationStarted("alpha", "t9", "slide-3"))

	msg = nil
	require.NoError(t, websocket.JSON.Receive(conn, &msg))
	assert.Equal(t, "generation_started", msg["type"])
	assert.Equal(t, map[string]any{"task_id": "t9", "sid": "slide-3"}, msg["data"])
}
