package handlers

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"solbol.backend/internal/domain/entities"
	"solbol.backend/internal/infrastructure/realtime"
)

type sseEvent struct {
	name string
	data string
}

// readEvents parses the stream into events until it ends or ctx expires.
func readEvents(ctx context.Context, t *testing.T, url string) <-chan sseEvent {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	out := make(chan sseEvent, 16)
	go func() {
		defer close(out)
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		var cur sseEvent
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event:"):
				cur.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				cur.data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			case line == "" && cur.name != "":
				select {
				case out <- cur:
				case <-ctx.Done():
					return
				}
				cur = sseEvent{}
			}
		}
	}()
	return out
}

func nextEvent(t *testing.T, events <-chan sseEvent, name string) sseEvent {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "stream closed before %q", name)
			if ev.name == name {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %q event", name)
		}
	}
}

func waitForSubscribers(t *testing.T, hub *realtime.Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Len() == n }, 2*time.Second, 10*time.Millisecond)
}

func streamServer(hub *realtime.Hub, user *entities.User, heartbeat time.Duration) *httptest.Server {
	r := newTestRouter(user)
	r.GET("/stream", NewRealtimeHandler(hub, heartbeat).Stream)
	return httptest.NewServer(r)
}

func TestRealtimeHandler_DeliversVisibleChanges(t *testing.T) {
	hub := realtime.NewHub(realtime.NewMemoryBus())
	user := clientUser()
	srv := streamServer(hub, user, time.Hour)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := readEvents(ctx, t, srv.URL+"/stream?tables=orders,notifications")
	nextEvent(t, events, "ready")
	waitForSubscribers(t, hub, 1)

	other := uuid.New()
	foreign, err := entities.NewChangeEvent(entities.TableOrders, entities.ChangeInsert, uuid.NewString(), &other, row{"status": "pending"}, nil)
	require.NoError(t, err)
	rate, err := entities.NewChangeEvent(entities.TableExchangeRates, entities.ChangeInsert, uuid.NewString(), nil, row{"is_active": true}, nil)
	require.NoError(t, err)
	mineID := uuid.NewString()
	mine, err := entities.NewChangeEvent(entities.TableOrders, entities.ChangeUpdate, mineID, &user.ID, row{"status": "confirmed"}, row{"status": "payment_uploaded"})
	require.NoError(t, err)

	hub.Dispatch(foreign)
	hub.Dispatch(rate)
	hub.Dispatch(mine)

	ev := nextEvent(t, events, "change")
	assert.Contains(t, ev.data, mineID)
	assert.Contains(t, ev.data, `"type":"UPDATE"`)

	cancel()
	waitForSubscribers(t, hub, 0)
}

func TestRealtimeHandler_Heartbeat(t *testing.T) {
	hub := realtime.NewHub(realtime.NewMemoryBus())
	srv := streamServer(hub, clientUser(), 20*time.Millisecond)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := readEvents(ctx, t, srv.URL+"/stream")
	nextEvent(t, events, "ready")
	nextEvent(t, events, "ping")
}

func TestRealtimeHandler_ResyncWhenDropped(t *testing.T) {
	hub := realtime.NewHub(realtime.NewMemoryBus(), realtime.WithBuffer(1))
	admin := adminUser()
	srv := streamServer(hub, admin, time.Hour)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := readEvents(ctx, t, srv.URL+"/stream?tables=orders")
	nextEvent(t, events, "ready")
	waitForSubscribers(t, hub, 1)

	for i := 0; i < 1000 && hub.Len() > 0; i++ {
		ev, err := entities.NewChangeEvent(entities.TableOrders, entities.ChangeInsert, uuid.NewString(), nil, row{"n": i}, nil)
		require.NoError(t, err)
		hub.Dispatch(ev)
	}
	require.Equal(t, 0, hub.Len(), "a subscriber that cannot keep up is dropped")

	nextEvent(t, events, "resync")
}

func TestRealtimeHandler_RejectsUnknownTables(t *testing.T) {
	hub := realtime.NewHub(realtime.NewMemoryBus())
	r := newTestRouter(clientUser())
	r.GET("/stream", NewRealtimeHandler(hub, time.Hour).Stream)

	w := doJSON(r, http.MethodGet, "/stream?tables=orders,secrets", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, hub.Len())
}

type row = map[string]interface{}
