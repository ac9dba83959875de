package handlers

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"solbol.backend/internal/domain/entities"
	domainerrors "solbol.backend/internal/domain/errors"
	"solbol.backend/internal/infrastructure/realtime"
	"solbol.backend/internal/interfaces/http/middleware"
	"solbol.backend/internal/interfaces/http/response"
)

// SSE event names
const (
	eventReady  = "ready"
	eventChange = "change"
	eventPing   = "ping"
	eventResync = "resync"
)

var streamTables = map[string]bool{
	entities.TableOrders:        true,
	entities.TableNotifications: true,
	entities.TableExchangeRates: true,
	entities.TableUsers:         true,
	entities.TableKYCDocuments:  true,
}

// ChangeFeed hands out filtered subscriptions to committed row changes
type ChangeFeed interface {
	Subscribe(viewer realtime.Viewer, tables ...string) *realtime.Subscription
	Unsubscribe(s *realtime.Subscription)
}

// RealtimeHandler streams change events over server-sent events
type RealtimeHandler struct {
	feed      ChangeFeed
	heartbeat time.Duration
}

// NewRealtimeHandler creates a new realtime handler
func NewRealtimeHandler(feed ChangeFeed, heartbeat time.Duration) *RealtimeHandler {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &RealtimeHandler{feed: feed, heartbeat: heartbeat}
}

// Stream sends "change" events the caller may see, "ping" heartbeats, and
// a final "resync" when the subscription was dropped, after which the
// client must reload and reconnect.
// GET /api/realtime/stream?tables=orders,notifications
func (h *RealtimeHandler) Stream(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errUnauthenticated)
		return
	}

	tables, err := parseTables(c.Query("tables"))
	if err != nil {
		response.Error(c, err)
		return
	}

	sub := h.feed.Subscribe(realtime.Viewer{UserID: user.ID, IsAdmin: user.IsAdmin()}, tables...)
	defer h.feed.Unsubscribe(sub)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.SSEvent(eventReady, gin.H{"tables": tables})
	c.Writer.Flush()
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, open := <-sub.C:
			if !open {
				if sub.Dropped() {
					c.SSEvent(eventResync, gin.H{"reason": "subscriber fell behind"})
				}
				return false
			}
			c.SSEvent(eventChange, ev)
			return true
		case t := <-ticker.C:
			c.SSEvent(eventPing, gin.H{"time": t.UTC()})
			return true
		}
	})
}

func parseTables(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var tables []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if !streamTables[t] {
			return nil, domainerrors.BadRequest("unknown table: " + t)
		}
		tables = append(tables, t)
	}
	return tables, nil
}
