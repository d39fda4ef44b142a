package httpgin

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shotme/tonight/internal/service"
)

// Keeps proxies and mobile radios from silently dropping an idle stream.
const sseHeartbeat = 25 * time.Second

// @Summary  Live feed invalidation stream (SSE)
// @Description  Emits one "refresh" event on connect, then a "refresh" event
// @Description  whenever the event's feed changes. Events carry no payload;
// @Description  refetch the timeline and people endpoints on each one.
// @Param    id  path  int  true  "Event ID"
// @Produce  text/event-stream
// @Success  200  {string}  string  "event stream"
// @Router   /events/{id}/stream [get]
func handleStream(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if _, err := svcs.Query.GetEvent(c.Request.Context(), eventID); err != nil {
			respondErr(c, err)
			return
		}

		signals, cancel := svcs.Live.Subscribe(c.Request.Context(), eventID)
		defer cancel()

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)

		// The client may have missed signals while disconnected; the opening
		// refresh makes every (re)connect start from a fresh fetch.
		c.SSEvent("refresh", "connected")
		c.Writer.Flush()

		heartbeat := time.NewTicker(sseHeartbeat)
		defer heartbeat.Stop()

		c.Stream(func(w io.Writer) bool {
			select {
			case _, open := <-signals:
				if !open {
					return false
				}
				c.SSEvent("refresh", "changed")
				return true
			case <-heartbeat.C:
				_, _ = io.WriteString(w, ": keep-alive\n\n")
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}
