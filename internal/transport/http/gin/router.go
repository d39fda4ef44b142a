package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shotme/tonight/internal/domain"
	redisrepo "github.com/shotme/tonight/internal/repository/redis"
	"github.com/shotme/tonight/internal/service"
	"github.com/shotme/tonight/internal/service/presence"
	"github.com/shotme/tonight/internal/service/query"
	"github.com/shotme/tonight/internal/service/reaction"
	"github.com/shotme/tonight/internal/service/timeline"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterConfig struct {
	JWTSecret string
}

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	cfg RouterConfig,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	r.GET("/venues", handleListVenues(svcs))
	r.GET("/venues/:id", handleGetVenue(svcs))
	r.GET("/events", handleListEvents(svcs))
	r.GET("/events/:id", handleGetEvent(svcs))
	r.GET("/events/:id/menu", handleGetMenu(svcs))
	r.GET("/events/:id/timeline", handleGetTimeline(svcs))
	r.GET("/events/:id/people", handleGetPeople(svcs))
	r.GET("/events/:id/stream", handleStream(svcs))

	// Authenticated API
	authed := r.Group("/", AuthRequired(cfg.JWTSecret))
	{
		authed.GET("/tonight", handleTonight(svcs))
		authed.POST("/events/:id/checkins", handleCheckIn(svcs, idem))
		authed.POST("/timeline/:id/reactions", handleToggleReaction(svcs))
	}

	// Admin API
	admin := r.Group("/admin", AuthRequired(cfg.JWTSecret), AdminRequired())
	{
		admin.POST("/events/:id/timeline", handlePostEntry(svcs))
		admin.PATCH("/timeline/:id", handleEditEntry(svcs))
		admin.DELETE("/timeline/:id", handleDeleteEntry(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  List venues
// @Success  200  {array}  VenueResponse
// @Router   /venues [get]
func handleListVenues(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		venues, err := svcs.Query.ListVenues(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		out := make([]VenueResponse, 0, len(venues))
		for _, v := range venues {
			out = append(out, toVenueResponse(v))
		}
		writeJSONWithCache(c, http.StatusOK, out, "public, max-age=300", true)
	}
}

// @Summary  Get venue
// @Param    id  path  int  true  "Venue ID"
// @Success  200  {object}  VenueResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /venues/{id} [get]
func handleGetVenue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		v, err := svcs.Query.GetVenue(c.Request.Context(), venueID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, toVenueResponse(*v), "public, max-age=300", true)
	}
}

// @Summary  List upcoming events
// @Param    venue_id  query  int  false  "filter by venue"
// @Param    limit     query  int  false  "page size"
// @Param    offset    query  int  false  "offset"
// @Success  200  {array}  EventResponse
// @Router   /events [get]
func handleListEvents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID := int64(parseIntDefault(c.Query("venue_id"), 0))
		limit := parseIntDefault(c.Query("limit"), 0)
		offset := parseIntDefault(c.Query("offset"), 0)

		events, err := svcs.Query.ListUpcoming(c.Request.Context(), venueID, limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		out := make([]EventResponse, 0, len(events))
		for _, e := range events {
			out = append(out, toEventResponse(e))
		}
		writeJSONWithCache(c, http.StatusOK, out, "public, max-age=300", true)
	}
}

// @Summary  Get event
// @Param    id  path  int  true  "Event ID"
// @Success  200  {object}  EventResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /events/{id} [get]
func handleGetEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		e, err := svcs.Query.GetEvent(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, toEventResponse(*e), "public, max-age=60", true)
	}
}

// @Summary  Get event menu
// @Param    id  path  int  true  "Event ID"
// @Success  200  {array}  MenuItemResponse
// @Router   /events/{id}/menu [get]
func handleGetMenu(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		items, err := svcs.Query.Menu(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		out := make([]MenuItemResponse, 0, len(items))
		for _, m := range items {
			out = append(out, toMenuItemResponse(m))
		}
		writeJSONWithCache(c, http.StatusOK, out, "public, max-age=60", true)
	}
}

// @Summary  Get timeline feed
// @Description  Point-in-time snapshot, newest first. Pair with the SSE
// @Description  stream and refetch on every signal.
// @Param    id  path  int  true  "Event ID"
// @Success  200  {array}  FeedEntryResponse
// @Router   /events/{id}/timeline [get]
func handleGetTimeline(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		feed, err := svcs.Timeline.Feed(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		out := make([]FeedEntryResponse, 0, len(feed))
		for _, item := range feed {
			out = append(out, toFeedEntryResponse(item))
		}
		// Feed is nearly-live; clients should revalidate on every signal.
		writeJSONWithCache(c, http.StatusOK, out, "no-cache", true)
	}
}

// @Summary  List checked-in people
// @Param    id  path  int  true  "Event ID"
// @Success  200  {array}  PersonResponse
// @Router   /events/{id}/people [get]
func handleGetPeople(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		people, err := svcs.Presence.People(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		out := make([]PersonResponse, 0, len(people))
		for _, p := range people {
			out = append(out, toPersonResponse(p))
		}
		writeJSONWithCache(c, http.StatusOK, out, "no-cache", true)
	}
}

// @Summary  Tonight status
// @Description  The event whose check-in window contains now, if any, and
// @Description  whether the caller is checked into it.
// @Security BearerAuth
// @Success  200  {object}  TonightResponse
// @Router   /tonight [get]
func handleTonight(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := resolveCaller(c, svcs)
		if !ok {
			return
		}
		st, err := svcs.Presence.Status(c.Request.Context(), user.ID, time.Now().UTC())
		if err != nil {
			respondErr(c, err)
			return
		}
		resp := TonightResponse{CheckedIn: st.CheckedIn}
		if st.Event != nil {
			e := toEventResponse(*st.Event)
			resp.Event = &e
		}
		c.JSON(http.StatusOK, resp)
	}
}

// @Summary  Check in to an event (idempotent)
// @Security BearerAuth
// @Param    id  path  int  true  "Event ID"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} CheckInResponse
// @Success  200 {object} CheckInResponse "already checked in"
// @Failure  409 {object} ErrorResponse "outside window / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /events/{id}/checkins [post]
func handleCheckIn(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		user, ok := resolveCaller(c, svcs)
		if !ok {
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemCheckIn(eventID, idemKey)

			if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(payload))
				return
			}

			locked, err := idem.AcquireLock(c.Request.Context(), idemStorageKey, 60*time.Second)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(payload))
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		rlKey := "checkin:user:" + strconv.FormatInt(user.ID, 10)

		ci, created, err := svcs.Presence.CheckIn(
			c.Request.Context(),
			user.ID,
			eventID,
			time.Now().UTC(),
			rlKey,
		)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		resp := CheckInResponse{
			CheckInID:        ci.ID.String(),
			EventID:          ci.EventID,
			CheckedInAt:      ci.CheckedInAt,
			AlreadyCheckedIn: !created,
		}

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		status := http.StatusCreated
		if !created {
			status = http.StatusOK
		}
		c.JSON(status, resp)
	}
}

// @Summary  Toggle a reaction on a timeline entry
// @Description  Same symbol removes, different symbol replaces, none applies.
// @Security BearerAuth
// @Param    id   path  string  true  "Entry ID (uuid)"
// @Param    req  body  ToggleReactionRequest  true  "payload"
// @Success  200 {object} ToggleReactionResponse
// @Failure  400 {object} ErrorResponse "unknown symbol"
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "concurrent toggle"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /timeline/{id}/reactions [post]
func handleToggleReaction(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		entryID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		user, ok := resolveCaller(c, svcs)
		if !ok {
			return
		}
		var req ToggleReactionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		rlKey := "reaction:user:" + strconv.FormatInt(user.ID, 10)

		outcome, err := svcs.Reaction.Toggle(
			c.Request.Context(),
			user.ID,
			entryID,
			req.Symbol,
			rlKey,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ToggleReactionResponse{Outcome: string(outcome)})
	}
}

// @Summary  Post a timeline entry
// @Security BearerAuth
// @Param    id   path  int  true  "Event ID"
// @Param    req  body  PostEntryRequest  true  "payload"
// @Success  201 {object} PostEntryResponse
// @Router   /admin/events/{id}/timeline [post]
func handlePostEntry(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req PostEntryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		var scheduledFor *time.Time
		if req.ScheduledFor != "" {
			t, err := parseRFC3339(req.ScheduledFor)
			if err != nil {
				badRequest(c, "invalid scheduled_for (RFC3339)")
				return
			}
			scheduledFor = &t
		}

		entryID, err := svcs.Timeline.PostEntry(
			c.Request.Context(),
			eventID,
			domain.EntryKind(req.Kind),
			req.Description,
			scheduledFor,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, PostEntryResponse{EntryID: entryID.String()})
	}
}

// @Summary  Edit a timeline entry
// @Security BearerAuth
// @Param    id   path  string  true  "Entry ID (uuid)"
// @Param    req  body  EditEntryRequest  true  "payload"
// @Success  204 {string} string "no content"
// @Router   /admin/timeline/{id} [patch]
func handleEditEntry(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		entryID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req EditEntryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if req.Description == nil && req.ScheduledFor == nil {
			badRequest(c, "nothing to update")
			return
		}

		var scheduledFor *time.Time
		if req.ScheduledFor != nil {
			t, err := parseRFC3339(*req.ScheduledFor)
			if err != nil {
				badRequest(c, "invalid scheduled_for (RFC3339)")
				return
			}
			scheduledFor = &t
		}

		err := svcs.Timeline.EditEntry(c.Request.Context(), entryID, req.Description, scheduledFor)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Delete a timeline entry
// @Security BearerAuth
// @Param    id  path  string  true  "Entry ID (uuid)"
// @Success  204 {string} string "no content"
// @Router   /admin/timeline/{id} [delete]
func handleDeleteEntry(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		entryID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		if err := svcs.Timeline.DeleteEntry(c.Request.Context(), entryID); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// --- Helpers ---

// resolveCaller maps the token subject set by AuthRequired to the internal
// user row, creating one on first sight.
func resolveCaller(c *gin.Context, svcs *service.Services) (*domain.User, bool) {
	externalID := c.GetString(ctxExternalID)
	if externalID == "" {
		unauthorized(c, "missing bearer token")
		return nil, false
	}
	user, err := svcs.Query.ResolveUser(c.Request.Context(), externalID)
	if err != nil {
		respondErr(c, err)
		return nil, false
	}
	return user, true
}

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	v, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// query service
	case errors.Is(err, query.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
	case errors.Is(err, query.ErrVenueNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "venue not found"})
	// presence service
	case errors.Is(err, presence.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
	case errors.Is(err, presence.ErrOutsideWindow):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "outside check-in window"})
	case errors.Is(err, presence.ErrRateLimited):
		c.Header("Retry-After", "60")
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limited"})
	// timeline service
	case errors.Is(err, timeline.ErrEntryNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "entry not found"})
	case errors.Is(err, timeline.ErrBadKind):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unsupported entry kind"})
	// reaction service
	case errors.Is(err, reaction.ErrEntryNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "entry not found"})
	case errors.Is(err, reaction.ErrUnknownSymbol):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown reaction symbol"})
	case errors.Is(err, reaction.ErrToggleConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "reaction toggled concurrently, retry"})
	case errors.Is(err, reaction.ErrRateLimited):
		c.Header("Retry-After", "60")
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limited"})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
