package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"buddy/pkg/catalog"
	"buddy/pkg/events"
	"buddy/pkg/schema"
	"buddy/pkg/utils"
)

type eventsResponse struct {
	Events     []schema.EventMapping                         `json:"events"`
	Quick      any                                           `json:"quick"`
	Categories map[schema.EventCategory]schema.CategoryConfig `json:"categories"`
}

// GET /api/events
func (s *Server) handleGetEvents(c echo.Context) error {
	resp := eventsResponse{
		Quick:      catalog.QuickEvents,
		Categories: catalog.Categories,
	}
	for _, id := range utils.SortedKeys(catalog.EventMappings) {
		resp.Events = append(resp.Events, catalog.EventMappings[id])
	}
	if cat := c.QueryParam("category"); cat != "" {
		resp.Events = catalog.EventsByCategory(schema.EventCategory(cat))
	}
	return c.JSON(http.StatusOK, resp)
}

type logEntryView struct {
	schema.EventLogEntry
	Action string `json:"action"`
}

func viewEntry(e schema.EventLogEntry) logEntryView {
	return logEntryView{EventLogEntry: e, Action: events.FormatAction(e)}
}

// POST /api/events/:id
func (s *Server) handlePostEvent(c echo.Context) error {
	entry, ok := s.Events.Fire(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, utils.ErrJSON("unknown event"))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"entry": viewEntry(entry),
		"ready": s.Loader.Ready(),
	})
}

// GET /api/events/log
func (s *Server) handleGetEventLog(c echo.Context) error {
	entries := s.Events.Log()
	out := make([]logEntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, viewEntry(e))
	}
	return c.JSON(http.StatusOK, out)
}

// GET /api/events/stream
func (s *Server) handleGetEventStream(c echo.Context) error {
	sse, err := utils.NewSSEWriter(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer sse.Close()

	ch, cancel := s.Events.Subscribe(16)
	defer cancel()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.Ctx.Done():
			return nil
		case entry, ok := <-ch:
			if !ok {
				return nil
			}
			if err := sse.Event("buddy-event", viewEntry(entry)); err != nil {
				log.Warn("event stream write failed", "error", err)
				return nil
			}
		}
	}
}

type excitementReq struct {
	Level float64 `json:"level"`
}

// POST /api/excitement
func (s *Server) handlePostExcitement(c echo.Context) error {
	var req excitementReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	level := s.Events.SetExcitement(req.Level)
	return c.JSON(http.StatusOK, map[string]any{
		catalog.InputExcitementLevel: level,
	})
}

// GET /api/timer
func (s *Server) handleGetTimer(c echo.Context) error {
	return c.JSON(http.StatusOK, s.timerView())
}

func (s *Server) handlePostTimerStart(c echo.Context) error {
	s.Timer.Start()
	return c.JSON(http.StatusOK, s.timerView())
}

func (s *Server) handlePostTimerPause(c echo.Context) error {
	s.Timer.Pause()
	return c.JSON(http.StatusOK, s.timerView())
}

func (s *Server) handlePostTimerReset(c echo.Context) error {
	s.Timer.Reset()
	return c.JSON(http.StatusOK, s.timerView())
}

func (s *Server) timerView() map[string]any {
	values := s.Events.Values()
	return map[string]any{
		"timer":               s.Timer.Snapshot(),
		catalog.InputIsReading: values[catalog.InputIsReading],
	}
}
