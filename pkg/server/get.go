package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"buddy/pkg/buddy"
	"buddy/pkg/catalog"
	"buddy/pkg/engine"
	"buddy/pkg/schema"
)

func (s *Server) handleGetRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"service": "Buddy Test Harness",
		"status":  "ok",
		"cdn":     s.Fetcher.BaseURL + "/" + s.Fetcher.Subfolder,
		"loader":  s.Loader.Snapshot().Status,
		"reading": s.Timer.Running(),
	})
}

// GET /api/characters
func (s *Server) handleGetCharacters(c echo.Context) error {
	preloaded := []string{}
	for _, ch := range catalog.Characters {
		if _, ok := s.Preloads.Peek(ch.FolderName); ok {
			preloaded = append(preloaded, ch.ID)
		}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"characters": catalog.Characters,
		"selected":   s.Loader.Snapshot().Character,
		"preloaded":  preloaded,
	})
}

// POST /api/characters/:id?wait=true&force=true
func (s *Server) handlePostCharacter(c echo.Context) error {
	character, err := catalog.Character(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}

	force, _ := strconv.ParseBool(c.QueryParam("force"))
	wait, _ := strconv.ParseBool(c.QueryParam("wait"))
	if !wait {
		go func() {
			if err := s.selectCharacter(s.Ctx, character, force); err != nil {
				log.Error("character selection failed", "character", character.ID, "error", err)
			}
		}()
		return c.JSON(http.StatusAccepted, map[string]any{
			"success":   true,
			"character": character,
		})
	}

	if err := s.selectCharacter(c.Request().Context(), character, force); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "load failed: "+err.Error())
	}
	return c.JSON(http.StatusOK, s.buddyView())
}

// selectCharacter mounts character. With force, its body parts are fetched
// again even if a preload is cached, and stale webp transcodes are dropped.
func (s *Server) selectCharacter(ctx context.Context, character schema.Character, force bool) error {
	if force {
		for _, part := range catalog.BodyParts {
			s.WebPFlight.Invalidate(character.FolderName + "/" + part)
		}
		if _, err := s.Preloads.Force(ctx, character.FolderName); err != nil {
			return fmt.Errorf("preload %s: %w", character.FolderName, err)
		}
	}
	return s.Loader.Select(ctx, character)
}

type buddyView struct {
	buddy.Snapshot
	Fired  []string       `json:"fired,omitempty"`
	Inputs map[string]any `json:"inputs,omitempty"`
}

func (s *Server) buddyView() buddyView {
	v := buddyView{Snapshot: s.Loader.Snapshot()}
	if sim, ok := s.Loader.Runtime().(*engine.Sim); ok {
		v.Fired = sim.Fired()
		v.Inputs = sim.Values()
	}
	return v
}

// GET /api/buddy
func (s *Server) handleGetBuddy(c echo.Context) error {
	return c.JSON(http.StatusOK, s.buddyView())
}

// POST /api/buddy/tap
// A tap on the buddy waves as a greeting.
func (s *Server) handlePostTap(c echo.Context) error {
	if b := s.Loader.Buddy(); b != nil {
		b.Wave()
	}
	return c.JSON(http.StatusOK, s.buddyView())
}

// POST /api/buddy/trigger/:name
// Firing before the buddy is ready is not an error; "ready" reports whether
// anything happened.
func (s *Server) handlePostTrigger(c echo.Context) error {
	ready := s.Loader.Ready()
	s.Loader.FireTrigger(c.Param("name"))
	return c.JSON(http.StatusOK, map[string]any{
		"ready": ready,
		"buddy": s.buddyView(),
	})
}

type inputReq struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// POST /api/buddy/input
func (s *Server) handlePostInput(c echo.Context) error {
	var req inputReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	switch req.Value.(type) {
	case bool, float64:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "value must be a boolean or a number")
	}

	if err := s.Loader.SetInput(req.Name, req.Value); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(http.StatusOK, s.buddyView())
}

// GET /api/schema/events
func (s *Server) handleGetEventSchema(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"mapping": schema.EventMappingSchema,
		"entry":   schema.EventLogEntrySchema,
	})
}

var errNoCharacter = errors.New("no character loaded")
