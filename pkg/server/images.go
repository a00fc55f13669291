package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/webp"
	"github.com/labstack/echo/v4"

	"buddy/pkg/assets"
	"buddy/pkg/catalog"
)

// encodeWebP re-encodes fetched image bytes as a high-quality WebP.
func encodeWebP(data []byte) ([]byte, error) {
	img, err := assets.Decode(data)
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, webp.Options{Lossless: false, Quality: 100}); err != nil {
		return nil, fmt.Errorf("failed to encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

// transcodeWebP is the work function of WebPFlight. Keys are "folder/part".
func (s *Server) transcodeWebP(_ context.Context, key string) ([]byte, error) {
	folder, part, ok := strings.Cut(key, "/")
	if !ok {
		return nil, fmt.Errorf("bad key %q", key)
	}
	snap := s.Loader.Snapshot()
	if snap.Character.FolderName != folder {
		return nil, errNoCharacter
	}
	data, ok := s.Loader.Cache().Get(part)
	if !ok {
		return nil, fmt.Errorf("asset %s not cached", part)
	}
	log.Infof("Transcoding %s/%s to webp", folder, part)
	return encodeWebP(data)
}

// GET /api/assets/:part?format=webp
func (s *Server) handleGetAsset(c echo.Context) error {
	part := c.Param("part")
	if !catalog.IsBodyPart(part) {
		return echo.NewHTTPError(http.StatusNotFound, "unknown body part")
	}

	cache := s.Loader.Cache()
	if cache == nil {
		return echo.NewHTTPError(http.StatusConflict, errNoCharacter.Error())
	}
	data, ok := cache.Get(part)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "asset failed to load")
	}

	if c.QueryParam("format") == "webp" {
		folder := s.Loader.Snapshot().Character.FolderName
		out, err := s.WebPFlight.Get(c.Request().Context(), folder+"/"+part)
		if err != nil {
			if errors.Is(err, errNoCharacter) {
				return echo.NewHTTPError(http.StatusConflict, err.Error())
			}
			log.Errorf("webp transcoding failed: %v", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "transcoding failed: "+err.Error())
		}
		return c.Blob(http.StatusOK, "image/webp", out)
	}

	return c.Blob(http.StatusOK, http.DetectContentType(data), data)
}

// GET /api/assets/:part/url
func (s *Server) handleGetAssetURL(c echo.Context) error {
	part := c.Param("part")
	if !catalog.IsBodyPart(part) {
		return echo.NewHTTPError(http.StatusNotFound, "unknown body part")
	}
	character := s.Loader.Snapshot().Character
	if character.FolderName == "" {
		character = catalog.DefaultCharacter()
	}
	if id := c.QueryParam("character"); id != "" {
		var err error
		if character, err = catalog.Character(id); err != nil {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
	}
	return c.JSON(http.StatusOK, map[string]string{
		"part":      part,
		"character": character.ID,
		"url":       s.Fetcher.URL(character.FolderName, part, s.Config.ResolutionValue()),
	})
}
