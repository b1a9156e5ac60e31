package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/lightnav/pkg/fixes"
	"github.com/teslashibe/lightnav/pkg/history"
	"github.com/teslashibe/lightnav/pkg/hub"
	"github.com/teslashibe/lightnav/pkg/sensor"
)

// BestResponse is the reduction of one channel's history.
type BestResponse struct {
	Channel int            `json:"channel"`
	Found   []history.Best `json:"found"`
	Missing []string       `json:"missing"`
}

var errNoRun = fiber.NewError(fiber.StatusServiceUnavailable, "no run attached")

// handleStatus returns the run's phase and believed aim
func (s *Server) handleStatus(c *fiber.Ctx) error {
	src := s.currentSource()
	if src == nil {
		return errNoRun
	}
	return c.JSON(src.Status())
}

// handleFixes returns every published fix, from the store when one is
// configured so results of earlier runs are included
func (s *Server) handleFixes(c *fiber.Ctx) error {
	if s.store != nil {
		list, err := s.store.List(c.UserContext())
		if err != nil {
			s.logger.Error("failed to list fixes", "error", err)
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return c.JSON(list)
	}

	src := s.currentSource()
	if src == nil {
		return errNoRun
	}
	list := src.Fixes()
	fixes.Sort(list)
	return c.JSON(list)
}

// handleHistory returns the observation log in sensor_history.json form
func (s *Server) handleHistory(c *fiber.Ctx) error {
	src := s.currentSource()
	if src == nil {
		return errNoRun
	}
	return c.JSON(src.History())
}

// handleBest reduces one channel's history without waiting for the scan
func (s *Server) handleBest(c *fiber.Ctx) error {
	src := s.currentSource()
	if src == nil {
		return errNoRun
	}
	ch, err := c.ParamsInt("ch")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid channel")
	}

	found, missing := src.History().Best(ch)
	return c.JSON(BestResponse{Channel: ch, Found: found, Missing: missing})
}

// handleRows returns the raster progress of the current run
func (s *Server) handleRows(c *fiber.Ctx) error {
	s.rowsMu.RLock()
	defer s.rowsMu.RUnlock()
	return c.JSON(s.rows)
}

// handleSensors returns the latest readings, with GUI positions when known
func (s *Server) handleSensors(c *fiber.Ctx) error {
	if s.feed == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "no sensor feed")
	}
	snap := s.feed.Snapshot()
	if s.gui == nil {
		return c.JSON(snap)
	}
	return c.JSON(sensor.Enrich(snap, s.gui.SensorPositions()))
}

// handleRun starts a new run
func (s *Server) handleRun(c *fiber.Ctx) error {
	if s.OnRun == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "run trigger not configured")
	}
	if err := s.OnRun(); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "started",
	})
}

// handleStatusWS streams status and row events, starting with the current
// status
func (s *Server) handleStatusWS(conn *websocket.Conn) {
	var initial []hub.Message
	if src := s.currentSource(); src != nil {
		if msg, err := hub.EncodeEvent(EventStatus, src.Status()); err == nil {
			initial = append(initial, msg)
		}
	}
	hub.NewClient(s.statusHub, conn, initial...).Run()
}
