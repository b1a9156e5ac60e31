// Package web provides the calibration dashboard API: run status, live raster
// progress, published fixes, the observation history and sensor readings.
package web

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/lightnav/internal/log"
	"github.com/teslashibe/lightnav/pkg/fixes"
	"github.com/teslashibe/lightnav/pkg/history"
	"github.com/teslashibe/lightnav/pkg/hub"
	"github.com/teslashibe/lightnav/pkg/navigator"
	"github.com/teslashibe/lightnav/pkg/sensor"
)

// maxRows bounds the raster progress buffer.
const maxRows = 500

// Event types sent on /ws/status.
const (
	EventStatus = "status"
	EventRow    = "row"
)

// Source is the run the dashboard reports on. *navigator.Navigator
// implements it.
type Source interface {
	Status() navigator.Status
	History() *history.History
	Fixes() []fixes.Fix
}

var _ Source = (*navigator.Navigator)(nil)

// Server is the dashboard server
type Server struct {
	app    *fiber.App
	addr   string
	logger *slog.Logger

	store fixes.Store
	feed  sensor.Feed
	gui   sensor.GUI

	source   Source
	sourceMu sync.RWMutex

	// Raster progress of the current run (last maxRows rows)
	rows   []navigator.RowEvent
	rowsMu sync.RWMutex

	statusHub *hub.Hub
	hubCtx    context.Context
	cancelHub context.CancelFunc

	// OnRun starts a new run when POST /api/run is called (optional).
	// It returns an error if a run is already in progress.
	OnRun func() error
}

// NewServer creates a dashboard listening on addr. store, feed and gui may
// be nil; the corresponding endpoints then fall back or report 503.
func NewServer(addr string, store fixes.Store, feed sensor.Feed, gui sensor.GUI, logger *slog.Logger) *Server {
	logger = log.OrDiscard(logger).With("component", "web")
	s := &Server{
		addr:      addr,
		logger:    logger,
		store:     store,
		feed:      feed,
		gui:       gui,
		rows:      make([]navigator.RowEvent, 0, maxRows),
		statusHub: hub.New("status", logger),
	}
	s.hubCtx, s.cancelHub = context.WithCancel(context.Background())

	app := fiber.New(fiber.Config{
		AppName:               "lightnav",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/fixes", s.handleFixes)
	api.Get("/history", s.handleHistory)
	api.Get("/history/:ch/best", s.handleBest)
	api.Get("/rows", s.handleRows)
	api.Get("/sensors", s.handleSensors)
	api.Post("/run", s.handleRun)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// App exposes the fiber app, e.g. for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Attach makes n the reported run and subscribes to its progress. Call it
// before n starts executing.
func (s *Server) Attach(n *navigator.Navigator) {
	s.sourceMu.Lock()
	s.source = n
	s.sourceMu.Unlock()

	s.rowsMu.Lock()
	s.rows = s.rows[:0]
	s.rowsMu.Unlock()

	n.OnStatus = s.UpdateStatus
	n.OnRow = s.AddRow
	s.UpdateStatus(n.Status())
}

// Start runs the status hub and serves until Shutdown.
func (s *Server) Start() error {
	go s.statusHub.Run(s.hubCtx)

	s.logger.Info("dashboard listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("web server error", "error", err)
		}
	}()
}

// UpdateStatus broadcasts a status snapshot to websocket clients.
func (s *Server) UpdateStatus(status navigator.Status) {
	if err := s.statusHub.BroadcastEvent(EventStatus, status); err != nil {
		s.logger.Error("failed to broadcast status", "error", err)
	}
}

// AddRow records a completed raster row and broadcasts it.
func (s *Server) AddRow(row navigator.RowEvent) {
	s.rowsMu.Lock()
	s.rows = append(s.rows, row)
	if len(s.rows) > maxRows {
		s.rows = s.rows[1:]
	}
	s.rowsMu.Unlock()

	if err := s.statusHub.BroadcastEvent(EventRow, row); err != nil {
		s.logger.Error("failed to broadcast row", "error", err)
	}
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	s.cancelHub()
	return s.app.Shutdown()
}

func (s *Server) currentSource() Source {
	s.sourceMu.RLock()
	defer s.sourceMu.RUnlock()
	return s.source
}
