// Package server exposes the drawing and routing workflow over HTTP: draw
// and erase against an in-memory session, confirm into a routing job, watch
// progress over a websocket, download the finished track as GPX.
package server

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/rnltlabs/runicorn/internal/config"
	"github.com/rnltlabs/runicorn/internal/draw"
	"github.com/rnltlabs/runicorn/internal/route"
	"github.com/rnltlabs/runicorn/internal/stream"
)

type Server struct {
	App *fiber.App
	Cfg config.Config
	Hub *stream.Hub

	log      *zap.Logger
	pipeline *route.Pipeline

	mu       sync.Mutex
	sessions map[string]*draw.Session
	jobs     map[string]*job
	running  map[string]string // session id -> in-flight job id
	lastJob  map[string]string // session id -> most recent job id
}

// NewServer wires the HTTP surface around the given routing collaborator.
func NewServer(cfg config.Config, log *zap.Logger, router route.Router) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:      app,
		Cfg:      cfg,
		Hub:      stream.NewHub(),
		log:      log,
		pipeline: route.New(router, cfg.PipelineOptions(), log.Named("pipeline")),
		sessions: map[string]*draw.Session{},
		jobs:     map[string]*job{},
		running:  map[string]string{},
		lastJob:  map[string]string{},
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := s.App.Group("/api")

	api.Post("/sessions", s.createSession)
	api.Get("/sessions/:id", s.getSession)
	api.Post("/sessions/:id/points", s.appendPoint)
	api.Post("/sessions/:id/erase", s.erasePoints)
	api.Put("/sessions/:id/mode", s.setMode)
	api.Delete("/sessions/:id", s.cancelSession)
	api.Post("/sessions/:id/confirm", s.confirmSession)

	api.Get("/jobs/:id", s.getJob)
	api.Delete("/jobs/:id", s.cancelJob)
	api.Get("/jobs/:id/gpx", s.exportJob)

	stream.RegisterRoutes(s.App.Group("/ws"), s.Hub)
}
