package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rnltlabs/runicorn/internal/draw"
	"github.com/rnltlabs/runicorn/internal/geo"
)

type pointRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type eraseRequest struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Radius float64 `json:"radius"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type sessionResponse struct {
	ID       string        `json:"id"`
	Mode     string        `json:"mode"`
	Active   bool          `json:"active"`
	Segments [][]geo.Point `json:"segments"`
}

func (s *Server) createSession(c *fiber.Ctx) error {
	id := uuid.New().String()

	sess := draw.NewSession()
	sess.Begin()

	s.mu.Lock()
	s.sessions[id] = sess
	state := snapshotSession(id, sess)
	s.mu.Unlock()

	s.log.Info("session started", zap.String("session", id))
	return c.Status(fiber.StatusCreated).JSON(state)
}

func (s *Server) getSession(c *fiber.Ctx) error {
	id := c.Params("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	}
	return c.JSON(snapshotSession(id, sess))
}

func (s *Server) appendPoint(c *fiber.Ctx) error {
	id := c.Params("id")

	var req pointRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid point payload")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	}
	if !sess.Active() {
		return fiber.NewError(fiber.StatusConflict, "drawing is not active")
	}

	sess.Append(geo.Point{Lat: req.Lat, Lon: req.Lon})
	return c.JSON(snapshotSession(id, sess))
}

func (s *Server) erasePoints(c *fiber.Ctx) error {
	id := c.Params("id")

	var req eraseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid erase payload")
	}
	if req.Radius < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "radius must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	}
	if !sess.Active() {
		return fiber.NewError(fiber.StatusConflict, "drawing is not active")
	}

	sess.Erase(geo.Point{Lat: req.Lat, Lon: req.Lon}, req.Radius)
	return c.JSON(snapshotSession(id, sess))
}

func (s *Server) setMode(c *fiber.Ctx) error {
	id := c.Params("id")

	var req modeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid mode payload")
	}

	mode := draw.Mode(req.Mode)
	if !mode.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "unknown mode: "+req.Mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	}
	if !sess.Active() {
		return fiber.NewError(fiber.StatusConflict, "drawing is not active")
	}

	sess.SetMode(mode)
	return c.JSON(snapshotSession(id, sess))
}

func (s *Server) cancelSession(c *fiber.Ctx) error {
	id := c.Params("id")

	s.mu.Lock()

	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	}

	sess.Cancel()
	delete(s.sessions, id)

	// Jobs follow the session: a running one gets cancelled and evicts
	// itself when it settles, a settled one goes now.
	var inFlight *job
	if jobID, running := s.running[id]; running {
		inFlight = s.jobs[jobID]
	} else if jobID, ok := s.lastJob[id]; ok {
		delete(s.jobs, jobID)
	}
	delete(s.lastJob, id)
	s.mu.Unlock()

	if inFlight != nil {
		inFlight.cancel()
	}

	s.log.Info("session cancelled", zap.String("session", id))
	return c.SendStatus(fiber.StatusNoContent)
}

// snapshotSession must run under s.mu.
func snapshotSession(id string, sess *draw.Session) sessionResponse {
	return sessionResponse{
		ID:       id,
		Mode:     string(sess.Mode()),
		Active:   sess.Active(),
		Segments: sess.Segments(),
	}
}
