package server

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rnltlabs/runicorn/internal/geo"
	"github.com/rnltlabs/runicorn/internal/gpx"
	"github.com/rnltlabs/runicorn/internal/route"
)

const (
	jobRunning   = "running"
	jobDone      = "done"
	jobCancelled = "cancelled"
)

// job tracks one confirmed drawing through the routing pipeline.
type job struct {
	ID        string
	SessionID string

	mu        sync.Mutex
	cancel    context.CancelFunc
	status    string
	completed int
	total     int
	result    route.Result
}

type jobResponse struct {
	ID            string       `json:"id"`
	SessionID     string       `json:"sessionId"`
	Status        string       `json:"status"`
	Completed     int          `json:"completed"`
	Total         int          `json:"total"`
	Route         []geo.Point  `json:"route,omitempty"`
	Stats         *route.Stats `json:"stats,omitempty"`
	FailedBatches int          `json:"failedBatches"`
}

// progressFrame is the websocket payload pushed after every batch and once
// more when the job settles.
type progressFrame struct {
	JobID     string `json:"jobId"`
	Status    string `json:"status"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

func (s *Server) confirmSession(c *fiber.Ctx) error {
	// Copy the param: fasthttp recycles the request buffer after the handler
	// returns, and sessionID is read later from the runJob goroutine.
	sessionID := utils.CopyString(c.Params("id"))

	s.mu.Lock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	}
	if running, busy := s.running[sessionID]; busy {
		s.mu.Unlock()
		return fiber.NewError(fiber.StatusConflict, "routing already in progress: "+running)
	}

	points := sess.Confirm()

	// A new confirm supersedes the session's previous, settled job.
	if prev, ok := s.lastJob[sessionID]; ok {
		delete(s.jobs, prev)
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &job{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		cancel:    cancel,
		status:    jobRunning,
	}
	s.jobs[j.ID] = j
	s.running[sessionID] = j.ID
	s.lastJob[sessionID] = j.ID
	s.mu.Unlock()

	s.log.Info("routing job started",
		zap.String("session", sessionID),
		zap.String("job", j.ID),
		zap.Int("points", len(points)))

	go s.runJob(ctx, j, points)

	return c.Status(fiber.StatusAccepted).JSON(snapshotJob(j))
}

func (s *Server) runJob(ctx context.Context, j *job, points []geo.Point) {
	result := s.pipeline.Route(ctx, points, func(completed, total int) {
		j.mu.Lock()
		j.completed, j.total = completed, total
		j.mu.Unlock()
		s.publish(j)
	})

	j.mu.Lock()
	if ctx.Err() != nil {
		j.status = jobCancelled
	} else {
		j.status = jobDone
	}
	j.result = result
	status := j.status
	j.mu.Unlock()

	s.mu.Lock()
	delete(s.running, j.SessionID)
	if _, ok := s.sessions[j.SessionID]; !ok {
		// Session was deleted while the job ran; nothing can reach the
		// result anymore.
		delete(s.jobs, j.ID)
		if s.lastJob[j.SessionID] == j.ID {
			delete(s.lastJob, j.SessionID)
		}
	}
	s.mu.Unlock()

	s.log.Info("routing job settled",
		zap.String("job", j.ID),
		zap.String("status", status),
		zap.Int("routePoints", len(result.Route)),
		zap.Int("failedBatches", result.FailedBatches))

	s.publish(j)
}

// publish pushes the job's current progress to websocket watchers.
func (s *Server) publish(j *job) {
	j.mu.Lock()
	frame := progressFrame{
		JobID:     j.ID,
		Status:    j.status,
		Completed: j.completed,
		Total:     j.total,
	}
	j.mu.Unlock()

	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}
	s.Hub.Broadcast(j.ID, payload)
}

func (s *Server) getJob(c *fiber.Ctx) error {
	j, err := s.lookupJob(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(snapshotJob(j))
}

func (s *Server) cancelJob(c *fiber.Ctx) error {
	j, err := s.lookupJob(c.Params("id"))
	if err != nil {
		return err
	}

	j.mu.Lock()
	if j.status == jobRunning {
		j.cancel()
	}
	j.mu.Unlock()

	s.log.Info("routing job cancel requested", zap.String("job", j.ID))
	return c.SendStatus(fiber.StatusAccepted)
}

func (s *Server) exportJob(c *fiber.Ctx) error {
	j, err := s.lookupJob(c.Params("id"))
	if err != nil {
		return err
	}

	j.mu.Lock()
	status := j.status
	trk := j.result.Route
	j.mu.Unlock()

	if status == jobRunning {
		return fiber.NewError(fiber.StatusConflict, "routing still in progress")
	}

	now := time.Now().UTC()

	var buf bytes.Buffer
	if err := gpx.Export(&buf, trk, now); err != nil {
		if err == gpx.ErrEmptyRoute {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "no route to export")
		}
		return err
	}

	c.Set(fiber.HeaderContentType, "application/gpx+xml")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+gpx.ExportFilename(now)+`"`)
	return c.Send(buf.Bytes())
}

func (s *Server) lookupJob(id string) (*job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, fiber.NewError(fiber.StatusNotFound, "job not found")
	}
	return j, nil
}

func snapshotJob(j *job) jobResponse {
	j.mu.Lock()
	defer j.mu.Unlock()

	resp := jobResponse{
		ID:        j.ID,
		SessionID: j.SessionID,
		Status:    j.status,
		Completed: j.completed,
		Total:     j.total,
	}
	if j.status != jobRunning {
		resp.Route = j.result.Route
		stats := j.result.Stats
		resp.Stats = &stats
		resp.FailedBatches = j.result.FailedBatches
	}
	return resp
}
