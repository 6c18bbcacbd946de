package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kbukum/kikitori/internal/apperrors"
	"github.com/kbukum/kikitori/internal/job"
	"github.com/kbukum/kikitori/internal/logger"
	"github.com/kbukum/kikitori/internal/version"
)

// JobQueue hands accepted jobs to the background pipeline.
type JobQueue interface {
	Enqueue(id uuid.UUID)
}

// HealthChecker reports dependency status for the health endpoint.
type HealthChecker func(ctx context.Context) map[string]string

// Handlers exposes the transcription API over Gin.
type Handlers struct {
	svc    *job.Service
	queue  JobQueue
	health HealthChecker
	log    *logger.Logger
}

// NewHandlers wires the API handlers.
func NewHandlers(svc *job.Service, queue JobQueue, health HealthChecker, log *logger.Logger) *Handlers {
	return &Handlers{svc: svc, queue: queue, health: health, log: log.WithComponent("api")}
}

// Register mounts all routes on the engine.
func (h *Handlers) Register(engine *gin.Engine) {
	engine.GET("/health", h.Health)

	api := engine.Group("/api")
	api.GET("/health", h.Health)

	tr := api.Group("/transcriptions")
	tr.POST("/upload", h.Upload)
	tr.GET("/history", h.History)
	tr.POST("/history", h.BackfillHistory)
	tr.GET("/history/:id", h.HistoryDetail)
	tr.DELETE("/history/:id", h.DeleteHistory)
	tr.GET("/:id/status", h.Status)
	tr.GET("/:id", h.Get)
	tr.DELETE("/:id", h.Delete)
}

// Upload accepts a multipart audio/video file, creates the job, and queues
// it for background transcription.
func (h *Handlers) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondWithError(c, apperrors.InvalidInput("multipart field \"file\" is required"))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		RespondWithError(c, apperrors.Internal(err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		RespondWithError(c, apperrors.Internal(err))
		return
	}

	j, err := h.svc.Submit(c.Request.Context(), data, fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		RespondWithError(c, err)
		return
	}

	h.queue.Enqueue(j.ID)
	h.log.Info("Queued transcription job", map[string]interface{}{
		logger.FieldJobID: j.ID.String(),
	})
	RespondCreated(c, j)
}

// Status returns the job record for polling clients.
func (h *Handlers) Status(c *gin.Context) {
	h.Get(c)
}

// Get returns the job record by id.
func (h *Handlers) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	j, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, j)
}

// Delete removes the job record and (best-effort) its stored blob.
func (h *Handlers) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		RespondWithError(c, err)
		return
	}
	RespondNoContent(c)
}

// History lists completed jobs, newest first, with transcript previews.
func (h *Handlers) History(c *gin.Context) {
	entries, err := h.svc.History(c.Request.Context())
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, entries)
}

// HistoryDetail returns the history projection of one job.
func (h *Handlers) HistoryDetail(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	entry, err := h.svc.HistoryDetail(c.Request.Context(), id)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, entry)
}

// DeleteHistory removes the job record only.
func (h *Handlers) DeleteHistory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteHistory(c.Request.Context(), id); err != nil {
		RespondWithError(c, err)
		return
	}
	RespondNoContent(c)
}

// BackfillHistory imports an externally-known transcript as a completed job.
// Idempotent on id.
func (h *Handlers) BackfillHistory(c *gin.Context) {
	var req job.BackfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, apperrors.InvalidInput(bindingError(err)))
		return
	}
	if _, err := h.svc.Backfill(c.Request.Context(), req); err != nil {
		RespondWithError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// Health reports service and dependency status.
func (h *Handlers) Health(c *gin.Context) {
	status := "healthy"
	httpStatus := http.StatusOK
	var services map[string]string

	if h.health != nil {
		services = h.health(c.Request.Context())
		for _, s := range services {
			if s != "connected" {
				status = "degraded"
			}
		}
	}
	if services["database"] != "" && services["database"] != "connected" {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  services,
		"version":   version.Get().Version,
	})
}

// bindingError flattens validator failures into a readable message.
func bindingError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondWithError(c, apperrors.InvalidInput("invalid job id"))
		return uuid.Nil, false
	}
	return id, true
}
