// Package api serves the assembled chunk queue to external workers and runs
// score pipelines on their behalf.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"chunkqueue/models"
	"chunkqueue/queue"
)

// ChunkScorer runs the score pipeline for one chunk.
type ChunkScorer interface {
	Run(ctx context.Context, c *models.Chunk, encoded string, rate int, outputPath string) *models.ScoreResult
}

// Handler holds dependencies
type Handler struct {
	runID     string
	workDir   string
	all       []*models.Chunk
	remaining []*models.Chunk
	scorer    ChunkScorer
	logger    *slog.Logger
}

// NewHandler creates API handler. all is the full persisted queue, remaining
// the working queue after resume filtering.
func NewHandler(runID, workDir string, all, remaining []*models.Chunk, scorer ChunkScorer) *Handler {
	return &Handler{
		runID:     runID,
		workDir:   workDir,
		all:       all,
		remaining: remaining,
		scorer:    scorer,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger sets the logger
func (h *Handler) SetLogger(l *slog.Logger) *Handler {
	if l != nil {
		h.logger = l
	}
	return h
}

func errResp(c *gin.Context, code int, msg, detail string) {
	c.JSON(code, ErrorResponse{Code: code, Message: msg, Detail: detail})
}

func (h *Handler) view(chunk *models.Chunk) ChunkView {
	return ChunkView{
		Name:       chunk.Name(),
		OutputPath: chunk.OutputPath(h.workDir),
		Chunk:      chunk,
	}
}

// GetQueue GET /api/v1/queue
func (h *Handler) GetQueue(c *gin.Context) {
	views := make([]ChunkView, 0, len(h.remaining))
	for _, chunk := range h.remaining {
		views = append(views, h.view(chunk))
	}

	c.JSON(http.StatusOK, QueueResponse{
		Run:       h.runID,
		Total:     len(h.all),
		Remaining: len(h.remaining),
		Frames:    models.TotalFrames(h.remaining),
		Chunks:    views,
	})
}

// GetChunk GET /api/v1/chunks/:name
func (h *Handler) GetChunk(c *gin.Context) {
	name := c.Param("name")

	chunk := queue.Find(h.all, name)
	if chunk == nil {
		errResp(c, http.StatusNotFound, "Unknown chunk", name)
		return
	}

	c.JSON(http.StatusOK, h.view(chunk))
}

// ScoreChunk POST /api/v1/chunks/:name/score
func (h *Handler) ScoreChunk(c *gin.Context) {
	name := c.Param("name")

	chunk := queue.Find(h.all, name)
	if chunk == nil {
		errResp(c, http.StatusNotFound, "Unknown chunk", name)
		return
	}

	// A JSON content type makes browsers preflight cross-origin requests.
	if c.ContentType() != "application/json" {
		errResp(c, http.StatusUnsupportedMediaType, "Content-Type must be application/json", c.ContentType())
		return
	}

	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	output, err := h.outputPath(req.Output)
	if err != nil {
		errResp(c, http.StatusBadRequest, "Invalid output path", err.Error())
		return
	}

	result := h.scorer.Run(c.Request.Context(), chunk, req.Encoded, req.Rate, output)
	resp := toScoreResponse(result)

	if result.Success {
		h.logger.Info("chunk scored", "chunk", name, "log", result.LogPath, "elapsed", result.Elapsed)
		c.JSON(http.StatusOK, resp)
		return
	}

	h.logger.Warn("chunk score failed", "chunk", name, "error", result.Error)

	switch {
	case errors.Is(result.Error, models.ErrPathEncoding):
		c.JSON(http.StatusBadRequest, resp)
	case errors.Is(result.Error, models.ErrPipelineProcessFailure):
		c.JSON(http.StatusBadGateway, resp)
	default:
		c.JSON(http.StatusInternalServerError, resp)
	}
}

// outputPath resolves a requested score log path inside the work directory.
// An empty request keeps the chunk's default log path.
func (h *Handler) outputPath(requested string) (string, error) {
	if requested == "" {
		return "", nil
	}
	if !filepath.IsLocal(requested) {
		return "", fmt.Errorf("%q must be a relative path inside the work directory", requested)
	}
	return filepath.Join(h.workDir, requested), nil
}

// Health GET /api/v1/health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Run:       h.runID,
		Total:     len(h.all),
		Remaining: len(h.remaining),
	})
}
