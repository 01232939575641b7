package api

import "chunkqueue/models"

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// ChunkView is a chunk as served to workers, with its derived name and
// output path.
type ChunkView struct {
	Name       string `json:"name"`
	OutputPath string `json:"output_path"`
	*models.Chunk
}

// QueueResponse is the working queue in dispatch order.
type QueueResponse struct {
	Run       string      `json:"run"`
	Total     int         `json:"total"`
	Remaining int         `json:"remaining"`
	Frames    int         `json:"frames"`
	Chunks    []ChunkView `json:"chunks"`
}

// ScoreRequest asks for a quality score of an encoded chunk.
type ScoreRequest struct {
	Encoded string `json:"encoded" binding:"required"`
	Rate    int    `json:"rate" binding:"gte=0"`
	Output  string `json:"output"`
}

// ScoreResponse reports one score pipeline run.
type ScoreResponse struct {
	Chunk     string  `json:"chunk"`
	Success   bool    `json:"success"`
	LogPath   string  `json:"log_path,omitempty"`
	Error     string  `json:"error,omitempty"`
	Output    string  `json:"output,omitempty"`
	ElapsedMs int64   `json:"elapsed_ms"`
	PeakRSS   uint64  `json:"peak_rss_bytes"`
	PeakCPU   float64 `json:"peak_cpu_percent"`
}

// HealthResponse identifies the serving run.
type HealthResponse struct {
	Status    string `json:"status"`
	Run       string `json:"run"`
	Total     int    `json:"total"`
	Remaining int    `json:"remaining"`
}

func toScoreResponse(r *models.ScoreResult) ScoreResponse {
	return ScoreResponse{
		Chunk:     r.ChunkName,
		Success:   r.Success,
		LogPath:   r.LogPath,
		Error:     r.ErrorMessage(),
		Output:    r.Output,
		ElapsedMs: r.Elapsed.Milliseconds(),
		PeakRSS:   r.PeakRSS,
		PeakCPU:   r.PeakCPU,
	}
}
