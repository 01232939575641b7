// Package ffprobe provides utilities for extracting metadata from media files
// using the ffprobe command-line tool.
package ffprobe

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// Stream represents a media stream (audio, video, subtitle, etc.)
type Stream struct {
	Index         int    `json:"index"`
	CodecName     string `json:"codec_name"`
	CodecType     string `json:"codec_type"`
	CodecLongName string `json:"codec_long_name"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	RFrameRate    string `json:"r_frame_rate,omitempty"`
	Duration      string `json:"duration,omitempty"`
	NbReadPackets string `json:"nb_read_packets,omitempty"`
}

// Format represents the container format information.
type Format struct {
	Filename       string `json:"filename"`
	FormatName     string `json:"format_name"`
	FormatLongName string `json:"format_long_name"`
	Duration       string `json:"duration"`
	Size           string `json:"size"`
	BitRate        string `json:"bit_rate"`
}

// ProbeResult holds the stream and container metadata of a media file.
type ProbeResult struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// GetDuration returns the duration of the media file in seconds.
//
// Returns an error if the duration cannot be parsed.
func (pr *ProbeResult) GetDuration() (float64, error) {
	if pr.Format.Duration == "" {
		return 0, fmt.Errorf("duration not available in format metadata")
	}

	duration, err := strconv.ParseFloat(pr.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration '%s': %w", pr.Format.Duration, err)
	}

	return duration, nil
}

// GetVideoStreams returns all video streams from the media file.
func (pr *ProbeResult) GetVideoStreams() []Stream {
	var videoStreams []Stream
	for _, stream := range pr.Streams {
		if stream.CodecType == "video" {
			videoStreams = append(videoStreams, stream)
		}
	}
	return videoStreams
}

// Prober runs ffprobe. The zero value uses "ffprobe" from PATH.
type Prober struct {
	binary string
}

// NewProber creates a Prober for the given ffprobe executable.
func NewProber(binary string) *Prober {
	return &Prober{binary: binary}
}

func (p *Prober) bin() string {
	if p == nil || p.binary == "" {
		return "ffprobe"
	}
	return p.binary
}

// Probe analyzes a media file and extracts its stream and format metadata.
//
// Example:
//
//	result, err := ffprobe.NewProber("ffprobe").Probe("/path/to/video.mkv")
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Video streams: %d\n", len(result.GetVideoStreams()))
func (p *Prober) Probe(sourcePath string) (*ProbeResult, error) {
	if sourcePath == "" {
		return nil, fmt.Errorf("source path cannot be empty")
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		sourcePath,
	}

	output, err := exec.Command(p.bin(), args...).CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w (output: %s)", err, string(output))
	}

	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe JSON output: %w", err)
	}

	return &result, nil
}

// FrameCount returns the number of frames of the first video stream.
//
// Packets are counted rather than decoded frames, which is exact for the
// intra/inter coded streams handled here and much faster than a full decode.
func (p *Prober) FrameCount(path string) (int, error) {
	if path == "" {
		return 0, fmt.Errorf("source path cannot be empty")
	}

	args := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=nb_read_packets",
		"-print_format", "json",
		path,
	}

	output, err := exec.Command(p.bin(), args...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return 0, fmt.Errorf("ffprobe failed: %w (output: %s)", err, string(exitErr.Stderr))
		}
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseFrameCount(output)
}

// parseFrameCount extracts nb_read_packets from ffprobe JSON output.
func parseFrameCount(output []byte) (int, error) {
	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe JSON output: %w", err)
	}

	if len(result.Streams) == 0 {
		return 0, fmt.Errorf("no video stream found")
	}

	raw := result.Streams[0].NbReadPackets
	if raw == "" {
		return 0, fmt.Errorf("frame count not available in stream metadata")
	}

	frames, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("failed to parse frame count '%s': %w", raw, err)
	}

	return frames, nil
}
