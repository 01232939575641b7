package chunkqueue_test

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"chunkqueue/chunker"
	"chunkqueue/command"
	"chunkqueue/command/segment"
	"chunkqueue/ffprobe"
	"chunkqueue/models"
	"chunkqueue/queue"
	"chunkqueue/score"
)

// Integration tests that run the real ffmpeg/ffprobe binaries against a
// generated clip. They are in a separate test package to avoid import cycles.

const clipFrames = 100

func requireTools(t *testing.T, tools ...string) {
	t.Helper()
	for _, tool := range tools {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not found in PATH", tool)
		}
	}
}

// makeClip renders a 100-frame intra-only clip so segments split exactly.
func makeClip(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mkv")
	cmd := exec.Command("ffmpeg", "-y", "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc=size=160x120:rate=25",
		"-frames:v", "100", "-c:v", "ffv1", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to generate clip: %v (output: %s)", err, out)
	}
	return path
}

func newAssembler(source, workDir string, method chunker.Method) (*queue.Assembler, *command.PassBuilder) {
	passes := command.NewPassBuilder(command.EncoderX264, workDir)
	c := chunker.NewChunker(source, workDir).
		SetMethod(method).
		SetProber(ffprobe.NewProber("ffprobe")).
		SetPassGenerator(passes).
		SetPixelFormat("yuv420p")
	if method == chunker.MethodSegment {
		c.SetSegmenter(segment.Splitter{})
	}
	return queue.NewAssembler(c, workDir), passes
}

func TestQueue_SelectWithRealProbe(t *testing.T) {
	requireTools(t, "ffmpeg", "ffprobe")
	clip := makeClip(t)

	frames, err := ffprobe.NewProber("ffprobe").FrameCount(clip)
	if err != nil {
		t.Fatalf("FrameCount failed: %v", err)
	}
	if frames != clipFrames {
		t.Fatalf("Expected %d frames, got %d", clipFrames, frames)
	}

	workDir := t.TempDir()
	a, _ := newAssembler(clip, workDir, chunker.MethodSelect)

	q, err := a.LoadOrBuild(false, []int{30, 70})
	if err != nil {
		t.Fatalf("LoadOrBuild failed: %v", err)
	}
	chunks := q.Remaining

	var got []string
	for _, c := range chunks {
		got = append(got, c.Name())
	}
	if strings.Join(got, " ") != "00001 00000 00002" {
		t.Errorf("Unexpected dispatch order: %v", got)
	}
	if models.TotalFrames(chunks) != clipFrames {
		t.Errorf("TotalFrames = %d; want %d", models.TotalFrames(chunks), clipFrames)
	}

	// The frame-source command must emit exactly the chunk's frames
	out, err := exec.Command(chunks[0].SourceCmd[0], chunks[0].SourceCmd[1:]...).Output()
	if err != nil {
		t.Fatalf("frame-source command failed: %v", err)
	}
	if n := strings.Count(string(out), "FRAME\n"); n != chunks[0].Frames {
		t.Errorf("frame-source emitted %d frames; want %d", n, chunks[0].Frames)
	}

	loaded, err := queue.Load(workDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for i := range chunks {
		if !chunks[i].Equal(loaded[i]) {
			t.Errorf("chunk %d differs after reload", i)
		}
	}
}

func TestQueue_SegmentWithRealSplit(t *testing.T) {
	requireTools(t, "ffmpeg", "ffprobe")
	clip := makeClip(t)

	workDir := t.TempDir()
	a, _ := newAssembler(clip, workDir, chunker.MethodSegment)

	q, err := a.LoadOrBuild(false, []int{30, 70})
	if err != nil {
		t.Fatalf("LoadOrBuild failed: %v", err)
	}
	chunks := q.Remaining

	if len(chunks) != 3 {
		t.Fatalf("Expected 3 segments, got %d", len(chunks))
	}
	if models.TotalFrames(chunks) != clipFrames {
		t.Errorf("TotalFrames = %d; want %d", models.TotalFrames(chunks), clipFrames)
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i-1].Size < chunks[i].Size {
			t.Errorf("queue not sorted by size: %d < %d", chunks[i-1].Size, chunks[i].Size)
		}
	}

	// Resume skips chunks recorded as done
	done := map[string]interface{}{"done": map[string]int{chunks[0].Name(): chunks[0].Frames}}
	data, _ := json.Marshal(done)
	if err := os.WriteFile(filepath.Join(workDir, "done.json"), data, 0644); err != nil {
		t.Fatal(err)
	}

	resumed, err := a.LoadOrBuild(true, nil)
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	remaining := resumed.Remaining
	if len(remaining) != 2 || remaining[0].Name() != chunks[1].Name() {
		t.Errorf("Unexpected remaining queue after resume")
	}
}

func TestScore_WithRealFFmpeg(t *testing.T) {
	requireTools(t, "ffmpeg", "ffprobe")

	filters, err := exec.Command("ffmpeg", "-hide_banner", "-filters").Output()
	if err != nil || !strings.Contains(string(filters), "libvmaf") {
		t.Skip("ffmpeg built without libvmaf")
	}

	clip := makeClip(t)
	workDir := t.TempDir()
	a, _ := newAssembler(clip, workDir, chunker.MethodSelect)

	q, err := a.LoadOrBuild(false, []int{50})
	if err != nil {
		t.Fatalf("LoadOrBuild failed: %v", err)
	}
	chunk := q.Remaining[0]

	// Encode the chunk losslessly from its own frame-source command
	encoded := filepath.Join(workDir, "encode", chunk.Name()+".mkv")
	source := exec.Command(chunk.SourceCmd[0], chunk.SourceCmd[1:]...)
	enc := exec.Command("ffmpeg", "-y", "-hide_banner", "-loglevel", "error", "-i", "-", "-c:v", "ffv1", encoded)
	pipe, err := source.StdoutPipe()
	if err != nil {
		t.Fatal(err)
	}
	enc.Stdin = pipe
	if err := source.Start(); err != nil {
		t.Fatal(err)
	}
	if out, err := enc.CombinedOutput(); err != nil {
		t.Fatalf("encode failed: %v (output: %s)", err, out)
	}
	if err := source.Wait(); err != nil {
		t.Fatalf("frame source failed: %v", err)
	}

	result := score.NewScorer(workDir).SetResolution("160x120").
		Run(context.Background(), chunk, encoded, 0, "")
	if !result.Success {
		t.Fatalf("score failed: %v\n%s", result.Error, result.Output)
	}

	if _, err := os.Stat(result.LogPath); err != nil {
		t.Errorf("score log not written: %v", err)
	}
}
