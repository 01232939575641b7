package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"chunkqueue/api"
	"chunkqueue/chunker"
	"chunkqueue/command"
	"chunkqueue/command/segment"
	"chunkqueue/config"
	"chunkqueue/ffprobe"
	"chunkqueue/internal/logging"
	"chunkqueue/internal/timeutil"
	"chunkqueue/models"
	"chunkqueue/queue"
	"chunkqueue/score"
)

func main() {
	// Step 1: Load configuration (CLI flags > environment > config file > defaults)
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}

	runID := logging.NewRunID()
	logger := logging.New(os.Stderr, cfg.Verbose, runID)

	// Step 2: Handle dry-run mode
	if cfg.DryRun {
		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println("                      DRY RUN MODE")
		fmt.Println("═══════════════════════════════════════════════════════════")
		cfg.PrintConfig()
		if err := dryRun(cfg, logger); err != nil {
			fmt.Fprintf(os.Stderr, "\n❌ Dry run failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("\n✓ Configuration is valid. Nothing was written.")
		return
	}

	// Step 3: Set up context with cancellation for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Step 4: Run the requested mode
	if err := run(ctx, cfg, runID, logger); err != nil {
		if ctx.Err() != nil {
			fmt.Println("\n⚠️  Cancelled by user")
			os.Exit(130) // Standard exit code for SIGINT
		}
		fmt.Fprintf(os.Stderr, "\n❌ %v\n", err)
		os.Exit(1)
	}
}

// run builds or resumes the queue, then scores one chunk, serves the queue
// or prints the queue summary.
func run(ctx context.Context, cfg *config.Config, runID string, logger *slog.Logger) error {
	startTime := time.Now()

	fmt.Println("╔════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                       CHUNK QUEUE                              ║")
	fmt.Println("╚════════════════════════════════════════════════════════════════╝")
	fmt.Printf("Input:    %s\n", cfg.Input)
	fmt.Printf("Work dir: %s\n", cfg.WorkDir)
	fmt.Printf("Method:   %s\n", cfg.Method)
	fmt.Println()

	scorer := newScorer(cfg, logger)

	// Scoring reads the persisted queue and never rebuilds it
	if cfg.Score.Chunk != "" {
		return scoreChunk(ctx, cfg, scorer)
	}

	// PHASE 1: Source analysis (fresh runs only)
	prober := ffprobe.NewProber(cfg.Tools.FFprobe)
	if !cfg.Resume {
		fmt.Println("📊 Phase 1: Source Analysis")
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

		probeResult, err := prober.Probe(cfg.Input)
		if err != nil {
			return fmt.Errorf("source analysis failed: %w", err)
		}

		videoStreams := probeResult.GetVideoStreams()
		if len(videoStreams) == 0 {
			return fmt.Errorf("no video stream found in %s", cfg.Input)
		}

		if duration, err := probeResult.GetDuration(); err == nil {
			fmt.Printf("  Duration:       %s\n", timeutil.FormatSeconds(duration))
		}
		fmt.Printf("  Format:         %s\n", probeResult.Format.FormatLongName)
		fmt.Printf("  Video:          %s %dx%d @ %s\n",
			videoStreams[0].CodecName, videoStreams[0].Width, videoStreams[0].Height, videoStreams[0].RFrameRate)
		fmt.Printf("  Split frames:   %d\n", len(cfg.Splits))
		fmt.Println()
	}

	// PHASE 2: Queue
	fmt.Println("✂️  Phase 2: Chunk Queue")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	passes := command.NewPassBuilder(command.Encoder(cfg.Encode.Encoder), cfg.WorkDir).
		SetPasses(cfg.Encode.Passes).
		SetParams(cfg.Encode.Params)

	assembler := queue.NewAssembler(newChunker(cfg, prober, passes, logger), cfg.WorkDir).
		SetLogger(logger)

	q, err := assembler.LoadOrBuild(cfg.Resume, cfg.Splits)
	if err != nil {
		return fmt.Errorf("queue assembly failed: %w", err)
	}

	if cfg.Resume {
		fmt.Printf("  Resumed:    %d of %d chunks remaining\n", len(q.Remaining), len(q.All))
		fmt.Printf("  Done:       %d of %d frames\n", q.FramesDone, models.TotalFrames(q.All))
	} else {
		fmt.Printf("  Created:    %d chunks, %d frames\n", len(q.All), models.TotalFrames(q.All))
		fmt.Printf("  Saved:      %s\n", queue.Path(cfg.WorkDir))
	}
	fmt.Printf("  Time:       %s\n", timeutil.FormatDuration(time.Since(startTime)))
	fmt.Println()

	// PHASE 3: Serve
	if cfg.Serve.Enabled {
		return serve(ctx, cfg, runID, q.All, q.Remaining, scorer, logger)
	}

	printQueue(q.Remaining)
	return nil
}

func newChunker(cfg *config.Config, prober chunker.FrameProber, passes chunker.PassGenerator, logger *slog.Logger) *chunker.Chunker {
	c := chunker.NewChunker(cfg.Input, cfg.WorkDir).
		SetMethod(chunker.Method(cfg.Method)).
		SetProber(prober).
		SetPassGenerator(passes).
		SetBinaries(cfg.Tools.FFmpeg, cfg.Tools.VSPipe).
		SetPixelFormat(cfg.Tools.PixFormat).
		SetLogger(logger)

	if chunker.Method(cfg.Method) == chunker.MethodSegment {
		c.SetSegmenter(segment.Splitter{FFmpeg: cfg.Tools.FFmpeg})
	}

	return c
}

func newScorer(cfg *config.Config, logger *slog.Logger) *score.Scorer {
	return score.NewScorer(cfg.WorkDir).
		SetBinary(cfg.Tools.FFmpeg).
		SetResolution(cfg.Score.Resolution).
		SetThreads(cfg.Score.Threads).
		SetModelPath(cfg.Score.ModelPath).
		SetFilter(cfg.Score.Filter).
		SetLogger(logger)
}

// scoreChunk runs the score pipeline for the chunk named by -score.
func scoreChunk(ctx context.Context, cfg *config.Config, scorer *score.Scorer) error {
	fmt.Println("🎯 Quality Score")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	chunks, err := queue.Load(cfg.WorkDir)
	if err != nil {
		return err
	}

	chunk := queue.Find(chunks, cfg.Score.Chunk)
	if chunk == nil {
		return fmt.Errorf("chunk %s is not in %s", cfg.Score.Chunk, queue.Path(cfg.WorkDir))
	}

	fmt.Printf("  Chunk:      %s (%d frames)\n", chunk.Name(), chunk.Frames)
	fmt.Printf("  Encoded:    %s\n", cfg.Score.Encoded)

	result := scorer.Run(ctx, chunk, cfg.Score.Encoded, cfg.Score.Rate, cfg.Score.Output)
	if !result.Success {
		if result.Output != "" {
			fmt.Fprintf(os.Stderr, "%s\n", result.Output)
		}
		return result.Error
	}

	fmt.Printf("  Log:        %s\n", result.LogPath)
	fmt.Printf("  Time:       %s\n", timeutil.FormatDuration(result.Elapsed))
	if result.PeakRSS > 0 {
		fmt.Printf("  Peak RSS:   %.1f MB\n", float64(result.PeakRSS)/(1024*1024))
		fmt.Printf("  Peak CPU:   %.0f%%\n", result.PeakCPU)
	}
	return nil
}

// serve hands the queue to external workers until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config, runID string, all, remaining []*models.Chunk, scorer *score.Scorer, logger *slog.Logger) error {
	gin.SetMode(gin.ReleaseMode)

	handler := api.NewHandler(runID, cfg.WorkDir, all, remaining, scorer).SetLogger(logger)
	srv := &http.Server{
		Addr:    cfg.Serve.Addr,
		Handler: api.NewRouter(handler, cfg.Serve.AllowOrigins),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	fmt.Printf("🌐 Serving %d chunks on http://%s/api/v1/queue\n", len(remaining), cfg.Serve.Addr)
	logger.Info("api listening", "addr", cfg.Serve.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api shutdown", "error", err)
	}
	return ctx.Err()
}

func printQueue(chunks []*models.Chunk) {
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println("                     ✅ QUEUE READY")
	fmt.Println("═══════════════════════════════════════════════════════════")
	for _, c := range chunks {
		fmt.Printf("  %s  %6d frames  size %d\n", c.Name(), c.Frames, c.Size)
	}
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// dryRun prints the commands a run would execute. Only the select method is
// assembled, since segment and script write into the work directory.
func dryRun(cfg *config.Config, logger *slog.Logger) error {
	fmt.Println()

	switch chunker.Method(cfg.Method) {
	case chunker.MethodSegment:
		seg := segment.NewSegmentBuilder(cfg.Input, filepath.Join(cfg.WorkDir, "split"), cfg.Splits).SetBinary(cfg.Tools.FFmpeg)
		fmt.Printf("Segment:\n  %s\n", seg.DryRun())
		return nil
	case chunker.MethodScript:
		fmt.Println("Chunk commands are generated when the load script is written.")
		return nil
	}

	passes := command.NewPassBuilder(command.Encoder(cfg.Encode.Encoder), cfg.WorkDir).
		SetPasses(cfg.Encode.Passes).
		SetParams(cfg.Encode.Params)

	assembler := queue.NewAssembler(newChunker(cfg, ffprobe.NewProber(cfg.Tools.FFprobe), passes, logger), cfg.WorkDir)
	chunks, err := assembler.Assemble(cfg.Splits)
	if err != nil {
		return err
	}

	fmt.Println("Chunks (dispatch order):")
	for _, c := range chunks {
		lines, err := passes.DryRun(c)
		if err != nil {
			return err
		}
		fmt.Printf("  [%s] %d frames\n%s\n", c.Name(), c.Frames, lines)
	}
	return nil
}
