package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.applyEnv(map[string]string{
		"CHUNKQUEUE_INPUT":          "/videos/a.mkv",
		"CHUNKQUEUE_METHOD":         "segment",
		"CHUNKQUEUE_RESUME":         "true",
		"CHUNKQUEUE_ENCODER":        "svt_av1",
		"CHUNKQUEUE_PASSES":         "2",
		"CHUNKQUEUE_ENCODER_PARAMS": "--preset 4  --crf 24",
		"CHUNKQUEUE_VMAF_THREADS":   "12",
		"CHUNKQUEUE_VMAF_MODEL":     "/models/vmaf.json",
		"CHUNKQUEUE_SERVE_ADDR":     "0.0.0.0:9999",
		"CHUNKQUEUE_ALLOW_ORIGINS":  "http://dash.local,,",
		"CHUNKQUEUE_FFMPEG":         "",
		"UNRELATED":                 "x",
	})
	if err != nil {
		t.Fatalf("applyEnv failed: %v", err)
	}

	if cfg.Input != "/videos/a.mkv" || cfg.Method != "segment" || !cfg.Resume {
		t.Errorf("queue settings not applied: %+v", cfg)
	}
	if cfg.Encode.Encoder != "svt_av1" || cfg.Encode.Passes != 2 {
		t.Errorf("encode settings not applied: %+v", cfg.Encode)
	}
	if strings.Join(cfg.Encode.Params, " ") != "--preset 4 --crf 24" {
		t.Errorf("params = %v", cfg.Encode.Params)
	}
	if cfg.Score.Threads != 12 || cfg.Score.ModelPath != "/models/vmaf.json" {
		t.Errorf("score settings not applied: %+v", cfg.Score)
	}
	if cfg.Serve.Addr != "0.0.0.0:9999" {
		t.Errorf("serve addr = %s", cfg.Serve.Addr)
	}
	if strings.Join(cfg.Serve.AllowOrigins, " ") != "http://dash.local" {
		t.Errorf("allow origins = %v", cfg.Serve.AllowOrigins)
	}
	if cfg.Tools.FFmpeg != "ffmpeg" {
		t.Errorf("empty value should not override ffmpeg, got %q", cfg.Tools.FFmpeg)
	}
}

func TestApplyEnv_Invalid(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.applyEnv(map[string]string{
		"CHUNKQUEUE_PASSES":  "two",
		"CHUNKQUEUE_VERBOSE": "maybe",
	})
	if err == nil {
		t.Fatal("Expected error for invalid values")
	}
	for _, want := range []string{"CHUNKQUEUE_PASSES", "CHUNKQUEUE_VERBOSE"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestMergeFromEnv_FileAndProcess(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "# local overrides\nCHUNKQUEUE_ENCODER=x264\nCHUNKQUEUE_VMAF_RATE=3\nCHUNKQUEUE_METHOD=script\n"
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}

	t.Setenv("CHUNKQUEUE_METHOD", "segment")

	cfg := DefaultConfig()
	if err := cfg.MergeFromEnv(envFile); err != nil {
		t.Fatalf("MergeFromEnv failed: %v", err)
	}

	if cfg.Encode.Encoder != "x264" {
		t.Errorf("Expected encoder from env file, got %s", cfg.Encode.Encoder)
	}
	if cfg.Score.Rate != 3 {
		t.Errorf("Expected rate 3 from env file, got %d", cfg.Score.Rate)
	}
	if cfg.Method != "segment" {
		t.Errorf("Process environment should win over env file, got %s", cfg.Method)
	}
}

func TestMergeFromEnv_MissingFile(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.MergeFromEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("Missing env file should be ignored, got %v", err)
	}
}
