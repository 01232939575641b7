package segment

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSegmentBuilder_BuildArgs(t *testing.T) {
	b := NewSegmentBuilder("in.mkv", "/work/split", []int{30, 70})
	args := strings.Join(b.BuildArgs(), " ")

	want := "-hide_banner -loglevel error -i in.mkv -map 0:v:0 -an -c copy -avoid_negative_ts 1 " +
		"-f segment -segment_frames 30,70 -reset_timestamps 1 /work/split/%05d.mkv"
	if args != want {
		t.Errorf("BuildArgs() =\n %s\nwant\n %s", args, want)
	}
}

func TestSegmentBuilder_SegmentFrames(t *testing.T) {
	tests := []struct {
		name   string
		splits []int
		want   string
	}{
		{"sorted", []int{30, 70}, "30,70"},
		{"unsorted", []int{70, 30}, "30,70"},
		{"duplicates and zero", []int{70, 30, 30, 0}, "30,70"},
		{"negative", []int{-5, 40}, "40"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			splits := append([]int(nil), tt.splits...)
			b := NewSegmentBuilder("in.mkv", "/work/split", splits)

			if got := b.buildSegmentFrames(); got != tt.want {
				t.Errorf("buildSegmentFrames() = %s; want %s", got, tt.want)
			}
			if !strings.Contains(strings.Join(b.BuildArgs(), " "), "-segment_frames "+tt.want+" ") {
				t.Errorf("BuildArgs() does not carry %s", tt.want)
			}
			for i := range splits {
				if splits[i] != tt.splits[i] {
					t.Fatalf("caller's split list was modified: %v", splits)
				}
			}
		})
	}
}

func TestSegmentBuilder_NoSplits(t *testing.T) {
	tests := []struct {
		name   string
		splits []int
	}{
		{"nil", nil},
		{"only zero", []int{0}},
		{"zero and negative", []int{0, -3, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := NewSegmentBuilder("in.mkv", "/work/split", tt.splits).BuildArgs()
			joined := strings.Join(args, " ")

			if strings.Contains(joined, "-f segment") {
				t.Errorf("Whole-file copy should not use the segment muxer: %s", joined)
			}
			if args[len(args)-1] != "/work/split/00000.mkv" {
				t.Errorf("Expected single segment output, got %s", args[len(args)-1])
			}
		})
	}
}

func TestSegmentBuilder_DryRun(t *testing.T) {
	out := NewSegmentBuilder("in.mkv", "/tmp/s", []int{10}).SetBinary("/opt/ffmpeg").DryRun()
	if !strings.HasPrefix(out, "/opt/ffmpeg -hide_banner") {
		t.Errorf("Unexpected dry run: %s", out)
	}
	if !strings.Contains(out, "-segment_frames 10") {
		t.Errorf("Dry run missing split frames: %s", out)
	}
}

func TestSegmentBuilder_GetSegmentPath(t *testing.T) {
	b := NewSegmentBuilder("in.mkv", "/tmp/s", nil)
	if got := b.GetSegmentPath(12); got != filepath.Join("/tmp/s", "00012.mkv") {
		t.Errorf("GetSegmentPath(12) = %s", got)
	}
}

func TestSplitter_Failure(t *testing.T) {
	script := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho 'moov atom not found' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("write fake ffmpeg: %v", err)
	}

	workDir := t.TempDir()
	err := Splitter{FFmpeg: script}.Segment("missing.mkv", workDir, []int{5})
	if err == nil {
		t.Fatal("Expected error from failing ffmpeg")
	}
	if !strings.Contains(err.Error(), "moov atom not found") {
		t.Errorf("Error should carry ffmpeg output, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(workDir, "split")); statErr != nil {
		t.Errorf("Split directory should be created: %v", statErr)
	}
}
