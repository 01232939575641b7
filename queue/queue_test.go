package queue

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chunkqueue/chunker"
	"chunkqueue/models"
	"chunkqueue/resume"
)

type fixedProber struct{ frames int }

func (p fixedProber) FrameCount(string) (int, error) { return p.frames, nil }

type stubPasses struct{ workDir string }

func (s stubPasses) Passes(c *models.Chunk) ([][]string, error) {
	return [][]string{{"aomenc", "--passes=1", "-o", c.OutputPath(s.workDir), "-"}}, nil
}

func (stubPasses) Extension() string { return "ivf" }

type stubDone map[string]int

func (d stubDone) Read(string) (*resume.Record, error) { return &resume.Record{Done: d}, nil }

type failingDone struct{}

func (failingDone) Read(string) (*resume.Record, error) {
	return nil, errors.New("done record unreadable")
}

// writeSegments writes count empty segment files into workDir/split.
type writeSegments struct{ count int }

func (w writeSegments) Segment(_, workDir string, _ []int) error {
	dir := filepath.Join(workDir, "split")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i := 0; i < w.count; i++ {
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("%05d.mkv", i)), make([]byte, 10+i), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func newAssembler(workDir string, frames int) *Assembler {
	c := chunker.NewChunker("/media/source.mkv", workDir).
		SetMethod(chunker.MethodSelect).
		SetProber(fixedProber{frames: frames}).
		SetPassGenerator(stubPasses{workDir: workDir})
	return NewAssembler(c, workDir)
}

func chunkNames(chunks []*models.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Name()
	}
	return out
}

func TestAssemble_PriorityOrder(t *testing.T) {
	chunks, err := newAssembler(t.TempDir(), 100).Assemble([]int{30, 70})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	want := []struct {
		index  int
		frames int
	}{
		{1, 40},
		{0, 30},
		{2, 30},
	}

	if len(chunks) != len(want) {
		t.Fatalf("Expected %d chunks, got %d", len(want), len(chunks))
	}
	for i, w := range want {
		if chunks[i].Index != w.index || chunks[i].Frames != w.frames {
			t.Errorf("chunk %d = (index %d, %d frames); want (index %d, %d frames)",
				i, chunks[i].Index, chunks[i].Frames, w.index, w.frames)
		}
	}

	if models.TotalFrames(chunks) != 100 {
		t.Errorf("TotalFrames = %d; want 100", models.TotalFrames(chunks))
	}
}

func TestAssemble_InvalidBoundary(t *testing.T) {
	_, err := newAssembler(t.TempDir(), 100).Assemble([]int{150})
	if !errors.Is(err, models.ErrInvalidBoundary) {
		t.Errorf("Expected ErrInvalidBoundary, got %v", err)
	}
}

func TestSortBySize_Stable(t *testing.T) {
	chunks := []*models.Chunk{
		{Index: 0, Size: 10},
		{Index: 1, Size: 50},
		{Index: 2, Size: 10},
		{Index: 3, Size: 50},
		{Index: 4, Size: 20},
	}

	SortBySize(chunks)

	got := chunkNames(chunks)
	want := "00001 00003 00004 00000 00002"
	if strings.Join(got, " ") != want {
		t.Errorf("SortBySize order = %v; want %s", got, want)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	workDir := t.TempDir()
	chunks, err := newAssembler(workDir, 100).Assemble([]int{30, 70})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if err := Save(workDir, chunks); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(workDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(loaded) != len(chunks) {
		t.Fatalf("Expected %d chunks, got %d", len(chunks), len(loaded))
	}
	for i := range chunks {
		if !chunks[i].Equal(loaded[i]) {
			t.Errorf("chunk %d differs after round trip:\n saved  %+v\n loaded %+v", i, chunks[i], loaded[i])
		}
	}

	matches, _ := filepath.Glob(filepath.Join(workDir, FileName+".*.tmp"))
	if len(matches) != 0 {
		t.Errorf("Temporary files left behind: %v", matches)
	}
}

func TestSaveLoad_PreservesTokens(t *testing.T) {
	workDir := t.TempDir()
	chunk := &models.Chunk{
		Index:     3,
		SourceCmd: []string{"ffmpeg", "-i", "/media/a b/ü's \"clip\".mkv", "-vf", `select=between(n\,0\,9)`},
		PassCmds:  [][]string{{"x264", "--pass", "1"}, {"x264", "--pass", "2"}},
		Extension: "mkv",
		Size:      987654321,
		Frames:    10,
	}

	if err := Save(workDir, []*models.Chunk{chunk}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(workDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !chunk.Equal(loaded[0]) {
		t.Errorf("Tokens not preserved: %+v", loaded[0])
	}
	if loaded[0].Name() != "00003" {
		t.Errorf("Name() = %s; want 00003", loaded[0].Name())
	}
}

func TestLoad_IgnoresStoredName(t *testing.T) {
	workDir := t.TempDir()
	doc := `[{"name": "99999", "index": 7, "source_cmd": ["ffmpeg"], "pass_cmds": [["enc"]], "output_ext": "ivf", "size": 5, "frames": 5}]`
	if err := os.WriteFile(Path(workDir), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(workDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded[0].Name() != "00007" {
		t.Errorf("Name should derive from index, got %s", loaded[0].Name())
	}
}

func TestLoad_Corrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
		write   bool
	}{
		{"missing file", "", false},
		{"invalid json", `[{"index": 0,`, true},
		{"not a list", `{"index": 0}`, true},
		{"empty list", `[]`, true},
		{"null", `null`, true},
		{"null entry", `[null]`, true},
		{"zero frames", `[{"index": 0, "source_cmd": ["ffmpeg"], "output_ext": "ivf", "frames": 0}]`, true},
		{"duplicate index", `[{"index": 0, "source_cmd": ["a"], "output_ext": "ivf", "frames": 1},` +
			`{"index": 0, "source_cmd": ["b"], "output_ext": "ivf", "frames": 1}]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			workDir := t.TempDir()
			if tt.write {
				if err := os.WriteFile(Path(workDir), []byte(tt.content), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			_, err := Load(workDir)
			if !errors.Is(err, models.ErrCorruptQueueState) {
				t.Errorf("Expected ErrCorruptQueueState, got %v", err)
			}
		})
	}
}

func TestSave_Empty(t *testing.T) {
	if err := Save(t.TempDir(), nil); err == nil {
		t.Error("Expected error saving an empty queue")
	}
}

func TestResume_FiltersDone(t *testing.T) {
	workDir := t.TempDir()
	a := newAssembler(workDir, 100)

	built, err := a.LoadOrBuild(false, []int{20, 40, 60, 80})
	if err != nil {
		t.Fatalf("LoadOrBuild failed: %v", err)
	}

	for _, dir := range []string{"split", "encode"} {
		if info, err := os.Stat(filepath.Join(workDir, dir)); err != nil || !info.IsDir() {
			t.Errorf("Expected %s directory to exist", dir)
		}
	}

	a.SetDoneReader(stubDone{"00001": 20, "00003": 20})
	q, err := a.LoadOrBuild(true, nil)
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}

	var want []string
	for _, c := range built.All {
		if c.Name() != "00001" && c.Name() != "00003" {
			want = append(want, c.Name())
		}
	}

	if strings.Join(chunkNames(q.Remaining), " ") != strings.Join(want, " ") {
		t.Errorf("Resume = %v; want %v", chunkNames(q.Remaining), want)
	}
	if strings.Join(chunkNames(q.All), " ") != strings.Join(chunkNames(built.All), " ") {
		t.Errorf("All = %v; want %v", chunkNames(q.All), chunkNames(built.All))
	}
	if q.FramesDone != 40 {
		t.Errorf("FramesDone = %d; want 40", q.FramesDone)
	}
}

func TestLoadOrBuild_FreshRunClearsPreviousState(t *testing.T) {
	workDir := t.TempDir()

	c := chunker.NewChunker("/media/source.mkv", workDir).
		SetMethod(chunker.MethodSegment).
		SetProber(fixedProber{frames: 10}).
		SetPassGenerator(stubPasses{workDir: workDir}).
		SetSegmenter(writeSegments{count: 5})
	a := NewAssembler(c, workDir)

	if _, err := a.LoadOrBuild(false, []int{10, 20, 30, 40}); err != nil {
		t.Fatalf("first LoadOrBuild failed: %v", err)
	}
	stale := filepath.Join(workDir, "encode", "00004.ivf")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(resume.Path(workDir), []byte(`{"done": {"00000": 10}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	c.SetSegmenter(writeSegments{count: 3})
	q, err := a.LoadOrBuild(false, []int{10, 20})
	if err != nil {
		t.Fatalf("second LoadOrBuild failed: %v", err)
	}

	if len(q.All) != 3 || models.TotalFrames(q.All) != 30 {
		t.Errorf("Expected 3 chunks and 30 frames, got %d chunks and %d frames",
			len(q.All), models.TotalFrames(q.All))
	}
	if _, err := os.Stat(resume.Path(workDir)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("done record of the previous run should be removed, stat err %v", err)
	}
	if _, err := os.Stat(stale); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("encoded chunk of the previous run should be removed, stat err %v", err)
	}

	loaded, err := Load(workDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 3 {
		t.Errorf("persisted queue has %d chunks; want 3", len(loaded))
	}
}

func TestLoadOrBuild_ResumeKeepsState(t *testing.T) {
	workDir := t.TempDir()
	a := newAssembler(workDir, 60)
	if _, err := a.LoadOrBuild(false, []int{30}); err != nil {
		t.Fatalf("LoadOrBuild failed: %v", err)
	}

	encoded := filepath.Join(workDir, "encode", "00000.ivf")
	if err := os.WriteFile(encoded, []byte("done"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := a.LoadOrBuild(true, nil); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if _, err := os.Stat(encoded); err != nil {
		t.Errorf("resume must not remove encoded chunks: %v", err)
	}
}

func TestResume_WithoutQueue(t *testing.T) {
	_, err := newAssembler(t.TempDir(), 100).LoadOrBuild(true, nil)
	if !errors.Is(err, models.ErrCorruptQueueState) {
		t.Errorf("Expected ErrCorruptQueueState, got %v", err)
	}
}

func TestResume_DoneReaderError(t *testing.T) {
	workDir := t.TempDir()
	a := newAssembler(workDir, 50)
	if _, err := a.LoadOrBuild(false, nil); err != nil {
		t.Fatalf("LoadOrBuild failed: %v", err)
	}

	a.SetDoneReader(failingDone{})
	if _, err := a.Resume(); err == nil || !strings.Contains(err.Error(), "unreadable") {
		t.Errorf("Expected done reader error, got %v", err)
	}
}

func TestResume_DoneFile(t *testing.T) {
	workDir := t.TempDir()
	a := newAssembler(workDir, 90)
	if _, err := a.LoadOrBuild(false, []int{30, 60}); err != nil {
		t.Fatalf("LoadOrBuild failed: %v", err)
	}

	done := `{"done": {"00000": 30, "00002": 30}, "audio_done": false}`
	if err := os.WriteFile(filepath.Join(workDir, "done.json"), []byte(done), 0o644); err != nil {
		t.Fatal(err)
	}

	q, err := a.Resume()
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if len(q.Remaining) != 1 || q.Remaining[0].Name() != "00001" {
		t.Errorf("Expected only 00001 to remain, got %v", chunkNames(q.Remaining))
	}
	if len(q.All) != 3 || q.FramesDone != 60 {
		t.Errorf("Expected 3 chunks and 60 frames done, got %d and %d", len(q.All), q.FramesDone)
	}
}

func TestFind(t *testing.T) {
	chunks := []*models.Chunk{{Index: 0}, {Index: 12}}
	if c := Find(chunks, "00012"); c == nil || c.Index != 12 {
		t.Errorf("Find(00012) = %v", c)
	}
	if c := Find(chunks, "00005"); c != nil {
		t.Errorf("Find(00005) should be nil, got %v", c)
	}
}
