package chunker

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"chunkqueue/models"
)

const (
	loadScriptName = "loadscript.vpy"
	indexCacheName = "ffms2cache.ffindex"
)

// Indexer builds the frame index a load script reads, so that chunk commands
// only ever read it.
type Indexer interface {
	Index(script string) error
}

// VSPipeIndexer evaluates the load script once with vspipe, which makes
// ffms2 write its cache file.
type VSPipeIndexer struct {
	VSPipe string
}

// Index runs vspipe -i on the script.
func (v VSPipeIndexer) Index(script string) error {
	bin := v.VSPipe
	if bin == "" {
		bin = "vspipe"
	}

	output, err := exec.Command(bin, "-i", script, "-").CombinedOutput()
	if err != nil {
		return fmt.Errorf("frame index build failed: %w (output: %s)", err, string(output))
	}
	return nil
}

// scriptBuilder seeks frame-accurately with vspipe over a shared ffms2 index.
// Size is the frame count.
type scriptBuilder struct{}

func (scriptBuilder) Build(env *Env, splits []int) ([]*models.Chunk, error) {
	bounds, err := probeBoundaries(env, splits)
	if err != nil {
		return nil, err
	}

	script, err := writeLoadScript(env)
	if err != nil {
		return nil, err
	}

	indexer := env.Indexer
	if indexer == nil {
		indexer = VSPipeIndexer{VSPipe: env.VSPipe}
	}
	if err := indexer.Index(script); err != nil {
		return nil, err
	}
	env.Logger.Debug("frame index built", "script", script)

	chunks := make([]*models.Chunk, 0, len(bounds))
	for index, b := range bounds {
		cmd := []string{
			env.VSPipe, script, "-y", "-",
			"-s", strconv.Itoa(b.Start),
			"-e", strconv.Itoa(b.LastFrame()),
		}

		c, err := buildChunk(env, index, cmd, int64(b.Frames()), b.Frames())
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}

	return chunks, nil
}

// writeLoadScript writes the vapoursynth script that opens the source with
// ffms2 and returns its absolute path.
func writeLoadScript(env *Env) (string, error) {
	source, err := filepath.Abs(env.SourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve source path: %w", err)
	}

	splitDir, err := filepath.Abs(env.SplitDir())
	if err != nil {
		return "", fmt.Errorf("failed to resolve split directory: %w", err)
	}

	script := filepath.Join(splitDir, loadScriptName)
	cache := filepath.Join(splitDir, indexCacheName)

	body, err := loadScript(source, cache)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(splitDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create split directory: %w", err)
	}

	if err := os.WriteFile(script, []byte(body), 0644); err != nil {
		return "", fmt.Errorf("failed to write load script: %w", err)
	}

	return script, nil
}

// loadScript renders the script body. Paths become quoted string literals,
// which requires valid UTF-8 without control characters.
func loadScript(source, cache string) (string, error) {
	for _, p := range []string{source, cache} {
		if err := models.CheckEmbeddablePath(p); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("from vapoursynth import core\ncore.ffms2.Source(%s, cachefile=%s).set_output()\n",
		strconv.Quote(source), strconv.Quote(cache)), nil
}
