package split

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"scribe/internal/logging"
	"scribe/internal/media"
	"scribe/internal/objectstore"
	"scribe/internal/services"
)

const segmentFilePrefix = "segment_"

// Splitter downloads an uploaded object, slices it into bounded-duration
// segments, and uploads each chunk next to the source under deterministic
// keys.
type Splitter struct {
	store      objectstore.Store
	stagingDir string
	ffmpegBin  string
	logger     *slog.Logger

	// runCommand is swapped in tests for a fake tool.
	runCommand func(ctx context.Context, bin string, args ...string) error
}

// New constructs a splitter that stages files under stagingDir.
func New(store objectstore.Store, stagingDir, ffmpegBin string, logger *slog.Logger) *Splitter {
	s := &Splitter{
		store:      store,
		stagingDir: stagingDir,
		ffmpegBin:  ffmpegBin,
		logger:     logging.NewComponentLogger(logger, "split"),
	}
	s.runCommand = s.execCommand
	return s
}

// Split invokes the splitter tool once, synchronously, and returns
// SegmentRefs in chunk order (1..N). Chunk objects are uploaded to
// "{baseName}/chunk_{3-digit}{ext}". Zero produced segments or abnormal
// tool termination is an error; partially uploaded chunks are deleted
// best-effort on failure.
func (s *Splitter) Split(ctx context.Context, bucket, key string, segmentSeconds int) ([]media.SegmentRef, error) {
	baseName := media.BaseName(key)
	ext := path.Ext(key)

	workDir, err := os.MkdirTemp(s.stagingDir, baseName+"-")
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "split", "staging", "create work directory", err)
	}
	defer os.RemoveAll(workDir)

	inputPath := filepath.Join(workDir, "input"+ext)
	body, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("download source: %w", err)
	}
	if err := os.WriteFile(inputPath, body, 0o644); err != nil {
		return nil, services.Wrap(services.ErrTransient, "split", "staging", "write source file", err)
	}

	outputPattern := filepath.Join(workDir, segmentFilePrefix+"%03d"+ext)
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", inputPath,
		"-f", "segment",
		"-segment_time", fmt.Sprintf("%d", segmentSeconds),
		"-reset_timestamps", "1",
		"-map", "0",
		"-c", "copy",
		outputPattern,
	}
	if err := s.runCommand(ctx, s.ffmpegBin, args...); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "split", "segment", key, err)
	}

	segmentPaths, err := collectSegments(workDir, ext)
	if err != nil {
		return nil, err
	}
	if len(segmentPaths) == 0 {
		return nil, services.Wrap(services.ErrValidation, "split", "segment", "splitter produced zero segments for "+key, nil)
	}

	refs := make([]media.SegmentRef, 0, len(segmentPaths))
	var uploaded []string
	for i, segmentPath := range segmentPaths {
		index := i + 1
		chunkKey := baseName + "/" + media.ChunkLabel(index) + ext
		data, err := os.ReadFile(segmentPath)
		if err != nil {
			s.cleanupUploads(ctx, uploaded)
			return nil, services.Wrap(services.ErrTransient, "split", "upload", "read segment file", err)
		}
		if err := s.store.Put(ctx, chunkKey, data); err != nil {
			s.cleanupUploads(ctx, uploaded)
			return nil, fmt.Errorf("upload %s: %w", chunkKey, err)
		}
		uploaded = append(uploaded, chunkKey)
		refs = append(refs, media.SegmentRef{
			Bucket:     bucket,
			Key:        chunkKey,
			BaseName:   baseName,
			ChunkIndex: index,
		})
	}
	for i := range refs {
		refs[i].TotalChunks = len(refs)
	}

	s.logger.Info("media split into segments",
		logging.String("source_key", key),
		logging.Int("segments", len(refs)),
		logging.Int("segment_seconds", segmentSeconds),
	)
	return refs, nil
}

// cleanupUploads removes partially uploaded chunks after a failure.
// Cleanup failures are logged, never escalated.
func (s *Splitter) cleanupUploads(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to clean up partial chunk upload",
				logging.String("chunk_key", key),
				logging.Error(err),
			)
		}
	}
}

func (s *Splitter) execCommand(ctx context.Context, bin string, args ...string) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return fmt.Errorf("%s: %w: %s", bin, err, detail)
		}
		return fmt.Errorf("%s: %w", bin, err)
	}
	return nil
}

func collectSegments(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "split", "segment", "read work directory", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, segmentFilePrefix) && strings.HasSuffix(name, ext) {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
