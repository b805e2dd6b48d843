package split

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"scribe/internal/logging"
	"scribe/internal/services"
	"scribe/internal/testsupport"
)

// fakeTool simulates the splitter binary by writing count segment files to
// the output location named in the final argument.
func fakeTool(count int) func(ctx context.Context, bin string, args ...string) error {
	return func(ctx context.Context, bin string, args ...string) error {
		pattern := args[len(args)-1]
		for i := 0; i < count; i++ {
			path := fmt.Sprintf(pattern, i)
			body := fmt.Sprintf("segment %d", i)
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				return err
			}
		}
		return nil
	}
}

func newTestSplitter(t *testing.T, store *testsupport.MemoryStore) *Splitter {
	t.Helper()
	return New(store, t.TempDir(), "ffmpeg", logging.NewNop())
}

func TestSplitUploadsChunksInOrder(t *testing.T) {
	store := testsupport.NewMemoryStore()
	store.Seed("media/movie.mp4", []byte("source media"))
	splitter := newTestSplitter(t, store)
	splitter.runCommand = fakeTool(3)

	refs, err := splitter.Split(context.Background(), "uploads", "media/movie.mp4", 300)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(refs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(refs))
	}
	for i, ref := range refs {
		wantKey := fmt.Sprintf("movie/chunk_%03d.mp4", i+1)
		if ref.Key != wantKey {
			t.Fatalf("segment %d key = %q, want %q", i, ref.Key, wantKey)
		}
		if ref.ChunkIndex != i+1 || ref.TotalChunks != 3 {
			t.Fatalf("segment %d numbering: %#v", i, ref)
		}
		if ref.Bucket != "uploads" || ref.BaseName != "movie" {
			t.Fatalf("segment %d identity: %#v", i, ref)
		}
		if _, err := store.Get(context.Background(), wantKey); err != nil {
			t.Fatalf("chunk %q not uploaded: %v", wantKey, err)
		}
	}
}

func TestSplitZeroSegmentsIsValidationError(t *testing.T) {
	store := testsupport.NewMemoryStore()
	store.Seed("media/empty.mp4", []byte("source media"))
	splitter := newTestSplitter(t, store)
	splitter.runCommand = fakeTool(0)

	_, err := splitter.Split(context.Background(), "uploads", "media/empty.mp4", 300)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSplitToolFailure(t *testing.T) {
	store := testsupport.NewMemoryStore()
	store.Seed("media/movie.mp4", []byte("source media"))
	splitter := newTestSplitter(t, store)
	splitter.runCommand = func(ctx context.Context, bin string, args ...string) error {
		return errors.New("exit status 1")
	}

	_, err := splitter.Split(context.Background(), "uploads", "media/movie.mp4", 300)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestSplitMissingSourceObject(t *testing.T) {
	store := testsupport.NewMemoryStore()
	splitter := newTestSplitter(t, store)
	splitter.runCommand = fakeTool(2)

	_, err := splitter.Split(context.Background(), "uploads", "media/missing.mp4", 300)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestSplitCleansUpPartialUploads(t *testing.T) {
	store := testsupport.NewMemoryStore()
	store.Seed("media/movie.mp4", []byte("source media"))
	failing := &failOnPut{MemoryStore: store, failKey: "movie/chunk_002.mp4"}
	splitter := New(failing, t.TempDir(), "ffmpeg", logging.NewNop())
	splitter.runCommand = fakeTool(2)

	_, err := splitter.Split(context.Background(), "uploads", "media/movie.mp4", 300)
	if err == nil {
		t.Fatal("expected upload failure")
	}
	if _, err := store.Get(context.Background(), "movie/chunk_001.mp4"); err == nil {
		t.Fatal("partial chunk upload was not cleaned up")
	}
}

func TestCollectSegmentsFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"segment_001.mp4", "segment_000.mp4", "input.mp4", "segment_002.srt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	paths, err := collectSegments(dir, ".mp4")
	if err != nil {
		t.Fatalf("collectSegments failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 segment files, got %v", paths)
	}
	if filepath.Base(paths[0]) != "segment_000.mp4" || filepath.Base(paths[1]) != "segment_001.mp4" {
		t.Fatalf("unexpected ordering: %v", paths)
	}
}

// failOnPut rejects one specific chunk upload.
type failOnPut struct {
	*testsupport.MemoryStore
	failKey string
}

func (f *failOnPut) Put(ctx context.Context, key string, body []byte) error {
	if key == f.failKey {
		return errors.New("upload rejected")
	}
	return f.MemoryStore.Put(ctx, key, body)
}
