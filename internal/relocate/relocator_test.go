package relocate_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"scribe/internal/captions"
	"scribe/internal/logging"
	"scribe/internal/media"
	"scribe/internal/registry"
	"scribe/internal/relocate"
	"scribe/internal/services"
	"scribe/internal/testsupport"
	"scribe/internal/transcribe"
)

func chunkCaption(startMillis int64, text string) string {
	track := captions.Track{Cues: []captions.Cue{
		{Index: 1, Start: startMillis, End: startMillis + 1500, Text: text},
	}}
	return captions.Format(track)
}

func completedJob(id, baseName string, chunkIndex, totalChunks int) *registry.Job {
	return &registry.Job{
		ID:          id,
		Language:    "en-US",
		Status:      transcribe.StatusCompleted,
		BaseName:    baseName,
		ChunkIndex:  chunkIndex,
		TotalChunks: totalChunks,
		OutputKey:   id + ".srt",
	}
}

func TestCanonicalKey(t *testing.T) {
	if got := relocate.CanonicalKey("demo", 0, "en-US"); got != "demo/english.srt" {
		t.Fatalf("whole-file key = %q", got)
	}
	if got := relocate.CanonicalKey("demo", 2, "es-ES"); got != "demo/chunk_002/spanish.srt" {
		t.Fatalf("chunk key = %q", got)
	}
}

func TestRelocateCopiesAndCleansUp(t *testing.T) {
	output := testsupport.NewMemoryStore()
	output.Seed("demo-en-1.srt", []byte(chunkCaption(0, "hello")))
	output.Seed("demo-en-1.srt.temp", []byte("scratch"))
	output.Seed(".write_access_check_file.temp", []byte(""))
	relocator := relocate.New(output, 100, logging.NewNop())

	job := completedJob("demo-en-1", "demo", 0, 0)
	finalKey, err := relocator.Relocate(context.Background(), job)
	if err != nil {
		t.Fatalf("Relocate failed: %v", err)
	}
	if finalKey != "demo/english.srt" {
		t.Fatalf("final key = %q", finalKey)
	}

	body, err := output.Get(context.Background(), finalKey)
	if err != nil {
		t.Fatalf("canonical caption missing: %v", err)
	}
	if !strings.Contains(string(body), "hello") {
		t.Fatalf("caption body lost: %q", body)
	}

	for _, key := range output.Keys() {
		if strings.HasPrefix(key, "demo-en-1") || key == ".write_access_check_file.temp" {
			t.Fatalf("transient artifact %q survived cleanup", key)
		}
	}
}

func TestRelocateRejectsIncompleteJob(t *testing.T) {
	relocator := relocate.New(testsupport.NewMemoryStore(), 100, logging.NewNop())

	pending := completedJob("demo-en-1", "demo", 0, 0)
	pending.Status = transcribe.StatusSubmitted
	if _, err := relocator.Relocate(context.Background(), pending); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	noOutput := completedJob("demo-en-2", "demo", 0, 0)
	noOutput.OutputKey = ""
	if _, err := relocator.Relocate(context.Background(), noOutput); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func seedChunkCaptions(output *testsupport.MemoryStore, baseName string, chunks int) {
	for i := 1; i <= chunks; i++ {
		key := relocate.CanonicalKey(baseName, i, "en-US")
		output.Seed(key, []byte(chunkCaption(0, fmt.Sprintf("chunk %d", i))))
	}
}

func TestMergeLanguageCombinesChunks(t *testing.T) {
	output := testsupport.NewMemoryStore()
	seedChunkCaptions(output, "movie", 3)
	relocator := relocate.New(output, 100, logging.NewNop())

	finalKey, err := relocator.MergeLanguage(context.Background(), "movie", "en-US", 3)
	if err != nil {
		t.Fatalf("MergeLanguage failed: %v", err)
	}
	if finalKey != "movie/english.srt" {
		t.Fatalf("final key = %q", finalKey)
	}

	body, err := output.Get(context.Background(), finalKey)
	if err != nil {
		t.Fatalf("merged caption missing: %v", err)
	}
	track, err := captions.Parse(string(body))
	if err != nil {
		t.Fatalf("merged caption does not parse: %v", err)
	}
	if track.Len() != 3 {
		t.Fatalf("expected 3 cues, got %d", track.Len())
	}
	for i := 1; i < track.Len(); i++ {
		if track.Cues[i].Start <= track.Cues[i-1].End {
			t.Fatalf("cue %d overlaps previous: %#v", i, track.Cues)
		}
	}
	// Chunk captions survive so the merge can be re-run.
	if _, err := output.Get(context.Background(), "movie/chunk_001/english.srt"); err != nil {
		t.Fatalf("chunk caption removed by merge: %v", err)
	}
}

func TestMergeLanguageToleratesMissingChunk(t *testing.T) {
	output := testsupport.NewMemoryStore()
	output.Seed(relocate.CanonicalKey("movie", 1, "en-US"), []byte(chunkCaption(0, "chunk 1")))
	output.Seed(relocate.CanonicalKey("movie", 3, "en-US"), []byte(chunkCaption(0, "chunk 3")))
	relocator := relocate.New(output, 100, logging.NewNop())

	finalKey, err := relocator.MergeLanguage(context.Background(), "movie", "en-US", 3)
	if err != nil {
		t.Fatalf("MergeLanguage failed: %v", err)
	}
	body, err := output.Get(context.Background(), finalKey)
	if err != nil {
		t.Fatalf("merged caption missing: %v", err)
	}
	track, err := captions.Parse(string(body))
	if err != nil {
		t.Fatalf("merged caption does not parse: %v", err)
	}
	if track.Len() != 2 {
		t.Fatalf("expected 2 cues from surviving chunks, got %d", track.Len())
	}
}

func TestMergeLanguageNoChunksIsError(t *testing.T) {
	relocator := relocate.New(testsupport.NewMemoryStore(), 100, logging.NewNop())
	if _, err := relocator.MergeLanguage(context.Background(), "movie", "en-US", 2); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRelocateAllMergesSplitRoute(t *testing.T) {
	output := testsupport.NewMemoryStore()
	jobs := make([]*registry.Job, 0, 2)
	for i := 1; i <= 2; i++ {
		job := completedJob(fmt.Sprintf("movie-chunk%d-en", i), "movie", i, 2)
		output.Seed(job.OutputKey, []byte(chunkCaption(0, fmt.Sprintf("chunk %d", i))))
		jobs = append(jobs, job)
	}
	relocator := relocate.New(output, 100, logging.NewNop())

	if err := relocator.RelocateAll(context.Background(), jobs, media.RouteSplit); err != nil {
		t.Fatalf("RelocateAll failed: %v", err)
	}
	if _, err := output.Get(context.Background(), "movie/english.srt"); err != nil {
		t.Fatalf("merged caption missing: %v", err)
	}
	if _, err := output.Get(context.Background(), "movie/chunk_002/english.srt"); err != nil {
		t.Fatalf("chunk caption missing: %v", err)
	}
}
