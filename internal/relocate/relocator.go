package relocate

import (
	"context"
	"fmt"
	"log/slog"

	"scribe/internal/captions"
	"scribe/internal/logging"
	"scribe/internal/media"
	"scribe/internal/objectstore"
	"scribe/internal/registry"
	"scribe/internal/services"
	"scribe/internal/transcribe"
)

// writeAccessMarker is the temporary object the speech service writes to
// verify output-bucket permissions before a job runs.
const writeAccessMarker = ".write_access_check_file.temp"

// Relocator copies raw transcription outputs to canonical caption keys in
// the output bucket and triggers the merge for split files.
type Relocator struct {
	output    objectstore.Store
	gapMillis int64
	logger    *slog.Logger
}

// New constructs a relocator over the output bucket.
func New(output objectstore.Store, gapMillis int64, logger *slog.Logger) *Relocator {
	return &Relocator{
		output:    output,
		gapMillis: gapMillis,
		logger:    logging.NewComponentLogger(logger, "relocate"),
	}
}

// CanonicalKey returns the caption's final location: "{base}/{language}.srt"
// for whole files, "{base}/chunk_NNN/{language}.srt" for chunks.
func CanonicalKey(baseName string, chunkIndex int, languageCode string) string {
	label := captions.LanguageLabel(languageCode)
	if chunkIndex > 0 {
		return baseName + "/" + media.ChunkLabel(chunkIndex) + "/" + label + ".srt"
	}
	return baseName + "/" + label + ".srt"
}

// Relocate copies a completed job's raw output to its canonical key, then
// deletes the job's transient artifacts best-effort. Returns the final key.
func (r *Relocator) Relocate(ctx context.Context, job *registry.Job) (string, error) {
	if job.Status != transcribe.StatusCompleted {
		return "", services.Wrap(services.ErrValidation, "relocate", "relocate", "job "+job.ID+" is not completed", nil)
	}
	if job.OutputKey == "" {
		return "", services.Wrap(services.ErrValidation, "relocate", "relocate", "job "+job.ID+" has no output location", nil)
	}

	body, err := r.output.Get(ctx, job.OutputKey)
	if err != nil {
		return "", fmt.Errorf("fetch raw output: %w", err)
	}

	finalKey := CanonicalKey(job.BaseName, job.ChunkIndex, job.Language)
	if err := r.output.Put(ctx, finalKey, body); err != nil {
		return "", fmt.Errorf("write caption: %w", err)
	}

	r.cleanupArtifacts(ctx, job.ID)

	r.logger.Info("caption relocated",
		logging.String(logging.FieldJobID, job.ID),
		logging.String("final_key", finalKey),
	)
	return finalKey, nil
}

// RelocateAll relocates every completed job, then merges per-chunk captions
// into the top-level track for each language of a split file. Per-chunk
// caption files are retained so the merge can be retried.
func (r *Relocator) RelocateAll(ctx context.Context, jobs []*registry.Job, route media.Route) error {
	languages := make(map[string]struct{})
	baseName := ""
	totalChunks := 0
	for _, job := range jobs {
		if _, err := r.Relocate(ctx, job); err != nil {
			return err
		}
		languages[job.Language] = struct{}{}
		baseName = job.BaseName
		if job.TotalChunks > totalChunks {
			totalChunks = job.TotalChunks
		}
	}
	if route != media.RouteSplit {
		return nil
	}
	for language := range languages {
		if _, err := r.MergeLanguage(ctx, baseName, language, totalChunks); err != nil {
			return err
		}
	}
	return nil
}

// MergeLanguage combines the per-chunk caption tracks for one language, in
// chunk order, and writes the result to the top-level canonical key,
// superseding the per-chunk outputs for downstream consumers. Missing chunk
// outputs are tolerated: the merge proceeds with the subset found and the
// count mismatch is logged, since partial captions are more useful than none.
func (r *Relocator) MergeLanguage(ctx context.Context, baseName, languageCode string, totalChunks int) (string, error) {
	var tracks []captions.Track
	found := 0
	for index := 1; index <= totalChunks; index++ {
		chunkKey := CanonicalKey(baseName, index, languageCode)
		body, err := r.output.Get(ctx, chunkKey)
		if err != nil {
			r.logger.Warn("chunk caption missing, merging without it",
				logging.String("chunk_key", chunkKey),
				logging.Error(err),
			)
			continue
		}
		track, err := captions.Parse(string(body))
		if err != nil {
			return "", services.Wrap(services.ErrValidation, "relocate", "merge", "parse "+chunkKey, err)
		}
		tracks = append(tracks, track)
		found++
	}
	if found < totalChunks {
		r.logger.Warn("merging with fewer chunk captions than expected",
			logging.String("base_name", baseName),
			logging.String(logging.FieldLanguage, languageCode),
			logging.Int("expected", totalChunks),
			logging.Int("found", found),
		)
	}
	if len(tracks) == 0 {
		return "", services.Wrap(services.ErrValidation, "relocate", "merge", "no chunk captions found for "+baseName, nil)
	}

	merged, err := captions.Merge(tracks, r.gapMillis)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "relocate", "merge", baseName, err)
	}

	finalKey := CanonicalKey(baseName, 0, languageCode)
	if err := r.output.Put(ctx, finalKey, []byte(captions.Format(merged))); err != nil {
		return "", fmt.Errorf("write merged caption: %w", err)
	}

	r.logger.Info("chunk captions merged",
		logging.String("base_name", baseName),
		logging.String(logging.FieldLanguage, languageCode),
		logging.Int("chunks", found),
		logging.Int("cues", merged.Len()),
		logging.String("final_key", finalKey),
	)
	return finalKey, nil
}

// cleanupArtifacts deletes the job's transient outputs (anything under the
// job id prefix plus the service's write-access marker). Failures are
// logged, never escalated, and never block the success path.
func (r *Relocator) cleanupArtifacts(ctx context.Context, jobID string) {
	keys, err := r.output.List(ctx, jobID)
	if err != nil {
		r.logger.Warn("failed to list transient artifacts",
			logging.String(logging.FieldJobID, jobID),
			logging.Error(err),
		)
		keys = nil
	}
	keys = append(keys, writeAccessMarker)
	for _, key := range keys {
		if err := r.output.Delete(ctx, key); err != nil {
			r.logger.Warn("failed to delete transient artifact",
				logging.String("artifact_key", key),
				logging.Error(err),
			)
		}
	}
}
