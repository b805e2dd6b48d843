package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"scribe/internal/logging"
	"scribe/internal/media"
	"scribe/internal/registry"
	"scribe/internal/services"
	"scribe/internal/transcribe"
)

// Manager submits transcription jobs and records them in the registry.
type Manager struct {
	client       transcribe.Client
	store        *registry.Store
	outputBucket string
	logger       *slog.Logger
	now          func() time.Time
}

// NewManager constructs a job manager. Completed captions land in
// outputBucket under keys derived from the job id.
func NewManager(client transcribe.Client, store *registry.Store, outputBucket string, logger *slog.Logger) *Manager {
	return &Manager{
		client:       client,
		store:        store,
		outputBucket: outputBucket,
		logger:       logging.NewComponentLogger(logger, "jobs"),
		now:          time.Now,
	}
}

// Submit starts one transcription job per language for the segment and
// persists a registry record for each successful submission. Languages are
// submitted concurrently; submission order is not significant. On any
// submission failure no record is written for that language and the error
// propagates so the caller can retry the whole segment.
func (m *Manager) Submit(ctx context.Context, executionID int64, segment media.SegmentRef, languages []string) (map[string]*registry.Job, error) {
	if len(languages) == 0 {
		return nil, services.Wrap(services.ErrValidation, "jobs", "submit", "no languages configured", nil)
	}

	submitted := make(map[string]*registry.Job, len(languages))
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	for _, language := range languages {
		wg.Add(1)
		go func(language string) {
			defer wg.Done()
			job, err := m.submitOne(ctx, executionID, segment, language)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			submitted[language] = job
		}(language)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return submitted, nil
}

func (m *Manager) submitOne(ctx context.Context, executionID int64, segment media.SegmentRef, language string) (*registry.Job, error) {
	jobID := m.jobID(segment, language)
	mediaURI := fmt.Sprintf("s3://%s/%s", segment.Bucket, segment.Key)

	err := m.client.StartJob(ctx, transcribe.StartJobInput{
		JobID:        jobID,
		MediaURI:     mediaURI,
		LanguageCode: language,
		OutputBucket: m.outputBucket,
	})
	if err != nil {
		return nil, fmt.Errorf("submit %s: %w", segment.Label(), err)
	}

	job := &registry.Job{
		ID:          jobID,
		ExecutionID: executionID,
		Language:    language,
		Status:      transcribe.StatusSubmitted,
		OriginalKey: segment.Key,
		BaseName:    segment.BaseName,
		MediaKey:    segment.Key,
		ChunkIndex:  segment.ChunkIndex,
		TotalChunks: segment.TotalChunks,
	}
	if err := m.store.PutJob(ctx, job); err != nil {
		return nil, fmt.Errorf("record job %s: %w", jobID, err)
	}

	m.logger.Info("transcription job submitted",
		logging.String(logging.FieldJobID, jobID),
		logging.String(logging.FieldLanguage, language),
		logging.String("media_uri", mediaURI),
	)
	return job, nil
}

// jobID derives a job name unique across (segment, language, submission
// instant) and safe for the speech service's naming rules. The random
// suffix keeps resubmissions within the same instant from colliding; the
// speech service rejects a reused job name outright.
func (m *Manager) jobID(segment media.SegmentRef, language string) string {
	label := strings.ReplaceAll(segment.Label(), "/", "-")
	return label + "-" + sanitizeJobPart(language) +
		"-" + strconv.FormatInt(m.now().UTC().UnixNano(), 10) +
		"-" + uuid.NewString()[:8]
}

func sanitizeJobPart(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
