package testsupport

import (
	"context"
	"fmt"
	"sync"

	"scribe/internal/transcribe"
)

// FakeTranscribe is a scripted transcribe.Client. Jobs report submitted
// until they have been polled CompleteAfter times, then flip to completed
// (or failed, for languages listed in FailLanguages). On completion the
// fake writes an SRT artifact into Output under "{jobID}.srt", mirroring
// how the real service drops its subtitle file in the output bucket.
type FakeTranscribe struct {
	// CompleteAfter is the number of polls before a job turns terminal.
	// Zero means the first poll already observes the terminal state.
	CompleteAfter int
	// FailLanguages maps a language code to a failure reason. Jobs for
	// those languages terminate failed instead of completed.
	FailLanguages map[string]string
	// Output receives the raw subtitle artifact on completion. Optional.
	Output *MemoryStore
	// Caption overrides the artifact body. Optional.
	Caption func(in transcribe.StartJobInput) []byte

	mu   sync.Mutex
	jobs map[string]*fakeJob
}

type fakeJob struct {
	in    transcribe.StartJobInput
	polls int
	state transcribe.JobState
}

var _ transcribe.Client = (*FakeTranscribe)(nil)

// NewFakeTranscribe returns a fake whose jobs complete on the first poll.
func NewFakeTranscribe() *FakeTranscribe {
	return &FakeTranscribe{jobs: make(map[string]*fakeJob)}
}

// Started returns how many jobs have been submitted.
func (f *FakeTranscribe) Started() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

func (f *FakeTranscribe) StartJob(_ context.Context, in transcribe.StartJobInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.jobs == nil {
		f.jobs = make(map[string]*fakeJob)
	}
	if _, exists := f.jobs[in.JobID]; exists {
		return fmt.Errorf("job %s already exists", in.JobID)
	}
	f.jobs[in.JobID] = &fakeJob{
		in:    in,
		state: transcribe.JobState{Status: transcribe.StatusSubmitted},
	}
	return nil
}

func (f *FakeTranscribe) GetJob(_ context.Context, jobID string) (transcribe.JobState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return transcribe.JobState{}, fmt.Errorf("job %s not found", jobID)
	}
	if job.state.Status.IsTerminal() {
		return job.state, nil
	}
	job.polls++
	if job.polls <= f.CompleteAfter {
		return job.state, nil
	}

	if reason, failed := f.FailLanguages[job.in.LanguageCode]; failed {
		job.state = transcribe.JobState{
			Status:        transcribe.StatusFailed,
			FailureReason: reason,
		}
		return job.state, nil
	}

	outputKey := jobID + ".srt"
	if f.Output != nil {
		body := defaultCaption(job.in)
		if f.Caption != nil {
			body = f.Caption(job.in)
		}
		f.Output.Seed(outputKey, body)
	}
	job.state = transcribe.JobState{
		Status:    transcribe.StatusCompleted,
		OutputKey: outputKey,
	}
	return job.state, nil
}

func defaultCaption(in transcribe.StartJobInput) []byte {
	text := fmt.Sprintf("caption for %s (%s)", in.MediaURI, in.LanguageCode)
	return []byte("1\n00:00:01,000 --> 00:00:02,500\n" + text + "\n")
}
