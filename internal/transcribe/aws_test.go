package transcribe_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awstranscribe "github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"github.com/aws/smithy-go"

	"scribe/internal/services"
	"scribe/internal/transcribe"
)

type fakeAPI struct {
	startInput *awstranscribe.StartTranscriptionJobInput
	startErr   error
	getOutput  *awstranscribe.GetTranscriptionJobOutput
	getErr     error
}

func (f *fakeAPI) StartTranscriptionJob(ctx context.Context, params *awstranscribe.StartTranscriptionJobInput, optFns ...func(*awstranscribe.Options)) (*awstranscribe.StartTranscriptionJobOutput, error) {
	f.startInput = params
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &awstranscribe.StartTranscriptionJobOutput{}, nil
}

func (f *fakeAPI) GetTranscriptionJob(ctx context.Context, params *awstranscribe.GetTranscriptionJobInput, optFns ...func(*awstranscribe.Options)) (*awstranscribe.GetTranscriptionJobOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOutput, nil
}

type apiError struct{ code string }

func (e apiError) Error() string                 { return e.code }
func (e apiError) ErrorCode() string             { return e.code }
func (e apiError) ErrorMessage() string          { return e.code }
func (e apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

func TestStartJobRequestsSubtitles(t *testing.T) {
	api := &fakeAPI{}
	client := transcribe.NewAWSFromAPI(api)

	err := client.StartJob(context.Background(), transcribe.StartJobInput{
		JobID:        "demo-en-us-1",
		MediaURI:     "s3://uploads/media/demo.mp4",
		LanguageCode: "en-US",
		OutputBucket: "captions",
	})
	if err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}

	in := api.startInput
	if in == nil {
		t.Fatal("no request captured")
	}
	if aws.ToString(in.TranscriptionJobName) != "demo-en-us-1" {
		t.Fatalf("job name = %q", aws.ToString(in.TranscriptionJobName))
	}
	if in.LanguageCode != types.LanguageCode("en-US") {
		t.Fatalf("language code = %q", in.LanguageCode)
	}
	if aws.ToString(in.Media.MediaFileUri) != "s3://uploads/media/demo.mp4" {
		t.Fatalf("media uri = %q", aws.ToString(in.Media.MediaFileUri))
	}
	if in.Subtitles == nil || len(in.Subtitles.Formats) != 1 || in.Subtitles.Formats[0] != types.SubtitleFormatSrt {
		t.Fatalf("subtitle formats = %#v", in.Subtitles)
	}
}

func jobOutput(status types.TranscriptionJobStatus, uris []string, reason string) *awstranscribe.GetTranscriptionJobOutput {
	job := &types.TranscriptionJob{TranscriptionJobStatus: status}
	if uris != nil {
		job.Subtitles = &types.SubtitlesOutput{SubtitleFileUris: uris}
	}
	if reason != "" {
		job.FailureReason = aws.String(reason)
	}
	return &awstranscribe.GetTranscriptionJobOutput{TranscriptionJob: job}
}

func TestGetJobStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status types.TranscriptionJobStatus
		want   transcribe.Status
	}{
		{"queued", types.TranscriptionJobStatusQueued, transcribe.StatusSubmitted},
		{"in progress", types.TranscriptionJobStatusInProgress, transcribe.StatusSubmitted},
		{"completed", types.TranscriptionJobStatusCompleted, transcribe.StatusCompleted},
		{"failed", types.TranscriptionJobStatusFailed, transcribe.StatusFailed},
	}
	for _, tc := range cases {
		api := &fakeAPI{getOutput: jobOutput(tc.status, nil, "")}
		client := transcribe.NewAWSFromAPI(api)
		state, err := client.GetJob(context.Background(), "demo")
		if err != nil {
			t.Fatalf("%s: GetJob failed: %v", tc.name, err)
		}
		if state.Status != tc.want {
			t.Errorf("%s: status = %q, want %q", tc.name, state.Status, tc.want)
		}
	}
}

func TestGetJobExtractsSubtitleKey(t *testing.T) {
	cases := map[string]string{
		"s3://captions/demo-en-1.srt":                                       "demo-en-1.srt",
		"https://captions.s3.us-east-1.amazonaws.com/demo-en-1.srt":         "demo-en-1.srt",
		"https://s3.us-east-1.amazonaws.com/captions/nested/demo-en-1.srt":  "nested/demo-en-1.srt",
	}
	for uri, want := range cases {
		api := &fakeAPI{getOutput: jobOutput(
			types.TranscriptionJobStatusCompleted,
			[]string{"https://captions.s3.us-east-1.amazonaws.com/demo-en-1.vtt", uri},
			"",
		)}
		client := transcribe.NewAWSFromAPI(api)
		state, err := client.GetJob(context.Background(), "demo")
		if err != nil {
			t.Fatalf("GetJob failed: %v", err)
		}
		if state.OutputKey != want {
			t.Errorf("uri %q: output key = %q, want %q", uri, state.OutputKey, want)
		}
	}
}

func TestGetJobReportsFailureReason(t *testing.T) {
	api := &fakeAPI{getOutput: jobOutput(types.TranscriptionJobStatusFailed, nil, "unsupported media format")}
	client := transcribe.NewAWSFromAPI(api)
	state, err := client.GetJob(context.Background(), "demo")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if state.Status != transcribe.StatusFailed || state.FailureReason != "unsupported media format" {
		t.Fatalf("unexpected state: %#v", state)
	}
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		code    string
		marker  error
		retries bool
	}{
		{"BadRequestException", services.ErrValidation, false},
		{"ConflictException", services.ErrValidation, false},
		{"NotFoundException", services.ErrNotFound, false},
		{"InternalFailureException", services.ErrTransient, true},
	}
	for _, tc := range cases {
		api := &fakeAPI{startErr: apiError{code: tc.code}}
		client := transcribe.NewAWSFromAPI(api)
		err := client.StartJob(context.Background(), transcribe.StartJobInput{JobID: "demo"})
		if !errors.Is(err, tc.marker) {
			t.Errorf("%s: expected marker %v, got %v", tc.code, tc.marker, err)
		}
		if services.IsRetryable(err) != tc.retries {
			t.Errorf("%s: IsRetryable = %v, want %v", tc.code, services.IsRetryable(err), tc.retries)
		}
	}
}
