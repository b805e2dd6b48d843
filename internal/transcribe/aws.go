package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"github.com/aws/smithy-go"

	"scribe/internal/services"
)

// TranscribeAPI abstracts the Amazon Transcribe operations used by AWSClient.
// The transcribe.Client type satisfies this interface.
type TranscribeAPI interface {
	StartTranscriptionJob(ctx context.Context, params *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error)
	GetTranscriptionJob(ctx context.Context, params *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error)
}

// awsAPIClient implements Client against Amazon Transcribe, requesting
// SubRip subtitle output alongside the transcript.
type awsAPIClient struct {
	api TranscribeAPI
}

// NewAWS builds a Client from the ambient AWS credential chain.
func NewAWS(ctx context.Context, region string) (Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &awsAPIClient{api: transcribe.NewFromConfig(awsCfg)}, nil
}

// NewAWSFromAPI wraps an existing Transcribe API implementation.
func NewAWSFromAPI(api TranscribeAPI) Client {
	return &awsAPIClient{api: api}
}

func (c *awsAPIClient) StartJob(ctx context.Context, in StartJobInput) error {
	_, err := c.api.StartTranscriptionJob(ctx, &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(in.JobID),
		LanguageCode:         types.LanguageCode(in.LanguageCode),
		Media: &types.Media{
			MediaFileUri: aws.String(in.MediaURI),
		},
		OutputBucketName: aws.String(in.OutputBucket),
		Subtitles: &types.Subtitles{
			Formats: []types.SubtitleFormat{types.SubtitleFormatSrt},
		},
	})
	if err != nil {
		return wrapTranscribeError("start job", in.JobID, err)
	}
	return nil
}

func (c *awsAPIClient) GetJob(ctx context.Context, jobID string) (JobState, error) {
	out, err := c.api.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobID),
	})
	if err != nil {
		return JobState{}, wrapTranscribeError("get job", jobID, err)
	}
	job := out.TranscriptionJob
	if job == nil {
		return JobState{}, services.Wrap(services.ErrTransient, "transcribe", "get job", jobID+": empty response", nil)
	}

	switch job.TranscriptionJobStatus {
	case types.TranscriptionJobStatusCompleted:
		return JobState{
			Status:    StatusCompleted,
			OutputKey: subtitleOutputKey(job),
		}, nil
	case types.TranscriptionJobStatusFailed:
		return JobState{
			Status:        StatusFailed,
			FailureReason: aws.ToString(job.FailureReason),
		}, nil
	default:
		// Queued and InProgress are both "submitted" to the workflow.
		return JobState{Status: StatusSubmitted}, nil
	}
}

// subtitleOutputKey extracts the SubRip file's bucket-relative key from the
// job's subtitle URIs. Transcribe reports either s3:// or virtual-hosted
// https:// URIs depending on region.
func subtitleOutputKey(job *types.TranscriptionJob) string {
	if job.Subtitles == nil {
		return ""
	}
	for _, uri := range job.Subtitles.SubtitleFileUris {
		if strings.HasSuffix(uri, ".srt") {
			return bucketRelativeKey(uri)
		}
	}
	return ""
}

func bucketRelativeKey(uri string) string {
	trimmed := uri
	for _, scheme := range []string{"s3://", "https://", "http://"} {
		if strings.HasPrefix(trimmed, scheme) {
			trimmed = strings.TrimPrefix(trimmed, scheme)
			break
		}
	}
	// Drop the host-or-bucket element plus, for path-style HTTPS URIs, the
	// bucket element that follows it.
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 {
		return ""
	}
	rest := parts[1]
	if strings.Contains(parts[0], "amazonaws.com") && !strings.Contains(parts[0], ".s3") {
		inner := strings.SplitN(rest, "/", 2)
		if len(inner) == 2 {
			rest = inner[1]
		}
	}
	return rest
}

func wrapTranscribeError(operation, jobID string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "BadRequestException":
			return services.Wrap(services.ErrValidation, "transcribe", operation, jobID, err)
		case "NotFoundException":
			return services.Wrap(services.ErrNotFound, "transcribe", operation, jobID, err)
		case "ConflictException":
			return services.Wrap(services.ErrValidation, "transcribe", operation, jobID, err)
		}
	}
	return services.Wrap(services.ErrTransient, "transcribe", operation, jobID, err)
}
