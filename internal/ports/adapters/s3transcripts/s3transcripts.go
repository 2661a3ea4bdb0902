package s3transcripts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/forPelevin/topiccut/internal/types"
)

type getter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Source reads speech-to-text documents stored as videos/<clip>/Transcript.json.
type Source struct {
	client getter
	bucket string
}

func New(client getter, bucket string) *Source {
	return &Source{client: client, bucket: bucket}
}

func ObjectKey(clipID string) string {
	return fmt.Sprintf("videos/%s/Transcript.json", clipID)
}

func (s *Source) GetTranscript(ctx context.Context, clipID string) (types.TranscribeDocument, error) {
	key := ObjectKey(clipID)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return types.TranscribeDocument{}, fmt.Errorf("s3://%s/%s: %w", s.bucket, key, types.ErrMissingData)
		}
		return types.TranscribeDocument{}, fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	var doc types.TranscribeDocument
	if err := json.NewDecoder(out.Body).Decode(&doc); err != nil {
		return types.TranscribeDocument{}, fmt.Errorf("decode s3://%s/%s: %w", s.bucket, key, err)
	}
	return doc, nil
}

func isNotFoundError(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NotFoundException", "404":
			return true
		}
	}
	return strings.Contains(err.Error(), "NotFound:")
}
