package usecase

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/topiccut/internal/domain/highlights"
	"github.com/forPelevin/topiccut/internal/ports"
	"github.com/forPelevin/topiccut/internal/types"
)

const timestampLayout = "2006-01-02T15:04:05Z"

type Deps struct {
	Transcripts ports.TranscriptSource
	Model       ports.Model
	Store       ports.HighlightStore
	// Backoff wraps model calls; nil means highlights.DefaultBackoff.
	Backoff *highlights.Backoff

	// Bucket holds the source media; used to build handoff paths for cutting.
	Bucket string

	Now func() time.Time
	Log logrus.FieldLogger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		d.Log = l
	}
	if d.Backoff == nil {
		b := highlights.DefaultBackoff()
		d.Backoff = &b
	}
	if d.Backoff.Log == nil {
		b := *d.Backoff
		b.Log = d.Log
		d.Backoff = &b
	}
	return Usecase{d: d}
}

func (u Usecase) timestamp() string {
	return u.d.Now().UTC().Format(timestampLayout)
}

func failure(stage string, key types.HighlightKey, topic string, err error) error {
	return &types.Failure{Stage: stage, ClipID: key.ClipID, Index: key.Index, Topic: topic, Err: err}
}

// ClipPaths are the S3 locations handed to the video-cutting step.
type ClipPaths struct {
	RawFilePath       string
	OutputDestination string
}

func clipPaths(bucket string, key types.HighlightKey) ClipPaths {
	if bucket == "" {
		return ClipPaths{}
	}
	return ClipPaths{
		RawFilePath:       fmt.Sprintf("s3://%s/videos/%s/RAW.mp4", bucket, key.ClipID),
		OutputDestination: fmt.Sprintf("s3://%s/videos/%s/FHD/%s-FHD", bucket, key.ClipID, key.Index),
	}
}
