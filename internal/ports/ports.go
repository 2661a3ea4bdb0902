package ports

import (
	"context"

	"github.com/forPelevin/topiccut/internal/types"
)

type TranscriptSource interface {
	GetTranscript(ctx context.Context, clipID string) (types.TranscribeDocument, error)
}

// Model returns the raw text answer. Throttling must be reported as an error
// wrapping types.ErrRateLimited.
type Model interface {
	Complete(ctx context.Context, req types.ModelRequest) (string, error)
}

type HighlightStore interface {
	PutHighlight(ctx context.Context, h types.Highlight) error
	// GetHighlight returns an error wrapping types.ErrNotFound when the key is absent.
	GetHighlight(ctx context.Context, key types.HighlightKey) (types.Highlight, error)
	// UpdateHighlight replaces the record only if its stored version equals
	// expectedVersion, otherwise it returns types.ErrVersionConflict.
	UpdateHighlight(ctx context.Context, h types.Highlight, expectedVersion int) error
}
