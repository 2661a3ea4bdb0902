package localfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/forPelevin/topiccut/internal/types"
)

// Store mirrors the bucket and table layout on disk:
//
//	<root>/videos/<clip>/Transcript.json
//	<root>/highlights/<clip>/<index>.json
//
// Path segments are escaped, so distinct ids always map to distinct files.
type Store struct {
	root string
	mu   sync.Mutex
}

func New(root string) *Store {
	return &Store{root: root}
}

type record struct {
	VideoName  string `json:"VideoName"`
	Index      string `json:"Index"`
	Text       string `json:"Text"`
	Question   string `json:"Question"`
	VideoTitle string `json:"VideoTitle,omitempty"`
	Owner      string `json:"owner,omitempty"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
	Timeframes string `json:"timeframes"`
	Segments   string `json:"segments,omitempty"`
	Duration   *int   `json:"duration,omitempty"`
	Phase      string `json:"phase,omitempty"`
	Version    int    `json:"version"`
}

func (s *Store) TranscriptPath(clipID string) string {
	return filepath.Join(s.root, "videos", escapePathSegment(clipID), "Transcript.json")
}

func (s *Store) highlightPath(k types.HighlightKey) string {
	return filepath.Join(s.root, "highlights", escapePathSegment(k.ClipID), escapePathSegment(k.Index)+".json")
}

func (s *Store) GetTranscript(_ context.Context, clipID string) (types.TranscribeDocument, error) {
	p := s.TranscriptPath(clipID)
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.TranscribeDocument{}, fmt.Errorf("%s: %w", p, types.ErrMissingData)
		}
		return types.TranscribeDocument{}, err
	}
	var doc types.TranscribeDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return types.TranscribeDocument{}, fmt.Errorf("decode %s: %w", p, err)
	}
	return doc, nil
}

func (s *Store) PutHighlight(_ context.Context, h types.Highlight) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(h)
}

func (s *Store) GetHighlight(_ context.Context, key types.HighlightKey) (types.Highlight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(key)
}

func (s *Store) UpdateHighlight(_ context.Context, h types.Highlight, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.read(h.Key)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return fmt.Errorf("highlight %s: %w", h.Key, types.ErrVersionConflict)
		}
		return err
	}
	if cur.Version != expectedVersion {
		return fmt.Errorf("highlight %s at version %d, stored %d: %w", h.Key, expectedVersion, cur.Version, types.ErrVersionConflict)
	}
	h.CreatedAt = cur.CreatedAt
	return s.write(h)
}

func (s *Store) read(key types.HighlightKey) (types.Highlight, error) {
	p := s.highlightPath(key)
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.Highlight{}, fmt.Errorf("highlight %s: %w", key, types.ErrNotFound)
		}
		return types.Highlight{}, err
	}
	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		return types.Highlight{}, fmt.Errorf("decode %s: %w", p, err)
	}
	if r.VideoName != key.ClipID || r.Index != key.Index {
		return types.Highlight{}, fmt.Errorf("%s holds highlight %s/%s, not %s", p, r.VideoName, r.Index, key)
	}
	return types.Highlight{
		Key:        types.HighlightKey{ClipID: r.VideoName, Index: r.Index},
		Question:   r.Question,
		Text:       r.Text,
		Title:      r.VideoTitle,
		Segments:   r.Segments,
		Timeframes: r.Timeframes,
		Duration:   r.Duration,
		Phase:      types.Phase(r.Phase),
		Version:    r.Version,
		Owner:      r.Owner,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}, nil
}

func (s *Store) write(h types.Highlight) error {
	p := s.highlightPath(h.Key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(record{
		VideoName:  h.Key.ClipID,
		Index:      h.Key.Index,
		Text:       h.Text,
		Question:   h.Question,
		VideoTitle: h.Title,
		Owner:      h.Owner,
		CreatedAt:  h.CreatedAt,
		UpdatedAt:  h.UpdatedAt,
		Timeframes: h.Timeframes,
		Segments:   h.Segments,
		Duration:   h.Duration,
		Phase:      string(h.Phase),
		Version:    h.Version,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal highlight %s: %w", h.Key, err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// escapePathSegment maps an id to a single file name. url.PathEscape escapes
// separators and '%', so the mapping is injective; "." and ".." are spelled
// out and the empty id becomes a lone "%", which PathEscape never produces.
func escapePathSegment(s string) string {
	if s == "" {
		return "%"
	}
	if strings.Trim(s, ".") == "" && len(s) <= 2 {
		return strings.Repeat("%2E", len(s))
	}
	return url.PathEscape(s)
}
