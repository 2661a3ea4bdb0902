package sentences

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/forPelevin/topiccut/internal/types"
)

const (
	itemPronunciation = "pronunciation"
	itemPunctuation   = "punctuation"
)

// EventsFromTranscribe converts results.items of a speech-to-text document into
// transcript events. Only pronunciation items carry timestamps.
func EventsFromTranscribe(doc types.TranscribeDocument) ([]types.TranscriptEvent, error) {
	items := doc.Results.Items
	out := make([]types.TranscriptEvent, 0, len(items))
	for i, it := range items {
		if len(it.Alternatives) == 0 {
			continue
		}
		content := it.Alternatives[0].Content
		switch it.Type {
		case itemPronunciation:
			st, err := parseSeconds(it.StartTime)
			if err != nil {
				return nil, fmt.Errorf("item %d start_time: %w", i, err)
			}
			en, err := parseSeconds(it.EndTime)
			if err != nil {
				return nil, fmt.Errorf("item %d end_time: %w", i, err)
			}
			out = append(out, types.Word(content, st, en))
		case itemPunctuation:
			out = append(out, types.Punctuation(content))
		}
	}
	return out, nil
}

// FromTranscribe is EventsFromTranscribe followed by Reconstitute.
func FromTranscribe(doc types.TranscribeDocument) ([]types.Sentence, error) {
	events, err := EventsFromTranscribe(doc)
	if err != nil {
		return nil, err
	}
	return Reconstitute(events), nil
}

func parseSeconds(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("missing")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}
	return v, nil
}
