package sentences

import (
	"strings"

	"github.com/forPelevin/topiccut/internal/types"
)

// Reconstitute groups timed words into sentences closed by '.', '?' or '!'.
// Punctuation is glued to the preceding word; trailing words without a
// terminator still form a final sentence.
func Reconstitute(events []types.TranscriptEvent) []types.Sentence {
	var (
		out     []types.Sentence
		words   []string
		start   float64
		pending bool
		end     float64
	)

	flush := func() {
		if end < start {
			end = start
		}
		out = append(out, types.Sentence{
			Text:  strings.Join(words, " "),
			Start: start,
			End:   end,
		})
		words = words[:0]
		pending = false
	}

	for _, ev := range events {
		switch ev.Kind {
		case types.EventWord:
			text := strings.TrimSpace(ev.Text)
			if text == "" {
				continue
			}
			words = append(words, text)
			if !pending {
				start = ev.Start
				pending = true
			}
			end = ev.End
		case types.EventPunctuation:
			if len(words) == 0 {
				continue
			}
			mark := strings.TrimSpace(ev.Text)
			words[len(words)-1] += mark
			if isTerminator(mark) {
				flush()
			}
		}
	}
	if len(words) > 0 {
		flush()
	}
	return out
}

func isTerminator(mark string) bool {
	switch mark {
	case ".", "?", "!":
		return true
	default:
		return false
	}
}
