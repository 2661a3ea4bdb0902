package highlights

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/forPelevin/topiccut/internal/types"
)

// Strategy names how the model is asked to select content.
type Strategy string

const (
	// StrategyIndex asks for sentence numbers and re-derives timestamps locally.
	StrategyIndex Strategy = "index"
	// StrategyDirect asks for text and timeframes and trusts the model's timestamps.
	StrategyDirect Strategy = "direct"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyIndex:
		return StrategyIndex, nil
	case StrategyDirect:
		return StrategyDirect, nil
	default:
		return "", fmt.Errorf("unknown selection strategy %q", s)
	}
}

// Bounds are the numeric constraints stated in the prompt. Zero values are
// omitted from the instructions.
type Bounds struct {
	MinSentences int
	MaxSentences int
	MinSec       int
	MaxSec       int
	MinWords     int
	MaxWords     int
}

func DefaultBounds(s Strategy) Bounds {
	if s == StrategyDirect {
		return Bounds{MinSec: 10, MaxSec: 50, MinWords: 20, MaxWords: 100}
	}
	return Bounds{MinSentences: 5, MaxSentences: 10, MinSec: 20, MaxSec: 80}
}

const systemPrompt = "You are a video editor cutting short-form clips out of long talks. " +
	"You only answer with the requested JSON wrapped in the requested tags."

// IndexPrompt numbers the sentences from 1 and asks for the numbers that best
// represent topic.
func IndexPrompt(sentences []types.Sentence, topic string, topics []string, b Bounds) types.ModelRequest {
	var script strings.Builder
	for i, s := range sentences {
		fmt.Fprintf(&script, "%d. %q\n", i+1, s.Text)
	}

	var req strings.Builder
	fmt.Fprintf(&req, "INPUT:\n- Numbered script sentences: <script>\n%s</script>\n", script.String())
	fmt.Fprintf(&req, "- All topics: <agendas> %s </agendas>\n", formatTopics(topics))
	fmt.Fprintf(&req, "- Target topic: <Topic> %s </Topic>\n\n", topic)
	req.WriteString("TASK:\n")
	if b.MinSentences > 0 && b.MaxSentences > 0 {
		fmt.Fprintf(&req, "Select %d-%d sentence numbers", b.MinSentences, b.MaxSentences)
	} else {
		req.WriteString("Select the sentence numbers")
	}
	req.WriteString(" from the script that best represent the target topic for a short-form video clip.\n")
	req.WriteString("Avoid sentences that belong to the other topics.\n\n")
	req.WriteString("CRITICAL REQUIREMENTS:\n")
	req.WriteString("- Return ONLY the sentence numbers (e.g., 1, 2, 3)\n")
	req.WriteString("- Selected sentences must be coherent when combined\n")
	if b.MinSec > 0 && b.MaxSec > 0 {
		fmt.Fprintf(&req, "- Total duration should be %d-%d seconds\n", b.MinSec, b.MaxSec)
	}
	req.WriteString("- Sentences must directly relate to the topic\n\n")
	req.WriteString("EXAMPLE 1 - Consecutive sentences:\n")
	req.WriteString("If sentences 15, 16, 17, 18, 19, 20 form a complete thought:\n")
	req.WriteString("CORRECT OUTPUT: [15, 16, 17, 18, 19, 20]\n\n")
	req.WriteString("EXAMPLE 2 - Non-consecutive sentences:\n")
	req.WriteString("If the best sentences are 23, 24, 28, 29, 35, 36:\n")
	req.WriteString("CORRECT OUTPUT: [23, 24, 28, 29, 35, 36]\n\n")
	req.WriteString("OUTPUT:\n<thought>\nBrief explanation of why these sentences best represent the topic\n</thought>\n\n")
	req.WriteString("<JSON>\n{\n\"VideoTitle\": \"Clear, engaging title (max 8 words)\",\n")
	req.WriteString("\"selected_numbers\": [x, y, z]\n}\n</JSON>\n")

	return types.ModelRequest{System: systemPrompt, User: req.String()}
}

// DirectPrompt inlines sentence timestamps and asks for the text and
// timeframes directly.
func DirectPrompt(sentences []types.Sentence, topic string, topics []string, b Bounds) types.ModelRequest {
	script := timestampedScript(sentences)

	var req strings.Builder
	fmt.Fprintf(&req, "INPUT:\n- Timestamped script: <script>\n%s\n</script>\n", script)
	fmt.Fprintf(&req, "- All topics: <agendas> %s </agendas>\n", formatTopics(topics))
	fmt.Fprintf(&req, "- Target topic: <Topic> %s </Topic>\n\n", topic)
	req.WriteString("TASK:\nExtract the part of the script that best represents the target topic for a short-form video clip.\n")
	req.WriteString("Avoid content that belongs to the other topics.\n\n")
	req.WriteString("CRITICAL REQUIREMENTS:\n")
	if b.MinSec > 0 && b.MaxSec > 0 {
		fmt.Fprintf(&req, "- Total duration should be %d-%d seconds\n", b.MinSec, b.MaxSec)
	}
	if b.MinWords > 0 && b.MaxWords > 0 {
		fmt.Fprintf(&req, "- Use about %d-%d words\n", b.MinWords, b.MaxWords)
	}
	req.WriteString("- Copy sentence text and timestamps exactly from the script\n")
	req.WriteString("- The result must be coherent as a standalone clip\n")
	req.WriteString("- Check every timeframe: start_time must be strictly less than end_time\n\n")
	req.WriteString("OUTPUT:\n<JSON>\n{\n\"VideoTitle\": \"Clear, engaging title (max 8 words)\",\n")
	req.WriteString("\"text\": \"selected text\",\n")
	req.WriteString("\"timeframes\": [{\"text\": \"...\", \"start_time\": 0.0, \"end_time\": 0.0}]\n}\n</JSON>\n")

	return types.ModelRequest{System: systemPrompt, User: req.String()}
}

// timestampedScript renders sentences as a JSON array. Timestamps JSON cannot
// carry (NaN, Inf) fall back to one plain line per sentence.
func timestampedScript(sentences []types.Sentence) string {
	if b, err := json.MarshalIndent(sentences, "", "  "); err == nil {
		return string(b)
	}
	var sb strings.Builder
	for _, s := range sentences {
		fmt.Fprintf(&sb, "%q [%g - %g]\n", s.Text, s.Start, s.End)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func formatTopics(topics []string) string {
	quoted := make([]string, 0, len(topics))
	for _, t := range topics {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		quoted = append(quoted, fmt.Sprintf("%q", t))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
