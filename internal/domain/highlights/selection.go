package highlights

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/topiccut/internal/types"
)

// SegmentSeparator marks a cut between non-adjacent selections in highlight text.
const SegmentSeparator = " [...] "

// IndexSelection is a sanitized answer of the index strategy.
type IndexSelection struct {
	Title   string
	Numbers []int // 1-based, ascending, unique
}

// ParseIndexSelection validates the model answer against sentenceCount.
// Elements that are not numbers or fall outside [1, sentenceCount] are dropped
// with a warning; an empty result is a MalformedOutputError.
func ParseIndexSelection(raw string, sentenceCount int, log logrus.FieldLogger) (IndexSelection, error) {
	obj, err := ExtractJSONObject(raw)
	if err != nil {
		return IndexSelection{}, err
	}

	dec := json.NewDecoder(strings.NewReader(obj))
	dec.UseNumber()
	var out struct {
		Title    json.RawMessage `json:"VideoTitle"`
		Selected *any            `json:"selected_numbers"`
	}
	if err := dec.Decode(&out); err != nil {
		return IndexSelection{}, &types.MalformedOutputError{Reason: "decode selection: " + err.Error(), Raw: raw}
	}
	if out.Selected == nil {
		return IndexSelection{}, &types.MalformedOutputError{Reason: "missing selected_numbers", Raw: raw}
	}
	elems, ok := (*out.Selected).([]any)
	if !ok {
		return IndexSelection{}, &types.MalformedOutputError{Reason: "selected_numbers is not a list", Raw: raw}
	}

	seen := make(map[int]struct{}, len(elems))
	nums := make([]int, 0, len(elems))
	for _, e := range elems {
		n, ok := coerceIndex(e)
		if !ok {
			log.WithField("value", e).Warn("ignoring non-numeric sentence number")
			continue
		}
		if n < 1 || n > sentenceCount {
			log.WithFields(logrus.Fields{"value": n, "sentences": sentenceCount}).
				Warn("ignoring out-of-range sentence number")
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		nums = append(nums, n)
	}
	if len(nums) == 0 {
		return IndexSelection{}, &types.MalformedOutputError{Reason: "no valid sentence numbers", Raw: raw}
	}
	sort.Ints(nums)

	return IndexSelection{Title: titleFrom(out.Title, log), Numbers: nums}, nil
}

// titleFrom keeps VideoTitle only when the model returned a string.
func titleFrom(raw json.RawMessage, log logrus.FieldLogger) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var title string
	if err := json.Unmarshal(raw, &title); err != nil {
		log.WithField("value", string(raw)).Warn("ignoring non-string VideoTitle")
		return ""
	}
	return strings.TrimSpace(title)
}

// timestampFrom accepts a JSON number or a numeric string.
func timestampFrom(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(x), 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func coerceIndex(v any) (int, bool) {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return int(i), true
		}
		f, err := x.Float64()
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, false
		}
		return int(math.Trunc(f)), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// MergeSelection turns ascending 1-based sentence numbers into segments. Runs of
// consecutive numbers share one segment spanning the earliest start and the
// latest end of the run.
func MergeSelection(sentences []types.Sentence, numbers []int) (string, []types.Segment) {
	var (
		segs  []types.Segment
		texts []string
		run   []string
		cur   types.Segment
	)
	closeRun := func() {
		if len(run) == 0 {
			return
		}
		cur.Text = strings.Join(run, " ")
		segs = append(segs, cur)
		texts = append(texts, cur.Text)
		run = nil
	}

	for i, n := range numbers {
		s := sentences[n-1]
		if i > 0 && n != numbers[i-1]+1 {
			closeRun()
		}
		if len(run) == 0 {
			cur = types.Segment{Start: s.Start, End: s.End}
		}
		run = append(run, s.Text)
		cur.Start = math.Min(cur.Start, s.Start)
		cur.End = math.Max(cur.End, s.End)
	}
	closeRun()

	return strings.Join(texts, SegmentSeparator), segs
}

// SelectByIndex parses an index-strategy answer and merges it into a draft.
func SelectByIndex(raw string, sentences []types.Sentence, log logrus.FieldLogger) (types.Draft, error) {
	sel, err := ParseIndexSelection(raw, len(sentences), log)
	if err != nil {
		return types.Draft{}, err
	}
	text, segs := MergeSelection(sentences, sel.Numbers)
	return types.Draft{Text: text, Title: sel.Title, Segments: segs}, nil
}

// SelectDirect parses a direct-strategy answer. Timestamps are taken as given
// (numbers or numeric strings); entries that violate start < end are only
// reported.
func SelectDirect(raw string, log logrus.FieldLogger) (types.Draft, error) {
	obj, err := ExtractJSONObject(raw)
	if err != nil {
		return types.Draft{}, err
	}

	var out struct {
		Title      json.RawMessage `json:"VideoTitle"`
		Text       json.RawMessage `json:"text"`
		Timeframes json.RawMessage `json:"timeframes"`
	}
	if err := json.Unmarshal([]byte(obj), &out); err != nil {
		return types.Draft{}, &types.MalformedOutputError{Reason: "decode selection: " + err.Error(), Raw: raw}
	}
	if len(out.Text) == 0 || string(out.Text) == "null" {
		return types.Draft{}, &types.MalformedOutputError{Reason: "missing text", Raw: raw}
	}
	var text string
	if err := json.Unmarshal(out.Text, &text); err != nil {
		return types.Draft{}, &types.MalformedOutputError{Reason: "text is not a string", Raw: raw}
	}

	var frames []struct {
		Text  json.RawMessage `json:"text"`
		Start json.RawMessage `json:"start_time"`
		End   json.RawMessage `json:"end_time"`
	}
	if len(out.Timeframes) > 0 && string(out.Timeframes) != "null" {
		if err := json.Unmarshal(out.Timeframes, &frames); err != nil {
			log.WithError(err).Warn("ignoring timeframes that are not a list of objects")
			frames = nil
		}
	}

	segs := make([]types.Segment, 0, len(frames))
	for i, tf := range frames {
		start, okStart := timestampFrom(tf.Start)
		end, okEnd := timestampFrom(tf.End)
		if !okStart || !okEnd {
			log.WithField("timeframe", i).Warn("ignoring timeframe without timestamps")
			continue
		}
		if start >= end {
			log.WithFields(logrus.Fields{
				"timeframe":  i,
				"start_time": start,
				"end_time":   end,
			}).Warn("model returned timeframe with start_time >= end_time")
		}
		var segText string
		_ = json.Unmarshal(tf.Text, &segText)
		segs = append(segs, types.Segment{Text: segText, Start: start, End: end})
	}

	return types.Draft{Text: text, Title: titleFrom(out.Title, log), Segments: segs}, nil
}
