package timeframes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/forPelevin/topiccut/internal/types"
)

// EncodeSegments serializes segments the way they are stored on a highlight.
func EncodeSegments(segs []types.Segment) (string, error) {
	if segs == nil {
		segs = []types.Segment{}
	}
	b, err := json.Marshal(segs)
	if err != nil {
		return "", fmt.Errorf("encode segments: %w", err)
	}
	return string(b), nil
}

// DecodeSegments parses a stored list and keeps only entries that carry both
// timestamps. Timestamps may be numbers or numeric strings.
func DecodeSegments(raw string) ([]types.Segment, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var items []struct {
		Text  string  `json:"text"`
		Start seconds `json:"start_time"`
		End   seconds `json:"end_time"`
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode segments: %w", err)
	}

	out := make([]types.Segment, 0, len(items))
	for _, it := range items {
		if !it.Start.ok || !it.End.ok {
			continue
		}
		out = append(out, types.Segment{Text: it.Text, Start: it.Start.v, End: it.End.v})
	}
	return out, nil
}

// EncodeTimecodes serializes consolidated timecode pairs.
func EncodeTimecodes(tcs []types.TimecodeRange) (string, error) {
	if tcs == nil {
		tcs = []types.TimecodeRange{}
	}
	b, err := json.Marshal(tcs)
	if err != nil {
		return "", fmt.Errorf("encode timecodes: %w", err)
	}
	return string(b), nil
}

type seconds struct {
	v  float64
	ok bool
}

func (s *seconds) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			// unusable timestamps are treated as missing
			return nil
		}
		s.v, s.ok = v, true
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	s.v, s.ok = v, true
	return nil
}
