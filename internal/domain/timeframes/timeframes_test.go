package timeframes

import (
	"errors"
	"reflect"
	"testing"

	"github.com/forPelevin/topiccut/internal/types"
)

func TestConvert(t *testing.T) {
	tests := map[float64]string{
		0:        "00:00:00:00",
		125.5:    "00:02:05:12",
		59.99:    "00:00:59:23",
		3600:     "01:00:00:00",
		3725.25:  "01:02:05:06",
		-3:       "00:00:00:00",
		360000.5: "100:00:00:12",
	}
	for in, want := range tests {
		if got := Convert(in); got != want {
			t.Fatalf("Convert(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFromSeconds_FramesInRange(t *testing.T) {
	for i := 0; i < 2400; i++ {
		tc := FromSeconds(float64(i) * 0.0417)
		if tc.Frames < 0 || tc.Frames >= FrameRate {
			t.Fatalf("frames out of range for %v: %+v", float64(i)*0.0417, tc)
		}
	}
}

func TestConsolidate_SortsAndSums(t *testing.T) {
	segs := []types.Segment{
		{Text: "late", Start: 90, End: 120},
		{Text: "early", Start: 10, End: 40},
	}

	got, err := Consolidate(segs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Duration != 60 {
		t.Fatalf("expected duration 60, got %d", got.Duration)
	}
	want := []types.TimecodeRange{
		{Start: "00:00:10:00", End: "00:00:40:00"},
		{Start: "00:01:30:00", End: "00:02:00:00"},
	}
	if !reflect.DeepEqual(got.Timeframes, want) {
		t.Fatalf("unexpected timecodes: %+v", got.Timeframes)
	}
	if segs[0].Text != "late" {
		t.Fatalf("input must not be reordered in place")
	}
}

func TestConsolidate_TruncatesDuration(t *testing.T) {
	got, err := Consolidate([]types.Segment{{Start: 0.2, End: 10.1}, {Start: 20, End: 20.7}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Duration != 10 {
		t.Fatalf("expected truncated duration 10, got %d", got.Duration)
	}
}

func TestConsolidate_Empty(t *testing.T) {
	if _, err := Consolidate(nil); !errors.Is(err, types.ErrMissingData) {
		t.Fatalf("expected ErrMissingData, got %v", err)
	}
}

func TestConsolidate_Idempotent(t *testing.T) {
	segs := []types.Segment{{Start: 33.3, End: 47.9}, {Start: 5.5, End: 21.02}}
	first, err := Consolidate(segs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, err := EncodeSegments(first.Segments)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeSegments(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	second, err := Consolidate(decoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("consolidation drifted:\n%+v\n%+v", first, second)
	}
}

func TestDecodeSegments_DropsIncomplete(t *testing.T) {
	raw := `[
		{"text":"a","start_time":1,"end_time":2},
		{"text":"b","start_time":"3.5","end_time":"4"},
		{"text":"c","start_time":5},
		{"text":"d","end_time":6},
		{"text":"e","start_time":null,"end_time":7},
		{"text":"f","start_time":"soon","end_time":8}
	]`
	got, err := DecodeSegments(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []types.Segment{
		{Text: "a", Start: 1, End: 2},
		{Text: "b", Start: 3.5, End: 4},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	if _, err := DecodeSegments("not json"); err == nil {
		t.Fatalf("expected decode error")
	}
	if got, err := DecodeSegments(""); err != nil || len(got) != 0 {
		t.Fatalf("expected empty result for empty input, got %v, %v", got, err)
	}
}
