package highlights

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/forPelevin/topiccut/internal/types"
)

func testSentences(n int) []types.Sentence {
	out := make([]types.Sentence, n)
	for i := range out {
		start := float64(i * 5)
		out[i] = types.Sentence{
			Text:  fmt.Sprintf("Sentence %d.", i+1),
			Start: start,
			End:   start + 4,
		}
	}
	return out
}

func TestParseIndexSelection_Sanitizes(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	raw := `<thought>ok</thought><JSON>{"VideoTitle":" Title ","selected_numbers":["3", 7, "bad", 0, 999]}</JSON>`

	sel, err := ParseIndexSelection(raw, 10, log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(sel.Numbers, []int{3, 7}) {
		t.Fatalf("expected [3 7], got %v", sel.Numbers)
	}
	if sel.Title != "Title" {
		t.Fatalf("expected trimmed title, got %q", sel.Title)
	}

	warnings := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	if warnings != 3 {
		t.Fatalf("expected 3 warnings for dropped values, got %d", warnings)
	}
}

func TestParseIndexSelection_SortsAndDeduplicates(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	sel, err := ParseIndexSelection(`{"selected_numbers":[5, " 2 ", 5, 4.0, 1]}`, 10, log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(sel.Numbers, []int{1, 2, 4, 5}) {
		t.Fatalf("unexpected numbers: %v", sel.Numbers)
	}
}

func TestParseIndexSelection_Failures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no braces", "I could not decide."},
		{"broken json", `{"selected_numbers": [1, 2}`},
		{"missing field", `{"VideoTitle": "x"}`},
		{"not a list", `{"selected_numbers": "1,2"}`},
		{"all invalid", `{"selected_numbers": ["x", 0, 11, null, true]}`},
		{"empty list", `{"selected_numbers": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, _ := logtest.NewNullLogger()
			_, err := ParseIndexSelection(tt.raw, 10, log)
			if !errors.Is(err, types.ErrMalformedOutput) {
				t.Fatalf("expected ErrMalformedOutput, got %v", err)
			}
			var mo *types.MalformedOutputError
			if !errors.As(err, &mo) || mo.Raw != tt.raw {
				t.Fatalf("expected raw response to be kept, got %#v", err)
			}
		})
	}
}

func TestMergeSelection_SingleRun(t *testing.T) {
	sents := testSentences(40)
	nums := []int{15, 16, 17, 18, 19, 20}

	text, segs := MergeSelection(sents, nums)
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].Start != sents[14].Start || segs[0].End != sents[19].End {
		t.Fatalf("unexpected segment bounds: %+v", segs[0])
	}
	if strings.Contains(text, "[...]") {
		t.Fatalf("contiguous selection must not contain separator: %q", text)
	}
	if text != segs[0].Text {
		t.Fatalf("expected text to equal the only segment, got %q", text)
	}
	if !strings.HasPrefix(text, "Sentence 15. Sentence 16.") {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestMergeSelection_NonConsecutiveRuns(t *testing.T) {
	sents := testSentences(40)
	nums := []int{23, 24, 28, 29, 35, 36}

	text, segs := MergeSelection(sents, nums)
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}
	if got := strings.Count(text, SegmentSeparator); got != 2 {
		t.Fatalf("expected 2 separators, got %d in %q", got, text)
	}
	wantBounds := [][2]float64{
		{sents[22].Start, sents[23].End},
		{sents[27].Start, sents[28].End},
		{sents[34].Start, sents[35].End},
	}
	for i, w := range wantBounds {
		if segs[i].Start != w[0] || segs[i].End != w[1] {
			t.Fatalf("segment %d: got %v-%v, want %v-%v", i, segs[i].Start, segs[i].End, w[0], w[1])
		}
	}
	if segs[1].Text != "Sentence 28. Sentence 29." {
		t.Fatalf("unexpected segment text: %q", segs[1].Text)
	}
}

func TestMergeSelection_UsesMinStartMaxEnd(t *testing.T) {
	sents := []types.Sentence{
		{Text: "a", Start: 2, End: 9},
		{Text: "b", Start: 1, End: 5},
	}
	_, segs := MergeSelection(sents, []int{1, 2})
	if len(segs) != 1 || segs[0].Start != 1 || segs[0].End != 9 {
		t.Fatalf("unexpected segments: %+v", segs)
	}
}

func TestSelectDirect(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	raw := `Here you go: {"VideoTitle":"T","text":"a [...] b","timeframes":[
		{"text":"a","start_time":1.5,"end_time":4},
		{"text":"b","start_time":9,"end_time":8},
		{"text":"c","start_time":10}
	]}`

	d, err := SelectDirect(raw, log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Text != "a [...] b" || d.Title != "T" {
		t.Fatalf("unexpected draft: %+v", d)
	}
	if len(d.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %+v", d.Segments)
	}
	if len(hook.AllEntries()) != 2 {
		t.Fatalf("expected 2 warnings, got %d", len(hook.AllEntries()))
	}
}

func TestSelectDirect_Defaults(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	d, err := SelectDirect(`{"text":"only text"}`, log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Segments == nil || len(d.Segments) != 0 {
		t.Fatalf("expected empty timeframes, got %#v", d.Segments)
	}

	if _, err := SelectDirect(`{"timeframes":[]}`, log); !errors.Is(err, types.ErrMalformedOutput) {
		t.Fatalf("expected ErrMalformedOutput for missing text, got %v", err)
	}
}

func TestParseIndexSelection_NonStringTitle(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	sel, err := ParseIndexSelection(`{"VideoTitle": 42, "selected_numbers": [1, 2]}`, 5, log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.Title != "" || !reflect.DeepEqual(sel.Numbers, []int{1, 2}) {
		t.Fatalf("unexpected selection: %+v", sel)
	}
	if e := hook.LastEntry(); e == nil || e.Level != logrus.WarnLevel || !strings.Contains(e.Message, "VideoTitle") {
		t.Fatalf("expected VideoTitle warning, got %v", e)
	}
}

func TestSelectDirect_LenientFields(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	raw := `{"VideoTitle":{"t":1},"text":"a [...] b","timeframes":[
		{"text":"a","start_time":"1.5","end_time":" 4 "},
		{"text":7,"start_time":9,"end_time":"12"},
		{"text":"c","start_time":"soon","end_time":20}
	]}`

	d, err := SelectDirect(raw, log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []types.Segment{
		{Text: "a", Start: 1.5, End: 4},
		{Text: "", Start: 9, End: 12},
	}
	if d.Title != "" || !reflect.DeepEqual(d.Segments, want) {
		t.Fatalf("unexpected draft: %+v", d)
	}
	if len(hook.AllEntries()) != 2 {
		t.Fatalf("expected title and timestamp warnings, got %d", len(hook.AllEntries()))
	}

	if _, err := SelectDirect(`{"text": 3}`, log); !errors.Is(err, types.ErrMalformedOutput) {
		t.Fatalf("expected ErrMalformedOutput for non-string text, got %v", err)
	}
	d, err = SelectDirect(`{"text":"x","timeframes":"none"}`, log)
	if err != nil || len(d.Segments) != 0 {
		t.Fatalf("expected non-list timeframes to be ignored, got %+v, %v", d, err)
	}
}
