package types

import "fmt"

// EventKind distinguishes the two transcript event variants.
type EventKind int

const (
	EventWord EventKind = iota
	EventPunctuation
)

// TranscriptEvent is either a timed word or an untimed punctuation mark.
type TranscriptEvent struct {
	Kind  EventKind
	Text  string
	Start float64
	End   float64
}

func Word(text string, start, end float64) TranscriptEvent {
	return TranscriptEvent{Kind: EventWord, Text: text, Start: start, End: end}
}

func Punctuation(text string) TranscriptEvent {
	return TranscriptEvent{Kind: EventPunctuation, Text: text}
}

// TranscribeDocument is the speech-to-text result stored next to each clip.
type TranscribeDocument struct {
	Results struct {
		Items []TranscribeItem `json:"items"`
	} `json:"results"`
}

type TranscribeItem struct {
	Type         string                  `json:"type"`
	StartTime    string                  `json:"start_time,omitempty"`
	EndTime      string                  `json:"end_time,omitempty"`
	Alternatives []TranscribeAlternative `json:"alternatives"`
}

type TranscribeAlternative struct {
	Confidence string `json:"confidence,omitempty"`
	Content    string `json:"content"`
}

type Sentence struct {
	Text  string  `json:"text"`
	Start float64 `json:"start_time"`
	End   float64 `json:"end_time"`
}

type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start_time"`
	End   float64 `json:"end_time"`
}

// Draft is a validated selection, independent of the strategy that produced it.
type Draft struct {
	Text     string
	Title    string
	Segments []Segment
}

// Phase tracks which pipeline stage last wrote a highlight record.
type Phase string

const (
	PhaseSelected     Phase = "selected"
	PhaseConsolidated Phase = "consolidated"
)

type HighlightKey struct {
	ClipID string
	Index  string
}

func (k HighlightKey) String() string { return k.ClipID + "/" + k.Index }

// Highlight is the persisted per-(clip, index) record. Segments always holds the
// seconds-based selection; Timeframes holds the serialized list handed to video
// cutting (segments after selection, timecodes after consolidation).
type Highlight struct {
	Key        HighlightKey
	Question   string
	Text       string
	Title      string
	Segments   string
	Timeframes string
	Duration   *int
	Phase      Phase
	Version    int
	Owner      string
	CreatedAt  string
	UpdatedAt  string
}

// Consolidation is the chronologically sorted result for one highlight.
type Consolidation struct {
	Duration   int
	Segments   []Segment
	Timeframes []TimecodeRange
}

type TimecodeRange struct {
	Start string `json:"StartTimecode"`
	End   string `json:"EndTimecode"`
}

type Timecode struct {
	Hours   int
	Minutes int
	Seconds int
	Frames  int
}

func (t Timecode) String() string {
	return fmt.Sprintf("%02d:%02d:%02d:%02d", t.Hours, t.Minutes, t.Seconds, t.Frames)
}

// ModelRequest is one prompt for the generative model.
type ModelRequest struct {
	ModelID string
	System  string
	User    string
}
