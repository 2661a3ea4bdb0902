package dynamostore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/forPelevin/topiccut/internal/types"
)

// fakeTable applies the SET clauses and version condition built by Store.
type fakeTable struct {
	items map[string]map[string]ddbtypes.AttributeValue
}

func newFakeTable() *fakeTable {
	return &fakeTable{items: map[string]map[string]ddbtypes.AttributeValue{}}
}

func sval(av ddbtypes.AttributeValue) string {
	switch v := av.(type) {
	case *ddbtypes.AttributeValueMemberS:
		return v.Value
	case *ddbtypes.AttributeValueMemberN:
		return v.Value
	}
	return ""
}

func fkey(m map[string]ddbtypes.AttributeValue) string {
	return sval(m[attrClip]) + "/" + sval(m[attrIndex])
}

func (f *fakeTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.items[fkey(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.items[fkey(in.Key)]}, nil
}

func (f *fakeTable) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	cur, ok := f.items[fkey(in.Key)]
	stored, hasVersion := cur[attrVersion]
	unversioned := !hasVersion && strings.Contains(aws.ToString(in.ConditionExpression), "attribute_not_exists(#cv)")
	if !ok || (!unversioned && sval(stored) != sval(in.ExpressionAttributeValues[":expected"])) {
		return nil, &ddbtypes.ConditionalCheckFailedException{Message: aws.String("conditional request failed")}
	}
	for nk, name := range in.ExpressionAttributeNames {
		if !strings.HasPrefix(nk, "#a") {
			continue
		}
		cur[name] = in.ExpressionAttributeValues[":v"+strings.TrimPrefix(nk, "#a")]
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func sample() types.Highlight {
	return types.Highlight{
		Key:        types.HighlightKey{ClipID: "clip-1", Index: "2"},
		Question:   "pricing",
		Text:       "a [...] b",
		Title:      "Talk",
		Segments:   `[{"text":"a","start_time":1,"end_time":2}]`,
		Timeframes: `[{"text":"a","start_time":1,"end_time":2}]`,
		Phase:      types.PhaseSelected,
		Version:    1,
		Owner:      "alice",
		CreatedAt:  "2024-01-01T00:00:00Z",
		UpdatedAt:  "2024-01-01T00:00:00Z",
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	tbl := newFakeTable()
	s := New(tbl, "highlights")
	ctx := context.Background()

	if err := s.PutHighlight(ctx, sample()); err != nil {
		t.Fatalf("put: %v", err)
	}
	raw := tbl.items["clip-1/2"]
	for _, attr := range []string{"VideoName", "Index", "Text", "Question", "VideoTitle", "owner", "createdAt", "updatedAt", "timeframes", "segments", "phase", "version"} {
		if _, ok := raw[attr]; !ok {
			t.Fatalf("stored item misses attribute %q", attr)
		}
	}
	if _, ok := raw["duration"]; ok {
		t.Fatalf("duration must be absent before consolidation")
	}

	got, err := s.GetHighlight(ctx, sample().Key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Text != "a [...] b" || got.Phase != types.PhaseSelected || got.Version != 1 || got.Title != "Talk" {
		t.Fatalf("unexpected highlight: %+v", got)
	}
}

func TestGetHighlight_NotFound(t *testing.T) {
	_, err := New(newFakeTable(), "highlights").GetHighlight(context.Background(), types.HighlightKey{ClipID: "x", Index: "1"})
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateHighlight_VersionCheck(t *testing.T) {
	tbl := newFakeTable()
	s := New(tbl, "highlights")
	ctx := context.Background()
	if err := s.PutHighlight(ctx, sample()); err != nil {
		t.Fatalf("put: %v", err)
	}

	h := sample()
	d := 42
	h.Duration = &d
	h.Timeframes = `[{"StartTimecode":"00:00:01:00","EndTimecode":"00:00:02:00"}]`
	h.Phase = types.PhaseConsolidated
	h.Version = 2
	if err := s.UpdateHighlight(ctx, h, 1); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.GetHighlight(ctx, h.Key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Duration == nil || *got.Duration != 42 || got.Version != 2 || got.Phase != types.PhaseConsolidated {
		t.Fatalf("unexpected highlight after update: %+v", got)
	}
	if got.Segments != sample().Segments {
		t.Fatalf("segments must be preserved, got %q", got.Segments)
	}

	if err := s.UpdateHighlight(ctx, h, 1); !errors.Is(err, types.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

func TestUpdateHighlight_UnversionedLegacyItem(t *testing.T) {
	tbl := newFakeTable()
	s := New(tbl, "highlights")
	ctx := context.Background()

	tbl.items["clip-1/2"] = map[string]ddbtypes.AttributeValue{
		attrClip:     &ddbtypes.AttributeValueMemberS{Value: "clip-1"},
		attrIndex:    &ddbtypes.AttributeValueMemberS{Value: "2"},
		"Text":       &ddbtypes.AttributeValueMemberS{Value: "a"},
		"timeframes": &ddbtypes.AttributeValueMemberS{Value: `[{"start_time":1,"end_time":2}]`},
	}

	legacy, err := s.GetHighlight(ctx, sample().Key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if legacy.Version != 0 || legacy.Phase != "" {
		t.Fatalf("unexpected legacy highlight: %+v", legacy)
	}

	h := sample()
	h.Phase = types.PhaseConsolidated
	if err := s.UpdateHighlight(ctx, h, 0); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetHighlight(ctx, h.Key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Version != 1 || got.Phase != types.PhaseConsolidated {
		t.Fatalf("unexpected highlight after update: %+v", got)
	}

	if err := s.UpdateHighlight(ctx, h, 0); !errors.Is(err, types.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict once versioned, got %v", err)
	}
}

func TestUpdateInput_ExcludesKeysAndCreatedAt(t *testing.T) {
	in, err := New(newFakeTable(), "highlights").updateInput(sample(), 1)
	if err != nil {
		t.Fatalf("updateInput: %v", err)
	}
	for _, name := range in.ExpressionAttributeNames {
		switch name {
		case attrIndex, attrCreated:
			t.Fatalf("update must not set %q", name)
		}
	}
	if !strings.HasPrefix(aws.ToString(in.UpdateExpression), "SET ") {
		t.Fatalf("unexpected update expression %q", aws.ToString(in.UpdateExpression))
	}
}
