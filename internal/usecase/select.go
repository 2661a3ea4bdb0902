package usecase

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/topiccut/internal/domain/highlights"
	"github.com/forPelevin/topiccut/internal/domain/sentences"
	"github.com/forPelevin/topiccut/internal/domain/timeframes"
	"github.com/forPelevin/topiccut/internal/types"
)

const stageSelect = "select highlight"

type SelectInput struct {
	ClipID  string
	Index   string
	Topic   string
	Topics  []string
	ModelID string
	Owner   string

	Strategy highlights.Strategy
	// Bounds overrides the strategy defaults when non-nil.
	Bounds *highlights.Bounds
}

type SelectResult struct {
	Highlight types.Highlight
	Draft     types.Draft
	Sentences int
}

// SelectHighlight asks the model for the part of the transcript matching
// in.Topic and stores the validated result. Nothing is stored on failure.
func (u Usecase) SelectHighlight(ctx context.Context, in SelectInput) (SelectResult, error) {
	key := types.HighlightKey{ClipID: in.ClipID, Index: in.Index}
	fail := func(err error) (SelectResult, error) {
		return SelectResult{}, failure(stageSelect, key, in.Topic, err)
	}
	log := u.d.Log.WithFields(logrus.Fields{
		"clip_id": in.ClipID,
		"index":   in.Index,
		"topic":   in.Topic,
	})

	doc, err := u.d.Transcripts.GetTranscript(ctx, in.ClipID)
	if err != nil {
		return fail(fmt.Errorf("load transcript: %w", err))
	}
	sents, err := sentences.FromTranscribe(doc)
	if err != nil {
		return fail(fmt.Errorf("parse transcript: %w", err))
	}
	if len(sents) == 0 {
		return fail(fmt.Errorf("transcript has no sentences: %w", types.ErrMissingData))
	}
	log.WithField("sentences", len(sents)).Info("transcript loaded")

	strategy := in.Strategy
	if strategy == "" {
		strategy = highlights.StrategyIndex
	}
	bounds := highlights.DefaultBounds(strategy)
	if in.Bounds != nil {
		bounds = *in.Bounds
	}

	var req types.ModelRequest
	switch strategy {
	case highlights.StrategyIndex:
		req = highlights.IndexPrompt(sents, in.Topic, in.Topics, bounds)
	case highlights.StrategyDirect:
		req = highlights.DirectPrompt(sents, in.Topic, in.Topics, bounds)
	default:
		return fail(fmt.Errorf("unknown selection strategy %q", strategy))
	}
	req.ModelID = in.ModelID

	backoff := *u.d.Backoff
	backoff.Log = log
	raw, err := backoff.Do(ctx, func(ctx context.Context) (string, error) {
		return u.d.Model.Complete(ctx, req)
	})
	if err != nil {
		return fail(fmt.Errorf("invoke model: %w", err))
	}
	log.WithField("response", raw).Debug("model response")

	var draft types.Draft
	if strategy == highlights.StrategyDirect {
		draft, err = highlights.SelectDirect(raw, log)
	} else {
		draft, err = highlights.SelectByIndex(raw, sents, log)
	}
	if err != nil {
		return fail(err)
	}

	segsJSON, err := timeframes.EncodeSegments(draft.Segments)
	if err != nil {
		return fail(err)
	}
	ts := u.timestamp()
	h := types.Highlight{
		Key:        key,
		Question:   in.Topic,
		Text:       draft.Text,
		Title:      draft.Title,
		Segments:   segsJSON,
		Timeframes: segsJSON,
		Phase:      types.PhaseSelected,
		Version:    1,
		Owner:      in.Owner,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	if err := u.d.Store.PutHighlight(ctx, h); err != nil {
		return fail(fmt.Errorf("store highlight: %w", err))
	}
	log.WithFields(logrus.Fields{
		"segments": len(draft.Segments),
		"strategy": string(strategy),
	}).Info("highlight selected")

	return SelectResult{Highlight: h, Draft: draft, Sentences: len(sents)}, nil
}
