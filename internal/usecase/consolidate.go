package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/topiccut/internal/domain/timeframes"
	"github.com/forPelevin/topiccut/internal/types"
)

const stageConsolidate = "consolidate timeframes"

type ConsolidateResult struct {
	Key        types.HighlightKey
	Duration   int
	Timeframes []types.TimecodeRange
	ClipPaths
}

// ConsolidateTimeframes sorts the stored segments of a selected highlight,
// computes its duration and timecodes and writes them back. Running it again
// on an unchanged record produces the same result. On failure the result still
// carries the key and clip paths.
func (u Usecase) ConsolidateTimeframes(ctx context.Context, key types.HighlightKey) (ConsolidateResult, error) {
	paths := clipPaths(u.d.Bucket, key)
	fail := func(err error) (ConsolidateResult, error) {
		return ConsolidateResult{Key: key, ClipPaths: paths}, failure(stageConsolidate, key, "", err)
	}
	log := u.d.Log.WithFields(logrus.Fields{"clip_id": key.ClipID, "index": key.Index})

	h, err := u.d.Store.GetHighlight(ctx, key)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return fail(fmt.Errorf("%w: %w", types.ErrMissingData, err))
		}
		return fail(fmt.Errorf("load highlight: %w", err))
	}
	stored := h.Segments
	switch {
	case h.Phase == types.PhaseSelected, h.Phase == types.PhaseConsolidated:
	case h.Phase == "" && h.Segments == "" && h.Timeframes != "":
		// Written by a selector that predates phases: timeframes still holds
		// the seconds-based selection. Keep it as segments so re-runs see it.
		log.Info("consolidating legacy record without phase")
		stored = h.Timeframes
		h.Segments = h.Timeframes
	default:
		return fail(fmt.Errorf("%w: phase %q", types.ErrPhase, h.Phase))
	}

	segs, err := timeframes.DecodeSegments(stored)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", types.ErrMissingData, err))
	}
	c, err := timeframes.Consolidate(segs)
	if err != nil {
		log.Warn("no valid timeframes")
		return fail(err)
	}

	tcJSON, err := timeframes.EncodeTimecodes(c.Timeframes)
	if err != nil {
		return fail(err)
	}
	prev := h.Version
	h.Duration = &c.Duration
	h.Timeframes = tcJSON
	h.Phase = types.PhaseConsolidated
	h.Version = prev + 1
	h.UpdatedAt = u.timestamp()
	if err := u.d.Store.UpdateHighlight(ctx, h, prev); err != nil {
		return fail(fmt.Errorf("update highlight: %w", err))
	}
	log.WithFields(logrus.Fields{
		"timeframes": len(c.Timeframes),
		"duration":   c.Duration,
	}).Info("timeframes consolidated")

	return ConsolidateResult{
		Key:        key,
		Duration:   c.Duration,
		Timeframes: c.Timeframes,
		ClipPaths:  paths,
	}, nil
}
