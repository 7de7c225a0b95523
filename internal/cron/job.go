package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/kayz/promptstudio/internal/logger"
	"github.com/kayz/promptstudio/internal/metrics"
	"github.com/kayz/promptstudio/internal/scoring"
	"github.com/kayz/promptstudio/internal/studio"
)

// LowContinuity is the continuity rating below which a prompt is reported
// as needing attention.
const LowContinuity = 5

// PromptStore is the storage a Rescorer reads from and writes scores to.
type PromptStore interface {
	ListPrompts() ([]*studio.Prompt, error)
	ListCAPs() ([]studio.CAP, error)
	SetPromptScore(id string, score studio.Score) error
}

// Result describes one re-scoring pass.
type Result struct {
	Scored        int
	Changed       int
	LowContinuity []string
	Duration      time.Duration
}

// Rescorer refreshes the stored score of every prompt. Scores go stale when
// params change, and CAP edits can change continuity without touching the
// prompt at all.
type Rescorer struct {
	store    PromptStore
	workers  int
	recorder *metrics.Recorder
}

// NewRescorer creates a Rescorer. recorder may be nil.
func NewRescorer(store PromptStore, workers int, recorder *metrics.Recorder) *Rescorer {
	if workers <= 0 {
		workers = 1
	}
	return &Rescorer{store: store, workers: workers, recorder: recorder}
}

// RunOnce scores every stored prompt against a snapshot of the CAPs taken at
// the start of the run and writes back the scores that changed.
func (r *Rescorer) RunOnce(ctx context.Context) (*Result, error) {
	started := time.Now()
	res, scored, err := r.run(ctx)
	if r.recorder != nil {
		run := metrics.Run{Started: started, Scored: scored, Err: err}
		if res != nil {
			run.LowContinuity = len(res.LowContinuity)
		}
		r.recorder.ObserveRun(run)
	}
	if err != nil {
		logger.Error("[CRON] Rescore failed: %v", err)
		return nil, err
	}
	res.Duration = time.Since(started)
	logger.Info("[CRON] Rescored %d prompts (%d changed, %d low continuity) in %s",
		res.Scored, res.Changed, len(res.LowContinuity), res.Duration.Round(time.Millisecond))
	return res, nil
}

func (r *Rescorer) run(ctx context.Context) (*Result, map[string]int, error) {
	caps, err := r.store.ListCAPs()
	if err != nil {
		return nil, nil, fmt.Errorf("load caps: %w", err)
	}
	prompts, err := r.store.ListPrompts()
	if err != nil {
		return nil, nil, fmt.Errorf("load prompts: %w", err)
	}

	scores, err := scoring.ScoreAll(ctx, prompts, studio.NewCAPIndex(caps), r.workers)
	if err != nil {
		return nil, nil, err
	}

	res := &Result{}
	byType := make(map[string]int)
	for i, p := range prompts {
		if !p.Type.Known() {
			continue
		}
		score := scores[i]
		res.Scored++
		byType[string(p.Type)]++
		if score.Continuity < LowContinuity {
			res.LowContinuity = append(res.LowContinuity, p.ID)
		}
		if p.Score != nil && *p.Score == score {
			continue
		}
		if err := r.store.SetPromptScore(p.ID, score); err != nil {
			return nil, nil, fmt.Errorf("store score for %s: %w", p.ID, err)
		}
		res.Changed++
		logger.Debug("[CRON] Prompt %s rescored: %+v", p.ID, score)
	}
	return res, byType, nil
}
