// Package scoring rates prompts on clarity, constraints, continuity and risk.
package scoring

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/kayz/promptstudio/internal/continuity"
	"github.com/kayz/promptstudio/internal/promptbuild"
	"github.com/kayz/promptstudio/internal/studio"
)

// Risk is reported for every scored prompt. It is not derived from content.
const Risk = 2

// Score recomposes p, validates it against caps and rates it. Stored content
// and stored scores are ignored, except for unknown types where the stored
// score (or a zero Score) is returned as-is.
func Score(p *studio.Prompt, caps studio.CAPLookup) studio.Score {
	if p == nil {
		return studio.Score{}
	}
	if !p.Type.Known() {
		if p.Score != nil {
			return *p.Score
		}
		return studio.Score{}
	}

	issues := continuity.Validate(p, promptbuild.Compose(p), caps)

	var clarity, constraints int
	switch p.Type {
	case studio.TypeVideo:
		v := p.Video()
		clarity = ratio(studio.Filled(v.Genre), studio.Filled(v.Location), studio.Filled(v.Action))
		constraints = ratio(studio.Filled(v.Lighting), studio.Filled(v.Palette), studio.FilledList(v.Negative))
	case studio.TypeImage:
		v := p.Image()
		clarity = ratio(studio.Filled(v.Subject), studio.Filled(v.Pose), studio.Filled(v.Composition))
		constraints = ratio(studio.Filled(v.Lighting), studio.Filled(v.Palette), studio.FilledList(v.Negative))
	case studio.TypeStory:
		s := p.Story()
		clarity = ratio(studio.Filled(s.Logline), studio.Filled(s.Theme))
		constraints = 4
		if s.Beats.AnyFilled() {
			constraints = 8
		}
	case studio.TypeWorkflow:
		clarity = 5
		if len(p.Workflow().Steps) > 2 {
			clarity = 9
		}
		constraints = 7
	}

	return studio.Score{
		Clarity:     max(clarity, 1),
		Constraints: max(constraints, 1),
		Continuity:  Continuity(issues),
		Risk:        Risk,
	}
}

// Continuity rates a set of continuity issues. Any forbidden term pins the
// rating to 1; otherwise each missing element costs points from 10.
func Continuity(issues []continuity.Issue) int {
	if continuity.Has(issues, continuity.ForbidViolation) {
		return 1
	}
	score := 10
	if continuity.Has(issues, continuity.MissingCAP) {
		score -= 5
	}
	if continuity.Has(issues, continuity.NoCamera) {
		score -= 2
	}
	if continuity.Has(issues, continuity.NoLighting) {
		score -= 2
	}
	return max(score, 1)
}

// ScoreAll scores prompts concurrently with at most workers goroutines.
// Results line up with the input. caps must be safe for concurrent reads.
func ScoreAll(ctx context.Context, prompts []*studio.Prompt, caps studio.CAPLookup, workers int) ([]studio.Score, error) {
	scores := make([]studio.Score, len(prompts))
	if workers <= 0 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range prompts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scores[i] = Score(p, caps)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scores, nil
}

func ratio(filled ...bool) int {
	n := 0
	for _, f := range filled {
		if f {
			n++
		}
	}
	return int(math.Round(10 * float64(n) / float64(len(filled))))
}
