package usecase

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/beedev/recommender/internal/core/domain"
)

// Score normalization modes for display. Both transforms are affine and
// order-preserving, so the sort established before normalization holds.
const (
	NormalizationNone   = "none"
	NormalizationMinMax = "min-max"
	NormalizationZScore = "z-score"
)

// scoreEpsilon guards against binary-float drift at the threshold band edge:
// a candidate scoring exactly at the computed floor must be kept.
const scoreEpsilon = 1e-9

type ConsolidationConfig struct {
	// DefaultScoreForUnscored is assigned for a (key, strategy) pair when the
	// strategy returned the key but reported no score for it. A strategy that
	// never returned a key contributes nothing to its average.
	DefaultScoreForUnscored float64

	// ExactMatchBoostFactor multiplies the merged score of candidates whose
	// name matches the request's exact target name.
	ExactMatchBoostFactor float64

	// DefaultThresholdPercent is the relative cutoff below the top score.
	DefaultThresholdPercent int

	// ThresholdPercentByType overrides the cutoff per component type.
	ThresholdPercentByType map[string]int

	// ScoreNormalization is one of none, min-max, z-score.
	ScoreNormalization string

	// AppendScoreToName appends a human-readable score suffix to candidate
	// names for display pipelines. Off by default.
	AppendScoreToName bool
}

func DefaultConsolidationConfig() ConsolidationConfig {
	return ConsolidationConfig{
		DefaultScoreForUnscored: 0.5,
		ExactMatchBoostFactor:   100,
		DefaultThresholdPercent: 25,
		ScoreNormalization:      NormalizationNone,
	}
}

func (c ConsolidationConfig) normalize() ConsolidationConfig {
	out := c
	def := DefaultConsolidationConfig()

	if out.DefaultScoreForUnscored <= 0 || out.DefaultScoreForUnscored > 1 {
		out.DefaultScoreForUnscored = def.DefaultScoreForUnscored
	}
	if out.ExactMatchBoostFactor <= 1 {
		out.ExactMatchBoostFactor = def.ExactMatchBoostFactor
	}
	if out.DefaultThresholdPercent <= 0 || out.DefaultThresholdPercent > 100 {
		out.DefaultThresholdPercent = def.DefaultThresholdPercent
	}
	switch out.ScoreNormalization {
	case NormalizationNone, NormalizationMinMax, NormalizationZScore:
	default:
		out.ScoreNormalization = def.ScoreNormalization
	}
	return out
}

// thresholdPercentFor resolves the cutoff for a component type.
func (c ConsolidationConfig) thresholdPercentFor(componentType string) int {
	if pct, ok := c.ThresholdPercentByType[componentType]; ok && pct > 0 && pct <= 100 {
		return pct
	}
	return c.DefaultThresholdPercent
}

// ConsolidationResult is the consolidator's full answer for one request.
// FoundCount is the number of distinct keys before threshold filtering; the
// orchestrator uses it to distinguish "nothing found" from "filtered away".
type ConsolidationResult struct {
	Page       []domain.ConsolidatedCandidate
	TotalCount int
	HasMore    bool
	FoundCount int
}

// Consolidator merges N strategy results into one ranked, deduplicated,
// filtered, paginated list. Pure with respect to its inputs and configuration:
// no I/O, deterministic given identical inputs.
type Consolidator struct {
	cfg ConsolidationConfig
}

func NewConsolidator(cfg ConsolidationConfig) *Consolidator {
	return &Consolidator{cfg: cfg.normalize()}
}

type mergeEntry struct {
	candidate   domain.Candidate
	weightedSum float64
	weightSum   float64
	perStrategy map[string]float64
	foundBy     []string
}

// Consolidate runs the merge-score-filter-paginate pipeline. weights maps
// strategy name to its configured trust; missing strategies default to 1.0.
// Empty input yields an empty result, never an error.
func (c *Consolidator) Consolidate(
	results []domain.StrategyResult,
	req domain.SearchRequest,
	weights map[string]float64,
) ConsolidationResult {
	merged := c.collect(results, weights)

	candidates := make([]domain.ConsolidatedCandidate, 0, len(merged))
	for _, entry := range merged {
		score := 0.0
		if entry.weightSum > 0 {
			score = entry.weightedSum / entry.weightSum
		}
		candidates = append(candidates, domain.ConsolidatedCandidate{
			Candidate:         entry.candidate,
			ConsolidatedScore: score,
			PerStrategyScore:  entry.perStrategy,
			FoundBy:           entry.foundBy,
		})
	}

	c.applyExactMatchBoost(candidates, req.ExactTargetName)
	sortCandidates(candidates)
	filtered := c.applyThreshold(candidates, req.ComponentType)
	c.normalizeScores(filtered)
	if c.cfg.AppendScoreToName {
		for i := range filtered {
			filtered[i].Name = fmt.Sprintf("%s (score: %.2f)", filtered[i].Name, filtered[i].ConsolidatedScore)
		}
	}

	page, hasMore := paginate(filtered, req.Offset, req.Limit)
	return ConsolidationResult{
		Page:       page,
		TotalCount: len(filtered),
		HasMore:    hasMore,
		FoundCount: len(candidates),
	}
}

// collect deduplicates candidates by key across all strategy results. The
// first strategy to report a key supplies the display fields; every strategy
// that returned the key contributes a score (explicit or default) weighted by
// its configured trust.
func (c *Consolidator) collect(results []domain.StrategyResult, weights map[string]float64) map[string]*mergeEntry {
	merged := make(map[string]*mergeEntry)

	for _, result := range results {
		weight := 1.0
		if w, ok := weights[result.StrategyName]; ok && w > 0 {
			weight = w
		}

		for _, candidate := range result.Candidates {
			if candidate.Key == "" {
				continue
			}
			entry, ok := merged[candidate.Key]
			if !ok {
				entry = &mergeEntry{
					candidate:   candidate,
					perStrategy: make(map[string]float64),
				}
				merged[candidate.Key] = entry
			}

			score, scored := result.Scores[candidate.Key]
			if !scored {
				score = c.cfg.DefaultScoreForUnscored
			}
			entry.weightedSum += score * weight
			entry.weightSum += weight
			entry.perStrategy[result.StrategyName] = score
			entry.foundBy = append(entry.foundBy, result.StrategyName)
		}
	}
	return merged
}

// applyExactMatchBoost multiplies the score of every candidate whose name
// matches the user-stated target, compared case- and whitespace-insensitively.
// An explicitly named item must outrank probabilistic matches even when its
// raw signal score is modest.
func (c *Consolidator) applyExactMatchBoost(candidates []domain.ConsolidatedCandidate, target string) {
	normTarget := foldName(target)
	if normTarget == "" {
		return
	}
	for i := range candidates {
		name := foldName(candidates[i].Name)
		if name == normTarget || strings.Contains(name, normTarget) {
			candidates[i].ConsolidatedScore *= c.cfg.ExactMatchBoostFactor
		}
	}
}

// applyThreshold keeps the near-best band: everything within the configured
// percentage of the top score after sorting. A request with one outstanding
// match returns one result instead of padding with weak ones.
func (c *Consolidator) applyThreshold(candidates []domain.ConsolidatedCandidate, componentType string) []domain.ConsolidatedCandidate {
	if len(candidates) == 0 {
		return []domain.ConsolidatedCandidate{}
	}
	pct := c.cfg.thresholdPercentFor(componentType)
	floor := candidates[0].ConsolidatedScore * (1 - float64(pct)/100)

	kept := candidates[:0:0]
	for _, cand := range candidates {
		if cand.ConsolidatedScore+scoreEpsilon >= floor {
			kept = append(kept, cand)
		}
	}
	return kept
}

func (c *Consolidator) normalizeScores(candidates []domain.ConsolidatedCandidate) {
	if len(candidates) < 2 {
		return
	}
	switch c.cfg.ScoreNormalization {
	case NormalizationMinMax:
		// Sorted descending: first is max, last is min.
		maxScore := candidates[0].ConsolidatedScore
		minScore := candidates[len(candidates)-1].ConsolidatedScore
		span := maxScore - minScore
		if span <= 0 {
			return
		}
		for i := range candidates {
			candidates[i].ConsolidatedScore = (candidates[i].ConsolidatedScore - minScore) / span
		}
	case NormalizationZScore:
		mean := 0.0
		for _, cand := range candidates {
			mean += cand.ConsolidatedScore
		}
		mean /= float64(len(candidates))

		variance := 0.0
		for _, cand := range candidates {
			d := cand.ConsolidatedScore - mean
			variance += d * d
		}
		stddev := math.Sqrt(variance / float64(len(candidates)))
		if stddev <= 0 {
			return
		}
		for i := range candidates {
			candidates[i].ConsolidatedScore = (candidates[i].ConsolidatedScore - mean) / stddev
		}
	}
}

// sortCandidates orders by consolidated score descending with deterministic
// tie-breaks so repeated consolidation of identical inputs yields identical
// ordering regardless of map iteration order.
func sortCandidates(candidates []domain.ConsolidatedCandidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].ConsolidatedScore != candidates[j].ConsolidatedScore {
			return candidates[i].ConsolidatedScore > candidates[j].ConsolidatedScore
		}
		if candidates[i].Name != candidates[j].Name {
			return candidates[i].Name < candidates[j].Name
		}
		return candidates[i].Key < candidates[j].Key
	})
}

func paginate(candidates []domain.ConsolidatedCandidate, offset, limit int) ([]domain.ConsolidatedCandidate, bool) {
	if offset >= len(candidates) {
		return []domain.ConsolidatedCandidate{}, false
	}
	end := offset + limit
	if end > len(candidates) {
		end = len(candidates)
	}
	return candidates[offset:end], len(candidates) > offset+limit
}

// foldName lowercases and strips all whitespace for name comparison.
func foldName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
