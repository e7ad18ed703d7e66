package ranking

import (
	"context"
	"math"
	"sort"

	"github.com/timmy/cinevibe/internal/domain"
	"github.com/timmy/cinevibe/internal/vector"
)

// synonyms expands a descriptor into the tags it should match.
var synonyms = map[string][]string{
	"cozy":        {"cozy", "romantic", "light"},
	"melancholic": {"melancholic", "introspective", "drama"},
	"upbeat":      {"upbeat", "feel-good", "music"},
	"mysterious":  {"mysterious", "noir", "thriller"},
	"gritty":      {"gritty", "crime", "noir"},
	"surreal":     {"surreal", "art-house", "dreamlike"},
	"romantic":    {"romantic", "cozy", "drama"},
	"dark comedy": {"dark comedy", "surreal", "offbeat"},
}

// Synonyms returns a copy of the descriptor expansion table.
func Synonyms() map[string][]string {
	out := make(map[string][]string, len(synonyms))
	for k, v := range synonyms {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// HeuristicWeights scales each term of the heuristic score.
type HeuristicWeights struct {
	Tag       float64
	Hue       float64
	Intensity float64
	Pacing    float64
}

// DefaultHeuristicWeights returns the stock weights.
func DefaultHeuristicWeights() HeuristicWeights {
	return HeuristicWeights{Tag: 1.5, Hue: 1.2, Intensity: 1, Pacing: 1}
}

// Heuristic scores every movie with an additive tag, hue and slider score.
type Heuristic struct {
	weights HeuristicWeights
}

// NewHeuristic returns a heuristic ranker with the given weights.
func NewHeuristic(w HeuristicWeights) *Heuristic {
	return &Heuristic{weights: w}
}

// Name returns "heuristic".
func (*Heuristic) Name() string {
	return StrategyHeuristic
}

// Rank returns the whole catalog ordered by RankByMood. q.K and q.Metric are
// ignored.
func (h *Heuristic) Rank(_ context.Context, q Query, catalog []domain.Movie) ([]Result, error) {
	if err := q.Mood.Validate(); err != nil {
		return nil, err
	}
	return h.RankByMood(catalog, q.Mood), nil
}

// RankByMood scores every movie and sorts by descending score. Ties keep
// catalog order. Nothing is truncated.
func (h *Heuristic) RankByMood(catalog []domain.Movie, mood domain.Mood) []Result {
	wanted := ExpandDescriptors(mood.Descriptors.Values())
	hues := selectedHues(mood.Colors.Values())

	results := make([]Result, 0, len(catalog))
	for _, movie := range catalog {
		results = append(results, Result{
			Movie:    movie.Clone(),
			Score:    h.score(movie, mood, wanted, hues),
			Strategy: StrategyHeuristic,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

func (h *Heuristic) score(movie domain.Movie, mood domain.Mood, wanted domain.Set, hues []float64) float64 {
	var score float64

	overlap := 0
	for _, tag := range movie.Tags {
		if wanted.Has(vector.NormalizeDescriptor(tag)) {
			overlap++
		}
	}
	score += h.weights.Tag * float64(overlap)

	if len(hues) > 0 && domain.Known(movie.Hue) {
		item := math.Mod(*movie.Hue, 360)
		if item < 0 {
			item += 360
		}
		var total float64
		for _, hue := range hues {
			total += circularDistance(hue, item)
		}
		avg := total / float64(len(hues))
		score += (1 - avg/180) * h.weights.Hue
	}

	if domain.Known(movie.Edge) {
		score += (1 - math.Abs(*movie.Edge-mood.Intensity)) * h.weights.Intensity
	}
	if domain.Known(movie.Tempo) {
		score += (1 - math.Abs(*movie.Tempo-mood.Pacing)) * h.weights.Pacing
	}
	return score
}

// ExpandDescriptors unions the synonym sets of descriptors. A descriptor
// without an entry expands to itself. Every tag in the result is in
// NormalizeDescriptor form, so "feel-good" is returned as "feel good".
func ExpandDescriptors(descriptors []string) domain.Set {
	var tags []string
	for _, d := range descriptors {
		d = vector.NormalizeDescriptor(d)
		if syn, ok := synonyms[d]; ok {
			for _, tag := range syn {
				tags = append(tags, vector.NormalizeDescriptor(tag))
			}
			continue
		}
		tags = append(tags, d)
	}
	return domain.NewSet(tags...)
}

// selectedHues returns the hue in degrees of every parseable colour.
func selectedHues(colors []string) []float64 {
	var hues []float64
	for _, c := range colors {
		if deg, ok := vector.HexToHueDegrees(c); ok {
			hues = append(hues, deg)
		}
	}
	return hues
}

func circularDistance(a, b float64) float64 {
	d := math.Abs(a - b)
	return math.Min(d, 360-d)
}
