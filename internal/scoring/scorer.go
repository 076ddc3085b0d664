// Package scoring computes multi-factor relevance scores for experience
// records.
//
// Five factors are computed per record, each normalized to [0,1], and
// combined through dynamically adapted weights that always sum to 1.0:
//
//   - semantic: caller-supplied similarity, 0 when absent
//   - quality: match grade of quality query terms against the record
//   - exact: strict whole-word text match (case-insensitive, no stemming;
//     substring hits earn 0.5 partial credit)
//   - recency: exponential decay with a 90-day half-life
//   - density: present quality dimensions / 5, capped at 1
//
// Scoring is deterministic: the same (record, query, similarity, now)
// yields identical output.
package scoring

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/dmfarland/recollect/internal/model"
	"github.com/dmfarland/recollect/internal/quality"
)

// DefaultHalfLifeDays is the recency half-life.
const DefaultHalfLifeDays = 90.0

// Factors is the per-record factor breakdown.
type Factors struct {
	Semantic float64 `json:"semantic"`
	Quality  float64 `json:"quality"`
	Exact    float64 `json:"exact"`
	Recency  float64 `json:"recency"`
	Density  float64 `json:"density"`
}

// Result pairs the final score with its factor and weight breakdowns.
type Result struct {
	Score   float64 `json:"score"`
	Factors Factors `json:"factors"`
	Weights Weights `json:"weights"`
}

// Query is a free-text query split into recognized quality terms and plain
// text terms.
type Query struct {
	QualityTerms []quality.Term
	TextTerms    []string
}

// SplitQuery classifies raw query terms.
func SplitQuery(terms []string) Query {
	var q Query
	for _, raw := range terms {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if t, ok := quality.ParseTerm(raw); ok {
			q.QualityTerms = append(q.QualityTerms, t)
		} else {
			q.TextTerms = append(q.TextTerms, strings.ToLower(raw))
		}
	}
	return q
}

// Empty reports whether the query has no terms at all.
func (q Query) Empty() bool {
	return len(q.QualityTerms) == 0 && len(q.TextTerms) == 0
}

// qualityDominant reports whether more than half of the query terms are
// quality terms.
func (q Query) qualityDominant() bool {
	total := len(q.QualityTerms) + len(q.TextTerms)
	return total > 0 && len(q.QualityTerms)*2 > total
}

// Scorer computes relevance scores.
type Scorer struct {
	halfLifeDays float64
}

// NewScorer creates a scorer. A non-positive half-life falls back to
// DefaultHalfLifeDays.
func NewScorer(halfLifeDays float64) *Scorer {
	if halfLifeDays <= 0 {
		halfLifeDays = DefaultHalfLifeDays
	}
	return &Scorer{halfLifeDays: halfLifeDays}
}

// Score computes the relevance of one record for the query. semantic is the
// caller-supplied similarity (0 when the record has no entry in the
// similarity map); now anchors the recency decay.
func (s *Scorer) Score(exp model.Experience, q Query, semantic float64, now time.Time) Result {
	f := Factors{
		Semantic: clamp01(semantic),
		Quality:  qualityFactor(q, exp.Qualities),
		Exact:    exactFactor(q, exp.Source),
		Recency:  s.recencyFactor(exp.Created, now),
		Density:  math.Min(float64(exp.Qualities.PresentCount())/5.0, 1.0),
	}

	w := weightsFor(q, f)

	score := f.Semantic*w.Semantic +
		f.Quality*w.Quality +
		f.Exact*w.Exact +
		f.Recency*w.Recency +
		f.Density*w.Density
	if score > 1 {
		score = 1
	}

	return Result{Score: score, Factors: f, Weights: w}
}

// qualityFactor averages the term match grades: 1.0 exact, 0.5
// base-dimension partial, 0 otherwise.
func qualityFactor(q Query, v model.QualityVector) float64 {
	if len(q.QualityTerms) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range q.QualityTerms {
		sum += quality.MatchScore(t, v)
	}
	return sum / float64(len(q.QualityTerms))
}

// exactFactor averages the per-term text grades against the record body.
// A term scores 1.0 when it appears as a whole word, 0.5 when it appears
// only inside a longer word, 0 otherwise.
func exactFactor(q Query, body string) float64 {
	if len(q.TextTerms) == 0 {
		return 0
	}
	words := tokenize(body)
	sum := 0.0
	for _, term := range q.TextTerms {
		sum += termScore(term, words)
	}
	return sum / float64(len(q.TextTerms))
}

func termScore(term string, words []string) float64 {
	partial := false
	for _, w := range words {
		if w == term {
			return 1.0
		}
		if len(term) >= 3 && strings.Contains(w, term) {
			partial = true
		}
	}
	if partial {
		return 0.5
	}
	return 0
}

func tokenize(body string) []string {
	return strings.FieldsFunc(strings.ToLower(body), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func (s *Scorer) recencyFactor(created, now time.Time) float64 {
	ageDays := now.Sub(created).Hours() / 24.0
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Exp(-math.Ln2 * ageDays / s.halfLifeDays)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
