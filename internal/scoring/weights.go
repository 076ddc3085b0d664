package scoring

// Weights is the per-factor weight breakdown. After normalization the
// fields sum to 1.0 within 1e-9.
type Weights struct {
	Semantic float64 `json:"semantic"`
	Quality  float64 `json:"quality"`
	Exact    float64 `json:"exact"`
	Recency  float64 `json:"recency"`
	Density  float64 `json:"density"`
}

// Sum returns the total weight mass.
func (w Weights) Sum() float64 {
	return w.Semantic + w.Quality + w.Exact + w.Recency + w.Density
}

func (w Weights) normalize() Weights {
	sum := w.Sum()
	if sum == 0 {
		return baseWeights()
	}
	return Weights{
		Semantic: w.Semantic / sum,
		Quality:  w.Quality / sum,
		Exact:    w.Exact / sum,
		Recency:  w.Recency / sum,
		Density:  w.Density / sum,
	}
}

func baseWeights() Weights {
	return Weights{Semantic: 0.50, Quality: 0.30, Exact: 0.10, Recency: 0.05, Density: 0.05}
}

// weightsFor adapts the base weights to the query shape: a quality-dominant
// query with a strong quality factor shifts mass onto the quality factor;
// a strong literal hit shifts mass onto the exact factor. The result is
// always renormalized to sum exactly 1.0.
func weightsFor(q Query, f Factors) Weights {
	w := baseWeights()
	switch {
	case q.qualityDominant() && f.Quality > 0.5:
		w = Weights{Semantic: 0.30, Quality: 0.60, Exact: 0.05, Recency: 0.05, Density: 0.05}
	case f.Exact > 0.8:
		w = Weights{Semantic: 0.45, Quality: 0.20, Exact: 0.25, Recency: 0.05, Density: 0.05}
	}
	return w.normalize()
}
