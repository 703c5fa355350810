package search

import "sort"

// Candidate holds an embedding vector with the key of the entity it
// describes.
type Candidate struct {
	key    string
	vector []float64
}

// NewCandidate creates a Candidate.
func NewCandidate(key string, vector []float64) Candidate {
	vec := make([]float64, len(vector))
	copy(vec, vector)
	return Candidate{key: key, vector: vec}
}

// Key returns the candidate key.
func (c Candidate) Key() string { return c.key }

// Vector returns the embedding vector (copy).
func (c Candidate) Vector() []float64 {
	vec := make([]float64, len(c.vector))
	copy(vec, c.vector)
	return vec
}

// Match holds a candidate key and its similarity score.
type Match struct {
	key   string
	score float64
}

// NewMatch creates a Match.
func NewMatch(key string, score float64) Match {
	return Match{key: key, score: score}
}

// Key returns the candidate key.
func (m Match) Key() string { return m.key }

// Score returns the similarity score.
func (m Match) Score() float64 { return m.score }

// Rank scores every candidate against the query vector, drops candidates
// below the inclusive threshold, sorts descending by score with exact-score
// ties broken by ascending key, and truncates to topK. Filtering happens
// before truncation so a tight topK never drops a better-ranked candidate.
// A candidate whose dimensionality differs from the query is a
// DimensionError for the whole call.
func Rank(query []float64, candidates []Candidate, topK int, threshold float64) ([]Match, error) {
	if len(candidates) == 0 || topK <= 0 {
		return []Match{}, nil
	}

	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		score, err := Cosine(query, c.vector)
		if err != nil {
			return nil, err
		}
		if score >= threshold {
			matches = append(matches, NewMatch(c.key, score))
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].key < matches[j].key
	})

	if topK > len(matches) {
		topK = len(matches)
	}
	return matches[:topK], nil
}
