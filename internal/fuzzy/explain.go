package fuzzy

import "github.com/standardbeagle/fuzzysql/internal/matcher"

// TermScore is one matcher's score for a row value.
type TermScore struct {
	Kind   matcher.Kind `json:"kind"`
	Weight int          `json:"weight"`
	Score  float64      `json:"score"`
}

// Explanation breaks the relevance of one row value down per matcher.
type Explanation struct {
	Subject   string      `json:"subject"`
	Terms     []TermScore `json:"terms"`
	Relevance float64     `json:"relevance"`
	Matched   bool        `json:"matched"`
}

// Explain scores subjects in process the way the expression built for field
// and value would score them on the database. NULL columns are passed as "".
func (b *Builder) Explain(field, value string, extended bool, subjects ...string) ([]Explanation, error) {
	expr, err := b.Build(field, value, extended)
	if err != nil {
		return nil, err
	}
	matchers, err := b.registry.Build(b.dialect, extended)
	if err != nil {
		return nil, err
	}

	out := make([]Explanation, 0, len(subjects))
	for _, subject := range subjects {
		ex := Explanation{Subject: subject, Terms: make([]TermScore, len(matchers))}
		for i, m := range matchers {
			score := m.Score(subject, expr.Value)
			ex.Terms[i] = TermScore{Kind: m.Kind(), Weight: m.Weight(), Score: score}
			ex.Relevance += score
		}
		ex.Matched = ex.Relevance > 0
		out = append(out, ex)
	}
	return out, nil
}
