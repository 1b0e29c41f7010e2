package interview

// Trend directions.
const (
	TrendImproving = "improving"
	TrendStable    = "stable"
)

// Distribution counts scores per bucket.
type Distribution struct {
	Excellent        int `json:"excellent"`
	Good             int `json:"good"`
	Satisfactory     int `json:"satisfactory"`
	NeedsImprovement int `json:"needs_improvement"`
}

// Stats aggregates a score history. All fields are zero for an empty history.
type Stats struct {
	Count        int          `json:"count"`
	Average      float64      `json:"average"`
	Max          int          `json:"max"`
	Min          int          `json:"min"`
	Distribution Distribution `json:"distribution"`
}

// Summarize computes Stats over scores.
func Summarize(scores []int) Stats {
	st := Stats{Count: len(scores)}
	if len(scores) == 0 {
		return st
	}

	sum := 0
	st.Max, st.Min = scores[0], scores[0]
	for _, s := range scores {
		sum += s
		st.Max = max(st.Max, s)
		st.Min = min(st.Min, s)
		switch {
		case s >= 90:
			st.Distribution.Excellent++
		case s >= 70:
			st.Distribution.Good++
		case s >= 50:
			st.Distribution.Satisfactory++
		default:
			st.Distribution.NeedsImprovement++
		}
	}
	st.Average = float64(sum) / float64(len(scores))
	return st
}

// Trend compares the latest score with the first one only.
func Trend(scores []int) string {
	if len(scores) > 1 && scores[len(scores)-1] > scores[0] {
		return TrendImproving
	}
	return TrendStable
}
