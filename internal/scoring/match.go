package scoring

// Classification is the correctness of one question response.
type Classification string

const (
	Correct   Classification = "correct"
	Partial   Classification = "partial"
	Incorrect Classification = "incorrect"
)

// Match is the set-overlap outcome between selected and correct content.
type Match struct {
	Class   Classification
	Matches int // distinct correct answers selected
	Extras  int // distinct selections outside the correct set
}

// Classify compares normalized selections against the normalized, deduplicated
// correct set. Extra wrong selections alongside every correct one still count
// as Correct; Extras is reported so callers can apply a stricter policy.
// An empty correct set can never be satisfied and classifies as Incorrect.
func Classify(selected, correct []string) Match {
	correctSet := make(map[string]struct{}, len(correct))
	for _, c := range correct {
		correctSet[c] = struct{}{}
	}

	var m Match
	seen := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		if _, ok := correctSet[s]; ok {
			m.Matches++
		} else {
			m.Extras++
		}
	}

	switch {
	case len(correctSet) == 0 || m.Matches == 0:
		m.Class = Incorrect
	case m.Matches == len(correctSet):
		m.Class = Correct
	default:
		m.Class = Partial
	}
	return m
}
