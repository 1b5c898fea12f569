package scoring

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		selected []string
		correct  []string
		want     Classification
		matches  int
		extras   int
	}{
		{"single correct", []string{"paris"}, []string{"paris"}, Correct, 1, 0},
		{"all correct", []string{"b", "a", "c"}, []string{"a", "b", "c"}, Correct, 3, 0},
		{"all correct plus extra", []string{"a", "b", "z"}, []string{"a", "b"}, Correct, 2, 1},
		{"partial", []string{"a", "b"}, []string{"a", "b", "c"}, Partial, 2, 0},
		{"partial with extra", []string{"a", "z"}, []string{"a", "b"}, Partial, 1, 1},
		{"no overlap", []string{"z"}, []string{"a"}, Incorrect, 0, 1},
		{"nothing selected", nil, []string{"a"}, Incorrect, 0, 0},
		{"empty key", []string{"a"}, nil, Incorrect, 0, 1},
		{"duplicate selections", []string{"a", "a"}, []string{"a", "b"}, Partial, 1, 0},
	}
	for _, tc := range cases {
		m := Classify(tc.selected, tc.correct)
		if m.Class != tc.want || m.Matches != tc.matches || m.Extras != tc.extras {
			t.Fatalf("%s: expected %s/%d/%d, got %+v", tc.name, tc.want, tc.matches, tc.extras, m)
		}
	}
}

func TestClassifyIsTotal(t *testing.T) {
	pool := []string{"a", "b", "c", "d"}
	// every subset of pool as selected, against every non-trivial key
	for sel := 0; sel < 1<<len(pool); sel++ {
		for key := 0; key < 1<<len(pool); key++ {
			m := Classify(subset(pool, sel), subset(pool, key))
			switch m.Class {
			case Correct, Partial, Incorrect:
			default:
				t.Fatalf("unexpected class %q for sel=%b key=%b", m.Class, sel, key)
			}
		}
	}
}

func subset(pool []string, mask int) []string {
	out := []string{}
	for i, v := range pool {
		if mask&(1<<i) != 0 {
			out = append(out, v)
		}
	}
	return out
}
