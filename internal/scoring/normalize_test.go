package scoring

import (
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"quiz-scoring-service/internal/domain"
)

func TestNormalizeShapes(t *testing.T) {
	n := NewNormalizer(nil)
	cases := []struct {
		name string
		raw  any
		want []string
	}{
		{"comma string", " Paris, London ,", []string{"paris", "london"}},
		{"string slice", []string{"A ", " b", ""}, []string{"a", "b"}},
		{"objects", []any{map[string]any{"content": "Red"}, "Blue"}, []string{"red", "blue"}},
		{"typed objects", []map[string]any{{"content": " X"}}, []string{"x"}},
		{"answers", []domain.Answer{{ID: "a1", Content: "Paris"}}, []string{"paris"}},
		{"answer pointers", []*domain.Answer{{ID: "a1", Content: "A"}, nil, {ID: "a2", Content: " B"}}, []string{"a", "b"}},
		{"string maps", []map[string]string{{"content": "A"}, {"id": "x"}}, []string{"a"}},
		{"array", [2]string{"Left", "Right"}, []string{"left", "right"}},
		{"int positions", map[int]string{2: "C", 0: "A", 1: "B"}, []string{"a", "b", "c"}},
		{"string positions", map[string]string{"10": "J", "2": "B", "1": "A"}, []string{"a", "b", "j"}},
		{"any positions", map[string]any{"1": "second", "0": map[string]any{"content": "first"}}, []string{"first", "second"}},
		{"nil", nil, []string{}},
	}
	for _, tc := range cases {
		got := n.Normalize(tc.raw)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := NewNormalizer(nil)
	inputs := []any{
		"A, b ,C",
		[]string{" Mixed Case ", "x,y"},
		map[int]string{1: "One", 0: "Zero"},
		[]any{map[string]any{"content": " Padded "}},
		[]map[string]string{{"content": "A"}, {"content": " b "}},
		[]*domain.Answer{{Content: "A"}, {Content: "Mixed Case"}},
	}
	for _, in := range inputs {
		once := n.Normalize(in)
		twice := n.Normalize(once)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("normalize not idempotent for %v: %v vs %v", in, once, twice)
		}
	}
}

func TestNormalizeUnknownShapeLogsAndReturnsEmpty(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	n := NewNormalizer(zap.New(core))

	got := n.Normalize(42)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice, got %#v", got)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected one anomaly logged, got %d", logs.Len())
	}

	got = n.Normalize([]any{"ok", 3.5})
	if !reflect.DeepEqual(got, []string{"ok"}) {
		t.Fatalf("expected known entries kept, got %v", got)
	}
	if logs.Len() != 2 {
		t.Fatalf("expected element anomaly logged, got %d", logs.Len())
	}
}

func TestRemoveDuplicatesKeepsFirstOccurrence(t *testing.T) {
	got := RemoveDuplicates([]string{"b", "a", "b", "c", "a"})
	want := []string{"b", "a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
