package scoring

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"quiz-scoring-service/internal/domain"
)

// contentCarrier is implemented by answer records that expose their content.
type contentCarrier interface {
	AnswerContent() string
}

// Normalizer turns the many shapes an answer set arrives in into a canonical
// ordered sequence of lower-cased, trimmed content strings. Matching is keyed
// on content, not identifiers, so answers still line up when ids drift between
// submission and the grading join.
type Normalizer struct {
	log *zap.Logger
}

// NewNormalizer returns a normalizer that reports unknown shapes to log.
func NewNormalizer(log *zap.Logger) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{log: log}
}

// Normalize accepts a comma-separated string, a slice of strings, content
// carriers or content maps, or a position->content map. Unknown shapes yield
// an empty slice.
func (n *Normalizer) Normalize(raw any) []string {
	switch v := raw.(type) {
	case nil:
		return []string{}
	case string:
		return clean(strings.Split(v, ","))
	case []string:
		return clean(v)
	case []domain.Answer:
		out := make([]string, 0, len(v))
		for _, a := range v {
			out = append(out, a.Content)
		}
		return clean(out)
	case map[int]string:
		keys := make([]int, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Ints(keys)
		out := make([]string, 0, len(v))
		for _, k := range keys {
			out = append(out, v[k])
		}
		return clean(out)
	case map[string]string:
		values := make(map[string]any, len(v))
		for k, s := range v {
			values[k] = s
		}
		return n.positional(values)
	case map[string]any:
		return n.positional(v)
	}
	if out, ok := n.sequence(raw); ok {
		return out
	}
	n.anomaly(raw)
	return []string{}
}

// sequence walks any slice or array whose elements are strings, content
// carriers or content maps. ok is false when raw is not a sequence.
func (n *Normalizer) sequence(raw any) ([]string, bool) {
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		ev := rv.Index(i)
		if (ev.Kind() == reflect.Pointer || ev.Kind() == reflect.Interface) && ev.IsNil() {
			n.anomaly(nil, zap.Int("index", i))
			continue
		}
		item := ev.Interface()
		s, ok := contentOf(item)
		if !ok {
			n.anomaly(item, zap.Int("index", i))
			continue
		}
		out = append(out, s)
	}
	return clean(out), true
}

// positional orders a position->content map by numeric key; non-numeric keys
// sort after numeric ones, lexically.
func (n *Normalizer) positional(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, errI := strconv.Atoi(strings.TrimSpace(keys[i]))
		nj, errJ := strconv.Atoi(strings.TrimSpace(keys[j]))
		switch {
		case errI == nil && errJ == nil:
			return ni < nj
		case errI == nil:
			return true
		case errJ == nil:
			return false
		}
		return keys[i] < keys[j]
	})
	out := make([]string, 0, len(m))
	for _, k := range keys {
		s, ok := contentOf(m[k])
		if !ok {
			n.anomaly(m[k], zap.String("position", k))
			continue
		}
		out = append(out, s)
	}
	return clean(out)
}

func (n *Normalizer) anomaly(value any, fields ...zap.Field) {
	fields = append(fields, zap.String("type", fmt.Sprintf("%T", value)))
	n.log.Warn("unrecognized answer shape, ignoring", fields...)
}

// RemoveDuplicates keeps the first occurrence of each value.
func RemoveDuplicates(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func contentOf(item any) (string, bool) {
	switch v := item.(type) {
	case string:
		return v, true
	case contentCarrier:
		return v.AnswerContent(), true
	case map[string]any:
		if c, ok := v["content"].(string); ok {
			return c, true
		}
	case map[string]string:
		if c, ok := v["content"]; ok {
			return c, true
		}
	}
	return "", false
}

func clean(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
