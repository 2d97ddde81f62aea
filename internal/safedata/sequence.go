package safedata

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies the shape of a value handed to the defensive operations.
// Classification happens once at the function boundary; everything after
// works on the converted sequence.
type Kind int

const (
	// KindArray is a true slice.
	KindArray Kind = iota
	// KindArrayLike is a map carrying a numeric "length" key and indexed
	// element keys ("0", "1", ...), the shape a broken upstream serializer
	// produces instead of a JSON array.
	KindArrayLike
	// KindScalar is any other non-nil value.
	KindScalar
	// KindAbsent is nil.
	KindAbsent
)

func (k Kind) String() string {
	switch k {
	case KindArray:
		return "array"
	case KindArrayLike:
		return "array_like"
	case KindScalar:
		return "scalar"
	case KindAbsent:
		return "absent"
	default:
		return "unknown"
	}
}

// Conversion guard for hostile array-like payloads claiming huge lengths.
const maxArrayLikeLength = 100000

// Classify reports the shape of v. For KindArray the returned slice holds the
// elements (copied for typed slices, aliased for []any); for other kinds it
// is nil. Conversion of array-likes is a separate step, see convertArrayLike.
func Classify(v any) (Kind, []any) {
	if v == nil {
		return KindAbsent, nil
	}

	switch s := v.(type) {
	case []any:
		return KindArray, s
	case []float64:
		return KindArray, toAnySlice(s)
	case []float32:
		return KindArray, toAnySlice(s)
	case []int:
		return KindArray, toAnySlice(s)
	case []int32:
		return KindArray, toAnySlice(s)
	case []int64:
		return KindArray, toAnySlice(s)
	case []string:
		return KindArray, toAnySlice(s)
	case []bool:
		return KindArray, toAnySlice(s)
	case []map[string]any:
		return KindArray, toAnySlice(s)
	case map[string]any:
		if _, ok := arrayLikeLength(s); ok {
			return KindArrayLike, nil
		}
		return KindScalar, nil
	default:
		return KindScalar, nil
	}
}

func toAnySlice[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

// arrayLikeLength extracts the numeric "length" of an array-like map.
// A missing or non-numeric length means the map is an ordinary record.
func arrayLikeLength(m map[string]any) (int, bool) {
	raw, ok := m["length"]
	if !ok {
		return 0, false
	}

	switch n := raw.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// convertArrayLike turns an array-like map into a true slice. Missing indexed
// keys become nil elements. Negative or absurd lengths fail the conversion.
func convertArrayLike(m map[string]any) ([]any, error) {
	length, ok := arrayLikeLength(m)
	if !ok {
		return nil, fmt.Errorf("array-like map has no usable length")
	}
	if length < 0 {
		return nil, fmt.Errorf("array-like length is negative: %d", length)
	}
	if length > maxArrayLikeLength {
		return nil, fmt.Errorf("array-like length %d exceeds conversion cap %d", length, maxArrayLikeLength)
	}

	out := make([]any, length)
	for i := 0; i < length; i++ {
		out[i] = m[strconv.Itoa(i)]
	}
	return out, nil
}

// describeValue renders a value for diagnostics: Go type plus a truncated
// rendering of the value itself.
func describeValue(v any) string {
	if v == nil {
		return "nil"
	}
	s := fmt.Sprintf("%T(%v)", v, v)
	if len(s) > 120 {
		s = s[:117] + "..."
	}
	return s
}
