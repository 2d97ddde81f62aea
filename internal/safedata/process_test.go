package safedata

import (
	"fmt"
	"reflect"
	"testing"

	"skillsight/internal/diag"
	apperrors "skillsight/internal/errors"
)

func newTestProcessor() *Processor {
	return NewProcessor(diag.NewBuffer())
}

func TestProcessShapes(t *testing.T) {
	tests := []struct {
		name     string
		data     any
		opts     ProcessOptions
		expected []any
	}{
		{
			name:     "nil returns configured fallback",
			data:     nil,
			opts:     ProcessOptions{Fallback: []any{1, 2, 3}},
			expected: []any{1, 2, 3},
		},
		{
			name:     "nil without fallback returns empty slice",
			data:     nil,
			opts:     ProcessOptions{},
			expected: []any{},
		},
		{
			name:     "nil with non-array fallback returns empty slice",
			data:     nil,
			opts:     ProcessOptions{Fallback: "not an array"},
			expected: []any{},
		},
		{
			name:     "scalar wraps as one-element sequence",
			data:     42,
			opts:     ProcessOptions{},
			expected: []any{42},
		},
		{
			name:     "string scalar wraps too",
			data:     "hello",
			opts:     ProcessOptions{},
			expected: []any{"hello"},
		},
		{
			name:     "plain map without length wraps as scalar",
			data:     map[string]any{"name": "go"},
			opts:     ProcessOptions{},
			expected: []any{map[string]any{"name": "go"}},
		},
		{
			name:     "array passes through",
			data:     []any{1, 2, 3},
			opts:     ProcessOptions{},
			expected: []any{1, 2, 3},
		},
		{
			name:     "typed float slice converts",
			data:     []float64{1.5, 2.5},
			opts:     ProcessOptions{},
			expected: []any{1.5, 2.5},
		},
		{
			name:     "typed string slice converts",
			data:     []string{"a", "b"},
			opts:     ProcessOptions{},
			expected: []any{"a", "b"},
		},
		{
			name: "array-like converts to true sequence",
			data: map[string]any{
				"length": float64(3),
				"0":      "x", "1": "y", "2": "z",
			},
			opts:     ProcessOptions{},
			expected: []any{"x", "y", "z"},
		},
		{
			name: "array-like with missing index yields nil element",
			data: map[string]any{
				"length": float64(3),
				"0":      1.0, "2": 3.0,
			},
			opts:     ProcessOptions{},
			expected: []any{1.0, nil, 3.0},
		},
		{
			name: "array-like with negative length falls back",
			data: map[string]any{
				"length": float64(-1),
			},
			opts:     ProcessOptions{Fallback: []any{"fb"}},
			expected: []any{"fb"},
		},
		{
			name: "array-like with absurd length falls back",
			data: map[string]any{
				"length": float64(maxArrayLikeLength + 1),
			},
			opts:     ProcessOptions{},
			expected: []any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProcessor()
			got := p.Process(tt.data, tt.opts)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Process() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestProcessWindowing(t *testing.T) {
	data := []any{1, 2, 3, 4, 5}

	tests := []struct {
		name     string
		opts     ProcessOptions
		expected []any
	}{
		{
			name:     "start and end slice the middle",
			opts:     ProcessOptions{Start: Ptr(1), End: Ptr(4)},
			expected: []any{2, 3, 4},
		},
		{
			name:     "explicit zero end is empty, not full",
			opts:     ProcessOptions{End: Ptr(0)},
			expected: []any{},
		},
		{
			name:     "out-of-range bounds clamp",
			opts:     ProcessOptions{Start: Ptr(-10), End: Ptr(99)},
			expected: []any{1, 2, 3, 4, 5},
		},
		{
			name:     "inverted bounds yield empty",
			opts:     ProcessOptions{Start: Ptr(4), End: Ptr(2)},
			expected: []any{},
		},
		{
			name:     "limit truncates after slicing",
			opts:     ProcessOptions{Start: Ptr(1), Limit: Ptr(2)},
			expected: []any{2, 3},
		},
		{
			name:     "limit larger than window is a no-op",
			opts:     ProcessOptions{Limit: Ptr(50)},
			expected: []any{1, 2, 3, 4, 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProcessor()
			got := p.Process(data, tt.opts)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Process() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestProcessTransform(t *testing.T) {
	t.Run("transform applies per element", func(t *testing.T) {
		p := newTestProcessor()
		got := p.Process([]any{1, 2, 3}, ProcessOptions{
			Transform: func(v any) (any, error) {
				return v.(int) * 10, nil
			},
		})
		if !reflect.DeepEqual(got, []any{10, 20, 30}) {
			t.Errorf("Process() = %v, expected [10 20 30]", got)
		}
	})

	t.Run("failing transform passes element through", func(t *testing.T) {
		p := newTestProcessor()
		got := p.Process([]any{1, 2, 3}, ProcessOptions{
			Transform: func(v any) (any, error) {
				if v.(int) == 2 {
					return nil, fmt.Errorf("refusing 2")
				}
				return v.(int) * 10, nil
			},
		})
		if !reflect.DeepEqual(got, []any{10, 2, 30}) {
			t.Errorf("Process() = %v, expected failed element passed through", got)
		}
		if p.Recorder().Len() == 0 {
			t.Error("Expected a diagnostic for the failed transform")
		}
	})

	t.Run("panicking transform passes element through", func(t *testing.T) {
		p := newTestProcessor()
		got := p.Process([]any{"a", 2}, ProcessOptions{
			Transform: func(v any) (any, error) {
				// Blows up on the int element
				return v.(string) + "!", nil
			},
		})
		if !reflect.DeepEqual(got, []any{"a!", 2}) {
			t.Errorf("Process() = %v, expected panic survivor passthrough", got)
		}
	})
}

func TestProcessDoesNotMutateInput(t *testing.T) {
	p := newTestProcessor()
	input := []any{1, 2, 3}

	p.Process(input, ProcessOptions{
		Transform: func(v any) (any, error) { return 0, nil },
	})

	if !reflect.DeepEqual(input, []any{1, 2, 3}) {
		t.Errorf("Process mutated its input: %v", input)
	}
}

func TestProcessRecordsDegradedPaths(t *testing.T) {
	p := newTestProcessor()

	p.Process(nil, ProcessOptions{})
	p.Process(42, ProcessOptions{})
	p.Process(map[string]any{"length": float64(2), "0": 1.0, "1": 2.0}, ProcessOptions{})
	p.Process([]any{1, 2}, ProcessOptions{}) // clean path, no event

	events := p.Recorder().Events()
	if len(events) != 3 {
		t.Fatalf("Expected 3 diagnostic events, got %d", len(events))
	}

	kinds := []string{events[0].Kind, events[1].Kind, events[2].Kind}
	expected := []string{"absent", "scalar", "array_like"}
	if !reflect.DeepEqual(kinds, expected) {
		t.Errorf("Expected event kinds %v, got %v", expected, kinds)
	}
	for _, ev := range events {
		if ev.Operation != "safeArrayProcess" {
			t.Errorf("Expected operation safeArrayProcess, got %q", ev.Operation)
		}
	}
}

func TestProcessStrict(t *testing.T) {
	tests := []struct {
		name        string
		data        any
		expectError bool
	}{
		{name: "array succeeds", data: []any{1, 2}, expectError: false},
		{name: "convertible array-like succeeds", data: map[string]any{"length": float64(1), "0": "a"}, expectError: false},
		{name: "nil errors", data: nil, expectError: true},
		{name: "scalar errors", data: 42, expectError: true},
		{name: "unconvertible array-like errors", data: map[string]any{"length": float64(-5)}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProcessor()
			_, err := p.ProcessStrict(tt.data, ProcessOptions{Fallback: []any{1}})

			if !tt.expectError {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}

			if err == nil {
				t.Fatal("Expected a structured error, got none")
			}
			appErr, ok := err.(*apperrors.AppError)
			if !ok {
				t.Fatalf("Expected *AppError, got %T", err)
			}
			if appErr.Code != apperrors.ErrCodeDataShape {
				t.Errorf("Expected code %s, got %s", apperrors.ErrCodeDataShape, appErr.Code)
			}
			if appErr.Context["operation"] != "safeArrayProcess" {
				t.Errorf("Expected operation context, got %v", appErr.Context["operation"])
			}
			if appErr.Context["expected"] != "array" {
				t.Errorf("Expected expected-type context, got %v", appErr.Context["expected"])
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected Kind
	}{
		{name: "nil is absent", value: nil, expected: KindAbsent},
		{name: "any slice is array", value: []any{1}, expected: KindArray},
		{name: "int slice is array", value: []int{1}, expected: KindArray},
		{name: "map with numeric length is array-like", value: map[string]any{"length": float64(2)}, expected: KindArrayLike},
		{name: "map with string numeric length is array-like", value: map[string]any{"length": "2"}, expected: KindArrayLike},
		{name: "map with fractional length is scalar", value: map[string]any{"length": 2.5}, expected: KindScalar},
		{name: "map with non-numeric length is scalar", value: map[string]any{"length": "lots"}, expected: KindScalar},
		{name: "map without length is scalar", value: map[string]any{"a": 1}, expected: KindScalar},
		{name: "number is scalar", value: 3.14, expected: KindScalar},
		{name: "string is scalar", value: "abc", expected: KindScalar},
		{name: "bool is scalar", value: true, expected: KindScalar},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, _ := Classify(tt.value)
			if kind != tt.expected {
				t.Errorf("Classify(%v) = %s, expected %s", tt.value, kind, tt.expected)
			}
		})
	}
}

func BenchmarkProcess(b *testing.B) {
	p := NewProcessor(diag.Nop{})
	data := []any{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	opts := ProcessOptions{Start: Ptr(2), End: Ptr(8)}

	for b.Loop() {
		p.Process(data, opts)
	}
}
