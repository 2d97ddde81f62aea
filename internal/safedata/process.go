package safedata

import (
	"fmt"

	"skillsight/internal/diag"
	"skillsight/internal/errors"
)

// Processor bundles the defensive operations with their diagnostic sink.
// All methods are pure aside from recording diagnostics; a Processor is safe
// for concurrent use when its Recorder is.
type Processor struct {
	recorder diag.Recorder
}

// NewProcessor creates a Processor recording diagnostics to rec. A nil rec
// gets a default bounded buffer.
func NewProcessor(rec diag.Recorder) *Processor {
	if rec == nil {
		rec = diag.NewBuffer()
	}
	return &Processor{recorder: rec}
}

// Recorder exposes the diagnostic sink, mainly for stats reporting.
func (p *Processor) Recorder() diag.Recorder {
	return p.recorder
}

// Ptr returns a pointer to v, for the optional fields of ProcessOptions and
// TrendOptions.
func Ptr[T any](v T) *T {
	return &v
}

// ProcessOptions controls Process. Start, End and Limit are optional; nil
// means "not specified" (End defaults to the sequence length), which is
// distinct from an explicit zero.
type ProcessOptions struct {
	Start     *int
	End       *int
	Limit     *int
	Transform func(any) (any, error)
	Fallback  any
}

// Process normalizes data into a slice and applies the configured window,
// limit and per-element transform. It never panics: absent input yields the
// fallback, array-likes are converted, any other scalar is wrapped as a
// one-element sequence, and a failing transform passes the element through
// unchanged. Every degraded path is recorded.
func (p *Processor) Process(data any, opts ProcessOptions) []any {
	out, shapeErr := p.processCore("safeArrayProcess", data, opts)
	if shapeErr != nil {
		fb := p.resolveFallback("safeArrayProcess", opts.Fallback)
		p.record("safeArrayProcess", shapeErr, fb)
		return fb
	}
	return out
}

// ProcessStrict is Process with the fallback paths converted into structured
// errors naming the operation, the received value and the expected type.
// Scalars are rejected too: strict callers asked to be told about every
// non-array input.
func (p *Processor) ProcessStrict(data any, opts ProcessOptions) ([]any, error) {
	out, shapeErr := p.processCoreStrict("safeArrayProcess", data, opts)
	if shapeErr != nil {
		return nil, shapeErr.toAppError()
	}
	return out, nil
}

// shapeError is the core's reported anomaly: which operation hit it, what
// arrived, and what was expected. The non-strict wrappers turn it into a
// fallback plus a diagnostic; the strict wrappers surface it as an AppError.
type shapeError struct {
	operation string
	kind      Kind
	received  string
	expected  string
	detail    string
}

func (e *shapeError) toAppError() *errors.AppError {
	msg := fmt.Sprintf("%s expected %s, received %s", e.operation, e.expected, e.kind)
	appErr := errors.NewDataError(errors.ErrCodeDataShape, msg, nil).
		WithContext("operation", e.operation).
		WithContext("received", e.received).
		WithContext("expected", e.expected)
	if e.detail != "" {
		appErr = appErr.WithContext("detail", e.detail)
	}
	return appErr
}

// processCore implements the one shared policy-free path: classify, convert,
// window, limit, transform. It reports shape anomalies instead of deciding
// between fallback and error.
func (p *Processor) processCore(operation string, data any, opts ProcessOptions) ([]any, *shapeError) {
	kind, elems := Classify(data)

	switch kind {
	case KindArray:
		// Copy so the window and transforms never alias the caller's slice.
		seq := make([]any, len(elems))
		copy(seq, elems)
		return p.applyWindow(operation, seq, opts), nil

	case KindArrayLike:
		converted, err := convertArrayLike(data.(map[string]any))
		if err != nil {
			return nil, &shapeError{
				operation: operation,
				kind:      KindArrayLike,
				received:  describeValue(data),
				expected:  "array",
				detail:    err.Error(),
			}
		}
		p.recorder.Record(diag.Event{
			Operation: operation,
			Kind:      KindArrayLike.String(),
			Received:  describeValue(data),
			Detail:    fmt.Sprintf("converted array-like of length %d", len(converted)),
		})
		return p.applyWindow(operation, converted, opts), nil

	case KindScalar:
		p.recorder.Record(diag.Event{
			Operation: operation,
			Kind:      KindScalar.String(),
			Received:  describeValue(data),
			Detail:    "wrapped scalar as one-element sequence",
		})
		return p.applyWindow(operation, []any{data}, opts), nil

	default: // KindAbsent
		return nil, &shapeError{
			operation: operation,
			kind:      KindAbsent,
			received:  "nil",
			expected:  "array",
		}
	}
}

// processCoreStrict is processCore with scalars rejected rather than wrapped.
func (p *Processor) processCoreStrict(operation string, data any, opts ProcessOptions) ([]any, *shapeError) {
	kind, _ := Classify(data)
	if kind == KindScalar {
		return nil, &shapeError{
			operation: operation,
			kind:      KindScalar,
			received:  describeValue(data),
			expected:  "array",
		}
	}
	return p.processCore(operation, data, opts)
}

// applyWindow clamps Start/End into [0, len], slices, truncates to Limit and
// runs the per-element transform.
func (p *Processor) applyWindow(operation string, seq []any, opts ProcessOptions) []any {
	start := 0
	end := len(seq)
	if opts.Start != nil {
		start = clamp(*opts.Start, 0, len(seq))
	}
	if opts.End != nil {
		end = clamp(*opts.End, 0, len(seq))
	}
	if end < start {
		end = start
	}
	seq = seq[start:end]

	if opts.Limit != nil {
		limit := clamp(*opts.Limit, 0, len(seq))
		seq = seq[:limit]
	}

	if opts.Transform == nil {
		return seq
	}

	out := make([]any, len(seq))
	for i, elem := range seq {
		transformed, err := applyTransform(opts.Transform, elem)
		if err != nil {
			p.recorder.Record(diag.Event{
				Operation: operation,
				Kind:      "transform_failure",
				Received:  describeValue(elem),
				Fallback:  "element passed through unmodified",
				Detail:    err.Error(),
			})
			out[i] = elem
			continue
		}
		out[i] = transformed
	}
	return out
}

// applyTransform invokes a caller-supplied transform, converting panics into
// errors so a single bad element cannot abort the whole operation.
func applyTransform(transform func(any) (any, error), elem any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transform panicked: %v", r)
		}
	}()
	return transform(elem)
}

// resolveFallback returns the configured fallback as a true slice, or an
// empty slice when the fallback itself is not an array.
func (p *Processor) resolveFallback(operation string, fallback any) []any {
	if fallback == nil {
		return []any{}
	}
	kind, elems := Classify(fallback)
	if kind != KindArray {
		p.recorder.Record(diag.Event{
			Operation: operation,
			Kind:      kind.String(),
			Received:  describeValue(fallback),
			Fallback:  "[]",
			Detail:    "configured fallback is not an array",
		})
		return []any{}
	}
	out := make([]any, len(elems))
	copy(out, elems)
	return out
}

func (p *Processor) record(operation string, e *shapeError, fallback []any) {
	p.recorder.Record(diag.Event{
		Operation: operation,
		Kind:      e.kind.String(),
		Received:  e.received,
		Fallback:  fmt.Sprintf("%v", fallback),
		Detail:    e.detail,
	})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
