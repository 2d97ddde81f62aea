package safedata

import (
	"fmt"
	"strconv"

	"skillsight/internal/diag"
)

// Length returns the element count of a sequence, or fallback when the value
// is not a sequence. Never panics.
func (p *Processor) Length(v any, fallback int) int {
	kind, elems := Classify(v)
	switch kind {
	case KindArray:
		return len(elems)
	case KindArrayLike:
		if converted, err := convertArrayLike(v.(map[string]any)); err == nil {
			return len(converted)
		}
	}

	p.recorder.Record(diag.Event{
		Operation: "safeArrayLength",
		Kind:      kind.String(),
		Received:  describeValue(v),
		Fallback:  strconv.Itoa(fallback),
	})
	return fallback
}

// At returns the element at idx, or fallback when the value is not a
// sequence or idx is out of bounds. Never panics.
func (p *Processor) At(v any, idx int, fallback any) any {
	seq, ok := p.asSequence("safeArrayAccess", v, fallback)
	if !ok {
		return fallback
	}

	if idx < 0 || idx >= len(seq) {
		p.recorder.Record(diag.Event{
			Operation: "safeArrayAccess",
			Kind:      "index_out_of_bounds",
			Received:  fmt.Sprintf("index %d of %d elements", idx, len(seq)),
			Fallback:  describeValue(fallback),
		})
		return fallback
	}
	return seq[idx]
}

// Find returns the first element satisfying pred, or fallback when the value
// is not a sequence, pred is nil, or nothing matches. A panicking predicate
// counts as a non-match for that element. Never panics.
func (p *Processor) Find(v any, pred func(any) bool, fallback any) any {
	if pred == nil {
		p.recorder.Record(diag.Event{
			Operation: "safeFindInArray",
			Kind:      "missing_predicate",
			Received:  describeValue(v),
			Fallback:  describeValue(fallback),
		})
		return fallback
	}

	seq, ok := p.asSequence("safeFindInArray", v, fallback)
	if !ok {
		return fallback
	}

	for _, elem := range seq {
		if p.safeMatch(pred, elem) {
			return elem
		}
	}
	return fallback
}

// asSequence converts a value to a true slice for the narrow helpers,
// recording and reporting failure for anything that is not a sequence.
func (p *Processor) asSequence(operation string, v any, fallback any) ([]any, bool) {
	kind, elems := Classify(v)
	switch kind {
	case KindArray:
		return elems, true
	case KindArrayLike:
		converted, err := convertArrayLike(v.(map[string]any))
		if err == nil {
			return converted, true
		}
		p.recorder.Record(diag.Event{
			Operation: operation,
			Kind:      kind.String(),
			Received:  describeValue(v),
			Fallback:  describeValue(fallback),
			Detail:    err.Error(),
		})
		return nil, false
	default:
		p.recorder.Record(diag.Event{
			Operation: operation,
			Kind:      kind.String(),
			Received:  describeValue(v),
			Fallback:  describeValue(fallback),
		})
		return nil, false
	}
}

func (p *Processor) safeMatch(pred func(any) bool, elem any) (matched bool) {
	defer func() {
		if r := recover(); r != nil {
			p.recorder.Record(diag.Event{
				Operation: "safeFindInArray",
				Kind:      "predicate_panic",
				Received:  describeValue(elem),
				Detail:    fmt.Sprintf("%v", r),
			})
			matched = false
		}
	}()
	return pred(elem)
}
