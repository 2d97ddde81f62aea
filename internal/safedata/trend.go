package safedata

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"skillsight/internal/diag"
	"skillsight/internal/errors"
)

// Trend calculation methods.
const (
	TrendMethodLinear     = "linear"
	TrendMethodPercentage = "percentage"
	TrendMethodSimple     = "simple"
)

// Trend directions.
const (
	DirectionUp     = "up"
	DirectionDown   = "down"
	DirectionStable = "stable"
)

// TrendOptions controls CalculateTrend. Period restricts the series to its
// last N elements; nil or non-positive means the whole series. Fallback
// replaces the default zero-trend result on degenerate input.
type TrendOptions struct {
	Method   string
	Period   *int
	Fallback *TrendResult
}

// TrendResult summarizes directional change across a numeric series.
// Correlation is only set by the linear method.
type TrendResult struct {
	Trend       float64  `json:"trend"`
	Direction   string   `json:"direction"`
	Confidence  float64  `json:"confidence"`
	Change      float64  `json:"change"`
	Method      string   `json:"method,omitempty"`
	Correlation *float64 `json:"correlation,omitempty"`
}

// CalculateTrend derives a trend summary from a loosely-typed series. Shape
// safety is delegated to the Process path, elements are coerced to numbers
// (strings included) with non-numeric entries dropped and recorded, and
// fewer than two usable points yields the fallback instead of an error.
func (p *Processor) CalculateTrend(data any, opts TrendOptions) TrendResult {
	method := p.resolveTrendMethod(opts.Method)

	series, shapeErr := p.trendSeries("calculateTrend", data, opts, false)
	if shapeErr != nil {
		fb := p.trendFallback(method, opts)
		p.recorder.Record(diag.Event{
			Operation: "calculateTrend",
			Kind:      shapeErr.kind.String(),
			Received:  shapeErr.received,
			Fallback:  fmt.Sprintf("%+v", fb),
			Detail:    shapeErr.detail,
		})
		return fb
	}

	if len(series) < 2 {
		fb := p.trendFallback(method, opts)
		p.recorder.Record(diag.Event{
			Operation: "calculateTrend",
			Kind:      "insufficient_data",
			Received:  fmt.Sprintf("%d valid points", len(series)),
			Fallback:  fmt.Sprintf("%+v", fb),
		})
		return fb
	}

	result, degenerate := computeTrend(method, series)
	if degenerate != "" {
		fb := p.trendFallback(method, opts)
		p.recorder.Record(diag.Event{
			Operation: "calculateTrend",
			Kind:      "degenerate_series",
			Received:  fmt.Sprintf("%d points", len(series)),
			Fallback:  fmt.Sprintf("%+v", fb),
			Detail:    degenerate,
		})
		return fb
	}
	return result
}

// CalculateTrendStrict is CalculateTrend with every fallback path converted
// into a structured error.
func (p *Processor) CalculateTrendStrict(data any, opts TrendOptions) (TrendResult, error) {
	method := p.resolveTrendMethod(opts.Method)

	series, shapeErr := p.trendSeries("calculateTrend", data, opts, true)
	if shapeErr != nil {
		return TrendResult{}, shapeErr.toAppError()
	}

	if len(series) < 2 {
		return TrendResult{}, errors.NewDataError(errors.ErrCodeInsufficientData,
			fmt.Sprintf("calculateTrend requires at least 2 numeric points, got %d", len(series)), nil).
			WithContext("operation", "calculateTrend").
			WithContext("valid_points", len(series)).
			WithContext("expected", "numeric series of length >= 2")
	}

	result, degenerate := computeTrend(method, series)
	if degenerate != "" {
		return TrendResult{}, errors.NewDataError(errors.ErrCodeDataShape,
			fmt.Sprintf("calculateTrend cannot apply %s method: %s", method, degenerate), nil).
			WithContext("operation", "calculateTrend").
			WithContext("method", method)
	}
	return result, nil
}

// trendSeries runs the shared shape pipeline and numeric coercion for both
// trend entry points.
func (p *Processor) trendSeries(operation string, data any, opts TrendOptions, strict bool) ([]float64, *shapeError) {
	var (
		elems    []any
		shapeErr *shapeError
	)
	if strict {
		elems, shapeErr = p.processCoreStrict(operation, data, ProcessOptions{})
	} else {
		elems, shapeErr = p.processCore(operation, data, ProcessOptions{})
	}
	if shapeErr != nil {
		return nil, shapeErr
	}

	if opts.Period != nil && *opts.Period > 0 && *opts.Period < len(elems) {
		elems = elems[len(elems)-*opts.Period:]
	}

	series := make([]float64, 0, len(elems))
	for _, elem := range elems {
		n, ok := coerceNumber(elem)
		if !ok {
			p.recorder.Record(diag.Event{
				Operation: operation,
				Kind:      "non_numeric_element",
				Received:  describeValue(elem),
				Fallback:  "element dropped",
			})
			continue
		}
		series = append(series, n)
	}
	return series, nil
}

// trendFallback resolves the degraded-path result: the caller's fallback
// verbatim, or the zero trend stamped with the resolved method.
func (p *Processor) trendFallback(method string, opts TrendOptions) TrendResult {
	if opts.Fallback != nil {
		return *opts.Fallback
	}
	return TrendResult{Trend: 0, Direction: DirectionStable, Confidence: 0, Method: method}
}

func (p *Processor) resolveTrendMethod(method string) string {
	switch method {
	case TrendMethodLinear, TrendMethodPercentage, TrendMethodSimple:
		return method
	case "":
		return TrendMethodLinear
	default:
		p.recorder.Record(diag.Event{
			Operation: "calculateTrend",
			Kind:      "unknown_method",
			Received:  method,
			Fallback:  TrendMethodLinear,
		})
		return TrendMethodLinear
	}
}

// computeTrend dispatches to the method implementations. A non-empty second
// return marks a degenerate series the method cannot handle (for example a
// zero baseline for percentage change).
func computeTrend(method string, series []float64) (TrendResult, string) {
	switch method {
	case TrendMethodSimple:
		return simpleTrend(series)
	case TrendMethodPercentage:
		return percentageTrend(series)
	default:
		return linearTrend(series), ""
	}
}

// simpleTrend is the percentage change from the first point to the last.
// Confidence is 0.8 with five or more points, 0.6 otherwise.
func simpleTrend(series []float64) (TrendResult, string) {
	first := series[0]
	last := series[len(series)-1]
	if first == 0 {
		return TrendResult{}, "first point is zero, percentage change undefined"
	}

	trend := round2((last - first) / first * 100)

	confidence := 0.6
	if len(series) >= 5 {
		confidence = 0.8
	}

	return TrendResult{
		Trend:      trend,
		Direction:  directionFromSign(trend),
		Confidence: confidence,
		Change:     round2(last - first),
		Method:     TrendMethodSimple,
	}, ""
}

func directionFromSign(trend float64) string {
	switch {
	case trend > 0:
		return DirectionUp
	case trend < 0:
		return DirectionDown
	default:
		return DirectionStable
	}
}

// percentageTrend is the mean of consecutive percentage changes, skipping
// steps whose baseline is zero. Direction thresholds sit at +-0.5 and
// confidence grows with the number of usable changes, capped at 0.9.
func percentageTrend(series []float64) (TrendResult, string) {
	var sum float64
	used := 0
	for i := 1; i < len(series); i++ {
		prev := series[i-1]
		if prev == 0 {
			continue
		}
		sum += (series[i] - prev) / prev * 100
		used++
	}
	if used == 0 {
		return TrendResult{}, "every consecutive change has a zero baseline"
	}

	trend := round2(sum / float64(used))

	direction := DirectionStable
	switch {
	case trend > 0.5:
		direction = DirectionUp
	case trend < -0.5:
		direction = DirectionDown
	}

	confidence := math.Min(0.9, 0.5+0.1*float64(used))

	return TrendResult{
		Trend:      trend,
		Direction:  direction,
		Confidence: round2(confidence),
		Change:     round2(series[len(series)-1] - series[0]),
		Method:     TrendMethodPercentage,
	}, ""
}

// linearTrend fits an ordinary least-squares line of value against index.
// Direction thresholds sit at +-0.1 on the slope and confidence is the
// absolute Pearson correlation, which is also reported as Correlation.
func linearTrend(series []float64) TrendResult {
	n := float64(len(series))

	var sumX, sumY, sumXY, sumXX, sumYY float64
	for i, y := range series {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
		sumYY += y * y
	}

	slope := (n*sumXY - sumX*sumY) / (n*sumXX - sumX*sumX)

	correlation := 0.0
	denom := math.Sqrt((n*sumXX - sumX*sumX) * (n*sumYY - sumY*sumY))
	if denom != 0 {
		correlation = (n*sumXY - sumX*sumY) / denom
	}

	direction := DirectionStable
	switch {
	case slope > 0.1:
		direction = DirectionUp
	case slope < -0.1:
		direction = DirectionDown
	}

	trend := round2(slope)
	corr := round2(correlation)

	return TrendResult{
		Trend:       trend,
		Direction:   direction,
		Confidence:  round2(math.Abs(correlation)),
		Change:      round2(series[len(series)-1] - series[0]),
		Method:      TrendMethodLinear,
		Correlation: &corr,
	}
}

// coerceNumber converts a sequence element to a float64. Strings are parsed,
// integers widened; booleans, nils, containers and non-finite floats do not
// count as numeric.
func coerceNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsInf(n, 0) && !math.IsNaN(n)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
