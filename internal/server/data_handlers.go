package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"skillsight/internal/history"
	"skillsight/internal/observability"
	"skillsight/internal/safedata"

	"go.opentelemetry.io/otel/attribute"
)

// createValidateHandler wraps form validation with observability. Validation
// findings come back as a 200 with IsValid=false; 400 is reserved for
// requests the server cannot parse at all.
func (s *Server) createValidateHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("skillsight.api")
		ctx, span := tracer.Start(ctx, "api.validate")
		defer span.End()

		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req ValidateRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.String("request.form_type", req.FormType),
			attribute.Int("request.field_count", len(req.Data)),
			attribute.String("operation", "validate"),
		)

		result := s.Validator.Validate(req.FormType, req.Data)

		metrics := om.GetMetrics()
		metrics.RecordBusinessMetric(ctx, "validation_performed", result.IsValid, om,
			attribute.String("form_type", req.FormType),
			attribute.Int("error_count", len(result.Errors)))

		span.SetAttributes(
			attribute.Bool("result.is_valid", result.IsValid),
			attribute.Int("result.error_count", len(result.Errors)),
			attribute.Int("result.warning_count", len(result.Warnings)),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createRulesHandler serves rule descriptors for a form type. Unknown form
// types return an empty descriptor rather than an error so clients can
// feature-detect without special-casing status codes.
func (s *Server) createRulesHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer("skillsight.api").Start(r.Context(), "api.rules")
		defer span.End()

		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		formType := strings.TrimPrefix(r.URL.Path, "/rules/")
		if formType == "" || strings.Contains(formType, "/") {
			writeErrorResponse(w, "Missing form type", "request path must be /rules/{formType}", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.String("request.form_type", formType),
			attribute.Int("rules.revision", s.Validator.Catalog().Revision()),
		)

		descriptor := s.Validator.Rules(formType)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(descriptor); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createTrendsHandler computes a trend over a submitted series or a stored
// score history. Malformed series degrade to the neutral result instead of
// failing the request.
func (s *Server) createTrendsHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("skillsight.api")
		ctx, span := tracer.Start(ctx, "api.trends")
		defer span.End()

		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req TrendRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		series := req.Series
		source := "request"

		// No inline series means the caller wants a stored score history.
		if series == nil {
			if req.UserID == "" {
				span.SetAttributes(attribute.String("error.type", "validation"))
				writeErrorResponse(w, "Missing series", "provide either a series or a userId", http.StatusBadRequest)
				return
			}
			if s.History == nil {
				span.SetAttributes(attribute.String("error.type", "history_disabled"))
				writeErrorResponse(w, "History unavailable", "score history store is not enabled", http.StatusServiceUnavailable)
				return
			}
			kind := req.Kind
			if kind == "" {
				kind = history.KindInterview
			}
			scores, err := s.History.Scores(ctx, req.UserID, kind, 0)
			if err != nil {
				span.RecordError(err)
				span.SetAttributes(attribute.String("error.type", "history_read"))
				writeErrorResponse(w, "Failed to read history", err.Error(), http.StatusInternalServerError)
				return
			}
			series = scores
			source = "history"
			span.SetAttributes(
				attribute.String("request.user_id", req.UserID),
				attribute.String("request.kind", kind),
				attribute.Int("history.points", len(scores)),
			)
		}

		span.SetAttributes(
			attribute.String("request.method", req.Method),
			attribute.String("series.source", source),
			attribute.String("operation", "trend"),
		)

		result := s.Processor.CalculateTrend(series, safedata.TrendOptions{
			Method: req.Method,
			Period: req.Period,
		})

		metrics := om.GetMetrics()
		metrics.RecordBusinessMetric(ctx, "trend_computed", true, om,
			attribute.String("method", result.Method),
			attribute.String("direction", result.Direction),
			attribute.String("source", source))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("result.direction", result.Direction),
			attribute.Float64("result.trend", result.Trend),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createRecommendHandler ranks jobs against candidate skills with the match
// engine. No AI involved, so no API key is required.
func (s *Server) createRecommendHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("skillsight.api")
		ctx, span := tracer.Start(ctx, "api.recommend")
		defer span.End()

		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req RecommendRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.jobs_count", len(req.Jobs)),
			attribute.Int("request.limit", req.Limit),
			attribute.String("operation", "recommend"),
		)

		result := s.Matcher.Recommend(req.Skills, req.Jobs, req.Limit)

		metrics := om.GetMetrics()
		metrics.RecordBusinessMetric(ctx, "recommendation_served", true, om,
			attribute.Int("recommendations_count", len(result.Recommendations)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("recommendations_count", len(result.Recommendations)),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}
