package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"skillsight/internal/ai"
	"skillsight/internal/history"
	"skillsight/internal/observability"
	"skillsight/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

// createAnalyzeHandler wraps the resume analysis handler with observability
func (s *Server) createAnalyzeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("skillsight.api")
		ctx, span := tracer.Start(ctx, "api.analyze")
		defer span.End()

		// Parse request
		var req AnalyzeRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		// Validation
		if strings.TrimSpace(req.ResumeText) == "" {
			err := fmt.Errorf("missing resume text")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing resume text", "resumeText field is required", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.TargetRole) == "" {
			err := fmt.Errorf("missing target role")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing target role", "targetRole field is required", http.StatusBadRequest)
			return
		}

		// Size validation
		if len(req.ResumeText) > int(s.MaxRequestSize/2) {
			err := fmt.Errorf("resume text too large: %d chars", len(req.ResumeText))
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Resume text too large", fmt.Sprintf("resumeText exceeds recommended size limit of %d characters", s.MaxRequestSize/2), http.StatusBadRequest)
			return
		}

		// Add request attributes to span
		span.SetAttributes(
			attribute.Int("request.resume_length", len(req.ResumeText)),
			attribute.String("request.target_role", req.TargetRole),
			attribute.String("operation", "analyze"),
		)

		input := types.AnalyzeResumeInput{
			ResumeText: req.ResumeText,
			TargetRole: req.TargetRole,
		}

		// Create AI service for analyze operation
		analyzeConfig := s.AppConfig.GetAnalyzeConfig()
		aiService, err := ai.NewService(&analyzeConfig, "analyze", s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}

		// Track AI operation with observability and token usage
		metrics := om.GetMetrics()
		var result types.AnalyzeResumeOutput
		err = metrics.TrackAIOperationWithTokens(ctx, "analyze", func(ctx context.Context) *observability.AIOperationResult {
			output, tokenUsage, aiErr := aiService.Provider.AnalyzeResume(ctx, input)
			result = output
			return &observability.AIOperationResult{
				Error:      aiErr,
				TokenUsage: (*observability.TokenUsage)(tokenUsage),
			}
		}, om)

		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "ai_processing"))
			metrics.RecordBusinessMetric(ctx, "resume_analyzed", false, om,
				attribute.String("error", err.Error()))
			writeErrorResponse(w, "Failed to analyze resume", err.Error(), http.StatusInternalServerError)
			return
		}

		// Record success metrics
		metrics.RecordBusinessMetric(ctx, "resume_analyzed", true, om,
			attribute.Int("skills_count", len(result.Skills)),
			attribute.Int("gaps_count", len(result.SkillGaps)),
			attribute.Int("ats.score", result.ATSScore))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("response.skills_count", len(result.Skills)),
			attribute.Int("response.gaps_count", len(result.SkillGaps)),
			attribute.Int("ats.score", result.ATSScore),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createQuestionsHandler wraps the interview question generator with observability
func (s *Server) createQuestionsHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("skillsight.api")
		ctx, span := tracer.Start(ctx, "api.interview.questions")
		defer span.End()

		var req QuestionsRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.Role) == "" {
			err := fmt.Errorf("missing role")
			span.RecordError(err)
			writeErrorResponse(w, "Missing role", "role field is required", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.String("request.role", req.Role),
			attribute.String("request.interview_type", req.InterviewType),
			attribute.String("request.difficulty", req.Difficulty),
			attribute.Int("request.count", req.Count),
			attribute.String("operation", "interview"),
		)

		input := types.GenerateQuestionsInput{
			Role:          req.Role,
			InterviewType: req.InterviewType,
			Difficulty:    req.Difficulty,
			Topics:        req.Topics,
			Count:         req.Count,
		}

		// Create AI service for interview operation
		interviewConfig := s.AppConfig.GetInterviewConfig()
		aiService, err := ai.NewService(&interviewConfig, "interview", s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}

		metrics := om.GetMetrics()
		var result types.GenerateQuestionsOutput
		err = metrics.TrackAIOperationWithTokens(ctx, "interview", func(ctx context.Context) *observability.AIOperationResult {
			output, tokenUsage, aiErr := aiService.Provider.GenerateQuestions(ctx, input)
			result = output
			return &observability.AIOperationResult{
				Error:      aiErr,
				TokenUsage: (*observability.TokenUsage)(tokenUsage),
			}
		}, om)

		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "interview_session", false, om)
			writeErrorResponse(w, "Failed to generate interview questions", err.Error(), http.StatusInternalServerError)
			return
		}

		metrics.RecordBusinessMetric(ctx, "interview_session", true, om,
			attribute.Int("questions_count", len(result.Questions)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("questions_count", len(result.Questions)),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createScoreHandler wraps the answer scoring handler with observability
func (s *Server) createScoreHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("skillsight.api")
		ctx, span := tracer.Start(ctx, "api.interview.score")
		defer span.End()

		var req ScoreRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.Question) == "" {
			err := fmt.Errorf("missing question")
			span.RecordError(err)
			writeErrorResponse(w, "Missing question", "question field is required", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Answer) == "" {
			err := fmt.Errorf("missing answer")
			span.RecordError(err)
			writeErrorResponse(w, "Missing answer", "answer field is required", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.answer_length", len(req.Answer)),
			attribute.String("request.role", req.Role),
			attribute.String("operation", "score"),
		)

		input := types.ScoreAnswerInput{
			Question: req.Question,
			Answer:   req.Answer,
			Role:     req.Role,
		}

		// Create AI service for score operation
		scoreConfig := s.AppConfig.GetScoreConfig()
		aiService, err := ai.NewService(&scoreConfig, "score", s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}

		metrics := om.GetMetrics()
		var result types.ScoreAnswerOutput
		err = metrics.TrackAIOperationWithTokens(ctx, "score", func(ctx context.Context) *observability.AIOperationResult {
			output, tokenUsage, aiErr := aiService.Provider.ScoreAnswer(ctx, input)
			result = output
			return &observability.AIOperationResult{
				Error:      aiErr,
				TokenUsage: (*observability.TokenUsage)(tokenUsage),
			}
		}, om)

		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "answer_scored", false, om)
			writeErrorResponse(w, "Failed to score answer", err.Error(), http.StatusInternalServerError)
			return
		}

		// Append to the user's score history when requested. A store failure
		// is logged but never fails the scoring response.
		if req.UserID != "" && s.History != nil {
			if err := s.History.AppendScore(ctx, req.UserID, history.KindInterview, float64(result.Score)); err != nil {
				s.Logger.LogError(err, "Failed to append score to history",
					"user_id", req.UserID)
			} else {
				span.SetAttributes(attribute.Bool("history.appended", true))
			}
		}

		metrics.RecordBusinessMetric(ctx, "answer_scored", true, om,
			attribute.Int("score", result.Score))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("score", result.Score),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Check if this request was rate limited by examining the response
			// We'll wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			// If rate limited, record metric
			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := om.GetMetrics()
				metrics.RecordBusinessMetric(r.Context(), "rate_limit_hit", true, om,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack passes connection takeover through to the underlying writer.
// The websocket upgrade on /interview/live requires it.
func (rw *responseWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return h.Hijack()
}
