package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"skillsight/internal/config"
	skillsightErrors "skillsight/internal/errors"
	"skillsight/internal/types"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// claudeAPIEndpoint is the Anthropic messages API endpoint
	claudeAPIEndpoint = "https://api.anthropic.com/v1/messages"
	// claudeModelsEndpoint is the Anthropic models API endpoint
	claudeModelsEndpoint = "https://api.anthropic.com/v1/models"
	// claudeAPIVersion is the Anthropic API version header value
	claudeAPIVersion = "2023-06-01"
	// claudeMaxTokens caps the response size of a single message
	claudeMaxTokens = 4096
)

// claudeMessage is a single turn in a Claude conversation
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeRequest is the request body for the Claude messages API
type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Messages    []claudeMessage `json:"messages"`
	System      string          `json:"system,omitempty"`
	Temperature *float32        `json:"temperature,omitempty"`
}

// ClaudeProvider implements AIProvider for Anthropic Claude
type ClaudeProvider struct {
	httpClient     *http.Client
	config         *config.OperationAIConfig
	operation      string
	endpoint       string
	modelsEndpoint string
	messageBreaker *MessageCircuitBreaker
	logger         *skillsightErrors.Logger
}

// Ensure ClaudeProvider implements AIProvider
var _ AIProvider = (*ClaudeProvider)(nil)

// NewClaudeProvider creates a new Claude provider instance for a specific operation
func NewClaudeProvider(cfg *config.OperationAIConfig, operationType string, logger *skillsightErrors.Logger) (*ClaudeProvider, error) {
	return &ClaudeProvider{
		httpClient: &http.Client{
			Timeout: *cfg.Timeout,
		},
		config:         cfg,
		operation:      operationType,
		endpoint:       claudeAPIEndpoint,
		modelsEndpoint: claudeModelsEndpoint,
		messageBreaker: NewMessageCircuitBreaker(operationType, cfg, logger),
		logger:         logger,
	}, nil
}

// GetModelInfo checks the readiness and availability of the configured model
func (c *ClaudeProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      c.config.Model,
		Available: false,
	}

	// Create a timeout context for the model check
	timeout := getAIModelCheckTimeout()
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Fetch model metadata from the Anthropic API with circuit breaker
	body, err := c.messageBreaker.ExecuteMessage(func() (string, error) {
		return c.getModel(checkCtx)
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)

		// Log the error for debugging
		c.logger.Warn("Model availability check failed",
			"model", c.config.Model,
			"provider", c.config.Provider,
			"error", err.Error())
		return modelInfo
	}

	// Model is available, populate info
	modelInfo.Available = true
	if displayName := gjson.Get(body, "display_name").String(); displayName != "" {
		modelInfo.DisplayName = displayName
	}

	// Log successful check
	c.logger.Debug("Model availability check successful",
		"model", c.config.Model,
		"provider", c.config.Provider,
		"display_name", modelInfo.DisplayName)

	return modelInfo
}

// getModel fetches model metadata from the Anthropic models endpoint
func (c *ClaudeProvider) getModel(ctx context.Context) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.modelsEndpoint+"/"+c.config.Model, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("X-Api-Key", c.config.APIKey)
	httpReq.Header.Set("Anthropic-Version", claudeAPIVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &apiStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return string(body), nil
}

// sendMessage posts a single-turn message to the Claude API and returns the
// raw response body
func (c *ClaudeProvider) sendMessage(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	claudeReq := claudeRequest{
		Model:     c.config.Model,
		MaxTokens: claudeMaxTokens,
		Messages: []claudeMessage{
			{
				Role:    "user",
				Content: userPrompt,
			},
		},
	}
	if *c.config.UseSystemPrompts && systemPrompt != "" {
		claudeReq.System = systemPrompt
	}
	if *c.config.Temperature > 0 {
		claudeReq.Temperature = c.config.Temperature
	}

	reqBody, err := json.Marshal(claudeReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.config.APIKey)
	httpReq.Header.Set("Anthropic-Version", claudeAPIVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &apiStatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return string(respBody), nil
}

// executeClaudeOperation is a generic helper to run Claude operations with common tracing, circuit breaker, and parsing logic.
func executeClaudeOperation[Out any](
	c *ClaudeProvider,
	ctx context.Context,
	operationName string,
	userPrompt string,
	systemPrompt string,
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out
	tracer := otel.Tracer("skillsight.ai.claude")
	ctx, span := tracer.Start(ctx, "claude."+operationName)
	defer span.End()

	// Set base attributes
	span.SetAttributes(
		attribute.String("ai.provider", "claude"),
		attribute.String("ai.model", c.config.Model),
		attribute.Float64("ai.temperature", float64(*c.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	body, err := c.messageBreaker.ExecuteMessage(func() (string, error) {
		return executeWithRetry(ctx, c.config, c.logger, operationName, func() (string, error) {
			return c.sendMessage(ctx, systemPrompt, userPrompt)
		})
	})

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, skillsightErrors.NewAIError(skillsightErrors.ErrCodeAIServiceFailed, "Failed to generate content for "+operationName, err)
	}

	text := gjson.Get(body, "content.0.text").String()
	if text == "" {
		err := fmt.Errorf("no content in Claude response")
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, skillsightErrors.NewAIError("AI_RESPONSE_PARSE_FAILED", "Failed to parse AI response for "+operationName, err)
	}

	// Claude has no server-side response schema, so the model may wrap its
	// JSON output in markdown code fences
	if err := json.Unmarshal([]byte(stripMarkdownCodeFences(text)), &output); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, skillsightErrors.NewAIError("AI_RESPONSE_PARSE_FAILED", "Failed to parse AI response for "+operationName, err)
	}

	tokenUsage := extractClaudeTokenUsage(body)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return output, tokenUsage, nil
}

// AnalyzeResume implements AIProvider interface for resume skills analysis
func (c *ClaudeProvider) AnalyzeResume(ctx context.Context, input types.AnalyzeResumeInput) (types.AnalyzeResumeOutput, *TokenUsage, error) {
	systemPrompt := systemPromptFor(c.config, "analyze")
	userPrompt := fmt.Sprintf(userPromptFor(c.config, "analyze"), input.ResumeText, input.TargetRole)
	userPrompt += claudeFormatInstructions["analyze"]

	output, tokenUsage, err := executeClaudeOperation[types.AnalyzeResumeOutput](
		c,
		ctx,
		"analyze_resume",
		userPrompt,
		systemPrompt,
		attribute.Int("input.resume_length", len(input.ResumeText)),
		attribute.String("input.target_role", input.TargetRole),
	)

	if err != nil {
		return types.AnalyzeResumeOutput{}, nil, err
	}

	// Add operation-specific success metrics to the span created by the helper
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("output.skills_count", len(output.Skills)),
			attribute.Int("output.gaps_count", len(output.SkillGaps)),
			attribute.Int("ats.score", output.ATSScore),
		)
	}

	return output, tokenUsage, nil
}

// GenerateQuestions implements AIProvider interface for interview question generation
func (c *ClaudeProvider) GenerateQuestions(ctx context.Context, input types.GenerateQuestionsInput) (types.GenerateQuestionsOutput, *TokenUsage, error) {
	systemPrompt := systemPromptFor(c.config, "interview")
	userPrompt := fmt.Sprintf(userPromptFor(c.config, "interview"),
		questionCount(input.Count),
		input.InterviewType,
		input.Difficulty,
		input.Role,
		topicsInstruction(input.Topics))
	userPrompt += claudeFormatInstructions["interview"]

	output, tokenUsage, err := executeClaudeOperation[types.GenerateQuestionsOutput](
		c,
		ctx,
		"generate_questions",
		userPrompt,
		systemPrompt,
		attribute.String("input.role", input.Role),
		attribute.String("input.interview_type", input.InterviewType),
		attribute.String("input.difficulty", input.Difficulty),
		attribute.Int("input.question_count", questionCount(input.Count)),
	)

	if err != nil {
		return types.GenerateQuestionsOutput{}, nil, err
	}

	ensureQuestionIDs(output.Questions)

	// Add operation-specific success metrics to the span created by the helper
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("output.questions_count", len(output.Questions)),
		)
	}

	return output, tokenUsage, nil
}

// ScoreAnswer implements AIProvider interface for interview answer scoring
func (c *ClaudeProvider) ScoreAnswer(ctx context.Context, input types.ScoreAnswerInput) (types.ScoreAnswerOutput, *TokenUsage, error) {
	systemPrompt := systemPromptFor(c.config, "score")
	userPrompt := fmt.Sprintf(userPromptFor(c.config, "score"), input.Role, input.Question, input.Answer)
	userPrompt += claudeFormatInstructions["score"]

	output, tokenUsage, err := executeClaudeOperation[types.ScoreAnswerOutput](
		c,
		ctx,
		"score_answer",
		userPrompt,
		systemPrompt,
		attribute.Int("input.question_length", len(input.Question)),
		attribute.Int("input.answer_length", len(input.Answer)),
	)

	if err != nil {
		return types.ScoreAnswerOutput{}, nil, err
	}

	// Add operation-specific success metrics to the span created by the helper
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("answer.score", output.Score),
		)
	}

	return output, tokenUsage, nil
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (c *ClaudeProvider) GetCircuitBreakerStats() map[string]any {
	stats := map[string]any{
		"ai_operations": c.messageBreaker.GetMessageStats(),
	}

	stats["overall_healthy"] = c.messageBreaker.IsMessageHealthy()

	return stats
}

// Close implements AIProvider interface
func (c *ClaudeProvider) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// claudeFormatInstructions carry the exact JSON response shape for each
// operation, standing in for the response schemas the Gemini API enforces
// server side
var claudeFormatInstructions = map[string]string{
	"analyze": `

Return ONLY valid JSON in this exact format (no markdown, no commentary):
{
  "skills": [{"name": "skill name", "category": "technical|soft|domain", "proficiency": "beginner|intermediate|advanced|expert"}],
  "skillGaps": [{"skill": "missing skill", "severity": "low|medium|high", "recommendation": "how to close the gap"}],
  "atsScore": 85,
  "summary": "two or three sentence candidate summary",
  "learningPaths": [{"skill": "skill to learn", "resource": "course or book", "durationWeeks": 4}]
}`,
	"interview": `

Return ONLY valid JSON in this exact format (no markdown, no commentary):
{
  "questions": [{"id": "q1", "question": "the question text", "topic": "topic area", "difficulty": "easy|medium|hard", "expectedPoints": ["point one", "point two"]}]
}`,
	"score": `

Return ONLY valid JSON in this exact format (no markdown, no commentary):
{
  "score": 85,
  "strengths": ["strength one"],
  "improvements": ["improvement one"],
  "feedback": "overall feedback paragraph"
}`,
}

// stripMarkdownCodeFences removes markdown code fences from JSON responses
func stripMarkdownCodeFences(text string) string {
	cleaned := text

	// Check if text starts with ```json and ends with ```
	if len(cleaned) > 7 && cleaned[:7] == "```json" {
		// Find first newline after ```json
		start := 7
		for start < len(cleaned) && cleaned[start] != '\n' {
			start++
		}
		start++ // skip the newline

		// Find last ```
		end := len(cleaned)
		if end > 3 && cleaned[end-3:] == "```" {
			end -= 3
		}

		// Remove trailing whitespace before ```
		for end > 0 && (cleaned[end-1] == '\n' || cleaned[end-1] == ' ' || cleaned[end-1] == '\r') {
			end--
		}

		cleaned = cleaned[start:end]
	}

	return cleaned
}

// extractClaudeTokenUsage extracts token usage information from a raw Claude
// API response body
func extractClaudeTokenUsage(body string) *TokenUsage {
	usage := gjson.Get(body, "usage")
	if !usage.Exists() {
		return nil
	}

	input := usage.Get("input_tokens").Int()
	output := usage.Get("output_tokens").Int()
	return &TokenUsage{
		InputTokens:  input,
		OutputTokens: output,
		TotalTokens:  input + output,
	}
}
