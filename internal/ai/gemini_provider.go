package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"skillsight/internal/config"
	skillsightErrors "skillsight/internal/errors"
	"skillsight/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

// GeminiProvider implements AIProvider for Google Gemini
type GeminiProvider struct {
	client         *genai.Client
	httpClient     *http.Client
	config         *config.OperationAIConfig
	operation      string
	circuitBreaker *AICircuitBreaker
	modelBreaker   *ModelCircuitBreaker
	logger         *skillsightErrors.Logger
}

// Ensure GeminiProvider implements AIProvider
var _ AIProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance for a specific operation
func NewGeminiProvider(cfg *config.OperationAIConfig, operationType string, logger *skillsightErrors.Logger) (*GeminiProvider, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, skillsightErrors.NewAIError(skillsightErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	// Initialize circuit breaker with operation-specific configuration
	circuitBreaker := NewAICircuitBreaker(operationType, cfg, logger)
	modelBreaker := NewModelCircuitBreaker(operationType, cfg, logger)

	return &GeminiProvider{
		client: client,
		httpClient: &http.Client{
			Timeout: *cfg.Timeout,
		},
		config:         cfg,
		operation:      operationType,
		circuitBreaker: circuitBreaker,
		modelBreaker:   modelBreaker,
		logger:         logger,
	}, nil
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      g.config.Model,
		Available: false,
	}

	// Create a timeout context for the model check
	timeout := getAIModelCheckTimeout()
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Get model information from Gemini API with circuit breaker
	model, err := g.modelBreaker.ExecuteModel(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)

		// Log the error for debugging
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", g.config.Provider,
			"error", err.Error())
		return modelInfo
	}

	// Model is available, populate info
	modelInfo.Available = true
	if model.DisplayName != "" {
		modelInfo.DisplayName = model.DisplayName
	}
	if model.Version != "" {
		modelInfo.Version = model.Version
	}

	// Log successful check
	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"provider", g.config.Provider,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// executeAIOperation is a generic helper to run AI operations with common tracing, circuit breaker, and parsing logic.
func executeAIOperation[Out any](
	g *GeminiProvider,
	ctx context.Context,
	operationName string,
	userPrompt string,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out
	tracer := otel.Tracer("skillsight.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationName)
	defer span.End()

	// Set base attributes
	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return executeWithRetry(ctx, g.config, g.logger, operationName, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, skillsightErrors.NewAIError(skillsightErrors.ErrCodeAIServiceFailed, "Failed to generate content for "+operationName, err)
	}

	if err := json.Unmarshal([]byte(result.Text()), &output); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, skillsightErrors.NewAIError("AI_RESPONSE_PARSE_FAILED", "Failed to parse AI response for "+operationName, err)
	}

	tokenUsage := extractTokenUsage(result)
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
func (g *GeminiProvider) AnalyzeResume(ctx context.Context, input types.AnalyzeResumeInput) (types.AnalyzeResumeOutput, *TokenUsage, error) {
	systemPrompt, userPrompt := g.getPromptsForAnalyze(input.ResumeText, input.TargetRole)
	config := g.buildAnalyzeSchema()

	output, tokenUsage, err := executeAIOperation[types.AnalyzeResumeOutput](
		g,
		ctx,
		"analyze_resume",
		userPrompt,
		systemPrompt,
		config,
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
func (g *GeminiProvider) GenerateQuestions(ctx context.Context, input types.GenerateQuestionsInput) (types.GenerateQuestionsOutput, *TokenUsage, error) {
	systemPrompt, userPrompt := g.getPromptsForInterview(input)
	config := g.buildQuestionsSchema()

	output, tokenUsage, err := executeAIOperation[types.GenerateQuestionsOutput](
		g,
		ctx,
		"generate_questions",
		userPrompt,
		systemPrompt,
		config,
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
func (g *GeminiProvider) ScoreAnswer(ctx context.Context, input types.ScoreAnswerInput) (types.ScoreAnswerOutput, *TokenUsage, error) {
	systemPrompt, userPrompt := g.getPromptsForScore(input.Role, input.Question, input.Answer)
	config := g.buildScoreSchema()

	output, tokenUsage, err := executeAIOperation[types.ScoreAnswerOutput](
		g,
		ctx,
		"score_answer",
		userPrompt,
		systemPrompt,
		config,
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
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	stats := map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetModelStats(),
	}

	// Overall health - both breakers must be healthy
	aiHealthy := g.circuitBreaker.IsHealthy()
	modelHealthy := g.modelBreaker.IsModelHealthy()
	stats["overall_healthy"] = aiHealthy && modelHealthy

	return stats
}

// Close implements AIProvider interface
func (g *GeminiProvider) Close() error {
	// Gemini client doesn't have a Close method in current single-shot usage
	// Probably needed in streaming mode
	return nil
}

// buildAnalyzeSchema creates the schema for resume analysis requests
func (g *GeminiProvider) buildAnalyzeSchema() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"skills": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"name":        {Type: genai.TypeString},
							"category":    {Type: genai.TypeString},
							"proficiency": {Type: genai.TypeString},
						},
						Required: []string{"name", "category", "proficiency"},
					},
				},
				"skillGaps": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"skill":          {Type: genai.TypeString},
							"severity":       {Type: genai.TypeString},
							"recommendation": {Type: genai.TypeString},
						},
						Required: []string{"skill", "severity", "recommendation"},
					},
				},
				"atsScore": {Type: genai.TypeInteger},
				"summary":  {Type: genai.TypeString},
				"learningPaths": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"skill":         {Type: genai.TypeString},
							"resource":      {Type: genai.TypeString},
							"durationWeeks": {Type: genai.TypeInteger},
						},
						Required: []string{"skill", "resource", "durationWeeks"},
					},
				},
			},
			Required: []string{"skills", "skillGaps", "atsScore", "summary", "learningPaths"},
		},
	}

	// Apply temperature configuration if set
	if *g.config.Temperature > 0 {
		config.Temperature = g.config.Temperature
	}

	return config
}

// buildQuestionsSchema creates the schema for question generation requests
func (g *GeminiProvider) buildQuestionsSchema() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"questions": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"id":         {Type: genai.TypeString},
							"question":   {Type: genai.TypeString},
							"topic":      {Type: genai.TypeString},
							"difficulty": {Type: genai.TypeString},
							"expectedPoints": {
								Type:  genai.TypeArray,
								Items: &genai.Schema{Type: genai.TypeString},
							},
						},
						Required: []string{"id", "question", "topic", "difficulty", "expectedPoints"},
					},
				},
			},
			Required: []string{"questions"},
		},
	}

	// Apply temperature configuration if set
	if *g.config.Temperature > 0 {
		config.Temperature = g.config.Temperature
	}

	return config
}

// buildScoreSchema creates the schema for answer scoring requests
func (g *GeminiProvider) buildScoreSchema() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"score": {Type: genai.TypeInteger},
				"strengths": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
				"improvements": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
				"feedback": {Type: genai.TypeString},
			},
			Required: []string{"score", "strengths", "improvements", "feedback"},
		},
	}

	// Apply temperature configuration if set
	if *g.config.Temperature > 0 {
		config.Temperature = g.config.Temperature
	}

	return config
}

// getPromptsForAnalyze returns system and user prompts for resume analysis
func (g *GeminiProvider) getPromptsForAnalyze(resumeText, targetRole string) (string, string) {
	// Get prompts from config or use defaults
	systemPrompt := systemPromptFor(g.config, "analyze")
	userPrompt := userPromptFor(g.config, "analyze")

	// Format user prompt with dynamic content
	formattedUserPrompt := fmt.Sprintf(userPrompt, resumeText, targetRole)

	return systemPrompt, formattedUserPrompt
}

// getPromptsForInterview returns system and user prompts for question generation
func (g *GeminiProvider) getPromptsForInterview(input types.GenerateQuestionsInput) (string, string) {
	// Get prompts from config or use defaults
	systemPrompt := systemPromptFor(g.config, "interview")
	userPrompt := userPromptFor(g.config, "interview")

	// Format user prompt with dynamic content
	formattedUserPrompt := fmt.Sprintf(userPrompt,
		questionCount(input.Count),
		input.InterviewType,
		input.Difficulty,
		input.Role,
		topicsInstruction(input.Topics))

	return systemPrompt, formattedUserPrompt
}

// getPromptsForScore returns system and user prompts for answer scoring
func (g *GeminiProvider) getPromptsForScore(role, question, answer string) (string, string) {
	// Get prompts from config or use defaults
	systemPrompt := systemPromptFor(g.config, "score")
	userPrompt := userPromptFor(g.config, "score")

	// Format user prompt with dynamic content
	formattedUserPrompt := fmt.Sprintf(userPrompt, role, question, answer)

	return systemPrompt, formattedUserPrompt
}

// defaultQuestionCount is used when the request does not specify how many
// questions to generate
const defaultQuestionCount = 5

// questionCount normalizes the requested question count
func questionCount(requested int) int {
	if requested <= 0 {
		return defaultQuestionCount
	}
	return requested
}

// topicsInstruction renders the topic constraint for the question prompt
func topicsInstruction(topics []string) string {
	if len(topics) == 0 {
		return "Choose topics appropriate for the role."
	}
	return "Focus on these topics: " + strings.Join(topics, ", ") + "."
}

// ensureQuestionIDs backfills stable identifiers for questions the model
// returned without one
func ensureQuestionIDs(questions []types.InterviewQuestion) {
	for i := range questions {
		if questions[i].ID == "" {
			questions[i].ID = fmt.Sprintf("q%d", i+1)
		}
	}
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// AIOperationResult holds the result of an AI operation including token usage
type AIOperationResult struct {
	Error      error
	TokenUsage *TokenUsage
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

// getAIModelCheckTimeout returns the configured AI model check timeout
func getAIModelCheckTimeout() time.Duration {
	// Use default timeout since we don't have access to config here
	// This function should be refactored to accept timeout as parameter
	// Fallback to default
	return 10 * time.Second
}
