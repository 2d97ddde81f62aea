package ai

import (
	"context"

	"skillsight/internal/types"
)

// AIProvider interface for different AI implementations
// All methods return token usage information - callers can ignore it if not needed
type AIProvider interface {
	AnalyzeResume(ctx context.Context, input types.AnalyzeResumeInput) (types.AnalyzeResumeOutput, *TokenUsage, error)
	GenerateQuestions(ctx context.Context, input types.GenerateQuestionsInput) (types.GenerateQuestionsOutput, *TokenUsage, error)
	ScoreAnswer(ctx context.Context, input types.ScoreAnswerInput) (types.ScoreAnswerOutput, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// BreakerStats is implemented by providers that expose circuit breaker state
// for the health endpoint
type BreakerStats interface {
	GetCircuitBreakerStats() map[string]any
}
