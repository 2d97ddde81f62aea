package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"skillsight/internal/config"
	"skillsight/internal/types"
)

// newTestClaudeProvider creates a Claude provider pointed at a test server
func newTestClaudeProvider(t *testing.T, serverURL string) *ClaudeProvider {
	t.Helper()

	cfg := &config.OperationAIConfig{
		Provider:         "claude",
		Model:            "claude-sonnet-4-20250514",
		Timeout:          timePtr(10 * time.Second),
		APIKey:           "test-key",
		MaxRetries:       intPtr(0),
		Temperature:      float32Ptr(0.5),
		UseSystemPrompts: boolPtr(true),
	}

	provider, err := NewClaudeProvider(cfg, "test-op", testLogger)
	if err != nil {
		t.Fatalf("Failed to create claude provider: %v", err)
	}
	provider.endpoint = serverURL
	provider.modelsEndpoint = serverURL
	return provider
}

// writeClaudeResponse writes a Claude-style messages API response
func writeClaudeResponse(w http.ResponseWriter, text string) {
	resp := map[string]any{
		"id":   "msg-test",
		"type": "message",
		"role": "assistant",
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
		"usage": map[string]any{
			"input_tokens":  128,
			"output_tokens": 64,
		},
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

func TestClaudeScoreAnswer(t *testing.T) {
	// Create test server.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify request.
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Error("Missing Content-Type header")
		}
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Error("Missing or incorrect API key header")
		}
		if r.Header.Get("Anthropic-Version") != claudeAPIVersion {
			t.Error("Missing or incorrect API version header")
		}

		var req claudeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request body: %v", err)
		}
		if req.Model != "claude-sonnet-4-20250514" {
			t.Errorf("Expected model 'claude-sonnet-4-20250514', got '%s'", req.Model)
		}
		if req.MaxTokens != claudeMaxTokens {
			t.Errorf("Expected max tokens %d, got %d", claudeMaxTokens, req.MaxTokens)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Error("Expected a single user message")
		}
		if req.System == "" {
			t.Error("Expected system prompt to be set")
		}
		if !strings.Contains(req.Messages[0].Content, "Return ONLY valid JSON") {
			t.Error("Expected format instructions in user prompt")
		}
		if !strings.Contains(req.Messages[0].Content, "What is a goroutine?") {
			t.Error("Expected question in user prompt")
		}

		writeClaudeResponse(w, `{"score": 85, "strengths": ["clear explanation"], "improvements": ["mention scheduling"], "feedback": "Solid answer overall."}`)
	}))
	defer server.Close()

	provider := newTestClaudeProvider(t, server.URL)

	ctx := context.Background()
	output, usage, err := provider.ScoreAnswer(ctx, types.ScoreAnswerInput{
		Question: "What is a goroutine?",
		Answer:   "A lightweight thread managed by the Go runtime.",
		Role:     "Backend Engineer",
	})
	if err != nil {
		t.Fatalf("ScoreAnswer failed: %v", err)
	}

	if output.Score != 85 {
		t.Errorf("Expected score 85, got %d", output.Score)
	}
	if len(output.Strengths) != 1 || output.Strengths[0] != "clear explanation" {
		t.Errorf("Unexpected strengths: %v", output.Strengths)
	}
	if output.Feedback != "Solid answer overall." {
		t.Errorf("Unexpected feedback: %s", output.Feedback)
	}

	if usage == nil {
		t.Fatal("Expected token usage, got nil")
	}
	if usage.InputTokens != 128 || usage.OutputTokens != 64 || usage.TotalTokens != 192 {
		t.Errorf("Unexpected token usage: %+v", usage)
	}
}

func TestClaudeAnalyzeResumeWithCodeFences(t *testing.T) {
	// Claude responses sometimes arrive wrapped in markdown fences even when
	// told not to.
	analysisJSON := `{"skills": [{"name": "Go", "category": "technical", "proficiency": "advanced"}], "skillGaps": [{"skill": "Kubernetes", "severity": "medium", "recommendation": "Deploy a side project"}], "atsScore": 78, "summary": "Experienced backend engineer.", "learningPaths": [{"skill": "Kubernetes", "resource": "CKA course", "durationWeeks": 6}]}`
	wrappedJSON := "```json\n" + analysisJSON + "\n```"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeClaudeResponse(w, wrappedJSON)
	}))
	defer server.Close()

	provider := newTestClaudeProvider(t, server.URL)

	ctx := context.Background()
	output, _, err := provider.AnalyzeResume(ctx, types.AnalyzeResumeInput{
		ResumeText: "Ten years of Go development.",
		TargetRole: "Platform Engineer",
	})
	if err != nil {
		t.Fatalf("AnalyzeResume failed: %v", err)
	}

	if len(output.Skills) != 1 || output.Skills[0].Name != "Go" {
		t.Errorf("Unexpected skills: %+v", output.Skills)
	}
	if output.ATSScore != 78 {
		t.Errorf("Expected ATS score 78, got %d", output.ATSScore)
	}
	if len(output.LearningPaths) != 1 || output.LearningPaths[0].DurationWeeks != 6 {
		t.Errorf("Unexpected learning paths: %+v", output.LearningPaths)
	}
}

func TestClaudeGenerateQuestionsBackfillsIDs(t *testing.T) {
	questionsJSON := `{"questions": [` +
		`{"id": "custom-1", "question": "Explain channels.", "topic": "concurrency", "difficulty": "medium", "expectedPoints": ["blocking semantics"]},` +
		`{"id": "", "question": "What is a mutex?", "topic": "concurrency", "difficulty": "easy", "expectedPoints": ["mutual exclusion"]}]}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeClaudeResponse(w, questionsJSON)
	}))
	defer server.Close()

	provider := newTestClaudeProvider(t, server.URL)

	ctx := context.Background()
	output, _, err := provider.GenerateQuestions(ctx, types.GenerateQuestionsInput{
		Role:          "Backend Engineer",
		InterviewType: "technical",
		Difficulty:    "medium",
		Topics:        []string{"concurrency"},
		Count:         2,
	})
	if err != nil {
		t.Fatalf("GenerateQuestions failed: %v", err)
	}

	if len(output.Questions) != 2 {
		t.Fatalf("Expected 2 questions, got %d", len(output.Questions))
	}
	if output.Questions[0].ID != "custom-1" {
		t.Errorf("Expected first ID 'custom-1', got '%s'", output.Questions[0].ID)
	}
	if output.Questions[1].ID != "q2" {
		t.Errorf("Expected backfilled ID 'q2', got '%s'", output.Questions[1].ID)
	}
}

func TestClaudeAPIError(t *testing.T) {
	// Create test server that returns an error.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "Invalid request"}`))
	}))
	defer server.Close()

	provider := newTestClaudeProvider(t, server.URL)

	ctx := context.Background()
	_, _, err := provider.ScoreAnswer(ctx, types.ScoreAnswerInput{
		Question: "Q",
		Answer:   "A",
		Role:     "Engineer",
	})
	if err == nil {
		t.Fatal("Expected error for bad request, got nil")
	}

	if !strings.Contains(err.Error(), "400") {
		t.Errorf("Error should mention status code 400: %v", err)
	}
}

func TestClaudeEmptyContent(t *testing.T) {
	// Create test server that returns an empty content array.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id": "msg-test", "content": []}`))
	}))
	defer server.Close()

	provider := newTestClaudeProvider(t, server.URL)

	ctx := context.Background()
	_, _, err := provider.ScoreAnswer(ctx, types.ScoreAnswerInput{
		Question: "Q",
		Answer:   "A",
		Role:     "Engineer",
	})
	if err == nil {
		t.Fatal("Expected error for empty content, got nil")
	}

	if !strings.Contains(err.Error(), "no content") {
		t.Errorf("Error should mention 'no content': %v", err)
	}
}

func TestClaudeContextCancellation(t *testing.T) {
	// Create test server that delays the response.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider := newTestClaudeProvider(t, server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, _, err := provider.ScoreAnswer(ctx, types.ScoreAnswerInput{
		Question: "Q",
		Answer:   "A",
		Role:     "Engineer",
	})
	if err == nil {
		t.Error("Expected error for cancelled context, got nil")
	}
}

func TestClaudeGetModelInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/claude-sonnet-4-20250514") {
			t.Errorf("Expected model name in path, got %s", r.URL.Path)
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id": "claude-sonnet-4-20250514", "display_name": "Claude Sonnet 4", "type": "model"}`))
	}))
	defer server.Close()

	provider := newTestClaudeProvider(t, server.URL)

	info := provider.GetModelInfo(context.Background())
	if !info.Available {
		t.Errorf("Expected model to be available: %s", info.Error)
	}
	if info.DisplayName != "Claude Sonnet 4" {
		t.Errorf("Expected display name 'Claude Sonnet 4', got '%s'", info.DisplayName)
	}
}

func TestClaudeGetModelInfoUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": {"type": "not_found_error"}}`))
	}))
	defer server.Close()

	provider := newTestClaudeProvider(t, server.URL)

	info := provider.GetModelInfo(context.Background())
	if info.Available {
		t.Error("Expected model to be unavailable")
	}
	if info.Error == "" {
		t.Error("Expected error message to be populated")
	}
}

func TestStripMarkdownCodeFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "with json code fence",
			input:    "```json\n{\"test\": \"value\"}\n```",
			expected: "{\"test\": \"value\"}",
		},
		{
			name:     "without code fence",
			input:    "{\"test\": \"value\"}",
			expected: "{\"test\": \"value\"}",
		},
		{
			name:     "with extra whitespace",
			input:    "```json\n{\"test\": \"value\"}\n\n```",
			expected: "{\"test\": \"value\"}",
		},
		{
			name:     "multiline json",
			input:    "```json\n{\n  \"test\": \"value\",\n  \"nested\": {\n    \"key\": \"data\"\n  }\n}\n```",
			expected: "{\n  \"test\": \"value\",\n  \"nested\": {\n    \"key\": \"data\"\n  }\n}",
		},
		{
			name:     "plain text",
			input:    "This is plain text",
			expected: "This is plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := stripMarkdownCodeFences(tt.input)
			if result != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, result)
			}
		})
	}
}

func TestExtractClaudeTokenUsage(t *testing.T) {
	usage := extractClaudeTokenUsage(`{"usage": {"input_tokens": 10, "output_tokens": 5}}`)
	if usage == nil {
		t.Fatal("Expected token usage, got nil")
	}
	if usage.InputTokens != 10 || usage.OutputTokens != 5 || usage.TotalTokens != 15 {
		t.Errorf("Unexpected token usage: %+v", usage)
	}

	if extractClaudeTokenUsage(`{"content": []}`) != nil {
		t.Error("Expected nil usage when response has no usage block")
	}
}

func TestEnsureQuestionIDs(t *testing.T) {
	questions := []types.InterviewQuestion{
		{ID: "keep-me", Question: "First"},
		{Question: "Second"},
		{Question: "Third"},
	}

	ensureQuestionIDs(questions)

	if questions[0].ID != "keep-me" {
		t.Errorf("Expected existing ID to be preserved, got '%s'", questions[0].ID)
	}
	if questions[1].ID != "q2" {
		t.Errorf("Expected ID 'q2', got '%s'", questions[1].ID)
	}
	if questions[2].ID != "q3" {
		t.Errorf("Expected ID 'q3', got '%s'", questions[2].ID)
	}
}

func TestTopicsInstruction(t *testing.T) {
	if got := topicsInstruction(nil); !strings.Contains(got, "appropriate for the role") {
		t.Errorf("Unexpected default instruction: %s", got)
	}

	got := topicsInstruction([]string{"concurrency", "testing"})
	if !strings.Contains(got, "concurrency, testing") {
		t.Errorf("Expected topics to be joined, got: %s", got)
	}
}

func TestQuestionCount(t *testing.T) {
	if got := questionCount(0); got != defaultQuestionCount {
		t.Errorf("Expected default count %d, got %d", defaultQuestionCount, got)
	}
	if got := questionCount(-3); got != defaultQuestionCount {
		t.Errorf("Expected default count %d, got %d", defaultQuestionCount, got)
	}
	if got := questionCount(7); got != 7 {
		t.Errorf("Expected count 7, got %d", got)
	}
}
