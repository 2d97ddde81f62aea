package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// PromptSource represents where a prompt was loaded from
type PromptSource struct {
	Source    string // "file", "operation-config", "global-config", or "default"
	FilePath  string // Set if Source is "file"
	Operation string // The operation this prompt is for
	Type      string // "system" or "user"
}

// GetLoadedPrompts returns the loaded prompt content in a thread-safe way
func GetLoadedPrompts() *AllLoadedPrompts {
	return &loadedPrompts
}

// trackPromptSource tracks the source of a prompt for debugging
func (c *Config) trackPromptSource(source PromptSource) {
	// Prompt source tracking can be implemented when new logging is hooked up
}

// loadPromptsFromFiles loads custom prompts from external files if file paths are specified
func (c *Config) loadPromptsFromFiles() error {
	log.Println("[CONFIG] Starting custom prompt loading from files")

	// Initialize loaded prompts exactly once
	loadedPromptsOnce.Do(func() {
		loadedPrompts = AllLoadedPrompts{}
	})

	// Load global prompts
	if err := c.loadSystemPromptsFromFiles(&c.AI.CustomPrompts.SystemPrompts, &loadedPrompts.Global.SystemPrompts); err != nil {
		return fmt.Errorf("failed to load global system prompts: %w", err)
	}
	if err := c.loadUserPromptsFromFiles(&c.AI.CustomPrompts.UserPrompts, &loadedPrompts.Global.UserPrompts); err != nil {
		return fmt.Errorf("failed to load global user prompts: %w", err)
	}

	// Load operation-specific prompts
	if err := c.loadSystemPromptsFromFiles(&c.AI.Analyze.CustomPrompts.SystemPrompts, &loadedPrompts.Analyze.SystemPrompts); err != nil {
		return fmt.Errorf("failed to load analyze system prompts: %w", err)
	}
	if err := c.loadUserPromptsFromFiles(&c.AI.Analyze.CustomPrompts.UserPrompts, &loadedPrompts.Analyze.UserPrompts); err != nil {
		return fmt.Errorf("failed to load analyze user prompts: %w", err)
	}

	if err := c.loadSystemPromptsFromFiles(&c.AI.Interview.CustomPrompts.SystemPrompts, &loadedPrompts.Interview.SystemPrompts); err != nil {
		return fmt.Errorf("failed to load interview system prompts: %w", err)
	}
	if err := c.loadUserPromptsFromFiles(&c.AI.Interview.CustomPrompts.UserPrompts, &loadedPrompts.Interview.UserPrompts); err != nil {
		return fmt.Errorf("failed to load interview user prompts: %w", err)
	}

	if err := c.loadSystemPromptsFromFiles(&c.AI.Score.CustomPrompts.SystemPrompts, &loadedPrompts.Score.SystemPrompts); err != nil {
		return fmt.Errorf("failed to load score system prompts: %w", err)
	}
	if err := c.loadUserPromptsFromFiles(&c.AI.Score.CustomPrompts.UserPrompts, &loadedPrompts.Score.UserPrompts); err != nil {
		return fmt.Errorf("failed to load score user prompts: %w", err)
	}

	// Log summary of prompt sources after loading
	c.logPromptLoadingSummary()

	return nil
}

// loadSystemPromptsFromFiles loads system prompts from files if file paths are specified
func (c *Config) loadSystemPromptsFromFiles(prompts *SystemPrompts, target *LoadedSystemPrompts) error {
	// Load AnalyzeResume prompt from file if specified
	if prompts.AnalyzeResumeFile != "" {
		content, err := c.loadPromptFromFile(prompts.AnalyzeResumeFile, "system", "analyzeResume")
		if err != nil {
			return err
		}
		target.AnalyzeResume = content
	}

	// Load GenerateQuestions prompt from file if specified
	if prompts.GenerateQuestionsFile != "" {
		content, err := c.loadPromptFromFile(prompts.GenerateQuestionsFile, "system", "generateQuestions")
		if err != nil {
			return err
		}
		target.GenerateQuestions = content
	}

	// Load ScoreAnswer prompt from file if specified
	if prompts.ScoreAnswerFile != "" {
		content, err := c.loadPromptFromFile(prompts.ScoreAnswerFile, "system", "scoreAnswer")
		if err != nil {
			return err
		}
		target.ScoreAnswer = content
	}

	return nil
}

// loadUserPromptsFromFiles loads user prompts from files if file paths are specified
func (c *Config) loadUserPromptsFromFiles(prompts *UserPrompts, target *LoadedUserPrompts) error {
	// Load AnalyzeResume prompt from file if specified
	if prompts.AnalyzeResumeFile != "" {
		content, err := c.loadPromptFromFile(prompts.AnalyzeResumeFile, "user", "analyzeResume")
		if err != nil {
			return err
		}
		target.AnalyzeResume = content
	}

	// Load GenerateQuestions prompt from file if specified
	if prompts.GenerateQuestionsFile != "" {
		content, err := c.loadPromptFromFile(prompts.GenerateQuestionsFile, "user", "generateQuestions")
		if err != nil {
			return err
		}
		target.GenerateQuestions = content
	}

	// Load ScoreAnswer prompt from file if specified
	if prompts.ScoreAnswerFile != "" {
		content, err := c.loadPromptFromFile(prompts.ScoreAnswerFile, "user", "scoreAnswer")
		if err != nil {
			return err
		}
		target.ScoreAnswer = content
	}

	return nil
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func (c *Config) loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	// Track prompt source
	c.trackPromptSource(PromptSource{
		Source:    "file",
		FilePath:  filePath,
		Operation: operation,
		Type:      promptType,
	})

	// Resolve relative paths
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	// Check if file exists
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, operation, absPath)
	}

	// Read file content
	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	// Validate content is not empty
	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	// Log successful loading
	log.Printf("[CONFIG] Successfully loaded %s %s prompt from file: %s (%d characters)",
		promptType, operation, absPath, len(trimmedContent))

	return trimmedContent, nil
}

// validatePromptFiles validates that prompt files exist and are readable before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	// Helper function to validate a file path
	validateFile := func(filePath, promptType, operation string) {
		if filePath == "" {
			return // No file specified, skip validation
		}

		absPath, err := filepath.Abs(filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s %s prompt: %s", promptType, operation, filePath))
			return
		}

		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s %s prompt file not found: %s", promptType, operation, absPath))
		}
	}

	// Validate global prompt files
	validateFile(c.AI.CustomPrompts.SystemPrompts.AnalyzeResumeFile, "system", "analyzeResume")
	validateFile(c.AI.CustomPrompts.SystemPrompts.GenerateQuestionsFile, "system", "generateQuestions")
	validateFile(c.AI.CustomPrompts.SystemPrompts.ScoreAnswerFile, "system", "scoreAnswer")
	validateFile(c.AI.CustomPrompts.UserPrompts.AnalyzeResumeFile, "user", "analyzeResume")
	validateFile(c.AI.CustomPrompts.UserPrompts.GenerateQuestionsFile, "user", "generateQuestions")
	validateFile(c.AI.CustomPrompts.UserPrompts.ScoreAnswerFile, "user", "scoreAnswer")

	// Validate operation-specific prompt files
	validateFile(c.AI.Analyze.CustomPrompts.SystemPrompts.AnalyzeResumeFile, "analyze system", "analyzeResume")
	validateFile(c.AI.Analyze.CustomPrompts.UserPrompts.AnalyzeResumeFile, "analyze user", "analyzeResume")
	validateFile(c.AI.Interview.CustomPrompts.SystemPrompts.GenerateQuestionsFile, "interview system", "generateQuestions")
	validateFile(c.AI.Interview.CustomPrompts.UserPrompts.GenerateQuestionsFile, "interview user", "generateQuestions")
	validateFile(c.AI.Score.CustomPrompts.SystemPrompts.ScoreAnswerFile, "score system", "scoreAnswer")
	validateFile(c.AI.Score.CustomPrompts.UserPrompts.ScoreAnswerFile, "score user", "scoreAnswer")

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}

	return nil
}

// logPromptLoadingSummary logs a summary of loaded prompts
func (c *Config) logPromptLoadingSummary() {
	log.Println("[CONFIG] === Custom Prompt Loading Summary ===")

	promptCount := c.countAndLogLoadedPrompts()

	c.logPromptSummaryFooter(promptCount)
}

// countAndLogLoadedPrompts counts and logs all loaded prompts, returning the total count
func (c *Config) countAndLogLoadedPrompts() int {
	promptCount := 0

	// Check global prompts
	promptCount += c.logGlobalPrompts()

	// Check operation-specific prompts
	promptCount += c.logOperationSpecificPrompts()

	return promptCount
}

// logGlobalPrompts logs global prompt status and returns count
func (c *Config) logGlobalPrompts() int {
	count := 0

	promptChecks := []struct {
		content string
		message string
	}{
		{loadedPrompts.Global.SystemPrompts.AnalyzeResume, "[CONFIG] Global system analyze prompt: loaded from config/file"},
		{loadedPrompts.Global.SystemPrompts.GenerateQuestions, "[CONFIG] Global system interview prompt: loaded from config/file"},
		{loadedPrompts.Global.SystemPrompts.ScoreAnswer, "[CONFIG] Global system score prompt: loaded from config/file"},
		{loadedPrompts.Global.UserPrompts.AnalyzeResume, "[CONFIG] Global user analyze prompt: loaded from config/file"},
		{loadedPrompts.Global.UserPrompts.GenerateQuestions, "[CONFIG] Global user interview prompt: loaded from config/file"},
		{loadedPrompts.Global.UserPrompts.ScoreAnswer, "[CONFIG] Global user score prompt: loaded from config/file"},
	}

	for _, check := range promptChecks {
		if check.content != "" {
			log.Println(check.message)
			count++
		}
	}

	return count
}

// logOperationSpecificPrompts logs operation-specific prompt status and returns count
func (c *Config) logOperationSpecificPrompts() int {
	count := 0

	promptChecks := []struct {
		content string
		message string
	}{
		{loadedPrompts.Analyze.SystemPrompts.AnalyzeResume, "[CONFIG] Analyze-specific system prompt: loaded from config/file"},
		{loadedPrompts.Analyze.UserPrompts.AnalyzeResume, "[CONFIG] Analyze-specific user prompt: loaded from config/file"},
		{loadedPrompts.Interview.SystemPrompts.GenerateQuestions, "[CONFIG] Interview-specific system prompt: loaded from config/file"},
		{loadedPrompts.Interview.UserPrompts.GenerateQuestions, "[CONFIG] Interview-specific user prompt: loaded from config/file"},
		{loadedPrompts.Score.SystemPrompts.ScoreAnswer, "[CONFIG] Score-specific system prompt: loaded from config/file"},
		{loadedPrompts.Score.UserPrompts.ScoreAnswer, "[CONFIG] Score-specific user prompt: loaded from config/file"},
	}

	for _, check := range promptChecks {
		if check.content != "" {
			log.Println(check.message)
			count++
		}
	}

	return count
}

// logPromptSummaryFooter logs the summary footer with total count
func (c *Config) logPromptSummaryFooter(promptCount int) {
	if promptCount == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts loaded: %d", promptCount)
	}

	log.Println("[CONFIG] ==========================================")
}
