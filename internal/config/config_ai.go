package config

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	// UseSystemPrompts: apply global default only if not explicitly set
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
}

// GetAnalyzeConfig returns the AI configuration for resume analysis with fallback to global config
func (c *Config) GetAnalyzeConfig() OperationAIConfig {
	config := c.AI.Analyze

	// Apply common defaults
	c.applyOperationDefaults(&config)

	// Apply analyze-specific prompt fallbacks
	if config.CustomPrompts.SystemPrompts.AnalyzeResume == "" {
		config.CustomPrompts.SystemPrompts.AnalyzeResume = c.AI.CustomPrompts.SystemPrompts.AnalyzeResume
	}
	if config.CustomPrompts.UserPrompts.AnalyzeResume == "" {
		config.CustomPrompts.UserPrompts.AnalyzeResume = c.AI.CustomPrompts.UserPrompts.AnalyzeResume
	}
	// Also copy file paths for potential later loading
	if config.CustomPrompts.SystemPrompts.AnalyzeResumeFile == "" {
		config.CustomPrompts.SystemPrompts.AnalyzeResumeFile = c.AI.CustomPrompts.SystemPrompts.AnalyzeResumeFile
	}
	if config.CustomPrompts.UserPrompts.AnalyzeResumeFile == "" {
		config.CustomPrompts.UserPrompts.AnalyzeResumeFile = c.AI.CustomPrompts.UserPrompts.AnalyzeResumeFile
	}

	return config
}

// GetInterviewConfig returns the AI configuration for question generation with fallback to global config
func (c *Config) GetInterviewConfig() OperationAIConfig {
	config := c.AI.Interview

	// Apply common defaults
	c.applyOperationDefaults(&config)

	// Apply interview-specific prompt fallbacks
	if config.CustomPrompts.SystemPrompts.GenerateQuestions == "" {
		config.CustomPrompts.SystemPrompts.GenerateQuestions = c.AI.CustomPrompts.SystemPrompts.GenerateQuestions
	}
	if config.CustomPrompts.UserPrompts.GenerateQuestions == "" {
		config.CustomPrompts.UserPrompts.GenerateQuestions = c.AI.CustomPrompts.UserPrompts.GenerateQuestions
	}
	// Also copy file paths for potential later loading
	if config.CustomPrompts.SystemPrompts.GenerateQuestionsFile == "" {
		config.CustomPrompts.SystemPrompts.GenerateQuestionsFile = c.AI.CustomPrompts.SystemPrompts.GenerateQuestionsFile
	}
	if config.CustomPrompts.UserPrompts.GenerateQuestionsFile == "" {
		config.CustomPrompts.UserPrompts.GenerateQuestionsFile = c.AI.CustomPrompts.UserPrompts.GenerateQuestionsFile
	}

	return config
}

// GetScoreConfig returns the AI configuration for answer scoring with fallback to global config
func (c *Config) GetScoreConfig() OperationAIConfig {
	config := c.AI.Score

	// Apply common defaults
	c.applyOperationDefaults(&config)

	// Apply score-specific prompt fallbacks
	if config.CustomPrompts.SystemPrompts.ScoreAnswer == "" {
		config.CustomPrompts.SystemPrompts.ScoreAnswer = c.AI.CustomPrompts.SystemPrompts.ScoreAnswer
	}
	if config.CustomPrompts.UserPrompts.ScoreAnswer == "" {
		config.CustomPrompts.UserPrompts.ScoreAnswer = c.AI.CustomPrompts.UserPrompts.ScoreAnswer
	}
	// Also copy file paths for potential later loading
	if config.CustomPrompts.SystemPrompts.ScoreAnswerFile == "" {
		config.CustomPrompts.SystemPrompts.ScoreAnswerFile = c.AI.CustomPrompts.SystemPrompts.ScoreAnswerFile
	}
	if config.CustomPrompts.UserPrompts.ScoreAnswerFile == "" {
		config.CustomPrompts.UserPrompts.ScoreAnswerFile = c.AI.CustomPrompts.UserPrompts.ScoreAnswerFile
	}

	return config
}

// GetLoadedAnalyzePrompts returns a copy of the loaded prompts for the analyze operation
func (c *Config) GetLoadedAnalyzePrompts() OperationLoadedPrompts {
	return loadedPrompts.Analyze
}

// GetLoadedInterviewPrompts returns a copy of the loaded prompts for the interview operation
func (c *Config) GetLoadedInterviewPrompts() OperationLoadedPrompts {
	return loadedPrompts.Interview
}

// GetLoadedScorePrompts returns a copy of the loaded prompts for the score operation
func (c *Config) GetLoadedScorePrompts() OperationLoadedPrompts {
	return loadedPrompts.Score
}

// GetLoadedGlobalPrompts returns a copy of the loaded global prompts
func (c *Config) GetLoadedGlobalPrompts() LoadedPrompts {
	return loadedPrompts.Global
}
