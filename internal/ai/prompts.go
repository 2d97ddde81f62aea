package ai

import (
	"skillsight/internal/config"
)

// SystemPrompts contains all system-level instructions for AI interactions
type SystemPrompts struct {
	AnalyzeResume     string
	GenerateQuestions string
	ScoreAnswer       string
}

// UserPrompts contains user-level prompts with placeholders for dynamic content
type UserPrompts struct {
	AnalyzeResume     string
	GenerateQuestions string
	ScoreAnswer       string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	AnalyzeResume: `You are an expert technical recruiter and career analyst with a strict commitment to honesty and accuracy. Your core principles are:

- NEVER invent skills or experience that is not present in the source material
- Every extracted skill must be directly traceable to the resume text
- Assess proficiency conservatively from the evidence given
- Provide honest, actionable gap analysis

Your expertise includes:
- Skill taxonomy across languages, frameworks, tools, and soft skills
- ATS (Applicant Tracking System) scoring
- Role-specific competency requirements
- Learning path design for closing skill gaps`,

	GenerateQuestions: `You are an experienced technical interviewer who designs realistic interview sessions. Your role is to:

- Produce questions that match the requested role, type, and difficulty
- Cover distinct topics rather than repeating one theme
- Attach the concrete points a strong answer should cover
- Keep questions answerable in a spoken interview setting

You specialize in three interview styles:
1. Technical: concrete engineering problems and concepts
2. Behavioral: past-experience and situational questions
3. Mixed: a balanced blend of both`,

	ScoreAnswer: `You are a rigorous but fair interview assessor. Your role is to:

- Score the answer against what the question actually asked
- Reward correct substance over polished phrasing
- Identify specific strengths with evidence from the answer
- Give concrete, prioritized improvement suggestions

Scoring guidance:
- 90-100: complete, correct, and insightful
- 70-89: solid with minor omissions
- 40-69: partially correct or shallow
- 0-39: largely incorrect or off-topic`,
}

// DefaultUserPrompts provides the default user prompt templates
var DefaultUserPrompts = UserPrompts{
	AnalyzeResume: `Please perform a comprehensive skills analysis of the provided resume against the target role.

**Tasks:**

1. **Extract Skills**:
   List every skill explicitly present in the resume. Classify each as "language", "framework", "tool", or "soft",
   and rate proficiency as "beginner", "intermediate", "advanced", or "expert" based only on the evidence in the resume.

2. **Identify Skill Gaps**:
   Compare the extracted skills against what the target role typically requires.
   For each missing or weak skill, rate the severity ("low", "medium", "high") and give a short recommendation.

3. **ATS Score**:
   Simulate an Applicant Tracking System score for this resume against the target role. Provide a score from 0 to 100.

4. **Summary**:
   Write a short honest summary of the candidate's fit for the role.

5. **Learning Paths**:
   For the most important gaps, suggest one concrete resource each and a realistic duration in weeks.

**Resume:**
-----
%s
-----

**Target Role:**
-----
%s
-----`,

	GenerateQuestions: `Please generate %d %s interview questions at %s difficulty for the role of %s.

**Requirements:**

1. Each question must include a short stable id, the question text, its topic, and its difficulty.
2. For each question, list the specific points a strong answer should cover.
3. Questions must be distinct from each other and answerable verbally in a live interview.
4. %s`,

	ScoreAnswer: `Please score the following interview answer for a %s position.

**Evaluation Tasks:**

1. **Score** (0-100): Rate how well the answer addresses the question.
2. **Strengths**: List the specific things the answer does well, with evidence.
3. **Improvements**: List concrete, prioritized suggestions for a better answer.
4. **Feedback**: Write a short overall assessment the candidate can act on.

**Question:**
-----
%s
-----

**Answer:**
-----
%s
-----`,
}

// PromptConfig holds configuration for customizable prompts
type PromptConfig struct {
	SystemPrompts SystemPrompts `json:"systemPrompts"`
	UserPrompts   UserPrompts   `json:"userPrompts"`
}

// GetDefaultPromptConfig returns the default prompt configuration
func GetDefaultPromptConfig() PromptConfig {
	return PromptConfig{
		SystemPrompts: DefaultSystemPrompts,
		UserPrompts:   DefaultUserPrompts,
	}
}

// systemPromptFor returns the system prompt for an operation, honoring the
// resolution priority shared by all providers
func systemPromptFor(cfg *config.OperationAIConfig, operation string) string {
	loaded := config.GetPromptsForOperation(operation)
	configPrompts := &cfg.CustomPrompts.SystemPrompts

	switch operation {
	case "analyze":
		return resolvePrompt(
			loaded.SystemPrompts.AnalyzeResume,
			configPrompts.AnalyzeResume,
			DefaultSystemPrompts.AnalyzeResume,
		)
	case "interview":
		return resolvePrompt(
			loaded.SystemPrompts.GenerateQuestions,
			configPrompts.GenerateQuestions,
			DefaultSystemPrompts.GenerateQuestions,
		)
	case "score":
		return resolvePrompt(
			loaded.SystemPrompts.ScoreAnswer,
			configPrompts.ScoreAnswer,
			DefaultSystemPrompts.ScoreAnswer,
		)
	default:
		return ""
	}
}

// userPromptFor returns the user prompt template for an operation, honoring
// the resolution priority shared by all providers
func userPromptFor(cfg *config.OperationAIConfig, operation string) string {
	loaded := config.GetPromptsForOperation(operation)
	configPrompts := &cfg.CustomPrompts.UserPrompts

	switch operation {
	case "analyze":
		return resolvePrompt(
			loaded.UserPrompts.AnalyzeResume,
			configPrompts.AnalyzeResume,
			DefaultUserPrompts.AnalyzeResume,
		)
	case "interview":
		return resolvePrompt(
			loaded.UserPrompts.GenerateQuestions,
			configPrompts.GenerateQuestions,
			DefaultUserPrompts.GenerateQuestions,
		)
	case "score":
		return resolvePrompt(
			loaded.UserPrompts.ScoreAnswer,
			configPrompts.ScoreAnswer,
			DefaultUserPrompts.ScoreAnswer,
		)
	default:
		return ""
	}
}

/// resolvePrompt selects the correct prompt string based on a clear priority order:
// 1. A prompt loaded from a file.
// 2. A prompt defined directly in the configuration.
// 3. A hardcoded default prompt.
// This helper function centralizes the decision logic, making it DRY and easy to maintain.
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
