package types

// AnalyzeResumeInput represents the input for a resume skills analysis
type AnalyzeResumeInput struct {
	ResumeText string `json:"resumeText"`
	TargetRole string `json:"targetRole"`
}

// ExtractedSkill represents a single skill found in the resume
type ExtractedSkill struct {
	Name        string `json:"name"`
	Category    string `json:"category"`    // "language", "framework", "tool", "soft"
	Proficiency string `json:"proficiency"` // "beginner", "intermediate", "advanced", "expert"
}

// SkillGap represents a skill the target role expects but the resume lacks
type SkillGap struct {
	Skill          string `json:"skill"`
	Severity       string `json:"severity"` // "low", "medium", "high"
	Recommendation string `json:"recommendation"`
}

// LearningPath represents a suggested way to close a skill gap
type LearningPath struct {
	Skill         string `json:"skill"`
	Resource      string `json:"resource"`
	DurationWeeks int    `json:"durationWeeks"`
}

// AnalyzeResumeOutput represents the output from a resume skills analysis
type AnalyzeResumeOutput struct {
	Skills        []ExtractedSkill `json:"skills"`
	SkillGaps     []SkillGap       `json:"skillGaps"`
	ATSScore      int              `json:"atsScore"` // 0-100 score
	Summary       string           `json:"summary"`
	LearningPaths []LearningPath   `json:"learningPaths"`
}

// GenerateQuestionsInput represents the input for interview question generation
type GenerateQuestionsInput struct {
	Role          string   `json:"role"`
	InterviewType string   `json:"interviewType"` // "technical", "behavioral", "mixed"
	Difficulty    string   `json:"difficulty"`    // "easy", "medium", "hard"
	Topics        []string `json:"topics,omitempty"`
	Count         int      `json:"count"`
}

// InterviewQuestion represents a single generated interview question
type InterviewQuestion struct {
	ID             string   `json:"id"`
	Question       string   `json:"question"`
	Topic          string   `json:"topic"`
	Difficulty     string   `json:"difficulty"`
	ExpectedPoints []string `json:"expectedPoints"` // Points a strong answer should cover
}

// GenerateQuestionsOutput represents the output from interview question generation
type GenerateQuestionsOutput struct {
	Questions []InterviewQuestion `json:"questions"`
}

// ScoreAnswerInput represents the input for scoring an interview answer
type ScoreAnswerInput struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Role     string `json:"role"`
}

// ScoreAnswerOutput represents the output from scoring an interview answer
type ScoreAnswerOutput struct {
	Score        int      `json:"score"` // 0-100 score
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Feedback     string   `json:"feedback"`
}

// JobSkill represents one skill a job posting asks for
type JobSkill struct {
	Name      string `json:"name"`
	Mandatory bool   `json:"mandatory"`
}

// Job represents a job posting candidates are matched against
type Job struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Company        string     `json:"company"`
	Location       string     `json:"location,omitempty"`
	Description    string     `json:"description,omitempty"`
	RequiredSkills []JobSkill `json:"requiredSkills"`
}

// MissingSkill represents a required skill the candidate does not have
type MissingSkill struct {
	Name      string `json:"name"`
	Mandatory bool   `json:"mandatory"`
}

// JobRecommendation represents one scored job match
type JobRecommendation struct {
	JobID         string         `json:"jobId"`
	Title         string         `json:"title"`
	Company       string         `json:"company"`
	MatchScore    float64        `json:"matchScore"` // 0-100, two decimals
	MatchedSkills []string       `json:"matchedSkills"`
	MissingSkills []MissingSkill `json:"missingSkills"`
}

// RecommendJobsInput represents the input for job recommendations
type RecommendJobsInput struct {
	Skills []string `json:"skills"`
	Jobs   []Job    `json:"jobs"`
	Limit  int      `json:"limit,omitempty"`
}

// RecommendJobsOutput represents the ranked job recommendations
type RecommendJobsOutput struct {
	Recommendations []JobRecommendation `json:"recommendations"`
}
