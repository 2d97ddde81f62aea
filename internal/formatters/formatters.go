package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"skillsight/internal/safedata"
	"skillsight/internal/types"
	"skillsight/internal/validation"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "AnalyzeResumeOutput", &AnalyzeTextFormatter{})
	registry.RegisterFormatter("markdown", "AnalyzeResumeOutput", &AnalyzeMarkdownFormatter{})
	registry.RegisterFormatter("text", "GenerateQuestionsOutput", &QuestionsTextFormatter{})
	registry.RegisterFormatter("markdown", "GenerateQuestionsOutput", &QuestionsMarkdownFormatter{})
	registry.RegisterFormatter("text", "ScoreAnswerOutput", &ScoreTextFormatter{})
	registry.RegisterFormatter("markdown", "ScoreAnswerOutput", &ScoreMarkdownFormatter{})
	registry.RegisterFormatter("text", "RecommendJobsOutput", &RecommendTextFormatter{})
	registry.RegisterFormatter("markdown", "RecommendJobsOutput", &RecommendMarkdownFormatter{})
	registry.RegisterFormatter("text", "ValidationResult", &ValidationTextFormatter{})
	registry.RegisterFormatter("markdown", "ValidationResult", &ValidationMarkdownFormatter{})
	registry.RegisterFormatter("text", "TrendResult", &TrendTextFormatter{})
	registry.RegisterFormatter("markdown", "TrendResult", &TrendMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnalyzeResumeOutput:
		return "AnalyzeResumeOutput"
	case types.GenerateQuestionsOutput:
		return "GenerateQuestionsOutput"
	case types.ScoreAnswerOutput:
		return "ScoreAnswerOutput"
	case types.RecommendJobsOutput:
		return "RecommendJobsOutput"
	case validation.Result:
		return "ValidationResult"
	case safedata.TrendResult:
		return "TrendResult"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// AnalyzeTextFormatter handles text formatting for resume analysis results
type AnalyzeTextFormatter struct{}

func (atf *AnalyzeTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalyzeResumeOutput)
	if !ok {
		return "", fmt.Errorf("expected AnalyzeResumeOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== RESUME ANALYSIS ===\n\n")
	output.WriteString(fmt.Sprintf("ATS Score: %d/100\n\n", result.ATSScore))
	output.WriteString("Summary:\n")
	output.WriteString(result.Summary)
	output.WriteString("\n\n")

	if len(result.Skills) > 0 {
		output.WriteString("=== EXTRACTED SKILLS ===\n")
		for _, skill := range result.Skills {
			output.WriteString(fmt.Sprintf("- %s (%s, %s)\n", skill.Name, skill.Category, skill.Proficiency))
		}
		output.WriteString("\n")
	}

	if len(result.SkillGaps) > 0 {
		output.WriteString("=== SKILL GAPS ===\n")
		for i, gap := range result.SkillGaps {
			output.WriteString(fmt.Sprintf("%d. %s (severity: %s)\n", i+1, gap.Skill, gap.Severity))
			output.WriteString("   Recommendation: ")
			output.WriteString(gap.Recommendation)
			output.WriteString("\n")
		}
		output.WriteString("\n")
	} else {
		output.WriteString("No skill gaps found for the target role.\n\n")
	}

	if len(result.LearningPaths) > 0 {
		output.WriteString("=== LEARNING PATHS ===\n")
		for _, path := range result.LearningPaths {
			output.WriteString(fmt.Sprintf("- %s: %s (~%d weeks)\n", path.Skill, path.Resource, path.DurationWeeks))
		}
	}

	return output.String(), nil
}

func (atf *AnalyzeTextFormatter) SupportedType() string {
	return "AnalyzeResumeOutput"
}

// AnalyzeMarkdownFormatter handles markdown formatting for resume analysis results
type AnalyzeMarkdownFormatter struct{}

func (amf *AnalyzeMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalyzeResumeOutput)
	if !ok {
		return "", fmt.Errorf("expected AnalyzeResumeOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Resume Analysis\n\n")
	output.WriteString(fmt.Sprintf("**ATS Score:** %d/100\n\n", result.ATSScore))
	output.WriteString("## Summary\n\n")
	output.WriteString(result.Summary)
	output.WriteString("\n\n")

	if len(result.Skills) > 0 {
		output.WriteString("## Extracted Skills\n\n")
		for _, skill := range result.Skills {
			output.WriteString(fmt.Sprintf("- **%s** (%s, %s)\n", skill.Name, skill.Category, skill.Proficiency))
		}
		output.WriteString("\n")
	}

	if len(result.SkillGaps) > 0 {
		output.WriteString("## Skill Gaps\n\n")
		for i, gap := range result.SkillGaps {
			output.WriteString(fmt.Sprintf("### %d. %s\n\n", i+1, gap.Skill))
			output.WriteString(fmt.Sprintf("**Severity:** %s\n\n", gap.Severity))
			output.WriteString("**Recommendation:** ")
			output.WriteString(gap.Recommendation)
			output.WriteString("\n\n")
		}
	} else {
		output.WriteString("## No Skill Gaps Found\n\nThe resume covers the skills expected for the target role.\n\n")
	}

	if len(result.LearningPaths) > 0 {
		output.WriteString("## Learning Paths\n\n")
		for _, path := range result.LearningPaths {
			output.WriteString(fmt.Sprintf("- **%s**: %s (~%d weeks)\n", path.Skill, path.Resource, path.DurationWeeks))
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (amf *AnalyzeMarkdownFormatter) SupportedType() string {
	return "AnalyzeResumeOutput"
}

// QuestionsTextFormatter handles text formatting for generated interview questions
type QuestionsTextFormatter struct{}

func (qtf *QuestionsTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.GenerateQuestionsOutput)
	if !ok {
		return "", fmt.Errorf("expected GenerateQuestionsOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== INTERVIEW QUESTIONS ===\n\n")
	if len(result.Questions) == 0 {
		output.WriteString("No questions generated.\n")
		return output.String(), nil
	}

	for i, question := range result.Questions {
		output.WriteString(fmt.Sprintf("%d. %s\n", i+1, question.Question))
		output.WriteString(fmt.Sprintf("   Topic: %s | Difficulty: %s\n", question.Topic, question.Difficulty))
		if len(question.ExpectedPoints) > 0 {
			output.WriteString("   A strong answer covers:\n")
			for _, point := range question.ExpectedPoints {
				output.WriteString(fmt.Sprintf("   - %s\n", point))
			}
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (qtf *QuestionsTextFormatter) SupportedType() string {
	return "GenerateQuestionsOutput"
}

// QuestionsMarkdownFormatter handles markdown formatting for generated interview questions
type QuestionsMarkdownFormatter struct{}

func (qmf *QuestionsMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.GenerateQuestionsOutput)
	if !ok {
		return "", fmt.Errorf("expected GenerateQuestionsOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Interview Questions\n\n")
	if len(result.Questions) == 0 {
		output.WriteString("No questions generated.\n")
		return output.String(), nil
	}

	for i, question := range result.Questions {
		output.WriteString(fmt.Sprintf("## %d. %s\n\n", i+1, question.Question))
		output.WriteString(fmt.Sprintf("**Topic:** %s | **Difficulty:** %s\n\n", question.Topic, question.Difficulty))
		if len(question.ExpectedPoints) > 0 {
			output.WriteString("A strong answer covers:\n\n")
			for _, point := range question.ExpectedPoints {
				output.WriteString(fmt.Sprintf("- %s\n", point))
			}
			output.WriteString("\n")
		}
	}

	return output.String(), nil
}

func (qmf *QuestionsMarkdownFormatter) SupportedType() string {
	return "GenerateQuestionsOutput"
}

// ScoreTextFormatter handles text formatting for answer scoring results
type ScoreTextFormatter struct{}

func (stf *ScoreTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ScoreAnswerOutput)
	if !ok {
		return "", fmt.Errorf("expected ScoreAnswerOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== ANSWER SCORE ===\n\n")
	output.WriteString(fmt.Sprintf("Score: %d/100\n\n", result.Score))
	output.WriteString("Feedback:\n")
	output.WriteString(result.Feedback)
	output.WriteString("\n\n")

	if len(result.Strengths) > 0 {
		output.WriteString("Strengths:\n")
		for _, strength := range result.Strengths {
			output.WriteString(fmt.Sprintf("- %s\n", strength))
		}
		output.WriteString("\n")
	}

	if len(result.Improvements) > 0 {
		output.WriteString("Improvements:\n")
		for _, improvement := range result.Improvements {
			output.WriteString(fmt.Sprintf("- %s\n", improvement))
		}
	}

	return output.String(), nil
}

func (stf *ScoreTextFormatter) SupportedType() string {
	return "ScoreAnswerOutput"
}

// ScoreMarkdownFormatter handles markdown formatting for answer scoring results
type ScoreMarkdownFormatter struct{}

func (smf *ScoreMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ScoreAnswerOutput)
	if !ok {
		return "", fmt.Errorf("expected ScoreAnswerOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Answer Score\n\n")
	output.WriteString(fmt.Sprintf("**Score:** %d/100\n\n", result.Score))
	output.WriteString("## Feedback\n\n")
	output.WriteString(result.Feedback)
	output.WriteString("\n\n")

	if len(result.Strengths) > 0 {
		output.WriteString("## Strengths\n\n")
		for _, strength := range result.Strengths {
			output.WriteString(fmt.Sprintf("- %s\n", strength))
		}
		output.WriteString("\n")
	}

	if len(result.Improvements) > 0 {
		output.WriteString("## Improvements\n\n")
		for _, improvement := range result.Improvements {
			output.WriteString(fmt.Sprintf("- %s\n", improvement))
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (smf *ScoreMarkdownFormatter) SupportedType() string {
	return "ScoreAnswerOutput"
}

// RecommendTextFormatter handles text formatting for job recommendations
type RecommendTextFormatter struct{}

func (rtf *RecommendTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.RecommendJobsOutput)
	if !ok {
		return "", fmt.Errorf("expected RecommendJobsOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== JOB RECOMMENDATIONS ===\n\n")
	if len(result.Recommendations) == 0 {
		output.WriteString("No matching jobs found.\n")
		return output.String(), nil
	}

	for i, rec := range result.Recommendations {
		output.WriteString(fmt.Sprintf("%d. %s at %s (match: %.2f)\n", i+1, rec.Title, rec.Company, rec.MatchScore))
		if len(rec.MatchedSkills) > 0 {
			output.WriteString(fmt.Sprintf("   Matched skills: %s\n", strings.Join(rec.MatchedSkills, ", ")))
		}
		if len(rec.MissingSkills) > 0 {
			output.WriteString("   Missing skills:\n")
			for _, missing := range rec.MissingSkills {
				marker := ""
				if missing.Mandatory {
					marker = " (required)"
				}
				output.WriteString(fmt.Sprintf("   - %s%s\n", missing.Name, marker))
			}
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (rtf *RecommendTextFormatter) SupportedType() string {
	return "RecommendJobsOutput"
}

// RecommendMarkdownFormatter handles markdown formatting for job recommendations
type RecommendMarkdownFormatter struct{}

func (rmf *RecommendMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.RecommendJobsOutput)
	if !ok {
		return "", fmt.Errorf("expected RecommendJobsOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Job Recommendations\n\n")
	if len(result.Recommendations) == 0 {
		output.WriteString("No matching jobs found.\n")
		return output.String(), nil
	}

	for i, rec := range result.Recommendations {
		output.WriteString(fmt.Sprintf("## %d. %s at %s\n\n", i+1, rec.Title, rec.Company))
		output.WriteString(fmt.Sprintf("**Match score:** %.2f\n\n", rec.MatchScore))
		if len(rec.MatchedSkills) > 0 {
			output.WriteString(fmt.Sprintf("**Matched skills:** %s\n\n", strings.Join(rec.MatchedSkills, ", ")))
		}
		if len(rec.MissingSkills) > 0 {
			output.WriteString("**Missing skills:**\n\n")
			for _, missing := range rec.MissingSkills {
				marker := ""
				if missing.Mandatory {
					marker = " *(required)*"
				}
				output.WriteString(fmt.Sprintf("- %s%s\n", missing.Name, marker))
			}
			output.WriteString("\n")
		}
	}

	return output.String(), nil
}

func (rmf *RecommendMarkdownFormatter) SupportedType() string {
	return "RecommendJobsOutput"
}

// ValidationTextFormatter handles text formatting for form validation results
type ValidationTextFormatter struct{}

func (vtf *ValidationTextFormatter) Format(data any) (string, error) {
	result, ok := data.(validation.Result)
	if !ok {
		return "", fmt.Errorf("expected validation.Result, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== VALIDATION RESULT ===\n\n")
	if result.IsValid {
		output.WriteString("Status: VALID\n")
	} else {
		output.WriteString("Status: INVALID\n")
	}
	output.WriteString("\n")

	if len(result.Errors) > 0 {
		output.WriteString("Errors:\n")
		for i, violation := range result.Errors {
			if violation.Field != "" {
				output.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, violation.Field, violation.Message))
			} else {
				output.WriteString(fmt.Sprintf("%d. %s\n", i+1, violation.Message))
			}
		}
		output.WriteString("\n")
	}

	if len(result.FieldErrors) > 0 {
		output.WriteString("Field errors:\n")
		for _, field := range sortedFieldNames(result.FieldErrors) {
			fieldErr := result.FieldErrors[field]
			output.WriteString(fmt.Sprintf("- %s: %s (%s)\n", field, fieldErr.Message, fieldErr.Type))
		}
		output.WriteString("\n")
	}

	if len(result.Warnings) > 0 {
		output.WriteString("Warnings:\n")
		for _, warning := range result.Warnings {
			output.WriteString(fmt.Sprintf("- %s\n", warning))
		}
	}

	return output.String(), nil
}

func (vtf *ValidationTextFormatter) SupportedType() string {
	return "ValidationResult"
}

// ValidationMarkdownFormatter handles markdown formatting for form validation results
type ValidationMarkdownFormatter struct{}

func (vmf *ValidationMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(validation.Result)
	if !ok {
		return "", fmt.Errorf("expected validation.Result, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Validation Result\n\n")
	if result.IsValid {
		output.WriteString("**Status:** VALID\n\n")
	} else {
		output.WriteString("**Status:** INVALID\n\n")
	}

	if len(result.Errors) > 0 {
		output.WriteString("## Errors\n\n")
		for i, violation := range result.Errors {
			if violation.Field != "" {
				output.WriteString(fmt.Sprintf("%d. **%s**: %s\n", i+1, violation.Field, violation.Message))
			} else {
				output.WriteString(fmt.Sprintf("%d. %s\n", i+1, violation.Message))
			}
		}
		output.WriteString("\n")
	}

	if len(result.FieldErrors) > 0 {
		output.WriteString("## Field Errors\n\n")
		for _, field := range sortedFieldNames(result.FieldErrors) {
			fieldErr := result.FieldErrors[field]
			output.WriteString(fmt.Sprintf("- **%s**: %s (%s)\n", field, fieldErr.Message, fieldErr.Type))
		}
		output.WriteString("\n")
	}

	if len(result.Warnings) > 0 {
		output.WriteString("## Warnings\n\n")
		for _, warning := range result.Warnings {
			output.WriteString(fmt.Sprintf("- %s\n", warning))
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (vmf *ValidationMarkdownFormatter) SupportedType() string {
	return "ValidationResult"
}

func sortedFieldNames(fieldErrors map[string]validation.FieldError) []string {
	fields := make([]string, 0, len(fieldErrors))
	for field := range fieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// TrendTextFormatter handles text formatting for trend results
type TrendTextFormatter struct{}

func (ttf *TrendTextFormatter) Format(data any) (string, error) {
	result, ok := data.(safedata.TrendResult)
	if !ok {
		return "", fmt.Errorf("expected safedata.TrendResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== TREND ANALYSIS ===\n\n")
	output.WriteString(fmt.Sprintf("Method: %s\n", result.Method))
	output.WriteString(fmt.Sprintf("Direction: %s\n", result.Direction))
	output.WriteString(fmt.Sprintf("Trend: %.2f\n", result.Trend))
	output.WriteString(fmt.Sprintf("Change: %.2f\n", result.Change))
	output.WriteString(fmt.Sprintf("Confidence: %.2f\n", result.Confidence))
	if result.Correlation != nil {
		output.WriteString(fmt.Sprintf("Correlation: %.2f\n", *result.Correlation))
	}

	return output.String(), nil
}

func (ttf *TrendTextFormatter) SupportedType() string {
	return "TrendResult"
}

// TrendMarkdownFormatter handles markdown formatting for trend results
type TrendMarkdownFormatter struct{}

func (tmf *TrendMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(safedata.TrendResult)
	if !ok {
		return "", fmt.Errorf("expected safedata.TrendResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Trend Analysis\n\n")
	output.WriteString(fmt.Sprintf("**Method:** %s\n\n", result.Method))
	output.WriteString(fmt.Sprintf("**Direction:** %s\n\n", result.Direction))
	output.WriteString(fmt.Sprintf("**Trend:** %.2f\n\n", result.Trend))
	output.WriteString(fmt.Sprintf("**Change:** %.2f\n\n", result.Change))
	output.WriteString(fmt.Sprintf("**Confidence:** %.2f\n\n", result.Confidence))
	if result.Correlation != nil {
		output.WriteString(fmt.Sprintf("**Correlation:** %.2f\n\n", *result.Correlation))
	}

	return output.String(), nil
}

func (tmf *TrendMarkdownFormatter) SupportedType() string {
	return "TrendResult"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
