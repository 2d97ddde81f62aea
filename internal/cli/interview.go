package cli

import (
	"context"
	"fmt"

	"skillsight/internal/ai"
	"skillsight/internal/common"
	"skillsight/internal/types"

	"github.com/spf13/cobra"
)

var interviewCmd = &cobra.Command{
	Use:   "interview [role]",
	Short: "Generate mock interview questions for a role",
	Long: `Generate mock interview questions for a target role using AI. Questions
come with the topic they probe, a difficulty rating and the points a
strong answer is expected to cover. Use the score command to grade your
answers afterwards.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if interviewConfig.OutputFormat == "" {
			interviewConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(interviewConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runInterview,
}

var interviewConfig common.CommandConfig
var (
	interviewType       string
	interviewDifficulty string
	interviewTopics     []string
	interviewCount      int
)

func init() {
	interviewCmd.Flags().StringVarP(&interviewConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	interviewCmd.Flags().StringVar(&interviewConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	interviewCmd.Flags().StringVar(&interviewType, "type", "mixed", "Interview type: technical, behavioral, or mixed")
	interviewCmd.Flags().StringVar(&interviewDifficulty, "difficulty", "medium", "Question difficulty: easy, medium, or hard")
	interviewCmd.Flags().StringSliceVar(&interviewTopics, "topics", nil, "Topics to focus the questions on")
	interviewCmd.Flags().IntVar(&interviewCount, "count", 5, "Number of questions to generate")

	// Add completion for format flag
	_ = interviewCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
	_ = interviewCmd.RegisterFlagCompletionFunc("type", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"technical", "behavioral", "mixed"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = interviewCmd.RegisterFlagCompletionFunc("difficulty", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"easy", "medium", "hard"}, cobra.ShellCompDirectiveNoFileComp
	})
}

func runInterview(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	role := args[0]

	// Create AI service for interview operation
	interviewAIConfig := cfg.GetInterviewConfig()
	aiService, err := ai.NewService(&interviewAIConfig, "interview", logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}

	// The role comes from the argument and everything else from flags,
	// so no input files are read.
	createInput := func(contents []string) (types.GenerateQuestionsInput, error) {
		if len(contents) != 0 {
			return types.GenerateQuestionsInput{}, fmt.Errorf("expected no file paths, got %d", len(contents))
		}
		return types.GenerateQuestionsInput{
			Role:          role,
			InterviewType: interviewType,
			Difficulty:    interviewDifficulty,
			Topics:        interviewTopics,
			Count:         interviewCount,
		}, nil
	}

	logDetails := func(input types.GenerateQuestionsInput, cfg common.CommandConfig) {
		logger.Info("Starting interview question generation",
			"role", input.Role,
			"interview_type", input.InterviewType,
			"difficulty", input.Difficulty,
			"count", input.Count,
			"output_format", cfg.OutputFormat)
	}

	// Create a wrapper function that uses our specific AI service
	interviewOperation := func(ctx context.Context, input types.GenerateQuestionsInput) (types.GenerateQuestionsOutput, *ai.TokenUsage, error) {
		return aiService.Provider.GenerateQuestions(ctx, input)
	}

	err = common.RunAICommand(
		cmd.Context(),
		logger,
		interviewConfig,
		nil,
		createInput,
		interviewOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to generate interview questions: %w", err)
	}
	logger.Info("Interview question generation completed successfully")
	return nil
}
