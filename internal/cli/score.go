package cli

import (
	"context"
	"fmt"

	"skillsight/internal/ai"
	"skillsight/internal/common"
	"skillsight/internal/types"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score [question-file] [answer-file]",
	Short: "Score an interview answer against its question",
	Long: `Score an interview answer using AI. The command takes two arguments: the
path to the question file and the path to the answer file. The result
carries a 0-100 score, the answer's strengths, concrete improvements
and overall feedback.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if scoreConfig.OutputFormat == "" {
			scoreConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(scoreConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runScore,
}

var scoreConfig common.CommandConfig
var scoreRole string

func init() {
	scoreCmd.Flags().StringVarP(&scoreConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	scoreCmd.Flags().StringVar(&scoreConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	scoreCmd.Flags().StringVar(&scoreRole, "role", "", "Role the interview is for, to calibrate expectations")

	// Add completion for format flag
	_ = scoreCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Create AI service for score operation
	scoreAIConfig := cfg.GetScoreConfig()
	aiService, err := ai.NewService(&scoreAIConfig, "score", logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}

	createInput := func(contents []string) (types.ScoreAnswerInput, error) {
		if len(contents) != 2 {
			return types.ScoreAnswerInput{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}
		return types.ScoreAnswerInput{
			Question: contents[0],
			Answer:   contents[1],
			Role:     scoreRole,
		}, nil
	}

	logDetails := func(input types.ScoreAnswerInput, cfg common.CommandConfig) {
		logger.Info("Starting answer scoring",
			"question_chars", len(input.Question),
			"answer_chars", len(input.Answer),
			"role", input.Role,
			"output_format", cfg.OutputFormat)
	}

	// Create a wrapper function that uses our specific AI service
	scoreOperation := func(ctx context.Context, input types.ScoreAnswerInput) (types.ScoreAnswerOutput, *ai.TokenUsage, error) {
		return aiService.Provider.ScoreAnswer(ctx, input)
	}

	err = common.RunAICommand(
		cmd.Context(),
		logger,
		scoreConfig,
		args,
		createInput,
		scoreOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to score answer: %w", err)
	}
	logger.Info("Answer scoring completed successfully")
	return nil
}
