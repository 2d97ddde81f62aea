package cli

import (
	"encoding/json"
	"fmt"

	"skillsight/internal/common"
	"skillsight/internal/match"
	"skillsight/internal/types"

	"github.com/spf13/cobra"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend [skills-file] [jobs-file]",
	Short: "Recommend jobs matching a candidate's skill set",
	Long: `Rank a list of jobs by how well they match a candidate's skills. The
command takes two JSON files: the candidate's skills (an array of skill
names or objects with a "name" field) and the jobs to rank. Each
recommendation reports the match score, the matched skills and the
missing ones, with mandatory gaps flagged.

Skill entries that are malformed are skipped and reported as
diagnostics; the job list itself must be well-formed.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if recommendConfig.OutputFormat == "" {
			recommendConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(recommendConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runRecommend,
}

var recommendConfig common.CommandConfig
var recommendLimit int

func init() {
	recommendCmd.Flags().StringVarP(&recommendConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	recommendCmd.Flags().StringVar(&recommendConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	recommendCmd.Flags().IntVar(&recommendLimit, "limit", 0, "Maximum recommendations to return (0 = all)")

	// Add completion for format flag
	_ = recommendCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runRecommend(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

	fileProcessor := common.NewFileProcessor(logger)
	outputHandler := common.NewOutputHandler(logger)

	contents, err := fileProcessor.ValidateAndReadFiles(args...)
	if err != nil {
		return err
	}

	// Skills stay loosely typed: the engine tolerates malformed entries.
	var skills any
	if err := json.Unmarshal([]byte(contents[0]), &skills); err != nil {
		return fmt.Errorf("failed to parse %s as JSON: %w", args[0], err)
	}

	var jobs []types.Job
	if err := json.Unmarshal([]byte(contents[1]), &jobs); err != nil {
		return fmt.Errorf("failed to parse %s as a JSON job list: %w", args[1], err)
	}

	engine := match.NewEngine(nil)

	logger.Info("Computing job recommendations",
		"jobs", len(jobs),
		"limit", recommendLimit,
		"output_format", recommendConfig.OutputFormat)

	result := engine.Recommend(skills, jobs, recommendLimit)

	if err := outputHandler.HandleOutput(result, recommendConfig); err != nil {
		return err
	}
	logger.Info("Job recommendations computed",
		"recommendations", len(result.Recommendations))
	return nil
}
