package cli

import (
	"encoding/json"
	"fmt"

	"skillsight/internal/common"
	"skillsight/internal/safedata"

	"github.com/spf13/cobra"
)

var trendCmd = &cobra.Command{
	Use:   "trend [series-file]",
	Short: "Compute the trend of a score series",
	Long: `Compute the direction and magnitude of a numeric score series read from
a JSON file. The series may be a plain array of numbers or an array of
objects carrying a numeric "score" field; malformed entries are skipped
and reported as diagnostics instead of failing the run.

Methods: simple (first vs last), percentage (relative change), and
linear (least-squares slope with correlation). With --strict, any
skipped entry fails the command instead of degrading.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if trendConfig.OutputFormat == "" {
			trendConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(trendConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runTrend,
}

var trendConfig common.CommandConfig
var (
	trendMethod string
	trendPeriod int
	trendStrict bool
)

func init() {
	trendCmd.Flags().StringVarP(&trendConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	trendCmd.Flags().StringVar(&trendConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	trendCmd.Flags().StringVar(&trendMethod, "method", safedata.TrendMethodLinear, "Trend method: simple, percentage, or linear")
	trendCmd.Flags().IntVar(&trendPeriod, "period", 0, "Restrict the computation to the last N points")
	trendCmd.Flags().BoolVar(&trendStrict, "strict", false, "Fail on malformed series entries instead of skipping them")

	// Add completion for format flag
	_ = trendCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
	_ = trendCmd.RegisterFlagCompletionFunc("method", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{safedata.TrendMethodSimple, safedata.TrendMethodPercentage, safedata.TrendMethodLinear}, cobra.ShellCompDirectiveNoFileComp
	})
}

func runTrend(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

	fileProcessor := common.NewFileProcessor(logger)
	outputHandler := common.NewOutputHandler(logger)

	contents, err := fileProcessor.ValidateAndReadFiles(args...)
	if err != nil {
		return err
	}

	var series any
	if err := json.Unmarshal([]byte(contents[0]), &series); err != nil {
		return fmt.Errorf("failed to parse %s as JSON: %w", args[0], err)
	}

	opts := safedata.TrendOptions{Method: trendMethod}
	if cmd.Flags().Changed("period") {
		period := trendPeriod
		opts.Period = &period
	}

	processor := safedata.NewProcessor(nil)

	logger.Info("Computing trend",
		"method", trendMethod,
		"strict", trendStrict,
		"output_format", trendConfig.OutputFormat)

	var result safedata.TrendResult
	if trendStrict {
		result, err = processor.CalculateTrendStrict(series, opts)
		if err != nil {
			return fmt.Errorf("failed to compute trend: %w", err)
		}
	} else {
		result = processor.CalculateTrend(series, opts)
	}

	if err := outputHandler.HandleOutput(result, trendConfig); err != nil {
		return err
	}
	logger.Info("Trend computed",
		"method", result.Method,
		"direction", result.Direction)
	return nil
}
