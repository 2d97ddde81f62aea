package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"skillsight/internal/common"
	"skillsight/internal/validation"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [data-file]",
	Short: "Validate a form record against the declarative rule tables",
	Long: `Validate a JSON form record against the rule table registered for its
form type. The command reports every violation at once: required fields,
enum membership, format checks and type errors are all collected rather
than stopping at the first failure.

Built-in form types: ` + strings.Join(builtinFormTypes(), ", ") + `.
A rules catalog file configured via rules.catalogFile extends or replaces
the built-in tables.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if validateConfig.OutputFormat == "" {
			validateConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(validateConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runValidate,
}

var validateConfig common.CommandConfig
var validateFormType string

func init() {
	validateCmd.Flags().StringVarP(&validateConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	validateCmd.Flags().StringVar(&validateConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	validateCmd.Flags().StringVar(&validateFormType, "form-type", validation.FormAssessment, "Form type whose rule table applies")

	// Add completion for format flag
	_ = validateCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
	_ = validateCmd.RegisterFlagCompletionFunc("form-type", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return builtinFormTypes(), cobra.ShellCompDirectiveNoFileComp
	})
}

func builtinFormTypes() []string {
	return []string{validation.FormAssessment, validation.FormInterview, validation.FormProfile}
}

// newCatalogFromConfig builds the rule catalog the CLI validates against:
// built-in tables, overlaid with the configured catalog file when present.
func newCatalogFromConfig(catalogFile string) (*validation.Catalog, error) {
	catalog := validation.NewCatalog(validation.DefaultForms())
	if catalogFile != "" {
		if err := catalog.LoadFile(catalogFile); err != nil {
			return nil, fmt.Errorf("failed to load rules catalog %s: %w", catalogFile, err)
		}
	}
	return catalog, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	fileProcessor := common.NewFileProcessor(logger)
	outputHandler := common.NewOutputHandler(logger)

	contents, err := fileProcessor.ValidateAndReadFiles(args...)
	if err != nil {
		return err
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(contents[0]), &record); err != nil {
		return fmt.Errorf("failed to parse %s as a JSON object: %w", args[0], err)
	}

	catalog, err := newCatalogFromConfig(cfg.Rules.CatalogFile)
	if err != nil {
		return err
	}
	manager := validation.NewManager(catalog, nil, logger)

	logger.Info("Validating form record",
		"form_type", validateFormType,
		"fields", len(record),
		"output_format", validateConfig.OutputFormat)

	result := manager.Validate(validateFormType, record)

	if err := outputHandler.HandleOutput(result, validateConfig); err != nil {
		return err
	}
	logger.Info("Validation completed",
		"form_type", validateFormType,
		"valid", result.IsValid,
		"error_count", len(result.Errors))
	return nil
}
