package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/hindsight/internal/schema"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	InputFormat string
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool               `json:"valid"`
	Records    int                `json:"records"`
	Violations []schema.Violation `json:"violations,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <trace>",
		Short: "Validate trace records without reconstructing",
		Long: `Validate trace records against the record schema.

Checks every record for a known type, a thread and the fields its kind
requires. All violations are reported, not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.InputFormat, "input-format", "auto", "trace encoding (auto|json|jsonl|msgpack)")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	records, err := loadRecords(path, opts.InputFormat, cmd.InOrStdin())
	if err != nil {
		return reportLoadError(formatter, err)
	}
	formatter.VerboseLog("Validating %d record(s) from %s", len(records), path)

	v, err := schema.New()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load record schema", err)
	}

	if violations := v.Validate(records); len(violations) > 0 {
		return outputViolations(formatter, len(records), violations)
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Records: len(records)})
	}
	fmt.Fprintf(formatter.Writer, "✓ All records valid (%d)\n", len(records))
	return nil
}

// outputViolations outputs schema violations.
func outputViolations(formatter *OutputFormatter, records int, violations []schema.Violation) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:      false,
				Records:    records,
				Violations: violations,
			},
			Error: &CLIError{
				Code:    ErrCodeInvalid,
				Message: violations[0].Error(),
			},
		}
		if err := outputJSON(formatter.Writer, response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d violation(s)", len(violations)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, v := range violations {
		fmt.Fprintf(formatter.Writer, "  %s\n", v.Error())
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d violation(s)", len(violations)))
}
