package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/hindsight/internal/engine"
	"github.com/roach88/hindsight/internal/ir"
	"github.com/roach88/hindsight/internal/schema"
	"github.com/roach88/hindsight/internal/universe"
)

// ReconstructOptions holds flags for the reconstruct command.
type ReconstructOptions struct {
	*RootOptions
	InputFormat string // "auto" | "json" | "jsonl" | "msgpack"
	SchemaCheck bool   // validate records before reconstructing
}

// ReconstructResult is the output of a successful reconstruction.
type ReconstructResult struct {
	TraceID string         `json:"trace_id"`
	Events  []ir.Event     `json:"events"`
	Edges   []ir.Edge      `json:"edges"`
	Threads []ir.ThreadRef `json:"threads"`
}

// NewReconstructCommand creates the reconstruct command.
func NewReconstructCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReconstructOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reconstruct <trace>",
		Short: "Assign vector clocks and causal edges to a trace",
		Long: `Reconstruct the causal order of a trace.

Reads a trace file (JSON array, JSON lines or msgpack; "-" for stdin),
assigns each event a vector clock and resolves its dependencies into
causal edges. Events are printed in clock order.

Exit codes:
  0 - Reconstruction succeeded
  1 - Reconstruction or schema check failed
  2 - Command error (missing file, undecodable trace, etc.)

Examples:
  hindsight reconstruct trace.jsonl
  hindsight reconstruct --schema-check trace.json
  hindsight reconstruct --input-format msgpack - < trace.bin
  hindsight reconstruct --format json trace.jsonl`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconstruct(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.InputFormat, "input-format", "auto", "trace encoding (auto|json|jsonl|msgpack)")
	cmd.Flags().BoolVar(&opts.SchemaCheck, "schema-check", false, "validate records against the record schema first")

	return cmd
}

func runReconstruct(opts *ReconstructOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	records, err := loadRecords(path, opts.InputFormat, cmd.InOrStdin())
	if err != nil {
		return reportLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded %d record(s) from %s", len(records), path)

	if opts.SchemaCheck {
		v, err := schema.New()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load record schema", err)
		}
		if violations := v.Validate(records); len(violations) > 0 {
			return outputViolations(formatter, len(records), violations)
		}
	}

	res, err := reconstruct(opts.RootOptions, records, cmd.ErrOrStderr())
	if err != nil {
		return outputReconstructError(formatter, err)
	}

	traceID, err := ir.TraceID(records)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash trace", err)
	}

	u := universe.FromResult(res)
	result := ReconstructResult{
		TraceID: traceID,
		Events:  u.Events(),
		Edges:   res.Graph.Edges(),
		Threads: u.Threads(),
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	writeReconstruction(formatter.Writer, u, result)
	return nil
}

// reconstruct runs the engine with the command's logger.
func reconstruct(opts *RootOptions, records []ir.Record, logs io.Writer) (*engine.Result, error) {
	return engine.Reconstruct(records, engine.WithLogger(newLogger(opts, logs)))
}

// outputReconstructError reports a failed reconstruction under the engine's
// error code.
func outputReconstructError(formatter *OutputFormatter, err error) error {
	code := ErrCodeGeneric
	var details map[string]any
	var re *engine.ReconstructError
	if errors.As(err, &re) {
		code = string(re.Code)
		details = map[string]any{
			"record": re.RecordID,
			"index":  re.Index,
		}
		if re.Kind != "" {
			details["kind"] = string(re.Kind)
		}
	}
	_ = formatter.Error(code, err.Error(), details)
	return reported(WrapExitError(ExitFailure, "reconstruction failed", err))
}

// writeReconstruction prints lanes, events in clock order and edges.
func writeReconstruction(w io.Writer, u *universe.Universe, result ReconstructResult) {
	fmt.Fprintf(w, "Trace %s: %d event(s), %d edge(s), %d thread(s)\n",
		result.TraceID, len(result.Events), len(result.Edges), len(result.Threads))

	writeLanes(w, u.Threads())

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Events:")
	writeEvents(w, u, result.Events)

	if len(result.Edges) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Edges:")
		for _, e := range result.Edges {
			if e.Primary {
				fmt.Fprintf(w, "  %s -> %s\n", e.From, e.To)
			} else {
				fmt.Fprintf(w, "  %s -> %s (additional)\n", e.From, e.To)
			}
		}
	}
}

func writeLanes(w io.Writer, threads []ir.ThreadRef) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Threads:")
	for i, th := range threads {
		fmt.Fprintf(w, "  [%d] %s\n", i, th.Key)
	}
}

func writeEvents(w io.Writer, u *universe.Universe, events []ir.Event) {
	for _, ev := range events {
		lane, _ := u.Lane(ev.Thread.Key)
		fmt.Fprintf(w, "  %4d  lane %-2d  %-6s %-12s %s\n", ev.Clock, lane, ev.ID, ev.Kind, ev.VectorTimestamp)
	}
}

// outputJSON writes a response with indentation, for results that also
// carry an error.
func outputJSON(w io.Writer, response CLIResponse) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}
