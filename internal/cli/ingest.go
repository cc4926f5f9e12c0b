package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/hindsight/internal/ir"
	"github.com/roach88/hindsight/internal/store"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	Database    string
	Name        string
	InputFormat string

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, defaults to store.UUIDv7Generator.
	RunIDs store.RunIDGenerator
}

// IngestResult reports a stored trace.
type IngestResult struct {
	TraceID string `json:"trace_id"`
	RunID   string `json:"run_id"`
	Name    string `json:"name"`
	Created bool   `json:"created"`
	Events  int    `json:"events"`
	Edges   int    `json:"edges"`
	Threads int    `json:"threads"`
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	return newIngestCommand(&IngestOptions{RootOptions: rootOpts})
}

func newIngestCommand(opts *IngestOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <trace>",
		Short: "Reconstruct a trace and store it",
		Long: `Reconstruct a trace and persist its events, vector clocks and edges.

The database is created if it doesn't exist. Traces are keyed by the
content hash of their records: ingesting the same trace twice stores it
once and reports the run that first stored it.

Examples:
  hindsight ingest --db ./hindsight.db trace.jsonl
  hindsight ingest --db ./hindsight.db --name checkout trace.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Name, "name", "", "trace name (defaults to the file name)")
	cmd.Flags().StringVar(&opts.InputFormat, "input-format", "auto", "trace encoding (auto|json|jsonl|msgpack)")

	return cmd
}

func runIngest(opts *IngestOptions, path string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	records, err := loadRecords(path, opts.InputFormat, cmd.InOrStdin())
	if err != nil {
		return reportLoadError(formatter, err)
	}

	res, err := reconstruct(opts.RootOptions, records, cmd.ErrOrStderr())
	if err != nil {
		return outputReconstructError(formatter, err)
	}

	traceID, err := ir.TraceID(records)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash trace", err)
	}

	runIDs := opts.RunIDs
	if runIDs == nil {
		runIDs = store.UUIDv7Generator{}
	}
	name := opts.Name
	if name == "" && path != stdinPath {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	// Open database (create if not exists)
	logger.Info("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return reported(WrapExitError(ExitCommandError, "failed to open database", err))
	}
	defer st.Close()

	edges := res.Graph.Edges()
	tr := store.NewTrace(traceID, runIDs.Generate(), name, res.Events, edges)
	created, err := st.WriteTrace(ctx, tr, res.Events, edges)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return reported(WrapExitError(ExitCommandError, "failed to store trace", err))
	}

	if !created {
		// Report the run that first stored the trace
		if tr, err = st.ReadTrace(ctx, traceID); err != nil {
			return WrapExitError(ExitCommandError, "failed to read stored trace", err)
		}
	}
	logger.Info("trace ingested", "trace_id", tr.ID, "run_id", tr.RunID, "created", created)

	result := IngestResult{
		TraceID: tr.ID,
		RunID:   tr.RunID,
		Name:    tr.Name,
		Created: created,
		Events:  tr.EventCount,
		Edges:   tr.EdgeCount,
		Threads: tr.ThreadCount,
	}

	if opts.Format == "json" {
		return outputJSON(formatter.Writer, CLIResponse{
			Status:  "ok",
			Data:    result,
			TraceID: result.TraceID,
		})
	}

	w := formatter.Writer
	if created {
		fmt.Fprintf(w, "✓ Stored trace %s\n", result.TraceID)
	} else {
		fmt.Fprintf(w, "✓ Trace %s already stored\n", result.TraceID)
	}
	fmt.Fprintf(w, "  run:     %s\n", result.RunID)
	fmt.Fprintf(w, "  events:  %d\n", result.Events)
	fmt.Fprintf(w, "  edges:   %d\n", result.Edges)
	fmt.Fprintf(w, "  threads: %d\n", result.Threads)
	return nil
}
