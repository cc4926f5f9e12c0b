package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/hindsight/internal/ir"
	"github.com/roach88/hindsight/internal/tracefile"
)

// stdinPath reads the trace from standard input.
const stdinPath = "-"

// loadRecords reads the trace at path ("-" for stdin) in the given input
// format ("auto" to detect).
func loadRecords(path, inputFormat string, stdin io.Reader) ([]ir.Record, error) {
	format, err := tracefile.ParseFormat(inputFormat)
	if err != nil {
		return nil, NewExitError(ExitCommandError, err.Error())
	}

	if path == stdinPath {
		records, err := tracefile.Decode(stdin, format)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("%s: failed to read trace from stdin", ErrCodeLoadFailed), err)
		}
		return records, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("%s: trace file not found: %s", ErrCodeNotFound, path))
	}

	if format == tracefile.FormatAuto {
		records, err := tracefile.Load(path)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("%s: failed to read trace", ErrCodeLoadFailed), err)
		}
		return records, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("%s: failed to open trace", ErrCodeLoadFailed), err)
	}
	defer f.Close()

	records, err := tracefile.Decode(f, format)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("%s: failed to read trace", ErrCodeLoadFailed), err)
	}
	return records, nil
}

// reportLoadError prints a load failure in the configured format and
// returns it marked as reported.
func reportLoadError(formatter *OutputFormatter, err error) error {
	_ = formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
	return reported(err)
}

// newLogger builds the structured logger for a command.
// Debug level with --verbose, Info otherwise. Logs go to w (stderr) so they
// never corrupt JSON output.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
}
