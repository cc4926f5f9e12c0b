package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/hindsight/internal/ir"
	"github.com/roach88/hindsight/internal/store"
	"github.com/roach88/hindsight/internal/universe"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database     string
	TraceID      string
	At           int64
	From         int64
	To           int64
	Event        string
	DropBookends bool
}

// ShowResult is a windowed view of a stored trace.
type ShowResult struct {
	Trace   store.Trace    `json:"trace"`
	Threads []ir.ThreadRef `json:"threads"`
	Events  []ir.Event     `json:"events"`
	Window  *Window        `json:"window,omitempty"`
}

// EventDetail is the view of one stored event: its causal parents and the
// events it pairs with.
type EventDetail struct {
	Event   ir.Event          `json:"event"`
	Lane    int               `json:"lane"`
	Parents []string          `json:"parents"`
	Unlock  *ir.Event         `json:"unlock,omitempty"`
	Join    *ir.Event         `json:"join,omitempty"`
	Message *universe.Message `json:"message,omitempty"`
	Handler []ir.Event        `json:"handler,omitempty"`
}

// Window is the half-open clock interval [Start, End) of a view.
type Window struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a stored trace by clock window",
		Long: `Show the events of a stored trace with their thread lanes.

Without a window every event is shown. --at selects the events of one
clock value; --from and --to select the clock interval [from, to).
Lanes are numbered over the whole trace so they stay stable across windows.

With no --trace, the stored traces are listed. --event shows one event with
its parents and the events it pairs with: the UNLOCK of a LOCK, the JOIN of
an END, the message parts of a SND or RCV and the handler run for a RCV.

Examples:
  hindsight show --db ./hindsight.db
  hindsight show --db ./hindsight.db --trace <id>
  hindsight show --db ./hindsight.db --trace <id> --at 4
  hindsight show --db ./hindsight.db --trace <id> --from 10 --to 20 --drop-bookends
  hindsight show --db ./hindsight.db --trace <id> --event 42`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.TraceID, "trace", "", "trace id to show")
	cmd.Flags().Int64Var(&opts.At, "at", 0, "show the events at this clock")
	cmd.Flags().Int64Var(&opts.From, "from", 0, "start of the clock window (inclusive)")
	cmd.Flags().Int64Var(&opts.To, "to", 0, "end of the clock window (exclusive)")
	cmd.Flags().StringVar(&opts.Event, "event", "", "show one event with its parents and pairings")
	cmd.Flags().BoolVar(&opts.DropBookends, "drop-bookends", false, "hide threads with only START and END events")
	cmd.MarkFlagsMutuallyExclusive("at", "from")
	cmd.MarkFlagsMutuallyExclusive("at", "to")
	cmd.MarkFlagsMutuallyExclusive("event", "at")
	cmd.MarkFlagsMutuallyExclusive("event", "from")
	cmd.MarkFlagsMutuallyExclusive("event", "to")

	return cmd
}

func runShow(opts *ShowOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.TraceID == "" {
		return listTraces(ctx, st, formatter)
	}

	tr, err := st.ReadTrace(ctx, opts.TraceID)
	if errors.Is(err, store.ErrTraceNotFound) {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return reported(WrapExitError(ExitCommandError, "trace not found", err))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read trace", err)
	}

	all, err := st.ReadEvents(ctx, tr.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	var uopts []universe.Option
	if opts.DropBookends {
		uopts = append(uopts, universe.WithoutBookendThreads())
	}
	u := universe.New(all, uopts...)

	if opts.Event != "" {
		return showEvent(ctx, st, tr, u, opts.Event, formatter)
	}

	window, err := resolveWindow(opts, cmd, u)
	if err != nil {
		return err
	}

	events := u.Events()
	if window != nil {
		events = u.Subset(window.Start, window.End)
		if events == nil {
			events = []ir.Event{}
		}
	}
	formatter.VerboseLog("Showing %d of %d event(s)", len(events), len(all))

	result := ShowResult{
		Trace:   tr,
		Threads: u.Threads(),
		Events:  events,
		Window:  window,
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Trace %s (%s): %d event(s), clocks 0..%d\n", tr.ID, tr.Name, tr.EventCount, tr.MaxClock)
	if window != nil {
		fmt.Fprintf(w, "Window [%d, %d): %d event(s)\n", window.Start, window.End, len(events))
	}
	writeLanes(w, u.Threads())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Events:")
	writeEvents(w, u, events)
	return nil
}

// resolveWindow turns --at / --from / --to into a clock window.
// Returns nil when no window flag is set.
func resolveWindow(opts *ShowOptions, cmd *cobra.Command, u *universe.Universe) (*Window, error) {
	flags := cmd.Flags()
	switch {
	case flags.Changed("at"):
		return &Window{Start: opts.At, End: opts.At + 1}, nil
	case flags.Changed("from") || flags.Changed("to"):
		w := &Window{Start: opts.From, End: u.MaxClock() + 1}
		if flags.Changed("to") {
			w.End = opts.To
		}
		if w.End < w.Start {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid window: --to %d is before --from %d", w.End, w.Start))
		}
		return w, nil
	}
	return nil, nil
}

func showEvent(ctx context.Context, st *store.Store, tr store.Trace, u *universe.Universe, id string, formatter *OutputFormatter) error {
	ev, ok := u.Event(id)
	if !ok {
		msg := fmt.Sprintf("event %s not found in trace %s", id, tr.ID)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return reported(NewExitError(ExitCommandError, msg))
	}

	parents, err := st.ReadParents(ctx, tr.ID, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read parents", err)
	}
	lane, _ := u.Lane(ev.Thread.Key)
	detail := EventDetail{Event: ev, Lane: lane, Parents: parents}
	if err := pairEvent(u, &detail); err != nil {
		return WrapExitError(ExitCommandError, "failed to pair event", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(detail)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Event %s (%s) on %s, lane %d\n", ev.ID, ev.Kind, ev.Thread.Key, lane)
	fmt.Fprintf(w, "  clock:   %d\n", ev.Clock)
	fmt.Fprintf(w, "  vector:  %s\n", ev.VectorTimestamp)
	if len(parents) == 0 {
		fmt.Fprintln(w, "  parents: none")
	} else {
		fmt.Fprintf(w, "  parents: %s\n", strings.Join(parents, ", "))
	}
	if detail.Unlock != nil {
		fmt.Fprintf(w, "  unlock:  %s at clock %d\n", detail.Unlock.ID, detail.Unlock.Clock)
	}
	if detail.Join != nil {
		fmt.Fprintf(w, "  join:    %s at clock %d\n", detail.Join.ID, detail.Join.Clock)
	}
	if m := detail.Message; m != nil {
		state := "complete"
		if !m.Complete() {
			state = "incomplete"
		}
		fmt.Fprintf(w, "  message: %s on %s, %d sent / %d received (%s)\n", m.ID, m.Channel, m.SentBytes, m.ReceivedBytes, state)
		fmt.Fprintf(w, "    sends:    %s\n", strings.Join(eventIDs(m.Sends), ", "))
		fmt.Fprintf(w, "    receives: %s\n", strings.Join(eventIDs(m.Receives), ", "))
	}
	if len(detail.Handler) > 0 {
		fmt.Fprintf(w, "  handler: %s\n", strings.Join(eventIDs(detail.Handler), ", "))
	}
	return nil
}

// pairEvent fills the pairing of detail.Event that applies to its kind.
func pairEvent(u *universe.Universe, detail *EventDetail) error {
	id := detail.Event.ID
	switch detail.Event.Kind {
	case ir.KindLock:
		unlock, ok, err := u.UnlockOf(id)
		if err != nil {
			return err
		}
		if ok {
			detail.Unlock = &unlock
		}
	case ir.KindEnd:
		join, ok, err := u.JoinOf(id)
		if err != nil {
			return err
		}
		if ok {
			detail.Join = &join
		}
	case ir.KindSend, ir.KindReceive:
		m, err := u.MessageParts(id)
		if err != nil {
			return err
		}
		detail.Message = &m
		if detail.Event.Kind == ir.KindReceive {
			scope, err := u.HandlerScope(id)
			if err != nil {
				return err
			}
			detail.Handler = scope
		}
	}
	return nil
}

func eventIDs(events []ir.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.ID
	}
	return out
}

func listTraces(ctx context.Context, st *store.Store, formatter *OutputFormatter) error {
	traces, err := st.ListTraces(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list traces", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(traces)
	}

	w := formatter.Writer
	if len(traces) == 0 {
		fmt.Fprintln(w, "No traces stored.")
		return nil
	}
	for _, tr := range traces {
		fmt.Fprintf(w, "%3d  %s  %-16s %d event(s), %d thread(s)\n", tr.Seq, tr.ID, tr.Name, tr.EventCount, tr.ThreadCount)
	}
	return nil
}
