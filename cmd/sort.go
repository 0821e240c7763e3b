package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/lepinkainen/subsorter/subghz"
	"github.com/lepinkainen/subsorter/types"
	"github.com/lepinkainen/subsorter/ui"
	"github.com/lepinkainen/subsorter/utils"
)

// ErrCancelled is returned when the user stopped a run before it finished
var ErrCancelled = errors.New("sorting cancelled")

// SortCmd copies captures from a source folder into a frequency/protocol tree
type SortCmd struct {
	Source      string `arg:"" name:"source" help:"Folder containing .sub captures" type:"path"`
	Destination string `arg:"" name:"destination" help:"Folder to sort the captures into" type:"path"`

	FilterFlags `embed:""`

	Log        bool   `help:"Write a run log into the destination" default:"true" negatable:""`
	LogFile    string `help:"Run log file name, relative to the destination" default:"sort_log.txt"`
	OnConflict string `help:"What to do when the file name is already taken (${enum})" enum:"rename,skip,overwrite" default:"rename"`
	KeepEmpty  bool   `help:"Keep folders left empty by failed copies"`
	NoTUI      bool   `name:"no-tui" help:"Disable the interactive progress view"`
}

// options validates the flags and builds the organizer options
func (cmd *SortCmd) options() (subghz.Options, error) {
	filter, err := cmd.Selection()
	if err != nil {
		return subghz.Options{}, err
	}
	policy, err := subghz.ParseConflictPolicy(cmd.OnConflict)
	if err != nil {
		return subghz.Options{}, &subghz.ConfigurationError{Field: "conflict policy", Reason: cmd.OnConflict, Err: err}
	}

	return subghz.Options{
		Source:      cmd.Source,
		Destination: cmd.Destination,
		Filter:      filter,
		Recursive:   cmd.Recursive,
		Conflict:    policy,
		Log:         cmd.Log,
		LogFile:     cmd.LogFile,
		KeepEmpty:   cmd.KeepEmpty,
	}, nil
}

func (cmd *SortCmd) Run(appCtx *types.AppContext) error {
	out := appCtx.Out()

	opts, err := cmd.options()
	if err != nil {
		return err
	}

	fmt.Fprintln(out, ui.HeaderStyle.Render(fmt.Sprintf("SubGHz Sorter %s", appCtx.VersionString())))
	if utils.IsNetworkPath(cmd.Source) || utils.IsNetworkPath(cmd.Destination) {
		fmt.Fprintf(out, "⚠️  Network drive detected, copies may be slow and timestamps may not be preserved\n")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var summary *subghz.Summary
	if cmd.useTUI() {
		summary, err = cmd.runWithTUI(ctx, appCtx, opts)
	} else {
		summary, err = cmd.runPlain(ctx, appCtx, opts)
	}
	if err != nil {
		return err
	}

	printSummary(out, summary)

	switch {
	case summary.OK():
		return nil
	case summary.Cancelled():
		return ErrCancelled
	default:
		return fmt.Errorf("%d file(s) could not be copied", len(summary.Failures))
	}
}

func (cmd *SortCmd) useTUI() bool {
	if cmd.NoTUI {
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type runOutcome struct {
	summary *subghz.Summary
	err     error
}

// start runs the organizer on its own goroutine
func start(ctx context.Context, logger *zap.Logger, opts subghz.Options) (<-chan subghz.Event, <-chan runOutcome) {
	events := make(chan subghz.Event, 64)
	done := make(chan runOutcome, 1)

	organizer := subghz.NewOrganizer(subghz.WithLogger(logger))
	go func() {
		summary, err := organizer.Run(ctx, opts, events)
		done <- runOutcome{summary: summary, err: err}
	}()
	return events, done
}

// runWithTUI shows progress in a full-screen view. Diagnostics are only kept
// when they go to a file, since the view owns the terminal.
func (cmd *SortCmd) runWithTUI(ctx context.Context, appCtx *types.AppContext, opts subghz.Options) (*subghz.Summary, error) {
	logger := zap.NewNop()
	if appCtx != nil && appCtx.LogToFile {
		logger = appCtx.Log()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, done := start(ctx, logger, opts)

	model := ui.NewSortModel(events, cancel, appCtx.VersionString())
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		cancel()
		for range events {
		}
		<-done
		return nil, fmt.Errorf("progress view failed: %w", err)
	}

	outcome := <-done
	return outcome.summary, outcome.err
}

// runPlain prints progress with a console progress bar
func (cmd *SortCmd) runPlain(ctx context.Context, appCtx *types.AppContext, opts subghz.Options) (*subghz.Summary, error) {
	out := appCtx.Out()
	events, done := start(ctx, appCtx.Log(), opts)

	var bar, scanBar *progressbar.ProgressBar
	for ev := range events {
		switch ev.Kind {
		case subghz.EventStateChanged:
			if ev.State == subghz.StateScanning {
				fmt.Fprintln(out, ui.ProcessingStyle.Render(fmt.Sprintf("🔍 Scanning %s (%s)", opts.Source, opts.Filter)))
			}
		case subghz.EventScanned:
			if scanBar == nil && ev.Total > 0 {
				scanBar = newProgressBar(appCtx.Err(), "Scanning", ev.Total)
			}
			advance(scanBar)
		case subghz.EventStarted:
			if scanBar != nil {
				_ = scanBar.Finish()
				scanBar = nil
			}
			fmt.Fprintln(out, ui.ProcessingStyle.Render(fmt.Sprintf("📡 Sorting %d file(s) into %s", ev.Total, opts.Destination)))
			if ev.Total > 0 {
				bar = newProgressBar(appCtx.Err(), "Copying", ev.Total)
			}
		case subghz.EventFailed:
			if bar != nil {
				_ = bar.Clear()
			}
			fmt.Fprintln(out, ui.ErrorStyle.Render(fmt.Sprintf("❌ %v", ev.Err)))
			advance(bar)
		case subghz.EventCopied, subghz.EventSkipped:
			advance(bar)
		}
	}
	for _, b := range []*progressbar.ProgressBar{scanBar, bar} {
		if b != nil {
			_ = b.Finish()
		}
	}

	outcome := <-done
	return outcome.summary, outcome.err
}

func newProgressBar(w io.Writer, description string, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)
}

func advance(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Add(1)
	}
}
