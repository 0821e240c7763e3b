package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lepinkainen/subsorter/subghz"
)

// File log entry for the processed files list
type FileLogEntry struct {
	Name        string
	Destination string
	Status      string // "✓", "⏭️", "❌"
	Detail      string
}

func (f FileLogEntry) FilterValue() string { return f.Name }
func (f FileLogEntry) Title() string       { return f.Name }
func (f FileLogEntry) Description() string {
	switch f.Status {
	case "❌":
		return fmt.Sprintf("❌ %s", f.Detail)
	case "⏭️":
		return fmt.Sprintf("⏭️  %s", f.Detail)
	default:
		return fmt.Sprintf("✓ → %s", f.Destination)
	}
}

// SortModel shows the progress of an organizer run. It reads events from the
// channel the organizer writes to and quits once that channel is closed.
type SortModel struct {
	events <-chan subghz.Event
	cancel context.CancelFunc

	// Run state
	state     subghz.RunState
	scanned   int
	scanTotal int
	total     int
	processed int
	copied    int
	skipped   int
	failed    int
	entries   []FileLogEntry

	// UI components
	progress progress.Model
	fileList list.Model

	// Layout
	width  int
	height int

	// Control state
	cancelling bool
	closed     bool

	// Version for display
	Version string
}

// NewSortModel creates a model reading from events. cancel is called when the
// user asks to stop; the model keeps draining events until the run ends.
func NewSortModel(events <-chan subghz.Event, cancel context.CancelFunc, version string) SortModel {
	fileList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	fileList.Title = "Processed Files"
	fileList.SetShowHelp(false)

	return SortModel{
		events:   events,
		cancel:   cancel,
		progress: progress.New(progress.WithDefaultGradient()),
		fileList: fileList,
		Version:  version,
	}
}

// waitForEvent blocks on the next event
func waitForEvent(events <-chan subghz.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return EventsClosedMsg{}
		}
		return SortEventMsg{Event: ev}
	}
}

// Init implements tea.Model
func (m SortModel) Init() tea.Cmd {
	return waitForEvent(m.events)
}

// Update implements tea.Model
func (m SortModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.closed {
				return m, tea.Quit
			}
			if !m.cancelling && m.cancel != nil {
				m.cancelling = true
				m.cancel()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(msg.Width-30, 10)
		m.fileList.SetSize(msg.Width-4, msg.Height/2)

	case SortEventMsg:
		m.apply(msg.Event)
		return m, waitForEvent(m.events)

	case EventsClosedMsg:
		m.closed = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *SortModel) apply(ev subghz.Event) {
	switch ev.Kind {
	case subghz.EventStateChanged:
		m.state = ev.State
		return
	case subghz.EventScanned:
		m.scanned = ev.Index
		m.scanTotal = ev.Total
		return
	case subghz.EventStarted:
		m.total = ev.Total
		return
	}

	entry := FileLogEntry{Name: filepath.Base(ev.Source), Destination: ev.Destination}
	switch ev.Kind {
	case subghz.EventCopied:
		m.copied++
		entry.Status = "✓"
	case subghz.EventSkipped:
		m.skipped++
		entry.Status = "⏭️"
		entry.Detail = ev.Reason
	case subghz.EventFailed:
		m.failed++
		entry.Status = "❌"
		if ev.Err != nil {
			entry.Detail = ev.Err.Error()
		}
	default:
		return
	}
	m.processed = ev.Index
	if ev.Total > 0 {
		m.total = ev.Total
	}

	m.entries = append(m.entries, entry)
	items := make([]list.Item, len(m.entries))
	for i, entry := range m.entries {
		items[i] = entry
	}
	m.fileList.SetItems(items)
	m.fileList.Select(len(items) - 1)
}

// Percent returns the fraction of the plan processed so far
func (m SortModel) Percent() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.processed) / float64(m.total)
}

// View implements tea.Model
func (m SortModel) View() string {
	header := HeaderStyle.Render(fmt.Sprintf("SubGHz Sorter %s", m.Version))

	finished := m.state == subghz.StateDone || m.state == subghz.StateDoneWithFailures
	state := StateStyle(finished, m.state == subghz.StateDoneWithFailures, m.state == subghz.StateCancelled).
		Render(fmt.Sprintf("State: %s", m.state))
	if m.cancelling && m.state != subghz.StateCancelled {
		state += " " + WarningStyle.Render("(cancelling after the current file)")
	}

	progressView := fmt.Sprintf("Progress: %s (%d/%d)",
		m.progress.ViewAs(m.Percent()),
		m.processed,
		m.total)
	if m.state == subghz.StateScanning {
		scanPercent := 0.0
		if m.scanTotal > 0 {
			scanPercent = float64(m.scanned) / float64(m.scanTotal)
		}
		progressView = fmt.Sprintf("Scanning: %s (%d/%d)",
			m.progress.ViewAs(scanPercent),
			m.scanned,
			m.scanTotal)
	}

	counters := strings.Join([]string{
		SuccessStyle.Render(fmt.Sprintf("✅ Copied: %d", m.copied)),
		WarningStyle.Render(fmt.Sprintf("⏭️  Skipped: %d", m.skipped)),
		ErrorStyle.Render(fmt.Sprintf("❌ Failed: %d", m.failed)),
	}, "   ")

	controls := MutedStyle.Render("Controls: [q] Cancel")
	if m.closed {
		controls = MutedStyle.Render("Controls: [q] Quit")
	}

	sections := []string{
		header,
		state,
		progressView,
		counters,
		m.fileList.View(),
		controls,
	}

	return strings.Join(sections, "\n\n")
}
