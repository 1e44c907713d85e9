package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"connwatch/internal/actions"
	"connwatch/internal/logging"
	"connwatch/internal/models"
	"connwatch/internal/monitor"
	"connwatch/internal/reporting"
)

// Controller is the part of *monitor.Monitor the UI drives.
type Controller interface {
	Start(ctx context.Context) error
	Stop()
	Refresh(ctx context.Context) bool
	Running() bool
	Interval() time.Duration
	SessionID() string
}

// Deps wires the UI to the monitor and the operator actions. Nil action
// funcs fall back to the real implementations.
type Deps struct {
	Monitor   Controller
	Snapshots <-chan monitor.Snapshot
	Logs      *logging.Ring
	Logger    zerolog.Logger
	ExportDir string

	Kill   func(ctx context.Context, pid int) error
	Open   actions.Opener
	Copy   func(text string) error
	Export func(dir string, snap monitor.Snapshot) (string, error)
}

type tab int

const (
	tabConnections tab = iota
	tabSuspicious
	tabAnalysis
	tabLogs
	tabCount
)

var tabNames = [tabCount]string{"Connections", "Suspicious", "Analysis", "Logs"}

// filter indexes; see ruleFilter.
const (
	filterUnknown = iota
	filterExternal
	filterPorts
	filterCount
)

var filterNames = [filterCount]string{"Unknown processes", "External connections", "Suspicious ports"}

// SnapshotMsg carries a published snapshot into the update loop.
type SnapshotMsg monitor.Snapshot

// TickMsg refreshes the log pane.
type TickMsg time.Time

type actionMsg struct {
	text string
	err  error
}

// Model is the bubbletea model for the monitor UI.
type Model struct {
	ctx  context.Context
	deps Deps

	active tab
	conns  table.Model
	susp   table.Model

	snap    monitor.Snapshot
	hasSnap bool

	connRows []models.ConnectionRecord
	suspRows []models.ScoredConnection
	filters  [filterCount]bool

	status     string
	pendingPID int
	width      int
	height     int
}

// NewModel builds the UI model. ctx bounds monitor passes and actions.
func NewModel(ctx context.Context, deps Deps) Model {
	if deps.Kill == nil {
		deps.Kill = actions.KillProcess
	}
	if deps.Open == nil {
		deps.Open = actions.OpenBrowser
	}
	if deps.Copy == nil {
		deps.Copy = actions.CopyToClipboard
	}
	if deps.Export == nil {
		deps.Export = reporting.WriteReport
	}
	deps.Logger = deps.Logger.With().Str("component", "tui").Logger()

	m := Model{
		ctx:    ctx,
		deps:   deps,
		conns:  newTable(connectionColumns(), true),
		susp:   newTable(suspiciousColumns(), false),
		status: "Stopped. Press s to start monitoring or r for a single pass.",
	}
	for i := range m.filters {
		m.filters[i] = true
	}
	return m
}

func connectionColumns() []table.Column {
	return []table.Column{
		{Title: "PID", Width: 7},
		{Title: "Process", Width: 20},
		{Title: "Proto", Width: 5},
		{Title: "Local", Width: 22},
		{Title: "Remote", Width: 22},
		{Title: "Service", Width: 12},
		{Title: "State", Width: 12},
		{Title: "Country", Width: 9},
		{Title: "Risk", Width: 8},
	}
}

func suspiciousColumns() []table.Column {
	return []table.Column{
		{Title: "Risk", Width: 12},
		{Title: "PID", Width: 7},
		{Title: "Process", Width: 20},
		{Title: "Remote IP", Width: 18},
		{Title: "Port", Width: 6},
		{Title: "Reason", Width: 50},
	}
}

func newTable(columns []table.Column, focused bool) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(focused),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return t
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForSnapshot(m.deps.Snapshots), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func waitForSnapshot(ch <-chan monitor.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return SnapshotMsg(snap)
	}
}

// ChannelSink returns a monitor sink that forwards snapshots to ch, replacing
// an unread snapshot so the UI always receives the newest one.
func ChannelSink(ch chan monitor.Snapshot) monitor.Sink {
	return func(s monitor.Snapshot) {
		for {
			select {
			case ch <- s:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	}
}
