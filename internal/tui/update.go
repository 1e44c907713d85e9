package tui

import (
	"errors"
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"connwatch/internal/actions"
	"connwatch/internal/monitor"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		h := msg.Height - 9
		if h < 5 {
			h = 5
		}
		m.conns.SetHeight(h)
		m.susp.SetHeight(h)
		return m, nil

	case SnapshotMsg:
		m.applySnapshot(monitor.Snapshot(msg))
		return m, waitForSnapshot(m.deps.Snapshots)

	case TickMsg:
		return m, tickCmd()

	case actionMsg:
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.deps.Logger.Error().Err(msg.err).Msg("Action failed")
		} else {
			m.status = msg.text
			m.deps.Logger.Info().Msg(msg.text)
		}
		return m, nil

	case tea.KeyMsg:
		if m.pendingPID != 0 {
			return m.confirmKill(msg.String())
		}
		if next, cmd, handled := m.handleKey(msg.String()); handled {
			return next, cmd
		}
	}

	switch m.active {
	case tabConnections:
		m.conns, cmd = m.conns.Update(msg)
	case tabSuspicious:
		m.susp, cmd = m.susp.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(key string) (Model, tea.Cmd, bool) {
	switch key {
	case "q", "ctrl+c":
		m.deps.Monitor.Stop()
		return m, tea.Quit, true

	case "tab":
		m.setTab((m.active + 1) % tabCount)
	case "shift+tab":
		m.setTab((m.active + tabCount - 1) % tabCount)

	case "s":
		if err := m.deps.Monitor.Start(m.ctx); err != nil {
			if errors.Is(err, monitor.ErrAlreadyRunning) {
				m.status = "Monitoring is already running"
			} else {
				m.status = "Error: " + err.Error()
			}
			return m, nil, true
		}
		m.status = fmt.Sprintf("Monitoring every %s", m.deps.Monitor.Interval())
	case "x":
		if !m.deps.Monitor.Running() {
			m.status = "Monitoring is not running"
			return m, nil, true
		}
		m.deps.Monitor.Stop()
		m.status = "Monitoring stopped"
	case "r":
		if !m.deps.Monitor.Refresh(m.ctx) {
			m.status = "Refresh ignored while monitoring"
			return m, nil, true
		}
		m.status = "Refreshing..."

	case "e":
		if !m.hasSnap {
			m.status = "Nothing to export yet"
			return m, nil, true
		}
		return m, m.exportCmd(), true
	case "v":
		ip, ok := m.selectedIP()
		if !ok {
			return m, nil, true
		}
		return m, m.lookupCmd(ip), true
	case "c":
		pid, ok := m.selectedPID()
		if !ok {
			return m, nil, true
		}
		return m, m.copyCmd("PID", pid), true
	case "i":
		ip, ok := m.selectedIP()
		if !ok {
			return m, nil, true
		}
		return m, m.copyCmd("IP", ip), true
	case "k":
		s, ok := m.selectedPID()
		if !ok {
			return m, nil, true
		}
		pid, err := actions.ParsePID(s)
		if err != nil {
			m.status = "Error: " + err.Error()
			return m, nil, true
		}
		m.pendingPID = pid
		m.status = fmt.Sprintf("Terminate PID %d? (y/n)", pid)

	case "1", "2", "3":
		f := int(key[0] - '1')
		m.filters[f] = !m.filters[f]
		m.refreshSuspicious()
		state := "off"
		if m.filters[f] {
			state = "on"
		}
		m.status = fmt.Sprintf("Filter %s: %s", filterNames[f], state)

	default:
		return m, nil, false
	}
	return m, nil, true
}

func (m Model) confirmKill(key string) (tea.Model, tea.Cmd) {
	pid := m.pendingPID
	m.pendingPID = 0
	if key != "y" && key != "Y" {
		m.status = "Kill cancelled"
		return m, nil
	}
	m.status = fmt.Sprintf("Terminating PID %d...", pid)
	return m, m.killCmd(pid)
}

func (m *Model) setTab(t tab) {
	m.active = t
	m.conns.Blur()
	m.susp.Blur()
	switch t {
	case tabConnections:
		m.conns.Focus()
	case tabSuspicious:
		m.susp.Focus()
	}
}

func (m *Model) applySnapshot(snap monitor.Snapshot) {
	m.snap = snap
	m.hasSnap = true
	m.connRows = snap.Batch.Connections
	m.conns.SetRows(connectionRows(snap.Batch.Connections, snap.Batch.Suspicious))
	m.refreshSuspicious()
}

func (m *Model) refreshSuspicious() {
	m.suspRows = filterSuspicious(m.snap.Batch.Suspicious, m.filters)
	m.susp.SetRows(suspiciousRows(m.suspRows))
}

// selectedPID returns the pid of the highlighted row on a table tab.
func (m Model) selectedPID() (string, bool) {
	switch m.active {
	case tabConnections:
		if i := m.conns.Cursor(); i >= 0 && i < len(m.connRows) {
			return m.connRows[i].PID, true
		}
	case tabSuspicious:
		if i := m.susp.Cursor(); i >= 0 && i < len(m.suspRows) {
			return m.suspRows[i].Connection.PID, true
		}
	}
	return "", false
}

func (m Model) selectedIP() (string, bool) {
	switch m.active {
	case tabConnections:
		if i := m.conns.Cursor(); i >= 0 && i < len(m.connRows) {
			return m.connRows[i].RemoteAddress, true
		}
	case tabSuspicious:
		if i := m.susp.Cursor(); i >= 0 && i < len(m.suspRows) {
			return m.suspRows[i].Connection.RemoteAddress, true
		}
	}
	return "", false
}

func (m Model) exportCmd() tea.Cmd {
	export, dir, snap := m.deps.Export, m.deps.ExportDir, m.snap
	// export what is on screen
	snap.Batch.Suspicious = m.suspRows
	return func() tea.Msg {
		path, err := export(dir, snap)
		if err != nil {
			return actionMsg{err: fmt.Errorf("export: %w", err)}
		}
		return actionMsg{text: "Exported to " + path}
	}
}

func (m Model) lookupCmd(ip string) tea.Cmd {
	open := m.deps.Open
	return func() tea.Msg {
		u, err := actions.OpenLookup(ip, open)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{text: "Opened " + u}
	}
}

func (m Model) copyCmd(what, text string) tea.Cmd {
	copyFn := m.deps.Copy
	return func() tea.Msg {
		if err := copyFn(text); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{text: fmt.Sprintf("Copied %s %s", what, text)}
	}
}

func (m Model) killCmd(pid int) tea.Cmd {
	ctx, kill, mon := m.ctx, m.deps.Kill, m.deps.Monitor
	return func() tea.Msg {
		if err := kill(ctx, pid); err != nil {
			return actionMsg{err: err}
		}
		mon.Refresh(ctx)
		return actionMsg{text: "Terminated PID " + strconv.Itoa(pid)}
	}
}
