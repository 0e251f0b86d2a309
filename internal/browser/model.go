package browser

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/food3d/curator/internal/session"

	tea "github.com/charmbracelet/bubbletea"
)

const idleStatus = "Ready"

// Model is the root bubbletea model for the dataset browser. Every key
// press runs the matching session operation synchronously and reloads the
// frame under the cursor.
type Model struct {
	sess *session.Session

	// Current frame, nil when the class is empty or loading failed
	frame   *session.Frame
	loadErr string

	// UI state
	width  int
	height int

	// Errors
	errorMessage   string
	errorTransient bool

	// Status
	statusText string
	statusOK   bool
	statusSeq  int
	deleted    int
	snapshots  int
}

// New creates a model positioned at the session cursor
func New(sess *session.Session) Model {
	m := Model{
		sess:       sess,
		statusText: idleStatus,
	}
	m.reload()
	return m
}

// Init has nothing to start; the first frame is loaded by New.
func (m Model) Init() tea.Cmd {
	return nil
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

func clearStatusCmd(seq int) tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return ClearStatusMsg{Seq: seq}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil

	case ClearStatusMsg:
		if msg.Seq == m.statusSeq {
			m.statusText = idleStatus
			m.statusOK = false
		}
		return m, nil
	}

	return m, nil
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyQuitUpper, KeyCtrlC:
		slog.Info("Browse session ended", "deleted", m.deleted, "snapshots", m.snapshots)
		return m, tea.Quit

	case KeyRight, KeyL:
		if err := m.sess.NextImage(); err != nil {
			return m, m.showError(err)
		}
		m.reload()
		return m, nil

	case KeyLeft, KeyH:
		if err := m.sess.PreviousImage(); err != nil {
			return m, m.showError(err)
		}
		m.reload()
		return m, nil

	case KeyDown, KeyJ:
		m.sess.NextClass()
		m.reload()
		return m, nil

	case KeyUp, KeyK:
		m.sess.PreviousClass()
		m.reload()
		return m, nil

	case KeyDelete:
		pair, err := m.sess.DeleteCurrent()
		if err != nil {
			return m, m.showError(err)
		}
		m.deleted++
		status := fmt.Sprintf("Moved %s to trash", pair.ID())
		if m.sess.Exhausted() {
			status = "Every class is empty"
		}
		m.reload()
		return m, m.showStatus(status)

	case KeySnapshot:
		path, err := m.sess.Snapshot()
		if err != nil {
			return m, m.showError(err)
		}
		m.snapshots++
		return m, m.showStatus("Saved " + path)
	}

	return m, nil
}

// reload loads the frame under the cursor. Load failures are kept for
// display rather than ending the session.
func (m *Model) reload() {
	m.frame = nil
	m.loadErr = ""

	frame, err := m.sess.Current()
	if err != nil {
		if !errors.Is(err, session.ErrEmptyClass) {
			slog.Error("Failed to load record pair", "class", m.sess.ClassName(), "error", err)
		}
		m.loadErr = err.Error()
		return
	}
	m.frame = frame
}

// showStatus sets a success line and schedules its reset
func (m *Model) showStatus(text string) tea.Cmd {
	m.statusSeq++
	m.statusText = text
	m.statusOK = true
	return clearStatusCmd(m.statusSeq)
}

func (m *Model) showError(err error) tea.Cmd {
	slog.Warn("Browse operation failed", "class", m.sess.ClassName(), "error", err)
	m.errorMessage = err.Error()
	m.errorTransient = true
	return clearTransientErrorCmd()
}
