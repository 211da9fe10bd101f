package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcin-skalski/actions-status/internal/repo"
)

// Backend is what the board reads from and acts on.
type Backend interface {
	GetSnapshot() Snapshot
	Refresh()
	Open(ctx context.Context, fullName string, action repo.Action) (string, error)
	Rerun(ctx context.Context, fullName string) error
}

type viewMode int

const (
	viewModeList viewMode = iota
	viewModeDetail
)

// actionTimeout bounds a browser launch or rerun request started from a key.
const actionTimeout = 30 * time.Second

type Model struct {
	backend         Backend
	snapshot        Snapshot
	refreshInterval time.Duration
	mode            viewMode
	selected        int // index in snapshot.Repos, -1 when there are none
	message         string
	width           int
}

type tickMsg time.Time

type actionDoneMsg struct {
	text string
	err  error
}

func NewModel(backend Backend, refreshInterval time.Duration) Model {
	m := Model{
		backend:         backend,
		snapshot:        backend.GetSnapshot(),
		refreshInterval: refreshInterval,
		mode:            viewModeList,
		selected:        -1,
	}
	m.clampSelection()
	return m
}

func (m Model) Init() tea.Cmd {
	return tickCmd(m.refreshInterval)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

		switch m.mode {
		case viewModeList:
			return m.updateList(msg)
		case viewModeDetail:
			switch msg.String() {
			case "esc", "backspace", "h":
				m.mode = viewModeList
				return m, nil
			}
			return m.updateActions(msg)
		}

	case actionDoneMsg:
		if msg.err != nil {
			m.message = "⚠ " + msg.err.Error()
		} else {
			m.message = msg.text
		}
		return m, nil

	case tickMsg:
		m.snapshot = m.backend.GetSnapshot()
		m.clampSelection()
		return m, tickCmd(m.refreshInterval)
	}

	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil
	case "down", "j":
		if m.selected < len(m.snapshot.Repos)-1 {
			m.selected++
		}
		return m, nil
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		// Quick select by number
		idx := int(msg.String()[0] - '1')
		if idx < len(m.snapshot.Repos) {
			m.selected = idx
		}
		return m, nil
	case " ", "l":
		if m.current() != nil {
			m.mode = viewModeDetail
		}
		return m, nil
	}
	return m.updateActions(msg)
}

// updateActions handles the keys shared by both views.
func (m Model) updateActions(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		m.backend.Refresh()
		m.message = "refreshing..."
		return m, nil
	}

	cur := m.current()
	if cur == nil {
		return m, nil
	}

	switch msg.String() {
	case "enter":
		return m, m.openCmd(cur.FullName, repo.ActionOpenRun)
	case "a":
		return m, m.openCmd(cur.FullName, repo.ActionOpenActor)
	case "c":
		return m, m.openCmd(cur.FullName, repo.ActionOpenCommit)
	case "o":
		return m, m.openCmd(cur.FullName, repo.ActionOpenRepo)
	case "R":
		if !cur.Rerunnable {
			m.message = cur.FullName + ": nothing to re-run"
			return m, nil
		}
		m.message = "re-running failed jobs of " + cur.FullName + "..."
		return m, m.rerunCmd(cur.FullName)
	}
	return m, nil
}

func (m Model) openCmd(fullName string, action repo.Action) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		target, err := backend.Open(ctx, fullName, action)
		return actionDoneMsg{text: "opened " + target, err: err}
	}
}

func (m Model) rerunCmd(fullName string) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		err := backend.Rerun(ctx, fullName)
		return actionDoneMsg{text: "re-run requested for " + fullName, err: err}
	}
}

func (m *Model) clampSelection() {
	n := len(m.snapshot.Repos)
	switch {
	case n == 0:
		m.selected = -1
		m.mode = viewModeList
	case m.selected < 0:
		m.selected = 0
	case m.selected >= n:
		m.selected = n - 1
	}
}

func (m Model) current() *RepoState {
	if m.selected < 0 || m.selected >= len(m.snapshot.Repos) {
		return nil
	}
	return &m.snapshot.Repos[m.selected]
}

func (m Model) View() string {
	if m.mode == viewModeDetail {
		if cur := m.current(); cur != nil {
			return renderDetailView(m.snapshot, *cur, m.message)
		}
	}
	return renderListView(m.snapshot, m.selected, m.message, m.width)
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
