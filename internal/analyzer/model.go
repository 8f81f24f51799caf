package analyzer

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// ─── Keybindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	Back  key.Binding
	Quit  key.Binding
}

var keys = keyMap{
	Up:    key.NewBinding(key.WithKeys("up", "k")),
	Down:  key.NewBinding(key.WithKeys("down", "j")),
	Enter: key.NewBinding(key.WithKeys("right", "l", "enter")),
	Back:  key.NewBinding(key.WithKeys("left", "h")),
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c")),
}

// ─── Model ───────────────────────────────────────────────────────────────────

// BrowseModel is the bubbletea Model for the application analysis browser.
// It has two levels: the ranked application list, and a per-application
// category breakdown reached with the right arrow.
type BrowseModel struct {
	batch    BatchReport
	cursor   int // selected row in the app list
	offset   int // viewport scroll offset
	width    int
	height   int
	selected *Report // non-nil when showing one app's categories
	quitting bool
}

// NewBrowseModel creates a BrowseModel over the given batch result.
func NewBrowseModel(batch BatchReport) BrowseModel {
	return BrowseModel{
		batch:  batch,
		width:  80,
		height: 24,
	}
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case msg.String() == "esc":
			// Esc backs out of the detail view, then quits.
			if m.selected != nil {
				m.selected = nil
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Up):
			if m.selected == nil && m.cursor > 0 {
				m.cursor--
				m.ensureVisible()
			}

		case key.Matches(msg, keys.Down):
			if m.selected == nil && m.cursor < len(m.batch.Apps)-1 {
				m.cursor++
				m.ensureVisible()
			}

		case key.Matches(msg, keys.Enter):
			if m.selected == nil && m.cursor >= 0 && m.cursor < len(m.batch.Apps) {
				m.selected = &m.batch.Apps[m.cursor]
			}

		case key.Matches(msg, keys.Back):
			m.selected = nil
		}

		return m, nil
	}

	return m, nil
}

// View delegates to view.go renderView.
func (m BrowseModel) View() string {
	return m.renderView()
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (m *BrowseModel) ensureVisible() {
	vh := m.viewportHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+vh {
		m.offset = m.cursor - vh + 1
	}
}

func (m *BrowseModel) viewportHeight() int {
	h := m.height - 8 // header (4) + footer (3) + padding
	if h < 1 {
		h = 1
	}
	return h
}
