package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/signal-archive/internal/storage"
)

const maxLeaders = 100

// LeadersKeyMap defines the key bindings for the leaderboard.
type LeadersKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Sessions key.Binding
	Quit     key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k LeadersKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Sessions, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k LeadersKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Sessions, k.Quit}}
}

// DefaultLeadersKeyMap returns default key bindings.
func DefaultLeadersKeyMap() LeadersKeyMap {
	return LeadersKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		Sessions: key.NewBinding(
			key.WithKeys("tab", "enter"),
			key.WithHelp("tab", "slots/sessions"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// LeadersModel shows the slot leaderboard and the recent sessions of the
// highlighted slot.
type LeadersModel struct {
	store    *storage.Store
	leaders  []storage.SlotInfo
	sessions []storage.SessionRecord
	table    table.Model
	help     help.Model
	keys     LeadersKeyMap
	slot     string // Slot whose sessions are shown; empty shows leaders
	width    int
	height   int
	err      error
	quitting bool
}

// NewLeadersModel creates a leaderboard and loads the leaders.
func NewLeadersModel(store *storage.Store, width, height int) LeadersModel {
	m := LeadersModel{
		store:  store,
		keys:   DefaultLeadersKeyMap(),
		help:   help.New(),
		width:  width,
		height: height,
	}
	m.loadLeaders()
	return m
}

func (m *LeadersModel) createTable(columns []table.Column) table.Model {
	height := m.height - 8 // Leave room for header, help, and margins
	if height < 5 {
		height = 5
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height),
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

func (m *LeadersModel) loadLeaders() {
	m.slot = ""
	m.table = m.createTable([]table.Column{
		{Title: "Rank", Width: 6},
		{Title: "Slot", Width: 16},
		{Title: "Matches", Width: 9},
		{Title: "Documents", Width: 10},
		{Title: "Saved", Width: 14},
	})

	m.leaders, m.err = nil, nil
	if m.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		m.leaders, m.err = m.store.Leaders(ctx, maxLeaders)
	}

	rows := make([]table.Row, len(m.leaders))
	for i, l := range m.leaders {
		rows[i] = table.Row{
			fmt.Sprintf("#%d", i+1),
			l.Slot,
			fmt.Sprintf("%d", l.TotalMatches),
			fmt.Sprintf("%d", l.TotalDocuments),
			l.SavedAt.Local().Format("Jan 02 15:04"),
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

func (m *LeadersModel) loadSessions(slot string) {
	m.slot = slot
	m.table = m.createTable([]table.Column{
		{Title: "Date", Width: 14},
		{Title: "Matches", Width: 9},
		{Title: "Documents", Width: 10},
		{Title: "Duration", Width: 10},
	})

	m.sessions, m.err = nil, nil
	if m.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		m.sessions, m.err = m.store.RecentSessions(ctx, slot, maxLeaders)
	}

	rows := make([]table.Row, len(m.sessions))
	for i, s := range m.sessions {
		rows[i] = table.Row{
			s.CreatedAt.Local().Format("Jan 02 15:04"),
			fmt.Sprintf("%d", s.Matches),
			fmt.Sprintf("%d", s.Documents),
			(time.Duration(s.Duration) * time.Second).String(),
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// Init initializes the leaderboard model.
func (m LeadersModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the leaderboard.
func (m LeadersModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			if m.slot != "" && msg.String() == "esc" {
				m.loadLeaders()
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Sessions):
			if m.slot != "" {
				m.loadLeaders()
				return m, nil
			}
			if i := m.table.Cursor(); i >= 0 && i < len(m.leaders) {
				m.loadSessions(m.leaders[i].Slot)
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if m.slot != "" {
			m.loadSessions(m.slot)
		} else {
			m.loadLeaders()
		}
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the leaderboard.
func (m LeadersModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		MarginBottom(1)

	title := "SIGNAL ARCHIVE - LEADERS"
	if m.slot != "" {
		title = fmt.Sprintf("SESSIONS - %s", m.slot)
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	b.WriteString(tableStyle.Render(m.tableContent()))

	b.WriteString("\n")
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m LeadersModel) tableContent() string {
	emptyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Italic(true).
		Padding(2, 4)

	switch {
	case m.err != nil:
		return emptyStyle.Render("Could not read saves: " + m.err.Error())
	case m.slot == "" && len(m.leaders) == 0:
		return emptyStyle.Render("No saves recorded yet.\nPlay to open the first archive!")
	case m.slot != "" && len(m.sessions) == 0:
		return emptyStyle.Render("No sessions recorded for this slot.")
	}
	return m.table.View()
}

// RunLeaders runs the interactive leaderboard.
func RunLeaders(store *storage.Store, width, height int) error {
	p := tea.NewProgram(
		NewLeadersModel(store, width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
