// Package watch renders a live view of a session's panes: which windows
// they belong to, what runs in them, and whether keystroke broadcast is on.
package watch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/timvw/fanout/internal/model"
	"github.com/timvw/fanout/internal/mux"
)

// Styles
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	syncStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// messages
type panesMsg struct {
	panes []model.Pane
	sync  map[int]bool
	err   error
}

type tickMsg struct{}

// Watch runs the interactive pane viewer.
type Watch struct {
	Tmux            *mux.Tmux
	Session         string
	RefreshInterval time.Duration // 0 disables auto-refresh
}

// model implements tea.Model
type watchModel struct {
	tmux    *mux.Tmux
	ctx     context.Context
	session string
	refresh time.Duration

	panes []model.Pane
	sync  map[int]bool

	cursor  int
	width   int
	height  int
	loading bool
	message string
	polls   int

	spinner spinner.Model
}

func (w *Watch) Run(ctx context.Context) error {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &watchModel{
		tmux:    w.Tmux,
		ctx:     ctx,
		session: w.Session,
		refresh: w.RefreshInterval,
		spinner: sp,
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m *watchModel) Init() tea.Cmd {
	m.loading = true
	return tea.Batch(m.spinner.Tick, m.poll())
}

// scheduleTick returns a tea.Cmd that sends a tickMsg after the refresh
// interval, or nil when auto-refresh is disabled.
func (m *watchModel) scheduleTick() tea.Cmd {
	if m.refresh <= 0 {
		return nil
	}
	return tea.Tick(m.refresh, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *watchModel) poll() tea.Cmd {
	tmux := m.tmux
	ctx := m.ctx
	session := m.session
	return func() tea.Msg {
		panes, err := tmux.ListPanes(ctx, session)
		if err != nil {
			return panesMsg{err: err}
		}
		sync, err := tmux.SynchronizedWindows(ctx, session)
		if err != nil {
			return panesMsg{err: err}
		}
		return panesMsg{panes: sortPanes(panes), sync: sync}
	}
}

// sortPanes orders panes by window then pane index for a stable display.
func sortPanes(panes []model.Pane) []model.Pane {
	out := append([]model.Pane(nil), panes...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Window == out[j].Window {
			return out[i].Index < out[j].Index
		}
		return out[i].Window < out[j].Window
	})
	return out
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case panesMsg:
		m.loading = false
		if msg.err != nil {
			m.message = fmt.Sprintf("poll error: %v", msg.err)
		} else {
			m.panes = msg.panes
			m.sync = msg.sync
			m.polls++
			if m.cursor >= len(m.panes) {
				m.cursor = 0
			}
		}
		if cmd := m.scheduleTick(); cmd != nil {
			return m, cmd
		}
		return m, nil

	case tickMsg:
		if m.loading {
			return m, m.scheduleTick()
		}
		m.loading = true
		return m, m.poll()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *watchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.panes)-1 {
			m.cursor++
		}

	case "enter":
		if m.cursor >= 0 && m.cursor < len(m.panes) {
			target := m.panes[m.cursor].Target
			if err := m.tmux.SwitchClient(m.ctx, target); err != nil {
				m.message = fmt.Sprintf("jump failed: %v", err)
			} else {
				m.message = "jumped to " + target
			}
		}
		return m, nil

	case "s":
		// Toggle keystroke broadcast on the selected pane's window.
		if m.cursor >= 0 && m.cursor < len(m.panes) {
			p := m.panes[m.cursor]
			window := fmt.Sprintf("%s:%d", p.Session, p.Window)
			on := !m.sync[p.Window]
			if err := m.tmux.SetSynchronizePanes(m.ctx, window, on); err != nil {
				m.message = fmt.Sprintf("toggle failed: %v", err)
				return m, nil
			}
			m.loading = true
			return m, m.poll()
		}
		return m, nil

	case "r":
		m.loading = true
		m.message = ""
		return m, m.poll()
	}

	return m, nil
}

func (m *watchModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("fanout watch"))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render(m.session))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("Enter=jump  s=toggle sync  r=refresh  q=quit"))
	if m.loading {
		b.WriteString("  ")
		b.WriteString(m.spinner.View())
	}
	b.WriteString("\n\n")

	if len(m.panes) == 0 {
		if m.loading {
			b.WriteString("  Listing panes...\n")
		} else {
			b.WriteString("  No panes found.\n")
		}
		return b.String()
	}

	lastWindow := -1
	for i, p := range m.panes {
		if p.Window != lastWindow {
			lastWindow = p.Window
			header := fmt.Sprintf("  window %d", p.Window)
			if m.sync[p.Window] {
				header += "  " + syncStyle.Render("[sync]")
			}
			b.WriteString(dimStyle.Render(header))
			b.WriteString("\n")
		}
		b.WriteString(m.renderPaneRow(p, i == m.cursor))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	summary := fmt.Sprintf("  %d panes | %d synced windows | poll #%d",
		len(m.panes), countSynced(m.sync), m.polls)
	b.WriteString(dimStyle.Render(summary))
	b.WriteString("\n")

	if m.message != "" {
		if strings.Contains(m.message, "error") || strings.Contains(m.message, "failed") {
			b.WriteString(errorStyle.Render("  " + m.message))
		} else {
			b.WriteString(dimStyle.Render("  " + m.message))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (m *watchModel) renderPaneRow(p model.Pane, selected bool) string {
	active := " "
	if p.Active {
		active = "*"
	}
	row := fmt.Sprintf("    %s %-12s %-20s %dx%d",
		active, fmt.Sprintf(".%d", p.Index), truncate(p.Command, 20), p.Width, p.Height)
	if selected {
		return selectedStyle.Render("  →" + row[3:])
	}
	return row
}

func countSynced(sync map[int]bool) int {
	n := 0
	for _, on := range sync {
		if on {
			n++
		}
	}
	return n
}

// truncate cuts a string to at most maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
