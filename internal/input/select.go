package input

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("white")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// ErrCancelled is returned by Select when the user quits without choosing.
var ErrCancelled = fmt.Errorf("selection cancelled")

// Select shows a keyboard-navigable menu and returns the chosen index.
// Returns ErrCancelled if the user presses q, esc, or ctrl+c.
//
// Example:
//
//	idx, err := input.Select("Which app should host auth?", []string{"api", "admin"})
func Select(message string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, fmt.Errorf("no options to select from")
	}

	model := newSelectModel(message, options)
	p := tea.NewProgram(model)
	finalModel, err := p.Run()
	if err != nil {
		return 0, fmt.Errorf("failed to show menu: %w", err)
	}

	result := finalModel.(selectModel)
	if result.selected < 0 {
		return 0, ErrCancelled
	}

	return result.selected, nil
}

// selectModel is the BubbleTea model for the selection menu
type selectModel struct {
	message  string
	options  []string
	cursor   int
	selected int
}

func newSelectModel(message string, options []string) selectModel {
	return selectModel{
		message:  message,
		options:  options,
		selected: -1,
	}
}

// Init initializes the menu model
func (m selectModel) Init() tea.Cmd {
	return nil
}

// Update handles keyboard input
func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}

		case "enter":
			m.selected = m.cursor
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the menu
func (m selectModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.message) + "\n")
	b.WriteString(mutedStyle.Render("    [↑/↓] Navigate    [Enter] Select    [q] Cancel") + "\n\n")

	for i, option := range m.options {
		cursor := "  "
		if m.cursor == i {
			cursor = "> "
			b.WriteString("    " + selectedStyle.Render(cursor+option) + "\n")
		} else {
			b.WriteString("    " + cursor + option + "\n")
		}
	}

	return b.String()
}
