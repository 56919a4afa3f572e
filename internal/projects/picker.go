package projects

import (
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/novalys/ve-runner/internal/terminal"
)

// ErrNotInteractive is returned by RunPicker when stdin is not a terminal.
var ErrNotInteractive = errors.New("project picker requires an interactive terminal")

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15"))

	pickerItemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	pickerCursorStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Background(lipgloss.Color("236"))

	pickerMarkCurrent = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("*")

	pickerHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

// PickerModel is the bubbletea model for choosing one project.
type PickerModel struct {
	projects  []string
	current   string
	cursor    int
	confirmed bool
	quitted   bool
}

// NewPicker creates a picker over the non-blank entries of projects, with
// the cursor on current when it is listed.
func NewPicker(projects []string, current string) PickerModel {
	items := Selectable(projects)
	cursor := 0
	for i, p := range items {
		if p == current {
			cursor = i
			break
		}
	}
	return PickerModel{
		projects: items,
		current:  current,
		cursor:   cursor,
	}
}

// Init implements tea.Model.
func (m PickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.projects)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		if len(m.projects) > 0 {
			m.cursor = len(m.projects) - 1
		}
	case "enter":
		if len(m.projects) == 0 {
			m.quitted = true
			return m, tea.Quit
		}
		m.confirmed = true
		return m, tea.Quit
	case "q", "esc", "ctrl+c":
		m.quitted = true
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m PickerModel) View() string {
	if len(m.projects) == 0 {
		return "No projects found.\n"
	}

	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render("Select a project"))
	b.WriteString("\n\n")

	for i, p := range m.projects {
		mark := " "
		if p == m.current {
			mark = pickerMarkCurrent
		}
		line := fmt.Sprintf("%s %s", mark, p)
		if i == m.cursor {
			b.WriteString(pickerCursorStyle.Render(line))
		} else {
			b.WriteString(pickerItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(pickerHelpStyle.Render("↑/↓ navigate • enter select • q quit"))
	b.WriteString("\n")
	return b.String()
}

// Selected returns the project under the cursor, or "" if there is none.
func (m PickerModel) Selected() string {
	if m.cursor < 0 || m.cursor >= len(m.projects) {
		return ""
	}
	return m.projects[m.cursor]
}

// Confirmed reports whether the user chose a project.
func (m PickerModel) Confirmed() bool {
	return m.confirmed
}

// Quitted reports whether the user left without choosing.
func (m PickerModel) Quitted() bool {
	return m.quitted
}

// RunPicker lets the user choose one of projects interactively.
// Returns "" with a nil error if the user quit or there was nothing to pick.
func RunPicker(projects []string, current string) (string, error) {
	if !terminal.IsStdinTTY() {
		return "", ErrNotInteractive
	}
	if len(Selectable(projects)) == 0 {
		return "", nil
	}

	p := tea.NewProgram(NewPicker(projects, current), tea.WithOutput(os.Stderr))
	finalModel, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("picker UI error: %w", err)
	}

	m, ok := finalModel.(PickerModel)
	if !ok {
		return "", fmt.Errorf("unexpected model type")
	}
	if !m.Confirmed() {
		return "", nil
	}
	return m.Selected(), nil
}
