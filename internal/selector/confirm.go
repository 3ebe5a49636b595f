package selector

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aykhuss/inspire/internal/bibsync"
)

// ConfirmModel asks a yes/no question. Anything but y declines.
type ConfirmModel struct {
	prompt   string
	styles   *Styles
	answered bool
	yes      bool
}

// NewConfirm creates a yes/no prompt.
func NewConfirm(prompt string, s *Styles) *ConfirmModel {
	if s == nil {
		s = DefaultStyles()
	}
	return &ConfirmModel{prompt: prompt, styles: s}
}

// Init implements tea.Model.
func (m *ConfirmModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "y", "Y":
		m.yes = true
	case "n", "N", "enter", "esc", "q", "ctrl+c":
	default:
		return m, nil
	}
	m.answered = true
	return m, tea.Quit
}

// View implements tea.Model.
func (m *ConfirmModel) View() string {
	if m.answered {
		return ""
	}
	return m.styles.Prompt.Render(m.prompt) + " [y/N] "
}

// Yes reports whether the user agreed.
func (m *ConfirmModel) Yes() bool {
	return m.answered && m.yes
}

// Confirm returns a bibsync.ConfirmFunc running the prompt on t.
// Errors running the program decline.
func Confirm(t IO) bibsync.ConfirmFunc {
	return func(prompt string) bool {
		final, err := tea.NewProgram(NewConfirm(prompt, nil), t.options()...).Run()
		if err != nil {
			if t.Out != nil {
				fmt.Fprintf(t.Out, "prompt failed: %v\n", err)
			}
			return false
		}
		return final.(*ConfirmModel).Yes()
	}
}
