// Package selector provides the interactive record picker and the
// yes/no prompt used by the search command.
package selector

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aykhuss/inspire/internal/bibsync"
	"github.com/aykhuss/inspire/internal/display"
	"github.com/aykhuss/inspire/internal/inspire"
)

// ErrCancelled is returned when the user quits without confirming.
var ErrCancelled = errors.New("selection cancelled")

// Model is a paginated multi-select list.
type Model struct {
	labels    []string
	chosen    map[int]bool
	cursor    int
	pager     paginator.Model
	help      help.Model
	keys      KeyMap
	styles    *Styles
	title     string
	done      bool
	cancelled bool
}

// New creates a selection list over labels with pageSize entries per page.
func New(title string, labels []string, pageSize int, s *Styles) *Model {
	if s == nil {
		s = DefaultStyles()
	}
	if pageSize < 1 {
		pageSize = 1
	}

	p := paginator.New()
	p.Type = paginator.Arabic
	p.PerPage = pageSize
	p.SetTotalPages(len(labels))

	return &Model{
		labels: labels,
		chosen: make(map[int]bool),
		pager:  p,
		help:   help.New(),
		keys:   DefaultKeyMap(),
		styles: s,
		title:  title,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.cancelled = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Confirm):
		if len(m.chosen) == 0 && len(m.labels) > 0 {
			m.chosen[m.cursor] = true
		}
		m.done = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Up):
		m.MoveUp()
	case key.Matches(keyMsg, m.keys.Down):
		m.MoveDown()
	case key.Matches(keyMsg, m.keys.NextPage):
		m.pager.NextPage()
		m.cursor = m.pager.Page * m.pager.PerPage
	case key.Matches(keyMsg, m.keys.PrevPage):
		m.pager.PrevPage()
		m.cursor = m.pager.Page * m.pager.PerPage
	case key.Matches(keyMsg, m.keys.Toggle):
		m.Toggle(m.cursor)
	case key.Matches(keyMsg, m.keys.All):
		m.ToggleAll()
	}
	return m, nil
}

// MoveUp moves the cursor up, crossing to the previous page if needed.
func (m *Model) MoveUp() {
	if m.cursor > 0 {
		m.cursor--
	}
	m.pager.Page = m.cursor / m.pager.PerPage
}

// MoveDown moves the cursor down, crossing to the next page if needed.
func (m *Model) MoveDown() {
	if m.cursor < len(m.labels)-1 {
		m.cursor++
	}
	m.pager.Page = m.cursor / m.pager.PerPage
}

// Toggle flips the selection of entry i.
func (m *Model) Toggle(i int) {
	if i < 0 || i >= len(m.labels) {
		return
	}
	if m.chosen[i] {
		delete(m.chosen, i)
	} else {
		m.chosen[i] = true
	}
}

// ToggleAll selects every entry, or clears the selection if all are selected.
func (m *Model) ToggleAll() {
	if len(m.chosen) == len(m.labels) {
		m.chosen = make(map[int]bool)
		return
	}
	for i := range m.labels {
		m.chosen[i] = true
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.done || m.cancelled {
		return ""
	}

	var b strings.Builder
	if m.title != "" {
		b.WriteString(m.styles.Title.Render(m.title))
		b.WriteString("\n\n")
	}

	start, end := m.pager.GetSliceBounds(len(m.labels))
	for i := start; i < end; i++ {
		b.WriteString(m.renderItem(i))
		b.WriteString("\n")
	}

	if m.pager.TotalPages > 1 {
		b.WriteString("\n  ")
		b.WriteString(m.styles.Muted.Render(m.pager.View()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) renderItem(i int) string {
	indicator := "  "
	if i == m.cursor {
		indicator = "> "
	}
	box := "[ ] "
	if m.chosen[i] {
		box = "[x] "
	}
	line := fmt.Sprintf("%s%s%2d: %s", indicator, box, i, m.labels[i])

	switch {
	case i == m.cursor:
		return m.styles.Cursor.Render(line)
	case m.chosen[i]:
		return m.styles.Chosen.Render(line)
	}
	return m.styles.Normal.Render(line)
}

// Cursor returns the index under the cursor.
func (m *Model) Cursor() int {
	return m.cursor
}

// Page returns the current page (zero-based).
func (m *Model) Page() int {
	return m.pager.Page
}

// Selected returns the chosen indices in ascending order.
func (m *Model) Selected() []int {
	out := make([]int, 0, len(m.chosen))
	for i := range m.chosen {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Done reports whether the user confirmed.
func (m *Model) Done() bool {
	return m.done
}

// Cancelled reports whether the user quit.
func (m *Model) Cancelled() bool {
	return m.cancelled
}

// IO holds the terminal streams the programs run on.
type IO struct {
	In  io.Reader
	Out io.Writer
}

func (t IO) options() []tea.ProgramOption {
	var opts []tea.ProgramOption
	if t.In != nil {
		opts = append(opts, tea.WithInput(t.In))
	}
	if t.Out != nil {
		opts = append(opts, tea.WithOutput(t.Out))
	}
	return opts
}

// Run shows the list and returns the chosen indices.
func Run(t IO, title string, labels []string, pageSize int) ([]int, error) {
	m := New(title, labels, pageSize, nil)
	final, err := tea.NewProgram(m, t.options()...).Run()
	if err != nil {
		return nil, fmt.Errorf("running selector: %w", err)
	}
	fm := final.(*Model)
	if fm.Cancelled() {
		return nil, ErrCancelled
	}
	return fm.Selected(), nil
}

// Picker returns a bibsync.Picker that labels records and runs the list.
func Picker(t IO, maxAuthors, pageSize int) bibsync.Picker {
	return func(records []inspire.Record) ([]int, error) {
		labels := make([]string, len(records))
		for i, rec := range records {
			labels[i] = display.Label(rec, maxAuthors)
		}
		return Run(t, fmt.Sprintf("Select records (%d)", len(records)), labels, pageSize)
	}
}
