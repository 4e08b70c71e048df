package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).PaddingLeft(2)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).PaddingLeft(2)

	matchStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("228")). // yellow
			Foreground(lipgloss.Color("0"))    // black

	currentMatchStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("196")). // red
				Foreground(lipgloss.Color("15"))   // white
)

// backMsg returns from an embedded pager to the table
type backMsg struct{}

// pagerModel shows one detail view with incremental search.
// Matches are tracked per line.
type pagerModel struct {
	title    string
	content  string
	lines    []string
	viewport viewport.Model
	ready    bool

	// embedded pagers send backMsg instead of quitting
	embedded bool
	extraKey string

	searching bool
	input     textinput.Model
	query     string
	matches   []int
	current   int
}

func newPager(title, content string) *pagerModel {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.PromptStyle = helpStyle
	return &pagerModel{
		title:   title,
		content: content,
		lines:   strings.Split(content, "\n"),
		input:   ti,
	}
}

func (m *pagerModel) Init() tea.Cmd {
	return nil
}

// SetContent replaces the text and drops the current search
func (m *pagerModel) SetContent(title, content string) {
	m.title = title
	m.content = content
	m.lines = strings.Split(content, "\n")
	m.matches = nil
	m.query = ""
	if m.ready {
		m.viewport.SetContent(content)
		m.viewport.GotoTop()
	}
}

func (m *pagerModel) resize(width, height int) {
	h := max(height-3, 1)
	if !m.ready {
		m.viewport = viewport.New(width, h)
		m.viewport.SetContent(m.content)
		m.ready = true
		return
	}
	m.viewport.Width = width
	m.viewport.Height = h
}

func (m *pagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q", "esc":
			if msg.String() == "esc" && len(m.matches) > 0 {
				m.clearSearch()
				return m, nil
			}
			if m.embedded {
				return m, func() tea.Msg { return backMsg{} }
			}
			return m, tea.Quit
		case "g", "home":
			m.viewport.GotoTop()
			return m, nil
		case "G", "end":
			m.viewport.GotoBottom()
			return m, nil
		case "/":
			m.searching = true
			m.input.Reset()
			m.input.Focus()
			return m, textinput.Blink
		case "n":
			m.jump(1)
			return m, nil
		case "N":
			m.jump(-1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *pagerModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		m.searching = false
		m.input.Blur()
		m.search(m.input.Value())
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// search finds the lines containing q. Lowercase queries match any case.
func (m *pagerModel) search(q string) {
	m.query = q
	m.matches = nil
	m.current = 0
	if q == "" {
		m.viewport.SetContent(m.content)
		return
	}

	fold := strings.ToLower(q) == q
	for i, line := range m.lines {
		if fold {
			line = strings.ToLower(line)
		}
		if strings.Contains(line, q) {
			m.matches = append(m.matches, i)
		}
	}

	// start from the first match at or below the top of the view
	for i, line := range m.matches {
		if line >= m.viewport.YOffset {
			m.current = i
			break
		}
	}
	m.show()
}

func (m *pagerModel) jump(delta int) {
	if len(m.matches) == 0 {
		return
	}
	m.current = (m.current + delta + len(m.matches)) % len(m.matches)
	m.show()
}

func (m *pagerModel) show() {
	if len(m.matches) == 0 {
		m.viewport.SetContent(m.content)
		return
	}

	lines := make([]string, len(m.lines))
	copy(lines, m.lines)
	for i, n := range m.matches {
		style := matchStyle
		if i == m.current {
			style = currentMatchStyle
		}
		lines[n] = highlight(lines[n], m.query, style.Render)
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))

	target := m.matches[m.current]
	if target < m.viewport.YOffset || target >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(max(target-m.viewport.Height/2, 0))
	}
}

func (m *pagerModel) clearSearch() {
	m.matches = nil
	m.query = ""
	m.viewport.SetContent(m.content)
}

// highlight wraps every occurrence of q in line with mark
func highlight(line, q string, mark func(...string) string) string {
	haystack := line
	if strings.ToLower(q) == q {
		haystack = strings.ToLower(line)
	}
	if len(haystack) != len(line) {
		haystack = line
	}

	var b strings.Builder
	last := 0
	for {
		i := strings.Index(haystack[last:], q)
		if i < 0 {
			break
		}
		start := last + i
		end := start + len(q)
		b.WriteString(line[last:start])
		b.WriteString(mark(line[start:end]))
		last = end
	}
	b.WriteString(line[last:])
	return b.String()
}

func (m *pagerModel) View() string {
	if !m.ready {
		return "\nInitializing..."
	}

	var footer string
	switch {
	case m.searching:
		footer = m.input.View()
	default:
		quit := "q quit"
		if m.embedded {
			quit = "q back"
		}
		help := "↑/↓ scroll • g/G top/bottom • / search"
		if len(m.matches) > 0 {
			help += fmt.Sprintf(" (%d/%d) • n/N next/prev", m.current+1, len(m.matches))
		} else if m.query != "" {
			help += " (no match)"
		}
		if m.extraKey != "" {
			help += " • " + m.extraKey
		}
		footer = helpStyle.Render(help + " • " + quit)
	}
	return titleStyle.Render(m.title) + "\n" + m.viewport.View() + "\n" + footer
}

// RunPager shows content full screen until the user quits
func RunPager(title, content string) error {
	p := tea.NewProgram(newPager(title, content), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
