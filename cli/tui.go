package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ka2n/fhirval/api"
	"github.com/ka2n/fhirval/api/batch"
	"github.com/ka2n/fhirval/api/render"
	"github.com/ka2n/fhirval/api/result"
	"github.com/ka2n/fhirval/log"
	"github.com/morikuni/failure/v2"
	"github.com/pkg/browser"
)

type (
	rowMsg  result.Row
	doneMsg batch.Summary

	detailMsg struct {
		row    result.Row
		filter render.Filter
		text   string
		err    error
	}

	openedMsg struct{ err error }
)

var (
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).PaddingLeft(2)
)

var columns = []table.Column{
	{Title: "#", Width: 4},
	{Title: "File", Width: 24},
	{Title: "ID", Width: 16},
	{Title: "Name", Width: 20},
	{Title: "Type", Width: 18},
	{Title: "Errors", Width: 6},
	{Title: "Warnings", Width: 8},
	{Title: "Info", Width: 6},
}

// tuiModel is the live result table. Rows arrive as rowMsg while the batch
// runs; enter opens the rendered outcome of the selected row.
type tuiModel struct {
	ctx    context.Context
	svc    *api.Service
	sink   *result.Sink
	viewer string

	table   table.Model
	spinner spinner.Model
	rows    []result.Row
	files   int
	done    bool
	summary batch.Summary

	width, height int

	// detail view
	pager  *pagerModel
	detail bool
	row    result.Row
	filter render.Filter
	status string
}

func newTUI(ctx context.Context, svc *api.Service, sink *result.Sink, viewer string, files int) *tuiModel {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))
	t.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	p := newPager("", "")
	p.embedded = true
	p.extraKey = "e/w/i/a filter • s source • o open"

	return &tuiModel{
		ctx:     ctx,
		svc:     svc,
		sink:    sink,
		viewer:  viewer,
		table:   t,
		spinner: sp,
		files:   files,
		pager:   p,
	}
}

func (m *tuiModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetHeight(max(msg.Height-4, 3))
		m.pager.resize(msg.Width, msg.Height)
		return m, nil

	case rowMsg:
		m.rows = append(m.rows, result.Row(msg))
		m.table.SetRows(append(m.table.Rows(), cells(result.Row(msg))))
		return m, nil

	case doneMsg:
		m.done = true
		m.summary = batch.Summary(msg)
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case detailMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(errorMessage(msg.err))
			return m, nil
		}
		m.status = ""
		m.row, m.filter, m.detail = msg.row, msg.filter, true
		m.pager.SetContent(detailTitle(msg.row, msg.filter), msg.text)
		return m, nil

	case openedMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(errorMessage(msg.err))
		}
		return m, nil

	case backMsg:
		m.detail = false
		return m, nil

	case tea.KeyMsg:
		if m.detail {
			return m.updateDetail(msg)
		}
		return m.updateTable(msg)
	}
	return m, nil
}

func (m *tuiModel) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if row, ok := m.selected(); ok {
			return m, m.loadDetail(row, render.FilterAll)
		}
		return m, nil
	case "s":
		if row, ok := m.selected(); ok {
			m.showSource(row)
		}
		return m, nil
	case "o":
		if row, ok := m.selected(); ok {
			return m, openViewerCmd(m.viewer, row.ValidateURL)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *tuiModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.pager.searching {
		switch msg.String() {
		case "e":
			return m, m.loadDetail(m.row, render.FilterError)
		case "w":
			return m, m.loadDetail(m.row, render.FilterWarning)
		case "i":
			return m, m.loadDetail(m.row, render.FilterInfo)
		case "a":
			return m, m.loadDetail(m.row, render.FilterAll)
		case "s":
			m.showSource(m.row)
			return m, nil
		case "o":
			return m, openViewerCmd(m.viewer, m.row.ValidateURL)
		}
	}
	_, cmd := m.pager.Update(msg)
	return m, cmd
}

func (m *tuiModel) selected() (result.Row, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.rows) {
		return result.Row{}, false
	}
	return m.rows[i], true
}

func (m *tuiModel) showSource(row result.Row) {
	m.row, m.detail = row, true
	m.pager.SetContent("Source: "+row.FileName, row.SourceText)
}

// loadDetail validates the row again in the background
func (m *tuiModel) loadDetail(row result.Row, f render.Filter) tea.Cmd {
	m.status = "Loading " + row.FileName + "..."
	ctx, svc, sink, width := m.ctx, m.svc, m.sink, m.width
	return func() tea.Msg {
		text, _, err := svc.Detail(ctx, sink, row, f, max(width-4, 40), false)
		return detailMsg{row: row, filter: f, text: text, err: err}
	}
}

func (m *tuiModel) View() string {
	if m.detail {
		v := m.pager.View()
		if m.status != "" {
			v += "\n" + statusStyle.Render(m.status)
		}
		return v
	}

	var progress string
	if m.done {
		progress = fmt.Sprintf("%d of %d files validated", len(m.rows), m.files)
		if skipped := m.summary.Failed(); skipped > 0 {
			progress += fmt.Sprintf(", %d skipped", skipped)
		}
	} else {
		progress = fmt.Sprintf("%s validating... %d of %d", m.spinner.View(), len(m.rows), m.files)
	}
	if len(m.rows) == 0 && m.done {
		progress = "No results"
	}

	help := "↑/↓ select • enter detail • s source • o open in viewer • q quit"
	out := m.table.View() + "\n" + statusStyle.Render(progress) + "\n" + helpStyle.Render(help)
	if m.status != "" {
		out += "\n" + statusStyle.Render(m.status)
	}
	return out
}

func cells(r result.Row) table.Row {
	return table.Row{
		strconv.Itoa(r.Index + 1),
		r.FileName,
		r.ResourceID,
		r.ResourceName,
		r.ResourceType,
		strconv.Itoa(r.Tally.Errors),
		strconv.Itoa(r.Tally.Warnings),
		strconv.Itoa(r.Tally.Info),
	}
}

func detailTitle(r result.Row, f render.Filter) string {
	title := fmt.Sprintf("%s  %s/%s", r.FileName, r.ResourceType, r.ResourceID)
	if f != render.FilterAll {
		title += "  [" + string(f) + "]"
	}
	return title
}

func errorMessage(err error) string {
	if msg := failure.MessageOf(err); msg != "" {
		return msg.String()
	}
	return err.Error()
}

// viewerURL links the visualiser to a stored validation request
func viewerURL(viewer, validateURL string) (string, error) {
	u, err := url.Parse(viewer)
	if err != nil {
		return "", failure.New(OpenViewer,
			failure.Message("Invalid viewer URL"),
			failure.Context{"viewer": viewer},
		)
	}
	q := u.Query()
	q.Set("url", validateURL)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func openViewer(viewer, validateURL string) error {
	u, err := viewerURL(viewer, validateURL)
	if err != nil {
		return err
	}
	if err := browser.OpenURL(u); err != nil {
		return failure.New(OpenViewer,
			failure.Message("Failed to open browser"),
			failure.Context{"url": u, "error": err.Error()},
		)
	}
	return nil
}

func openViewerCmd(viewer, validateURL string) tea.Cmd {
	return func() tea.Msg {
		return openedMsg{err: openViewer(viewer, validateURL)}
	}
}

// runTUI shows the result table while files are validated
func runTUI(ctx context.Context, svc *api.Service, files []batch.InputFile, viewer string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// the browser helper writes to stdout, which belongs to the TUI
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard

	// skipped files are summarised in the status line instead
	defer log.SetOutput(log.SetOutput(io.Discard))

	sink := svc.NewSink()
	p := tea.NewProgram(newTUI(ctx, svc, sink, viewer, len(files)), tea.WithAltScreen())

	unsubscribe := sink.Subscribe(func(r result.Row) {
		p.Send(rowMsg(r))
	})
	defer unsubscribe()

	go func() {
		summary := svc.NewIngestor(sink, nil).Run(ctx, files)
		p.Send(doneMsg(summary))
	}()

	if _, err := p.Run(); err != nil {
		return failure.Wrap(err)
	}
	return nil
}
