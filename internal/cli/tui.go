package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/planwise/internal/core"
	"github.com/valter-silva-au/planwise/internal/observability"
	"github.com/valter-silva-au/planwise/pkg/models"
)

const maxVisibleNotices = 3

var filterCycle = []models.StatusFilter{models.FilterAll, models.FilterActive, models.FilterCompleted}

type tuiModel struct {
	ctx     context.Context
	svc     TaskService
	notices *observability.NoticeQueue

	query  models.ViewQuery
	tasks  []models.Task
	cursor int
	width  int

	search    textinput.Model
	searching bool

	// pendingDelete is the id awaiting a y/n answer.
	pendingDelete string

	loading bool
	busy    bool
	status  string
	err     error
	notes   []models.Notice
}

// tasksLoadedMsg reports the outcome of a reload.
type tasksLoadedMsg struct {
	err error
}

// opDoneMsg reports the outcome of a mutation.
type opDoneMsg struct {
	op  string
	res *core.SyncResult
	err error
}

var (
	tuiTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	cursorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)
	pointsStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	filterStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	confirmStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	tuiHelpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	priorityStyles = map[models.Priority]lipgloss.Style{
		models.PriorityUrgent: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		models.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		models.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		models.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
)

func newTUIModel(ctx context.Context, svc TaskService, notices *observability.NoticeQueue, filter models.StatusFilter) tuiModel {
	ti := textinput.New()
	ti.Placeholder = "search title or description"
	ti.Prompt = "/ "
	ti.CharLimit = 120
	ti.Width = 40

	if filter == "" {
		filter = models.FilterAll
	}
	return tuiModel{
		ctx:     ctx,
		svc:     svc,
		notices: notices,
		query:   models.ViewQuery{Status: filter},
		search:  ti,
		loading: true,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return m.reloadCmd()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tasksLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.refresh()
		return m, nil

	case opDoneMsg:
		m.busy = false
		m.err = msg.err
		if msg.err == nil {
			m.status = opStatus(msg)
		} else {
			m.status = ""
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.pendingDelete != "" {
			return m.updateConfirm(msg)
		}
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m tuiModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.pendingDelete
	m.pendingDelete = ""
	switch msg.String() {
	case "y", "Y":
		m.busy = true
		m.status = "deleting..."
		return m, m.opCmd("delete", func(ctx context.Context) (*core.SyncResult, error) {
			return m.svc.Delete(ctx, id)
		})
	default:
		m.status = "delete cancelled"
		return m, nil
	}
}

func (m tuiModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.query.Search = ""
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.query.Search = m.search.Value()
	m.refresh()
	return m, cmd
}

func (m tuiModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}

	case "shift+up", "K":
		return m.move(-1)
	case "shift+down", "J":
		return m.move(1)

	case " ", "x":
		if t, ok := m.selected(); ok && !m.busy {
			m.busy = true
			return m, m.opCmd("toggle", func(ctx context.Context) (*core.SyncResult, error) {
				return m.svc.ToggleComplete(ctx, t.ID)
			})
		}

	case "d":
		if t, ok := m.selected(); ok && !m.busy {
			m.pendingDelete = t.ID
		}

	case "f":
		m.query.Status = nextFilter(m.query.Status)
		m.cursor = 0
		m.refresh()

	case "/":
		m.searching = true
		return m, m.search.Focus()

	case "r":
		if !m.busy {
			m.loading = true
			return m, m.reloadCmd()
		}
	}
	return m, nil
}

// move shifts the selected task by delta positions. The new order is shown
// at once; the result of the submission replaces it when it arrives.
func (m tuiModel) move(delta int) (tea.Model, tea.Cmd) {
	from := m.cursor
	to := from + delta
	if m.busy || to < 0 || to >= len(m.tasks) {
		return m, nil
	}
	moved, err := core.Move(m.tasks, from, to)
	if err != nil {
		return m, nil
	}

	q := m.query
	m.tasks = moved
	m.cursor = to
	m.busy = true
	return m, m.opCmd("reorder", func(ctx context.Context) (*core.SyncResult, error) {
		return m.svc.Reorder(ctx, q, from, to)
	})
}

func (m tuiModel) reloadCmd() tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		err := svc.Reload(ctx)
		if errors.Is(err, core.ErrStaleReload) {
			err = nil
		}
		return tasksLoadedMsg{err: err}
	}
}

func (m tuiModel) opCmd(op string, fn func(ctx context.Context) (*core.SyncResult, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		res, err := fn(ctx)
		return opDoneMsg{op: op, res: res, err: err}
	}
}

// refresh re-projects the store and picks up queued notices.
func (m *tuiModel) refresh() {
	m.tasks = m.svc.View(m.query)
	if m.cursor >= len(m.tasks) {
		m.cursor = len(m.tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.notices != nil {
		m.notes = append(m.notes, m.notices.Drain()...)
		if over := len(m.notes) - maxVisibleNotices; over > 0 {
			m.notes = m.notes[over:]
		}
	}
}

func (m tuiModel) selected() (models.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return models.Task{}, false
	}
	return m.tasks[m.cursor], true
}

func nextFilter(f models.StatusFilter) models.StatusFilter {
	for i, v := range filterCycle {
		if v == f {
			return filterCycle[(i+1)%len(filterCycle)]
		}
	}
	return models.FilterAll
}

func opStatus(msg opDoneMsg) string {
	switch msg.op {
	case "toggle":
		if msg.res != nil && msg.res.Task != nil && msg.res.Task.Completed {
			return fmt.Sprintf("completed %q (+%d points)", msg.res.Task.Title, core.TaskPoints(*msg.res.Task))
		}
		return "task reopened"
	case "delete":
		return "task deleted"
	case "reorder":
		return "order saved"
	}
	return ""
}

func (m tuiModel) View() string {
	var b strings.Builder

	b.WriteString(tuiTitleStyle.Render(" PlanWise "))
	b.WriteString("  ")
	b.WriteString(filterStyle.Render("filter: " + string(m.query.Status)))
	if m.query.Search != "" && !m.searching {
		b.WriteString(filterStyle.Render(fmt.Sprintf("  search: %q", m.query.Search)))
	}
	b.WriteString("\n\n")

	if m.searching {
		b.WriteString(m.search.View())
		b.WriteString("\n\n")
	}

	switch {
	case m.loading && len(m.tasks) == 0:
		b.WriteString("  Loading tasks...\n")
	case len(m.tasks) == 0:
		b.WriteString("  No tasks found.\n")
		b.WriteString("  " + tuiHelpStyle.Render(emptyHint(m.query.Search != "")) + "\n")
	default:
		for i, t := range m.tasks {
			b.WriteString(m.renderRow(i, t))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.pendingDelete != "" {
		title := m.pendingDelete
		if t, ok := m.selected(); ok && t.ID == m.pendingDelete {
			title = t.Title
		}
		b.WriteString(confirmStyle.Render(fmt.Sprintf("Delete %q? (y/n)", title)))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v [%s]", m.err, models.KindOf(m.err))))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(tuiHelpStyle.Render(m.status))
		b.WriteString("\n")
	}
	for _, n := range m.notes {
		b.WriteString(observability.FormatNotice(n))
		b.WriteString("\n")
	}

	b.WriteString(tuiHelpStyle.Render("j/k: move cursor | J/K: reorder | space: toggle | d: delete | f: filter | /: search | r: reload | q: quit"))
	return b.String()
}

func (m tuiModel) renderRow(i int, t models.Task) string {
	cursor := "  "
	if i == m.cursor {
		cursor = cursorStyle.Render("> ")
	}

	check := "[ ]"
	title := t.Title
	if t.Completed {
		check = "[x]"
		title = completedStyle.Render(title)
	}

	prio := string(t.Priority)
	if style, ok := priorityStyles[t.Priority]; ok {
		prio = style.Render(prio)
	}

	row := fmt.Sprintf("%s%2d %s %s  %s", cursor, i+1, check, title, prio)
	if !t.Completed {
		row += "  " + pointsStyle.Render(fmt.Sprintf("%d pts", core.TaskPoints(t)))
	}
	return row
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive task list",
	Long: `Open an interactive task list.

Move with j/k, reorder the selected task with J/K, toggle completion with
space, delete with d (asks y/n), cycle the completion filter with f and
search with /. Reordering is shown immediately and corrected if the backend
rejects it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTasks(); err != nil {
			return err
		}
		filter := models.FilterAll
		if Config != nil && Config.DefaultFilter != "" {
			filter = Config.DefaultFilter
		}

		m := newTUIModel(cmd.Context(), Tasks, Notices, filter)
		p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running task list: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
