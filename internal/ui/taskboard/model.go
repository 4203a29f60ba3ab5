// Package taskboard implements the staff task screen. Regular staff see
// their own assignments and can toggle completion; administrators see every
// task and can assign, edit, and remove them.
package taskboard

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/tkoh/bookstore-tui/internal/api"
	"github.com/tkoh/bookstore-tui/internal/keys"
	"github.com/tkoh/bookstore-tui/internal/model"
	"github.com/tkoh/bookstore-tui/internal/theme"
	"github.com/tkoh/bookstore-tui/internal/ui"
)

// TasksLoadedMsg is sent when the task set has been fetched.
type TasksLoadedMsg struct {
	Tasks []model.TaskItem
	Page  model.Page[model.TaskItem]
}

type assigneesLoadedMsg struct {
	users []model.User
}

type savedMsg struct {
	verb string
}

type taskItem struct {
	task model.TaskItem
}

func (i taskItem) FilterValue() string { return i.task.Description }

type delegate struct{}

func (delegate) Height() int                             { return 1 }
func (delegate) Spacing() int                            { return 0 }
func (delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(taskItem)
	if !ok {
		return
	}
	t := ti.task

	prefix := "○"
	if t.Done {
		prefix = "✓"
	}

	due := ""
	if !t.DueAt.IsZero() {
		style := lipgloss.NewStyle().Foreground(theme.ColorGray)
		if !t.Done && t.DueAt.Before(time.Now()) {
			style = lipgloss.NewStyle().Foreground(theme.ColorRed)
		}
		due = style.Render("  due " + t.DueAt.Format("Jan 02"))
	}

	assignee := ""
	if t.AssigneeName != "" {
		assignee = lipgloss.NewStyle().
			Foreground(theme.ColorMagenta).
			Render("  @" + t.AssigneeName)
	}

	line := fmt.Sprintf("%s %s%s%s", prefix, t.Description, assignee, due)
	if t.Done {
		line = lipgloss.NewStyle().Foreground(theme.ColorGray).Render(line)
	}

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}
	fmt.Fprint(w, line)
}

type mode int

const (
	modeBrowse mode = iota
	modeForm
	modeConfirm
)

type formBindings struct {
	description string
	due         string
	assigneeID  int64
	confirm     bool
}

// Model is the task screen.
type Model struct {
	list   list.Model
	client *api.Client
	keys   *keys.KeyMap

	// admin switches between the personal view (/tareas/me) and the full
	// paginated view with create/edit/delete.
	admin    bool
	tasks    []model.TaskItem
	page     model.Page[model.TaskItem]
	pageable api.Pageable

	mode    mode
	form    *huh.Form
	fb      *formBindings
	editing int64

	assignees []model.User

	width  int
	height int
}

// New creates the task screen.
func New(client *api.Client, k *keys.KeyMap, admin bool, width, height int) Model {
	l := list.New([]list.Item{}, delegate{}, width, height-2)
	l.Title = "Tasks"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:     l,
		client:   client,
		keys:     k,
		admin:    admin,
		pageable: api.Pageable{Page: 0, Size: 20, Sort: "fechaLimite,asc"},
		fb:       &formBindings{},
		width:    width,
		height:   height,
	}
}

// Init loads tasks, plus the assignee catalog for administrators.
func (m Model) Init() tea.Cmd {
	if m.admin {
		return tea.Batch(m.load(), m.loadAssignees())
	}
	return m.load()
}

// SetSize updates the screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}

// CapturingInput reports whether a form currently owns the keyboard.
func (m Model) CapturingInput() bool {
	return m.mode != modeBrowse
}

// Update handles messages for the task screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TasksLoadedMsg:
		m.tasks = msg.Tasks
		m.page = msg.Page
		items := make([]list.Item, len(msg.Tasks))
		for i, t := range msg.Tasks {
			items[i] = taskItem{task: t}
		}
		return m, m.list.SetItems(items)

	case assigneesLoadedMsg:
		m.assignees = msg.users
		return m, nil

	case savedMsg:
		m.mode = modeBrowse
		verb := msg.verb
		return m, tea.Batch(m.load(), func() tea.Msg {
			return ui.StatusMsg{Text: "Task " + verb}
		})

	case tea.KeyMsg:
		if m.mode != modeBrowse {
			return m.updateForm(msg)
		}
		return m.handleBrowseKeys(msg)
	}

	if m.mode != modeBrowse {
		return m.updateForm(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleBrowseKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Refresh):
		return m, m.load()

	case key.Matches(msg, m.keys.ToggleDone):
		item, ok := m.list.SelectedItem().(taskItem)
		if !ok {
			return m, nil
		}
		return m, m.toggleDone(item.task)

	case key.Matches(msg, m.keys.NextPage):
		if m.admin && !m.page.Last {
			m.pageable.Page++
			return m, m.load()
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevPage):
		if m.admin && m.pageable.Page > 0 {
			m.pageable.Page--
			return m, m.load()
		}
		return m, nil

	case key.Matches(msg, m.keys.New):
		if !m.admin {
			return m, nil
		}
		m.editing = 0
		*m.fb = formBindings{due: time.Now().AddDate(0, 0, 7).Format("2006-01-02")}
		m.mode = modeForm
		m.form = m.buildForm()
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Edit):
		if !m.admin {
			return m, nil
		}
		item, ok := m.list.SelectedItem().(taskItem)
		if !ok {
			return m, nil
		}
		t := item.task
		m.editing = t.ID
		*m.fb = formBindings{
			description: t.Description,
			due:         t.DueAt.Format("2006-01-02"),
			assigneeID:  t.AssigneeID,
		}
		m.mode = modeForm
		m.form = m.buildForm()
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Delete):
		if !m.admin {
			return m, nil
		}
		item, ok := m.list.SelectedItem().(taskItem)
		if !ok {
			return m, nil
		}
		m.editing = item.task.ID
		m.fb.confirm = false
		m.mode = modeConfirm
		m.form = huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete task %q?", item.task.Description)).
				Affirmative("Delete").
				Negative("Keep").
				Value(&m.fb.confirm),
		)).WithShowHelp(false)
		return m, m.form.Init()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
		m.mode = modeBrowse
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateAborted {
		m.mode = modeBrowse
		return m, nil
	}
	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if m.mode == modeConfirm {
		m.mode = modeBrowse
		if !m.fb.confirm {
			return m, nil
		}
		return m, m.remove(m.editing)
	}
	return m, m.save()
}

// toggleDone flips completion through the update endpoint, keeping the
// other fields as they are.
func (m Model) toggleDone(t model.TaskItem) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		_, err := client.UpdateTask(context.Background(), t.ID, model.TaskUpdate{
			Description: t.Description,
			Done:        !t.Done,
			DueAt:       t.DueAt,
			AssigneeID:  t.AssigneeID,
		})
		if err != nil {
			return ui.ErrorMsg{Err: err}
		}
		verb := "reopened"
		if !t.Done {
			verb = "completed"
		}
		return savedMsg{verb: verb}
	}
}

func (m Model) save() tea.Cmd {
	fb := *m.fb
	client := m.client
	editing := m.editing

	due, err := time.Parse("2006-01-02", strings.TrimSpace(fb.due))
	if err != nil {
		return func() tea.Msg {
			return ui.ErrorMsg{Err: fmt.Errorf("invalid due date %q, use YYYY-MM-DD", fb.due)}
		}
	}

	if editing == 0 {
		return func() tea.Msg {
			_, err := client.CreateTask(context.Background(), model.TaskCreate{
				Description: fb.description,
				DueAt:       due,
				AssigneeID:  fb.assigneeID,
			})
			if err != nil {
				return ui.ErrorMsg{Err: err}
			}
			return savedMsg{verb: "assigned"}
		}
	}

	var current model.TaskItem
	for _, t := range m.tasks {
		if t.ID == editing {
			current = t
			break
		}
	}
	return func() tea.Msg {
		_, err := client.UpdateTask(context.Background(), editing, model.TaskUpdate{
			Description: fb.description,
			Done:        current.Done,
			DueAt:       due,
			AssigneeID:  fb.assigneeID,
		})
		if err != nil {
			return ui.ErrorMsg{Err: err}
		}
		return savedMsg{verb: "updated"}
	}
}

func (m Model) remove(id int64) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		if err := client.DeleteTask(context.Background(), id); err != nil {
			return ui.ErrorMsg{Err: err}
		}
		return savedMsg{verb: "deleted"}
	}
}

func (m Model) load() tea.Cmd {
	client := m.client
	if !m.admin {
		return func() tea.Msg {
			tasks, err := client.MyTasks(context.Background())
			if err != nil {
				return ui.ErrorMsg{Err: err}
			}
			return TasksLoadedMsg{Tasks: tasks}
		}
	}
	p := m.pageable
	return func() tea.Msg {
		page, err := client.ListTasks(context.Background(), p)
		if err != nil {
			return ui.ErrorMsg{Err: err}
		}
		return TasksLoadedMsg{Tasks: page.Content, Page: page}
	}
}

func (m Model) loadAssignees() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		page, err := client.ListUsers(context.Background(), api.Pageable{
			Page: 0, Size: 100, Sort: "nombreUsuario,asc",
		})
		if err != nil {
			return ui.ErrorMsg{Err: err}
		}
		return assigneesLoadedMsg{users: page.Content}
	}
}

func (m *Model) buildForm() *huh.Form {
	opts := make([]huh.Option[int64], len(m.assignees))
	for i, u := range m.assignees {
		opts[i] = huh.NewOption(u.Username, u.ID)
	}

	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Description").
			Value(&m.fb.description).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("description is required")
				}
				return nil
			}),
		huh.NewInput().
			Title("Due date").
			Placeholder("YYYY-MM-DD").
			Value(&m.fb.due).
			Validate(func(s string) error {
				if _, err := time.Parse("2006-01-02", strings.TrimSpace(s)); err != nil {
					return fmt.Errorf("use YYYY-MM-DD")
				}
				return nil
			}),
		huh.NewSelect[int64]().
			Title("Assignee").
			Options(opts...).
			Value(&m.fb.assigneeID),
	)).WithShowHelp(false)
}

// View renders the list or the active form.
func (m Model) View() string {
	if m.mode != modeBrowse && m.form != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			theme.PanelStyle.Render(m.form.View()))
	}

	if len(m.list.Items()) == 0 {
		text := "No tasks assigned to you."
		if m.admin {
			text = "No tasks.\n\nPress n to assign one."
		}
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render(text)
	}

	footer := ""
	if m.admin {
		footer = theme.HelpStyle.Render(fmt.Sprintf(
			"page %d/%d · %d tasks",
			m.page.Number+1, max(m.page.TotalPages, 1), m.page.TotalElements,
		))
	} else {
		open := 0
		for _, t := range m.tasks {
			if !t.Done {
				open++
			}
		}
		footer = theme.HelpStyle.Render(fmt.Sprintf("%d open of %d", open, len(m.tasks)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.list.View(), footer)
}
