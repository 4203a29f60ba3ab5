// Package namedlist implements the categories and publishers screens, which
// share the same {id, name} shape and CRUD surface behind a Backend.
package namedlist

import (
	"context"
	"fmt"
	"io"
	"strings"

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

// Entry is a named entity row.
type Entry struct {
	ID   int64
	Name string
}

// Backend is the slice of the HTTP gateway a named-entity screen needs.
type Backend interface {
	Title() string
	List(ctx context.Context, p api.Pageable) (entries []Entry, page model.Page[Entry], err error)
	Create(ctx context.Context, name string) error
	Update(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
}

// CategoryBackend adapts the category endpoints.
type CategoryBackend struct {
	Client *api.Client
}

func (b CategoryBackend) Title() string { return "Categories" }

func (b CategoryBackend) List(ctx context.Context, p api.Pageable) ([]Entry, model.Page[Entry], error) {
	page, err := b.Client.ListCategories(ctx, p)
	if err != nil {
		return nil, model.Page[Entry]{}, err
	}
	entries := make([]Entry, len(page.Content))
	for i, c := range page.Content {
		entries[i] = Entry{ID: c.ID, Name: c.Name}
	}
	return entries, pageMeta(page.TotalElements, page.TotalPages, page.Number, page.Last), nil
}

func (b CategoryBackend) Create(ctx context.Context, name string) error {
	_, err := b.Client.CreateCategory(ctx, name)
	return err
}

func (b CategoryBackend) Update(ctx context.Context, id int64, name string) error {
	_, err := b.Client.UpdateCategory(ctx, id, name)
	return err
}

func (b CategoryBackend) Delete(ctx context.Context, id int64) error {
	return b.Client.DeleteCategory(ctx, id)
}

// PublisherBackend adapts the publisher endpoints.
type PublisherBackend struct {
	Client *api.Client
}

func (b PublisherBackend) Title() string { return "Publishers" }

func (b PublisherBackend) List(ctx context.Context, p api.Pageable) ([]Entry, model.Page[Entry], error) {
	page, err := b.Client.ListPublishers(ctx, p)
	if err != nil {
		return nil, model.Page[Entry]{}, err
	}
	entries := make([]Entry, len(page.Content))
	for i, pub := range page.Content {
		entries[i] = Entry{ID: pub.ID, Name: pub.Name}
	}
	return entries, pageMeta(page.TotalElements, page.TotalPages, page.Number, page.Last), nil
}

func (b PublisherBackend) Create(ctx context.Context, name string) error {
	_, err := b.Client.CreatePublisher(ctx, name)
	return err
}

func (b PublisherBackend) Update(ctx context.Context, id int64, name string) error {
	_, err := b.Client.UpdatePublisher(ctx, id, name)
	return err
}

func (b PublisherBackend) Delete(ctx context.Context, id int64) error {
	return b.Client.DeletePublisher(ctx, id)
}

func pageMeta(total int64, pages, number int, last bool) model.Page[Entry] {
	return model.Page[Entry]{TotalElements: total, TotalPages: pages, Number: number, Last: last}
}

// EntriesLoadedMsg is sent when a page of entries has been fetched. Backend
// distinguishes the categories screen from the publishers screen so messages
// are not cross-delivered.
type EntriesLoadedMsg struct {
	Backend string
	Entries []Entry
	Page    model.Page[Entry]
}

type savedMsg struct {
	backend string
	verb    string
}

type entryItem struct {
	entry Entry
}

func (i entryItem) FilterValue() string { return i.entry.Name }

type delegate struct{}

func (delegate) Height() int                               { return 1 }
func (delegate) Spacing() int                              { return 0 }
func (delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd   { return nil }
func (delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ei, ok := item.(entryItem)
	if !ok {
		return
	}
	id := lipgloss.NewStyle().Foreground(theme.ColorGray).Render(fmt.Sprintf("#%d", ei.entry.ID))
	line := fmt.Sprintf("%s  %s", id, ei.entry.Name)
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
	name    string
	confirm bool
}

// Model is a named-entity CRUD screen.
type Model struct {
	backend Backend
	list    list.Model
	keys    *keys.KeyMap

	page     model.Page[Entry]
	pageable api.Pageable

	mode    mode
	form    *huh.Form
	fb      *formBindings
	editing int64 // entry ID under edit; 0 when creating

	width  int
	height int
}

// New creates a named-entity screen over the given backend.
func New(backend Backend, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, delegate{}, width, height-2)
	l.Title = backend.Title()
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		backend:  backend,
		list:     l,
		keys:     k,
		pageable: api.Pageable{Page: 0, Size: 20, Sort: "nombre,asc"},
		fb:       &formBindings{},
		width:    width,
		height:   height,
	}
}

// Init loads the first page.
func (m Model) Init() tea.Cmd {
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

// Update handles messages for the screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EntriesLoadedMsg:
		if msg.Backend != m.backend.Title() {
			return m, nil
		}
		m.page = msg.Page
		items := make([]list.Item, len(msg.Entries))
		for i, e := range msg.Entries {
			items[i] = entryItem{entry: e}
		}
		return m, m.list.SetItems(items)

	case savedMsg:
		if msg.backend != m.backend.Title() {
			return m, nil
		}
		m.mode = modeBrowse
		verb := msg.verb
		title := strings.TrimSuffix(m.backend.Title(), "s")
		return m, tea.Batch(m.load(), func() tea.Msg {
			return ui.StatusMsg{Text: title + " " + verb}
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

	case key.Matches(msg, m.keys.NextPage):
		if !m.page.Last {
			m.pageable.Page++
			return m, m.load()
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevPage):
		if m.pageable.Page > 0 {
			m.pageable.Page--
			return m, m.load()
		}
		return m, nil

	case key.Matches(msg, m.keys.New):
		m.editing = 0
		m.fb.name = ""
		m.mode = modeForm
		m.form = m.buildForm()
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Edit):
		item, ok := m.list.SelectedItem().(entryItem)
		if !ok {
			return m, nil
		}
		m.editing = item.entry.ID
		m.fb.name = item.entry.Name
		m.mode = modeForm
		m.form = m.buildForm()
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Delete):
		item, ok := m.list.SelectedItem().(entryItem)
		if !ok {
			return m, nil
		}
		m.editing = item.entry.ID
		m.fb.confirm = false
		m.mode = modeConfirm
		m.form = huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q?", item.entry.Name)).
				Description("Books referencing it keep their snapshot name.").
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

func (m Model) save() tea.Cmd {
	backend := m.backend
	name := strings.TrimSpace(m.fb.name)
	editing := m.editing
	return func() tea.Msg {
		var err error
		verb := "created"
		if editing == 0 {
			err = backend.Create(context.Background(), name)
		} else {
			err = backend.Update(context.Background(), editing, name)
			verb = "renamed"
		}
		if err != nil {
			return ui.ErrorMsg{Err: err}
		}
		return savedMsg{backend: backend.Title(), verb: verb}
	}
}

func (m Model) remove(id int64) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		if err := backend.Delete(context.Background(), id); err != nil {
			return ui.ErrorMsg{Err: err}
		}
		return savedMsg{backend: backend.Title(), verb: "deleted"}
	}
}

func (m Model) load() tea.Cmd {
	backend := m.backend
	p := m.pageable
	return func() tea.Msg {
		entries, page, err := backend.List(context.Background(), p)
		if err != nil {
			return ui.ErrorMsg{Err: err}
		}
		return EntriesLoadedMsg{Backend: backend.Title(), Entries: entries, Page: page}
	}
}

func (m *Model) buildForm() *huh.Form {
	title := "New " + strings.ToLower(strings.TrimSuffix(m.backend.Title(), "s"))
	if m.editing != 0 {
		title = "Rename " + strings.ToLower(strings.TrimSuffix(m.backend.Title(), "s"))
	}
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(title).
			Value(&m.fb.name).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("name is required")
				}
				return nil
			}),
	)).WithShowHelp(false)
}

// View renders the list or the active form.
func (m Model) View() string {
	if m.mode != modeBrowse && m.form != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			theme.PanelStyle.Render(m.form.View()))
	}

	if len(m.list.Items()) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Nothing here yet.\n\nPress n to add an entry.")
	}

	footer := theme.HelpStyle.Render(fmt.Sprintf(
		"page %d/%d · %d entries",
		m.page.Number+1, max(m.page.TotalPages, 1), m.page.TotalElements,
	))
	return lipgloss.JoinVertical(lipgloss.Left, m.list.View(), footer)
}
