package booklist

import (
	"context"
	"fmt"
	"strconv"
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

// BooksLoadedMsg is sent when a catalog page has been fetched.
type BooksLoadedMsg struct {
	Page model.Page[model.Book]
}

// optionsLoadedMsg carries the category and publisher catalogs used to build
// the select fields of the book form.
type optionsLoadedMsg struct {
	categories []model.Category
	publishers []model.Publisher
}

type savedMsg struct {
	verb string
}

// editLoadedMsg carries the freshly fetched record the edit form starts
// from; the page row may be stale.
type editLoadedMsg struct {
	book model.Book
}

// staleRowMsg is sent when the selected row no longer exists server-side.
type staleRowMsg struct{}

type mode int

const (
	modeBrowse mode = iota
	modeForm
	modeConfirm
)

// formBindings holds form values on the heap so huh's Value pointers stay
// valid across model copies.
type formBindings struct {
	isbn        string
	title       string
	author      string
	year        string
	categoryID  int64
	publisherID int64
	confirm     bool
}

// Model is the catalog screen: a paginated book list with create, edit and
// delete forms.
type Model struct {
	list   list.Model
	client *api.Client
	keys   *keys.KeyMap

	page     model.Page[model.Book]
	pageable api.Pageable

	mode    mode
	form    *huh.Form
	fb      *formBindings
	editing string // ISBN under edit; empty when creating

	categories []model.Category
	publishers []model.Publisher

	width  int
	height int
}

// New creates the catalog screen.
func New(client *api.Client, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Catalog"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:     l,
		client:   client,
		keys:     k,
		pageable: api.Pageable{Page: 0, Size: 20, Sort: "titulo,asc"},
		fb:       &formBindings{},
		width:    width,
		height:   height,
	}
}

// Init loads the first catalog page and the form option catalogs.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.loadOptions())
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

// Update handles messages for the catalog screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case BooksLoadedMsg:
		m.page = msg.Page
		items := make([]list.Item, len(msg.Page.Content))
		for i, b := range msg.Page.Content {
			items[i] = BookItem{Book: b}
		}
		return m, m.list.SetItems(items)

	case optionsLoadedMsg:
		m.categories = msg.categories
		m.publishers = msg.publishers
		return m, nil

	case editLoadedMsg:
		b := msg.book
		m.editing = b.ISBN
		*m.fb = formBindings{
			isbn:        b.ISBN,
			title:       b.Title,
			author:      b.Author,
			year:        strconv.Itoa(b.PublishedAt.Year()),
			categoryID:  m.categoryIDByName(b.CategoryName),
			publisherID: m.publisherIDByName(b.PublisherName),
		}
		m.mode = modeForm
		m.form = m.buildBookForm()
		return m, m.form.Init()

	case staleRowMsg:
		return m, tea.Batch(m.load(), func() tea.Msg {
			return ui.StatusMsg{Text: "Book no longer exists"}
		})

	case savedMsg:
		m.mode = modeBrowse
		verb := msg.verb
		return m, tea.Batch(m.load(), func() tea.Msg {
			return ui.StatusMsg{Text: "Book " + verb}
		})

	case ui.ErrorMsg:
		// Errors bubble to the root; leave the form open so the user can
		// correct and resubmit.
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeForm, modeConfirm:
			return m.updateForm(msg)
		default:
			return m.handleBrowseKeys(msg)
		}
	}

	if m.mode == modeForm || m.mode == modeConfirm {
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
		m.editing = ""
		*m.fb = formBindings{}
		m.fb.year = strconv.Itoa(time.Now().Year())
		m.mode = modeForm
		m.form = m.buildBookForm()
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Edit):
		item, ok := m.list.SelectedItem().(BookItem)
		if !ok {
			return m, nil
		}
		return m, m.fetchForEdit(item.Book.ISBN)

	case key.Matches(msg, m.keys.Delete):
		item, ok := m.list.SelectedItem().(BookItem)
		if !ok {
			return m, nil
		}
		m.editing = item.Book.ISBN
		m.fb.confirm = false
		m.mode = modeConfirm
		m.form = huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q (%s)?", item.Book.Title, item.Book.ISBN)).
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
		return m, m.deleteBook(m.editing)
	}
	return m, m.save()
}

func (m Model) save() tea.Cmd {
	fb := *m.fb
	client := m.client
	editing := m.editing

	year, err := strconv.Atoi(strings.TrimSpace(fb.year))
	if err != nil {
		return func() tea.Msg {
			return ui.ErrorMsg{Err: fmt.Errorf("invalid publication year %q", fb.year)}
		}
	}
	published := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)

	if editing == "" {
		return func() tea.Msg {
			_, err := client.CreateBook(context.Background(), model.BookCreate{
				ISBN:        strings.TrimSpace(fb.isbn),
				Title:       fb.title,
				Author:      fb.author,
				PublishedAt: published,
				CategoryID:  fb.categoryID,
				PublisherID: fb.publisherID,
			})
			if err != nil {
				return ui.ErrorMsg{Err: err}
			}
			return savedMsg{verb: "created"}
		}
	}
	return func() tea.Msg {
		_, err := client.UpdateBook(context.Background(), editing, model.BookUpdate{
			Title:       fb.title,
			Author:      fb.author,
			PublishedAt: published,
			CategoryID:  fb.categoryID,
			PublisherID: fb.publisherID,
		})
		if err != nil {
			return ui.ErrorMsg{Err: err}
		}
		return savedMsg{verb: "updated"}
	}
}

// fetchForEdit pulls the current server record so the edit form does not
// start from a stale page row.
func (m Model) fetchForEdit(isbn string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		b, err := client.GetBook(context.Background(), isbn)
		if err != nil {
			if api.IsNotFound(err) {
				return staleRowMsg{}
			}
			return ui.ErrorMsg{Err: err}
		}
		return editLoadedMsg{book: *b}
	}
}

func (m Model) deleteBook(isbn string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		if err := client.DeleteBook(context.Background(), isbn); err != nil {
			return ui.ErrorMsg{Err: err}
		}
		return savedMsg{verb: "deleted"}
	}
}

func (m Model) load() tea.Cmd {
	client := m.client
	p := m.pageable
	return func() tea.Msg {
		page, err := client.ListBooks(context.Background(), p)
		if err != nil {
			return ui.ErrorMsg{Err: err}
		}
		return BooksLoadedMsg{Page: page}
	}
}

func (m Model) loadOptions() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		all := api.Pageable{Page: 0, Size: 100, Sort: "nombre,asc"}
		cats, err := client.ListCategories(context.Background(), all)
		if err != nil {
			return ui.ErrorMsg{Err: err}
		}
		pubs, err := client.ListPublishers(context.Background(), all)
		if err != nil {
			return ui.ErrorMsg{Err: err}
		}
		return optionsLoadedMsg{categories: cats.Content, publishers: pubs.Content}
	}
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
			Render("No books yet.\n\nPress n to add one.")
	}

	footer := theme.HelpStyle.Render(fmt.Sprintf(
		"page %d/%d · %d books",
		m.page.Number+1, max(m.page.TotalPages, 1), m.page.TotalElements,
	))
	return lipgloss.JoinVertical(lipgloss.Left, m.list.View(), footer)
}

func (m *Model) buildBookForm() *huh.Form {
	catOpts := make([]huh.Option[int64], len(m.categories))
	for i, c := range m.categories {
		catOpts[i] = huh.NewOption(c.Name, c.ID)
	}
	pubOpts := make([]huh.Option[int64], len(m.publishers))
	for i, p := range m.publishers {
		pubOpts[i] = huh.NewOption(p.Name, p.ID)
	}

	fields := []huh.Field{}
	if m.editing == "" {
		fields = append(fields, huh.NewInput().
			Title("ISBN").
			Value(&m.fb.isbn).
			Validate(validateISBN))
	}
	fields = append(fields,
		huh.NewInput().
			Title("Title").
			Value(&m.fb.title).
			Validate(required("Title")),
		huh.NewInput().
			Title("Author").
			Value(&m.fb.author).
			Validate(required("Author")),
		huh.NewInput().
			Title("Publication year").
			Value(&m.fb.year).
			Validate(validateYear),
		huh.NewSelect[int64]().
			Title("Category").
			Options(catOpts...).
			Value(&m.fb.categoryID),
		huh.NewSelect[int64]().
			Title("Publisher").
			Options(pubOpts...).
			Value(&m.fb.publisherID),
	)

	return huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(false)
}

func (m Model) categoryIDByName(name string) int64 {
	for _, c := range m.categories {
		if c.Name == name {
			return c.ID
		}
	}
	return 0
}

func (m Model) publisherIDByName(name string) int64 {
	for _, p := range m.publishers {
		if p.Name == name {
			return p.ID
		}
	}
	return 0
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validateISBN(s string) error {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), "-", "")
	if n := len(cleaned); n != 10 && n != 13 {
		return fmt.Errorf("ISBN must have 10 or 13 digits")
	}
	return nil
}

func validateYear(s string) error {
	y, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || y < 1000 || y > time.Now().Year()+1 {
		return fmt.Errorf("enter a four-digit year")
	}
	return nil
}
