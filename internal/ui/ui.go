package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/rango/internal/auth"
	"github.com/desertthunder/rango/internal/directory"
	"github.com/desertthunder/rango/internal/models"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CategoryListView ViewState = iota
	PageListView
)

// Directory is the subset of [directory.Service] the browser reads and writes through.
type Directory interface {
	ListCategories(ctx context.Context, limit int) ([]*models.Category, error)
	ShowCategory(ctx context.Context, slug string) (directory.CategoryView, error)
	LikeCategory(ctx context.Context, p *auth.Principal, categoryID string) (int, error)
	VisitPage(ctx context.Context, pageID string) (*models.Page, error)
}

var _ Directory = (*directory.Service)(nil)

// Options configures a [Model].
type Options struct {
	// Principal likes categories; nil makes the browser read-only.
	Principal *auth.Principal
	// Open is called with a page URL after its view is recorded. Nil skips opening.
	Open func(url string) error
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	dir          Directory
	principal    *auth.Principal
	open         func(string) error
	width        int
	height       int
	categoryList list.Model
	pageList     list.Model
	current      *models.Category
	status       string
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, dir Directory, opts Options) *Model {
	return &Model{
		ctx:          ctx,
		view:         CategoryListView,
		dir:          dir,
		principal:    opts.Principal,
		open:         opts.Open,
		categoryList: newList("Categories"),
		pageList:     newList("Pages"),
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.KeyMap.Quit.SetEnabled(false)
	return l
}

// Init initializes the TUI by fetching categories.
func (m *Model) Init() tea.Cmd {
	return m.fetchCategories()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.categoryList.SetSize(msg.Width-4, msg.Height-6)
		m.pageList.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		if m.filtering() {
			return m.updateLists(msg)
		}
		switch m.view {
		case CategoryListView:
			return m.handleCategoryKeys(msg)
		case PageListView:
			return m.handlePageKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgCategoriesFetched:
		data := msg.data.(categoriesFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		items := make([]list.Item, len(data.categories))
		for i, c := range data.categories {
			items[i] = categoryItem{category: c}
		}
		return m, m.categoryList.SetItems(items)

	case MsgPagesFetched:
		data := msg.data.(pagesFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		if !data.view.Found() {
			m.status = styles.Warn("That category no longer exists.")
			m.view = CategoryListView
			return m, m.fetchCategories()
		}
		m.current = data.view.Category
		items := make([]list.Item, len(data.view.Pages))
		for i, p := range data.view.Pages {
			items[i] = pageItem{page: p}
		}
		m.pageList.Title = fmt.Sprintf("Pages in '%s'", data.view.Category.Name())
		m.pageList.ResetSelected()
		m.view = PageListView
		m.status = ""
		return m, m.pageList.SetItems(items)

	case MsgCategoryLiked:
		data := msg.data.(categoryLiked)
		if data.err != nil {
			m.status = styles.Err(fmt.Sprintf("Like failed: %v", data.err))
			return m, nil
		}
		for i, item := range m.categoryList.Items() {
			ci, ok := item.(categoryItem)
			if !ok || ci.category.ID() != data.id {
				continue
			}
			ci.category.SetLikes(data.likes)
			m.status = styles.OK(fmt.Sprintf("Liked %s (%s)", ci.category.Name(), count(data.likes, "like")))
			return m, m.categoryList.SetItem(i, ci)
		}
		return m, nil

	case MsgPageVisited:
		data := msg.data.(pageVisited)
		var cmd tea.Cmd
		if data.page != nil {
			for i, item := range m.pageList.Items() {
				if pi, ok := item.(pageItem); ok && pi.page.ID() == data.page.ID() {
					cmd = m.pageList.SetItem(i, pageItem{page: data.page})
					break
				}
			}
		}
		switch {
		case data.err != nil:
			m.status = styles.Err(fmt.Sprintf("Open failed: %v", data.err))
		case data.page != nil:
			m.status = styles.OK(fmt.Sprintf("Opened %s", data.page.URL()))
		}
		return m, cmd
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.Err(fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit", m.err))
	}

	switch m.view {
	case CategoryListView:
		return m.render(m.categoryList, m.keys.enter, m.keys.like, m.keys.reload, m.keys.quit)
	case PageListView:
		return m.render(m.pageList, m.keys.open, m.keys.back, m.keys.reload, m.keys.quit)
	default:
		return ""
	}
}

func (m *Model) render(l list.Model, bindings ...key.Binding) string {
	helpView := m.help.ShortHelpView(bindings)
	if m.status == "" {
		return fmt.Sprintf("%s\n\n%s", l.View(), helpView)
	}
	return fmt.Sprintf("%s\n%s\n%s", l.View(), m.status, helpView)
}

func (m *Model) filtering() bool {
	switch m.view {
	case PageListView:
		return m.pageList.FilterState() == list.Filtering
	default:
		return m.categoryList.FilterState() == list.Filtering
	}
}

func (m *Model) handleCategoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.reload):
		m.status = ""
		return m, m.fetchCategories()
	}

	if m.err != nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.categoryList.SelectedItem().(categoryItem); ok {
			return m, m.fetchPages(item.category.Slug())
		}
		return m, nil
	case key.Matches(msg, m.keys.like):
		item, ok := m.categoryList.SelectedItem().(categoryItem)
		if !ok {
			return m, nil
		}
		if m.principal == nil {
			m.status = styles.Warn("Start the browser with --user to like categories.")
			return m, nil
		}
		return m, m.likeCategory(item.category.ID())
	}

	var cmd tea.Cmd
	m.categoryList, cmd = m.categoryList.Update(msg)
	return m, cmd
}

func (m *Model) handlePageKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = CategoryListView
		m.current = nil
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.reload):
		if m.current != nil {
			return m, m.fetchPages(m.current.Slug())
		}
		return m, nil
	case key.Matches(msg, m.keys.open):
		if item, ok := m.pageList.SelectedItem().(pageItem); ok {
			return m, m.visitPage(item.page.ID())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.pageList, cmd = m.pageList.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case CategoryListView:
		m.categoryList, cmd = m.categoryList.Update(msg)
	case PageListView:
		m.pageList, cmd = m.pageList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchCategories() tea.Cmd {
	return func() tea.Msg {
		categories, err := m.dir.ListCategories(m.ctx, 0)
		return categoriesFetchedMsg(categories, err)
	}
}

func (m *Model) fetchPages(slug string) tea.Cmd {
	return func() tea.Msg {
		view, err := m.dir.ShowCategory(m.ctx, slug)
		return pagesFetchedMsg(view, err)
	}
}

func (m *Model) likeCategory(id string) tea.Cmd {
	return func() tea.Msg {
		likes, err := m.dir.LikeCategory(m.ctx, m.principal, id)
		return categoryLikedMsg(id, likes, err)
	}
}

func (m *Model) visitPage(id string) tea.Cmd {
	return func() tea.Msg {
		page, err := m.dir.VisitPage(m.ctx, id)
		if err != nil {
			return pageVisitedMsg(nil, err)
		}
		if m.open != nil {
			if err := m.open(page.URL()); err != nil {
				return pageVisitedMsg(page, err)
			}
		}
		return pageVisitedMsg(page, nil)
	}
}
