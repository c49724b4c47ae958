package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tabdeck/tabdeck-cli/internal/adapters/driving/tui/keymap"
	"github.com/tabdeck/tabdeck-cli/internal/adapters/driving/tui/styles"
	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
)

// gridEntry is one list row: a site or a folder.
type gridEntry struct {
	id       string
	title    string
	desc     string
	isFolder bool
}

// Title implements list.DefaultItem.
func (e gridEntry) Title() string {
	if e.isFolder {
		return e.title + "/"
	}
	return e.title
}

// Description implements list.DefaultItem.
func (e gridEntry) Description() string { return e.desc }

// FilterValue implements list.Item.
func (e gridEntry) FilterValue() string { return e.title }

// App is the grid browser TUI following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports *Ports
	ctx   context.Context

	styles *styles.Styles
	keys   *keymap.KeyMap
	list   list.Model

	// openFolder is the id of the folder being browsed, or "" at the
	// root.
	openFolder      string
	openFolderTitle string

	err    error
	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	delegate := list.NewDefaultDelegate()
	l := list.New(nil, delegate, 0, 0)
	l.Title = "tabdeck"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)

	app := &App{
		ports:  ports,
		ctx:    context.Background(),
		styles: s,
		keys:   keymap.DefaultKeyMap(),
		list:   l,
	}
	app.reload()
	return app, nil
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.list.SetSize(msg.Width, msg.Height-2)
		a.ready = true
		return a, nil

	case tea.KeyMsg:
		// While the list filter is open, keys belong to it.
		if a.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit

		case key.Matches(msg, a.keys.Back):
			if a.openFolder != "" {
				a.openFolder = ""
				a.openFolderTitle = ""
				a.reload()
			}
			return a, nil

		case key.Matches(msg, a.keys.Open):
			if entry, ok := a.selected(); ok && entry.isFolder {
				a.openFolder = entry.id
				a.openFolderTitle = entry.title
				a.reload()
			}
			return a, nil

		case key.Matches(msg, a.keys.Delete):
			if entry, ok := a.selected(); ok {
				if err := a.ports.Grid.DeleteItems(a.ctx, []string{entry.id}); err != nil {
					a.err = err
				} else {
					a.err = nil
					// Deleting an open folder drops us back to root.
					if entry.id == a.openFolder {
						a.openFolder = ""
						a.openFolderTitle = ""
					}
				}
				a.reload()
			}
			return a, nil

		case key.Matches(msg, a.keys.Refresh):
			if err := a.ports.Grid.Load(a.ctx); err != nil {
				a.err = err
			} else {
				a.err = nil
			}
			a.reload()
			return a, nil
		}
	}

	var cmd tea.Cmd
	a.list, cmd = a.list.Update(msg)
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	view := a.list.View()
	status := a.statusLine()
	if a.err != nil {
		status = a.styles.Error.Render(a.err.Error())
	}
	return view + "\n" + a.styles.StatusBar.Render(status)
}

// Run starts the TUI event loop.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// selected returns the highlighted entry.
func (a *App) selected() (gridEntry, bool) {
	entry, ok := a.list.SelectedItem().(gridEntry)
	return entry, ok
}

// reload rebuilds the list rows from the projection.
func (a *App) reload() {
	p := a.ports.Grid.Projection()

	var rows []list.Item
	if a.openFolder != "" {
		for _, site := range p.ChildrenOf(a.openFolder) {
			rows = append(rows, gridEntry{id: site.ID, title: site.Title, desc: site.URL})
		}
		a.list.Title = "tabdeck › " + a.openFolderTitle
	} else {
		for _, item := range p.Roots() {
			switch v := item.(type) {
			case *domain.Folder:
				rows = append(rows, gridEntry{
					id:       v.ID,
					title:    v.Title,
					desc:     fmt.Sprintf("%d sites", len(p.ChildrenOf(v.ID))),
					isFolder: true,
				})
			case *domain.Site:
				rows = append(rows, gridEntry{id: v.ID, title: v.Title, desc: v.URL})
			}
		}
		a.list.Title = "tabdeck"
	}
	a.list.SetItems(rows)
}

func (a *App) statusLine() string {
	if a.openFolder != "" {
		return "enter open · esc back · d delete · r refresh · q quit"
	}
	return "enter open folder · d delete · r refresh · q quit"
}
