package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabdeck/tabdeck-cli/internal/adapters/driven/storage/memory"
	"github.com/tabdeck/tabdeck-cli/internal/core/ports/driving"
	"github.com/tabdeck/tabdeck-cli/internal/core/services"
)

func newTestApp(t *testing.T) (*App, *services.GridService) {
	t.Helper()
	grid := services.NewGridService(memory.NewItemStore(), memory.NewKVStore())
	grid.SetReorderDebounce(0)
	require.NoError(t, grid.Load(context.Background()))
	t.Cleanup(func() { _ = grid.Close() })

	settings := services.NewSettingsService(memory.NewConfigStore(), testCipher(t))
	app, err := NewApp(NewPorts(grid, settings))
	require.NoError(t, err)
	return app, grid
}

func testCipher(t *testing.T) *services.CredentialCipher {
	t.Helper()
	key := make([]byte, 32)
	c, err := services.NewCredentialCipherWithKey(key)
	require.NoError(t, err)
	return c
}

func seedGrid(t *testing.T, grid *services.GridService) (folderID, siteID string) {
	t.Helper()
	ctx := context.Background()
	folderID, err := grid.AddFolder(ctx, driving.NewFolder{Title: "Work"})
	require.NoError(t, err)
	_, err = grid.AddSite(ctx, driving.NewSite{Title: "Mail", URL: "https://mail", ParentID: folderID})
	require.NoError(t, err)
	siteID, err = grid.AddSite(ctx, driving.NewSite{Title: "News", URL: "https://news"})
	require.NoError(t, err)
	return folderID, siteID
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestNewApp_RequiresPorts(t *testing.T) {
	_, err := NewApp(&Ports{})
	assert.Error(t, err)
}

func TestApp_ListsRootEntries(t *testing.T) {
	app, grid := newTestApp(t)
	seedGrid(t, grid)
	app.reload()

	items := app.list.Items()
	require.Len(t, items, 2)

	folder := items[0].(gridEntry)
	assert.True(t, folder.isFolder)
	assert.Equal(t, "Work/", folder.Title())
	assert.Equal(t, "1 sites", folder.Description())

	site := items[1].(gridEntry)
	assert.False(t, site.isFolder)
	assert.Equal(t, "News", site.Title())
}

func TestApp_OpenAndLeaveFolder(t *testing.T) {
	app, grid := newTestApp(t)
	folderID, _ := seedGrid(t, grid)
	app.reload()

	// The folder sorts first; enter opens it.
	model, _ := app.Update(keyMsg("enter"))
	app = model.(*App)
	assert.Equal(t, folderID, app.openFolder)

	items := app.list.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Mail", items[0].(gridEntry).Title())

	// Escape returns to the root.
	model, _ = app.Update(keyMsg("esc"))
	app = model.(*App)
	assert.Empty(t, app.openFolder)
	assert.Len(t, app.list.Items(), 2)
}

func TestApp_OpenIgnoresSites(t *testing.T) {
	app, grid := newTestApp(t)
	ctx := context.Background()
	_, err := grid.AddSite(ctx, driving.NewSite{Title: "Solo", URL: "https://solo"})
	require.NoError(t, err)
	app.reload()

	model, _ := app.Update(keyMsg("enter"))
	app = model.(*App)
	assert.Empty(t, app.openFolder)
}

func TestApp_DeleteSelected(t *testing.T) {
	app, grid := newTestApp(t)
	folderID, _ := seedGrid(t, grid)
	app.reload()

	model, _ := app.Update(keyMsg("d"))
	app = model.(*App)

	// The folder is gone; its site was promoted to root.
	_, ok := grid.Projection().Get(folderID)
	assert.False(t, ok)
	assert.Len(t, app.list.Items(), 2)
}

func TestApp_QuitKey(t *testing.T) {
	app, _ := newTestApp(t)

	_, cmd := app.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_WindowSizeMakesReady(t *testing.T) {
	app, _ := newTestApp(t)

	model, _ := app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	app = model.(*App)
	assert.True(t, app.ready)
	assert.Equal(t, 80, app.width)
}

func TestApp_ViewShowsStatusLine(t *testing.T) {
	app, grid := newTestApp(t)
	seedGrid(t, grid)
	app.reload()
	model, _ := app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	app = model.(*App)

	view := app.View()
	assert.Contains(t, view, "q quit")
}
