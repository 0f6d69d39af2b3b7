package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"cratesync/internal/engine"
	"cratesync/internal/models"
	"cratesync/internal/playlists"
	"cratesync/internal/services"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	ConfirmView
	SyncingView
	ResultView
)

// Model represents the playlist browser state.
type Model struct {
	ctx      context.Context
	view     ViewState
	store    *playlists.Store
	engine   *engine.Engine
	remote   services.RemoteClient
	width    int
	height   int
	list     list.Model
	counts   map[string]int
	selected *models.SmartPlaylist
	err      error
	help     help.Model
	keys     keyMap
}

// keyMap defines the key bindings for the TUI.
type keyMap struct {
	up    key.Binding
	down  key.Binding
	enter key.Binding
	back  key.Binding
	yes   key.Binding
	no    key.Binding
	quit  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "sync")),
		back:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		yes:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
		quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.enter, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.back, k.yes, k.no, k.quit},
	}
}

// playlistItem wraps [models.SmartPlaylist] to implement list.Item.
type playlistItem struct {
	playlist models.SmartPlaylist
	count    int  // remote track count
	known    bool // whether the count lookup succeeded
}

func (i playlistItem) FilterValue() string { return i.playlist.PlaylistName }
func (i playlistItem) Title() string {
	status := styles.warn.Render("○ inactive")
	if i.playlist.IsActive {
		status = styles.ok.Render("● active")
	}
	return fmt.Sprintf("%s %s", i.playlist.PlaylistName, status)
}

func (i playlistItem) Description() string {
	desc := DescribeCriteria(i.playlist.Criteria)
	if !i.known {
		return fmt.Sprintf("%s • remote count unknown", desc)
	}
	if i.count != len(i.playlist.TrackURIs) {
		return fmt.Sprintf("%s • %s", desc, styles.warn.Render("needs sync"))
	}
	return fmt.Sprintf("%s • %d tracks", desc, i.count)
}

// DescribeCriteria renders a one-line human summary of a criteria value.
func DescribeCriteria(c models.Criteria) string {
	var parts []string

	if n := len(c.ActiveTagFilters); n > 0 {
		mode := "all of"
		if c.IsOrFilterMode {
			mode = "any of"
		}
		parts = append(parts, fmt.Sprintf("%s %d tags", mode, n))
	}
	if n := len(c.ExcludedTagFilters); n > 0 {
		parts = append(parts, fmt.Sprintf("excluding %d tags", n))
	}
	if len(c.RatingFilters) > 0 {
		parts = append(parts, fmt.Sprintf("rating in %v", c.RatingFilters))
	}
	if c.EnergyMinFilter != nil || c.EnergyMaxFilter != nil {
		parts = append(parts, fmt.Sprintf("energy %s", describeBounds(intBound(c.EnergyMinFilter), intBound(c.EnergyMaxFilter))))
	}
	if c.BpmMinFilter != nil || c.BpmMaxFilter != nil {
		parts = append(parts, fmt.Sprintf("bpm %s", describeBounds(floatBound(c.BpmMinFilter), floatBound(c.BpmMaxFilter))))
	}

	if len(parts) == 0 {
		return "matches everything"
	}
	return strings.Join(parts, ", ")
}

func intBound(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}

func floatBound(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%g", *v)
}

func describeBounds(min, max string) string {
	switch {
	case min != "" && max != "":
		return fmt.Sprintf("%s-%s", min, max)
	case min != "":
		return fmt.Sprintf("≥%s", min)
	default:
		return fmt.Sprintf("≤%s", max)
	}
}

type countsFetchedMsg struct {
	counts map[string]int
	err    error
}

type syncDoneMsg struct {
	err error
}

// NewModel creates a new browser model with the provided dependencies.
func NewModel(ctx context.Context, store *playlists.Store, eng *engine.Engine, remote services.RemoteClient) *Model {
	m := &Model{
		ctx:    ctx,
		view:   PlaylistListView,
		store:  store,
		engine: eng,
		remote: remote,
		help:   help.New(),
		keys:   newKeyMap(),
	}
	m.rebuildList()
	return m
}

// Init kicks off the best-effort remote count lookup.
func (m *Model) Init() tea.Cmd {
	return m.fetchCounts()
}

func (m *Model) fetchCounts() tea.Cmd {
	return func() tea.Msg {
		ids := make([]string, 0)
		for _, p := range m.store.All() {
			ids = append(ids, p.PlaylistID)
		}
		counts, err := m.remote.GetPlaylistTrackCounts(m.ctx, ids)
		return countsFetchedMsg{counts: counts, err: err}
	}
}

func (m *Model) startSync(playlistID string) tea.Cmd {
	return func() tea.Msg {
		m.engine.EnqueueFullSync(m.ctx, playlistID)
		err := m.engine.Wait(m.ctx)
		return syncDoneMsg{err: err}
	}
}

func (m *Model) rebuildList() {
	all := m.store.All()
	items := make([]list.Item, len(all))
	for i, p := range all {
		item := playlistItem{playlist: p}
		if m.counts != nil {
			if c, ok := m.counts[p.PlaylistID]; ok {
				item.count = c
				item.known = true
			}
		}
		items[i] = item
	}

	m.list = list.New(items, list.NewDefaultDelegate(), m.width-4, m.height-8)
	m.list.Title = "Smart Playlists"
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handleListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case countsFetchedMsg:
		if msg.err == nil {
			m.counts = msg.counts
			m.rebuildList()
		}
		return m, nil

	case syncDoneMsg:
		m.err = msg.err
		m.view = ResultView
		return m, m.fetchCounts()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.list.View() + "\n" + m.help.View(m.keys)
	case ConfirmView:
		return m.renderConfirm()
	case SyncingView:
		return styles.title.Render("Syncing...") + "\n" + styles.help.Render("remote calls in progress")
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) renderConfirm() string {
	if m.selected == nil {
		return ""
	}
	return styles.title.Render(fmt.Sprintf("Sync '%s' now?", m.selected.PlaylistName)) +
		"\n" + DescribeCriteria(m.selected.Criteria) +
		"\n\n" + styles.help.Render("y: sync • n/esc: back")
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Sync failed: %v", m.err)) +
			"\n" + styles.help.Render("esc: back • q: quit")
	}
	return styles.ok.Render("Sync complete") +
		"\n" + styles.help.Render("esc: back • q: quit")
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if selected := m.list.SelectedItem(); selected != nil {
			if item, ok := selected.(playlistItem); ok {
				p := item.playlist
				m.selected = &p
				m.view = ConfirmView
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = PlaylistListView
		return m, nil
	case "y":
		m.view = SyncingView
		return m, m.startSync(m.selected.PlaylistID)
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.rebuildList()
		m.view = PlaylistListView
		return m, nil
	}
	return m, nil
}

// Run starts the browser program.
func Run(ctx context.Context, store *playlists.Store, eng *engine.Engine, remote services.RemoteClient) error {
	model := NewModel(ctx, store, eng, remote)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
