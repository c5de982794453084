package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/favsync/internal/repos"
	"github.com/desertthunder/favsync/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	RepoListView ViewState = iota
	ConfirmView
	SyncView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       *tasks.SyncEngine
	repositories []*repos.Identity
	width        int
	height       int
	repoList     list.Model
	selected     *repos.Identity
	progressChan chan tasks.ProgressUpdate
	syncDone     chan syncCompleteMsg
	progress     tasks.ProgressUpdate
	result       *tasks.SyncResult
	err          error
	help         help.Model
	keys         keyMap
}

// keyMap defines the key bindings for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	yes     key.Binding
	no      key.Binding
	restart key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		yes: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "yes"),
		),
		no: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "no"),
		),
		restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "another sync"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.back, k.yes, k.no},
		{k.restart, k.quit},
	}
}

type progressUpdateMsg tasks.ProgressUpdate

type syncCompleteMsg struct {
	result *tasks.SyncResult
	err    error
}

// NewModel creates a new TUI model over the known repositories.
func NewModel(ctx context.Context, repositories []*repos.Identity, engine *tasks.SyncEngine) *Model {
	return &Model{
		ctx:          ctx,
		view:         RepoListView,
		engine:       engine,
		repositories: repositories,
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init builds the repository list.
func (m *Model) Init() tea.Cmd {
	items := make([]list.Item, len(m.repositories))
	for i, identity := range m.repositories {
		items[i] = repoItem{identity: identity}
	}
	m.repoList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.repoList.Title = "Repositories"
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.repoList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case RepoListView:
			return m.handleRepoListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case syncCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case RepoListView:
		return m.renderRepoList()
	case ConfirmView:
		return m.renderConfirm()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleRepoListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.repoList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(repoItem); ok {
				m.selected = item.identity
				m.view = ConfirmView
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.repoList, cmd = m.repoList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = RepoListView
		return m, nil
	case "y":
		m.view = SyncView
		return m, m.startSync()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = RepoListView
		m.selected = nil
		m.result = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == RepoListView {
		m.repoList, cmd = m.repoList.Update(msg)
	}
	return m, cmd
}

func (m *Model) startSync() tea.Cmd {
	progressChan := make(chan tasks.ProgressUpdate, 50)
	m.progressChan = progressChan

	done := make(chan syncCompleteMsg, 1)
	go func() {
		result, err := m.engine.Pull(m.ctx, m.selected.RepoName, progressChan)
		done <- syncCompleteMsg{result: result, err: err}
		close(progressChan)
	}()
	m.syncDone = done

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan := m.progressChan
	done := m.syncDone
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}
		update, ok := <-progressChan
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderRepoList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.repoList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Sync '%s' against its remote collection?", m.selected.RepoName))
	info := fmt.Sprintf(
		"\nCollection: %s\nCurator: %s\nMode: %s\nQuality: %s\nTracked items: %d\n",
		m.selected.FavTitle,
		m.selected.FavUpper,
		m.selected.Mode(),
		repos.QualityLabel(m.selected.Quality),
		len(m.selected.VideoList),
	)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderSync() string {
	title := styles.title.Render(fmt.Sprintf("Syncing %s", m.selected.RepoName))

	var phase string
	switch m.progress.Phase {
	case tasks.FetchRemote:
		phase = "Fetching remote collection..."
	case tasks.Delete:
		phase = fmt.Sprintf("Removing departed items (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.Download:
		phase = fmt.Sprintf("Downloading new items (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.Persist:
		phase = "Saving repository state..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Sync failed: %v\n\nPress r for another sync, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r for another sync, q to quit")
	}

	title := styles.ok.Render("✓ Sync Complete!")
	info := fmt.Sprintf(
		"\nDownloaded: %d\nDeleted: %d\nFailed: %d\nTracked items: %d",
		m.result.Downloaded,
		m.result.Deleted,
		m.result.Failed,
		m.result.LedgerSize,
	)

	var failed string
	if len(m.result.Failures) > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("Failed items (%d):", len(m.result.Failures))))
		for _, failure := range m.result.Failures {
			failed += fmt.Sprintf("\n  • %s (%s)", failure.Title, failure.ItemID)
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
