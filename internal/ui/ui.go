package ui

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/vibecast/internal/formatter"
	"github.com/desertthunder/vibecast/internal/models"
	"github.com/desertthunder/vibecast/internal/services"
	"github.com/desertthunder/vibecast/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	AnalyzingView
	ProfileView
)

// PlaylistSource returns the raw playlist collection of the token's owner.
type PlaylistSource interface {
	UserPlaylists(ctx context.Context, token string) (json.RawMessage, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	token        string
	view         ViewState
	source       PlaylistSource
	analyzer     tasks.Analyzer
	width        int
	height       int
	loaded       bool
	playlistList list.Model
	selected     *models.Playlist
	progressChan chan tasks.ProgressUpdate
	done         chan Msg
	progress     tasks.ProgressUpdate
	profile      *models.MoodProfile
	err          error
	spinner      spinner.Model
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model acting on behalf of token.
func NewModel(ctx context.Context, token string, source PlaylistSource, analyzer tasks.Analyzer) *Model {
	return &Model{
		ctx:      ctx,
		token:    token,
		view:     PlaylistListView,
		source:   source,
		analyzer: analyzer,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init initializes the TUI by fetching the caller's playlists.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchPlaylists(), m.spinner.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.loaded {
			m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case AnalyzingView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case ProfileView:
			return m.handleProfileKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateList(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistsFetched:
		data := msg.data.(playlistsFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		items := make([]list.Item, len(data.playlists))
		for i, pl := range data.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = "Your Playlists"
		m.playlistList.SetShowHelp(false)
		m.playlistList.SetSize(max(m.width-4, 0), max(m.height-8, 0))
		m.loaded = true
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgAnalysisComplete:
		data := msg.data.(analysisComplete)
		m.profile = data.profile
		m.err = data.err
		m.progressChan = nil
		m.done = nil
		m.view = ProfileView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view == PlaylistListView {
		return formatter.Failure(fmt.Sprintf("Error: %v", m.err)) + "\n\nPress q to quit"
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case AnalyzingView:
		return m.renderAnalyzing()
	case ProfileView:
		return m.renderProfile()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loaded && m.playlistList.FilterState() == list.Filtering {
		return m.updateList(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if !m.loaded {
			return m, nil
		}
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			m.selected = &pl.playlist
			return m, m.startAnalysis()
		}
		return m, nil
	}

	return m.updateList(msg)
}

func (m *Model) handleProfileKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = PlaylistListView
		m.profile = nil
		m.err = nil
		return m, nil
	case key.Matches(msg, m.keys.retry):
		return m, m.startAnalysis()
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.view != PlaylistListView || !m.loaded {
		return m, nil
	}
	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		raw, err := m.source.UserPlaylists(m.ctx, m.token)
		if err != nil {
			return playlistsFetchedMsg(nil, err)
		}
		playlists, _, err := services.DecodePlaylists(raw)
		return playlistsFetchedMsg(playlists, err)
	}
}

// startAnalysis runs the analyzer in the background. The result is queued on done before the
// progress channel closes, so waitForProgress always finds it.
func (m *Model) startAnalysis() tea.Cmd {
	if m.selected == nil {
		return nil
	}

	m.view = AnalyzingView
	m.err = nil
	m.profile = nil
	m.progress = tasks.ProgressUpdate{Message: "Starting..."}

	progress := make(chan tasks.ProgressUpdate, 8)
	done := make(chan Msg, 1)
	m.progressChan = progress
	m.done = done

	playlistID := m.selected.ID
	go func() {
		profile, err := m.analyzer.Analyze(m.ctx, playlistID, m.token, progress)
		done <- analysisCompleteMsg(profile, err)
		close(progress)
	}()

	return tea.Batch(m.waitForProgress(), m.spinner.Tick)
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.done
	return func() tea.Msg {
		if progress == nil {
			return nil
		}
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderPlaylistList() string {
	if !m.loaded {
		return fmt.Sprintf("%s Loading playlists...", m.spinner.View())
	}
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}

func (m *Model) renderAnalyzing() string {
	title := formatter.Title(fmt.Sprintf("Analyzing '%s'", m.selected.Name))

	step := ""
	if m.progress.Total > 0 {
		step = fmt.Sprintf("[%d/%d] ", m.progress.Step, m.progress.Total)
	}
	return fmt.Sprintf("%s\n%s %s%s", title, m.spinner.View(), step, m.progress.Message)
}

func (m *Model) renderProfile() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.retry, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s", formatter.Failure(fmt.Sprintf("Analysis failed: %v", m.err)), helpView)
	}
	if m.profile == nil {
		return fmt.Sprintf("%s\n\n%s", formatter.Failure("No result available"), helpView)
	}

	title := formatter.Title(m.selected.Name)
	return fmt.Sprintf("%s\n%s\n\n%s", title, formatter.RenderProfile(m.profile), helpView)
}
