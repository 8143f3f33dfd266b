package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotunisia/internal/fallback"
	"github.com/desertthunder/spotunisia/internal/models"
	"github.com/desertthunder/spotunisia/internal/player"
	"github.com/desertthunder/spotunisia/internal/shared"
	"github.com/desertthunder/spotunisia/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	HomeView ViewState = iota
	SearchView
	LibraryView
	LikedView
	QueueView
	DetailView
)

// tabs are the views reachable with tab, in order.
var tabs = []ViewState{HomeView, SearchView, LibraryView, LikedView, QueueView}

func (v ViewState) String() string {
	switch v {
	case HomeView:
		return "Home"
	case SearchView:
		return "Search"
	case LibraryView:
		return "Library"
	case LikedView:
		return "Liked Songs"
	case QueueView:
		return "Queue"
	case DetailView:
		return "Tracks"
	default:
		return ""
	}
}

const (
	seekStep   = 5 * time.Second
	volumeStep = 0.1
	chromeRows = 9
	maxPending = 16
)

// Loader builds the data behind each view. Implemented by [tasks.Loader].
type Loader interface {
	Home(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.HomeView, error)
	Liked(ctx context.Context, limit int) (*models.Container, error)
	Library(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.LibraryView, error)
	Search(ctx context.Context, term string) (*tasks.SearchView, error)
	Playlist(ctx context.Context, id, title string, progress chan<- tasks.ProgressUpdate) (*models.Container, error)
	Album(ctx context.Context, card tasks.AlbumCard) (*models.Container, error)
}

// Player is the playback surface the TUI drives. Implemented by [player.Controller].
type Player interface {
	State() player.State
	SetKnown(items []models.Track)
	SelectItem(ctx context.Context, item models.Track, container *models.Container) error
	TogglePlayPause() error
	Advance(ctx context.Context) (bool, error)
	Retreat() error
	SeekBy(delta time.Duration) error
	SetVolume(v float64) error
	Progress() (time.Duration, time.Duration)
	Subscribe() <-chan player.State
}

// Downloader saves a track to disk. Implemented by [fallback.Downloader].
type Downloader interface {
	Download(ctx context.Context, track models.Track, dir string) (string, fallback.Resolution, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	loader      Loader
	player      Player
	downloader  Downloader
	downloadDir string
	logger      *log.Logger

	view     ViewState
	previous ViewState
	width    int
	height   int

	lists   map[ViewState]*list.Model
	loading map[ViewState]bool
	errs    map[ViewState]error

	home     *tasks.HomeView
	library  *tasks.LibraryView
	liked    *models.Container
	results  *tasks.SearchView
	detail   *models.Container
	reopen   func() tea.Cmd
	term     string
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	state    player.State
	states   <-chan player.State
	elapsed  time.Duration
	duration time.Duration
	status   string
	actions  chan func() error
	done     chan error
}

// Option configures a [Model].
type Option func(*Model)

// WithDownloader enables the download key, saving into dir.
func WithDownloader(d Downloader, dir string) Option {
	return func(m *Model) {
		m.downloader = d
		m.downloadDir = dir
	}
}

// WithLogger sets the model's logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, loader Loader, p Player, opts ...Option) *Model {
	input := textinput.New()
	input.Placeholder = "Search songs, albums, artists"
	input.Prompt = "/ "
	input.CharLimit = 120

	m := &Model{
		ctx:     ctx,
		loader:  loader,
		player:  p,
		view:    HomeView,
		lists:   make(map[ViewState]*list.Model),
		loading: make(map[ViewState]bool),
		errs:    make(map[ViewState]error),
		input:   input,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:    help.New(),
		keys:    newKeyMap(),
		state:   p.State(),
		actions: make(chan func() error, maxPending),
		done:    make(chan error, maxPending),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = shared.NewLogger(nil)
	}
	m.states = p.Subscribe()
	go m.runActions()
	return m
}

// Init loads the home view and starts listening to the player.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadHome(), m.waitForState(), m.waitForResult(), m.tick(), m.spinner.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range m.lists {
			l.SetSize(m.listWidth(), m.listHeight())
		}
		m.input.Width = max(msg.Width-6, 10)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

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
	case MsgHomeLoaded:
		res := msg.data.(loaded[*tasks.HomeView])
		m.loading[HomeView] = false
		if m.fail(HomeView, res.err) {
			return m, nil
		}
		m.home = res.value
		m.player.SetKnown(m.home.Known())
		m.setList(HomeView, homeTitle(m.home), homeItems(m.home))

	case MsgLibraryLoaded:
		res := msg.data.(loaded[*tasks.LibraryView])
		m.loading[LibraryView] = false
		if m.fail(LibraryView, res.err) {
			return m, nil
		}
		m.library = res.value
		items := append(playlistItems(m.library.Playlists), artistItems(m.library.Artists)...)
		m.setList(LibraryView, "Your Library", items)

	case MsgLikedLoaded:
		res := msg.data.(loaded[*models.Container])
		m.loading[LikedView] = false
		if m.fail(LikedView, res.err) {
			return m, nil
		}
		m.liked = res.value
		m.setList(LikedView, "Liked Songs", trackItems(m.liked, ""))

	case MsgSearchLoaded:
		res := msg.data.(loaded[*tasks.SearchView])
		m.loading[SearchView] = false
		if m.fail(SearchView, res.err) {
			return m, nil
		}
		m.results = res.value
		items := trackItems(m.results.Tracks, "Song")
		items = append(items, albumItems(m.results.Albums)...)
		items = append(items, artistItems(m.results.Artists)...)
		m.setList(SearchView, fmt.Sprintf("Results for %q", m.results.Term), items)

	case MsgContainerLoaded:
		res := msg.data.(loaded[*models.Container])
		m.loading[DetailView] = false
		if m.fail(DetailView, res.err) {
			return m, nil
		}
		m.detail = res.value
		m.setList(DetailView, m.detail.Title, trackItems(m.detail, ""))

	case MsgProgressUpdate:
		p := msg.data.(progress)
		m.status = p.update.Message
		return m, waitForProgress(p.ch)

	case MsgPlayerState:
		m.state = msg.data.(player.State)
		if m.state.Notice != "" {
			m.status = m.state.Notice
		}
		m.refreshQueue()
		return m, m.waitForState()

	case MsgTick:
		t := msg.data.(clock)
		m.elapsed, m.duration = t.elapsed, t.duration
		return m, m.tick()

	case MsgActionDone:
		if err, _ := msg.data.(error); err != nil {
			m.status = describe(err)
		}
		return m, m.waitForResult()

	case MsgDownloaded:
		d := msg.data.(download)
		switch {
		case d.err != nil:
			m.status = fmt.Sprintf("Download failed: %s", describe(d.err))
		case d.path != "":
			m.status = fmt.Sprintf("Saved %s", d.path)
		default:
			m.status = string(d.resolution.Notice)
		}
	}
	return m, nil
}

// fail records err for view and reports whether there was one.
func (m *Model) fail(view ViewState, err error) bool {
	m.errs[view] = err
	if err == nil {
		return false
	}
	m.logger.Error("failed to load view", "view", view, "error", err)
	m.status = describe(err)
	return true
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.input.Focused() {
		return m.handleInputKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.tab):
		return m, m.switchTo(nextTab(m.view))
	case key.Matches(msg, m.keys.search):
		m.switchTo(SearchView)
		m.input.SetValue(m.term)
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.back):
		if m.view == DetailView {
			m.view = m.previous
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		return m, m.choose()
	case key.Matches(msg, m.keys.toggle):
		return m, m.act(func() error { return m.player.TogglePlayPause() })
	case key.Matches(msg, m.keys.next):
		return m, m.act(func() error {
			_, err := m.player.Advance(m.ctx)
			return err
		})
	case key.Matches(msg, m.keys.previous):
		return m, m.act(m.player.Retreat)
	case key.Matches(msg, m.keys.rewind):
		return m, m.act(func() error { return m.player.SeekBy(-seekStep) })
	case key.Matches(msg, m.keys.forward):
		return m, m.act(func() error { return m.player.SeekBy(seekStep) })
	case key.Matches(msg, m.keys.louder):
		v := m.state.Volume + volumeStep
		return m, m.act(func() error { return m.player.SetVolume(v) })
	case key.Matches(msg, m.keys.quieter):
		v := m.state.Volume - volumeStep
		return m, m.act(func() error { return m.player.SetVolume(v) })
	case key.Matches(msg, m.keys.download):
		return m, m.download()
	case key.Matches(msg, m.keys.retry):
		return m, m.retry()
	}

	return m.updateList(msg)
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		m.input.Blur()
		return m, m.runSearch(m.input.Value())
	case tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	l, ok := m.lists[m.view]
	if !ok {
		return m, nil
	}
	var cmd tea.Cmd
	*l, cmd = l.Update(msg)
	return m, cmd
}

// switchTo shows view, loading its data the first time.
func (m *Model) switchTo(view ViewState) tea.Cmd {
	m.view = view
	if _, ok := m.lists[view]; ok || m.loading[view] {
		return nil
	}
	switch view {
	case LibraryView:
		return m.loadLibrary()
	case LikedView:
		return m.loadLiked()
	case QueueView:
		m.refreshQueue()
	}
	return nil
}

func nextTab(view ViewState) ViewState {
	for i, v := range tabs {
		if v == view {
			return tabs[(i+1)%len(tabs)]
		}
	}
	return HomeView
}

// retry reloads the current view.
func (m *Model) retry() tea.Cmd {
	switch m.view {
	case HomeView:
		return m.loadHome()
	case LibraryView:
		return m.loadLibrary()
	case LikedView:
		return m.loadLiked()
	case SearchView:
		if m.term != "" {
			return m.runSearch(m.term)
		}
	case DetailView:
		if m.reopen != nil {
			return m.reopen()
		}
	}
	return nil
}

// choose acts on the highlighted list item.
func (m *Model) choose() tea.Cmd {
	l, ok := m.lists[m.view]
	if !ok {
		return nil
	}

	switch item := l.SelectedItem().(type) {
	case trackItem:
		track, container := item.track, item.container
		return m.act(func() error { return m.player.SelectItem(m.ctx, track, container) })
	case albumItem:
		card := item.card
		return m.open(func() tea.Cmd { return m.loadAlbum(card) })
	case playlistItem:
		pl := item.playlist
		return m.open(func() tea.Cmd { return m.loadPlaylist(pl) })
	case artistItem:
		m.view = SearchView
		return m.runSearch(item.artist.Name)
	}
	return nil
}

// open shows the detail view filled by load.
func (m *Model) open(load func() tea.Cmd) tea.Cmd {
	if m.view != DetailView {
		m.previous = m.view
	}
	m.view = DetailView
	m.detail = nil
	delete(m.lists, DetailView)
	m.reopen = load
	return load()
}

// selected returns the highlighted track, falling back to the current one.
func (m *Model) selected() (models.Track, bool) {
	if l, ok := m.lists[m.view]; ok {
		if item, ok := l.SelectedItem().(trackItem); ok {
			return item.track, true
		}
	}
	if m.state.Current != nil {
		return *m.state.Current, true
	}
	return models.Track{}, false
}

// refreshQueue rebuilds the queue list from the latest player state.
func (m *Model) refreshQueue() {
	queue := &models.Container{ID: m.state.ContainerID, Title: "Up Next", Items: m.state.Queue}
	items := trackItems(queue, "")
	if m.state.Current != nil {
		current := models.Container{ID: m.state.ContainerID, Items: []models.Track{*m.state.Current}}
		items = append(trackItems(&current, "Now Playing"), items...)
	}

	cursor := 0
	if l, ok := m.lists[QueueView]; ok {
		cursor = l.Index()
	}
	m.setList(QueueView, "Queue", items)
	if cursor < len(items) {
		m.lists[QueueView].Select(cursor)
	}
}

func (m *Model) setList(view ViewState, title string, items []list.Item) {
	l := newList(title, items, m.listWidth(), m.listHeight())
	m.lists[view] = &l
}

func (m *Model) listWidth() int  { return max(m.width-4, 20) }
func (m *Model) listHeight() int { return max(m.height-chromeRows, 5) }

func homeTitle(home *tasks.HomeView) string {
	if home.User.DisplayName != "" {
		return fmt.Sprintf("Welcome, %s", home.User.DisplayName)
	}
	return "Home"
}

func homeItems(home *tasks.HomeView) []list.Item {
	top, recommended := "Top Track", "Recommended"
	if home.Placeholder {
		top, recommended = "New Release", "New Release"
	}
	items := trackItems(home.Top, top)
	if home.Recommended != nil && (home.Top == nil || home.Recommended.ID != home.Top.ID) {
		items = append(items, trackItems(home.Recommended, recommended)...)
	}
	items = append(items, albumItems(home.FeaturedAlbums)...)
	items = append(items, playlistItems(home.FeaturedPlaylists)...)
	return items
}

// describe turns err into a status line, pointing at login for session failures.
func describe(err error) string {
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrTokenExpired):
		return "Your session has expired. Quit and run `spotunisia login`."
	case errors.Is(err, shared.ErrNoCurrentItem):
		return "Nothing is playing"
	default:
		return err.Error()
	}
}
