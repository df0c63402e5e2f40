// Package tui is the interactive show browser. It follows The Elm
// Architecture: App holds the state, Update folds messages into it and View
// renders it. Every screen draws exactly what the session's view gate decides.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/concepto-studio/concepto/internal/session"
	"github.com/concepto-studio/concepto/internal/showsync"
	"github.com/concepto-studio/concepto/pkg/catalog"
)

// appState represents which screen we're on.
type appState int

const (
	stateShows appState = iota // Show picker
	stateShow                  // One show's working set
)

const (
	defaultPollInterval = 500 * time.Millisecond
	maxListedEntries    = 8
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	readyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5B8DEF")).
			Padding(0, 1)
)

// categoryCycle is the order the "c" key steps through; "" shows every asset.
var categoryCycle = []catalog.AssetCategory{
	"",
	catalog.CategoryCharacter,
	catalog.CategoryLocation,
	catalog.CategoryGadget,
	catalog.CategoryVehicle,
	catalog.CategoryTexture,
	catalog.CategoryBackground,
}

type catalogLoadedMsg struct {
	err error
}

type loadSettledMsg struct {
	outcome showsync.Outcome
}

type pollMsg struct{}

// showItem implements list.Item for a show.
type showItem struct {
	show catalog.Show
}

func (i showItem) Title() string       { return i.show.Name }
func (i showItem) Description() string { return i.show.Description }
func (i showItem) FilterValue() string { return i.show.Name }

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithPollInterval overrides how often the gate is re-evaluated.
func WithPollInterval(d time.Duration) AppOption {
	return func(a *App) {
		if d > 0 {
			a.pollInterval = d
		}
	}
}

// App is the browser model.
type App struct {
	ctx  context.Context
	sess *session.Session

	state        appState
	shows        list.Model
	spinner      spinner.Model
	decision     showsync.Decision
	pollInterval time.Duration
	lastOutcome  *showsync.Outcome

	width  int
	height int
}

// NewApp creates a browser over sess. ctx bounds every load the browser
// starts.
func NewApp(ctx context.Context, sess *session.Session, opts ...AppOption) *App {
	shows := list.New(nil, list.NewDefaultDelegate(), 80, 20)
	shows.Title = "Shows"
	shows.SetShowStatusBar(false)
	shows.SetFilteringEnabled(false)

	app := &App{
		ctx:          ctx,
		sess:         sess,
		state:        stateShows,
		shows:        shows,
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	app.decision = sess.Decision()
	return app
}

// Init starts the catalog load, the spinner and the gate poll.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadCatalog(), a.spinner.Tick, a.poll())
}

func (a *App) loadCatalog() tea.Cmd {
	return func() tea.Msg {
		return catalogLoadedMsg{err: a.sess.LoadCatalog(a.ctx)}
	}
}

func (a *App) poll() tea.Cmd {
	return tea.Tick(a.pollInterval, func(time.Time) tea.Msg { return pollMsg{} })
}

// waitFor settles into a loadSettledMsg once req is done.
func (a *App) waitFor(req *showsync.LoadRequest) tea.Cmd {
	return func() tea.Msg {
		if req == nil {
			return loadSettledMsg{}
		}
		outcome, _ := req.Wait(a.ctx)
		return loadSettledMsg{outcome: outcome}
	}
}

// Update folds a message into the model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.shows.SetSize(max(0, msg.Width-4), max(0, msg.Height-6))
		return a, nil

	case catalogLoadedMsg:
		a.refreshShows()
		a.decision = a.sess.View(a.ctx)
		return a, nil

	case loadSettledMsg:
		outcome := msg.outcome
		a.lastOutcome = &outcome
		a.refreshShows()
		a.decision = a.sess.View(a.ctx)
		return a, nil

	case pollMsg:
		a.decision = a.sess.View(a.ctx)
		return a, a.poll()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "r":
		if a.decision.Kind != showsync.DecisionError {
			return a, nil
		}
		return a, a.retry()
	}

	switch a.state {
	case stateShows:
		switch msg.String() {
		case "q":
			return a, tea.Quit
		case "enter":
			return a.openSelected()
		}
		var cmd tea.Cmd
		a.shows, cmd = a.shows.Update(msg)
		return a, cmd

	case stateShow:
		switch msg.String() {
		case "q":
			return a, tea.Quit
		case "esc", "backspace":
			_, _ = a.sess.SelectShow(a.ctx, "")
			a.state = stateShows
			a.lastOutcome = nil
			a.decision = a.sess.View(a.ctx)
			return a, nil
		case "c":
			a.nextCategory()
			return a, nil
		}
	}
	return a, nil
}

func (a *App) openSelected() (tea.Model, tea.Cmd) {
	item, ok := a.shows.SelectedItem().(showItem)
	if !ok {
		return a, nil
	}
	req, err := a.sess.SelectShow(a.ctx, item.show.ID)
	if err != nil {
		// The catalog changed under us; reload it.
		return a, a.loadCatalog()
	}
	a.state = stateShow
	a.lastOutcome = nil
	a.decision = a.sess.View(a.ctx)
	return a, a.waitFor(req)
}

func (a *App) retry() tea.Cmd {
	return func() tea.Msg {
		req, err := a.sess.Retry(a.ctx)
		if err != nil {
			return catalogLoadedMsg{err: err}
		}
		if req == nil {
			return catalogLoadedMsg{}
		}
		outcome, _ := req.Wait(a.ctx)
		return loadSettledMsg{outcome: outcome}
	}
}

func (a *App) refreshShows() {
	shows := a.sess.Shows()
	items := make([]list.Item, len(shows))
	for i, show := range shows {
		items[i] = showItem{show: show}
	}
	a.shows.SetItems(items)
}

func (a *App) nextCategory() {
	current := a.sess.Selection().Category
	next := categoryCycle[0]
	for i, c := range categoryCycle {
		if c == current {
			next = categoryCycle[(i+1)%len(categoryCycle)]
			break
		}
	}
	_ = a.sess.SelectCategory(next)
}

// View renders the current screen.
func (a *App) View() string {
	var body string
	switch a.decision.Kind {
	case showsync.DecisionLoading:
		body = fmt.Sprintf("%s Loading %s...", a.spinner.View(), a.decision.Label)
	case showsync.DecisionError:
		body = errorStyle.Render("⚠ "+a.decision.Reason) + "\n\n" + mutedStyle.Render("press r to retry")
	default:
		if a.state == stateShows || a.decision.Data == nil {
			body = a.shows.View()
		} else {
			body = a.renderShow(a.decision)
		}
	}

	var footer string
	if a.state == stateShows {
		footer = "enter open · q quit"
	} else {
		footer = "esc back · c category · r retry · q quit"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Concepto"),
		"",
		body,
		"",
		mutedStyle.Render(footer),
	)
}

func (a *App) renderShow(d showsync.Decision) string {
	name := d.ShowID
	if show, ok := a.sess.Show(d.ShowID); ok {
		name = show.Name
	}
	counts := d.Data.Counts()

	lines := []string{
		titleStyle.Render(name),
		readyStyle.Render(fmt.Sprintf("%d assets · %d episodes · %d episode ideas · %d general ideas · %d plot themes",
			counts[catalog.CollectionAssets], counts[catalog.CollectionEpisodes], counts[catalog.CollectionEpisodeIdeas],
			counts[catalog.CollectionGeneralIdeas], counts[catalog.CollectionPlotThemes])),
		"",
		"Episodes",
	}
	for i, ep := range d.Data.Episodes {
		if i == maxListedEntries {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("  … %d more", len(d.Data.Episodes)-i)))
			break
		}
		lines = append(lines, fmt.Sprintf("  %d. %s", ep.EpisodeNumber, ep.Title))
	}

	category := a.sess.Selection().Category
	heading := "Assets"
	if category != "" {
		heading = fmt.Sprintf("Assets (%s)", category)
	}
	lines = append(lines, "", heading)
	assets := visibleAssets(d.Data.Assets, category)
	for i, asset := range assets {
		if i == maxListedEntries {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("  … %d more", len(assets)-i)))
			break
		}
		lines = append(lines, fmt.Sprintf("  %s %s", asset.Name, mutedStyle.Render("["+string(asset.Category)+"]")))
	}

	if a.lastOutcome != nil && a.lastOutcome.Status == showsync.OutcomeSkipped {
		lines = append(lines, "", mutedStyle.Render("up to date"))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// visibleAssets filters the decision's own data so the screen never mixes
// snapshots.
func visibleAssets(assets []catalog.Asset, category catalog.AssetCategory) []catalog.Asset {
	if category == "" {
		return assets
	}
	out := make([]catalog.Asset, 0, len(assets))
	for _, a := range assets {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out
}
