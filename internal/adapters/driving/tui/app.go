package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/gridsync/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/gridsync/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/gridsync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/gridsync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/gridsync/internal/adapters/driving/tui/views/dashboard"
	"github.com/custodia-labs/gridsync/internal/core/domain"
)

// historyLimit is how many cycles are loaded for the dashboard.
const historyLimit = 5

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles    *styles.Styles
	keymap    *keymap.KeyMap
	dashboard *dashboard.View
	statusBar *status.Bar

	// states is the subscription opened by Init.
	states      <-chan domain.SyncState
	unsubscribe func()

	settings *domain.SyncSettings
	showHelp bool

	// width and height are terminal dimensions.
	width  int
	height int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:     ports,
		ctx:       context.Background(),
		styles:    s,
		keymap:    km,
		dashboard: dashboard.NewView(s),
		statusBar: status.NewBar(s, km),
		width:     80,
		height:    24,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Close ends the state subscription. Safe to call more than once.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}

// Init implements tea.Model.
// It subscribes to the state stream and loads the queue, history and settings.
func (a *App) Init() tea.Cmd {
	a.states, a.unsubscribe = a.ports.Sync.Subscribe()

	return tea.Batch(
		tea.SetWindowTitle("gridsync"),
		waitForState(a.states),
		a.loadPending(),
		a.loadHistory(),
		a.loadSettings(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.dashboard.SetDimensions(msg.Width, msg.Height)
		a.statusBar.SetWidth(msg.Width)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.StateChanged:
		return a, a.applyState(msg.State)

	case messages.StreamClosed:
		a.statusBar.SetState(status.StateError)
		a.statusBar.SetMessage("sync service stopped")
		return a, nil

	case messages.SyncFinished:
		if msg.State.HasError() {
			a.statusBar.SetState(status.StateError)
			a.statusBar.SetMessage(msg.State.Error)
		} else {
			a.statusBar.SetState(status.StateReady)
			a.statusBar.SetMessage("Sync completed")
		}
		return a, tea.Batch(a.loadPending(), a.loadHistory())

	case messages.PendingLoaded:
		a.dashboard.SetRecords(msg.Records)
		return a, nil

	case messages.HistoryLoaded:
		if msg.Err != nil {
			a.statusBar.SetState(status.StateError)
			a.statusBar.SetMessage(msg.Err.Error())
			return a, nil
		}
		a.dashboard.SetHistory(msg.Results)
		return a, nil

	case messages.SettingsLoaded:
		if msg.Err == nil {
			a.settings = msg.Settings
			a.dashboard.SetSettings(msg.Settings)
		}
		return a, nil

	case messages.ErrorOccurred:
		a.statusBar.SetState(status.StateError)
		a.statusBar.SetMessage(msg.Err.Error())
		return a, nil
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keymap.Quit):
		a.Close()
		return a, tea.Quit

	case key.Matches(msg, a.keymap.Help):
		a.showHelp = !a.showHelp
		if a.showHelp {
			a.statusBar.SetState(status.StateHelp)
		} else {
			a.statusBar.Clear()
		}
		return a, nil

	case key.Matches(msg, a.keymap.Sync):
		a.statusBar.SetState(status.StateSyncing)
		a.statusBar.SetMessage("")
		return a, a.runSync()

	case key.Matches(msg, a.keymap.ToggleAuto):
		return a, a.toggleAutoSync()

	case key.Matches(msg, a.keymap.Refresh):
		return a, tea.Batch(a.loadPending(), a.loadHistory(), a.loadSettings())

	case key.Matches(msg, a.keymap.Up), key.Matches(msg, a.keymap.Down):
		_, cmd := a.dashboard.Pending().Update(msg)
		return a, cmd
	}
	return a, nil
}

// applyState shows a snapshot and reloads the queue when its counts change
// or a cycle ends.
func (a *App) applyState(state domain.SyncState) tea.Cmd {
	prev := a.dashboard.State()
	a.dashboard.SetState(state)

	cmds := []tea.Cmd{waitForState(a.states)}
	if state.PendingRecords != prev.PendingRecords || state.FailedRecords != prev.FailedRecords {
		cmds = append(cmds, a.loadPending())
	}
	if prev.IsSyncing && !state.IsSyncing {
		cmds = append(cmds, a.loadHistory())
	}
	if state.IsSyncing {
		a.statusBar.SetState(status.StateSyncing)
	} else if a.statusBar.State() == status.StateSyncing {
		a.statusBar.SetState(status.StateReady)
	}
	return tea.Batch(cmds...)
}

func (a *App) toggleAutoSync() tea.Cmd {
	sync := a.ports.Sync
	if sync.State().AutoSync {
		sync.DisableAutoSync()
		a.statusBar.SetState(status.StateReady)
		a.statusBar.SetMessage("Auto sync off")
		return nil
	}

	interval := domain.DefaultSyncInterval
	if a.settings != nil && a.settings.Interval > 0 {
		interval = a.settings.Interval
	}
	sync.EnableAutoSync(interval)
	a.statusBar.SetState(status.StateReady)
	a.statusBar.SetMessage(fmt.Sprintf("Auto sync every %s", interval))
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	body := a.dashboard.View()
	if a.showHelp {
		body = a.renderHelp()
	}
	return body + "\n\n" + a.statusBar.View()
}

func (a *App) renderHelp() string {
	lines := []string{a.styles.Title.Render("Keys"), ""}
	for _, group := range a.keymap.FullHelp() {
		for _, b := range group {
			h := b.Help()
			lines = append(lines, fmt.Sprintf("  %-8s %s", h.Key, a.styles.Muted.Render(h.Desc)))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// Commands.

func waitForState(states <-chan domain.SyncState) tea.Cmd {
	return func() tea.Msg {
		state, ok := <-states
		if !ok {
			return messages.StreamClosed{}
		}
		return messages.StateChanged{State: state}
	}
}

func (a *App) runSync() tea.Cmd {
	sync := a.ports.Sync
	ctx := a.ctx
	return func() tea.Msg {
		select {
		case <-sync.Sync(ctx):
		case <-ctx.Done():
			return messages.ErrorOccurred{Err: ctx.Err()}
		}
		return messages.SyncFinished{State: sync.State()}
	}
}

func (a *App) loadPending() tea.Cmd {
	sync := a.ports.Sync
	return func() tea.Msg {
		return messages.PendingLoaded{Records: sync.PendingChanges()}
	}
}

func (a *App) loadHistory() tea.Cmd {
	sync := a.ports.Sync
	ctx := a.ctx
	return func() tea.Msg {
		results, err := sync.History(ctx, historyLimit)
		return messages.HistoryLoaded{Results: results, Err: err}
	}
}

func (a *App) loadSettings() tea.Cmd {
	settings := a.ports.Settings
	if settings == nil {
		return nil
	}
	return func() tea.Msg {
		s, err := settings.Get()
		return messages.SettingsLoaded{Settings: s, Err: err}
	}
}
