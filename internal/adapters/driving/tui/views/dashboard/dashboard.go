// Package dashboard provides the sync dashboard view.
package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/gridsync/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/gridsync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/gridsync/internal/core/domain"
)

// historyRows is how many cycles the history panel shows.
const historyRows = 5

// View renders sync state, the queue and recent cycles.
type View struct {
	styles   *styles.Styles
	pending  *list.PendingList
	state    domain.SyncState
	settings *domain.SyncSettings
	history  []domain.CycleResult
	width    int
	height   int
}

// NewView creates a dashboard view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:  s,
		pending: list.NewPendingList(s),
		width:   80,
		height:  24,
	}
}

// SetState updates the displayed sync state.
func (v *View) SetState(state domain.SyncState) {
	v.state = state
}

// State returns the displayed sync state.
func (v *View) State() domain.SyncState {
	return v.state
}

// SetSettings updates the displayed settings.
func (v *View) SetSettings(settings *domain.SyncSettings) {
	v.settings = settings
}

// SetRecords updates the queue list.
func (v *View) SetRecords(records []domain.SyncRecord) {
	v.pending.SetRecords(records)
}

// SetHistory updates the recent cycles.
func (v *View) SetHistory(results []domain.CycleResult) {
	if len(results) > historyRows {
		results = results[:historyRows]
	}
	v.history = results
}

// Pending returns the queue list component.
func (v *View) Pending() *list.PendingList {
	return v.pending
}

// SetDimensions sets the view size.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height

	// Header, state panel and history take roughly 16 lines.
	listHeight := height - 16
	if listHeight < 4 {
		listHeight = 4
	}
	v.pending.SetSize(width, listHeight)
}

// View renders the dashboard.
func (v *View) View() string {
	sections := []string{
		v.styles.Title.Render("gridsync"),
		v.renderState(),
		v.pending.View(),
		v.renderHistory(),
	}
	return strings.Join(sections, "\n\n")
}

func (v *View) renderState() string {
	phase := v.styles.Phase(v.state.Phase).Render(string(v.state.Phase))

	auto := "off"
	if v.state.AutoSync {
		auto = "on"
		if v.settings != nil {
			auto = fmt.Sprintf("every %s", v.settings.Interval)
		}
	}

	server := "(not configured)"
	if v.settings != nil && v.settings.ServerURL != "" {
		server = v.settings.ServerURL
	}

	rows := []string{
		v.row("Phase", phase),
		v.row("Server", v.styles.Value.Render(server)),
		v.row("Last sync", v.styles.Value.Render(formatLastSync(v.state.LastSyncTime))),
		v.row("Pending", v.styles.Warning.Render(fmt.Sprint(v.state.PendingRecords))),
		v.row("Failed", v.failedCount()),
		v.row("Auto sync", v.styles.Value.Render(auto)),
	}
	if v.state.HasError() {
		rows = append(rows, v.row("Error", v.styles.Error.Render(v.state.Error)))
	}

	width := v.width - 4
	if width < 20 {
		width = 20
	}
	return v.styles.Border.Width(width).Render(strings.Join(rows, "\n"))
}

func (v *View) failedCount() string {
	text := fmt.Sprint(v.state.FailedRecords)
	if v.state.FailedRecords > 0 {
		return v.styles.Error.Render(text)
	}
	return v.styles.Muted.Render(text)
}

func (v *View) row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, v.styles.Label.Render(label), value)
}

func (v *View) renderHistory() string {
	header := v.styles.Subtitle.Render("Recent cycles")
	if len(v.history) == 0 {
		return header + "\n\n" + v.styles.Muted.Render("No cycles yet")
	}

	lines := []string{header, ""}
	for _, r := range v.history {
		started := r.StartedAt.Local().Format("01-02 15:04:05")
		if r.Success {
			lines = append(lines, v.styles.Success.Render("ok    ")+v.styles.Normal.Render(fmt.Sprintf(
				"%s  up %d  rejected %d  down %d  %s",
				started, r.Uploaded, r.Rejected, r.Downloaded, r.Duration().Round(time.Millisecond))))
			continue
		}
		lines = append(lines, v.styles.Error.Render("failed")+v.styles.Muted.Render(
			fmt.Sprintf("%s  %s", started, r.Error)))
	}
	return strings.Join(lines, "\n")
}

func formatLastSync(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
