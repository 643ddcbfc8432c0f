// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/gridsync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/gridsync/internal/core/domain"
)

// PendingList displays queued sync records in a scrollable list.
type PendingList struct {
	records  []domain.SyncRecord
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewPendingList creates a new pending list component.
func NewPendingList(s *styles.Styles) *PendingList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &PendingList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Update handles list navigation messages.
func (p *PendingList) Update(msg tea.Msg) (*PendingList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			p.MoveUp()
		case "down", "j":
			p.MoveDown()
		}
	}
	return p, nil
}

// View renders the list.
func (p *PendingList) View() string {
	header := p.styles.Subtitle.Render(fmt.Sprintf("Queue (%d)", len(p.records)))
	if len(p.records) == 0 {
		return header + "\n\n" + p.styles.Muted.Render("No queued changes")
	}

	lines := make([]string, 0, p.height+2)
	lines = append(lines, header, "")

	// Failed records take two lines; budget for that.
	visible := (p.height - 2) / 2
	if visible < 1 {
		visible = 1
	}

	start := 0
	if p.selected >= visible {
		start = p.selected - visible + 1
	}
	end := start + visible
	if end > len(p.records) {
		end = len(p.records)
	}

	for i := start; i < end; i++ {
		lines = append(lines, p.renderRecord(i, &p.records[i]))
	}
	if end < len(p.records) {
		lines = append(lines, p.styles.Muted.Render(fmt.Sprintf("  ... %d more", len(p.records)-end)))
	}

	return strings.Join(lines, "\n")
}

func (p *PendingList) renderRecord(index int, r *domain.SyncRecord) string {
	indicator := "  "
	if index == p.selected {
		indicator = "> "
	}

	target := domain.PayloadIdentifier(r.Data)
	if target == "" {
		target = "new"
	}

	text := fmt.Sprintf("%s%-7s %-12s %-14s %s",
		indicator, r.Action, r.EntityType, truncate(target, 14), r.Timestamp.Local().Format("01-02 15:04:05"))

	var line string
	if index == p.selected {
		line = p.styles.Selected.Render(text)
	} else {
		line = p.styles.Normal.Render(text)
	}
	line += " " + p.styles.Status(r.Status).Render(string(r.Status))

	if r.Status == domain.StatusFailed && r.ErrorMessage != "" {
		maxLen := p.width - 6
		if maxLen < 20 {
			maxLen = 20
		}
		line += "\n" + p.styles.Error.Render("    "+truncate(r.ErrorMessage, maxLen))
	}
	return line
}

// SetRecords replaces the records, keeping the selection in range.
func (p *PendingList) SetRecords(records []domain.SyncRecord) {
	p.records = records
	if p.selected >= len(records) {
		p.selected = len(records) - 1
	}
	if p.selected < 0 {
		p.selected = 0
	}
}

// Records returns the current records.
func (p *PendingList) Records() []domain.SyncRecord {
	return p.records
}

// Selected returns the index of the selected record.
func (p *PendingList) Selected() int {
	return p.selected
}

// MoveUp moves selection up.
func (p *PendingList) MoveUp() {
	if p.selected > 0 {
		p.selected--
	}
}

// MoveDown moves selection down.
func (p *PendingList) MoveDown() {
	if p.selected < len(p.records)-1 {
		p.selected++
	}
}

// SetSize sets the list dimensions.
func (p *PendingList) SetSize(width, height int) {
	p.width = width
	p.height = height
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
