// Package notify provides driven.RefreshNotifier implementations.
package notify

import (
	"github.com/custodia-labs/gridsync/internal/core/ports/driven"
)

// Ensure ChannelNotifier implements the interface.
var _ driven.RefreshNotifier = (*ChannelNotifier)(nil)

// ChannelNotifier signals refreshes on a channel with a single slot.
// Signals that arrive while one is pending coalesce, so NotifyRefresh never blocks.
type ChannelNotifier struct {
	ch chan struct{}
}

// NewChannelNotifier creates a notifier.
func NewChannelNotifier() *ChannelNotifier {
	return &ChannelNotifier{ch: make(chan struct{}, 1)}
}

// NotifyRefresh records a pending refresh.
func (n *ChannelNotifier) NotifyRefresh() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// C returns the channel that receives refresh signals.
func (n *ChannelNotifier) C() <-chan struct{} {
	return n.ch
}

// FuncNotifier adapts a function to driven.RefreshNotifier.
type FuncNotifier func()

// NotifyRefresh calls f.
func (f FuncNotifier) NotifyRefresh() {
	if f != nil {
		f()
	}
}
