package tui

import (
	"ai-life-planner/internal/session"

	tea "github.com/charmbracelet/bubbletea"
)

// MsgStateChanged tells the model to re-read the controller snapshot.
type MsgStateChanged struct{}

// Feed carries controller changes into the bubbletea loop. Several changes
// between two reads collapse into one message.
type Feed struct {
	ch chan struct{}
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	return &Feed{ch: make(chan struct{}, 1)}
}

// Listen is a session.Listener. It never blocks.
func (f *Feed) Listen(session.Snapshot) {
	select {
	case f.ch <- struct{}{}:
	default:
	}
}

// wait returns a command that delivers the next change.
func (f *Feed) wait() tea.Cmd {
	return func() tea.Msg {
		<-f.ch
		return MsgStateChanged{}
	}
}
