// Package tui is the Bubble Tea front end of the signal archive. It renders
// an engine.View kept current from a runner subscription and turns key
// presses into runner commands.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/signal-archive/internal/engine"
)

// ClockMsg redraws the session timer and advances the glitch animation.
type ClockMsg time.Time

// EventMsg carries one engine event into the Bubble Tea loop.
type EventMsg struct {
	Event engine.Event
}

// ClosedMsg reports that the runner closed the subscription.
type ClosedMsg struct{}

// ReplyMsg carries the result of a command sent with Runner.Do.
type ReplyMsg struct {
	Op    string
	Reply engine.Reply
}

// StatusMsg sets the status line.
type StatusMsg string

func clockCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return ClockMsg(t)
	})
}

// waitForEvent blocks on the subscription and returns the next event.
func waitForEvent(sub *engine.Subscription) tea.Cmd {
	return func() tea.Msg {
		select {
		case e, ok := <-sub.Events():
			if !ok {
				return ClosedMsg{}
			}
			return EventMsg{Event: e}
		case <-sub.Done():
			return ClosedMsg{}
		}
	}
}

func doCmd(r *engine.Runner, op string, cmd engine.Command) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return ReplyMsg{Op: op, Reply: r.Do(ctx, cmd)}
	}
}
