// Package tui renders the deployment log in a terminal, with the same prompt
// and waitlist flow as the landing page.
package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/splax/synthteams/internal/domain"
)

// programRef is a shared reference to the tea.Program for goroutine sends.
type programRef struct {
	mu sync.Mutex
	p  *tea.Program
}

func (r *programRef) Set(p *tea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p = p
}

func (r *programRef) Send(msg tea.Msg) {
	r.mu.Lock()
	p := r.p
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Clear nils out the program reference, preventing post-exit sends.
func (r *programRef) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p = nil
}

// Run watches feed in the background and blocks until the user quits.
// isInvalid classifies subscriber errors as email shape rejections.
func Run(ctx context.Context, feed Feed, subscriber Subscriber, isInvalid func(error) bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ref := &programRef{}
	model := NewModel(feed, subscriber).WithInvalidEmailCheck(isInvalid)
	model.snapshot = feed.Snapshot()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	ref.Set(p)
	defer ref.Clear()

	go feed.Watch(ctx,
		func(s domain.Snapshot) { ref.Send(SnapshotMsg{Snapshot: s}) },
		func(err error) { ref.Send(FeedErrorMsg{Err: err}) },
	)

	_, err := p.Run()
	return err
}
