package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splax/synthteams/internal/domain"
	"github.com/splax/synthteams/internal/service/simulator"
	"github.com/splax/synthteams/internal/service/viewstate"
)

type trainerStub struct {
	calls int
	err   error
}

func (t *trainerStub) Train(context.Context) (simulator.TrainResult, error) {
	t.calls++
	if t.err != nil {
		return "", t.err
	}
	return simulator.TrainStarted, nil
}

type subscriberStub struct {
	err    error
	emails []string
}

func (s *subscriberStub) Subscribe(ctx context.Context, email string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.emails = append(s.emails, email)
	return "Subscription successful", nil
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m, _ = update(t, m, keyRunes(string(r)))
	}
	return m
}

func TestTrainKeyInLogFocus(t *testing.T) {
	trainer := &trainerStub{}
	m := NewModel(trainer, nil)

	m, cmd := update(t, m, keyRunes("t"))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, TrainResultMsg{Result: simulator.TrainStarted}, msg)
	assert.Equal(t, 1, trainer.calls)

	m, _ = update(t, m, msg)
	assert.Contains(t, m.View(), "training request started")

	trainer.err = errors.New("connection refused")
	_, cmd = update(t, m, keyRunes("t"))
	m, _ = update(t, m, cmd())
	assert.Contains(t, m.View(), "training request failed: connection refused")
}

func TestSubscribeWithoutSiteIsNotSent(t *testing.T) {
	m := NewModel(nil, nil)
	m.view.SubmitJob("designer")

	msg := m.subscribe("a@b.co")()
	assert.Equal(t, viewstate.OutcomeNotSent, msg.(SubscribeResultMsg).Outcome)
	m, _ = update(t, m, msg)
	assert.Contains(t, m.View(), "Not sent (no --api)")
	assert.NotContains(t, m.View(), "Subscription successful")
	assert.False(t, m.view.EmailSubmitted)
}

func TestPromptRevealsWaitlistThenSubscribes(t *testing.T) {
	subs := &subscriberStub{}
	m := NewModel(&trainerStub{}, subs)

	m, _ = update(t, m, keyRunes("i"))
	require.Equal(t, focusJob, m.focus)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.view.ShowWaitlist, "empty description must not reveal the waitlist")

	m = typeText(t, m, "ml researcher")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.view.ShowWaitlist)
	assert.Equal(t, "ml researcher", m.view.JobDescription)
	assert.Equal(t, focusEmail, m.focus)
	assert.Contains(t, m.View(), "type your email to join the waitlist")

	m = typeText(t, m, "a@b.co")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	result := cmd()
	m, _ = update(t, m, result)
	assert.Equal(t, viewstate.OutcomeSubscribed, m.view.Outcome)
	assert.Equal(t, []string{"a@b.co"}, subs.emails)
	assert.Contains(t, m.View(), "Subscription successful")
}

func TestSubscribeOutcomes(t *testing.T) {
	invalidErr := errors.New("400")
	subs := &subscriberStub{err: invalidErr}
	m := NewModel(nil, subs).WithInvalidEmailCheck(func(err error) bool { return errors.Is(err, invalidErr) })

	msg := m.subscribe("nope")()
	assert.Equal(t, viewstate.OutcomeInvalid, msg.(SubscribeResultMsg).Outcome)
	assert.Empty(t, subs.emails, "invalid emails never leave the terminal")

	msg = m.subscribe("a@b.co")()
	assert.Equal(t, viewstate.OutcomeInvalid, msg.(SubscribeResultMsg).Outcome)

	subs.err = errors.New("connection refused")
	msg = m.subscribe("a@b.co")()
	assert.Equal(t, viewstate.OutcomeFailed, msg.(SubscribeResultMsg).Outcome)
}

func TestSnapshotRendering(t *testing.T) {
	m := NewModel(nil, nil)
	assert.Contains(t, m.View(), "waiting for the first agent")

	m, _ = update(t, m, SnapshotMsg{Snapshot: domain.Snapshot{
		Generation: 2,
		Entries: []domain.Entry{
			{ID: 2, AgentName: "HR Assistant Agent", Steps: []string{"one"}, CurrentStep: 0},
			{ID: 1, AgentName: "Sales Agent", Steps: []string{"a", "b", "c"}, CurrentStep: 2, Deployed: true,
				Stats: &domain.Stats{FTEDelta: -4, SavingsPerYear: 200000}},
		},
	}})
	view := m.View()
	assert.Contains(t, view, "HR Assistant Agent")
	assert.Contains(t, view, "> one")
	assert.Contains(t, view, "DEPLOYED")
	assert.Contains(t, view, "-4 FTE · $200,000/yr")
	assert.Less(t, strings.Index(view, "HR Assistant Agent"), strings.Index(view, "Sales Agent"))

	m, _ = update(t, m, SnapshotMsg{Snapshot: domain.Snapshot{Generation: 1}})
	assert.Contains(t, m.View(), "HR Assistant Agent", "older snapshots are ignored")
}

func TestQuitFromLogFocus(t *testing.T) {
	m := NewModel(nil, nil)
	_, cmd := update(t, m, keyRunes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	m, _ = update(t, m, keyRunes("i"))
	m, _ = update(t, m, keyRunes("q"))
	assert.Equal(t, "q", m.jobInput.Value(), "q is text while typing")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, focusLog, m.focus)
}
