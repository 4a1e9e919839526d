package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/splax/synthteams/internal/domain"
	"github.com/splax/synthteams/internal/service/simulator"
	"github.com/splax/synthteams/internal/service/subscription"
	"github.com/splax/synthteams/internal/service/viewstate"
	"github.com/splax/synthteams/internal/web/components"
)

const requestTimeout = 10 * time.Second

// Trainer starts manual training runs.
type Trainer interface {
	Train(ctx context.Context) (simulator.TrainResult, error)
}

// Subscriber sends waitlist emails to the site.
type Subscriber interface {
	Subscribe(ctx context.Context, email string) (string, error)
}

type focus int

const (
	focusLog focus = iota
	focusJob
	focusEmail
)

// Model is the bubbletea model for the simulate command.
type Model struct {
	trainer    Trainer
	subscriber Subscriber
	isInvalid  func(error) bool

	snapshot domain.Snapshot
	view     viewstate.State
	focus    focus
	jobInput textinput.Model
	email    textinput.Model
	status   string
	width    int
}

// NewModel builds the model. subscriber may be nil, in which case emails are
// only checked locally.
func NewModel(trainer Trainer, subscriber Subscriber) Model {
	job := textinput.New()
	job.Placeholder = "type your job description to train your own"
	job.Prompt = "$ "
	job.CharLimit = 200

	email := textinput.New()
	email.Placeholder = "type your email to join the waitlist"
	email.Prompt = "> "
	email.CharLimit = 254

	return Model{
		trainer:    trainer,
		subscriber: subscriber,
		isInvalid:  func(error) bool { return false },
		view:       viewstate.New("terminal"),
		jobInput:   job,
		email:      email,
	}
}

// WithInvalidEmailCheck sets how subscriber errors are classified.
func (m Model) WithInvalidEmailCheck(fn func(error) bool) Model {
	if fn != nil {
		m.isInvalid = fn
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case SnapshotMsg:
		if msg.Snapshot.Generation >= m.snapshot.Generation {
			m.snapshot = msg.Snapshot
		}
		return m, nil
	case TrainResultMsg:
		if msg.Err != nil {
			m.status = fmt.Sprintf("training request failed: %v", msg.Err)
			return m, nil
		}
		m.status = fmt.Sprintf("training request %s", msg.Result)
		return m, nil
	case FeedErrorMsg:
		m.status = fmt.Sprintf("log unavailable: %v", msg.Err)
		return m, nil
	case SubscribeResultMsg:
		m.view.SubmitEmail(msg.Email, msg.Outcome)
		m.status = ""
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m.updateInputs(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.focus == focusLog {
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Train):
			return m, m.train()
		case key.Matches(msg, keys.Focus), key.Matches(msg, keys.Submit):
			return m.focusInput()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Blur):
		m.jobInput.Blur()
		m.email.Blur()
		m.focus = focusLog
		return m, nil
	case key.Matches(msg, keys.Submit):
		return m.submit()
	}
	return m.updateInputs(msg)
}

func (m Model) focusInput() (tea.Model, tea.Cmd) {
	if m.view.ShowWaitlist {
		m.focus = focusEmail
		return m, m.email.Focus()
	}
	m.focus = focusJob
	return m, m.jobInput.Focus()
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	switch m.focus {
	case focusJob:
		value := m.jobInput.Value()
		m.view.SetJobDescription(value)
		if m.view.SubmitJob(value) {
			m.jobInput.Blur()
			m.focus = focusEmail
			return m, m.email.Focus()
		}
		return m, nil
	case focusEmail:
		value := m.email.Value()
		m.view.SetEmail(value)
		m.status = "subscribing..."
		return m, m.subscribe(value)
	}
	return m, nil
}

func (m Model) train() tea.Cmd {
	if m.trainer == nil {
		return nil
	}
	trainer := m.trainer
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		result, err := trainer.Train(ctx)
		return TrainResultMsg{Result: result, Err: err}
	}
}

func (m Model) subscribe(email string) tea.Cmd {
	subscriber := m.subscriber
	isInvalid := m.isInvalid
	return func() tea.Msg {
		if err := subscription.Validate(email); err != nil {
			return SubscribeResultMsg{Email: email, Outcome: viewstate.OutcomeInvalid, Err: err}
		}
		if subscriber == nil {
			return SubscribeResultMsg{Email: email, Outcome: viewstate.OutcomeNotSent}
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if _, err := subscriber.Subscribe(ctx, email); err != nil {
			outcome := viewstate.OutcomeFailed
			if isInvalid(err) {
				outcome = viewstate.OutcomeInvalid
			}
			return SubscribeResultMsg{Email: email, Outcome: outcome, Err: err}
		}
		return SubscribeResultMsg{Email: email, Outcome: viewstate.OutcomeSubscribed}
	}
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusJob:
		m.jobInput, cmd = m.jobInput.Update(msg)
	case focusEmail:
		m.email, cmd = m.email.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(promptMarkStyle.Render(">") + " " + titleStyle.Render("Agents Training Log"))
	b.WriteString("\n\n")
	b.WriteString(m.jobInput.View())
	b.WriteString("\n")
	if m.view.ShowWaitlist {
		b.WriteString(m.email.View())
		if notice := m.view.Outcome.Notice(); notice != "" {
			style := noticeErrStyle
			if m.view.Outcome == viewstate.OutcomeSubscribed {
				style = noticeOKStyle
			}
			b.WriteString("  " + style.Render(notice))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(renderLog(m.snapshot))

	body := frameStyle.Render(b.String())
	if m.width > 0 {
		body = frameStyle.Width(m.width - 2).Render(b.String())
	}
	footer := helpStyle.Render(m.help())
	if m.status != "" {
		footer = helpStyle.Render(m.status) + "  " + footer
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, footer)
}

func (m Model) help() string {
	if m.focus == focusLog {
		return "t train · i type · q quit"
	}
	return "enter submit · esc back to log"
}

func renderLog(snapshot domain.Snapshot) string {
	if len(snapshot.Entries) == 0 {
		return stepStyle.Render("waiting for the first agent...")
	}
	blocks := make([]string, 0, len(snapshot.Entries))
	for _, entry := range snapshot.Entries {
		lines := []string{agentStyle.Render(entry.AgentName)}
		for i, step := range entry.Steps {
			if entry.StepVisible(i) {
				lines = append(lines, stepStyle.Render("> "+step))
			}
		}
		if entry.Deployed {
			lines = append(lines, deployedStyle.Render("DEPLOYED")+"  "+helpStyle.Render(components.FormatStats(entry.Stats)))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}
