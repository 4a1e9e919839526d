package components

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/splax/synthteams/internal/domain"
	"github.com/splax/synthteams/internal/service/viewstate"
)

// LogElementID is the id of the element the stream swaps on every update.
const LogElementID = "agents-log"

// TerminalProps is everything the terminal window needs to render.
type TerminalProps struct {
	Log  domain.Snapshot
	View viewstate.State
}

// Terminal renders the training log window with its prompt inputs.
func Terminal(p TerminalProps) g.Node {
	return Section(
		Class("right-section"),
		Div(
			Class("terminal-window"),
			Div(
				Class("terminal-header"),
				Div(Class("terminal-title"), g.Text("Agents Training Log")),
				Div(
					Class("terminal-prompt"),
					promptForm(p.View),
					g.If(p.View.ShowWaitlist, waitlistForm(p.View)),
				),
			),
			LogEntries(p.Log),
		),
	)
}

func promptForm(v viewstate.State) g.Node {
	return Form(
		ID("prompt-form"),
		Class("prompt-text"),
		Action("/prompt"),
		Method("post"),
		g.Text("$ "),
		Input(
			Class("prompt-input"),
			Type("text"),
			Name("job_description"),
			Value(v.JobDescription),
			Placeholder("type your job description to train your own"),
			AutoComplete("off"),
			g.Attr("spellcheck", "false"),
		),
		Span(Class("blinking-cursor"), g.Text("_")),
	)
}

func waitlistForm(v viewstate.State) g.Node {
	return Form(
		ID("waitlist"),
		Class("waitlist-message"),
		Action("/waitlist"),
		Method("post"),
		Input(
			Class("prompt-input"),
			Type("email"),
			Name("email"),
			Value(v.Email),
			Placeholder("type your email to join the waitlist"),
			AutoComplete("email"),
			g.Attr("spellcheck", "false"),
			g.Attr("autofocus"),
		),
		Span(Class("blinking-cursor"), g.Text("_")),
		g.If(v.Outcome != "",
			Span(
				Class("waitlist-notice notice-"+string(v.Outcome)),
				g.Attr("role", "status"),
				g.Text(v.Outcome.Notice()),
			),
		),
	)
}

// LogEntries renders the log list alone; it is the fragment pushed over the
// event stream.
func LogEntries(snapshot domain.Snapshot) g.Node {
	return Div(
		ID(LogElementID),
		Class("terminal-content"),
		g.Attr("data-generation", strconv.FormatUint(snapshot.Generation, 10)),
		g.Map(snapshot.Entries, logEntry),
	)
}

func logEntry(entry domain.Entry) g.Node {
	classes := "log-entry phase-" + string(entry.Phase())
	if entry.Manual {
		classes += " manual"
	}
	return Div(
		Class(classes),
		g.Attr("data-entry-id", strconv.FormatInt(entry.ID, 10)),
		Div(Class("agent-name"), g.Text(entry.AgentName)),
		g.Group(stepNodes(entry)),
		g.If(entry.Deployed, deployedStatus(entry.Stats)),
	)
}

func stepNodes(entry domain.Entry) []g.Node {
	nodes := make([]g.Node, 0, len(entry.Steps))
	for i, step := range entry.Steps {
		if entry.StepVisible(i) {
			nodes = append(nodes, Div(Class("training-step"), g.Text(step)))
			continue
		}
		nodes = append(nodes, Div(Class("training-step hidden"), g.Attr("hidden"), g.Text(step)))
	}
	return nodes
}

func deployedStatus(stats *domain.Stats) g.Node {
	return Div(
		Class("deployed-status"),
		g.Text("DEPLOYED"),
		g.If(stats != nil, Span(Class("deployed-stats"), g.Text(FormatStats(stats)))),
	)
}

// FormatStats renders stats as "-3 FTE · $210,000/yr".
func FormatStats(stats *domain.Stats) string {
	if stats == nil {
		return ""
	}
	return fmt.Sprintf("%d FTE · $%s/yr", stats.FTEDelta, humanize.Comma(int64(stats.SavingsPerYear)))
}
