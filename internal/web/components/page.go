// Package components renders the landing page with gomponents.
package components

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/splax/synthteams/internal/service/linefield"
)

// PageProps holds the data for a full landing page render.
type PageProps struct {
	Terminal TerminalProps
	Lines    []linefield.Line
	Motion   linefield.Motion
}

// LandingPage composes the full document.
func LandingPage(p PageProps) g.Node {
	return Layout(
		PageConfig{},
		Div(
			Class("container"),
			SiteHeader(),
			Main(
				Class("content"),
				Hero(),
				Terminal(p.Terminal),
			),
			Background(p.Lines, p.Motion),
		),
	)
}
