package components

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

func Hero() g.Node {
	return Section(
		Class("left-section"),
		Div(
			Class("tagline-container"),
			H1(Class("tagline"), g.Text("Deploy the Hybrid Workforce of the Future")),
			A(Class("gradient-button"), Href("#waitlist"), g.Text("Apply Today")),
		),
		P(
			Class("sub-tagline"),
			g.Text("hiring "), Em(g.Text("human")), g.Text(" engineers and ml researchers"),
		),
	)
}
