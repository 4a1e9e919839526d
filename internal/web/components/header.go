package components

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

func SiteHeader() g.Node {
	return Header(
		Class("site-header"),
		Img(Class("logo"), Src("/static/images/logo.svg"), Alt("Synthetic Teams")),
		A(Class("cta-button"), Href("#waitlist"), g.Text("Request Access")),
	)
}
