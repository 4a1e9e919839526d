package components

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

type PageConfig struct {
	Title       string
	Description string
}

func Layout(config PageConfig, content ...g.Node) g.Node {
	if config.Title == "" {
		config.Title = "Synthetic Teams"
	}
	if config.Description == "" {
		config.Description = "Deploy the Hybrid Workforce of the Future"
	}

	return g.Group([]g.Node{
		g.Raw("<!DOCTYPE html>"),
		HTML(
			Lang("en"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1.0")),
				TitleEl(g.Text(config.Title)),
				Meta(Name("description"), Content(config.Description)),
				Meta(g.Attr("property", "og:title"), Content(config.Title)),
				Meta(g.Attr("property", "og:description"), Content(config.Description)),
				Link(Rel("icon"), Href("/static/images/logo.svg")),
				Link(Rel("stylesheet"), Href("/static/css/site.css")),
			),
			Body(
				g.Group(content),
				Script(Src("/static/js/site.js"), g.Attr("defer")),
			),
		),
	})
}
