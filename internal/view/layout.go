package view

import (
	cmp "maragu.dev/gomponents"
	g "maragu.dev/gomponents/html"
)

// Meta is the document metadata attached to the auth layout.
type Meta struct {
	Title       string
	Description string
	Locale      string
}

// Layout wraps children in the root document of the auth pages: a fixed
// locale, a no-translate directive and the page metadata in the head.
func Layout(meta Meta, children ...cmp.Node) cmp.Node {
	return g.Doctype(
		g.HTML(
			g.Lang(meta.Locale),
			g.Head(
				g.Meta(g.Charset("utf-8")),
				g.Meta(g.Name("viewport"), g.Content("width=device-width, initial-scale=1")),
				g.Meta(g.Name("google"), g.Content("notranslate")),
				cmp.If(meta.Title != "", g.TitleEl(cmp.Text(meta.Title))),
				cmp.If(meta.Description != "", g.Meta(g.Name("description"), g.Content(meta.Description))),
				g.Link(g.Rel("stylesheet"), g.Href(StylesheetPath)),
				g.Script(g.Src(htmxScript), g.Defer()),
			),
			g.Body(children...),
		),
	)
}

// StylesheetPath is where the embedded auth stylesheet is served.
const StylesheetPath = "/static/auth.css"

const htmxScript = "https://unpkg.com/htmx.org@2.0.4"
