// Package site renders the consultancy landing page.
package site

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// PageConfig holds document-level metadata.
type PageConfig struct {
	Title       string
	Description string
}

// Layout wraps content in the HTML document shell.
func Layout(config PageConfig, content ...g.Node) g.Node {
	if config.Title == "" {
		config.Title = brandName + " | AI-автоматизація бізнесу"
	}
	if config.Description == "" {
		config.Description = "Хаос процесів перетворюємо на керовану систему. AI-автоматизація бізнесу без зайвих слів."
	}

	return g.Group([]g.Node{
		g.Raw("<!DOCTYPE html>"),
		HTML(
			Lang("uk"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1.0")),
				TitleEl(g.Text(config.Title)),
				Meta(Name("description"), Content(config.Description)),

				Meta(g.Attr("property", "og:title"), Content(config.Title)),
				Meta(g.Attr("property", "og:description"), Content(config.Description)),
				Meta(g.Attr("property", "og:type"), Content("website")),

				Link(Rel("stylesheet"), Href("/static/styles.css")),
				Script(Src("https://code.iconify.design/1/1.0.7/iconify.min.js")),
			),
			Body(
				Class("bg-background text-text"),
				g.Group(content),

				Script(Src("/static/js/menu.js"), Defer()),
				Script(Src("/static/js/chat.js"), Defer()),
			),
		),
	})
}

func icon(name string) g.Node {
	if name == "" {
		return nil
	}
	return Span(Class("iconify icon"), g.Attr("data-icon", name), g.Attr("aria-hidden", "true"))
}

func sectionTitle(title, subtitle string) g.Node {
	return Div(
		Class("section-title"),
		H2(g.Text(title)),
		g.If(subtitle != "", P(Class("muted"), g.Text(subtitle))),
	)
}

func primaryButton(href, label string) g.Node {
	return A(
		Class("btn btn-primary"),
		Href(href),
		Target("_blank"),
		Rel("noreferrer"),
		g.Text(label),
		icon("lucide:external-link"),
	)
}

func chip(label string) g.Node {
	return Span(Class("chip"), g.Text(label))
}
