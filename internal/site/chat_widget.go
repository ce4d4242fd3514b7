package site

import (
	"strconv"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/smagents/landing/internal/conversation"
)

// Chat endpoints the widget script talks to.
const (
	ChatAPIPath    = "/api/chat"
	ChatSocketPath = "/ws/chat"
)

// ChatWidget renders the mount point for the lead-capture chat. The first
// prompt is rendered server-side so the widget reads sensibly before the
// script loads.
func ChatWidget(c Contacts) g.Node {
	first := conversation.New()

	return Aside(
		Class("chat-widget"),
		ID("lead-chat"),
		g.Attr("data-api", ChatAPIPath),
		g.Attr("data-ws", ChatSocketPath),
		g.Attr("data-total-steps", strconv.Itoa(len(conversation.Script))),
		g.Attr("aria-label", "Чат для заявки"),

		Div(
			Class("chat-header"),
			Span(Class("chat-status"), g.Attr("aria-hidden", "true")),
			Span(g.Text("Асистент SM Agents")),
			Span(Class("chat-progress"), g.Attr("data-role", "progress"), g.Textf("0 / %d", len(conversation.Script))),
		),

		Ol(
			Class("chat-transcript"),
			g.Attr("data-role", "transcript"),
			g.Attr("aria-live", "polite"),
			g.Group(g.Map(first.Transcript, func(m conversation.Message) g.Node {
				return Li(Class("chat-message chat-"+string(m.Speaker)), g.Text(m.Text))
			})),
		),

		Div(Class("chat-typing"), g.Attr("data-role", "typing"), g.Attr("hidden", ""), g.Text("Асистент друкує…")),

		FormEl(
			Class("chat-form"),
			g.Attr("data-role", "form"),
			g.Attr("autocomplete", "off"),
			Input(
				Type("text"),
				Name("text"),
				g.Attr("maxlength", "1000"),
				g.Attr("aria-label", "Ваша відповідь"),
				Placeholder("Ваша відповідь…"),
				g.Attr("data-role", "input"),
			),
			Button(Type("submit"), Class("btn btn-primary"), g.Attr("data-role", "send"), g.Text("Надіслати")),
		),

		Div(
			Class("chat-actions"),
			Button(Type("button"), Class("btn btn-ghost"), g.Attr("data-role", "retry"), g.Attr("hidden", ""), g.Text("Спробувати ще раз")),
			Button(Type("button"), Class("btn btn-link"), g.Attr("data-role", "reset"), g.Text("Почати спочатку")),
		),

		NoScript(
			P(
				Class("muted small"),
				g.Text("Чат потребує JavaScript. Напишіть нам: "),
				A(Href("mailto:"+c.Email), g.Text(c.Email)),
			),
		),
	)
}
