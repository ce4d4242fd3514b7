package site

import (
	"fmt"
	"strings"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// Contacts are the outbound contact details shown on the page.
type Contacts struct {
	LinkedInURL string
	Phone       string
	Email       string
	Year        int
}

const linkedInLabel = "Написати в Linkedin"

func Navbar() g.Node {
	links := g.Map(navLinks, func(l NavLink) g.Node {
		return A(Class("nav-link"), Href(l.Href), g.Text(l.Name))
	})

	return Nav(
		Class("navbar"),
		ID("navbar"),
		Div(
			Class("container navbar-inner"),
			A(
				Class("brand"),
				Href("#"),
				Span(Class("brand-mark"), g.Text("SM")),
				g.Text(brandName),
			),
			Div(
				Class("nav-links"),
				g.Group(links),
				A(Class("btn btn-ghost"), Href("#footer"), g.Text("Контакти")),
			),
			Button(
				Class("nav-toggle"),
				Type("button"),
				g.Attr("aria-label", "Меню"),
				g.Attr("aria-controls", "mobile-menu"),
				g.Attr("aria-expanded", "false"),
				icon("lucide:menu"),
			),
		),
		Div(
			Class("mobile-menu"),
			ID("mobile-menu"),
			g.Attr("hidden", ""),
			g.Group(g.Map(navLinks, func(l NavLink) g.Node {
				return A(Class("nav-link"), Href(l.Href), g.Text(l.Name))
			})),
			A(Class("nav-link nav-link-primary"), Href("#footer"), g.Text("Контакти")),
		),
	)
}

func Hero(c Contacts) g.Node {
	return Section(
		Class("hero"),
		ID("hero"),
		Div(
			Class("container hero-grid"),
			Div(
				Class("hero-copy"),
				H1(
					g.Text("Хаос процесів перетворюємо на "),
					Span(Class("gradient-text"), g.Text("керовану систему.")),
				),
				H2(Class("hero-subtitle"), g.Text("AI-автоматизація бізнесу без зайвих слів.")),
				P(
					Class("muted lead"),
					g.Text("Надійна архітектура, яка працює 24/7, поки ви займаєтесь стратегією. Менше ручної рутини, більше контролю та прозорості."),
				),
				Div(
					Class("hero-actions"),
					primaryButton(c.LinkedInURL, linkedInLabel),
					P(Class("hint"), g.Text("Почнемо з короткого брифу: 10–12 запитань → чіткий план і оцінка.")),
				),
			),
			ChatWidget(c),
		),
	)
}

func TrustMarkers() g.Node {
	return Section(
		Class("trust"),
		Div(
			Class("container grid grid-4"),
			g.Group(g.Map(trustMarkers, func(t TitledText) g.Node {
				return Div(
					H3(icon("lucide:check-circle"), g.Text(t.Title)),
					P(Class("muted small"), g.Text(t.Desc)),
				)
			})),
		),
	)
}

func Services() g.Node {
	return Section(
		ID("services"),
		Class("section"),
		Div(
			Class("container"),
			sectionTitle("Послуги", "Технічні рішення для бізнес-задач."),
			Div(
				Class("grid grid-2"),
				g.Group(g.Map(services, func(s TitledText) g.Node {
					return Div(
						Class("card"),
						Div(Class("card-icon"), icon(s.Icon)),
						H3(g.Text(s.Title)),
						P(Class("muted"), g.Text(s.Desc)),
					)
				})),
			),
		),
	)
}

func Process() g.Node {
	steps := make([]g.Node, 0, len(processSteps))
	for i, step := range processSteps {
		side := "left"
		if i%2 == 1 {
			side = "right"
		}
		steps = append(steps, Li(
			Class("timeline-step timeline-"+side),
			Span(Class("timeline-node"), icon(step.Icon)),
			Div(
				Class("timeline-body"),
				H3(g.Text(step.Title)),
				P(Class("muted"), g.Text(step.Desc)),
			),
		))
	}

	return Section(
		ID("process"),
		Class("section section-alt"),
		Div(
			Class("container"),
			sectionTitle("Процес", fmt.Sprintf("Від хаосу до порядку за %d кроки.", len(processSteps))),
			Ol(Class("timeline"), g.Group(steps)),
		),
	)
}

// pipelineLine renders "[ ВХІД ] → [ ОБРОБКА ] → ..." for the config snippet.
func pipelineLine() string {
	parts := make([]string, len(pipelineStages))
	for i, s := range pipelineStages {
		parts[i] = "[ " + s.Label + " ]"
	}
	return strings.Join(parts, " → ")
}

func Architecture() g.Node {
	return Section(
		ID("architecture"),
		Class("section architecture"),
		Div(
			Class("container grid grid-2"),
			Div(
				H2(g.Text("Архітектура Рішення")),
				Div(
					Class("code-window"),
					Div(
						Class("code-window-bar"),
						Span(Class("dot dot-red")),
						Span(Class("dot dot-yellow")),
						Span(Class("dot dot-green")),
						Span(Class("code-window-name"), g.Text("pipeline_config.yaml")),
					),
					Pre(Code(g.Text(pipelineLine()))),
				),
				P(
					Class("muted lead accent-border"),
					g.Text("Ми не будуємо \"чорні скриньки\". Кожна система прозора, документована та побудована за принципом конвеєра даних. Ви завжди знаєте, що відбувається на кожному етапі."),
				),
			),
			Ol(
				Class("pipeline"),
				g.Group(g.Map(pipelineStages, func(s Stage) g.Node {
					return Li(
						Class("pipeline-stage"),
						Div(Class("pipeline-node"), icon(s.Icon)),
						Div(Class("pipeline-label"), g.Text(s.Label)),
						Span(Class("pipeline-micro"), g.Text(s.Micro)),
					)
				})),
			),
		),
	)
}

func WhyUs() g.Node {
	return Section(
		Class("section"),
		Div(
			Class("container narrow card"),
			H3(Class("center"), g.Text("Чому ми?")),
			Ul(
				Class("checklist"),
				g.Group(g.Map(whyUs, func(text string) g.Node {
					return Li(icon("lucide:check-circle"), P(g.Text(text)))
				})),
			),
		),
	)
}

func Tech() g.Node {
	return Section(
		ID("tech"),
		Class("section section-alt"),
		Div(
			Class("container"),
			sectionTitle("Технології", "Сучасний стек для стабільних рішень."),
			Div(
				Class("grid grid-2"),
				g.Group(g.Map(techCategories, func(c TechCategory) g.Node {
					return Div(
						Class("card"),
						Div(Class("card-heading"), icon(c.Icon), H3(g.Text(c.Title))),
						Div(Class("chips"), g.Group(g.Map(c.Chips, chip))),
					)
				})),
			),
		),
	)
}

func Standards() g.Node {
	return Section(
		Class("section"),
		Div(
			Class("container"),
			sectionTitle("Стандарти роботи", "Технології — це інструмент. Результат дає дисципліна виконання."),
			Div(
				Class("grid grid-4"),
				g.Group(g.Map(standards, func(s StandardCard) g.Node {
					return Div(
						Class("card card-top"),
						H4(g.Text(s.Title)),
						Ul(Class("points"), g.Group(g.Map(s.Points, func(p string) g.Node {
							return Li(Class("muted small"), g.Text(p))
						}))),
					)
				})),
			),
		),
	)
}

func FinalCTA(c Contacts) g.Node {
	return Section(
		Class("section cta"),
		Div(
			Class("container narrow center"),
			H2(g.Text("Готові прибрати хаос і отримати керовану систему?")),
			P(Class("muted lead"), g.Text("Обговоримо вашу задачу. Без зобов’язань. Лише суть.")),
			primaryButton(c.LinkedInURL, linkedInLabel),
			P(Class("hint"), g.Text("Опишіть 1 процес — ми скажемо, як зробити його стабільним і контрольованим.")),
		),
	)
}

func PageFooter(c Contacts) g.Node {
	return Footer(
		ID("footer"),
		Class("footer"),
		Div(
			Class("container footer-inner"),
			Div(
				H3(g.Text(brandName)),
				P(Class("muted small"), g.Text("Production-grade automation & AI solutions.")),
			),
			Div(
				Class("footer-contacts muted small"),
				P(g.Text("WhatsApp / Телефон: "), A(Href("tel:"+phoneHref(c.Phone)), g.Text(c.Phone))),
				P(g.Text("Email: "), A(Href("mailto:"+c.Email), g.Text(c.Email))),
				P(Class("copyright"), g.Textf("© %d %s. All rights reserved.", c.Year, brandName)),
			),
		),
	)
}

// phoneHref turns a local display number into a dialable +380 form.
func phoneHref(display string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, display)
	switch {
	case strings.HasPrefix(strings.TrimSpace(display), "+"):
		return "+" + digits
	case strings.HasPrefix(digits, "0") && len(digits) == 10:
		return "+38" + digits
	}
	return digits
}
