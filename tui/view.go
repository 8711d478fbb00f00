package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/teranos/carousel/slides"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	centerCard  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(1, 2)
	sideCard = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("238")).
			Foreground(lipgloss.Color("245")).
			Padding(1, 1)
	dotStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	activeDot   = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	motionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("carousel") + "  " + statusStyle.Render(m.status()) + "\n\n")
	b.WriteString(m.track() + "\n\n")
	b.WriteString(m.dots() + "\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) status() string {
	switch {
	case m.closed:
		return "closed"
	case m.animating != 0:
		return fmt.Sprintf("moving %d/%d", m.frame, m.frames)
	case m.paused:
		return "paused"
	case m.c.Autoplaying():
		return "autoplay"
	}
	return fmt.Sprintf("%d of %d", m.c.Current()+1, len(m.c.Panels()))
}

// track draws the slides at the left, center and right positions. Moving
// slides are drawn where they are heading.
func (m Model) track() string {
	var left, center, right *slides.Slide
	ss := m.c.Slides()
	for i := range ss {
		at := ss[i].Position
		if ss[i].Moving() {
			at = ss[i].Target
		}
		switch at {
		case slides.Left:
			left = &ss[i]
		case slides.Center:
			center = &ss[i]
		case slides.Right:
			right = &ss[i]
		}
	}

	side := max(10, m.width/5)
	mid := max(20, m.width-2*side-8)
	return lipgloss.JoinHorizontal(lipgloss.Center,
		m.card(left, sideCard.Width(side), false),
		" ",
		m.card(center, centerCard.Width(mid), true),
		" ",
		m.card(right, sideCard.Width(side), false),
	)
}

func (m Model) card(s *slides.Slide, style lipgloss.Style, full bool) string {
	if s == nil {
		return style.Render("")
	}
	p := m.c.Panels()[s.Panel]
	body := titleStyle.Render(p.Title)
	if full && p.Body != "" {
		body += "\n\n" + p.Body
	}
	if s.Moving() {
		arrow := "→"
		if s.Motion == slides.Backward {
			arrow = "←"
		}
		body = motionStyle.Render(arrow) + " " + body
	}
	return style.Render(body)
}

func (m Model) dots() string {
	n := len(m.c.Panels())
	cur := m.c.Current()
	parts := make([]string, n)
	for i := range parts {
		if i == cur {
			parts[i] = activeDot.Render("●")
		} else {
			parts[i] = dotStyle.Render("○")
		}
	}
	return strings.Join(parts, " ")
}
