package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/admindesk/internal/broker"
	"github.com/jask/admindesk/internal/people"
	"github.com/jask/admindesk/internal/query"
)

type tableColumn struct {
	title string
	field string
	width int
	value func(people.Person) string
}

var columns = []tableColumn{
	{title: "Name", field: people.FieldFirstName, width: 20, value: func(p people.Person) string { return p.FullName() }},
	{title: "Email", field: people.FieldEmail, width: 30, value: func(p people.Person) string { return p.Email }},
	{title: "Role", field: people.FieldRole, width: 8, value: func(p people.Person) string { return string(p.Role) }},
	{title: "Status", field: people.FieldStatus, width: 9, value: func(p people.Person) string { return string(p.Status) }},
	{title: "MFA", field: people.FieldMFAEnabled, width: 4, value: func(p people.Person) string {
		if p.MFAEnabled {
			return "on"
		}
		return "off"
	}},
	{title: "Last login", field: people.FieldLastLogin, width: 11, value: func(p people.Person) string {
		if p.LastLogin == nil {
			return "never"
		}
		return p.LastLogin.Format("2006-01-02")
	}},
}

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("People"))
	b.WriteString(mutedStyle.Render("  " + a.filterLabel()))
	b.WriteString("\n")
	if a.searching || a.state.Search != "" {
		b.WriteString(a.search.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(a.renderHeader())
	b.WriteString("\n")
	if len(a.state.Items) == 0 {
		b.WriteString(mutedStyle.Render("  no people match"))
		b.WriteString("\n")
	}
	for i, p := range a.state.Items {
		b.WriteString(a.renderRow(i, p))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(a.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(a.help.View(a.keys))
	return b.String()
}

func (a *App) filterLabel() string {
	statuses := statusCycle[a.filterIdx]
	if len(statuses) == 0 {
		return "all statuses"
	}
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

func (a *App) renderHeader() string {
	cells := []string{"  "}
	for _, c := range columns {
		title := c.title
		if a.state.Sort.Field == c.field || (c.field == people.FieldFirstName && a.state.Sort.Field == people.FieldLastName) {
			if a.state.Sort.Direction == query.Desc {
				title += " ↓"
			} else {
				title += " ↑"
			}
		}
		cells = append(cells, cell(title, c.width))
	}
	return headerStyle.Render(strings.Join(cells, " "))
}

func (a *App) renderRow(i int, p people.Person) string {
	mark := "  "
	if a.desk.IsSelected(p.ID) {
		mark = selectedStyle.Render("● ")
	}
	cells := []string{mark}
	for _, c := range columns {
		text := cell(c.value(p), c.width)
		if c.field == people.FieldStatus && i != a.cursor {
			if st, ok := personStatusStyles[string(p.Status)]; ok {
				text = st.Render(text)
			}
		}
		cells = append(cells, text)
	}
	line := strings.Join(cells, " ")
	if i == a.cursor {
		return cursorStyle.Render(line)
	}
	return line
}

func (a *App) renderStatusBar() string {
	st := a.state
	msg := fmt.Sprintf("%s · page %d/%d · %d people · %d selected · bulk role %s",
		st.Status, st.Page.Number, max(st.Page.Pages(), 1), st.Page.Total, len(st.Selection), a.targetRole())
	if a.notice != "" {
		msg += " · " + a.notice
	}
	style := statusBarStyle
	if st.Status == broker.StatusError {
		msg = "error: " + st.Err
		style = errorBarStyle
	}
	return renderBar(style, max(a.width, 1), msg)
}

// cell truncates or pads s to exactly width columns.
func cell(s string, width int) string {
	s = ansi.Truncate(s, width, "…")
	if w := ansi.StringWidth(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

func renderBar(style lipgloss.Style, width int, text string) string {
	line := strings.ReplaceAll(text, "\n", " ")
	return style.Width(width).MaxWidth(width).Render(cell(line, width))
}
