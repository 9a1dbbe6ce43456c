package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/davoseaworthui/referral-builder-next/services/builder/internal/form"
)

// View implements tea.Model.
func (m Model) View() string {
	left := paneFrame(m.active == paneForm).Render(m.formView())
	right := paneFrame(m.active == paneList).Render(m.listView())

	var body string
	if m.width > 0 && lipgloss.Width(left)+lipgloss.Width(right) > m.width {
		body = lipgloss.JoinVertical(lipgloss.Left, left, right)
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Referral Builder"),
		body,
		m.statusView(),
		m.help.View(m.keys),
	)
}

func (m Model) formView() string {
	var b strings.Builder
	var section form.Section
	for i, f := range form.Fields() {
		if f.Section() != section {
			if section != "" {
				b.WriteString("\n")
			}
			section = f.Section()
			b.WriteString(sectionStyle.Render(string(section)) + "\n")
		}

		label := labelStyle.Render(f.Label())
		if m.active == paneForm && f == m.form.Focus() {
			label = focusedLabel.Render(f.Label())
		}
		b.WriteString(label + m.inputs[i].View() + "\n")
	}

	b.WriteString("\n")
	if m.form.Submitting() {
		b.WriteString(busyButtonStyle.Render("Submitting..."))
	} else {
		b.WriteString(buttonStyle.Render(m.form.SubmitLabel()))
	}
	if _, editing := m.form.Editing(); editing {
		b.WriteString(" " + mutedStyle.Render("edits stay local"))
	}
	return b.String()
}

func (m Model) listView() string {
	entries := m.form.Entries()
	header := titleStyle.Render("Referrals") + " " + mutedStyle.Render(fmt.Sprintf("(%d)", len(entries)))
	legend := mutedStyle.Render(localMark + " edited locally, not synced   > preview")
	return header + "\n" + m.table.View() + "\n" + legend
}

func (m Model) statusView() string {
	switch m.statusKind {
	case statusOK:
		return successStyle.Render("✔ " + m.status)
	case statusError:
		return errorStyle.Render("✖ " + m.status)
	case statusPending:
		return pendingStyle.Render("• " + m.status)
	default:
		return m.status
	}
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
