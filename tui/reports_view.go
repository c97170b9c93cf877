package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/ringbook/viz"
)

func (m ContactsModel) renderReportsView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("REPORTS"))
	s.WriteString("\n\n")

	switch {
	case m.reportsLoading:
		s.WriteString(m.spinner.View() + " Loading reports...")
	case m.report == nil:
		s.WriteString("No report data.")
	default:
		width := m.width - 8
		if width > 60 {
			width = 60
		}
		s.WriteString(viz.RenderReport(m.report.ByState, m.report.ByCity, width))
	}
	s.WriteString("\n")

	if m.errMsg != "" {
		s.WriteString(errorStyle.Render(m.errMsg))
		s.WriteString("\n")
	}

	s.WriteString(helpStyle.Render("r/Esc: Back to contacts"))
	return s.String()
}

func (m ContactsModel) handleReportsKeys(msg tea.KeyMsg) (ContactsModel, tea.Cmd) {
	switch msg.String() {
	case "r", "esc":
		return m.GoBackToContacts(), nil
	}
	return m, nil
}
