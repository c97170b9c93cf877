// ABOUTME: Delete confirmation view for TUI
// ABOUTME: Asks before a contact is removed through the gateway
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (m ContactsModel) renderConfirmDeleteView() string {
	if m.target == nil {
		return "Nothing to delete"
	}

	var content strings.Builder
	content.WriteString(warningStyle.Render("⚠️  DELETE CONTACT"))
	content.WriteString("\n\n")
	content.WriteString(fmt.Sprintf("Delete %s?", m.target.Name))
	content.WriteString("\n")
	content.WriteString("This cannot be undone.")
	content.WriteString("\n\n")

	if m.deleting {
		content.WriteString(m.spinner.View() + " Deleting...")
	} else {
		buttons := lipgloss.JoinHorizontal(lipgloss.Top,
			confirmButtonStyle.Render("[Y] Delete"),
			cancelButtonStyle.Render("[N] Cancel"),
		)
		content.WriteString(buttons)
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		confirmBoxStyle.Render(content.String()))
}

func (m ContactsModel) handleConfirmDeleteKeys(msg tea.KeyMsg) (ContactsModel, tea.Cmd) {
	if m.deleting {
		return m, nil
	}
	switch msg.String() {
	case "y", "Y", "enter":
		return m.ConfirmDelete()
	case "n", "N", "esc":
		return m.CloseDeleteConfirm(), nil
	}
	return m, nil
}
