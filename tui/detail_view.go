package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/ringbook/display"
	"github.com/harperreed/ringbook/models"
)

func (m ContactsModel) renderDetailView() string {
	if m.target == nil {
		return "Contact not found"
	}
	c := *m.target

	var s strings.Builder

	initials := c.Initials
	if initials == "" {
		initials = display.GenerateInitials(c.Name)
	}
	s.WriteString(avatarStyle.Render(initials))
	s.WriteString(" ")
	s.WriteString(titleStyle.Render(strings.ToUpper(c.Name)))
	s.WriteString("\n\n")

	for _, row := range detailRows(c) {
		s.WriteString(labelStyle.Render(row[0]))
		s.WriteString(row[1])
		s.WriteString("\n")
	}

	s.WriteString("\n")
	if m.calling {
		s.WriteString(m.spinner.View() + " Calling...\n")
	}
	if status := m.renderStatus(); status != "" {
		s.WriteString(status)
		s.WriteString("\n")
	}

	s.WriteString(helpStyle.Render("e: Edit • d: Delete • c: Call • Esc: Back"))
	return s.String()
}

func detailRows(c models.Contact) [][2]string {
	rows := [][2]string{
		{"Email", c.Email},
		{"Phone", c.Phone},
		{"Mobile", c.Mobile},
		{"Address", c.Address},
		{"District", c.District},
		{"City", c.City},
		{"State", c.State},
		{"Photo", c.Photo},
	}
	out := rows[:0]
	for _, r := range rows {
		if strings.TrimSpace(r[1]) != "" {
			out = append(out, r)
		}
	}
	return out
}

func (m ContactsModel) handleDetailKeys(msg tea.KeyMsg) (ContactsModel, tea.Cmd) {
	if m.target == nil {
		return m.CloseContactDialog(), nil
	}
	c := *m.target

	switch msg.String() {
	case "esc", "enter":
		return m.CloseContactDialog(), nil
	case "e":
		return m.OpenEditForm(c), nil
	case "d":
		return m.OpenDeleteConfirm(c), nil
	case "c":
		return m.CallContact(c)
	}
	return m, nil
}
