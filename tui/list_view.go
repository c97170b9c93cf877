package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/ringbook/display"
)

func (m ContactsModel) renderListView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("RINGBOOK"))
	s.WriteString("\n\n")

	// Search and sort
	s.WriteString(m.search.View())
	s.WriteString(helpStyle.UnsetMarginTop().Render(fmt.Sprintf("   sort: %s", m.sortOrder)))
	s.WriteString("\n\n")

	// Table
	switch {
	case m.loading && m.IsEmpty():
		s.WriteString(m.spinner.View() + " Loading contacts...")
	case m.IsEmpty():
		s.WriteString(m.renderEmptyState())
	default:
		s.WriteString(m.renderContactsTable())
	}
	s.WriteString("\n\n")

	if status := m.renderStatus(); status != "" {
		s.WriteString(status)
		s.WriteString("\n")
	}

	// Help
	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m ContactsModel) renderEmptyState() string {
	if strings.TrimSpace(m.searchQuery) != "" {
		return fmt.Sprintf("No contacts match %q.", strings.TrimSpace(m.searchQuery))
	}
	return "No contacts yet. Press n to add one."
}

func (m ContactsModel) renderContactsTable() string {
	columns := []table.Column{
		{Title: "", Width: 4},
		{Title: "Name", Width: 26},
		{Title: "Email", Width: 28},
		{Title: "Mobile", Width: 16},
		{Title: "City", Width: 16},
	}

	var rows []table.Row
	for _, contact := range m.contacts {
		initials := contact.Initials
		if initials == "" {
			initials = display.GenerateInitials(contact.Name)
		}
		city := contact.City
		if city == "" {
			city = contact.State
		}
		rows = append(rows, table.Row{
			initials,
			contact.Name,
			contact.Email,
			contact.Mobile,
			city,
		})
	}

	height := m.height - 12
	if height < 3 {
		height = 3
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	// Set selected row
	if m.cursor < len(rows) {
		t.SetCursor(m.cursor)
	}

	return t.View()
}

func (m ContactsModel) renderListHelp() string {
	if m.searchFocused {
		return helpStyle.Render("Enter/Esc: Done searching")
	}
	help := []string{
		"↑/↓: Navigate",
		"/: Search",
		"s: Sort",
		"Enter: View",
		"n: New",
		"e: Edit",
		"d: Delete",
		"c: Call",
		"r: Reports",
		"L: Logout",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m ContactsModel) handleListKeys(msg tea.KeyMsg) (ContactsModel, tea.Cmd) {
	if m.searchFocused {
		return m.handleSearchKeys(msg)
	}

	switch msg.String() {
	case "/":
		m.searchFocused = true
		return m, m.search.Focus()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.contacts)-1 {
			m.cursor++
		}
		return m, nil
	case "s":
		return m.ToggleSortOrder()
	case "n":
		return m.OpenCreateForm(), textinput.Blink
	case "r":
		return m.ToggleReports()
	case "L":
		return m, m.Logout()
	case "esc":
		m.errMsg = ""
		m.flash = ""
		return m, nil
	}

	selected, ok := m.Selected()
	if !ok {
		return m, nil
	}

	switch msg.String() {
	case "enter":
		return m.OpenContactDialog(selected), nil
	case "e":
		return m.OpenEditForm(selected), textinput.Blink
	case "d":
		return m.OpenDeleteConfirm(selected), nil
	case "c":
		return m.CallContact(selected)
	}
	return m, nil
}

func (m ContactsModel) handleSearchKeys(msg tea.KeyMsg) (ContactsModel, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.searchFocused = false
		m.search.Blur()
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return m, cmd
	}

	var searchCmd tea.Cmd
	m, searchCmd = m.SetSearchQuery(m.search.Value())
	return m, tea.Batch(cmd, searchCmd)
}
