package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/ringbook/models"
)

// Form field order.
const (
	fieldName = iota
	fieldEmail
	fieldPhone
	fieldMobile
	fieldAddress
	fieldDistrict
	fieldCity
	fieldState
	fieldPhoto
	fieldCount
)

var formLabels = [fieldCount]string{
	"Name *", "Email *", "Phone *", "Mobile *", "Address", "District", "City", "State", "Photo URL",
}

type contactForm struct {
	inputs     []textinput.Model
	focusIndex int
}

func newContactForm(c models.Contact) contactForm {
	inputs := make([]textinput.Model, fieldCount)
	limits := [fieldCount]int{100, 100, 20, 20, 200, 100, 100, 50, 500}
	values := [fieldCount]string{
		c.Name, c.Email, c.Phone, c.Mobile, c.Address, c.District, c.City, c.State, c.Photo,
	}

	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].Placeholder = strings.TrimSuffix(formLabels[i], " *")
		inputs[i].CharLimit = limits[i]
		inputs[i].SetValue(values[i])
	}

	f := contactForm{inputs: inputs}
	f.updateFocus()
	return f
}

func (f *contactForm) updateFocus() {
	for i := range f.inputs {
		if i == f.focusIndex {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
}

func (f contactForm) next() contactForm {
	f.focusIndex = (f.focusIndex + 1) % len(f.inputs)
	f.updateFocus()
	return f
}

func (f contactForm) prev() contactForm {
	f.focusIndex = (f.focusIndex - 1 + len(f.inputs)) % len(f.inputs)
	f.updateFocus()
	return f
}

// value reads the form into a contact, keeping base's id.
func (f contactForm) value(base *models.Contact) models.Contact {
	var c models.Contact
	if base != nil {
		c.ID = base.ID
		c.Initials = base.Initials
	}
	get := func(i int) string { return strings.TrimSpace(f.inputs[i].Value()) }
	c.Name = get(fieldName)
	c.Email = get(fieldEmail)
	c.Phone = get(fieldPhone)
	c.Mobile = get(fieldMobile)
	c.Address = get(fieldAddress)
	c.District = get(fieldDistrict)
	c.City = get(fieldCity)
	c.State = get(fieldState)
	c.Photo = get(fieldPhoto)
	return c
}

func (m ContactsModel) renderEditView() string {
	var s strings.Builder

	// Title
	if m.editing {
		s.WriteString(titleStyle.Render("EDIT CONTACT"))
	} else {
		s.WriteString(titleStyle.Render("NEW CONTACT"))
	}
	s.WriteString("\n\n")

	// Form fields
	for i, input := range m.form.inputs {
		if i == m.form.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(labelStyle.Render(formLabels[i]))
		s.WriteString(input.View())
		s.WriteString("\n")
	}

	s.WriteString("\n")
	if m.saving {
		s.WriteString(m.spinner.View() + " Saving...\n")
	}
	if status := m.renderStatus(); status != "" && m.errMsg != "" {
		s.WriteString(status)
		s.WriteString("\n")
	}

	// Help
	s.WriteString(m.renderEditHelp())

	return s.String()
}

func (m ContactsModel) renderEditHelp() string {
	help := []string{
		"Tab: Next field",
		"Shift+Tab: Previous field",
		"Enter: Save",
		"Esc: Cancel",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m ContactsModel) handleEditKeys(msg tea.KeyMsg) (ContactsModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.saving {
			return m, nil
		}
		m.errMsg = ""
		return m.CloseForm(), nil
	case "tab", "down":
		m.form = m.form.next()
		return m, nil
	case "shift+tab", "up":
		m.form = m.form.prev()
		return m, nil
	case "enter":
		return m.SaveContact(m.form.value(m.target))
	}

	// Update current input
	var cmd tea.Cmd
	i := m.form.focusIndex
	m.form.inputs[i], cmd = m.form.inputs[i].Update(msg)
	return m, cmd
}
