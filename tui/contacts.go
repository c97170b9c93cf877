// ABOUTME: Contacts screen controller owning list, search, sort, dialog and busy state
// ABOUTME: Transitions run on user actions and on results of asynchronous gateway calls
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/ringbook/contacts"
	"github.com/harperreed/ringbook/display"
	"github.com/harperreed/ringbook/models"
)

// Dialog is the one overlay that may be open on the contacts screen.
type Dialog int

const (
	DialogNone Dialog = iota
	DialogForm
	DialogView
	DialogConfirmDelete
	DialogReports
)

func (d Dialog) String() string {
	switch d {
	case DialogForm:
		return "form"
	case DialogView:
		return "view"
	case DialogConfirmDelete:
		return "confirm-delete"
	case DialogReports:
		return "reports"
	}
	return "none"
}

type contactsLoadedMsg struct {
	seq      uint64
	contacts []models.Contact
	err      error
}

type contactSavedMsg struct {
	contact *models.Contact
	created bool
	err     error
}

type contactDeletedMsg struct {
	id  int64
	err error
}

type contactCalledMsg struct {
	name string
	err  error
}

type reportsLoadedMsg struct {
	report contacts.Report
	err    error
}

type logoutRequestedMsg struct{}

type logoutMsg struct {
	err error
}

// ContactsModel is the contacts screen.
type ContactsModel struct {
	ctx     context.Context
	service ContactService

	contacts    []models.Contact
	cursor      int
	searchQuery string
	sortOrder   models.SortOrder

	dialog  Dialog
	target  *models.Contact
	editing bool
	form    contactForm

	loading        bool
	saving         bool
	deleting       bool
	calling        bool
	reportsLoading bool

	errMsg string
	flash  string

	report       *contacts.Report
	reportsStale bool

	listSeq  uint64
	debounce Debouncer

	search        textinput.Model
	searchFocused bool
	spinner       spinner.Model

	width  int
	height int
}

// NewContactsModel builds the screen in its initial loading state.
func NewContactsModel(ctx context.Context, service ContactService, debounce time.Duration) ContactsModel {
	search := textinput.New()
	search.Placeholder = "Search contacts"
	search.Prompt = "/ "
	search.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return ContactsModel{
		ctx:       ctx,
		service:   service,
		sortOrder: models.SortAscending,
		loading:   true,
		listSeq:   1,
		debounce:  NewDebouncer(debounce),
		search:    search,
		spinner:   sp,
		width:     80,
		height:    24,
	}
}

// Init loads the first page with the default sort and no search.
func (m ContactsModel) Init() tea.Cmd {
	return tea.Batch(m.fetchContacts(), m.spinner.Tick)
}

// IsEmpty reports whether the collection has no contacts.
func (m ContactsModel) IsEmpty() bool {
	return len(m.contacts) == 0
}

// Typing reports whether keystrokes are going into a text field.
func (m ContactsModel) Typing() bool {
	return m.searchFocused || m.dialog == DialogForm
}

func (m ContactsModel) filter() *models.ListFilter {
	return &models.ListFilter{
		Search:    strings.TrimSpace(m.searchQuery),
		SortOrder: m.sortOrder,
	}
}

func (m ContactsModel) fetchContacts() tea.Cmd {
	ctx, service, seq, filter := m.ctx, m.service, m.listSeq, m.filter()
	return func() tea.Msg {
		list, err := service.ListContacts(ctx, filter)
		return contactsLoadedMsg{seq: seq, contacts: list, err: err}
	}
}

// reload starts a new list fetch. Responses to earlier fetches are dropped.
func (m ContactsModel) reload() (ContactsModel, tea.Cmd) {
	m.listSeq++
	m.loading = true
	return m, m.fetchContacts()
}

// SetSearchQuery records the query now and fetches after the debounce delay.
func (m ContactsModel) SetSearchQuery(q string) (ContactsModel, tea.Cmd) {
	m.searchQuery = q
	var cmd tea.Cmd
	m.debounce, cmd = m.debounce.Schedule(q)
	return m, cmd
}

func (m ContactsModel) handleDebounceFired(msg debounceFiredMsg) (ContactsModel, tea.Cmd) {
	if !m.debounce.Current(msg) {
		return m, nil
	}
	return m.reload()
}

// ToggleSortOrder flips the order and refetches immediately with the current
// search applied.
func (m ContactsModel) ToggleSortOrder() (ContactsModel, tea.Cmd) {
	m.sortOrder = m.sortOrder.Toggle()
	m.debounce = m.debounce.Cancel()
	return m.reload()
}

func (m ContactsModel) handleContactsLoaded(msg contactsLoadedMsg) (ContactsModel, tea.Cmd) {
	if msg.seq != m.listSeq {
		return m, nil
	}
	m.loading = false
	if msg.err != nil {
		m.errMsg = display.ErrorMessage(msg.err)
		return m, nil
	}
	m.contacts = msg.contacts
	if m.cursor >= len(m.contacts) {
		m.cursor = len(m.contacts) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return m, nil
}

// Selected returns the contact under the cursor.
func (m ContactsModel) Selected() (models.Contact, bool) {
	if m.cursor < 0 || m.cursor >= len(m.contacts) {
		return models.Contact{}, false
	}
	return m.contacts[m.cursor], true
}

// OpenCreateForm opens an empty form for a new contact.
func (m ContactsModel) OpenCreateForm() ContactsModel {
	m.dialog = DialogForm
	m.target = nil
	m.editing = false
	m.errMsg = ""
	m.searchFocused = false
	m.form = newContactForm(models.Contact{})
	return m
}

// OpenEditForm opens the form prefilled with c.
func (m ContactsModel) OpenEditForm(c models.Contact) ContactsModel {
	m.dialog = DialogForm
	m.target = &c
	m.editing = true
	m.errMsg = ""
	m.searchFocused = false
	m.form = newContactForm(c)
	return m
}

// CloseForm dismisses the create/edit form.
func (m ContactsModel) CloseForm() ContactsModel {
	if m.dialog != DialogForm {
		return m
	}
	m.dialog = DialogNone
	m.target = nil
	m.editing = false
	return m
}

// OpenContactDialog shows the detail view for c.
func (m ContactsModel) OpenContactDialog(c models.Contact) ContactsModel {
	m.dialog = DialogView
	m.target = &c
	m.editing = false
	return m
}

// CloseContactDialog dismisses the detail view.
func (m ContactsModel) CloseContactDialog() ContactsModel {
	if m.dialog != DialogView {
		return m
	}
	m.dialog = DialogNone
	m.target = nil
	return m
}

// OpenDeleteConfirm asks before deleting c.
func (m ContactsModel) OpenDeleteConfirm(c models.Contact) ContactsModel {
	m.dialog = DialogConfirmDelete
	m.target = &c
	m.editing = false
	return m
}

// CloseDeleteConfirm dismisses the delete prompt.
func (m ContactsModel) CloseDeleteConfirm() ContactsModel {
	if m.dialog != DialogConfirmDelete || m.deleting {
		return m
	}
	m.dialog = DialogNone
	m.target = nil
	return m
}

// SaveContact creates or updates depending on editing mode. Blank required
// fields stop the save before any request.
func (m ContactsModel) SaveContact(draft models.Contact) (ContactsModel, tea.Cmd) {
	if m.saving {
		return m, nil
	}
	if missing := draft.MissingFields(); len(missing) > 0 {
		m.errMsg = "Required: " + strings.Join(missing, ", ")
		return m, nil
	}

	m.errMsg = ""
	ctx, service := m.ctx, m.service

	if m.editing && m.target != nil && !m.target.IsDraft() {
		id := m.target.IDValue()
		patch := models.Diff(*m.target, draft)
		if patch.IsEmpty() {
			return m.CloseForm(), nil
		}
		m.saving = true
		return m, func() tea.Msg {
			c, err := service.UpdateContact(ctx, id, patch)
			return contactSavedMsg{contact: c, err: err}
		}
	}

	m.saving = true
	return m, func() tea.Msg {
		c, err := service.CreateContact(ctx, draft)
		return contactSavedMsg{contact: c, created: true, err: err}
	}
}

func (m ContactsModel) handleContactSaved(msg contactSavedMsg) (ContactsModel, tea.Cmd) {
	m.saving = false
	if msg.err != nil {
		m.errMsg = display.ErrorMessage(msg.err)
		return m, nil
	}

	m = m.CloseForm()
	m.reportsStale = true
	if msg.contact != nil {
		verb := "Updated"
		if msg.created {
			verb = "Created"
		}
		m.flash = fmt.Sprintf("%s %s", verb, msg.contact.Name)
	}
	return m.reload()
}

// ConfirmDelete deletes the contact awaiting confirmation.
func (m ContactsModel) ConfirmDelete() (ContactsModel, tea.Cmd) {
	if m.dialog != DialogConfirmDelete || m.target == nil || m.deleting {
		return m, nil
	}
	m.deleting = true
	ctx, service, id := m.ctx, m.service, m.target.IDValue()
	return m, func() tea.Msg {
		return contactDeletedMsg{id: id, err: service.DeleteContact(ctx, id)}
	}
}

func (m ContactsModel) handleContactDeleted(msg contactDeletedMsg) (ContactsModel, tea.Cmd) {
	m.deleting = false
	if m.dialog == DialogConfirmDelete {
		m.dialog = DialogNone
		m.target = nil
	}
	if msg.err != nil {
		m.errMsg = display.ErrorMessage(msg.err)
		return m, nil
	}

	kept := m.contacts[:0:0]
	for _, c := range m.contacts {
		if c.IDValue() != msg.id {
			kept = append(kept, c)
		}
	}
	m.contacts = kept
	if m.cursor >= len(m.contacts) && m.cursor > 0 {
		m.cursor = len(m.contacts) - 1
	}
	m.reportsStale = true
	m.flash = "Contact deleted"
	return m.reload()
}

// ToggleReports shows or hides the reports panel. Reports are fetched on
// first open and again only after a mutation.
func (m ContactsModel) ToggleReports() (ContactsModel, tea.Cmd) {
	if m.dialog == DialogReports {
		return m.GoBackToContacts(), nil
	}

	m.dialog = DialogReports
	m.target = nil
	m.editing = false
	m.searchFocused = false
	if m.reportsLoading || (m.report != nil && !m.reportsStale) {
		return m, nil
	}

	m.reportsLoading = true
	ctx, service := m.ctx, m.service
	return m, func() tea.Msg {
		r, err := service.Reports(ctx)
		return reportsLoadedMsg{report: r, err: err}
	}
}

// GoBackToContacts hides the reports panel and keeps its data.
func (m ContactsModel) GoBackToContacts() ContactsModel {
	if m.dialog == DialogReports {
		m.dialog = DialogNone
	}
	return m
}

// ReportsVisible reports whether the reports panel is open.
func (m ContactsModel) ReportsVisible() bool {
	return m.dialog == DialogReports
}

func (m ContactsModel) handleReportsLoaded(msg reportsLoadedMsg) (ContactsModel, tea.Cmd) {
	m.reportsLoading = false
	if msg.err != nil {
		m.errMsg = display.ErrorMessage(msg.err)
		return m, nil
	}
	r := msg.report
	m.report = &r
	m.reportsStale = false
	return m, nil
}

// CallContact asks the server to call c. Screen state is left alone apart
// from the error or flash line.
func (m ContactsModel) CallContact(c models.Contact) (ContactsModel, tea.Cmd) {
	if m.calling || c.IsDraft() {
		return m, nil
	}
	m.calling = true
	ctx, service, id, name := m.ctx, m.service, c.IDValue(), c.Name
	return m, func() tea.Msg {
		return contactCalledMsg{name: name, err: service.CallContact(ctx, id)}
	}
}

func (m ContactsModel) handleContactCalled(msg contactCalledMsg) (ContactsModel, tea.Cmd) {
	m.calling = false
	if msg.err != nil {
		m.errMsg = display.ErrorMessage(msg.err)
		return m, nil
	}
	m.flash = "Calling " + msg.name
	return m, nil
}

// Logout asks the app to clear the session and return to login.
func (m ContactsModel) Logout() tea.Cmd {
	return func() tea.Msg { return logoutRequestedMsg{} }
}

func (m ContactsModel) Update(msg tea.Msg) (ContactsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case debounceFiredMsg:
		return m.handleDebounceFired(msg)
	case contactsLoadedMsg:
		return m.handleContactsLoaded(msg)
	case contactSavedMsg:
		return m.handleContactSaved(msg)
	case contactDeletedMsg:
		return m.handleContactDeleted(msg)
	case contactCalledMsg:
		return m.handleContactCalled(msg)
	case reportsLoadedMsg:
		return m.handleReportsLoaded(msg)
	}
	return m, nil
}

func (m ContactsModel) handleKeyPress(msg tea.KeyMsg) (ContactsModel, tea.Cmd) {
	switch m.dialog {
	case DialogForm:
		return m.handleEditKeys(msg)
	case DialogView:
		return m.handleDetailKeys(msg)
	case DialogConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	case DialogReports:
		return m.handleReportsKeys(msg)
	}
	return m.handleListKeys(msg)
}

func (m ContactsModel) View() string {
	switch m.dialog {
	case DialogForm:
		return m.renderEditView()
	case DialogView:
		return m.renderDetailView()
	case DialogConfirmDelete:
		return m.renderConfirmDeleteView()
	case DialogReports:
		return m.renderReportsView()
	}
	return m.renderListView()
}

func (m ContactsModel) renderStatus() string {
	switch {
	case m.errMsg != "":
		return errorStyle.Render(m.errMsg)
	case m.flash != "":
		return flashStyle.Render(m.flash)
	}
	return ""
}
