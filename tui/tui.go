// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Root model routes between the login and contacts screens through the auth gate
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/ringbook/auth"
	"github.com/harperreed/ringbook/config"
	"github.com/harperreed/ringbook/contacts"
	"github.com/harperreed/ringbook/models"
)

// ContactService is the slice of the contact gateway the screens use.
type ContactService interface {
	ListContacts(ctx context.Context, filter *models.ListFilter) ([]models.Contact, error)
	CreateContact(ctx context.Context, draft models.Contact) (*models.Contact, error)
	UpdateContact(ctx context.Context, id int64, patch models.ContactPatch) (*models.Contact, error)
	DeleteContact(ctx context.Context, id int64) error
	CallContact(ctx context.Context, id int64) error
	Reports(ctx context.Context) (contacts.Report, error)
}

// Gatekeeper is the authentication gate as the screens see it.
type Gatekeeper interface {
	Resolve(to auth.Route) auth.Route
	Login(ctx context.Context, nav auth.Navigator) (*auth.Handshake, error)
	Logout() error
}

// NavigateMsg asks the app to move to a route. The gate decides where it lands.
type NavigateMsg struct {
	To auth.Route
}

// channelNavigator turns navigation from other goroutines into messages.
type channelNavigator chan auth.Route

func (c channelNavigator) Navigate(to auth.Route) {
	select {
	case c <- to:
	default:
	}
}

func waitForNavigation(ctx context.Context, ch channelNavigator) tea.Cmd {
	return func() tea.Msg {
		select {
		case to := <-ch:
			return NavigateMsg{To: to}
		case <-ctx.Done():
			return nil
		}
	}
}

// Options tune the app's timing.
type Options struct {
	SearchDebounce time.Duration
}

// OptionsFromConfig reads timing from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{SearchDebounce: cfg.SearchDebounce}
}

// App is the root bubbletea model.
type App struct {
	ctx     context.Context
	gate    Gatekeeper
	service ContactService
	opts    Options
	nav     channelNavigator

	route    auth.Route
	login    LoginModel
	contacts ContactsModel

	width  int
	height int
}

// NewApp resolves the start screen through the gate.
func NewApp(ctx context.Context, gate Gatekeeper, service ContactService, opts Options) App {
	if opts.SearchDebounce <= 0 {
		opts.SearchDebounce = config.DefaultSearchDebounce
	}
	a := App{
		ctx:     ctx,
		gate:    gate,
		service: service,
		opts:    opts,
		nav:     make(channelNavigator, 4),
		width:   80,
		height:  24,
	}
	a.enter(gate.Resolve(auth.RouteContacts))
	return a
}

// Route is the screen currently shown.
func (a App) Route() auth.Route {
	return a.route
}

func (a *App) enter(route auth.Route) {
	a.route = route
	switch route {
	case auth.RouteContacts:
		a.contacts = NewContactsModel(a.ctx, a.service, a.opts.SearchDebounce)
		a.contacts.width, a.contacts.height = a.width, a.height
	default:
		a.login = NewLoginModel(a.ctx, a.gate, a.nav)
	}
}

func (a App) screenInit() tea.Cmd {
	if a.route == auth.RouteContacts {
		return a.contacts.Init()
	}
	return a.login.Init()
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.screenInit(), waitForNavigation(a.ctx, a.nav))
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if msg.String() == "q" && !a.typing() {
			return a, tea.Quit
		}
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
	case NavigateMsg:
		return a.navigate(msg.To)
	case logoutRequestedMsg:
		gate := a.gate
		return a, func() tea.Msg { return logoutMsg{err: gate.Logout()} }
	case logoutMsg:
		if msg.err != nil {
			a.contacts.errMsg = "Logout failed: " + msg.err.Error()
			return a, nil
		}
		return a.navigate(auth.RouteLogin)
	}

	var cmd tea.Cmd
	if a.route == auth.RouteContacts {
		a.contacts, cmd = a.contacts.Update(msg)
	} else {
		a.login, cmd = a.login.Update(msg)
	}
	return a, cmd
}

// navigate re-runs the gate on every move, then keeps listening.
func (a App) navigate(to auth.Route) (tea.Model, tea.Cmd) {
	resolved := a.gate.Resolve(to)
	listen := waitForNavigation(a.ctx, a.nav)
	if resolved == a.route {
		return a, listen
	}
	a.enter(resolved)
	return a, tea.Batch(a.screenInit(), listen)
}

func (a App) typing() bool {
	if a.route == auth.RouteContacts {
		return a.contacts.Typing()
	}
	return false
}

func (a App) View() string {
	if a.route == auth.RouteContacts {
		return a.contacts.View()
	}
	return a.login.View()
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	flashStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(10)

	avatarStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("#5946e4")).
			Padding(0, 1)
)
