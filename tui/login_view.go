// ABOUTME: Login screen driving the OAuth popup handshake
// ABOUTME: Waits for the browser and reports abandoned or failed logins
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/ringbook/auth"
)

type loginStartedMsg struct {
	handshake *auth.Handshake
	err       error
}

type loginFinishedMsg struct {
	handshake *auth.Handshake
	outcome   auth.Outcome
	err       error
}

// LoginModel is the login screen.
type LoginModel struct {
	ctx  context.Context
	gate Gatekeeper
	nav  auth.Navigator

	handshake *auth.Handshake
	waiting   bool
	status    string
	errMsg    string
	spinner   spinner.Model
}

// NewLoginModel builds an idle login screen.
func NewLoginModel(ctx context.Context, gate Gatekeeper, nav auth.Navigator) LoginModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return LoginModel{ctx: ctx, gate: gate, nav: nav, spinner: sp}
}

func (m LoginModel) Init() tea.Cmd {
	return nil
}

// Waiting reports whether a handshake is in flight.
func (m LoginModel) Waiting() bool {
	return m.waiting
}

func (m LoginModel) startLogin() tea.Cmd {
	ctx, gate, nav := m.ctx, m.gate, m.nav
	return func() tea.Msg {
		hs, err := gate.Login(ctx, nav)
		return loginStartedMsg{handshake: hs, err: err}
	}
}

func waitForHandshake(ctx context.Context, hs *auth.Handshake) tea.Cmd {
	return func() tea.Msg {
		outcome := hs.Wait(ctx)
		return loginFinishedMsg{handshake: hs, outcome: outcome, err: hs.Err()}
	}
}

func (m LoginModel) Update(msg tea.Msg) (LoginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleLoginKeys(msg)
	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case loginStartedMsg:
		if msg.err != nil {
			m.waiting = false
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.handshake = msg.handshake
		m.status = "Waiting for the browser login to finish..."
		return m, tea.Batch(waitForHandshake(m.ctx, msg.handshake), m.spinner.Tick)
	case loginFinishedMsg:
		if msg.handshake != m.handshake {
			return m, nil
		}
		m.waiting = false
		m.handshake = nil
		switch msg.outcome {
		case auth.OutcomeAuthenticated:
			m.status = "Signed in."
		case auth.OutcomeAbandoned:
			m.status = "The login window was closed before signing in. Press Enter to try again."
		case auth.OutcomeCanceled:
			m.status = "Login canceled."
		case auth.OutcomeFailed:
			m.status = ""
			if msg.err != nil {
				m.errMsg = msg.err.Error()
			}
		}
		return m, nil
	}
	return m, nil
}

func (m LoginModel) handleLoginKeys(msg tea.KeyMsg) (LoginModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.waiting {
			return m, nil
		}
		m.waiting = true
		m.errMsg = ""
		m.status = "Opening the browser..."
		return m, m.startLogin()
	case "esc":
		if m.waiting && m.handshake != nil {
			m.handshake.Cancel()
		}
		return m, nil
	}
	return m, nil
}

func (m LoginModel) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("RINGBOOK"))
	s.WriteString("\n\n")
	s.WriteString("Sign in with your provider account to manage your contacts.\n\n")

	if m.waiting {
		s.WriteString(m.spinner.View() + " ")
	}
	if m.status != "" {
		s.WriteString(m.status)
		s.WriteString("\n")
	}
	if m.errMsg != "" {
		s.WriteString(errorStyle.Render(m.errMsg))
		s.WriteString("\n")
	}

	if m.waiting {
		s.WriteString(helpStyle.Render("Esc: Cancel login • q: Quit"))
	} else {
		s.WriteString(helpStyle.Render("Enter: Log in • q: Quit"))
	}
	return s.String()
}
