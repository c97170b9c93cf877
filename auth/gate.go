// ABOUTME: Authentication gate guarding routes on the stored session token
// ABOUTME: Resolves navigation targets and starts popup login handshakes
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harperreed/ringbook/config"
	"github.com/harperreed/ringbook/session"
)

// Route is a screen the client can navigate to.
type Route int

const (
	RouteLogin Route = iota
	RouteContacts
)

func (r Route) String() string {
	if r == RouteContacts {
		return "contacts"
	}
	return "login"
}

// RequiresAuth reports whether the route needs a stored token.
func RequiresAuth(r Route) bool {
	return r == RouteContacts
}

// Navigator moves the client to another route.
type Navigator interface {
	Navigate(to Route)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(to Route)

func (f NavigatorFunc) Navigate(to Route) { f(to) }

// State is where the gate's login state machine sits.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unauthenticated"
}

// PopupFeatures is the window feature string passed to Window.Open.
const PopupFeatures = "width=500,height=600,scrollbars=yes,resizable=yes"

// Gate is the sole writer of the session token.
type Gate struct {
	session      *session.Session
	window       Window
	redirectURL  string
	provider     string
	pollInterval time.Duration
	logger       *zap.Logger

	mu      sync.Mutex
	state   State
	current *Handshake
	gen     int
}

// NewGate builds a gate for the configured OAuth provider.
func NewGate(sess *session.Session, window Window, cfg *config.Config, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.PopupPollInterval
	if interval <= 0 {
		interval = config.DefaultPopupPollInterval
	}
	g := &Gate{
		session:      sess,
		window:       window,
		redirectURL:  cfg.OAuthRedirectURL(),
		provider:     cfg.OAuthProvider,
		pollInterval: interval,
		logger:       logger,
	}
	if sess.Authenticated() {
		g.state = StateAuthenticated
	}
	return g
}

// State returns the current login state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Resolve returns where a navigation to `to` should actually land.
func (g *Gate) Resolve(to Route) Route {
	authed := g.session.Authenticated()

	g.mu.Lock()
	defer g.mu.Unlock()

	if authed {
		g.state = StateAuthenticated
		if to == RouteLogin {
			return RouteContacts
		}
		return to
	}

	if g.state != StateAuthenticating {
		g.state = StateUnauthenticated
	}
	if RequiresAuth(to) {
		return RouteLogin
	}
	return to
}

// PopupName is the window title for the provider's login popup.
func (g *Gate) PopupName() string {
	p := strings.TrimSpace(g.provider)
	if p == "" {
		return "Login"
	}
	return "Login with " + strings.ToUpper(p[:1]) + p[1:]
}

// Login opens the provider popup and returns the running handshake. A login
// already in flight is canceled first.
func (g *Gate) Login(ctx context.Context, nav Navigator) (*Handshake, error) {
	if g.window == nil {
		return nil, errors.New("no login window available")
	}

	g.mu.Lock()
	prev := g.current
	g.current = nil
	g.gen++
	gen := g.gen
	g.state = StateAuthenticating
	g.mu.Unlock()
	if prev != nil {
		prev.Cancel()
	}

	onEnd := func(o Outcome) {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.gen != gen {
			return
		}
		g.current = nil
		if o == OutcomeAuthenticated {
			g.state = StateAuthenticated
		} else {
			g.state = StateUnauthenticated
		}
	}

	hs, err := startHandshake(ctx, handshakeParams{
		window:   g.window,
		session:  g.session,
		nav:      nav,
		logger:   g.logger,
		url:      g.redirectURL,
		name:     g.PopupName(),
		features: PopupFeatures,
		interval: g.pollInterval,
		onEnd:    onEnd,
	})
	if err != nil {
		g.mu.Lock()
		if g.gen == gen {
			g.state = StateUnauthenticated
		}
		g.mu.Unlock()
		return nil, fmt.Errorf("failed to open login popup: %w", err)
	}

	g.mu.Lock()
	if g.gen == gen && hs.Outcome() == OutcomePending {
		g.current = hs
	}
	g.mu.Unlock()
	return hs, nil
}

// Logout clears the token and cancels any login in flight.
func (g *Gate) Logout() error {
	g.mu.Lock()
	prev := g.current
	g.current = nil
	g.gen++
	g.state = StateUnauthenticated
	g.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}
	return g.session.Clear()
}
