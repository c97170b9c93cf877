// ABOUTME: Session CLI commands
// ABOUTME: Browser login through the popup handshake, logout and status
package cli

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/harperreed/ringbook/auth"
)

// LoginCommand runs the browser login and waits for it to finish.
func LoginCommand(ctx context.Context, env *Env, args []string) error {
	w := env.out()
	if env.Gate.Resolve(auth.RouteLogin) == auth.RouteContacts {
		_, _ = fmt.Fprintln(w, "Already logged in. Run 'ringbook logout' to switch accounts.")
		return nil
	}

	// The CLI has no screens to move between; landing on contacts means success.
	nav := auth.NavigatorFunc(func(auth.Route) {})

	hs, err := env.Gate.Login(ctx, nav)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w, "Waiting for the browser login to finish (Ctrl+C to cancel)...")

	outcome := hs.Wait(ctx)
	if outcome == auth.OutcomePending {
		hs.Cancel()
		<-hs.Done()
		outcome = hs.Outcome()
	}
	env.logger().Info("cli login finished", zap.Stringer("outcome", outcome))

	switch outcome {
	case auth.OutcomeAuthenticated:
		_, _ = fmt.Fprintln(w, "✓ Logged in")
		return nil
	case auth.OutcomeAbandoned:
		return errors.New("login window was closed before signing in")
	case auth.OutcomeFailed:
		return fmt.Errorf("login failed: %w", hs.Err())
	}
	return errors.New("login canceled")
}

// LogoutCommand clears the stored session.
func LogoutCommand(_ context.Context, env *Env, _ []string) error {
	if err := env.Gate.Logout(); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	_, _ = fmt.Fprintln(env.out(), "✓ Logged out")
	return nil
}

// StatusCommand prints where the client points and whether it is logged in.
func StatusCommand(_ context.Context, env *Env, _ []string) error {
	w := env.out()
	loggedIn := "no"
	if env.Gate.Resolve(auth.RouteContacts) == auth.RouteContacts {
		loggedIn = "yes"
	}

	_, _ = fmt.Fprintf(w, "API:       %s\n", env.Config.BaseURL())
	_, _ = fmt.Fprintf(w, "Provider:  %s\n", env.Config.OAuthProvider)
	_, _ = fmt.Fprintf(w, "Session:   %s\n", env.Config.SessionBackend)
	_, _ = fmt.Fprintf(w, "Logged in: %s\n", loggedIn)
	return nil
}
