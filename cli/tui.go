// ABOUTME: Interactive TUI subcommand
// ABOUTME: Runs the bubbletea app on the alternate screen
package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/ringbook/tui"
)

// TUICommand runs the interactive client until the user quits.
func TUICommand(ctx context.Context, env *Env) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app := tui.NewApp(ctx, env.Gate, env.Contacts, tui.OptionsFromConfig(env.Config))
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}
