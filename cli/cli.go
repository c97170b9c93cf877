// ABOUTME: Shared plumbing for CLI subcommands
// ABOUTME: Command environment, auth gating, id parsing and table/json/yaml output
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/harperreed/ringbook/auth"
	"github.com/harperreed/ringbook/config"
	"github.com/harperreed/ringbook/contacts"
	"github.com/harperreed/ringbook/models"
)

// Service is the contact gateway as the commands use it.
type Service interface {
	ListContacts(ctx context.Context, filter *models.ListFilter) ([]models.Contact, error)
	CreateContact(ctx context.Context, draft models.Contact) (*models.Contact, error)
	UpdateContact(ctx context.Context, id int64, patch models.ContactPatch) (*models.Contact, error)
	DeleteContact(ctx context.Context, id int64) error
	CallContact(ctx context.Context, id int64) error
	ContactsByState(ctx context.Context) ([]models.ReportBucket, error)
	ContactsByCity(ctx context.Context) ([]models.ReportBucket, error)
	Reports(ctx context.Context) (contacts.Report, error)
}

// Gatekeeper is the authentication gate as the commands use it.
type Gatekeeper interface {
	Resolve(to auth.Route) auth.Route
	Login(ctx context.Context, nav auth.Navigator) (*auth.Handshake, error)
	Logout() error
}

// Env is everything a subcommand may need.
type Env struct {
	Config   *config.Config
	Gate     Gatekeeper
	Contacts Service
	Logger   *zap.Logger
	Out      io.Writer
}

func (e *Env) out() io.Writer {
	if e.Out == nil {
		return os.Stdout
	}
	return e.Out
}

func (e *Env) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// ErrNotLoggedIn is returned by gated commands when there is no session token.
var ErrNotLoggedIn = errors.New("not logged in: run 'ringbook login' first")

// RequireAuth refuses to continue unless the gate lets the user reach contacts.
func (e *Env) RequireAuth() error {
	if e.Gate.Resolve(auth.RouteContacts) != auth.RouteContacts {
		return ErrNotLoggedIn
	}
	return nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid contact ID: %q", arg)
	}
	return id, nil
}

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

func validFormat(format string) error {
	switch format {
	case FormatTable, FormatJSON, FormatYAML:
		return nil
	}
	return fmt.Errorf("unknown format %q (use table, json or yaml)", format)
}

// writeOutput prints v as json or yaml, or calls table for the default format.
func writeOutput(w io.Writer, format string, v any, table func(tw *tabwriter.Writer)) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
