// ABOUTME: Entry point for the ringbook contacts client
// ABOUTME: Routes to the TUI, CLI commands or the MCP server based on arguments
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/harperreed/ringbook/api"
	"github.com/harperreed/ringbook/auth"
	"github.com/harperreed/ringbook/cli"
	"github.com/harperreed/ringbook/config"
	"github.com/harperreed/ringbook/contacts"
	"github.com/harperreed/ringbook/logging"
	"github.com/harperreed/ringbook/session"
)

const version = "0.1.0"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Config file path (default: ~/.config/ringbook/config.json)")

	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		fmt.Printf("ringbook version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	command := "tui"
	if len(args) == 0 {
		// Only a real terminal gets the interactive client
		if !isTerminal() {
			printUsage()
			os.Exit(0)
		}
	} else {
		command = args[0]
		args = args[1:]
	}

	if command == "help" {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	sess, err := session.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open session store: %v", err)
	}
	defer func() { _ = sess.Close() }()

	client := api.New(cfg.BaseURL(), sess,
		api.WithLogger(logger),
		api.WithTimeout(cfg.RequestTimeout),
	)

	window := auth.NewBrowserWindow(cfg, logger)
	if command != "tui" {
		window.OnOpen = func(url string) {
			fmt.Fprintf(os.Stderr, "Opening %s\nIf the browser does not open, visit the URL above.\n", url)
		}
	}

	env := &cli.Env{
		Config:   cfg,
		Gate:     auth.NewGate(sess, window, cfg, logger),
		Contacts: contacts.NewGateway(client, contacts.WithLogger(logger)),
		Logger:   logger,
		Out:      os.Stdout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Debug("running command", zap.String("command", command))

	if err := run(ctx, env, command, args); err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %s\n", cli.ErrorText(err))
		_ = logger.Sync()
		_ = sess.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, env *cli.Env, command string, args []string) error {
	switch command {
	case "tui":
		return cli.TUICommand(ctx, env)
	case "mcp":
		return cli.MCPCommand(ctx, env, version)

	// Session commands
	case "login":
		return cli.LoginCommand(ctx, env, args)
	case "logout":
		return cli.LogoutCommand(ctx, env, args)
	case "status":
		return cli.StatusCommand(ctx, env, args)

	// Contact commands
	case "list-contacts":
		return cli.ListContactsCommand(ctx, env, args)
	case "add-contact":
		return cli.AddContactCommand(ctx, env, args)
	case "update-contact":
		return cli.UpdateContactCommand(ctx, env, args)
	case "delete-contact":
		return cli.DeleteContactCommand(ctx, env, args)
	case "call-contact":
		return cli.CallContactCommand(ctx, env, args)

	// Reports
	case "report":
		return cli.ReportCommand(ctx, env, args)
	}

	printUsage()
	return fmt.Errorf("unknown command: %s", command)
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func printUsage() {
	fmt.Printf(`ringbook v%s - Contacts client

USAGE:
  ringbook [global flags] [command] [flags]

  Run with no command in a terminal to start the interactive client.

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Config file path (default: ~/.config/ringbook/config.json)

COMMANDS:
  tui                    Interactive contacts screen
  mcp                    Start MCP server on stdio
  login                  Log in through the browser
  logout                 Clear the stored session
  status                 Show API endpoint and login state

CONTACT COMMANDS:
  ringbook list-contacts     List contacts
    --search <text>            Search text
    --sort asc|desc            Sort order (default: asc)
    --format table|json|yaml   Output format (default: table)

  ringbook add-contact       Add a new contact
    --name <name>              Contact name (required)
    --email <email>            Email address (required)
    --phone <phone>            Phone number (required)
    --mobile <mobile>          Mobile number (required)
    --address, --district, --city, --state, --photo

  ringbook update-contact [flags] <id>  Update an existing contact
    Same flags as add-contact; only the flags given are sent
    Note: flags must come before the contact ID

  ringbook delete-contact <id>   Delete a contact
  ringbook call-contact <id>     Ask the server to call a contact

REPORTS:
  ringbook report [flags] state|city
    --format table|json|yaml   Output format (default: table)
    --width <n>                Chart width (default: 40)

ENVIRONMENT:
  RINGBOOK_API_URL, RINGBOOK_OAUTH_PROVIDER, RINGBOOK_SESSION_BACKEND,
  RINGBOOK_CALLBACK_ADDR, RINGBOOK_LOGIN_TIMEOUT, RINGBOOK_LOG_LEVEL, RINGBOOK_LOG_FILE

EXAMPLES:
  # Log in, then list contacts in Recife
  ringbook login
  ringbook list-contacts --search Recife

  # Add a contact
  ringbook add-contact --name "João Silva" --email joao@example.com --phone 1133334444 --mobile 11999998888

  # Contacts per state as YAML
  ringbook report --format yaml state

`, version)
}
