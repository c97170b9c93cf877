// ABOUTME: MCP server subcommand
// ABOUTME: Serves the contact tools and resources on stdio for agent integration
package cli

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/harperreed/ringbook/handlers"
)

// NewMCPServer builds the MCP server with every contact tool and resource.
func NewMCPServer(svc handlers.Service, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "ringbook",
		Version: version,
	}, nil)

	handlers.NewContactHandlers(svc).Register(server)
	handlers.NewResourceHandlers(svc).Register(server)
	return server
}

// MCPCommand starts the MCP server on stdio
func MCPCommand(ctx context.Context, env *Env, version string) error {
	if err := env.RequireAuth(); err != nil {
		return err
	}

	env.logger().Info("starting MCP server", zap.String("api", env.Config.BaseURL()))

	server := NewMCPServer(env.Contacts, version)
	return server.Run(ctx, &mcp.StdioTransport{})
}
