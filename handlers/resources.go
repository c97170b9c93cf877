// ABOUTME: MCP resource handlers for exposing contact data
// ABOUTME: Provides read-only access to the contact list and reports via ringbook:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/ringbook/models"
)

const (
	ContactsResourceURI = "ringbook://contacts"
	ReportsResourceURI  = "ringbook://reports"
)

type ResourceHandlers struct {
	svc Service
}

func NewResourceHandlers(svc Service) *ResourceHandlers {
	return &ResourceHandlers{svc: svc}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, "ringbook://") {
		return nil, fmt.Errorf("invalid URI scheme: expected ringbook://")
	}

	switch uri {
	case ContactsResourceURI:
		return h.readAllContacts(ctx)
	case ReportsResourceURI:
		return h.readReports(ctx)
	default:
		return nil, fmt.Errorf("unknown resource: %s", strings.TrimPrefix(uri, "ringbook://"))
	}
}

func (h *ResourceHandlers) readAllContacts(ctx context.Context) (*mcp.ReadResourceResult, error) {
	list, err := h.svc.ListContacts(ctx, &models.ListFilter{})
	if err != nil {
		return nil, toolError("fetch contacts", err)
	}

	out := make([]ContactOutput, len(list))
	for i, c := range list {
		out[i] = contactToOutput(c)
	}
	return jsonResource(ContactsResourceURI, out)
}

func (h *ResourceHandlers) readReports(ctx context.Context) (*mcp.ReadResourceResult, error) {
	report, err := h.svc.Reports(ctx)
	if err != nil {
		return nil, toolError("fetch reports", err)
	}
	return jsonResource(ReportsResourceURI, ContactsReportOutput{
		ByState: bucketsToOutput(report.ByState),
		ByCity:  bucketsToOutput(report.ByCity),
	})
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

// Register adds the contact resources to server.
func (h *ResourceHandlers) Register(server *mcp.Server) {
	server.AddResource(&mcp.Resource{
		URI:         ContactsResourceURI,
		Name:        "contacts",
		Description: "All contacts in ascending order",
		MIMEType:    "application/json",
	}, h.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:         ReportsResourceURI,
		Name:        "reports",
		Description: "Contact counts by state and by city",
		MIMEType:    "application/json",
	}, h.ReadResource)
}
