// ABOUTME: Contact MCP tool handlers
// ABOUTME: Implements list_contacts, create_contact, update_contact, delete_contact, call_contact and contacts_report
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/ringbook/api"
	"github.com/harperreed/ringbook/contacts"
	"github.com/harperreed/ringbook/display"
	"github.com/harperreed/ringbook/models"
	"github.com/harperreed/ringbook/viz"
)

// Service is the contact gateway as the tools use it.
type Service interface {
	ListContacts(ctx context.Context, filter *models.ListFilter) ([]models.Contact, error)
	CreateContact(ctx context.Context, draft models.Contact) (*models.Contact, error)
	UpdateContact(ctx context.Context, id int64, patch models.ContactPatch) (*models.Contact, error)
	DeleteContact(ctx context.Context, id int64) error
	CallContact(ctx context.Context, id int64) error
	Reports(ctx context.Context) (contacts.Report, error)
}

type ContactHandlers struct {
	svc Service
}

func NewContactHandlers(svc Service) *ContactHandlers {
	return &ContactHandlers{svc: svc}
}

// toolError reports API failures with the same text the TUI shows.
func toolError(action string, err error) error {
	if _, ok := api.AsError(err); ok {
		return fmt.Errorf("failed to %s: %s", action, display.ErrorMessage(err))
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

type ContactOutput struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Mobile   string `json:"mobile"`
	Address  string `json:"address,omitempty"`
	District string `json:"district,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Photo    string `json:"photo,omitempty"`
	Initials string `json:"initials"`
}

func contactToOutput(c models.Contact) ContactOutput {
	initials := c.Initials
	if initials == "" {
		initials = display.GenerateInitials(c.Name)
	}
	return ContactOutput{
		ID:       c.IDValue(),
		Name:     c.Name,
		Email:    c.Email,
		Phone:    c.Phone,
		Mobile:   c.Mobile,
		Address:  c.Address,
		District: c.District,
		City:     c.City,
		State:    c.State,
		Photo:    c.Photo,
		Initials: initials,
	}
}

type ListContactsInput struct {
	Search string `json:"search,omitempty" jsonschema:"Search text matched by the server"`
	Sort   string `json:"sort,omitempty" jsonschema:"Sort order: asc (default) or desc"`
}

type ListContactsOutput struct {
	Contacts []ContactOutput `json:"contacts"`
}

func (h *ContactHandlers) ListContacts(ctx context.Context, _ *mcp.CallToolRequest, input ListContactsInput) (*mcp.CallToolResult, ListContactsOutput, error) {
	order, ok := models.ParseSortOrder(input.Sort)
	if !ok {
		return nil, ListContactsOutput{}, fmt.Errorf("invalid sort %q: use asc or desc", input.Sort)
	}

	list, err := h.svc.ListContacts(ctx, &models.ListFilter{Search: input.Search, SortOrder: order})
	if err != nil {
		return nil, ListContactsOutput{}, toolError("list contacts", err)
	}

	result := make([]ContactOutput, len(list))
	for i, c := range list {
		result[i] = contactToOutput(c)
	}
	return nil, ListContactsOutput{Contacts: result}, nil
}

type CreateContactInput struct {
	Name     string `json:"name" jsonschema:"Contact name (required)"`
	Email    string `json:"email" jsonschema:"Email address (required)"`
	Phone    string `json:"phone" jsonschema:"Phone number (required)"`
	Mobile   string `json:"mobile" jsonschema:"Mobile number (required)"`
	Address  string `json:"address,omitempty" jsonschema:"Street address"`
	District string `json:"district,omitempty" jsonschema:"District"`
	City     string `json:"city,omitempty" jsonschema:"City"`
	State    string `json:"state,omitempty" jsonschema:"State"`
	Photo    string `json:"photo,omitempty" jsonschema:"Photo URL"`
}

func (h *ContactHandlers) CreateContact(ctx context.Context, _ *mcp.CallToolRequest, input CreateContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	draft := models.Contact{
		Name:     strings.TrimSpace(input.Name),
		Email:    strings.TrimSpace(input.Email),
		Phone:    strings.TrimSpace(input.Phone),
		Mobile:   strings.TrimSpace(input.Mobile),
		Address:  strings.TrimSpace(input.Address),
		District: strings.TrimSpace(input.District),
		City:     strings.TrimSpace(input.City),
		State:    strings.TrimSpace(input.State),
		Photo:    strings.TrimSpace(input.Photo),
	}
	if missing := draft.MissingFields(); len(missing) > 0 {
		return nil, ContactOutput{}, fmt.Errorf("%s required", strings.Join(missing, ", "))
	}

	created, err := h.svc.CreateContact(ctx, draft)
	if err != nil {
		return nil, ContactOutput{}, toolError("create contact", err)
	}
	return nil, contactToOutput(*created), nil
}

type UpdateContactInput struct {
	ID       int64   `json:"id" jsonschema:"Contact ID (required)"`
	Name     *string `json:"name,omitempty" jsonschema:"Updated name"`
	Email    *string `json:"email,omitempty" jsonschema:"Updated email address"`
	Phone    *string `json:"phone,omitempty" jsonschema:"Updated phone number"`
	Mobile   *string `json:"mobile,omitempty" jsonschema:"Updated mobile number"`
	Address  *string `json:"address,omitempty" jsonschema:"Updated street address"`
	District *string `json:"district,omitempty" jsonschema:"Updated district"`
	City     *string `json:"city,omitempty" jsonschema:"Updated city"`
	State    *string `json:"state,omitempty" jsonschema:"Updated state"`
	Photo    *string `json:"photo,omitempty" jsonschema:"Updated photo URL"`
}

func (h *ContactHandlers) UpdateContact(ctx context.Context, _ *mcp.CallToolRequest, input UpdateContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	if input.ID <= 0 {
		return nil, ContactOutput{}, fmt.Errorf("id is required")
	}

	patch := models.ContactPatch{
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		Mobile:   input.Mobile,
		Address:  input.Address,
		District: input.District,
		City:     input.City,
		State:    input.State,
		Photo:    input.Photo,
	}
	if patch.IsEmpty() {
		return nil, ContactOutput{}, fmt.Errorf("no fields to update")
	}

	updated, err := h.svc.UpdateContact(ctx, input.ID, patch)
	if err != nil {
		return nil, ContactOutput{}, toolError("update contact", err)
	}
	return nil, contactToOutput(*updated), nil
}

type ContactIDInput struct {
	ID int64 `json:"id" jsonschema:"Contact ID (required)"`
}

type ContactActionOutput struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

func (h *ContactHandlers) DeleteContact(ctx context.Context, _ *mcp.CallToolRequest, input ContactIDInput) (*mcp.CallToolResult, ContactActionOutput, error) {
	if input.ID <= 0 {
		return nil, ContactActionOutput{}, fmt.Errorf("id is required")
	}
	if err := h.svc.DeleteContact(ctx, input.ID); err != nil {
		return nil, ContactActionOutput{}, toolError("delete contact", err)
	}
	return nil, ContactActionOutput{ID: input.ID, Message: "contact deleted"}, nil
}

func (h *ContactHandlers) CallContact(ctx context.Context, _ *mcp.CallToolRequest, input ContactIDInput) (*mcp.CallToolResult, ContactActionOutput, error) {
	if input.ID <= 0 {
		return nil, ContactActionOutput{}, fmt.Errorf("id is required")
	}
	if err := h.svc.CallContact(ctx, input.ID); err != nil {
		return nil, ContactActionOutput{}, toolError("call contact", err)
	}
	return nil, ContactActionOutput{ID: input.ID, Message: "call requested"}, nil
}

type ContactsReportInput struct{}

type ReportBucketOutput struct {
	Label   string `json:"label"`
	Count   int    `json:"count"`
	Percent string `json:"percent"`
}

type ContactsReportOutput struct {
	ByState []ReportBucketOutput `json:"by_state"`
	ByCity  []ReportBucketOutput `json:"by_city"`
}

func bucketsToOutput(buckets []models.ReportBucket) []ReportBucketOutput {
	total := 0
	for _, b := range buckets {
		total += b.Count
	}
	out := make([]ReportBucketOutput, len(buckets))
	for i, b := range buckets {
		out[i] = ReportBucketOutput{Label: b.Label, Count: b.Count, Percent: viz.Percent(b.Count, total)}
	}
	return out
}

func (h *ContactHandlers) ContactsReport(ctx context.Context, _ *mcp.CallToolRequest, _ ContactsReportInput) (*mcp.CallToolResult, ContactsReportOutput, error) {
	report, err := h.svc.Reports(ctx)
	if err != nil {
		return nil, ContactsReportOutput{}, toolError("load reports", err)
	}
	return nil, ContactsReportOutput{
		ByState: bucketsToOutput(report.ByState),
		ByCity:  bucketsToOutput(report.ByCity),
	}, nil
}

// Register adds every contact tool to server.
func (h *ContactHandlers) Register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_contacts",
		Description: "List contacts, optionally filtered by search text and sorted asc or desc",
	}, h.ListContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_contact",
		Description: "Create a contact; name, email, phone and mobile are required",
	}, h.CreateContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_contact",
		Description: "Update only the given fields of an existing contact",
	}, h.UpdateContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_contact",
		Description: "Delete a contact by ID",
	}, h.DeleteContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "call_contact",
		Description: "Ask the server to place a call to a contact",
	}, h.CallContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "contacts_report",
		Description: "Contact counts grouped by state and by city, with percentages",
	}, h.ContactsReport)
}
