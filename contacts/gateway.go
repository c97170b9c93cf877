// ABOUTME: Typed contact and report operations over the API client
// ABOUTME: Normalizes list and report envelopes into flat slices
package contacts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harperreed/ringbook/api"
	"github.com/harperreed/ringbook/models"
)

// Requester is the transport the gateway talks through. *api.Client satisfies it.
type Requester interface {
	Request(ctx context.Context, endpoint, method string, body any, opts ...api.RequestOption) (json.RawMessage, error)
}

// Gateway exposes the contact API as typed operations.
type Gateway struct {
	api    Requester
	logger *zap.Logger
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithLogger sets the logger used for response-shape warnings.
func WithLogger(l *zap.Logger) GatewayOption {
	return func(g *Gateway) { g.logger = l }
}

// NewGateway wraps a Requester.
func NewGateway(r Requester, opts ...GatewayOption) *Gateway {
	g := &Gateway{api: r, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ListContacts fetches contacts, applying only the non-empty filter fields.
// Unrecognized response shapes yield an empty slice.
func (g *Gateway) ListContacts(ctx context.Context, filter *models.ListFilter) ([]models.Contact, error) {
	endpoint := "/contacts"
	if q := listQuery(filter); q != "" {
		endpoint += "?" + q
	}

	body, err := g.api.Request(ctx, endpoint, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	shape := decodeList(body)
	if shape.skipped > 0 {
		g.logger.Warn("skipped unreadable contacts in list response",
			zap.String("endpoint", endpoint),
			zap.Int("skipped", shape.skipped),
			zap.Int("kept", len(shape.items)),
		)
	}
	return shape.contacts(), nil
}

func listQuery(filter *models.ListFilter) string {
	if filter == nil {
		return ""
	}
	v := url.Values{}
	if s := strings.TrimSpace(filter.Search); s != "" {
		v.Set("search", s)
	}
	v.Set("sort_order", filter.SortOrder.String())
	return v.Encode()
}

// CreateContact persists a draft and returns the stored contact.
func (g *Gateway) CreateContact(ctx context.Context, draft models.Contact) (*models.Contact, error) {
	draft.ID = nil
	body, err := g.api.Request(ctx, "/contacts", http.MethodPost, draft)
	if err != nil {
		return nil, err
	}
	return decodeContact(body, draft)
}

// UpdateContact sends a partial patch for contact id.
func (g *Gateway) UpdateContact(ctx context.Context, id int64, patch models.ContactPatch) (*models.Contact, error) {
	body, err := g.api.Request(ctx, contactPath(id), http.MethodPut, patch)
	if err != nil {
		return nil, err
	}
	fallback := patch.Apply(models.Contact{})
	fallback.ID = &id
	return decodeContact(body, fallback)
}

// DeleteContact removes contact id.
func (g *Gateway) DeleteContact(ctx context.Context, id int64) error {
	_, err := g.api.Request(ctx, contactPath(id), http.MethodDelete, nil)
	return err
}

// CallContact asks the server to place a call to contact id.
func (g *Gateway) CallContact(ctx context.Context, id int64) error {
	_, err := g.api.Request(ctx, contactPath(id)+"/call", http.MethodPost, nil)
	return err
}

func contactPath(id int64) string {
	return fmt.Sprintf("/contacts/%d", id)
}

func decodeContact(body json.RawMessage, fallback models.Contact) (*models.Contact, error) {
	if len(body) == 0 {
		return &fallback, nil
	}

	var wrapped struct {
		Data *models.Contact `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Data != nil {
		return wrapped.Data, nil
	}

	var c models.Contact
	if err := json.Unmarshal(body, &c); err != nil {
		return nil, fmt.Errorf("failed to decode contact: %w", err)
	}
	return &c, nil
}

// Report bundles both aggregate reports.
type Report struct {
	ByState []models.ReportBucket
	ByCity  []models.ReportBucket
}

// ContactsByState returns contact counts grouped by state.
func (g *Gateway) ContactsByState(ctx context.Context) ([]models.ReportBucket, error) {
	body, err := g.api.Request(ctx, "/reports/contacts-by-state", http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	return decodeReport(body, stateLabel), nil
}

// ContactsByCity returns contact counts grouped by city.
func (g *Gateway) ContactsByCity(ctx context.Context) ([]models.ReportBucket, error) {
	body, err := g.api.Request(ctx, "/reports/contacts-by-city", http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	return decodeReport(body, cityLabel), nil
}

// Reports runs both report queries concurrently.
func (g *Gateway) Reports(ctx context.Context) (Report, error) {
	var r Report
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		r.ByState, err = g.ContactsByState(ctx)
		return err
	})
	eg.Go(func() error {
		var err error
		r.ByCity, err = g.ContactsByCity(ctx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return Report{}, err
	}
	return r, nil
}
