package contacts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/harperreed/ringbook/api"
	"github.com/harperreed/ringbook/models"
)

type call struct {
	Endpoint string
	Method   string
	Body     any
}

// fakeRequester records calls and answers from a table keyed by endpoint.
type fakeRequester struct {
	mu        sync.Mutex
	calls     []call
	responses map[string]string
	errs      map[string]error
}

func (f *fakeRequester) Request(_ context.Context, endpoint, method string, body any, _ ...api.RequestOption) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{endpoint, method, body})
	if err := f.errs[endpoint]; err != nil {
		return nil, err
	}
	resp, ok := f.responses[endpoint]
	if !ok || resp == "" {
		return nil, nil
	}
	return json.RawMessage(resp), nil
}

func id(v int64) *int64 { return &v }

func TestListContactsShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bare array", `[{"id":1,"name":"Ana"},{"id":2,"name":"Bia"}]`, 2},
		{"envelope", `{"data":[{"id":1},{"id":2},{"id":3}]}`, 3},
		{"empty object", `{}`, 0},
		{"envelope with object data", `{"data":{"id":1}}`, 0},
		{"string", `"nope"`, 0},
		{"empty body", ``, 0},
		{"unreadable element skipped", `[{"id":"x"}]`, 0},
		{"numeric phone kept", `[{"id":1,"name":"Ana","phone":"1"},{"id":2,"name":"Bruno","phone":11999998888}]`, 2},
		{"envelope with string id", `{"data":[{"id":1,"name":"Ana"},{"id":"2","name":"Bruno"}]}`, 2},
		{"envelope keeps readable elements", `{"data":[{"id":1,"name":"Ana"},{"id":{"n":2}},{"id":3}]}`, 2},
		{"array of scalars", `[1,2]`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeRequester{responses: map[string]string{"/contacts": tt.body}}
			got, err := NewGateway(f).ListContacts(context.Background(), nil)
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestListContactsLenientElements(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	f := &fakeRequester{responses: map[string]string{
		"/contacts": `[{"id":1,"name":"Ana","phone":"1"},{"id":"2","name":"Bruno","phone":11999998888},{"id":"x"}]`,
	}}

	got, err := NewGateway(f, WithLogger(zap.New(core))).ListContacts(context.Background(), nil)
	require.NoError(t, err)
	want := []models.Contact{
		{ID: id(1), Name: "Ana", Phone: "1"},
		{ID: id(2), Name: "Bruno", Phone: "11999998888"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("contacts mismatch (-want +got):\n%s", diff)
	}

	entries := logs.FilterMessage("skipped unreadable contacts in list response").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["skipped"])
}

func TestListContactsQuery(t *testing.T) {
	tests := []struct {
		name   string
		filter *models.ListFilter
		want   string
	}{
		{"no filter", nil, "/contacts"},
		{"sort only", &models.ListFilter{SortOrder: models.SortDescending}, "/contacts?sort_order=desc"},
		{"blank search dropped", &models.ListFilter{Search: "   "}, "/contacts?sort_order=asc"},
		{"search and sort", &models.ListFilter{Search: "ana maria"}, "/contacts?search=ana+maria&sort_order=asc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeRequester{}
			_, err := NewGateway(f).ListContacts(context.Background(), tt.filter)
			require.NoError(t, err)
			require.Len(t, f.calls, 1)
			assert.Equal(t, tt.want, f.calls[0].Endpoint)
			assert.Equal(t, http.MethodGet, f.calls[0].Method)
		})
	}
}

func TestListContactsPropagatesErrors(t *testing.T) {
	boom := &api.Error{Status: 500}
	f := &fakeRequester{errs: map[string]error{"/contacts": boom}}
	_, err := NewGateway(f).ListContacts(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
}

func TestMutationsPassThrough(t *testing.T) {
	f := &fakeRequester{responses: map[string]string{
		"/contacts":   `{"data":{"id":9,"name":"Ana"}}`,
		"/contacts/9": `{"id":9,"name":"Ana B"}`,
	}}
	g := NewGateway(f)
	ctx := context.Background()

	created, err := g.CreateContact(ctx, models.Contact{ID: id(77), Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, int64(9), created.IDValue())

	sent := f.calls[0].Body.(models.Contact)
	assert.Nil(t, sent.ID, "drafts are sent without an id")

	name := "Ana B"
	updated, err := g.UpdateContact(ctx, 9, models.ContactPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ana B", updated.Name)

	require.NoError(t, g.DeleteContact(ctx, 9))
	require.NoError(t, g.CallContact(ctx, 9))

	got := f.calls[1:]
	want := []call{
		{"/contacts/9", http.MethodPut, models.ContactPatch{Name: &name}},
		{"/contacts/9", http.MethodDelete, nil},
		{"/contacts/9/call", http.MethodPost, nil},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateEmptyBodyFallsBackToPatch(t *testing.T) {
	f := &fakeRequester{}
	email := "a@b.c"
	c, err := NewGateway(f).UpdateContact(context.Background(), 3, models.ContactPatch{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.IDValue())
	assert.Equal(t, "a@b.c", c.Email)
}

func TestMutationErrorsUnchanged(t *testing.T) {
	validation := &api.Error{Status: 422}
	f := &fakeRequester{errs: map[string]error{
		"/contacts":        validation,
		"/contacts/1":      validation,
		"/contacts/1/call": validation,
	}}
	g := NewGateway(f)
	ctx := context.Background()

	_, err := g.CreateContact(ctx, models.Contact{})
	assert.Same(t, validation, err)
	_, err = g.UpdateContact(ctx, 1, models.ContactPatch{})
	assert.Same(t, validation, err)
	assert.Same(t, validation, g.DeleteContact(ctx, 1))
	assert.Same(t, validation, g.CallContact(ctx, 1))
}

func TestReportMapping(t *testing.T) {
	f := &fakeRequester{responses: map[string]string{
		"/reports/contacts-by-state": `{"data":[{"state":"SP","count":4},{"state":"","count":2},{"count":1},{"state":"RJ"},{"state":"BA","count":"3"},{"state":"PE","count":"lots"},{"state":"AM","count":null},"junk"]}`,
		"/reports/contacts-by-city":  `{"data":[{"city":"Campinas","state":"SP","count":3},{"state":"MG","count":2},{"count":5},{"city":"Recife","count":"7"},{"city":42,"count":1}]}`,
	}}
	g := NewGateway(f)

	byState, err := g.ContactsByState(context.Background())
	require.NoError(t, err)
	wantState := []models.ReportBucket{
		{Label: "SP", Count: 4},
		{Label: models.NotInformed, Count: 2},
		{Label: models.NotInformed, Count: 1},
		{Label: "RJ", Count: 0},
		{Label: "BA", Count: 3},
		{Label: "PE", Count: 0},
		{Label: "AM", Count: 0},
		{Label: models.NotInformed, Count: 0},
	}
	if diff := cmp.Diff(wantState, byState); diff != "" {
		t.Errorf("state report (-want +got):\n%s", diff)
	}

	byCity, err := g.ContactsByCity(context.Background())
	require.NoError(t, err)
	wantCity := []models.ReportBucket{
		{Label: "Campinas", Count: 3},
		{Label: "MG", Count: 2},
		{Label: models.NotInformed, Count: 5},
		{Label: "Recife", Count: 7},
		{Label: "42", Count: 1},
	}
	if diff := cmp.Diff(wantCity, byCity); diff != "" {
		t.Errorf("city report (-want +got):\n%s", diff)
	}
}

func TestReportNonConforming(t *testing.T) {
	for _, body := range []string{`[]`, `{}`, `{"data":"x"}`, ``} {
		t.Run(body, func(t *testing.T) {
			f := &fakeRequester{responses: map[string]string{"/reports/contacts-by-state": body}}
			got, err := NewGateway(f).ContactsByState(context.Background())
			require.NoError(t, err)
			assert.Empty(t, got)
			assert.NotNil(t, got)
		})
	}
}

func TestReportsConcurrent(t *testing.T) {
	f := &fakeRequester{responses: map[string]string{
		"/reports/contacts-by-state": `{"data":[{"state":"SP","count":1}]}`,
		"/reports/contacts-by-city":  `{"data":[{"city":"Santos","count":2}]}`,
	}}

	r, err := NewGateway(f).Reports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.ReportBucket{{Label: "SP", Count: 1}}, r.ByState)
	assert.Equal(t, []models.ReportBucket{{Label: "Santos", Count: 2}}, r.ByCity)
	assert.Len(t, f.calls, 2)
}

func TestReportsFailsIfEitherFails(t *testing.T) {
	boom := errors.New("boom")
	f := &fakeRequester{errs: map[string]error{"/reports/contacts-by-city": boom}}
	_, err := NewGateway(f).Reports(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestGatewayOverHTTP(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/contacts", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "desc", r.URL.Query().Get("sort_order"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[{"id":1,"name":"Ana Souza","city":"Recife"}]}`))
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/contacts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":{"name":["required"]}}`))
	}).Methods(http.MethodPut)
	srv := httptest.NewServer(r)
	defer srv.Close()

	client := api.New(srv.URL+"/api", api.TokenFunc(func() (string, error) { return "tok", nil }))
	g := NewGateway(client)

	list, err := g.ListContacts(context.Background(), &models.ListFilter{SortOrder: models.SortDescending})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Recife", list[0].City)

	_, err = g.UpdateContact(context.Background(), 1, models.ContactPatch{})
	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.Equal(t, 422, apiErr.Status)
	assert.Equal(t, "name", apiErr.Data.Errors[0].Field)
}
