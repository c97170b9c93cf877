package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/harperreed/ringbook/config"
	"github.com/harperreed/ringbook/session"
)

type fakePopup struct {
	mu         sync.Mutex
	closed     bool
	closeCalls int
}

func (p *fakePopup) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *fakePopup) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.closeCalls++
	return nil
}

// userClose simulates the user shutting the popup without calling Close.
func (p *fakePopup) userClose() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func (p *fakePopup) closes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeCalls
}

type openCall struct {
	url, name, features string
}

type fakeWindow struct {
	mu        sync.Mutex
	popup     *fakePopup
	opened    []openCall
	listeners map[int]func(Message)
	added     int
	removed   int
	openErr   error
	// replyOnOpen is posted to the registered listeners while Open runs.
	replyOnOpen string
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{listeners: make(map[int]func(Message))}
}

func (w *fakeWindow) Open(u, name, features string) (Popup, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.openErr != nil {
		return nil, w.openErr
	}
	w.opened = append(w.opened, openCall{u, name, features})
	w.popup = &fakePopup{}
	if w.replyOnOpen != "" {
		msg := Message{Data: []byte(w.replyOnOpen)}
		for _, fn := range w.listeners {
			go fn(msg)
		}
	}
	return w.popup, nil
}

func (w *fakeWindow) AddMessageListener(fn func(Message)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.added
	w.added++
	w.listeners[id] = fn
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if _, ok := w.listeners[id]; ok {
			delete(w.listeners, id)
			w.removed++
		}
	}
}

func (w *fakeWindow) post(data string) {
	w.mu.Lock()
	fns := make([]func(Message), 0, len(w.listeners))
	for _, fn := range w.listeners {
		fns = append(fns, fn)
	}
	w.mu.Unlock()
	for _, fn := range fns {
		fn(Message{Data: []byte(data)})
	}
}

func (w *fakeWindow) counts() (added, removed, live int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.added, w.removed, len(w.listeners)
}

func (w *fakeWindow) currentPopup() *fakePopup {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.popup
}

type recordingNav struct {
	mu     sync.Mutex
	routes []Route
}

func (n *recordingNav) Navigate(to Route) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, to)
}

func (n *recordingNav) got() []Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Route(nil), n.routes...)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.PopupPollInterval = 5 * time.Millisecond
	return cfg
}

func newTestGate(t *testing.T) (*Gate, *fakeWindow, *session.Session) {
	t.Helper()
	sess := session.New(session.NewMemoryStore())
	win := newFakeWindow()
	return NewGate(sess, win, testConfig(), zap.NewNop()), win, sess
}

func waitDone(t *testing.T, h *Handshake) Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	o := h.Wait(ctx)
	require.NoError(t, ctx.Err(), "handshake did not finish")
	return o
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		token     string
		to        Route
		want      Route
		wantState State
	}{
		{"gated without token", "", RouteContacts, RouteLogin, StateUnauthenticated},
		{"gated with token", "t1", RouteContacts, RouteContacts, StateAuthenticated},
		{"login with token", "t1", RouteLogin, RouteContacts, StateAuthenticated},
		{"login without token", "", RouteLogin, RouteLogin, StateUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _, sess := newTestGate(t)
			if tt.token != "" {
				require.NoError(t, sess.SetToken(tt.token))
			}
			assert.Equal(t, tt.want, g.Resolve(tt.to))
			assert.Equal(t, tt.wantState, g.State())
		})
	}
}

func TestPopupTarget(t *testing.T) {
	defer goleak.VerifyNone(t)

	g, win, _ := newTestGate(t)
	h, err := g.Login(context.Background(), &recordingNav{})
	require.NoError(t, err)
	h.Cancel()
	waitDone(t, h)

	require.Len(t, win.opened, 1)
	assert.Equal(t, openCall{
		url:      "http://localhost:8000/api/oauth/huggy/redirect",
		name:     "Login with Huggy",
		features: "width=500,height=600,scrollbars=yes,resizable=yes",
	}, win.opened[0])
}

func TestHandshakeSuccess(t *testing.T) {
	defer goleak.VerifyNone(t)

	g, win, sess := newTestGate(t)
	nav := &recordingNav{}

	h, err := g.Login(context.Background(), nav)
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticating, g.State())
	assert.NotEmpty(t, h.ID())

	win.post(`{"token":"t1"}`)
	assert.Equal(t, OutcomeAuthenticated, waitDone(t, h))

	tok, err := sess.Token()
	require.NoError(t, err)
	assert.Equal(t, "t1", tok)

	assert.Equal(t, 1, win.currentPopup().closes())
	added, removed, live := win.counts()
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, live)
	assert.Equal(t, []Route{RouteContacts}, nav.got())
	assert.Equal(t, StateAuthenticated, g.State())

	// Later messages and disposals change nothing.
	win.post(`{"token":"t2"}`)
	h.dispose()
	h.Cancel()
	tok, _ = sess.Token()
	assert.Equal(t, "t1", tok)
	assert.Equal(t, []Route{RouteContacts}, nav.got())
	assert.Equal(t, OutcomeAuthenticated, h.Outcome())
}

func TestHandshakeAbandoned(t *testing.T) {
	defer goleak.VerifyNone(t)

	g, win, sess := newTestGate(t)
	nav := &recordingNav{}

	h, err := g.Login(context.Background(), nav)
	require.NoError(t, err)

	win.currentPopup().userClose()
	assert.Equal(t, OutcomeAbandoned, waitDone(t, h))

	assert.False(t, sess.Authenticated())
	assert.Empty(t, nav.got())
	_, removed, live := win.counts()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, live)
	assert.Equal(t, StateUnauthenticated, g.State())

	// A token arriving after abandonment is ignored.
	win.post(`{"token":"late"}`)
	assert.False(t, sess.Authenticated())
}

func TestHandshakeMalformedMessageConsumesListener(t *testing.T) {
	defer goleak.VerifyNone(t)

	g, win, sess := newTestGate(t)
	nav := &recordingNav{}

	h, err := g.Login(context.Background(), nav)
	require.NoError(t, err)

	win.post(`{"type":"noise"}`)
	win.post(`{"token":"t1"}`)

	select {
	case <-h.Done():
		t.Fatal("handshake should keep waiting for the popup to close")
	case <-time.After(30 * time.Millisecond):
	}
	assert.False(t, sess.Authenticated())

	win.currentPopup().userClose()
	assert.Equal(t, OutcomeAbandoned, waitDone(t, h))
	assert.Empty(t, nav.got())
}

func TestHandshakeContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	g, win, sess := newTestGate(t)
	ctx, cancel := context.WithCancel(context.Background())

	h, err := g.Login(ctx, &recordingNav{})
	require.NoError(t, err)
	cancel()

	assert.Equal(t, OutcomeCanceled, waitDone(t, h))
	assert.True(t, win.currentPopup().Closed())
	assert.False(t, sess.Authenticated())
	_, _, live := win.counts()
	assert.Equal(t, 0, live)
}

func TestSecondLoginCancelsFirst(t *testing.T) {
	defer goleak.VerifyNone(t)

	g, win, _ := newTestGate(t)
	nav := &recordingNav{}

	first, err := g.Login(context.Background(), nav)
	require.NoError(t, err)
	firstPopup := win.currentPopup()

	second, err := g.Login(context.Background(), nav)
	require.NoError(t, err)

	assert.Equal(t, OutcomeCanceled, waitDone(t, first))
	assert.True(t, firstPopup.Closed())
	assert.Equal(t, StateAuthenticating, g.State())

	win.post(`{"token":"t9"}`)
	assert.Equal(t, OutcomeAuthenticated, waitDone(t, second))
	assert.Equal(t, StateAuthenticated, g.State())
	assert.Equal(t, []Route{RouteContacts}, nav.got())
}

func TestLoginOpenFailure(t *testing.T) {
	g, win, _ := newTestGate(t)
	win.openErr = errors.New("popup blocked")

	_, err := g.Login(context.Background(), &recordingNav{})
	require.Error(t, err)
	assert.Equal(t, StateUnauthenticated, g.State())
	added, removed, live := win.counts()
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, live)
}

func TestHandshakeReplyDuringOpen(t *testing.T) {
	defer goleak.VerifyNone(t)

	g, win, sess := newTestGate(t)
	win.replyOnOpen = `{"token":"fast"}`
	nav := &recordingNav{}

	h, err := g.Login(context.Background(), nav)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAuthenticated, waitDone(t, h))

	tok, err := sess.Token()
	require.NoError(t, err)
	assert.Equal(t, "fast", tok)
	assert.Equal(t, []Route{RouteContacts}, nav.got())
}

func TestLogout(t *testing.T) {
	g, _, sess := newTestGate(t)
	require.NoError(t, sess.SetToken("t1"))
	require.Equal(t, RouteContacts, g.Resolve(RouteLogin))

	require.NoError(t, g.Logout())
	assert.False(t, sess.Authenticated())
	assert.Equal(t, StateUnauthenticated, g.State())
	assert.Equal(t, RouteLogin, g.Resolve(RouteContacts))
}

func TestHandshakeLogsOutcome(t *testing.T) {
	defer goleak.VerifyNone(t)

	core, logs := observer.New(zap.InfoLevel)
	sess := session.New(session.NewMemoryStore())
	win := newFakeWindow()
	g := NewGate(sess, win, testConfig(), zap.New(core))

	h, err := g.Login(context.Background(), nil)
	require.NoError(t, err)
	win.post(`{"token":"t1"}`)
	waitDone(t, h)

	finished := logs.FilterMessage("login handshake finished").All()
	require.Len(t, finished, 1)
	assert.Equal(t, "authenticated", finished[0].ContextMap()["outcome"])
	assert.Equal(t, h.ID(), finished[0].ContextMap()["handshake_id"])
}

func TestMessageToken(t *testing.T) {
	tests := []struct {
		data string
		want string
		ok   bool
	}{
		{`{"token":"abc"}`, "abc", true},
		{`{"token":""}`, "", false},
		{`{"token":5}`, "", false},
		{`{"other":"abc"}`, "", false},
		{`"abc"`, "", false},
		{`not json`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			tok, ok := Message{Data: []byte(tt.data)}.Token()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, tok)
		})
	}
}

func TestBrowserWindowRoundTrip(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"))

	cfg := testConfig()
	cfg.CallbackAddr = "127.0.0.1:0"
	win := NewBrowserWindow(cfg, zap.NewNop())

	var opened string
	win.Opener = func(u string) error {
		opened = u
		return nil
	}

	sess := session.New(session.NewMemoryStore())
	g := NewGate(sess, win, cfg, zap.NewNop())
	nav := &recordingNav{}

	h, err := g.Login(context.Background(), nav)
	require.NoError(t, err)

	u, err := url.Parse(opened)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(opened, "http://localhost:8000/api/oauth/huggy/redirect?"))
	redirect := u.Query().Get("redirect_uri")
	require.NotEmpty(t, redirect)

	ru, err := url.Parse(redirect)
	require.NoError(t, err)
	require.NotEmpty(t, ru.Query().Get("state"))

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}

	// A page that does not know the state cannot log the user in.
	forged := *ru
	forged.RawQuery = "token=forged"
	resp, err := client.Get(forged.String())
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, OutcomePending, h.Outcome())

	resp, err = client.Get(redirect + "&token=browser-token")
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, OutcomeAuthenticated, waitDone(t, h))
	tok, _ := sess.Token()
	assert.Equal(t, "browser-token", tok)
	assert.Equal(t, []Route{RouteContacts}, nav.got())
	assert.Equal(t, 0, win.listenerCount())
}

func TestBrowserWindowCancelFromPage(t *testing.T) {
	cfg := testConfig()
	win := NewBrowserWindow(cfg, zap.NewNop())
	var opened string
	win.Opener = func(u string) error {
		opened = u
		return nil
	}

	popup, err := win.Open(cfg.OAuthRedirectURL(), "Login with Huggy", PopupFeatures)
	require.NoError(t, err)
	assert.False(t, popup.Closed())

	u, _ := url.Parse(opened)
	cu, err := url.Parse(u.Query().Get("redirect_uri"))
	require.NoError(t, err)
	cu.Path = "/cancel"
	cancelURL := cu.String()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Post(cancelURL, "", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Eventually(t, popup.Closed, time.Second, 5*time.Millisecond)
	require.NoError(t, popup.Close())
}

func TestBrowserWindowTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.LoginTimeout = 10 * time.Millisecond
	win := NewBrowserWindow(cfg, zap.NewNop())
	win.Opener = func(string) error { return nil }

	popup, err := win.Open(cfg.OAuthRedirectURL(), "Login with Huggy", PopupFeatures)
	require.NoError(t, err)
	assert.Eventually(t, popup.Closed, time.Second, 5*time.Millisecond)
	_ = popup.Close()
}
