// ABOUTME: Window implementation backed by the system browser and a loopback receiver
// ABOUTME: The popup counts as closed on timeout, cancellation from the page, or Close
package auth

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harperreed/ringbook/config"
	"github.com/harperreed/ringbook/web"
)

// BrowserWindow opens login popups in the user's browser.
type BrowserWindow struct {
	addr           string
	timeout        time.Duration
	allowedOrigins []string
	logger         *zap.Logger

	// Opener launches the browser. Replaced in tests.
	Opener func(url string) error
	// OnOpen, when set, receives the final popup URL (for printing it).
	OnOpen func(url string)

	mu        sync.Mutex
	listeners map[int]func(Message)
	nextID    int
}

// NewBrowserWindow configures a window from cfg.
func NewBrowserWindow(cfg *config.Config, logger *zap.Logger) *BrowserWindow {
	if logger == nil {
		logger = zap.NewNop()
	}
	var origins []string
	if u, err := url.Parse(cfg.BaseURL()); err == nil && u.Host != "" {
		origins = []string{u.Scheme + "://" + u.Host}
	}
	return &BrowserWindow{
		addr:           cfg.CallbackAddr,
		timeout:        cfg.LoginTimeout,
		allowedOrigins: origins,
		logger:         logger,
		Opener:         openBrowser,
		listeners:      make(map[int]func(Message)),
	}
}

// AddMessageListener registers fn for every message any popup posts.
func (b *BrowserWindow) AddMessageListener(fn func(Message)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners, id)
	}
}

func (b *BrowserWindow) listenerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

// dispatch runs listeners off the HTTP handler goroutine so they may close
// the popup, which shuts the server down.
func (b *BrowserWindow) dispatch(data []byte) {
	msg := Message{Data: append([]byte(nil), data...)}

	b.mu.Lock()
	fns := make([]func(Message), 0, len(b.listeners))
	for _, fn := range b.listeners {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		go fn(msg)
	}
}

// Open starts a loopback receiver and points the browser at target with a
// redirect_uri back to it.
func (b *BrowserWindow) Open(target, name, features string) (Popup, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid popup url: %w", err)
	}

	p := &browserPopup{logger: b.logger}
	state := uuid.NewString()

	srv, err := web.NewServer(name, state, b.allowedOrigins, web.Handlers{
		OnMessage: b.dispatch,
		OnCancel:  p.markClosed,
	}, b.logger)
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", b.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", b.addr, err)
	}
	p.server = srv

	go func() {
		if err := srv.Serve(ln); err != nil {
			b.logger.Error("callback server stopped", zap.Error(err))
		}
	}()

	q := u.Query()
	q.Set("redirect_uri", "http://"+ln.Addr().String()+"/callback?state="+url.QueryEscape(state))
	u.RawQuery = q.Encode()
	p.url = u.String()

	if b.timeout > 0 {
		p.mu.Lock()
		p.timer = time.AfterFunc(b.timeout, p.markClosed)
		p.mu.Unlock()
	}

	b.logger.Info("opening login popup", zap.String("name", name), zap.String("features", features))
	if b.OnOpen != nil {
		b.OnOpen(p.url)
	}
	if b.Opener != nil {
		if err := b.Opener(p.url); err != nil {
			b.logger.Warn("failed to open browser", zap.Error(err))
		}
	}
	return p, nil
}

type browserPopup struct {
	url    string
	server *web.Server
	logger *zap.Logger

	mu    sync.Mutex
	timer *time.Timer

	closed    atomic.Bool
	closeOnce sync.Once
}

// URL is the address the browser was pointed at.
func (p *browserPopup) URL() string {
	return p.url
}

func (p *browserPopup) Closed() bool {
	return p.closed.Load()
}

// markClosed may run on a handler goroutine, so shutdown happens elsewhere.
func (p *browserPopup) markClosed() {
	p.closed.Store(true)
	go func() { _ = p.Close() }()
}

func (p *browserPopup) Close() error {
	p.closed.Store(true)
	var err error
	p.closeOnce.Do(func() {
		p.mu.Lock()
		if p.timer != nil {
			p.timer.Stop()
		}
		p.mu.Unlock()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err = p.server.Shutdown(ctx)
	})
	return err
}

// openBrowser attempts to open URL in default browser
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	command := exec.Command(cmd, args...)
	return command.Start()
}
