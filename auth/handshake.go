// ABOUTME: OAuth popup handshake task pairing the message listener with the close-poll ticker
// ABOUTME: Exactly one terminal path runs and disposal tears both down together
package auth

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/harperreed/ringbook/session"
)

// Message is one payload posted back by the popup.
type Message struct {
	Data json.RawMessage
}

// Token extracts the bearer token from a {"token": "..."} payload.
func (m Message) Token() (string, bool) {
	var payload struct {
		Token *string `json:"token"`
	}
	if err := json.Unmarshal(m.Data, &payload); err != nil || payload.Token == nil {
		return "", false
	}
	tok := strings.TrimSpace(*payload.Token)
	return tok, tok != ""
}

// Popup is a window opened for the provider's login page.
type Popup interface {
	Closed() bool
	Close() error
}

// Window opens popups and delivers the messages they post.
type Window interface {
	Open(url, name, features string) (Popup, error)
	AddMessageListener(fn func(Message)) (remove func())
}

// Outcome is how a handshake ended.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeAuthenticated
	OutcomeAbandoned
	OutcomeCanceled
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAuthenticated:
		return "authenticated"
	case OutcomeAbandoned:
		return "abandoned"
	case OutcomeCanceled:
		return "canceled"
	case OutcomeFailed:
		return "failed"
	}
	return "pending"
}

// Handshake owns one popup login: the listener registration, the poll ticker,
// and the single terminal transition.
type Handshake struct {
	id      ulid.ULID
	session *session.Session
	popup   Popup
	nav     Navigator
	logger  *zap.Logger
	onEnd   func(Outcome)

	ticker         *time.Ticker
	removeListener func()
	ready          chan struct{}
	stop           chan struct{}
	done           chan struct{}
	disposeOnce    sync.Once

	mu       sync.Mutex
	consumed bool
	finished bool
	outcome  Outcome
	err      error
}

type handshakeParams struct {
	window   Window
	session  *session.Session
	nav      Navigator
	logger   *zap.Logger
	url      string
	name     string
	features string
	interval time.Duration
	onEnd    func(Outcome)
}

func startHandshake(ctx context.Context, p handshakeParams) (*Handshake, error) {
	h := &Handshake{
		id:      ulid.Make(),
		session: p.session,
		nav:     p.nav,
		logger:  p.logger,
		onEnd:   p.onEnd,
		ready:   make(chan struct{}),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	h.logger = h.logger.With(zap.String("handshake_id", h.id.String()))

	// The listener goes in before the popup opens so a fast reply is not lost.
	// Messages wait on ready until the popup is known.
	h.mu.Lock()
	h.removeListener = p.window.AddMessageListener(h.onMessage)
	h.mu.Unlock()

	popup, err := p.window.Open(p.url, p.name, p.features)
	if err != nil {
		h.mu.Lock()
		h.finished = true
		remove := h.removeListener
		h.mu.Unlock()
		remove()
		close(h.ready)
		return nil, err
	}

	h.mu.Lock()
	h.popup = popup
	h.ticker = time.NewTicker(p.interval)
	h.mu.Unlock()
	close(h.ready)

	h.logger.Info("login popup opened", zap.String("url", p.url))
	go h.run(ctx)
	return h, nil
}

// ID identifies the handshake in logs.
func (h *Handshake) ID() string {
	return h.id.String()
}

// Done is closed once the handshake has ended and released its resources.
func (h *Handshake) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the handshake ends or ctx is done.
func (h *Handshake) Wait(ctx context.Context) Outcome {
	select {
	case <-h.done:
		return h.Outcome()
	case <-ctx.Done():
		return h.Outcome()
	}
}

// Outcome returns the terminal outcome, or OutcomePending.
func (h *Handshake) Outcome() Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.outcome
}

// Err returns the error behind OutcomeFailed.
func (h *Handshake) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Cancel ends an in-flight handshake and closes its popup.
func (h *Handshake) Cancel() {
	h.end(OutcomeCanceled, nil)
}

func (h *Handshake) run(ctx context.Context) {
	defer close(h.done)

	h.mu.Lock()
	tick := h.ticker.C
	h.mu.Unlock()

	for {
		select {
		case <-h.stop:
			return
		case <-ctx.Done():
			h.end(OutcomeCanceled, nil)
			<-h.stop
			return
		case <-tick:
			if h.popup.Closed() {
				// A token message may have claimed the handshake first; either
				// way stop is closed once the winner has settled.
				h.end(OutcomeAbandoned, nil)
				<-h.stop
				return
			}
		}
	}
}

// claim reserves the single terminal transition.
func (h *Handshake) claim() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.finished {
		return false
	}
	h.finished = true
	return true
}

func (h *Handshake) onMessage(msg Message) {
	<-h.ready

	h.mu.Lock()
	if h.consumed || h.finished {
		h.mu.Unlock()
		return
	}
	h.consumed = true
	h.mu.Unlock()

	token, ok := msg.Token()
	if !ok {
		h.logger.Info("ignored popup message without token")
		return
	}
	if !h.claim() {
		return
	}

	if err := h.session.SetToken(token); err != nil {
		_ = h.popup.Close()
		h.settle(OutcomeFailed, err)
		return
	}
	if err := h.popup.Close(); err != nil {
		h.logger.Warn("failed to close login popup", zap.Error(err))
	}
	h.settle(OutcomeAuthenticated, nil)
	if h.nav != nil {
		h.nav.Navigate(RouteContacts)
	}
	h.dispose()
}

func (h *Handshake) end(outcome Outcome, err error) {
	if !h.claim() {
		return
	}
	if outcome == OutcomeCanceled {
		_ = h.popup.Close()
	}
	h.settle(outcome, err)
}

// settle records the outcome. Every path except success disposes here; the
// success path disposes after navigating.
func (h *Handshake) settle(outcome Outcome, err error) {
	h.mu.Lock()
	h.outcome = outcome
	h.err = err
	h.mu.Unlock()

	fields := []zap.Field{zap.Stringer("outcome", outcome)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	h.logger.Info("login handshake finished", fields...)

	if h.onEnd != nil {
		h.onEnd(outcome)
	}
	if outcome != OutcomeAuthenticated {
		h.dispose()
	}
}

// dispose stops the ticker and removes the listener. Safe to call repeatedly.
func (h *Handshake) dispose() {
	h.disposeOnce.Do(func() {
		h.mu.Lock()
		ticker, remove := h.ticker, h.removeListener
		h.mu.Unlock()

		ticker.Stop()
		if remove != nil {
			remove()
		}
		close(h.stop)
	})
}
