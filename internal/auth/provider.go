// Package auth holds the signed-in session and mints the short-lived bearer
// tokens used by the resumable upload channel.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/skydrive/internal/common"
	"github.com/dmitrijs2005/skydrive/internal/models"
)

// EventKind says what changed in a session event.
type EventKind int

const (
	SignedIn EventKind = iota + 1
	SignedOut
)

func (k EventKind) String() string {
	switch k {
	case SignedIn:
		return "signed_in"
	case SignedOut:
		return "signed_out"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers on every session change.
type Event struct {
	Kind    EventKind
	Session models.Session
}

// Provider is the Auth Provider contract consumed by the core.
type Provider interface {
	Session() (models.Session, bool)
	// AccessToken returns a freshly minted bearer token. It is never cached.
	AccessToken(ctx context.Context) (string, error)
	Subscribe(fn func(Event)) (unsubscribe func())
}

// LocalProvider keeps the session in memory and signs tokens with a shared
// secret. Identity comes from configuration; password flows live elsewhere.
type LocalProvider struct {
	secret []byte
	ttl    time.Duration

	mu      sync.RWMutex
	session models.Session
	subs    map[int]func(Event)
	nextSub int
}

// NewLocalProvider returns a signed-out provider.
func NewLocalProvider(secret string, ttl time.Duration) *LocalProvider {
	return &LocalProvider{
		secret: []byte(secret),
		ttl:    ttl,
		subs:   make(map[int]func(Event)),
	}
}

func (p *LocalProvider) Session() (models.Session, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.session, p.session.Valid()
}

// SignIn replaces the current session and notifies subscribers.
func (p *LocalProvider) SignIn(_ context.Context, s models.Session) error {
	if !s.Valid() {
		return fmt.Errorf("sign in: %w: empty user id", common.ErrorUnauthorized)
	}
	p.mu.Lock()
	p.session = s
	p.mu.Unlock()

	p.publish(Event{Kind: SignedIn, Session: s})
	return nil
}

// SignOut clears the session. Signing out twice notifies once.
func (p *LocalProvider) SignOut(_ context.Context) {
	p.mu.Lock()
	prev := p.session
	p.session = models.Session{}
	p.mu.Unlock()

	if prev.Valid() {
		p.publish(Event{Kind: SignedOut, Session: prev})
	}
}

func (p *LocalProvider) AccessToken(_ context.Context) (string, error) {
	s, ok := p.Session()
	if !ok {
		return "", common.ErrorUnauthorized
	}
	if len(p.secret) == 0 {
		return "", fmt.Errorf("%w: signing secret is not configured", common.ErrorPrecondition)
	}
	return GenerateToken(s.UserID, s.Email, p.secret, p.ttl)
}

func (p *LocalProvider) Subscribe(fn func(Event)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

func (p *LocalProvider) publish(ev Event) {
	p.mu.RLock()
	fns := make([]func(Event), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
