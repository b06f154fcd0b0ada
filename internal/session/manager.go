package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrSignedOut is returned by Manager.Current when nobody is signed in.
var ErrSignedOut = errors.New("no signed-in user")

// Manager holds the session for whoever the IdentityProvider reports. It
// replaces the session when the identity changes and ends it on sign-out.
type Manager struct {
	identity  IdentityProvider
	carts     CartBackend
	wishlists WishlistBackend
	opts      []Option
	logger    *slog.Logger

	mu      sync.Mutex
	current *Session
}

// NewManager creates a manager. No session exists until Current is called.
func NewManager(identity IdentityProvider, carts CartBackend, wishlists WishlistBackend, opts ...Option) *Manager {
	return &Manager{
		identity:  identity,
		carts:     carts,
		wishlists: wishlists,
		opts:      opts,
		logger:    buildOptions(opts).logger,
	}
}

// Current returns the session for the signed-in user, creating and loading
// it on first use or after the identity changed. A failed load still leaves
// the new session in place with empty stores, so the caller can retry Load.
func (m *Manager) Current(ctx context.Context) (*Session, error) {
	userID, err := m.identity.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if userID == "" {
		m.endLocked()
		return nil, ErrSignedOut
	}
	if m.current != nil && m.current.UserID == userID {
		return m.current, nil
	}

	m.endLocked()
	s := New(userID, m.carts, m.wishlists, m.opts...)
	m.current = s
	m.logger.InfoContext(ctx, "session started", slog.String("user_id", userID))

	if err := s.Start(ctx); err != nil {
		return s, fmt.Errorf("start session: %w", err)
	}
	return s, nil
}

// Logout ends the current session, if any.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endLocked()
}

func (m *Manager) endLocked() {
	if m.current == nil {
		return
	}
	m.logger.Info("session ended", slog.String("user_id", m.current.UserID))
	m.current.Close()
	m.current = nil
}
