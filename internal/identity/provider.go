// Package identity implements the identity provider: sign-up, sign-in,
// sign-out, the current identity, and change notifications. One identity
// is signed in at a time; switching identities is what invalidates the
// data cache downstream.
package identity

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/docflowapp/docflow/internal/apperr"
	"github.com/docflowapp/docflow/internal/models"
	"github.com/docflowapp/docflow/internal/passhash"
)

const minAccountPasswordLen = 6

// UserStore is the subset of the document database the provider needs.
type UserStore interface {
	CreateUser(u models.User, passwordHash string) (models.User, error)
	GetUserByEmail(email string) (*models.User, string, error)
	UpdateUser(id string, p models.UserPatch) error
	TouchLogin(id string, at time.Time) error
}

// ChangeListener is notified on every identity transition. The argument is
// nil after sign-out.
type ChangeListener func(u *models.User)

// Provider tracks the current signed-in identity.
type Provider struct {
	store  UserStore
	logger *slog.Logger

	mu        sync.Mutex
	current   *models.User
	token     string
	listeners []ChangeListener
}

// NewProvider creates a signed-out provider.
func NewProvider(store UserStore, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{store: store, logger: logger}
}

// OnChange registers a listener for identity transitions.
func (p *Provider) OnChange(fn ChangeListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// SignUp creates an account and signs it in. Returns the new identity and
// a session token.
func (p *Provider) SignUp(email, password, displayName string) (*models.User, string, error) {
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return nil, "", fmt.Errorf("identity: email: %w", err)
	}
	if len(password) < minAccountPasswordLen {
		return nil, "", fmt.Errorf("identity: password must be at least %d characters", minAccountPasswordLen)
	}
	if displayName == "" {
		displayName, _, _ = strings.Cut(email, "@")
	}

	hash, err := passhash.Hash(password)
	if err != nil {
		return nil, "", err
	}
	u, err := p.store.CreateUser(models.User{
		Email:       email,
		DisplayName: displayName,
	}, hash)
	if err != nil {
		return nil, "", err
	}
	return p.establish(&u)
}

// SignIn verifies credentials and makes the account the current identity.
func (p *Provider) SignIn(email, password string) (*models.User, string, error) {
	u, hash, err := p.store.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, "", apperr.ErrInvalidPassword
		}
		return nil, "", err
	}
	if !passhash.Verify(password, hash) {
		return nil, "", apperr.ErrInvalidPassword
	}
	now := time.Now().UTC()
	if err := p.store.TouchLogin(u.ID, now); err != nil {
		p.logger.Warn("identity: touch login failed", slog.String("error", err.Error()))
	}
	u.LastLoginAt = now
	return p.establish(u)
}

// establish installs u as the current identity and issues a fresh token.
func (p *Provider) establish(u *models.User) (*models.User, string, error) {
	token, err := newToken()
	if err != nil {
		return nil, "", err
	}

	p.mu.Lock()
	p.current = u
	p.token = token
	listeners := append([]ChangeListener(nil), p.listeners...)
	p.mu.Unlock()

	p.logger.Info("identity: signed in",
		slog.String("uid", u.ID),
		slog.String("email", u.Email))
	for _, fn := range listeners {
		fn(u)
	}
	cp := *u
	return &cp, token, nil
}

// UpdateProfile changes the signed-in identity's display name and photo
// URL. Listeners see the updated identity; the session token is unchanged.
func (p *Provider) UpdateProfile(patch models.UserPatch) (*models.User, error) {
	if patch.DisplayName != nil && strings.TrimSpace(*patch.DisplayName) == "" {
		return nil, fmt.Errorf("identity: display name cannot be empty")
	}

	p.mu.Lock()
	if p.current == nil {
		p.mu.Unlock()
		return nil, apperr.ErrUnauthorized
	}
	id := p.current.ID
	p.mu.Unlock()

	if err := p.store.UpdateUser(id, patch); err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.current == nil || p.current.ID != id {
		// Identity changed while writing; the stored record is updated but
		// there is no session to patch.
		p.mu.Unlock()
		return nil, apperr.ErrUnauthorized
	}
	if patch.DisplayName != nil {
		p.current.DisplayName = *patch.DisplayName
	}
	if patch.PhotoURL != nil {
		p.current.PhotoURL = *patch.PhotoURL
	}
	updated := *p.current
	listeners := append([]ChangeListener(nil), p.listeners...)
	p.mu.Unlock()

	p.logger.Info("identity: profile updated", slog.String("uid", id))
	for _, fn := range listeners {
		fn(&updated)
	}
	cp := updated
	return &cp, nil
}

// SignOut clears the current identity. Safe to call when signed out.
func (p *Provider) SignOut() {
	p.mu.Lock()
	wasSignedIn := p.current != nil
	p.current = nil
	p.token = ""
	listeners := append([]ChangeListener(nil), p.listeners...)
	p.mu.Unlock()

	if !wasSignedIn {
		return
	}
	p.logger.Info("identity: signed out")
	for _, fn := range listeners {
		fn(nil)
	}
}

// Current returns a copy of the signed-in identity, or nil.
func (p *Provider) Current() *models.User {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	cp := *p.current
	return &cp
}

// ValidToken reports whether token matches the active session.
func (p *Provider) ValidToken(token string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil && token != "" && token == p.token
}

func newToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("identity: generate token: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
