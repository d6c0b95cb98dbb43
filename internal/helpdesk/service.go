// Package helpdesk handles support tickets and the admin aggregate views.
package helpdesk

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/docflowapp/docflow/internal/apperr"
	"github.com/docflowapp/docflow/internal/docstore"
	"github.com/docflowapp/docflow/internal/models"
)

// Service coordinates ticket and user-roster operations.
type Service struct {
	store      docstore.Store
	adminEmail string
}

// NewService creates a helpdesk service. An empty adminEmail disables the
// admin surface.
func NewService(store docstore.Store, adminEmail string) *Service {
	return &Service{store: store, adminEmail: strings.ToLower(adminEmail)}
}

// IsAdmin reports whether email belongs to the configured administrator.
func (s *Service) IsAdmin(email string) bool {
	return s.adminEmail != "" && strings.ToLower(email) == s.adminEmail
}

// CreateTicket files a new open ticket for userID.
func (s *Service) CreateTicket(ctx context.Context, userID, subject, description string) (*models.HelpTicket, error) {
	if userID == "" {
		return nil, apperr.ErrUnauthorized
	}
	if err := (validation.Errors{
		"subject":     validation.Validate(subject, validation.Required, validation.Length(1, 200)),
		"description": validation.Validate(description, validation.Required),
	}).Filter(); err != nil {
		return nil, err
	}
	t, err := s.store.CreateTicket(models.HelpTicket{
		UserID:      userID,
		Subject:     subject,
		Description: description,
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UserTickets returns the user's tickets, newest first.
func (s *Service) UserTickets(ctx context.Context, userID string) ([]models.HelpTicket, error) {
	return s.store.TicketsByUser(userID)
}

// AllTickets returns every ticket. Admin only; callers gate on IsAdmin.
func (s *Service) AllTickets(ctx context.Context) ([]models.HelpTicket, error) {
	return s.store.AllTickets()
}

// AllUsers returns every registered user. Admin only.
func (s *Service) AllUsers(ctx context.Context) ([]models.User, error) {
	return s.store.AllUsers()
}

// Resolve marks a ticket resolved with the admin's response.
func (s *Service) Resolve(ctx context.Context, id, response string) error {
	status := models.TicketResolved
	now := time.Now().UTC()
	return s.store.UpdateTicket(id, models.TicketPatch{
		Status:        &status,
		AdminResponse: &response,
		ResolvedAt:    &now,
	})
}

// Close marks a ticket closed without touching the admin response.
func (s *Service) Close(ctx context.Context, id string) error {
	status := models.TicketClosed
	return s.store.UpdateTicket(id, models.TicketPatch{Status: &status})
}
