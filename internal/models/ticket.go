package models

import "time"

// Help ticket statuses.
const (
	TicketOpen     = "open"
	TicketResolved = "resolved"
	TicketClosed   = "closed"
)

// HelpTicket is a support request filed by a user and worked by an admin.
type HelpTicket struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	Subject       string     `json:"subject"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	AdminResponse string     `json:"adminResponse,omitempty"`
	ResolvedAt    *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// TicketPatch describes a partial ticket update.
type TicketPatch struct {
	Status        *string
	AdminResponse *string
	ResolvedAt    *time.Time
}
