package docstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docflowapp/docflow/internal/apperr"
	"github.com/docflowapp/docflow/internal/models"
)

const ticketColumns = `id, user_id, subject, description, status, admin_response,
	resolved_at, created_at, updated_at`

// CreateTicket inserts a new help ticket. Status always starts open.
func (db *DB) CreateTicket(t models.HelpTicket) (models.HelpTicket, error) {
	t.ID = uuid.NewString()
	t.Status = models.TicketOpen
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := db.conn.Exec(`
		INSERT INTO help_tickets (`+ticketColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.UserID, t.Subject, t.Description, t.Status, t.AdminResponse,
		t.ResolvedAt, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return models.HelpTicket{}, fmt.Errorf("docstore: insert ticket: %w", err)
	}
	return t, nil
}

// GetTicket returns a single ticket by id.
func (db *DB) GetTicket(id string) (*models.HelpTicket, error) {
	row := db.conn.QueryRow(`SELECT `+ticketColumns+` FROM help_tickets WHERE id = ?`, id)
	t, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("docstore: get ticket: %w", err)
	}
	return t, nil
}

// TicketsByUser returns the user's tickets, newest first.
func (db *DB) TicketsByUser(userID string) ([]models.HelpTicket, error) {
	return db.queryTickets(`
		SELECT `+ticketColumns+` FROM help_tickets
		WHERE user_id = ? ORDER BY created_at DESC
	`, userID)
}

// AllTickets returns every ticket, newest first.
func (db *DB) AllTickets() ([]models.HelpTicket, error) {
	return db.queryTickets(`SELECT ` + ticketColumns + ` FROM help_tickets ORDER BY created_at DESC`)
}

// UpdateTicket applies a partial update and bumps updated_at.
func (db *DB) UpdateTicket(id string, p models.TicketPatch) error {
	set := "updated_at = ?"
	args := []any{time.Now().UTC()}
	if p.Status != nil {
		set += ", status = ?"
		args = append(args, *p.Status)
	}
	if p.AdminResponse != nil {
		set += ", admin_response = ?"
		args = append(args, *p.AdminResponse)
	}
	if p.ResolvedAt != nil {
		set += ", resolved_at = ?"
		args = append(args, p.ResolvedAt.UTC())
	}
	args = append(args, id)

	res, err := db.conn.Exec(`UPDATE help_tickets SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("docstore: update ticket: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (db *DB) queryTickets(query string, args ...any) ([]models.HelpTicket, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("docstore: query tickets: %w", err)
	}
	defer rows.Close()

	var out []models.HelpTicket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("docstore: scan ticket: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func scanTicket(row rowScanner) (*models.HelpTicket, error) {
	var t models.HelpTicket
	var resolved sql.NullTime
	err := row.Scan(&t.ID, &t.UserID, &t.Subject, &t.Description, &t.Status,
		&t.AdminResponse, &resolved, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if resolved.Valid {
		t.ResolvedAt = &resolved.Time
	}
	return &t, nil
}
