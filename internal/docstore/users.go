package docstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docflowapp/docflow/internal/apperr"
	"github.com/docflowapp/docflow/internal/models"
)

const userColumns = `id, email, display_name, photo_url, created_at, last_login_at`

// CreateUser inserts a new user record. Emails are stored lowercased and
// must be unique.
func (db *DB) CreateUser(u models.User, passwordHash string) (models.User, error) {
	u.ID = uuid.NewString()
	u.Email = strings.ToLower(u.Email)
	now := time.Now().UTC()
	u.CreatedAt = now
	u.LastLoginAt = now

	_, err := db.conn.Exec(`
		INSERT INTO users (id, email, display_name, photo_url, password_hash, created_at, last_login_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.DisplayName, u.PhotoURL, passwordHash, u.CreatedAt, u.LastLoginAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return models.User{}, apperr.ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("docstore: insert user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns the user record and its stored password hash.
func (db *DB) GetUserByEmail(email string) (*models.User, string, error) {
	row := db.conn.QueryRow(`
		SELECT `+userColumns+`, password_hash FROM users WHERE email = ?
	`, strings.ToLower(email))
	var u models.User
	var hash string
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PhotoURL,
		&u.CreatedAt, &u.LastLoginAt, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", apperr.ErrNotFound
		}
		return nil, "", fmt.Errorf("docstore: get user by email: %w", err)
	}
	return &u, hash, nil
}

// GetUser returns a user record by id.
func (db *DB) GetUser(id string) (*models.User, error) {
	row := db.conn.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PhotoURL,
		&u.CreatedAt, &u.LastLoginAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("docstore: get user: %w", err)
	}
	return &u, nil
}

// UpdateUser applies a partial profile update.
func (db *DB) UpdateUser(id string, p models.UserPatch) error {
	set := []string{}
	args := []any{}
	if p.DisplayName != nil {
		set = append(set, "display_name = ?")
		args = append(args, *p.DisplayName)
	}
	if p.PhotoURL != nil {
		set = append(set, "photo_url = ?")
		args = append(args, *p.PhotoURL)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)

	res, err := db.conn.Exec(`UPDATE users SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("docstore: update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// TouchLogin records a successful sign-in.
func (db *DB) TouchLogin(id string, at time.Time) error {
	res, err := db.conn.Exec(`UPDATE users SET last_login_at = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("docstore: touch login: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// AllUsers returns every user record, newest first.
func (db *DB) AllUsers() ([]models.User, error) {
	rows, err := db.conn.Query(`SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("docstore: query users: %w", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PhotoURL,
			&u.CreatedAt, &u.LastLoginAt); err != nil {
			return nil, fmt.Errorf("docstore: scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
