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

const folderColumns = `id, name, user_id, is_protected, password_hash, created_at, updated_at`

// CreateFolder inserts a new folder with a server-assigned id and
// timestamps and returns the stored record. The protection flag and the
// password hash must be set together, as on the update path.
func (db *DB) CreateFolder(f models.Folder) (models.Folder, error) {
	if f.IsProtected == (f.PasswordHash == "") {
		return models.Folder{}, fmt.Errorf("docstore: protection flag and password hash must be set together")
	}
	f.ID = uuid.NewString()
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now

	_, err := db.conn.Exec(`
		INSERT INTO folders (`+folderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, f.ID, f.Name, f.UserID, f.IsProtected, f.PasswordHash, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return models.Folder{}, fmt.Errorf("docstore: insert folder: %w", err)
	}
	return f, nil
}

// GetFolder returns a single folder by id, including its password hash.
func (db *DB) GetFolder(id string) (*models.Folder, error) {
	row := db.conn.QueryRow(`SELECT `+folderColumns+` FROM folders WHERE id = ?`, id)
	f, err := scanFolder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("docstore: get folder: %w", err)
	}
	return f, nil
}

// FoldersByUser returns every folder owned by userID, newest first.
func (db *DB) FoldersByUser(userID string) ([]models.Folder, error) {
	rows, err := db.conn.Query(`
		SELECT `+folderColumns+` FROM folders
		WHERE user_id = ? ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("docstore: query folders: %w", err)
	}
	defer rows.Close()

	var out []models.Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("docstore: scan folder: %w", err)
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// UpdateFolder applies a partial update and bumps updated_at. Protection
// fields are only touched together (SetProtection) so the hash/flag
// invariant holds on every write path.
func (db *DB) UpdateFolder(id string, p models.FolderPatch) error {
	set := "updated_at = ?"
	args := []any{time.Now().UTC()}
	if p.Name != nil {
		set += ", name = ?"
		args = append(args, *p.Name)
	}
	if p.SetProtection {
		protected := p.IsProtected != nil && *p.IsProtected
		hash := ""
		if p.PasswordHash != nil {
			hash = *p.PasswordHash
		}
		if protected == (hash == "") {
			return fmt.Errorf("docstore: protection flag and password hash must be set together")
		}
		set += ", is_protected = ?, password_hash = ?"
		args = append(args, protected, hash)
	}
	args = append(args, id)

	res, err := db.conn.Exec(`UPDATE folders SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("docstore: update folder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// DeleteFolder removes a folder record. Callers must unfile its documents
// first (UnfileDocuments).
func (db *DB) DeleteFolder(id string) error {
	res, err := db.conn.Exec(`DELETE FROM folders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("docstore: delete folder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func scanFolder(row rowScanner) (*models.Folder, error) {
	var f models.Folder
	err := row.Scan(&f.ID, &f.Name, &f.UserID, &f.IsProtected, &f.PasswordHash,
		&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
