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

const documentColumns = `id, name, category, description, folder_id, file_name,
	file_size, file_type, file_url, file_path, user_id, owner, created_at, updated_at`

// CreateDocument inserts a new document with a server-assigned id and
// timestamps and returns the stored record.
func (db *DB) CreateDocument(d models.Document) (models.Document, error) {
	d.ID = uuid.NewString()
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	_, err := db.conn.Exec(`
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.Name, d.Category, d.Description, d.FolderID, d.FileName,
		d.FileSize, d.FileType, d.FileURL, d.FilePath, d.UserID, d.Owner,
		d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return models.Document{}, fmt.Errorf("docstore: insert document: %w", err)
	}
	return d, nil
}

// GetDocument returns a single document by id.
func (db *DB) GetDocument(id string) (*models.Document, error) {
	row := db.conn.QueryRow(`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	d, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("docstore: get document: %w", err)
	}
	return d, nil
}

// DocumentsByUser returns every document owned by userID, newest first.
func (db *DB) DocumentsByUser(userID string) ([]models.Document, error) {
	return db.queryDocuments(`
		SELECT `+documentColumns+` FROM documents
		WHERE user_id = ? ORDER BY created_at DESC
	`, userID)
}

// SearchDocuments returns the user's documents filtered by category when
// category is non-empty ("All" means no filter), newest first. Free-text
// matching is applied by the service layer.
func (db *DB) SearchDocuments(userID, category string) ([]models.Document, error) {
	if category == "" || category == "All" {
		return db.DocumentsByUser(userID)
	}
	return db.queryDocuments(`
		SELECT `+documentColumns+` FROM documents
		WHERE user_id = ? AND category = ? ORDER BY created_at DESC
	`, userID, category)
}

// UpdateDocument applies a partial update and bumps updated_at. A patch
// with no set fields still bumps the timestamp.
func (db *DB) UpdateDocument(id string, p models.DocumentPatch) error {
	set := "updated_at = ?"
	args := []any{time.Now().UTC()}
	if p.Name != nil {
		set += ", name = ?"
		args = append(args, *p.Name)
	}
	if p.Category != nil {
		set += ", category = ?"
		args = append(args, *p.Category)
	}
	if p.Description != nil {
		set += ", description = ?"
		args = append(args, *p.Description)
	}
	if p.SetFolderID {
		set += ", folder_id = ?"
		args = append(args, p.FolderID)
	}
	args = append(args, id)

	res, err := db.conn.Exec(`UPDATE documents SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("docstore: update document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// DeleteDocument removes a document record.
func (db *DB) DeleteDocument(id string) error {
	res, err := db.conn.Exec(`DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("docstore: delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// UnfileDocuments clears folder_id on every document filed under folderID.
// Run before a folder delete so no record is left dangling.
func (db *DB) UnfileDocuments(folderID string) error {
	_, err := db.conn.Exec(`
		UPDATE documents SET folder_id = NULL, updated_at = ?
		WHERE folder_id = ?
	`, time.Now().UTC(), folderID)
	if err != nil {
		return fmt.Errorf("docstore: unfile documents: %w", err)
	}
	return nil
}

func (db *DB) queryDocuments(query string, args ...any) ([]models.Document, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("docstore: query documents: %w", err)
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("docstore: scan document: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var d models.Document
	var folderID sql.NullString
	err := row.Scan(&d.ID, &d.Name, &d.Category, &d.Description, &folderID,
		&d.FileName, &d.FileSize, &d.FileType, &d.FileURL, &d.FilePath,
		&d.UserID, &d.Owner, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if folderID.Valid {
		d.FolderID = &folderID.String
	}
	return &d, nil
}
