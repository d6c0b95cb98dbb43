package docstore

import (
	"time"

	"github.com/docflowapp/docflow/internal/models"
)

// Store defines the document-database operations. Consumers should depend
// on this interface rather than the concrete *DB type to facilitate testing
// with mocks.
type Store interface {
	CreateDocument(d models.Document) (models.Document, error)
	GetDocument(id string) (*models.Document, error)
	DocumentsByUser(userID string) ([]models.Document, error)
	SearchDocuments(userID, category string) ([]models.Document, error)
	UpdateDocument(id string, p models.DocumentPatch) error
	DeleteDocument(id string) error
	UnfileDocuments(folderID string) error

	CreateFolder(f models.Folder) (models.Folder, error)
	GetFolder(id string) (*models.Folder, error)
	FoldersByUser(userID string) ([]models.Folder, error)
	UpdateFolder(id string, p models.FolderPatch) error
	DeleteFolder(id string) error

	CreateUser(u models.User, passwordHash string) (models.User, error)
	GetUserByEmail(email string) (*models.User, string, error)
	GetUser(id string) (*models.User, error)
	UpdateUser(id string, p models.UserPatch) error
	TouchLogin(id string, at time.Time) error
	AllUsers() ([]models.User, error)

	CreateTicket(t models.HelpTicket) (models.HelpTicket, error)
	GetTicket(id string) (*models.HelpTicket, error)
	TicketsByUser(userID string) ([]models.HelpTicket, error)
	AllTickets() ([]models.HelpTicket, error)
	UpdateTicket(id string, p models.TicketPatch) error

	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
