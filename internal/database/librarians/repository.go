// Package librarians provides database operations for privileged operator
// identities. The repository doubles as the librarian directory consulted by
// the permission rules: membership of an email in this table is what makes a
// principal privileged.
package librarians

import (
	"gorm.io/gorm"

	"github.com/mrvaldes/biblioteca/internal/entities"
)

// Repository handles all librarian database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new librarians repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new librarian.
func (r *Repository) Create(librarian *entities.Librarian) error {
	return r.db.Create(librarian).Error
}

// GetByID retrieves a librarian by ID.
func (r *Repository) GetByID(id uint) (*entities.Librarian, error) {
	var librarian entities.Librarian
	if err := r.db.First(&librarian, id).Error; err != nil {
		return nil, err
	}
	return &librarian, nil
}

// List returns all librarians ordered by ID.
func (r *Repository) List() ([]entities.Librarian, error) {
	var librarians []entities.Librarian
	err := r.db.Order("id ASC").Find(&librarians).Error
	return librarians, err
}

// Update saves changes to an existing librarian.
func (r *Repository) Update(librarian *entities.Librarian) error {
	return r.db.Save(librarian).Error
}

// Delete removes a librarian. Loans the librarian processed are kept with
// their librarian reference cleared: loan history survives staff turnover.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var librarian entities.Librarian
		if err := tx.First(&librarian, id).Error; err != nil {
			return err
		}
		err := tx.Model(&entities.Loan{}).
			Where("librarian_id = ?", id).
			Update("librarian_id", nil).Error
		if err != nil {
			return err
		}
		return tx.Delete(&librarian).Error
	})
}

// IsLibrarianEmail reports whether the email belongs to a registered
// librarian. This is the lookup the permission evaluator depends on.
func (r *Repository) IsLibrarianEmail(email string) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Librarian{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
