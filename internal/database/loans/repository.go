// Package loans provides database operations for book loans, including the
// one state transition in the system: returning a loan.
package loans

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mrvaldes/biblioteca/internal/entities"
)

// ErrAlreadyReturned is reported when a return is attempted on a loan that is
// no longer active. Returning twice fails, it never silently succeeds.
var ErrAlreadyReturned = errors.New("loan already returned")

// loanOrder is the structural ordering of the loan entity: most recent first,
// with ID as a deterministic secondary key.
const loanOrder = "loan_date DESC, id DESC"

// Repository handles all loan database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new loans repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// withRelations preloads everything a loan representation needs.
func (r *Repository) withRelations() *gorm.DB {
	return r.db.Preload("Book").Preload("Book.Writer").Preload("User").Preload("Librarian")
}

// Create persists a new loan. The loan starts active with the loan timestamp
// set once, here.
func (r *Repository) Create(loan *entities.Loan) error {
	loan.LoanDate = time.Now().UTC()
	loan.ReturnDate = nil
	loan.IsActive = true
	if err := r.db.Create(loan).Error; err != nil {
		return err
	}
	return r.withRelations().First(loan, loan.ID).Error
}

// GetByID retrieves a loan with book, writer, borrower and librarian loaded.
func (r *Repository) GetByID(id uint) (*entities.Loan, error) {
	var loan entities.Loan
	if err := r.withRelations().First(&loan, id).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

// List returns all loans, most recent first.
func (r *Repository) List() ([]entities.Loan, error) {
	var loans []entities.Loan
	err := r.withRelations().Order(loanOrder).Find(&loans).Error
	return loans, err
}

// ListActive returns all loans that have not been returned.
func (r *Repository) ListActive() ([]entities.Loan, error) {
	var loans []entities.Loan
	err := r.withRelations().Where("is_active = ?", true).Order(loanOrder).Find(&loans).Error
	return loans, err
}

// ListForLibrarian returns all loans processed by the given librarian.
func (r *Repository) ListForLibrarian(librarianID uint) ([]entities.Loan, error) {
	var loans []entities.Loan
	err := r.withRelations().Where("librarian_id = ?", librarianID).Order(loanOrder).Find(&loans).Error
	return loans, err
}

// ListActiveForLibrarian returns active loans processed by the given librarian.
func (r *Repository) ListActiveForLibrarian(librarianID uint) ([]entities.Loan, error) {
	var loans []entities.Loan
	err := r.withRelations().
		Where("librarian_id = ? AND is_active = ?", librarianID, true).
		Order(loanOrder).Find(&loans).Error
	return loans, err
}

// ListForUser returns all loans borrowed by the given user.
func (r *Repository) ListForUser(userID uint) ([]entities.Loan, error) {
	var loans []entities.Loan
	err := r.withRelations().Where("user_id = ?", userID).Order(loanOrder).Find(&loans).Error
	return loans, err
}

// ListForBook returns all loans of the given book.
func (r *Repository) ListForBook(bookID uint) ([]entities.Loan, error) {
	var loans []entities.Loan
	err := r.withRelations().Where("book_id = ?", bookID).Order(loanOrder).Find(&loans).Error
	return loans, err
}

// ListOverdue returns active loans issued before the cutoff.
func (r *Repository) ListOverdue(cutoff time.Time) ([]entities.Loan, error) {
	var loans []entities.Loan
	err := r.withRelations().
		Where("is_active = ? AND loan_date < ?", true, cutoff).
		Order(loanOrder).Find(&loans).Error
	return loans, err
}

// CountOverdue counts active loans issued before the cutoff.
func (r *Repository) CountOverdue(cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Loan{}).
		Where("is_active = ? AND loan_date < ?", true, cutoff).
		Count(&count).Error
	return count, err
}

// Update changes the loan's book, borrower and librarian references. The
// timestamps and active flag are not writable through update; Return is the
// only state transition.
func (r *Repository) Update(loan *entities.Loan) error {
	updates := map[string]any{
		"book_id":      loan.BookID,
		"user_id":      loan.UserID,
		"librarian_id": loan.LibrarianID,
	}
	result := r.db.Model(&entities.Loan{}).Where("id = ?", loan.ID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return r.withRelations().First(loan, loan.ID).Error
}

// Delete removes a loan.
func (r *Repository) Delete(id uint) error {
	result := r.db.Delete(&entities.Loan{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Return marks the loan as returned at the given time. The transition is a
// single conditional UPDATE guarded on the active flag, so two concurrent
// returns of the same loan cannot both succeed: the loser of the race sees
// ErrAlreadyReturned.
func (r *Repository) Return(id uint, returnedAt time.Time) (*entities.Loan, error) {
	result := r.db.Model(&entities.Loan{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]any{
			"is_active":   false,
			"return_date": returnedAt,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		var loan entities.Loan
		if err := r.db.First(&loan, id).Error; err != nil {
			return nil, err
		}
		return nil, ErrAlreadyReturned
	}
	return r.GetByID(id)
}
