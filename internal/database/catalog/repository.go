// Package catalog provides database operations for writers and books.
package catalog

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mrvaldes/biblioteca/internal/entities"
)

// Repository handles writer and book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new catalog repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// --- Writers ---

// CreateWriter persists a new writer.
func (r *Repository) CreateWriter(writer *entities.Writer) error {
	return r.db.Create(writer).Error
}

// GetOrCreateWriter returns the writer with the given name, creating it when
// no exact match exists.
func (r *Repository) GetOrCreateWriter(name string) (*entities.Writer, error) {
	var writer entities.Writer
	err := r.db.Where("name = ?", name).First(&writer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writer = entities.Writer{Name: name}
		if err := r.db.Create(&writer).Error; err != nil {
			return nil, err
		}
		return &writer, nil
	}
	if err != nil {
		return nil, err
	}
	return &writer, nil
}

// GetWriterByID retrieves a writer with their books.
func (r *Repository) GetWriterByID(id uint) (*entities.Writer, error) {
	var writer entities.Writer
	if err := r.db.Preload("Books").First(&writer, id).Error; err != nil {
		return nil, err
	}
	return &writer, nil
}

// ListWriters returns all writers with their books, ordered by ID.
func (r *Repository) ListWriters() ([]entities.Writer, error) {
	var writers []entities.Writer
	err := r.db.Preload("Books").Order("id ASC").Find(&writers).Error
	return writers, err
}

// UpdateWriter saves changes to an existing writer.
func (r *Repository) UpdateWriter(writer *entities.Writer) error {
	return r.db.Save(writer).Error
}

// DeleteWriter removes a writer, their books, and all loans of those books.
func (r *Repository) DeleteWriter(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var writer entities.Writer
		if err := tx.First(&writer, id).Error; err != nil {
			return err
		}
		var bookIDs []uint
		err := tx.Model(&entities.Book{}).Where("writer_id = ?", id).Pluck("id", &bookIDs).Error
		if err != nil {
			return err
		}
		if len(bookIDs) > 0 {
			if err := tx.Where("book_id IN ?", bookIDs).Delete(&entities.Loan{}).Error; err != nil {
				return err
			}
			if err := tx.Where("writer_id = ?", id).Delete(&entities.Book{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&writer).Error
	})
}

// --- Books ---

// CreateBook persists a new book.
func (r *Repository) CreateBook(book *entities.Book) error {
	return r.db.Create(book).Error
}

// GetBookByID retrieves a book with its writer.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.Preload("Writer").First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// ListBooks returns all books with their writers, ordered by ID.
func (r *Repository) ListBooks() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Preload("Writer").Order("id ASC").Find(&books).Error
	return books, err
}

// UpdateBook saves changes to an existing book.
func (r *Repository) UpdateBook(book *entities.Book) error {
	return r.db.Save(book).Error
}

// DeleteBook removes a book together with its loans.
func (r *Repository) DeleteBook(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.First(&book, id).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.Loan{}).Error; err != nil {
			return err
		}
		return tx.Delete(&book).Error
	})
}
