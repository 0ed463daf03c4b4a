// Package stats derives loan statistics from the current persisted snapshot.
// Nothing here is cached or materialized: every call runs fresh read-only
// queries.
package stats

import (
	"gorm.io/gorm"

	"github.com/mrvaldes/biblioteca/internal/entities"
)

// Ranking ties are broken by entity ID ascending so report output is
// reproducible; the loan count itself always sorts descending.
const topN = 5

// Repository computes aggregate loan statistics.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new statistics repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LoanCounts holds the three counts every scope reports.
// Invariant: Total == Active + Completed.
type LoanCounts struct {
	TotalLoans     int64 `json:"total_loans"`
	ActiveLoans    int64 `json:"active_loans"`
	CompletedLoans int64 `json:"completed_loans"`
}

// RankedBook is a top-books entry.
type RankedBook struct {
	ID         uint   `json:"id"`
	Title      string `json:"title"`
	Writer     string `json:"writer"`
	TotalLoans int64  `json:"total_loans"`
}

// RankedUser is a top-users entry.
type RankedUser struct {
	ID         uint   `json:"id"`
	Username   string `json:"username"`
	TotalLoans int64  `json:"total_loans"`
}

// RankedWriter is a top-writers entry; loans are counted across all of the
// writer's books.
type RankedWriter struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	TotalBooks int64  `json:"total_books"`
	TotalLoans int64  `json:"total_loans"`
}

// CatalogCounts holds the global entity counts.
type CatalogCounts struct {
	TotalWriters    int64 `json:"total_writers"`
	TotalBooks      int64 `json:"total_books"`
	TotalUsers      int64 `json:"total_users"`
	TotalLibrarians int64 `json:"total_librarians"`
}

// Rankings holds the three global top-5 lists.
type Rankings struct {
	TopBooks   []RankedBook   `json:"top_books"`
	TopUsers   []RankedUser   `json:"top_users"`
	TopWriters []RankedWriter `json:"top_writers"`
}

// LibraryStats is the global report.
type LibraryStats struct {
	Catalog  CatalogCounts `json:"catalog"`
	Loans    LoanCounts    `json:"loans"`
	Rankings Rankings      `json:"rankings"`
}

// countLoans computes total/active/completed for an arbitrary scope.
func (r *Repository) countLoans(scope func(*gorm.DB) *gorm.DB) (LoanCounts, error) {
	var counts LoanCounts
	query := scope(r.db.Model(&entities.Loan{}))
	if err := query.Count(&counts.TotalLoans).Error; err != nil {
		return counts, err
	}
	query = scope(r.db.Model(&entities.Loan{}))
	if err := query.Where("is_active = ?", true).Count(&counts.ActiveLoans).Error; err != nil {
		return counts, err
	}
	counts.CompletedLoans = counts.TotalLoans - counts.ActiveLoans
	return counts, nil
}

// LibrarianStats counts loans processed by the librarian. Missing librarian
// IDs short-circuit with gorm.ErrRecordNotFound.
func (r *Repository) LibrarianStats(librarianID uint) (*entities.Librarian, LoanCounts, error) {
	var librarian entities.Librarian
	if err := r.db.First(&librarian, librarianID).Error; err != nil {
		return nil, LoanCounts{}, err
	}
	counts, err := r.countLoans(func(q *gorm.DB) *gorm.DB {
		return q.Where("librarian_id = ?", librarianID)
	})
	return &librarian, counts, err
}

// UserStats counts loans borrowed by the user.
func (r *Repository) UserStats(userID uint) (*entities.User, LoanCounts, error) {
	var user entities.User
	if err := r.db.First(&user, userID).Error; err != nil {
		return nil, LoanCounts{}, err
	}
	counts, err := r.countLoans(func(q *gorm.DB) *gorm.DB {
		return q.Where("user_id = ?", userID)
	})
	return &user, counts, err
}

// BookStats counts loans of the book plus the number of distinct borrowers.
func (r *Repository) BookStats(bookID uint) (*entities.Book, LoanCounts, int64, error) {
	var book entities.Book
	if err := r.db.Preload("Writer").First(&book, bookID).Error; err != nil {
		return nil, LoanCounts{}, 0, err
	}
	counts, err := r.countLoans(func(q *gorm.DB) *gorm.DB {
		return q.Where("book_id = ?", bookID)
	})
	if err != nil {
		return nil, LoanCounts{}, 0, err
	}
	var uniqueUsers int64
	err = r.db.Model(&entities.Loan{}).
		Where("book_id = ?", bookID).
		Distinct("user_id").
		Count(&uniqueUsers).Error
	return &book, counts, uniqueUsers, err
}

// LibraryStats computes the global report: catalog counts, loan counts and the
// three top-5 rankings. Entities with zero loans still participate in the
// rankings.
func (r *Repository) LibraryStats() (*LibraryStats, error) {
	stats := &LibraryStats{}

	type pair struct {
		model any
		dst   *int64
	}
	for _, p := range []pair{
		{&entities.Writer{}, &stats.Catalog.TotalWriters},
		{&entities.Book{}, &stats.Catalog.TotalBooks},
		{&entities.User{}, &stats.Catalog.TotalUsers},
		{&entities.Librarian{}, &stats.Catalog.TotalLibrarians},
	} {
		if err := r.db.Model(p.model).Count(p.dst).Error; err != nil {
			return nil, err
		}
	}

	counts, err := r.countLoans(func(q *gorm.DB) *gorm.DB { return q })
	if err != nil {
		return nil, err
	}
	stats.Loans = counts

	err = r.db.Model(&entities.Book{}).
		Select("books.id AS id, books.title AS title, writers.name AS writer, COUNT(loans.id) AS total_loans").
		Joins("JOIN writers ON writers.id = books.writer_id").
		Joins("LEFT JOIN loans ON loans.book_id = books.id").
		Group("books.id").
		Order("total_loans DESC, books.id ASC").
		Limit(topN).
		Scan(&stats.Rankings.TopBooks).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&entities.User{}).
		Select("users.id AS id, users.username AS username, COUNT(loans.id) AS total_loans").
		Joins("LEFT JOIN loans ON loans.user_id = users.id").
		Group("users.id").
		Order("total_loans DESC, users.id ASC").
		Limit(topN).
		Scan(&stats.Rankings.TopUsers).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&entities.Writer{}).
		Select("writers.id AS id, writers.name AS name, COUNT(DISTINCT books.id) AS total_books, COUNT(loans.id) AS total_loans").
		Joins("LEFT JOIN books ON books.writer_id = writers.id").
		Joins("LEFT JOIN loans ON loans.book_id = books.id").
		Group("writers.id").
		Order("total_loans DESC, writers.id ASC").
		Limit(topN).
		Scan(&stats.Rankings.TopWriters).Error
	if err != nil {
		return nil, err
	}

	if stats.Rankings.TopBooks == nil {
		stats.Rankings.TopBooks = []RankedBook{}
	}
	if stats.Rankings.TopUsers == nil {
		stats.Rankings.TopUsers = []RankedUser{}
	}
	if stats.Rankings.TopWriters == nil {
		stats.Rankings.TopWriters = []RankedWriter{}
	}

	return stats, nil
}
