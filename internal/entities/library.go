package entities

import (
	"time"
)

// Writer represents an author in the catalog. Writer names are globally unique.
type Writer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100" json:"name"`
	Books     []Book    `gorm:"foreignKey:WriterID" json:"books,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Book belongs to exactly one writer. Titles are globally unique, not merely
// unique per writer.
type Book struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"uniqueIndex;size:200" json:"title"`
	WriterID  uint      `gorm:"index;not null" json:"writer_id"`
	Writer    Writer    `gorm:"foreignKey:WriterID" json:"-"`
	Loans     []Loan    `gorm:"foreignKey:BookID" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// User is a borrower identity.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:150" json:"username"`
	Email     string    `gorm:"uniqueIndex;size:255" json:"email"`
	FullName  string    `gorm:"size:150" json:"full_name"`
	Loans     []Loan    `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Librarian is a privileged operator identity. It is a distinct table from
// User: the two are related only by email equality during authorization.
type Librarian struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:150" json:"username"`
	Email     string    `gorm:"uniqueIndex;size:255" json:"email"`
	FullName  string    `gorm:"size:150" json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Loan records a book lent to a user, optionally processed by a librarian.
//
// Invariant: ReturnDate is non-nil exactly when IsActive is false. LoanDate is
// set once at creation; listings are always ordered most-recent first.
type Loan struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	BookID      uint       `gorm:"index;not null" json:"book_id"`
	UserID      uint       `gorm:"index;not null" json:"user_id"`
	LibrarianID *uint      `gorm:"index" json:"librarian_id,omitempty"`
	Book        Book       `gorm:"foreignKey:BookID" json:"-"`
	User        User       `gorm:"foreignKey:UserID" json:"-"`
	Librarian   *Librarian `gorm:"foreignKey:LibrarianID" json:"-"`
	LoanDate    time.Time  `json:"loan_date"`
	ReturnDate  *time.Time `json:"return_date"`
	IsActive    bool       `json:"is_active"`
}

// Credential stores authentication material for a principal, keyed by email.
// It is deliberately separate from the User and Librarian identity tables:
// who may log in is a different question from who exists in the domain.
// TokenHash is NULL until the principal logs in; sqlite treats NULLs as
// distinct under the unique index, so any number of credentials may sit there
// without an issued token.
type Credential struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	TokenHash    *string   `gorm:"uniqueIndex;size:64" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Ownable is implemented by entities that support owner-based access checks.
// OwnerEmail reports the owning principal's email; the second return value is
// false when the entity cannot name an owner (e.g. a loan whose borrower was
// not loaded).
type Ownable interface {
	OwnerEmail() (string, bool)
}

func (u User) OwnerEmail() (string, bool) {
	return u.Email, u.Email != ""
}

func (l Librarian) OwnerEmail() (string, bool) {
	return l.Email, l.Email != ""
}

// OwnerEmail delegates to the borrower: a loan belongs to the user it was
// issued to, not to any field on the loan row itself. The User relation must
// be preloaded.
func (l Loan) OwnerEmail() (string, bool) {
	if l.User.ID == 0 {
		return "", false
	}
	return l.User.Email, true
}
