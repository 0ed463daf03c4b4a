package librarians

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrvaldes/biblioteca/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB, func()) {
	dbPath := "./test_librarians_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.Writer{},
		&entities.Book{},
		&entities.User{},
		&entities.Librarian{},
		&entities.Loan{},
	)
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, db, cleanup
}

func TestRepository_Create(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	librarian := entities.Librarian{Username: "admin", Email: "admin@example.com", FullName: "Head Librarian"}
	err := repo.Create(&librarian)

	require.NoError(t, err)
	assert.NotZero(t, librarian.ID)
}

func TestRepository_Create_Duplicate(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.Create(&entities.Librarian{Username: "admin", Email: "admin@example.com"}))

	err := repo.Create(&entities.Librarian{Username: "admin", Email: "second@example.com"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestRepository_IsLibrarianEmail(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.Create(&entities.Librarian{Username: "admin", Email: "admin@example.com"}))

	isLibrarian, err := repo.IsLibrarianEmail("admin@example.com")
	require.NoError(t, err)
	assert.True(t, isLibrarian)

	isLibrarian, err = repo.IsLibrarianEmail("reader@example.com")
	require.NoError(t, err)
	assert.False(t, isLibrarian)
}

func TestRepository_Update(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	librarian := entities.Librarian{Username: "admin", Email: "admin@example.com"}
	require.NoError(t, repo.Create(&librarian))

	librarian.FullName = "Senior Librarian"
	require.NoError(t, repo.Update(&librarian))

	found, err := repo.GetByID(librarian.ID)
	require.NoError(t, err)
	assert.Equal(t, "Senior Librarian", found.FullName)
}

func TestRepository_Delete_KeepsLoans(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	writer := entities.Writer{Name: "Gabriela Mistral"}
	require.NoError(t, db.Create(&writer).Error)
	book := entities.Book{Title: "Desolación", WriterID: writer.ID}
	require.NoError(t, db.Create(&book).Error)
	user := entities.User{Username: "reader", Email: "reader@example.com"}
	require.NoError(t, db.Create(&user).Error)

	librarian := entities.Librarian{Username: "admin", Email: "admin@example.com"}
	require.NoError(t, repo.Create(&librarian))

	loan := entities.Loan{BookID: book.ID, UserID: user.ID, LibrarianID: &librarian.ID, IsActive: true}
	require.NoError(t, db.Create(&loan).Error)

	require.NoError(t, repo.Delete(librarian.ID))

	_, err := repo.GetByID(librarian.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// The loan survives with its librarian reference cleared.
	var stored entities.Loan
	require.NoError(t, db.First(&stored, loan.ID).Error)
	assert.Nil(t, stored.LibrarianID)
	assert.True(t, stored.IsActive)
}

func TestRepository_Delete_NotFound(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.Delete(999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
