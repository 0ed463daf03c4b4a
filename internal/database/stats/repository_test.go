package stats

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrvaldes/biblioteca/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB, func()) {
	dbPath := "./test_stats_" + t.Name() + ".db"

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

// fixture builds two writers, three books, two users, one librarian and five
// loans (two of them returned).
//
//	book1 (writer1): loans by user1 (active), user2 (returned), user1 (returned)
//	book2 (writer1): loan by user2 (active), processed by the librarian
//	book3 (writer2): loan by user1 (active), processed by the librarian
type fixture struct {
	writer1, writer2    entities.Writer
	book1, book2, book3 entities.Book
	user1, user2        entities.User
	librarian           entities.Librarian
}

func seedFixture(t *testing.T, db *gorm.DB) fixture {
	f := fixture{
		writer1:   entities.Writer{Name: "Pablo Neruda"},
		writer2:   entities.Writer{Name: "Gabriela Mistral"},
		user1:     entities.User{Username: "reader", Email: "reader@example.com"},
		user2:     entities.User{Username: "student", Email: "student@example.com"},
		librarian: entities.Librarian{Username: "admin", Email: "admin@example.com"},
	}
	require.NoError(t, db.Create(&f.writer1).Error)
	require.NoError(t, db.Create(&f.writer2).Error)
	require.NoError(t, db.Create(&f.user1).Error)
	require.NoError(t, db.Create(&f.user2).Error)
	require.NoError(t, db.Create(&f.librarian).Error)

	f.book1 = entities.Book{Title: "Canto General", WriterID: f.writer1.ID}
	f.book2 = entities.Book{Title: "Odas elementales", WriterID: f.writer1.ID}
	f.book3 = entities.Book{Title: "Desolación", WriterID: f.writer2.ID}
	require.NoError(t, db.Create(&f.book1).Error)
	require.NoError(t, db.Create(&f.book2).Error)
	require.NoError(t, db.Create(&f.book3).Error)

	now := time.Now().UTC()
	returned := now.Add(-time.Hour)
	loans := []entities.Loan{
		{BookID: f.book1.ID, UserID: f.user1.ID, LoanDate: now, IsActive: true},
		{BookID: f.book1.ID, UserID: f.user2.ID, LoanDate: now, ReturnDate: &returned, IsActive: false},
		{BookID: f.book1.ID, UserID: f.user1.ID, LoanDate: now, ReturnDate: &returned, IsActive: false},
		{BookID: f.book2.ID, UserID: f.user2.ID, LibrarianID: &f.librarian.ID, LoanDate: now, IsActive: true},
		{BookID: f.book3.ID, UserID: f.user1.ID, LibrarianID: &f.librarian.ID, LoanDate: now, IsActive: true},
	}
	for i := range loans {
		require.NoError(t, db.Create(&loans[i]).Error)
	}
	return f
}

func TestRepository_LibrarianStats(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	f := seedFixture(t, db)

	librarian, counts, err := repo.LibrarianStats(f.librarian.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", librarian.Username)
	assert.Equal(t, int64(2), counts.TotalLoans)
	assert.Equal(t, int64(2), counts.ActiveLoans)
	assert.Zero(t, counts.CompletedLoans)
	assert.Equal(t, counts.TotalLoans, counts.ActiveLoans+counts.CompletedLoans)
}

func TestRepository_LibrarianStats_NotFound(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	_, _, err := repo.LibrarianStats(999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_UserStats(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	f := seedFixture(t, db)

	user, counts, err := repo.UserStats(f.user1.ID)
	require.NoError(t, err)
	assert.Equal(t, "reader", user.Username)
	assert.Equal(t, int64(3), counts.TotalLoans)
	assert.Equal(t, int64(2), counts.ActiveLoans)
	assert.Equal(t, int64(1), counts.CompletedLoans)
}

func TestRepository_UserStats_NotFound(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	_, _, err := repo.UserStats(999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_BookStats(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	f := seedFixture(t, db)

	book, counts, uniqueUsers, err := repo.BookStats(f.book1.ID)
	require.NoError(t, err)
	assert.Equal(t, "Canto General", book.Title)
	assert.Equal(t, "Pablo Neruda", book.Writer.Name)
	assert.Equal(t, int64(3), counts.TotalLoans)
	assert.Equal(t, int64(1), counts.ActiveLoans)
	assert.Equal(t, int64(2), counts.CompletedLoans)
	// user1 borrowed it twice; distinct borrowers stay at two.
	assert.Equal(t, int64(2), uniqueUsers)
}

func TestRepository_BookStats_NotFound(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	_, _, _, err := repo.BookStats(999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_LibraryStats(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	f := seedFixture(t, db)

	stats, err := repo.LibraryStats()
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.Catalog.TotalWriters)
	assert.Equal(t, int64(3), stats.Catalog.TotalBooks)
	assert.Equal(t, int64(2), stats.Catalog.TotalUsers)
	assert.Equal(t, int64(1), stats.Catalog.TotalLibrarians)

	assert.Equal(t, int64(5), stats.Loans.TotalLoans)
	assert.Equal(t, int64(3), stats.Loans.ActiveLoans)
	assert.Equal(t, int64(2), stats.Loans.CompletedLoans)

	require.Len(t, stats.Rankings.TopBooks, 3)
	assert.Equal(t, f.book1.ID, stats.Rankings.TopBooks[0].ID)
	assert.Equal(t, "Canto General", stats.Rankings.TopBooks[0].Title)
	assert.Equal(t, "Pablo Neruda", stats.Rankings.TopBooks[0].Writer)
	assert.Equal(t, int64(3), stats.Rankings.TopBooks[0].TotalLoans)
	// book2 and book3 both have one loan; the tie resolves by ID.
	assert.Equal(t, f.book2.ID, stats.Rankings.TopBooks[1].ID)
	assert.Equal(t, f.book3.ID, stats.Rankings.TopBooks[2].ID)

	require.Len(t, stats.Rankings.TopUsers, 2)
	assert.Equal(t, "reader", stats.Rankings.TopUsers[0].Username)
	assert.Equal(t, int64(3), stats.Rankings.TopUsers[0].TotalLoans)
	assert.Equal(t, "student", stats.Rankings.TopUsers[1].Username)
	assert.Equal(t, int64(2), stats.Rankings.TopUsers[1].TotalLoans)

	require.Len(t, stats.Rankings.TopWriters, 2)
	assert.Equal(t, "Pablo Neruda", stats.Rankings.TopWriters[0].Name)
	assert.Equal(t, int64(2), stats.Rankings.TopWriters[0].TotalBooks)
	assert.Equal(t, int64(4), stats.Rankings.TopWriters[0].TotalLoans)
	assert.Equal(t, "Gabriela Mistral", stats.Rankings.TopWriters[1].Name)
	assert.Equal(t, int64(1), stats.Rankings.TopWriters[1].TotalBooks)
	assert.Equal(t, int64(1), stats.Rankings.TopWriters[1].TotalLoans)
}

func TestRepository_LibraryStats_TopFiveCutoff(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	writer := entities.Writer{Name: "Pablo Neruda"}
	require.NoError(t, db.Create(&writer).Error)
	user := entities.User{Username: "reader", Email: "reader@example.com"}
	require.NoError(t, db.Create(&user).Error)

	// Seven books: book i gets i loans, so the ranking has a strict order and
	// the two least-borrowed books fall off the list.
	titles := []string{"Uno", "Dos", "Tres", "Cuatro", "Cinco", "Seis", "Siete"}
	for i, title := range titles {
		book := entities.Book{Title: title, WriterID: writer.ID}
		require.NoError(t, db.Create(&book).Error)
		for j := 0; j <= i; j++ {
			loan := entities.Loan{BookID: book.ID, UserID: user.ID, LoanDate: time.Now().UTC(), IsActive: true}
			require.NoError(t, db.Create(&loan).Error)
		}
	}

	stats, err := repo.LibraryStats()
	require.NoError(t, err)

	require.Len(t, stats.Rankings.TopBooks, 5)
	assert.Equal(t, "Siete", stats.Rankings.TopBooks[0].Title)
	assert.Equal(t, int64(7), stats.Rankings.TopBooks[0].TotalLoans)
	assert.Equal(t, "Tres", stats.Rankings.TopBooks[4].Title)
	assert.Equal(t, int64(3), stats.Rankings.TopBooks[4].TotalLoans)
}

func TestRepository_LibraryStats_Empty(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	stats, err := repo.LibraryStats()
	require.NoError(t, err)

	assert.Zero(t, stats.Catalog.TotalWriters)
	assert.Zero(t, stats.Loans.TotalLoans)
	assert.NotNil(t, stats.Rankings.TopBooks)
	assert.NotNil(t, stats.Rankings.TopUsers)
	assert.NotNil(t, stats.Rankings.TopWriters)
	assert.Empty(t, stats.Rankings.TopBooks)
}
