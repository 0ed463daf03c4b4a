package scheduler

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrvaldes/biblioteca/internal/database/loans"
	"github.com/mrvaldes/biblioteca/internal/entities"
)

func setupTestRepo(t *testing.T) (*loans.Repository, *gorm.DB, func()) {
	dbPath := "./test_scheduler_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
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

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return loans.NewRepository(db), db, cleanup
}

func TestOverdueReporter_StartStop(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	reporter := NewOverdueReporter(repo, 14*24*time.Hour, "@every 1h")
	require.NoError(t, reporter.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reporter.Stop(ctx)
}

func TestOverdueReporter_Start_BadSchedule(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	reporter := NewOverdueReporter(repo, 14*24*time.Hour, "not a schedule")
	assert.Error(t, reporter.Start())
}

func TestOverdueReporter_Report(t *testing.T) {
	repo, db, cleanup := setupTestRepo(t)
	defer cleanup()

	writer := entities.Writer{Name: "Pablo Neruda"}
	require.NoError(t, db.Create(&writer).Error)
	book := entities.Book{Title: "Canto General", WriterID: writer.ID}
	require.NoError(t, db.Create(&book).Error)
	user := entities.User{Username: "reader", Email: "reader@example.com"}
	require.NoError(t, db.Create(&user).Error)

	loan := entities.Loan{
		BookID:   book.ID,
		UserID:   user.ID,
		LoanDate: time.Now().UTC().Add(-30 * 24 * time.Hour),
		IsActive: true,
	}
	require.NoError(t, db.Create(&loan).Error)

	reporter := NewOverdueReporter(repo, 14*24*time.Hour, "@every 1h")

	// Report only logs; the assertion is that the scan it runs sees the
	// overdue loan.
	reporter.Report()
	count, err := repo.CountOverdue(time.Now().UTC().Add(-reporter.period))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
