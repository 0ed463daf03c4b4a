package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrvaldes/biblioteca/internal/database/loans"
	"github.com/mrvaldes/biblioteca/internal/database/stats"
)

// ReportsController serves the cross-entity statistics views. Everything is
// derived fresh from the store at request time.
type ReportsController struct {
	stats *stats.Repository
	loans *loans.Repository
}

// NewReportsController creates a new ReportsController.
func NewReportsController(statsRepo *stats.Repository, loansRepo *loans.Repository) *ReportsController {
	return &ReportsController{stats: statsRepo, loans: loansRepo}
}

// UserLoanHistory returns a user's loan history with per-loan book, writer
// and librarian details plus their loan counts.
func (rc *ReportsController) UserLoanHistory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, counts, err := rc.stats.UserStats(id)
	if err != nil {
		handleRepoError(c, err, "user")
		return
	}
	history, err := rc.loans.ListForUser(id)
	if err != nil {
		respondInternalError(c, err, "loan history")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":        user.ID,
			"username":  user.Username,
			"email":     user.Email,
			"full_name": user.FullName,
		},
		"statistics":   counts,
		"loan_history": buildLoanResponses(history),
	})
}

// BookLoanStatistics returns a book's loan counts, distinct borrower count
// and per-loan borrower list.
func (rc *ReportsController) BookLoanStatistics(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	book, counts, uniqueUsers, err := rc.stats.BookStats(id)
	if err != nil {
		handleRepoError(c, err, "book")
		return
	}
	history, err := rc.loans.ListForBook(id)
	if err != nil {
		respondInternalError(c, err, "loan history")
		return
	}

	borrowers := make([]gin.H, 0, len(history))
	for i := range history {
		loan := history[i]
		entry := gin.H{
			"loan_id": loan.ID,
			"user": gin.H{
				"id":       loan.User.ID,
				"username": loan.User.Username,
				"email":    loan.User.Email,
			},
			"loan_date":   loan.LoanDate,
			"return_date": loan.ReturnDate,
			"is_active":   loan.IsActive,
		}
		if loan.Librarian != nil {
			entry["librarian"] = loan.Librarian.Username
		} else {
			entry["librarian"] = nil
		}
		borrowers = append(borrowers, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"book": gin.H{
			"id":    book.ID,
			"title": book.Title,
			"writer": gin.H{
				"id":   book.Writer.ID,
				"name": book.Writer.Name,
			},
		},
		"statistics": gin.H{
			"total_loans":     counts.TotalLoans,
			"active_loans":    counts.ActiveLoans,
			"completed_loans": counts.CompletedLoans,
			"unique_users":    uniqueUsers,
		},
		"loan_history": borrowers,
	})
}

// LibraryStatistics returns the global report.
func (rc *ReportsController) LibraryStatistics(c *gin.Context) {
	report, err := rc.stats.LibraryStats()
	if err != nil {
		respondInternalError(c, err, "library statistics")
		return
	}
	c.JSON(http.StatusOK, report)
}
