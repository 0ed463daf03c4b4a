package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrvaldes/biblioteca/internal/auth"
	"github.com/mrvaldes/biblioteca/internal/database/loans"
	"github.com/mrvaldes/biblioteca/internal/entities"
	"github.com/mrvaldes/biblioteca/internal/permissions"
)

// LoanRequest is the write payload for loans.
type LoanRequest struct {
	BookID      uint  `json:"book_id" binding:"required"`
	UserID      uint  `json:"user_id" binding:"required"`
	LibrarianID *uint `json:"librarian_id"`
}

// LoanResponse mirrors the original loan representation: related names are
// embedded, the librarian is absent when none processed the loan.
type LoanResponse struct {
	ID                uint       `json:"id"`
	BookTitle         string     `json:"book_title"`
	UserUsername      string     `json:"user_username"`
	LibrarianUsername *string    `json:"librarian_username"`
	LoanDate          time.Time  `json:"loan_date"`
	ReturnDate        *time.Time `json:"return_date"`
	IsActive          bool       `json:"is_active"`
}

func buildLoanResponse(loan *entities.Loan) LoanResponse {
	resp := LoanResponse{
		ID:           loan.ID,
		BookTitle:    loan.Book.Title,
		UserUsername: loan.User.Username,
		LoanDate:     loan.LoanDate,
		ReturnDate:   loan.ReturnDate,
		IsActive:     loan.IsActive,
	}
	if loan.Librarian != nil {
		resp.LibrarianUsername = &loan.Librarian.Username
	}
	return resp
}

func buildLoanResponses(all []entities.Loan) []LoanResponse {
	out := make([]LoanResponse, 0, len(all))
	for i := range all {
		out = append(out, buildLoanResponse(&all[i]))
	}
	return out
}

// LoansController handles loan CRUD and the return transition.
type LoansController struct {
	repo      *loans.Repository
	evaluator *permissions.Evaluator
	overdueIn time.Duration
}

// NewLoansController creates a new LoansController. overdueIn is how long a
// loan may stay active before it counts as overdue.
func NewLoansController(repo *loans.Repository, evaluator *permissions.Evaluator, overdueIn time.Duration) *LoansController {
	return &LoansController{repo: repo, evaluator: evaluator, overdueIn: overdueIn}
}

// List returns all loans, most recent first.
func (lc *LoansController) List(c *gin.Context) {
	all, err := lc.repo.List()
	if err != nil {
		respondInternalError(c, err, "list loans")
		return
	}
	c.JSON(http.StatusOK, buildLoanResponses(all))
}

// Active returns loans that have not been returned.
func (lc *LoansController) Active(c *gin.Context) {
	active, err := lc.repo.ListActive()
	if err != nil {
		respondInternalError(c, err, "active loans")
		return
	}
	c.JSON(http.StatusOK, buildLoanResponses(active))
}

// Overdue returns active loans older than the configured loan period.
func (lc *LoansController) Overdue(c *gin.Context) {
	cutoff := time.Now().UTC().Add(-lc.overdueIn)
	overdue, err := lc.repo.ListOverdue(cutoff)
	if err != nil {
		respondInternalError(c, err, "overdue loans")
		return
	}
	c.JSON(http.StatusOK, buildLoanResponses(overdue))
}

// Get returns a single loan.
func (lc *LoansController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	loan, err := lc.repo.GetByID(id)
	if err != nil {
		handleRepoError(c, err, "loan")
		return
	}
	c.JSON(http.StatusOK, buildLoanResponse(loan))
}

// Create issues a new loan.
func (lc *LoansController) Create(c *gin.Context) {
	var req LoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	loan := &entities.Loan{
		BookID:      req.BookID,
		UserID:      req.UserID,
		LibrarianID: req.LibrarianID,
	}
	if err := lc.repo.Create(loan); err != nil {
		handleRepoError(c, err, "loan")
		return
	}
	respondCreated(c, buildLoanResponse(loan))
}

// Update changes a loan's references. Timestamps and the active flag are not
// writable here.
func (lc *LoansController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req LoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	loan := &entities.Loan{
		ID:          id,
		BookID:      req.BookID,
		UserID:      req.UserID,
		LibrarianID: req.LibrarianID,
	}
	if err := lc.repo.Update(loan); err != nil {
		handleRepoError(c, err, "loan")
		return
	}
	c.JSON(http.StatusOK, buildLoanResponse(loan))
}

// Delete removes a loan.
func (lc *LoansController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := lc.repo.Delete(id); err != nil {
		handleRepoError(c, err, "loan")
		return
	}
	c.Status(http.StatusNoContent)
}

// Return marks a loan as returned. Object-level rule: the borrower or any
// librarian. Returning an already-returned loan fails with an explicit error
// and no mutation.
func (lc *LoansController) Return(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	loan, err := lc.repo.GetByID(id)
	if err != nil {
		handleRepoError(c, err, "loan")
		return
	}

	allowed, err := lc.evaluator.OwnerOrPrivileged(c.Request.Method, auth.GetPrincipal(c), loan)
	if err != nil {
		respondInternalError(c, err, "permission check")
		return
	}
	if !allowed {
		respondForbidden(c)
		return
	}

	returned, err := lc.repo.Return(id, time.Now().UTC())
	if err == loans.ErrAlreadyReturned {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "loan already returned",
			Code:  "already_returned",
		})
		return
	}
	if err != nil {
		handleRepoError(c, err, "loan")
		return
	}
	c.JSON(http.StatusOK, buildLoanResponse(returned))
}
