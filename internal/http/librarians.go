package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrvaldes/biblioteca/internal/auth"
	"github.com/mrvaldes/biblioteca/internal/database/librarians"
	"github.com/mrvaldes/biblioteca/internal/database/loans"
	"github.com/mrvaldes/biblioteca/internal/database/stats"
	"github.com/mrvaldes/biblioteca/internal/entities"
)

// LibrarianRequest is the write payload for librarians.
type LibrarianRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// LibrarianResponse mirrors the original librarian representation.
type LibrarianResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

func buildLibrarianResponse(librarian *entities.Librarian) LibrarianResponse {
	return LibrarianResponse{
		ID:       librarian.ID,
		Username: librarian.Username,
		Email:    librarian.Email,
		FullName: librarian.FullName,
	}
}

// LibrariansController handles CRUD and per-librarian loan views. Every route
// it serves sits behind the privileged-only rule.
type LibrariansController struct {
	repo        *librarians.Repository
	loans       *loans.Repository
	stats       *stats.Repository
	authService *auth.Service
}

// NewLibrariansController creates a new LibrariansController.
func NewLibrariansController(repo *librarians.Repository, loansRepo *loans.Repository, statsRepo *stats.Repository, authService *auth.Service) *LibrariansController {
	return &LibrariansController{repo: repo, loans: loansRepo, stats: statsRepo, authService: authService}
}

// List returns all librarians.
func (lc *LibrariansController) List(c *gin.Context) {
	all, err := lc.repo.List()
	if err != nil {
		respondInternalError(c, err, "list librarians")
		return
	}
	out := make([]LibrarianResponse, 0, len(all))
	for i := range all {
		out = append(out, buildLibrarianResponse(&all[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Get returns a single librarian.
func (lc *LibrariansController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	librarian, err := lc.repo.GetByID(id)
	if err != nil {
		handleRepoError(c, err, "librarian")
		return
	}
	c.JSON(http.StatusOK, buildLibrarianResponse(librarian))
}

// Create provisions a new librarian.
func (lc *LibrariansController) Create(c *gin.Context) {
	var req LibrarianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if !validEmail(req.Email) {
		respondBadRequest(c, "email must contain '@' symbol")
		return
	}

	librarian := &entities.Librarian{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
	}
	if err := lc.repo.Create(librarian); err != nil {
		handleRepoError(c, err, "librarian")
		return
	}

	if req.Password != "" && lc.authService != nil {
		if err := lc.authService.Provision(librarian.Email, req.Password); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
	}

	respondCreated(c, buildLibrarianResponse(librarian))
}

// Update modifies a librarian.
func (lc *LibrariansController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	librarian, err := lc.repo.GetByID(id)
	if err != nil {
		handleRepoError(c, err, "librarian")
		return
	}

	var req LibrarianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if !validEmail(req.Email) {
		respondBadRequest(c, "email must contain '@' symbol")
		return
	}

	librarian.Username = req.Username
	librarian.Email = req.Email
	librarian.FullName = req.FullName
	if err := lc.repo.Update(librarian); err != nil {
		handleRepoError(c, err, "librarian")
		return
	}
	c.JSON(http.StatusOK, buildLibrarianResponse(librarian))
}

// Delete removes a librarian and their login credential. Loans they processed
// survive with the reference cleared.
func (lc *LibrariansController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	librarian, err := lc.repo.GetByID(id)
	if err != nil {
		handleRepoError(c, err, "librarian")
		return
	}
	if err := lc.repo.Delete(id); err != nil {
		handleRepoError(c, err, "librarian")
		return
	}
	if lc.authService != nil {
		if err := lc.authService.DeleteCredential(librarian.Email); err != nil {
			respondInternalError(c, err, "delete credential")
			return
		}
	}
	c.Status(http.StatusNoContent)
}

// ManagedLoans lists every loan the librarian processed.
func (lc *LibrariansController) ManagedLoans(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := lc.repo.GetByID(id); err != nil {
		handleRepoError(c, err, "librarian")
		return
	}
	managed, err := lc.loans.ListForLibrarian(id)
	if err != nil {
		respondInternalError(c, err, "managed loans")
		return
	}
	c.JSON(http.StatusOK, buildLoanResponses(managed))
}

// ActiveLoans lists the librarian's active loans.
func (lc *LibrariansController) ActiveLoans(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := lc.repo.GetByID(id); err != nil {
		handleRepoError(c, err, "librarian")
		return
	}
	active, err := lc.loans.ListActiveForLibrarian(id)
	if err != nil {
		respondInternalError(c, err, "active loans")
		return
	}
	c.JSON(http.StatusOK, buildLoanResponses(active))
}

// Statistics returns the librarian's loan counts.
func (lc *LibrariansController) Statistics(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	librarian, counts, err := lc.stats.LibrarianStats(id)
	if err != nil {
		handleRepoError(c, err, "librarian")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"librarian":  librarian.Username,
		"statistics": counts,
	})
}
