package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrvaldes/biblioteca/internal/auth"
	"github.com/mrvaldes/biblioteca/internal/database/users"
	"github.com/mrvaldes/biblioteca/internal/entities"
	"github.com/mrvaldes/biblioteca/internal/permissions"
)

// UserRequest is the write payload for users. The optional password
// provisions a login credential for the user's email.
type UserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// UserResponse mirrors the original user representation.
type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

func buildUserResponse(user *entities.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
	}
}

// UsersController handles CRUD for borrower identities.
type UsersController struct {
	repo        *users.Repository
	authService *auth.Service
	evaluator   *permissions.Evaluator
}

// NewUsersController creates a new UsersController.
func NewUsersController(repo *users.Repository, authService *auth.Service, evaluator *permissions.Evaluator) *UsersController {
	return &UsersController{repo: repo, authService: authService, evaluator: evaluator}
}

// List returns all users.
func (uc *UsersController) List(c *gin.Context) {
	all, err := uc.repo.List()
	if err != nil {
		respondInternalError(c, err, "list users")
		return
	}
	out := make([]UserResponse, 0, len(all))
	for i := range all {
		out = append(out, buildUserResponse(&all[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Get returns a single user.
func (uc *UsersController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := uc.repo.GetByID(id)
	if err != nil {
		handleRepoError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, buildUserResponse(user))
}

// Create registers a new user.
func (uc *UsersController) Create(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if !validEmail(req.Email) {
		respondBadRequest(c, "email must contain '@' symbol")
		return
	}

	user := &entities.User{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
	}
	if err := uc.repo.Create(user); err != nil {
		handleRepoError(c, err, "user")
		return
	}

	if req.Password != "" && uc.authService != nil {
		if err := uc.authService.Provision(user.Email, req.Password); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
	}

	respondCreated(c, buildUserResponse(user))
}

// Update modifies a user. Object-level rule: the user themselves or any
// librarian.
func (uc *UsersController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := uc.repo.GetByID(id)
	if err != nil {
		handleRepoError(c, err, "user")
		return
	}
	if !uc.allowObjectWrite(c, user) {
		return
	}

	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if !validEmail(req.Email) {
		respondBadRequest(c, "email must contain '@' symbol")
		return
	}

	user.Username = req.Username
	user.Email = req.Email
	user.FullName = req.FullName
	if err := uc.repo.Update(user); err != nil {
		handleRepoError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, buildUserResponse(user))
}

// Delete removes a user, their loans and their login credential.
func (uc *UsersController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := uc.repo.GetByID(id)
	if err != nil {
		handleRepoError(c, err, "user")
		return
	}
	if !uc.allowObjectWrite(c, user) {
		return
	}

	if err := uc.repo.Delete(id); err != nil {
		handleRepoError(c, err, "user")
		return
	}
	if uc.authService != nil {
		if err := uc.authService.DeleteCredential(user.Email); err != nil {
			respondInternalError(c, err, "delete credential")
			return
		}
	}
	c.Status(http.StatusNoContent)
}

// allowObjectWrite runs the owner-or-privileged check against the target
// user, responding on deny.
func (uc *UsersController) allowObjectWrite(c *gin.Context, user *entities.User) bool {
	allowed, err := uc.evaluator.OwnerOrPrivileged(c.Request.Method, auth.GetPrincipal(c), user)
	if err != nil {
		respondInternalError(c, err, "permission check")
		return false
	}
	if !allowed {
		respondForbidden(c)
		return false
	}
	return true
}
