package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jamboshop/jamboshop/internal/services"
	appErrors "github.com/jamboshop/jamboshop/pkg/errors"
	"github.com/jamboshop/jamboshop/pkg/response"
)

// AuthHandler exposes login, refresh and logout.
type AuthHandler struct {
	accounts *services.AccountService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(accounts *services.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates with username and password.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, pair, err := h.accounts.Login(requestContext(c), req.Username, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, sessionResponse{User: user, Tokens: pair})
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// Refresh trades a refresh token for a new pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return
	}

	pair, err := h.accounts.Refresh(requestContext(c), req.Refresh)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"tokens": pair})
}

// Logout blacklists the presented pair: the bearer access token plus the
// refresh token from the body.
func (h *AuthHandler) Logout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.accounts.Logout(requestContext(c), user.ID, rawToken(c), req.Refresh); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
