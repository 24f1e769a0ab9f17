package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jamboshop/jamboshop/internal/auth"
	"github.com/jamboshop/jamboshop/internal/models"
	"github.com/jamboshop/jamboshop/internal/services"
	appErrors "github.com/jamboshop/jamboshop/pkg/errors"
	"github.com/jamboshop/jamboshop/pkg/response"
)

// AccountHandler exposes registration and the verification-code flows.
type AccountHandler struct {
	accounts *services.AccountService
}

// NewAccountHandler constructs an AccountHandler.
func NewAccountHandler(accounts *services.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type registerRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=64"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
	FirstName   string `json:"first_name" validate:"max=64"`
	LastName    string `json:"last_name" validate:"max=64"`
	PhoneNumber string `json:"phone_number" validate:"required,min=10,max=13"`
	UserType    string `json:"user_type" validate:"omitempty,oneof=USER SHOPER"`
}

type registerResponse struct {
	User     *models.User `json:"user"`
	Notified bool         `json:"activation_email_sent"`
}

// Register creates an inactive account and sends the activation code.
func (h *AccountHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.accounts.Register(requestContext(c), services.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		UserType:    req.UserType,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, registerResponse{User: result.User, Notified: result.Notified})
}

type codeRequest struct {
	Code string `json:"code" validate:"required,min=4,max=16"`
}

type sessionResponse struct {
	User   *models.User    `json:"user"`
	Tokens *auth.TokenPair `json:"tokens"`
}

// Activate redeems a signup code and signs the user in.
func (h *AccountHandler) Activate(c *gin.Context) {
	var req codeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, pair, err := h.accounts.Activate(requestContext(c), req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, sessionResponse{User: user, Tokens: pair})
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResendActivation issues a fresh activation code. The response never
// discloses whether the email belongs to an account.
func (h *AccountHandler) ResendActivation(c *gin.Context) {
	var req emailRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.accounts.ResendActivation(requestContext(c), req.Email); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// RequestPasswordReset starts the reset flow. Same opaque contract as
// ResendActivation.
func (h *AccountHandler) RequestPasswordReset(c *gin.Context) {
	var req emailRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.accounts.RequestPasswordReset(requestContext(c), req.Email); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ValidateResetCode reports whether a reset code can still be redeemed.
func (h *AccountHandler) ValidateResetCode(c *gin.Context) {
	var req codeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.accounts.ValidateResetCode(requestContext(c), req.Code); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

type confirmResetRequest struct {
	Code        string `json:"code" validate:"required,min=4,max=16"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

// ConfirmPasswordReset redeems a reset code and sets the new password.
func (h *AccountHandler) ConfirmPasswordReset(c *gin.Context) {
	var req confirmResetRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.accounts.ConfirmPasswordReset(requestContext(c), req.Code, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// ChangePassword sets a new password for the authenticated account after
// checking the current one.
func (h *AccountHandler) ChangePassword(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req changePasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.accounts.ChangePassword(requestContext(c), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

type emailChangeRequest struct {
	NewEmail string `json:"new_email" validate:"required,email"`
}

// RequestEmailChange sends a confirmation code to the new address.
func (h *AccountHandler) RequestEmailChange(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req emailChangeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.accounts.RequestEmailChange(requestContext(c), user.ID, req.NewEmail); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ConfirmEmailChange redeems the code and swaps the account email.
func (h *AccountHandler) ConfirmEmailChange(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req codeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	updated, err := h.accounts.ConfirmEmailChange(requestContext(c), user.ID, req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": updated})
}
