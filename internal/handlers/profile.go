package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jamboshop/jamboshop/internal/services"
	appErrors "github.com/jamboshop/jamboshop/pkg/errors"
	"github.com/jamboshop/jamboshop/pkg/response"
)

// ProfileHandler exposes the authenticated user's own account.
type ProfileHandler struct {
	users *services.UserService
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(users *services.UserService) *ProfileHandler {
	return &ProfileHandler{users: users}
}

// Me returns the caller's profile with their address.
func (h *ProfileHandler) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	profile, err := h.users.GetProfile(requestContext(c), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": profile})
}

type updateProfileRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,max=64"`
	LastName    *string `json:"last_name" validate:"omitempty,max=64"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,min=10,max=13"`
}

// UpdateMe applies a partial profile update.
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req updateProfileRequest
	if !bindAndValidate(c, &req) {
		return
	}

	updated, err := h.users.UpdateProfile(requestContext(c), user.ID, services.ProfileUpdate{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": updated})
}

type addressRequest struct {
	VillageID *string `json:"village_id" validate:"omitempty,uuid4"`
	Lat       float64 `json:"lat" validate:"min=-90,max=90"`
	Lng       float64 `json:"lng" validate:"min=-180,max=180"`
}

// PutAddress creates or replaces the caller's address.
func (h *ProfileHandler) PutAddress(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req addressRequest
	if !bindAndValidate(c, &req) {
		return
	}

	address, err := h.users.UpsertAddress(requestContext(c), user.ID, services.AddressInput{
		VillageID: req.VillageID,
		Latitude:  req.Lat,
		Longitude: req.Lng,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"address": address})
}

// Deactivate turns the caller's account off.
func (h *ProfileHandler) Deactivate(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.users.Deactivate(requestContext(c), user.ID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
