package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jamboshop/jamboshop/internal/services"
	appErrors "github.com/jamboshop/jamboshop/pkg/errors"
	"github.com/jamboshop/jamboshop/pkg/response"
)

// StoreHandler exposes the shop catalogue.
type StoreHandler struct {
	stores *services.StoreService
}

// NewStoreHandler constructs a StoreHandler.
func NewStoreHandler(stores *services.StoreService) *StoreHandler {
	return &StoreHandler{stores: stores}
}

// List returns stores visible to the caller.
func (h *StoreHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	stores, err := h.stores.List(requestContext(c), user)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"stores": stores})
}

// Near returns open stores around a point, closest first.
func (h *StoreHandler) Near(c *gin.Context) {
	lat, latErr := parseFloatQuery(c, "lat")
	lng, lngErr := parseFloatQuery(c, "lng")
	if latErr != nil || lngErr != nil {
		response.Error(c, appErrors.NewBadRequest("lat and lng query parameters are required"))
		return
	}

	nearby, err := h.stores.Near(requestContext(c), lat, lng)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"stores": nearby})
}

type createStoreRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=128"`
	VillageID   *string `json:"village_id" validate:"omitempty,uuid4"`
	Lat         float64 `json:"lat" validate:"min=-90,max=90"`
	Lng         float64 `json:"lng" validate:"min=-180,max=180"`
	PhoneNumber string  `json:"phone_number" validate:"required,min=10,max=13"`
	Size        string  `json:"size" validate:"omitempty,oneof=SMALL MEDIUM LARGE"`
}

// Create registers a store owned by the caller.
func (h *StoreHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req createStoreRequest
	if !bindAndValidate(c, &req) {
		return
	}

	store, err := h.stores.Create(requestContext(c), user, services.StoreInput{
		Name:        req.Name,
		VillageID:   req.VillageID,
		Latitude:    req.Lat,
		Longitude:   req.Lng,
		PhoneNumber: req.PhoneNumber,
		Size:        req.Size,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"store": store})
}

func parseFloatQuery(c *gin.Context, key string) (float64, error) {
	value := strings.TrimSpace(c.Query(key))
	return strconv.ParseFloat(value, 64)
}
