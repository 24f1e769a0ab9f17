package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jamboshop/jamboshop/internal/handlers"
	"github.com/jamboshop/jamboshop/internal/middleware"
	"github.com/jamboshop/jamboshop/internal/models"
)

func registerStoreRoutes(r *gin.Engine, deps Deps, requireAuth gin.HandlerFunc) {
	storeHandler := handlers.NewStoreHandler(deps.Stores)

	stores := r.Group("/api/stores", requireAuth)
	{
		stores.GET("", storeHandler.List)
		stores.GET("/near", storeHandler.Near)
		stores.POST("", middleware.RequireRole(models.UserTypeShoper), storeHandler.Create)
	}
}
