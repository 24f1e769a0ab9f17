package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	iauth "github.com/jamboshop/jamboshop/internal/auth"
	"github.com/jamboshop/jamboshop/internal/handlers"
	"github.com/jamboshop/jamboshop/internal/middleware"
	"github.com/jamboshop/jamboshop/internal/services"
)

// Deps bundles everything the router needs.
type Deps struct {
	DB        *gorm.DB
	Tokens    *iauth.TokenService
	Blacklist *iauth.BlacklistService
	Accounts  *services.AccountService
	Users     *services.UserService
	Stores    *services.StoreService
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if deps.Tokens == nil || deps.Blacklist == nil {
		return nil, fmt.Errorf("token and blacklist services must be provided")
	}
	if deps.Accounts == nil || deps.Users == nil || deps.Stores == nil {
		return nil, fmt.Errorf("account, user and store services must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	// Health endpoint (public)
	r.GET("/health", handlers.Health(deps.DB))

	requireAuth := middleware.Auth(deps.Tokens, deps.Blacklist, deps.DB)

	registerAccountRoutes(r, deps, requireAuth)
	registerStoreRoutes(r, deps, requireAuth)

	// Metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
