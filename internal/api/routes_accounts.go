package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jamboshop/jamboshop/internal/handlers"
)

func registerAccountRoutes(r *gin.Engine, deps Deps, requireAuth gin.HandlerFunc) {
	accountHandler := handlers.NewAccountHandler(deps.Accounts)
	authHandler := handlers.NewAuthHandler(deps.Accounts)
	profileHandler := handlers.NewProfileHandler(deps.Users)

	// Public account routes
	accounts := r.Group("/api/accounts")
	{
		accounts.POST("/register", accountHandler.Register)
		accounts.POST("/activate", accountHandler.Activate)
		accounts.POST("/resend-activation", accountHandler.ResendActivation)
		accounts.POST("/reset-password", accountHandler.RequestPasswordReset)
		accounts.POST("/reset-password/validate", accountHandler.ValidateResetCode)
		accounts.POST("/reset-password/confirm", accountHandler.ConfirmPasswordReset)
	}

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	// Authenticated account routes
	me := r.Group("/api/accounts", requireAuth)
	{
		me.POST("/change-password", accountHandler.ChangePassword)
		me.POST("/email-change", accountHandler.RequestEmailChange)
		me.PATCH("/email-change/confirm", accountHandler.ConfirmEmailChange)
		me.GET("/me", profileHandler.Me)
		me.PATCH("/me", profileHandler.UpdateMe)
		me.PUT("/me/address", profileHandler.PutAddress)
		me.POST("/deactivate", profileHandler.Deactivate)
	}

	r.POST("/api/auth/logout", requireAuth, authHandler.Logout)
}
