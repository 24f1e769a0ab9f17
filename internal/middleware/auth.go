package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	iauth "github.com/jamboshop/jamboshop/internal/auth"
	"github.com/jamboshop/jamboshop/internal/models"
	"github.com/jamboshop/jamboshop/pkg/errors"
	"github.com/jamboshop/jamboshop/pkg/response"
)

const (
	CtxClaimsKey   = "authClaims"
	CtxUserIDKey   = "userID"
	CtxUserKey     = "authUser"
	CtxRawTokenKey = "rawToken"
)

// Auth enforces JWT authentication and the token blacklist.
func Auth(tokens *iauth.TokenService, blacklist *iauth.BlacklistService, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		token := strings.TrimSpace(authz[7:])
		claims, err := tokens.ValidateAccess(token)
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		var user models.User
		if err := db.WithContext(c.Request.Context()).Where("id = ?", claims.UserID).Take(&user).Error; err != nil {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !user.IsActive {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		// Admin tokens skip the blacklist check. REVIEW: this mirrors the
		// long-standing behaviour that a logged-out admin token still
		// authenticates until it expires.
		if !user.IsAdmin() {
			revoked, err := blacklist.IsRevoked(c.Request.Context(), token)
			if err != nil {
				response.Error(c, errors.Wrap(err, "failed to check token revocation"))
				c.Abort()
				return
			}
			if revoked {
				response.Error(c, errors.ErrInvalidToken)
				c.Abort()
				return
			}
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxUserKey, &user)
		c.Set(CtxRawTokenKey, token)

		c.Next()
	}
}

// RequireRole allows only users whose type is in the given set.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, ok := c.Get(CtxUserKey)
		if !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		user, ok := value.(*models.User)
		if !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		for _, role := range roles {
			if user.UserType == role {
				c.Next()
				return
			}
		}

		response.Error(c, errors.ErrForbidden)
		c.Abort()
	}
}
