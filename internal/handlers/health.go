package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jamboshop/jamboshop/pkg/response"
)

// Health returns a status payload useful for readiness checks. When a
// database handle is supplied the connection is pinged as well.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ok"
		dbStatus := "ok"

		if db != nil {
			sqlDB, err := db.DB()
			if err != nil || sqlDB.PingContext(requestContext(c)) != nil {
				status = "degraded"
				dbStatus = "unreachable"
			}
		}

		code := http.StatusOK
		if status != "ok" {
			code = http.StatusServiceUnavailable
		}

		response.Success(c, code, gin.H{"status": status, "database": dbStatus})
	}
}
