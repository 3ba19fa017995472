package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-library-management/internal/application"
	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/pkg/helpers"
	"github.com/oksasatya/go-library-management/pkg/response"
)

const (
	CtxUserID   = "userID"
	CtxUserRole = "userRole"
)

// Auth validates the access token cookie and, when rdb is set, requires the
// redis session it was issued for to still exist. The role is taken from the
// session so role changes apply without a new login.
// It sets userID (int64) and userRole in the Gin context on success.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(helpers.AccessCookie)
		if err != nil || token == "" {
			response.Error[any](c, http.StatusUnauthorized, "missing access token", response.ErrorBody{Code: "unauthorized"})
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Error[any](c, http.StatusUnauthorized, "invalid access token", response.ErrorBody{Code: "unauthorized"})
			return
		}

		role := claims.Role
		if rdb != nil {
			data, err := rdb.HGetAll(c.Request.Context(), helpers.SessionKey(claims.UserID)).Result()
			if err != nil || len(data) == 0 || data["sid"] != claims.SessionID {
				response.Error[any](c, http.StatusUnauthorized, "session not found", response.ErrorBody{Code: "unauthorized"})
				return
			}
			if r := data["role"]; r != "" {
				role = r
			}
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUserRole, role)
		c.Next()
	}
}

// RequireLibrarian rejects callers without librarian rights. It must run
// after Auth.
func RequireLibrarian() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentPrincipal(c).Role.IsLibrarian() {
			response.Error[any](c, http.StatusForbidden, "librarian role required", response.ErrorBody{Code: "forbidden"})
			return
		}
		c.Next()
	}
}

// CurrentPrincipal returns the caller stored by Auth. Unauthenticated
// requests get the zero Principal.
func CurrentPrincipal(c *gin.Context) application.Principal {
	role, _ := entity.ParseRole(c.GetString(CtxUserRole))
	return application.Principal{UserID: c.GetInt64(CtxUserID), Role: role}
}
