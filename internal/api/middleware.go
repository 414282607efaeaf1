package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/annel0/interactions/internal/auth"
)

const claimsKey = "claims"

// jwtMiddleware проверяет JWT токен в заголовке Authorization
func (rs *RestServer) jwtMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "Отсутствует токен авторизации")
			return
		}

		// Формат "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abort(c, http.StatusUnauthorized, "Неверный формат токена")
			return
		}

		claims, err := rs.issuer.Validate(parts[1])
		if err != nil {
			abort(c, http.StatusUnauthorized, "Недействительный токен")
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// adminMiddleware пропускает только администраторов
func (rs *RestServer) adminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := operator(c)
		if !ok {
			abort(c, http.StatusInternalServerError, "Отсутствует информация об операторе")
			return
		}
		if !claims.IsAdmin {
			abort(c, http.StatusForbidden, "Недостаточно прав доступа")
			return
		}
		c.Next()
	}
}

// operator достаёт claims, сохранённые jwtMiddleware
func operator(c *gin.Context) (*auth.Claims, bool) {
	v, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, GenericResponse{Success: false, Message: message})
}
