package internal

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthMiddleware valida o Bearer token e confere se o usuário segue ativo.
// Deixa user_id, username e role no contexto.
func AuthMiddleware(auth *Auth, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			RespondError(c, http.StatusUnauthorized, "token não informado")
			return
		}
		claims, err := auth.ValidarToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			RespondError(c, http.StatusUnauthorized, "token inválido ou expirado")
			return
		}

		var user Usuario
		if err := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				RespondError(c, http.StatusUnauthorized, "usuário não encontrado")
				return
			}
			respondErr(c, err)
			return
		}
		if !user.Ativo {
			RespondError(c, http.StatusForbidden, "usuário inativo")
			return
		}

		c.Set("user_id", user.ID)
		c.Set("username", user.Username)
		c.Set("role", user.Role)
		c.Next()
	}
}

// AdminOnly exige role admin; usar depois de AuthMiddleware
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != RoleAdmin {
			RespondError(c, http.StatusForbidden, "acesso restrito a administradores")
			return
		}
		c.Next()
	}
}
