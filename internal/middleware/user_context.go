package middleware

import (
	"strconv"

	"compliance-hub/internal/database"
	"compliance-hub/internal/models"

	"github.com/gin-gonic/gin"
)

// InjectUser кладёт текущего пользователя в контекст запроса.
// Аутентификация — вне движка: доверяем заголовку X-User-Id,
// дальше id передаётся в операции явно, без глобального состояния.
func InjectUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader("X-User-Id"); raw != "" {
			if uid, err := strconv.ParseUint(raw, 10, 32); err == nil && uid > 0 {
				var user models.User
				if err := database.DB.First(&user, uint(uid)).Error; err == nil {
					c.Set("CurrentUser", user)
					c.Set("CurrentUserID", user.ID)
				}
			}
		}

		c.Next()
	}
}

// CurrentUserID достаёт id пользователя, положенный InjectUser; 0 если нет.
func CurrentUserID(c *gin.Context) uint {
	if v, ok := c.Get("CurrentUserID"); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}
