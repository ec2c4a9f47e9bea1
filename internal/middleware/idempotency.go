package middleware

import (
	"bytes"
	"net/http"

	"compliance-hub/internal/database"
	"compliance-hub/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency: мутирующий запрос с заголовком Idempotency-Key исполняется
// один раз; повтор с тем же ключом получает сохранённый ответ. Ключ — UUID,
// генерируется клиентом. Запросы без ключа полагаются на естественную
// идемпотентность самих операций.
func Idempotency() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("Idempotency-Key")
		if key == "" || c.Request.Method == http.MethodGet {
			c.Next()
			return
		}

		if _, err := uuid.Parse(key); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid Idempotency-Key, expected UUID"})
			return
		}

		var rec models.IdempotencyKey
		err := database.DB.Where("key = ?", key).First(&rec).Error
		switch {
		case err == nil:
			c.Header("Idempotency-Replayed", "true")
			c.Data(rec.StatusCode, "application/json; charset=utf-8", []byte(rec.ResponseBody))
			c.Abort()
			return
		case err != gorm.ErrRecordNotFound:
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "idempotency store unavailable"})
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder

		c.Next()

		// сохраняем только успешные ответы: неуспех можно повторять
		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			_ = database.DB.Create(&models.IdempotencyKey{
				Key:          key,
				Method:       c.Request.Method,
				Path:         c.Request.URL.Path,
				StatusCode:   status,
				ResponseBody: recorder.body.String(),
			}).Error
		}
	}
}
