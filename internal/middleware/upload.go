package middleware

import (
	"net/http"

	"eva_harper_backend/pkg/apperrors"
	"eva_harper_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
)

// MaxBodySize ограничивает тело запроса. Запрос с заявленным Content-Length
// больше лимита отклоняется сразу, остальные читаются через MaxBytesReader.
func MaxBodySize(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			c.Header("Connection", "close")
			apperrors.HandleError(c, apperrors.ErrFileTooLarge)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// multipartOverhead - запас на границы частей и текстовые поля формы
const multipartOverhead int64 = 64 << 10

// UploadLimit ограничивает каждый файл формы размером perFile. Тело
// запроса при этом ограничено files файлами плюс поля формы. Размер
// отдельного файла проверяет BaseHandler.FormFileBytes.
func UploadLimit(perFile int64, files int) gin.HandlerFunc {
	if perFile <= 0 {
		return MaxBodySize(0)
	}
	if files < 1 {
		files = 1
	}
	body := MaxBodySize(perFile*int64(files) + multipartOverhead)
	return func(c *gin.Context) {
		c.Set(string(contextkeys.FileSizeLimitKey), perFile)
		body(c)
	}
}

// FileSizeLimit возвращает лимит одного файла или 0, если он не задан
func FileSizeLimit(c *gin.Context) int64 {
	if v, ok := c.Get(string(contextkeys.FileSizeLimitKey)); ok {
		if limit, ok := v.(int64); ok {
			return limit
		}
	}
	return 0
}
