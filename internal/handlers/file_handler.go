package handlers

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"eva_harper_backend/internal/logger"
	"eva_harper_backend/internal/storage"
	"eva_harper_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// FileHandler отдает сохраненные изображения. Нужен только для local
// хранилища: у S3/R2 свой публичный URL.
type FileHandler struct {
	*BaseHandler
	storage storage.Storage
}

func NewFileHandler(base *BaseHandler, storage storage.Storage) *FileHandler {
	return &FileHandler{
		BaseHandler: base,
		storage:     storage,
	}
}

// RegisterRoutes вешает раздачу на префикс base_url (например /files)
func (h *FileHandler) RegisterRoutes(r gin.IRoutes, prefix string) {
	prefix = "/" + strings.Trim(prefix, "/")
	r.GET(prefix+"/*key", h.ServeFile)
	r.HEAD(prefix+"/*key", h.CheckFileExists)
}

// ServeFile отдает файл по ключу хранилища
func (h *FileHandler) ServeFile(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	ctx := c.Request.Context()

	reader, err := h.storage.Get(ctx, key)
	if err != nil {
		apperrors.HandleError(c, apperrors.NewNotFoundError("file", "File not found"))
		return
	}
	defer reader.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=31536000")
	c.Header("ETag", fmt.Sprintf(`"%s"`, path.Base(key)))
	c.Header("Content-Disposition", "inline")
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, reader); err != nil {
		logger.CtxWithError(ctx, "Failed to stream file", err, "key", key)
	}
}

func (h *FileHandler) CheckFileExists(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	exists, err := h.storage.Exists(c.Request.Context(), key)
	if err != nil || !exists {
		c.Status(http.StatusNotFound)
		return
	}
	c.Status(http.StatusOK)
}
