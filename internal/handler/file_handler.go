package handler

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bartek717/passionproject/internal/filestore"
	"github.com/bartek717/passionproject/internal/pkg/response"
)

type FileHandler struct {
	store filestore.Store
}

func NewFileHandler(store filestore.Store) *FileHandler {
	return &FileHandler{store: store}
}

// Download handles GET /files/*key and streams the stored blob back.
func (h *FileHandler) Download(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" || strings.Contains(key, "..") {
		response.Error(c, http.StatusBadRequest, "invalid file key")
		return
	}
	rc, err := h.store.Open(c.Request.Context(), key)
	if err != nil {
		response.Error(c, http.StatusNotFound, "not found")
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", `attachment; filename="`+filepath.Base(key)+`"`)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}
