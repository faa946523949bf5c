package handler

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bartek717/passionproject/internal/extract"
	appErr "github.com/bartek717/passionproject/internal/pkg/errors"
	"github.com/bartek717/passionproject/internal/pkg/response"
	"github.com/bartek717/passionproject/internal/service"
)

type ClassHandler struct {
	classes       *service.ClassService
	ingest        *service.IngestService
	maxUploadByte int64
}

func NewClassHandler(classes *service.ClassService, ingest *service.IngestService, maxUploadMB int64) *ClassHandler {
	return &ClassHandler{
		classes:       classes,
		ingest:        ingest,
		maxUploadByte: maxUploadMB * 1024 * 1024,
	}
}

// Create handles POST /classes: multipart form with a "name" field and
// zero or more "files" parts. The class row lands before ingestion, so
// a bad file still leaves the class behind with the documents that
// made it.
func (h *ClassHandler) Create(c *gin.Context) {
	userID := getUserID(c)
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid multipart form")
		return
	}
	name := formValue(form.Value, "name")
	description := formValue(form.Value, "description")
	files, err := h.readFiles(form.File["files"])
	if err != nil {
		handleError(c, err)
		return
	}
	classID, err := h.ingest.CreateClass(c.Request.Context(), name, description, userID, files)
	if err != nil {
		handleError(c, err)
		return
	}
	response.SuccessClassID(c, classID)
}

// List handles GET /classes: every class owned by the caller with its
// documents eagerly joined.
func (h *ClassHandler) List(c *gin.Context) {
	userID := getUserID(c)
	classes, err := h.classes.List(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, classes)
}

// AddDocuments handles POST /classes/:id/documents.
func (h *ClassHandler) AddDocuments(c *gin.Context) {
	userID := getUserID(c)
	classID := c.Param("id")
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid multipart form")
		return
	}
	files, err := h.readFiles(form.File["files"])
	if err != nil {
		handleError(c, err)
		return
	}
	if len(files) == 0 {
		response.Error(c, http.StatusBadRequest, "no files uploaded")
		return
	}
	if err := h.ingest.AddDocuments(c.Request.Context(), classID, userID, files); err != nil {
		handleError(c, err)
		return
	}
	response.OK(c)
}

// DeleteClass handles DELETE /classes/:id.
func (h *ClassHandler) DeleteClass(c *gin.Context) {
	userID := getUserID(c)
	if err := h.classes.DeleteClass(c.Request.Context(), userID, c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.OK(c)
}

// DeleteDocument handles DELETE /documents/:id.
func (h *ClassHandler) DeleteDocument(c *gin.Context) {
	userID := getUserID(c)
	if err := h.classes.DeleteDocument(c.Request.Context(), userID, c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.OK(c)
}

func formValue(values map[string][]string, key string) string {
	if vals := values[key]; len(vals) > 0 {
		return strings.TrimSpace(vals[0])
	}
	return ""
}

func (h *ClassHandler) readFiles(headers []*multipart.FileHeader) ([]service.UploadedFile, error) {
	files := make([]service.UploadedFile, 0, len(headers))
	for _, header := range headers {
		if h.maxUploadByte > 0 && header.Size > h.maxUploadByte {
			return nil, appErr.ErrInvalid
		}
		mediaType := mediaTypeOf(header)
		if !extract.Supported(mediaType) {
			return nil, appErr.ErrUnsupportedFormat
		}
		f, err := header.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		files = append(files, service.UploadedFile{
			Name:      filepath.Base(header.Filename),
			MediaType: mediaType,
			Data:      data,
		})
	}
	return files, nil
}

// mediaTypeOf trusts the part's Content-Type, falling back to the file
// extension when the client sent something generic.
func mediaTypeOf(header *multipart.FileHeader) string {
	ct := header.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(ct); err == nil && mt != "" && mt != "application/octet-stream" {
		return mt
	}
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".pdf":
		return extract.MimePDF
	case ".doc":
		return extract.MimeDoc
	case ".docx":
		return extract.MimeDocx
	case ".ppt":
		return extract.MimePpt
	case ".pptx":
		return extract.MimePptx
	}
	return ct
}
