package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/store"
)

// respondError maps a store error onto a status code. Failures other than
// validation and not found are logged and answered with fallback only.
func respondError(c *gin.Context, err error, fallback string) {
	var se *store.Error
	msg := err.Error()
	if errors.As(err, &se) && se.Msg != "" {
		msg = se.Msg
	}

	switch {
	case store.IsValidation(err):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msg})
	case store.IsNotFound(err):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: msg})
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fallback})
	}
}

// readUploads reads the files posted under field. Oversized bodies are
// rejected by the http.MaxBytesReader installed by the caller.
func readUploads(c *gin.Context, field string) ([]models.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, store.ValidationError("read upload", "upload exceeds %d bytes", tooLarge.Limit)
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, store.ValidationError("read upload", "request must be multipart/form-data")
		}
		log.Printf("%s %s: failed to parse multipart form: %v", c.Request.Method, c.Request.URL.Path, err)
		return nil, store.ValidationError("read upload", "invalid multipart form")
	}

	files := form.File[field]
	uploads := make([]models.Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}
		uploads = append(uploads, models.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return uploads, nil
}

// limitBody caps the request body at files uploads of maxSize bytes each,
// plus room for the text fields.
func limitBody(c *gin.Context, files int, maxSize int64) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(files)*maxSize+1<<20)
}
