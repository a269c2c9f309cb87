package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/services"
)

const imageCacheControl = "public, max-age=86400"

type ImagesHandler struct {
	portfolio *services.PortfolioService
	maxSize   int64
}

func NewImagesHandler(portfolio *services.PortfolioService, maxSize int64) *ImagesHandler {
	return &ImagesHandler{
		portfolio: portfolio,
		maxSize:   maxSize,
	}
}

// ListImages godoc
// @Summary     List project images
// @Description Returns the images of a project folder, main image first
// @Tags        images
// @Produce     json
// @Param       project path string true "Project folder"
// @Success     200 {object} models.ImagesResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /projects/{project}/images [get]
func (h *ImagesHandler) ListImages(c *gin.Context) {
	images, err := h.portfolio.ListImages(c.Request.Context(), c.Param("project"))
	if err != nil {
		respondError(c, err, "Failed to read images")
		return
	}
	c.JSON(http.StatusOK, models.ImagesResponse{Images: models.NewImageResponses(images)})
}

// UploadImages godoc
// @Summary     Upload project images
// @Description Adds images to a project folder. The main image is not changed.
// @Tags        images
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       project path string true "Project folder"
// @Param       images formData file true "Images (up to 20)"
// @Success     200 {object} models.UploadImagesResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /projects/{project}/images [post]
func (h *ImagesHandler) UploadImages(c *gin.Context) {
	limitBody(c, services.MaxUploadFiles, h.maxSize)

	uploads, err := readUploads(c, "images")
	if err != nil {
		respondError(c, err, "Failed to upload images")
		return
	}

	images, err := h.portfolio.UploadImages(c.Request.Context(), c.Param("project"), uploads)
	if err != nil {
		respondError(c, err, "Failed to upload images")
		return
	}
	c.JSON(http.StatusOK, models.UploadImagesResponse{
		Success: true,
		Images:  models.NewImageResponses(images),
	})
}

// DeleteImage godoc
// @Summary     Delete project image
// @Description Deletes one image, addressed by ID or filename. No other image is promoted.
// @Tags        images
// @Produce     json
// @Security    Bearer
// @Param       project path string true "Project folder"
// @Param       image path string true "Image ID or filename"
// @Success     200 {object} models.SuccessResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /projects/{project}/images/{image} [delete]
func (h *ImagesHandler) DeleteImage(c *gin.Context) {
	if err := h.portfolio.DeleteImage(c.Request.Context(), c.Param("project"), c.Param("image")); err != nil {
		respondError(c, err, "Failed to delete image")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "Image deleted successfully",
	})
}

// SetMainImage godoc
// @Summary     Set main image
// @Description Makes the addressed image the main image of its project
// @Tags        images
// @Produce     json
// @Security    Bearer
// @Param       project path string true "Project folder"
// @Param       image path string true "Image ID or filename"
// @Success     200 {object} models.SetMainResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /projects/{project}/images/{image}/set-main [put]
func (h *ImagesHandler) SetMainImage(c *gin.Context) {
	locator, err := h.portfolio.SetMainImage(c.Request.Context(), c.Param("project"), c.Param("image"))
	if err != nil {
		respondError(c, err, "Failed to set main image")
		return
	}
	c.JSON(http.StatusOK, models.SetMainResponse{
		Success:   true,
		Message:   "Main image updated successfully",
		MainImage: locator,
	})
}

// GetImage godoc
// @Summary     Get image
// @Description Returns the raw bytes of an image held by the database
// @Tags        images
// @Produce     image/jpeg,image/png,image/gif,image/webp
// @Param       imageId path string true "Image ID"
// @Success     200 {file} binary
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /images/{imageId} [get]
func (h *ImagesHandler) GetImage(c *gin.Context) {
	data, err := h.portfolio.ImageData(c.Request.Context(), c.Param("imageId"))
	if err != nil {
		respondError(c, err, "Failed to read image")
		return
	}
	c.Header("Cache-Control", imageCacheControl)
	c.Data(http.StatusOK, data.ContentType, data.Data)
}
