package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/services"
)

type ProjectsHandler struct {
	portfolio *services.PortfolioService
	scanner   *services.Scanner
	maxSize   int64
}

func NewProjectsHandler(portfolio *services.PortfolioService, scanner *services.Scanner, maxSize int64) *ProjectsHandler {
	return &ProjectsHandler{
		portfolio: portfolio,
		scanner:   scanner,
		maxSize:   maxSize,
	}
}

// ListProjects godoc
// @Summary     List projects
// @Description Returns every project with its images and main image resolved
// @Tags        projects
// @Produce     json
// @Success     200 {object} models.ProjectListResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /projects [get]
func (h *ProjectsHandler) ListProjects(c *gin.Context) {
	projects, err := h.portfolio.ListProjects(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to read projects")
		return
	}
	c.JSON(http.StatusOK, models.ProjectListResponse{Projects: projects})
}

// CreateProject godoc
// @Summary     Create project
// @Description Creates a project from form fields and at least one image. The first image becomes the main image.
// @Tags        projects
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       projectName formData string true "Project name"
// @Param       projectCategory formData string true "first (complete) or second (running)"
// @Param       projectFolder formData string true "Image folder, unique per project"
// @Param       projectImages formData file true "Project images (up to 10)"
// @Success     200 {object} models.ProjectResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /projects [post]
func (h *ProjectsHandler) CreateProject(c *gin.Context) {
	limitBody(c, services.MaxCreateFiles, h.maxSize)

	uploads, err := readUploads(c, "projectImages")
	if err != nil {
		respondError(c, err, "Failed to add project")
		return
	}

	fields := models.ProjectFields{
		Name:        c.PostForm("projectName"),
		Description: c.PostForm("projectDescription"),
		Category:    c.PostForm("projectCategory"),
		Folder:      c.PostForm("projectFolder"),
		Location:    c.PostForm("projectLocation"),
		Status:      c.PostForm("projectStatus"),
		Client:      c.PostForm("projectClient"),
		Duration:    c.PostForm("projectDuration"),
		Area:        c.PostForm("projectArea"),
		Type:        c.PostForm("projectType"),
	}

	project, err := h.portfolio.CreateProject(c.Request.Context(), fields, uploads)
	if err != nil {
		respondError(c, err, "Failed to add project")
		return
	}

	c.JSON(http.StatusOK, models.ProjectResponse{
		Success: true,
		Message: "Project added successfully",
		Project: project,
	})
}

// UpdateProject godoc
// @Summary     Update project
// @Description Updates the text fields of a project. Images and folder are not changed.
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       project path string true "Project ID"
// @Param       request body models.ProjectUpdate true "Fields to update"
// @Success     200 {object} models.ProjectResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /projects/{project} [put]
func (h *ProjectsHandler) UpdateProject(c *gin.Context) {
	var upd models.ProjectUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	project, err := h.portfolio.UpdateProject(c.Request.Context(), c.Param("project"), upd)
	if err != nil {
		respondError(c, err, "Failed to update project")
		return
	}

	c.JSON(http.StatusOK, models.ProjectResponse{
		Success: true,
		Message: "Project updated successfully",
		Project: project,
	})
}

// DeleteProject godoc
// @Summary     Delete project
// @Description Deletes a project together with its images
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Param       project path string true "Project ID"
// @Success     200 {object} models.SuccessResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /projects/{project} [delete]
func (h *ProjectsHandler) DeleteProject(c *gin.Context) {
	if err := h.portfolio.DeleteProject(c.Request.Context(), c.Param("project")); err != nil {
		respondError(c, err, "Failed to delete project")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "Project deleted successfully",
	})
}

// DeleteProjectByFolder godoc
// @Summary     Delete project by folder
// @Description Deletes every project using the folder and the folder's images. Unknown folders succeed.
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Param       folderName path string true "Project folder"
// @Success     200 {object} models.SuccessResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /projects/folder/{folderName} [delete]
func (h *ProjectsHandler) DeleteProjectByFolder(c *gin.Context) {
	folder := c.Param("folderName")
	n, err := h.portfolio.DeleteProjectByFolder(c.Request.Context(), folder)
	if err != nil {
		respondError(c, err, "Failed to delete project")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: fmt.Sprintf("Deleted %d project(s) using folder %s", n, folder),
	})
}

// ScanFolders godoc
// @Summary     Scan image folders
// @Description Registers a project for every image folder that has none
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.ScanResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /projects/scan [post]
func (h *ProjectsHandler) ScanFolders(c *gin.Context) {
	added, err := h.scanner.Scan(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to scan folders")
		return
	}
	c.JSON(http.StatusOK, models.ScanResponse{
		Success: true,
		Message: fmt.Sprintf("Scanned and added %d folder(s)", len(added)),
		Added:   added,
	})
}
