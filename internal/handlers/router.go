package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"portfolio-backend/internal/config"
	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/services"
)

// NewRouter wires every route. In file mode the images root is also served
// under /img, and STATIC_DIR answers any GET no API route matched.
func NewRouter(cfg *config.Config, portfolio *services.PortfolioService, scanner *services.Scanner) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	projectsHandler := NewProjectsHandler(portfolio, scanner, cfg.MaxUploadBytes())
	imagesHandler := NewImagesHandler(portfolio, cfg.MaxUploadBytes())
	healthHandler := NewHealthHandler(portfolio)

	api := router.Group("/api")
	admin := middleware.AdminMiddleware(cfg.AdminJWTSecret)

	api.GET("/health", healthHandler.Health)

	// Projects. ":project" is the project ID on the record routes and the
	// project folder on the image routes.
	api.GET("/projects", projectsHandler.ListProjects)
	api.POST("/projects", admin, projectsHandler.CreateProject)
	api.POST("/projects/scan", admin, projectsHandler.ScanFolders)
	api.PUT("/projects/:project", admin, projectsHandler.UpdateProject)
	api.DELETE("/projects/:project", admin, projectsHandler.DeleteProject)
	api.DELETE("/projects/folder/:folderName", admin, projectsHandler.DeleteProjectByFolder)

	// Images
	api.GET("/projects/:project/images", imagesHandler.ListImages)
	api.POST("/projects/:project/images", admin, imagesHandler.UploadImages)
	api.DELETE("/projects/:project/images/:image", admin, imagesHandler.DeleteImage)
	api.PUT("/projects/:project/images/:image/set-main", admin, imagesHandler.SetMainImage)
	api.GET("/images/:imageId", imagesHandler.GetImage)

	if !portfolio.Backend().Connected() {
		router.Static("/img", cfg.ImagesDir)
	}

	var static http.Handler
	if cfg.StaticDir != "" {
		static = http.FileServer(http.Dir(cfg.StaticDir))
	}
	router.NoRoute(func(c *gin.Context) {
		if static != nil && c.Request.Method == http.MethodGet {
			static.ServeHTTP(c.Writer, c.Request)
			return
		}
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found"})
	})

	return router
}
