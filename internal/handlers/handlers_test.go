package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"portfolio-backend/internal/config"
	"portfolio-backend/internal/database"
	"portfolio-backend/internal/handlers"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/services"
	"portfolio-backend/internal/store"
	"portfolio-backend/internal/store/filestore"
	"portfolio-backend/internal/store/storetest"
)

type server struct {
	cfg    *config.Config
	router *gin.Engine
}

func newServer(t *testing.T, databaseURL string, tweak ...func(*config.Config)) *server {
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	cfg := &config.Config{
		DatabaseURL:  databaseURL,
		ProjectsFile: filepath.Join(dir, "projects.json"),
		ImagesDir:    filepath.Join(dir, "img"),
		ImageStorage: config.ImageStorageDatabase,
		MaxUploadMB:  1,
	}
	for _, fn := range tweak {
		fn(cfg)
	}

	backend, err := database.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	disk, err := filestore.NewImages(cfg.ImagesDir)
	require.NoError(t, err)

	portfolio := services.NewPortfolioService(backend, store.UploadPolicy{MaxSize: cfg.MaxUploadBytes()})
	scanner := services.NewScanner(backend, disk, services.DefaultScanExclude)
	return &server{cfg: cfg, router: handlers.NewRouter(cfg, portfolio, scanner)}
}

func (s *server) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type file struct {
	name string
	data []byte
}

func multipartRequest(t *testing.T, method, url string, fields map[string]string, field string, files ...file) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(field, f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func createRiverside(t *testing.T, s *server) models.ProjectResponse {
	t.Helper()
	req := multipartRequest(t, http.MethodPost, "/api/projects", map[string]string{
		"projectName":     "Riverside Villa",
		"projectCategory": "first",
		"projectFolder":   "riverside-villa",
		"projectLocation": "Hyderabad",
	}, "projectImages", file{"front.png", storetest.PNG(1)}, file{"back.png", storetest.PNG(2)})

	w := s.do(t, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.ProjectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func listProjects(t *testing.T, s *server) []models.Project {
	t.Helper()
	w := s.do(t, httptest.NewRequest(http.MethodGet, "/api/projects", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ProjectListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Projects
}

func listImages(t *testing.T, s *server, folder string) []models.ImageResponse {
	t.Helper()
	w := s.do(t, httptest.NewRequest(http.MethodGet, "/api/projects/"+folder+"/images", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ImagesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Images
}

func TestCreateProject(t *testing.T) {
	for name, url := range map[string]string{"file": "", "sqlite": "sqlite"} {
		t.Run(name, func(t *testing.T) {
			if url != "" {
				url = "sqlite://" + filepath.Join(t.TempDir(), "portfolio.db")
			}
			s := newServer(t, url)

			resp := createRiverside(t, s)
			assert.True(t, resp.Success)
			require.NotNil(t, resp.Project)

			projects := listProjects(t, s)
			require.Len(t, projects, 1)
			assert.Equal(t, "riverside-villa", projects[0].Folder)
			assert.Len(t, projects[0].Images, 2)

			images := listImages(t, s, "riverside-villa")
			require.Len(t, images, 2)
			assert.True(t, images[0].IsMain)
			assert.Equal(t, "front.png", images[0].Filename)
			assert.Equal(t, images[0].Path, projects[0].MainImage)
		})
	}
}

func TestCreateProject_Rejected(t *testing.T) {
	s := newServer(t, "")
	createRiverside(t, s)

	tests := []struct {
		name   string
		fields map[string]string
		files  []file
	}{
		{"duplicate folder", map[string]string{"projectName": "Again", "projectCategory": "first", "projectFolder": "riverside-villa"}, []file{{"a.png", storetest.PNG(0)}}},
		{"missing name", map[string]string{"projectCategory": "first", "projectFolder": "other"}, []file{{"a.png", storetest.PNG(0)}}},
		{"no images", map[string]string{"projectName": "Other", "projectCategory": "first", "projectFolder": "other"}, nil},
		{"not an image", map[string]string{"projectName": "Other", "projectCategory": "first", "projectFolder": "other"}, []file{{"a.txt", []byte("hello")}}},
		{"too large", map[string]string{"projectName": "Other", "projectCategory": "first", "projectFolder": "other"}, []file{{"a.png", append(storetest.PNG(0), make([]byte, 2<<20)...)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, multipartRequest(t, http.MethodPost, "/api/projects", tt.fields, "projectImages", tt.files...))
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}

	assert.Len(t, listProjects(t, s), 1)
}

func TestUpdateProject(t *testing.T) {
	s := newServer(t, "")
	created := createRiverside(t, s)

	req := httptest.NewRequest(http.MethodPut, "/api/projects/"+created.Project.ID,
		strings.NewReader(`{"name":"","status":"Completed","location":""}`))
	req.Header.Set("Content-Type", "application/json")
	w := s.do(t, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.ProjectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Riverside Villa", resp.Project.Name)
	assert.Equal(t, "Completed", resp.Project.Status)
	assert.Equal(t, "", resp.Project.Location)
	assert.Len(t, resp.Project.Images, 2)

	req = httptest.NewRequest(http.MethodPut, "/api/projects/missing", strings.NewReader(`{"status":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusNotFound, s.do(t, req).Code)

	req = httptest.NewRequest(http.MethodPut, "/api/projects/"+created.Project.ID, strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, s.do(t, req).Code)
}

func TestDeleteProject(t *testing.T) {
	s := newServer(t, "")
	created := createRiverside(t, s)

	w := s.do(t, httptest.NewRequest(http.MethodDelete, "/api/projects/"+created.Project.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, listProjects(t, s))
	assert.Empty(t, listImages(t, s, "riverside-villa"))
	assert.NoDirExists(t, filepath.Join(s.cfg.ImagesDir, "riverside-villa"))

	w = s.do(t, httptest.NewRequest(http.MethodDelete, "/api/projects/"+created.Project.ID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteProjectByFolder(t *testing.T) {
	s := newServer(t, "")
	createRiverside(t, s)

	w := s.do(t, httptest.NewRequest(http.MethodDelete, "/api/projects/folder/riverside-villa", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, listProjects(t, s))

	w = s.do(t, httptest.NewRequest(http.MethodDelete, "/api/projects/folder/riverside-villa", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteThenScan(t *testing.T) {
	s := newServer(t, "")
	created := createRiverside(t, s)

	// Remove only the record, leaving the folder on disk.
	projects, err := filestore.NewProjects(s.cfg.ProjectsFile)
	require.NoError(t, err)
	require.NoError(t, projects.Delete(context.Background(), created.Project.ID))

	w := s.do(t, httptest.NewRequest(http.MethodPost, "/api/projects/scan", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ScanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"riverside-villa"}, resp.Added)

	list := listProjects(t, s)
	require.Len(t, list, 1)
	assert.Equal(t, "Riverside Villa", list[0].Name)
	assert.Len(t, list[0].Images, 2)
}

func TestImageRoutes(t *testing.T) {
	s := newServer(t, "")
	createRiverside(t, s)

	w := s.do(t, multipartRequest(t, http.MethodPost, "/api/projects/riverside-villa/images", nil, "images",
		file{"side.png", storetest.PNG(3)}, file{"pool.png", storetest.PNG(4)}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var uploaded models.UploadImagesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &uploaded))
	require.Len(t, uploaded.Images, 2)
	assert.False(t, uploaded.Images[0].IsMain)

	w = s.do(t, httptest.NewRequest(http.MethodPut, "/api/projects/riverside-villa/images/pool.png/set-main", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var setMain models.SetMainResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &setMain))
	assert.Equal(t, "img/riverside-villa/main.pool.png", setMain.MainImage)

	w = s.do(t, httptest.NewRequest(http.MethodDelete, "/api/projects/riverside-villa/images/front.png", nil))
	require.Equal(t, http.StatusOK, w.Code)

	images := listImages(t, s, "riverside-villa")
	require.Len(t, images, 3)
	assert.Equal(t, "pool.png", images[0].Filename)
	assert.True(t, images[0].IsMain)

	w = s.do(t, httptest.NewRequest(http.MethodDelete, "/api/projects/riverside-villa/images/front.png", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, httptest.NewRequest(http.MethodPut, "/api/projects/riverside-villa/images/front.png/set-main", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, httptest.NewRequest(http.MethodGet, "/img/riverside-villa/main.pool.png", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, storetest.PNG(4), w.Body.Bytes())

	assert.Empty(t, listImages(t, s, "unknown-folder"))
}

func TestUploadImages_UnknownProjectInDatabaseMode(t *testing.T) {
	s := newServer(t, "sqlite://"+filepath.Join(t.TempDir(), "portfolio.db"))

	w := s.do(t, multipartRequest(t, http.MethodPost, "/api/projects/nobody/images", nil, "images", file{"a.png", storetest.PNG(0)}))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadImages_MalformedMultipart(t *testing.T) {
	s := newServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/projects/riverside-villa/images", strings.NewReader("this is not a multipart body"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	w := s.do(t, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid multipart form", resp.Error)
	assert.NotContains(t, w.Body.String(), "NextPart")
}

func TestGetImage(t *testing.T) {
	s := newServer(t, "sqlite://"+filepath.Join(t.TempDir(), "portfolio.db"))
	created := createRiverside(t, s)
	require.True(t, strings.HasPrefix(created.Project.MainImage, "/api/images/"))

	w := s.do(t, httptest.NewRequest(http.MethodGet, created.Project.MainImage, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=86400", w.Header().Get("Cache-Control"))
	assert.Equal(t, storetest.PNG(1), w.Body.Bytes())

	w = s.do(t, httptest.NewRequest(http.MethodGet, "/api/images/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	t.Run("file mode", func(t *testing.T) {
		s := newServer(t, "")
		w := s.do(t, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "not connected", resp.Database)
		assert.Nil(t, resp.ImageCount)
	})

	t.Run("database mode", func(t *testing.T) {
		s := newServer(t, "sqlite://"+filepath.Join(t.TempDir(), "portfolio.db"))
		createRiverside(t, s)

		w := s.do(t, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "connected", resp.Database)
		assert.Equal(t, "database", resp.ImageStorage)
		assert.Equal(t, "sqlite", resp.Driver)
		require.NotNil(t, resp.ImageCount)
		assert.Equal(t, 2, *resp.ImageCount)
	})
}

func TestStaticDir(t *testing.T) {
	static := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(static, "portfolio.html"), []byte("<h1>Portfolio</h1>"), 0644))
	s := newServer(t, "", func(cfg *config.Config) { cfg.StaticDir = static })

	w := s.do(t, httptest.NewRequest(http.MethodGet, "/portfolio.html", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Portfolio")

	w = s.do(t, httptest.NewRequest(http.MethodPost, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminGate(t *testing.T) {
	const secret = "test-secret-key-for-jwt-signing-must-be-long-enough"
	s := newServer(t, "", func(cfg *config.Config) { cfg.AdminJWTSecret = secret })

	assert.Equal(t, http.StatusOK, s.do(t, httptest.NewRequest(http.MethodGet, "/api/projects", nil)).Code)

	w := s.do(t, httptest.NewRequest(http.MethodPost, "/api/projects/scan", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "admin"}).SignedString([]byte(secret))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/projects/scan", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, s.do(t, req).Code)
}
