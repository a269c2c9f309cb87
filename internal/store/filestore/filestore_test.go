package filestore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/store"
	"portfolio-backend/internal/store/filestore"
	"portfolio-backend/internal/store/storetest"
)

func newBackend(t *testing.T) *store.Backend {
	dir := t.TempDir()
	projects, err := filestore.NewProjects(filepath.Join(dir, "projects.json"))
	require.NoError(t, err)
	images, err := filestore.NewImages(filepath.Join(dir, "img"))
	require.NoError(t, err)
	return &store.Backend{
		Mode:     store.ModeFile,
		Driver:   "file",
		Projects: projects,
		Images:   images,
	}
}

func TestFileBackend(t *testing.T) {
	storetest.Run(t, newBackend)
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, storetest.JPEG(0), 0644))
}

func TestImages_MainPrefixOnDisk(t *testing.T) {
	root := t.TempDir()
	images, err := filestore.NewImages(root)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = images.Add(ctx, "villa", storetest.Uploads(true, "front.jpg", "back.jpg"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "villa", "main.front.jpg"))
	assert.FileExists(t, filepath.Join(root, "villa", "back.jpg"))

	main, err := images.SetMain(ctx, "villa", "back.jpg")
	require.NoError(t, err)
	assert.Equal(t, "img/villa/main.back.jpg", main.Path)
	assert.FileExists(t, filepath.Join(root, "villa", "front.jpg"))
	assert.NoFileExists(t, filepath.Join(root, "villa", "main.front.jpg"))
}

func TestImages_LegacyMainIsDemoted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "villa", "main.jpg"))
	writeFile(t, filepath.Join(root, "villa", "side.jpg"))

	images, err := filestore.NewImages(root)
	require.NoError(t, err)
	ctx := context.Background()

	list, err := images.List(ctx, "villa")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].IsMain)
	assert.Equal(t, "main.jpg", list[0].Filename)

	_, err = images.SetMain(ctx, "villa", "side.jpg")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "villa", "former-main.jpg"))
	assert.FileExists(t, filepath.Join(root, "villa", "main.side.jpg"))
}

func TestImages_NameCollisionsAreSuffixed(t *testing.T) {
	root := t.TempDir()
	images, err := filestore.NewImages(root)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = images.Add(ctx, "villa", storetest.Uploads(false, "photo.jpg"))
	require.NoError(t, err)
	added, err := images.Add(ctx, "villa", storetest.Uploads(false, "photo.jpg", "photo.jpg"))
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.Equal(t, "photo-1.jpg", added[0].ID)
	assert.Equal(t, "photo-2.jpg", added[1].ID)
}

func TestImages_IgnoresNonImages(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "villa", "notes.txt"))
	writeFile(t, filepath.Join(root, "villa", "a.webp"))

	images, err := filestore.NewImages(root)
	require.NoError(t, err)
	list, err := images.List(context.Background(), "villa")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "img/villa/a.webp", list[0].Path)
}

func TestImages_DeleteAllRemovesFolder(t *testing.T) {
	root := t.TempDir()
	images, err := filestore.NewImages(root)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = images.Add(ctx, "villa", storetest.Uploads(true, "a.jpg"))
	require.NoError(t, err)
	require.NoError(t, images.DeleteAll(ctx, "villa"))
	assert.NoDirExists(t, filepath.Join(root, "villa"))
}

func TestImages_ReadAndData(t *testing.T) {
	root := t.TempDir()
	images, err := filestore.NewImages(root)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = images.Add(ctx, "villa", storetest.Uploads(true, "a.jpg"))
	require.NoError(t, err)

	data, err := images.Read(ctx, "villa", "a.jpg")
	require.NoError(t, err)
	assert.Equal(t, storetest.JPEG(0), data.Data)
	assert.Equal(t, "image/jpeg", data.ContentType)

	_, err = images.Data(ctx, "main.a.jpg")
	assert.True(t, store.IsNotFound(err))
}

func TestImages_RejectsUnsafeFolder(t *testing.T) {
	images, err := filestore.NewImages(t.TempDir())
	require.NoError(t, err)

	_, err = images.Add(context.Background(), "../escape", storetest.Uploads(false, "a.jpg"))
	assert.True(t, store.IsValidation(err))
}

func TestProjects_PersistsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.json")
	projects, err := filestore.NewProjects(path)
	require.NoError(t, err)

	created, err := projects.Create(context.Background(), models.Project{
		Name:     "Riverside Villa",
		Category: models.CategoryComplete,
		Folder:   "riverside-villa",
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"folder": "riverside-villa"`)
	assert.NotContains(t, string(raw), "mainImage")

	reopened, err := filestore.NewProjects(path)
	require.NoError(t, err)
	got, err := reopened.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Riverside Villa", got.Name)
	assert.Equal(t, created.CreatedAt.UnixMilli(), got.CreatedAt.UnixMilli())
}

func TestImages_SetMainDemotesEveryMain(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "villa", "main.jpg"))
	writeFile(t, filepath.Join(root, "villa", "main.a.jpg"))
	writeFile(t, filepath.Join(root, "villa", "b.jpg"))

	images, err := filestore.NewImages(root)
	require.NoError(t, err)
	ctx := context.Background()

	list, err := images.List(ctx, "villa")
	require.NoError(t, err)
	require.Len(t, list, 3)

	main, err := images.SetMain(ctx, "villa", "b.jpg")
	require.NoError(t, err)
	assert.Equal(t, "main.b.jpg", main.ID)

	list, err = images.List(ctx, "villa")
	require.NoError(t, err)
	require.Len(t, list, 3)
	var ids []string
	for _, img := range list {
		if img.IsMain {
			ids = append(ids, img.ID)
		}
	}
	assert.Equal(t, []string{"main.b.jpg"}, ids)
	assert.FileExists(t, filepath.Join(root, "villa", "former-main.jpg"))
	assert.FileExists(t, filepath.Join(root, "villa", "a.jpg"))
}

func TestImages_SetMainKeepsOneOfSeveralMains(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "villa", "main.jpg"))
	writeFile(t, filepath.Join(root, "villa", "main.a.jpg"))

	images, err := filestore.NewImages(root)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = images.SetMain(ctx, "villa", "main.jpg")
	require.NoError(t, err)

	list, err := images.List(ctx, "villa")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].IsMain)
	assert.Equal(t, "main.jpg", list[0].ID)
	assert.False(t, list[1].IsMain)
	assert.Equal(t, "a.jpg", list[1].ID)
}
