// Package storetest holds the behavior every store.Backend must share. Each
// backend's tests call Run with a factory returning a fresh, empty backend.
package storetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/store"
)

// Factory returns an empty backend. Cleanup is registered on t.
type Factory func(t *testing.T) *store.Backend

// PNG returns a minimal payload that sniffs as image/png. seed makes payloads
// distinguishable.
func PNG(seed int) []byte {
	return append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR"), []byte(fmt.Sprintf("png-%d", seed))...)
}

// JPEG returns a minimal payload that sniffs as image/jpeg.
func JPEG(seed int) []byte {
	return append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, []byte(fmt.Sprintf("jpeg-%d", seed))...)
}

// Uploads builds one JPEG upload per filename. The first is flagged main when
// firstMain is set.
func Uploads(firstMain bool, filenames ...string) []models.Upload {
	uploads := make([]models.Upload, 0, len(filenames))
	for i, name := range filenames {
		uploads = append(uploads, models.Upload{
			Filename:    name,
			ContentType: "image/jpeg",
			Data:        JPEG(i),
			IsMain:      firstMain && i == 0,
		})
	}
	return uploads
}

func Run(t *testing.T, newBackend Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, b *store.Backend)
	}{
		{"ProjectLifecycle", testProjectLifecycle},
		{"DuplicateFolderRejected", testDuplicateFolderRejected},
		{"UpdateSemantics", testUpdateSemantics},
		{"DeleteByFolder", testDeleteByFolder},
		{"FirstUploadIsMain", testFirstUploadIsMain},
		{"SetMainIsExclusive", testSetMainIsExclusive},
		{"MainNamedUploadIsNotMain", testMainNamedUploadIsNotMain},
		{"DeleteAllClearsFolder", testDeleteAllClearsFolder},
		{"EnrichRoundTrip", testEnrichRoundTrip},
		{"SetMainThenDelete", testSetMainThenDelete},
		{"DeleteImageNotFound", testDeleteImageNotFound},
		{"DeleteMainDoesNotPromote", testDeleteMainDoesNotPromote},
		{"UnknownFolderIsEmpty", testUnknownFolderIsEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newBackend(t))
		})
	}
}

func createProject(t *testing.T, b *store.Backend, folder string) *models.Project {
	t.Helper()
	p, err := b.Projects.Create(context.Background(), models.Project{
		Name:     "Project " + folder,
		Category: models.CategoryComplete,
		Folder:   folder,
	})
	require.NoError(t, err)
	return p
}

func mains(images []models.Image) []string {
	var out []string
	for _, img := range images {
		if img.IsMain {
			out = append(out, img.Filename)
		}
	}
	return out
}

func filenames(images []models.Image) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		out = append(out, img.Filename)
	}
	return out
}

func testProjectLifecycle(t *testing.T, b *store.Backend) {
	ctx := context.Background()

	projects, err := b.Projects.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)

	first := createProject(t, b, "riverside-villa")
	second := createProject(t, b, "hill-top")
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, first.CreatedAt.IsZero())

	got, err := b.Projects.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "riverside-villa", got.Folder)
	assert.Equal(t, models.CategoryComplete, got.Category)

	byFolder, err := b.Projects.GetByFolder(ctx, "hill-top")
	require.NoError(t, err)
	assert.Equal(t, second.ID, byFolder.ID)

	projects, err = b.Projects.List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)

	count, err := b.Projects.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, b.Projects.Delete(ctx, first.ID))
	_, err = b.Projects.Get(ctx, first.ID)
	assert.True(t, store.IsNotFound(err))

	err = b.Projects.Delete(ctx, first.ID)
	assert.True(t, store.IsNotFound(err))

	_, err = b.Projects.GetByFolder(ctx, "riverside-villa")
	assert.True(t, store.IsNotFound(err))
}

func testDuplicateFolderRejected(t *testing.T, b *store.Backend) {
	createProject(t, b, "riverside-villa")

	_, err := b.Projects.Create(context.Background(), models.Project{
		Name:     "Other",
		Category: models.CategoryRunning,
		Folder:   "riverside-villa",
	})
	require.Error(t, err)
	assert.True(t, store.IsValidation(err))

	count, err := b.Projects.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func testUpdateSemantics(t *testing.T, b *store.Backend) {
	ctx := context.Background()
	p, err := b.Projects.Create(ctx, models.Project{
		Name:        "Riverside Villa",
		Description: "Four bedrooms",
		Category:    models.CategoryRunning,
		Folder:      "riverside-villa",
		Location:    "Hyderabad",
		Client:      "Rao",
	})
	require.NoError(t, err)

	empty := ""
	status := "Completed"
	updated, err := b.Projects.Update(ctx, p.ID, models.ProjectUpdate{
		Name:     &empty,
		Category: &empty,
		Location: &empty,
		Status:   &status,
	})
	require.NoError(t, err)
	assert.Equal(t, "Riverside Villa", updated.Name)
	assert.Equal(t, "Four bedrooms", updated.Description)
	assert.Equal(t, models.CategoryRunning, updated.Category)
	assert.Equal(t, "", updated.Location)
	assert.Equal(t, "Completed", updated.Status)
	assert.Equal(t, "Rao", updated.Client)
	assert.Equal(t, "riverside-villa", updated.Folder)
	assert.False(t, updated.UpdatedAt.IsZero())

	got, err := b.Projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Completed", got.Status)
	assert.Equal(t, "", got.Location)

	_, err = b.Projects.Update(ctx, "missing", models.ProjectUpdate{Status: &status})
	assert.True(t, store.IsNotFound(err))
}

func testDeleteByFolder(t *testing.T, b *store.Backend) {
	ctx := context.Background()
	createProject(t, b, "riverside-villa")
	createProject(t, b, "hill-top")

	n, err := b.Projects.DeleteByFolder(ctx, "riverside-villa")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = b.Projects.DeleteByFolder(ctx, "riverside-villa")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	count, err := b.Projects.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func testFirstUploadIsMain(t *testing.T, b *store.Backend) {
	ctx := context.Background()
	p := createProject(t, b, "riverside-villa")

	added, err := b.Images.Add(ctx, p.Folder, Uploads(true, "front.jpg", "garden.jpg"))
	require.NoError(t, err)
	require.Len(t, added, 2)

	images, err := b.Images.List(ctx, p.Folder)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, []string{"front.jpg"}, mains(images))
	assert.Equal(t, "front.jpg", images[0].Filename)

	enriched := store.Enrich(*p, images)
	assert.Len(t, enriched.Images, 2)
	assert.Equal(t, images[0].Path, enriched.MainImage)

	count, err := b.Images.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func testSetMainIsExclusive(t *testing.T, b *store.Backend) {
	ctx := context.Background()
	p := createProject(t, b, "riverside-villa")
	_, err := b.Images.Add(ctx, p.Folder, Uploads(true, "a.jpg", "b.jpg", "c.jpg"))
	require.NoError(t, err)

	for _, target := range []string{"b.jpg", "c.jpg", "c.jpg", "a.jpg"} {
		main, err := b.Images.SetMain(ctx, p.Folder, target)
		require.NoError(t, err)
		assert.True(t, main.IsMain)
		assert.Equal(t, target, main.Filename)

		images, err := b.Images.List(ctx, p.Folder)
		require.NoError(t, err)
		require.Len(t, images, 3)
		assert.Equal(t, []string{target}, mains(images), "after setting %s", target)
		assert.Equal(t, main.Path, store.Enrich(*p, images).MainImage)
	}

	_, err = b.Images.SetMain(ctx, p.Folder, "missing.jpg")
	assert.True(t, store.IsNotFound(err))
}

func testMainNamedUploadIsNotMain(t *testing.T, b *store.Backend) {
	ctx := context.Background()
	p := createProject(t, b, "riverside-villa")
	_, err := b.Images.Add(ctx, p.Folder, Uploads(true, "front.jpg", "main.jpg"))
	require.NoError(t, err)

	images, err := b.Images.List(ctx, p.Folder)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, []string{"front.jpg"}, mains(images))

	added, err := b.Images.Add(ctx, p.Folder, Uploads(false, "main.jpg", "main.back.jpg"))
	require.NoError(t, err)
	require.Len(t, added, 2)
	for _, img := range added {
		assert.False(t, img.IsMain, img.ID)
	}

	images, err = b.Images.List(ctx, p.Folder)
	require.NoError(t, err)
	require.Len(t, images, 4)
	assert.Equal(t, []string{"front.jpg"}, mains(images))
	assert.Equal(t, images[0].Path, store.Enrich(*p, images).MainImage)

	// The renamed uploads can still be promoted.
	main, err := b.Images.SetMain(ctx, p.Folder, added[1].ID)
	require.NoError(t, err)
	images, err = b.Images.List(ctx, p.Folder)
	require.NoError(t, err)
	require.Len(t, images, 4)
	assert.Len(t, mains(images), 1)
	assert.Equal(t, main.Path, images[0].Path)
}

func testDeleteAllClearsFolder(t *testing.T, b *store.Backend) {
	ctx := context.Background()
	p := createProject(t, b, "riverside-villa")
	other := createProject(t, b, "hill-top")
	_, err := b.Images.Add(ctx, p.Folder, Uploads(true, "a.jpg", "b.jpg"))
	require.NoError(t, err)
	_, err = b.Images.Add(ctx, other.Folder, Uploads(true, "x.jpg"))
	require.NoError(t, err)

	require.NoError(t, b.Images.DeleteAll(ctx, p.Folder))

	images, err := b.Images.List(ctx, p.Folder)
	require.NoError(t, err)
	assert.Empty(t, images)

	images, err = b.Images.List(ctx, other.Folder)
	require.NoError(t, err)
	assert.Len(t, images, 1)

	require.NoError(t, b.Images.DeleteAll(ctx, "never-existed"))
}

func testEnrichRoundTrip(t *testing.T, b *store.Backend) {
	ctx := context.Background()
	p := createProject(t, b, "riverside-villa")

	images, err := b.Images.List(ctx, p.Folder)
	require.NoError(t, err)
	enriched := store.Enrich(*p, images)
	assert.Equal(t, "", enriched.MainImage)
	assert.NotNil(t, enriched.Images)
	assert.Empty(t, enriched.Images)

	_, err = b.Images.Add(ctx, p.Folder, Uploads(true, "first.jpg"))
	require.NoError(t, err)
	images, err = b.Images.List(ctx, p.Folder)
	require.NoError(t, err)
	enriched = store.Enrich(*p, images)
	require.Len(t, enriched.Images, 1)
	assert.Equal(t, enriched.Images[0], enriched.MainImage)

	_, err = b.Images.Add(ctx, p.Folder, Uploads(false, "second.jpg"))
	require.NoError(t, err)
	images, err = b.Images.List(ctx, p.Folder)
	require.NoError(t, err)
	enriched = store.Enrich(*p, images)
	require.Len(t, enriched.Images, 2)
	assert.Equal(t, []string{"first.jpg"}, mains(images))
	assert.Equal(t, images[0].Path, enriched.MainImage)
}

func testSetMainThenDelete(t *testing.T, b *store.Backend) {
	ctx := context.Background()
	p := createProject(t, b, "riverside-villa")
	added, err := b.Images.Add(ctx, p.Folder, Uploads(false, "one.jpg", "two.jpg", "three.jpg"))
	require.NoError(t, err)
	require.Len(t, added, 3)

	_, err = b.Images.SetMain(ctx, p.Folder, added[2].ID)
	require.NoError(t, err)
	require.NoError(t, b.Images.Delete(ctx, p.Folder, added[0].ID))

	images, err := b.Images.List(ctx, p.Folder)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, []string{"three.jpg"}, mains(images))
	assert.ElementsMatch(t, []string{"two.jpg", "three.jpg"}, filenames(images))
}

func testDeleteImageNotFound(t *testing.T, b *store.Backend) {
	ctx := context.Background()
	p := createProject(t, b, "riverside-villa")
	_, err := b.Images.Add(ctx, p.Folder, Uploads(true, "a.jpg"))
	require.NoError(t, err)

	err = b.Images.Delete(ctx, p.Folder, "nope.jpg")
	assert.True(t, store.IsNotFound(err))

	err = b.Images.Delete(ctx, "hill-top", "a.jpg")
	assert.True(t, store.IsNotFound(err))

	require.NoError(t, b.Images.Delete(ctx, p.Folder, "a.jpg"))
}

func testDeleteMainDoesNotPromote(t *testing.T, b *store.Backend) {
	ctx := context.Background()
	p := createProject(t, b, "riverside-villa")
	_, err := b.Images.Add(ctx, p.Folder, Uploads(true, "a.jpg", "b.jpg", "c.jpg"))
	require.NoError(t, err)

	require.NoError(t, b.Images.Delete(ctx, p.Folder, "a.jpg"))

	images, err := b.Images.List(ctx, p.Folder)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Empty(t, mains(images))
	assert.Equal(t, "b.jpg", images[0].Filename)
	assert.Equal(t, images[0].Path, store.Enrich(*p, images).MainImage)
}

func testUnknownFolderIsEmpty(t *testing.T, b *store.Backend) {
	images, err := b.Images.List(context.Background(), "unknown")
	require.NoError(t, err)
	assert.NotNil(t, images)
	assert.Empty(t, images)
}
