package store_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/store"
	"portfolio-backend/internal/store/storetest"
)

func TestEnrich(t *testing.T) {
	p := models.Project{
		Folder:    "villa",
		MainImage: "img/stale.jpg",
		Images:    []string{"img/stale.jpg"},
	}

	t.Run("no images", func(t *testing.T) {
		e := store.Enrich(p, nil)
		assert.Equal(t, "", e.MainImage)
		assert.NotNil(t, e.Images)
		assert.Empty(t, e.Images)
	})

	t.Run("flagged main", func(t *testing.T) {
		e := store.Enrich(p, []models.Image{
			{Path: "/api/images/1"},
			{Path: "/api/images/2", IsMain: true},
		})
		assert.Equal(t, []string{"/api/images/1", "/api/images/2"}, e.Images)
		assert.Equal(t, "/api/images/2", e.MainImage)
	})

	t.Run("first image when none flagged", func(t *testing.T) {
		e := store.Enrich(p, []models.Image{{Path: "img/villa/a.jpg"}, {Path: "img/villa/b.jpg"}})
		assert.Equal(t, "img/villa/a.jpg", e.MainImage)
	})
}

func TestSortImages(t *testing.T) {
	images := []models.Image{
		{ID: "3", Filename: "b.jpg"},
		{ID: "2", Filename: "a.jpg"},
		{ID: "9", Filename: "z.jpg", IsMain: true},
		{ID: "1", Filename: "a.jpg"},
	}
	store.SortImages(images)

	var ids []string
	for _, img := range images {
		ids = append(ids, img.ID)
	}
	assert.Equal(t, []string{"9", "1", "2", "3"}, ids)
}

func TestMatchImage(t *testing.T) {
	images := []models.Image{
		{ID: "a1", Filename: "front.jpg"},
		{ID: "front.jpg", Filename: "other.jpg"},
	}

	img, ok := store.MatchImage(images, "front.jpg")
	require.True(t, ok)
	assert.Equal(t, "other.jpg", img.Filename, "ID match wins over filename")

	img, ok = store.MatchImage(images, "a1")
	require.True(t, ok)
	assert.Equal(t, "front.jpg", img.Filename)

	_, ok = store.MatchImage(images, "missing")
	assert.False(t, ok)
}

func TestValidFolder(t *testing.T) {
	for _, folder := range []string{"riverside-villa", "Sai Manikanta Construction", "a_b"} {
		assert.True(t, store.ValidFolder(folder), folder)
	}
	for _, folder := range []string{"", ".", "..", "a/b", `a\b`, "../x"} {
		assert.False(t, store.ValidFolder(folder), folder)
	}
}

func TestLocators(t *testing.T) {
	assert.Equal(t, "img/villa/main.front.jpg", store.FileLocator("villa", "main.front.jpg"))
	assert.Equal(t, "/api/images/abc", store.BlobLocator("abc"))
	assert.Equal(t, "image/webp", store.ContentTypeFor("x.WEBP"))
	assert.True(t, store.IsImageFile("photo.JPEG"))
	assert.False(t, store.IsImageFile("notes.txt"))
}

func TestUploadPolicy_Validate(t *testing.T) {
	policy := store.UploadPolicy{MaxSize: 64}

	t.Run("empty batch", func(t *testing.T) {
		err := policy.Validate("upload", nil)
		assert.True(t, store.IsValidation(err))
	})

	t.Run("sniffs content type and strips directories", func(t *testing.T) {
		uploads := []models.Upload{{Filename: "../../etc/front.png", Data: storetest.PNG(1)}}
		require.NoError(t, policy.Validate("upload", uploads))
		assert.Equal(t, "front.png", uploads[0].Filename)
		assert.Equal(t, "image/png", uploads[0].ContentType)
	})

	t.Run("too large", func(t *testing.T) {
		data := append(storetest.JPEG(0), make([]byte, 100)...)
		err := policy.Validate("upload", []models.Upload{{Filename: "big.jpg", Data: data}})
		assert.True(t, store.IsValidation(err))
	})

	t.Run("wrong extension", func(t *testing.T) {
		err := policy.Validate("upload", []models.Upload{{Filename: "doc.pdf", Data: storetest.JPEG(0)}})
		assert.True(t, store.IsValidation(err))
	})

	t.Run("content is not an image", func(t *testing.T) {
		err := policy.Validate("upload", []models.Upload{{Filename: "fake.jpg", Data: []byte("plain text")}})
		assert.True(t, store.IsValidation(err))
	})
}

func TestErrors(t *testing.T) {
	cause := errors.New("disk full")
	err := store.StorageError("save", cause)
	assert.ErrorIs(t, err, store.ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "save: storage error: disk full", err.Error())

	nf := store.NotFoundError("get project", "project %s not found", "42")
	assert.True(t, store.IsNotFound(nf))
	assert.Same(t, nf, store.StorageError("outer", nf))
	assert.True(t, store.IsNotFound(fmt.Errorf("wrapped: %w", nf)))

	assert.Nil(t, store.StorageError("noop", nil))
	assert.True(t, store.IsValidation(store.ValidationError("create", "name is required")))
}

func TestBackendClose(t *testing.T) {
	var order []int
	b := &store.Backend{Mode: store.ModeDatabase}
	b.OnClose(func() error { order = append(order, 1); return nil })
	b.OnClose(func() error { order = append(order, 2); return errors.New("boom") })

	err := b.Close()
	assert.EqualError(t, err, "boom")
	assert.Equal(t, []int{2, 1}, order)
	assert.True(t, b.Connected())
}
