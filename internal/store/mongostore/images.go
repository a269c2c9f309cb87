package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/store"
)

type imageDoc struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	ProjectID   bson.ObjectID `bson:"projectId"`
	Folder      string        `bson:"folder"`
	Filename    string        `bson:"filename"`
	ContentType string        `bson:"contentType"`
	Size        int64         `bson:"size"`
	IsMain      bool          `bson:"isMain"`
	Data        []byte        `bson:"data,omitempty"`
	StoragePath string        `bson:"storagePath,omitempty"`
	CreatedAt   time.Time     `bson:"createdAt"`
}

func (d imageDoc) image() models.Image {
	id := d.ID.Hex()
	return models.Image{
		ID:          id,
		ProjectID:   d.ProjectID.Hex(),
		Folder:      d.Folder,
		Filename:    d.Filename,
		ContentType: d.ContentType,
		Size:        d.Size,
		IsMain:      d.IsMain,
		Path:        store.BlobLocator(id),
		CreatedAt:   d.CreatedAt,
	}
}

type Images struct {
	images   *mongo.Collection
	projects *mongo.Collection
	blobs    store.BlobStore
	now      func() time.Time
}

// NewImages returns an image store over db. blobs may be nil.
func NewImages(db *mongo.Database, blobs store.BlobStore) *Images {
	return &Images{
		images:   db.Collection(imagesCollection),
		projects: db.Collection(projectsCollection),
		blobs:    blobs,
		now:      time.Now,
	}
}

var withoutData = bson.D{{Key: "data", Value: 0}}

func (s *Images) List(ctx context.Context, folder string) ([]models.Image, error) {
	cur, err := s.images.Find(ctx, bson.D{{Key: "folder", Value: folder}}, options.Find().SetProjection(withoutData))
	if err != nil {
		return nil, store.StorageError("list images", err)
	}

	var docs []imageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, store.StorageError("list images", err)
	}

	images := make([]models.Image, 0, len(docs))
	for _, d := range docs {
		images = append(images, d.image())
	}
	store.SortImages(images)
	return images, nil
}

func (s *Images) Add(ctx context.Context, folder string, uploads []models.Upload) ([]models.Image, error) {
	const op = "add images"

	var project projectDoc
	err := s.projects.FindOne(ctx, bson.D{{Key: "folder", Value: folder}}).Decode(&project)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.NotFoundError(op, "no project uses folder %s", folder)
	}
	if err != nil {
		return nil, store.StorageError(op, err)
	}

	for _, u := range uploads {
		if u.IsMain {
			if err := s.clearMain(ctx, folder); err != nil {
				return nil, store.StorageError(op, err)
			}
			break
		}
	}

	added := make([]models.Image, 0, len(uploads))
	mainTaken := false
	for _, u := range uploads {
		doc := imageDoc{
			ID:          bson.NewObjectID(),
			ProjectID:   project.ID,
			Folder:      folder,
			Filename:    u.Filename,
			ContentType: u.ContentType,
			Size:        int64(len(u.Data)),
			IsMain:      u.IsMain && !mainTaken,
			Data:        u.Data,
			CreatedAt:   s.now().UTC(),
		}
		mainTaken = mainTaken || doc.IsMain

		if s.blobs != nil {
			doc.StoragePath = path.Join("projects", folder, doc.ID.Hex()+"-"+u.Filename)
			if err := s.blobs.Upload(doc.StoragePath, u.ContentType, u.Data); err != nil {
				return nil, store.StorageError(op, err)
			}
			doc.Data = nil
		}

		if _, err := s.images.InsertOne(ctx, doc); err != nil {
			s.removeBlobs(doc.StoragePath)
			return nil, store.StorageError(op, err)
		}
		added = append(added, doc.image())
	}
	return added, nil
}

func (s *Images) Delete(ctx context.Context, folder, identifier string) error {
	const op = "delete image"

	img, err := s.match(ctx, op, folder, identifier)
	if err != nil {
		return err
	}
	oid, _ := bson.ObjectIDFromHex(img.ID)

	var doc imageDoc
	err = s.images.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}},
		options.FindOneAndDelete().SetProjection(withoutData)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.NotFoundError(op, "image %s not found in %s", identifier, folder)
	}
	if err != nil {
		return store.StorageError(op, err)
	}
	s.removeBlobs(doc.StoragePath)
	return nil
}

func (s *Images) DeleteAll(ctx context.Context, folder string) error {
	const op = "delete images"
	filter := bson.D{{Key: "folder", Value: folder}}

	cur, err := s.images.Find(ctx, filter, options.Find().SetProjection(bson.D{{Key: "storagePath", Value: 1}}))
	if err != nil {
		return store.StorageError(op, err)
	}
	var docs []imageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return store.StorageError(op, err)
	}

	if _, err := s.images.DeleteMany(ctx, filter); err != nil {
		return store.StorageError(op, err)
	}

	paths := make([]string, 0, len(docs))
	for _, d := range docs {
		paths = append(paths, d.StoragePath)
	}
	s.removeBlobs(paths...)
	return nil
}

// SetMain clears every main flag of the folder and then sets the target's.
// Each step is atomic on its own; the pair is not.
func (s *Images) SetMain(ctx context.Context, folder, identifier string) (*models.Image, error) {
	const op = "set main image"

	img, err := s.match(ctx, op, folder, identifier)
	if err != nil {
		return nil, err
	}
	oid, _ := bson.ObjectIDFromHex(img.ID)

	if err := s.clearMain(ctx, folder); err != nil {
		return nil, store.StorageError(op, err)
	}
	res, err := s.images.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "isMain", Value: true}}}})
	if err != nil {
		return nil, store.StorageError(op, err)
	}
	if res.MatchedCount == 0 {
		return nil, store.NotFoundError(op, "image %s not found in %s", identifier, folder)
	}

	img.IsMain = true
	return &img, nil
}

func (s *Images) Data(ctx context.Context, id string) (*models.ImageData, error) {
	const op = "get image data"

	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.NotFoundError(op, "image %s not found", id)
	}

	var doc imageDoc
	err = s.images.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.NotFoundError(op, "image %s not found", id)
	}
	if err != nil {
		return nil, store.StorageError(op, err)
	}

	data := doc.Data
	if doc.StoragePath != "" {
		if s.blobs == nil {
			return nil, store.StorageError(op, fmt.Errorf("image %s is in blob storage but none is configured", id))
		}
		data, err = s.blobs.Download(doc.StoragePath)
		if err != nil {
			return nil, store.StorageError(op, err)
		}
	}
	return &models.ImageData{ContentType: doc.ContentType, Data: data}, nil
}

func (s *Images) Count(ctx context.Context) (int, error) {
	n, err := s.images.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, store.StorageError("count images", err)
	}
	return int(n), nil
}

func (s *Images) clearMain(ctx context.Context, folder string) error {
	_, err := s.images.UpdateMany(ctx,
		bson.D{{Key: "folder", Value: folder}, {Key: "isMain", Value: true}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "isMain", Value: false}}}})
	return err
}

func (s *Images) match(ctx context.Context, op, folder, identifier string) (models.Image, error) {
	images, err := s.List(ctx, folder)
	if err != nil {
		return models.Image{}, err
	}
	img, ok := store.MatchImage(images, identifier)
	if !ok {
		return models.Image{}, store.NotFoundError(op, "image %s not found in %s", identifier, folder)
	}
	return img, nil
}

func (s *Images) removeBlobs(paths ...string) {
	if s.blobs == nil {
		return
	}
	var keep []string
	for _, p := range paths {
		if p != "" {
			keep = append(keep, p)
		}
	}
	if len(keep) == 0 {
		return
	}
	if err := s.blobs.Remove(keep...); err != nil {
		log.Printf("Warning: failed to remove %d blob(s) from %s: %v", len(keep), s.blobs.Name(), err)
	}
}
