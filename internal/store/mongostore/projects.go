// Package mongostore keeps projects and images as MongoDB documents. Image
// payloads are stored as BSON binary in the image document unless a blob store
// is configured.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/store"
)

const (
	projectsCollection = "projects"
	imagesCollection   = "images"
)

type projectDoc struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Name        string        `bson:"name"`
	Description string        `bson:"description"`
	Category    string        `bson:"category"`
	Folder      string        `bson:"folder"`
	Location    string        `bson:"location"`
	Status      string        `bson:"status"`
	Client      string        `bson:"client"`
	Duration    string        `bson:"duration"`
	Area        string        `bson:"area"`
	Type        string        `bson:"type"`
	CreatedAt   time.Time     `bson:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt"`
}

func (d projectDoc) project() models.Project {
	return models.Project{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		Folder:      d.Folder,
		Location:    d.Location,
		Status:      d.Status,
		Client:      d.Client,
		Duration:    d.Duration,
		Area:        d.Area,
		Type:        d.Type,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// EnsureIndexes creates the unique folder index and the image lookup index.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(projectsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "folder", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create project folder index: %w", err)
	}

	_, err = db.Collection(imagesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "folder", Value: 1}, {Key: "isMain", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create image folder index: %w", err)
	}
	return nil
}

type Projects struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewProjects(db *mongo.Database) *Projects {
	return &Projects{coll: db.Collection(projectsCollection), now: time.Now}
}

func (s *Projects) List(ctx context.Context) ([]models.Project, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, store.StorageError("list projects", err)
	}

	var docs []projectDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, store.StorageError("list projects", err)
	}

	projects := make([]models.Project, 0, len(docs))
	for _, d := range docs {
		projects = append(projects, d.project())
	}
	return projects, nil
}

func (s *Projects) Get(ctx context.Context, id string) (*models.Project, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.NotFoundError("get project", "project %s not found", id)
	}
	return s.findOne(ctx, bson.D{{Key: "_id", Value: oid}}, "project %s not found", id)
}

func (s *Projects) GetByFolder(ctx context.Context, folder string) (*models.Project, error) {
	return s.findOne(ctx, bson.D{{Key: "folder", Value: folder}}, "no project uses folder %s", folder)
}

func (s *Projects) findOne(ctx context.Context, filter bson.D, format, arg string) (*models.Project, error) {
	var doc projectDoc
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.NotFoundError("get project", format, arg)
	}
	if err != nil {
		return nil, store.StorageError("get project", err)
	}
	p := doc.project()
	return &p, nil
}

func (s *Projects) Create(ctx context.Context, p models.Project) (*models.Project, error) {
	const op = "create project"

	now := s.now().UTC()
	doc := projectDoc{
		ID:          bson.NewObjectID(),
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Folder:      p.Folder,
		Location:    p.Location,
		Status:      p.Status,
		Client:      p.Client,
		Duration:    p.Duration,
		Area:        p.Area,
		Type:        p.Type,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if oid, err := bson.ObjectIDFromHex(p.ID); err == nil {
		doc.ID = oid
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, store.ValidationError(op, "folder %s is already used by another project", p.Folder)
		}
		return nil, store.StorageError(op, err)
	}

	created := doc.project()
	return &created, nil
}

func (s *Projects) Update(ctx context.Context, id string, upd models.ProjectUpdate) (*models.Project, error) {
	const op = "update project"

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	upd.Apply(p)
	p.UpdatedAt = s.now().UTC()

	oid, _ := bson.ObjectIDFromHex(id)
	res, err := s.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: p.Name},
		{Key: "description", Value: p.Description},
		{Key: "category", Value: p.Category},
		{Key: "location", Value: p.Location},
		{Key: "status", Value: p.Status},
		{Key: "client", Value: p.Client},
		{Key: "duration", Value: p.Duration},
		{Key: "area", Value: p.Area},
		{Key: "type", Value: p.Type},
		{Key: "updatedAt", Value: p.UpdatedAt},
	}}})
	if err != nil {
		return nil, store.StorageError(op, err)
	}
	if res.MatchedCount == 0 {
		return nil, store.NotFoundError(op, "project %s not found", id)
	}
	return p, nil
}

func (s *Projects) Delete(ctx context.Context, id string) error {
	const op = "delete project"

	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return store.NotFoundError(op, "project %s not found", id)
	}
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return store.StorageError(op, err)
	}
	if res.DeletedCount == 0 {
		return store.NotFoundError(op, "project %s not found", id)
	}
	return nil
}

func (s *Projects) DeleteByFolder(ctx context.Context, folder string) (int, error) {
	res, err := s.coll.DeleteMany(ctx, bson.D{{Key: "folder", Value: folder}})
	if err != nil {
		return 0, store.StorageError("delete project by folder", err)
	}
	return int(res.DeletedCount), nil
}

func (s *Projects) Count(ctx context.Context) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, store.StorageError("count projects", err)
	}
	return int(n), nil
}
