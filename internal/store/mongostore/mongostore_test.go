package mongostore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/store"
	"portfolio-backend/internal/store/mongostore"
	"portfolio-backend/internal/store/storetest"
)

// Set MONGODB_TEST_URI to run these against a real server. Each test gets its
// own database, dropped afterwards.
func connect(t *testing.T) *mongo.Client {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { client.Disconnect(context.Background()) })
	return client
}

var dbSeq int

func freshDB(t *testing.T, client *mongo.Client) *mongo.Database {
	dbSeq++
	db := client.Database(fmt.Sprintf("portfolio_test_%d_%d", time.Now().UnixNano(), dbSeq))
	t.Cleanup(func() { db.Drop(context.Background()) })

	require.NoError(t, mongostore.EnsureIndexes(context.Background(), db))
	return db
}

func TestMongoBackend(t *testing.T) {
	client := connect(t)

	storetest.Run(t, func(t *testing.T) *store.Backend {
		db := freshDB(t, client)
		return &store.Backend{
			Mode:     store.ModeDatabase,
			Driver:   "mongodb",
			Projects: mongostore.NewProjects(db),
			Images:   mongostore.NewImages(db, nil),
		}
	})
}

func TestImages_SetMainClearsEveryFlag(t *testing.T) {
	db := freshDB(t, connect(t))
	projects := mongostore.NewProjects(db)
	images := mongostore.NewImages(db, nil)
	ctx := context.Background()

	_, err := projects.Create(ctx, models.Project{Name: "Villa", Category: models.CategoryComplete, Folder: "villa"})
	require.NoError(t, err)
	_, err = images.Add(ctx, "villa", storetest.Uploads(true, "a.jpg", "b.jpg", "c.jpg"))
	require.NoError(t, err)

	_, err = db.Collection("images").UpdateMany(ctx, bson.D{},
		bson.D{{Key: "$set", Value: bson.D{{Key: "isMain", Value: true}}}})
	require.NoError(t, err)

	_, err = images.SetMain(ctx, "villa", "c.jpg")
	require.NoError(t, err)

	list, err := images.List(ctx, "villa")
	require.NoError(t, err)
	require.Len(t, list, 3)
	var flagged []string
	for _, img := range list {
		if img.IsMain {
			flagged = append(flagged, img.Filename)
		}
	}
	assert.Equal(t, []string{"c.jpg"}, flagged)
}
