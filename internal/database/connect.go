// Package database selects the storage backend for the process: a SQL or
// MongoDB database when DATABASE_URL points at a reachable one, the project
// file and image folders otherwise.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"portfolio-backend/internal/config"
	"portfolio-backend/internal/store"
	"portfolio-backend/internal/store/filestore"
	"portfolio-backend/internal/store/mongostore"
	"portfolio-backend/internal/store/sqlstore"
	"portfolio-backend/internal/supabase"
)

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongodb"
)

const connectTimeout = 10 * time.Second

// Open resolves the backend once for the lifetime of the process. A missing
// or unreachable database is not an error: it is logged and the file backend
// is returned instead.
func Open(ctx context.Context, cfg *config.Config) (*store.Backend, error) {
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set. Falling back to file-based storage.")
		return OpenFiles(cfg)
	}

	driver, err := DriverFor(cfg.DatabaseURL)
	if err != nil {
		log.Printf("Warning: %v. Falling back to file-based storage.", err)
		return OpenFiles(cfg)
	}

	blobs, err := openBlobs(cfg)
	if err != nil {
		return nil, err
	}

	var backend *store.Backend
	err = RetryWithBackoff(func() error {
		var err error
		backend, err = openDatabase(ctx, cfg, driver, blobs)
		return err
	}, 3)
	if err != nil {
		log.Printf("Warning: database connection failed: %v", err)
		log.Println("Falling back to file-based storage.")
		return OpenFiles(cfg)
	}

	log.Printf("Connected to %s database", driver)
	return backend, nil
}

// OpenFiles returns the file backend: projects in cfg.ProjectsFile, images under
// cfg.ImagesDir.
func OpenFiles(cfg *config.Config) (*store.Backend, error) {
	projects, err := filestore.NewProjects(cfg.ProjectsFile)
	if err != nil {
		return nil, err
	}
	images, err := filestore.NewImages(cfg.ImagesDir)
	if err != nil {
		return nil, err
	}

	return &store.Backend{
		Mode:         store.ModeFile,
		Driver:       DriverFile,
		ImageStorage: "disk",
		Projects:     projects,
		Images:       images,
	}, nil
}

// DriverFor maps a connection string to the driver that serves it.
func DriverFor(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		if strings.HasPrefix(dsn, "sqlite:") {
			return DriverSQLite, nil
		}
		return "", fmt.Errorf("unrecognized database URL")
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		return DriverPostgres, nil
	case "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "mongodb", "mongodb+srv":
		return DriverMongo, nil
	default:
		return "", fmt.Errorf("unsupported database scheme %q", u.Scheme)
	}
}

func openDatabase(ctx context.Context, cfg *config.Config, driver string, blobs store.BlobStore) (*store.Backend, error) {
	var (
		backend *store.Backend
		err     error
	)
	switch driver {
	case DriverMongo:
		backend, err = openMongo(ctx, cfg.DatabaseURL, cfg.MongoDatabase, blobs)
	default:
		backend, err = openSQL(ctx, driver, cfg.DatabaseURL, blobs)
	}
	if err != nil {
		return nil, err
	}

	backend.ImageStorage = config.ImageStorageDatabase
	if blobs != nil {
		backend.ImageStorage = blobs.Name()
	}
	return backend, nil
}

func openSQL(ctx context.Context, driver, dsn string, blobs store.BlobStore) (*store.Backend, error) {
	driverName, source := "postgres", dsn
	if driver == DriverSQLite {
		driverName, source = "sqlite3", sqlitePath(dsn)
	}

	db, err := sql.Open(driverName, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// One connection: go-sqlite3 gives each connection its own
		// in-memory database, and SQLite serializes writers anyway.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxIdleConns(5)
		db.SetMaxOpenConns(10)
		db.SetConnMaxLifetime(time.Hour)
		db.SetConnMaxIdleTime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := NewMigrator(db).Run(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	backend := &store.Backend{
		Mode:     store.ModeDatabase,
		Driver:   driver,
		Projects: sqlstore.NewProjects(db),
		Images:   sqlstore.NewImages(db, blobs),
	}
	backend.OnClose(db.Close)
	return backend, nil
}

// sqlitePath turns sqlite://path, sqlite:path or sqlite::memory: into a
// go-sqlite3 data source name.
func sqlitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "sqlite3://")
	path = strings.TrimPrefix(path, "sqlite://")
	path = strings.TrimPrefix(path, "sqlite:")
	if path == "" || path == ":memory:" {
		return "file::memory:?_foreign_keys=on"
	}
	if strings.Contains(path, "?") {
		return path + "&_foreign_keys=on"
	}
	return path + "?_foreign_keys=on"
}

func openMongo(ctx context.Context, uri, dbName string, blobs store.BlobStore) (*store.Backend, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(dbName)
	if err := mongostore.EnsureIndexes(pingCtx, db); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	backend := &store.Backend{
		Mode:     store.ModeDatabase,
		Driver:   DriverMongo,
		Projects: mongostore.NewProjects(db),
		Images:   mongostore.NewImages(db, blobs),
	}
	backend.OnClose(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		return client.Disconnect(ctx)
	})
	return backend, nil
}

func openBlobs(cfg *config.Config) (store.BlobStore, error) {
	if cfg.ImageStorage != config.ImageStorageSupabase {
		return nil, nil
	}
	client, err := supabase.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage client: %w", err)
	}
	return client.Bucket(), nil
}
