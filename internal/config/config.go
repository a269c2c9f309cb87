package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	ImageStorageDatabase = "database"
	ImageStorageSupabase = "supabase"
)

type Config struct {
	// Database. Empty means file mode.
	DatabaseURL   string
	MongoDatabase string

	// File mode
	ProjectsFile string
	ImagesDir    string
	StaticDir    string
	ScanExclude  []string

	// Image payloads in database mode
	ImageStorage           string
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseStorageBucket  string

	// Admin gate for mutating routes. Empty disables it.
	AdminJWTSecret string

	MaxUploadMB int

	// Server
	Port        string
	Environment string
}

// Load reads the configuration from the environment, after applying a .env
// file from the working directory when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		DatabaseURL:   getEnv("DATABASE_URL", os.Getenv("MONGODB_URI")),
		MongoDatabase: getEnv("MONGODB_DATABASE", "portfolio"),

		ProjectsFile: getEnv("PROJECTS_FILE", "projects.json"),
		ImagesDir:    getEnv("IMAGES_DIR", "img"),
		StaticDir:    getEnv("STATIC_DIR", ""),
		ScanExclude:  splitList(getEnv("SCAN_EXCLUDE", "myPics,Sai Manikanta Construction")),

		ImageStorage:           getEnv("IMAGE_STORAGE", ImageStorageDatabase),
		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "project-images"),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 10),

		Port:        getEnv("PORT", "3000"),
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ProjectsFile == "" {
		return fmt.Errorf("PROJECTS_FILE is required")
	}
	if c.ImagesDir == "" {
		return fmt.Errorf("IMAGES_DIR is required")
	}
	switch c.ImageStorage {
	case ImageStorageDatabase:
	case ImageStorageSupabase:
		if c.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required when IMAGE_STORAGE=supabase")
		}
		if c.SupabasePublishableKey == "" {
			return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required when IMAGE_STORAGE=supabase")
		}
	default:
		return fmt.Errorf("IMAGE_STORAGE must be %q or %q, got %q", ImageStorageDatabase, ImageStorageSupabase, c.ImageStorage)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// MaxUploadBytes is the per-file upload limit.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
