package supabase

import (
	"fmt"
	"strings"

	"github.com/supabase-community/supabase-go"
	"portfolio-backend/internal/config"
)

type Client struct {
	Supabase *supabase.Client
	Config   *config.Config
}

func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.SupabaseURL == "" || cfg.SupabasePublishableKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_PUBLISHABLE_KEY are required")
	}

	client, err := supabase.NewClient(strings.TrimSuffix(cfg.SupabaseURL, "/"), cfg.SupabasePublishableKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &Client{
		Supabase: client,
		Config:   cfg,
	}, nil
}

// Bucket returns the image bucket of the configured project.
func (c *Client) Bucket() *StorageClient {
	return NewStorageClient(c.Supabase.Storage, c.Config.SupabaseStorageBucket)
}
