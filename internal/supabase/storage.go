package supabase

import (
	"bytes"
	"fmt"
	"sync"

	storage "github.com/supabase-community/storage-go"
)

// StorageClient keeps image payloads in one Supabase Storage bucket. It
// satisfies store.BlobStore.
type StorageClient struct {
	client *storage.Client
	bucket string

	// storage-go writes upload options into headers shared by the client.
	uploadMu sync.Mutex
}

func NewStorageClient(client *storage.Client, bucket string) *StorageClient {
	return &StorageClient{
		client: client,
		bucket: bucket,
	}
}

func (s *StorageClient) Name() string {
	return "supabase:" + s.bucket
}

func (s *StorageClient) Upload(path, contentType string, data []byte) error {
	s.uploadMu.Lock()
	defer s.uploadMu.Unlock()

	upsert := true
	_, err := s.client.UploadFile(s.bucket, path, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", path, err)
	}
	return nil
}

func (s *StorageClient) Download(path string) ([]byte, error) {
	data, err := s.client.DownloadFile(s.bucket, path)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", path, err)
	}
	return data, nil
}

func (s *StorageClient) Remove(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	if _, err := s.client.RemoveFile(s.bucket, paths); err != nil {
		return fmt.Errorf("failed to remove files: %w", err)
	}
	return nil
}
