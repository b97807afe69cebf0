// Package storage provides the object-storage boundary. Failures are
// reported as booleans at this seam; callers decide whether a missing
// object is fatal for their stage.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	storage_go "github.com/supabase-community/storage-go"
	supa "github.com/supabase-community/supabase-go"
)

// ObjectStore moves files between the local workspace and the remote
// bucket. Presign returns an empty string when the URL cannot be
// produced.
type ObjectStore interface {
	Put(localPath, key string) bool
	Get(key, localPath string) bool
	Presign(key string, ttl time.Duration) string
}

// SupabaseStore backs ObjectStore with a Supabase storage bucket.
type SupabaseStore struct {
	client  *supa.Client
	bucket  string
	baseURL string
	log     *logrus.Logger
}

// NewSupabaseStore wraps an initialized Supabase client. baseURL is
// the project URL, used to absolutize signed paths.
func NewSupabaseStore(client *supa.Client, bucket, baseURL string, log *logrus.Logger) *SupabaseStore {
	return &SupabaseStore{client: client, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

// Put uploads the file at localPath under key, replacing any existing
// object.
func (s *SupabaseStore) Put(localPath, key string) bool {
	f, err := os.Open(localPath)
	if err != nil {
		s.log.WithError(err).WithField("path", localPath).Error("Storage upload: cannot open local file")
		return false
	}
	defer f.Close()

	upsert := true
	contentType := contentTypeFor(localPath)
	_, err = s.client.Storage.UploadFile(s.bucket, key, f, storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		s.log.WithError(err).WithField("key", key).Error("Storage upload failed")
		return false
	}
	return true
}

// Get downloads the object at key into localPath, creating parent
// directories as needed.
func (s *SupabaseStore) Get(key, localPath string) bool {
	data, err := s.client.Storage.DownloadFile(s.bucket, key)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Error("Storage download failed")
		return false
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		s.log.WithError(err).WithField("path", localPath).Error("Storage download: cannot create directory")
		return false
	}
	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		s.log.WithError(err).WithField("path", localPath).Error("Storage download: cannot write local file")
		return false
	}
	return true
}

// Presign returns a time-limited download URL for key, or "" on
// failure. Supabase sometimes returns a bucket-relative URL; it is
// normalized to absolute here.
func (s *SupabaseStore) Presign(key string, ttl time.Duration) string {
	resp, err := s.client.Storage.CreateSignedUrl(s.bucket, key, int(ttl.Seconds()))
	if err != nil {
		s.log.WithError(err).WithField("key", key).Error("Storage presign failed")
		return ""
	}
	signed := resp.SignedURL
	if signed == "" {
		return ""
	}
	if !strings.HasPrefix(signed, "http") {
		signed = fmt.Sprintf("%s/storage/v1%s", s.baseURL, signed)
	}
	return signed
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4":
		return "video/mp4"
	case ".wav":
		return "audio/wav"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".srt":
		return "application/x-subrip"
	default:
		return "application/octet-stream"
	}
}
