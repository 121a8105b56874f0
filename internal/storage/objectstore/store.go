package objectstore

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"time"
)

// Store abstracts S3-compatible object storage.
type Store interface {
	Put(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error
	Stat(ctx context.Context, bucket, key string) (ObjectInfo, error)
}

type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// PutFile uploads a local file, guessing the content type from its extension.
func PutFile(ctx context.Context, s Store, bucket, key, path string) (ObjectInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ObjectInfo{}, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return ObjectInfo{}, err
	}
	if !st.Mode().IsRegular() {
		return ObjectInfo{}, fmt.Errorf("%s is not a regular file", path)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.Put(ctx, bucket, key, f, st.Size(), contentType); err != nil {
		return ObjectInfo{}, fmt.Errorf("put %s: %w", key, err)
	}
	return ObjectInfo{Key: key, Size: st.Size(), ContentType: contentType, LastModified: st.ModTime()}, nil
}

// PutDir uploads every regular file under dir with keys prefix/<relative path>.
func PutDir(ctx context.Context, s Store, bucket, prefix, dir string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		info, err := PutFile(ctx, s, bucket, prefix+"/"+filepath.ToSlash(rel), path)
		if err != nil {
			return err
		}
		out = append(out, info)
		return nil
	})
	return out, err
}
