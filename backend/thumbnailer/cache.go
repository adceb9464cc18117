// Package thumbnailer renders and caches image thumbnails on disk. Cache
// files are named by a digest of (absolute path, mtime, size), so a cached
// entry can never go stale: touching the source file changes the key.
package thumbnailer

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"taulu.fi/dataset-curator/api"
	"taulu.fi/dataset-curator/api/apitype"
	"taulu.fi/dataset-curator/common/logger"
)

const (
	// DefaultSize is the thumbnail edge length used when the caller does
	// not ask for one; MaxSize caps requests.
	DefaultSize = 256
	MaxSize     = 512

	cacheFileExtension = ".jpg"
	keyLength          = 16
)

type Cache struct {
	dir   string
	codec api.ImageCodec
}

func DefaultCacheDir() string {
	return filepath.Join(os.TempDir(), "dataset-curator", "thumbnails")
}

// NewCache creates the cache directory eagerly; failing to create it here
// is fatal, unlike the best-effort writes later on.
func NewCache(dir string, codec api.ImageCodec) (*Cache, error) {
	if dir == "" {
		dir = DefaultCacheDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir '%s': %w", dir, err)
	}
	return &Cache{dir: dir, codec: codec}, nil
}

func (s *Cache) Dir() string {
	return s.dir
}

// CacheKey digests the absolute path bytes, the modification time in
// nanoseconds and the requested size, truncated for use as a file name.
func CacheKey(absolutePath string, modTimeNanos int64, size int) string {
	hasher := sha256.New()
	hasher.Write([]byte(absolutePath))
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(modTimeNanos))
	hasher.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(size))
	hasher.Write(buf[:])
	return hex.EncodeToString(hasher.Sum(nil)[:keyLength])
}

// GetOrRender returns the encoded thumbnail for the image, reading it from
// the cache when possible. On a miss the codec renders it and the result is
// written back best-effort: a failed cache write still returns the bytes.
func (s *Cache) GetOrRender(path string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("'%s': %w", path, apitype.ErrNotFound)
	}
	absolutePath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("'%s': %w", path, apitype.ErrInvalidPath)
	}

	key := CacheKey(absolutePath, info.ModTime().UnixNano(), size)
	cachePath := filepath.Join(s.dir, key+cacheFileExtension)
	if data, err := os.ReadFile(cachePath); err == nil {
		logger.Trace.Printf("Thumbnail cache hit for '%s'", path)
		return data, nil
	}

	img, err := s.codec.Decode(absolutePath)
	if err != nil {
		return nil, fmt.Errorf("decode '%s' (%s): %w", path, err, apitype.ErrDecodeFailure)
	}
	thumbnail := s.codec.Resize(img, apitype.SizeOf(size, size))
	data, err := s.codec.Encode(thumbnail)
	if err != nil {
		return nil, fmt.Errorf("encode '%s' (%s): %w", path, err, apitype.ErrDecodeFailure)
	}

	s.writeBestEffort(cachePath, data)
	return data, nil
}

// DataURL renders the thumbnail as a base64 JPEG data URL for UI layers.
func (s *Cache) DataURL(path string, size int) (string, error) {
	data, err := s.GetOrRender(path, size)
	if err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data), nil
}

func (s *Cache) writeBestEffort(cachePath string, data []byte) {
	tempPath := filepath.Join(s.dir, uuid.New().String()+".tmp")
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		logger.Warn.Printf("Could not write thumbnail cache file: %s", err)
		return
	}
	if err := os.Rename(tempPath, cachePath); err != nil {
		logger.Warn.Printf("Could not move thumbnail into cache: %s", err)
		_ = os.Remove(tempPath)
	}
}
