package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	_ "golang.org/x/image/webp"
)

const (
	// timestampLayout names archived images, e.g. 20250131_140000.png
	timestampLayout = "20060102_150405"
	imageExt        = ".png"
)

// ErrNoImages is returned when the archive holds no image yet
var ErrNoImages = errors.New("no saved images")

// ImageStore keeps downloaded images as timestamped PNG files
type ImageStore struct {
	dir   string
	cache *expirable.LRU[string, []byte]
}

// NewImageStore creates the archive directory if needed
func NewImageStore(dir string, cacheSize int, cacheTTL time.Duration) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image dir: %w", err)
	}

	return &ImageStore{
		dir:   dir,
		cache: expirable.NewLRU[string, []byte](cacheSize, nil, cacheTTL),
	}, nil
}

// Dir returns the archive directory
func (s *ImageStore) Dir() string {
	return s.dir
}

// Save decodes the image and writes it as PNG named after the given time
func (s *ImageStore) Save(data []byte, at time.Time) (string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode %s image as png: %w", format, err)
	}

	path := filepath.Join(s.dir, at.Format(timestampLayout)+imageExt)
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return "", err
	}
	s.cache.Add(path, buf.Bytes())

	return path, nil
}

// Latest returns the most recently modified PNG in the archive
func (s *ImageStore) Latest() (string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("failed to list image dir: %w", err)
	}

	var (
		latest    string
		latestMod time.Time
	)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), imageExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		mod := info.ModTime()
		if latest == "" || mod.After(latestMod) || (mod.Equal(latestMod) && entry.Name() > latest) {
			latest = entry.Name()
			latestMod = mod
		}
	}

	if latest == "" {
		return "", ErrNoImages
	}

	return filepath.Join(s.dir, latest), nil
}

// Read returns the bytes of an archived image
func (s *ImageStore) Read(path string) ([]byte, error) {
	if data, ok := s.cache.Get(path); ok {
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	s.cache.Add(path, data)

	return data, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move image into place: %w", err)
	}

	return nil
}
