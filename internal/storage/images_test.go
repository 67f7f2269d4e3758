package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func newStore(t *testing.T) *ImageStore {
	t.Helper()
	store, err := NewImageStore(filepath.Join(t.TempDir(), "images"), 4, time.Minute)
	require.NoError(t, err)
	return store
}

func TestImageStore_SaveConvertsToPNG(t *testing.T) {
	store := newStore(t)
	at := time.Date(2025, 1, 31, 14, 0, 5, 0, time.UTC)

	path, err := store.Save(encodeJPEG(t, 8, 6), at)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Dir(), "20250131_140005.png"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 6, img.Bounds().Dy())
}

func TestImageStore_SaveRejectsGarbage(t *testing.T) {
	store := newStore(t)

	_, err := store.Save([]byte("<html>not an image</html>"), time.Now())
	assert.Error(t, err)

	_, err = store.Latest()
	assert.ErrorIs(t, err, ErrNoImages)
}

func TestImageStore_Latest(t *testing.T) {
	store := newStore(t)

	_, err := store.Latest()
	assert.ErrorIs(t, err, ErrNoImages)

	older, err := store.Save(encodeJPEG(t, 2, 2), time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	newer, err := store.Save(encodeJPEG(t, 2, 2), time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// Modification time decides, not the file name
	base := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, base, base))
	require.NoError(t, os.Chtimes(newer, base.Add(time.Minute), base.Add(time.Minute)))

	// Non-PNG files are ignored
	notes := filepath.Join(store.Dir(), "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(notes, base.Add(time.Hour), base.Add(time.Hour)))

	latest, err := store.Latest()
	require.NoError(t, err)
	assert.Equal(t, newer, latest)
}

func TestImageStore_ReadUsesCache(t *testing.T) {
	store := newStore(t)

	path, err := store.Save(encodeJPEG(t, 3, 3), time.Now())
	require.NoError(t, err)

	first, err := store.Read(path)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))

	second, err := store.Read(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = store.Read(filepath.Join(store.Dir(), "missing.png"))
	assert.Error(t, err)
}
