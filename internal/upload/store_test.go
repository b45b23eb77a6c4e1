// AngelaMos | 2026
// store_test.go

package upload

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"log/slog"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imotor-app/marketplace-api/internal/config"
)

func noisyImage(w, h int) image.Image {
	rng := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	return img
}

func TestEncodeWithinBudget_ShrinksLargeImages(t *testing.T) {
	budget := 20 * 1024

	data, err := encodeWithinBudget(noisyImage(800, 600), budget)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(data), budget)

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Less(t, decoded.Bounds().Dx(), 800)
}

func TestEncodeWithinBudget_SmallImagePassesThrough(t *testing.T) {
	data, err := encodeWithinBudget(noisyImage(32, 32), 1024*1024)
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 32, decoded.Bounds().Dx())
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(config.UploadConfig{
		Dir:               t.TempDir(),
		MaxImageKB:        64,
		AllowedExtensions: []string{"jpg", "jpeg", "png"},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	return store
}

func multipartRequest(t *testing.T, filename string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	require.NoError(t, jpeg.Encode(part, noisyImage(400, 300), nil))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestSaveImage_StoresUnderRandomName(t *testing.T) {
	store := newTestStore(t)

	path, err := store.SaveImage(multipartRequest(t, "photo.jpg"), "image")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(path, "/uploads/"))
	assert.True(t, strings.HasSuffix(path, ".jpg"))
	assert.NotContains(t, path, "photo")

	stored := filepath.Join(store.dir, filepath.Base(path))
	info, err := os.Stat(stored)
	require.NoError(t, err)
	assert.LessOrEqual(t, info.Size(), int64(64*1024))
}

func TestSaveImage_RejectsDisallowedExtension(t *testing.T) {
	store := newTestStore(t)

	_, err := store.SaveImage(multipartRequest(t, "photo.svg"), "image")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestRemove_MissingFileIsNoOp(t *testing.T) {
	store := newTestStore(t)

	assert.NoError(t, store.Remove("/uploads/does-not-exist.jpg"))
}
