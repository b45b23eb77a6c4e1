// AngelaMos | 2026
// store.go

package upload

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/imotor-app/marketplace-api/internal/config"
)

// ErrUnsupportedType is returned when the upload's extension is not in the
// configured allowlist.
var ErrUnsupportedType = errors.New("unsupported image type")

const maxUploadMemory = 16 << 20

// Store validates, resizes, and persists uploaded listing images on local
// disk. Files are renamed to a random id, so original filenames never
// reach the filesystem.
type Store struct {
	dir      string
	maxBytes int
	allowed  map[string]struct{}
	logger   *slog.Logger
}

func NewStore(cfg config.UploadConfig, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}

	return &Store{
		dir:      cfg.Dir,
		maxBytes: cfg.MaxImageKB * 1024,
		allowed:  allowed,
		logger:   logger,
	}, nil
}

// SaveImage reads one multipart file field, squeezes it under the byte
// budget, and writes it to the store. The returned path is the public URL
// path the API serves the file from.
func (s *Store) SaveImage(r *http.Request, field string) (string, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return "", fmt.Errorf("parse multipart form: %w", err)
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return "", fmt.Errorf("read form file: %w", err)
	}
	defer file.Close()

	ext := strings.ToLower(
		strings.TrimPrefix(filepath.Ext(header.Filename), "."),
	)
	if _, ok := s.allowed[ext]; !ok {
		return "", ErrUnsupportedType
	}

	img, _, err := image.Decode(file)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	data, err := encodeWithinBudget(img, s.maxBytes)
	if err != nil {
		return "", err
	}

	// Output is always JPEG after the re-encode pass.
	name := uuid.New().String() + ".jpg"
	if err := os.WriteFile(
		filepath.Join(s.dir, name), data, 0o640,
	); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}

	s.logger.Debug("image stored",
		"file", name,
		"bytes", len(data),
	)

	return "/uploads/" + name, nil
}

// Remove deletes a stored image by its public path. Missing files are not
// an error; the row may outlive the file.
func (s *Store) Remove(publicPath string) error {
	name := filepath.Base(publicPath)
	if name == "." || name == "/" {
		return nil
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove image: %w", err)
	}

	return nil
}

// Handler serves stored files under /uploads/.
func (s *Store) Handler() http.Handler {
	return http.StripPrefix(
		"/uploads/",
		http.FileServer(http.Dir(s.dir)),
	)
}
