// Package attachment stores proof-of-payment files ("bukti") under a single uploads directory.
package attachment

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"math"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

var (
	// ErrRejected is returned for files whose extension is not allowed.
	ErrRejected = errors.New("attachment type not allowed (png, jpg, jpeg, pdf)")
	// ErrTooLarge is returned for files above the upload limit.
	ErrTooLarge = errors.New("attachment too large")
	// ErrInvalidKey is returned for keys that are not plain stored file names.
	ErrInvalidKey = errors.New("invalid attachment key")
	// ErrTooManyPixels is returned by the shrink step for images whose header declares more than MaxShrinkPixels.
	ErrTooManyPixels = errors.New("image dimensions too large to resize")
)

// MaxShrinkPixels caps the width*height an image may declare before it is decoded for resizing.
const MaxShrinkPixels = 40_000_000

var allowedExt = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"pdf":  true,
}

// Allowed reports whether filename ends in an allowed extension (text after the last '.', any case).
func Allowed(filename string) bool {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return false
	}
	return allowedExt[strings.ToLower(filename[i+1:])]
}

func isImage(key string) bool {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

type Store struct {
	dir            string
	maxUploadBytes int64
	maxImageBytes  int64
	log            *slog.Logger
}

// New creates the uploads directory if needed.
func New(dir string, maxUploadBytes, maxImageBytes int64, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{dir: dir, maxUploadBytes: maxUploadBytes, maxImageBytes: maxImageBytes, log: log}, nil
}

// Dir returns the uploads directory.
func (s *Store) Dir() string { return s.dir }

// Save writes fh under a fresh "<uuid>.<ext>" key and returns the key.
// Client file names are never used on disk.
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	if fh == nil || !Allowed(fh.Filename) {
		return "", ErrRejected
	}
	if s.maxUploadBytes > 0 && fh.Size > s.maxUploadBytes {
		return "", ErrTooLarge
	}
	ext := strings.ToLower(fh.Filename[strings.LastIndex(fh.Filename, ".")+1:])
	key := uuid.NewString() + "." + ext
	dst := filepath.Join(s.dir, key)

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("write %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("close %s: %w", dst, err)
	}

	if isImage(key) && s.maxImageBytes > 0 && fh.Size > s.maxImageBytes {
		if err := shrinkImage(dst, fh.Size, s.maxImageBytes); err != nil {
			// the unshrunk file is kept
			s.log.Warn("failed to shrink image attachment", "key", key, "error", err)
		}
	}
	return key, nil
}

// shrinkImage downscales the image at path so it roughly fits within maxBytes.
func shrinkImage(path string, size, maxBytes int64) error {
	if err := checkPixels(path); err != nil {
		return err
	}
	img, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	// size scales roughly with area
	scale := math.Sqrt(float64(maxBytes) / float64(size))
	if scale > 0.95 {
		scale = 0.95
	}
	if scale < 0.1 {
		scale = 0.1
	}
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	newW := int(math.Max(1, math.Round(float64(w)*scale)))
	newH := int(math.Max(1, math.Round(float64(h)*scale)))
	img = imaging.Resize(img, newW, newH, imaging.Lanczos)
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("save resized: %w", err)
	}
	// one more uniform 80% pass if still too big
	if fi, err := os.Stat(path); err == nil && fi.Size() > maxBytes {
		img2, err := imaging.Open(path)
		if err == nil {
			img2 = imaging.Resize(img2, int(float64(img2.Bounds().Dx())*0.8), 0, imaging.Lanczos)
			_ = imaging.Save(img2, path)
		}
	}
	return nil
}

// checkPixels reads only the image header and rejects dimensions above MaxShrinkPixels.
func checkPixels(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return fmt.Errorf("decode header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxShrinkPixels {
		return fmt.Errorf("%dx%d: %w", cfg.Width, cfg.Height, ErrTooManyPixels)
	}
	return nil
}

// Path resolves a stored key to its file path.
func (s *Store) Path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") || !Allowed(key) {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.dir, key), nil
}

// Remove deletes a stored file. A missing file is not an error.
func (s *Store) Remove(key string) error {
	p, err := s.Path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
