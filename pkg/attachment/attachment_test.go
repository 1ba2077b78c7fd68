package attachment

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

// fileHeader builds a real *multipart.FileHeader by parsing a multipart request.
func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	w, err := mw.CreateFormFile("bukti_file", name)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = w.Write(content)
	_ = mw.Close()
	req, _ := http.NewRequest(http.MethodPost, "/", buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("parse multipart: %v", err)
	}
	return req.MultipartForm.File["bukti_file"][0]
}

func TestAllowed(t *testing.T) {
	for _, name := range []string{"a.png", "A.PNG", "scan.Jpg", "x.jpeg", "nota.PDF", "archive.tar.pdf"} {
		if !Allowed(name) {
			t.Fatalf("%s should be allowed", name)
		}
	}
	for _, name := range []string{"a.gif", "evil.php", "pdf", "noext", "x.pdf.exe", "a.", ""} {
		if Allowed(name) {
			t.Fatalf("%s should be rejected", name)
		}
	}
}

func TestSaveGeneratesDistinctKeys(t *testing.T) {
	s, err := New(t.TempDir(), 1<<20, 0, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	k1, err := s.Save(fileHeader(t, "bukti.PDF", []byte("%PDF-1.4 one")))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	k2, err := s.Save(fileHeader(t, "bukti.PDF", []byte("%PDF-1.4 two")))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if k1 == k2 {
		t.Fatalf("same original name must not collide")
	}
	if !strings.HasSuffix(k1, ".pdf") {
		t.Fatalf("extension not normalised: %s", k1)
	}
	p, _ := s.Path(k1)
	b, err := os.ReadFile(p)
	if err != nil || string(b) != "%PDF-1.4 one" {
		t.Fatalf("content mismatch %q %v", b, err)
	}
}

func TestSaveRejects(t *testing.T) {
	s, _ := New(t.TempDir(), 8, 0, nil)
	if _, err := s.Save(fileHeader(t, "../../etc/passwd", []byte("x"))); !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected got %v", err)
	}
	if _, err := s.Save(nil); !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected for nil got %v", err)
	}
	if _, err := s.Save(fileHeader(t, "big.png", []byte("0123456789"))); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge got %v", err)
	}
	entries, _ := os.ReadDir(s.Dir())
	if len(entries) != 0 {
		t.Fatalf("rejected uploads must not leave files, found %d", len(entries))
	}
}

func TestSaveShrinksLargeImages(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 300, 300))
	rng := rand.New(rand.NewSource(1))
	for y := 0; y < 300; y++ {
		for x := 0; x < 300; x++ {
			img.Set(x, y, color.NRGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	orig := int64(buf.Len())

	s, _ := New(t.TempDir(), 10<<20, orig/4, nil)
	key, err := s.Save(fileHeader(t, "struk.png", buf.Bytes()))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	p, _ := s.Path(key)
	fi, err := os.Stat(p)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if fi.Size() >= orig {
		t.Fatalf("expected shrink: %d >= %d", fi.Size(), orig)
	}
	out, err := imaging.Open(p)
	if err != nil {
		t.Fatalf("decode resized: %v", err)
	}
	if out.Bounds().Dx() >= 300 {
		t.Fatalf("width not reduced: %d", out.Bounds().Dx())
	}
}

func TestPathAndRemove(t *testing.T) {
	s, _ := New(t.TempDir(), 1<<20, 0, nil)
	for _, bad := range []string{"", "../x.png", "a/b.png", ".hidden.png", "x.exe"} {
		if _, err := s.Path(bad); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("Path(%q) expected ErrInvalidKey got %v", bad, err)
		}
	}
	key, _ := s.Save(fileHeader(t, "a.jpg", []byte("jpegdata")))
	if err := s.Remove(key); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), key)); !os.IsNotExist(err) {
		t.Fatalf("file still present")
	}
	if err := s.Remove(key); err != nil {
		t.Fatalf("removing twice should be fine: %v", err)
	}
}

func TestSaveKeepsHugeDimensionImageUndecoded(t *testing.T) {
	// 12000x12000 uniform gray compresses to a few hundred KB but would need ~150MB to decode.
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 12000, 12000))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	content := buf.Bytes()
	fh := fileHeader(t, "scan.png", content)
	s, _ := New(t.TempDir(), 5<<20, int64(len(content))/4, nil)

	runtime.GC()
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	key, err := s.Save(fh)
	runtime.ReadMemStats(&after)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if alloc := after.TotalAlloc - before.TotalAlloc; alloc > 32<<20 {
		t.Fatalf("save allocated %d bytes, image was decoded", alloc)
	}
	p, _ := s.Path(key)
	got, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("stored file changed: %d bytes, uploaded %d", len(got), len(content))
	}
}

func TestCheckPixels(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, w, h int) string {
		var buf bytes.Buffer
		if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
			t.Fatalf("encode: %v", err)
		}
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		return p
	}
	if err := checkPixels(write("small.png", 640, 480)); err != nil {
		t.Fatalf("small image rejected: %v", err)
	}
	if err := checkPixels(write("wide.png", 40_001, 1000)); !errors.Is(err, ErrTooManyPixels) {
		t.Fatalf("want ErrTooManyPixels, got %v", err)
	}
}
