package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/san-kum/fractalzoo/internal/fractal"
	"github.com/san-kum/fractalzoo/internal/viewport"
)

// ErrUnknownFormat indicates an image format other than png, jpeg, bmp and
// tiff.
var ErrUnknownFormat = errors.New("storage: unknown image format")

// Formats lists the supported export formats.
var Formats = []string{"png", "jpeg", "bmp", "tiff"}

const metadataFile = "metadata.json"

// Store keeps exported renders, one directory per export.
type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Metadata describes one exported render.
type Metadata struct {
	ID        string             `json:"id"`
	Fractal   string             `json:"fractal"`
	Kind      string             `json:"kind"`
	Timestamp time.Time          `json:"timestamp"`
	Width     int                `json:"width"`
	Height    int                `json:"height"`
	View      viewport.Rect      `json:"view"`
	Params    map[string]float32 `json:"params"`
	ElapsedMs float64            `json:"elapsed_ms"`
	Image     string             `json:"image"`
}

// Describe captures the state of d rendered over view.
func Describe(d *fractal.Descriptor, view viewport.Rect, w, h int, elapsed time.Duration) Metadata {
	return Metadata{
		Fractal:   d.Name,
		Kind:      d.Kind.String(),
		Width:     w,
		Height:    h,
		View:      view,
		Params:    d.Params.Snapshot(),
		ElapsedMs: float64(elapsed) / float64(time.Millisecond),
	}
}

// Save writes img in the given format plus a metadata sidecar into a fresh
// directory and returns its id.
func (s *Store) Save(img image.Image, meta Metadata, format string) (string, error) {
	format, err := normalizeFormat(format)
	if err != nil {
		return "", err
	}
	now := s.now()
	id := fmt.Sprintf("%s_%d", slug(meta.Fractal), now.UnixNano())
	dir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	meta.ID = id
	meta.Timestamp = now
	meta.Image = "image." + format
	if b := img.Bounds(); meta.Width == 0 && meta.Height == 0 {
		meta.Width, meta.Height = b.Dx(), b.Dy()
	}

	if err := writeFile(filepath.Join(dir, meta.Image), func(w io.Writer) error {
		return Encode(w, img, format)
	}); err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(dir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return "", err
	}
	return id, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// Load reads the metadata of an export.
func (s *Store) Load(id string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, metadataFile))
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	return &meta, nil
}

// LoadImage decodes the image of an export.
func (s *Store) LoadImage(id string) (image.Image, error) {
	meta, err := s.Load(id)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.baseDir, id, meta.Image))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

// List returns export ids, oldest first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.baseDir, e.Name(), metadataFile)); err == nil {
			ids = append(ids, e.Name())
		}
	}
	slices.SortFunc(ids, func(a, b string) int {
		return strings.Compare(a[strings.LastIndex(a, "_")+1:], b[strings.LastIndex(b, "_")+1:])
	})
	return ids, nil
}

// Encode writes img in format.
func Encode(w io.Writer, img image.Image, format string) error {
	format, err := normalizeFormat(format)
	if err != nil {
		return err
	}
	switch format {
	case "png":
		return png.Encode(w, img)
	case "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case "bmp":
		return bmp.Encode(w, img)
	default:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
}

// FormatFromPath guesses the format from a file extension, defaulting to
// png.
func FormatFromPath(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if f, err := normalizeFormat(ext); err == nil {
		return f
	}
	return "png"
}

func normalizeFormat(format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "png":
		return "png", nil
	case "jpg", "jpeg":
		return "jpeg", nil
	case "bmp":
		return "bmp", nil
	case "tif", "tiff":
		return "tiff", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func slug(name string) string {
	if name == "" {
		return "render"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return '_'
	}, name)
}
