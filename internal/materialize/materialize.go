// Package materialize turns asset references into self-contained, embeddable
// images. Every asset is decoded, downscaled when too large and re-encoded, so
// a rendered page never depends on a remote URL.
package materialize

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io/fs"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/kozaktomas/photo-diary/internal/config"
	"github.com/kozaktomas/photo-diary/internal/constants"
)

// StaticPrefix marks references that are served from the local assets directory.
const StaticPrefix = "static/"

// BlobFetcher reads raw objects from the blob store.
type BlobFetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, string, error)
}

// Image is an embeddable asset together with its decoded raster.
type Image struct {
	MIME   string
	Data   []byte
	Width  int
	Height int

	decoded image.Image
}

// DataURI returns the image as a base64 data URI.
func (i *Image) DataURI() string {
	return "data:" + i.MIME + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Decoded returns the raster the encoding was produced from.
func (i *Image) Decoded() image.Image {
	return i.decoded
}

// Materializer resolves references from the blob store, the assets
// directory or inline data URIs.
type Materializer struct {
	blobs       BlobFetcher
	assets      fs.FS
	maxSize     int
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger
}

// New creates a materializer. blobs and assets may be nil, in which case
// references of that kind fail softly.
func New(blobs BlobFetcher, assets fs.FS, cfg config.ExportConfig, logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := &Materializer{
		blobs:       blobs,
		assets:      assets,
		maxSize:     cfg.MaxImageSize,
		timeout:     cfg.AssetTimeout,
		concurrency: cfg.DownloadConcurrency,
		logger:      logger,
	}
	if m.maxSize <= 0 {
		m.maxSize = constants.MaxImageSize
	}
	if m.timeout <= 0 {
		m.timeout = 20 * time.Second
	}
	if m.concurrency <= 0 {
		m.concurrency = constants.DownloadConcurrency
	}
	return m
}

// Materialize returns the embeddable image for ref, or nil when the asset
// cannot be fetched or decoded. Failures are logged, never returned.
func (m *Materializer) Materialize(ctx context.Context, ref string) *Image {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	img, err := m.materialize(ctx, ref)
	if err != nil {
		m.logger.Warn("failed to materialize asset", "ref", shortRef(ref), "error", err)
		return nil
	}
	return img
}

// MaterializeAll materializes the distinct refs with a bounded worker pool.
// Refs that fail are absent from the result.
func (m *Materializer) MaterializeAll(ctx context.Context, refs []string) map[string]*Image {
	unique := make(map[string]bool)
	for _, ref := range refs {
		if ref = strings.TrimSpace(ref); ref != "" {
			unique[ref] = true
		}
	}

	result := make(map[string]*Image, len(unique))
	if len(unique) == 0 {
		return result
	}
	var mu sync.Mutex

	jobs := make(chan string, len(unique))
	for ref := range unique {
		jobs <- ref
	}
	close(jobs)

	var wg sync.WaitGroup
	for range min(m.concurrency, len(unique)) {
		wg.Go(func() {
			for ref := range jobs {
				if ctx.Err() != nil {
					return
				}
				img := m.Materialize(ctx, ref)
				if img == nil {
					continue
				}
				mu.Lock()
				result[ref] = img
				mu.Unlock()
			}
		})
	}
	wg.Wait()
	return result
}

func (m *Materializer) materialize(ctx context.Context, ref string) (*Image, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	data, err := m.read(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.normalize(data)
}

func (m *Materializer) read(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		return decodeDataURI(ref)
	case strings.HasPrefix(ref, StaticPrefix):
		if m.assets == nil {
			return nil, errors.New("no assets directory configured")
		}
		data, err := fs.ReadFile(m.assets, strings.TrimPrefix(ref, StaticPrefix))
		if err != nil {
			return nil, fmt.Errorf("read static asset: %w", err)
		}
		return data, nil
	default:
		if m.blobs == nil {
			return nil, errors.New("no blob store configured")
		}
		data, _, err := m.blobs.Fetch(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("fetch blob: %w", err)
		}
		return data, nil
	}
}

// normalize decodes data, downscales it to maxSize and re-encodes it as JPEG
// for opaque images or PNG for images with transparency.
func (m *Materializer) normalize(data []byte) (*Image, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	img := Downscale(src, m.maxSize)
	bounds := img.Bounds()

	var buf bytes.Buffer
	mime := "image/jpeg"
	if hasAlpha(img) {
		mime = "image/png"
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode png: %w", err)
		}
	} else if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: constants.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}

	return &Image{
		MIME:    mime,
		Data:    buf.Bytes(),
		Width:   bounds.Dx(),
		Height:  bounds.Dy(),
		decoded: img,
	}, nil
}

// Downscale resizes img to fit within maxSize on its longer side while
// keeping the aspect ratio. Smaller images are returned unchanged.
func Downscale(img image.Image, maxSize int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if maxSize <= 0 || (width <= maxSize && height <= maxSize) {
		return img
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = maxSize
		newHeight = max(1, int(float64(height)*float64(maxSize)/float64(width)))
	} else {
		newHeight = maxSize
		newWidth = max(1, int(float64(width)*float64(maxSize)/float64(height)))
	}

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Src, nil)
	return resized
}

func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return true
}

// decodeDataURI extracts the payload of a data: URI.
func decodeDataURI(ref string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data URI")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data URI: %w", err)
		}
		return data, nil
	}
	unescaped, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data URI: %w", err)
	}
	return []byte(unescaped), nil
}

// shortRef keeps data URIs out of the logs.
func shortRef(ref string) string {
	if strings.HasPrefix(ref, "data:") && len(ref) > 40 {
		return ref[:40] + "..."
	}
	return ref
}
