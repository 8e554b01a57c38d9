package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	localHost = "local"

	// MaxDimension bounds the longest edge of a stored image.
	MaxDimension = 2048
	WebPQuality  = 80
)

// LocalHost re-encodes images to WebP on local disk. Files are served
// under baseURL by the HTTP server.
type LocalHost struct {
	dir      string
	baseURL  string
	maxBytes int64
}

func NewLocalHost(dir, baseURL string, maxUploadMB int) (*LocalHost, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &LocalHost{
		dir:      dir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes(maxUploadMB),
	}, nil
}

// Dir is the directory files are written to.
func (h *LocalHost) Dir() string {
	return h.dir
}

func (h *LocalHost) Upload(ctx context.Context, file File) (_ string, err error) {
	_, span := observability.StartClientSpan(ctx, localHost, "upload")
	defer func() {
		observability.RecordMedia(localHost, "upload", err)
		observability.EndSpan(span, err)
	}()

	if err = validate(file, h.maxBytes); err != nil {
		return "", err
	}
	decoded, _, err := image.Decode(bytes.NewReader(file.Content))
	if err != nil {
		err = models.NewValidationError("Invalid image file")
		return "", err
	}

	encoded, err := encodeWebP(resizeToFit(decoded, MaxDimension, MaxDimension), WebPQuality)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(encoded)
	name := hex.EncodeToString(sum[:]) + ".webp"
	if err = os.WriteFile(filepath.Join(h.dir, name), encoded, 0o600); err != nil {
		return "", err
	}
	return h.baseURL + "/" + name, nil
}

// Delete removes the file behind url. Missing files are not an error.
func (h *LocalHost) Delete(ctx context.Context, url string) (err error) {
	_, span := observability.StartClientSpan(ctx, localHost, "delete")
	defer func() {
		observability.RecordMedia(localHost, "delete", err)
		observability.EndSpan(span, err)
	}()

	name, ok := strings.CutPrefix(url, h.baseURL+"/")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		err = fmt.Errorf("not a local media url: %q", url)
		return err
	}
	if err = os.Remove(filepath.Join(h.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
