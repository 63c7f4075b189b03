package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"devgram/internal/config"
	"devgram/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
)

const (
	DefaultMediaDir         = "media"
	DefaultMaxUploadSizeMB  = 10
	MediaMaxDimension       = 1920
	MediaThumbnailDimension = 400
	WebPQuality             = 75
)

// MediaURLPrefix is where the server exposes MEDIA_DIR.
const MediaURLPrefix = "/media/"

// UploadMediaInput is one uploaded file.
type UploadMediaInput struct {
	Filename    string
	ContentType string
	Content     []byte
}

// MediaResult describes the stored WebP rendition and its thumbnail.
type MediaResult struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
}

// MediaService converts uploaded images to WebP and writes them to disk,
// named by content hash.
type MediaService struct {
	dir                string
	maxUploadSizeBytes int64
}

func NewMediaService(cfg *config.Config) *MediaService {
	dir := DefaultMediaDir
	maxUploadSizeMB := DefaultMaxUploadSizeMB
	if cfg != nil {
		if cfg.MediaDir != "" {
			dir = cfg.MediaDir
		}
		if cfg.MediaMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.MediaMaxUploadSizeMB
		}
	}
	return &MediaService{
		dir:                dir,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// Dir is the directory media files are written to.
func (s *MediaService) Dir() string {
	return s.dir
}

// MaxUploadSizeBytes is the largest accepted upload.
func (s *MediaService) MaxUploadSizeBytes() int64 {
	return s.maxUploadSizeBytes
}

func (s *MediaService) Upload(_ context.Context, in UploadMediaInput) (*MediaResult, error) {
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	detected := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detected) {
		return nil, models.NewValidationError("Invalid image type")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, detected) {
		return nil, models.NewValidationError("Image content type mismatch")
	}

	decoded, _, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	full := resizeToFit(decoded, MediaMaxDimension, MediaMaxDimension)
	thumb := resizeToFit(decoded, MediaThumbnailDimension, MediaThumbnailDimension)

	fullBytes, err := encodeWebP(full, WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	thumbBytes, err := encodeWebP(thumb, WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	hash := contentHash(in.Content)
	fullName := hash + ".webp"
	thumbName := hash + "_thumb.webp"

	if err := writeBytesToFile(filepath.Join(s.dir, fullName), fullBytes); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := writeBytesToFile(filepath.Join(s.dir, thumbName), thumbBytes); err != nil {
		_ = os.Remove(filepath.Join(s.dir, fullName))
		return nil, models.NewInternalError(err)
	}

	b := full.Bounds()
	return &MediaResult{
		URL:          MediaURLPrefix + fullName,
		ThumbnailURL: MediaURLPrefix + thumbName,
		Width:        b.Dx(),
		Height:       b.Dy(),
	}, nil
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

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

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

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
