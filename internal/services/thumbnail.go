package services

import (
	"context"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/filedepot/backend/internal/config"
	"github.com/filedepot/backend/internal/models"
	"github.com/filedepot/backend/internal/storage"
	"github.com/filedepot/backend/pkg/apperr"
	"github.com/filedepot/backend/pkg/logger"
	"gorm.io/gorm"
)

// ThumbnailService produces small JPEG previews for image uploads. It is
// strictly best-effort: any failure is logged as a THUMBNAIL_ERROR and the
// parent upload is never affected.
type ThumbnailService struct {
	db    *gorm.DB
	disk  *storage.Disk
	maxPx int
	log   *logger.Logger
}

func NewThumbnailService(db *gorm.DB, disk *storage.Disk, cfg config.StorageConfig, log *logger.Logger) *ThumbnailService {
	return &ThumbnailService{db: db, disk: disk, maxPx: cfg.ThumbnailMaxPx, log: log}
}

// GenerateAsync kicks off generation in the background and returns
// immediately.
func (t *ThumbnailService) GenerateAsync(file models.File) {
	go func() {
		if err := t.Generate(context.Background(), file); err != nil {
			t.log.Error("thumbnail_generation_failed", err, map[string]interface{}{
				"file_id":   file.ID.String(),
				"mime_type": file.MimeType,
			})
		}
	}()
}

// Generate decodes the stored image, scales it down to fit maxPx, writes the
// JPEG next to the upload root under .thumbs/, and records the path on the
// file row. Non-image files are skipped without error.
func (t *ThumbnailService) Generate(ctx context.Context, file models.File) error {
	if !strings.HasPrefix(file.MimeType, "image/") {
		return nil
	}

	src, err := t.disk.Open(file.Path)
	if err != nil {
		return apperr.Wrap(apperr.CodeThumbnail, "failed opening source image", err)
	}
	defer src.Close()

	decoded, _, err := image.Decode(src)
	if err != nil {
		return apperr.Wrap(apperr.CodeThumbnail, "failed decoding image", err)
	}

	scaled := scaleDown(decoded, t.maxPx)

	thumbPath := t.disk.ThumbnailPath(file.ID)
	if err := os.MkdirAll(filepath.Dir(thumbPath), 0o755); err != nil {
		return apperr.Wrap(apperr.CodeThumbnail, "failed creating thumbnail directory", err)
	}

	dst, err := os.Create(thumbPath)
	if err != nil {
		return apperr.Wrap(apperr.CodeThumbnail, "failed creating thumbnail file", err)
	}

	err = jpeg.Encode(dst, scaled, &jpeg.Options{Quality: 80})
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(thumbPath)
		return apperr.Wrap(apperr.CodeThumbnail, "failed encoding thumbnail", err)
	}

	if err := t.db.WithContext(ctx).
		Model(&models.File{}).
		Where("id = ?", file.ID).
		Update("thumbnail_path", thumbPath).Error; err != nil {
		return apperr.Wrap(apperr.CodeThumbnail, "failed recording thumbnail path", err)
	}

	return nil
}

// scaleDown shrinks img so its longer side is at most maxPx, sampling
// nearest-neighbour. Images already small enough are returned untouched.
func scaleDown(img image.Image, maxPx int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxPx && height <= maxPx {
		return img
	}

	ratio := float64(maxPx) / float64(width)
	if height > width {
		ratio = float64(maxPx) / float64(height)
	}
	newWidth := int(float64(width) * ratio)
	newHeight := int(float64(height) * ratio)
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	scaled := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	for y := 0; y < newHeight; y++ {
		srcY := bounds.Min.Y + y*height/newHeight
		for x := 0; x < newWidth; x++ {
			srcX := bounds.Min.X + x*width/newWidth
			scaled.Set(x, y, img.At(srcX, srcY))
		}
	}
	return scaled
}
