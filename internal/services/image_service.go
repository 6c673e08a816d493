package services

import (
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/rentora/listings-service/internal/constants"
	"github.com/rentora/listings-service/internal/storage"
	"github.com/rentora/listings-service/internal/utils"
)

/* ------------------------------------------------------------------
   Optimizer
------------------------------------------------------------------ */

// OptimizedImage names the pair of files produced for one upload: a
// fallback in a widely supported format plus a WebP companion. Both live
// in the store's staging area until Promote is called.
type OptimizedImage struct {
	FallbackName string
	WebpName     string
}

type ImageOptimizer interface {
	// Optimize decodes, bounds, and re-encodes one upload, staging the
	// results. Images already within bounds are never upscaled.
	Optimize(r io.Reader, propertyID uuid.UUID, index int, originalName string) (*OptimizedImage, error)
}

type imageOptimizer struct {
	store   *storage.Store
	maxDim  int
	quality int
}

func NewImageOptimizer(store *storage.Store) ImageOptimizer {
	return &imageOptimizer{
		store:   store,
		maxDim:  constants.MaxImageDimension,
		quality: constants.JpegQuality,
	}
}

func (o *imageOptimizer) Optimize(r io.Reader, propertyID uuid.UUID, index int, originalName string) (*OptimizedImage, error) {
	src, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding image %q: %w", originalName, err)
	}

	bounds := src.Bounds()
	if bounds.Dx() > o.maxDim || bounds.Dy() > o.maxDim {
		src = imaging.Fit(src, o.maxDim, o.maxDim, imaging.Lanczos)
	}

	ext := fallbackExt(originalName)
	base := fmt.Sprintf("%s_%d_%s", propertyID, index, utils.RandomString(8))
	out := &OptimizedImage{
		FallbackName: base + "." + ext,
		WebpName:     base + ".webp",
	}

	if err := o.store.Stage(out.FallbackName, func(w io.Writer) error {
		return encodeFallback(w, src, ext, o.quality)
	}); err != nil {
		return nil, err
	}

	if err := o.store.Stage(out.WebpName, func(w io.Writer) error {
		return webp.Encode(w, src, &webp.Options{Quality: float32(o.quality)})
	}); err != nil {
		o.store.DiscardStaged(out.FallbackName)
		return nil, err
	}

	return out, nil
}

// fallbackExt keeps png uploads as png (transparency) and funnels
// everything else, including webp originals, into jpeg.
func fallbackExt(originalName string) string {
	switch strings.TrimPrefix(strings.ToLower(filepath.Ext(originalName)), ".") {
	case "png":
		return "png"
	default:
		return "jpg"
	}
}

func encodeFallback(w io.Writer, img image.Image, ext string, quality int) error {
	switch ext {
	case "png":
		return imaging.Encode(w, img, imaging.PNG)
	default:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	}
}
