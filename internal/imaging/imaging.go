// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging converts uploaded images into web-optimised WebP using
// libvips: square-cropped avatars and width-capped post cover images.
// Images are never upscaled beyond their source dimensions.
package imaging

import (
	"fmt"
	"log/slog"

	"github.com/davidbyttow/govips/v2/vips"
)

const (
	// AvatarSize is the edge length of the square avatar crop.
	AvatarSize = 256

	// CoverWidth is the maximum width of a post cover image.
	CoverWidth = 1600

	webpQuality = 80
)

// ProcessedImage holds one converted image ready for upload.
type ProcessedImage struct {
	Width       int    // Output width in pixels
	Height      int    // Output height in pixels
	Data        []byte // WebP-encoded image bytes
	ContentType string // Always "image/webp"
}

// Startup initialises the libvips library. Call once at application start.
// concurrency controls the number of libvips worker threads (0 = auto).
func Startup(concurrency int) {
	cfg := &vips.Config{
		ConcurrencyLevel: concurrency,
		MaxCacheSize:     100,
		MaxCacheMem:      50 * 1024 * 1024, // 50 MB
	}
	vips.LoggingSettings(nil, vips.LogLevelWarning)
	vips.Startup(cfg)
	slog.Info("libvips started", "version", vips.Version)
}

// Shutdown releases libvips resources. Call at application shutdown.
func Shutdown() {
	vips.Shutdown()
}

// Avatar converts the source image into a square, centre-cropped WebP
// avatar. EXIF orientation is applied and metadata stripped.
func Avatar(original []byte) (*ProcessedImage, error) {
	img, err := vips.NewThumbnailFromBuffer(original, AvatarSize, AvatarSize, vips.InterestingCentre)
	if err != nil {
		return nil, fmt.Errorf("imaging: avatar thumbnail: %w", err)
	}
	defer img.Close()

	if err := img.AutoRotate(); err != nil {
		return nil, fmt.Errorf("imaging: avatar autorotate: %w", err)
	}

	return exportWebp(img, "avatar")
}

// CoverImage converts the source image into a post cover WebP capped at
// CoverWidth, preserving aspect ratio and never upscaling.
func CoverImage(original []byte) (*ProcessedImage, error) {
	probe, err := vips.NewImageFromBuffer(original)
	if err != nil {
		return nil, fmt.Errorf("imaging: probe failed: %w", err)
	}
	origWidth := probe.Width()
	probe.Close()

	targetWidth := CoverWidth
	if origWidth < targetWidth {
		targetWidth = origWidth
	}

	img, err := vips.NewThumbnailFromBuffer(original, targetWidth, 0, vips.InterestingNone)
	if err != nil {
		return nil, fmt.Errorf("imaging: cover thumbnail (%dpx): %w", targetWidth, err)
	}
	defer img.Close()

	if err := img.AutoRotate(); err != nil {
		return nil, fmt.Errorf("imaging: cover autorotate: %w", err)
	}

	return exportWebp(img, "cover")
}

func exportWebp(img *vips.ImageRef, kind string) (*ProcessedImage, error) {
	params := vips.NewWebpExportParams()
	params.Quality = webpQuality
	params.Lossless = false
	params.StripMetadata = true

	buf, meta, err := img.ExportWebp(params)
	if err != nil {
		return nil, fmt.Errorf("imaging: export %s: %w", kind, err)
	}

	return &ProcessedImage{
		Width:       meta.Width,
		Height:      meta.Height,
		Data:        buf,
		ContentType: "image/webp",
	}, nil
}
