// VinylVault - Vinyl Collection Intelligence and Cover Art Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vinylvault

package imagecache

import (
	"bytes"
	"fmt"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"

	// WebP covers are common on release databases; decode support only.
	_ "golang.org/x/image/webp"
)

// processor normalizes downloaded cover art: decode any supported format,
// bound to the size class dimensions preserving aspect ratio, flatten
// transparency onto white and re-encode as JPEG.
type processor struct {
	thumbnailPx int
	detailPx    int
	quality     int
}

func newProcessor(thumbnailPx, detailPx, quality int) *processor {
	return &processor{
		thumbnailPx: thumbnailPx,
		detailPx:    detailPx,
		quality:     quality,
	}
}

// targetPx returns the bounding box edge for a size class.
func (p *processor) targetPx(class SizeClass) (int, error) {
	switch class {
	case SizeThumbnail:
		return p.thumbnailPx, nil
	case SizeDetail:
		return p.detailPx, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidSizeClass, class)
	}
}

// process converts raw downloaded bytes into the stored JPEG representation.
// Images already smaller than the target box are not upscaled.
func (p *processor) process(raw []byte, class SizeClass) ([]byte, error) {
	px, err := p.targetPx(class)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > px || bounds.Dy() > px {
		img = imaging.Fit(img, px, px, imaging.Lanczos)
	}

	// JPEG has no alpha channel; composite onto white.
	flat := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.White)
	draw.Draw(flat, flat.Bounds(), img, img.Bounds().Min, draw.Over)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// placeholder renders the fallback cover: a stylized vinyl record, dark disc
// with concentric grooves and a label-colored center, on a neutral square.
func (p *processor) placeholder(px int) ([]byte, error) {
	img := imaging.New(px, px, color.NRGBA{R: 0x2b, G: 0x2b, B: 0x2b, A: 0xff})

	cx, cy := px/2, px/2
	disc := px/2 - px/20
	drawCircle(img, cx, cy, disc, color.NRGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xff})

	// Grooves: thin lighter rings at even spacing.
	groove := color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
	for r := disc - px/25; r > px/6; r -= px / 25 {
		drawRing(img, cx, cy, r, maxInt(1, px/150), groove)
	}

	label := px / 7
	drawCircle(img, cx, cy, label, color.NRGBA{R: 0xc0, G: 0x6c, B: 0x3a, A: 0xff})
	drawCircle(img, cx, cy, maxInt(1, px/60), color.NRGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xff})

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
		return nil, fmt.Errorf("encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}

// drawCircle fills a solid circle. Plain scanline fill; the placeholder is
// generated once and cached like any other image.
func drawCircle(img draw.Image, cx, cy, r int, c color.Color) {
	rr := r * r
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= rr {
				img.Set(cx+dx, cy+dy, c)
			}
		}
	}
}

// drawRing draws a ring of the given thickness.
func drawRing(img draw.Image, cx, cy, r, thickness int, c color.Color) {
	outer := r * r
	in := r - thickness
	inner := in * in
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			d := dx*dx + dy*dy
			if d <= outer && d >= inner {
				img.Set(cx+dx, cy+dy, c)
			}
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
