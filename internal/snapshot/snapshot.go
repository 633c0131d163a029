// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package snapshot renders the page to a PNG: gradient background, the
// ringed circle and the coordinates. The share control is never drawn.
package snapshot

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/gogpu/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/relabs-tech/whereiam/internal/geo"
	"github.com/relabs-tech/whereiam/internal/view"
)

const (
	DefaultWidth  = 1200
	DefaultHeight = 630

	ringWidth    = 8.0
	circleFactor = 0.8 // circle diameter relative to the shorter side
	lineSpacing  = 18
)

// Options size the snapshot. Square drops the outer container and crops to
// the circle.
type Options struct {
	Width  int
	Height int
	Square bool
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	return o
}

// Render encodes the snapshot of st as PNG.
func Render(w io.Writer, st view.State, opts Options) error {
	img, err := Image(st, opts)
	if err != nil {
		return err
	}
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}

// Image draws the snapshot of st.
func Image(st view.State, opts Options) (*image.RGBA, error) {
	opts = opts.withDefaults()
	w, h := float64(opts.Width), float64(opts.Height)

	dc := gg.NewContext(opts.Width, opts.Height)
	defer dc.Close()

	if st.HasPosition() {
		c1, c2 := geo.Colors(*st.Position)
		x0, y0, x1, y1 := gradientLine(geo.GradientAngle(*st.Position), w, h)
		dc.SetFillBrush(gg.NewLinearGradientBrush(x0, y0, x1, y1).
			AddColorStop(0, gg.Hex(c1)).
			AddColorStop(1, gg.Hex(c2)))
	} else {
		dc.SetRGB(0, 0, 0)
	}
	dc.DrawRectangle(0, 0, w, h)
	if err := dc.Fill(); err != nil {
		return nil, fmt.Errorf("fill background: %w", err)
	}

	cx, cy := w/2, h/2
	radius := math.Min(w, h) * circleFactor / 2
	dc.SetRGB(1, 1, 1)
	dc.SetLineWidth(ringWidth)
	dc.DrawCircle(cx, cy, radius)
	if err := dc.Stroke(); err != nil {
		return nil, fmt.Errorf("stroke circle: %w", err)
	}

	bounds := image.Rect(0, 0, opts.Width, opts.Height)
	img := image.NewRGBA(bounds)
	draw.Draw(img, bounds, dc.Image(), image.Point{}, draw.Src)

	drawText(img, textLines(st), int(cx), int(cy))

	if !opts.Square {
		return img, nil
	}
	half := int(math.Ceil(radius + ringWidth/2))
	crop := image.Rect(int(cx)-half, int(cy)-half, int(cx)+half, int(cy)+half).Intersect(bounds)
	out := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	draw.Draw(out, out.Bounds(), img, crop.Min, draw.Src)
	return out, nil
}

// gradientLine follows CSS linear-gradient geometry: 0deg points up, 90deg
// right, and the line is long enough for the corners to hit the end stops.
func gradientLine(angleDeg, w, h float64) (x0, y0, x1, y1 float64) {
	rad := angleDeg * math.Pi / 180
	dx, dy := math.Sin(rad), -math.Cos(rad)
	half := (math.Abs(w*dx) + math.Abs(h*dy)) / 2
	cx, cy := w/2, h/2
	return cx - dx*half, cy - dy*half, cx + dx*half, cy + dy*half
}

func textLines(st view.State) []string {
	if st.HasPosition() {
		return []string{st.Latitude, st.Longitude}
	}
	return []string{st.Message}
}

// drawText centres lines on (cx, cy) in white with a 1px black shadow.
func drawText(dst draw.Image, lines []string, cx, cy int) {
	face := basicfont.Face7x13
	top := cy - (len(lines)*lineSpacing)/2 + face.Ascent

	for i, line := range lines {
		width := font.MeasureString(face, line).Round()
		x := cx - width/2
		y := top + i*lineSpacing

		for _, pass := range []struct {
			c      color.Color
			offset int
		}{{color.Black, 1}, {color.White, 0}} {
			d := &font.Drawer{
				Dst:  dst,
				Src:  image.NewUniform(pass.c),
				Face: face,
				Dot:  fixed.P(x, y+pass.offset),
			}
			d.DrawString(line)
		}
	}
}
