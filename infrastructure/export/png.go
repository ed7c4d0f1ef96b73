// Package export renders the mind map to files.
package export

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/Rysh-29/Neuromap/application/ports"
	"github.com/Rysh-29/Neuromap/domain/core/aggregates"
	"github.com/Rysh-29/Neuromap/domain/core/entities"
)

// PNGFileName is the default name of the image export
const PNGFileName = "neuromap-export.png"

// PNGOptions configures PNG rendering
type PNGOptions struct {
	Width  int
	Height int
	// Supersample renders at this multiple of the target size and scales
	// down for smoother edges and text.
	Supersample int
}

// DefaultPNGOptions returns the defaults for PNG rendering
func DefaultPNGOptions() PNGOptions {
	return PNGOptions{
		Width:       1280,
		Height:      800,
		Supersample: 2,
	}
}

// Node box geometry in canvas units
const (
	nodeMinWidth   = 150.0
	nodeMaxWidth   = 320.0
	nodeHeight     = 56.0
	nodePaddingX   = 16.0
	nodeIconSize   = 26.0
	nodeIconGap    = 8.0
	nodeRadius     = 8.0
	nodeBorder     = 2.0
	labelFontSize  = 14.0
	badgeFontSize  = 10.0
	arrowLength    = 10.0
	arrowHalfWidth = 5.0
)

// Colors used in rendering
var (
	colorBackground = color.RGBA{9, 9, 11, 255}      // #09090b
	colorSurface    = color.RGBA{24, 24, 27, 255}    // #18181b
	colorBorder     = color.RGBA{39, 39, 42, 255}    // #27272a
	colorIcon       = color.RGBA{39, 39, 42, 255}    // #27272a
	colorText       = color.RGBA{244, 244, 245, 255} // #f4f4f5
	colorMuted      = color.RGBA{113, 113, 122, 255} // #71717a
	colorEdge       = color.RGBA{82, 82, 91, 255}    // #52525b
)

// PNGRenderer draws the visible part of the canvas, as seen through the
// stored viewport, onto a dark background.
type PNGRenderer struct {
	opts PNGOptions
	font *opentype.Font
}

var _ ports.Renderer = (*PNGRenderer)(nil)

// NewPNGRenderer creates a renderer using the Go Regular font
func NewPNGRenderer(opts PNGOptions) (*PNGRenderer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("png export: invalid size %dx%d", opts.Width, opts.Height)
	}
	if opts.Supersample < 1 {
		opts.Supersample = 1
	}

	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("png export: parse font: %w", err)
	}
	return &PNGRenderer{opts: opts, font: fnt}, nil
}

// Format implements ports.Renderer
func (r *PNGRenderer) Format() string { return "png" }

// FileName implements ports.Renderer
func (r *PNGRenderer) FileName() string { return PNGFileName }

// ContentType implements ports.Renderer
func (r *PNGRenderer) ContentType() string { return "image/png" }

// renderContext holds the target image and the canvas-to-pixel transform
type renderContext struct {
	img   *image.RGBA
	scale float64 // pixels per canvas unit
	offX  float64
	offY  float64
	label font.Face
	badge font.Face
}

func (c *renderContext) toPixel(x, y float64) (float64, float64) {
	return x*c.scale + c.offX, y*c.scale + c.offY
}

// nodeBox is a node laid out in canvas units
type nodeBox struct {
	node  *entities.Node
	x, y  float64
	w, h  float64
	label string
}

// Render implements ports.Renderer
func (r *PNGRenderer) Render(ctx context.Context, data aggregates.SavedMapData, w io.Writer) error {
	ss := float64(r.opts.Supersample)
	zoom := data.Viewport.Zoom
	if zoom <= 0 {
		zoom = 1
	}

	measure, err := r.face(labelFontSize)
	if err != nil {
		return err
	}
	defer measure.Close()

	boxes := make(map[string]nodeBox, len(data.Nodes))
	order := make([]nodeBox, 0, len(data.Nodes))
	for _, n := range data.Nodes {
		box := layoutNode(n, measure)
		boxes[n.ID.String()] = box
		order = append(order, box)
	}

	large := image.NewRGBA(image.Rect(0, 0, r.opts.Width*r.opts.Supersample, r.opts.Height*r.opts.Supersample))
	draw.Draw(large, large.Bounds(), image.NewUniform(colorBackground), image.Point{}, draw.Src)

	labelFace, err := r.face(labelFontSize * zoom * ss)
	if err != nil {
		return err
	}
	defer labelFace.Close()
	badgeFace, err := r.face(badgeFontSize * zoom * ss)
	if err != nil {
		return err
	}
	defer badgeFace.Close()

	rc := &renderContext{
		img:   large,
		scale: zoom * ss,
		offX:  data.Viewport.X * ss,
		offY:  data.Viewport.Y * ss,
		label: labelFace,
		badge: badgeFace,
	}

	for _, e := range data.Edges {
		if err := ctx.Err(); err != nil {
			return err
		}
		src, okSrc := boxes[e.Source.String()]
		dst, okDst := boxes[e.Target.String()]
		if !okSrc || !okDst {
			continue
		}
		drawEdge(rc, src, dst, e)
	}

	for _, box := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		drawNode(rc, box)
	}

	final := image.NewRGBA(image.Rect(0, 0, r.opts.Width, r.opts.Height))
	draw.CatmullRom.Scale(final, final.Bounds(), large, large.Bounds(), draw.Over, nil)

	return png.Encode(w, final)
}

func (r *PNGRenderer) face(size float64) (font.Face, error) {
	face, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    math.Max(size, 1),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("png export: font face: %w", err)
	}
	return face, nil
}

// layoutNode sizes a node box around its label like the canvas does
func layoutNode(n *entities.Node, measure font.Face) nodeBox {
	label := n.DisplayLabel()
	textRoom := nodeMaxWidth - 2*nodePaddingX - nodeIconSize - nodeIconGap
	label = truncate(label, measure, textRoom)

	width := float64(font.MeasureString(measure, label).Ceil()) + 2*nodePaddingX + nodeIconSize + nodeIconGap
	width = math.Min(math.Max(width, nodeMinWidth), nodeMaxWidth)

	return nodeBox{
		node:  n,
		x:     n.Position.X(),
		y:     n.Position.Y(),
		w:     width,
		h:     nodeHeight,
		label: label,
	}
}

// truncate shortens text with an ellipsis until it fits maxWidth
func truncate(text string, face font.Face, maxWidth float64) string {
	if float64(font.MeasureString(face, text).Ceil()) <= maxWidth {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := strings.TrimSpace(string(runes)) + "…"
		if float64(font.MeasureString(face, candidate).Ceil()) <= maxWidth {
			return candidate
		}
	}
	return "…"
}

// drawEdge draws a line from the bottom handle of src to the top handle of
// dst, with a closed arrow head at dst.
func drawEdge(rc *renderContext, src, dst nodeBox, e *entities.Edge) {
	x1, y1 := rc.toPixel(src.x+src.w/2, src.y+src.h)
	x2, y2 := rc.toPixel(dst.x+dst.w/2, dst.y)

	stroke := parseHexColor(e.Style.Stroke, colorEdge)
	width := e.Style.StrokeWidth
	if width <= 0 {
		width = 2
	}
	thickness := width * rc.scale
	drawLine(rc.img, x1, y1, x2, y2, thickness, stroke)

	if e.MarkerEnd.Type == "" {
		return
	}
	head := parseHexColor(e.MarkerEnd.Color, stroke)
	drawArrowHead(rc, x1, y1, x2, y2, head, e.MarkerEnd.Type == entities.MarkerArrowClosed, thickness)
}

// drawNode draws the rounded box, icon, label and notes badge of a node
func drawNode(rc *renderContext, box nodeBox) {
	x, y := rc.toPixel(box.x, box.y)
	w, h := box.w*rc.scale, box.h*rc.scale
	radius := nodeRadius * rc.scale
	border := nodeBorder * rc.scale

	b := rc.img.Bounds()
	if x+w < float64(b.Min.X) || x > float64(b.Max.X) || y+h < float64(b.Min.Y) || y > float64(b.Max.Y) {
		return
	}

	fillRoundedRect(rc.img, x, y, w, h, radius, colorBorder)
	fillRoundedRect(rc.img, x+border, y+border, w-2*border, h-2*border, math.Max(radius-border, 0), colorSurface)

	iconX := x + nodePaddingX*rc.scale
	iconY := y + (h-nodeIconSize*rc.scale)/2
	fillRoundedRect(rc.img, iconX, iconY, nodeIconSize*rc.scale, nodeIconSize*rc.scale, 4*rc.scale, colorIcon)
	drawDocumentGlyph(rc, iconX, iconY, nodeIconSize*rc.scale)

	textX := iconX + (nodeIconSize+nodeIconGap)*rc.scale
	if box.node.HasNotes() {
		drawText(rc.img, rc.label, textX, y+h*0.45, box.label, colorText)
		drawText(rc.img, rc.badge, textX, y+h*0.78, "HAS NOTES", colorMuted)
	} else {
		drawText(rc.img, rc.label, textX, y+h*0.62, box.label, colorText)
	}
}

// drawDocumentGlyph draws a small page outline inside the node icon
func drawDocumentGlyph(rc *renderContext, x, y, size float64) {
	stroke := math.Max(rc.scale*1.2, 1)
	left, right := x+size*0.32, x+size*0.68
	top, bottom := y+size*0.25, y+size*0.75
	drawLine(rc.img, left, top, right, top, stroke, colorMuted)
	drawLine(rc.img, right, top, right, bottom, stroke, colorMuted)
	drawLine(rc.img, right, bottom, left, bottom, stroke, colorMuted)
	drawLine(rc.img, left, bottom, left, top, stroke, colorMuted)
	for _, f := range []float64{0.42, 0.52, 0.62} {
		drawLine(rc.img, left+size*0.08, y+size*f, right-size*0.08, y+size*f, stroke*0.8, colorMuted)
	}
}

// drawText draws text with its baseline at y
func drawText(img *image.RGBA, face font.Face, x, y float64, text string, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(int(x)), Y: fixed.I(int(y))},
	}
	d.DrawString(text)
}

// drawLine draws a line between two points with the given thickness
func drawLine(img *image.RGBA, x1, y1, x2, y2, thickness float64, c color.Color) {
	dx := x2 - x1
	dy := y2 - y1
	dist := math.Sqrt(dx*dx + dy*dy)
	halfThick := thickness / 2

	if dist < 1 {
		for ty := -halfThick; ty <= halfThick; ty++ {
			for tx := -halfThick; tx <= halfThick; tx++ {
				img.Set(int(x1+tx), int(y1+ty), c)
			}
		}
		return
	}

	perpX := -dy / dist
	perpY := dx / dist

	// Step only the part of the segment that can touch the image.
	b := img.Bounds()
	pad := halfThick + 1
	x1, y1, x2, y2, ok := clipSegment(x1, y1, x2, y2,
		float64(b.Min.X)-pad, float64(b.Min.Y)-pad, float64(b.Max.X)+pad, float64(b.Max.Y)+pad)
	if !ok {
		return
	}
	dx = x2 - x1
	dy = y2 - y1

	steps := math.Max(math.Max(math.Abs(dx), math.Abs(dy)), 1)
	for i := 0.0; i <= steps; i++ {
		t := i / steps
		cx := x1 + dx*t
		cy := y1 + dy*t
		for offset := -halfThick; offset <= halfThick; offset += 0.5 {
			img.Set(int(cx+perpX*offset), int(cy+perpY*offset), c)
		}
	}
}

// clipSegment clips the segment to the rectangle using Liang-Barsky. It
// reports false when no part of the segment lies inside.
func clipSegment(x1, y1, x2, y2, minX, minY, maxX, maxY float64) (float64, float64, float64, float64, bool) {
	dx := x2 - x1
	dy := y2 - y1
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, x1 - minX},
		{dx, maxX - x1},
		{-dy, y1 - minY},
		{dy, maxY - y1},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = math.Max(t0, r)
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = math.Min(t1, r)
		}
	}
	return x1 + t0*dx, y1 + t0*dy, x1 + t1*dx, y1 + t1*dy, true
}

// drawArrowHead draws an arrow head at (x2, y2) pointing away from (x1, y1)
func drawArrowHead(rc *renderContext, x1, y1, x2, y2 float64, c color.Color, closed bool, thickness float64) {
	dx := x2 - x1
	dy := y2 - y1
	dist := math.Sqrt(dx*dx + dy*dy)
	if dist < 1 {
		return
	}

	nx := dx / dist
	ny := dy / dist
	length := arrowLength * rc.scale
	half := arrowHalfWidth * rc.scale

	ax1 := x2 - nx*length + ny*half
	ay1 := y2 - ny*length - nx*half
	ax2 := x2 - nx*length - ny*half
	ay2 := y2 - ny*length + nx*half

	drawLine(rc.img, x2, y2, ax1, ay1, thickness, c)
	drawLine(rc.img, x2, y2, ax2, ay2, thickness, c)
	if !closed {
		return
	}
	for t := 0.0; t <= 1.0; t += 0.05 {
		drawLine(rc.img, x2, y2, ax1+(ax2-ax1)*t, ay1+(ay2-ay1)*t, thickness, c)
	}
}

// fillRoundedRect fills a rectangle with rounded corners, clipped to the image
func fillRoundedRect(img *image.RGBA, x, y, w, h, r float64, c color.Color) {
	if w <= 0 || h <= 0 {
		return
	}
	r = math.Min(r, math.Min(w, h)/2)

	b := img.Bounds()
	minX := int(math.Max(math.Floor(x), float64(b.Min.X)))
	maxX := int(math.Min(math.Ceil(x+w), float64(b.Max.X)))
	minY := int(math.Max(math.Floor(y), float64(b.Min.Y)))
	maxY := int(math.Min(math.Ceil(y+h), float64(b.Max.Y)))

	for py := minY; py < maxY; py++ {
		fy := float64(py) + 0.5
		for px := minX; px < maxX; px++ {
			fx := float64(px) + 0.5
			if insideRoundedRect(fx, fy, x, y, w, h, r) {
				img.Set(px, py, c)
			}
		}
	}
}

func insideRoundedRect(px, py, x, y, w, h, r float64) bool {
	if px < x || px > x+w || py < y || py > y+h {
		return false
	}
	cx := math.Min(math.Max(px, x+r), x+w-r)
	cy := math.Min(math.Max(py, y+r), y+h-r)
	dx, dy := px-cx, py-cy
	return dx*dx+dy*dy <= r*r
}

// parseHexColor parses #rgb or #rrggbb, returning fallback when s is not a hex color
func parseHexColor(s string, fallback color.RGBA) color.RGBA {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return fallback
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fallback
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}
