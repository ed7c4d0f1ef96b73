package valueobjects

import (
	"math"

	pkgerrors "github.com/Rysh-29/Neuromap/pkg/errors"
)

// Zoom limits of the canvas
const (
	MinZoom = 0.1
	MaxZoom = 4.0
)

// Viewport is the pan offset and zoom factor of the visible canvas window.
// X and Y are screen-space translations applied after scaling.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// DefaultViewport returns the origin viewport at zoom 1
func DefaultViewport() Viewport {
	return Viewport{X: 0, Y: 0, Zoom: 1}
}

// NewViewport validates a viewport and clamps its zoom to the canvas limits
func NewViewport(x, y, zoom float64) (Viewport, error) {
	if !isValidCoordinate(x) || !isValidCoordinate(y) {
		return Viewport{}, pkgerrors.NewValidationError("viewport offset must be finite")
	}
	if !isValidCoordinate(zoom) || zoom <= 0 {
		return Viewport{}, pkgerrors.NewValidationError("viewport zoom must be a positive finite number")
	}
	return Viewport{X: x, Y: y, Zoom: math.Min(math.Max(zoom, MinZoom), MaxZoom)}, nil
}

// Validate reports whether the viewport could have been built by NewViewport
func (v Viewport) Validate() error {
	_, err := NewViewport(v.X, v.Y, v.Zoom)
	return err
}

// ToFlow projects a screen point into canvas coordinates
func (v Viewport) ToFlow(screenX, screenY float64) (float64, float64) {
	return (screenX - v.X) / v.Zoom, (screenY - v.Y) / v.Zoom
}

// ToScreen projects a canvas point into screen coordinates
func (v Viewport) ToScreen(flowX, flowY float64) (float64, float64) {
	return flowX*v.Zoom + v.X, flowY*v.Zoom + v.Y
}

// Center returns the canvas coordinates at the middle of the visible window
func (v Viewport) Center(canvas CanvasSize) (float64, float64) {
	return v.ToFlow(canvas.Width/2, canvas.Height/2)
}

// CanvasSize is the pixel size of the visible canvas window
type CanvasSize struct {
	Width  float64 `json:"width" validate:"gt=0"`
	Height float64 `json:"height" validate:"gt=0"`
}

// DefaultCanvasSize is used until a client reports its window size
func DefaultCanvasSize() CanvasSize {
	return CanvasSize{Width: 1280, Height: 800}
}
