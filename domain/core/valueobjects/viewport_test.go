package valueobjects

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewViewport(t *testing.T) {
	tests := []struct {
		name     string
		x, y     float64
		zoom     float64
		wantZoom float64
		wantErr  bool
	}{
		{name: "identity", zoom: 1, wantZoom: 1},
		{name: "zoom clamped low", zoom: 0.01, wantZoom: MinZoom},
		{name: "zoom clamped high", zoom: 12, wantZoom: MaxZoom},
		{name: "zero zoom", zoom: 0, wantErr: true},
		{name: "negative zoom", zoom: -1, wantErr: true},
		{name: "NaN offset", x: math.NaN(), zoom: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vp, err := NewViewport(tt.x, tt.y, tt.zoom)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantZoom, vp.Zoom)
		})
	}
}

func TestViewport_Projection(t *testing.T) {
	vp := Viewport{X: -100, Y: 50, Zoom: 2}

	fx, fy := vp.ToFlow(300, 250)
	assert.Equal(t, 200.0, fx)
	assert.Equal(t, 100.0, fy)

	sx, sy := vp.ToScreen(fx, fy)
	assert.Equal(t, 300.0, sx)
	assert.Equal(t, 250.0, sy)
}

func TestViewport_Center(t *testing.T) {
	cx, cy := DefaultViewport().Center(CanvasSize{Width: 1000, Height: 600})
	assert.Equal(t, 500.0, cx)
	assert.Equal(t, 300.0, cy)

	cx, cy = Viewport{X: 200, Y: -100, Zoom: 0.5}.Center(CanvasSize{Width: 1000, Height: 600})
	assert.Equal(t, 600.0, cx)
	assert.Equal(t, 800.0, cy)
}

func TestNodeID(t *testing.T) {
	created := time.UnixMilli(1700000000123)
	id := NewNodeIDFromTime(created)
	assert.Equal(t, "1700000000123", id.String())
	assert.Equal(t, "1700000000124", id.Next().String())
	assert.Equal(t, "abc-1", MustNodeID("abc").Next().String())

	_, err := NewNodeIDFromString("")
	assert.Error(t, err)
	assert.True(t, NodeID{}.IsZero())
	assert.True(t, MustNodeID("1").Equals(MustNodeID("1")))
}
