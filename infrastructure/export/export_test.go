package export

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/Rysh-29/Neuromap/domain/core/aggregates"
	"github.com/Rysh-29/Neuromap/domain/core/entities"
	"github.com/Rysh-29/Neuromap/domain/core/valueobjects"
)

func sampleMap(t *testing.T) aggregates.SavedMapData {
	t.Helper()
	seed := aggregates.SeedNode()
	pos, err := valueobjects.NewPosition(250, 400)
	require.NoError(t, err)
	child, err := entities.NewNode(valueobjects.MustNodeID("2"), pos, entities.NodeData{
		Label:   "Mitochondria",
		Content: "<p>The <strong>powerhouse</strong> of the cell</p><ul><li>ATP</li></ul>",
		Tags:    []string{"biology"},
	})
	require.NoError(t, err)
	empty, err := entities.NewNode(valueobjects.MustNodeID("3"), pos, entities.NodeData{Label: "", Content: "<p><br></p>"})
	require.NoError(t, err)
	edge, err := entities.NewEdge(seed.ID, child.ID)
	require.NoError(t, err)

	return aggregates.SavedMapData{
		Nodes:    []*entities.Node{seed, child, empty},
		Edges:    []*entities.Edge{edge},
		Viewport: valueobjects.DefaultViewport(),
	}
}

func TestPNGRenderer_Render(t *testing.T) {
	r, err := NewPNGRenderer(PNGOptions{Width: 480, Height: 360, Supersample: 2})
	require.NoError(t, err)
	assert.Equal(t, "png", r.Format())
	assert.Equal(t, "neuromap-export.png", r.FileName())

	var buf bytes.Buffer
	require.NoError(t, r.Render(context.Background(), sampleMap(t), &buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 480, img.Bounds().Dx())
	assert.Equal(t, 360, img.Bounds().Dy())

	// A corner far from every node keeps the background colour.
	bg := color.RGBAModel.Convert(img.At(2, 2)).(color.RGBA)
	assert.InDelta(t, 9, int(bg.R), 1)
	assert.InDelta(t, 9, int(bg.G), 1)
	assert.InDelta(t, 11, int(bg.B), 1)

	// The seed node box covers (250,250)-(400,306) at zoom 1.
	inside := color.RGBAModel.Convert(img.At(380, 300)).(color.RGBA)
	assert.Greater(t, int(inside.R), 15)
}

func TestPNGRenderer_FarOffCanvasNode(t *testing.T) {
	r, err := NewPNGRenderer(PNGOptions{Width: 320, Height: 240, Supersample: 2})
	require.NoError(t, err)

	seed := aggregates.SeedNode()
	pos, err := valueobjects.NewPosition(1e8, 100)
	require.NoError(t, err)
	far, err := entities.NewNode(valueobjects.MustNodeID("2"), pos, entities.NodeData{Label: "Far away"})
	require.NoError(t, err)
	edge, err := entities.NewEdge(seed.ID, far.ID)
	require.NoError(t, err)
	data := aggregates.SavedMapData{
		Nodes:    []*entities.Node{seed, far},
		Edges:    []*entities.Edge{edge},
		Viewport: valueobjects.DefaultViewport(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	start := time.Now()
	var buf bytes.Buffer
	require.NoError(t, r.Render(ctx, data, &buf))
	assert.Less(t, time.Since(start), 2*time.Second)

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
}

func TestClipSegment(t *testing.T) {
	x1, y1, x2, y2, ok := clipSegment(-100, 50, 1e9, 50, 0, 0, 200, 100)
	require.True(t, ok)
	assert.InDelta(t, 0, x1, 1e-6)
	assert.InDelta(t, 50, y1, 1e-6)
	assert.InDelta(t, 200, x2, 1e-3)
	assert.InDelta(t, 50, y2, 1e-6)

	x1, y1, x2, y2, ok = clipSegment(10, 10, 20, 30, 0, 0, 200, 100)
	require.True(t, ok, "inside segment is kept")
	assert.Equal(t, []float64{10, 10, 20, 30}, []float64{x1, y1, x2, y2})

	_, _, _, _, ok = clipSegment(-50, -10, 500, -10, 0, 0, 200, 100)
	assert.False(t, ok, "segment above the rectangle")

	_, _, _, _, ok = clipSegment(300, 0, 400, 100, 0, 0, 200, 100)
	assert.False(t, ok, "segment right of the rectangle")
}

func TestPNGRenderer_InvalidOptions(t *testing.T) {
	_, err := NewPNGRenderer(PNGOptions{Width: 0, Height: 10})
	assert.Error(t, err)
}

func TestPNGRenderer_CancelledContext(t *testing.T) {
	r, err := NewPNGRenderer(PNGOptions{Width: 64, Height: 64})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = r.Render(ctx, sampleMap(t), &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTruncate(t *testing.T) {
	fnt, err := opentype.Parse(goregular.TTF)
	require.NoError(t, err)
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{Size: 14, DPI: 72})
	require.NoError(t, err)
	defer face.Close()

	assert.Equal(t, "short", truncate("short", face, 200))
	long := truncate("an extremely long concept label that cannot fit in the box", face, 80)
	assert.True(t, len([]rune(long)) < 20)
	assert.Contains(t, long, "…")
}

func TestParseHexColor(t *testing.T) {
	assert.Equal(t, colorEdge, parseHexColor("#52525b", colorText))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, parseHexColor("#fff", colorEdge), "expands short form")
	assert.Equal(t, colorEdge, parseHexColor("purple", colorEdge))
}

func TestMarkdownRenderer_Render(t *testing.T) {
	r := NewMarkdownRenderer("", nil)
	assert.Equal(t, "neuromap-export.md", r.FileName())

	var buf bytes.Buffer
	require.NoError(t, r.Render(context.Background(), sampleMap(t), &buf))
	out := buf.String()

	assert.Contains(t, out, "# NeuroMap\n")
	assert.Contains(t, out, "## Central Concept\n\nStart typing your notes here...")
	assert.Contains(t, out, "## Mitochondria")
	assert.Contains(t, out, "**powerhouse**")
	assert.Contains(t, out, "_Tags: biology_")
	assert.Contains(t, out, "## Untitled Concept\n")
	assert.NotContains(t, out, "<p>")
	assert.Contains(t, out, "## Connections\n\n- Central Concept → Mitochondria\n")
}
