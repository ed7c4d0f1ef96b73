package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Rysh-29/Neuromap/domain/core/aggregates"
	"github.com/Rysh-29/Neuromap/domain/core/entities"
	"github.com/Rysh-29/Neuromap/domain/core/valueobjects"
	"github.com/Rysh-29/Neuromap/domain/events"
	"github.com/Rysh-29/Neuromap/infrastructure/scheduler"
	pkgerrors "github.com/Rysh-29/Neuromap/pkg/errors"
	"github.com/Rysh-29/Neuromap/pkg/observability"
)

var testNow = time.UnixMilli(1700000000000)

type harness struct {
	controller *CanvasController
	storage    *recordingStorage
	autosave   *manualScheduler
	clock      *time.Time
}

func newHarness(t *testing.T, opts ...ControllerOption) *harness {
	t.Helper()

	now := testNow
	h := &harness{
		storage:  &recordingStorage{},
		autosave: &manualScheduler{},
		clock:    &now,
	}
	clock := func() time.Time {
		*h.clock = h.clock.Add(time.Millisecond)
		return *h.clock
	}

	diagram := aggregates.NewDiagram(
		aggregates.WithClock(clock),
		aggregates.WithRandom(func() float64 { return 0.5 }),
	)
	base := []ControllerOption{
		WithDiagram(diagram),
		WithControllerClock(clock),
		WithCanvasSize(valueobjects.CanvasSize{Width: 1000, Height: 600}),
	}
	h.controller = NewCanvasController(h.storage, h.autosave, zap.NewNop(), append(base, opts...)...)
	return h
}

func (h *harness) init(t *testing.T) {
	t.Helper()
	h.controller.Initialize(context.Background())
}

func nodeIDs(nodes []*entities.Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID.String()
	}
	return ids
}

func TestCanvasController_InitializeSeedsEmptyStorage(t *testing.T) {
	h := newHarness(t)
	h.init(t)

	view := h.controller.Map()
	require.Len(t, view.Nodes, 1)
	assert.Equal(t, aggregates.SeedNodeLabel, view.Nodes[0].Data.Label)
	assert.Empty(t, view.Edges)
	assert.Equal(t, valueobjects.DefaultViewport(), view.Viewport)
	assert.Nil(t, view.SelectedNodeID)

	require.True(t, h.controller.Flush())
	assert.Equal(t, 1, h.storage.saveCount())
	assert.Equal(t, []string{"1"}, nodeIDs(h.storage.lastSave().Nodes))
}

func TestCanvasController_InitializeRestoresSavedMap(t *testing.T) {
	h := newHarness(t)
	saved := aggregates.SavedMapData{
		Nodes:    []*entities.Node{aggregates.SeedNode()},
		Edges:    []*entities.Edge{},
		Viewport: valueobjects.Viewport{X: 120, Y: -30, Zoom: 2},
	}
	h.storage.stored = &saved

	h.init(t)

	view := h.controller.Map()
	assert.Equal(t, saved.Viewport, view.Viewport)
	assert.Equal(t, []string{"1"}, nodeIDs(view.Nodes))
	assert.False(t, h.autosave.pending(), "restoring does not rewrite the same snapshot")
}

func TestCanvasController_AddNodeUsesViewportCentre(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	require.NoError(t, h.controller.SetViewport(valueobjects.Viewport{X: -100, Y: 50, Zoom: 2}))

	node, err := h.controller.AddNode()
	require.NoError(t, err)

	// ((100 + 500) / 2 + 25, (-50 + 300) / 2 + 25)
	assert.InDelta(t, 325, node.Position.X(), 1e-9)
	assert.InDelta(t, 150, node.Position.Y(), 1e-9)
	assert.Equal(t, entities.NewNodeLabel, node.Data.Label)
	assert.Equal(t, &node.ID, h.controller.Map().SelectedNodeID)
}

func TestCanvasController_DebounceCoalescesBursts(t *testing.T) {
	storage := &recordingStorage{}
	controller := NewCanvasController(storage, scheduler.NewDebouncer(30*time.Millisecond), zap.NewNop())
	controller.Initialize(context.Background())

	for i := 0; i < 5; i++ {
		_, err := controller.AddNode()
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool { return storage.saveCount() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, storage.saveCount(), "one write for the whole burst")
	assert.Len(t, storage.lastSave().Nodes, 6, "the write holds the final state")
}

func TestCanvasController_SelectionDoesNotTriggerSave(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	h.controller.Flush()
	scheduled := h.autosave.scheduled

	seed := valueobjects.MustNodeID("1")
	require.NoError(t, h.controller.SelectNode(&seed))
	require.NoError(t, h.controller.SelectNode(nil))

	assert.Equal(t, scheduled, h.autosave.scheduled)
	assert.False(t, h.autosave.pending())
}

func TestCanvasController_SelectUnknownNode(t *testing.T) {
	h := newHarness(t)
	h.init(t)

	ghost := valueobjects.MustNodeID("ghost")
	err := h.controller.SelectNode(&ghost)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestCanvasController_AutoSaveSkippedWithoutNodes(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	h.controller.Flush()

	assert.True(t, h.controller.DeleteNode(valueobjects.MustNodeID("1")))

	assert.False(t, h.autosave.pending())
	assert.False(t, h.controller.Flush())
	assert.Equal(t, 1, h.storage.saveCount(), "the last non-empty snapshot stays stored")
}

func TestCanvasController_UpdateNode(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	label := "Photosynthesis"

	changed, err := h.controller.UpdateNode(valueobjects.MustNodeID("1"), entities.NodeDataPatch{Label: &label})
	require.NoError(t, err)
	assert.True(t, changed)
	node, _ := h.controller.Node(valueobjects.MustNodeID("1"))
	assert.Equal(t, label, node.Data.Label)
	assert.Equal(t, aggregates.SeedNodeContent, node.Data.Content, "content untouched")

	t.Run("unknown id is a no-op", func(t *testing.T) {
		before := h.controller.Map()
		found, err := h.controller.UpdateNode(valueobjects.MustNodeID("404"), entities.NodeDataPatch{Label: &label})
		require.NoError(t, err)
		assert.False(t, found)
		assert.Equal(t, before, h.controller.Map())
	})

	t.Run("too long", func(t *testing.T) {
		long := string(bytes.Repeat([]byte("a"), 501))
		_, err := h.controller.UpdateNode(valueobjects.MustNodeID("1"), entities.NodeDataPatch{Label: &long})
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("limit counts characters not bytes", func(t *testing.T) {
		accented := strings.Repeat("é", 300)
		changed, err := h.controller.UpdateNode(valueobjects.MustNodeID("1"), entities.NodeDataPatch{Label: &accented})
		require.NoError(t, err)
		assert.True(t, changed)
		node, _ := h.controller.Node(valueobjects.MustNodeID("1"))
		assert.Equal(t, accented, node.Data.Label)

		tooMany := strings.Repeat("é", 501)
		_, err = h.controller.UpdateNode(valueobjects.MustNodeID("1"), entities.NodeDataPatch{Label: &tooMany})
		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestCanvasController_MoveNode(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	pos, err := valueobjects.NewPosition(10, 20)
	require.NoError(t, err)

	assert.True(t, h.controller.MoveNode(valueobjects.MustNodeID("1"), pos))
	assert.False(t, h.controller.MoveNode(valueobjects.MustNodeID("404"), pos))

	node, _ := h.controller.Node(valueobjects.MustNodeID("1"))
	assert.True(t, node.Position.Equals(pos))
}

func TestCanvasController_Scenario(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	seed := valueobjects.MustNodeID("1")

	added, err := h.controller.AddNode()
	require.NoError(t, err)
	edge, err := h.controller.Connect(seed, added.ID)
	require.NoError(t, err)
	require.True(t, h.controller.Flush())

	saved := h.storage.lastSave()
	assert.Equal(t, []string{"1", added.ID.String()}, nodeIDs(saved.Nodes))
	require.Len(t, saved.Edges, 1)
	assert.Equal(t, edge.ID, saved.Edges[0].ID)

	action, err := h.controller.RequestDeleteNode(added.ID)
	require.NoError(t, err)
	assert.Len(t, h.controller.Map().Nodes, 2, "nothing deleted before confirmation")

	_, err = h.controller.Confirm(context.Background(), action.Token)
	require.NoError(t, err)

	view := h.controller.Map()
	assert.Equal(t, []string{"1"}, nodeIDs(view.Nodes))
	assert.Empty(t, view.Edges, "incident edges removed with the node")
	assert.Nil(t, view.SelectedNodeID)
}

func TestCanvasController_ConnectUnknownEndpoint(t *testing.T) {
	h := newHarness(t)
	h.init(t)

	_, err := h.controller.Connect(valueobjects.MustNodeID("1"), valueobjects.MustNodeID("404"))
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.Empty(t, h.controller.Map().Edges)
}

func TestCanvasController_RemoveEdge(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	seed := valueobjects.MustNodeID("1")
	edge, err := h.controller.Connect(seed, seed)
	require.NoError(t, err)

	assert.True(t, h.controller.RemoveEdge(edge.ID))
	assert.False(t, h.controller.RemoveEdge(edge.ID))
	assert.Empty(t, h.controller.Map().Edges)
}

func TestCanvasController_ClearAll(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	_, err := h.controller.AddNode()
	require.NoError(t, err)
	require.NoError(t, h.controller.SetViewport(valueobjects.Viewport{X: 5, Y: 5, Zoom: 3}))

	action := h.controller.RequestClear()
	assert.Equal(t, ActionClearAll, action.Kind)
	assert.Len(t, h.controller.Map().Nodes, 2, "nothing cleared before confirmation")

	_, err = h.controller.Confirm(context.Background(), action.Token)
	require.NoError(t, err)
	once := h.controller.Map()

	h.controller.ClearAll(context.Background())
	twice := h.controller.Map()

	assert.Equal(t, []string{"1"}, nodeIDs(once.Nodes))
	assert.Empty(t, once.Edges)
	assert.Equal(t, valueobjects.DefaultViewport(), once.Viewport)
	assert.Equal(t, once, twice, "clearing twice equals clearing once")
	assert.Equal(t, 2, h.storage.clears)
}

func TestCanvasController_ConfirmationTokens(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	ctx := context.Background()

	t.Run("token runs once", func(t *testing.T) {
		action := h.controller.RequestClear()
		_, err := h.controller.Confirm(ctx, action.Token)
		require.NoError(t, err)

		_, err = h.controller.Confirm(ctx, action.Token)
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("cancelled token never runs", func(t *testing.T) {
		_, err := h.controller.AddNode()
		require.NoError(t, err)
		action := h.controller.RequestClear()

		require.NoError(t, h.controller.Cancel(action.Token))
		_, err = h.controller.Confirm(ctx, action.Token)

		assert.True(t, pkgerrors.IsNotFound(err))
		assert.Len(t, h.controller.Map().Nodes, 2)
	})

	t.Run("unknown node", func(t *testing.T) {
		_, err := h.controller.RequestDeleteNode(valueobjects.MustNodeID("404"))
		assert.True(t, pkgerrors.IsNotFound(err))
	})
}

func TestCanvasController_SetViewport(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	h.controller.Flush()

	err := h.controller.SetViewport(valueobjects.Viewport{X: 0, Y: 0, Zoom: -1})
	assert.True(t, pkgerrors.IsValidation(err))

	require.NoError(t, h.controller.SetViewport(valueobjects.Viewport{X: 1, Y: 2, Zoom: 10}))
	assert.Equal(t, valueobjects.MaxZoom, h.controller.Map().Viewport.Zoom)
	assert.True(t, h.autosave.pending(), "viewport changes are persisted")

	assert.True(t, pkgerrors.IsValidation(h.controller.SetCanvasSize(valueobjects.CanvasSize{})))
}

func TestCanvasController_Subscribers(t *testing.T) {
	h := newHarness(t)
	h.init(t)

	var received []string
	h.controller.Subscribe(func(evts []events.DomainEvent) {
		for _, e := range evts {
			received = append(received, e.GetEventType())
		}
	})

	_, err := h.controller.AddNode()
	require.NoError(t, err)

	assert.Equal(t, []string{events.TypeNodeAdded, events.TypeSelectionChanged}, received)
}

func TestCanvasController_Metrics(t *testing.T) {
	metrics := observability.NewCollector("test")
	h := newHarness(t, WithMetrics(metrics))
	h.init(t)

	added, err := h.controller.AddNode()
	require.NoError(t, err)
	_, err = h.controller.Connect(valueobjects.MustNodeID("1"), added.ID)
	require.NoError(t, err)
	h.controller.DeleteNode(added.ID)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.NodesCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EdgesCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.NodesDeleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EdgesDeleted))
}

func TestCanvasController_Export(t *testing.T) {
	dir := t.TempDir()
	h := newHarness(t,
		WithRenderers(stubRenderer{format: "txt"}, stubRenderer{format: "bad", err: errors.New("no font")}),
		WithExportDir(dir),
	)
	h.init(t)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, h.controller.Export(ctx, "txt", &buf))
	assert.Equal(t, "nodes:1", buf.String())

	err := h.controller.Export(ctx, "gif", &buf)
	assert.True(t, pkgerrors.IsValidation(err))

	err = h.controller.Export(ctx, "bad", &buf)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeRender))

	path, err := h.controller.ExportAsync("txt")
	require.NoError(t, err)
	h.controller.WaitForExports()
	assert.Equal(t, filepath.Join(dir, "neuromap-export.txt"), path)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "nodes:1", string(content))

	_, err = h.controller.ExportAsync("bad")
	require.NoError(t, err, "render failures are only logged")
	h.controller.WaitForExports()
}
