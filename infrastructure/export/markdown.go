package export

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"go.uber.org/zap"

	"github.com/Rysh-29/Neuromap/application/ports"
	"github.com/Rysh-29/Neuromap/domain/core/aggregates"
	"github.com/Rysh-29/Neuromap/domain/core/entities"
)

// MarkdownFileName is the default name of the notes export
const MarkdownFileName = "neuromap-export.md"

// MarkdownRenderer writes the concepts and their notes as a Markdown
// document, followed by the list of connections.
type MarkdownRenderer struct {
	title  string
	logger *zap.Logger
}

var _ ports.Renderer = (*MarkdownRenderer)(nil)

// NewMarkdownRenderer creates a renderer with the given document title
func NewMarkdownRenderer(title string, logger *zap.Logger) *MarkdownRenderer {
	if title == "" {
		title = "NeuroMap"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarkdownRenderer{title: title, logger: logger}
}

// Format implements ports.Renderer
func (r *MarkdownRenderer) Format() string { return "md" }

// FileName implements ports.Renderer
func (r *MarkdownRenderer) FileName() string { return MarkdownFileName }

// ContentType implements ports.Renderer
func (r *MarkdownRenderer) ContentType() string { return "text/markdown; charset=utf-8" }

// Render implements ports.Renderer
func (r *MarkdownRenderer) Render(ctx context.Context, data aggregates.SavedMapData, w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# %s\n", r.title)

	labels := make(map[string]string, len(data.Nodes))
	for _, n := range data.Nodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		labels[n.ID.String()] = n.DisplayLabel()

		fmt.Fprintf(bw, "\n## %s\n", escapeHeading(n.DisplayLabel()))
		if len(n.Data.Tags) > 0 {
			fmt.Fprintf(bw, "\n_Tags: %s_\n", strings.Join(n.Data.Tags, ", "))
		}
		if !n.HasNotes() {
			continue
		}

		notes, err := r.notes(n)
		if err != nil {
			return err
		}
		if notes != "" {
			fmt.Fprintf(bw, "\n%s\n", notes)
		}
	}

	if len(data.Edges) > 0 {
		fmt.Fprint(bw, "\n## Connections\n\n")
		for _, e := range data.Edges {
			src, okSrc := labels[e.Source.String()]
			dst, okDst := labels[e.Target.String()]
			if !okSrc || !okDst {
				continue
			}
			fmt.Fprintf(bw, "- %s → %s\n", src, dst)
		}
	}

	return bw.Flush()
}

func (r *MarkdownRenderer) notes(n *entities.Node) (string, error) {
	md, err := htmltomarkdown.ConvertString(n.Data.Content)
	if err != nil {
		r.logger.Warn("Failed to convert notes to Markdown",
			zap.String("nodeID", n.ID.String()),
			zap.Error(err),
		)
		return "", fmt.Errorf("markdown export: node %s: %w", n.ID, err)
	}
	return strings.TrimSpace(md), nil
}

// escapeHeading keeps a label on a single heading line
func escapeHeading(label string) string {
	return strings.Join(strings.Fields(label), " ")
}
