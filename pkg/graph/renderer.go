package graph

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/utkarsh5026/tangleview/pkg/layout"
	"github.com/utkarsh5026/tangleview/pkg/render"
	"github.com/utkarsh5026/tangleview/pkg/tangle"
)

// Box drawing characters
const (
	LineVertical   = "│"
	LineHorizontal = "─"
	LineCross      = "┼"

	BranchRight = "┐"
	BranchLeft  = "┌"
	JoinRight   = "┤"
	JoinLeft    = "├"

	MarkerRecord  = "●"
	MarkerJoin    = "◎"
	MarkerGenesis = "◆"
)

var laneColors = []lipgloss.Color{
	lipgloss.Color("#00D7FF"),
	lipgloss.Color("#AF87FF"),
	lipgloss.Color("#00FF87"),
	lipgloss.Color("#FFD700"),
	lipgloss.Color("#FF5F87"),
	lipgloss.Color("#5FD7FF"),
	lipgloss.Color("#FFD787"),
	lipgloss.Color("#87FFD7"),
}

var (
	idStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
	timeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#AF87FF"))
	missingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748b"))
)

// Renderer draws a RecordGraph as colored text
type Renderer struct {
	graph *RecordGraph
	loc   *time.Location
}

// NewRenderer creates a renderer for graph. Times are shown in local time.
func NewRenderer(graph *RecordGraph) *Renderer {
	return &Renderer{graph: graph, loc: time.Local}
}

// WithLocation sets the zone creation times are shown in.
func (r *Renderer) WithLocation(loc *time.Location) *Renderer {
	r.loc = loc
	return r
}

// Render draws the whole graph, one line per record when compact and a
// block of lines per record otherwise.
func (r *Renderer) Render(compact bool) string {
	if compact {
		return r.renderCompact()
	}
	return r.renderDetailed()
}

func (r *Renderer) renderCompact() string {
	var out strings.Builder
	for _, node := range r.graph.Nodes {
		fmt.Fprintf(&out, "%s %s %s %s%s\n",
			r.RowPrefix(node.Index),
			idStyle.Render(node.Record.ShortID()),
			timeStyle.Render(r.created(node.Record, time.DateTime)),
			reading(node.Record),
			r.missing(node),
		)
	}
	return out.String()
}

func (r *Renderer) renderDetailed() string {
	var out strings.Builder
	for i, node := range r.graph.Nodes {
		rec := node.Record
		cont := r.continuation(node)

		fmt.Fprintf(&out, "%s %s%s\n", r.RowPrefix(i), idStyle.Render(rec.ID), r.missing(node))
		fmt.Fprintf(&out, "%s Time:    %s\n", cont, timeStyle.Render(r.created(rec, time.RFC1123)))

		parents := "none (genesis)"
		if len(rec.ParentIDs) > 0 {
			short := make([]string, len(rec.ParentIDs))
			for j, p := range rec.ParentIDs {
				short[j] = tangle.ShortID(p)
			}
			parents = strings.Join(short, ", ")
		}
		fmt.Fprintf(&out, "%s Parents: %s\n", cont, parents)

		for _, key := range rec.Payload.Keys() {
			if key == tangle.KeyTimestamp {
				continue
			}
			fmt.Fprintf(&out, "%s     %s = %v\n", cont, key, rec.Payload[key])
		}
		fmt.Fprintf(&out, "%s     air: %s\n", cont, reading(rec))

		if i < len(r.graph.Nodes)-1 {
			out.WriteString(cont + "\n")
		}
	}
	return out.String()
}

// RowPrefix draws the lane cells of the marker row at index.
func (r *Renderer) RowPrefix(index int) string {
	if index < 0 || index >= len(r.graph.Nodes) {
		return ""
	}
	node := r.graph.Nodes[index]
	width := r.graph.Width()

	lo, hi := node.Lane, node.Lane
	for _, lane := range node.ParentLanes {
		lo, hi = min(lo, lane), max(hi, lane)
	}

	var line strings.Builder
	for lane := 0; lane < width; lane++ {
		line.WriteString(r.colorize(r.cell(node, lane, lo, hi), lane))
		if lane < width-1 {
			gap := " "
			if lane >= lo && lane < hi {
				gap = LineHorizontal
			}
			line.WriteString(r.colorize(gap, node.Lane))
		}
	}
	return line.String()
}

func (r *Renderer) cell(node *GraphNode, lane, lo, hi int) string {
	right := lane > node.Lane
	switch {
	case lane == node.Lane:
		return marker(node)
	case slices.Contains(node.ParentLanes, lane) && slices.Contains(node.Through, lane):
		return pick(right, JoinRight, JoinLeft)
	case slices.Contains(node.ParentLanes, lane):
		return pick(right, BranchRight, BranchLeft)
	case slices.Contains(node.Through, lane):
		if lane > lo && lane < hi {
			return LineCross
		}
		return LineVertical
	case lane > lo && lane < hi:
		return LineHorizontal
	}
	return " "
}

// continuation draws the lanes still open under node.
func (r *Renderer) continuation(node *GraphNode) string {
	width := r.graph.Width()
	var line strings.Builder
	for lane := 0; lane < width; lane++ {
		if slices.Contains(node.Below, lane) {
			line.WriteString(r.colorize(LineVertical, lane))
		} else {
			line.WriteString(" ")
		}
		if lane < width-1 {
			line.WriteString(" ")
		}
	}
	return line.String()
}

func (r *Renderer) colorize(text string, lane int) string {
	if text == " " {
		return text
	}
	return lipgloss.NewStyle().Foreground(laneColors[lane%len(laneColors)]).Render(text)
}

func (r *Renderer) created(rec tangle.Record, layoutFmt string) string {
	if rec.CreatedAt == 0 {
		return "unknown"
	}
	return rec.Created().In(r.loc).Format(layoutFmt)
}

func (r *Renderer) missing(node *GraphNode) string {
	if node.Missing == 0 {
		return ""
	}
	return missingStyle.Render(fmt.Sprintf(" (+%d outside view)", node.Missing))
}

func marker(node *GraphNode) string {
	switch {
	case node.IsGenesis:
		return MarkerGenesis
	case node.IsJoin:
		return MarkerJoin
	}
	return MarkerRecord
}

// reading summarizes the PM2.5 value in its air quality color.
func reading(rec tangle.Record) string {
	q := layout.QualityOf(rec.Payload)
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(render.Hex(q.Color())))
	if v, ok := rec.Payload.Number(tangle.KeyPM25); ok {
		return style.Render(fmt.Sprintf("pm2.5 %.1f %s", v, q))
	}
	return style.Render(q.String())
}

func pick(right bool, r, l string) string {
	if right {
		return r
	}
	return l
}
