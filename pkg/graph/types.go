package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// =============================================================================
// Record - Input Vertex
// =============================================================================

// Record is one input vertex.
type Record struct {
	ID        int64
	Partition int
	Component int64
	X, Y      float64

	// OneDegree lists pruned one-degree neighbours when the input names them.
	OneDegree []int64
	// OneDegreeCount is the number of pruned neighbours, at least len(OneDegree).
	OneDegreeCount int

	Edges []Edge
}

// Edge is an undirected adjacency as written in the input.
type Edge struct {
	Target    int64
	Partition int
}

// UnmarshalJSON decodes the positional array form.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	if len(raw) != 7 {
		return fmt.Errorf("record: want 7 fields, got %d", len(raw))
	}

	var out Record
	fields := []struct {
		name string
		dst  any
	}{
		{"id", &out.ID},
		{"partition", &out.Partition},
		{"component", &out.Component},
		{"x", &out.X},
		{"y", &out.Y},
	}
	for i, f := range fields {
		if err := json.Unmarshal(raw[i], f.dst); err != nil {
			return fmt.Errorf("record field %s: %w", f.name, err)
		}
	}

	oneDeg := bytes.TrimSpace(raw[5])
	if len(oneDeg) > 0 && oneDeg[0] == '[' {
		if err := json.Unmarshal(oneDeg, &out.OneDegree); err != nil {
			return fmt.Errorf("record field oneDegree: %w", err)
		}
		out.OneDegreeCount = len(out.OneDegree)
	} else if err := json.Unmarshal(oneDeg, &out.OneDegreeCount); err != nil {
		return fmt.Errorf("record field oneDegree: %w", err)
	}
	if out.OneDegreeCount < 0 {
		return fmt.Errorf("record field oneDegree: negative count %d", out.OneDegreeCount)
	}

	var edges [][2]int64
	if err := json.Unmarshal(raw[6], &edges); err != nil {
		return fmt.Errorf("record field edges: %w", err)
	}
	out.Edges = make([]Edge, len(edges))
	for i, e := range edges {
		out.Edges[i] = Edge{Target: e[0], Partition: int(e[1])}
	}

	*r = out
	return nil
}

// MarshalJSON encodes the positional array form. One-degree neighbours are
// written as a list when known, else as a count.
func (r Record) MarshalJSON() ([]byte, error) {
	var oneDeg any = r.OneDegreeCount
	if len(r.OneDegree) > 0 && len(r.OneDegree) == r.OneDegreeCount {
		oneDeg = r.OneDegree
	}
	edges := make([][2]int64, len(r.Edges))
	for i, e := range r.Edges {
		edges[i] = [2]int64{e.Target, int64(e.Partition)}
	}
	return json.Marshal([]any{r.ID, r.Partition, r.Component, r.X, r.Y, oneDeg, edges})
}

// =============================================================================
// Position - Output Vertex
// =============================================================================

// Position is the final coordinate of one vertex.
type Position struct {
	ID        int64   `json:"id" bson:"id"`
	X         float64 `json:"x" bson:"x"`
	Y         float64 `json:"y" bson:"y"`
	Component int64   `json:"component" bson:"component"`
}

// =============================================================================
// Layout - Result of a Run
// =============================================================================

// Layout is a finished drawing.
type Layout struct {
	RunID      string          `json:"run_id,omitempty" bson:"run_id,omitempty"`
	Width      float64         `json:"width" bson:"width"`
	Height     float64         `json:"height" bson:"height"`
	Positions  []Position      `json:"positions" bson:"positions"`
	Components []ComponentInfo `json:"components,omitempty" bson:"components,omitempty"`
}

// ComponentInfo describes how a connected component was packed.
type ComponentInfo struct {
	ID      int64   `json:"id" bson:"id"`
	Nodes   int     `json:"nodes" bson:"nodes"`
	Scale   float64 `json:"scale" bson:"scale"`
	OffsetX float64 `json:"offset_x" bson:"offset_x"`
	OffsetY float64 `json:"offset_y" bson:"offset_y"`
}

// Bounds returns the extent of the positions and sets Width and Height.
func (l *Layout) Bounds() (minX, minY, maxX, maxY float64) {
	for i, p := range l.Positions {
		if i == 0 {
			minX, maxX, minY, maxY = p.X, p.X, p.Y, p.Y
			continue
		}
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	l.Width, l.Height = maxX-minX, maxY-minY
	return minX, minY, maxX, maxY
}
