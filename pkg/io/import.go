package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/orrery/pkg/graph"
)

// ReadJSON decodes a layout summary. Width and Height are recomputed from
// the positions when absent.
func ReadJSON(r io.Reader) (graph.Layout, error) {
	var l graph.Layout
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return graph.Layout{}, fmt.Errorf("decode: %w", err)
	}
	seen := make(map[int64]struct{}, len(l.Positions))
	for _, p := range l.Positions {
		if _, dup := seen[p.ID]; dup {
			return graph.Layout{}, fmt.Errorf("position %d: duplicate id", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	if l.Width == 0 && l.Height == 0 {
		l.Bounds()
	}
	return l, nil
}

// ImportJSON reads the layout summary at path.
func ImportJSON(path string) (graph.Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return graph.Layout{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
