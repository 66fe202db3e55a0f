package cli

import (
	"strings"
	"testing"

	"github.com/matzehuels/orrery/pkg/multiscale"
)

func TestFormatStats(t *testing.T) {
	tests := []struct {
		name                        string
		vertices, edges, supersteps int
		cached                      bool
		want, notWant               []string
	}{
		{"fresh run", 120, 300, 950, false, []string{"120 vertices", "300 edges", "950 supersteps", iconFresh}, []string{iconCached}},
		{"cache hit", 120, 300, 0, true, []string{"120 vertices", iconCached}, []string{"supersteps"}},
		{"render only", 8, 0, 0, false, []string{"8 vertices"}, []string{"edges"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatStats(tt.vertices, tt.edges, tt.supersteps, tt.cached)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("formatStats() = %q, missing %q", got, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("formatStats() = %q, should not contain %q", got, w)
				}
			}
		})
	}
}

func TestFormatLayers(t *testing.T) {
	if got := formatLayers(nil); got != "" {
		t.Errorf("no layers: %q", got)
	}

	table := formatLayers([]multiscale.LayerReport{
		{Layer: 1, Vertices: 40, Edges: 90, EdgeLength: 84.6, TTL: 3, Supersteps: 120, Converged: true},
		{Layer: 0, Vertices: 100, Edges: 250, EdgeLength: 42.3, TTL: 2, Supersteps: 1500},
	})
	lines := strings.Split(strings.TrimRight(table, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("table has %d lines, want header + 2:\n%s", len(lines), table)
	}
	if !strings.Contains(lines[0], "supersteps") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "84.6") || !strings.Contains(lines[1], "yes") {
		t.Errorf("row 1 = %q", lines[1])
	}
	if !strings.Contains(lines[2], "1500") || !strings.Contains(lines[2], "no") {
		t.Errorf("row 2 = %q", lines[2])
	}
}
