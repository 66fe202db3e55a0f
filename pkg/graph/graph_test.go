package graph

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func TestRecordUnmarshal(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantErr   bool
		wantOne   int
		wantIDs   int
		wantEdges int
	}{
		{
			name:      "OneDegreeList",
			input:     `[1, 0, 1, 0.5, -2, [7, 8], [[2, 0], [3, 1]]]`,
			wantOne:   2,
			wantIDs:   2,
			wantEdges: 2,
		},
		{
			name:      "OneDegreeCount",
			input:     `[1, 0, 1, 0, 0, 3, [[2, 0]]]`,
			wantOne:   3,
			wantEdges: 1,
		},
		{
			name:  "NoEdges",
			input: `[4, 0, -1, 0, 0, 0, []]`,
		},
		{name: "TooFewFields", input: `[1, 0, 1, 0, 0, 0]`, wantErr: true},
		{name: "NotArray", input: `{"id": 1}`, wantErr: true},
		{name: "BadCoordinate", input: `[1, 0, 1, "x", 0, 0, []]`, wantErr: true},
		{name: "NegativeCount", input: `[1, 0, 1, 0, 0, -2, []]`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Record
			err := json.Unmarshal([]byte(tt.input), &r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if r.OneDegreeCount != tt.wantOne || len(r.OneDegree) != tt.wantIDs {
				t.Errorf("one-degree = %d (%v), want %d", r.OneDegreeCount, r.OneDegree, tt.wantOne)
			}
			if len(r.Edges) != tt.wantEdges {
				t.Errorf("edges = %d, want %d", len(r.Edges), tt.wantEdges)
			}
		})
	}
}

func TestRecordMarshalArrayForm(t *testing.T) {
	r := Record{ID: 5, Component: 2, X: 1.5, Y: -1, OneDegree: []int64{9}, OneDegreeCount: 1, Edges: []Edge{{Target: 6, Partition: 1}}}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if got, want := string(data), `[5,0,2,1.5,-1,[9],[[6,1]]]`; got != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}
	var back Record
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.ID != 5 || back.X != 1.5 || back.OneDegree[0] != 9 || back.Edges[0].Target != 6 {
		t.Errorf("decoded = %+v", back)
	}
}

func TestReadRecordsSkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		`[1, 0, 1, 0, 0, 0, [[2, 0]]]`,
		``,
		`not json`,
		`[2, 0, 1, 10, 0, 0, [[1, 0]]]`,
		`[2, 0, 1, 10, 0, 0, []]`,
		`[3, 0, 3, 0, 0]`,
	}, "\n")
	res, err := ReadRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	if len(res.Records) != 2 {
		t.Errorf("records = %d, want 2", len(res.Records))
	}
	if len(res.Skipped) != 3 {
		t.Fatalf("skipped = %v, want 3 entries", res.Skipped)
	}
	lines := []int{res.Skipped[0].Line, res.Skipped[1].Line, res.Skipped[2].Line}
	if lines[0] != 3 || lines[1] != 5 || lines[2] != 6 {
		t.Errorf("skipped lines = %v, want [3 5 6]", lines)
	}
}

func TestPositionsRoundTripFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	in := []Position{{ID: 1, X: 1, Y: 2, Component: 1}, {ID: 2, X: -3, Y: 4.5, Component: 1}}
	if err := WritePositionsFile(path, in); err != nil {
		t.Fatalf("WritePositionsFile: %v", err)
	}
	out, err := ReadPositionsFile(path)
	if err != nil {
		t.Fatalf("ReadPositionsFile: %v", err)
	}
	if len(out) != 2 || out[1] != in[1] {
		t.Errorf("read back %v, want %v", out, in)
	}
}

func TestWritePositionsOnePerLine(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePositions(&buf, []Position{{ID: 1, X: 12.5, Y: -3.25, Component: 1}}); err != nil {
		t.Fatalf("WritePositions: %v", err)
	}
	if got, want := buf.String(), "{\"id\":1,\"x\":12.5,\"y\":-3.25,\"component\":1}\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestNormalize(t *testing.T) {
	records := []Record{
		{ID: 3, Component: -1, Edges: []Edge{{Target: 1}, {Target: 3}, {Target: 99}}},
		{ID: 1, Component: -1, Edges: []Edge{{Target: 2}, {Target: 2}}},
		{ID: 2, Component: -1},
		{ID: 10, Component: -1, Edges: []Edge{{Target: 11}}},
		{ID: 11, Component: -1},
		{ID: 20, Component: 7},
	}
	out, rep := Normalize(records)

	if rep.DanglingEdges != 1 || rep.SelfLoops != 1 || rep.DuplicateEdges != 1 {
		t.Errorf("report = %+v", rep)
	}
	if rep.AddedReverse != 3 {
		t.Errorf("AddedReverse = %d, want 3", rep.AddedReverse)
	}
	if !rep.ComponentsBuilt {
		t.Error("components should have been built")
	}

	wantComp := map[int64]int64{1: 1, 2: 1, 3: 1, 10: 10, 11: 10, 20: 7}
	for i, r := range out {
		if i > 0 && out[i-1].ID >= r.ID {
			t.Errorf("records not sorted at %d", i)
		}
		if r.Component != wantComp[r.ID] {
			t.Errorf("vertex %d component = %d, want %d", r.ID, r.Component, wantComp[r.ID])
		}
	}

	degree := map[int64]int{}
	for _, r := range out {
		degree[r.ID] = len(r.Edges)
	}
	if degree[1] != 2 || degree[2] != 1 || degree[3] != 1 || degree[11] != 1 {
		t.Errorf("degrees = %v", degree)
	}
}

func TestLayoutBounds(t *testing.T) {
	l := Layout{Positions: []Position{{X: -1, Y: 2}, {X: 3, Y: -4}, {X: 0, Y: 0}}}
	minX, minY, maxX, maxY := l.Bounds()
	if minX != -1 || minY != -4 || maxX != 3 || maxY != 2 {
		t.Errorf("Bounds = %v %v %v %v", minX, minY, maxX, maxY)
	}
	if l.Width != 4 || l.Height != 6 {
		t.Errorf("size = %vx%v, want 4x6", l.Width, l.Height)
	}
}
