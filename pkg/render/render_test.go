package render

import (
	"bytes"
	"context"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"svg", FormatSVG, false},
		{" PNG ", FormatPNG, false},
		{"dot", FormatDOT, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestFormatFromPath(t *testing.T) {
	for path, want := range map[string]Format{
		"out.png":   FormatPNG,
		"out.SVG":   FormatSVG,
		"graph.dot": FormatDOT,
		"noext":     FormatSVG,
	} {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00"><g/></svg>`)
	out := normalizeViewBox(in)
	if !bytes.Contains(out, []byte(`viewBox="0 0 10.00 20.00" width="10" height="20"`)) {
		t.Errorf("normalizeViewBox = %s", out)
	}
	if got := normalizeViewBox([]byte("<svg>")); string(got) != "<svg>" {
		t.Errorf("input without viewBox changed: %s", got)
	}
}

func TestRenderDOTPassthrough(t *testing.T) {
	dot := "graph G { 1; }"
	got, err := Render(context.Background(), dot, FormatDOT)
	if err != nil || string(got) != dot {
		t.Errorf("Render = %q, %v", got, err)
	}
}

func TestRenderSVG(t *testing.T) {
	dot := "graph G { inputscale=72; 1 [pos=\"0,0!\"]; 2 [pos=\"40,10!\"]; 1 -- 2; }"
	got, err := Render(context.Background(), dot, FormatSVG)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Contains(got, []byte("<svg")) {
		t.Errorf("output is not SVG: %.80s", got)
	}
}
