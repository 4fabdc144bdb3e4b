package main

import (
	"strings"
	"testing"
)

func TestRenderTableRightAlignsNumericColumns(t *testing.T) {
	out := renderTable(
		[]string{"Status", "Count"},
		[][]string{{"pending", "3"}, {"completed", "12"}},
		1,
	)

	requireContains(t, out, "Status")
	requireContains(t, out, "pending")
	requireContains(t, out, "completed")

	// Right alignment puts the shorter count at the far edge of its column.
	var three, twelve string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "pending") {
			three = line
		}
		if strings.Contains(line, "completed") {
			twelve = line
		}
	}
	if strings.Index(three, "3") != strings.Index(twelve, "12")+1 {
		t.Fatalf("count column should be right-aligned:\n%s", out)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only"}})
	requireContains(t, out, "only")
	if strings.Contains(out, "<nil>") {
		t.Fatalf("missing cells should render empty:\n%s", out)
	}
}

func TestRenderTableNoHeaders(t *testing.T) {
	if out := renderTable(nil, nil); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}
