package graph_test

import (
	"fmt"
	"os"
	"strings"

	"github.com/matzehuels/orrery/pkg/graph"
)

func ExampleReadRecords() {
	input := `[1, 0, -1, 0, 0, [4], [[2, 0]]]
[2, 0, -1, 20, 0, 0, [[1, 0], [3, 0]]]
[3, 0, -1, 40, 0, 0, [[2, 0]]]
oops`

	res, err := graph.ReadRecords(strings.NewReader(input))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	records, _ := graph.Normalize(res.Records)

	fmt.Println("Records:", len(records))
	fmt.Println("Skipped:", len(res.Skipped))
	fmt.Println("Pruned of 1:", records[0].OneDegree)
	fmt.Println("Component of 3:", records[2].Component)
	// Output:
	// Records: 3
	// Skipped: 1
	// Pruned of 1: [4]
	// Component of 3: 1
}

func ExampleWritePositions() {
	_ = graph.WritePositions(os.Stdout, []graph.Position{
		{ID: 1, X: 0, Y: 0, Component: 1},
		{ID: 2, X: 20, Y: 0, Component: 1},
	})
	// Output:
	// {"id":1,"x":0,"y":0,"component":1}
	// {"id":2,"x":20,"y":0,"component":1}
}
