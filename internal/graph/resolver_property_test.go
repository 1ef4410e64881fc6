package graph

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// chainDAG builds n nodes where node i depends on node i-1, the shape
// every generated project.yaml in practice uses (a linear pipeline).
func chainDAG(n int) []Node {
	nodes := make([]Node, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("n%d", i)
		var deps []string
		if i > 0 {
			deps = []string{fmt.Sprintf("n%d", i-1)}
		}
		nodes[i] = Node{ID: id, Dependencies: deps}
	}
	return nodes
}

// TestResolveProperty_OrderRespectsDependencies verifies that for any
// chain-shaped DAG, Resolve never places a node before a dependency it
// declares.
func TestResolveProperty_OrderRespectsDependencies(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("every dependency precedes its dependent", prop.ForAll(
		func(n int) bool {
			nodes := chainDAG(n)
			ordered, err := Resolve(nodes)
			if err != nil {
				return false
			}
			position := make(map[string]int, len(ordered))
			for i, o := range ordered {
				position[o.ID] = i
			}
			for _, o := range ordered {
				for _, dep := range o.Dependencies {
					if position[dep] >= position[o.ID] {
						return false
					}
				}
			}
			return len(ordered) == n
		},
		gen.IntRange(0, 50),
	))

	properties.TestingRun(t)
}
