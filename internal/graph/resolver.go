// Package graph implements the dependency Resolver (spec §4.6): a
// three-colour depth-first topological sort over an agent's declared
// "dependencies" list, grounded directly on
// original_source/nexous/core/runner.py's _resolve_dependencies.
package graph

import (
	"fmt"

	"github.com/nexous-ai/nexous/internal/nexerr"
)

// color tracks per-node DFS state: unvisited (0), in-progress (1,
// "on the current DFS stack" — finding it again means a cycle),
// done (2).
type color int

const (
	white color = iota
	gray
	black
)

// Node is the minimal shape the Resolver needs from an agent spec.
type Node struct {
	ID           string
	Dependencies []string
}

// Resolve orders nodes so that every dependency precedes its
// dependents. Traversal order (and therefore the final ordering among
// independent nodes) follows the input slice order, matching the
// original's iteration over a dict that preserves insertion order.
func Resolve(nodes []Node) ([]Node, error) {
	byID := make(map[string]Node, len(nodes))
	order := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if _, dup := byID[n.ID]; dup {
			return nil, nexerr.New(nexerr.KindDependencyNotFound, fmt.Sprintf("duplicate agent id: %s", n.ID), nil)
		}
		byID[n.ID] = n
		order = append(order, n.ID)
	}

	colors := make(map[string]color, len(nodes))
	result := make([]Node, 0, len(nodes))

	var visit func(id string) error
	visit = func(id string) error {
		switch colors[id] {
		case gray:
			return nexerr.New(nexerr.KindDependencyCycle, fmt.Sprintf("circular dependency detected at: %s", id), nil)
		case black:
			return nil
		}
		colors[id] = gray

		n, ok := byID[id]
		if !ok {
			return nexerr.New(nexerr.KindDependencyNotFound, fmt.Sprintf("agent not found: %s", id), nil)
		}
		for _, dep := range n.Dependencies {
			if _, ok := byID[dep]; !ok {
				return nexerr.New(nexerr.KindDependencyNotFound, fmt.Sprintf("dependency not found: %s (required by %s)", dep, id), nil)
			}
			if err := visit(dep); err != nil {
				return err
			}
		}

		colors[id] = black
		result = append(result, n)
		return nil
	}

	for _, id := range order {
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	return result, nil
}
