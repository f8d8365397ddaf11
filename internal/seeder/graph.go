package seeder

import (
	"fmt"

	"github.com/Lumos-Labs-HQ/provision/internal/types"
)

// DependencyGraph orders tables so that every table comes after the tables its
// foreign keys point at. Only tables added to the graph take part; references to
// other tables are left to the database.
type DependencyGraph struct {
	tables map[string]*types.Table
	order  []string
}

func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		tables: make(map[string]*types.Table),
	}
}

// AddTable adds or replaces a table. A replaced table keeps its position.
func (g *DependencyGraph) AddTable(table *types.Table) {
	if _, exists := g.tables[table.Name]; !exists {
		g.order = append(g.order, table.Name)
	}
	g.tables[table.Name] = table
}

func (g *DependencyGraph) Table(name string) (*types.Table, bool) {
	t, ok := g.tables[name]
	return t, ok
}

// Levels groups tables into batches with Kahn's algorithm. Tables in one level do not
// depend on each other; within a level they keep the order they were added in.
func (g *DependencyGraph) Levels() ([][]string, error) {
	inDegree := make(map[string]int, len(g.order))
	dependents := make(map[string][]string, len(g.order))

	for _, name := range g.order {
		table := g.tables[name]

		for _, field := range table.SelfReferences() {
			if !field.Nullable {
				return nil, &CyclicDependencyError{Tables: []string{name}}
			}
		}

		for _, dep := range table.Dependencies() {
			if _, ok := g.tables[dep]; !ok {
				continue
			}
			inDegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var levels [][]string
	var current []string
	for _, name := range g.order {
		if inDegree[name] == 0 {
			current = append(current, name)
		}
	}

	placed := 0
	for len(current) > 0 {
		levels = append(levels, current)
		placed += len(current)

		ready := make(map[string]bool)
		for _, name := range current {
			for _, dependent := range dependents[name] {
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					ready[dependent] = true
				}
			}
		}

		current = nil
		for _, name := range g.order {
			if ready[name] {
				current = append(current, name)
			}
		}
	}

	if placed < len(g.order) {
		var stuck []string
		for _, name := range g.order {
			if inDegree[name] > 0 {
				stuck = append(stuck, name)
			}
		}
		return nil, &CyclicDependencyError{Tables: stuck}
	}

	return levels, nil
}

// Order flattens Levels into a single insertion order.
func (g *DependencyGraph) Order() ([]string, error) {
	levels, err := g.Levels()
	if err != nil {
		return nil, fmt.Errorf("failed to build insertion order: %w", err)
	}

	order := make([]string, 0, len(g.order))
	for _, level := range levels {
		order = append(order, level...)
	}
	return order, nil
}
