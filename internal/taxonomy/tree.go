// Package taxonomy holds the hierarchical structures of a business: account
// groups and cost centers. Nodes live in an arena keyed by id with an
// explicit parent->children index built once, so flattening and traversal
// are linear and iterative. Construction rejects parent cycles.
package taxonomy

import (
	"sort"

	"github.com/google/uuid"

	"github.com/veribooks/books/internal/errs"
)

// Node is any tree-shaped entity: it exposes its id, optional parent and the
// sibling ordering sequence.
type Node interface {
	TreeID() uuid.UUID
	TreeParent() *uuid.UUID
	TreeSequence() int
}

// Flat is a node paired with its depth level. Level 0 is a root.
type Flat[N Node] struct {
	Node  N
	Level int
}

// Tree is an immutable arena of nodes with a parent->children index.
type Tree[N Node] struct {
	nodes    map[uuid.UUID]N
	children map[uuid.UUID][]uuid.UUID
	roots    []uuid.UUID
}

// New builds a tree from nodes. A node whose parent id is absent from the
// set is treated as a root (its parent may live outside the loaded slice).
// If any parent chain revisits itself the whole construction fails with
// errs.ErrGroupCycle.
func New[N Node](nodes []N) (*Tree[N], error) {
	t := &Tree[N]{
		nodes:    make(map[uuid.UUID]N, len(nodes)),
		children: make(map[uuid.UUID][]uuid.UUID),
	}
	for _, n := range nodes {
		t.nodes[n.TreeID()] = n
	}
	for _, n := range nodes {
		id := n.TreeID()
		p := n.TreeParent()
		if p == nil {
			t.roots = append(t.roots, id)
			continue
		}
		if _, ok := t.nodes[*p]; !ok {
			t.roots = append(t.roots, id)
			continue
		}
		t.children[*p] = append(t.children[*p], id)
	}
	t.sortSiblings(t.roots)
	for _, ids := range t.children {
		t.sortSiblings(ids)
	}
	// Every node must be reachable from a root; leftovers sit on a cycle.
	visited := 0
	stack := append([]uuid.UUID(nil), t.roots...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited++
		stack = append(stack, t.children[id]...)
	}
	if visited != len(t.nodes) {
		return nil, errs.ErrGroupCycle
	}
	return t, nil
}

// Get returns the node by id.
func (t *Tree[N]) Get(id uuid.UUID) (N, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Roots returns the root nodes in sequence order.
func (t *Tree[N]) Roots() []N {
	out := make([]N, 0, len(t.roots))
	for _, id := range t.roots {
		out = append(out, t.nodes[id])
	}
	return out
}

// Children returns the direct children of id in sequence order.
func (t *Tree[N]) Children(id uuid.UUID) []N {
	ids := t.children[id]
	out := make([]N, 0, len(ids))
	for _, cid := range ids {
		out = append(out, t.nodes[cid])
	}
	return out
}

// Flatten walks the whole tree depth-first and assigns each node its level.
// Order is fixed: parent before children, siblings by sequence. Indentation
// in listings depends on this order.
func (t *Tree[N]) Flatten() []Flat[N] {
	type frame struct {
		id    uuid.UUID
		level int
	}
	out := make([]Flat[N], 0, len(t.nodes))
	stack := make([]frame, 0, len(t.roots))
	for i := len(t.roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{id: t.roots[i]})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, Flat[N]{Node: t.nodes[f.id], Level: f.level})
		kids := t.children[f.id]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: kids[i], level: f.level + 1})
		}
	}
	return out
}

// Ancestors returns the parent chain of id, nearest first, excluding id.
func (t *Tree[N]) Ancestors(id uuid.UUID) []N {
	out := make([]N, 0)
	n, ok := t.nodes[id]
	if !ok {
		return out
	}
	for {
		p := n.TreeParent()
		if p == nil {
			return out
		}
		parent, ok := t.nodes[*p]
		if !ok {
			return out
		}
		out = append(out, parent)
		n = parent
	}
}

// Descendants returns every node under id in flatten order, excluding id.
func (t *Tree[N]) Descendants(id uuid.UUID) []N {
	out := make([]N, 0)
	stack := make([]uuid.UUID, 0)
	kids := t.children[id]
	for i := len(kids) - 1; i >= 0; i-- {
		stack = append(stack, kids[i])
	}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, t.nodes[cur])
		kids := t.children[cur]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return out
}

// sortSiblings orders ids by (sequence, id) for deterministic listings.
func (t *Tree[N]) sortSiblings(ids []uuid.UUID) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := t.nodes[ids[i]], t.nodes[ids[j]]
		if a.TreeSequence() != b.TreeSequence() {
			return a.TreeSequence() < b.TreeSequence()
		}
		return ids[i].String() < ids[j].String()
	})
}
