// Package catalog implements the ordered label tree used to browse fractals
// by group and subgroup.
package catalog

// Tree is a rooted tree with ordered children. Each node carries one label.
// Trees are built once with InsertPath and only navigated afterwards; they are
// not safe for concurrent mutation.
type Tree[T comparable] struct {
	Data     T
	children []*Tree[T]
}

func New[T comparable](data T) *Tree[T] {
	return &Tree[T]{Data: data}
}

func (t *Tree[T]) IsLeaf() bool { return len(t.children) == 0 }

// AddChild appends a new child node holding data and returns it.
func (t *Tree[T]) AddChild(data T) *Tree[T] {
	child := &Tree[T]{Data: data}
	t.children = append(t.children, child)
	return child
}

// child returns the first child labelled data. Duplicate sibling labels are
// never produced by InsertPath, so the oldest match is the only match.
func (t *Tree[T]) child(data T) *Tree[T] {
	for _, c := range t.children {
		if c.Data == data {
			return c
		}
	}
	return nil
}

// InsertPath adds leaf under the node reached by following path (root-to-parent
// order, root label excluded), creating missing levels on the way. Existing
// prefixes are reused, so partially overlapping paths share nodes.
func (t *Tree[T]) InsertPath(path []T, leaf T) {
	stack := reversed(path)
	node := t
	for len(stack) > 0 {
		next := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		c := node.child(next)
		if c == nil {
			c = node.AddChild(next)
		}
		node = c
	}
	node.AddChild(leaf)
}

// Children lists the labels directly below the node reached by path. The
// second result is false when some segment does not exist; that is an unknown
// navigation level, not an error.
func (t *Tree[T]) Children(path []T) ([]T, bool) {
	stack := reversed(path)
	node := t
	for len(stack) > 0 {
		c := node.child(stack[len(stack)-1])
		if c == nil {
			return nil, false
		}
		stack = stack[:len(stack)-1]
		node = c
	}

	labels := make([]T, len(node.children))
	for i, c := range node.children {
		labels[i] = c.Data
	}
	return labels, true
}

// Walk visits every node below t depth-first in insertion order. level is
// relative to t, so t's children are level 1.
func (t *Tree[T]) Walk(fn func(level int, data T, leaf bool)) {
	var visit func(n *Tree[T], level int)
	visit = func(n *Tree[T], level int) {
		for _, c := range n.children {
			fn(level, c.Data, c.IsLeaf())
			visit(c, level+1)
		}
	}
	visit(t, 1)
}

// Len counts the nodes below t.
func (t *Tree[T]) Len() int {
	n := 0
	t.Walk(func(int, T, bool) { n++ })
	return n
}

func reversed[T any](path []T) []T {
	out := make([]T, len(path))
	for i, p := range path {
		out[len(path)-1-i] = p
	}
	return out
}
