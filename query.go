package cadence

import (
	"github.com/TheBitDrifter/mask"
)

// Operation is the boolean combinator of a query node
type Operation int

const (
	OpAnd Operation = iota
	OpOr
	OpNot
)

type compositeNode struct {
	op         Operation
	children   []QueryNode
	components []Component

	// mask of components, valid for cachedFor
	cached    mask.Mask
	cachedFor RowIndexer
}

type query struct {
	root QueryNode
}

func newQuery() Query {
	return &query{}
}

// nodeMask resolves the component mask, reusing it while rows stay the same.
// Schema rows never move once assigned, so a world keeps the same mask for the node's lifetime.
func (n *compositeNode) nodeMask(rows RowIndexer) mask.Mask {
	if n.cachedFor != rows {
		n.cached = maskOf(rows, n.components)
		n.cachedFor = rows
	}
	return n.cached
}

func (n *compositeNode) Evaluate(archetype Archetype, rows RowIndexer) bool {
	nodeMask := n.nodeMask(rows)
	archeMask := archetype.Table().(mask.Maskable).Mask()

	switch n.op {
	case OpAnd:
		if !archeMask.ContainsAll(nodeMask) {
			return false
		}
		for _, child := range n.children {
			if !child.Evaluate(archetype, rows) {
				return false
			}
		}
		return true

	case OpOr:
		if archeMask.ContainsAny(nodeMask) {
			return true
		}
		for _, child := range n.children {
			if child.Evaluate(archetype, rows) {
				return true
			}
		}
		return false

	case OpNot:
		for _, child := range n.children {
			if child.Evaluate(archetype, rows) {
				return false
			}
		}
		return archeMask.ContainsNone(nodeMask)
	}
	return false
}

func maskOf(rows RowIndexer, components []Component) mask.Mask {
	var m mask.Mask
	for _, comp := range components {
		m.Mark(rows.RowIndexFor(comp))
	}
	return m
}

func (q *query) And(items ...interface{}) QueryNode {
	return q.node(OpAnd, items)
}

func (q *query) Or(items ...interface{}) QueryNode {
	return q.node(OpOr, items)
}

func (q *query) Not(items ...interface{}) QueryNode {
	return q.node(OpNot, items)
}

// node builds a combinator over items. The first node built becomes the query root.
func (q *query) node(op Operation, items []interface{}) QueryNode {
	n := &compositeNode{op: op}
	for _, item := range items {
		switch v := item.(type) {
		case Component:
			n.components = append(n.components, baseOf(v))
		case []Component:
			for _, c := range v {
				n.components = append(n.components, baseOf(c))
			}
		case QueryNode:
			n.children = append(n.children, v)
		}
	}
	if q.root == nil {
		q.root = n
	}
	return n
}

func (q *query) Evaluate(archetype Archetype, rows RowIndexer) bool {
	if q.root == nil {
		return false
	}
	return q.root.Evaluate(archetype, rows)
}
