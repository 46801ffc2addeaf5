// Package huffman builds prefix-code trees from symbol frequencies and
// derives the code tables used to pack a token stream into bits.
//
// # Determinism
//
// Tree construction must be reproducible: decoders rebuild the tree from a
// persisted FrequencyTable, so an identical table has to yield an identical
// tree. Two rules pin the shape. Nodes of equal weight are merged in
// creation order (leaves in the table's first-seen order, then internal
// nodes in the order they were produced), and of the two nodes extracted
// per merge the first becomes the left child.
//
// # Layout
//
// Nodes live in an arena indexed by NodeID rather than behind pointers,
// which keeps traversal state trivially copyable and makes the tree cheap
// to inspect from the outside (see Root, Weight, Symbol, Children).
package huffman

import (
	"container/heap"
	"errors"
)

var (
	// ErrDegenerateTree indicates a tree with no leaves, which can only be
	// produced from empty or corrupted persisted data.
	ErrDegenerateTree = errors.New("huffman: tree has no leaves")
	// ErrCodeOverflow indicates a code longer than 64 bits. Frequency
	// distributions of real token streams cannot get near this bound; it is
	// reachable only through crafted persisted tables.
	ErrCodeOverflow = errors.New("huffman: code length exceeds 64 bits")
)

// NodeID addresses a node within a Tree. The zero tree has no valid IDs.
type NodeID int32

// None marks an absent child.
const None NodeID = -1

type node struct {
	weight uint64
	symbol string
	leaf   bool
	left   NodeID
	right  NodeID
}

// Tree is an immutable Huffman prefix-code tree over a FrequencyTable.
type Tree struct {
	nodes  []node
	root   NodeID
	leaves int
}

// Build constructs the tree for ft using the classic priority-queue merge.
// A single-symbol table yields a synthesized root whose only (left) child is
// the leaf, so the symbol still receives a one-bit code.
func Build(ft *FrequencyTable) (*Tree, error) {
	if ft == nil || ft.Len() == 0 {
		return nil, ErrDegenerateTree
	}

	t := &Tree{nodes: make([]node, 0, 2*ft.Len())}
	for _, sym := range ft.Symbols() {
		t.add(node{weight: ft.Count(sym), symbol: sym, leaf: true, left: None, right: None})
	}
	t.leaves = ft.Len()

	if ft.Len() == 1 {
		t.root = t.add(node{weight: t.nodes[0].weight, left: 0, right: None})
		return t, nil
	}

	h := &buildHeap{tree: t, ids: make([]NodeID, ft.Len())}
	for i := range h.ids {
		h.ids[i] = NodeID(i)
	}
	heap.Init(h)

	for h.Len() > 1 {
		left := heap.Pop(h).(NodeID)
		right := heap.Pop(h).(NodeID)
		merged := t.add(node{
			weight: t.nodes[left].weight + t.nodes[right].weight,
			left:   left,
			right:  right,
		})
		heap.Push(h, merged)
	}
	t.root = heap.Pop(h).(NodeID)
	return t, nil
}

func (t *Tree) add(n node) NodeID {
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

// Root returns the root node ID, or None for an empty tree.
func (t *Tree) Root() NodeID {
	if t == nil || len(t.nodes) == 0 {
		return None
	}
	return t.root
}

// Weight returns the subtree weight at id (the sum of its leaf frequencies).
func (t *Tree) Weight(id NodeID) uint64 {
	if !t.valid(id) {
		return 0
	}
	return t.nodes[id].weight
}

// Symbol returns the symbol owned by id and whether id is a leaf.
func (t *Tree) Symbol(id NodeID) (string, bool) {
	if !t.valid(id) {
		return "", false
	}
	n := t.nodes[id]
	return n.symbol, n.leaf
}

// Children returns the child IDs of id, None for absent children.
func (t *Tree) Children(id NodeID) (left, right NodeID) {
	if !t.valid(id) {
		return None, None
	}
	n := t.nodes[id]
	return n.left, n.right
}

// Leaves returns the number of leaf nodes, one per distinct symbol.
func (t *Tree) Leaves() int {
	if t == nil {
		return 0
	}
	return t.leaves
}

// Nodes returns the total node count, leaves included.
func (t *Tree) Nodes() int {
	if t == nil {
		return 0
	}
	return len(t.nodes)
}

func (t *Tree) valid(id NodeID) bool {
	return t != nil && id >= 0 && int(id) < len(t.nodes)
}

// buildHeap orders arena node IDs by weight, breaking equal weights by
// creation order. The order is total, so heap internals cannot leak into
// the resulting tree shape.
type buildHeap struct {
	tree *Tree
	ids  []NodeID
}

func (h *buildHeap) Len() int { return len(h.ids) }

func (h *buildHeap) Less(i, j int) bool {
	a, b := h.ids[i], h.ids[j]
	wa, wb := h.tree.nodes[a].weight, h.tree.nodes[b].weight
	if wa != wb {
		return wa < wb
	}
	return a < b
}

func (h *buildHeap) Swap(i, j int) { h.ids[i], h.ids[j] = h.ids[j], h.ids[i] }

func (h *buildHeap) Push(x any) { h.ids = append(h.ids, x.(NodeID)) }

func (h *buildHeap) Pop() any {
	old := h.ids
	n := len(old)
	id := old[n-1]
	h.ids = old[:n-1]
	return id
}
