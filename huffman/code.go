package huffman

import (
	"fmt"
	"strings"
)

// MaxCodeLen is the longest representable code in bits.
const MaxCodeLen = 64

// Code is one symbol's prefix code: the Len low bits of Bits, most
// significant bit first in stream order.
type Code struct {
	Bits uint64
	Len  uint8
}

// String renders the code as a bit string, e.g. "0101".
func (c Code) String() string {
	if c.Len == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(int(c.Len))
	for i := int(c.Len) - 1; i >= 0; i-- {
		if c.Bits>>uint(i)&1 == 1 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// CodeTable maps each symbol to its prefix code.
type CodeTable map[string]Code

// Codes derives the code table by walking the tree with an explicit stack,
// assigning 0 on left descent and 1 on right descent. Iteration keeps the
// stack depth bounded for heavily skewed trees.
func (t *Tree) Codes() (CodeTable, error) {
	if t == nil || len(t.nodes) == 0 || t.root == None {
		return nil, ErrDegenerateTree
	}

	type frame struct {
		id   NodeID
		code Code
	}
	table := make(CodeTable, t.leaves)
	stack := make([]frame, 0, 64)
	stack = append(stack, frame{id: t.root})

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.nodes[f.id]
		if n.leaf {
			table[n.symbol] = f.code
			continue
		}
		if f.code.Len >= MaxCodeLen {
			return nil, fmt.Errorf("at depth %d: %w", f.code.Len, ErrCodeOverflow)
		}
		if n.right != None {
			stack = append(stack, frame{id: n.right, code: Code{Bits: f.code.Bits<<1 | 1, Len: f.code.Len + 1}})
		}
		if n.left != None {
			stack = append(stack, frame{id: n.left, code: Code{Bits: f.code.Bits << 1, Len: f.code.Len + 1}})
		}
	}

	if len(table) == 0 {
		return nil, ErrDegenerateTree
	}
	return table, nil
}
