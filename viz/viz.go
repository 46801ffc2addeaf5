// Package viz exports Huffman trees as Graphviz DOT text. Rendering the
// DOT into an image is left to the caller.
package viz

import (
	"fmt"
	"io"
	"strconv"

	"github.com/emicklei/dot"

	"github.com/bshind87/Huffman-tool/huffman"
)

// Graph builds a directed DOT graph of the tree. Leaves show their quoted
// symbol above the weight and are drawn as filled boxes; internal nodes
// show the weight only. Edges carry the bit they contribute, 0 left and 1
// right.
func Graph(t *huffman.Tree) (*dot.Graph, error) {
	root := t.Root()
	if root == huffman.None {
		return nil, huffman.ErrDegenerateTree
	}

	g := dot.NewGraph(dot.Directed)
	stack := []huffman.NodeID{root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := g.Node(nodeName(id))
		if sym, leaf := t.Symbol(id); leaf {
			node.Attr("label", fmt.Sprintf("%s\n%d", strconv.Quote(sym), t.Weight(id)))
			node.Attr("shape", "box")
			node.Attr("style", "filled")
			node.Attr("fillcolor", "lightblue")
			continue
		}
		node.Attr("label", strconv.FormatUint(t.Weight(id), 10))
		node.Attr("shape", "ellipse")

		left, right := t.Children(id)
		if left != huffman.None {
			g.Edge(node, g.Node(nodeName(left))).Attr("label", "0")
			stack = append(stack, left)
		}
		if right != huffman.None {
			g.Edge(node, g.Node(nodeName(right))).Attr("label", "1")
			stack = append(stack, right)
		}
	}
	return g, nil
}

// WriteDOT writes the DOT text for the tree to w.
func WriteDOT(w io.Writer, t *huffman.Tree) error {
	g, err := Graph(t)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, g.String())
	return err
}

func nodeName(id huffman.NodeID) string {
	return "n" + strconv.Itoa(int(id))
}
