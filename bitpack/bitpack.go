// Package bitpack packs token streams into prefix-coded bit payloads and
// unpacks them again. A payload is always a whole number of bytes; the
// padding count in [0,7] says how many low bits of the final byte are
// zero filler. Decoding is bounded by the expected token count, never by
// bit exhaustion, so filler bits can never decode into extra symbols.
package bitpack

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/icza/bitio"

	"github.com/bshind87/Huffman-tool/huffman"
)

var (
	// ErrCorruptStream indicates a payload that cannot decode to the
	// expected token count, or a padding value outside [0,7].
	ErrCorruptStream = errors.New("bitpack: corrupt bit stream")
	// ErrUnknownSymbol indicates a token with no entry in the code table.
	ErrUnknownSymbol = errors.New("bitpack: symbol not in code table")
)

// MaxPadding is the largest legal padding-bit count.
const MaxPadding = 7

// Pack concatenates each token's code in stream order and pads the final
// partial byte with zero bits. It returns the payload and the number of
// padding bits added (0 when the bit count is already byte-aligned).
func Pack(tokens []string, table huffman.CodeTable) ([]byte, uint8, error) {
	if len(tokens) == 0 {
		return nil, 0, nil
	}

	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	for i, tok := range tokens {
		code, ok := table[tok]
		if !ok {
			return nil, 0, fmt.Errorf("%w: token %d %q", ErrUnknownSymbol, i, tok)
		}
		if err := w.WriteBits(code.Bits, code.Len); err != nil {
			return nil, 0, fmt.Errorf("write code for token %d: %w", i, err)
		}
	}
	padding, err := w.Align()
	if err != nil {
		return nil, 0, fmt.Errorf("flush packed payload: %w", err)
	}
	return buf.Bytes(), padding, nil
}

// Unpack walks tree bit by bit from the root, emitting a symbol at each
// leaf, until count symbols are decoded. The final padding bits of the
// payload are never consumed.
func Unpack(payload []byte, padding uint8, tree *huffman.Tree, count int) ([]string, error) {
	if padding > MaxPadding {
		return nil, fmt.Errorf("%w: padding %d outside [0,7]", ErrCorruptStream, padding)
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: negative token count %d", ErrCorruptStream, count)
	}
	if count == 0 {
		return nil, nil
	}
	avail := int64(len(payload))*8 - int64(padding)
	if avail <= 0 {
		return nil, fmt.Errorf("%w: %d payload bits for %d tokens", ErrCorruptStream, avail, count)
	}

	root := tree.Root()
	if root == huffman.None {
		return nil, huffman.ErrDegenerateTree
	}

	r := bitio.NewReader(bytes.NewReader(payload))
	out := make([]string, 0, count)
	var used int64
	for len(out) < count {
		id := root
		for {
			if sym, leaf := tree.Symbol(id); leaf {
				out = append(out, sym)
				break
			}
			if used >= avail {
				return nil, fmt.Errorf("%w: payload exhausted after %d of %d tokens", ErrCorruptStream, len(out), count)
			}
			bit, err := r.ReadBool()
			if err != nil {
				return nil, fmt.Errorf("%w: read bit %d: %v", ErrCorruptStream, used, err)
			}
			used++
			left, right := tree.Children(id)
			if bit {
				id = right
			} else {
				id = left
			}
			if id == huffman.None {
				return nil, fmt.Errorf("%w: no branch for bit %d", ErrCorruptStream, used-1)
			}
		}
	}
	return out, nil
}
