package hufftool

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/icza/bitio"

	"github.com/bshind87/Huffman-tool/bitpack"
	"github.com/bshind87/Huffman-tool/huffman"
	"github.com/bshind87/Huffman-tool/token"
)

// CompressStream compresses r into w with a single global codebook, two
// passes over the input. The first pass counts symbol frequencies, the
// second encodes the tokens, cutting a chunk at the first token boundary
// where the chunk's byte size has reached targetChunkBytes. In word mode a
// cut additionally waits for a sentence-ending token (its word part ends
// in '.', '!' or '?', or its whitespace tail holds a newline), so a stream
// without sentence marks stays a single chunk. Chunks never split a token.
// targetChunkBytes <= 0 selects DefaultTargetChunkBytes.
func (c *Codec) CompressStream(w io.Writer, r io.ReadSeeker, mode token.Mode, targetChunkBytes int) (*StreamIndex, error) {
	if targetChunkBytes <= 0 {
		targetChunkBytes = DefaultTargetChunkBytes
	}

	freq := huffman.NewFrequencyTable()
	var total uint64
	sc := token.NewScanner(r, mode)
	for {
		tok, err := sc.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scan input: %w", err)
		}
		freq.Add(tok)
		total++
	}
	if total == 0 {
		return nil, token.ErrEmptyInput
	}

	book, err := huffman.NewCodebook(freq)
	if err != nil {
		return nil, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind input: %w", err)
	}

	enc := newChunkEncoder(w, book.Codes(), mode, targetChunkBytes)
	sc = token.NewScanner(r, mode)
	for {
		tok, err := sc.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scan input: %w", err)
		}
		if err := enc.encode(tok); err != nil {
			return nil, err
		}
	}
	chunks, encoded, err := enc.finish()
	if err != nil {
		return nil, err
	}
	if encoded != total {
		return nil, fmt.Errorf("%w: first pass saw %d tokens, second pass %d", ErrMetadataMismatch, total, encoded)
	}

	return &StreamIndex{
		Mode:             mode,
		TargetChunkBytes: uint32(targetChunkBytes),
		TotalTokens:      total,
		Freq:             freq,
		Chunks:           chunks,
	}, nil
}

// DecompressStream decodes a stream-mode artifact into w, rebuilding the
// global tree once and walking the chunks in order.
func (c *Codec) DecompressStream(w io.Writer, artifact []byte, idx *StreamIndex) error {
	if idx == nil {
		return fmt.Errorf("%w: nil stream index", ErrMetadataMismatch)
	}
	if err := idx.validate(); err != nil {
		return err
	}
	tree, err := huffman.Build(idx.Freq)
	if err != nil {
		return err
	}
	for i := range idx.Chunks {
		tokens, err := c.streamChunkTokens(artifact, idx, tree, i)
		if err != nil {
			return err
		}
		for _, tok := range tokens {
			if _, err := io.WriteString(w, tok); err != nil {
				return fmt.Errorf("write chunk %d: %w", i, err)
			}
		}
	}
	return nil
}

// DecompressStreamChunk decodes one chunk of a stream-mode artifact. Only
// the global frequency table and that chunk's bytes are consulted.
func (c *Codec) DecompressStreamChunk(artifact []byte, idx *StreamIndex, chunkIndex int) (string, error) {
	if idx == nil {
		return "", fmt.Errorf("%w: nil stream index", ErrMetadataMismatch)
	}
	tree, err := huffman.Build(idx.Freq)
	if err != nil {
		return "", err
	}
	tokens, err := c.streamChunkTokens(artifact, idx, tree, chunkIndex)
	if err != nil {
		return "", err
	}
	return strings.Join(tokens, ""), nil
}

// CompressStream compresses r into w using the default Codec.
func CompressStream(w io.Writer, r io.ReadSeeker, mode token.Mode, targetChunkBytes int) (*StreamIndex, error) {
	return defaultCodec.CompressStream(w, r, mode, targetChunkBytes)
}

// DecompressStream decodes a stream-mode artifact using the default Codec.
func DecompressStream(w io.Writer, artifact []byte, idx *StreamIndex) error {
	return defaultCodec.DecompressStream(w, artifact, idx)
}

// DecompressStreamChunk decodes one stream-mode chunk using the default
// Codec.
func DecompressStreamChunk(artifact []byte, idx *StreamIndex, chunkIndex int) (string, error) {
	return defaultCodec.DecompressStreamChunk(artifact, idx, chunkIndex)
}

func (c *Codec) streamChunkTokens(artifact []byte, idx *StreamIndex, tree *huffman.Tree, chunkIndex int) ([]string, error) {
	if chunkIndex < 0 || chunkIndex >= len(idx.Chunks) {
		return nil, fmt.Errorf("%w: chunk %d of %d", ErrIndexOutOfRange, chunkIndex, len(idx.Chunks))
	}
	chunk := idx.Chunks[chunkIndex]
	end := chunk.Offset + uint64(chunk.Length)
	if end > uint64(len(artifact)) {
		return nil, fmt.Errorf("%w: chunk %d spans [%d, %d) but artifact holds %d bytes",
			ErrIndexOutOfRange, chunkIndex, chunk.Offset, end, len(artifact))
	}
	tokens, err := bitpack.Unpack(artifact[chunk.Offset:end], chunk.Padding, tree, int(chunk.Tokens))
	if err != nil {
		return nil, fmt.Errorf("chunk %d: %w", chunkIndex, err)
	}
	return tokens, nil
}

// chunkEncoder streams code bits into the destination writer, closing a
// chunk whenever the cut policy allows. Held state never exceeds the seven
// bits bitio buffers before the next whole byte.
type chunkEncoder struct {
	cw     *countingWriter
	bw     *bitio.Writer
	codes  huffman.CodeTable
	mode   token.Mode
	target uint64

	chunks        []StreamChunk
	chunkStart    uint64
	tokensInChunk uint32
	encoded       uint64
}

type countingWriter struct {
	w io.Writer
	n uint64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += uint64(n)
	return n, err
}

func newChunkEncoder(w io.Writer, codes huffman.CodeTable, mode token.Mode, target int) *chunkEncoder {
	cw := &countingWriter{w: w}
	return &chunkEncoder{
		cw:     cw,
		bw:     bitio.NewWriter(cw),
		codes:  codes,
		mode:   mode,
		target: uint64(target),
	}
}

func (e *chunkEncoder) encode(tok string) error {
	code, ok := e.codes[tok]
	if !ok {
		// The global table came from the first pass; a missing code means
		// the input changed between passes.
		return fmt.Errorf("%w: no code for token %d %q", ErrMetadataMismatch, e.encoded, tok)
	}
	if err := e.bw.WriteBits(code.Bits, code.Len); err != nil {
		return fmt.Errorf("write code for token %d: %w", e.encoded, err)
	}
	e.tokensInChunk++
	e.encoded++

	if e.cw.n-e.chunkStart >= e.target && (e.mode == token.ModeChar || endsSentence(tok)) {
		return e.closeChunk()
	}
	return nil
}

func (e *chunkEncoder) finish() ([]StreamChunk, uint64, error) {
	if e.tokensInChunk > 0 {
		if err := e.closeChunk(); err != nil {
			return nil, e.encoded, err
		}
	}
	return e.chunks, e.encoded, nil
}

func (e *chunkEncoder) closeChunk() error {
	padding, err := e.bw.Align()
	if err != nil {
		return fmt.Errorf("flush chunk %d: %w", len(e.chunks), err)
	}
	e.chunks = append(e.chunks, StreamChunk{
		Offset:  e.chunkStart,
		Length:  uint32(e.cw.n - e.chunkStart),
		Padding: padding,
		Tokens:  e.tokensInChunk,
	})
	e.chunkStart = e.cw.n
	e.tokensInChunk = 0
	return nil
}

// endsSentence reports whether a word-mode token closes a sentence: its
// word part ends in '.', '!' or '?', or its trailing whitespace holds a
// newline.
func endsSentence(tok string) bool {
	if strings.ContainsRune(tok, '\n') {
		return true
	}
	trimmed := strings.TrimRightFunc(tok, unicode.IsSpace)
	if trimmed == "" {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(trimmed)
	return last == '.' || last == '!' || last == '?'
}
