package hufftool

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/bshind87/Huffman-tool/bitpack"
	"github.com/bshind87/Huffman-tool/huffman"
	"github.com/bshind87/Huffman-tool/token"
)

// CompressChunked splits the token stream into runs of chunkTokens (the
// last may be shorter) and compresses each run with its own frequency
// table, tree and code table. Chunks are encoded concurrently, but
// payloads are merged into the artifact strictly in chunk order so byte
// offsets are reproducible regardless of worker scheduling. chunkTokens
// <= 0 selects DefaultChunkTokens.
func (c *Codec) CompressChunked(text string, mode token.Mode, chunkTokens int) ([]byte, *Index, error) {
	tokens, err := token.Tokenize(text, mode)
	if err != nil {
		return nil, nil, err
	}
	if chunkTokens <= 0 {
		chunkTokens = DefaultChunkTokens
	}

	type chunkResult struct {
		payload []byte
		padding uint8
		freq    *huffman.FrequencyTable
	}
	chunkCount := (len(tokens) + chunkTokens - 1) / chunkTokens
	results := make([]chunkResult, chunkCount)

	var g errgroup.Group
	g.SetLimit(resolveParallelism(c.config))
	for i := 0; i < chunkCount; i++ {
		i := i
		g.Go(func() error {
			start := i * chunkTokens
			end := min(start+chunkTokens, len(tokens))
			chunk := tokens[start:end]

			freq := huffman.CountSymbols(chunk)
			book, err := huffman.NewCodebook(freq)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			payload, padding, err := bitpack.Pack(chunk, book.Codes())
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, wrapPackError(err))
			}
			results[i] = chunkResult{payload: payload, padding: padding, freq: freq}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var artifact bytes.Buffer
	chunks := make([]ChunkDescriptor, chunkCount)
	var offset uint64
	for i, res := range results {
		start := i * chunkTokens
		end := min(start+chunkTokens, len(tokens))
		chunks[i] = ChunkDescriptor{
			Offset:  offset,
			Length:  uint32(len(res.payload)),
			Padding: res.padding,
			Tokens:  uint32(end - start),
			Freq:    res.freq,
		}
		artifact.Write(res.payload)
		offset += uint64(len(res.payload))
	}

	idx := &Index{
		Mode:        mode,
		ChunkTokens: uint32(chunkTokens),
		TotalTokens: uint64(len(tokens)),
		Chunks:      chunks,
	}
	return artifact.Bytes(), idx, nil
}

// DecompressChunk decodes chunk chunkIndex on its own: it slices the
// artifact at the descriptor's byte range, rebuilds that chunk's tree from
// its stored frequency table and runs a count-bounded unpack. Bytes and
// tables of other chunks are never touched.
func (c *Codec) DecompressChunk(artifact []byte, idx *Index, chunkIndex int) (string, error) {
	tokens, err := c.decompressChunkTokens(artifact, idx, chunkIndex)
	if err != nil {
		return "", err
	}
	return strings.Join(tokens, ""), nil
}

// DecompressChunked decodes every chunk concurrently and concatenates the
// fragments in chunk order.
func (c *Codec) DecompressChunked(artifact []byte, idx *Index) (string, error) {
	if idx == nil {
		return "", fmt.Errorf("%w: nil index", ErrMetadataMismatch)
	}
	fragments := make([]string, len(idx.Chunks))
	var g errgroup.Group
	g.SetLimit(resolveParallelism(c.config))
	for i := range idx.Chunks {
		i := i
		g.Go(func() error {
			fragment, err := c.DecompressChunk(artifact, idx, i)
			if err != nil {
				return err
			}
			fragments[i] = fragment
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	return strings.Join(fragments, ""), nil
}

func (c *Codec) decompressChunkTokens(artifact []byte, idx *Index, chunkIndex int) ([]string, error) {
	if idx == nil {
		return nil, fmt.Errorf("%w: nil index", ErrMetadataMismatch)
	}
	if chunkIndex < 0 || chunkIndex >= len(idx.Chunks) {
		return nil, fmt.Errorf("%w: chunk %d of %d", ErrIndexOutOfRange, chunkIndex, len(idx.Chunks))
	}
	desc := idx.Chunks[chunkIndex]
	end := desc.Offset + uint64(desc.Length)
	if end > uint64(len(artifact)) {
		return nil, fmt.Errorf("%w: chunk %d spans [%d, %d) but artifact holds %d bytes",
			ErrIndexOutOfRange, chunkIndex, desc.Offset, end, len(artifact))
	}
	tree, err := huffman.Build(desc.Freq)
	if err != nil {
		return nil, fmt.Errorf("chunk %d: %w", chunkIndex, err)
	}
	tokens, err := bitpack.Unpack(artifact[desc.Offset:end], desc.Padding, tree, int(desc.Tokens))
	if err != nil {
		return nil, fmt.Errorf("chunk %d: %w", chunkIndex, err)
	}
	return tokens, nil
}

// ChunkTokens decodes chunk chunkIndex and returns its symbols unjoined.
// Token-range consumers like the pager use this to slice mid-chunk without
// re-tokenizing.
func ChunkTokens(artifact []byte, idx *Index, chunkIndex int) ([]string, error) {
	return defaultCodec.decompressChunkTokens(artifact, idx, chunkIndex)
}
