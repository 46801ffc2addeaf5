package hufftool

import (
	"bytes"
	"fmt"
	"io"

	"github.com/bshind87/Huffman-tool/bitpack"
	"github.com/bshind87/Huffman-tool/huffman"
	"github.com/bshind87/Huffman-tool/token"
)

const (
	indexMagic   = "HUFX"
	indexVersion = uint16(1)

	streamIndexMagic   = "HUFS"
	streamIndexVersion = uint16(1)
)

// ChunkDescriptor locates one chunk's payload within the artifact and
// carries everything needed to decode it in isolation.
type ChunkDescriptor struct {
	Offset  uint64
	Length  uint32
	Padding uint8
	Tokens  uint32
	Freq    *huffman.FrequencyTable
}

// Index is the random-access metadata for a chunked artifact. Every chunk
// owns its own frequency table, so decoding chunk i touches no other
// chunk's bytes or tables.
//
// Wire format (version 1), little-endian:
//
//	magic[4]    = "HUFX"
//	version     = uint16
//	mode        = uint8
//	chunkTokens = uint32
//	totalTokens = uint64
//	chunkCount  = uint32
//	repeat chunkCount times:
//	  offset  = uint64
//	  length  = uint32
//	  padding = uint8
//	  tokens  = uint32
//	  freq    = frequency table body (see Metadata)
type Index struct {
	Mode        token.Mode
	ChunkTokens uint32
	TotalTokens uint64
	Chunks      []ChunkDescriptor
}

// Len returns the number of chunks.
func (idx *Index) Len() int {
	return len(idx.Chunks)
}

func (idx *Index) validate() error {
	if !idx.Mode.Valid() {
		return fmt.Errorf("%w: unknown mode %d", ErrMetadataMismatch, idx.Mode)
	}
	if idx.ChunkTokens == 0 {
		return fmt.Errorf("%w: zero chunk token count", ErrMetadataMismatch)
	}
	if len(idx.Chunks) == 0 {
		return fmt.Errorf("%w: no chunks", ErrMetadataMismatch)
	}
	var offset uint64
	var tokens uint64
	for i, desc := range idx.Chunks {
		if desc.Offset != offset {
			return fmt.Errorf("%w: chunk %d offset %d, want %d", ErrMetadataMismatch, i, desc.Offset, offset)
		}
		if desc.Padding > bitpack.MaxPadding {
			return fmt.Errorf("%w: chunk %d padding %d outside [0,7]", bitpack.ErrCorruptStream, i, desc.Padding)
		}
		if desc.Tokens == 0 {
			return fmt.Errorf("%w: chunk %d has no tokens", ErrMetadataMismatch, i)
		}
		if desc.Tokens > idx.ChunkTokens {
			return fmt.Errorf("%w: chunk %d holds %d tokens, chunk size is %d", ErrMetadataMismatch, i, desc.Tokens, idx.ChunkTokens)
		}
		if i < len(idx.Chunks)-1 && desc.Tokens != idx.ChunkTokens {
			return fmt.Errorf("%w: non-final chunk %d holds %d tokens, want %d", ErrMetadataMismatch, i, desc.Tokens, idx.ChunkTokens)
		}
		if desc.Freq == nil || desc.Freq.Len() == 0 {
			return fmt.Errorf("chunk %d: empty frequency table: %w", i, huffman.ErrDegenerateTree)
		}
		if got := desc.Freq.Total(); got != uint64(desc.Tokens) {
			return fmt.Errorf("%w: chunk %d frequency table counts %d tokens, descriptor claims %d", ErrMetadataMismatch, i, got, desc.Tokens)
		}
		offset += uint64(desc.Length)
		tokens += uint64(desc.Tokens)
	}
	if tokens != idx.TotalTokens {
		return fmt.Errorf("%w: chunks hold %d tokens, index claims %d", ErrMetadataMismatch, tokens, idx.TotalTokens)
	}
	return nil
}

// WriteTo serializes the index.
func (idx *Index) WriteTo(w io.Writer) (int64, error) {
	if err := idx.validate(); err != nil {
		return 0, fmt.Errorf("invalid index: %w", err)
	}
	ww := &wireWriter{w: w}
	if err := writeHeader(ww, indexMagic, indexVersion); err != nil {
		return ww.n, err
	}
	if err := ww.u8(uint8(idx.Mode)); err != nil {
		return ww.n, err
	}
	if err := ww.u32(idx.ChunkTokens); err != nil {
		return ww.n, err
	}
	if err := ww.u64(idx.TotalTokens); err != nil {
		return ww.n, err
	}
	if err := ww.u32(uint32(len(idx.Chunks))); err != nil {
		return ww.n, err
	}
	for i, desc := range idx.Chunks {
		if err := writeChunkHeader(ww, desc.Offset, desc.Length, desc.Padding, desc.Tokens); err != nil {
			return ww.n, fmt.Errorf("write chunk %d: %w", i, err)
		}
		if err := writeFrequencyTable(ww, desc.Freq); err != nil {
			return ww.n, fmt.Errorf("write chunk %d frequency table: %w", i, err)
		}
	}
	return ww.n, nil
}

// ReadFrom deserializes and validates an index.
func (idx *Index) ReadFrom(r io.Reader) (int64, error) {
	wr := &wireReader{r: r}
	if err := readHeader(wr, indexMagic, indexVersion); err != nil {
		return wr.n, fmt.Errorf("index: %w", err)
	}

	var tmp Index
	off := wr.n
	mode, err := wr.u8()
	if err != nil {
		return wr.n, fmt.Errorf("read mode at offset %d: %w", off, err)
	}
	tmp.Mode = token.Mode(mode)

	off = wr.n
	if tmp.ChunkTokens, err = wr.u32(); err != nil {
		return wr.n, fmt.Errorf("read chunk size at offset %d: %w", off, err)
	}
	off = wr.n
	if tmp.TotalTokens, err = wr.u64(); err != nil {
		return wr.n, fmt.Errorf("read total tokens at offset %d: %w", off, err)
	}
	off = wr.n
	count, err := wr.u32()
	if err != nil {
		return wr.n, fmt.Errorf("read chunk count at offset %d: %w", off, err)
	}
	if count == 0 || count > maxIndexChunks {
		return wr.n, fmt.Errorf("%w: chunk count %d at offset %d", bitpack.ErrCorruptStream, count, off)
	}

	tmp.Chunks = make([]ChunkDescriptor, count)
	for i := range tmp.Chunks {
		desc := &tmp.Chunks[i]
		var err error
		if desc.Offset, desc.Length, desc.Padding, desc.Tokens, err = readChunkHeader(wr); err != nil {
			return wr.n, fmt.Errorf("read chunk %d: %w", i, err)
		}
		if desc.Freq, err = readFrequencyTable(wr); err != nil {
			return wr.n, fmt.Errorf("chunk %d frequency table: %w", i, err)
		}
	}

	if err := tmp.validate(); err != nil {
		return wr.n, fmt.Errorf("invalid index structure: %w", err)
	}
	*idx = tmp
	return wr.n, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (idx *Index) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := idx.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (idx *Index) UnmarshalBinary(data []byte) error {
	_, err := idx.ReadFrom(bytes.NewReader(data))
	return err
}

func writeChunkHeader(ww *wireWriter, offset uint64, length uint32, padding uint8, tokens uint32) error {
	if err := ww.u64(offset); err != nil {
		return err
	}
	if err := ww.u32(length); err != nil {
		return err
	}
	if err := ww.u8(padding); err != nil {
		return err
	}
	return ww.u32(tokens)
}

func readChunkHeader(wr *wireReader) (offset uint64, length uint32, padding uint8, tokens uint32, err error) {
	off := wr.n
	if offset, err = wr.u64(); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("offset field at offset %d: %w", off, err)
	}
	off = wr.n
	if length, err = wr.u32(); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("length field at offset %d: %w", off, err)
	}
	if length > maxPayloadBytes {
		return 0, 0, 0, 0, fmt.Errorf("%w: chunk payload length %d at offset %d", bitpack.ErrCorruptStream, length, off)
	}
	off = wr.n
	if padding, err = wr.u8(); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("padding field at offset %d: %w", off, err)
	}
	off = wr.n
	if tokens, err = wr.u32(); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("tokens field at offset %d: %w", off, err)
	}
	return offset, length, padding, tokens, nil
}

// StreamChunk locates one chunk of a stream-mode artifact. There is no
// per-chunk frequency table; the StreamIndex global table decodes all
// chunks.
type StreamChunk struct {
	Offset  uint64
	Length  uint32
	Padding uint8
	Tokens  uint32
}

// StreamIndex is the metadata for the global-codebook stream mode: one
// frequency table for the whole input, chunks cut by byte-size target.
//
// Wire format (version 1), little-endian:
//
//	magic[4]         = "HUFS"
//	version          = uint16
//	mode             = uint8
//	targetChunkBytes = uint32
//	totalTokens      = uint64
//	freq             = frequency table body (see Metadata)
//	chunkCount       = uint32
//	repeat chunkCount times:
//	  offset  = uint64
//	  length  = uint32
//	  padding = uint8
//	  tokens  = uint32
type StreamIndex struct {
	Mode             token.Mode
	TargetChunkBytes uint32
	TotalTokens      uint64
	Freq             *huffman.FrequencyTable
	Chunks           []StreamChunk
}

// Len returns the number of chunks.
func (idx *StreamIndex) Len() int {
	return len(idx.Chunks)
}

func (idx *StreamIndex) validate() error {
	if !idx.Mode.Valid() {
		return fmt.Errorf("%w: unknown mode %d", ErrMetadataMismatch, idx.Mode)
	}
	if idx.TargetChunkBytes == 0 {
		return fmt.Errorf("%w: zero chunk size target", ErrMetadataMismatch)
	}
	if idx.Freq == nil || idx.Freq.Len() == 0 {
		return fmt.Errorf("empty frequency table: %w", huffman.ErrDegenerateTree)
	}
	if len(idx.Chunks) == 0 {
		return fmt.Errorf("%w: no chunks", ErrMetadataMismatch)
	}
	var offset uint64
	var tokens uint64
	for i, c := range idx.Chunks {
		if c.Offset != offset {
			return fmt.Errorf("%w: chunk %d offset %d, want %d", ErrMetadataMismatch, i, c.Offset, offset)
		}
		if c.Padding > bitpack.MaxPadding {
			return fmt.Errorf("%w: chunk %d padding %d outside [0,7]", bitpack.ErrCorruptStream, i, c.Padding)
		}
		if c.Tokens == 0 {
			return fmt.Errorf("%w: chunk %d has no tokens", ErrMetadataMismatch, i)
		}
		offset += uint64(c.Length)
		tokens += uint64(c.Tokens)
	}
	if tokens != idx.TotalTokens {
		return fmt.Errorf("%w: chunks hold %d tokens, index claims %d", ErrMetadataMismatch, tokens, idx.TotalTokens)
	}
	if got := idx.Freq.Total(); got != idx.TotalTokens {
		return fmt.Errorf("%w: frequency table counts %d tokens, index claims %d", ErrMetadataMismatch, got, idx.TotalTokens)
	}
	return nil
}

// WriteTo serializes the stream index.
func (idx *StreamIndex) WriteTo(w io.Writer) (int64, error) {
	if err := idx.validate(); err != nil {
		return 0, fmt.Errorf("invalid stream index: %w", err)
	}
	ww := &wireWriter{w: w}
	if err := writeHeader(ww, streamIndexMagic, streamIndexVersion); err != nil {
		return ww.n, err
	}
	if err := ww.u8(uint8(idx.Mode)); err != nil {
		return ww.n, err
	}
	if err := ww.u32(idx.TargetChunkBytes); err != nil {
		return ww.n, err
	}
	if err := ww.u64(idx.TotalTokens); err != nil {
		return ww.n, err
	}
	if err := writeFrequencyTable(ww, idx.Freq); err != nil {
		return ww.n, err
	}
	if err := ww.u32(uint32(len(idx.Chunks))); err != nil {
		return ww.n, err
	}
	for i, c := range idx.Chunks {
		if err := writeChunkHeader(ww, c.Offset, c.Length, c.Padding, c.Tokens); err != nil {
			return ww.n, fmt.Errorf("write chunk %d: %w", i, err)
		}
	}
	return ww.n, nil
}

// ReadFrom deserializes and validates a stream index.
func (idx *StreamIndex) ReadFrom(r io.Reader) (int64, error) {
	wr := &wireReader{r: r}
	if err := readHeader(wr, streamIndexMagic, streamIndexVersion); err != nil {
		return wr.n, fmt.Errorf("stream index: %w", err)
	}

	var tmp StreamIndex
	off := wr.n
	mode, err := wr.u8()
	if err != nil {
		return wr.n, fmt.Errorf("read mode at offset %d: %w", off, err)
	}
	tmp.Mode = token.Mode(mode)

	off = wr.n
	if tmp.TargetChunkBytes, err = wr.u32(); err != nil {
		return wr.n, fmt.Errorf("read chunk size target at offset %d: %w", off, err)
	}
	off = wr.n
	if tmp.TotalTokens, err = wr.u64(); err != nil {
		return wr.n, fmt.Errorf("read total tokens at offset %d: %w", off, err)
	}
	if tmp.Freq, err = readFrequencyTable(wr); err != nil {
		return wr.n, fmt.Errorf("stream index frequency table: %w", err)
	}
	off = wr.n
	count, err := wr.u32()
	if err != nil {
		return wr.n, fmt.Errorf("read chunk count at offset %d: %w", off, err)
	}
	if count == 0 || count > maxIndexChunks {
		return wr.n, fmt.Errorf("%w: chunk count %d at offset %d", bitpack.ErrCorruptStream, count, off)
	}

	tmp.Chunks = make([]StreamChunk, count)
	for i := range tmp.Chunks {
		c := &tmp.Chunks[i]
		var err error
		if c.Offset, c.Length, c.Padding, c.Tokens, err = readChunkHeader(wr); err != nil {
			return wr.n, fmt.Errorf("read chunk %d: %w", i, err)
		}
	}

	if err := tmp.validate(); err != nil {
		return wr.n, fmt.Errorf("invalid stream index structure: %w", err)
	}
	*idx = tmp
	return wr.n, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (idx *StreamIndex) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := idx.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (idx *StreamIndex) UnmarshalBinary(data []byte) error {
	_, err := idx.ReadFrom(bytes.NewReader(data))
	return err
}
