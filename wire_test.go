package hufftool

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bshind87/Huffman-tool/bitpack"
	"github.com/bshind87/Huffman-tool/token"
)

// ============================================================================
// Metadata Container
// ============================================================================

func TestMetadataWireRoundTrip(t *testing.T) {
	text := "wire formats must survive the trip, 世界 included"
	artifact, meta := mustCompress(text, token.ModeWord)

	data, err := meta.MarshalBinary()
	require.NoError(t, err)

	var restored Metadata
	require.NoError(t, restored.UnmarshalBinary(data))
	require.Equal(t, meta.Mode, restored.Mode)
	require.Equal(t, meta.Padding, restored.Padding)
	require.Equal(t, meta.TotalTokens, restored.TotalTokens)
	require.Equal(t, meta.Freq.Symbols(), restored.Freq.Symbols())
	for _, sym := range meta.Freq.Symbols() {
		require.Equal(t, meta.Freq.Count(sym), restored.Freq.Count(sym), "count of %q", sym)
	}

	got, err := Decompress(artifact, &restored)
	require.NoError(t, err)
	require.Equal(t, text, got)
}

func TestMetadataWriteToReadFromStream(t *testing.T) {
	_, meta := mustCompress("writer and reader agree on byte counts", token.ModeChar)

	var buf bytes.Buffer
	written, err := meta.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), written)

	var restored Metadata
	read, err := restored.ReadFrom(&buf)
	require.NoError(t, err)
	require.Equal(t, written, read)
	require.Equal(t, 0, buf.Len(), "reader consumed bytes past the container")
}

func TestMetadataRejectsCorruptHeader(t *testing.T) {
	_, meta := mustCompress("aaab", token.ModeChar)
	data, err := meta.MarshalBinary()
	require.NoError(t, err)

	badMagic := append([]byte{}, data...)
	badMagic[0] = 'X'
	var m Metadata
	require.ErrorIs(t, m.UnmarshalBinary(badMagic), bitpack.ErrCorruptStream)

	badVersion := append([]byte{}, data...)
	badVersion[4] = 0xFF
	require.ErrorIs(t, m.UnmarshalBinary(badVersion), bitpack.ErrCorruptStream)
}

func TestMetadataRejectsTruncation(t *testing.T) {
	_, meta := mustCompress("truncated containers never validate", token.ModeChar)
	data, err := meta.MarshalBinary()
	require.NoError(t, err)

	for n := 0; n < len(data); n++ {
		var m Metadata
		require.Errorf(t, m.UnmarshalBinary(data[:n]), "prefix of %d bytes decoded", n)
	}
}

func TestMetadataWriteRejectsInvalid(t *testing.T) {
	_, meta := mustCompress("validated before a single byte is written", token.ModeChar)

	broken := *meta
	broken.TotalTokens++
	var buf bytes.Buffer
	_, err := broken.WriteTo(&buf)
	require.ErrorIs(t, err, ErrMetadataMismatch)
	require.Zero(t, buf.Len())
}

// ============================================================================
// Hostile Frequency Tables
// ============================================================================

// craftMetadata hand-builds a metadata container whose frequency table body
// is written by fill, bypassing the encoder's validation.
func craftMetadata(t *testing.T, mode, padding uint8, total uint64, fill func(*wireWriter)) []byte {
	t.Helper()
	var buf bytes.Buffer
	ww := &wireWriter{w: &buf}
	require.NoError(t, writeHeader(ww, metadataMagic, metadataVersion))
	require.NoError(t, ww.u8(mode))
	require.NoError(t, ww.u8(padding))
	require.NoError(t, ww.u64(total))
	fill(ww)
	return buf.Bytes()
}

func TestFrequencyTableRejectsHostileBodies(t *testing.T) {
	entry := func(ww *wireWriter, sym string, count uint64) {
		require.NoError(t, ww.uvarint(uint64(len(sym))))
		require.NoError(t, ww.bytes([]byte(sym)))
		require.NoError(t, ww.uvarint(count))
	}

	cases := []struct {
		name string
		data []byte
	}{
		{"zero count", craftMetadata(t, 0, 0, 1, func(ww *wireWriter) {
			require.NoError(t, ww.uvarint(1))
			entry(ww, "a", 0)
		})},
		{"duplicate symbol", craftMetadata(t, 0, 0, 3, func(ww *wireWriter) {
			require.NoError(t, ww.uvarint(2))
			entry(ww, "a", 1)
			entry(ww, "a", 2)
		})},
		{"empty symbol", craftMetadata(t, 0, 0, 1, func(ww *wireWriter) {
			require.NoError(t, ww.uvarint(1))
			entry(ww, "", 1)
		})},
		{"entry count over limit", craftMetadata(t, 0, 0, 1, func(ww *wireWriter) {
			require.NoError(t, ww.uvarint(maxFreqEntries+1))
		})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var m Metadata
			require.ErrorIs(t, m.UnmarshalBinary(tc.data), bitpack.ErrCorruptStream)
		})
	}
}

func TestMetadataRejectsInconsistentTotals(t *testing.T) {
	data := craftMetadata(t, 0, 0, 5, func(ww *wireWriter) {
		require.NoError(t, ww.uvarint(1))
		require.NoError(t, ww.uvarint(1))
		require.NoError(t, ww.bytes([]byte("a")))
		require.NoError(t, ww.uvarint(3))
	})
	var m Metadata
	require.ErrorIs(t, m.UnmarshalBinary(data), ErrMetadataMismatch)
}

// ============================================================================
// Index Container
// ============================================================================

func TestIndexWireRoundTrip(t *testing.T) {
	text := strings.Repeat("indexes carry one table per chunk. ", 30)
	artifact, idx := mustCompressChunked(text, token.ModeWord, 16)

	data, err := idx.MarshalBinary()
	require.NoError(t, err)

	var restored Index
	require.NoError(t, restored.UnmarshalBinary(data))
	require.Equal(t, idx.Mode, restored.Mode)
	require.Equal(t, idx.ChunkTokens, restored.ChunkTokens)
	require.Equal(t, idx.TotalTokens, restored.TotalTokens)
	require.Equal(t, idx.Len(), restored.Len())
	for i := range idx.Chunks {
		require.Equal(t, idx.Chunks[i].Offset, restored.Chunks[i].Offset, "chunk %d", i)
		require.Equal(t, idx.Chunks[i].Length, restored.Chunks[i].Length, "chunk %d", i)
		require.Equal(t, idx.Chunks[i].Padding, restored.Chunks[i].Padding, "chunk %d", i)
		require.Equal(t, idx.Chunks[i].Tokens, restored.Chunks[i].Tokens, "chunk %d", i)
		require.Equal(t, idx.Chunks[i].Freq.Symbols(), restored.Chunks[i].Freq.Symbols(), "chunk %d", i)
	}

	got, err := DecompressChunked(artifact, &restored)
	require.NoError(t, err)
	require.Equal(t, text, got)
}

func TestIndexWriteRejectsInvalid(t *testing.T) {
	_, idx := mustCompressChunked("abcdefghij", token.ModeChar, 4)

	cases := []struct {
		name   string
		mutate func(*Index)
		want   error
	}{
		{"offset gap", func(i *Index) { i.Chunks[1].Offset += 3 }, ErrMetadataMismatch},
		{"padding out of range", func(i *Index) { i.Chunks[0].Padding = 8 }, bitpack.ErrCorruptStream},
		{"token sum mismatch", func(i *Index) { i.TotalTokens++ }, ErrMetadataMismatch},
		{"short non-final chunk", func(i *Index) { i.Chunks[0].Tokens-- }, ErrMetadataMismatch},
		{"no chunks", func(i *Index) { i.Chunks = nil }, ErrMetadataMismatch},
		{"zero chunk size", func(i *Index) { i.ChunkTokens = 0 }, ErrMetadataMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			broken := *idx
			broken.Chunks = append([]ChunkDescriptor{}, idx.Chunks...)
			tc.mutate(&broken)
			var buf bytes.Buffer
			_, err := broken.WriteTo(&buf)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestIndexRejectsHostileCounts(t *testing.T) {
	var buf bytes.Buffer
	ww := &wireWriter{w: &buf}
	require.NoError(t, writeHeader(ww, indexMagic, indexVersion))
	require.NoError(t, ww.u8(0))
	require.NoError(t, ww.u32(4))
	require.NoError(t, ww.u64(8))
	require.NoError(t, ww.u32(maxIndexChunks+1))

	var idx Index
	require.ErrorIs(t, idx.UnmarshalBinary(buf.Bytes()), bitpack.ErrCorruptStream)

	buf.Reset()
	ww = &wireWriter{w: &buf}
	require.NoError(t, writeHeader(ww, indexMagic, indexVersion))
	require.NoError(t, ww.u8(0))
	require.NoError(t, ww.u32(4))
	require.NoError(t, ww.u64(8))
	require.NoError(t, ww.u32(1))
	require.NoError(t, ww.u64(0))                 // offset
	require.NoError(t, ww.u32(maxPayloadBytes+1)) // length over limit
	require.ErrorIs(t, idx.UnmarshalBinary(buf.Bytes()), bitpack.ErrCorruptStream)
}

func TestIndexRejectsTruncation(t *testing.T) {
	_, idx := mustCompressChunked("truncation leaves nothing usable", token.ModeChar, 8)
	data, err := idx.MarshalBinary()
	require.NoError(t, err)

	for n := 0; n < len(data); n++ {
		var restored Index
		require.Errorf(t, restored.UnmarshalBinary(data[:n]), "prefix of %d bytes decoded", n)
	}
}

// ============================================================================
// Stream Index Container
// ============================================================================

func TestStreamIndexWireRoundTrip(t *testing.T) {
	text := strings.Repeat("Global tables travel once. Chunks stay lean! ", 40)
	artifact, idx := mustCompressStream(text, token.ModeWord, 128)

	data, err := idx.MarshalBinary()
	require.NoError(t, err)

	var restored StreamIndex
	require.NoError(t, restored.UnmarshalBinary(data))
	require.Equal(t, idx.Mode, restored.Mode)
	require.Equal(t, idx.TargetChunkBytes, restored.TargetChunkBytes)
	require.Equal(t, idx.TotalTokens, restored.TotalTokens)
	require.Equal(t, idx.Freq.Symbols(), restored.Freq.Symbols())
	require.Equal(t, idx.Chunks, restored.Chunks)

	var out bytes.Buffer
	require.NoError(t, DecompressStream(&out, artifact, &restored))
	require.Equal(t, text, out.String())
}

func TestStreamIndexRejectsCorruptHeader(t *testing.T) {
	_, idx := mustCompressStream("aaab. ", token.ModeChar, 4)
	data, err := idx.MarshalBinary()
	require.NoError(t, err)

	data[2] = '?'
	var restored StreamIndex
	require.ErrorIs(t, restored.UnmarshalBinary(data), bitpack.ErrCorruptStream)
}

// ============================================================================
// Shared Streams
// ============================================================================

// Containers never read past their own end, so several can share one
// stream back to back.
func TestContainersShareAStream(t *testing.T) {
	_, meta := mustCompress("first container", token.ModeChar)
	_, idx := mustCompressChunked("second container follows", token.ModeChar, 4)

	var buf bytes.Buffer
	_, err := meta.WriteTo(&buf)
	require.NoError(t, err)
	_, err = idx.WriteTo(&buf)
	require.NoError(t, err)

	var gotMeta Metadata
	_, err = gotMeta.ReadFrom(&buf)
	require.NoError(t, err)
	require.Equal(t, meta.TotalTokens, gotMeta.TotalTokens)

	var gotIdx Index
	_, err = gotIdx.ReadFrom(&buf)
	require.NoError(t, err)
	require.Equal(t, idx.TotalTokens, gotIdx.TotalTokens)
	require.Zero(t, buf.Len())
}
