package hufftool

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bshind87/Huffman-tool/bitpack"
	"github.com/bshind87/Huffman-tool/huffman"
)

// Serialization limits. Reads reject anything larger before allocating.
const (
	maxFreqEntries  = 1 << 26
	maxSymbolBytes  = 1 << 30 // 1 GiB
	maxIndexChunks  = 1 << 24
	maxPayloadBytes = 1 << 30 // 1 GiB per chunk payload
)

// wireWriter tracks how many bytes have been written so WriteTo can report
// totals and failures can name offsets.
type wireWriter struct {
	w io.Writer
	n int64
}

func (ww *wireWriter) bytes(b []byte) error {
	n, err := ww.w.Write(b)
	ww.n += int64(n)
	if err != nil {
		return err
	}
	if n != len(b) {
		return io.ErrShortWrite
	}
	return nil
}

func (ww *wireWriter) u8(v uint8) error {
	return ww.bytes([]byte{v})
}

func (ww *wireWriter) u16(v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return ww.bytes(b[:])
}

func (ww *wireWriter) u32(v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return ww.bytes(b[:])
}

func (ww *wireWriter) u64(v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return ww.bytes(b[:])
}

func (ww *wireWriter) uvarint(v uint64) error {
	var b [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(b[:], v)
	return ww.bytes(b[:n])
}

// wireReader mirrors wireWriter for reads. It never reads past the fields
// it is asked for, so a container can be followed by other data in the
// same stream.
type wireReader struct {
	r io.Reader
	n int64
}

func (wr *wireReader) full(b []byte) error {
	n, err := io.ReadFull(wr.r, b)
	wr.n += int64(n)
	return err
}

// ReadByte implements io.ByteReader for binary.ReadUvarint.
func (wr *wireReader) ReadByte() (byte, error) {
	var b [1]byte
	if err := wr.full(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (wr *wireReader) u8() (uint8, error) {
	return wr.ReadByte()
}

func (wr *wireReader) u16() (uint16, error) {
	var b [2]byte
	if err := wr.full(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func (wr *wireReader) u32() (uint32, error) {
	var b [4]byte
	if err := wr.full(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func (wr *wireReader) u64() (uint64, error) {
	var b [8]byte
	if err := wr.full(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func (wr *wireReader) uvarint() (uint64, error) {
	return binary.ReadUvarint(wr)
}

// readHeader consumes and checks a container's magic and version.
func readHeader(wr *wireReader, magic string, version uint16) error {
	off := wr.n
	var got [4]byte
	if err := wr.full(got[:]); err != nil {
		return fmt.Errorf("read magic at offset %d: %w", off, err)
	}
	if string(got[:]) != magic {
		return fmt.Errorf("%w: magic %q at offset %d, want %q", bitpack.ErrCorruptStream, string(got[:]), off, magic)
	}
	off = wr.n
	v, err := wr.u16()
	if err != nil {
		return fmt.Errorf("read version at offset %d: %w", off, err)
	}
	if v != version {
		return fmt.Errorf("%w: unsupported version %d at offset %d", bitpack.ErrCorruptStream, v, off)
	}
	return nil
}

func writeHeader(ww *wireWriter, magic string, version uint16) error {
	if err := ww.bytes([]byte(magic)); err != nil {
		return err
	}
	return ww.u16(version)
}

// writeFrequencyTable emits the table body: an entry count followed by
// (symbol length, symbol bytes, count) triples in first-seen order. The
// entry order is semantic; it reproduces the tree on the decode side.
func writeFrequencyTable(ww *wireWriter, ft *huffman.FrequencyTable) error {
	syms := ft.Symbols()
	if err := ww.uvarint(uint64(len(syms))); err != nil {
		return err
	}
	for _, sym := range syms {
		if err := ww.uvarint(uint64(len(sym))); err != nil {
			return err
		}
		if err := ww.bytes([]byte(sym)); err != nil {
			return err
		}
		if err := ww.uvarint(ft.Count(sym)); err != nil {
			return err
		}
	}
	return nil
}

func readFrequencyTable(wr *wireReader) (*huffman.FrequencyTable, error) {
	off := wr.n
	entries, err := wr.uvarint()
	if err != nil {
		return nil, fmt.Errorf("read symbol count at offset %d: %w", off, err)
	}
	if entries > maxFreqEntries {
		return nil, fmt.Errorf("%w: %d symbols at offset %d exceeds limit", bitpack.ErrCorruptStream, entries, off)
	}

	ft := huffman.NewFrequencyTable()
	for i := uint64(0); i < entries; i++ {
		off = wr.n
		symLen, err := wr.uvarint()
		if err != nil {
			return nil, fmt.Errorf("read symbol %d length at offset %d: %w", i, off, err)
		}
		if symLen == 0 || symLen > maxSymbolBytes {
			return nil, fmt.Errorf("%w: symbol %d length %d at offset %d", bitpack.ErrCorruptStream, i, symLen, off)
		}
		buf := make([]byte, symLen)
		off = wr.n
		if err := wr.full(buf); err != nil {
			return nil, fmt.Errorf("read symbol %d at offset %d: %w", i, off, err)
		}
		sym := string(buf)
		off = wr.n
		count, err := wr.uvarint()
		if err != nil {
			return nil, fmt.Errorf("read symbol %d count at offset %d: %w", i, off, err)
		}
		if count == 0 {
			return nil, fmt.Errorf("%w: zero count for symbol %q at offset %d", bitpack.ErrCorruptStream, sym, off)
		}
		if ft.Count(sym) != 0 {
			return nil, fmt.Errorf("%w: duplicate symbol %q at offset %d", bitpack.ErrCorruptStream, sym, off)
		}
		ft.AddN(sym, count)
	}
	return ft, nil
}
