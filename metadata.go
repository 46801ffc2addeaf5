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
	metadataMagic   = "HUFM"
	metadataVersion = uint16(1)
)

// Metadata describes how to decode a non-chunked artifact.
//
// Wire format (version 1), little-endian:
//
//	magic[4]    = "HUFM"
//	version     = uint16
//	mode        = uint8
//	padding     = uint8
//	totalTokens = uint64
//	freq        = uvarint entry count, then per entry:
//	              uvarint symbol length, symbol bytes, uvarint count
//
// Frequency entries appear in first-seen order; the order reproduces the
// tree on decode.
type Metadata struct {
	Mode        token.Mode
	Freq        *huffman.FrequencyTable
	Padding     uint8
	TotalTokens uint64
}

func (m *Metadata) validate() error {
	if !m.Mode.Valid() {
		return fmt.Errorf("%w: unknown mode %d", ErrMetadataMismatch, m.Mode)
	}
	if m.Padding > bitpack.MaxPadding {
		return fmt.Errorf("%w: padding %d outside [0,7]", bitpack.ErrCorruptStream, m.Padding)
	}
	if m.Freq == nil || m.Freq.Len() == 0 {
		return fmt.Errorf("empty frequency table: %w", huffman.ErrDegenerateTree)
	}
	if got := m.Freq.Total(); got != m.TotalTokens {
		return fmt.Errorf("%w: frequency table counts %d tokens, metadata claims %d", ErrMetadataMismatch, got, m.TotalTokens)
	}
	return nil
}

// WriteTo serializes the metadata.
func (m *Metadata) WriteTo(w io.Writer) (int64, error) {
	if err := m.validate(); err != nil {
		return 0, fmt.Errorf("invalid metadata: %w", err)
	}
	ww := &wireWriter{w: w}
	if err := writeHeader(ww, metadataMagic, metadataVersion); err != nil {
		return ww.n, err
	}
	if err := ww.u8(uint8(m.Mode)); err != nil {
		return ww.n, err
	}
	if err := ww.u8(m.Padding); err != nil {
		return ww.n, err
	}
	if err := ww.u64(m.TotalTokens); err != nil {
		return ww.n, err
	}
	if err := writeFrequencyTable(ww, m.Freq); err != nil {
		return ww.n, err
	}
	return ww.n, nil
}

// ReadFrom deserializes and validates metadata.
func (m *Metadata) ReadFrom(r io.Reader) (int64, error) {
	wr := &wireReader{r: r}
	if err := readHeader(wr, metadataMagic, metadataVersion); err != nil {
		return wr.n, fmt.Errorf("metadata: %w", err)
	}

	var tmp Metadata
	off := wr.n
	mode, err := wr.u8()
	if err != nil {
		return wr.n, fmt.Errorf("read mode at offset %d: %w", off, err)
	}
	tmp.Mode = token.Mode(mode)

	off = wr.n
	if tmp.Padding, err = wr.u8(); err != nil {
		return wr.n, fmt.Errorf("read padding at offset %d: %w", off, err)
	}
	off = wr.n
	if tmp.TotalTokens, err = wr.u64(); err != nil {
		return wr.n, fmt.Errorf("read total tokens at offset %d: %w", off, err)
	}
	if tmp.Freq, err = readFrequencyTable(wr); err != nil {
		return wr.n, fmt.Errorf("metadata frequency table: %w", err)
	}

	if err := tmp.validate(); err != nil {
		return wr.n, fmt.Errorf("invalid metadata structure: %w", err)
	}
	*m = tmp
	return wr.n, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *Metadata) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (m *Metadata) UnmarshalBinary(data []byte) error {
	_, err := m.ReadFrom(bytes.NewReader(data))
	return err
}
