// Package hufftool losslessly compresses text with Huffman prefix coding
// and decodes it back, either whole or through independently decodable
// chunks that give random access into large texts. Trees are never
// persisted; every decode rebuilds them from the frequency tables stored
// in Metadata, Index or StreamIndex, relying on the deterministic
// construction in the huffman package.
package hufftool

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/bshind87/Huffman-tool/bitpack"
	"github.com/bshind87/Huffman-tool/huffman"
	"github.com/bshind87/Huffman-tool/token"
)

var (
	// ErrIndexOutOfRange indicates a chunk or page index outside the index,
	// or a descriptor spanning bytes beyond the artifact.
	ErrIndexOutOfRange = errors.New("hufftool: index out of range")
	// ErrMetadataMismatch indicates metadata that disagrees with the payload
	// it claims to describe.
	ErrMetadataMismatch = errors.New("hufftool: metadata does not match payload")
)

const (
	// DefaultChunkTokens is the per-chunk token count when none is given.
	DefaultChunkTokens = 2000
	// DefaultTargetChunkBytes is the stream-mode chunk size target when
	// none is given.
	DefaultTargetChunkBytes = 512 << 10
)

// Config holds tunables for a Codec.
type Config struct {
	Parallelism int // Max concurrent chunk workers (0 = GOMAXPROCS)
}

// Option is a functional option for configuring a Codec.
type Option func(*Config)

// WithParallelism bounds the number of concurrent chunk workers.
func WithParallelism(n int) Option {
	return func(c *Config) {
		c.Parallelism = n
	}
}

func resolveParallelism(cfg Config) int {
	if cfg.Parallelism > 0 {
		return cfg.Parallelism
	}
	return runtime.GOMAXPROCS(0)
}

// Codec compresses and decompresses text.
type Codec struct {
	config Config
}

// New creates a Codec with the given options.
func New(opts ...Option) *Codec {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Codec{config: cfg}
}

var defaultCodec = New()

// Compress encodes text with a code table derived from its own symbol
// frequencies. The returned metadata carries everything a decoder needs:
// mode, frequency table, padding-bit count and token count.
func (c *Codec) Compress(text string, mode token.Mode) ([]byte, *Metadata, error) {
	tokens, err := token.Tokenize(text, mode)
	if err != nil {
		return nil, nil, err
	}
	book, err := huffman.NewCodebook(huffman.CountSymbols(tokens))
	if err != nil {
		return nil, nil, err
	}
	payload, padding, err := bitpack.Pack(tokens, book.Codes())
	if err != nil {
		return nil, nil, wrapPackError(err)
	}
	meta := &Metadata{
		Mode:        mode,
		Freq:        book.Freq(),
		Padding:     padding,
		TotalTokens: uint64(len(tokens)),
	}
	return payload, meta, nil
}

// Decompress reverses Compress given the artifact and its metadata.
func (c *Codec) Decompress(artifact []byte, meta *Metadata) (string, error) {
	if meta == nil {
		return "", fmt.Errorf("%w: nil metadata", ErrMetadataMismatch)
	}
	if err := meta.validate(); err != nil {
		return "", err
	}
	tree, err := huffman.Build(meta.Freq)
	if err != nil {
		return "", err
	}
	tokens, err := bitpack.Unpack(artifact, meta.Padding, tree, int(meta.TotalTokens))
	if err != nil {
		return "", err
	}
	return strings.Join(tokens, ""), nil
}

// Compress encodes text using the default Codec.
func Compress(text string, mode token.Mode) ([]byte, *Metadata, error) {
	return defaultCodec.Compress(text, mode)
}

// Decompress decodes an artifact using the default Codec.
func Decompress(artifact []byte, meta *Metadata) (string, error) {
	return defaultCodec.Decompress(artifact, meta)
}

// CompressChunked encodes text into independently decodable chunks using
// the default Codec.
func CompressChunked(text string, mode token.Mode, chunkTokens int) ([]byte, *Index, error) {
	return defaultCodec.CompressChunked(text, mode, chunkTokens)
}

// DecompressChunk decodes a single chunk using the default Codec.
func DecompressChunk(artifact []byte, idx *Index, chunkIndex int) (string, error) {
	return defaultCodec.DecompressChunk(artifact, idx, chunkIndex)
}

// DecompressChunked decodes every chunk using the default Codec.
func DecompressChunked(artifact []byte, idx *Index) (string, error) {
	return defaultCodec.DecompressChunked(artifact, idx)
}

// A symbol the code table cannot encode means the table and the token
// stream come from different inputs.
func wrapPackError(err error) error {
	if errors.Is(err, bitpack.ErrUnknownSymbol) {
		return fmt.Errorf("%w: %v", ErrMetadataMismatch, err)
	}
	return err
}
