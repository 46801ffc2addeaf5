// Package pager maps fixed-size pages of tokens onto the chunks of a
// compressed artifact, decoding chunks lazily and keeping recently used
// ones in an LRU cache. It is the engine behind a page-at-a-time reader:
// only the chunks covering the requested page are ever decompressed.
package pager

import (
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	hufftool "github.com/bshind87/Huffman-tool"
)

const (
	// DefaultPageTokens is the tokens-per-page count when none is given.
	DefaultPageTokens = 250
	// DefaultCacheSize is the decoded-chunk cache capacity when none is
	// given.
	DefaultCacheSize = 16
)

// Config holds tunables for a Pager.
type Config struct {
	PageTokens int // Tokens per page (0 = DefaultPageTokens)
	CacheSize  int // Decoded chunks kept in memory (0 = DefaultCacheSize)
}

// Option is a functional option for configuring a Pager.
type Option func(*Config)

// WithPageTokens sets the tokens-per-page count.
func WithPageTokens(n int) Option {
	return func(c *Config) {
		c.PageTokens = n
	}
}

// WithCacheSize sets how many decoded chunks stay cached.
func WithCacheSize(n int) Option {
	return func(c *Config) {
		c.CacheSize = n
	}
}

// Pager serves pages from a chunked artifact without decoding it whole.
type Pager struct {
	artifact   []byte
	index      *hufftool.Index
	pageTokens uint64
	starts     []uint64 // starts[i] = token index where chunk i begins; len = chunks+1
	cache      *lru.Cache[int, []string]
}

// New builds a Pager over artifact and its index.
func New(artifact []byte, idx *hufftool.Index, opts ...Option) (*Pager, error) {
	if idx == nil || len(idx.Chunks) == 0 {
		return nil, fmt.Errorf("%w: nil or empty index", hufftool.ErrMetadataMismatch)
	}
	cfg := Config{PageTokens: DefaultPageTokens, CacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.PageTokens <= 0 {
		cfg.PageTokens = DefaultPageTokens
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}

	cache, err := lru.New[int, []string](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create chunk cache: %w", err)
	}

	starts := make([]uint64, len(idx.Chunks)+1)
	for i, desc := range idx.Chunks {
		starts[i+1] = starts[i] + uint64(desc.Tokens)
	}
	if starts[len(starts)-1] != idx.TotalTokens {
		return nil, fmt.Errorf("%w: chunks hold %d tokens, index claims %d",
			hufftool.ErrMetadataMismatch, starts[len(starts)-1], idx.TotalTokens)
	}

	return &Pager{
		artifact:   artifact,
		index:      idx,
		pageTokens: uint64(cfg.PageTokens),
		starts:     starts,
		cache:      cache,
	}, nil
}

// PageCount returns the number of pages, the last possibly short.
func (p *Pager) PageCount() int {
	return int((p.TotalTokens() + p.pageTokens - 1) / p.pageTokens)
}

// TotalTokens returns the token count of the underlying text.
func (p *Pager) TotalTokens() uint64 {
	return p.index.TotalTokens
}

// Page decodes and returns page number page. Only the chunks overlapping
// the page's token range are decompressed; pages fall on exact token
// boundaries, so concatenating all pages reproduces the original text.
func (p *Pager) Page(page int) (string, error) {
	if page < 0 || page >= p.PageCount() {
		return "", fmt.Errorf("%w: page %d of %d", hufftool.ErrIndexOutOfRange, page, p.PageCount())
	}
	startTok := uint64(page) * p.pageTokens
	endTok := min(startTok+p.pageTokens, p.TotalTokens())

	chunkCount := len(p.index.Chunks)
	first := sort.Search(chunkCount, func(i int) bool {
		return p.starts[i+1] > startTok
	})

	var sb strings.Builder
	for i := first; i < chunkCount && p.starts[i] < endTok; i++ {
		tokens, err := p.chunkTokens(i)
		if err != nil {
			return "", err
		}
		lo := uint64(0)
		if startTok > p.starts[i] {
			lo = startTok - p.starts[i]
		}
		hi := min(endTok, p.starts[i+1]) - p.starts[i]
		for _, tok := range tokens[lo:hi] {
			sb.WriteString(tok)
		}
	}
	return sb.String(), nil
}

// CachedChunks returns how many decoded chunks the cache currently holds.
func (p *Pager) CachedChunks() int {
	return p.cache.Len()
}

func (p *Pager) chunkTokens(i int) ([]string, error) {
	if tokens, ok := p.cache.Get(i); ok {
		return tokens, nil
	}
	tokens, err := hufftool.ChunkTokens(p.artifact, p.index, i)
	if err != nil {
		return nil, err
	}
	p.cache.Add(i, tokens)
	return tokens, nil
}
