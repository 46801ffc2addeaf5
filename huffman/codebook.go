package huffman

// Codebook bundles a frequency table with the tree and code table derived
// from it. Building one is the single path from counts to codes, reused by
// whole-text compression, per-chunk pipelines, and the global-codebook
// stream mode where one book encodes every chunk.
type Codebook struct {
	freq  *FrequencyTable
	tree  *Tree
	codes CodeTable
}

// NewCodebook derives the tree and code table for ft.
func NewCodebook(ft *FrequencyTable) (*Codebook, error) {
	tree, err := Build(ft)
	if err != nil {
		return nil, err
	}
	codes, err := tree.Codes()
	if err != nil {
		return nil, err
	}
	return &Codebook{freq: ft, tree: tree, codes: codes}, nil
}

// Freq returns the frequency table the book was built from.
func (cb *Codebook) Freq() *FrequencyTable { return cb.freq }

// Tree returns the prefix-code tree.
func (cb *Codebook) Tree() *Tree { return cb.tree }

// Codes returns the symbol-to-code table.
func (cb *Codebook) Codes() CodeTable { return cb.codes }
