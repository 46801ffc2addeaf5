package huffman

// FrequencyTable maps symbols to occurrence counts and remembers the order
// in which symbols were first seen. The order is part of the value: it pins
// the tie-break during tree construction and the serialization layout, so a
// table rebuilt from persisted data reproduces the identical tree.
type FrequencyTable struct {
	counts map[string]uint64
	order  []string
	total  uint64
}

// NewFrequencyTable returns an empty table.
func NewFrequencyTable() *FrequencyTable {
	return &FrequencyTable{counts: make(map[string]uint64)}
}

// CountSymbols tallies a token stream in one pass.
func CountSymbols(tokens []string) *FrequencyTable {
	ft := &FrequencyTable{counts: make(map[string]uint64, 64)}
	for _, tok := range tokens {
		ft.Add(tok)
	}
	return ft
}

// Add records one occurrence of symbol.
func (ft *FrequencyTable) Add(symbol string) {
	ft.AddN(symbol, 1)
}

// AddN records n occurrences of symbol. Zero n is a no-op.
func (ft *FrequencyTable) AddN(symbol string, n uint64) {
	if n == 0 {
		return
	}
	if _, ok := ft.counts[symbol]; !ok {
		ft.order = append(ft.order, symbol)
	}
	ft.counts[symbol] += n
	ft.total += n
}

// Count returns the recorded count for symbol, zero if absent.
func (ft *FrequencyTable) Count(symbol string) uint64 {
	return ft.counts[symbol]
}

// Len returns the number of distinct symbols.
func (ft *FrequencyTable) Len() int {
	return len(ft.order)
}

// Total returns the sum of all counts, i.e. the token count of the input.
func (ft *FrequencyTable) Total() uint64 {
	return ft.total
}

// Symbols returns the symbols in first-seen order.
// The returned slice is owned by the table and must not be modified.
func (ft *FrequencyTable) Symbols() []string {
	return ft.order
}
