// Package report renders a human-readable summary of a code table: one row
// per symbol with its frequency, code and code length, followed by size and
// ratio totals.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/bshind87/Huffman-tool/huffman"
)

// Write renders the report for a frequency table and the code table
// derived from it. Symbols are listed in first-seen order and quoted, so
// whitespace and control characters stay visible.
func Write(w io.Writer, ft *huffman.FrequencyTable, codes huffman.CodeTable) error {
	if ft == nil || ft.Len() == 0 {
		return fmt.Errorf("report: empty frequency table")
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"SYMBOL", "FREQ", "CODE", "BITS"})
	table.SetAutoWrapText(false)

	var codedBits uint64
	var rawBytes uint64
	for _, sym := range ft.Symbols() {
		code, ok := codes[sym]
		if !ok {
			return fmt.Errorf("report: no code for symbol %q", sym)
		}
		count := ft.Count(sym)
		codedBits += count * uint64(code.Len)
		rawBytes += count * uint64(len(sym))
		table.Append([]string{
			strconv.Quote(sym),
			strconv.FormatUint(count, 10),
			code.String(),
			strconv.Itoa(int(code.Len)),
		})
	}
	table.Render()

	codedBytes := (codedBits + 7) / 8
	_, err := fmt.Fprintf(w, "\nsymbols: %d\ntokens: %d\ncoded size: %d bytes (%d bits)\nraw size: %d bytes\nratio: %.2f%%\n",
		ft.Len(), ft.Total(), codedBytes, codedBits, rawBytes, ratio(codedBytes, rawBytes))
	return err
}

func ratio(coded, raw uint64) float64 {
	if raw == 0 {
		return 0
	}
	return float64(coded) / float64(raw) * 100
}
