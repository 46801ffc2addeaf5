// Package token splits text into the atomic symbols the codec encodes.
//
// Two modes are supported. Char mode emits one symbol per Unicode code
// point, carrying the exact source bytes (an invalid UTF-8 byte becomes a
// one-byte symbol). Word mode emits one symbol per maximal non-whitespace
// run together with its immediately following whitespace run. In both modes
// concatenating the symbols reproduces the input byte for byte.
package token

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrEmptyInput indicates there is nothing to encode.
	ErrEmptyInput = errors.New("token: empty input")
	// ErrUnknownMode indicates a mode value outside char/word.
	ErrUnknownMode = errors.New("token: unknown mode")
)

// Mode selects the tokenization granularity.
type Mode uint8

const (
	ModeChar Mode = iota
	ModeWord
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeChar || m == ModeWord
}

func (m Mode) String() string {
	switch m {
	case ModeChar:
		return "char"
	case ModeWord:
		return "word"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ParseMode converts the textual mode names "char" and "word".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "char":
		return ModeChar, nil
	case "word":
		return ModeWord, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Tokenize splits text into symbols under the given mode.
// The returned symbols concatenate back to text exactly.
func Tokenize(text string, mode Mode) ([]string, error) {
	if len(text) == 0 {
		return nil, ErrEmptyInput
	}
	switch mode {
	case ModeChar:
		return tokenizeChars(text), nil
	case ModeWord:
		return tokenizeWords(text), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, mode)
	}
}

func tokenizeChars(text string) []string {
	out := make([]string, 0, len(text))
	for i := 0; i < len(text); {
		_, size := utf8.DecodeRuneInString(text[i:])
		out = append(out, text[i:i+size])
		i += size
	}
	return out
}

func tokenizeWords(text string) []string {
	var out []string
	for i := 0; i < len(text); {
		start := i
		for i < len(text) {
			r, size := utf8.DecodeRuneInString(text[i:])
			if unicode.IsSpace(r) {
				break
			}
			i += size
		}
		for i < len(text) {
			r, size := utf8.DecodeRuneInString(text[i:])
			if !unicode.IsSpace(r) {
				break
			}
			i += size
		}
		out = append(out, text[start:i])
	}
	return out
}

// Scanner yields symbols from a reader without holding the whole input.
// A word symbol spanning buffer refills is assembled before being returned.
type Scanner struct {
	r    *bufio.Reader
	mode Mode
}

// NewScanner returns a Scanner over r using the given mode.
func NewScanner(r io.Reader, mode Mode) *Scanner {
	return &Scanner{r: bufio.NewReader(r), mode: mode}
}

// Next returns the next symbol, or io.EOF once the input is exhausted.
func (s *Scanner) Next() (string, error) {
	switch s.mode {
	case ModeChar:
		return s.nextChar()
	case ModeWord:
		return s.nextWord()
	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownMode, s.mode)
	}
}

func (s *Scanner) nextChar() (string, error) {
	r, size, err := s.r.ReadRune()
	if err != nil {
		return "", err
	}
	if r == utf8.RuneError && size == 1 {
		// Invalid byte. Re-read it raw so the symbol carries the source byte.
		if err := s.r.UnreadRune(); err != nil {
			return "", err
		}
		b, err := s.r.ReadByte()
		if err != nil {
			return "", err
		}
		return string([]byte{b}), nil
	}
	return string(r), nil
}

func (s *Scanner) nextWord() (string, error) {
	var buf []byte
	buf, err := s.scanRun(buf, false)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if err == nil {
		buf, err = s.scanRun(buf, true)
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
	}
	if len(buf) == 0 {
		return "", io.EOF
	}
	return string(buf), nil
}

// scanRun appends runes to buf while unicode.IsSpace matches want,
// stopping before the first rune that does not. Invalid bytes count as
// non-space. Returns io.EOF when the input ends during the run.
func (s *Scanner) scanRun(buf []byte, want bool) ([]byte, error) {
	for {
		r, size, err := s.r.ReadRune()
		if err != nil {
			return buf, err
		}
		if r == utf8.RuneError && size == 1 {
			if want {
				if err := s.r.UnreadRune(); err != nil {
					return buf, err
				}
				return buf, nil
			}
			if err := s.r.UnreadRune(); err != nil {
				return buf, err
			}
			b, err := s.r.ReadByte()
			if err != nil {
				return buf, err
			}
			buf = append(buf, b)
			continue
		}
		if unicode.IsSpace(r) != want {
			if err := s.r.UnreadRune(); err != nil {
				return buf, err
			}
			return buf, nil
		}
		buf = utf8.AppendRune(buf, r)
	}
}
