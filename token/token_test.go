package token

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

// ============================================================================
// Char Mode
// ============================================================================

func TestTokenizeCharASCII(t *testing.T) {
	tokens, err := Tokenize("abc", ModeChar)
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(tokens) != len(want) {
		t.Fatalf("token count: got %d want %d", len(tokens), len(want))
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token %d: got %q want %q", i, tokens[i], want[i])
		}
	}
}

func TestTokenizeCharMultibyte(t *testing.T) {
	tokens, err := Tokenize("héllo 世界", ModeChar)
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	want := []string{"h", "é", "l", "l", "o", " ", "世", "界"}
	if len(tokens) != len(want) {
		t.Fatalf("token count: got %d want %d", len(tokens), len(want))
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token %d: got %q want %q", i, tokens[i], want[i])
		}
	}
}

func TestTokenizeCharInvalidUTF8(t *testing.T) {
	in := "a\xff\xfeb"
	tokens, err := Tokenize(in, ModeChar)
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	want := []string{"a", "\xff", "\xfe", "b"}
	if len(tokens) != len(want) {
		t.Fatalf("token count: got %d want %d", len(tokens), len(want))
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token %d: got %q want %q", i, tokens[i], want[i])
		}
	}
	if got := strings.Join(tokens, ""); got != in {
		t.Errorf("join mismatch: got %q want %q", got, in)
	}
}

// ============================================================================
// Word Mode
// ============================================================================

func TestTokenizeWord(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"single word", "hello", []string{"hello"}},
		{"two words", "hello world", []string{"hello ", "world"}},
		{"multiple spaces", "hello  world", []string{"hello  ", "world"}},
		{"trailing space", "hello ", []string{"hello "}},
		{"leading space", " hello", []string{" ", "hello"}},
		{"newlines and tabs", "one\ttwo\nthree", []string{"one\t", "two\n", "three"}},
		{"sentence", "It was. Done!", []string{"It ", "was. ", "Done!"}},
		{"only whitespace", " \n\t", []string{" \n\t"}},
		{"unicode words", "héllo 世界", []string{"héllo ", "世界"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tokens, err := Tokenize(tc.in, ModeWord)
			if err != nil {
				t.Fatalf("Tokenize failed: %v", err)
			}
			if len(tokens) != len(tc.want) {
				t.Fatalf("token count: got %d (%q) want %d (%q)", len(tokens), tokens, len(tc.want), tc.want)
			}
			for i := range tc.want {
				if tokens[i] != tc.want[i] {
					t.Errorf("token %d: got %q want %q", i, tokens[i], tc.want[i])
				}
			}
		})
	}
}

func TestTokenizeJoinIdentity(t *testing.T) {
	inputs := []string{
		"a",
		"aaab",
		"hello world",
		"  leading and trailing  ",
		"line one\nline two\r\nline three",
		"tabs\tand nbsp",
		"mixed 世界 and ascii",
		"invalid \xff\xfe bytes",
		strings.Repeat("the quick brown fox. ", 100),
	}
	for _, in := range inputs {
		for _, mode := range []Mode{ModeChar, ModeWord} {
			tokens, err := Tokenize(in, mode)
			if err != nil {
				t.Fatalf("Tokenize(%q, %v) failed: %v", in, mode, err)
			}
			if got := strings.Join(tokens, ""); got != in {
				t.Errorf("mode %v: join mismatch: got %q want %q", mode, got, in)
			}
		}
	}
}

// ============================================================================
// Errors and Mode Parsing
// ============================================================================

func TestTokenizeEmpty(t *testing.T) {
	for _, mode := range []Mode{ModeChar, ModeWord} {
		if _, err := Tokenize("", mode); !errors.Is(err, ErrEmptyInput) {
			t.Errorf("mode %v: expected ErrEmptyInput, got %v", mode, err)
		}
	}
}

func TestTokenizeUnknownMode(t *testing.T) {
	if _, err := Tokenize("x", Mode(9)); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	if got, err := ParseMode("char"); err != nil || got != ModeChar {
		t.Errorf("ParseMode(char): got %v, %v", got, err)
	}
	if got, err := ParseMode("word"); err != nil || got != ModeWord {
		t.Errorf("ParseMode(word): got %v, %v", got, err)
	}
	if _, err := ParseMode("sentence"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode, got %v", err)
	}
}

func TestModeString(t *testing.T) {
	if got := ModeChar.String(); got != "char" {
		t.Errorf("ModeChar: got %q want %q", got, "char")
	}
	if got := ModeWord.String(); got != "word" {
		t.Errorf("ModeWord: got %q want %q", got, "word")
	}
	if ModeChar.Valid() != true || Mode(7).Valid() != false {
		t.Errorf("Valid misclassified a mode")
	}
}

// ============================================================================
// Scanner
// ============================================================================

func TestScannerMatchesTokenize(t *testing.T) {
	inputs := []string{
		"a",
		"hello world, again",
		"  spaced\nout\ttext  ",
		"héllo 世界 🌍",
		"invalid \xff mid-stream",
		strings.Repeat("some sentences end here. ", 300),
	}
	for _, in := range inputs {
		for _, mode := range []Mode{ModeChar, ModeWord} {
			want, err := Tokenize(in, mode)
			if err != nil {
				t.Fatalf("Tokenize(%q, %v) failed: %v", in, mode, err)
			}
			got, err := drainScanner(NewScanner(strings.NewReader(in), mode))
			if err != nil {
				t.Fatalf("Scanner(%q, %v) failed: %v", in, mode, err)
			}
			if len(got) != len(want) {
				t.Fatalf("mode %v: token count: got %d want %d", mode, len(got), len(want))
			}
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("mode %v token %d: got %q want %q", mode, i, got[i], want[i])
				}
			}
		}
	}
}

// One byte per Read forces runs and multibyte runes across refills.
func TestScannerOneByteReads(t *testing.T) {
	in := "héllo 世界, split over many tiny reads. And \xff raw bytes."
	for _, mode := range []Mode{ModeChar, ModeWord} {
		want, err := Tokenize(in, mode)
		if err != nil {
			t.Fatalf("Tokenize failed: %v", err)
		}
		got, err := drainScanner(NewScanner(iotest.OneByteReader(strings.NewReader(in)), mode))
		if err != nil {
			t.Fatalf("Scanner failed: %v", err)
		}
		if strings.Join(got, "") != strings.Join(want, "") {
			t.Fatalf("mode %v: scanner output diverged from Tokenize", mode)
		}
		if len(got) != len(want) {
			t.Fatalf("mode %v: token count: got %d want %d", mode, len(got), len(want))
		}
	}
}

func TestScannerEmptyInput(t *testing.T) {
	for _, mode := range []Mode{ModeChar, ModeWord} {
		sc := NewScanner(strings.NewReader(""), mode)
		if _, err := sc.Next(); !errors.Is(err, io.EOF) {
			t.Errorf("mode %v: expected io.EOF, got %v", mode, err)
		}
	}
}

func drainScanner(sc *Scanner) ([]string, error) {
	var out []string
	for {
		tok, err := sc.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
}
