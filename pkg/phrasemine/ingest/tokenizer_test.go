package ingest

import (
	"reflect"
	"testing"
	"unicode/utf16"
)

func TestTokenizeBasic(t *testing.T) {
	tok := NewTokenizer()

	got := tok.Tokenize("Hello, World! This is phrase-mining 101.")
	want := []string{"hello", "world", "this", "is", "phrase", "mining", "101"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizeEmpty(t *testing.T) {
	tok := NewTokenizer()

	if got := tok.Tokenize(""); len(got) != 0 {
		t.Errorf("expected no tokens, got %v", got)
	}
	if got := tok.Tokenize("!!! ... ---"); len(got) != 0 {
		t.Errorf("expected no tokens from punctuation, got %v", got)
	}
}

func TestTokenizeUnicode(t *testing.T) {
	tok := NewTokenizer()

	got := tok.Tokenize("Привет МИР café")
	want := []string{"привет", "мир", "café"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestDecodeBytesUTF8(t *testing.T) {
	if got := DecodeBytes([]byte("plain text")); got != "plain text" {
		t.Errorf("DecodeBytes = %q", got)
	}
	// UTF-8 BOM is stripped
	if got := DecodeBytes([]byte{0xEF, 0xBB, 0xBF, 'h', 'i'}); got != "hi" {
		t.Errorf("DecodeBytes with BOM = %q", got)
	}
}

func TestDecodeBytesUTF16(t *testing.T) {
	text := "hello мир"
	units := utf16.Encode([]rune(text))

	le := []byte{0xFF, 0xFE}
	be := []byte{0xFE, 0xFF}
	for _, u := range units {
		le = append(le, byte(u), byte(u>>8))
		be = append(be, byte(u>>8), byte(u))
	}

	if got := DecodeBytes(le); got != text {
		t.Errorf("little-endian decode = %q, want %q", got, text)
	}
	if got := DecodeBytes(be); got != text {
		t.Errorf("big-endian decode = %q, want %q", got, text)
	}
}

func TestExtractHTMLText(t *testing.T) {
	tok := NewTokenizer()

	html := `<html><head><style>body{color:red}</style></head>` +
		`<body><p>visible words</p><script>var hidden = 1;</script></body></html>`
	got := tok.Tokenize(ExtractHTMLText(html))
	want := []string{"visible", "words"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tokens from html = %v, want %v", got, want)
	}
}
