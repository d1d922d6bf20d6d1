package service

import "testing"

func TestNormalizeTextLowercase(t *testing.T) {
	got := NormalizeText("Hello THERE")
	if got != "hello there" {
		t.Fatalf("expected 'hello there', got %q", got)
	}
}

func TestNormalizeTextLeetWords(t *testing.T) {
	cases := map[string]string{
		"let's have s3x":   "let's have sex",
		"send me p0rn":     "send me porn",
		"im so h0rny":      "im so horny",
		"she is t33n":      "she is teen",
		"b4rely l3gal pic": "barely legal pic",
	}
	for input, want := range cases {
		if got := NormalizeText(input); got != want {
			t.Fatalf("NormalizeText(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNormalizeTextSpacedLetters(t *testing.T) {
	got := NormalizeText("let's have s e x tonight")
	if got != "let's have sex tonight" {
		t.Fatalf("expected spaced letters collapsed, got %q", got)
	}
}

func TestNormalizeTextEmojiTokens(t *testing.T) {
	got := NormalizeText("show me 🍆")
	if got != "show me penis" {
		t.Fatalf("expected emoji mapped to token, got %q", got)
	}
}

func TestNormalizeTextPreservesDigitTokens(t *testing.T) {
	// Tokens puramente numericos no pasan por leet: las reglas de edad los
	// necesitan intactos.
	got := NormalizeText("i'm 17 years old")
	if got != "i'm 17 years old" {
		t.Fatalf("expected digits preserved, got %q", got)
	}
}

func TestNormalizeTextMixedLeetToken(t *testing.T) {
	got := NormalizeText("you are s0 n4ughty")
	if got != "you are so naughty" {
		t.Fatalf("expected mixed leet tokens mapped, got %q", got)
	}
}

func TestNormalizeTextCollapsesWhitespace(t *testing.T) {
	got := NormalizeText("  hello   world  ")
	if got != "hello world" {
		t.Fatalf("expected collapsed whitespace, got %q", got)
	}
}
