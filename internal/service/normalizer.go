package service

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Sustituciones leetspeak de palabra completa. Se aplican antes del mapeo
// por caracter para no perder los casos canonicos.
var leetWords = map[string]string{
	"s3x":    "sex",
	"s3xy":   "sexy",
	"p0rn":   "porn",
	"pr0n":   "porn",
	"n4ked":  "naked",
	"nud3":   "nude",
	"h0rny":  "horny",
	"fuk":    "fuck",
	"fck":    "fuck",
	"f*ck":   "fuck",
	"sh*t":   "shit",
	"b00bs":  "boobs",
	"d1ck":   "dick",
	"c0ck":   "cock",
	"pu55y":  "pussy",
	"a55":    "ass",
	"l3gal":  "legal",
	"t33n":   "teen",
	"und3r":  "under",
	"m1nor":  "minor",
	"r4pe":   "rape",
	"f0rced": "forced",
}

// Mapeo por caracter dentro de palabras mixtas letra+simbolo.
var leetChars = map[rune]rune{
	'@': 'a',
	'0': 'o',
	'1': 'i',
	'3': 'e',
	'4': 'a',
	'5': 's',
	'7': 't',
	'$': 's',
	'!': 'i',
}

// Emojis mapeados a tokens semanticos para que el scoring los vea.
var emojiTokens = map[string]string{
	"🍆": " penis ",
	"🍑": " ass ",
	"💦": " cum ",
	"🥵": " horny ",
	"😈": " naughty ",
	"👅": " tongue ",
	"🔞": " 18+ ",
	"❤️": " love ",
	"😘": " kiss ",
}

var (
	spacedLettersRe = regexp.MustCompile(`\b(?:[a-z] ){2,}[a-z]\b`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// NormalizeText aplica la Capa 1 del clasificador: NFKC, minusculas,
// leetspeak, emojis a tokens y colapso de espacios. El original se conserva
// junto al normalizado en la salida del clasificador.
func NormalizeText(text string) string {
	s := norm.NFKC.String(text)
	s = strings.ToLower(s)

	for emoji, token := range emojiTokens {
		s = strings.ReplaceAll(s, emoji, token)
	}

	// Colapsa letras espaciadas ("s e x" -> "sex") antes de tokenizar.
	s = spacedLettersRe.ReplaceAllStringFunc(s, func(m string) string {
		return strings.ReplaceAll(m, " ", "")
	})

	fields := strings.Fields(s)
	for i, tok := range fields {
		fields[i] = normalizeToken(tok)
	}
	s = strings.Join(fields, " ")

	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func normalizeToken(tok string) string {
	trimmed := strings.TrimFunc(tok, func(r rune) bool {
		return unicode.IsPunct(r) && r != '*' && r != '@' && r != '$' && r != '!'
	})
	if rep, ok := leetWords[trimmed]; ok {
		return rep
	}

	// Solo palabras mixtas: un token puramente numerico ("17") se conserva
	// porque las reglas de edad lo necesitan intacto.
	hasLetter := false
	hasLeet := false
	for _, r := range trimmed {
		if unicode.IsLetter(r) {
			hasLetter = true
		}
		if _, ok := leetChars[r]; ok {
			hasLeet = true
		}
	}
	if !hasLetter || !hasLeet {
		return tok
	}

	var b strings.Builder
	for _, r := range trimmed {
		if rep, ok := leetChars[r]; ok {
			b.WriteRune(rep)
		} else {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if rep, ok := leetWords[out]; ok {
		return rep
	}
	return out
}
