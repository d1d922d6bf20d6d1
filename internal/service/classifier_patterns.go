package service

import (
	"regexp"
	"strconv"
	"strings"
)

// weightedPattern es una entrada de las tablas de scoring de la Capa 3.
type weightedPattern struct {
	term   string
	weight float64
}

// Capa 2: indicadores de riesgo de menores. Cualquier match emite MINOR_RISK
// con confianza 1.0 y corta el pipeline.
var minorIndicators = []string{
	"teen*",
	"school girl",
	"schoolgirl",
	"school boy",
	"barely legal",
	"underage",
	"under age",
	"minor",
	"jailbait",
	"loli",
	"shota",
	"child",
	"little girl",
	"little boy",
	"my daughter",
	"my son",
	"high school",
}

// Capa 2: indicadores de coercion. Match -> NONCONSENSUAL, confianza 1.0.
var coercionIndicators = []string{
	"forced",
	"force her",
	"force him",
	"rape",
	"raping",
	"raped",
	"drugged",
	"against her will",
	"against his will",
	"against their will",
	"non-consensual",
	"nonconsensual",
	"without consent",
	"can't say no",
	"cannot say no",
	"unconscious",
	"passed out",
	"blackmail",
}

// Edades numericas en contexto de persona ("i'm 16", "she is 15 years old").
var ageDigitRe = regexp.MustCompile(`\b(?:i'?m|i am|im|she'?s|she is|he'?s|he is|they'?re|they are|aged?|turn(?:ing|ed)?)\s+(\d{1,2})\b|\b(\d{1,2})\s*(?:yo|y/o|yr old|year old|years old)\b`)

// Capa 3: tablas ponderadas por familia.
var explicitPatterns = []weightedPattern{
	{"cock", 2.0},
	{"dick", 2.0},
	{"pussy", 2.0},
	{"cum", 2.0},
	{"clit", 2.0},
	{"penis", 1.5},
	{"vagina", 1.5},
	{"tits", 1.5},
	{"boobs", 1.2},
	{"nipples", 1.5},
	{"naked", 1.2},
	{"nude", 1.2},
	{"have sex", 2.5},
	{"having sex", 2.5},
	{"fuck me", 3.0},
	{"fuck you hard", 3.0},
	{"blowjob", 3.0},
	{"handjob", 3.0},
	{"anal", 2.0},
	{"orgasm", 2.0},
	{"masturbat*", 2.0},
	{"horny", 1.5},
	{"make me wet", 2.5},
	{"inside me", 2.0},
	{"ride you", 2.0},
	{"sex", 1.5},
	{"porn", 1.5},
	{"erotic", 1.5},
	{"moan", 1.5},
}

var fetishPatterns = []weightedPattern{
	{"bdsm", 3.0},
	{"bondage", 3.0},
	{"fetish", 3.0},
	{"kink", 2.0},
	{"dominatrix", 3.0},
	{"dominate me", 2.5},
	{"submissive", 2.0},
	{"spank", 2.0},
	{"whip me", 2.5},
	{"tie me up", 2.5},
	{"tied up", 2.0},
	{"collar and leash", 2.5},
	{"feet worship", 3.0},
	{"foot fetish", 3.0},
	{"latex", 1.5},
	{"master and slave", 2.5},
	{"degrade me", 2.5},
	{"choke me", 2.5},
}

var suggestivePatterns = []weightedPattern{
	{"sexy", 1.0},
	{"flirt", 1.0},
	{"kiss", 1.0},
	{"kissing", 1.0},
	{"cuddle", 1.0},
	{"naughty", 1.0},
	{"seduce", 1.2},
	{"tease", 1.0},
	{"turn me on", 1.5},
	{"make out", 1.2},
	{"romantic night", 1.0},
	{"in bed", 0.8},
	{"undress", 1.2},
	{"lingerie", 1.2},
	{"strip", 1.2},
	{"desire you", 1.0},
	{"want you so bad", 1.2},
}

// Supresores de contexto clinico: atenuan el score explicito.
var clinicalSuppressors = []string{
	"doctor",
	"medical",
	"medicine",
	"anatomy",
	"biology",
	"textbook",
	"health class",
	"physician",
	"diagnosis",
	"clinical",
}

const clinicalAttenuation = 0.4

// patternScores es el resultado crudo de la Capa 3.
type patternScores struct {
	Explicit   float64
	Fetish     float64
	Suggestive float64
	Indicators []string
	Families   int
	MaxWeight  float64
	Matches    int
	Clinical   bool
}

// checkFastRules aplica la Capa 2 sobre el texto normalizado.
// Devuelve (label, indicators, true) si una regla dura disparo.
func checkFastRules(normalized string) (string, []string, bool) {
	for _, ind := range minorIndicators {
		if containsTerm(normalized, ind) {
			return "MINOR_RISK", []string{ind}, true
		}
	}
	if m := ageDigitRe.FindStringSubmatch(normalized); m != nil {
		ageStr := m[1]
		if ageStr == "" {
			ageStr = m[2]
		}
		age, _ := strconv.Atoi(ageStr)
		if age > 0 && age < 18 {
			return "MINOR_RISK", []string{"age:" + ageStr}, true
		}
	}
	for _, ind := range coercionIndicators {
		if containsTerm(normalized, ind) {
			return "NONCONSENSUAL", []string{ind}, true
		}
	}
	return "", nil, false
}

// scorePatterns aplica la Capa 3 sobre el texto normalizado.
func scorePatterns(normalized string) patternScores {
	var ps patternScores

	scan := func(patterns []weightedPattern, family string, total *float64) bool {
		hit := false
		for _, p := range patterns {
			if containsTerm(normalized, p.term) {
				*total += p.weight
				ps.Matches++
				ps.Indicators = append(ps.Indicators, family+":"+p.term)
				if p.weight > ps.MaxWeight {
					ps.MaxWeight = p.weight
				}
				hit = true
			}
		}
		return hit
	}

	if scan(explicitPatterns, "explicit", &ps.Explicit) {
		ps.Families++
	}
	if scan(fetishPatterns, "fetish", &ps.Fetish) {
		ps.Families++
	}
	if scan(suggestivePatterns, "suggestive", &ps.Suggestive) {
		ps.Families++
	}

	for _, sup := range clinicalSuppressors {
		if containsTerm(normalized, sup) {
			ps.Clinical = true
			ps.Explicit *= clinicalAttenuation
			ps.Indicators = append(ps.Indicators, "clinical:"+sup)
			break
		}
	}

	return ps
}

// containsTerm busca el termino con limites de palabra cuando es una sola
// palabra; las frases usan substring simple. Un '*' final marca prefijo
// ("teen*" matchea "teens" y "teenager").
func containsTerm(text, term string) bool {
	prefix := strings.HasSuffix(term, "*")
	term = strings.TrimSuffix(term, "*")
	if strings.ContainsRune(term, ' ') || strings.ContainsAny(term, "+/") {
		return strings.Contains(text, term)
	}
	idx := 0
	for {
		i := strings.Index(text[idx:], term)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(term)
		leftOK := start == 0 || !isWordChar(text[start-1])
		rightOK := prefix || end >= len(text) || !isWordChar(text[end])
		if leftOK && rightOK {
			return true
		}
		idx = end
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_'
}
