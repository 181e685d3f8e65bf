package dialect

// Token is one element of a LIKE pattern: either literal text or a run of
// any characters (%).
type Token struct {
	Text     string
	Wildcard bool
}

// Pattern is an engine-neutral LIKE pattern. Literal text is stored raw and
// escaped by the dialect that renders it, so user-supplied % and _ never act
// as wildcards.
type Pattern []Token

// Lit appends literal text.
func (p Pattern) Lit(text string) Pattern {
	if text == "" {
		return p
	}
	out := make(Pattern, len(p), len(p)+1)
	copy(out, p)
	return append(out, Token{Text: text})
}

// Any appends a wildcard. Consecutive wildcards collapse into one.
func (p Pattern) Any() Pattern {
	if len(p) > 0 && p[len(p)-1].Wildcard {
		return p
	}
	out := make(Pattern, len(p), len(p)+1)
	copy(out, p)
	return append(out, Token{Wildcard: true})
}

// HasLiteral reports whether the pattern constrains anything at all.
func (p Pattern) HasLiteral() bool {
	for _, t := range p {
		if !t.Wildcard && t.Text != "" {
			return true
		}
	}
	return false
}

type patternRune struct {
	r   rune
	any bool
}

func (p Pattern) runes() []patternRune {
	out := make([]patternRune, 0, len(p)*2)
	for _, t := range p {
		if t.Wildcard {
			out = append(out, patternRune{any: true})
			continue
		}
		for _, r := range t.Text {
			out = append(out, patternRune{r: r})
		}
	}
	return out
}

// Match evaluates the pattern against subject in process, with the same
// semantics the rendered SQL has on the database (whole-string match,
// wildcard = any run including the empty one). Runes are compared after
// fold; a nil fold compares them exactly.
func (p Pattern) Match(subject string, fold func(rune) rune) bool {
	pat := p.runes()
	s := []rune(subject)

	si, pi := 0, 0
	star, mark := -1, 0
	for si < len(s) {
		switch {
		case pi < len(pat) && !pat[pi].any && runeEqual(pat[pi].r, s[si], fold):
			si++
			pi++
		case pi < len(pat) && pat[pi].any:
			star = pi
			mark = si
			pi++
		case star != -1:
			pi = star + 1
			mark++
			si = mark
		default:
			return false
		}
	}
	for pi < len(pat) && pat[pi].any {
		pi++
	}
	return pi == len(pat)
}

func runeEqual(a, b rune, fold func(rune) rune) bool {
	if a == b {
		return true
	}
	return fold != nil && fold(a) == fold(b)
}
