// Package glob compiles shell-style filename patterns into matchers.
//
// The syntax is the one used for ignore files:
//
//	[abc]    one character from the set; ranges (a-z) are allowed
//	[!abc]   one character not in the set ([^abc] is accepted too)
//	?        exactly one character
//	\x       the literal character x
//	*        any run of characters (including none)
//
// A name that starts with a period only matches when the pattern starts
// with a literal period, so "*" does not match ".profile" but ".*" does.
//
// Patterns are translated into RE2 programs.
// Names and patterns are normalized to Unicode NFC before matching.
package glob

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/wasilibs/go-re2"
	"golang.org/x/text/unicode/norm"
)

// ErrBadPattern is returned for patterns that cannot be compiled.
var ErrBadPattern = errors.New("malformed glob pattern")

// Pattern is a compiled glob pattern.
type Pattern struct {
	source     string
	re         *re2.Regexp
	leadingDot bool
}

// Compile translates pattern into a matcher.
func Compile(pattern string) (*Pattern, error) {
	normalized := canonical(pattern)

	expr, leadingDot, err := translate(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrBadPattern, pattern, err)
	}

	re, err := re2.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrBadPattern, pattern, err)
	}

	return &Pattern{
		source:     pattern,
		re:         re,
		leadingDot: leadingDot,
	}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the pattern as it was written.
func (p *Pattern) String() string {
	return p.source
}

// Match reports whether name matches the whole pattern.
func (p *Pattern) Match(name string) bool {
	name = canonical(name)
	if strings.HasPrefix(name, ".") && !p.leadingDot {
		return false
	}
	return p.re.MatchString(name)
}

// canonical returns name in NFC with every byte that is not valid UTF-8
// replaced by U+FFFD, one replacement per byte, so such a byte still counts
// as one character for ? and *.
func canonical(name string) string {
	if utf8.ValidString(name) {
		return norm.NFC.String(name)
	}

	var b strings.Builder
	b.Grow(len(name) + 8)
	for i := 0; i < len(name); {
		r, size := utf8.DecodeRuneInString(name[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteRune(utf8.RuneError)
		} else {
			b.WriteString(name[i : i+size])
		}
		i += size
	}
	return norm.NFC.String(b.String())
}

// Match compiles pattern and matches it against name in one step.
func Match(pattern, name string) (bool, error) {
	p, err := Compile(pattern)
	if err != nil {
		return false, err
	}
	return p.Match(name), nil
}

// MatchAny returns the first pattern that matches name, or nil.
func MatchAny(patterns []*Pattern, name string) *Pattern {
	for _, p := range patterns {
		if p.Match(name) {
			return p
		}
	}
	return nil
}

// translate converts a glob into an anchored RE2 expression. The second
// return value is true when the pattern begins with a literal period.
func translate(pattern string) (string, bool, error) {
	var b strings.Builder
	b.WriteString(`(?s)^`)

	runes := []rune(pattern)
	leadingDot := false

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '*':
			// Collapse runs of stars, they mean the same thing.
			for i+1 < len(runes) && runes[i+1] == '*' {
				i++
			}
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		case '\\':
			start := i
			if i+1 < len(runes) {
				i++
				r = runes[i]
			}
			if start == 0 {
				leadingDot = r == '.'
			}
			b.WriteString(quote(r))
		case '[':
			class, next, ok, err := translateClass(runes, i)
			if err != nil {
				return "", false, err
			}
			if !ok {
				// Unterminated class, '[' is literal.
				b.WriteString(quote(r))
				continue
			}
			b.WriteString(class)
			i = next
		default:
			if i == 0 && r == '.' {
				leadingDot = true
			}
			b.WriteString(quote(r))
		}
	}

	b.WriteString(`$`)
	return b.String(), leadingDot, nil
}

// translateClass converts the bracket expression starting at runes[start].
// It returns the RE2 class, the index of the closing bracket and false when
// the bracket is never closed.
func translateClass(runes []rune, start int) (string, int, bool, error) {
	i := start + 1
	negate := false
	if i < len(runes) && (runes[i] == '!' || runes[i] == '^') {
		negate = true
		i++
	}

	var members []string
	first := true
	for ; i < len(runes); i++ {
		r := runes[i]
		if r == ']' && !first {
			break
		}
		first = false

		if r == '\\' && i+1 < len(runes) {
			i++
			r = runes[i]
		}

		lo := r
		if i+2 < len(runes) && runes[i+1] == '-' && runes[i+2] != ']' {
			hi := runes[i+2]
			i += 2
			if hi == '\\' && i+1 < len(runes) {
				i++
				hi = runes[i]
			}
			if hi < lo {
				return "", 0, false, fmt.Errorf("invalid range %c-%c", lo, hi)
			}
			members = append(members, classQuote(lo)+"-"+classQuote(hi))
			continue
		}
		members = append(members, classQuote(lo))
	}

	if i >= len(runes) {
		return "", 0, false, nil
	}

	var b strings.Builder
	b.WriteString("[")
	if negate {
		b.WriteString("^")
	}
	for _, m := range members {
		b.WriteString(m)
	}
	b.WriteString("]")
	return b.String(), i, true, nil
}

const metaChars = `\.+*?()|[]{}^$`

func quote(r rune) string {
	if strings.ContainsRune(metaChars, r) {
		return `\` + string(r)
	}
	return string(r)
}

func classQuote(r rune) string {
	if strings.ContainsRune(`\]-[^`, r) {
		return `\` + string(r)
	}
	return string(r)
}
