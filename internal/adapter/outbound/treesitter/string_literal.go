package treesitter

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// splitStringPrefix separates a Python string literal into its prefix letters,
// quote delimiter and body. ok is false when raw is not a complete literal.
func splitStringPrefix(raw string) (prefix, quote, body string, ok bool) {
	i := 0
	for i < len(raw) && raw[i] != '"' && raw[i] != '\'' {
		i++
	}
	if i == len(raw) {
		return "", "", "", false
	}
	prefix = raw[:i]
	rest := raw[i:]

	quote = rest[:1]
	if strings.HasPrefix(rest, `"""`) || strings.HasPrefix(rest, `'''`) {
		quote = rest[:3]
	}
	if len(rest) < 2*len(quote) || !strings.HasSuffix(rest, quote) {
		return "", "", "", false
	}
	return prefix, quote, rest[len(quote) : len(rest)-len(quote)], true
}

// decodeStringLiteral returns the text a Python string literal evaluates to and
// the byte offset of the body within raw.
func decodeStringLiteral(raw string) (string, int, bool) {
	prefix, quote, body, ok := splitStringPrefix(raw)
	if !ok {
		return "", 0, false
	}
	offset := len(prefix) + len(quote)
	if strings.ContainsAny(prefix, "rR") {
		return body, offset, true
	}
	return unescape(body), offset, true
}

// unescape decodes Python backslash escapes. Unknown escapes are kept verbatim.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		next := s[i+1]
		switch next {
		case '\n':
			i++
		case '\\', '\'', '"':
			b.WriteByte(next)
			i++
		case 'n':
			b.WriteByte('\n')
			i++
		case 't':
			b.WriteByte('\t')
			i++
		case 'r':
			b.WriteByte('\r')
			i++
		case 'a':
			b.WriteByte('\a')
			i++
		case 'b':
			b.WriteByte('\b')
			i++
		case 'f':
			b.WriteByte('\f')
			i++
		case 'v':
			b.WriteByte('\v')
			i++
		case 'x':
			i += writeCodePoint(&b, s, i, 2)
		case 'u':
			i += writeCodePoint(&b, s, i, 4)
		case 'U':
			i += writeCodePoint(&b, s, i, 8)
		default:
			if next >= '0' && next <= '7' {
				i += writeOctal(&b, s, i)
				continue
			}
			b.WriteByte(c)
		}
	}
	return b.String()
}

// writeCodePoint decodes \xHH, \uHHHH or \UHHHHHHHH at s[i] and returns the
// number of bytes consumed after the backslash.
func writeCodePoint(b *strings.Builder, s string, i, digits int) int {
	end := i + 2 + digits
	if end > len(s) {
		b.WriteByte('\\')
		return 0
	}
	n, err := strconv.ParseUint(s[i+2:end], 16, 32)
	if err != nil || !utf8.ValidRune(rune(n)) {
		b.WriteByte('\\')
		return 0
	}
	b.WriteRune(rune(n))
	return 1 + digits
}

func writeOctal(b *strings.Builder, s string, i int) int {
	end := i + 1
	for end < len(s) && end < i+4 && s[end] >= '0' && s[end] <= '7' {
		end++
	}
	n, _ := strconv.ParseUint(s[i+1:end], 8, 32)
	b.WriteRune(rune(n))
	return end - i - 1
}
