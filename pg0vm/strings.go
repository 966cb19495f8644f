package pg0vm

import (
	"strconv"
	"strings"
)

// Unescape resolves backslash sequences in a string literal.
func Unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	rs := []rune(s)
	var b strings.Builder
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if r != '\\' || i+1 >= len(rs) {
			b.WriteRune(r)
			continue
		}
		next := rs[i+1]
		switch next {
		case 'r':
			b.WriteRune('\r')
			i++
		case 'n':
			b.WriteRune('\n')
			i++
		case 't':
			b.WriteRune('\t')
			i++
		case 'b':
			b.WriteRune('\b')
			i++
		case '"', '\'', '\\':
			b.WriteRune(next)
			i++
		case 'x':
			j := i + 2
			for j < len(rs) && j-(i+2) < 4 && isHexDigit(rs[j]) {
				j++
			}
			if i+2 >= len(rs) {
				// a trailing \x is dropped
				i++
				continue
			}
			b.WriteRune(rune(ParseHex(string(rs[i+2 : j]))))
			i = j - 1
		default:
			if next >= '0' && next <= '7' {
				j := i + 1
				for j < len(rs) && j-(i+1) < 6 && rs[j] >= '0' && rs[j] <= '7' {
					j++
				}
				b.WriteRune(rune(ParseOctal(string(rs[i+1 : j]))))
				i = j - 1
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Escape is the inverse of Unescape for the characters FormatArray must quote.
func Escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\r':
			b.WriteString(`\r`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatArray renders elements as {a,"key":b,{nested},"text"}.
func FormatArray(elems []*Slot, hex bool) string {
	var b strings.Builder
	b.WriteByte('{')
	formatSlots(&b, elems, hex)
	b.WriteByte('}')
	return b.String()
}

func formatSlots(b *strings.Builder, elems []*Slot, hex bool) {
	for i, s := range elems {
		if i > 0 {
			b.WriteByte(',')
		}
		if s.Name != "" {
			b.WriteByte('"')
			b.WriteString(s.Name)
			b.WriteString(`":`)
		}
		v := s.Value
		switch v.Type {
		case TypeArray:
			b.WriteByte('{')
			formatSlots(b, v.Array, hex)
			b.WriteByte('}')
		case TypeString:
			b.WriteByte('"')
			b.WriteString(Escape(v.Str))
			b.WriteByte('"')
		case TypeFloat:
			b.WriteString(FormatFloat(v.Float))
		default:
			b.WriteString(FormatInt(v.Int, hex))
		}
	}
}

func isHexDigit(r rune) bool {
	return r >= '0' && r <= '9' || r >= 'a' && r <= 'f' || r >= 'A' && r <= 'F'
}

// ParseHex reads leading hex digits and ignores the rest.
func ParseHex(s string) int64 {
	var n int64
	for _, r := range s {
		var d int64
		switch {
		case r >= '0' && r <= '9':
			d = int64(r - '0')
		case r >= 'a' && r <= 'f':
			d = int64(r-'a') + 10
		case r >= 'A' && r <= 'F':
			d = int64(r-'A') + 10
		default:
			return n
		}
		n = n*16 + d
	}
	return n
}

// ParseOctal reads leading octal digits and ignores the rest.
func ParseOctal(s string) int64 {
	var n int64
	for _, r := range s {
		if r < '0' || r > '7' {
			break
		}
		n = n*8 + int64(r-'0')
	}
	return n
}

// Atoi parses an optional sign and leading decimal digits, returning 0 when none.
func Atoi(s string) int64 {
	s = strings.TrimLeft(s, " \t\r\n")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		if s[0] == '-' {
			return -1 << 63
		}
		return 1<<63 - 1
	}
	return n
}

// Atof parses the longest floating point prefix of s.
func Atof(s string) float64 {
	s = strings.TrimLeft(s, " \t\r\n")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '+' || s[exp] == '-') {
			exp++
		}
		expDigits := exp
		for exp < len(s) && s[exp] >= '0' && s[exp] <= '9' {
			exp++
		}
		if exp > expDigits {
			end = exp
		}
	}
	f, _ := strconv.ParseFloat(s[:end], 64)
	return f
}
