package parser

import (
	"strings"
	"unicode"
)

// CharClass is the coarse classification the value parser assigns to every
// decoded character.
type CharClass int

const (
	CharClassSpecial CharClass = iota
	CharClassAlpha
	CharClassDigit
)

// CharCase distinguishes upper and lower case for alphabetic characters.
type CharCase int

const (
	CharCaseNone CharCase = iota
	CharCaseLower
	CharCaseUpper
)

// ParsedChar is one decoded character of an attribute value, paired with the
// exact source text that produced it. Encoded keeps the original spelling
// ("\\2a" or "*") so transforms can compute decoded lengths while editing
// encoded text.
type ParsedChar struct {
	Decoded   rune
	Encoded   string
	Class     CharClass
	Case      CharCase
	Printable bool
	IsEscape  bool
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func classify(r rune) (CharClass, CharCase) {
	switch {
	case unicode.IsDigit(r):
		return CharClassDigit, CharCaseNone
	case unicode.IsLetter(r):
		if unicode.IsUpper(r) {
			return CharClassAlpha, CharCaseUpper
		}
		return CharClassAlpha, CharCaseLower
	default:
		return CharClassSpecial, CharCaseNone
	}
}

// ParseChars decodes s into per-character metadata, resolving \XX hex escapes
// per RFC4515. A backslash not followed by two hex digits is kept as a
// literal; Active Directory tolerates it and obfuscated input relies on that.
func ParseChars(s string) []ParsedChar {
	chars := make([]ParsedChar, 0, len(s))
	for i := 0; i < len(s); {
		if s[i] == '\\' && i+2 < len(s) {
			hi, okHi := hexVal(s[i+1])
			lo, okLo := hexVal(s[i+2])
			if okHi && okLo {
				r := rune(hi<<4 | lo)
				class, cs := classify(r)
				chars = append(chars, ParsedChar{
					Decoded:   r,
					Encoded:   s[i : i+3],
					Class:     class,
					Case:      cs,
					Printable: unicode.IsPrint(r),
					IsEscape:  true,
				})
				i += 3
				continue
			}
		}
		r := rune(s[i])
		class, cs := classify(r)
		chars = append(chars, ParsedChar{
			Decoded:   r,
			Encoded:   s[i : i+1],
			Class:     class,
			Case:      cs,
			Printable: unicode.IsPrint(r),
			IsEscape:  false,
		})
		i++
	}
	return chars
}

// DecodeEscapes resolves every \XX escape in s.
func DecodeEscapes(s string) string {
	var b strings.Builder
	for _, c := range ParseChars(s) {
		b.WriteRune(c.Decoded)
	}
	return b.String()
}

// EncodeChars reassembles the raw text of a parsed-character slice.
func EncodeChars(chars []ParsedChar) string {
	var b strings.Builder
	for _, c := range chars {
		b.WriteString(c.Encoded)
	}
	return b.String()
}
