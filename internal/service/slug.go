package service

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RE2's \s omits \v and the ASCII separators \x1c-\x1f that Unicode treats as whitespace.
var (
	slugInvalidChars = regexp.MustCompile(`[^\w\s\v\x1c-\x1f-]`)
	slugSeparators   = regexp.MustCompile(`[\s\v\x1c-\x1f_-]+`)
)

// Slugify turns free text into a lowercase ASCII slug of [a-z0-9-].
// Accented letters lose their marks; other non-ASCII characters are dropped.
func Slugify(text string) string {
	t := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	)

	ascii, _, err := transform.String(t, text)
	if err != nil {
		ascii = text
	}

	slug := strings.ToLower(ascii)
	slug = slugInvalidChars.ReplaceAllString(slug, "")
	slug = slugSeparators.ReplaceAllString(slug, "-")

	return strings.Trim(slug, "-")
}
