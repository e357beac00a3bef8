package tts

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaxFreeTextLength is the most characters sent to the free provider.
const MaxFreeTextLength = 200

// Sanitize prepares text for the free provider: NFC-normalize, drop anything
// that is not a letter, digit, underscore, whitespace or one of .,;:¿?¡!,
// cap the length and collapse whitespace. Emoji and markup are removed.
func Sanitize(text string) string {
	text = norm.NFC.String(text)

	var b strings.Builder
	b.Grow(len(text))
	count := 0
	for _, r := range text {
		if count >= MaxFreeTextLength {
			break
		}
		if !keep(r) {
			continue
		}
		b.WriteRune(r)
		count++
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func keep(r rune) bool {
	switch {
	case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r), r == '_':
		return true
	}
	return strings.ContainsRune(".,;:¿?¡!", r)
}
