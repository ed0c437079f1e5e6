package main

import (
	"regexp"
	"strings"
)

// Script-class patterns for inputs the oracle cannot score. The oracle ranks
// whole Korean words, so pure Latin, pure digits, a lone syllable, bare jamo
// and symbol-only strings are rejected before any network call.
var rejectPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Za-z]+$`),              // Latin letters only
	regexp.MustCompile(`^[가-힣]$`),                 // single Hangul syllable
	regexp.MustCompile(`^[ㄱ-ㅎ]+$`),                // consonant jamo only
	regexp.MustCompile(`^[ㅏ-ㅣ]+$`),                // vowel jamo only
	regexp.MustCompile(`^[0-9]+$`),                 // digits only
	regexp.MustCompile(`^[^A-Za-z0-9가-힣ㄱ-ㅎㅏ-ㅣ]+$`), // punctuation and symbols only
}

// classifyGuess trims the raw input and reports whether it is worth sending
// to the oracle. It returns the trimmed word and false for rejected inputs.
func classifyGuess(raw string) (string, bool) {
	word := strings.TrimSpace(raw)
	if word == "" {
		return "", false
	}
	for _, pattern := range rejectPatterns {
		if pattern.MatchString(word) {
			return word, false
		}
	}
	return word, true
}
