package textextract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// Chunk splits text into pieces of at most maxSize characters. Sentences are
// kept whole and rejoined with ". "; a sentence longer than maxSize is broken
// on spaces instead, and a single oversized word becomes its own chunk.
func Chunk(text string, maxSize int) []string {
	var chunks []string
	current := ""

	for _, sentence := range sentenceSplit.Split(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if runeLen(current)+sepLen(current, 2)+runeLen(sentence) <= maxSize {
			if current != "" {
				current += ". "
			}
			current += sentence
			continue
		}
		if current != "" {
			chunks = append(chunks, strings.TrimSpace(current))
			current = ""
			if runeLen(sentence) <= maxSize {
				current = sentence
				continue
			}
		}

		// sentence alone is too long
		temp := ""
		for _, word := range strings.Split(sentence, " ") {
			if runeLen(temp)+sepLen(temp, 1)+runeLen(word) > maxSize {
				if temp != "" {
					chunks = append(chunks, strings.TrimSpace(temp))
					temp = word
				} else {
					chunks = append(chunks, word)
				}
				continue
			}
			if temp != "" {
				temp += " "
			}
			temp += word
		}
		current = temp
	}

	if current != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}
	return chunks
}

// sepLen is the width of the separator appended after s, if any.
func sepLen(s string, n int) int {
	if s == "" {
		return 0
	}
	return n
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
