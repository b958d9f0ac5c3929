package editor

import (
	"strings"

	"highrise/internal/richtext"
)

const DefaultWordsPerMinute = 200

// WordCount counts whitespace-separated words in the text of an HTML body.
func WordCount(content string) int {
	return len(strings.Fields(richtext.PlainText(content)))
}

// ReadTime is the estimated reading time in whole minutes, rounded up.
func ReadTime(words, wordsPerMinute int) int {
	if wordsPerMinute <= 0 {
		wordsPerMinute = DefaultWordsPerMinute
	}
	return (words + wordsPerMinute - 1) / wordsPerMinute
}
