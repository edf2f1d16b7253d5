package cms

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// Rich content arrives as a nested block tree (paragraphs, headings,
// lists, quotes) whose leaves are styled text runs. The tree is
// open-ended upstream, so it is traversed with gjson rather than forced
// into structs.

const (
	charsPerWord   = 5
	wordsPerMinute = 140
)

// ReadingTime estimates the minutes needed to read a rich-content block
// tree: total text-leaf characters divided by an average word length of
// 5, divided by 140 words per minute, rounded up, never below 1.
func ReadingTime(content []byte) int {
	chars := countChars(gjson.ParseBytes(content))
	minutes := int(math.Ceil(float64(chars) / charsPerWord / wordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

func countChars(node gjson.Result) int {
	total := 0
	switch {
	case node.IsArray():
		node.ForEach(func(_, child gjson.Result) bool {
			total += countChars(child)
			return true
		})
	case node.IsObject():
		// Characters, not bytes: non-ASCII text would otherwise inflate
		// the estimate by its encoding width.
		if text := node.Get("text"); text.Type == gjson.String {
			total += utf8.RuneCountInString(text.String())
		}
		if children := node.Get("children"); children.Exists() {
			total += countChars(children)
		}
	}
	return total
}

// PlainText flattens a rich-content block tree into newline-joined plain
// text. Each top-level block contributes one line built from its text
// runs in order. Used for description/summary metadata, not display.
func PlainText(content []byte) string {
	root := gjson.ParseBytes(content)
	if !root.IsArray() {
		return ""
	}

	var lines []string
	root.ForEach(func(_, block gjson.Result) bool {
		var sb strings.Builder
		collectText(block, &sb)
		if line := strings.TrimSpace(sb.String()); line != "" {
			lines = append(lines, line)
		}
		return true
	})

	return strings.Join(lines, "\n")
}

func collectText(node gjson.Result, sb *strings.Builder) {
	switch {
	case node.IsArray():
		node.ForEach(func(_, child gjson.Result) bool {
			collectText(child, sb)
			return true
		})
	case node.IsObject():
		if text := node.Get("text"); text.Type == gjson.String {
			sb.WriteString(text.String())
		}
		if children := node.Get("children"); children.Exists() {
			collectText(children, sb)
		}
	}
}

// Summary derives a metadata description from rich content: the plain
// text truncated at the last word boundary before max runes, with an
// ellipsis when cut.
func Summary(content []byte, max int) string {
	text := strings.ReplaceAll(PlainText(content), "\n", " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	cut := string(runes[:max])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "…"
}
