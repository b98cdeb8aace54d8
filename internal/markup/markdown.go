// Package markup turns the provider's markdown into the HTML subset Telegram accepts.
package markup

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

var (
	fencedCode = regexp.MustCompile("```([a-zA-Z0-9_+-]+)?\\n([\\s\\S]*?)```")
	inlineCode = regexp.MustCompile("`([^`\\n]+)`")
	bold       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italic     = regexp.MustCompile(`\*([^*\n]+?)\*`)
	heading    = regexp.MustCompile(`(?m)^#{1,6}\s*(.*)$`)
)

// placeholder marks code blocks while the inline rules run, so markdown inside code is
// left alone. It contains no characters any rule matches.
const placeholder = "\x00code%d\x00"

// ToTelegramHTML escapes md and converts fenced code, inline code, bold, italic and
// headings into Telegram HTML tags.
func ToTelegramHTML(md string) string {
	s := html.EscapeString(md)

	var blocks []string
	stash := func(rendered string) string {
		blocks = append(blocks, rendered)
		return strings.Replace(placeholder, "%d", strconv.Itoa(len(blocks)-1), 1)
	}

	s = fencedCode.ReplaceAllStringFunc(s, func(m string) string {
		parts := fencedCode.FindStringSubmatch(m)
		return stash("<pre><code>" + parts[2] + "</code></pre>")
	})
	s = inlineCode.ReplaceAllStringFunc(s, func(m string) string {
		parts := inlineCode.FindStringSubmatch(m)
		return stash("<code>" + parts[1] + "</code>")
	})

	s = bold.ReplaceAllString(s, "<b>$1</b>")
	s = italic.ReplaceAllString(s, "<i>$1</i>")
	s = heading.ReplaceAllString(s, "<b>$1</b>")

	for i, block := range blocks {
		s = strings.Replace(s, strings.Replace(placeholder, "%d", strconv.Itoa(i), 1), block, 1)
	}
	return s
}

// Truncate cuts s to at most max runes, appending an ellipsis when it had to cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}

// TelegramMaxLength is the longest message text Telegram accepts, in runes.
const TelegramMaxLength = 4096

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// PlainText strips the tags ToTelegramHTML adds and unescapes entities, giving text
// that reads correctly without a parse mode.
func PlainText(s string) string {
	return html.UnescapeString(htmlTag.ReplaceAllString(s, ""))
}

// Split cuts s into chunks of at most max runes. Cuts prefer a line break, then a
// space, and never land inside a tag or an entity.
func Split(s string, max int) []string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return []string{s}
	}

	var chunks []string
	for len(r) > max {
		cut := cutPoint(r[:max])
		chunks = append(chunks, string(r[:cut]))
		r = r[cut:]
	}
	if len(r) > 0 {
		chunks = append(chunks, string(r))
	}
	return chunks
}

func cutPoint(r []rune) int {
	cut := len(r)
	if i := lastIndex(r, '\n'); i > len(r)/2 {
		cut = i + 1
	} else if i := lastIndex(r, ' '); i > len(r)/2 {
		cut = i + 1
	}

	// Back off to the start of an unterminated tag or entity.
	head := r[:cut]
	if lt := lastIndex(head, '<'); lt > lastIndex(head, '>') && lt > 0 {
		cut = lt
	}
	head = r[:cut]
	if amp := lastIndex(head, '&'); amp > lastIndex(head, ';') && amp > 0 {
		cut = amp
	}
	return cut
}

func lastIndex(r []rune, c rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] == c {
			return i
		}
	}
	return -1
}
