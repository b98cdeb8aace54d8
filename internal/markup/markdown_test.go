package markup

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestToTelegramHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"escapes html", "a < b & c > d", "a &lt; b &amp; c &gt; d"},
		{"bold", "this is **bold** text", "this is <b>bold</b> text"},
		{"italic", "this is *italic* text", "this is <i>italic</i> text"},
		{"heading", "## Title\nbody", "<b>Title</b>\nbody"},
		{"inline code", "run `go test` now", "run <code>go test</code> now"},
		{"fenced code", "```go\nfmt.Println(\"**x**\")\n```", "<pre><code>fmt.Println(&#34;**x**&#34;)\n</code></pre>"},
		{"markdown inside inline code is kept", "`a*b*c`", "<code>a*b*c</code>"},
		{"tags in source are escaped", "<b>not bold</b>", "&lt;b&gt;not bold&lt;/b&gt;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToTelegramHTML(tt.in))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd…", Truncate("abcdefgh", 5))
	assert.Equal(t, "приве…", Truncate("привет, мир", 6))
}

func TestPlainText(t *testing.T) {
	in := ToTelegramHTML("**x** < y & `z`")
	assert.Equal(t, "x < y & z", PlainText(in))
	assert.Equal(t, "no markup", PlainText("no markup"))
}

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{"short"}, Split("short", 10))

	line := strings.Repeat("a", 30) + "\n"
	chunks := Split(strings.Repeat(line, 5), 70)
	assert.Equal(t, []string{line + line, line + line, line}, chunks)

	long := strings.Repeat("слово ", 2000)
	chunks = Split(long, TelegramMaxLength)
	assert.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), TelegramMaxLength)
	}
	assert.Equal(t, long, strings.Join(chunks, ""))
}

func TestSplit_NeverCutsTagsOrEntities(t *testing.T) {
	s := strings.Repeat("x", 8) + "<b>bold</b>"
	chunks := Split(s, 10)
	assert.Equal(t, []string{strings.Repeat("x", 8), "<b>bold", "</b>"}, chunks)
	for _, c := range chunks {
		assert.Equal(t, strings.Count(c, "<"), strings.Count(c, ">"), c)
	}

	s = strings.Repeat("x", 8) + "&amp;y"
	assert.Equal(t, []string{strings.Repeat("x", 8), "&amp;y"}, Split(s, 10))
}
