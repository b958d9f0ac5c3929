package richtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<p>one two three</p>", "one two three"},
		{"<p>one</p><p>two</p>", "one two"},
		{"<strong>bo</strong>ld", "bold"},
		{"a<br>b", "a b"},
		{"  spaced \n\t out  ", "spaced out"},
		{"<p>x</p><script>alert(1)</script><style>p{}</style>", "x"},
		{"fish &amp; chips", "fish & chips"},
		{"", ""},
		{"<p>unterminated", "unterminated"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PlainText(tt.in), "PlainText(%q)", tt.in)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"keeps formatting", "<p>Hello <strong>world</strong></p>", "<p>Hello <strong>world</strong></p>"},
		{"drops script with content", "<p>a</p><script>alert(1)</script>", "<p>a</p>"},
		{"unwraps unknown elements", "<span>text</span>", "text"},
		{"strips event handlers", `<p onclick="x()">hi</p>`, "<p>hi</p>"},
		{"drops javascript links", `<a href="javascript:alert(1)">x</a>`, "<a>x</a>"},
		{"keeps http links", `<a href="https://example.com/a?b=1&c=2">x</a>`, `<a href="https://example.com/a?b=1&amp;c=2">x</a>`},
		{"keeps relative images", `<img src="/uploads/a.png" alt="A">`, `<img src="/uploads/a.png" alt="A">`},
		{"drops protocol-relative image src", `<img src="//evil.example/a.png">`, `<img>`},
		{"escapes text", "1 &lt; 2", "1 &lt; 2"},
		{
			"keeps youtube embed",
			`<div class="video-embed"><iframe src="https://www.youtube.com/embed/dQw4w9WgXcQ" allowfullscreen></iframe></div>`,
			`<div class="video-embed"><iframe src="https://www.youtube.com/embed/dQw4w9WgXcQ" allowfullscreen=""></iframe></div>`,
		},
		{"drops foreign iframe", `<iframe src="https://evil.example/"></iframe>`, ``},
		{"drops unknown class", `<div class="x">a</div>`, `<div>a</div>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}
