// Package richtext handles the HTML bodies produced by the post editor.
package richtext

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// YouTubeEmbedPrefix is the only iframe source Sanitize keeps.
const YouTubeEmbedPrefix = "https://www.youtube.com/embed/"

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true, atom.Ul: true, atom.Ol: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Blockquote: true, atom.Pre: true, atom.Tr: true, atom.Td: true, atom.Th: true,
	atom.Section: true, atom.Article: true, atom.Hr: true, atom.Img: true, atom.Iframe: true,
}

// dropContent lists elements whose text is never user-visible prose.
var dropContent = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Textarea: true, atom.Noscript: true, atom.Template: true,
}

// PlainText returns the text content of an HTML fragment with runs of
// whitespace collapsed to one space. Block boundaries count as whitespace so
// "<p>one</p><p>two</p>" reads as two words.
func PlainText(fragment string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a malformed tail; either way the text so far is the result
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if dropContent[a] {
				skip++
			}
			if blockElements[a] {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if dropContent[a] && skip > 0 {
				skip--
			}
			if blockElements[a] {
				b.WriteByte(' ')
			}
		}
	}
}

// allowed maps each permitted element to its permitted attributes.
var allowed = map[atom.Atom]map[string]bool{
	atom.P: nil, atom.Br: nil, atom.Strong: nil, atom.B: nil, atom.Em: nil, atom.I: nil, atom.U: nil,
	atom.H1: nil, atom.H2: nil, atom.H3: nil, atom.H4: nil,
	atom.Ul: nil, atom.Ol: nil, atom.Li: nil, atom.Blockquote: nil, atom.Pre: nil, atom.Code: nil,
	atom.A:      {"href": true, "title": true},
	atom.Img:    {"src": true, "alt": true, "width": true, "height": true},
	atom.Div:    {"class": true},
	atom.Iframe: {"src": true, "width": true, "height": true, "title": true, "frameborder": true, "allowfullscreen": true},
}

var voidElements = map[atom.Atom]bool{atom.Br: true, atom.Img: true}

// Sanitize rewrites an HTML fragment keeping only allowlisted elements and
// attributes. Disallowed elements are removed but their text is kept, except
// for script-like elements whose content is dropped. URLs must be http(s)
// or site-relative; iframes must point at a YouTube embed.
func Sanitize(fragment string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	skip := 0
	// rejected counts open allowlisted elements whose start tag was refused,
	// so their end tags are refused too.
	rejected := map[atom.Atom]int{}
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			if skip == 0 {
				b.WriteString(html.EscapeString(string(z.Text())))
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if dropContent[tok.DataAtom] {
				if tt == html.StartTagToken {
					skip++
				}
				continue
			}
			if skip > 0 {
				continue
			}
			if attrs, ok := keepElement(tok); ok {
				b.WriteByte('<')
				b.WriteString(tok.Data)
				for _, a := range attrs {
					b.WriteByte(' ')
					b.WriteString(a.Key)
					b.WriteString(`="`)
					b.WriteString(html.EscapeString(a.Val))
					b.WriteByte('"')
				}
				b.WriteByte('>')
				if tt == html.SelfClosingTagToken && !voidElements[tok.DataAtom] {
					b.WriteString("</" + tok.Data + ">")
				}
			} else if _, known := allowed[tok.DataAtom]; known && tt == html.StartTagToken {
				rejected[tok.DataAtom]++
			}
		case html.EndTagToken:
			tok := z.Token()
			if dropContent[tok.DataAtom] {
				if skip > 0 {
					skip--
				}
				continue
			}
			if skip > 0 || voidElements[tok.DataAtom] {
				continue
			}
			if rejected[tok.DataAtom] > 0 {
				rejected[tok.DataAtom]--
				continue
			}
			if _, ok := allowed[tok.DataAtom]; ok {
				b.WriteString("</" + tok.Data + ">")
			}
		}
	}
}

func keepElement(tok html.Token) ([]html.Attribute, bool) {
	permitted, ok := allowed[tok.DataAtom]
	if !ok {
		return nil, false
	}
	var attrs []html.Attribute
	for _, a := range tok.Attr {
		if a.Namespace != "" || !permitted[a.Key] {
			continue
		}
		switch a.Key {
		case "href":
			if !safeURL(a.Val, true) {
				continue
			}
		case "src":
			if tok.DataAtom == atom.Iframe {
				if !strings.HasPrefix(a.Val, YouTubeEmbedPrefix) {
					return nil, false
				}
			} else if !safeURL(a.Val, false) {
				continue
			}
		case "class":
			if a.Val != "video-embed" {
				continue
			}
		}
		attrs = append(attrs, a)
	}
	if tok.DataAtom == atom.Iframe && !hasAttr(attrs, "src") {
		return nil, false
	}
	return attrs, true
}

func hasAttr(attrs []html.Attribute, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

func safeURL(raw string, allowMailto bool) bool {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return true
	}
	if strings.HasPrefix(raw, "#") {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	case "mailto":
		return allowMailto
	}
	return false
}
