package markup

import (
	"fmt"
	"strings"
)

// HTML renders source as the HTML subset used inside a web chat bubble.
// Raw HTML in the source is escaped, never passed through.
func HTML(source string) string {
	return strings.ReplaceAll(render(source, htmlStyle{}), "\n", "<br>")
}

type htmlStyle struct{}

func (htmlStyle) text(s string) string   { return escapeHTML(s) }
func (htmlStyle) bold(s string) string   { return "<b>" + s + "</b>" }
func (htmlStyle) italic(s string) string { return "<i>" + s + "</i>" }
func (htmlStyle) strike(s string) string { return "<s>" + s + "</s>" }
func (htmlStyle) code(s string) string   { return "<code>" + escapeHTML(s) + "</code>" }

func (htmlStyle) link(label, url string) string {
	return fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`, escapeHTML(url), label)
}

func escapeHTML(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
