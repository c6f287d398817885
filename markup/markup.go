// Package markup renders the lightweight Markdown allowed in scripted chat
// lines for the two surfaces: ANSI-styled text for the terminal and a small
// HTML subset for the browser bubble.
//
// Chat lines are short, so block structure is flattened:
//   - Headings become bold text
//   - List items become "• item" lines
//   - Code blocks are kept verbatim
//   - Images become links
package markup

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// style turns already-rendered fragments into target markup. text receives
// raw source text and is responsible for escaping.
type style interface {
	text(s string) string
	bold(s string) string
	italic(s string) string
	strike(s string) string
	code(s string) string
	link(label, url string) string
}

var md = goldmark.New(goldmark.WithExtensions(extension.Strikethrough, extension.Linkify))

func render(source string, st style) string {
	src := []byte(source)
	doc := md.Parser().Parse(text.NewReader(src))
	r := &renderer{source: src, style: st}
	r.walkBlock(doc)
	return strings.TrimRight(r.buf.String(), "\n ")
}

type renderer struct {
	source    []byte
	style     style
	buf       bytes.Buffer
	listDepth int
}

// ---------------------------------------------------------------------------
// Block-level rendering
// ---------------------------------------------------------------------------

func (r *renderer) walkBlock(n ast.Node) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		r.block(c)
	}
}

func (r *renderer) block(node ast.Node) {
	switch n := node.(type) {
	case *ast.Heading:
		r.buf.WriteString(r.style.bold(r.inlines(n)))
		r.buf.WriteString("\n")

	case *ast.Paragraph, *ast.TextBlock:
		r.buf.WriteString(r.inlines(n))
		r.buf.WriteString("\n")

	case *ast.Blockquote:
		sub := &renderer{source: r.source, style: r.style}
		sub.walkBlock(n)
		for _, line := range strings.Split(strings.TrimRight(sub.buf.String(), "\n"), "\n") {
			r.buf.WriteString(r.style.text("> "))
			r.buf.WriteString(line)
			r.buf.WriteString("\n")
		}

	case *ast.List:
		r.list(n)

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		r.buf.WriteString(r.style.code(strings.TrimRight(r.lines(n), "\n")))
		r.buf.WriteString("\n")

	case *ast.ThematicBreak:
		r.buf.WriteString(r.style.text("———"))
		r.buf.WriteString("\n")

	case *ast.HTMLBlock:
		// Raw HTML is shown as text, never interpreted.
		r.buf.WriteString(r.style.text(r.lines(n)))

	default:
		if node.HasChildren() {
			r.walkBlock(node)
		}
	}
}

func (r *renderer) lines(n ast.Node) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(r.source))
	}
	return b.String()
}

func (r *renderer) list(n *ast.List) {
	idx := 0
	if n.Start > 0 {
		idx = n.Start - 1
	}
	indent := strings.Repeat("  ", r.listDepth)

	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		item, ok := child.(*ast.ListItem)
		if !ok {
			continue
		}
		r.buf.WriteString(indent)
		if n.IsOrdered() {
			idx++
			r.buf.WriteString(r.style.text(strconv.Itoa(idx) + ". "))
		} else {
			r.buf.WriteString(r.style.text("• "))
		}
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			switch cn := c.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				r.buf.WriteString(r.inlines(cn))
			case *ast.List:
				r.buf.WriteByte('\n')
				r.listDepth++
				r.list(cn)
				r.listDepth--
				continue
			default:
				r.block(c)
			}
		}
		if !strings.HasSuffix(r.buf.String(), "\n") {
			r.buf.WriteByte('\n')
		}
	}
}

// ---------------------------------------------------------------------------
// Inline rendering
// ---------------------------------------------------------------------------

func (r *renderer) inlines(n ast.Node) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		b.WriteString(r.inline(c))
	}
	return b.String()
}

func (r *renderer) inline(node ast.Node) string {
	switch n := node.(type) {
	case *ast.Text:
		s := r.style.text(string(n.Segment.Value(r.source)))
		if n.SoftLineBreak() || n.HardLineBreak() {
			s += "\n"
		}
		return s

	case *ast.String:
		return r.style.text(string(n.Value))

	case *ast.Emphasis:
		if n.Level == 2 {
			return r.style.bold(r.inlines(n))
		}
		return r.style.italic(r.inlines(n))

	case *ast.CodeSpan:
		return r.style.code(r.textContent(n))

	case *ast.Link:
		return r.style.link(r.inlines(n), string(n.Destination))

	case *ast.AutoLink:
		return r.style.link(r.style.text(string(n.Label(r.source))), string(n.URL(r.source)))

	case *ast.Image:
		alt := r.textContent(n)
		if alt == "" {
			alt = string(n.Destination)
		}
		return r.style.link(r.style.text(alt), string(n.Destination))

	case *ast.RawHTML:
		var b strings.Builder
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			b.Write(seg.Value(r.source))
		}
		return r.style.text(b.String())

	case *east.Strikethrough:
		return r.style.strike(r.inlines(n))

	default:
		if node.HasChildren() {
			return r.inlines(node)
		}
		return ""
	}
}

// textContent returns the plain-text content of a node tree.
func (r *renderer) textContent(n ast.Node) string {
	var buf bytes.Buffer
	r.collectText(n, &buf)
	return buf.String()
}

func (r *renderer) collectText(node ast.Node, buf *bytes.Buffer) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(r.source))
		case *ast.String:
			buf.Write(t.Value)
		default:
			r.collectText(c, buf)
		}
	}
}

// Plain strips all markup and returns the visible text.
func Plain(source string) string {
	return render(source, plainStyle{})
}

type plainStyle struct{}

func (plainStyle) text(s string) string   { return s }
func (plainStyle) bold(s string) string   { return s }
func (plainStyle) italic(s string) string { return s }
func (plainStyle) strike(s string) string { return s }
func (plainStyle) code(s string) string   { return s }

func (plainStyle) link(label, _ string) string {
	return label
}
