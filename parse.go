package hxtag

import (
	"html"
	"strings"

	xhtml "golang.org/x/net/html"
)

// node is one piece of a scanned buffer: literal text, or a registered
// component tag with its unresolved inner HTML.
type node struct {
	text string

	entry *Entry // nil for text
	tag   string
	attrs RawAttributes
	inner string
	pos   int // offset of the start tag in the scanned buffer
}

// scan splits src[start:] into text and component nodes. Only tags for
// which lookup succeeds become component nodes; everything else, including
// the content of raw-text elements such as <script>, stays text. Text
// nodes hold the source bytes unchanged.
//
// A component start tag without a matching end tag is treated as
// self-closing and scanning resumes right after it.
func scan(src string, start int, lookup func(tag string) (*Entry, bool)) []node {
	var nodes []node
	z := xhtml.NewTokenizer(strings.NewReader(src[start:]))
	off, textStart := start, start

	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			break
		}
		tokStart := off
		off += len(z.Raw())
		if tt != xhtml.StartTagToken && tt != xhtml.SelfClosingTagToken {
			continue
		}
		name, _ := z.TagName()
		entry, ok := lookup(string(name))
		if !ok {
			continue
		}

		if tokStart > textStart {
			nodes = append(nodes, node{text: src[textStart:tokStart]})
		}
		n := node{
			entry: entry,
			tag:   entry.tag,
			attrs: lexAttrs(src[tokStart:off]),
			pos:   tokStart,
		}
		if tt == xhtml.SelfClosingTagToken {
			nodes = append(nodes, n)
			textStart = off
			continue
		}

		innerStart := off
		innerEnd, ok := findClose(z, string(name), &off)
		if !ok {
			nodes = append(nodes, n)
			return append(nodes, scan(src, innerStart, lookup)...)
		}
		n.inner = src[innerStart:innerEnd]
		nodes = append(nodes, n)
		textStart = off
	}

	if len(src) > textStart {
		nodes = append(nodes, node{text: src[textStart:]})
	}
	return nodes
}

// findClose advances z to the end tag matching an open tag, counting
// nested tags of the same name. It returns the offset where the end tag
// starts; *off is left just past it.
func findClose(z *xhtml.Tokenizer, tag string, off *int) (int, bool) {
	depth := 1
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			return 0, false
		}
		tokStart := *off
		*off += len(z.Raw())

		switch tt {
		case xhtml.StartTagToken:
			if name, _ := z.TagName(); string(name) == tag {
				depth++
			}
		case xhtml.EndTagToken:
			if name, _ := z.TagName(); string(name) == tag {
				depth--
				if depth == 0 {
					return tokStart, true
				}
			}
		}
	}
}

// lexAttrs reads the attributes of a raw start tag. The tokenizer
// lower-cases attribute names, so the raw text is lexed again here to keep
// camelCase names as written. Values are unescaped; bare attributes map
// to "". The first occurrence of a repeated name wins.
func lexAttrs(raw string) RawAttributes {
	attrs := RawAttributes{}
	i := strings.IndexAny(raw, " \t\n\f\r/>")
	if i < 0 {
		return attrs
	}

	for i < len(raw) {
		for i < len(raw) && (isSpace(raw[i]) || raw[i] == '/') {
			i++
		}
		if i >= len(raw) || raw[i] == '>' {
			break
		}

		nameStart := i
		for i < len(raw) && !isSpace(raw[i]) && raw[i] != '=' && raw[i] != '>' && raw[i] != '/' {
			i++
		}
		name := raw[nameStart:i]

		for i < len(raw) && isSpace(raw[i]) {
			i++
		}
		value := ""
		if i < len(raw) && raw[i] == '=' {
			i++
			for i < len(raw) && isSpace(raw[i]) {
				i++
			}
			if i < len(raw) && (raw[i] == '"' || raw[i] == '\'') {
				quote := raw[i]
				i++
				valStart := i
				for i < len(raw) && raw[i] != quote {
					i++
				}
				value = raw[valStart:i]
				if i < len(raw) {
					i++
				}
			} else {
				valStart := i
				for i < len(raw) && !isSpace(raw[i]) && raw[i] != '>' {
					i++
				}
				value = raw[valStart:i]
			}
		}

		if _, seen := attrs[name]; !seen && name != "" {
			attrs[name] = html.UnescapeString(value)
		}
	}
	return attrs
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\f' || c == '\r'
}

// position converts a byte offset into a 1-based line and column.
func position(src string, off int) (line, col int) {
	if off > len(src) {
		off = len(src)
	}
	before := src[:off]
	return strings.Count(before, "\n") + 1, off - strings.LastIndexByte(before, '\n')
}
