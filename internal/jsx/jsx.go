// Package jsx locates named JSX elements in generated source without a full
// parse. A '>' inside a {...} expression or a quoted string never ends a tag,
// so attributes such as onClick={() => a > b} are handled.
package jsx

import "strings"

// Tag is the opening or self-closing tag of an element.
type Tag struct {
	// Start is the offset of '<'; End is the offset just past '>'.
	Start, End int
	// Attrs is the trimmed attribute text, without a self-closing slash.
	Attrs       string
	SelfClosing bool
}

// Element spans a whole element, from its opening tag through the matching
// closing tag. For self-closing or unclosed elements it spans only the tag.
type Element struct {
	Open       Tag
	Start, End int
	// CloseStart is the offset of the closing tag, or -1 when there is none.
	CloseStart int
}

// Children returns the source between the opening and closing tags.
func (e Element) Children(code string) string {
	if e.CloseStart < 0 {
		return ""
	}
	return code[e.Open.End:e.CloseStart]
}

// Tags returns every opening tag of a name element in code, in order.
func Tags(code, name string) []Tag {
	var tags []Tag
	for from := 0; ; {
		t, ok := nextTag(code, from, name)
		if !ok {
			return tags
		}
		tags = append(tags, t)
		from = t.End
	}
}

// Elements returns every outermost name element in code, in order. Nested
// elements of the same name are part of their parent.
func Elements(code, name string) []Element {
	var out []Element
	for from := 0; ; {
		open, ok := nextTag(code, from, name)
		if !ok {
			return out
		}
		el := Element{Open: open, Start: open.Start, End: open.End, CloseStart: -1}
		if !open.SelfClosing {
			if closeStart, end, ok := closing(code, open.End, name); ok {
				el.CloseStart, el.End = closeStart, end
			}
		}
		out = append(out, el)
		from = el.End
	}
}

func nextTag(code string, from int, name string) (Tag, bool) {
	open := "<" + name
	for from < len(code) {
		idx := strings.Index(code[from:], open)
		if idx < 0 {
			return Tag{}, false
		}
		start := from + idx
		if t, ok := tagAt(code, start, name); ok {
			return t, true
		}
		from = start + len(open)
	}
	return Tag{}, false
}

// tagAt parses the name tag starting at code[start] == '<'.
func tagAt(code string, start int, name string) (Tag, bool) {
	if !strings.HasPrefix(code[start:], "<"+name) {
		return Tag{}, false
	}
	i := start + 1 + len(name)
	if i >= len(code) || !boundary(code[i]) {
		return Tag{}, false
	}
	end, ok := tagEnd(code, i)
	if !ok {
		return Tag{}, false
	}
	attrs := strings.TrimSpace(code[i : end-1])
	self := strings.HasSuffix(attrs, "/")
	if self {
		attrs = strings.TrimSpace(strings.TrimSuffix(attrs, "/"))
	}
	return Tag{Start: start, End: end, Attrs: attrs, SelfClosing: self}, true
}

// tagEnd returns the offset just past the '>' closing a tag whose attributes
// begin at i.
func tagEnd(code string, i int) (int, bool) {
	depth := 0
	var quote byte
	for ; i < len(code); i++ {
		c := code[i]
		switch {
		case quote != 0:
			if c == '\\' && depth > 0 {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'' || (c == '`' && depth > 0):
			quote = c
		case c == '{':
			depth++
		case c == '}':
			if depth > 0 {
				depth--
			}
		case c == '>' && depth == 0:
			return i + 1, true
		}
	}
	return 0, false
}

// closing finds the closing tag matching a name element whose children begin
// at from. It returns the closing tag's start and the offset past its '>'.
func closing(code string, from int, name string) (int, int, bool) {
	depth := 1
	for i := from; i < len(code); i++ {
		if code[i] != '<' {
			continue
		}
		if rest := code[i:]; strings.HasPrefix(rest, "</"+name) {
			j := i + 2 + len(name)
			for j < len(code) && isSpace(code[j]) {
				j++
			}
			if j < len(code) && code[j] == '>' {
				depth--
				if depth == 0 {
					return i, j + 1, true
				}
				i = j
			}
			continue
		}
		if t, ok := tagAt(code, i, name); ok {
			if !t.SelfClosing {
				depth++
			}
			i = t.End - 1
		}
	}
	return 0, 0, false
}

func boundary(c byte) bool {
	return c == '>' || c == '/' || isSpace(c)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
