// Package htmltext renders HTML fragments as structured plain text with
// markdown-style headings, bullets and inline emphasis markers.
package htmltext

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// Convert renders markup as plain text. It is a pure function: no network, no
// clock, same input always yields the same output. Malformed markup degrades
// to noisy text, it never fails.
func Convert(markup string) string {
	c := &converter{}
	z := html.NewTokenizer(strings.NewReader(markup))

	for {
		switch z.Next() {
		case html.ErrorToken:
			// Tokenizer reports EOF as an error token; either way we are done.
			c.flushLine()
			return strings.Join(c.lines, "\n\n")
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			c.openTag(string(name))
		case html.EndTagToken:
			name, _ := z.TagName()
			c.closeTag(string(name))
		case html.TextToken:
			if c.skip > 0 {
				continue
			}
			// Token text arrives with named and numeric entities already
			// decoded; unknown entities survive literally.
			c.writeText(string(z.Text()))
		}
	}
}

type converter struct {
	lines []string
	line  strings.Builder

	skip      int // script/style nesting, content suppressed
	pre       int // pre/code nesting, whitespace kept literal
	lastSpace bool
}

func (c *converter) openTag(name string) {
	switch name {
	case "script", "style":
		c.skip++
	case "pre", "code":
		c.pre++
	case "h1":
		c.startBlock("# ")
	case "h2":
		c.startBlock("## ")
	case "h3", "h4", "h5", "h6":
		c.startBlock("### ")
	case "li":
		c.startBlock("- ")
	case "blockquote":
		c.startBlock("  ")
	case "p", "div", "br", "tr", "table", "ul", "ol":
		c.startBlock("")
	case "b", "strong":
		c.writeMarker("**")
	case "i", "em":
		c.writeMarker("*")
	}
}

func (c *converter) closeTag(name string) {
	switch name {
	case "script", "style":
		if c.skip > 0 {
			c.skip--
		}
	case "pre", "code":
		if c.pre > 0 {
			c.pre--
		}
	case "h1", "h2", "h3", "h4", "h5", "h6", "p", "div", "li", "blockquote", "tr", "table", "ul", "ol":
		c.flushLine()
	case "b", "strong":
		c.writeMarker("**")
	case "i", "em":
		c.writeMarker("*")
	}
}

// startBlock ends the current line and begins a new one with the given
// prefix. Prefixes are written directly so the leading-whitespace swallowing
// below cannot eat them.
func (c *converter) startBlock(prefix string) {
	c.flushLine()
	if prefix != "" {
		c.line.WriteString(prefix)
		c.lastSpace = true
	}
}

func (c *converter) writeMarker(marker string) {
	if c.skip > 0 {
		return
	}
	c.line.WriteString(marker)
	c.lastSpace = false
}

func (c *converter) writeText(text string) {
	if c.pre > 0 {
		for _, r := range text {
			if r == '\n' {
				c.flushLine()
				continue
			}
			c.line.WriteRune(r)
		}
		c.lastSpace = false
		return
	}

	for _, r := range text {
		if unicode.IsSpace(r) {
			// Runs of whitespace collapse to one space; leading whitespace on
			// a line is dropped entirely.
			if !c.lastSpace && c.line.Len() > 0 {
				c.line.WriteByte(' ')
				c.lastSpace = true
			}
			continue
		}
		c.line.WriteRune(r)
		c.lastSpace = false
	}
}

// flushLine commits the current line if it holds anything visible. Blank
// lines are never committed, so the final join yields exactly one blank line
// between paragraphs.
func (c *converter) flushLine() {
	s := strings.TrimRight(c.line.String(), " \t")
	if strings.TrimSpace(s) != "" {
		c.lines = append(c.lines, s)
	}
	c.line.Reset()
	c.lastSpace = true
}
