// Package overlay builds the content stream appended to a template page.
// It emits only the operators text placement needs: graphics state save and
// restore, text objects, fill color, the text matrix and text showing.
package overlay

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/wudi/fieldfill/fonts"
)

// Content accumulates drawing operations for one page.
type Content struct {
	buf   bytes.Buffer
	fonts map[string]*fonts.Font
}

// NewContent returns an empty page overlay.
func NewContent() *Content {
	return &Content{fonts: map[string]*fonts.Font{}}
}

// DrawText places text with its baseline origin at (x, y) in PDF user
// space. The font must be registered in the page resources under resName by
// whoever writes the page out. Encoding failure leaves the stream untouched
// so the caller can retry with another font.
func (c *Content) DrawText(font *fonts.Font, resName string, text string, x, y, size float64, r, g, b float64) error {
	encoded, err := font.Encode(text)
	if err != nil {
		return fmt.Errorf("overlay: encode %q for %s: %w", text, font.Name, err)
	}
	c.fonts[resName] = font

	c.buf.WriteString("q\nBT\n")
	fmt.Fprintf(&c.buf, "/%s %s Tf\n", resName, num(size))
	fmt.Fprintf(&c.buf, "%s %s %s rg\n", num(r), num(g), num(b))
	fmt.Fprintf(&c.buf, "1 0 0 1 %s %s Tm\n", num(x), num(y))
	if font.Standard {
		writeLiteralString(&c.buf, encoded)
	} else {
		writeHexString(&c.buf, encoded)
	}
	c.buf.WriteString(" Tj\nET\nQ\n")
	return nil
}

// DrawBox strokes a rectangle, used for visual placement debugging.
func (c *Content) DrawBox(x, y, w, h float64, r, g, b float64) {
	c.buf.WriteString("q\n")
	fmt.Fprintf(&c.buf, "%s %s %s RG\n0.5 w\n", num(r), num(g), num(b))
	fmt.Fprintf(&c.buf, "%s %s %s %s re\nS\nQ\n", num(x), num(y), num(w), num(h))
}

// Empty reports whether nothing has been drawn.
func (c *Content) Empty() bool { return c.buf.Len() == 0 }

// Bytes returns the accumulated content stream.
func (c *Content) Bytes() []byte { return c.buf.Bytes() }

// Fonts returns every font drawn with, keyed by resource name. The writer
// uses this to amend the page /Resources and embed font programs.
func (c *Content) Fonts() map[string]*fonts.Font {
	out := make(map[string]*fonts.Font, len(c.fonts))
	for k, v := range c.fonts {
		out[k] = v
	}
	return out
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeLiteralString(buf *bytes.Buffer, data []byte) {
	buf.WriteByte('(')
	for _, b := range data {
		switch b {
		case '(', ')', '\\':
			buf.WriteByte('\\')
			buf.WriteByte(b)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		default:
			buf.WriteByte(b)
		}
	}
	buf.WriteByte(')')
}

func writeHexString(buf *bytes.Buffer, data []byte) {
	buf.WriteByte('<')
	const hex = "0123456789ABCDEF"
	for _, b := range data {
		buf.WriteByte(hex[b>>4])
		buf.WriteByte(hex[b&0x0f])
	}
	buf.WriteByte('>')
}
