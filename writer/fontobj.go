package writer

import (
	"bytes"
	"compress/zlib"
	"fmt"

	"github.com/wudi/fieldfill/fonts"
	"github.com/wudi/fieldfill/template"
)

// fontObjects emits the object graph for one font and returns the reference
// the page /Resources /Font entry points at.
//
// The standard font becomes a plain Type1 dictionary with WinAnsi encoding.
// An embedded TrueType becomes a Type0 composite font with an Identity-H
// encoding, a CIDFontType2 descendant whose CIDs are glyph IDs, the full
// font program, and a ToUnicode map built from the glyphs actually drawn so
// extracted text stays searchable.
func (u *Updater) fontObjects(f *fonts.Font) (template.Ref, error) {
	if f.Standard {
		return u.add(template.Dict{
			"Type":     template.Name("Font"),
			"Subtype":  template.Name("Type1"),
			"BaseFont": template.Name(f.Name),
			"Encoding": template.Name("WinAnsiEncoding"),
		}), nil
	}

	data := f.FontData()
	if data == nil {
		return template.Ref{}, fmt.Errorf("font %s has no embeddable data", f.Name)
	}
	m := f.Metrics()
	base := template.Name(m.PostScriptName)
	if base == "" {
		base = template.Name(f.Name)
	}

	fileRef := u.add(flateStream(data, template.Dict{
		"Length1": template.Integer(len(data)),
	}))

	descRef := u.add(template.Dict{
		"Type":     template.Name("FontDescriptor"),
		"FontName": base,
		"Flags":    template.Integer(4),
		"FontBBox": template.Array{
			template.Real(m.BBox[0]), template.Real(m.BBox[1]),
			template.Real(m.BBox[2]), template.Real(m.BBox[3]),
		},
		"ItalicAngle": template.Real(m.ItalicAngle),
		"Ascent":      template.Real(m.Ascent),
		"Descent":     template.Real(m.Descent),
		"CapHeight":   template.Real(m.CapHeight),
		"StemV":       template.Integer(80),
		"FontFile2":   fileRef,
	})

	used := f.UsedGlyphs()
	w := template.Array{}
	for _, g := range used {
		w = append(w, template.Integer(g.GID),
			template.Array{template.Real(f.GlyphWidth(g.GID))})
	}

	cidRef := u.add(template.Dict{
		"Type":     template.Name("Font"),
		"Subtype":  template.Name("CIDFontType2"),
		"BaseFont": base,
		"CIDSystemInfo": template.Dict{
			"Registry":   template.String{Data: []byte("Adobe")},
			"Ordering":   template.String{Data: []byte("Identity")},
			"Supplement": template.Integer(0),
		},
		"FontDescriptor": descRef,
		"W":              w,
		"CIDToGIDMap":    template.Name("Identity"),
	})

	toUniRef := u.add(flateStream(toUnicodeCMap(used), template.Dict{}))

	return u.add(template.Dict{
		"Type":            template.Name("Font"),
		"Subtype":         template.Name("Type0"),
		"BaseFont":        base,
		"Encoding":        template.Name("Identity-H"),
		"DescendantFonts": template.Array{cidRef},
		"ToUnicode":       toUniRef,
	}), nil
}

func flateStream(data []byte, dict template.Dict) *template.Stream {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	zw.Write(data)
	zw.Close()
	dict["Filter"] = template.Name("FlateDecode")
	dict["Length"] = template.Integer(buf.Len())
	return &template.Stream{Dict: dict, Raw: buf.Bytes()}
}

func toUnicodeCMap(used []fonts.UsedGlyph) []byte {
	var buf bytes.Buffer
	buf.WriteString(`/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CIDSystemInfo << /Registry (Adobe) /Ordering (UCS) /Supplement 0 >> def
/CMapName /Adobe-Identity-UCS def
/CMapType 2 def
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
`)
	// bfchar blocks carry at most 100 entries.
	for i := 0; i < len(used); i += 100 {
		end := i + 100
		if end > len(used) {
			end = len(used)
		}
		fmt.Fprintf(&buf, "%d beginbfchar\n", end-i)
		for _, g := range used[i:end] {
			fmt.Fprintf(&buf, "<%04X> <", g.GID)
			for _, b := range utf16BE(g.Rune) {
				fmt.Fprintf(&buf, "%02X", b)
			}
			buf.WriteString(">\n")
		}
		buf.WriteString("endbfchar\n")
	}
	buf.WriteString(`endcmap
CMapName currentdict /CMap defineresource pop
end
end
`)
	return buf.Bytes()
}
