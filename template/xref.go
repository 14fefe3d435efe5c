package template

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"strconv"
)

// xrefEntry locates one object: directly by byte offset, or inside an object
// stream by (container number, index).
type xrefEntry struct {
	inObjStm bool
	offset   int64 // byte offset when !inObjStm
	objStm   int   // container object number when inObjStm
	idx      int   // index inside the container
	gen      int
}

// findStartXref locates the startxref value near the end of the file.
func findStartXref(data []byte) (int64, error) {
	tailLen := 2048
	if len(data) < tailLen {
		tailLen = len(data)
	}
	tail := data[len(data)-tailLen:]
	i := bytes.LastIndex(tail, []byte("startxref"))
	if i < 0 {
		return 0, fmt.Errorf("startxref not found")
	}
	l := &lexer{data: tail, pos: i + len("startxref")}
	v, isInt, err := l.readNumber()
	if err != nil || !isInt {
		return 0, fmt.Errorf("bad startxref value")
	}
	off := int64(v)
	if off < 0 || off >= int64(len(data)) {
		return 0, fmt.Errorf("startxref offset %d out of range", off)
	}
	return off, nil
}

// loadXref walks the xref chain from offset, populating d.entries and
// d.trailer. Earlier (newer) entries win over /Prev (older) ones.
func (d *Document) loadXref(offset int64) error {
	seen := map[int64]bool{}
	for {
		if seen[offset] {
			return fmt.Errorf("xref chain loops at offset %d", offset)
		}
		seen[offset] = true

		l := &lexer{data: d.data, pos: int(offset)}
		l.skipSpace()
		var trailer Dict
		var err error
		if bytes.HasPrefix(d.data[l.pos:], []byte("xref")) {
			trailer, err = d.parseClassicXref(l)
		} else {
			trailer, err = d.parseXrefStream(l)
			d.xrefStream = true
		}
		if err != nil {
			return err
		}
		if d.trailer == nil {
			d.trailer = trailer
		}
		// Hybrid files keep additional entries in an /XRefStm stream.
		if v, ok := trailer[Name("XRefStm")]; ok {
			if stmOff, ok := intValue(v); ok {
				sl := &lexer{data: d.data, pos: stmOff}
				if _, err := d.parseXrefStream(sl); err != nil {
					return fmt.Errorf("hybrid xref stream: %w", err)
				}
			}
		}
		prev, ok := trailer[Name("Prev")]
		if !ok {
			return nil
		}
		prevOff, ok := intValue(prev)
		if !ok {
			return fmt.Errorf("bad /Prev in trailer")
		}
		offset = int64(prevOff)
	}
}

func (d *Document) parseClassicXref(l *lexer) (Dict, error) {
	if err := l.expect("xref"); err != nil {
		return nil, err
	}
	for {
		l.skipSpace()
		if bytes.HasPrefix(d.data[l.pos:], []byte("trailer")) {
			break
		}
		start, ok1, err := l.readNumber()
		if err != nil {
			return nil, fmt.Errorf("xref subsection: %w", err)
		}
		count, ok2, err := l.readNumber()
		if err != nil {
			return nil, fmt.Errorf("xref subsection: %w", err)
		}
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("xref subsection header must be integers")
		}
		l.skipSpace()
		for i := 0; i < int(count); i++ {
			if l.pos+18 > len(d.data) {
				return nil, fmt.Errorf("truncated xref entry")
			}
			entry := d.data[l.pos : l.pos+18]
			off, err := strconv.ParseInt(string(bytes.TrimSpace(entry[0:10])), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("bad xref offset: %w", err)
			}
			gen, err := strconv.Atoi(string(bytes.TrimSpace(entry[11:16])))
			if err != nil {
				return nil, fmt.Errorf("bad xref generation: %w", err)
			}
			kind := entry[17]
			num := int(start) + i
			if kind == 'n' {
				d.addEntry(num, xrefEntry{offset: off, gen: gen})
			}
			l.pos += 18
			// Entries are 20 bytes with a 2-byte terminator, but writers
			// disagree on the exact bytes; resync on whitespace.
			for l.pos < len(d.data) && isWhitespace(d.data[l.pos]) {
				l.pos++
			}
		}
	}
	if err := l.expect("trailer"); err != nil {
		return nil, err
	}
	l.skipSpace()
	return l.readDict()
}

// parseXrefStream parses "N G obj << ... >> stream" cross-reference streams.
func (d *Document) parseXrefStream(l *lexer) (Dict, error) {
	stream, _, err := d.parseIndirectAt(l)
	if err != nil {
		return nil, err
	}
	s, ok := stream.(*Stream)
	if !ok {
		return nil, fmt.Errorf("xref offset does not point at a stream object")
	}
	if t, _ := s.Dict[Name("Type")]; t != Name("XRef") {
		return nil, fmt.Errorf("expected /Type /XRef, got %v", t)
	}
	decoded, err := decodeStream(s)
	if err != nil {
		return nil, fmt.Errorf("decode xref stream: %w", err)
	}

	wObj, ok := s.Dict[Name("W")].(Array)
	if !ok || len(wObj) < 3 {
		return nil, fmt.Errorf("xref stream missing /W")
	}
	var w [3]int
	for i := 0; i < 3; i++ {
		w[i], _ = intValue(wObj[i])
	}
	size, _ := intValue(s.Dict[Name("Size")])

	var index []int
	if idxObj, ok := s.Dict[Name("Index")].(Array); ok {
		for _, v := range idxObj {
			n, _ := intValue(v)
			index = append(index, n)
		}
	} else {
		index = []int{0, size}
	}

	rowLen := w[0] + w[1] + w[2]
	if rowLen == 0 {
		return nil, fmt.Errorf("xref stream /W is all zeros")
	}
	pos := 0
	readField := func(width int) int64 {
		var v int64
		for i := 0; i < width; i++ {
			v = v<<8 | int64(decoded[pos])
			pos++
		}
		return v
	}
	for i := 0; i+1 < len(index); i += 2 {
		start, count := index[i], index[i+1]
		for n := 0; n < count; n++ {
			if pos+rowLen > len(decoded) {
				return nil, fmt.Errorf("truncated xref stream data")
			}
			typ := int64(1)
			if w[0] > 0 {
				typ = readField(w[0])
			}
			f2 := readField(w[1])
			f3 := readField(w[2])
			num := start + n
			switch typ {
			case 1:
				d.addEntry(num, xrefEntry{offset: f2, gen: int(f3)})
			case 2:
				d.addEntry(num, xrefEntry{inObjStm: true, objStm: int(f2), idx: int(f3)})
			}
		}
	}
	return s.Dict, nil
}

func (d *Document) addEntry(num int, e xrefEntry) {
	if _, exists := d.entries[num]; exists {
		return // newer revision already won
	}
	d.entries[num] = e
	if num > d.maxObj {
		d.maxObj = num
	}
}

// decodeStream applies the stream's filters. Only FlateDecode (with optional
// PNG predictors) appears on the structures the reader must look inside.
func decodeStream(s *Stream) ([]byte, error) {
	filter, ok := s.Dict[Name("Filter")]
	if !ok {
		return s.Raw, nil
	}
	var names []Name
	switch f := filter.(type) {
	case Name:
		names = []Name{f}
	case Array:
		for _, v := range f {
			if n, ok := v.(Name); ok {
				names = append(names, n)
			}
		}
	}
	data := s.Raw
	for _, name := range names {
		if name != Name("FlateDecode") {
			return nil, fmt.Errorf("unsupported filter %q", name)
		}
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("flate: %w", err)
		}
		out, err := io.ReadAll(zr)
		zr.Close()
		if err != nil {
			return nil, fmt.Errorf("flate: %w", err)
		}
		data = out
	}
	if parms, ok := s.Dict[Name("DecodeParms")].(Dict); ok {
		pred, _ := intValue(parms[Name("Predictor")])
		if pred >= 10 {
			columns, _ := intValue(parms[Name("Columns")])
			if columns <= 0 {
				columns = 1
			}
			var err error
			data, err = unpredictPNG(data, columns)
			if err != nil {
				return nil, err
			}
		}
	}
	return data, nil
}

// unpredictPNG reverses PNG row predictors with 8-bit single-component
// samples, the only configuration xref streams use in practice.
func unpredictPNG(data []byte, columns int) ([]byte, error) {
	rowLen := columns + 1
	if len(data)%rowLen != 0 {
		return nil, fmt.Errorf("predictor data length %d not a multiple of row length %d", len(data), rowLen)
	}
	rows := len(data) / rowLen
	out := make([]byte, 0, rows*columns)
	prev := make([]byte, columns)
	cur := make([]byte, columns)
	for r := 0; r < rows; r++ {
		row := data[r*rowLen : (r+1)*rowLen]
		ft := row[0]
		copy(cur, row[1:])
		switch ft {
		case 0: // None
		case 1: // Sub
			for i := 1; i < columns; i++ {
				cur[i] += cur[i-1]
			}
		case 2: // Up
			for i := 0; i < columns; i++ {
				cur[i] += prev[i]
			}
		case 3: // Average
			for i := 0; i < columns; i++ {
				left := 0
				if i > 0 {
					left = int(cur[i-1])
				}
				cur[i] += byte((left + int(prev[i])) / 2)
			}
		case 4: // Paeth
			for i := 0; i < columns; i++ {
				left, upLeft := 0, 0
				if i > 0 {
					left = int(cur[i-1])
					upLeft = int(prev[i-1])
				}
				cur[i] += paeth(byte(left), prev[i], byte(upLeft))
			}
		default:
			return nil, fmt.Errorf("unsupported PNG predictor filter %d", ft)
		}
		out = append(out, cur...)
		prev, cur = cur, prev
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
