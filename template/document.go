package template

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrEncrypted reports a document the filler cannot annotate.
var ErrEncrypted = errors.New("template: document is encrypted")

// Page is one leaf of the page tree with its inheritable attributes
// already resolved.
type Page struct {
	Ref       Ref
	Dict      Dict
	MediaBox  [4]float64
	Resources Dict
}

// Width returns the page width in points.
func (p *Page) Width() float64 { return p.MediaBox[2] - p.MediaBox[0] }

// Height returns the page height in points.
func (p *Page) Height() float64 { return p.MediaBox[3] - p.MediaBox[1] }

// Document is a parsed template PDF. It keeps the original bytes so an
// incremental update can append to them unchanged.
type Document struct {
	data       []byte
	entries    map[int]xrefEntry
	trailer    Dict
	maxObj     int
	startXref  int64
	xrefStream bool
	pages      []*Page
	objStms    map[int][]Object // decoded object stream cache
}

// Load parses data as a PDF. Encrypted documents fail with ErrEncrypted.
func Load(data []byte) (*Document, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, fmt.Errorf("template: missing %%PDF header")
	}
	d := &Document{
		data:    data,
		entries: map[int]xrefEntry{},
		objStms: map[int][]Object{},
	}
	off, err := findStartXref(data)
	if err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	d.startXref = off
	if err := d.loadXref(off); err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	if _, ok := d.trailer[Name("Encrypt")]; ok {
		return nil, ErrEncrypted
	}
	if err := d.loadPages(); err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	return d, nil
}

// Data returns the original file bytes.
func (d *Document) Data() []byte { return d.data }

// Trailer returns the newest trailer dictionary.
func (d *Document) Trailer() Dict { return d.trailer }

// MaxObjectNumber is the highest object number in use; an incremental
// update numbers its new objects above it.
func (d *Document) MaxObjectNumber() int { return d.maxObj }

// LastStartXref is the byte offset of the newest cross-reference section,
// used as /Prev by an appended update.
func (d *Document) LastStartXref() int64 { return d.startXref }

// UsesXRefStreams reports whether the newest revision stores its
// cross-reference data in a stream. Appended updates mirror the form.
func (d *Document) UsesXRefStreams() bool { return d.xrefStream }

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return len(d.pages) }

// Page returns the 1-based page n.
func (d *Document) Page(n int) (*Page, error) {
	if n < 1 || n > len(d.pages) {
		return nil, fmt.Errorf("template: page %d out of range 1..%d", n, len(d.pages))
	}
	return d.pages[n-1], nil
}

// Resolve follows indirect references until a direct object remains.
func (d *Document) Resolve(obj Object) (Object, error) {
	for i := 0; i < 32; i++ {
		ref, ok := obj.(Ref)
		if !ok {
			return obj, nil
		}
		var err error
		obj, err = d.object(ref.Num)
		if err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("reference chain too deep")
}

func (d *Document) resolveDict(obj Object) (Dict, error) {
	r, err := d.Resolve(obj)
	if err != nil {
		return nil, err
	}
	return asDict(r)
}

// object loads the object with the given number.
func (d *Document) object(num int) (Object, error) {
	e, ok := d.entries[num]
	if !ok {
		return Null{}, nil
	}
	if e.inObjStm {
		return d.objectFromStream(e.objStm, e.idx)
	}
	l := &lexer{data: d.data, pos: int(e.offset)}
	obj, gotNum, err := d.parseIndirectAt(l)
	if err != nil {
		return nil, fmt.Errorf("object %d: %w", num, err)
	}
	if gotNum != num {
		return nil, fmt.Errorf("xref points %d at object %d", num, gotNum)
	}
	return obj, nil
}

// parseIndirectAt parses "N G obj ... endobj" at the lexer position,
// returning the body and the object number. Stream extents come from the
// stream dict's /Length, resolved if indirect.
func (d *Document) parseIndirectAt(l *lexer) (Object, int, error) {
	num, numInt, err := l.readNumber()
	if err != nil || !numInt {
		return nil, 0, fmt.Errorf("expected object number: %v", err)
	}
	if _, genInt, err := l.readNumber(); err != nil || !genInt {
		return nil, 0, fmt.Errorf("expected generation number: %v", err)
	}
	if err := l.expect("obj"); err != nil {
		return nil, 0, err
	}
	body, err := l.readObject()
	if err != nil {
		return nil, 0, err
	}
	l.skipSpace()
	if bytes.HasPrefix(l.data[l.pos:], []byte("stream")) {
		dict, ok := body.(Dict)
		if !ok {
			return nil, 0, fmt.Errorf("stream keyword after non-dictionary")
		}
		l.pos += len("stream")
		// EOL after the keyword is CRLF or LF.
		if l.pos < len(l.data) && l.data[l.pos] == '\r' {
			l.pos++
		}
		if l.pos < len(l.data) && l.data[l.pos] == '\n' {
			l.pos++
		}
		lengthObj, err := d.Resolve(dict[Name("Length")])
		if err != nil {
			return nil, 0, fmt.Errorf("stream /Length: %w", err)
		}
		length, ok := intValue(lengthObj)
		if !ok || length < 0 || l.pos+length > len(l.data) {
			return nil, 0, fmt.Errorf("bad stream /Length %v", lengthObj)
		}
		raw := l.data[l.pos : l.pos+length]
		return &Stream{Dict: dict, Raw: raw}, int(num), nil
	}
	return body, int(num), nil
}

// objectFromStream extracts entry idx from object stream stmNum, decoding
// and caching the container on first use.
func (d *Document) objectFromStream(stmNum, idx int) (Object, error) {
	objs, ok := d.objStms[stmNum]
	if !ok {
		container, err := d.object(stmNum)
		if err != nil {
			return nil, err
		}
		s, ok := container.(*Stream)
		if !ok {
			return nil, fmt.Errorf("object stream %d is not a stream", stmNum)
		}
		decoded, err := decodeStream(s)
		if err != nil {
			return nil, fmt.Errorf("object stream %d: %w", stmNum, err)
		}
		n, _ := intValue(s.Dict[Name("N")])
		first, _ := intValue(s.Dict[Name("First")])
		if first > len(decoded) {
			return nil, fmt.Errorf("object stream %d: /First beyond data", stmNum)
		}
		// Header is N pairs of "objnum offset".
		hl := &lexer{data: decoded[:first]}
		offsets := make([]int, 0, n)
		for i := 0; i < n; i++ {
			if _, _, err := hl.readNumber(); err != nil {
				return nil, fmt.Errorf("object stream %d header: %w", stmNum, err)
			}
			off, _, err := hl.readNumber()
			if err != nil {
				return nil, fmt.Errorf("object stream %d header: %w", stmNum, err)
			}
			offsets = append(offsets, int(off))
		}
		objs = make([]Object, n)
		for i, off := range offsets {
			ol := &lexer{data: decoded, pos: first + off}
			obj, err := ol.readObject()
			if err != nil {
				return nil, fmt.Errorf("object stream %d entry %d: %w", stmNum, i, err)
			}
			objs[i] = obj
		}
		d.objStms[stmNum] = objs
	}
	if idx < 0 || idx >= len(objs) {
		return nil, fmt.Errorf("object stream %d has no entry %d", stmNum, idx)
	}
	return objs[idx], nil
}

// loadPages walks the page tree collecting leaves in document order,
// resolving inherited /MediaBox and /Resources along the way.
func (d *Document) loadPages() error {
	root, err := d.resolveDict(d.trailer[Name("Root")])
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	pagesRef, ok := root[Name("Pages")]
	if !ok {
		return fmt.Errorf("catalog has no /Pages")
	}
	defaultBox := [4]float64{0, 0, 612, 792}
	return d.walkPages(pagesRef, defaultBox, nil, 0)
}

func (d *Document) walkPages(node Object, box [4]float64, res Dict, depth int) error {
	if depth > 64 {
		return fmt.Errorf("page tree too deep")
	}
	ref, _ := node.(Ref)
	dict, err := d.resolveDict(node)
	if err != nil {
		return fmt.Errorf("page tree node: %w", err)
	}
	if mb, ok := dict[Name("MediaBox")]; ok {
		b, err := d.mediaBox(mb)
		if err != nil {
			return err
		}
		box = b
	}
	if r, ok := dict[Name("Resources")]; ok {
		rd, err := d.resolveDict(r)
		if err != nil {
			return fmt.Errorf("resources: %w", err)
		}
		res = rd
	}
	switch dict[Name("Type")] {
	case Name("Pages"):
		kids, err := d.Resolve(dict[Name("Kids")])
		if err != nil {
			return err
		}
		arr, ok := kids.(Array)
		if !ok {
			return fmt.Errorf("/Kids is not an array")
		}
		for _, kid := range arr {
			if err := d.walkPages(kid, box, res, depth+1); err != nil {
				return err
			}
		}
		return nil
	case Name("Page"):
		d.pages = append(d.pages, &Page{
			Ref:       ref,
			Dict:      dict,
			MediaBox:  box,
			Resources: res,
		})
		return nil
	default:
		return fmt.Errorf("page tree node has type %v", dict[Name("Type")])
	}
}

func (d *Document) mediaBox(obj Object) ([4]float64, error) {
	var box [4]float64
	r, err := d.Resolve(obj)
	if err != nil {
		return box, err
	}
	arr, ok := r.(Array)
	if !ok || len(arr) != 4 {
		return box, fmt.Errorf("bad /MediaBox %v", r)
	}
	for i, v := range arr {
		rv, err := d.Resolve(v)
		if err != nil {
			return box, err
		}
		n, ok := numberValue(rv)
		if !ok {
			return box, fmt.Errorf("bad /MediaBox entry %v", rv)
		}
		box[i] = n
	}
	// Normalize so llx<urx, lly<ury.
	if box[0] > box[2] {
		box[0], box[2] = box[2], box[0]
	}
	if box[1] > box[3] {
		box[1], box[3] = box[3], box[1]
	}
	return box, nil
}
