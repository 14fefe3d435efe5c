// Package writer saves a filled template as an incremental update: the
// original file bytes stay untouched and the overlay streams, font objects
// and amended page dictionaries are appended after them, followed by a
// cross-reference section in the same form the original used.
package writer

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/wudi/fieldfill/fonts"
	"github.com/wudi/fieldfill/overlay"
	"github.com/wudi/fieldfill/template"
)

type indirect struct {
	num int
	obj template.Object
}

// Updater accumulates the objects of one incremental update.
type Updater struct {
	doc      *template.Document
	next     int
	objects  []indirect
	fontRefs map[*fonts.Font]template.Ref
}

// NewUpdater prepares an update against doc. New objects are numbered above
// everything the document already uses.
func NewUpdater(doc *template.Document) *Updater {
	return &Updater{
		doc:      doc,
		next:     doc.MaxObjectNumber() + 1,
		fontRefs: map[*fonts.Font]template.Ref{},
	}
}

// add appends obj under a fresh object number.
func (u *Updater) add(obj template.Object) template.Ref {
	ref := template.Ref{Num: u.next}
	u.objects = append(u.objects, indirect{num: u.next, obj: obj})
	u.next++
	return ref
}

// replace appends obj under an existing object number, superseding the
// original revision.
func (u *Updater) replace(num int, obj template.Object) {
	u.objects = append(u.objects, indirect{num: num, obj: obj})
}

// AddPageOverlay appends the overlay content to the page: the content
// stream becomes a new object added to the page's /Contents, and every font
// the overlay drew with is embedded and registered in the page /Resources.
func (u *Updater) AddPageOverlay(page *template.Page, c *overlay.Content) error {
	if c.Empty() {
		return nil
	}
	contentRef := u.add(flateStream(c.Bytes(), template.Dict{}))

	pageDict := page.Dict.Clone()

	contents, err := u.appendContents(pageDict[template.Name("Contents")], contentRef)
	if err != nil {
		return fmt.Errorf("writer: page %d contents: %w", page.Ref.Num, err)
	}
	pageDict[template.Name("Contents")] = contents

	res, err := u.amendResources(page.Resources, c.Fonts())
	if err != nil {
		return fmt.Errorf("writer: page %d resources: %w", page.Ref.Num, err)
	}
	pageDict[template.Name("Resources")] = res

	u.replace(page.Ref.Num, pageDict)
	return nil
}

func (u *Updater) appendContents(existing template.Object, newRef template.Ref) (template.Array, error) {
	if existing == nil {
		return template.Array{newRef}, nil
	}
	resolved, err := u.doc.Resolve(existing)
	if err != nil {
		return nil, err
	}
	if arr, ok := resolved.(template.Array); ok {
		out := make(template.Array, 0, len(arr)+1)
		out = append(out, arr...)
		return append(out, newRef), nil
	}
	// Single stream: keep the original reference, do not inline it.
	if ref, ok := existing.(template.Ref); ok {
		return template.Array{ref, newRef}, nil
	}
	return nil, fmt.Errorf("unexpected /Contents %T", existing)
}

// amendResources clones the page resources one level deep and merges the
// overlay fonts into /Font. Existing resource entries keep their indirect
// references.
func (u *Updater) amendResources(existing template.Dict, used map[string]*fonts.Font) (template.Dict, error) {
	res := template.Dict{}
	if existing != nil {
		res = existing.Clone()
	}
	fontDict := template.Dict{}
	if fv, ok := res[template.Name("Font")]; ok {
		resolved, err := u.doc.Resolve(fv)
		if err != nil {
			return nil, err
		}
		if fd, ok := resolved.(template.Dict); ok {
			fontDict = fd.Clone()
		}
	}
	names := make([]string, 0, len(used))
	for name := range used {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f := used[name]
		ref, ok := u.fontRefs[f]
		if !ok {
			var err error
			ref, err = u.fontObjects(f)
			if err != nil {
				return nil, err
			}
			u.fontRefs[f] = ref
		}
		fontDict[template.Name(name)] = ref
	}
	res[template.Name("Font")] = fontDict
	return res, nil
}

// Bytes renders the update appended to the original file.
func (u *Updater) Bytes() ([]byte, error) {
	if len(u.objects) == 0 {
		return u.doc.Data(), nil
	}
	var buf bytes.Buffer
	buf.Write(u.doc.Data())
	if buf.Len() > 0 && buf.Bytes()[buf.Len()-1] != '\n' {
		buf.WriteByte('\n')
	}

	objs := make([]indirect, len(u.objects))
	copy(objs, u.objects)
	sort.Slice(objs, func(i, j int) bool { return objs[i].num < objs[j].num })

	offsets := map[int]int64{}
	for _, o := range objs {
		offsets[o.num] = int64(buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n", o.num)
		if err := writeObject(&buf, o.obj); err != nil {
			return nil, fmt.Errorf("writer: object %d: %w", o.num, err)
		}
		buf.WriteString("\nendobj\n")
	}

	var xrefOff int64
	var err error
	if u.doc.UsesXRefStreams() {
		xrefOff, err = u.writeXRefStream(&buf, objs, offsets)
	} else {
		xrefOff, err = u.writeClassicXref(&buf, objs, offsets)
	}
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xrefOff)
	return buf.Bytes(), nil
}

// trailerFields copies the document identity the update must preserve.
func (u *Updater) trailerFields(dst template.Dict, size int) {
	src := u.doc.Trailer()
	for _, key := range []template.Name{"Root", "Info", "ID"} {
		if v, ok := src[key]; ok {
			dst[key] = v
		}
	}
	dst[template.Name("Size")] = template.Integer(size)
	dst[template.Name("Prev")] = template.Integer(u.doc.LastStartXref())
}

func (u *Updater) writeClassicXref(buf *bytes.Buffer, objs []indirect, offsets map[int]int64) (int64, error) {
	xrefOff := int64(buf.Len())
	buf.WriteString("xref\n")
	for i := 0; i < len(objs); {
		j := i
		for j+1 < len(objs) && objs[j+1].num == objs[j].num+1 {
			j++
		}
		fmt.Fprintf(buf, "%d %d\n", objs[i].num, j-i+1)
		for k := i; k <= j; k++ {
			fmt.Fprintf(buf, "%010d 00000 n \n", offsets[objs[k].num])
		}
		i = j + 1
	}
	trailer := template.Dict{}
	u.trailerFields(trailer, u.next)
	buf.WriteString("trailer\n")
	if err := writeObject(buf, trailer); err != nil {
		return 0, err
	}
	buf.WriteByte('\n')
	return xrefOff, nil
}

func (u *Updater) writeXRefStream(buf *bytes.Buffer, objs []indirect, offsets map[int]int64) (int64, error) {
	xrefNum := u.next
	u.next++
	xrefOff := int64(buf.Len())

	// The stream indexes itself, so its offset is fixed before encoding.
	all := make([]indirect, len(objs), len(objs)+1)
	copy(all, objs)
	all = append(all, indirect{num: xrefNum})
	offsets[xrefNum] = xrefOff

	var index template.Array
	var data bytes.Buffer
	for i := 0; i < len(all); {
		j := i
		for j+1 < len(all) && all[j+1].num == all[j].num+1 {
			j++
		}
		index = append(index, template.Integer(all[i].num), template.Integer(j-i+1))
		for k := i; k <= j; k++ {
			off := offsets[all[k].num]
			data.WriteByte(1)
			data.WriteByte(byte(off >> 32))
			data.WriteByte(byte(off >> 24))
			data.WriteByte(byte(off >> 16))
			data.WriteByte(byte(off >> 8))
			data.WriteByte(byte(off))
			data.WriteByte(0)
			data.WriteByte(0)
		}
		i = j + 1
	}

	dict := template.Dict{
		"Type":  template.Name("XRef"),
		"W":     template.Array{template.Integer(1), template.Integer(5), template.Integer(2)},
		"Index": index,
	}
	u.trailerFields(dict, u.next)
	stream := flateStream(data.Bytes(), dict)

	fmt.Fprintf(buf, "%d 0 obj\n", xrefNum)
	if err := writeObject(buf, stream); err != nil {
		return 0, err
	}
	buf.WriteString("\nendobj\n")
	return xrefOff, nil
}
