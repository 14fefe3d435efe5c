package template

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"testing"
)

// pdfBuilder assembles a test PDF, tracking object offsets for the xref.
type pdfBuilder struct {
	buf     bytes.Buffer
	offsets map[int]int
}

func newPDFBuilder() *pdfBuilder {
	b := &pdfBuilder{offsets: map[int]int{}}
	b.buf.WriteString("%PDF-1.4\n")
	return b
}

func (b *pdfBuilder) obj(num int, body string) {
	b.offsets[num] = b.buf.Len()
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", num, body)
}

func (b *pdfBuilder) streamObj(num int, dict string, data []byte) {
	b.offsets[num] = b.buf.Len()
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nstream\n", num, dict)
	b.buf.Write(data)
	b.buf.WriteString("\nendstream\nendobj\n")
}

// classicXref writes an xref table and trailer covering objects 1..max.
func (b *pdfBuilder) classicXref(max int, trailerExtra string) []byte {
	start := b.buf.Len()
	fmt.Fprintf(&b.buf, "xref\n0 %d\n", max+1)
	b.buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= max; i++ {
		fmt.Fprintf(&b.buf, "%010d 00000 n \n", b.offsets[i])
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d /Root 1 0 R %s>>\nstartxref\n%d\n%%%%EOF\n",
		max+1, trailerExtra, start)
	return b.buf.Bytes()
}

func buildTwoPagePDF(t *testing.T, trailerExtra string) []byte {
	t.Helper()
	b := newPDFBuilder()
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [3 0 R 4 0 R] /Count 2 /MediaBox [0 0 612 792] /Resources << /Font << >> >> >>")
	b.obj(3, "<< /Type /Page /Parent 2 0 R /Contents 5 0 R >>")
	b.obj(4, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] >>")
	b.streamObj(5, "<< /Length 8 >>", []byte("BT ET q Q"[:8]))
	return b.classicXref(5, trailerExtra)
}

func TestLoadClassicXref(t *testing.T) {
	data := buildTwoPagePDF(t, "")
	doc, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.PageCount() != 2 {
		t.Fatalf("PageCount = %d, want 2", doc.PageCount())
	}
	if doc.UsesXRefStreams() {
		t.Fatal("classic table reported as xref stream")
	}
	if doc.MaxObjectNumber() != 5 {
		t.Fatalf("MaxObjectNumber = %d, want 5", doc.MaxObjectNumber())
	}
	p1, err := doc.Page(1)
	if err != nil {
		t.Fatalf("Page(1): %v", err)
	}
	if p1.Width() != 612 || p1.Height() != 792 {
		t.Fatalf("page 1 box = %v", p1.MediaBox)
	}
	if p1.Resources == nil {
		t.Fatal("inherited /Resources not resolved")
	}
	if p1.Ref.Num != 3 {
		t.Fatalf("page 1 ref = %v", p1.Ref)
	}
	// Page 2 overrides the inherited box.
	p2, err := doc.Page(2)
	if err != nil {
		t.Fatalf("Page(2): %v", err)
	}
	if p2.Width() != 595 || p2.Height() != 842 {
		t.Fatalf("page 2 box = %v", p2.MediaBox)
	}
}

func TestPageOutOfRange(t *testing.T) {
	doc, err := Load(buildTwoPagePDF(t, ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, n := range []int{0, 3, -1} {
		if _, err := doc.Page(n); err == nil {
			t.Fatalf("Page(%d) accepted", n)
		}
	}
}

func TestLoadRejectsEncrypted(t *testing.T) {
	data := buildTwoPagePDF(t, "/Encrypt << /Filter /Standard >> ")
	if _, err := Load(data); !errors.Is(err, ErrEncrypted) {
		t.Fatalf("expected ErrEncrypted, got %v", err)
	}
}

func TestLoadRejectsNonPDF(t *testing.T) {
	if _, err := Load([]byte("hello world")); err == nil {
		t.Fatal("non-PDF accepted")
	}
	if _, err := Load([]byte("%PDF-1.4\nno xref here")); err == nil {
		t.Fatal("PDF without startxref accepted")
	}
}

func TestResolveStreamLength(t *testing.T) {
	b := newPDFBuilder()
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 100 200] >>")
	b.obj(3, "<< /Type /Page /Parent 2 0 R /Contents 4 0 R >>")
	// Indirect /Length.
	b.streamObj(4, "<< /Length 5 0 R >>", []byte("q Q"))
	b.obj(5, "3")
	data := b.classicXref(5, "")

	doc, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	obj, err := doc.Resolve(Ref{Num: 4})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	s, ok := obj.(*Stream)
	if !ok {
		t.Fatalf("object 4 is %T", obj)
	}
	if string(s.Raw) != "q Q" {
		t.Fatalf("stream body = %q", s.Raw)
	}
}

func TestLoadXrefStreamWithObjectStream(t *testing.T) {
	// Catalog, pages node and page live in an object stream (obj 4);
	// the xref stream is obj 5 and indexes them as type-2 entries.
	var contents bytes.Buffer
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 612 792] >>",
		"<< /Type /Page /Parent 2 0 R >>",
	}
	var header bytes.Buffer
	var body bytes.Buffer
	for i, o := range objs {
		fmt.Fprintf(&header, "%d %d ", i+1, body.Len())
		body.WriteString(o)
		body.WriteString(" ")
	}
	first := header.Len()
	contents.Write(header.Bytes())
	contents.Write(body.Bytes())
	var zc bytes.Buffer
	zw := zlib.NewWriter(&zc)
	zw.Write(contents.Bytes())
	zw.Close()

	b := newPDFBuilder()
	b.streamObj(4, fmt.Sprintf("<< /Type /ObjStm /N 3 /First %d /Length %d /Filter /FlateDecode >>",
		first, zc.Len()), zc.Bytes())

	// Xref stream: W [1 2 1], entries for objects 0..5.
	xrefStart := b.buf.Len()
	rows := [][4]int{
		{0, 0, 0, 0xff},          // 0: free
		{1, 2, 4, 0},             // 1..3: in object stream 4
		{2, 2, 4, 1},
		{3, 2, 4, 2},
		{4, 1, b.offsets[4], 0},  // 4: the object stream itself
		{5, 1, xrefStart, 0},     // 5: this xref stream
	}
	var xdata bytes.Buffer
	for _, r := range rows {
		xdata.WriteByte(byte(r[1]))
		xdata.WriteByte(byte(r[2] >> 8))
		xdata.WriteByte(byte(r[2]))
		xdata.WriteByte(byte(r[3]))
	}
	var zx bytes.Buffer
	zw = zlib.NewWriter(&zx)
	zw.Write(xdata.Bytes())
	zw.Close()

	b.offsets[5] = xrefStart
	fmt.Fprintf(&b.buf, "5 0 obj\n<< /Type /XRef /Size 6 /W [1 2 1] /Root 1 0 R /Length %d /Filter /FlateDecode >>\nstream\n", zx.Len())
	b.buf.Write(zx.Bytes())
	b.buf.WriteString("\nendstream\nendobj\n")
	fmt.Fprintf(&b.buf, "startxref\n%d\n%%%%EOF\n", xrefStart)

	doc, err := Load(b.buf.Bytes())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !doc.UsesXRefStreams() {
		t.Fatal("xref stream not detected")
	}
	if doc.PageCount() != 1 {
		t.Fatalf("PageCount = %d, want 1", doc.PageCount())
	}
	p, err := doc.Page(1)
	if err != nil {
		t.Fatalf("Page(1): %v", err)
	}
	if p.Width() != 612 || p.Height() != 792 {
		t.Fatalf("page box = %v", p.MediaBox)
	}
}

func TestUnpredictPNGUp(t *testing.T) {
	// Two rows of 3 columns, filter 2 (Up): second row adds to the first.
	data := []byte{
		0, 1, 2, 3,
		2, 1, 1, 1,
	}
	out, err := unpredictPNG(data, 3)
	if err != nil {
		t.Fatalf("unpredict: %v", err)
	}
	want := []byte{1, 2, 3, 2, 3, 4}
	if !bytes.Equal(out, want) {
		t.Fatalf("out = %v, want %v", out, want)
	}
}

func TestLexerStringsAndNames(t *testing.T) {
	l := &lexer{data: []byte(`(a\(b\)c\n\101) /Na#6de <414 2> [1 2.5 (x)] << /K 7 0 R >>`)}
	s, err := l.readObject()
	if err != nil {
		t.Fatalf("string: %v", err)
	}
	if got := string(s.(String).Data); got != "a(b)c\nA" {
		t.Fatalf("string = %q", got)
	}
	n, err := l.readObject()
	if err != nil {
		t.Fatalf("name: %v", err)
	}
	if n.(Name) != Name("Namde") {
		t.Fatalf("name = %q", n)
	}
	h, err := l.readObject()
	if err != nil {
		t.Fatalf("hex: %v", err)
	}
	if got := h.(String).Data; !bytes.Equal(got, []byte{0x41, 0x42}) {
		t.Fatalf("hex = %v", got)
	}
	a, err := l.readObject()
	if err != nil {
		t.Fatalf("array: %v", err)
	}
	arr := a.(Array)
	if len(arr) != 3 || arr[0] != Integer(1) || arr[1] != Real(2.5) {
		t.Fatalf("array = %v", arr)
	}
	dv, err := l.readObject()
	if err != nil {
		t.Fatalf("dict: %v", err)
	}
	if ref, ok := dv.(Dict)[Name("K")].(Ref); !ok || ref.Num != 7 {
		t.Fatalf("dict = %v", dv)
	}
}

func TestLexerNumberVsReference(t *testing.T) {
	// "1 2" followed by a non-R keyword must stay two integers.
	l := &lexer{data: []byte("1 2 obj")}
	o, err := l.readObject()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if o != Integer(1) {
		t.Fatalf("first = %v", o)
	}
	o, err = l.readObject()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if o != Integer(2) {
		t.Fatalf("second = %v", o)
	}
}
