package overlay

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/wudi/fieldfill/fonts"
)

func TestDrawTextStandard(t *testing.T) {
	c := NewContent()
	f := fonts.NewStandard()
	if err := c.DrawText(f, "F1", "Maria (QA)", 160, 668.5, 14, 0, 0, 0); err != nil {
		t.Fatalf("DrawText: %v", err)
	}
	out := string(c.Bytes())
	for _, want := range []string{
		"BT\n", "/F1 14 Tf\n", "0 0 0 rg\n",
		"1 0 0 1 160 668.5 Tm\n", `(Maria \(QA\)) Tj`, "ET\nQ\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("content missing %q:\n%s", want, out)
		}
	}
	if got := c.Fonts()["F1"]; got != f {
		t.Fatal("font not tracked under its resource name")
	}
}

func TestDrawTextEncodeFailureLeavesStreamUntouched(t *testing.T) {
	c := NewContent()
	f := fonts.NewStandard()
	err := c.DrawText(f, "F1", "日本語", 10, 10, 12, 0, 0, 0)
	if !errors.Is(err, fonts.ErrMissingGlyph) {
		t.Fatalf("expected ErrMissingGlyph, got %v", err)
	}
	if !c.Empty() {
		t.Fatalf("stream modified on failure: %q", c.Bytes())
	}
	if len(c.Fonts()) != 0 {
		t.Fatal("failed draw registered a font")
	}
}

func TestDrawBox(t *testing.T) {
	c := NewContent()
	c.DrawBox(100, 652, 200, 40, 1, 0, 0)
	out := string(c.Bytes())
	if !strings.Contains(out, "100 652 200 40 re\nS\n") {
		t.Fatalf("missing rectangle ops:\n%s", out)
	}
	if !strings.Contains(out, "1 0 0 RG\n") {
		t.Fatalf("missing stroke color:\n%s", out)
	}
}

func TestStringEscaping(t *testing.T) {
	var buf bytes.Buffer
	writeLiteralString(&buf, []byte("a(b)\\c\nd"))
	if got := buf.String(); got != `(a\(b\)\\c\nd)` {
		t.Fatalf("escaped = %q", got)
	}
	buf.Reset()
	writeHexString(&buf, []byte{0x00, 0x48, 0xff})
	if got := buf.String(); got != "<0048FF>" {
		t.Fatalf("hex = %q", got)
	}
}
