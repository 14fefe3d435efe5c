package writer

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"unicode/utf16"

	"github.com/wudi/fieldfill/template"
)

func writeObject(buf *bytes.Buffer, obj template.Object) error {
	switch v := obj.(type) {
	case nil, template.Null:
		buf.WriteString("null")
	case template.Bool:
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case template.Integer:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case template.Real:
		buf.WriteString(formatNumber(float64(v)))
	case template.Name:
		writeName(buf, v)
	case template.String:
		if v.Hex {
			writeHex(buf, v.Data)
		} else {
			writeLiteral(buf, v.Data)
		}
	case template.Array:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(' ')
			}
			if err := writeObject(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case template.Dict:
		if err := writeDict(buf, v); err != nil {
			return err
		}
	case template.Ref:
		fmt.Fprintf(buf, "%d %d R", v.Num, v.Gen)
	case *template.Stream:
		if err := writeDict(buf, v.Dict); err != nil {
			return err
		}
		buf.WriteString("\nstream\n")
		buf.Write(v.Raw)
		buf.WriteString("\nendstream")
	default:
		return fmt.Errorf("cannot serialize %T", obj)
	}
	return nil
}

// writeDict emits keys in sorted order so output is deterministic.
func writeDict(buf *bytes.Buffer, d template.Dict) error {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	buf.WriteString("<<")
	for _, k := range keys {
		buf.WriteByte(' ')
		writeName(buf, template.Name(k))
		buf.WriteByte(' ')
		if err := writeObject(buf, d[template.Name(k)]); err != nil {
			return err
		}
	}
	buf.WriteString(" >>")
	return nil
}

func writeName(buf *bytes.Buffer, n template.Name) {
	buf.WriteByte('/')
	for i := 0; i < len(n); i++ {
		b := n[i]
		if b <= ' ' || b > '~' || b == '#' || b == '/' || b == '(' || b == ')' ||
			b == '<' || b == '>' || b == '[' || b == ']' || b == '{' || b == '}' || b == '%' {
			fmt.Fprintf(buf, "#%02X", b)
			continue
		}
		buf.WriteByte(b)
	}
}

func writeLiteral(buf *bytes.Buffer, data []byte) {
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

func writeHex(buf *bytes.Buffer, data []byte) {
	const hex = "0123456789ABCDEF"
	buf.WriteByte('<')
	for _, b := range data {
		buf.WriteByte(hex[b>>4])
		buf.WriteByte(hex[b&0x0f])
	}
	buf.WriteByte('>')
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func utf16BE(r rune) []byte {
	units := utf16.Encode([]rune{r})
	out := make([]byte, 0, len(units)*2)
	for _, u := range units {
		out = append(out, byte(u>>8), byte(u))
	}
	return out
}
