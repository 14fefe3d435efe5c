package template

import (
	"fmt"
	"strconv"
)

// lexer tokenizes PDF syntax from a byte slice. Streams are handled one
// level up because their extent depends on a possibly indirect /Length.
type lexer struct {
	data []byte
	pos  int
}

func isWhitespace(b byte) bool {
	switch b {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isWhitespace(b) {
			l.pos++
			continue
		}
		if b == '%' {
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
			continue
		}
		return
	}
}

func (l *lexer) peek() (byte, bool) {
	if l.pos >= len(l.data) {
		return 0, false
	}
	return l.data[l.pos], true
}

// readKeyword reads a bare token (obj, endobj, stream, R, true, ...).
func (l *lexer) readKeyword() string {
	start := l.pos
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.pos++
	}
	return string(l.data[start:l.pos])
}

// expect consumes the given keyword or fails.
func (l *lexer) expect(kw string) error {
	l.skipSpace()
	if got := l.readKeyword(); got != kw {
		return fmt.Errorf("expected %q at offset %d, got %q", kw, l.pos, got)
	}
	return nil
}

// readObject parses the next object. Indirect references ("n g R") are
// recognized by lookahead after a number.
func (l *lexer) readObject() (Object, error) {
	l.skipSpace()
	b, ok := l.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of data at offset %d", l.pos)
	}
	switch {
	case b == '/':
		return l.readName()
	case b == '(':
		return l.readLiteralString()
	case b == '<':
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
			return l.readDict()
		}
		return l.readHexString()
	case b == '[':
		return l.readArray()
	case b == '-' || b == '+' || b == '.' || (b >= '0' && b <= '9'):
		return l.readNumberOrRef()
	default:
		switch kw := l.readKeyword(); kw {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		case "null":
			return Null{}, nil
		default:
			return nil, fmt.Errorf("unexpected token %q at offset %d", kw, l.pos)
		}
	}
}

func (l *lexer) readName() (Name, error) {
	l.pos++ // consume '/'
	var out []byte
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		if b == '#' && l.pos+2 < len(l.data) {
			if v, err := strconv.ParseUint(string(l.data[l.pos+1:l.pos+3]), 16, 8); err == nil {
				out = append(out, byte(v))
				l.pos += 3
				continue
			}
		}
		out = append(out, b)
		l.pos++
	}
	return Name(out), nil
}

func (l *lexer) readLiteralString() (String, error) {
	l.pos++ // consume '('
	var out []byte
	depth := 1
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		switch b {
		case '\\':
			l.pos++
			if l.pos >= len(l.data) {
				return String{}, fmt.Errorf("unterminated string escape")
			}
			e := l.data[l.pos]
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '(', ')', '\\':
				out = append(out, e)
			case '\r':
				if l.pos+1 < len(l.data) && l.data[l.pos+1] == '\n' {
					l.pos++
				}
			case '\n':
				// line continuation, emit nothing
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for n := 0; n < 2 && l.pos+1 < len(l.data); n++ {
						nb := l.data[l.pos+1]
						if nb < '0' || nb > '7' {
							break
						}
						v = v*8 + int(nb-'0')
						l.pos++
					}
					out = append(out, byte(v))
				} else {
					out = append(out, e)
				}
			}
			l.pos++
		case '(':
			depth++
			out = append(out, b)
			l.pos++
		case ')':
			depth--
			l.pos++
			if depth == 0 {
				return String{Data: out}, nil
			}
			out = append(out, b)
		default:
			out = append(out, b)
			l.pos++
		}
	}
	return String{}, fmt.Errorf("unterminated literal string")
}

func (l *lexer) readHexString() (String, error) {
	l.pos++ // consume '<'
	var nibbles []byte
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		l.pos++
		if b == '>' {
			out := make([]byte, 0, (len(nibbles)+1)/2)
			for i := 0; i < len(nibbles); i += 2 {
				hi := nibbles[i]
				lo := byte('0')
				if i+1 < len(nibbles) {
					lo = nibbles[i+1]
				}
				v, err := strconv.ParseUint(string([]byte{hi, lo}), 16, 8)
				if err != nil {
					return String{}, fmt.Errorf("bad hex string digit: %w", err)
				}
				out = append(out, byte(v))
			}
			return String{Data: out, Hex: true}, nil
		}
		if isWhitespace(b) {
			continue
		}
		nibbles = append(nibbles, b)
	}
	return String{}, fmt.Errorf("unterminated hex string")
}

func (l *lexer) readArray() (Array, error) {
	l.pos++ // consume '['
	arr := Array{}
	for {
		l.skipSpace()
		b, ok := l.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated array")
		}
		if b == ']' {
			l.pos++
			return arr, nil
		}
		obj, err := l.readObject()
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

func (l *lexer) readDict() (Dict, error) {
	l.pos += 2 // consume '<<'
	dict := Dict{}
	for {
		l.skipSpace()
		b, ok := l.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated dictionary")
		}
		if b == '>' {
			if l.pos+1 < len(l.data) && l.data[l.pos+1] == '>' {
				l.pos += 2
				return dict, nil
			}
			return nil, fmt.Errorf("stray '>' in dictionary at offset %d", l.pos)
		}
		if b != '/' {
			return nil, fmt.Errorf("dictionary key must be a name at offset %d", l.pos)
		}
		key, err := l.readName()
		if err != nil {
			return nil, err
		}
		val, err := l.readObject()
		if err != nil {
			return nil, fmt.Errorf("value for /%s: %w", key, err)
		}
		dict[key] = val
	}
}

func (l *lexer) readNumberOrRef() (Object, error) {
	first, isInt, err := l.readNumber()
	if err != nil {
		return nil, err
	}
	if !isInt || first < 0 {
		if isInt {
			return Integer(first), nil
		}
		return Real(first), nil
	}
	// Lookahead for "gen R".
	save := l.pos
	l.skipSpace()
	b, ok := l.peek()
	if ok && b >= '0' && b <= '9' {
		gen, genInt, err := l.readNumber()
		if err == nil && genInt {
			l.skipSpace()
			if kw := l.readKeyword(); kw == "R" {
				return Ref{Num: int(first), Gen: int(gen)}, nil
			}
			l.pos = save // not a reference after all
			return Integer(first), nil
		}
	}
	l.pos = save
	return Integer(first), nil
}

// readNumber parses an integer or real, reporting which it was.
func (l *lexer) readNumber() (float64, bool, error) {
	l.skipSpace()
	start := l.pos
	isInt := true
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if b == '.' {
			isInt = false
			l.pos++
			continue
		}
		if b == '-' || b == '+' || (b >= '0' && b <= '9') {
			l.pos++
			continue
		}
		break
	}
	if l.pos == start {
		return 0, false, fmt.Errorf("expected number at offset %d", start)
	}
	v, err := strconv.ParseFloat(string(l.data[start:l.pos]), 64)
	if err != nil {
		return 0, false, fmt.Errorf("bad number %q: %w", l.data[start:l.pos], err)
	}
	return v, isInt, nil
}
