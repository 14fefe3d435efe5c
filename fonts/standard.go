package fonts

// StandardFontName is the core font every export can rely on without
// embedding. Viewers ship its metrics, so it needs no FontFile stream.
const StandardFontName = "Helvetica"

// NewStandard returns the non-embedded standard fallback font.
func NewStandard() *Font {
	return &Font{Name: StandardFontName, Standard: true}
}

// helveticaWidths holds the published Helvetica advance widths in 1/1000 em,
// indexed by WinAnsi code. Codes without a glyph stay zero.
var helveticaWidths = [256]int16{
	' ': 278, '!': 278, '"': 355, '#': 556, '$': 556, '%': 889, '&': 667,
	'\'': 191, '(': 333, ')': 333, '*': 389, '+': 584, ',': 278, '-': 333,
	'.': 278, '/': 278,
	'0': 556, '1': 556, '2': 556, '3': 556, '4': 556, '5': 556, '6': 556,
	'7': 556, '8': 556, '9': 556,
	':': 278, ';': 278, '<': 584, '=': 584, '>': 584, '?': 556, '@': 1015,
	'A': 667, 'B': 667, 'C': 722, 'D': 722, 'E': 667, 'F': 611, 'G': 778,
	'H': 722, 'I': 278, 'J': 500, 'K': 667, 'L': 556, 'M': 833, 'N': 722,
	'O': 778, 'P': 667, 'Q': 778, 'R': 722, 'S': 667, 'T': 611, 'U': 722,
	'V': 667, 'W': 944, 'X': 667, 'Y': 667, 'Z': 611,
	'[': 278, '\\': 278, ']': 278, '^': 469, '_': 556, '`': 333,
	'a': 556, 'b': 556, 'c': 500, 'd': 556, 'e': 556, 'f': 278, 'g': 556,
	'h': 556, 'i': 222, 'j': 222, 'k': 500, 'l': 222, 'm': 833, 'n': 556,
	'o': 556, 'p': 556, 'q': 556, 'r': 333, 's': 500, 't': 278, 'u': 556,
	'v': 500, 'w': 722, 'x': 500, 'y': 500, 'z': 500,
	'{': 334, '|': 260, '}': 334, '~': 584,
	0x80: 556, 0x82: 222, 0x83: 556, 0x84: 333, 0x85: 1000, 0x86: 556,
	0x87: 556, 0x88: 333, 0x89: 1000, 0x8a: 667, 0x8b: 333, 0x8c: 1000,
	0x8e: 611, 0x91: 222, 0x92: 222, 0x93: 333, 0x94: 333, 0x95: 350,
	0x96: 556, 0x97: 1000, 0x98: 333, 0x99: 1000, 0x9a: 500, 0x9b: 333,
	0x9c: 944, 0x9e: 500, 0x9f: 667,
	0xa0: 278, 0xa1: 333, 0xa2: 556, 0xa3: 556, 0xa4: 556, 0xa5: 556,
	0xa6: 260, 0xa7: 556, 0xa8: 333, 0xa9: 737, 0xaa: 370, 0xab: 556,
	0xac: 584, 0xad: 333, 0xae: 737, 0xaf: 333, 0xb0: 400, 0xb1: 584,
	0xb2: 333, 0xb3: 333, 0xb4: 333, 0xb5: 556, 0xb6: 537, 0xb7: 278,
	0xb8: 333, 0xb9: 333, 0xba: 365, 0xbb: 556, 0xbc: 834, 0xbd: 834,
	0xbe: 834, 0xbf: 611,
	0xc0: 667, 0xc1: 667, 0xc2: 667, 0xc3: 667, 0xc4: 667, 0xc5: 667,
	0xc6: 1000, 0xc7: 722, 0xc8: 667, 0xc9: 667, 0xca: 667, 0xcb: 667,
	0xcc: 278, 0xcd: 278, 0xce: 278, 0xcf: 278, 0xd0: 722, 0xd1: 722,
	0xd2: 778, 0xd3: 778, 0xd4: 778, 0xd5: 778, 0xd6: 778, 0xd7: 584,
	0xd8: 778, 0xd9: 722, 0xda: 722, 0xdb: 722, 0xdc: 722, 0xdd: 667,
	0xde: 667, 0xdf: 611,
	0xe0: 556, 0xe1: 556, 0xe2: 556, 0xe3: 556, 0xe4: 556, 0xe5: 556,
	0xe6: 889, 0xe7: 500, 0xe8: 556, 0xe9: 556, 0xea: 556, 0xeb: 556,
	0xec: 278, 0xed: 278, 0xee: 278, 0xef: 278, 0xf0: 556, 0xf1: 556,
	0xf2: 556, 0xf3: 556, 0xf4: 556, 0xf5: 556, 0xf6: 556, 0xf7: 584,
	0xf8: 611, 0xf9: 556, 0xfa: 556, 0xfb: 556, 0xfc: 556, 0xfd: 500,
	0xfe: 556, 0xff: 500,
}

// winAnsiExtra maps the runes WinAnsi places in the 0x80-0x9F window.
var winAnsiExtra = map[rune]byte{
	'€': 0x80, '‚': 0x82, 'ƒ': 0x83, '„': 0x84,
	'…': 0x85, '†': 0x86, '‡': 0x87, 'ˆ': 0x88,
	'‰': 0x89, 'Š': 0x8a, '‹': 0x8b, 'Œ': 0x8c,
	'Ž': 0x8e, '‘': 0x91, '’': 0x92, '“': 0x93,
	'”': 0x94, '•': 0x95, '–': 0x96, '—': 0x97,
	'˜': 0x98, '™': 0x99, 'š': 0x9a, '›': 0x9b,
	'œ': 0x9c, 'ž': 0x9e, 'Ÿ': 0x9f,
}

// winAnsiByte maps a rune to its WinAnsi code.
func winAnsiByte(r rune) (byte, bool) {
	switch {
	case r >= 0x20 && r < 0x7f:
		return byte(r), true
	case r >= 0xa0 && r <= 0xff:
		return byte(r), true
	}
	b, ok := winAnsiExtra[r]
	return b, ok
}

// encodeWinAnsi converts text to WinAnsi bytes with PDF string escaping left
// to the serializer. Any rune outside WinAnsi fails the whole string.
func encodeWinAnsi(text string) ([]byte, error) {
	out := make([]byte, 0, len(text))
	for _, r := range text {
		b, ok := winAnsiByte(r)
		if !ok {
			return nil, ErrMissingGlyph
		}
		out = append(out, b)
	}
	return out, nil
}
