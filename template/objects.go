// Package template reads the PDF a fill operation annotates. It resolves
// enough structure for overlaying text — cross-reference data, the page tree
// with inherited attributes, and arbitrary object round-tripping for the
// incremental writer — without decoding page content.
package template

import "fmt"

// Object is any PDF object. Concrete types: Null, Bool, Integer, Real,
// String, Name, Array, Dict, Ref and *Stream.
type Object interface{}

// Null is the PDF null object.
type Null struct{}

// Bool is a PDF boolean.
type Bool bool

// Integer is a PDF integer.
type Integer int64

// Real is a PDF real number.
type Real float64

// String is a PDF string. Hex records which written form the source used.
type String struct {
	Data []byte
	Hex  bool
}

// Name is a PDF name without the leading slash.
type Name string

// Array is a PDF array.
type Array []Object

// Dict is a PDF dictionary.
type Dict map[Name]Object

// Ref is an indirect object reference.
type Ref struct {
	Num int
	Gen int
}

// Stream is a stream object. Raw holds the encoded bytes exactly as stored;
// the reader only decodes streams it must look inside (xref and object
// streams).
type Stream struct {
	Dict Dict
	Raw  []byte
}

// Get looks a key up without resolving references.
func (d Dict) Get(key Name) (Object, bool) {
	v, ok := d[key]
	return v, ok
}

// Clone returns a shallow copy, suitable for amending an object in an
// incremental update without touching the parsed original.
func (d Dict) Clone() Dict {
	out := make(Dict, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// numberValue converts Integer or Real to float64.
func numberValue(obj Object) (float64, bool) {
	switch v := obj.(type) {
	case Integer:
		return float64(v), true
	case Real:
		return float64(v), true
	}
	return 0, false
}

func intValue(obj Object) (int, bool) {
	switch v := obj.(type) {
	case Integer:
		return int(v), true
	case Real:
		return int(v), true
	}
	return 0, false
}

func asDict(obj Object) (Dict, error) {
	d, ok := obj.(Dict)
	if !ok {
		return nil, fmt.Errorf("expected dictionary, got %T", obj)
	}
	return d, nil
}
