// Package splitgen turns one tagged union declaration into one standalone
// type per variant.
//
// A union is declared as a struct whose fields are the variants:
//
//	//wire:union Action
//	//wire:derive codec,stringer
//	type action struct {
//	    Ping struct{}                       `wire:"1"`
//	    Say  struct{ text string }          `wire:"2"`
//	    Join func(room uint32, nick string) `wire:"3"`
//	}
//
// A struct literal variant gets named fields, a func type variant gets
// positional fields F0..Fn and a New constructor, and struct{} is a unit
// variant. Every field is exported in the output. The declaration itself is
// left untouched and is never referenced by the generated code.
package splitgen

import (
	"go/token"
)

// Shape says how a variant carries its fields
type Shape int

const (
	Unit Shape = iota
	Named
	Positional
)

func (s Shape) String() string {
	switch s {
	case Unit:
		return "unit"
	case Named:
		return "named"
	case Positional:
		return "positional"
	}
	return "unknown"
}

// Derive is a capability added identically to every variant
type Derive string

const (
	DeriveCodec    Derive = "codec"
	DeriveStringer Derive = "stringer"
)

var knownDerives = map[Derive]bool{
	DeriveCodec:    true,
	DeriveStringer: true,
}

// Union is a parsed union declaration
type Union struct {
	Package  string
	Decl     string   // name of the source declaration
	Name     string   // exported union interface
	Derives  []Derive // in declaration order, deduplicated
	Variants []*Variant
	Imports  []Import // imports of the declaring file
	Pos      token.Position
}

// Has reports whether d is derived
func (u *Union) Has(d Derive) bool {
	for _, got := range u.Derives {
		if got == d {
			return true
		}
	}
	return false
}

// Variant is one standalone type of the output
type Variant struct {
	Name   string
	Tag    uint8
	Shape  Shape
	Fields []*Field
	Pos    token.Position
}

// Field is an exported field of a variant
type Field struct {
	Name      string // exported name (F0.. for positional)
	Param     string // constructor parameter name for positional variants
	Type      string // type expression as written
	StructTag string // raw struct tag without backquotes
	Codec     *Codec // nil unless the codec derive is on
}

// Import is an import of the declaring file
type Import struct {
	Name string
	Path string
}
