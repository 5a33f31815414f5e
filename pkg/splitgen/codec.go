package splitgen

import (
	"fmt"
	"go/ast"
	"strings"
)

type codecKind int

const (
	codecScalar codecKind = iota // Writer/Reader method of the same type
	codecWide                    // int and uint, carried as 64 bits
	codecBlob                    // []byte
	codecSlice                   // []T with a uint32 count
	codecSelf                    // named type with its own MarshalWire/UnmarshalWire
)

// Codec describes how one field type is carried on the wire
type Codec struct {
	kind     codecKind
	method   string // Writer/Reader method for scalar and wide kinds
	conv     string // Go type to convert to on decode, wide kind only
	elem     *Codec
	elemType string
}

var scalarMethods = map[string]string{
	"bool":    "Bool",
	"byte":    "Uint8",
	"uint8":   "Uint8",
	"uint16":  "Uint16",
	"uint32":  "Uint32",
	"uint64":  "Uint64",
	"int8":    "Int8",
	"int16":   "Int16",
	"int32":   "Int32",
	"rune":    "Int32",
	"int64":   "Int64",
	"float32": "Float32",
	"float64": "Float64",
	"string":  "String",
}

// codecFor resolves the codec of a field type expression
func codecFor(expr ast.Expr) (*Codec, error) {
	switch t := expr.(type) {
	case *ast.Ident:
		if m, ok := scalarMethods[t.Name]; ok {
			return &Codec{kind: codecScalar, method: m}, nil
		}
		switch t.Name {
		case "int":
			return &Codec{kind: codecWide, method: "Int64", conv: "int"}, nil
		case "uint":
			return &Codec{kind: codecWide, method: "Uint64", conv: "uint"}, nil
		case "uintptr", "complex64", "complex128", "any", "error":
			return nil, fmt.Errorf("type %s has no wire form", t.Name)
		}
		return &Codec{kind: codecSelf}, nil
	case *ast.SelectorExpr:
		return &Codec{kind: codecSelf}, nil
	case *ast.IndexExpr, *ast.IndexListExpr:
		// instantiated generic type, e.g. wire.Connected[chat]
		return &Codec{kind: codecSelf}, nil
	case *ast.ArrayType:
		if t.Len != nil {
			return nil, fmt.Errorf("fixed-size array %s has no wire form", exprString(t))
		}
		if id, ok := t.Elt.(*ast.Ident); ok && (id.Name == "byte" || id.Name == "uint8") {
			return &Codec{kind: codecBlob}, nil
		}
		elem, err := codecFor(t.Elt)
		if err != nil {
			return nil, err
		}
		return &Codec{kind: codecSlice, elem: elem, elemType: exprString(t.Elt)}, nil
	case *ast.ParenExpr:
		return codecFor(t.X)
	}
	return nil, fmt.Errorf("type %s has no wire form", exprString(expr))
}

// encode returns statements writing val to w
func (c *Codec) encode(val string, depth int) string {
	switch c.kind {
	case codecScalar:
		return fmt.Sprintf("w.%s(%s)\n", c.method, val)
	case codecWide:
		return fmt.Sprintf("w.%s(%s(%s))\n", c.method, strings.ToLower(c.method), val)
	case codecBlob:
		return fmt.Sprintf("w.Blob(%s)\n", val)
	case codecSlice:
		e := fmt.Sprintf("e%d", depth)
		var b strings.Builder
		fmt.Fprintf(&b, "w.Uint32(uint32(len(%s)))\n", val)
		fmt.Fprintf(&b, "for _, %s := range %s {\n", e, val)
		b.WriteString(c.elem.encode(e, depth+1))
		b.WriteString("}\n")
		return b.String()
	}
	return fmt.Sprintf("%s.MarshalWire(w)\n", val)
}

// decode returns statements reading r into the addressable lv. The statements
// return err on failure.
func (c *Codec) decode(lv string, depth int) string {
	switch c.kind {
	case codecScalar:
		return fmt.Sprintf("if %s, err = r.%s(); err != nil {\nreturn err\n}\n", lv, c.method)
	case codecWide:
		x := fmt.Sprintf("x%d", depth)
		return fmt.Sprintf("{\n%s, err := r.%s()\nif err != nil {\nreturn err\n}\n%s = %s(%s)\n}\n",
			x, c.method, lv, c.conv, x)
	case codecBlob:
		return fmt.Sprintf("if %s, err = r.Blob(); err != nil {\nreturn err\n}\n", lv)
	case codecSlice:
		n := fmt.Sprintf("n%d", depth)
		i := fmt.Sprintf("i%d", depth)
		var b strings.Builder
		fmt.Fprintf(&b, "{\n%s, err := r.Len(1)\nif err != nil {\nreturn err\n}\n", n)
		fmt.Fprintf(&b, "%s = nil\nif %s > 0 {\n%s = make([]%s, %s)\n}\n", lv, n, lv, c.elemType, n)
		fmt.Fprintf(&b, "for %s := range %s {\n", i, lv)
		b.WriteString(c.elem.decode(fmt.Sprintf("%s[%s]", lv, i), depth+1))
		b.WriteString("}\n}\n")
		return b.String()
	}
	return fmt.Sprintf("if err := %s.UnmarshalWire(r); err != nil {\nreturn err\n}\n", lv)
}
