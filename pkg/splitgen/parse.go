package splitgen

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	unionDirective  = "//wire:union"
	deriveDirective = "//wire:derive"
	tagKey          = "wire"
)

var ErrNotFound = errors.New("splitgen: type not found")

// PosError is a generation failure tied to a source position
type PosError struct {
	Pos token.Position
	Msg string
}

func (e *PosError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

type parseState struct {
	fset *token.FileSet
}

func (p *parseState) errorf(pos token.Pos, format string, args ...any) error {
	return &PosError{Pos: p.fset.Position(pos), Msg: fmt.Sprintf(format, args...)}
}

// ParseSource parses src as the file filename and extracts the union
// declared as typeName
func ParseSource(filename string, src any, typeName string) (*Union, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, err
	}
	return ParseFile(fset, file, typeName)
}

// ParseFile extracts the union declared as typeName from a parsed file
func ParseFile(fset *token.FileSet, file *ast.File, typeName string) (*Union, error) {
	p := &parseState{fset: fset}

	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts := spec.(*ast.TypeSpec)
			if ts.Name.Name != typeName {
				continue
			}
			doc := ts.Doc
			if doc == nil && len(gen.Specs) == 1 {
				doc = gen.Doc
			}
			u, err := p.union(ts, doc)
			if err != nil {
				return nil, err
			}
			u.Package = file.Name.Name
			u.Imports = fileImports(file)
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, typeName)
}

func (p *parseState) union(ts *ast.TypeSpec, doc *ast.CommentGroup) (*Union, error) {
	if ts.TypeParams != nil && len(ts.TypeParams.List) > 0 {
		return nil, p.errorf(ts.Pos(), "%s: generic unions are not supported", ts.Name.Name)
	}

	u := &Union{Decl: ts.Name.Name, Pos: p.fset.Position(ts.Pos())}
	marked := false
	if doc != nil {
		for _, c := range doc.List {
			switch {
			case directive(c.Text, unionDirective):
				marked = true
				name := strings.TrimSpace(strings.TrimPrefix(c.Text, unionDirective))
				if name == "" {
					name = exported(ts.Name.Name)
				}
				u.Name = name
			case directive(c.Text, deriveDirective):
				for _, d := range strings.Split(strings.TrimPrefix(c.Text, deriveDirective), ",") {
					d = strings.TrimSpace(d)
					if d == "" {
						continue
					}
					if !knownDerives[Derive(d)] {
						return nil, p.errorf(c.Pos(), "unknown derive %q", d)
					}
					if !u.Has(Derive(d)) {
						u.Derives = append(u.Derives, Derive(d))
					}
				}
			}
		}
	}

	st, ok := ts.Type.(*ast.StructType)
	if !ok {
		return nil, p.errorf(ts.Pos(), "%s: only struct declarations can be split, got %s", ts.Name.Name, exprString(ts.Type))
	}
	if !marked {
		return nil, p.errorf(ts.Pos(), "%s: plain struct, missing %s directive", ts.Name.Name, unionDirective)
	}
	if !token.IsIdentifier(u.Name) || !token.IsExported(u.Name) {
		return nil, p.errorf(ts.Pos(), "union name %q must be an exported identifier", u.Name)
	}
	if u.Name == u.Decl {
		return nil, p.errorf(ts.Pos(), "union name %q must differ from the declaration name", u.Name)
	}
	if len(st.Fields.List) == 0 {
		return nil, p.errorf(ts.Pos(), "%s: union has no variants", ts.Name.Name)
	}

	seenTags := map[uint8]string{}
	names := newNameSet(u)
	for _, f := range st.Fields.List {
		if len(f.Names) == 0 {
			return nil, p.errorf(f.Pos(), "embedded field %s cannot be a variant", exprString(f.Type))
		}
		tag, err := p.variantTag(f)
		if err != nil {
			return nil, err
		}
		for _, ident := range f.Names {
			v, err := p.variant(ident, f.Type, u.Has(DeriveCodec))
			if err != nil {
				return nil, err
			}
			v.Tag = tag
			if prev, dup := seenTags[tag]; dup {
				return nil, p.errorf(ident.Pos(), "variant %s reuses tag %d of %s", v.Name, tag, prev)
			}
			seenTags[tag] = v.Name
			if err := names.add(v); err != nil {
				return nil, p.errorf(ident.Pos(), "%v", err)
			}
			u.Variants = append(u.Variants, v)
		}
	}
	return u, nil
}

func (p *parseState) variantTag(f *ast.Field) (uint8, error) {
	if f.Tag == nil {
		return 0, p.errorf(f.Pos(), "variant %s: missing `%s:\"N\"` tag", f.Names[0].Name, tagKey)
	}
	raw, err := strconv.Unquote(f.Tag.Value)
	if err != nil {
		return 0, p.errorf(f.Tag.Pos(), "malformed struct tag: %v", err)
	}
	value, ok := reflect.StructTag(raw).Lookup(tagKey)
	if !ok {
		return 0, p.errorf(f.Tag.Pos(), "variant %s: missing `%s:\"N\"` tag", f.Names[0].Name, tagKey)
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 || n > 255 {
		return 0, p.errorf(f.Tag.Pos(), "variant %s: tag %q is not in 0..255", f.Names[0].Name, value)
	}
	if len(f.Names) > 1 {
		return 0, p.errorf(f.Pos(), "variants %s share one tag, declare them separately", identList(f.Names))
	}
	return uint8(n), nil
}

func (p *parseState) variant(ident *ast.Ident, typ ast.Expr, withCodec bool) (*Variant, error) {
	if ident.Name == "_" {
		return nil, p.errorf(ident.Pos(), "blank variant name")
	}
	v := &Variant{Name: exported(ident.Name), Pos: p.fset.Position(ident.Pos())}

	switch t := typ.(type) {
	case *ast.StructType:
		if len(t.Fields.List) == 0 {
			v.Shape = Unit
			return v, nil
		}
		v.Shape = Named
		seen := map[string]bool{}
		for _, f := range t.Fields.List {
			if len(f.Names) == 0 {
				return nil, p.errorf(f.Pos(), "variant %s: embedded field %s is not supported", v.Name, exprString(f.Type))
			}
			tag := ""
			if f.Tag != nil {
				tag, _ = strconv.Unquote(f.Tag.Value)
			}
			for _, name := range f.Names {
				if name.Name == "_" {
					return nil, p.errorf(name.Pos(), "variant %s: blank field", v.Name)
				}
				field := &Field{Name: exported(name.Name), Type: exprString(f.Type), StructTag: tag}
				if seen[field.Name] {
					return nil, p.errorf(name.Pos(), "variant %s: field %s collides with another field", v.Name, field.Name)
				}
				seen[field.Name] = true
				if err := p.attachCodec(field, f.Type, withCodec, name.Pos()); err != nil {
					return nil, err
				}
				v.Fields = append(v.Fields, field)
			}
		}
		return v, nil

	case *ast.FuncType:
		if t.TypeParams != nil && len(t.TypeParams.List) > 0 {
			return nil, p.errorf(t.Pos(), "variant %s: generic func variants are not supported", v.Name)
		}
		if t.Results != nil && len(t.Results.List) > 0 {
			return nil, p.errorf(t.Results.Pos(), "variant %s: func variants cannot have results", v.Name)
		}
		v.Shape = Positional
		if t.Params == nil || len(t.Params.List) == 0 {
			v.Shape = Unit
			return v, nil
		}
		used := map[string]bool{}
		for _, f := range t.Params.List {
			if _, ok := f.Type.(*ast.Ellipsis); ok {
				return nil, p.errorf(f.Pos(), "variant %s: variadic parameters are not supported", v.Name)
			}
			names := f.Names
			if len(names) == 0 {
				names = []*ast.Ident{nil}
			}
			for _, name := range names {
				i := len(v.Fields)
				field := &Field{Name: fmt.Sprintf("F%d", i), Type: exprString(f.Type)}
				field.Param = fmt.Sprintf("f%d", i)
				if name != nil && name.Name != "_" && !used[name.Name] && !reservedParam(name.Name) {
					field.Param = name.Name
				}
				used[field.Param] = true
				if err := p.attachCodec(field, f.Type, withCodec, f.Pos()); err != nil {
					return nil, err
				}
				v.Fields = append(v.Fields, field)
			}
		}
		return v, nil
	}

	return nil, p.errorf(typ.Pos(), "variant %s: %s is not a variant shape (want struct literal or func type)", v.Name, exprString(typ))
}

func (p *parseState) attachCodec(field *Field, typ ast.Expr, withCodec bool, pos token.Pos) error {
	if !withCodec {
		return nil
	}
	c, err := codecFor(typ)
	if err != nil {
		return p.errorf(pos, "field %s: %v", field.Name, err)
	}
	field.Codec = c
	return nil
}

// nameSet tracks the package-level names the output declares
type nameSet struct {
	union string
	taken map[string]string
}

func newNameSet(u *Union) *nameSet {
	s := &nameSet{union: u.Name, taken: map[string]string{}}
	s.taken[u.Name] = "union " + u.Name
	s.taken[u.Decl] = "declaration " + u.Decl
	if u.Has(DeriveCodec) {
		s.taken["Encode"+u.Name] = "Encode" + u.Name
		s.taken["Decode"+u.Name] = "Decode" + u.Name
		s.taken[u.Name+"Codec"] = u.Name + "Codec"
	}
	return s
}

func (s *nameSet) add(v *Variant) error {
	names := []string{v.Name, s.union + v.Name + "Tag"}
	if v.Shape == Positional {
		names = append(names, "New"+v.Name)
	}
	for _, n := range names {
		if owner, ok := s.taken[n]; ok {
			return fmt.Errorf("variant %s: generated name %s collides with %s", v.Name, n, owner)
		}
	}
	for _, n := range names {
		s.taken[n] = "variant " + v.Name
	}
	return nil
}

func directive(text, name string) bool {
	if !strings.HasPrefix(text, name) {
		return false
	}
	rest := text[len(name):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}

func exported(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}

func exprString(e ast.Expr) string {
	return types.ExprString(e)
}

func identList(ids []*ast.Ident) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Name
	}
	return strings.Join(out, ", ")
}

// reservedParam rejects parameter names that would shadow identifiers used
// in the generated constructor body
func reservedParam(name string) bool {
	return token.IsKeyword(name) || name == "wire"
}

func fileImports(file *ast.File) []Import {
	var out []Import
	for _, spec := range file.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		imp := Import{Path: path}
		if spec.Name != nil {
			imp.Name = spec.Name.Name
		}
		out = append(out, imp)
	}
	return out
}
