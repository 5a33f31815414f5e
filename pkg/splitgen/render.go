package splitgen

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"
)

// WirePath is the import path of the runtime the generated code targets
const WirePath = "github.com/ZentaChain/zentalk-wire/pkg/wire"

type fileData struct {
	Package string
	Source  string
	Imports string // body of the import block, grouped and sorted
	Unions  []*unionData
}

type unionData struct {
	*Union
	Wire    string   // qualifier of the wire package
	Allowed []string // variant tags in ascending order
	Names   []string // variant names in declaration order
	NilTag  int      // smallest tag no variant uses
}

// Render produces the formatted output file for unions declared in one
// source file. source names that file.
func Render(source string, unions ...*Union) ([]byte, error) {
	if len(unions) == 0 {
		return nil, errors.New("splitgen: nothing to render")
	}
	if err := checkDisjoint(unions); err != nil {
		return nil, err
	}

	qual := "wire"
	for _, imp := range unions[0].Imports {
		if imp.Path == WirePath && imp.Name != "" && imp.Name != "_" && imp.Name != "." {
			qual = imp.Name
		}
	}
	data := &fileData{
		Package: unions[0].Package,
		Source:  source,
		Imports: importBlock(unions[0].Imports, "fmt", "strconv", WirePath),
	}

	for _, u := range unions {
		ud := &unionData{Union: u, Wire: qual, NilTag: -1}
		used := make(map[int]bool, len(u.Variants))
		tags := make([]int, 0, len(u.Variants))
		for _, v := range u.Variants {
			tags = append(tags, int(v.Tag))
			used[int(v.Tag)] = true
			ud.Names = append(ud.Names, v.Name)
		}
		sort.Ints(tags)
		for _, t := range tags {
			ud.Allowed = append(ud.Allowed, fmt.Sprint(t))
		}
		for t := 0; t <= 255; t++ {
			if !used[t] {
				ud.NilTag = t
				break
			}
		}
		if ud.NilTag < 0 && u.Has(DeriveCodec) {
			return nil, &PosError{Pos: u.Pos, Msg: fmt.Sprintf("%s: every discriminant is taken, one must stay free for nil values", u.Name)}
		}
		data.Unions = append(data.Unions, ud)
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", source, err)
	}

	out, err := imports.Process(outputName(source), buf.Bytes(), &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, fmt.Errorf("format %s: %w\n%s", source, err, buf.Bytes())
	}
	return out, nil
}

// importBlock lays out the imports of the declaring file plus the runtime
// ones: standard library first, then the rest, each group sorted. Unused
// imports are pruned later by imports.Process.
func importBlock(declared []Import, runtime ...string) string {
	var std, other []string
	seen := map[string]bool{}
	add := func(imp Import) {
		if seen[imp.Path] {
			return
		}
		seen[imp.Path] = true
		line := "\t" + strconv.Quote(imp.Path)
		if imp.Name != "" {
			line = "\t" + imp.Name + " " + strconv.Quote(imp.Path)
		}
		if strings.Contains(strings.SplitN(imp.Path, "/", 2)[0], ".") {
			other = append(other, line)
		} else {
			std = append(std, line)
		}
	}
	for _, imp := range declared {
		if imp.Name == "_" || imp.Name == "." {
			continue
		}
		add(imp)
	}
	for _, path := range runtime {
		add(Import{Path: path})
	}

	byPath := func(lines []string) {
		sort.Slice(lines, func(i, j int) bool { return importPath(lines[i]) < importPath(lines[j]) })
	}
	byPath(std)
	byPath(other)

	switch {
	case len(std) == 0:
		return strings.Join(other, "\n")
	case len(other) == 0:
		return strings.Join(std, "\n")
	}
	return strings.Join(std, "\n") + "\n\n" + strings.Join(other, "\n")
}

func importPath(line string) string {
	return line[strings.IndexByte(line, '"'):]
}

// checkDisjoint rejects unions of one file whose generated names overlap
func checkDisjoint(unions []*Union) error {
	owners := map[string]string{}
	for _, u := range unions {
		if u.Package != unions[0].Package {
			return fmt.Errorf("splitgen: %s and %s are in different packages", unions[0].Name, u.Name)
		}
		names := newNameSet(u)
		for _, v := range u.Variants {
			if err := names.add(v); err != nil {
				return &PosError{Pos: v.Pos, Msg: err.Error()}
			}
		}
		for n := range names.taken {
			if owner, ok := owners[n]; ok && owner != u.Name {
				return &PosError{Pos: u.Pos, Msg: fmt.Sprintf("%s: generated name %s is also declared by union %s", u.Name, n, owner)}
			}
			owners[n] = u.Name
		}
	}
	return nil
}

// outputName maps unions.go to unions_wire.go
func outputName(source string) string {
	return strings.TrimSuffix(source, ".go") + "_wire.go"
}

var fileTemplate = func() *template.Template {
	t := template.Must(template.New("file").Funcs(template.FuncMap{
		"encode":    encodeField,
		"decode":    decodeField,
		"quoteList": quoteList,
		"join":      func(items []string) string { return strings.Join(items, ", ") },
		"params":    ctorParams,
		"inits":     ctorInits,
		"format":    stringFormat,
		"args":      stringArgs,
		"tagName":   func(union string, v *Variant) string { return union + v.Name + "Tag" },
		"backquote": func(s string) string { return "`" + s + "`" },
	}).Parse(fileText))
	template.Must(t.New("union").Parse(unionText))
	return t
}()

func encodeField(f *Field) string {
	return strings.TrimSuffix(f.Codec.encode("v."+f.Name, 0), "\n")
}

func decodeField(f *Field) string {
	return strings.TrimSuffix(f.Codec.decode("v."+f.Name, 0), "\n")
}

func ctorParams(v *Variant) string {
	params := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		params[i] = f.Param + " " + f.Type
	}
	return strings.Join(params, ", ")
}

func ctorInits(v *Variant) string {
	inits := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		inits[i] = f.Name + ": " + f.Param
	}
	return strings.Join(inits, ", ")
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}

// stringFormat builds the fmt verb string of a variant's String method
func stringFormat(v *Variant) string {
	parts := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		if v.Shape == Named {
			parts[i] = f.Name + ": %v"
		} else {
			parts[i] = "%v"
		}
	}
	if v.Shape == Named {
		return fmt.Sprintf("%q", v.Name+"{"+strings.Join(parts, ", ")+"}")
	}
	return fmt.Sprintf("%q", v.Name+"("+strings.Join(parts, ", ")+")")
}

func stringArgs(v *Variant) string {
	args := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		args[i] = "v." + f.Name
	}
	return strings.Join(args, ", ")
}


// Templates emit each line as "\n<line>" and trim before every control
// action, so blank lines only appear where written at the start of a block.

const fileText = `// Code generated by wiresplit from {{.Source}}; DO NOT EDIT.

package {{.Package}}

import (
{{.Imports}}
)
{{- range .Unions}}{{template "union" .}}{{end}}
`

const unionText = `

// {{.Name}} is one of {{join .Names}}.
type {{.Name}} interface {
	is{{.Name}}()
	{{.Name}}Tag() uint8
{{- if .Has "codec"}}
	MarshalWire(w *{{.Wire}}.Writer)
{{- end}}
}

// Discriminants of {{.Name}}
const (
{{- range .Variants}}
	{{tagName $.Name .}} uint8 = {{.Tag}}
{{- end}}
)
{{- range .Variants}}

type {{.Name}} struct{{if .Fields}} {
{{- range .Fields}}
	{{.Name}} {{.Type}}{{if .StructTag}} {{backquote .StructTag}}{{end}}
{{- end}}
}{{else}}{}{{end}}
{{- if eq .Shape 2}}

func New{{.Name}}({{params .}}) {{.Name}} {
	return {{.Name}}{ {{- inits .}}}
}
{{- end}}

func ({{.Name}}) is{{$.Name}}() {}

func ({{.Name}}) {{$.Name}}Tag() uint8 { return {{tagName $.Name .}} }
{{- if $.Has "codec"}}
{{- if .Fields}}

func (v {{.Name}}) MarshalWire(w *{{$.Wire}}.Writer) {
{{- range .Fields}}
	{{encode .}}
{{- end}}
}

func (v *{{.Name}}) UnmarshalWire(r *{{$.Wire}}.Reader) (err error) {
{{- range .Fields}}
	{{decode .}}
{{- end}}
	return nil
}
{{- else}}

func ({{.Name}}) MarshalWire(*{{$.Wire}}.Writer) {}

func (*{{.Name}}) UnmarshalWire(*{{$.Wire}}.Reader) error { return nil }
{{- end}}
{{- end}}
{{- if $.Has "stringer"}}
{{- if .Fields}}

func (v {{.Name}}) String() string {
	return fmt.Sprintf({{format .}}, {{args .}})
}
{{- else}}

func ({{.Name}}) String() string { return {{printf "%q" .Name}} }
{{- end}}
{{- end}}
{{- end}}
{{- if .Has "codec"}}

// Encode{{.Name}} writes the discriminant of v followed by its fields. A nil v
// is written as discriminant {{.NilTag}}, which no variant uses, so it fails to
// decode.
func Encode{{.Name}}(w *{{.Wire}}.Writer, v {{.Name}}) {
	if v == nil {
		w.Uint8({{.NilTag}})
		return
	}
	w.Uint8(v.{{.Name}}Tag())
	v.MarshalWire(w)
}

// Decode{{.Name}} reads a discriminant and the fields of the matching variant
func Decode{{.Name}}(r *{{.Wire}}.Reader) ({{.Name}}, error) {
	tag, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	switch tag {
{{- range .Variants}}
	case {{tagName $.Name .}}:
		var v {{.Name}}
		if err := v.UnmarshalWire(r); err != nil {
			return nil, fmt.Errorf("{{$.Name}}.{{.Name}}: %w", err)
		}
		return v, nil
{{- end}}
	}
	return nil, &{{.Wire}}.DecodeError{Type: {{printf "%q" .Name}}, Got: strconv.Itoa(int(tag)), Allowed: []string{ {{- quoteList .Allowed -}} }}
}

// {{.Name}}Codec carries {{.Name}} payloads inside wire envelopes.
// The text form is {"type":"<variant>","value":{...}}.
var {{.Name}}Codec {{.Wire}}.PayloadCodec[{{.Name}}] = wire{{.Name}}Codec{}

type wire{{.Name}}Codec struct{}

func (wire{{.Name}}Codec) EncodeWire(w *{{.Wire}}.Writer, v {{.Name}}) { Encode{{.Name}}(w, v) }

func (wire{{.Name}}Codec) DecodeWire(r *{{.Wire}}.Reader) ({{.Name}}, error) { return Decode{{.Name}}(r) }

func (wire{{.Name}}Codec) EncodeText(v {{.Name}}) ([]byte, error) {
	var name string
	switch v.(type) {
{{- range .Variants}}
	case {{.Name}}:
		name = {{printf "%q" .Name}}
{{- end}}
	default:
		return nil, fmt.Errorf("{{.Package}}: cannot encode %T as {{.Name}}", v)
	}
	return {{.Wire}}.MarshalUnionText(name, v)
}

func (wire{{.Name}}Codec) DecodeText(data []byte) ({{.Name}}, error) {
	name, value, err := {{.Wire}}.UnmarshalUnionText(data, {{printf "%q" .Name}})
	if err != nil {
		return nil, err
	}
	switch name {
{{- range .Variants}}
	case {{printf "%q" .Name}}:
		var v {{.Name}}
		if err := {{$.Wire}}.UnmarshalStrict(value, &v); err != nil {
			return nil, fmt.Errorf("{{$.Name}}.{{.Name}}: %w", err)
		}
		return v, nil
{{- end}}
	}
	return nil, &{{.Wire}}.DecodeError{Type: {{printf "%q" .Name}}, Got: strconv.Quote(name), Allowed: []string{ {{- quoteList .Names -}} }}
}
{{- end}}`
