package splitgen

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Config selects the unions to split
type Config struct {
	Dir       string   // package directory, default "."
	TypeNames []string // declarations to split, all in one source file
	Output    string   // output file, default <source>_wire.go next to the source
}

// Generate finds cfg.TypeNames in cfg.Dir, splits them and writes one
// output file. It returns the path written.
func Generate(cfg Config) (string, error) {
	if len(cfg.TypeNames) == 0 {
		return "", errors.New("splitgen: type name is required")
	}
	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}

	files, err := parseDir(dir)
	if err != nil {
		return "", err
	}

	var (
		source string
		unions []*Union
	)
	for _, name := range cfg.TypeNames {
		path, u, err := find(files, name)
		if err != nil {
			return "", fmt.Errorf("%w in %s", err, dir)
		}
		if source != "" && path != source {
			return "", fmt.Errorf("splitgen: %s is declared in %s, not %s", name, path, source)
		}
		source = path
		unions = append(unions, u)
	}

	out, err := Render(filepath.Base(source), unions...)
	if err != nil {
		return "", err
	}

	output := cfg.Output
	if output == "" {
		output = outputName(source)
	} else if !filepath.IsAbs(output) {
		output = filepath.Join(dir, output)
	}

	if err := os.WriteFile(output, out, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", output, err)
	}
	return output, nil
}

type parsedFile struct {
	path string
	fset *token.FileSet
	file *ast.File
}

// parseDir parses the non-test, non-generated sources of dir
func parseDir(dir string) ([]parsedFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") ||
			strings.HasSuffix(name, "_test.go") || strings.HasSuffix(name, "_wire.go") {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	sort.Strings(paths)

	fset := token.NewFileSet()
	files := make([]parsedFile, 0, len(paths))
	for _, path := range paths {
		file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if err != nil {
			return nil, err
		}
		files = append(files, parsedFile{path: path, fset: fset, file: file})
	}
	return files, nil
}

func find(files []parsedFile, typeName string) (string, *Union, error) {
	for _, f := range files {
		u, err := ParseFile(f.fset, f.file, typeName)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return "", nil, err
		}
		return f.path, u, nil
	}
	return "", nil, fmt.Errorf("%w: %s", ErrNotFound, typeName)
}
