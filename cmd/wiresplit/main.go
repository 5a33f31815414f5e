// Package main splits a tagged union declaration into one type per variant.
//
// Usage from a go:generate line:
//
//	//go:generate go run github.com/ZentaChain/zentalk-wire/cmd/wiresplit -type=action
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ZentaChain/zentalk-wire/pkg/splitgen"
)

func main() {
	typeNames := flag.String("type", "", "Comma-separated union declarations to split, all from one file (required)")
	output := flag.String("output", "", "Output file (default <source>_wire.go)")
	dir := flag.String("dir", ".", "Package directory")
	verbose := flag.Bool("v", false, "Log generated files")

	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *typeNames == "" {
		fmt.Fprintln(os.Stderr, "Error: -type flag is required")
		flag.Usage()
		os.Exit(2)
	}

	var names []string
	for _, name := range strings.Split(*typeNames, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}

	written, err := splitgen.Generate(splitgen.Config{
		Dir:       *dir,
		TypeNames: names,
		Output:    *output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "wiresplit: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		logger.Info("generated", "types", names, "file", written)
	}
}
