package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lasr "github.com/CryZe/lasr-compiler"
	"github.com/CryZe/lasr-compiler/application/assembler"
)

// defaultOutput replaces the script's extension with .wasm.
func defaultOutput(script string) string {
	return strings.TrimSuffix(script, filepath.Ext(script)) + ".wasm"
}

func runCompile(e *env, args []string) error {
	fs := e.flags("compile", "<script> [output]")
	template := fs.String("template", "", "runtime template module (default: project template, then the embedded runtime)")
	output := fs.String("o", "", "output path (default: script path with .wasm)")
	maxSize := fs.Int("max-size", 0, "reject scripts larger than n bytes")
	if err := e.parse(fs, args, 1, 2); err != nil {
		return err
	}
	p, err := e.project()
	if err != nil {
		return err
	}

	scriptPath := fs.Arg(0)
	out := *output
	if out == "" {
		out = fs.Arg(1)
	}
	if out == "" {
		out = defaultOutput(scriptPath)
	}
	if *maxSize == 0 {
		*maxSize = int(p.MaxScriptSize)
	}

	var tmpl []byte
	switch {
	case *template != "":
		tmpl, err = os.ReadFile(*template)
	case p.Template != "":
		tmpl, err = os.ReadFile(p.Resolve(p.Template))
	default:
		tmpl, err = lasr.RuntimeWASM()
	}
	if err != nil {
		return fmt.Errorf("loading template: %w", err)
	}

	script, err := os.ReadFile(scriptPath)
	if err != nil {
		return err
	}
	artifact, err := assembler.Assemble(tmpl, script,
		assembler.WithMaxScriptSize(*maxSize),
		assembler.WithCompilerVersion("lasr "+lasr.Version),
	)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, artifact, 0o644); err != nil {
		return err
	}
	e.logger.Info("lasr: compiled", "script", scriptPath, "output", out, "bytes", len(artifact))
	return nil
}
