package main

import (
	"encoding/json"
	"os"

	"github.com/CryZe/lasr-compiler/application/assembler"
)

func runExtract(e *env, args []string) error {
	fs := e.flags("extract", "<artifact>")
	output := fs.String("o", "", "write the script to a file instead of stdout")
	if err := e.parse(fs, args, 1, 1); err != nil {
		return err
	}
	artifact, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	script, err := assembler.Extract(artifact)
	if err != nil {
		return err
	}
	if *output != "" {
		return os.WriteFile(*output, script, 0o644)
	}
	_, err = e.stdout.Write(script)
	return err
}

func runInspect(e *env, args []string) error {
	fs := e.flags("inspect", "<artifact>")
	if err := e.parse(fs, args, 1, 1); err != nil {
		return err
	}
	artifact, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	report, err := assembler.Inspect(artifact)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
