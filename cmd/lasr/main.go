// Command lasr compiles Lua auto splitters into auto splitter modules and
// runs them against a simulated target host.
//
// Usage:
//
//	lasr compile [-template f] [-o out] [-max-size n] <script> [output]
//	lasr extract [-o out] <artifact>
//	lasr inspect <artifact>
//	lasr run [-ticks n] [-process name] [-image file] [-scenario file] <artifact|script>
//	lasr schema [project|scenario]
//	lasr version
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	lasr "github.com/CryZe/lasr-compiler"
	"github.com/CryZe/lasr-compiler/config"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type command struct {
	name    string
	summary string
	run     func(env *env, args []string) error
}

var commands = []command{
	{"compile", "embed a script into the runtime template", runCompile},
	{"extract", "print the script embedded in an artifact", runExtract},
	{"inspect", "describe an artifact as JSON", runInspect},
	{"run", "tick an artifact or script against a simulated host", runRun},
	{"schema", "print the JSON schema of the project or scenario file", runSchema},
	{"version", "print the compiler version", runVersion},
}

// env carries the streams and the shared flags of one invocation.
type env struct {
	stdout, stderr io.Writer
	logger         *slog.Logger

	verbose     bool
	projectPath string
}

// errUsage reports bad arguments; the flag set already printed why.
var errUsage = errors.New("usage")

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" || args[0] == "--help" {
		usage(stderr)
		if len(args) == 0 {
			return 2
		}
		return 0
	}
	e := &env{stdout: stdout, stderr: stderr}
	for _, c := range commands {
		if c.name != args[0] {
			continue
		}
		err := c.run(e, args[1:])
		switch {
		case err == nil:
			return 0
		case errors.Is(err, flag.ErrHelp):
			return 0
		case errors.Is(err, errUsage):
			return 2
		default:
			fmt.Fprintf(stderr, "lasr %s: %v\n", c.name, err)
			return 1
		}
	}
	fmt.Fprintf(stderr, "lasr: unknown command %q\n\n", args[0])
	usage(stderr)
	return 2
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: lasr <command> [options] [args]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(w, "\nRun 'lasr <command> -h' for the options of a command.\n")
}

// flags returns a flag set carrying the shared -v and -project flags.
func (e *env) flags(name, args string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.BoolVar(&e.verbose, "v", false, "verbose logging")
	fs.StringVar(&e.projectPath, "project", "", "project file (default: lasr.yaml, lasr.yml or lasr.toml in the working directory)")
	fs.Usage = func() {
		fmt.Fprintf(e.stderr, "Usage: lasr %s [options] %s\n\nOptions:\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

// parse parses args and sets up logging. min and max bound the number of
// positional arguments.
func (e *env) parse(fs *flag.FlagSet, args []string, min, max int) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	if n := fs.NArg(); n < min || n > max {
		fs.Usage()
		return errUsage
	}
	level := slog.LevelInfo
	if e.verbose {
		level = slog.LevelDebug
	}
	e.logger = slog.New(slog.NewTextHandler(e.stderr, &slog.HandlerOptions{Level: level}))
	return nil
}

// project loads the project file named by -project, or the one in the
// working directory. A missing default project is not an error.
func (e *env) project() (*config.Project, error) {
	if e.projectPath != "" {
		return config.LoadProject(e.projectPath)
	}
	path, err := config.FindProject(".")
	if errors.Is(err, config.ErrNoProject) {
		return &config.Project{}, nil
	}
	if err != nil {
		return nil, err
	}
	e.logger.Debug("lasr: using project file", "path", path)
	return config.LoadProject(path)
}

func runVersion(e *env, args []string) error {
	fs := e.flags("version", "")
	if err := e.parse(fs, args, 0, 0); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "lasr %s\n", lasr.Version)
	return nil
}

func runSchema(e *env, args []string) error {
	fs := e.flags("schema", "[project|scenario]")
	if err := e.parse(fs, args, 0, 1); err != nil {
		return err
	}
	kind := config.SchemaProject
	if fs.NArg() == 1 {
		kind = fs.Arg(0)
	}
	out, err := config.GenerateSchema(kind)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.stdout, "%s\n", out)
	return err
}
