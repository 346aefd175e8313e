package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/CryZe/lasr-compiler/application/runtime"
	"github.com/CryZe/lasr-compiler/application/scheduler"
	"github.com/CryZe/lasr-compiler/config"
	"github.com/CryZe/lasr-compiler/domain/entities"
	domainerrors "github.com/CryZe/lasr-compiler/domain/errors"
	"github.com/CryZe/lasr-compiler/host"
	"github.com/CryZe/lasr-compiler/internal/wasmbin"
	"github.com/CryZe/lasr-compiler/testing/hosttest"
)

// DefaultImageBase is where -image maps the main module.
const DefaultImageBase entities.Address = 0x400000

// consoleHost echoes script output as it happens.
type consoleHost struct {
	*hosttest.FakeHost
	out io.Writer
}

func (h consoleHost) PrintMessage(msg string) {
	h.FakeHost.PrintMessage(msg)
	fmt.Fprintln(h.out, msg)
}

// ticker is an artifact instance or a natively booted script.
type ticker interface {
	Tick(ctx context.Context) error
}

type nativeTicker struct{ rt *runtime.Runtime }

func (n nativeTicker) Tick(ctx context.Context) error {
	err := n.rt.Tick(ctx)
	if n.rt.State() == scheduler.Broken {
		return err
	}
	// Callback errors were logged by the scheduler and do not stop the run.
	return nil
}

func runRun(e *env, args []string) error {
	fs := e.flags("run", "<artifact|script>")
	ticks := fs.Int("ticks", 0, "number of ticks (default: scenario, then project, then 1)")
	process := fs.String("process", "", "add an attachable process with this name")
	imagePath := fs.String("image", "", "map a file as the -process main module at 0x400000")
	scenarioPath := fs.String("scenario", "", "YAML scenario describing the target host")
	if err := e.parse(fs, args, 1, 1); err != nil {
		return err
	}
	if *imagePath != "" && *process == "" {
		return errors.New("-image needs -process")
	}
	p, err := e.project()
	if err != nil {
		return err
	}

	fake, n, err := buildHost(p, *scenarioPath, *process, *imagePath)
	if err != nil {
		return err
	}
	if *ticks > 0 {
		n = *ticks
	}
	if n <= 0 {
		n = 1
	}
	h := consoleHost{FakeHost: fake, out: e.stdout}

	input, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	ctx := context.Background()
	var t ticker
	if bytes.HasPrefix(input, wasmbin.Magic) {
		ex, err := host.NewExecutor(ctx, h, host.WithLogger(e.logger), host.WithStderr(e.stderr))
		if err != nil {
			return err
		}
		defer ex.Close(ctx)
		inst, err := ex.LoadArtifact(ctx, input)
		if err != nil {
			return err
		}
		t = inst
	} else {
		rt, err := runtime.New(h, input, runtime.WithLogger(e.logger), runtime.WithConfig(p.Runtime))
		if err != nil {
			return err
		}
		defer rt.Close()
		t = nativeTicker{rt}
	}

	seen := 0
	for i := 1; i <= n; i++ {
		err := t.Tick(ctx)
		report(e.stdout, i, fake, &seen)
		if err != nil {
			if errors.Is(err, domainerrors.ErrBroken) {
				return fmt.Errorf("tick %d: script is broken", i)
			}
			return fmt.Errorf("tick %d: %w", i, err)
		}
	}
	printVariables(e.stdout, fake.Variables)
	return nil
}

// buildHost assembles the fake host from the scenario and the -process and
// -image flags. It also returns the scenario's tick count, falling back to
// the project's.
func buildHost(p *config.Project, scenarioPath, process, imagePath string) (*hosttest.FakeHost, int, error) {
	if scenarioPath == "" {
		scenarioPath = p.Resolve(p.Scenario)
	}
	fake := hosttest.New()
	ticks := p.Ticks
	if scenarioPath != "" {
		s, err := config.LoadScenario(scenarioPath)
		if err != nil {
			return nil, 0, err
		}
		if fake, err = hosttest.FromScenario(s); err != nil {
			return nil, 0, err
		}
		if s.Ticks > 0 {
			ticks = s.Ticks
		}
	}
	if process != "" {
		proc := &hosttest.Process{Name: process}
		if imagePath != "" {
			data, err := os.ReadFile(imagePath)
			if err != nil {
				return nil, 0, err
			}
			proc.Modules = []entities.Module{{Name: process, Base: DefaultImageBase, Size: uint64(len(data))}}
			proc.Regions = []hosttest.Region{{Base: DefaultImageBase, Data: data, Flags: entities.MemoryRead}}
		}
		fake.AddProcess(proc)
	}
	return fake, ticks, nil
}

// report prints the timer commands and variable writes of one tick.
func report(w io.Writer, tick int, h *hosttest.FakeHost, seen *int) {
	for _, ev := range h.Events {
		fmt.Fprintf(w, "tick %d: %s\n", tick, ev)
	}
	for _, v := range h.VariableWrites[*seen:] {
		fmt.Fprintf(w, "tick %d: %s = %q\n", tick, v.Key, v.Value)
	}
	*seen = len(h.VariableWrites)
	h.ClearEvents()
}

func printVariables(w io.Writer, vars map[string]string) {
	if len(vars) == 0 {
		return
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintln(w, "variables:")
	for _, k := range keys {
		fmt.Fprintf(w, "  %s = %q\n", k, vars[k])
	}
}
