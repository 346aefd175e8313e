// Package lasr embeds the runtime template and names the exports of an
// assembled auto splitter module.
package lasr

import (
	"embed"
	"errors"
	"io/fs"
)

//go:generate env GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o runtime/lasr-runtime.wasm ./cmd/lasr-runtime

//go:embed runtime
var runtimeFS embed.FS

// RuntimeWASMFilename is the template's path inside the embedded directory.
const RuntimeWASMFilename = "runtime/lasr-runtime.wasm"

// ErrNoRuntime is returned by RuntimeWASM when the template was not built
// before the compiler.
var ErrNoRuntime = errors.New("runtime template not embedded; run go generate or pass a template")

// RuntimeWASM returns the embedded runtime template.
func RuntimeWASM() ([]byte, error) {
	b, err := runtimeFS.ReadFile(RuntimeWASMFilename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoRuntime
	}
	return b, err
}

// Lifecycle exports.
const (
	// ExportStartup runs the startup callback.
	// Signature: startup() -> i32
	// Returns: 0 on success, 1 when the runtime is broken.
	ExportStartup = "startup"

	// ExportState runs the state callback.
	// Signature: state() -> ()
	ExportState = "state"

	// ExportUpdate, ExportStart, ExportSplit, ExportIsLoading and
	// ExportReset run the matching callback.
	// Signature: f() -> i32
	// Returns: 1 true, 0 false, -1 no answer.
	ExportUpdate    = "update"
	ExportStart     = "start"
	ExportSplit     = "split"
	ExportIsLoading = "isLoading"
	ExportReset     = "reset"

	// ExportGameTime runs the gameTime callback.
	// Signature: gameTime() -> f64
	// Returns: milliseconds, NaN for no answer.
	ExportGameTime = "gameTime"

	// ExportTick runs a whole tick and drives the timer itself.
	// Signature: tick() -> i32
	// Returns: 0 on success, 1 when the runtime is broken.
	ExportTick = "tick"

	// ExportInitialize is the Go reactor initializer.
	ExportInitialize = "_initialize"
)
