package host

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/CryZe/lasr-compiler/application/assembler"
	"github.com/CryZe/lasr-compiler/testing/hosttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildRuntime compiles cmd/lasr-runtime for wasip1 the way go generate
// does and returns the template bytes.
func buildRuntime(t *testing.T) []byte {
	t.Helper()
	if testing.Short() {
		t.Skip("builds the wasm runtime")
	}
	gobin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go toolchain not available")
	}

	out := filepath.Join(t.TempDir(), "lasr-runtime.wasm")
	cmd := exec.Command(gobin, "build", "-buildmode=c-shared", "-o", out, "./cmd/lasr-runtime")
	cmd.Dir = ".."
	cmd.Env = append(os.Environ(), "GOOS=wasip1", "GOARCH=wasm")
	msg, err := cmd.CombinedOutput()
	require.NoError(t, err, "%s", msg)

	wasm, err := os.ReadFile(out)
	require.NoError(t, err)
	return wasm
}

func TestShippedRuntimeRunsEmbeddedScript(t *testing.T) {
	template := buildRuntime(t)
	ctx := context.Background()

	artifact, err := assembler.Assemble(template, []byte(`
		ticks = 0
		function update()
			ticks = ticks + 1
			setVariable("x", tostring(ticks))
		end
	`))
	require.NoError(t, err)

	again, err := assembler.Assemble(template, []byte(`
		ticks = 0
		function update()
			ticks = ticks + 1
			setVariable("x", tostring(ticks))
		end
	`))
	require.NoError(t, err)
	assert.Equal(t, artifact, again)

	host := hosttest.New()
	inst, err := newExecutor(t, host).LoadArtifact(ctx, artifact)
	require.NoError(t, err)
	defer inst.Close(ctx)

	require.NoError(t, inst.Tick(ctx))
	hosttest.AssertVariable(t, host, "x", "1")
	require.NoError(t, inst.Tick(ctx))
	hosttest.AssertVariable(t, host, "x", "2")
}

func TestShippedRuntimeBreaksOnBadScript(t *testing.T) {
	template := buildRuntime(t)
	ctx := context.Background()

	artifact, err := assembler.Assemble(template, []byte(`function update(`))
	require.NoError(t, err)

	inst, err := newExecutor(t, hosttest.New()).LoadArtifact(ctx, artifact)
	require.NoError(t, err)
	defer inst.Close(ctx)

	assert.Error(t, inst.Tick(ctx))
}
