//go:build !wasip1

package wasm

import (
	"github.com/CryZe/lasr-compiler/domain/ports"
)

// Host stub for native builds. The embedded ports.Host is nil.
type Host struct {
	ports.Host
}

// NewHost panics because the env imports only exist inside the module.
func NewHost() *Host {
	panic("wasm host not available in native build. Use testing/hosttest or the host package instead.")
}
