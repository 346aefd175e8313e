// Package ports defines the boundary between the runtime and the target host.
// The runtime depends only on these interfaces; the wasm import adapter, the
// wazero-backed simulator and the test fake implement them.
package ports
