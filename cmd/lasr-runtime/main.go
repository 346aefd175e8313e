//go:build wasip1

package main

import (
	"log/slog"

	"github.com/CryZe/lasr-compiler/application/guest"
	"github.com/CryZe/lasr-compiler/infrastructure/wasm"
	"github.com/CryZe/lasr-compiler/internal/region"
	"github.com/CryZe/lasr-compiler/log"
)

// scriptRegion is the only copy of the region marker in the module. The
// assembler finds it by its magic and fills in the length and payload.
var scriptRegion = [region.HeaderSize + region.DefaultCapacity]byte{
	'L', 'A', 'S', 'R', '-', 'S', 'C', 'R', 'I', 'P', 'T', '-', 'v', '1', 0xa5, 0x5a,
	region.DefaultCapacity & 0xff,
	(region.DefaultCapacity >> 8) & 0xff,
	(region.DefaultCapacity >> 16) & 0xff,
	(region.DefaultCapacity >> 24) & 0xff,
}

var exports *guest.Exports

func init() {
	host := wasm.NewHost()
	logger := slog.New(log.NewHandler(host))
	slog.SetDefault(logger)
	exports = guest.New(host, scriptRegion[:], logger)
}

// main is not called in -buildmode=c-shared.
func main() {}

//go:wasmexport startup
func startup() int32 { return exports.Startup() }

//go:wasmexport state
func state() { exports.State() }

//go:wasmexport update
func update() int32 { return exports.Answer("update") }

//go:wasmexport start
func start() int32 { return exports.Answer("start") }

//go:wasmexport split
func split() int32 { return exports.Answer("split") }

//go:wasmexport isLoading
func isLoading() int32 { return exports.Answer("isLoading") }

//go:wasmexport reset
func reset() int32 { return exports.Answer("reset") }

//go:wasmexport gameTime
func gameTime() float64 { return exports.GameTime() }

//go:wasmexport tick
func tick() int32 { return exports.Tick() }
