// Command lasr-runtime is the runtime template. Built as a wasip1 reactor
// it boots the Lua script the assembler stores in its region and exports
// the lifecycle callbacks to the auto splitter host:
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o lasr-runtime.wasm ./cmd/lasr-runtime
package main
