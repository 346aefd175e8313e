// Package wazero serves the env imports of an auto splitter module from a
// ports.Host, so artifacts can run under the wazero runtime outside of an
// auto splitting host.
//
// # Basic Usage
//
//	runtime := wazero.NewRuntime(ctx)
//	host := hosttest.New()
//	err := wazero.RegisterWithRuntime(ctx, runtime, host)
//
// Strings are passed as (ptr, len) pairs into guest memory; memory reads
// are copied into the guest buffer named by process_read.
package wazero
