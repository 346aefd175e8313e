// Package host runs assembled auto splitter artifacts on wazero.
//
// An Executor owns a wazero runtime with WASI and the env host module
// backed by a ports.Host, usually a testing/hosttest fake. Instances expose
// the artifact's lifecycle exports with their results decoded, which is
// what `lasr run` drives tick by tick.
package host
