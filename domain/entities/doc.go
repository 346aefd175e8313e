// Package entities provides the core domain types shared by the assembler and
// the runtime: the bridge value union, process and memory descriptions,
// settings, variables and timer state.
package entities
