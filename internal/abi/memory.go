//go:build wasip1

package abi

import "unsafe"

// StringPtr returns the linear memory address and length of s. The caller
// must keep s alive across the host call.
func StringPtr(s string) (ptr, length uint32) {
	if len(s) == 0 {
		return 0, 0
	}
	//nolint:gosec // G103: Valid unsafe.Pointer use for WASM linear memory access
	return uint32(uintptr(unsafe.Pointer(unsafe.StringData(s)))), uint32(len(s))
}

// BytesPtr returns the linear memory address and length of b. The caller
// must keep b alive across the host call.
func BytesPtr(b []byte) (ptr, length uint32) {
	if len(b) == 0 {
		return 0, 0
	}
	//nolint:gosec // G103: Valid unsafe.Pointer use for WASM linear memory access
	return uint32(uintptr(unsafe.Pointer(&b[0]))), uint32(len(b))
}
