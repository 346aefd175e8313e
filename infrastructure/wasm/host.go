//go:build wasip1

package wasm

import (
	"runtime"
	"time"

	"github.com/CryZe/lasr-compiler/domain/entities"
	"github.com/CryZe/lasr-compiler/domain/ports"
	"github.com/CryZe/lasr-compiler/internal/abi"
)

// Compile-time interface compliance check
var _ ports.Host = (*Host)(nil)

// Host forwards every port call to the env imports.
type Host struct{}

// NewHost returns the import-backed host.
func NewHost() *Host {
	return &Host{}
}

// Attach implements ports.ProcessHost.
func (h *Host) Attach(name string) (entities.ProcessID, bool) {
	p, n := abi.StringPtr(name)
	pid := entities.ProcessID(processAttach(p, n))
	runtime.KeepAlive(name)
	return pid, pid.Valid()
}

// Detach implements ports.ProcessHost.
func (h *Host) Detach(pid entities.ProcessID) {
	processDetach(uint64(pid))
}

// IsOpen implements ports.ProcessHost.
func (h *Host) IsOpen(pid entities.ProcessID) bool {
	return processIsOpen(uint64(pid)) != 0
}

// Read implements ports.ProcessHost.
func (h *Host) Read(pid entities.ProcessID, addr entities.Address, buf []byte) bool {
	if len(buf) == 0 {
		return true
	}
	p, n := abi.BytesPtr(buf)
	ok := processRead(uint64(pid), uint64(addr), p, n) != 0
	runtime.KeepAlive(buf)
	return ok
}

// ModuleAddress implements ports.ProcessHost.
func (h *Host) ModuleAddress(pid entities.ProcessID, name string) (entities.Address, bool) {
	p, n := abi.StringPtr(name)
	addr := processGetModuleAddress(uint64(pid), p, n)
	runtime.KeepAlive(name)
	return entities.Address(addr), addr != 0
}

// ModuleSize implements ports.ProcessHost.
func (h *Host) ModuleSize(pid entities.ProcessID, name string) (uint64, bool) {
	p, n := abi.StringPtr(name)
	size := processGetModuleSize(uint64(pid), p, n)
	runtime.KeepAlive(name)
	return size, size != 0
}

// MemoryRangeCount implements ports.ProcessHost.
func (h *Host) MemoryRangeCount(pid entities.ProcessID) (uint64, bool) {
	n := processGetMemoryRangeCount(uint64(pid))
	return n, n != 0
}

// MemoryRange implements ports.ProcessHost.
func (h *Host) MemoryRange(pid entities.ProcessID, index uint64) (entities.MemoryMap, bool) {
	size := processGetMemoryRangeSize(uint64(pid), index)
	if size == 0 {
		return entities.MemoryMap{}, false
	}
	return entities.MemoryMap{
		Base:  entities.Address(processGetMemoryRangeAddress(uint64(pid), index)),
		Size:  size,
		Flags: processGetMemoryRangeFlags(uint64(pid), index),
	}, true
}

// TimerState implements ports.TimerHost.
func (h *Host) TimerState() entities.TimerState {
	return entities.TimerState(timerGetState())
}

// Start implements ports.TimerHost.
func (h *Host) Start() { timerStart() }

// Split implements ports.TimerHost.
func (h *Host) Split() { timerSplit() }

// Reset implements ports.TimerHost.
func (h *Host) Reset() { timerReset() }

// SetGameTime implements ports.TimerHost.
func (h *Host) SetGameTime(d time.Duration) {
	timerSetGameTime(abi.SplitDuration(d))
}

// PauseGameTime implements ports.TimerHost.
func (h *Host) PauseGameTime() { timerPauseGameTime() }

// ResumeGameTime implements ports.TimerHost.
func (h *Host) ResumeGameTime() { timerResumeGameTime() }

// SetVariable implements ports.TimerHost.
func (h *Host) SetVariable(key, value string) {
	kp, kn := abi.StringPtr(key)
	vp, vn := abi.StringPtr(value)
	timerSetVariable(kp, kn, vp, vn)
	runtime.KeepAlive(key)
	runtime.KeepAlive(value)
}

// SetTickRate implements ports.RuntimeHost.
func (h *Host) SetTickRate(hz float64) { runtimeSetTickRate(hz) }

// PrintMessage implements ports.RuntimeHost.
func (h *Host) PrintMessage(msg string) {
	p, n := abi.StringPtr(msg)
	runtimePrintMessage(p, n)
	runtime.KeepAlive(msg)
}

// AddBoolSetting implements ports.SettingsHost.
func (h *Host) AddBoolSetting(key, description string, def bool) bool {
	kp, kn := abi.StringPtr(key)
	dp, dn := abi.StringPtr(description)
	var d uint32
	if def {
		d = 1
	}
	v := userSettingsAddBool(kp, kn, dp, dn, d)
	runtime.KeepAlive(key)
	runtime.KeepAlive(description)
	return v != 0
}
