package ports

import (
	"time"

	"github.com/CryZe/lasr-compiler/domain/entities"
)

// ProcessHost attaches to and reads from target processes.
type ProcessHost interface {
	// Attach looks up a process by name. It never blocks; ok is false when
	// no such process is running.
	Attach(name string) (pid entities.ProcessID, ok bool)

	// Detach releases the handle. Detaching an unknown handle is a no-op.
	Detach(pid entities.ProcessID)

	// IsOpen reports whether the process behind pid is still running.
	IsOpen(pid entities.ProcessID) bool

	// Read fills buf from addr. It reports false, leaving buf unspecified,
	// when any part of the range is unreadable.
	Read(pid entities.ProcessID, addr entities.Address, buf []byte) bool

	// ModuleAddress returns the base address of the named module.
	ModuleAddress(pid entities.ProcessID, module string) (entities.Address, bool)

	// ModuleSize returns the size of the named module.
	ModuleSize(pid entities.ProcessID, module string) (uint64, bool)

	// MemoryRangeCount returns the number of mapped memory ranges.
	MemoryRangeCount(pid entities.ProcessID) (uint64, bool)

	// MemoryRange describes the range at index.
	MemoryRange(pid entities.ProcessID, index uint64) (entities.MemoryMap, bool)
}

// TimerHost drives the host-owned timer.
type TimerHost interface {
	TimerState() entities.TimerState
	Start()
	Split()
	Reset()
	SetGameTime(d time.Duration)
	PauseGameTime()
	ResumeGameTime()
	SetVariable(key, value string)
}

// RuntimeHost configures the runtime surroundings.
type RuntimeHost interface {
	// SetTickRate sets how often the host ticks the artifact, in Hz.
	SetTickRate(hz float64)

	// PrintMessage writes a line to the host log sink.
	PrintMessage(msg string)
}

// SettingsHost exposes user settings. The target host surface only knows
// boolean settings.
type SettingsHost interface {
	// AddBoolSetting registers a setting and returns its current value.
	AddBoolSetting(key, description string, def bool) bool
}

// Host is everything the runtime needs from its environment.
type Host interface {
	ProcessHost
	TimerHost
	RuntimeHost
	SettingsHost
}

// MemoryReader reads from one process. The signature scanner works against
// it rather than a full ProcessHost.
type MemoryReader interface {
	ReadMemory(addr entities.Address, buf []byte) bool
}

// MemoryReaderFunc adapts a function to MemoryReader.
type MemoryReaderFunc func(addr entities.Address, buf []byte) bool

// ReadMemory implements MemoryReader.
func (f MemoryReaderFunc) ReadMemory(addr entities.Address, buf []byte) bool {
	return f(addr, buf)
}

// ProcessReader binds a ProcessHost to one handle.
func ProcessReader(h ProcessHost, pid entities.ProcessID) MemoryReader {
	return MemoryReaderFunc(func(addr entities.Address, buf []byte) bool {
		return h.Read(pid, addr, buf)
	})
}
