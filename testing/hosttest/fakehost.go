// Package hosttest provides an in-memory target host for exercising the
// runtime without an auto-splitter host: fake processes with modules and
// memory regions, a timer that follows the commands it receives, and
// recorders for variables, log lines and settings.
package hosttest

import (
	"fmt"
	"strings"
	"time"

	"github.com/CryZe/lasr-compiler/domain/entities"
	"github.com/CryZe/lasr-compiler/domain/ports"
)

// Region is a readable range of a fake process.
type Region struct {
	Data  []byte
	Base  entities.Address
	Flags uint64
}

// Process is a fake target process.
type Process struct {
	Name    string
	Modules []entities.Module
	Regions []Region
	closed  bool
}

// Close makes the process look exited.
func (p *Process) Close() { p.closed = true }

// Write copies data into the region covering addr.
func (p *Process) Write(addr entities.Address, data []byte) error {
	for _, r := range p.Regions {
		if addr >= r.Base && uint64(addr-r.Base)+uint64(len(data)) <= uint64(len(r.Data)) {
			copy(r.Data[addr-r.Base:], data)
			return nil
		}
	}
	return fmt.Errorf("hosttest: %d bytes at %#x are not mapped in %s", len(data), uint64(addr), p.Name)
}

func (p *Process) read(addr entities.Address, buf []byte) bool {
	for _, r := range p.Regions {
		if addr >= r.Base && uint64(addr-r.Base)+uint64(len(buf)) <= uint64(len(r.Data)) {
			copy(buf, r.Data[addr-r.Base:])
			return true
		}
	}
	return false
}

func (p *Process) module(name string) (entities.Module, bool) {
	for _, m := range p.Modules {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return entities.Module{}, false
}

// FakeHost implements ports.Host in memory.
type FakeHost struct {
	handles   map[entities.ProcessID]*Process
	processes []*Process

	// Variables holds the last value forwarded for each key.
	Variables map[string]string
	// VariableWrites records every SetVariable call in order.
	VariableWrites []entities.Variable
	// Messages records PrintMessage lines.
	Messages []string
	// Events records timer commands: "start", "split", "reset",
	// "pause_game_time", "resume_game_time".
	Events []string
	// BoolSettings are the user's stored choices returned by AddBoolSetting.
	BoolSettings map[string]bool
	// Declared lists settings keys in registration order.
	Declared []string

	GameTime       time.Duration
	TickRate       float64
	AttachCalls    int
	nextPID        entities.ProcessID
	State          entities.TimerState
	GameTimePaused bool
}

var _ ports.Host = (*FakeHost)(nil)

// New returns an empty host with the timer not running.
func New() *FakeHost {
	return &FakeHost{
		handles:      make(map[entities.ProcessID]*Process),
		Variables:    make(map[string]string),
		BoolSettings: make(map[string]bool),
	}
}

// AddProcess makes p attachable and returns it.
func (h *FakeHost) AddProcess(p *Process) *Process {
	h.processes = append(h.processes, p)
	return p
}

// Process returns the most recently added running process called name.
func (h *FakeHost) Process(name string) *Process {
	for i := len(h.processes) - 1; i >= 0; i-- {
		if p := h.processes[i]; !p.closed && strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

// Attached returns the processes currently holding a handle.
func (h *FakeHost) Attached() int {
	return len(h.handles)
}

// Attach implements ports.ProcessHost.
func (h *FakeHost) Attach(name string) (entities.ProcessID, bool) {
	h.AttachCalls++
	p := h.Process(name)
	if p == nil {
		return 0, false
	}
	h.nextPID++
	h.handles[h.nextPID] = p
	return h.nextPID, true
}

// Detach implements ports.ProcessHost.
func (h *FakeHost) Detach(pid entities.ProcessID) {
	delete(h.handles, pid)
}

// IsOpen implements ports.ProcessHost.
func (h *FakeHost) IsOpen(pid entities.ProcessID) bool {
	p, ok := h.handles[pid]
	return ok && !p.closed
}

func (h *FakeHost) open(pid entities.ProcessID) *Process {
	if p, ok := h.handles[pid]; ok && !p.closed {
		return p
	}
	return nil
}

// Read implements ports.ProcessHost.
func (h *FakeHost) Read(pid entities.ProcessID, addr entities.Address, buf []byte) bool {
	p := h.open(pid)
	return p != nil && p.read(addr, buf)
}

// ModuleAddress implements ports.ProcessHost.
func (h *FakeHost) ModuleAddress(pid entities.ProcessID, name string) (entities.Address, bool) {
	if p := h.open(pid); p != nil {
		if m, ok := p.module(name); ok {
			return m.Base, true
		}
	}
	return 0, false
}

// ModuleSize implements ports.ProcessHost.
func (h *FakeHost) ModuleSize(pid entities.ProcessID, name string) (uint64, bool) {
	if p := h.open(pid); p != nil {
		if m, ok := p.module(name); ok {
			return m.Size, true
		}
	}
	return 0, false
}

// MemoryRangeCount implements ports.ProcessHost.
func (h *FakeHost) MemoryRangeCount(pid entities.ProcessID) (uint64, bool) {
	if p := h.open(pid); p != nil {
		return uint64(len(p.Regions)), true
	}
	return 0, false
}

// MemoryRange implements ports.ProcessHost.
func (h *FakeHost) MemoryRange(pid entities.ProcessID, index uint64) (entities.MemoryMap, bool) {
	p := h.open(pid)
	if p == nil || index >= uint64(len(p.Regions)) {
		return entities.MemoryMap{}, false
	}
	r := p.Regions[index]
	return entities.MemoryMap{Base: r.Base, Size: uint64(len(r.Data)), Flags: r.Flags}, true
}

// TimerState implements ports.TimerHost.
func (h *FakeHost) TimerState() entities.TimerState { return h.State }

// Start implements ports.TimerHost.
func (h *FakeHost) Start() {
	h.Events = append(h.Events, "start")
	if h.State == entities.TimerNotRunning {
		h.State = entities.TimerRunning
	}
}

// Split implements ports.TimerHost.
func (h *FakeHost) Split() {
	h.Events = append(h.Events, "split")
}

// Reset implements ports.TimerHost.
func (h *FakeHost) Reset() {
	h.Events = append(h.Events, "reset")
	h.State = entities.TimerNotRunning
	h.GameTime = 0
	h.GameTimePaused = false
}

// SetGameTime implements ports.TimerHost.
func (h *FakeHost) SetGameTime(d time.Duration) { h.GameTime = d }

// PauseGameTime implements ports.TimerHost.
func (h *FakeHost) PauseGameTime() {
	h.Events = append(h.Events, "pause_game_time")
	h.GameTimePaused = true
}

// ResumeGameTime implements ports.TimerHost.
func (h *FakeHost) ResumeGameTime() {
	h.Events = append(h.Events, "resume_game_time")
	h.GameTimePaused = false
}

// SetVariable implements ports.TimerHost.
func (h *FakeHost) SetVariable(key, value string) {
	h.Variables[key] = value
	h.VariableWrites = append(h.VariableWrites, entities.Variable{Key: key, Value: value})
}

// SetTickRate implements ports.RuntimeHost.
func (h *FakeHost) SetTickRate(hz float64) { h.TickRate = hz }

// PrintMessage implements ports.RuntimeHost.
func (h *FakeHost) PrintMessage(msg string) {
	h.Messages = append(h.Messages, msg)
}

// AddBoolSetting implements ports.SettingsHost.
func (h *FakeHost) AddBoolSetting(key, _ string, def bool) bool {
	h.Declared = append(h.Declared, key)
	if v, ok := h.BoolSettings[key]; ok {
		return v
	}
	return def
}

// ClearEvents forgets recorded timer commands and log lines.
func (h *FakeHost) ClearEvents() {
	h.Events = nil
	h.Messages = nil
}
