//go:build wasip1

// Package wasm implements the target host ports on top of the env imports
// of an auto splitter module.
package wasm

//go:wasmimport env process_attach
func processAttach(namePtr, nameLen uint32) uint64

//go:wasmimport env process_detach
func processDetach(pid uint64)

//go:wasmimport env process_is_open
func processIsOpen(pid uint64) uint32

//go:wasmimport env process_read
func processRead(pid, addr uint64, bufPtr, bufLen uint32) uint32

//go:wasmimport env process_get_module_address
func processGetModuleAddress(pid uint64, namePtr, nameLen uint32) uint64

//go:wasmimport env process_get_module_size
func processGetModuleSize(pid uint64, namePtr, nameLen uint32) uint64

//go:wasmimport env process_get_memory_range_count
func processGetMemoryRangeCount(pid uint64) uint64

//go:wasmimport env process_get_memory_range_address
func processGetMemoryRangeAddress(pid, idx uint64) uint64

//go:wasmimport env process_get_memory_range_size
func processGetMemoryRangeSize(pid, idx uint64) uint64

//go:wasmimport env process_get_memory_range_flags
func processGetMemoryRangeFlags(pid, idx uint64) uint64

//go:wasmimport env runtime_set_tick_rate
func runtimeSetTickRate(hz float64)

//go:wasmimport env runtime_print_message
func runtimePrintMessage(ptr, length uint32)

//go:wasmimport env timer_get_state
func timerGetState() uint32

//go:wasmimport env timer_start
func timerStart()

//go:wasmimport env timer_split
func timerSplit()

//go:wasmimport env timer_reset
func timerReset()

//go:wasmimport env timer_set_variable
func timerSetVariable(keyPtr, keyLen, valuePtr, valueLen uint32)

//go:wasmimport env timer_set_game_time
func timerSetGameTime(secs int64, nanos int32)

//go:wasmimport env timer_pause_game_time
func timerPauseGameTime()

//go:wasmimport env timer_resume_game_time
func timerResumeGameTime()

//go:wasmimport env user_settings_add_bool
func userSettingsAddBool(keyPtr, keyLen, descPtr, descLen, def uint32) uint32
