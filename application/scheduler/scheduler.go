// Package scheduler drives the lifecycle callbacks of a loaded script: the
// per-tick sequence of process validation, attach retry, state, update and
// the timer queries.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/CryZe/lasr-compiler/application/bridge"
	"github.com/CryZe/lasr-compiler/application/settings"
	"github.com/CryZe/lasr-compiler/domain/entities"
	domainerrors "github.com/CryZe/lasr-compiler/domain/errors"
	lua "github.com/yuin/gopher-lua"
)

// State is the attach state of the scheduler.
type State int

const (
	// Searching has no process; every tick retries the requested name.
	Searching State = iota
	// Attached holds a process handle that has not ticked yet.
	Attached
	// Running ticks the callbacks against the attached process.
	Running
	// Broken is final: startup failed.
	Broken
)

func (s State) String() string {
	switch s {
	case Searching:
		return "searching"
	case Attached:
		return "attached"
	case Running:
		return "running"
	case Broken:
		return "broken"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Callbacks maps lifecycle names to the script functions defining them.
type Callbacks map[string]*lua.LFunction

// phase tracks how far a host-driven tick has progressed through Invoke.
type phase int

const (
	phaseIdle phase = iota
	phaseStated
	phaseUpdated
)

// Scheduler runs the callbacks of one script. It is not safe for
// concurrent use; the host drives it from a single thread.
type Scheduler struct {
	L         *lua.LState
	ctx       *bridge.Context
	callbacks Callbacks
	logger    *slog.Logger

	state    State
	started  bool
	phase    phase
	snapshot lua.LValue
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger for callback failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a scheduler in the Searching state.
func New(L *lua.LState, c *bridge.Context, callbacks Callbacks, opts ...Option) *Scheduler {
	s := &Scheduler{
		L:         L,
		ctx:       c,
		callbacks: callbacks,
		logger:    c.Logger(),
		snapshot:  lua.LNil,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current attach state.
func (s *Scheduler) State() State {
	return s.state
}

// Started reports whether Startup has run.
func (s *Scheduler) Started() bool {
	return s.started
}

// Startup runs the startup callback once and captures the configuration
// globals. A failure leaves the scheduler Broken.
func (s *Scheduler) Startup(ctx context.Context) error {
	if s.state == Broken {
		return domainerrors.ErrBroken
	}
	if s.started {
		return nil
	}
	s.started = true

	if _, _, err := s.call(ctx, entities.CallbackStartup); err != nil {
		s.state = Broken
		return &domainerrors.ScriptLoadError{Stage: "startup", Err: err}
	}
	reg := s.ctx.Settings()
	reg.Capture(readGlobals(s.L))
	reg.Apply(s.ctx.Host())
	s.flush()
	return nil
}

// Tick runs one full tick. Callback failures are logged and returned
// joined; their effects are dropped and the next tick runs normally.
func (s *Scheduler) Tick(ctx context.Context) error {
	if err := s.Startup(ctx); err != nil {
		return err
	}
	defer s.endTick()

	var errs []error
	running, err := s.begin(ctx, true)
	if err != nil {
		errs = append(errs, err)
	}
	if !running {
		return errors.Join(errs...)
	}

	if _, _, err := s.callState(ctx); err != nil {
		errs = append(errs, err)
	}
	ret, _, err := s.call(ctx, entities.CallbackUpdate, s.snapshot)
	if err != nil {
		errs = append(errs, err)
	} else if ret == lua.LFalse {
		return errors.Join(errs...)
	}

	if err := s.timerQueries(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// begin performs the attach part of a tick and reports whether the
// callbacks should run. With search set and no process ever requested it
// runs update so the script can call process(); that tick ends there, so
// state always precedes update within a tick.
func (s *Scheduler) begin(ctx context.Context, search bool) (bool, error) {
	if s.state != Searching && !s.ctx.Validate() {
		s.logger.Info("scheduler: process lost, searching")
		s.state = Searching
	}
	if s.state == Searching {
		switch {
		case s.ctx.Attached():
		case s.ctx.Wanted() != "":
			s.ctx.Reattach()
		case !search:
			return false, nil
		default:
			// No process requested yet; update is where scripts call process().
			_, _, err := s.call(ctx, entities.CallbackUpdate, lua.LNil)
			if s.ctx.Attached() {
				s.state = Attached
			}
			return false, err
		}
		if !s.ctx.Attached() {
			return false, nil
		}
		s.state = Attached
	}
	if s.state == Attached {
		s.state = Running
	}
	return true, nil
}

func (s *Scheduler) callState(ctx context.Context) (lua.LValue, bool, error) {
	ret, ok, err := s.call(ctx, entities.CallbackState)
	if ok && err == nil {
		s.snapshot = ret
	}
	return ret, ok, err
}

func (s *Scheduler) timerQueries(ctx context.Context) error {
	host := s.ctx.Host()
	st := host.TimerState()
	var errs []error

	if s.ctx.Settings().UseGameTime() && st.Active() {
		ret, ok, err := s.call(ctx, entities.CallbackGameTime, s.snapshot)
		switch {
		case err != nil:
			errs = append(errs, err)
		case ok:
			if ms, ok := ret.(lua.LNumber); ok {
				host.SetGameTime(millis(float64(ms)))
			} else if ret != lua.LNil {
				s.logger.Warn("scheduler: gameTime must return milliseconds", "got", ret.Type().String())
			}
		}
	}

	query := func(name string, when bool, yes, no func()) {
		if !when {
			return
		}
		ret, _, err := s.call(ctx, name, s.snapshot)
		switch {
		case err != nil:
			errs = append(errs, err)
		case ret == lua.LNil:
		case lua.LVAsBool(ret):
			yes()
		case no != nil:
			no()
		}
	}
	query(entities.CallbackStart, st == entities.TimerNotRunning, host.Start, nil)
	query(entities.CallbackSplit, st.Active(), host.Split, nil)
	query(entities.CallbackIsLoading, st.Active(), host.PauseGameTime, host.ResumeGameTime)
	query(entities.CallbackReset, st != entities.TimerNotRunning, host.Reset, nil)
	return errors.Join(errs...)
}

// Invoke runs a single lifecycle callback for hosts that own the split
// state machine, returning its answer without acting on the timer. state,
// or update after an update, opens a new tick.
func (s *Scheduler) Invoke(ctx context.Context, name string) (entities.Value, error) {
	if !entities.IsCallback(name) {
		return entities.Absent(), fmt.Errorf("unknown callback %q", name)
	}
	if name == entities.CallbackStartup {
		return entities.Absent(), s.Startup(ctx)
	}
	if err := s.Startup(ctx); err != nil {
		return entities.Absent(), err
	}
	defer s.flush()

	opens := s.phase == phaseIdle ||
		(name == entities.CallbackState && s.phase != phaseIdle) ||
		(name == entities.CallbackUpdate && s.phase == phaseUpdated)
	if opens {
		s.endTick()
		running, err := s.begin(ctx, name == entities.CallbackUpdate)
		if !running {
			s.phase = phaseIdle
			return entities.Absent(), err
		}
		s.phase = phaseStated
	}

	var ret lua.LValue
	var err error
	switch name {
	case entities.CallbackState:
		ret, _, err = s.callState(ctx)
		s.phase = phaseStated
		return entities.Absent(), err
	case entities.CallbackUpdate:
		ret, _, err = s.call(ctx, name, s.snapshot)
		s.phase = phaseUpdated
	default:
		ret, _, err = s.call(ctx, name, s.snapshot)
	}
	if err != nil || ret == lua.LNil {
		return entities.Absent(), err
	}
	if name == entities.CallbackGameTime {
		if ms, ok := ret.(lua.LNumber); ok {
			return entities.Number(float64(ms)), nil
		}
		return entities.Absent(), nil
	}
	return entities.Bool(lua.LVAsBool(ret)), nil
}

// call invokes a callback with a checkpoint around its variable writes. ok
// is false when the script does not define name.
func (s *Scheduler) call(ctx context.Context, name string, args ...lua.LValue) (ret lua.LValue, ok bool, err error) {
	fn := s.callbacks[name]
	if fn == nil {
		return lua.LNil, false, nil
	}
	vars := s.ctx.Settings().Variables()
	cp := vars.Checkpoint()

	s.L.SetContext(ctx)
	defer s.L.RemoveContext()
	if err := s.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		vars.Rollback(cp)
		cerr := &domainerrors.CallbackError{Callback: name, Err: err}
		s.logger.Warn("scheduler: callback failed", "callback", name, "error", err)
		return lua.LNil, true, cerr
	}
	ret = s.L.Get(-1)
	s.L.Pop(1)
	return ret, true, nil
}

func (s *Scheduler) endTick() {
	s.snapshot = lua.LNil
	s.phase = phaseIdle
	s.flush()
}

func (s *Scheduler) flush() {
	if n := s.ctx.Settings().Variables().Flush(s.ctx.Host()); n > 0 {
		s.logger.Debug("scheduler: variables flushed", "count", n)
	}
}

func millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

// readGlobals collects the configuration globals left by the script.
func readGlobals(L *lua.LState) settings.Globals {
	value := func(name string) entities.Value {
		v, _ := bridge.ToValue(L.GetGlobal(name))
		return v
	}
	g := settings.Globals{
		RefreshRate:     value("refreshRate"),
		UseGameTime:     value("useGameTime"),
		MapsCacheCycles: value("mapsCacheCycles"),
	}
	if tbl, ok := L.GetGlobal("variables").(*lua.LTable); ok {
		g.Variables = make(map[string]string)
		tbl.ForEach(func(k, v lua.LValue) {
			g.Variables[L.ToStringMeta(k).String()] = L.ToStringMeta(v).String()
		})
	}
	return g
}
