// Package settings captures script-declared configuration: tick rate, time
// source, user settings and custom variables.
package settings

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/CryZe/lasr-compiler/domain/entities"
	"github.com/CryZe/lasr-compiler/domain/ports"
)

// ErrDuplicateSetting is returned when a key is declared a second time.
var ErrDuplicateSetting = errors.New("setting already declared")

// Globals are the configuration globals a script may set at top level or
// during startup.
type Globals struct {
	RefreshRate     entities.Value
	UseGameTime     entities.Value
	MapsCacheCycles entities.Value
	// Variables holds the initial values of the "variables" table.
	Variables map[string]string
}

// Registry holds the settings of one script.
type Registry struct {
	host      ports.SettingsHost
	logger    *slog.Logger
	variables *VariableStore
	settings  map[string]entities.Setting
	values    map[string]entities.Value
	order     []string

	maxTickRate float64
	refreshRate float64
	useGameTime bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger for capture diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMaxTickRate caps the refresh rate a script may request.
func WithMaxTickRate(hz float64) Option {
	return func(r *Registry) {
		if hz > 0 {
			r.maxTickRate = hz
		}
	}
}

// NewRegistry returns an empty registry backed by host.
func NewRegistry(host ports.SettingsHost, opts ...Option) *Registry {
	r := &Registry{
		host:        host,
		logger:      slog.Default(),
		variables:   NewVariableStore(),
		settings:    make(map[string]entities.Setting),
		values:      make(map[string]entities.Value),
		maxTickRate: entities.DefaultMaxTickRate,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Variables returns the tick variable store.
func (r *Registry) Variables() *VariableStore {
	return r.variables
}

// Declare registers a user setting and returns its current value. Boolean
// settings are forwarded to the host, which may return a stored user choice;
// other types keep their default because the host has no surface for them.
// A second declaration of the same key returns the first registration's
// value together with ErrDuplicateSetting.
func (r *Registry) Declare(key string, def entities.Value, description string) (entities.Value, error) {
	if v, ok := r.values[key]; ok {
		return v, fmt.Errorf("%w: %q", ErrDuplicateSetting, key)
	}
	s, err := entities.NewSetting(key, def, description)
	if err != nil {
		return entities.Absent(), err
	}

	value := def
	if b, ok := def.AsBool(); ok && r.host != nil {
		value = entities.Bool(r.host.AddBoolSetting(key, s.Description, b))
	}
	r.settings[key] = s
	r.values[key] = value
	r.order = append(r.order, key)
	return value, nil
}

// Value returns the current value of a declared setting.
func (r *Registry) Value(key string) (entities.Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Settings lists the declared settings in declaration order.
func (r *Registry) Settings() []entities.Setting {
	out := make([]entities.Setting, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.settings[k])
	}
	return out
}

// Capture records the configuration globals.
func (r *Registry) Capture(g Globals) {
	switch n, ok := g.RefreshRate.AsNumber(); {
	case ok && n > 0:
		if n > r.maxTickRate {
			r.logger.Warn("settings: refreshRate clamped", "requested", n, "max", r.maxTickRate)
			n = r.maxTickRate
		}
		r.refreshRate = n
	case !g.RefreshRate.IsAbsent():
		r.logger.Warn("settings: ignoring refreshRate", "value", g.RefreshRate.String())
	}

	// Only a literal true selects game time.
	b, ok := g.UseGameTime.AsBool()
	r.useGameTime = ok && b

	if !g.MapsCacheCycles.IsAbsent() {
		r.logger.Debug("settings: mapsCacheCycles has no effect", "value", g.MapsCacheCycles.String())
	}

	for k, v := range g.Variables {
		r.variables.Set(k, v)
	}
}

// RefreshRate returns the captured tick rate.
func (r *Registry) RefreshRate() (float64, bool) {
	return r.refreshRate, r.refreshRate > 0
}

// UseGameTime reports whether the script drives game time.
func (r *Registry) UseGameTime() bool {
	return r.useGameTime
}

// Apply forwards the captured tick rate to the host.
func (r *Registry) Apply(host ports.RuntimeHost) {
	if hz, ok := r.RefreshRate(); ok {
		host.SetTickRate(hz)
	}
}
