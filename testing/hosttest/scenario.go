package hosttest

import (
	"maps"

	"github.com/CryZe/lasr-compiler/config"
)

// FromScenario builds a host with the scenario's processes, timer state
// and stored settings.
func FromScenario(s *config.Scenario) (*FakeHost, error) {
	h := New()
	h.State = s.Timer.TimerState()
	maps.Copy(h.BoolSettings, s.Settings)

	for _, ps := range s.Processes {
		p := &Process{Name: ps.Name, Modules: ps.Modules}
		for _, rs := range ps.Regions {
			data, err := rs.Bytes(s.Dir)
			if err != nil {
				return nil, err
			}
			p.Regions = append(p.Regions, Region{Base: rs.Base, Data: data, Flags: rs.MemoryFlags()})
		}
		h.AddProcess(p)
	}
	return h, nil
}
