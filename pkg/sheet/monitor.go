package sheet

import (
	"src.adam.sh/pkg/vals"
)

// Subscription is a registered monitor. It is returned by Sheet.Monitor.
type Subscription struct {
	s    *Sheet
	cell int
	f    func(vals.Value)
}

// Monitor registers f to be called with the value of the named cell whenever
// an Update changes it. Before returning, it calls f once with the current
// value. A panic in that first call is propagated to the caller.
func (s *Sheet) Monitor(name vals.Name, f func(vals.Value)) (*Subscription, error) {
	c, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	sub := &Subscription{s, s.byName[name], f}
	c.monitors = append(c.monitors, sub)
	f(c.value)
	return sub, nil
}

// Disconnect removes the monitor. It is safe to call more than once, and
// from within the monitor itself.
func (sub *Subscription) Disconnect() {
	if sub.s == nil {
		return
	}
	c := sub.s.cells[sub.cell]
	for i, m := range c.monitors {
		if m == sub {
			c.monitors = append(c.monitors[:i:i], c.monitors[i+1:]...)
			break
		}
	}
	sub.s = nil
}

// Calls the monitor, turning a panic into a *MonitorError. Monitors
// disconnected by an earlier monitor in the same round are skipped.
func (sub *Subscription) call(v vals.Value) (err error) {
	if sub.s == nil {
		return nil
	}
	name, logger := sub.s.cells[sub.cell].name, sub.s.cfg.Logger
	defer func() {
		if r := recover(); r != nil {
			logger.Printf("monitor of %s panicked: %v", name, r)
			err = &MonitorError{name, r}
		}
	}()
	sub.f(v)
	return nil
}
