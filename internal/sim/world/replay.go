package world

import "fmt"

// ApplyLogEntry re-runs one tick log entry and returns the digest it produced.
// A reset entry resets; any other entry steps with its recorded actions.
func (w *World) ApplyLogEntry(e TickLogEntry) (string, error) {
	if e.Reset {
		if err := w.Reset(); err != nil {
			return "", err
		}
		return w.StateDigest(), nil
	}
	if got := w.tick.Load(); got != e.Tick {
		return "", fmt.Errorf("replay: world at tick %d, entry is tick %d", got, e.Tick)
	}
	acts := make(map[string]string, len(e.Actions))
	for _, a := range e.Actions {
		acts[a.AgentID] = a.Action
	}
	_, digest, err := w.StepOnce(acts)
	return digest, err
}
