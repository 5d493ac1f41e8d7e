package telemetry

import "fmt"

// Topics names the MQTT topics this daemon publishes diagnostics to.
// Telemetry is strictly observational: nothing subscribes to a command
// topic here, because SMS remains the sole control channel (spec.md
// §1's Non-goals).
type Topics struct {
	prefix string
}

// NewTopics creates a Topics rooted at prefix.
func NewTopics(prefix string) *Topics {
	return &Topics{prefix: prefix}
}

// Status is the daemon's own online/offline availability topic.
func (t *Topics) Status() string {
	return fmt.Sprintf("%s/status", t.prefix)
}

// ModemHealth carries the last modem health-probe outcome.
func (t *Topics) ModemHealth() string {
	return fmt.Sprintf("%s/modem/health", t.prefix)
}

// SignalQuality carries the last +CSQ reading.
func (t *Topics) SignalQuality() string {
	return fmt.Sprintf("%s/modem/signal", t.prefix)
}

// Input carries the last observed state of input index i.
func (t *Topics) Input(i int) string {
	return fmt.Sprintf("%s/input/%d", t.prefix, i)
}
