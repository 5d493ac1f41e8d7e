package telemetry

// Publisher is the narrow interface the control loop depends on,
// letting tests substitute a recording fake for the real MQTT client.
type Publisher interface {
	Topics() *Topics
	Publish(topic string, payload interface{}, retain bool)
}
