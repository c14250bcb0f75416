package mqtt

// Publisher sends payloads to an MQTT topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}
