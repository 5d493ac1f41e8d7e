package telemetry

import "testing"

type recordingPublisher struct {
	topics    *Topics
	published []publishedMessage
}

type publishedMessage struct {
	topic   string
	payload interface{}
	retain  bool
}

func newRecordingPublisher(prefix string) *recordingPublisher {
	return &recordingPublisher{topics: NewTopics(prefix)}
}

func (r *recordingPublisher) Topics() *Topics {
	return r.topics
}

func (r *recordingPublisher) Publish(topic string, payload interface{}, retain bool) {
	r.published = append(r.published, publishedMessage{topic, payload, retain})
}

func TestTopicsNamespacing(t *testing.T) {
	topics := NewTopics("alarmdiald")
	if topics.Status() != "alarmdiald/status" {
		t.Fatalf("Status() = %q", topics.Status())
	}
	if topics.Input(2) != "alarmdiald/input/2" {
		t.Fatalf("Input(2) = %q", topics.Input(2))
	}
}

func TestRecordingPublisherCapturesPublish(t *testing.T) {
	r := newRecordingPublisher("alarmdiald")
	r.Publish(r.Topics().SignalQuality(), "17,99", true)

	if len(r.published) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(r.published))
	}
	got := r.published[0]
	if got.topic != "alarmdiald/modem/signal" || got.payload != "17,99" || !got.retain {
		t.Fatalf("unexpected published message %+v", got)
	}
}
