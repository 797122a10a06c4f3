package messaging

import "github.com/segmentio/kafka-go"

// EventTypeHeader names the Kafka header carrying the event type, so
// consumers can dispatch without decoding the payload first.
const EventTypeHeader = "event-type"

// HeaderCarrier exposes a message's headers as an OpenTelemetry
// TextMapCarrier. Set replaces an existing header in place.
type HeaderCarrier struct {
	msg *kafka.Message
}

func NewHeaderCarrier(msg *kafka.Message) HeaderCarrier {
	return HeaderCarrier{msg: msg}
}

func (c HeaderCarrier) Get(key string) string {
	return header(c.msg, key)
}

func (c HeaderCarrier) Set(key, value string) {
	for i := range c.msg.Headers {
		if c.msg.Headers[i].Key == key {
			c.msg.Headers[i].Value = []byte(value)
			return
		}
	}
	c.msg.Headers = append(c.msg.Headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c HeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(c.msg.Headers))
	for _, h := range c.msg.Headers {
		keys = append(keys, h.Key)
	}
	return keys
}

// header returns the first value of key, or "" when msg has none.
func header(msg *kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
