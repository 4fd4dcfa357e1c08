package network

import "errors"

// ErrTopicRejected is returned when a transport refuses to join a topic.
var ErrTopicRejected = errors.New("topic rejected by transport filter")

// Message is a single payload received on a topic.
type Message struct {
	Topic   string
	Payload []byte
}

// PubSub is the broadcast transport record topics travel over. Delivery is
// best effort: slow subscribers drop messages instead of blocking publishers.
type PubSub interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string) (<-chan Message, func(), error)
}
