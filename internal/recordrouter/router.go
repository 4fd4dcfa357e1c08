// Package recordrouter publishes and subscribes to records by key over a
// network.PubSub, naming each key's topic with keytopic.
package recordrouter

import (
	"errors"
	"log"
	"time"

	"record-pubsub/internal/core/network"
	"record-pubsub/internal/keytopic"
)

var ErrNoTransport = errors.New("record router has no transport")

// Record is a value seen on a record topic.
type Record struct {
	Key   []byte    `json:"key"`
	Topic string    `json:"topic"`
	Value []byte    `json:"value"`
	At    time.Time `json:"at"`
}

type Router struct {
	pubsub network.PubSub
	now    func() time.Time
}

func New(pubsub network.PubSub) *Router {
	return &Router{pubsub: pubsub, now: func() time.Time { return time.Now().UTC() }}
}

// Publish sends value on the topic derived from key and returns that topic.
func (r *Router) Publish(key, value []byte) (string, error) {
	if r.pubsub == nil {
		return "", ErrNoTransport
	}
	topic := keytopic.KeyToTopic(key)
	if err := r.pubsub.Publish(topic, value); err != nil {
		return "", err
	}
	return topic, nil
}

// Subscribe streams records published under key. The returned func stops
// the subscription and closes the channel.
func (r *Router) Subscribe(key []byte) (<-chan Record, func(), error) {
	return r.subscribe(keytopic.KeyToTopic(key))
}

// SubscribeTopic is Subscribe for a topic name supplied by a caller. Topics
// outside the record namespace fail with the keytopic error.
func (r *Router) SubscribeTopic(topic string) (<-chan Record, func(), error) {
	if _, err := keytopic.TopicToKey(topic); err != nil {
		return nil, nil, err
	}
	return r.subscribe(topic)
}

func (r *Router) subscribe(topic string) (<-chan Record, func(), error) {
	if r.pubsub == nil {
		return nil, nil, ErrNoTransport
	}
	ch, cancel, err := r.pubsub.Subscribe(topic)
	if err != nil {
		return nil, nil, err
	}
	out := make(chan Record, cap(ch))
	go r.consume(ch, out)
	return out, cancel, nil
}

func (r *Router) consume(in <-chan network.Message, out chan<- Record) {
	defer close(out)
	for msg := range in {
		key, err := keytopic.TopicToKey(msg.Topic)
		if err != nil {
			log.Printf("drop message on %q: %v", msg.Topic, err)
			continue
		}
		rec := Record{Key: key, Topic: msg.Topic, Value: msg.Payload, At: r.now()}
		select {
		case out <- rec:
		default:
		}
	}
}
