package network

import (
	"regexp"
	"sync"
)

const subscriberBuffer = 64

// MemoryPubSub fans messages out to subscribers in the same process.
type MemoryPubSub struct {
	mu     sync.RWMutex
	filter *regexp.Regexp
	nextID int
	subs   map[string]map[int]chan Message
}

func NewMemoryPubSub() *MemoryPubSub {
	return &MemoryPubSub{subs: make(map[string]map[int]chan Message)}
}

// NewFilteredMemoryPubSub only accepts topics matching pattern, the same way
// Libp2pPubSub does with Libp2pOptions.TopicPattern.
func NewFilteredMemoryPubSub(pattern *regexp.Regexp) *MemoryPubSub {
	m := NewMemoryPubSub()
	m.filter = pattern
	return m
}

func (m *MemoryPubSub) Publish(topic string, payload []byte) error {
	if !m.allowed(topic) {
		return ErrTopicRejected
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ch := range m.subs[topic] {
		msg := Message{Topic: topic, Payload: append([]byte(nil), payload...)}
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

func (m *MemoryPubSub) Subscribe(topic string) (<-chan Message, func(), error) {
	if !m.allowed(topic) {
		return nil, nil, ErrTopicRejected
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[topic]; !ok {
		m.subs[topic] = make(map[int]chan Message)
	}
	id := m.nextID
	m.nextID++
	ch := make(chan Message, subscriberBuffer)
	m.subs[topic][id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		byID, ok := m.subs[topic]
		if !ok {
			return
		}
		if sub, exists := byID[id]; exists {
			delete(byID, id)
			close(sub)
		}
		if len(byID) == 0 {
			delete(m.subs, topic)
		}
	}
	return ch, cancel, nil
}

// Topics returns the topics that currently have at least one subscriber.
func (m *MemoryPubSub) Topics() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.subs))
	for topic := range m.subs {
		out = append(out, topic)
	}
	return out
}

func (m *MemoryPubSub) allowed(topic string) bool {
	return m.filter == nil || m.filter.MatchString(topic)
}
