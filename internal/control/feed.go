package control

import (
	"fmt"
	"sync"

	"github.com/asaskevich/EventBus"
	log "github.com/sirupsen/logrus"

	"github.com/phinze/darkpad/internal/module"
)

// feedBuffer is the per-listener backlog; a slow listener loses events
// rather than stalling publishers.
const feedBuffer = 32

// Envelope is one bus event as sent to listeners.
type Envelope struct {
	Topic string      `json:"topic"`
	Event interface{} `json:"event"`
}

// Feed fans bus events out to any number of listeners. It subscribes to the
// bus once; listeners join and leave without touching the bus.
type Feed struct {
	mu        sync.Mutex
	listeners map[chan Envelope]struct{}
}

// NewFeed subscribes to every public topic on bus.
func NewFeed(bus EventBus.Bus) (*Feed, error) {
	f := &Feed{listeners: make(map[chan Envelope]struct{})}

	handlers := map[string]interface{}{
		module.TopicGestureFired: func(ev module.GestureEvent) { f.broadcast(module.TopicGestureFired, ev) },
		module.TopicForcedOff:    func(ev module.ForcedOffEvent) { f.broadcast(module.TopicForcedOff, ev) },
		module.TopicDisplayPower: func(ev module.DisplayEvent) { f.broadcast(module.TopicDisplayPower, ev) },
		module.TopicGroupState:   func(ev module.GroupStateEvent) { f.broadcast(module.TopicGroupState, ev) },
	}
	for topic, fn := range handlers {
		if err := bus.Subscribe(topic, fn); err != nil {
			return nil, fmt.Errorf("subscribe %s: %w", topic, err)
		}
	}
	return f, nil
}

// Join registers a listener. Call leave when done.
func (f *Feed) Join() (events <-chan Envelope, leave func()) {
	ch := make(chan Envelope, feedBuffer)
	f.mu.Lock()
	f.listeners[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.listeners, ch)
			f.mu.Unlock()
		})
	}
}

func (f *Feed) broadcast(topic string, ev interface{}) {
	env := Envelope{Topic: topic, Event: ev}

	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.listeners {
		select {
		case ch <- env:
		default:
			log.WithField("topic", topic).Debug("Event listener lagging, dropping event")
		}
	}
}
