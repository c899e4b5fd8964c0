package worker

import (
	"go.uber.org/zap"

	"github.com/Additional-Code/procurement/internal/messaging"
)

// HandlerRegistration binds a topic, and optionally one event type on it,
// to a handler. An empty EventType catches every event on the topic that has
// no more specific registration.
type HandlerRegistration struct {
	Topic     string
	EventType string
	Handler   messaging.Handler
}

type route struct {
	topic     string
	eventType string
}

type router map[route]messaging.Handler

func newRouter(regs []HandlerRegistration, logger *zap.Logger) router {
	r := make(router, len(regs))
	for _, reg := range regs {
		if reg.Topic == "" || reg.Handler == nil {
			continue
		}
		key := route{topic: reg.Topic, eventType: reg.EventType}
		if _, taken := r[key]; taken {
			logger.Warn("duplicate worker handler; keeping first",
				zap.String("topic", reg.Topic), zap.String("event_type", reg.EventType))
			continue
		}
		r[key] = reg.Handler
	}
	return r
}

// lookup prefers the exact event type, then the topic catch-all.
func (r router) lookup(msg messaging.Message) (messaging.Handler, bool) {
	if h, ok := r[route{topic: msg.Topic, eventType: msg.EventType()}]; ok {
		return h, true
	}
	h, ok := r[route{topic: msg.Topic}]
	return h, ok
}
